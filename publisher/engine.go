package publisher

import (
	"context"
	"errors"
	"fmt"
	"time"

	connDomain "github.com/draftcast/draftcast/connections/domain"
	contentDomain "github.com/draftcast/draftcast/content/domain"
	notifDomain "github.com/draftcast/draftcast/notifications/domain"
	"github.com/draftcast/draftcast/pkg/crypto"
	"github.com/draftcast/draftcast/platform/linkedin"
	"github.com/sirupsen/logrus"
)

// Failure messages persisted to publish_error and surfaced in the UI.
const (
	errNoUserID          = "No user ID available"
	errNotConnected      = "LinkedIn not connected"
	errConnectionExpired = "LinkedIn connection expired"
	errProfileMissing    = "LinkedIn profile ID missing"
	errDocumentMissing   = "document not generated"
	errGenericPublish    = "Failed to publish to LinkedIn"
)

// PlatformClient is the publish boundary the engine consumes.
type PlatformClient interface {
	CreatePost(ctx context.Context, in linkedin.PostInput) (linkedin.PublishResult, error)
	CreateDocumentPost(ctx context.Context, in linkedin.DocumentPostInput) (linkedin.PublishResult, error)
}

// LockFunc acquires a named lock for the given duration and reports whether
// it was obtained. A nil LockFunc disables run-level locking; the per-item
// claim in the content repository still prevents double-publish.
type LockFunc func(key string, expiration time.Duration) bool

// Engine is the scheduled multi-content publishing engine. One RunOnce call
// is one bounded pass over currently-eligible items; all cross-invocation
// coordination happens through the persisted publish state.
type Engine struct {
	content     contentDomain.Repository
	connections connDomain.Repository
	targets     notifDomain.Repository
	dispatcher  notifDomain.Dispatcher
	client      PlatformClient
	formatter   Formatter
	acquireLock LockFunc
	claimWindow time.Duration
}

// Options tunes engine behavior beyond its collaborators.
type Options struct {
	AcquireLock LockFunc
	ClaimWindow time.Duration
}

func NewEngine(
	content contentDomain.Repository,
	connections connDomain.Repository,
	targets notifDomain.Repository,
	dispatcher notifDomain.Dispatcher,
	client PlatformClient,
	formatter Formatter,
	opts Options,
) *Engine {
	claimWindow := opts.ClaimWindow
	if claimWindow == 0 {
		claimWindow = 10 * time.Minute
	}
	return &Engine{
		content:     content,
		connections: connections,
		targets:     targets,
		dispatcher:  dispatcher,
		client:      client,
		formatter:   formatter,
		acquireLock: opts.AcquireLock,
		claimWindow: claimWindow,
	}
}

// RunOnce selects and publishes every eligible item as of now. Per-item
// failures become result entries; only a selection failure or a credential
// decryption failure aborts the run.
func (e *Engine) RunOnce(ctx context.Context, now time.Time) (RunSummary, error) {
	summary := RunSummary{StartedAt: now, Results: []ItemResult{}}
	start := time.Now()

	if e.acquireLock != nil && !e.acquireLock("lock:publisher:run", 2*time.Minute) {
		logrus.Info("[PUBLISHER] Another run holds the lock. Skipping.")
		summary.Skipped = true
		return summary, nil
	}

	for _, kind := range contentDomain.PublishPriority {
		items, err := e.content.SelectDue(ctx, kind, now)
		if err != nil {
			return summary, fmt.Errorf("select due %s items: %w", kind, err)
		}

		for _, item := range items {
			result, attempted, err := e.processItem(ctx, item, now)
			if err != nil {
				return summary, err
			}
			if !attempted {
				continue
			}

			summary.Results = append(summary.Results, result)
			summary.Processed++
			if result.Success {
				summary.Published++
			} else {
				summary.Failed++
			}
			if result.NotificationSent {
				summary.NotificationsSent++
			}
		}
	}

	summary.DurationMs = time.Since(start).Milliseconds()
	logrus.WithFields(logrus.Fields{
		"processed": summary.Processed,
		"published": summary.Published,
		"failed":    summary.Failed,
	}).Info("[PUBLISHER] Run complete")
	return summary, nil
}

// processItem runs the per-item pipeline: validate, claim, publish, persist,
// notify. Every error up to the publish step is converted into data at the
// item boundary. The second return value is false when another run claimed
// the item first (no-op skip).
func (e *Engine) processItem(ctx context.Context, item contentDomain.Item, now time.Time) (ItemResult, bool, error) {
	result := ItemResult{ContentID: item.ID, ContentType: item.Kind}
	log := logrus.WithFields(logrus.Fields{"kind": item.Kind, "id": item.ID})

	// A carousel without a rendered document cannot self-heal; flag it
	// terminally instead of retrying it every run.
	if item.Kind == contentDomain.KindCarousel && (item.DocumentURL == nil || *item.DocumentURL == "") {
		if err := e.content.MarkFailed(ctx, item.Kind, item.ID, errDocumentMissing); err != nil {
			log.WithError(err).Error("[PUBLISHER] Failed to persist terminal state")
		}
		result.Error = errDocumentMissing
		return result, true, nil
	}

	if item.OwnerID == nil || *item.OwnerID == "" {
		// Orphaned legacy row: no owner to attach a publish error to.
		result.Error = errNoUserID
		return result, true, nil
	}
	owner := *item.OwnerID

	conn, err := e.connections.GetByUserID(ctx, owner)
	if err != nil {
		if errors.Is(err, connDomain.ErrNotConnected) {
			return e.failItem(ctx, result, item, errNotConnected), true, nil
		}
		log.WithError(err).Error("[PUBLISHER] Connection lookup failed")
		result.Error = err.Error()
		return result, true, nil
	}
	if conn.Expired(now) {
		return e.failItem(ctx, result, item, errConnectionExpired), true, nil
	}
	if conn.ProfileID == "" {
		return e.failItem(ctx, result, item, errProfileMissing), true, nil
	}

	accessToken, err := crypto.Decrypt(conn.AccessTokenEnc)
	if err != nil {
		// A broken encryption key affects every item; not part of the
		// per-item error taxonomy.
		return result, false, fmt.Errorf("decrypt access token for user %s: %w", owner, err)
	}
	author := linkedin.MemberURN(conn.ProfileID)

	text := item.Body
	if item.Kind == contentDomain.KindArticle || item.Kind == contentDomain.KindCarousel {
		formatted, err := e.formatter.Format(item.Body)
		if err != nil {
			log.WithError(err).Error("[PUBLISHER] Content formatting failed")
			return e.failItem(ctx, result, item, errGenericPublish), true, nil
		}
		text = formatted
	}

	claimed, err := e.content.ClaimForPublish(ctx, item.Kind, item.ID, now, e.claimWindow)
	if err != nil {
		log.WithError(err).Error("[PUBLISHER] Claim write failed")
		result.Error = err.Error()
		return result, true, nil
	}
	if !claimed {
		log.Debug("[PUBLISHER] Item already claimed by another run. Skipping.")
		return result, false, nil
	}

	var published linkedin.PublishResult
	var pubErr error
	if item.Kind == contentDomain.KindCarousel {
		published, pubErr = e.client.CreateDocumentPost(ctx, linkedin.DocumentPostInput{
			AccessToken: accessToken,
			AuthorURN:   author,
			Text:        text,
			DocumentURL: *item.DocumentURL,
			Title:       item.Title,
		})
	} else {
		in := linkedin.PostInput{
			AccessToken: accessToken,
			AuthorURN:   author,
			Text:        text,
		}
		if item.Image.Included() {
			in.ImageURL = item.Image.ImageURL
			in.ImageAltText = item.Image.AltText
		}
		published, pubErr = e.client.CreatePost(ctx, in)
	}

	if pubErr != nil {
		msg := errGenericPublish
		var platformErr *linkedin.PlatformError
		if errors.As(pubErr, &platformErr) && platformErr.UserMessage != "" {
			msg = platformErr.UserMessage
		}
		log.WithError(pubErr).Error("[PUBLISHER] Publish failed")
		return e.failItem(ctx, result, item, msg), true, nil
	}

	if err := e.content.MarkPublished(ctx, item.Kind, item.ID, published.PostURN, now); err != nil {
		// The remote post exists; keep the success outcome and leave
		// reconciliation to the next selection pass.
		log.WithError(err).Error("[PUBLISHER] Publish succeeded but outcome write failed")
	}

	log.Infof("[PUBLISHER] Published %s", published.PostURN)
	result.Success = true
	result.ExternalID = published.PostURN
	result.ExternalURL = published.PostURL
	result.NotificationSent = e.notifyOwner(ctx, owner, item, published)
	return result, true, nil
}

// failItem persists a retryable failure and mirrors it into the result
// entry. The persisted publish_error is what the UI surfaces.
func (e *Engine) failItem(ctx context.Context, result ItemResult, item contentDomain.Item, message string) ItemResult {
	if err := e.content.MarkPublishError(ctx, item.Kind, item.ID, message); err != nil {
		logrus.WithError(err).WithField("id", item.ID).Error("[PUBLISHER] Failed to persist publish error")
	}
	result.Error = message
	return result
}

// notifyOwner attempts best-effort push delivery to every registered target.
// Returns whether at least one delivery succeeded; failures never alter the
// already-persisted publish outcome.
func (e *Engine) notifyOwner(ctx context.Context, owner string, item contentDomain.Item, published linkedin.PublishResult) bool {
	if e.dispatcher == nil || e.targets == nil {
		return false
	}

	targets, err := e.targets.ListByUser(ctx, owner)
	if err != nil {
		logrus.WithError(err).Warn("[PUBLISHER] Notification target lookup failed")
		return false
	}

	msg := notifDomain.Message{
		Title:     "Published: " + itemPreview(item),
		URL:       published.PostURL,
		ContentID: item.ID,
	}

	sent := false
	for _, target := range targets {
		if err := e.dispatcher.Send(ctx, target, msg); err != nil {
			logrus.WithError(err).Warnf("[PUBLISHER] Notification delivery failed for target %s", target.ID)
			continue
		}
		sent = true
	}
	return sent
}

func itemPreview(item contentDomain.Item) string {
	if item.Title != "" {
		return item.Title
	}
	runes := []rune(item.Body)
	if len(runes) > 60 {
		return string(runes[:60]) + "…"
	}
	return item.Body
}
