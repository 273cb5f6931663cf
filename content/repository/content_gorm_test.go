package repository

import (
	"context"
	"testing"
	"time"

	"github.com/draftcast/draftcast/content/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRepo(t *testing.T) *ContentGormRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// In-memory sqlite lives per connection; keep the pool at one.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	repo := NewContentGormRepository(db)
	require.NoError(t, repo.Init(context.Background()))
	return repo
}

func ptr[T any](v T) *T { return &v }

func seedRun(t *testing.T, repo *ContentGormRepository, id, userID string) {
	t.Helper()
	require.NoError(t, repo.CreateRun(context.Background(), domain.GenerationRun{
		ID:        id,
		UserID:    userID,
		Status:    "completed",
		CreatedAt: time.Now().UTC(),
	}))
}

func seedPost(t *testing.T, repo *ContentGormRepository, item domain.Item) {
	t.Helper()
	if item.Kind == "" {
		item.Kind = domain.KindPost
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
		item.UpdatedAt = item.CreatedAt
	}
	require.NoError(t, repo.Create(context.Background(), item))
}

func TestSelectDue_EligibilityGate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()
	seedRun(t, repo, "run-1", "u1")

	base := domain.Item{
		Kind:            domain.KindPost,
		GenerationRunID: ptr("run-1"),
		Body:            "x",
		Approved:        true,
		AutoPublish:     true,
		ScheduledAt:     ptr(now.Add(-time.Minute)),
		Status:          domain.StatusScheduled,
	}

	due := base
	due.ID = "due"
	seedPost(t, repo, due)

	notApproved := base
	notApproved.ID = "not-approved"
	notApproved.Approved = false
	seedPost(t, repo, notApproved)

	manualOnly := base
	manualOnly.ID = "manual-only"
	manualOnly.AutoPublish = false
	seedPost(t, repo, manualOnly)

	unscheduled := base
	unscheduled.ID = "unscheduled"
	unscheduled.ScheduledAt = nil
	seedPost(t, repo, unscheduled)

	future := base
	future.ID = "future"
	future.ScheduledAt = ptr(now.Add(time.Hour))
	seedPost(t, repo, future)

	alreadyPublished := base
	alreadyPublished.ID = "published"
	alreadyPublished.ExternalPostID = ptr("urn:li:share:1")
	seedPost(t, repo, alreadyPublished)

	terminal := base
	terminal.ID = "terminal"
	terminal.Status = domain.StatusFailed
	seedPost(t, repo, terminal)

	items, err := repo.SelectDue(ctx, domain.KindPost, now)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "due", items[0].ID)
	require.NotNil(t, items[0].OwnerID)
	assert.Equal(t, "u1", *items[0].OwnerID)
}

func TestSelectDue_OrdersByScheduleThenID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()
	seedRun(t, repo, "run-1", "u1")

	for _, row := range []struct {
		id     string
		offset time.Duration
	}{
		{"b-later", -time.Minute},
		{"z-early", -time.Hour},
		{"a-later", -time.Minute},
	} {
		seedPost(t, repo, domain.Item{
			ID:              row.id,
			Kind:            domain.KindPost,
			GenerationRunID: ptr("run-1"),
			Body:            "x",
			Approved:        true,
			AutoPublish:     true,
			ScheduledAt:     ptr(now.Add(row.offset)),
			Status:          domain.StatusScheduled,
		})
	}

	items, err := repo.SelectDue(ctx, domain.KindPost, now)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "z-early", items[0].ID)
	assert.Equal(t, "a-later", items[1].ID)
	assert.Equal(t, "b-later", items[2].ID)
}

func TestSelectDue_ItemWithoutRunKeepsNilOwner(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	seedPost(t, repo, domain.Item{
		ID:          "orphan",
		Kind:        domain.KindPost,
		Body:        "x",
		Approved:    true,
		AutoPublish: true,
		ScheduledAt: ptr(now.Add(-time.Minute)),
		Status:      domain.StatusScheduled,
	})

	items, err := repo.SelectDue(ctx, domain.KindPost, now)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Nil(t, items[0].OwnerID)
}

func TestClaimForPublish_OnlyFirstClaimerWins(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()
	window := 10 * time.Minute

	seedPost(t, repo, domain.Item{
		ID: "p1", Kind: domain.KindPost, Body: "x",
		Approved: true, AutoPublish: true,
		ScheduledAt: ptr(now.Add(-time.Minute)),
		Status:      domain.StatusScheduled,
	})

	claimed, err := repo.ClaimForPublish(ctx, domain.KindPost, "p1", now, window)
	require.NoError(t, err)
	assert.True(t, claimed)

	again, err := repo.ClaimForPublish(ctx, domain.KindPost, "p1", now.Add(time.Minute), window)
	require.NoError(t, err)
	assert.False(t, again, "a live claim must block a second claimer")
}

func TestClaimForPublish_StaleClaimExpires(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()
	window := 10 * time.Minute

	seedPost(t, repo, domain.Item{
		ID: "p1", Kind: domain.KindPost, Body: "x",
		Approved: true, AutoPublish: true,
		ScheduledAt:      ptr(now.Add(-time.Hour)),
		PublishClaimedAt: ptr(now.Add(-30 * time.Minute)),
		Status:           domain.StatusScheduled,
	})

	claimed, err := repo.ClaimForPublish(ctx, domain.KindPost, "p1", now, window)
	require.NoError(t, err)
	assert.True(t, claimed)
}

func TestClaimForPublish_PublishedRowNotClaimable(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	seedPost(t, repo, domain.Item{
		ID: "p1", Kind: domain.KindPost, Body: "x",
		Approved: true, AutoPublish: true,
		ScheduledAt:    ptr(now.Add(-time.Minute)),
		ExternalPostID: ptr("urn:li:share:1"),
		Status:         domain.StatusPublished,
	})

	claimed, err := repo.ClaimForPublish(ctx, domain.KindPost, "p1", now, 10*time.Minute)
	require.NoError(t, err)
	assert.False(t, claimed)
}

func TestMarkPublished_ExcludesFromFutureSelection(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()
	seedRun(t, repo, "run-1", "u1")

	seedPost(t, repo, domain.Item{
		ID: "p1", Kind: domain.KindPost, GenerationRunID: ptr("run-1"), Body: "x",
		Approved: true, AutoPublish: true,
		ScheduledAt:  ptr(now.Add(-time.Minute)),
		PublishError: ptr("LinkedIn rate limit reached. The post will be retried automatically."),
		Status:       domain.StatusScheduled,
	})

	require.NoError(t, repo.MarkPublished(ctx, domain.KindPost, "p1", "urn:li:share:9", now))

	item, err := repo.Get(ctx, domain.KindPost, "p1")
	require.NoError(t, err)
	require.NotNil(t, item.ExternalPostID)
	assert.Equal(t, "urn:li:share:9", *item.ExternalPostID)
	assert.Nil(t, item.PublishError, "stale error must be cleared on success")
	assert.Equal(t, domain.StatusPublished, item.Status)

	due, err := repo.SelectDue(ctx, domain.KindPost, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestMarkPublishError_ReleasesClaimAndStaysEligible(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()
	seedRun(t, repo, "run-1", "u1")

	seedPost(t, repo, domain.Item{
		ID: "p1", Kind: domain.KindPost, GenerationRunID: ptr("run-1"), Body: "x",
		Approved: true, AutoPublish: true,
		ScheduledAt: ptr(now.Add(-time.Minute)),
		Status:      domain.StatusScheduled,
	})

	claimed, err := repo.ClaimForPublish(ctx, domain.KindPost, "p1", now, 10*time.Minute)
	require.NoError(t, err)
	require.True(t, claimed)

	require.NoError(t, repo.MarkPublishError(ctx, domain.KindPost, "p1", "LinkedIn connection expired"))

	item, err := repo.Get(ctx, domain.KindPost, "p1")
	require.NoError(t, err)
	require.NotNil(t, item.PublishError)
	assert.Equal(t, "LinkedIn connection expired", *item.PublishError)
	assert.Nil(t, item.PublishClaimedAt)

	// Failure is retryable: row stays selectable and claimable.
	due, err := repo.SelectDue(ctx, domain.KindPost, now.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, due, 1)

	reclaimed, err := repo.ClaimForPublish(ctx, domain.KindPost, "p1", now.Add(time.Minute), 10*time.Minute)
	require.NoError(t, err)
	assert.True(t, reclaimed)
}

func TestMarkFailed_IsTerminal(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()
	seedRun(t, repo, "run-1", "u1")

	seedPost(t, repo, domain.Item{
		ID: "c1", Kind: domain.KindCarousel, GenerationRunID: ptr("run-1"),
		Title: "Deck", Body: "caption",
		Approved: true, AutoPublish: true,
		ScheduledAt: ptr(now.Add(-time.Minute)),
		Status:      domain.StatusScheduled,
	})

	require.NoError(t, repo.MarkFailed(ctx, domain.KindCarousel, "c1", "document not generated"))

	item, err := repo.Get(ctx, domain.KindCarousel, "c1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, item.Status)
	require.NotNil(t, item.PublishError)
	assert.Equal(t, "document not generated", *item.PublishError)

	due, err := repo.SelectDue(ctx, domain.KindCarousel, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestMarkPublished_UnknownRow(t *testing.T) {
	repo := newTestRepo(t)
	err := repo.MarkPublished(context.Background(), domain.KindPost, "missing", "urn:li:share:1", time.Now().UTC())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSetApproval_SchedulesItem(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()
	seedRun(t, repo, "run-1", "u1")

	seedPost(t, repo, domain.Item{
		ID: "p1", Kind: domain.KindPost, GenerationRunID: ptr("run-1"), Body: "x",
		Status: domain.StatusDraft,
	})

	at := now.Add(-time.Second)
	require.NoError(t, repo.SetApproval(ctx, domain.KindPost, "p1", true, true, &at))

	due, err := repo.SelectDue(ctx, domain.KindPost, now)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "p1", due[0].ID)
	assert.Equal(t, domain.StatusScheduled, due[0].Status)
}

func TestSetApproval_UnscheduleClearsEligibility(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()
	seedRun(t, repo, "run-1", "u1")

	seedPost(t, repo, domain.Item{
		ID: "p1", Kind: domain.KindPost, GenerationRunID: ptr("run-1"), Body: "x",
		Approved: true, AutoPublish: true,
		ScheduledAt: ptr(now.Add(-time.Minute)),
		Status:      domain.StatusScheduled,
	})

	require.NoError(t, repo.SetApproval(ctx, domain.KindPost, "p1", false, false, nil))

	due, err := repo.SelectDue(ctx, domain.KindPost, now)
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestAttachmentRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	seedPost(t, repo, domain.Item{
		ID: "p1", Kind: domain.KindPost, Body: "x",
		Image:  &domain.Attachment{ImageURL: "https://cdn/img.png", AltText: "alt", IncludeInPost: ptr(false)},
		Status: domain.StatusDraft,
	})

	item, err := repo.Get(ctx, domain.KindPost, "p1")
	require.NoError(t, err)
	require.NotNil(t, item.Image)
	assert.Equal(t, "https://cdn/img.png", item.Image.ImageURL)
	assert.Equal(t, "alt", item.Image.AltText)
	require.NotNil(t, item.Image.IncludeInPost)
	assert.False(t, *item.Image.IncludeInPost)
	assert.False(t, item.Image.Included())
}
