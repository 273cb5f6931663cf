package publisher

import (
	"time"

	contentDomain "github.com/draftcast/draftcast/content/domain"
)

// ItemResult is the per-item record of one publish attempt. Success reflects
// the publish step only; notification delivery is tracked separately.
type ItemResult struct {
	ContentID        string             `json:"content_id"`
	ContentType      contentDomain.Kind `json:"content_type"`
	Success          bool               `json:"success"`
	ExternalID       string             `json:"external_id,omitempty"`
	ExternalURL      string             `json:"external_url,omitempty"`
	Error            string             `json:"error,omitempty"`
	NotificationSent bool               `json:"notification_sent"`
}

// RunSummary aggregates one engine invocation. It is returned to the caller
// for observability and never persisted; the durable record is the per-item
// state written back to the content rows.
type RunSummary struct {
	StartedAt         time.Time    `json:"started_at"`
	DurationMs        int64        `json:"duration_ms"`
	Processed         int          `json:"processed"`
	Published         int          `json:"published"`
	Failed            int          `json:"failed"`
	NotificationsSent int          `json:"notifications_sent"`
	Skipped           bool         `json:"skipped,omitempty"` // another run held the lock
	Results           []ItemResult `json:"results"`
}
