package domain

import (
	"context"
	"time"
)

// Repository persists content rows and their publish state. SelectDue is a
// read-only snapshot; all mutations happen through the explicit outcome
// writers so the engine never holds a row open across a platform call.
type Repository interface {
	Init(ctx context.Context) error

	// SelectDue returns rows of the given kind with approved and
	// auto_publish set, a scheduled_at at or before now, no external post
	// id, and no terminal failed status. OwnerID is resolved through the
	// owning generation run when present.
	SelectDue(ctx context.Context, kind Kind, now time.Time) ([]Item, error)

	// ClaimForPublish conditionally marks a row as in-flight. It returns
	// false when the row was already published or claimed within the
	// staleness window, meaning another run owns it.
	ClaimForPublish(ctx context.Context, kind Kind, id string, now time.Time, window time.Duration) (bool, error)

	// MarkPublished records a successful publish: external id, published-at,
	// status, and a cleared publish error.
	MarkPublished(ctx context.Context, kind Kind, id, externalID string, publishedAt time.Time) error

	// MarkPublishError records a retryable failure and releases the claim so
	// the row is selected again next run.
	MarkPublishError(ctx context.Context, kind Kind, id, message string) error

	// MarkFailed records a terminal failure; the row is excluded from
	// future selection until externally repaired.
	MarkFailed(ctx context.Context, kind Kind, id, message string) error

	// Management API support.
	List(ctx context.Context) ([]Item, error)
	Get(ctx context.Context, kind Kind, id string) (Item, error)
	Create(ctx context.Context, item Item) error
	SetApproval(ctx context.Context, kind Kind, id string, approved, autoPublish bool, scheduledAt *time.Time) error
	SetAutoPublish(ctx context.Context, kind Kind, id string, enabled bool) error

	CreateRun(ctx context.Context, run GenerationRun) error
}
