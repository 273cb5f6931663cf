package domain

import (
	"context"
	"time"
)

// Target is one registered push endpoint for a user. Delivery keys follow
// the Web Push spec (p256dh + auth).
type Target struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Endpoint  string    `json:"endpoint"`
	P256dhKey string    `json:"p256dh_key"`
	AuthKey   string    `json:"auth_key"`
	CreatedAt time.Time `json:"created_at"`
}

// Message is the payload shown to the user when content goes live.
type Message struct {
	Title     string `json:"title"`
	Body      string `json:"body,omitempty"`
	URL       string `json:"url,omitempty"`
	ContentID string `json:"content_id"`
}

// Dispatcher delivers a message to one target. Errors are reported to the
// caller but deliveries are best-effort: a failure never rolls anything back.
type Dispatcher interface {
	Send(ctx context.Context, target Target, msg Message) error
}

type Repository interface {
	Init(ctx context.Context) error
	ListByUser(ctx context.Context, userID string) ([]Target, error)
	Save(ctx context.Context, target Target) error
	Delete(ctx context.Context, id string) error
}
