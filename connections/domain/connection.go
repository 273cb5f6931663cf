package domain

import (
	"context"
	"errors"
	"time"
)

// ErrNotConnected is returned when an owner has no stored platform connection.
var ErrNotConnected = errors.New("platform connection not found")

// PlatformConnection is one user's LinkedIn OAuth grant. Tokens are stored
// encrypted and only decrypted at the point of use. The publishing engine
// treats rows as read-only; the OAuth callback owns their lifecycle.
type PlatformConnection struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	AccessTokenEnc  string    `json:"-"`
	RefreshTokenEnc string    `json:"-"`
	ExpiresAt       time.Time `json:"expires_at"`
	ProfileID       string    `json:"profile_id"` // bare member id or full person URN
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Expired reports whether the grant is past its expiry at the given instant.
func (c PlatformConnection) Expired(now time.Time) bool {
	return c.ExpiresAt.Before(now)
}

type Repository interface {
	Init(ctx context.Context) error
	GetByUserID(ctx context.Context, userID string) (PlatformConnection, error)
	Upsert(ctx context.Context, conn PlatformConnection) error
	Delete(ctx context.Context, userID string) error
}
