// Package session issues and resolves login sessions. Tokens are opaque
// random strings carried in the panel_session cookie or a Bearer header.
package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned for unknown or expired tokens.
var ErrNotFound = errors.New("session not found")

// tokenBytes is the entropy of a session token before hex encoding.
const tokenBytes = 32

type Session struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Store interface {
	Create(ctx context.Context, userID int64) (*Session, error)
	Get(ctx context.Context, token string) (*Session, error)
	// Delete is idempotent: unknown tokens are not an error.
	Delete(ctx context.Context, token string) error
}
