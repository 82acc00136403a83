package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound reports that no live session exists for the given id.
var ErrNotFound = errors.New("session: not found")

// Session binds a user-agent to a user id until logout or expiry. It stores
// identity pointers only; which user to bind is the resolver's decision.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store defines how sessions are stored and retrieved. Implementations must
// honour ExpiresAt as an absolute TTL.
type Store interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, sessionID string) (Session, error)
	Delete(ctx context.Context, sessionID string) error
}
