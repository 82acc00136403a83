package store

import (
	"context"
	"errors"

	"github.com/campusnotes/campusnotes/internal/identity/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for now)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable, and a transaction entry point for the resolver's read-then-write
// sequence, which must be atomic.
type Store interface {
	Users() Users
	Identities() Identities

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error, the
	// transaction is rolled back; otherwise it is committed. This is the
	// recommended way to handle transactions.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail returns a user by its unique email. Used for the
	// cross-provider merge lookup.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	// Returns ErrAlreadyExists when the email is already taken.
	CreateUser(ctx context.Context, u domain.User) error

	// SetAdmin flips the is_admin flag and bumps updated_at.
	SetAdmin(ctx context.Context, userID string, isAdmin bool) error

	// DeleteUser cascades to linked_identities (per schema).
	DeleteUser(ctx context.Context, userID string) error

	// CountUsers returns the total number of users.
	CountUsers(ctx context.Context) (int64, error)
}

type Identities interface {
	// GetIdentity returns the linked identity for (provider, providerUserID).
	GetIdentity(ctx context.Context, provider, providerUserID string) (domain.LinkedIdentity, error)

	// ListIdentitiesByUser returns all identities owned by a user, ordered by
	// provider name.
	ListIdentitiesByUser(ctx context.Context, userID string) ([]domain.LinkedIdentity, error)

	// CreateIdentity inserts a new linked identity. Returns ErrAlreadyExists
	// when (provider, providerUserID) is already present, or when the owning
	// user already holds an identity for the provider.
	CreateIdentity(ctx context.Context, li domain.LinkedIdentity) error

	// UpdateToken replaces the token blob for an existing identity and bumps
	// updated_at. Ownership is never changed by this call.
	UpdateToken(ctx context.Context, provider, providerUserID string, token domain.ProviderToken) error

	// CountIdentities returns the total number of linked identities.
	CountIdentities(ctx context.Context) (int64, error)
}
