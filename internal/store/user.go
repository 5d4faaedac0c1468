package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskdeck-api/internal/domain"
)

// UserStore defines the interface for user data persistence.
//
// Mutations are deliberately narrow: each one maps to a single atomic
// UPDATE keyed by user ID, so concurrent requests against the same account
// cannot lose writes through a read-then-write cycle.
type UserStore interface {
	// Create saves a new user to the store. The user must already carry a
	// hashed password. Returns ErrEmailExists if the email is taken and
	// ErrInvalidEntity (wrapping the domain error) if validation fails.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail retrieves a user by their email address.
	// Returns ErrUserNotFound if the user does not exist.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// SetVerificationCode replaces the outstanding verification code and its
	// expiry in one statement, invalidating any previous code.
	// Returns ErrUserNotFound if the user does not exist.
	SetVerificationCode(ctx context.Context, id uuid.UUID, code int, expiresAt time.Time) error

	// MarkVerified flips the verified flag and clears the verification code
	// fields in one statement. Returns ErrUserNotFound if the user does not
	// exist. The flag is never reset back to false by this store.
	MarkVerified(ctx context.Context, id uuid.UUID) error

	// SetResetCredential records the hash of an in-flight password-reset
	// credential together with its expiry, replacing any previous one.
	// Returns ErrUserNotFound if the user does not exist.
	SetResetCredential(ctx context.Context, id uuid.UUID, tokenHash string, expiresAt time.Time) error

	// UpdatePassword replaces the hashed password and clears both reset
	// credential fields in the same statement, preserving the invariant
	// that the hash and expiry are set or cleared together.
	// Returns ErrUserNotFound if the user does not exist.
	UpdatePassword(ctx context.Context, id uuid.UUID, hashedPassword string) error

	// UpdateDisplayName changes the profile display name.
	// Returns ErrUserNotFound if the user does not exist.
	UpdateDisplayName(ctx context.Context, id uuid.UUID, displayName string) error

	// Delete removes a user from the store by their ID.
	// Returns ErrUserNotFound if the user does not exist.
	// This operation is permanent and cannot be undone.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a UserStore bound to the provided transaction so that
	// multiple operations can commit or roll back together. The transaction
	// is created and managed by the caller (typically a service).
	WithTx(tx *sql.Tx) UserStore
}
