package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskdeck-api/internal/domain"
	"github.com/phrazzld/taskdeck-api/internal/store"
)

// UserStore implements the store.UserStore interface using a PostgreSQL
// database as the storage backend. Every mutation is a single statement
// keyed by user ID, so no update can lose a concurrent write.
type UserStore struct {
	db store.DBTX
}

// NewUserStore creates a new PostgreSQL implementation of the UserStore
// interface. It accepts a database connection that should be initialized
// and managed by the caller.
func NewUserStore(db store.DBTX) *UserStore {
	return &UserStore{db: db}
}

// Ensure UserStore implements store.UserStore
var _ store.UserStore = (*UserStore)(nil)

const userColumns = `id, email, hashed_password, display_name, verified,
	verification_code, code_expires_at, reset_token_hash, reset_token_expires_at,
	created_at, updated_at`

// Create implements store.UserStore.Create
func (s *UserStore) Create(ctx context.Context, user *domain.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	if user.HashedPassword == "" {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, domain.ErrEmptyHashedPassword)
	}

	query := `
		INSERT INTO users (id, email, hashed_password, display_name, verified,
			verification_code, code_expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.HashedPassword,
		user.DisplayName,
		user.Verified,
		nullableCode(user.VerificationCode),
		nullableTime(user.CodeExpiresAt),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrEmailExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID implements store.UserStore.GetByID
func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return s.scanUser(s.db.QueryRowContext(ctx, query, id))
}

// GetByEmail implements store.UserStore.GetByEmail
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return s.scanUser(s.db.QueryRowContext(ctx, query, email))
}

// SetVerificationCode implements store.UserStore.SetVerificationCode
func (s *UserStore) SetVerificationCode(
	ctx context.Context,
	id uuid.UUID,
	code int,
	expiresAt time.Time,
) error {
	query := `
		UPDATE users
		SET verification_code = $2, code_expires_at = $3, updated_at = now()
		WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query, id, code, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to set verification code: %w", err)
	}
	return requireRow(result)
}

// MarkVerified implements store.UserStore.MarkVerified
func (s *UserStore) MarkVerified(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE users
		SET verified = TRUE, verification_code = NULL, code_expires_at = NULL,
			updated_at = now()
		WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark user verified: %w", err)
	}
	return requireRow(result)
}

// SetResetCredential implements store.UserStore.SetResetCredential
func (s *UserStore) SetResetCredential(
	ctx context.Context,
	id uuid.UUID,
	tokenHash string,
	expiresAt time.Time,
) error {
	query := `
		UPDATE users
		SET reset_token_hash = $2, reset_token_expires_at = $3, updated_at = now()
		WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query, id, tokenHash, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to set reset credential: %w", err)
	}
	return requireRow(result)
}

// UpdatePassword implements store.UserStore.UpdatePassword.
// The reset fields are cleared in the same statement so the hash/expiry
// pair can never be observed half-cleared.
func (s *UserStore) UpdatePassword(ctx context.Context, id uuid.UUID, hashedPassword string) error {
	if hashedPassword == "" {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, domain.ErrEmptyHashedPassword)
	}

	query := `
		UPDATE users
		SET hashed_password = $2, reset_token_hash = NULL,
			reset_token_expires_at = NULL, updated_at = now()
		WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query, id, hashedPassword)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return requireRow(result)
}

// UpdateDisplayName implements store.UserStore.UpdateDisplayName
func (s *UserStore) UpdateDisplayName(ctx context.Context, id uuid.UUID, displayName string) error {
	query := `UPDATE users SET display_name = $2, updated_at = now() WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query, id, displayName)
	if err != nil {
		return fmt.Errorf("failed to update display name: %w", err)
	}
	return requireRow(result)
}

// Delete implements store.UserStore.Delete
func (s *UserStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return requireRow(result)
}

// WithTx implements store.UserStore.WithTx
func (s *UserStore) WithTx(tx *sql.Tx) store.UserStore {
	return &UserStore{db: tx}
}

// scanUser reads one user row, translating sql.ErrNoRows to ErrUserNotFound
// and NULL auth fields to their zero values.
func (s *UserStore) scanUser(row *sql.Row) (*domain.User, error) {
	var (
		user      domain.User
		code      sql.NullInt64
		codeExp   sql.NullTime
		resetHash sql.NullString
		resetExp  sql.NullTime
	)

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.HashedPassword,
		&user.DisplayName,
		&user.Verified,
		&code,
		&codeExp,
		&resetHash,
		&resetExp,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	if code.Valid {
		user.VerificationCode = int(code.Int64)
	}
	if codeExp.Valid {
		user.CodeExpiresAt = codeExp.Time
	}
	if resetHash.Valid {
		user.ResetTokenHash = resetHash.String
	}
	if resetExp.Valid {
		user.ResetTokenExpiresAt = resetExp.Time
	}

	return &user, nil
}

// requireRow maps a zero-row update or delete to ErrUserNotFound.
func requireRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: failed to read rows affected: %v", store.ErrUpdateFailed, err)
	}
	if affected == 0 {
		return store.ErrUserNotFound
	}
	return nil
}

func nullableCode(code int) sql.NullInt64 {
	if code == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(code), Valid: true}
}

func nullableTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}
