package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/taskdeck-api/internal/domain"
)

// TaskStore defines the persistence interface for user-owned tasks.
// The auth core needs it only for ownership cascade on account deletion;
// membership changes are single statements keyed by IDs, never a
// read-modify-write of an ownership list.
type TaskStore interface {
	// Create saves a new task owned by task.UserID.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// ListByOwner returns all tasks owned by the given user.
	ListByOwner(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error)

	// Delete removes a single task.
	// Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteByOwner removes every task owned by the given user in one
	// statement. Returns the number of tasks removed.
	DeleteByOwner(ctx context.Context, userID uuid.UUID) (int64, error)

	// WithTx returns a TaskStore bound to the provided transaction.
	WithTx(tx *sql.Tx) TaskStore
}
