package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Task validation errors
var (
	ErrEmptyTaskID    = errors.New("task ID cannot be empty")
	ErrEmptyTaskOwner = errors.New("task owner cannot be empty")
	ErrEmptyTaskTitle = errors.New("task title cannot be empty")
)

// Task priority levels, ordered.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Task is a user-owned to-do item. The authentication core treats tasks
// opaquely; they matter here only because deleting an account must also
// delete the tasks it owns.
type Task struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Title     string     `json:"title"`
	Notes     string     `json:"notes,omitempty"`
	Priority  string     `json:"priority"`
	Tags      []string   `json:"tags,omitempty"`
	DueAt     *time.Time `json:"due_at,omitempty"`
	Completed bool       `json:"completed"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewTask creates a Task owned by the given user.
func NewTask(userID uuid.UUID, title string) (*Task, error) {
	task := &Task{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		Priority:  PriorityMedium,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks that the Task has valid data.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}
	if t.UserID == uuid.Nil {
		return ErrEmptyTaskOwner
	}
	if t.Title == "" {
		return ErrEmptyTaskTitle
	}
	return nil
}
