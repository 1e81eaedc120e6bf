package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// Valid reports whether s is one of the known task statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusCompleted:
		return true
	default:
		return false
	}
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	default:
		return false
	}
}

// Task is the mutable subject of the ledger. JSON field names double as the
// snapshot keys stored in audit records.
type Task struct {
	ID          uuid.UUID    `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	DueDate     *time.Time   `json:"due_date,omitempty"`
	OwnerID     uuid.UUID    `json:"owner_id"` // immutable after creation
	Version     int          `json:"version"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Snapshot returns a full copy of the task's field values keyed by their
// JSON names.
func (t *Task) Snapshot() (Snapshot, error) {
	raw, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("task.Snapshot: marshal: %w", err)
	}

	var s Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("task.Snapshot: unmarshal: %w", err)
	}

	return s, nil
}

// Snapshot is a task's field values at one instant, stored verbatim in an
// audit record. A nil Snapshot means "absent".
type Snapshot map[string]any

// Title returns the snapshot's title field, or "" when missing.
func (s Snapshot) Title() string {
	v, _ := s["title"].(string)
	return v
}

// NewTask carries the caller-supplied fields for task creation.
type NewTask struct {
	Title       string
	Description string
	Status      TaskStatus   // defaults to todo
	Priority    TaskPriority // defaults to medium
	DueDate     *time.Time
}

// Normalize trims the title, applies defaults and validates enums.
func (n *NewTask) Normalize() error {
	n.Title = strings.TrimSpace(n.Title)
	n.DueDate = storedTimePtr(n.DueDate)
	if n.Title == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrMissingTitle)
	}

	if n.Status == "" {
		n.Status = TaskStatusTodo
	}
	if !n.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, n.Status)
	}

	if n.Priority == "" {
		n.Priority = TaskPriorityMedium
	}
	if !n.Priority.Valid() {
		return fmt.Errorf("%w: unknown priority %q", ErrValidation, n.Priority)
	}

	return nil
}

// Optional distinguishes "field omitted" from "field set", including set to
// the zero value.
type Optional[T any] struct {
	Set   bool
	Value T
}

// Some returns a set Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// TaskPatch is a partial update. Omitted fields are left untouched.
// Description and DueDate may be cleared by setting them to the zero value;
// Title, Status and Priority cannot be cleared.
type TaskPatch struct {
	Title       Optional[string]
	Description Optional[string]
	Status      Optional[TaskStatus]
	Priority    Optional[TaskPriority]
	DueDate     Optional[*time.Time]

	// Version is the revision the caller last observed. When set, the update
	// fails with ErrConflict if the stored task has moved on.
	Version Optional[int]
}

// Empty reports whether the patch changes no field.
func (p TaskPatch) Empty() bool {
	return !p.Title.Set && !p.Description.Set && !p.Status.Set && !p.Priority.Set && !p.DueDate.Set
}

// Validate checks every set field without touching a task.
func (p TaskPatch) Validate() error {
	if p.Title.Set && strings.TrimSpace(p.Title.Value) == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrMissingTitle)
	}
	if p.Status.Set && !p.Status.Value.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, p.Status.Value)
	}
	if p.Priority.Set && !p.Priority.Value.Valid() {
		return fmt.Errorf("%w: unknown priority %q", ErrValidation, p.Priority.Value)
	}
	return nil
}

// Apply validates the patch and copies set fields onto t. OwnerID, ID,
// Version and timestamps are never modified here.
func (p TaskPatch) Apply(t *Task) error {
	if err := p.Validate(); err != nil {
		return err
	}

	if p.Title.Set {
		t.Title = strings.TrimSpace(p.Title.Value)
	}
	if p.Description.Set {
		t.Description = p.Description.Value
	}
	if p.Status.Set {
		t.Status = p.Status.Value
	}
	if p.Priority.Set {
		t.Priority = p.Priority.Value
	}
	if p.DueDate.Set {
		t.DueDate = storedTimePtr(p.DueDate.Value)
	}

	return nil
}

// StoredTime reduces t to what the store keeps: UTC at microsecond
// precision. Snapshots taken from an in-memory task then equal snapshots of
// the persisted row.
func StoredTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

func storedTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := StoredTime(*t)
	return &v
}

// TaskFilter narrows task queries. A nil OwnerID matches every owner. Limit
// caps the rows returned by List; zero means no cap. CountByStatus ignores it.
type TaskFilter struct {
	OwnerID *uuid.UUID
	Limit   int
}

// TaskStats are per-status counts over the tasks an actor can see.
type TaskStats struct {
	Total      int `json:"total"`
	Todo       int `json:"todo"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
}

// ActorSummary is the display projection of an actor.
type ActorSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// TaskView is a task with its owner resolved for display. Owner is nil when
// the owning actor no longer exists.
type TaskView struct {
	Task
	Owner *ActorSummary `json:"owner,omitempty"`
}

type TaskRepository interface {
	Create(ctx context.Context, t *Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*Task, error)
	List(ctx context.Context, filter TaskFilter) ([]*Task, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*Task, error)
	// Update persists t only if the stored version equals expectedVersion.
	// It returns ErrConflict when the versions differ and ErrNotFound when
	// the task is gone.
	Update(ctx context.Context, t *Task, expectedVersion int) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountByStatus(ctx context.Context, filter TaskFilter) (map[TaskStatus]int, error)
}
