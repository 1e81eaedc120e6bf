package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type AuditAction string

const (
	AuditActionCreate AuditAction = "CREATE"
	AuditActionUpdate AuditAction = "UPDATE"
	AuditActionDelete AuditAction = "DELETE"
)

func (a AuditAction) Valid() bool {
	switch a {
	case AuditActionCreate, AuditActionUpdate, AuditActionDelete:
		return true
	default:
		return false
	}
}

// AuditRecord is one immutable ledger entry. Before is nil for CREATE, After
// is nil for DELETE, both are set for UPDATE.
type AuditRecord struct {
	ID        uuid.UUID   `json:"id"`
	Action    AuditAction `json:"action"`
	TaskID    uuid.UUID   `json:"task_id"`
	Before    Snapshot    `json:"before,omitempty"`
	After     Snapshot    `json:"after,omitempty"`
	ActorID   uuid.UUID   `json:"actor_id"`
	CreatedAt time.Time   `json:"created_at"`
}

// FieldChange is one differing field between two snapshots.
type FieldChange struct {
	Field  string `json:"field"`
	Before any    `json:"before"`
	After  any    `json:"after"`
}

// TaskSummary is the display projection of an audit subject.
type TaskSummary struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
}

// AuditView is an audit record with its subject and actor resolved and the
// field-level changes computed. Changes is nil and ChangesAvailable false
// when one side of the record is absent.
type AuditView struct {
	AuditRecord
	Task             TaskSummary   `json:"task"`
	Actor            *ActorSummary `json:"actor,omitempty"`
	Changes          []FieldChange `json:"changes"`
	ChangesAvailable bool          `json:"changes_available"`
}

// AuditRepository is append-only: records are never updated or removed.
type AuditRepository interface {
	// Record inserts entry. Inserting an ID that already exists is a no-op.
	Record(ctx context.Context, entry *AuditRecord) error
	List(ctx context.Context) ([]*AuditRecord, error)
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]*AuditRecord, error)
}
