package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/taskledger/internal/domain"
)

// ErrInvalidRecord is returned when a record violates the ledger invariants.
var ErrInvalidRecord = errors.New("audit: invalid record")

// NewRecord builds a validated, not yet persisted audit record stamped with
// now. The before/after presence must match the action: CREATE has no
// before, DELETE has no after, UPDATE has both.
func NewRecord(action domain.AuditAction, taskID uuid.UUID, before, after domain.Snapshot, actorID uuid.UUID, now time.Time) (*domain.AuditRecord, error) {
	if !action.Valid() {
		return nil, fmt.Errorf("audit.NewRecord: unknown action %q: %w", action, ErrInvalidRecord)
	}
	if taskID == uuid.Nil {
		return nil, fmt.Errorf("audit.NewRecord: missing task id: %w", ErrInvalidRecord)
	}
	if actorID == uuid.Nil {
		return nil, fmt.Errorf("audit.NewRecord: missing actor id: %w", ErrInvalidRecord)
	}

	var ok bool
	switch action {
	case domain.AuditActionCreate:
		ok = before == nil && after != nil
	case domain.AuditActionUpdate:
		ok = before != nil && after != nil
	case domain.AuditActionDelete:
		ok = before != nil && after == nil
	}
	if !ok {
		return nil, fmt.Errorf("audit.NewRecord: %s with before=%t after=%t: %w",
			action, before != nil, after != nil, ErrInvalidRecord)
	}

	return &domain.AuditRecord{
		ID:        uuid.New(),
		Action:    action,
		TaskID:    taskID,
		Before:    before,
		After:     after,
		ActorID:   actorID,
		CreatedAt: domain.StoredTime(now),
	}, nil
}

// Recorder appends mutation events to the ledger.
type Recorder struct {
	repo domain.AuditRepository
	now  func() time.Time
}

// NewRecorder creates a Recorder writing to repo.
func NewRecorder(repo domain.AuditRepository) *Recorder {
	return &Recorder{repo: repo, now: time.Now}
}

// Record builds and persists a single audit record. When only the write
// fails, the built record is returned with the error so the caller can queue
// it.
func (r *Recorder) Record(ctx context.Context, action domain.AuditAction, taskID uuid.UUID, before, after domain.Snapshot, actorID uuid.UUID) (*domain.AuditRecord, error) {
	rec, err := NewRecord(action, taskID, before, after, actorID, r.now())
	if err != nil {
		return nil, err
	}

	if err := r.Write(ctx, rec); err != nil {
		return rec, err
	}

	return rec, nil
}

// Write persists an already built record.
func (r *Recorder) Write(ctx context.Context, rec *domain.AuditRecord) error {
	if err := r.repo.Record(ctx, rec); err != nil {
		return fmt.Errorf("audit.Recorder.Write: %w", err)
	}
	return nil
}
