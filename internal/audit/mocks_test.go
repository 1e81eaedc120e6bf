package audit_test

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/gosuda/taskledger/internal/domain"
)

// ---------------------------------------------------------------------------
// Mock AuditRepository
// ---------------------------------------------------------------------------

type mockAuditRepo struct {
	recordFunc     func(ctx context.Context, entry *domain.AuditRecord) error
	listFunc       func(ctx context.Context) ([]*domain.AuditRecord, error)
	listByTaskFunc func(ctx context.Context, taskID uuid.UUID) ([]*domain.AuditRecord, error)
}

func (m *mockAuditRepo) Record(ctx context.Context, entry *domain.AuditRecord) error {
	return m.recordFunc(ctx, entry)
}

func (m *mockAuditRepo) List(ctx context.Context) ([]*domain.AuditRecord, error) {
	return m.listFunc(ctx)
}

func (m *mockAuditRepo) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.AuditRecord, error) {
	return m.listByTaskFunc(ctx, taskID)
}

// ---------------------------------------------------------------------------
// Mock TaskRepository (only ListByIDs is exercised by the query service)
// ---------------------------------------------------------------------------

type mockTaskRepo struct {
	listByIDsFunc func(ctx context.Context, ids []uuid.UUID) ([]*domain.Task, error)
}

func (m *mockTaskRepo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Task, error) {
	return m.listByIDsFunc(ctx, ids)
}

func (m *mockTaskRepo) Create(context.Context, *domain.Task) error { panic("not implemented") }
func (m *mockTaskRepo) GetByID(context.Context, uuid.UUID) (*domain.Task, error) {
	panic("not implemented")
}
func (m *mockTaskRepo) List(context.Context, domain.TaskFilter) ([]*domain.Task, error) {
	panic("not implemented")
}
func (m *mockTaskRepo) Update(context.Context, *domain.Task, int) error { panic("not implemented") }
func (m *mockTaskRepo) Delete(context.Context, uuid.UUID) error         { panic("not implemented") }
func (m *mockTaskRepo) CountByStatus(context.Context, domain.TaskFilter) (map[domain.TaskStatus]int, error) {
	panic("not implemented")
}

// ---------------------------------------------------------------------------
// Mock ActorRepository
// ---------------------------------------------------------------------------

type mockActorRepo struct {
	listByIDsFunc func(ctx context.Context, ids []uuid.UUID) ([]*domain.Actor, error)
}

func (m *mockActorRepo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Actor, error) {
	return m.listByIDsFunc(ctx, ids)
}

func (m *mockActorRepo) Create(context.Context, *domain.Actor) error { panic("not implemented") }
func (m *mockActorRepo) GetByID(context.Context, uuid.UUID) (*domain.Actor, error) {
	panic("not implemented")
}
func (m *mockActorRepo) GetByEmail(context.Context, string) (*domain.Actor, error) {
	panic("not implemented")
}

// ---------------------------------------------------------------------------
// In-memory PendingQueue
// ---------------------------------------------------------------------------

type memQueue struct {
	mu      sync.Mutex
	items   []*domain.AuditRecord
	pushErr error
	peekErr error
	ackErr  error
}

func (q *memQueue) Push(_ context.Context, rec *domain.AuditRecord) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.pushErr != nil {
		return q.pushErr
	}
	q.items = append(q.items, rec)
	return nil
}

func (q *memQueue) Peek(_ context.Context) (*domain.AuditRecord, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.peekErr != nil {
		return nil, q.peekErr
	}
	if len(q.items) == 0 {
		return nil, nil
	}
	return q.items[0], nil
}

func (q *memQueue) Ack(_ context.Context, id uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.ackErr != nil {
		return q.ackErr
	}
	if len(q.items) > 0 && q.items[0].ID == id {
		q.items = q.items[1:]
	}
	return nil
}

func (q *memQueue) Len(_ context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.items)), nil
}
