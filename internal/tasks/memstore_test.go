package tasks_test

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/gosuda/taskledger/internal/domain"
)

// memStore is an in-memory Store and Transactor. InTx snapshots state and
// restores it when fn fails, mirroring a rolled back transaction.
type memStore struct {
	mu      sync.Mutex
	tasks   map[uuid.UUID]domain.Task
	records []*domain.AuditRecord
	actors  map[uuid.UUID]*domain.Actor

	auditErr  error // returned by every audit write when set
	updateErr error // returned by the next task update when set
}

func newMemStore(actors ...*domain.Actor) *memStore {
	s := &memStore{
		tasks:  make(map[uuid.UUID]domain.Task),
		actors: make(map[uuid.UUID]*domain.Actor),
	}
	for _, a := range actors {
		s.actors[a.ID] = a
	}
	return s
}

func (s *memStore) Tasks() domain.TaskRepository   { return memTasks{s} }
func (s *memStore) Audit() domain.AuditRepository  { return memAudit{s} }
func (s *memStore) Actors() domain.ActorRepository { return memActors{s} }

func (s *memStore) InTx(_ context.Context, fn func(domain.Repositories) error) error {
	s.mu.Lock()
	tasks := make(map[uuid.UUID]domain.Task, len(s.tasks))
	for k, v := range s.tasks {
		tasks[k] = v
	}
	records := append([]*domain.AuditRecord(nil), s.records...)
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.tasks = tasks
		s.records = records
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *memStore) task(id uuid.UUID) (domain.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	return t, ok
}

func (s *memStore) ledger() []*domain.AuditRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*domain.AuditRecord(nil), s.records...)
}

type memTasks struct{ s *memStore }

func (r memTasks) Create(_ context.Context, t *domain.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.tasks[t.ID] = *t
	return nil
}

func (r memTasks) GetByID(_ context.Context, id uuid.UUID) (*domain.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tasks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}

func (r memTasks) List(_ context.Context, filter domain.TaskFilter) ([]*domain.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.Task
	for _, t := range r.s.tasks {
		if filter.OwnerID != nil && t.OwnerID != *filter.OwnerID {
			continue
		}
		out = append(out, &t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r memTasks) ListByIDs(_ context.Context, ids []uuid.UUID) ([]*domain.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.Task
	for _, id := range ids {
		if t, ok := r.s.tasks[id]; ok {
			out = append(out, &t)
		}
	}
	return out, nil
}

func (r memTasks) Update(_ context.Context, t *domain.Task, expectedVersion int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.updateErr; err != nil {
		r.s.updateErr = nil
		return err
	}
	cur, ok := r.s.tasks[t.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if cur.Version != expectedVersion {
		return domain.ErrConflict
	}
	r.s.tasks[t.ID] = *t
	return nil
}

func (r memTasks) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tasks[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.tasks, id)
	return nil
}

func (r memTasks) CountByStatus(_ context.Context, filter domain.TaskFilter) (map[domain.TaskStatus]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	counts := make(map[domain.TaskStatus]int)
	for _, t := range r.s.tasks {
		if filter.OwnerID != nil && t.OwnerID != *filter.OwnerID {
			continue
		}
		counts[t.Status]++
	}
	return counts, nil
}

type memAudit struct{ s *memStore }

func (r memAudit) Record(_ context.Context, rec *domain.AuditRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.auditErr != nil {
		return r.s.auditErr
	}
	r.s.records = append(r.s.records, rec)
	return nil
}

func (r memAudit) List(context.Context) ([]*domain.AuditRecord, error) {
	return nil, errors.New("not used")
}

func (r memAudit) ListByTask(context.Context, uuid.UUID) ([]*domain.AuditRecord, error) {
	return nil, errors.New("not used")
}

type memActors struct{ s *memStore }

func (r memActors) Create(_ context.Context, a *domain.Actor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.actors[a.ID] = a
	return nil
}

func (r memActors) GetByID(_ context.Context, id uuid.UUID) (*domain.Actor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.actors[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return a, nil
}

func (r memActors) GetByEmail(context.Context, string) (*domain.Actor, error) {
	panic("not implemented")
}

func (r memActors) ListByIDs(_ context.Context, ids []uuid.UUID) ([]*domain.Actor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.Actor
	for _, id := range ids {
		if a, ok := r.s.actors[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

// memQueue is an in-memory audit.PendingQueue.
type memQueue struct {
	mu      sync.Mutex
	items   []*domain.AuditRecord
	pushErr error
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

func (q *memQueue) Peek(context.Context) (*domain.AuditRecord, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, nil
	}
	return q.items[0], nil
}

func (q *memQueue) Ack(_ context.Context, id uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) > 0 && q.items[0].ID == id {
		q.items = q.items[1:]
	}
	return nil
}

func (q *memQueue) Len(context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.items)), nil
}
