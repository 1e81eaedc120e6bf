// Package tasks applies task mutations and records each one in the audit
// ledger.
package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/taskledger/internal/audit"
	"github.com/gosuda/taskledger/internal/domain"
)

// Store abstracts the repository accessor pattern.
// *postgres.Store satisfies this interface.
type Store interface {
	Tasks() domain.TaskRepository
	Audit() domain.AuditRepository
	Actors() domain.ActorRepository
}

// Service orchestrates task mutations. With a Transactor the task write and
// its audit record commit together; without one the task write goes first
// and a failed audit write is handed to the pending queue.
type Service struct {
	store    Store
	tx       domain.Transactor
	pending  audit.PendingQueue
	recorder *audit.Recorder
	now      func() time.Time

	listLimit int
}

// DefaultListLimit caps List results unless SetListLimit overrides it.
const DefaultListLimit = 1000

// NewService creates a Service. tx may be nil to run without transactions;
// pending may be nil, in which case failed audit writes are only logged.
func NewService(store Store, tx domain.Transactor, pending audit.PendingQueue) *Service {
	return &Service{
		store:    store,
		tx:       tx,
		pending:  pending,
		recorder: audit.NewRecorder(store.Audit()),
		now:      time.Now,

		listLimit: DefaultListLimit,
	}
}

// SetListLimit caps the number of tasks List returns. Zero disables the cap.
func (s *Service) SetListLimit(n int) {
	s.listLimit = n
}

// event is the audit side of a mutation, captured after the task write.
type event struct {
	action domain.AuditAction
	taskID uuid.UUID
	before domain.Snapshot
	after  domain.Snapshot
}

// Create validates input, persists a new task owned by actor and records a
// CREATE entry.
func (s *Service) Create(ctx context.Context, actor *domain.Actor, input domain.NewTask) (*domain.TaskView, error) {
	if !domain.Authenticated(actor) {
		return nil, fmt.Errorf("tasks.Service.Create: %w", domain.ErrUnauthorized)
	}
	if err := input.Normalize(); err != nil {
		return nil, fmt.Errorf("tasks.Service.Create: %w", err)
	}

	now := s.timestamp()
	t := &domain.Task{
		ID:          uuid.New(),
		Title:       input.Title,
		Description: input.Description,
		Status:      input.Status,
		Priority:    input.Priority,
		DueDate:     input.DueDate,
		OwnerID:     actor.ID,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.commit(ctx, actor,
		func(repo domain.TaskRepository) error { return repo.Create(ctx, t) },
		func() (event, error) {
			after, err := t.Snapshot()
			return event{action: domain.AuditActionCreate, taskID: t.ID, after: after}, err
		},
	)
	if err != nil {
		return nil, fmt.Errorf("tasks.Service.Create: %w", err)
	}

	return s.view(ctx, t), nil
}

// Update applies patch to the task after authorizing actor. The write is a
// compare-and-swap on the version that was loaded, so a concurrent update
// surfaces as ErrConflict instead of being silently overwritten.
func (s *Service) Update(ctx context.Context, actor *domain.Actor, id uuid.UUID, patch domain.TaskPatch) (*domain.TaskView, error) {
	if !domain.Authenticated(actor) {
		return nil, fmt.Errorf("tasks.Service.Update: %w", domain.ErrUnauthorized)
	}

	t, err := s.store.Tasks().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("tasks.Service.Update: %w", err)
	}
	if err := domain.CanAccess(actor, t, domain.OpUpdate); err != nil {
		return nil, fmt.Errorf("tasks.Service.Update: %w", err)
	}
	if patch.Version.Set && patch.Version.Value != t.Version {
		return nil, fmt.Errorf("tasks.Service.Update: expected version %d, have %d: %w",
			patch.Version.Value, t.Version, domain.ErrConflict)
	}

	before, err := t.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("tasks.Service.Update: %w", err)
	}

	if err := patch.Apply(t); err != nil {
		return nil, fmt.Errorf("tasks.Service.Update: %w", err)
	}
	if patch.Empty() {
		log.Debug().Str("task_id", t.ID.String()).Msg("update changes no fields; recording timestamp bump only")
	}
	expected := t.Version
	t.Version++
	t.UpdatedAt = s.timestamp()

	err = s.commit(ctx, actor,
		func(repo domain.TaskRepository) error { return repo.Update(ctx, t, expected) },
		func() (event, error) {
			after, err := t.Snapshot()
			return event{action: domain.AuditActionUpdate, taskID: t.ID, before: before, after: after}, err
		},
	)
	if err != nil {
		return nil, fmt.Errorf("tasks.Service.Update: %w", err)
	}

	return s.view(ctx, t), nil
}

// Delete hard-deletes the task. Its final state survives in the DELETE
// record's before snapshot.
func (s *Service) Delete(ctx context.Context, actor *domain.Actor, id uuid.UUID) error {
	if !domain.Authenticated(actor) {
		return fmt.Errorf("tasks.Service.Delete: %w", domain.ErrUnauthorized)
	}

	t, err := s.store.Tasks().GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("tasks.Service.Delete: %w", err)
	}
	if err := domain.CanAccess(actor, t, domain.OpDelete); err != nil {
		return fmt.Errorf("tasks.Service.Delete: %w", err)
	}

	before, err := t.Snapshot()
	if err != nil {
		return fmt.Errorf("tasks.Service.Delete: %w", err)
	}

	err = s.commit(ctx, actor,
		func(repo domain.TaskRepository) error { return repo.Delete(ctx, t.ID) },
		func() (event, error) {
			return event{action: domain.AuditActionDelete, taskID: t.ID, before: before}, nil
		},
	)
	if err != nil {
		return fmt.Errorf("tasks.Service.Delete: %w", err)
	}

	return nil
}

// List returns the tasks visible to actor, newest first, at most the
// configured list limit.
func (s *Service) List(ctx context.Context, actor *domain.Actor) ([]*domain.TaskView, error) {
	filter, err := domain.ListFilter(actor)
	if err != nil {
		return nil, fmt.Errorf("tasks.Service.List: %w", err)
	}
	filter.Limit = s.listLimit

	list, err := s.store.Tasks().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("tasks.Service.List: %w", err)
	}
	if s.listLimit > 0 && len(list) >= s.listLimit {
		log.Warn().
			Str("actor_id", actor.ID.String()).
			Int("limit", s.listLimit).
			Msg("tasks: list truncated at limit; older tasks omitted")
	}

	views, err := s.views(ctx, list)
	if err != nil {
		return nil, fmt.Errorf("tasks.Service.List: %w", err)
	}
	return views, nil
}

// Get returns a single task if actor may read it.
func (s *Service) Get(ctx context.Context, actor *domain.Actor, id uuid.UUID) (*domain.TaskView, error) {
	if !domain.Authenticated(actor) {
		return nil, fmt.Errorf("tasks.Service.Get: %w", domain.ErrUnauthorized)
	}

	t, err := s.store.Tasks().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("tasks.Service.Get: %w", err)
	}
	if err := domain.CanAccess(actor, t, domain.OpRead); err != nil {
		return nil, fmt.Errorf("tasks.Service.Get: %w", err)
	}

	return s.view(ctx, t), nil
}

// Stats counts the tasks visible to actor by status.
func (s *Service) Stats(ctx context.Context, actor *domain.Actor) (*domain.TaskStats, error) {
	filter, err := domain.ListFilter(actor)
	if err != nil {
		return nil, fmt.Errorf("tasks.Service.Stats: %w", err)
	}

	counts, err := s.store.Tasks().CountByStatus(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("tasks.Service.Stats: %w", err)
	}

	stats := &domain.TaskStats{
		Todo:       counts[domain.TaskStatusTodo],
		InProgress: counts[domain.TaskStatusInProgress],
		Completed:  counts[domain.TaskStatusCompleted],
	}
	for _, n := range counts {
		stats.Total += n
	}
	return stats, nil
}

// commit performs the task write and then the audit write for the event it
// produced.
func (s *Service) commit(ctx context.Context, actor *domain.Actor, write func(domain.TaskRepository) error, capture func() (event, error)) error {
	if s.tx != nil {
		return s.tx.InTx(ctx, func(repos domain.Repositories) error {
			if err := write(repos.Tasks()); err != nil {
				return err
			}
			ev, err := capture()
			if err != nil {
				return err
			}
			_, err = audit.NewRecorder(repos.Audit()).Record(ctx, ev.action, ev.taskID, ev.before, ev.after, actor.ID)
			return err
		})
	}

	if err := write(s.store.Tasks()); err != nil {
		return err
	}

	// The task change is durable from here on; audit problems are logged or
	// queued but never reported to the caller.
	ev, err := capture()
	if err != nil {
		log.Error().Err(err).Str("task_id", ev.taskID.String()).Msg("audit: snapshot failed, record dropped")
		return nil
	}

	rec, err := s.recorder.Record(ctx, ev.action, ev.taskID, ev.before, ev.after, actor.ID)
	if err != nil {
		s.deferRecord(ctx, rec, err)
	}
	return nil
}

// deferRecord hands a record whose write failed to the pending queue.
func (s *Service) deferRecord(ctx context.Context, rec *domain.AuditRecord, cause error) {
	if rec == nil {
		log.Error().Err(cause).Msg("audit: invalid record dropped")
		return
	}

	logger := log.With().
		Str("audit_id", rec.ID.String()).
		Str("task_id", rec.TaskID.String()).
		Str("action", string(rec.Action)).
		Logger()

	if s.pending == nil {
		logger.Error().Err(cause).Msg("audit: write failed and no pending queue configured, record lost")
		return
	}

	// The request may already be cancelled; the record still has to land.
	if err := s.pending.Push(context.WithoutCancel(ctx), rec); err != nil {
		logger.Error().Err(err).AnErr("cause", cause).Msg("audit: write failed and queueing failed, record lost")
		return
	}

	logger.Warn().Err(cause).Msg("audit: write failed, record queued for retry")
}

// view resolves the owner of a single task. Lookup failures leave Owner nil
// rather than failing an already committed mutation.
func (s *Service) view(ctx context.Context, t *domain.Task) *domain.TaskView {
	v := &domain.TaskView{Task: *t}

	owner, err := s.store.Actors().GetByID(ctx, t.OwnerID)
	if err != nil {
		log.Warn().Err(err).Str("task_id", t.ID.String()).Msg("tasks: owner lookup failed")
		return v
	}

	v.Owner = owner.Summary()
	return v
}

func (s *Service) views(ctx context.Context, list []*domain.Task) ([]*domain.TaskView, error) {
	out := make([]*domain.TaskView, 0, len(list))
	if len(list) == 0 {
		return out, nil
	}

	seen := make(map[uuid.UUID]struct{}, len(list))
	ids := make([]uuid.UUID, 0, len(list))
	for _, t := range list {
		if _, ok := seen[t.OwnerID]; !ok {
			seen[t.OwnerID] = struct{}{}
			ids = append(ids, t.OwnerID)
		}
	}

	owners, err := s.store.Actors().ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve owners: %w", err)
	}
	byID := make(map[uuid.UUID]*domain.ActorSummary, len(owners))
	for _, o := range owners {
		byID[o.ID] = o.Summary()
	}

	for _, t := range list {
		out = append(out, &domain.TaskView{Task: *t, Owner: byID[t.OwnerID]})
	}
	return out, nil
}

func (s *Service) timestamp() time.Time {
	return domain.StoredTime(s.now())
}
