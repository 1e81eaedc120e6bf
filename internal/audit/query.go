package audit

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/gosuda/taskledger/internal/domain"
)

// QueryService reads the ledger for display. It never writes.
type QueryService struct {
	audit  domain.AuditRepository
	tasks  domain.TaskRepository
	actors domain.ActorRepository
}

// NewQueryService creates a QueryService.
func NewQueryService(audit domain.AuditRepository, tasks domain.TaskRepository, actors domain.ActorRepository) *QueryService {
	return &QueryService{audit: audit, tasks: tasks, actors: actors}
}

// List returns the whole ledger, most recent first.
func (q *QueryService) List(ctx context.Context, actor *domain.Actor) ([]*domain.AuditView, error) {
	if err := domain.CanViewLedger(actor); err != nil {
		return nil, fmt.Errorf("audit.QueryService.List: %w", err)
	}

	records, err := q.audit.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("audit.QueryService.List: %w", err)
	}

	views, err := q.resolve(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("audit.QueryService.List: %w", err)
	}
	return views, nil
}

// ListByTask returns the ledger of a single task, most recent first. The
// task itself may already be deleted.
func (q *QueryService) ListByTask(ctx context.Context, actor *domain.Actor, taskID uuid.UUID) ([]*domain.AuditView, error) {
	if err := domain.CanViewLedger(actor); err != nil {
		return nil, fmt.Errorf("audit.QueryService.ListByTask: %w", err)
	}

	records, err := q.audit.ListByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("audit.QueryService.ListByTask: %w", err)
	}

	views, err := q.resolve(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("audit.QueryService.ListByTask: %w", err)
	}
	return views, nil
}

func (q *QueryService) resolve(ctx context.Context, records []*domain.AuditRecord) ([]*domain.AuditView, error) {
	slices.SortStableFunc(records, func(a, b *domain.AuditRecord) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	taskIDs := make([]uuid.UUID, 0, len(records))
	actorIDs := make([]uuid.UUID, 0, len(records))
	for _, r := range records {
		taskIDs = append(taskIDs, r.TaskID)
		actorIDs = append(actorIDs, r.ActorID)
	}

	titles := make(map[uuid.UUID]string)
	actors := make(map[uuid.UUID]*domain.ActorSummary)

	if len(records) > 0 {
		tasks, err := q.tasks.ListByIDs(ctx, uniqueIDs(taskIDs))
		if err != nil {
			return nil, fmt.Errorf("resolve tasks: %w", err)
		}
		for _, t := range tasks {
			titles[t.ID] = t.Title
		}

		found, err := q.actors.ListByIDs(ctx, uniqueIDs(actorIDs))
		if err != nil {
			return nil, fmt.Errorf("resolve actors: %w", err)
		}
		for _, a := range found {
			actors[a.ID] = a.Summary()
		}
	}

	views := make([]*domain.AuditView, 0, len(records))
	for _, r := range records {
		title, ok := titles[r.TaskID]
		if !ok {
			// Deleted tasks live on only in their snapshots.
			title = r.After.Title()
			if title == "" {
				title = r.Before.Title()
			}
		}

		changes, available := Diff(r.Before, r.After)
		views = append(views, &domain.AuditView{
			AuditRecord:      *r,
			Task:             domain.TaskSummary{ID: r.TaskID, Title: title},
			Actor:            actors[r.ActorID],
			Changes:          changes,
			ChangesAvailable: available,
		})
	}

	return views, nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
