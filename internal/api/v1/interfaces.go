package v1

import (
	"context"

	"github.com/google/uuid"

	"github.com/gosuda/taskledger/internal/domain"
)

// TaskService abstracts task operations for handler testing.
// *tasks.Service satisfies this interface.
type TaskService interface {
	Create(ctx context.Context, actor *domain.Actor, input domain.NewTask) (*domain.TaskView, error)
	Get(ctx context.Context, actor *domain.Actor, id uuid.UUID) (*domain.TaskView, error)
	List(ctx context.Context, actor *domain.Actor) ([]*domain.TaskView, error)
	Update(ctx context.Context, actor *domain.Actor, id uuid.UUID, patch domain.TaskPatch) (*domain.TaskView, error)
	Delete(ctx context.Context, actor *domain.Actor, id uuid.UUID) error
	Stats(ctx context.Context, actor *domain.Actor) (*domain.TaskStats, error)
}

// AuditQuery abstracts ledger reads for handler testing.
// *audit.QueryService satisfies this interface.
type AuditQuery interface {
	List(ctx context.Context, actor *domain.Actor) ([]*domain.AuditView, error)
	ListByTask(ctx context.Context, actor *domain.Actor, taskID uuid.UUID) ([]*domain.AuditView, error)
}
