package v1_test

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/taskledger/internal/domain"
	"github.com/gosuda/taskledger/internal/server/middleware"
)

// ---------------------------------------------------------------------------
// Context helpers: inject the acting user into context for DoCtx
// ---------------------------------------------------------------------------

func userCtx(id uuid.UUID) context.Context {
	return middleware.WithActor(context.Background(), &domain.Actor{ID: id, Role: domain.RoleUser})
}

func adminCtx(id uuid.UUID) context.Context {
	return middleware.WithActor(context.Background(), &domain.Actor{ID: id, Role: domain.RoleAdmin})
}

// ---------------------------------------------------------------------------
// Mock TaskService
// ---------------------------------------------------------------------------

type mockTaskService struct {
	createFunc func(ctx context.Context, actor *domain.Actor, input domain.NewTask) (*domain.TaskView, error)
	getFunc    func(ctx context.Context, actor *domain.Actor, id uuid.UUID) (*domain.TaskView, error)
	listFunc   func(ctx context.Context, actor *domain.Actor) ([]*domain.TaskView, error)
	updateFunc func(ctx context.Context, actor *domain.Actor, id uuid.UUID, patch domain.TaskPatch) (*domain.TaskView, error)
	deleteFunc func(ctx context.Context, actor *domain.Actor, id uuid.UUID) error
	statsFunc  func(ctx context.Context, actor *domain.Actor) (*domain.TaskStats, error)
}

func (m *mockTaskService) Create(ctx context.Context, actor *domain.Actor, input domain.NewTask) (*domain.TaskView, error) {
	return m.createFunc(ctx, actor, input)
}

func (m *mockTaskService) Get(ctx context.Context, actor *domain.Actor, id uuid.UUID) (*domain.TaskView, error) {
	return m.getFunc(ctx, actor, id)
}

func (m *mockTaskService) List(ctx context.Context, actor *domain.Actor) ([]*domain.TaskView, error) {
	return m.listFunc(ctx, actor)
}

func (m *mockTaskService) Update(ctx context.Context, actor *domain.Actor, id uuid.UUID, patch domain.TaskPatch) (*domain.TaskView, error) {
	return m.updateFunc(ctx, actor, id, patch)
}

func (m *mockTaskService) Delete(ctx context.Context, actor *domain.Actor, id uuid.UUID) error {
	return m.deleteFunc(ctx, actor, id)
}

func (m *mockTaskService) Stats(ctx context.Context, actor *domain.Actor) (*domain.TaskStats, error) {
	return m.statsFunc(ctx, actor)
}

// ---------------------------------------------------------------------------
// Mock AuditQuery
// ---------------------------------------------------------------------------

type mockAuditQuery struct {
	listFunc       func(ctx context.Context, actor *domain.Actor) ([]*domain.AuditView, error)
	listByTaskFunc func(ctx context.Context, actor *domain.Actor, taskID uuid.UUID) ([]*domain.AuditView, error)
}

func (m *mockAuditQuery) List(ctx context.Context, actor *domain.Actor) ([]*domain.AuditView, error) {
	return m.listFunc(ctx, actor)
}

func (m *mockAuditQuery) ListByTask(ctx context.Context, actor *domain.Actor, taskID uuid.UUID) ([]*domain.AuditView, error) {
	return m.listByTaskFunc(ctx, actor, taskID)
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

func taskView(id, owner uuid.UUID, title string) *domain.TaskView {
	now := domain.StoredTime(time.Now())
	return &domain.TaskView{
		Task: domain.Task{
			ID:        id,
			Title:     title,
			Status:    domain.TaskStatusTodo,
			Priority:  domain.TaskPriorityMedium,
			OwnerID:   owner,
			Version:   1,
			CreatedAt: now,
			UpdatedAt: now,
		},
		Owner: &domain.ActorSummary{ID: owner, Name: "Owner", Email: "owner@example.com"},
	}
}

type problem struct {
	Status int    `json:"status"`
	Detail string `json:"detail"`
}
