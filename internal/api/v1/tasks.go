package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/taskledger/internal/domain"
	"github.com/gosuda/taskledger/internal/server/middleware"
)

type CreateTaskInput struct {
	Body struct {
		Title       string     `json:"title,omitempty" doc:"Task title, required and non-blank"`
		Description string     `json:"description,omitempty" doc:"Task description"`
		Status      string     `json:"status,omitempty" doc:"todo, in-progress or completed (default todo)"`
		Priority    string     `json:"priority,omitempty" doc:"low, medium or high (default medium)"`
		DueDate     *time.Time `json:"due_date,omitempty" doc:"Optional due date"`
	}
}

type TaskOutput struct {
	Body struct {
		Message string           `json:"message"`
		Task    *domain.TaskView `json:"task"`
	}
}

type ListTasksOutput struct {
	Body struct {
		Message string             `json:"message"`
		Tasks   []*domain.TaskView `json:"tasks"`
	}
}

type TaskStatsOutput struct {
	Body struct {
		Message string            `json:"message"`
		Stats   *domain.TaskStats `json:"stats"`
	}
}

type GetTaskInput struct {
	ID uuid.UUID `path:"id" doc:"Task ID"`
}

// UpdateTaskInput is a partial update. Omitted fields are left unchanged;
// null clears description and due_date and is rejected for the rest.
type UpdateTaskInput struct {
	ID   uuid.UUID `path:"id" doc:"Task ID"`
	Body struct {
		Title       OmittableNullable[string]    `json:"title,omitempty" doc:"Task title"`
		Description OmittableNullable[string]    `json:"description,omitempty" doc:"Task description; null or empty clears it"`
		Status      OmittableNullable[string]    `json:"status,omitempty" doc:"todo, in-progress or completed"`
		Priority    OmittableNullable[string]    `json:"priority,omitempty" doc:"low, medium or high"`
		DueDate     OmittableNullable[time.Time] `json:"due_date,omitempty" doc:"Due date; null clears it"`
		Version     *int                         `json:"version,omitempty" minimum:"1" doc:"Expected current version; the update fails with 409 if the task has moved on"`
	}
}

type DeleteTaskInput struct {
	ID uuid.UUID `path:"id" doc:"Task ID"`
}

type MessageOutput struct {
	Body struct {
		Message string `json:"message"`
	}
}

func RegisterTaskRoutes(api huma.API, svc TaskService) {
	huma.Register(api, huma.Operation{
		OperationID: "list-tasks",
		Method:      http.MethodGet,
		Path:        "/tasks",
		Summary:     "List visible tasks, newest first",
		Description: "Admins see every task; other users see the tasks they own.",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, _ *struct{}) (*ListTasksOutput, error) {
		views, err := svc.List(ctx, middleware.ActorFromContext(ctx))
		if err != nil {
			return nil, toHTTPError(err, errorMessages{failure: "Failed to retrieve tasks"})
		}

		out := &ListTasksOutput{}
		out.Body.Message = "Tasks retrieved successfully"
		out.Body.Tasks = views
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "task-stats",
		Method:      http.MethodGet,
		Path:        "/tasks/stats",
		Summary:     "Count visible tasks by status",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, _ *struct{}) (*TaskStatsOutput, error) {
		stats, err := svc.Stats(ctx, middleware.ActorFromContext(ctx))
		if err != nil {
			return nil, toHTTPError(err, errorMessages{failure: "Failed to retrieve task stats"})
		}

		out := &TaskStatsOutput{}
		out.Body.Message = "Task stats retrieved successfully"
		out.Body.Stats = stats
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-task",
		Method:        http.MethodPost,
		Path:          "/tasks",
		Summary:       "Create a task owned by the caller",
		Tags:          []string{"Tasks"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateTaskInput) (*TaskOutput, error) {
		view, err := svc.Create(ctx, middleware.ActorFromContext(ctx), domain.NewTask{
			Title:       input.Body.Title,
			Description: input.Body.Description,
			Status:      domain.TaskStatus(input.Body.Status),
			Priority:    domain.TaskPriority(input.Body.Priority),
			DueDate:     input.Body.DueDate,
		})
		if err != nil {
			return nil, toHTTPError(err, errorMessages{failure: "Failed to create task"})
		}

		out := &TaskOutput{}
		out.Body.Message = "Task created successfully"
		out.Body.Task = view
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-task",
		Method:      http.MethodGet,
		Path:        "/tasks/{id}",
		Summary:     "Get a task by ID",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *GetTaskInput) (*TaskOutput, error) {
		view, err := svc.Get(ctx, middleware.ActorFromContext(ctx), input.ID)
		if err != nil {
			return nil, toHTTPError(err, errorMessages{
				forbidden: "Not authorized to view this task",
				failure:   "Failed to retrieve task",
			})
		}

		out := &TaskOutput{}
		out.Body.Message = "Task retrieved successfully"
		out.Body.Task = view
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-task",
		Method:      http.MethodPut,
		Path:        "/tasks/{id}",
		Summary:     "Partially update a task",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *UpdateTaskInput) (*TaskOutput, error) {
		view, err := svc.Update(ctx, middleware.ActorFromContext(ctx), input.ID, input.patch())
		if err != nil {
			return nil, toHTTPError(err, errorMessages{
				forbidden: "Not authorized to update this task",
				failure:   "Failed to update task",
			})
		}

		out := &TaskOutput{}
		out.Body.Message = "Task updated successfully"
		out.Body.Task = view
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-task",
		Method:      http.MethodDelete,
		Path:        "/tasks/{id}",
		Summary:     "Delete a task",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *DeleteTaskInput) (*MessageOutput, error) {
		if err := svc.Delete(ctx, middleware.ActorFromContext(ctx), input.ID); err != nil {
			return nil, toHTTPError(err, errorMessages{
				forbidden: "Not authorized to delete this task",
				failure:   "Failed to delete task",
			})
		}

		out := &MessageOutput{}
		out.Body.Message = "Task deleted successfully"
		return out, nil
	})
}

// patch converts the wire body into a domain patch. A null title, status or
// priority becomes an explicit empty value, which the domain rejects.
func (in *UpdateTaskInput) patch() domain.TaskPatch {
	var p domain.TaskPatch
	b := in.Body

	if b.Title.Sent {
		p.Title = domain.Some(b.Title.Value)
	}
	if b.Description.Sent {
		p.Description = domain.Some(b.Description.Value)
	}
	if b.Status.Sent {
		p.Status = domain.Some(domain.TaskStatus(b.Status.Value))
	}
	if b.Priority.Sent {
		p.Priority = domain.Some(domain.TaskPriority(b.Priority.Value))
	}
	if b.DueDate.Sent {
		if b.DueDate.Null {
			p.DueDate = domain.Some[*time.Time](nil)
		} else {
			due := b.DueDate.Value
			p.DueDate = domain.Some(&due)
		}
	}
	if b.Version != nil {
		p.Version = domain.Some(*b.Version)
	}

	return p
}
