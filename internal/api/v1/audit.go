package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/taskledger/internal/domain"
	"github.com/gosuda/taskledger/internal/server/middleware"
)

type ListAuditOutput struct {
	Body struct {
		Message string              `json:"message"`
		Logs    []*domain.AuditView `json:"logs"`
	}
}

type ListTaskAuditInput struct {
	ID uuid.UUID `path:"id" doc:"Task ID; the task may already be deleted"`
}

var auditErrors = errorMessages{
	forbidden: "Admin access required",
	failure:   "Failed to retrieve audit logs",
}

func RegisterAuditRoutes(api huma.API, query AuditQuery) {
	huma.Register(api, huma.Operation{
		OperationID: "list-audit-logs",
		Method:      http.MethodGet,
		Path:        "/audit",
		Summary:     "List the audit ledger, newest first",
		Description: "Admin only. Each entry carries the resolved task and actor and the field-level changes.",
		Tags:        []string{"Audit"},
	}, func(ctx context.Context, _ *struct{}) (*ListAuditOutput, error) {
		views, err := query.List(ctx, middleware.ActorFromContext(ctx))
		if err != nil {
			return nil, toHTTPError(err, auditErrors)
		}

		out := &ListAuditOutput{}
		out.Body.Message = "Audit logs retrieved successfully"
		out.Body.Logs = views
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-task-audit-logs",
		Method:      http.MethodGet,
		Path:        "/audit/tasks/{id}",
		Summary:     "List the audit ledger of one task",
		Tags:        []string{"Audit"},
	}, func(ctx context.Context, input *ListTaskAuditInput) (*ListAuditOutput, error) {
		views, err := query.ListByTask(ctx, middleware.ActorFromContext(ctx), input.ID)
		if err != nil {
			return nil, toHTTPError(err, auditErrors)
		}

		out := &ListAuditOutput{}
		out.Body.Message = "Audit logs retrieved successfully"
		out.Body.Logs = views
		return out, nil
	})
}
