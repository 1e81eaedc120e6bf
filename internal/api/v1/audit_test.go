package v1_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/gosuda/taskledger/internal/api/v1"
	"github.com/gosuda/taskledger/internal/domain"
)

type auditBody struct {
	Message string              `json:"message"`
	Logs    []*domain.AuditView `json:"logs"`
}

func updateView(taskID, actorID uuid.UUID) *domain.AuditView {
	return &domain.AuditView{
		AuditRecord: domain.AuditRecord{
			ID:        uuid.New(),
			Action:    domain.AuditActionUpdate,
			TaskID:    taskID,
			Before:    domain.Snapshot{"title": "draft", "status": "todo"},
			After:     domain.Snapshot{"title": "draft", "status": "completed"},
			ActorID:   actorID,
			CreatedAt: domain.StoredTime(time.Now()),
		},
		Task:             domain.TaskSummary{ID: taskID, Title: "draft"},
		Actor:            &domain.ActorSummary{ID: actorID, Name: "Admin", Email: "admin@example.com"},
		Changes:          []domain.FieldChange{{Field: "status", Before: "todo", After: "completed"}},
		ChangesAvailable: true,
	}
}

func TestListAuditLogs(t *testing.T) {
	t.Parallel()

	adminID := uuid.New()
	taskID := uuid.New()

	t.Run("admin", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterAuditRoutes(api, &mockAuditQuery{
			listFunc: func(_ context.Context, actor *domain.Actor) ([]*domain.AuditView, error) {
				require.NotNil(t, actor)
				assert.True(t, actor.IsAdmin())
				return []*domain.AuditView{updateView(taskID, adminID)}, nil
			},
		})

		resp := api.GetCtx(adminCtx(adminID), "/audit")

		require.Equal(t, http.StatusOK, resp.Code)
		var body auditBody
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "Audit logs retrieved successfully", body.Message)
		require.Len(t, body.Logs, 1)
		entry := body.Logs[0]
		assert.Equal(t, domain.AuditActionUpdate, entry.Action)
		assert.Equal(t, taskID, entry.Task.ID)
		assert.True(t, entry.ChangesAvailable)
		require.Len(t, entry.Changes, 1)
		assert.Equal(t, "status", entry.Changes[0].Field)
		assert.Equal(t, "completed", entry.After["status"])
	})

	t.Run("non_admin", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterAuditRoutes(api, &mockAuditQuery{
			listFunc: func(_ context.Context, actor *domain.Actor) ([]*domain.AuditView, error) {
				return nil, fmt.Errorf("audit.QueryService.List: %w", domain.CanViewLedger(actor))
			},
		})

		resp := api.GetCtx(userCtx(uuid.New()), "/audit")

		require.Equal(t, http.StatusForbidden, resp.Code)
		var p problem
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&p))
		assert.Equal(t, "Admin access required", p.Detail)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterAuditRoutes(api, &mockAuditQuery{
			listFunc: func(_ context.Context, actor *domain.Actor) ([]*domain.AuditView, error) {
				return nil, domain.CanViewLedger(actor)
			},
		})

		resp := api.Get("/audit")

		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})
}

func TestListTaskAuditLogs(t *testing.T) {
	t.Parallel()

	adminID := uuid.New()
	taskID := uuid.New()

	_, api := humatest.New(t)
	v1.RegisterAuditRoutes(api, &mockAuditQuery{
		listByTaskFunc: func(_ context.Context, _ *domain.Actor, id uuid.UUID) ([]*domain.AuditView, error) {
			assert.Equal(t, taskID, id)
			deleted := &domain.AuditView{
				AuditRecord: domain.AuditRecord{
					ID:      uuid.New(),
					Action:  domain.AuditActionDelete,
					TaskID:  id,
					Before:  domain.Snapshot{"title": "gone"},
					ActorID: adminID,
				},
				Task: domain.TaskSummary{ID: id, Title: "gone"},
			}
			return []*domain.AuditView{deleted, updateView(id, adminID)}, nil
		},
	})

	resp := api.GetCtx(adminCtx(adminID), "/audit/tasks/"+taskID.String())

	require.Equal(t, http.StatusOK, resp.Code)
	var body auditBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Logs, 2)
	assert.Equal(t, domain.AuditActionDelete, body.Logs[0].Action)
	assert.Equal(t, "gone", body.Logs[0].Task.Title)
	assert.False(t, body.Logs[0].ChangesAvailable)
	assert.Nil(t, body.Logs[0].After)
}
