package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/gosuda/taskledger/internal/domain"
	"github.com/gosuda/taskledger/internal/server/middleware"
)

func TestRequireLedgerAccess(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		role       domain.Role
		anonymous  bool
		wantStatus int
	}{
		{name: "admin allowed", role: domain.RoleAdmin, wantStatus: http.StatusOK},
		{name: "user forbidden", role: domain.RoleUser, wantStatus: http.StatusForbidden},
		{name: "unknown role is unauthenticated", role: "viewer", wantStatus: http.StatusUnauthorized},
		{name: "no actor", anonymous: true, wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := middleware.RequireLedgerAccess()(okHandler)
			req := httptest.NewRequest(http.MethodGet, "/audit", http.NoBody)
			if !tt.anonymous {
				req = setActor(req, uuid.New(), tt.role)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestRequire_CustomCheck(t *testing.T) {
	t.Parallel()

	var seen *domain.Actor
	check := func(a *domain.Actor) error {
		seen = a
		return errors.New("closed for maintenance")
	}

	id := uuid.New()
	handler := middleware.Require(check)(okHandler)
	req := setActor(httptest.NewRequest(http.MethodGet, "/", http.NoBody), id, domain.RoleAdmin)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "insufficient permissions")
	if assert.NotNil(t, seen) {
		assert.Equal(t, id, seen.ID)
	}
}
