package main

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/taskledger/internal/domain"
)

type mockActorRepo struct {
	createFunc     func(ctx context.Context, a *domain.Actor) error
	getByEmailFunc func(ctx context.Context, email string) (*domain.Actor, error)
}

func (m *mockActorRepo) Create(ctx context.Context, a *domain.Actor) error {
	return m.createFunc(ctx, a)
}

func (m *mockActorRepo) GetByID(context.Context, uuid.UUID) (*domain.Actor, error) {
	return nil, domain.ErrNotFound
}

func (m *mockActorRepo) GetByEmail(ctx context.Context, email string) (*domain.Actor, error) {
	return m.getByEmailFunc(ctx, email)
}

func (m *mockActorRepo) ListByIDs(context.Context, []uuid.UUID) ([]*domain.Actor, error) {
	return nil, nil
}

func TestEnsureActor(t *testing.T) {
	t.Parallel()

	t.Run("creates_when_absent", func(t *testing.T) {
		t.Parallel()

		var stored *domain.Actor
		repo := &mockActorRepo{
			getByEmailFunc: func(_ context.Context, email string) (*domain.Actor, error) {
				assert.Equal(t, "admin@demo.com", email)
				return nil, domain.ErrNotFound
			},
			createFunc: func(_ context.Context, a *domain.Actor) error {
				stored = a
				return nil
			},
		}

		actor, created, err := ensureActor(t.Context(), repo, " Admin@Demo.com ", "Admin User", domain.RoleAdmin)

		require.NoError(t, err)
		assert.True(t, created)
		require.NotNil(t, stored)
		assert.Same(t, stored, actor)
		assert.NotEqual(t, uuid.Nil, actor.ID)
		assert.Equal(t, "Admin User", actor.Name)
		assert.Equal(t, domain.RoleAdmin, actor.Role)
		assert.False(t, actor.CreatedAt.IsZero())
	})

	t.Run("returns_existing", func(t *testing.T) {
		t.Parallel()

		existing := &domain.Actor{ID: uuid.New(), Email: "admin@demo.com", Role: domain.RoleUser}
		repo := &mockActorRepo{
			getByEmailFunc: func(context.Context, string) (*domain.Actor, error) {
				return existing, nil
			},
		}

		actor, created, err := ensureActor(t.Context(), repo, "admin@demo.com", "Admin User", domain.RoleAdmin)

		require.NoError(t, err)
		assert.False(t, created)
		assert.Same(t, existing, actor)
	})

	t.Run("rejects_unknown_role", func(t *testing.T) {
		t.Parallel()

		_, _, err := ensureActor(t.Context(), &mockActorRepo{}, "a@b.c", "A", domain.Role("root"))

		require.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("rejects_blank_email", func(t *testing.T) {
		t.Parallel()

		_, _, err := ensureActor(t.Context(), &mockActorRepo{}, "  ", "A", domain.RoleAdmin)

		require.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("lookup_failure", func(t *testing.T) {
		t.Parallel()

		repo := &mockActorRepo{
			getByEmailFunc: func(context.Context, string) (*domain.Actor, error) {
				return nil, errors.New("db down")
			},
		}

		_, _, err := ensureActor(t.Context(), repo, "a@b.c", "A", domain.RoleAdmin)

		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrNotFound)
	})
}
