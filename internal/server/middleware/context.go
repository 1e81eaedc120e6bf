package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/gosuda/taskledger/internal/domain"
)

type contextKey string

const (
	ContextKeyUserID   contextKey = "user_id"
	ContextKeyUserRole contextKey = "role"
	contextKeyProfile  contextKey = "profile"
)

// WithActor stores the acting identity in ctx.
func WithActor(ctx context.Context, actor *domain.Actor) context.Context {
	ctx = context.WithValue(ctx, ContextKeyUserID, actor.ID)
	ctx = context.WithValue(ctx, ContextKeyUserRole, actor.Role)
	ctx = context.WithValue(ctx, contextKeyProfile, *actor)
	return ctx
}

// profileFromContext returns the full actor named by the token, including
// the name and email claims when present.
func profileFromContext(ctx context.Context) (domain.Actor, bool) {
	v, ok := ctx.Value(contextKeyProfile).(domain.Actor)
	return v, ok
}

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	v, ok := ctx.Value(ContextKeyUserID).(uuid.UUID)
	return v, ok
}

func RoleFromContext(ctx context.Context) (domain.Role, bool) {
	v, ok := ctx.Value(ContextKeyUserRole).(domain.Role)
	return v, ok
}

// ActorFromContext returns the authenticated actor, or nil when the request
// carries no identity.
func ActorFromContext(ctx context.Context) *domain.Actor {
	id, ok := UserIDFromContext(ctx)
	if !ok || id == uuid.Nil {
		return nil
	}
	role, ok := RoleFromContext(ctx)
	if !ok {
		return nil
	}
	return &domain.Actor{ID: id, Role: role}
}
