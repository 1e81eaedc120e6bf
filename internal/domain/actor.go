package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Actor is the identity performing an operation. Identity and role arrive
// from the upstream authenticator; Name and Email are only populated when
// loaded from the store.
type Actor struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Role      Role
	CreatedAt time.Time
}

func (a *Actor) Summary() *ActorSummary {
	return &ActorSummary{ID: a.ID, Name: a.Name, Email: a.Email}
}

type ActorRepository interface {
	Create(ctx context.Context, a *Actor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Actor, error)
	GetByEmail(ctx context.Context, email string) (*Actor, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*Actor, error)
}
