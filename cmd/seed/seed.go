package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/taskledger/internal/domain"
)

// ensureActor returns the actor registered under email, creating it with
// name and role when absent. An existing actor keeps its stored role.
func ensureActor(ctx context.Context, actors domain.ActorRepository, email, name string, role domain.Role) (*domain.Actor, bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, false, fmt.Errorf("seed.ensureActor: %w: email is required", domain.ErrValidation)
	}
	if !role.Valid() {
		return nil, false, fmt.Errorf("seed.ensureActor: %w: unknown role %q", domain.ErrValidation, role)
	}

	existing, err := actors.GetByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, fmt.Errorf("seed.ensureActor: %w", err)
	}

	actor := &domain.Actor{
		ID:        uuid.New(),
		Name:      name,
		Email:     email,
		Role:      role,
		CreatedAt: domain.StoredTime(time.Now()),
	}
	if err := actors.Create(ctx, actor); err != nil {
		return nil, false, fmt.Errorf("seed.ensureActor: %w", err)
	}

	return actor, true, nil
}
