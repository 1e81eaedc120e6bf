package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gosuda/taskledger/internal/domain"
)

type ActorRepo struct {
	db DBTX
}

func NewActorRepo(db DBTX) *ActorRepo {
	return &ActorRepo{db: db}
}

func (r *ActorRepo) Create(ctx context.Context, a *domain.Actor) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO actors (id, name, email, role, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		a.ID, a.Name, a.Email, a.Role, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("actorRepo.Create: %w", err)
	}

	return nil
}

// Upsert inserts a, or refreshes name, email and role of an existing actor
// with the same id. Unchanged rows are left untouched.
func (r *ActorRepo) Upsert(ctx context.Context, a *domain.Actor) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO actors (id, name, email, role, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE
		 SET name = EXCLUDED.name, email = EXCLUDED.email, role = EXCLUDED.role
		 WHERE (actors.name, actors.email, actors.role)
		       IS DISTINCT FROM (EXCLUDED.name, EXCLUDED.email, EXCLUDED.role)`,
		a.ID, a.Name, a.Email, a.Role, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("actorRepo.Upsert: %w", err)
	}

	return nil
}

func (r *ActorRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Actor, error) {
	var a domain.Actor

	err := r.db.QueryRow(ctx,
		`SELECT id, name, email, role, created_at FROM actors WHERE id = $1`,
		id,
	).Scan(&a.ID, &a.Name, &a.Email, &a.Role, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("actorRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("actorRepo.GetByID: %w", err)
	}

	return &a, nil
}

func (r *ActorRepo) GetByEmail(ctx context.Context, email string) (*domain.Actor, error) {
	var a domain.Actor

	err := r.db.QueryRow(ctx,
		`SELECT id, name, email, role, created_at FROM actors WHERE email = $1`,
		email,
	).Scan(&a.ID, &a.Name, &a.Email, &a.Role, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("actorRepo.GetByEmail: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("actorRepo.GetByEmail: %w", err)
	}

	return &a, nil
}

func (r *ActorRepo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Actor, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, name, email, role, created_at FROM actors WHERE id = ANY($1)`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("actorRepo.ListByIDs: %w", err)
	}
	defer rows.Close()

	var actors []*domain.Actor
	for rows.Next() {
		var a domain.Actor
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &a.Role, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("actorRepo.ListByIDs: scan: %w", err)
		}
		actors = append(actors, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("actorRepo.ListByIDs: rows: %w", err)
	}

	return actors, nil
}
