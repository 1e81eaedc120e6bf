package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gosuda/taskledger/internal/domain"
)

const taskColumns = `id, title, description, status, priority, due_date, owner_id, version, created_at, updated_at`

type TaskRepo struct {
	db DBTX
}

func NewTaskRepo(db DBTX) *TaskRepo {
	return &TaskRepo{db: db}
}

func (r *TaskRepo) Create(ctx context.Context, t *domain.Task) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO tasks (`+taskColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		t.ID, t.Title, t.Description, t.Status, t.Priority, t.DueDate,
		t.OwnerID, t.Version, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("taskRepo.Create: %w", err)
	}

	return nil
}

func (r *TaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	t, err := scanTask(r.db.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1`,
		id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("taskRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("taskRepo.GetByID: %w", err)
	}

	return t, nil
}

func (r *TaskRepo) List(ctx context.Context, filter domain.TaskFilter) ([]*domain.Task, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE $1::uuid IS NULL OR owner_id = $1
		 ORDER BY created_at DESC
		 LIMIT NULLIF($2::int, 0)`,
		filter.OwnerID, filter.Limit,
	)
	if err != nil {
		return nil, fmt.Errorf("taskRepo.List: %w", err)
	}
	defer rows.Close()

	return scanTasks(rows, "taskRepo.List")
}

func (r *TaskRepo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Task, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ANY($1)`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("taskRepo.ListByIDs: %w", err)
	}
	defer rows.Close()

	return scanTasks(rows, "taskRepo.ListByIDs")
}

// Update writes every mutable column of t, guarded by the version the caller
// loaded. When no row matches it tells a missing task apart from a stale
// version.
func (r *TaskRepo) Update(ctx context.Context, t *domain.Task, expectedVersion int) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE tasks SET title = $1, description = $2, status = $3, priority = $4,
		        due_date = $5, version = $6, updated_at = $7
		 WHERE id = $8 AND version = $9`,
		t.Title, t.Description, t.Status, t.Priority,
		t.DueDate, t.Version, t.UpdatedAt,
		t.ID, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("taskRepo.Update: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1)`, t.ID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("taskRepo.Update: %w", err)
	}
	if exists {
		return fmt.Errorf("taskRepo.Update: version %d is stale: %w", expectedVersion, domain.ErrConflict)
	}

	return fmt.Errorf("taskRepo.Update: %w", domain.ErrNotFound)
}

func (r *TaskRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM tasks WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("taskRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("taskRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *TaskRepo) CountByStatus(ctx context.Context, filter domain.TaskFilter) (map[domain.TaskStatus]int, error) {
	rows, err := r.db.Query(ctx,
		`SELECT status, count(*) FROM tasks
		 WHERE $1::uuid IS NULL OR owner_id = $1
		 GROUP BY status`,
		filter.OwnerID,
	)
	if err != nil {
		return nil, fmt.Errorf("taskRepo.CountByStatus: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.TaskStatus]int)
	for rows.Next() {
		var (
			status domain.TaskStatus
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("taskRepo.CountByStatus: scan: %w", err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("taskRepo.CountByStatus: rows: %w", err)
	}

	return counts, nil
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var t domain.Task
	if err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.DueDate,
		&t.OwnerID, &t.Version, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, err
	}

	normalizeTask(&t)
	return &t, nil
}

func scanTasks(rows pgx.Rows, caller string) ([]*domain.Task, error) {
	var tasks []*domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", caller, err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", caller, err)
	}

	return tasks, nil
}

// normalizeTask converts scanned timestamps to UTC so snapshots taken from a
// loaded task match the ones taken before it was written.
func normalizeTask(t *domain.Task) {
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	if t.DueDate != nil {
		due := t.DueDate.UTC()
		t.DueDate = &due
	}
}
