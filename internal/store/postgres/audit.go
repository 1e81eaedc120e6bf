package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gosuda/taskledger/internal/domain"
)

const auditColumns = `id, action, task_id, before, after, actor_id, created_at`

type AuditRepo struct {
	db DBTX
}

func NewAuditRepo(db DBTX) *AuditRepo {
	return &AuditRepo{db: db}
}

// Record appends entry. Writing an ID that already exists is a no-op, which
// lets queued records be retried safely.
func (r *AuditRepo) Record(ctx context.Context, entry *domain.AuditRecord) error {
	before, err := marshalSnapshot(entry.Before)
	if err != nil {
		return fmt.Errorf("auditRepo.Record: marshal before: %w", err)
	}
	after, err := marshalSnapshot(entry.After)
	if err != nil {
		return fmt.Errorf("auditRepo.Record: marshal after: %w", err)
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO audit_log (`+auditColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO NOTHING`,
		entry.ID, entry.Action, entry.TaskID, before, after, entry.ActorID, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("auditRepo.Record: %w", err)
	}

	return nil
}

func (r *AuditRepo) List(ctx context.Context) ([]*domain.AuditRecord, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+auditColumns+` FROM audit_log
		 ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("auditRepo.List: %w", err)
	}
	defer rows.Close()

	return scanAuditRecords(rows, "auditRepo.List")
}

func (r *AuditRepo) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.AuditRecord, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+auditColumns+` FROM audit_log WHERE task_id = $1
		 ORDER BY created_at DESC`,
		taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("auditRepo.ListByTask: %w", err)
	}
	defer rows.Close()

	return scanAuditRecords(rows, "auditRepo.ListByTask")
}

// marshalSnapshot maps an absent snapshot to SQL NULL.
func marshalSnapshot(s domain.Snapshot) ([]byte, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

func scanAuditRecords(rows pgx.Rows, caller string) ([]*domain.AuditRecord, error) {
	var records []*domain.AuditRecord
	for rows.Next() {
		var (
			e             domain.AuditRecord
			before, after []byte
		)

		if err := rows.Scan(
			&e.ID, &e.Action, &e.TaskID, &before, &after, &e.ActorID, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", caller, err)
		}
		if before != nil {
			if err := json.Unmarshal(before, &e.Before); err != nil {
				return nil, fmt.Errorf("%s: unmarshal before: %w", caller, err)
			}
		}
		if after != nil {
			if err := json.Unmarshal(after, &e.After); err != nil {
				return nil, fmt.Errorf("%s: unmarshal after: %w", caller, err)
			}
		}
		e.CreatedAt = e.CreatedAt.UTC()
		records = append(records, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", caller, err)
	}

	return records, nil
}
