package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/taskledger/internal/domain"
)

// PendingQueue holds audit records whose write failed after the task change
// was already persisted. *redis.PendingQueue satisfies this interface.
type PendingQueue interface {
	Push(ctx context.Context, rec *domain.AuditRecord) error
	// Peek returns the oldest record without removing it, or nil when the
	// queue is empty.
	Peek(ctx context.Context) (*domain.AuditRecord, error)
	// Ack removes the oldest record if it is still the one with id.
	Ack(ctx context.Context, id uuid.UUID) error
	Len(ctx context.Context) (int64, error)
}

// Retrier drains a PendingQueue into the ledger until every record is
// written. Record IDs are assigned before queuing and the ledger ignores
// duplicate IDs, so a record is never written twice. A Retrier must be the
// queue's only consumer.
type Retrier struct {
	queue    PendingQueue
	repo     domain.AuditRepository
	interval time.Duration
}

// NewRetrier creates a Retrier that runs a drain pass every interval.
func NewRetrier(queue PendingQueue, repo domain.AuditRepository, interval time.Duration) *Retrier {
	return &Retrier{queue: queue, repo: repo, interval: interval}
}

// Drain writes queued records until the queue is empty or a step fails. A
// record leaves the queue only after its write succeeded, so a failed write
// or a crash mid-pass leaves it in place for the next pass. It returns the
// number of records written.
func (r *Retrier) Drain(ctx context.Context) (int, error) {
	written := 0
	for {
		rec, err := r.queue.Peek(ctx)
		if err != nil {
			return written, fmt.Errorf("audit.Retrier.Drain: peek: %w", err)
		}
		if rec == nil {
			return written, nil
		}

		if err := r.repo.Record(ctx, rec); err != nil {
			return written, fmt.Errorf("audit.Retrier.Drain: write %s: %w", rec.ID, err)
		}

		// A failed ack leaves a written record queued; writing it again on
		// the next pass is a no-op.
		if err := r.queue.Ack(ctx, rec.ID); err != nil {
			return written, fmt.Errorf("audit.Retrier.Drain: ack %s: %w", rec.ID, err)
		}
		written++
	}
}

// Run drains the queue every interval until ctx is cancelled.
func (r *Retrier) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			written, err := r.Drain(ctx)
			if written > 0 {
				log.Info().Int("written", written).Msg("audit: pending records flushed")
			}
			if err != nil && ctx.Err() == nil {
				pending, _ := r.queue.Len(ctx)
				log.Warn().Err(err).Int64("pending", pending).Msg("audit: retry pass failed")
			}
		}
	}
}
