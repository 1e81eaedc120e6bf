package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/taskledger/internal/domain"
)

// DBTX is the subset of pgx shared by *pgxpool.Pool and pgx.Tx, so the same
// repository code runs inside and outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	pool   *pgxpool.Pool
	tasks  *TaskRepo
	audit  *AuditRepo
	actors *ActorRepo
}

func New(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	return &Store{
		pool:   pool,
		tasks:  NewTaskRepo(pool),
		audit:  NewAuditRepo(pool),
		actors: NewActorRepo(pool),
	}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Tasks() domain.TaskRepository   { return s.tasks }
func (s *Store) Audit() domain.AuditRepository  { return s.audit }
func (s *Store) Actors() domain.ActorRepository { return s.actors }

// UpsertActor provisions an actor named by a bearer token.
func (s *Store) UpsertActor(ctx context.Context, a *domain.Actor) error {
	return s.actors.Upsert(ctx, a)
}

// InTx runs fn against repositories bound to one transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
func (s *Store) InTx(ctx context.Context, fn func(repos domain.Repositories) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("postgres.Store.InTx: begin: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			log.Warn().Err(rbErr).Msg("postgres: rollback failed")
		}
	}()

	if err := fn(txRepos{tasks: NewTaskRepo(tx), audit: NewAuditRepo(tx)}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres.Store.InTx: commit: %w", err)
	}

	return nil
}

type txRepos struct {
	tasks *TaskRepo
	audit *AuditRepo
}

func (r txRepos) Tasks() domain.TaskRepository  { return r.tasks }
func (r txRepos) Audit() domain.AuditRepository { return r.audit }

var (
	_ domain.Transactor      = (*Store)(nil)
	_ domain.TaskRepository  = (*TaskRepo)(nil)
	_ domain.AuditRepository = (*AuditRepo)(nil)
	_ domain.ActorRepository = (*ActorRepo)(nil)
)
