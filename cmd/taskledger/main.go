package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/taskledger/internal/audit"
	"github.com/gosuda/taskledger/internal/config"
	"github.com/gosuda/taskledger/internal/server"
	"github.com/gosuda/taskledger/internal/store/postgres"
	redisstore "github.com/gosuda/taskledger/internal/store/redis"
	"github.com/gosuda/taskledger/internal/tasks"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

func run() error {
	setupLogging()

	ctx := context.Background()

	// Load configuration from environment.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if cfg.Database.MaxConns < 0 || cfg.Database.MaxConns > math.MaxInt32 {
		return fmt.Errorf("database max_conns %d out of int32 range", cfg.Database.MaxConns)
	}

	// Connect to PostgreSQL and bring the schema up to date.
	store, err := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns)) //nolint:gosec // bounds checked above
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return err
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	deps := server.Deps{
		Audit:  audit.NewQueryService(store.Audit(), store.Tasks(), store.Actors()),
		DB:     store,
		Actors: store,
	}

	var svc *tasks.Service
	switch cfg.Audit.Mode {
	case config.AuditModeQueue:
		// Redis holds audit records whose write failed after the task
		// change was already persisted.
		pending, err := redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer pending.Close()

		retrier := audit.NewRetrier(pending, store.Audit(), cfg.Audit.RetryInterval)
		go retrier.Run(ctx)

		svc = tasks.NewService(store, nil, pending)
		deps.Pending = pending
	default:
		svc = tasks.NewService(store, store, nil)
	}

	svc.SetListLimit(cfg.Tasks.ListLimit)
	deps.Tasks = svc

	log.Info().Str("audit_mode", string(cfg.Audit.Mode)).Msg("audit ledger configured")

	// Create HTTP server with all routes wired.
	srv := server.New(ctx, cfg, deps)

	// Start server in background goroutine.
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("starting server")
		if startErr := srv.Start(ctx); startErr != nil {
			log.Error().Err(startErr).Msg("server error")
			cancel()
		}
	}()

	// Block until shutdown signal.
	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}

	log.Info().Msg("stopped")
	return nil
}

// setupLogging initializes structured logging from environment.
func setupLogging() {
	level, err := zerolog.ParseLevel(os.Getenv("TASKLEDGER_LOG_LEVEL"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if os.Getenv("TASKLEDGER_LOG_FORMAT") == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}
