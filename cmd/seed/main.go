// Command seed ensures a bootstrap actor exists and prints a bearer token
// for it.
package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/gosuda/taskledger/internal/auth"
	"github.com/gosuda/taskledger/internal/config"
	"github.com/gosuda/taskledger/internal/domain"
	"github.com/gosuda/taskledger/internal/store/postgres"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("seed failed")
	}
}

func run() error {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	var (
		email string
		name  string
		role  string
	)

	flagSet := pflag.NewFlagSet("seed", pflag.ContinueOnError)
	flagSet.StringVar(&email, "email", "admin@demo.com", "email of the actor to ensure")
	flagSet.StringVar(&name, "name", "Admin User", "display name used when the actor is created")
	flagSet.StringVar(&role, "role", string(domain.RoleAdmin), "role used when the actor is created (admin or user)")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if cfg.Database.MaxConns < 0 || cfg.Database.MaxConns > math.MaxInt32 {
		return fmt.Errorf("database max_conns %d out of int32 range", cfg.Database.MaxConns)
	}

	store, err := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns)) //nolint:gosec // bounds checked above
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return err
	}

	actor, created, err := ensureActor(ctx, store.Actors(), email, name, domain.Role(role))
	if err != nil {
		return err
	}
	if created {
		log.Info().Str("email", actor.Email).Str("role", string(actor.Role)).Msg("actor created")
	} else {
		log.Info().Str("email", actor.Email).Msg("actor already exists")
	}

	token, err := auth.IssueActorToken(cfg.JWT.Secret, actor, cfg.JWT.AccessTTL)
	if err != nil {
		return err
	}

	fmt.Println(token)
	return nil
}
