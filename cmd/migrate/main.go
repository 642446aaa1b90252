// Command migrate manages the discovery service database schema.
//
// Exactly one action flag must be given:
//
//	migrate -up                apply all pending migrations
//	migrate -down              roll back everything
//	migrate -steps N           step N migrations (negative rolls back)
//	migrate -version           print the current version
//	migrate -force V           overwrite a dirty version marker
//
// Database settings come from the same configuration as the server; -path
// overrides the migrations directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/scholaris/paper-discovery-service/internal/config"
	"github.com/scholaris/paper-discovery-service/internal/database"
	"github.com/scholaris/paper-discovery-service/internal/observability"
)

const connectTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		up      = flag.Bool("up", false, "apply all pending migrations")
		down    = flag.Bool("down", false, "roll back all migrations")
		steps   = flag.Int("steps", 0, "apply N migration steps (negative rolls back)")
		version = flag.Bool("version", false, "print the current migration version")
		force   = flag.Int("force", -1, "overwrite the migration version marker")
		path    = flag.String("path", "", "migrations directory (overrides configuration)")
	)
	flag.Parse()

	actions := 0
	for _, set := range []bool{*up, *down, *steps != 0, *version, *force >= 0} {
		if set {
			actions++
		}
	}
	if actions == 0 {
		flag.Usage()
		return fmt.Errorf("one of -up, -down, -steps, -version or -force is required")
	}
	if actions > 1 {
		return fmt.Errorf("only one action may be given at a time")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      "info",
		Format:     "console",
		Output:     "stdout",
		TimeFormat: time.RFC3339,
	}).With().Str("component", "migrate").Logger()

	migrationDir := cfg.Database.MigrationPath
	if *path != "" {
		migrationDir = *path
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	db, err := database.New(ctx, &cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	migrator, err := database.NewMigrator(db, migrationDir, logger)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			logger.Error().Err(closeErr).Msg("failed to close migrator")
		}
	}()

	switch {
	case *up:
		if err := migrator.Up(); err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
	case *down:
		if err := migrator.Down(); err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
	case *steps != 0:
		if err := migrator.Steps(*steps); err != nil {
			return fmt.Errorf("migrate steps: %w", err)
		}
	case *force >= 0:
		if err := migrator.Force(*force); err != nil {
			return fmt.Errorf("force version: %w", err)
		}
	}

	reportVersion(migrator, logger)
	return nil
}

func reportVersion(migrator *database.Migrator, logger zerolog.Logger) {
	v, dirty, err := migrator.Version()
	if err != nil {
		logger.Warn().Err(err).Msg("could not determine migration version")
		return
	}
	logger.Info().
		Uint("version", v).
		Bool("dirty", dirty).
		Msg("current migration version")
}
