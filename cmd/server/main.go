// Package main provides the entry point for the paper discovery service.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/scholaris/paper-discovery-service/internal/config"
	"github.com/scholaris/paper-discovery-service/internal/database"
	"github.com/scholaris/paper-discovery-service/internal/events"
	"github.com/scholaris/paper-discovery-service/internal/library"
	"github.com/scholaris/paper-discovery-service/internal/llm"
	"github.com/scholaris/paper-discovery-service/internal/observability"
	"github.com/scholaris/paper-discovery-service/internal/proposal"
	"github.com/scholaris/paper-discovery-service/internal/providers/arxiv"
	"github.com/scholaris/paper-discovery-service/internal/providers/semanticscholar"
	"github.com/scholaris/paper-discovery-service/internal/recommend"
	"github.com/scholaris/paper-discovery-service/internal/repository"
	"github.com/scholaris/paper-discovery-service/internal/search"
	httpserver "github.com/scholaris/paper-discovery-service/internal/server/http"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Set up structured logging.
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	logger = logger.With().Str("component", "server").Logger()
	logger.Info().Msg("paper-discovery-service starting")

	// Set up context with graceful shutdown via OS signals.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to PostgreSQL.
	db, err := database.New(ctx, &cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()
	logger.Info().Msg("database connection established")

	// Run migrations if configured.
	if cfg.Database.MigrationAutoRun {
		migrator, err := database.NewMigrator(db, cfg.Database.MigrationPath, logger)
		if err != nil {
			return fmt.Errorf("create migrator: %w", err)
		}
		defer func() {
			if closeErr := migrator.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close migrator")
			}
		}()

		if err := migrator.Up(); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	metrics := observability.NewMetrics(cfg.Metrics.Namespace)

	// Create repositories.
	paperRepo := repository.NewPgPaperRepository(db)
	libraryRepo := repository.NewPgLibraryRepository(db)
	proposalRepo := repository.NewPgProposalRepository(db)

	// Create bibliographic provider clients.
	arxivClient := arxiv.New(arxiv.Config{
		BaseURL:    cfg.Providers.ArXiv.BaseURL,
		Timeout:    cfg.Providers.ArXiv.Timeout,
		RateLimit:  cfg.Providers.ArXiv.RateLimit,
		MaxResults: cfg.Providers.ArXiv.MaxResults,
		Enabled:    cfg.Providers.ArXiv.Enabled,
	})
	s2Client := semanticscholar.NewClient(semanticscholar.Config{
		BaseURL:    cfg.Providers.SemanticScholar.BaseURL,
		APIKey:     cfg.Providers.SemanticScholar.APIKey,
		Timeout:    cfg.Providers.SemanticScholar.Timeout,
		RateLimit:  cfg.Providers.SemanticScholar.RateLimit,
		MaxResults: cfg.Providers.SemanticScholar.MaxResults,
		Enabled:    cfg.Providers.SemanticScholar.Enabled,
	}, nil)

	// Create the LLM completer when a provider is configured.
	var completer llm.Completer
	switch strings.ToLower(cfg.LLM.Provider) {
	case "", "none":
		logger.Info().Msg("LLM features disabled")
	default:
		completer, err = llm.NewCompleter(llm.FactoryConfig{
			Provider:    cfg.LLM.Provider,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
			MaxRetries:  cfg.LLM.MaxRetries,
			RetryDelay:  cfg.LLM.RetryDelay,
			OpenAI: llm.OpenAISettings{
				APIKey:  cfg.LLM.OpenAI.APIKey,
				Model:   cfg.LLM.OpenAI.Model,
				BaseURL: cfg.LLM.OpenAI.BaseURL,
			},
			Anthropic: llm.AnthropicSettings{
				APIKey:  cfg.LLM.Anthropic.APIKey,
				Model:   cfg.LLM.Anthropic.Model,
				BaseURL: cfg.LLM.Anthropic.BaseURL,
			},
		})
		if err != nil {
			return fmt.Errorf("create LLM completer: %w", err)
		}
		logger.Info().
			Str("provider", completer.Provider()).
			Str("model", completer.Model()).
			Msg("LLM completer initialized")
	}

	// Create the activity event publisher.
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Kafka.Enabled {
		kafkaPublisher := events.NewKafkaPublisher(events.Config{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.Topic,
			BatchSize:    cfg.Kafka.BatchSize,
			BatchTimeout: cfg.Kafka.BatchTimeout,
		}, logger)
		defer func() {
			if closeErr := kafkaPublisher.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close kafka publisher")
			}
		}()
		publisher = kafkaPublisher
		logger.Info().
			Strs("brokers", cfg.Kafka.Brokers).
			Str("topic", cfg.Kafka.Topic).
			Msg("kafka publisher initialized")
	}

	// Create services.
	searchSvc := search.NewService(arxivClient, s2Client, s2Client, paperRepo, logger, metrics)
	recommendSvc := recommend.NewService(
		paperRepo,
		libraryRepo,
		s2Client,
		recommend.NewResolver(s2Client),
		recommend.Config{
			MaxSourcePapers: cfg.Recommender.MaxSourcePapers,
			RequestDelay:    cfg.Recommender.RequestDelay,
			DefaultLimit:    cfg.Recommender.DefaultLimit,
			MaxLimit:        cfg.Recommender.MaxLimit,
		},
		logger,
		metrics,
	)
	librarySvc := library.NewService(libraryRepo, paperRepo, completer, publisher, logger, metrics)
	proposalSvc := proposal.NewService(proposalRepo, libraryRepo, paperRepo, completer, logger, metrics)

	// Create the HTTP server.
	httpSrv := httpserver.NewServer(
		httpserver.Config{
			Address:         cfg.Server.HTTPAddress(),
			ReadTimeout:     cfg.Server.ReadTimeout,
			WriteTimeout:    cfg.Server.WriteTimeout,
			IdleTimeout:     cfg.Server.ShutdownTimeout,
			ShutdownTimeout: cfg.Server.ShutdownTimeout,
			MetricsEnabled:  cfg.Metrics.Enabled,
			MetricsPath:     cfg.Metrics.Path,
		},
		searchSvc,
		recommendSvc,
		librarySvc,
		proposalSvc,
		db,
		logger,
	)

	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	logger.Info().
		Str("http_address", cfg.Server.HTTPAddress()).
		Msg("paper-discovery-service is ready")

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	}

	// Graceful shutdown.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	logger.Info().Msg("paper-discovery-service shutdown complete")
	return nil
}
