// Package main provides the entry point for the treasury research service.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alejandrosalgar/scrapper-tesoreria/internal/ai"
	"github.com/alejandrosalgar/scrapper-tesoreria/internal/config"
	"github.com/alejandrosalgar/scrapper-tesoreria/internal/database"
	"github.com/alejandrosalgar/scrapper-tesoreria/internal/events"
	"github.com/alejandrosalgar/scrapper-tesoreria/internal/observability"
	"github.com/alejandrosalgar/scrapper-tesoreria/internal/repository"
	"github.com/alejandrosalgar/scrapper-tesoreria/internal/search"
	httpserver "github.com/alejandrosalgar/scrapper-tesoreria/internal/server/http"
	"github.com/alejandrosalgar/scrapper-tesoreria/internal/sources"
	"github.com/alejandrosalgar/scrapper-tesoreria/internal/sources/arxiv"
	"github.com/alejandrosalgar/scrapper-tesoreria/internal/sources/crossref"
	"github.com/alejandrosalgar/scrapper-tesoreria/internal/sources/researchgate"
	"github.com/alejandrosalgar/scrapper-tesoreria/internal/sources/scholar"
	"github.com/alejandrosalgar/scrapper-tesoreria/internal/sources/scopus"
	"github.com/alejandrosalgar/scrapper-tesoreria/internal/worker"
)

// metricsNamespace prefixes all Prometheus metric names.
const metricsNamespace = "tesoreria"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	logger = logger.With().Str("component", "server").Logger()
	logger.Info().Msg("treasury research service starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, &cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()
	logger.Info().Msg("database connection established")

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

	searchRepo := repository.NewPgSearchRepository(db)
	metrics := observability.NewMetrics(metricsNamespace)
	registry := buildRegistry(cfg)

	// Without an API key the AI stages pass queries and results through
	// untouched.
	var generator ai.Generator
	if cfg.Gemini.APIKey != "" {
		client, err := ai.NewGeminiClient(ctx, ai.GeminiConfig{
			APIKey: cfg.Gemini.APIKey,
			Model:  cfg.Gemini.Model,
		})
		if err != nil {
			return fmt.Errorf("create gemini client: %w", err)
		}
		generator = ai.NewInstrumentedGenerator(client, client.Model(), metrics)
		logger.Info().Str("model", client.Model()).Msg("AI pipeline stages enabled")
	} else {
		logger.Warn().Msg("Gemini API key not set; query enhancement and relevance scoring disabled")
	}

	publisher := events.NewPublisher(cfg.Kafka, logger)
	defer func() {
		if closeErr := publisher.Close(); closeErr != nil {
			logger.Error().Err(closeErr).Msg("failed to close event publisher")
		}
	}()

	orchestrator := search.NewOrchestrator(search.Config{
		Repository:    searchRepo,
		Registry:      registry,
		Enhancer:      ai.NewQueryEnhancer(generator, logger),
		Analyzer:      ai.NewRelevanceAnalyzer(generator, logger),
		Publisher:     publisher,
		Metrics:       metrics,
		Logger:        logger,
		SearchTimeout: cfg.Worker.SearchTimeout,
	})

	dispatcher, err := worker.NewDispatcher(ctx, cfg.Worker.PoolSize, orchestrator, logger)
	if err != nil {
		return fmt.Errorf("create dispatcher: %w", err)
	}
	defer dispatcher.Close()

	httpCfg := httpserver.Config{
		Address:        cfg.Server.HTTPAddress(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    2 * time.Minute,
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsPath:    cfg.Metrics.Path,
	}
	httpSrv := httpserver.NewServer(httpCfg, searchRepo, dispatcher, db, logger)

	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	logger.Info().
		Str("http_address", httpCfg.Address).
		Int("worker_pool_size", cfg.Worker.PoolSize).
		Msg("treasury research service is ready")

	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	}

	logger.Info().Msg("shutting down treasury research service")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	logger.Info().Msg("treasury research service shutdown complete")
	return nil
}

// buildRegistry wires one adapter per configured source.
func buildRegistry(cfg *config.Config) *sources.Registry {
	registry := sources.NewRegistry()

	registry.Register(arxiv.New(arxiv.Config{
		BaseURL:   cfg.Sources.ArXiv.BaseURL,
		Timeout:   cfg.Sources.ArXiv.Timeout,
		RateLimit: cfg.Sources.ArXiv.RateLimit,
		Enabled:   cfg.Sources.ArXiv.Enabled,
	}))

	registry.Register(crossref.New(crossref.Config{
		BaseURL:   cfg.Sources.Crossref.BaseURL,
		Email:     cfg.Sources.CrossrefEmail,
		Timeout:   cfg.Sources.Crossref.Timeout,
		RateLimit: cfg.Sources.Crossref.RateLimit,
		Enabled:   cfg.Sources.Crossref.Enabled,
	}))

	registry.Register(scholar.New(scholar.Config{
		BaseURL:   cfg.Sources.GoogleScholar.BaseURL,
		Timeout:   cfg.Sources.GoogleScholar.Timeout,
		RateLimit: cfg.Sources.GoogleScholar.RateLimit,
		Enabled:   cfg.Sources.GoogleScholar.Enabled,
	}))

	registry.Register(researchgate.New(researchgate.Config{
		BaseURL:   cfg.Sources.ResearchGate.BaseURL,
		Timeout:   cfg.Sources.ResearchGate.Timeout,
		RateLimit: cfg.Sources.ResearchGate.RateLimit,
		Enabled:   cfg.Sources.ResearchGate.Enabled,
	}))

	registry.Register(scopus.New(scopus.Config{
		BaseURL:   cfg.Sources.Scopus.BaseURL,
		Timeout:   cfg.Sources.Scopus.Timeout,
		RateLimit: cfg.Sources.Scopus.RateLimit,
		Enabled:   cfg.Sources.Scopus.Enabled,
	}))

	return registry
}
