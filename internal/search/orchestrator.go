// Package search coordinates the full lifecycle of one treasury research
// search: status tracking, query enhancement, concurrent source fan-out,
// normalization, relevance enrichment and persistence.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/alejandrosalgar/scrapper-tesoreria/internal/ai"
	"github.com/alejandrosalgar/scrapper-tesoreria/internal/domain"
	"github.com/alejandrosalgar/scrapper-tesoreria/internal/events"
	"github.com/alejandrosalgar/scrapper-tesoreria/internal/normalize"
	"github.com/alejandrosalgar/scrapper-tesoreria/internal/observability"
	"github.com/alejandrosalgar/scrapper-tesoreria/internal/repository"
	"github.com/alejandrosalgar/scrapper-tesoreria/internal/sources"
)

// defaultSearchTimeout bounds one full pipeline run when no timeout is
// configured.
const defaultSearchTimeout = 10 * time.Minute

// Config holds the orchestrator's collaborators. Repository, Registry and
// Metrics are required; Enhancer and Analyzer may be nil when AI is
// unconfigured, and a nil Publisher disables event publishing.
type Config struct {
	Repository repository.SearchRepository
	Registry   *sources.Registry
	Enhancer   *ai.QueryEnhancer
	Analyzer   *ai.RelevanceAnalyzer
	Publisher  events.Publisher
	Metrics    *observability.Metrics
	Logger     zerolog.Logger

	// SearchTimeout bounds one pipeline run. Zero uses the default.
	SearchTimeout time.Duration
}

// Orchestrator runs the search pipeline for one search at a time per call.
// Execute is safe for concurrent use across searches.
type Orchestrator struct {
	repo      repository.SearchRepository
	registry  *sources.Registry
	enhancer  *ai.QueryEnhancer
	analyzer  *ai.RelevanceAnalyzer
	publisher events.Publisher
	metrics   *observability.Metrics
	logger    zerolog.Logger
	timeout   time.Duration
}

// NewOrchestrator creates a search orchestrator.
func NewOrchestrator(cfg Config) *Orchestrator {
	timeout := cfg.SearchTimeout
	if timeout <= 0 {
		timeout = defaultSearchTimeout
	}
	publisher := cfg.Publisher
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Orchestrator{
		repo:      cfg.Repository,
		registry:  cfg.Registry,
		enhancer:  cfg.Enhancer,
		analyzer:  cfg.Analyzer,
		publisher: publisher,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger.With().Str("component", "search_orchestrator").Logger(),
		timeout:   timeout,
	}
}

// Execute runs the full pipeline for a previously accepted search request.
// Source failures and AI failures degrade the result set but never fail the
// search; only an orchestrator-level persistence failure moves the search to
// the failed state. The returned error reflects that same distinction.
func (o *Orchestrator) Execute(ctx context.Context, searchID uuid.UUID, req domain.SearchRequest) error {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	logger := observability.WithSearchContext(o.logger, searchID.String(), req.Query)
	start := time.Now()
	o.metrics.RecordSearchStarted()

	record := domain.NewSearchRecord(searchID, req)
	record.Status = domain.SearchStatusProcessing
	record.UpdatedAt = time.Now().UTC()

	// Status writes before the final one are best-effort: a read replica
	// missing "processing" is acceptable, a lost result set is not.
	if err := o.repo.SaveMetadata(ctx, record); err != nil {
		logger.Warn().Err(err).Msg("Failed to save processing status")
	}

	query := req.Query
	if req.UseAIEnhancement && o.enhancer != nil {
		query = o.enhancer.Enhance(ctx, req.Query)
		if query != req.Query {
			record.EnhancedQuery = query
			record.UpdatedAt = time.Now().UTC()
			if err := o.repo.SaveMetadata(ctx, record); err != nil {
				logger.Warn().Err(err).Msg("Failed to save enhanced query")
			}
		}
	}

	results := o.collect(ctx, logger, query, req)
	logger.Info().Int("results", len(results)).Msg("Source fan-out finished")

	if o.analyzer != nil {
		results = o.analyzer.Analyze(ctx, results)
	}

	if err := o.repo.SaveResults(ctx, searchID, results); err != nil {
		o.fail(ctx, logger, record, fmt.Errorf("save results: %w", err), start)
		return fmt.Errorf("save results for search %s: %w", searchID, err)
	}
	o.metrics.RecordResultsSaved(len(results))

	record.Status = domain.SearchStatusCompleted
	record.ResultsCount = len(results)
	if err := o.repo.UpdateStatus(ctx, searchID, domain.SearchStatusCompleted, len(results), ""); err != nil {
		logger.Error().Err(err).Msg("Failed to mark search completed")
		o.metrics.RecordSearchFailed(time.Since(start).Seconds())
		return fmt.Errorf("mark search %s completed: %w", searchID, err)
	}

	o.metrics.RecordSearchCompleted(len(results), time.Since(start).Seconds())
	if err := o.publisher.PublishCompleted(ctx, record); err != nil {
		logger.Warn().Err(err).Msg("Failed to publish completion event")
	}

	logger.Info().
		Int("results", len(results)).
		Dur("duration", time.Since(start)).
		Msg("Search completed")
	return nil
}

// collect fans out to the requested sources and concatenates the normalized
// results in requested-source order.
func (o *Orchestrator) collect(ctx context.Context, logger zerolog.Logger, query string, req domain.SearchRequest) []domain.SearchResult {
	params := sources.SearchParams{
		Query:      query,
		MaxResults: req.MaxResults,
		DateFrom:   req.DateFrom,
		DateTo:     req.DateTo,
		Language:   req.Language,
	}

	for _, st := range req.Sources {
		o.metrics.RecordSourceSearchStarted(string(st))
	}

	sourceResults := o.registry.SearchSources(ctx, params, req.Sources)

	results := make([]domain.SearchResult, 0)
	for _, sr := range sourceResults {
		if sr.Err != nil {
			o.metrics.RecordSourceSearchFailed(string(sr.Source), sr.Duration.Seconds())
			if errors.Is(sr.Err, domain.ErrRateLimited) {
				o.metrics.RecordSourceRateLimited(string(sr.Source))
			}
			logger.Warn().Err(sr.Err).
				Str("source", string(sr.Source)).
				Msg("Source search failed")
			continue
		}

		o.metrics.RecordSourceSearchCompleted(string(sr.Source), len(sr.Records), sr.Duration.Seconds())
		results = append(results, normalize.Records(sr.Records, sr.Source)...)
	}

	return results
}

// fail moves the search to the failed state and emits the failure event.
func (o *Orchestrator) fail(ctx context.Context, logger zerolog.Logger, record *domain.SearchRecord, cause error, start time.Time) {
	logger.Error().Err(cause).Msg("Search failed")

	record.Status = domain.SearchStatusFailed
	record.Error = cause.Error()
	if err := o.repo.UpdateStatus(ctx, record.SearchID, domain.SearchStatusFailed, 0, cause.Error()); err != nil {
		logger.Error().Err(err).Msg("Failed to mark search failed")
	}

	o.metrics.RecordSearchFailed(time.Since(start).Seconds())
	if err := o.publisher.PublishFailed(ctx, record); err != nil {
		logger.Warn().Err(err).Msg("Failed to publish failure event")
	}
}
