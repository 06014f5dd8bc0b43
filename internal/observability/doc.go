// Package observability provides logging and metrics support for the
// treasury research service.
//
// # Overview
//
// The observability package provides:
//
//   - Structured logging with zerolog
//   - Prometheus metrics for searches, sources, and AI operations
//   - Context helpers for propagating observability data
//
// # Logging
//
// Create a logger from configuration:
//
//	cfg := observability.LoggingConfig{
//	    Level:     "info",
//	    Format:    "json",
//	    Output:    "stdout",
//	    AddSource: true,
//	}
//
//	logger := observability.NewLogger(cfg)
//	logger.Info().Str("search_id", searchID).Msg("search started")
//
// Add search context to logger:
//
//	logger = observability.WithSearchContext(logger, searchID, query)
//
// # Metrics
//
// Initialize metrics:
//
//	metrics := observability.NewMetrics("treasury_research")
//
// Record metrics:
//
//	metrics.RecordSearchStarted()
//	metrics.RecordSourceSearchCompleted("arxiv", 42, 1.2)
//
// # Context Helpers
//
// Store and retrieve request context:
//
//	ctx = observability.WithRequestID(ctx, requestID)
//	reqID := observability.RequestIDFromContext(ctx)
//
// # Standard Fields
//
// Common fields used across the service:
//
//   - request_id: HTTP request identifier
//   - search_id: Search identifier
//   - query: User's research query
//   - source: Literature source (arxiv, crossref, etc.)
//   - result_id: Search result identifier
//
// # Thread Safety
//
// All components are safe for concurrent use from multiple goroutines.
package observability
