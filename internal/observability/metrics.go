package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the treasury research service.
// Metrics are organized by subsystem: searches, sources, results, and AI
// operations. All counters and histograms are registered via promauto for
// automatic registration with the default Prometheus registry.
type Metrics struct {
	// SearchesStarted counts the total number of searches initiated.
	SearchesStarted prometheus.Counter

	// SearchesCompleted counts the total number of searches that finished successfully.
	SearchesCompleted prometheus.Counter

	// SearchesFailed counts the total number of searches that ended in failure.
	SearchesFailed prometheus.Counter

	// SearchDuration observes the end-to-end duration of searches in seconds.
	SearchDuration prometheus.Histogram

	// ResultsPerSearch observes the distribution of result counts per search.
	ResultsPerSearch prometheus.Histogram

	// SourceSearchesStarted counts per-source searches initiated, labeled by source.
	SourceSearchesStarted *prometheus.CounterVec

	// SourceSearchesCompleted counts successful per-source searches, labeled by source.
	SourceSearchesCompleted *prometheus.CounterVec

	// SourceSearchesFailed counts failed per-source searches, labeled by source.
	SourceSearchesFailed *prometheus.CounterVec

	// SourceSearchDuration observes per-source search duration in seconds, labeled by source.
	SourceSearchDuration *prometheus.HistogramVec

	// RecordsPerSource observes the distribution of records returned per source search.
	RecordsPerSource *prometheus.HistogramVec

	// SourceRateLimited counts rate-limited responses from sources, labeled by source.
	SourceRateLimited *prometheus.CounterVec

	// ResultsSaved counts the total number of results written to storage.
	ResultsSaved prometheus.Counter

	// AIRequestsTotal counts AI requests, labeled by operation and model.
	AIRequestsTotal *prometheus.CounterVec

	// AIRequestsFailed counts failed AI requests, labeled by operation, model, and error type.
	AIRequestsFailed *prometheus.CounterVec

	// AIRequestDuration observes AI request duration in seconds, labeled by operation and model.
	AIRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		SearchesStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_started_total",
			Help:      "Total number of searches started",
		}),
		SearchesCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_completed_total",
			Help:      "Total number of searches completed successfully",
		}),
		SearchesFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_failed_total",
			Help:      "Total number of searches that failed",
		}),
		SearchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "End-to-end duration of searches in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		ResultsPerSearch: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "results_per_search",
			Help:      "Number of results produced per search",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 200, 500},
		}),

		SourceSearchesStarted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_searches_started_total",
			Help:      "Total number of per-source searches started",
		}, []string{"source"}),
		SourceSearchesCompleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_searches_completed_total",
			Help:      "Total number of per-source searches completed",
		}, []string{"source"}),
		SourceSearchesFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_searches_failed_total",
			Help:      "Total number of per-source searches that failed",
		}, []string{"source"}),
		SourceSearchDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_search_duration_seconds",
			Help:      "Duration of per-source searches in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"source"}),
		RecordsPerSource: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "records_per_source",
			Help:      "Number of records returned per source search",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 200},
		}, []string{"source"}),
		SourceRateLimited: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_rate_limited_total",
			Help:      "Total number of rate limit responses from sources",
		}, []string{"source"}),

		ResultsSaved: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "results_saved_total",
			Help:      "Total number of results written to storage",
		}),

		AIRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_requests_total",
			Help:      "Total number of AI requests by operation",
		}, []string{"operation", "model"}),
		AIRequestsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_requests_failed_total",
			Help:      "Total number of failed AI requests by operation",
		}, []string{"operation", "model", "error_type"}),
		AIRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ai_request_duration_seconds",
			Help:      "Duration of AI requests in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"operation", "model"}),
	}
}

// RecordSearchStarted records that a search has started.
func (m *Metrics) RecordSearchStarted() {
	m.SearchesStarted.Inc()
}

// RecordSearchCompleted records that a search has completed.
func (m *Metrics) RecordSearchCompleted(resultCount int, durationSeconds float64) {
	m.SearchesCompleted.Inc()
	m.SearchDuration.Observe(durationSeconds)
	m.ResultsPerSearch.Observe(float64(resultCount))
}

// RecordSearchFailed records that a search has failed.
func (m *Metrics) RecordSearchFailed(durationSeconds float64) {
	m.SearchesFailed.Inc()
	m.SearchDuration.Observe(durationSeconds)
}

// RecordSourceSearchStarted records that a per-source search has started.
func (m *Metrics) RecordSourceSearchStarted(source string) {
	m.SourceSearchesStarted.WithLabelValues(source).Inc()
}

// RecordSourceSearchCompleted records that a per-source search has completed.
func (m *Metrics) RecordSourceSearchCompleted(source string, recordCount int, durationSeconds float64) {
	m.SourceSearchesCompleted.WithLabelValues(source).Inc()
	m.SourceSearchDuration.WithLabelValues(source).Observe(durationSeconds)
	m.RecordsPerSource.WithLabelValues(source).Observe(float64(recordCount))
}

// RecordSourceSearchFailed records that a per-source search has failed.
func (m *Metrics) RecordSourceSearchFailed(source string, durationSeconds float64) {
	m.SourceSearchesFailed.WithLabelValues(source).Inc()
	m.SourceSearchDuration.WithLabelValues(source).Observe(durationSeconds)
}

// RecordSourceRateLimited records a rate limit response from a source.
func (m *Metrics) RecordSourceRateLimited(source string) {
	m.SourceRateLimited.WithLabelValues(source).Inc()
}

// RecordResultsSaved records results written to storage.
func (m *Metrics) RecordResultsSaved(count int) {
	m.ResultsSaved.Add(float64(count))
}

// RecordAIRequest records an AI request.
func (m *Metrics) RecordAIRequest(operation, model string, durationSeconds float64) {
	m.AIRequestsTotal.WithLabelValues(operation, model).Inc()
	m.AIRequestDuration.WithLabelValues(operation, model).Observe(durationSeconds)
}

// RecordAIRequestFailed records a failed AI request.
func (m *Metrics) RecordAIRequestFailed(operation, model, errorType string) {
	m.AIRequestsFailed.WithLabelValues(operation, model, errorType).Inc()
}
