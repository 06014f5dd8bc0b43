package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Note: prometheus/promauto registers metrics globally, so we need to use
// unique namespaces per test to avoid registration conflicts.

func TestNewMetrics(t *testing.T) {
	m := NewMetrics("test_treasury_research_new")

	assert.NotNil(t, m.SearchesStarted)
	assert.NotNil(t, m.SearchesCompleted)
	assert.NotNil(t, m.SearchesFailed)
	assert.NotNil(t, m.SearchDuration)
	assert.NotNil(t, m.ResultsPerSearch)
	assert.NotNil(t, m.SourceSearchesStarted)
	assert.NotNil(t, m.SourceSearchesCompleted)
	assert.NotNil(t, m.SourceSearchesFailed)
	assert.NotNil(t, m.SourceRateLimited)
	assert.NotNil(t, m.ResultsSaved)
	assert.NotNil(t, m.AIRequestsTotal)
	assert.NotNil(t, m.AIRequestsFailed)
	assert.NotNil(t, m.AIRequestDuration)
}

func TestRecordSearchStarted(t *testing.T) {
	m := NewMetrics("test_search_started")

	initial := testutil.ToFloat64(m.SearchesStarted)
	m.RecordSearchStarted()
	assert.Equal(t, initial+1, testutil.ToFloat64(m.SearchesStarted))
}

func TestRecordSearchCompleted(t *testing.T) {
	m := NewMetrics("test_search_completed")

	initial := testutil.ToFloat64(m.SearchesCompleted)
	m.RecordSearchCompleted(42, 5.5)
	assert.Equal(t, initial+1, testutil.ToFloat64(m.SearchesCompleted))

	histCount, err := getHistogramSampleCount(m.SearchDuration)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), histCount)
}

func TestRecordSearchFailed(t *testing.T) {
	m := NewMetrics("test_search_failed")

	initial := testutil.ToFloat64(m.SearchesFailed)
	m.RecordSearchFailed(3.0)
	assert.Equal(t, initial+1, testutil.ToFloat64(m.SearchesFailed))
}

func TestRecordSourceSearchStarted(t *testing.T) {
	m := NewMetrics("test_source_search_started")

	m.RecordSourceSearchStarted("arxiv")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SourceSearchesStarted.WithLabelValues("arxiv")))
}

func TestRecordSourceSearchCompleted(t *testing.T) {
	m := NewMetrics("test_source_search_completed")

	m.RecordSourceSearchCompleted("crossref", 42, 2.5)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SourceSearchesCompleted.WithLabelValues("crossref")))
}

func TestRecordSourceSearchFailed(t *testing.T) {
	m := NewMetrics("test_source_search_failed")

	m.RecordSourceSearchFailed("scopus", 1.0)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SourceSearchesFailed.WithLabelValues("scopus")))
}

func TestRecordSourceRateLimited(t *testing.T) {
	m := NewMetrics("test_source_rate_limited")

	m.RecordSourceRateLimited("google_scholar")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SourceRateLimited.WithLabelValues("google_scholar")))
}

func TestRecordResultsSaved(t *testing.T) {
	m := NewMetrics("test_results_saved")

	initial := testutil.ToFloat64(m.ResultsSaved)
	m.RecordResultsSaved(25)
	assert.Equal(t, initial+25, testutil.ToFloat64(m.ResultsSaved))
}

func TestRecordAIRequest(t *testing.T) {
	m := NewMetrics("test_ai_request")

	m.RecordAIRequest("relevance_analysis", "gemini-2.0-flash", 2.5)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.AIRequestsTotal.WithLabelValues("relevance_analysis", "gemini-2.0-flash")))
}

func TestRecordAIRequestFailed(t *testing.T) {
	m := NewMetrics("test_ai_request_failed")

	m.RecordAIRequestFailed("query_enhancement", "gemini-2.0-flash", "rate_limit")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.AIRequestsFailed.WithLabelValues("query_enhancement", "gemini-2.0-flash", "rate_limit")))
}

// Helper to get histogram sample count
func getHistogramSampleCount(h prometheus.Histogram) (uint64, error) {
	ch := make(chan prometheus.Metric, 1)
	h.Collect(ch)
	close(ch)

	var m prometheus.Metric
	for m = range ch {
		break
	}

	var dto = &dto.Metric{}
	if err := m.Write(dto); err != nil {
		return 0, err
	}

	return dto.Histogram.GetSampleCount(), nil
}
