package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrosalgar/scrapper-tesoreria/internal/observability"
)

func TestNewInstrumentedGenerator_NilGenerator(t *testing.T) {
	metrics := observability.NewMetrics("test_ai_instrument_nil")
	assert.Nil(t, NewInstrumentedGenerator(nil, DefaultModel, metrics))
}

func TestInstrumentedGenerator_RecordsRequests(t *testing.T) {
	metrics := observability.NewMetrics("test_ai_instrument_ok")
	fake := &fakeGenerator{textResponse: "enhanced query"}

	gen := NewInstrumentedGenerator(fake, DefaultModel, metrics)
	text, err := gen.GenerateText(context.Background(), "prompt")

	require.NoError(t, err)
	assert.Equal(t, "enhanced query", text)
	assert.Equal(t, float64(1), testutil.ToFloat64(
		metrics.AIRequestsTotal.WithLabelValues("generate_text", DefaultModel)))
}

func TestInstrumentedGenerator_RecordsFailures(t *testing.T) {
	metrics := observability.NewMetrics("test_ai_instrument_fail")
	fake := &fakeGenerator{jsonErrs: []error{errors.New("model overloaded")}}

	gen := NewInstrumentedGenerator(fake, DefaultModel, metrics)
	_, err := gen.GenerateJSON(context.Background(), "prompt", analysisSchema())

	require.Error(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(
		metrics.AIRequestsTotal.WithLabelValues("generate_json", DefaultModel)))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		metrics.AIRequestsFailed.WithLabelValues("generate_json", DefaultModel, "api_error")))
}

func TestInstrumentedGenerator_ObservesDurationInSeconds(t *testing.T) {
	metrics := observability.NewMetrics("test_ai_instrument_duration")
	fake := &fakeGenerator{textResponse: "ok"}

	gen := NewInstrumentedGenerator(fake, DefaultModel, metrics)
	_, err := gen.GenerateText(context.Background(), "prompt")
	require.NoError(t, err)

	h, ok := metrics.AIRequestDuration.WithLabelValues("generate_text", DefaultModel).(prometheus.Metric)
	require.True(t, ok)

	var m dto.Metric
	require.NoError(t, h.Write(&m))
	assert.Equal(t, uint64(1), m.Histogram.GetSampleCount())
	// An in-process fake call takes microseconds; a sum anywhere near 1
	// means the observation was not converted to seconds.
	assert.Less(t, m.Histogram.GetSampleSum(), 1.0)
}

func TestClassifyError(t *testing.T) {
	assert.Equal(t, "timeout", classifyError(context.DeadlineExceeded))
	assert.Equal(t, "canceled", classifyError(context.Canceled))
	assert.Equal(t, "api_error", classifyError(errors.New("boom")))
}
