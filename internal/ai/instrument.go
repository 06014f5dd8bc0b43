package ai

import (
	"context"
	"errors"
	"time"

	"google.golang.org/genai"

	"github.com/alejandrosalgar/scrapper-tesoreria/internal/observability"
)

// Operation labels for AI request metrics.
const (
	opGenerateText = "generate_text"
	opGenerateJSON = "generate_json"
)

var _ Generator = (*InstrumentedGenerator)(nil)

// InstrumentedGenerator wraps a Generator with request metrics.
type InstrumentedGenerator struct {
	gen     Generator
	model   string
	metrics *observability.Metrics
}

// NewInstrumentedGenerator wraps gen with per-call counters and latency
// histograms labeled by operation and model. A nil gen returns nil so
// disabled AI stays disabled.
func NewInstrumentedGenerator(gen Generator, model string, metrics *observability.Metrics) Generator {
	if gen == nil || metrics == nil {
		return gen
	}
	return &InstrumentedGenerator{gen: gen, model: model, metrics: metrics}
}

func (g *InstrumentedGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	text, err := g.gen.GenerateText(ctx, prompt)
	g.record(opGenerateText, start, err)
	return text, err
}

func (g *InstrumentedGenerator) GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	start := time.Now()
	text, err := g.gen.GenerateJSON(ctx, prompt, schema)
	g.record(opGenerateJSON, start, err)
	return text, err
}

func (g *InstrumentedGenerator) record(operation string, start time.Time, err error) {
	g.metrics.RecordAIRequest(operation, g.model, time.Since(start).Seconds())
	if err != nil {
		g.metrics.RecordAIRequestFailed(operation, g.model, classifyError(err))
	}
}

func classifyError(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "api_error"
	}
}
