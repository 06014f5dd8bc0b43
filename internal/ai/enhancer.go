package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// QueryEnhancer rewrites user queries into richer treasury-focused search
// terms. It never fails a search: any problem with the backend falls back
// to the original query.
type QueryEnhancer struct {
	gen    Generator
	logger zerolog.Logger
}

// NewQueryEnhancer creates a query enhancer. A nil Generator disables
// enhancement; Enhance then returns the query unchanged.
func NewQueryEnhancer(gen Generator, logger zerolog.Logger) *QueryEnhancer {
	return &QueryEnhancer{
		gen:    gen,
		logger: logger.With().Str("component", "query_enhancer").Logger(),
	}
}

// Enabled reports whether a generative backend is configured.
func (e *QueryEnhancer) Enabled() bool {
	return e.gen != nil
}

// Enhance expands the query with related treasury terminology. The original
// query is returned when the backend is unconfigured, when the call fails,
// or when the response is degenerate (shorter than half the original).
func (e *QueryEnhancer) Enhance(ctx context.Context, query string) string {
	if e.gen == nil {
		return query
	}

	prompt := fmt.Sprintf(`Enhance this search query to find relevant treasury and financial management content:

Original query: "%s"

Provide an enhanced search query that:
1. Includes relevant treasury terminology
2. Covers international perspectives
3. Captures related concepts (cash management, liquidity, risk, etc.)
4. Remains focused and specific

Return only the enhanced query text, nothing else.`, query)

	enhanced, err := e.gen.GenerateText(ctx, prompt)
	if err != nil {
		e.logger.Warn().Err(err).Str("query", query).Msg("query enhancement failed, using original")
		return query
	}

	enhanced = strings.TrimSpace(strings.Trim(strings.TrimSpace(enhanced), `"`))
	if 2*len(enhanced) < len(query) {
		e.logger.Warn().Str("query", query).Str("enhanced", enhanced).Msg("enhanced query too short, using original")
		return query
	}

	e.logger.Debug().Str("query", query).Str("enhanced", enhanced).Msg("query enhanced")
	return enhanced
}
