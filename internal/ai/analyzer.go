package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/alejandrosalgar/scrapper-tesoreria/internal/domain"
)

// abstractExcerptLimit bounds how much of an abstract is sent for scoring.
const abstractExcerptLimit = 1000

// analysisResponse mirrors the JSON schema the model is constrained to.
type analysisResponse struct {
	RelevanceScore      float64  `json:"relevance_score"`
	TreasuryTopics      []string `json:"treasury_topics"`
	KeyInsights         string   `json:"key_insights"`
	GeographicRelevance string   `json:"geographic_relevance"`
}

func analysisSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"relevance_score": {
				Type:        genai.TypeNumber,
				Description: "Treasury relevance between 0.0 and 1.0",
			},
			"treasury_topics": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
			"key_insights": {
				Type: genai.TypeString,
			},
			// Optional: many papers have no regional focus.
			"geographic_relevance": {
				Type: genai.TypeString,
			},
		},
		Required: []string{"relevance_score", "treasury_topics", "key_insights"},
	}
}

// RelevanceAnalyzer scores search results for treasury relevance and sorts
// them by descending score. Scoring failures are isolated per result: a
// failed item keeps score 0.0 and carries the error in its analysis.
type RelevanceAnalyzer struct {
	gen      Generator
	throttle *rate.Limiter
	logger   zerolog.Logger
}

// NewRelevanceAnalyzer creates an analyzer. A nil Generator disables
// scoring; Analyze then returns the results untouched and unsorted.
func NewRelevanceAnalyzer(gen Generator, logger zerolog.Logger) *RelevanceAnalyzer {
	return &RelevanceAnalyzer{
		gen:      gen,
		throttle: rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
		logger:   logger.With().Str("component", "relevance_analyzer").Logger(),
	}
}

// Enabled reports whether a generative backend is configured.
func (a *RelevanceAnalyzer) Enabled() bool {
	return a.gen != nil
}

// Analyze scores every result in place, then stably sorts the slice by
// descending relevance score. Results that fail to score keep score 0.0
// and an analysis carrying the error; ties preserve their prior order.
func (a *RelevanceAnalyzer) Analyze(ctx context.Context, results []domain.SearchResult) []domain.SearchResult {
	if a.gen == nil || len(results) == 0 {
		return results
	}

	for i := range results {
		if err := a.throttle.Wait(ctx); err != nil {
			results[i].RelevanceScore = 0
			results[i].Analysis = &domain.AIAnalysis{Error: err.Error()}
			continue
		}
		a.analyzeOne(ctx, &results[i])
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RelevanceScore > results[j].RelevanceScore
	})
	return results
}

func (a *RelevanceAnalyzer) analyzeOne(ctx context.Context, result *domain.SearchResult) {
	excerpt := result.Abstract
	if runes := []rune(excerpt); len(runes) > abstractExcerptLimit {
		excerpt = string(runes[:abstractExcerptLimit])
	}

	prompt := fmt.Sprintf(`Analyze this research content for treasury management relevance:

Title: %s
Content: %s

Rate the relevance to treasury management, cash management, liquidity, or
corporate finance on a scale from 0.0 (unrelated) to 1.0 (highly relevant),
list the treasury topics it covers, summarize the key insights, and note
any geographic or regional focus.`, result.Title, excerpt)

	raw, err := a.gen.GenerateJSON(ctx, prompt, analysisSchema())
	if err != nil {
		a.logger.Warn().Err(err).Str("result_id", result.ID).Msg("relevance analysis failed")
		result.RelevanceScore = 0
		result.Analysis = &domain.AIAnalysis{Error: err.Error()}
		return
	}

	var parsed analysisResponse
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		wrapped := domain.EnrichmentError{ResultID: result.ID, Cause: err}
		a.logger.Warn().Err(&wrapped).Str("result_id", result.ID).Msg("relevance analysis returned malformed JSON")
		result.RelevanceScore = 0
		result.Analysis = &domain.AIAnalysis{Error: wrapped.Error()}
		return
	}

	result.RelevanceScore = clampScore(parsed.RelevanceScore)
	result.Analysis = &domain.AIAnalysis{
		TreasuryTopics:      parsed.TreasuryTopics,
		KeyInsights:         parsed.KeyInsights,
		GeographicRelevance: parsed.GeographicRelevance,
	}
}

func clampScore(score float64) float64 {
	switch {
	case score < 0:
		return 0
	case score > 1:
		return 1
	default:
		return score
	}
}
