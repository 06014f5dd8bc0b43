// Package ai provides the Gemini-backed query enhancement and relevance
// scoring used by the search pipeline. Both features are optional: without
// an API key the enhancer passes queries through unchanged and the
// analyzer returns results unscored.
package ai

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used for enhancement and scoring.
const DefaultModel = "gemini-2.0-flash"

// systemInstruction frames every Gemini call around treasury research.
const systemInstruction = `You are an expert in treasury management, corporate finance, and financial operations.
Your role is to:
1. Enhance search queries to find relevant treasury-related content worldwide
2. Analyze research papers and articles for treasury relevance
3. Identify key treasury topics: cash management, liquidity, risk management,
   treasury operations, financial planning, corporate treasury, etc.

Always consider international perspectives and global treasury practices.`

// Generator abstracts the generative backend so the enhancer and analyzer
// can be exercised with test doubles.
type Generator interface {
	// GenerateText performs a free-form text completion.
	GenerateText(ctx context.Context, prompt string) (string, error)

	// GenerateJSON performs a completion constrained to the given response
	// schema and returns the raw JSON string.
	GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema) (string, error)
}

// GeminiConfig holds configuration for the Gemini client.
type GeminiConfig struct {
	// APIKey is the Gemini API key. Empty means the AI features are
	// unconfigured and disabled.
	APIKey string

	// Model is the model identifier. Defaults to DefaultModel.
	Model string
}

// GeminiClient implements Generator on top of the Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
}

var _ Generator = (*GeminiClient)(nil)

// NewGeminiClient creates a Gemini-backed generator. It returns an error
// when no API key is configured; callers treat that as "AI disabled" and
// construct the enhancer and analyzer with a nil Generator.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key not configured")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &GeminiClient{client: client, model: cfg.Model}, nil
}

// Model returns the configured model identifier.
func (c *GeminiClient) Model() string {
	return c.model
}

// GenerateText performs a free-form completion under the treasury system
// instruction.
func (c *GeminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
	})
	if err != nil {
		return "", fmt.Errorf("gemini text generation: %w", err)
	}
	return resp.Text(), nil
}

// GenerateJSON performs a schema-constrained completion and returns the
// raw JSON response text.
func (c *GeminiClient) GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    schema,
	})
	if err != nil {
		return "", fmt.Errorf("gemini structured generation: %w", err)
	}
	return resp.Text(), nil
}
