package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/alejandrosalgar/scrapper-tesoreria/internal/ai"
	"github.com/alejandrosalgar/scrapper-tesoreria/internal/config"
	"github.com/alejandrosalgar/scrapper-tesoreria/internal/domain"
	"github.com/alejandrosalgar/scrapper-tesoreria/internal/normalize"
	"github.com/alejandrosalgar/scrapper-tesoreria/internal/observability"
	"github.com/alejandrosalgar/scrapper-tesoreria/internal/sources"
	"github.com/alejandrosalgar/scrapper-tesoreria/internal/sources/arxiv"
	"github.com/alejandrosalgar/scrapper-tesoreria/internal/sources/crossref"
	"github.com/alejandrosalgar/scrapper-tesoreria/internal/sources/researchgate"
	"github.com/alejandrosalgar/scrapper-tesoreria/internal/sources/scholar"
	"github.com/alejandrosalgar/scrapper-tesoreria/internal/sources/scopus"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run a one-off literature search and print the results",
	Long: `Search queries the configured sources concurrently, normalizes the
results, and optionally enhances the query and scores relevance through
Gemini when TESORERIA_GEMINI_API_KEY is set. Nothing is written to the database.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("query", "", "search query (required)")
	searchCmd.Flags().StringSlice("sources", nil, "sources to query (default: arxiv, crossref)")
	searchCmd.Flags().Int("max-results", 20, "maximum results per source")
	searchCmd.Flags().String("from", "", "publication date range start (YYYY-MM-DD)")
	searchCmd.Flags().String("to", "", "publication date range end (YYYY-MM-DD)")
	searchCmd.Flags().String("language", "", "ISO 639-1 language code")
	searchCmd.Flags().Bool("enhance", false, "rewrite the query through Gemini before searching")
	searchCmd.Flags().Bool("rank", false, "score result relevance through Gemini")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	searchCmd.Flags().Duration("timeout", 2*time.Minute, "overall search timeout")
	_ = searchCmd.MarkFlagRequired("query")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query, _ := cmd.Flags().GetString("query")
	sourceNames, _ := cmd.Flags().GetStringSlice("sources")
	maxResults, _ := cmd.Flags().GetInt("max-results")
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	language, _ := cmd.Flags().GetString("language")
	enhance, _ := cmd.Flags().GetBool("enhance")
	rank, _ := cmd.Flags().GetBool("rank")
	asJSON, _ := cmd.Flags().GetBool("json")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	req := domain.SearchRequest{
		Query:      strings.TrimSpace(query),
		MaxResults: maxResults,
		Language:   language,
	}
	for _, name := range sourceNames {
		st := domain.SourceType(strings.TrimSpace(name))
		if !domain.IsValidSourceType(st) {
			return fmt.Errorf("unknown source %q", name)
		}
		req.Sources = append(req.Sources, st)
	}
	if from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return fmt.Errorf("invalid -from date %q: %w", from, err)
		}
		req.DateFrom = &t
	}
	if to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return fmt.Errorf("invalid -to date %q: %w", to, err)
		}
		req.DateTo = &t
	}
	req.ApplyDefaults()
	if err := req.Validate(); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(observability.LoggingConfig{
		Level:  "warn",
		Format: "console",
		Output: "stderr",
	})

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	var gen ai.Generator
	if cfg.Gemini.APIKey != "" && (enhance || rank) {
		client, err := ai.NewGeminiClient(ctx, ai.GeminiConfig{
			APIKey: cfg.Gemini.APIKey,
			Model:  cfg.Gemini.Model,
		})
		if err != nil {
			return fmt.Errorf("create gemini client: %w", err)
		}
		gen = client
	}

	effectiveQuery := req.Query
	if enhance {
		if gen == nil {
			fmt.Fprintln(os.Stderr, "warning: -enhance requires TESORERIA_GEMINI_API_KEY, searching with the original query")
		} else {
			effectiveQuery = ai.NewQueryEnhancer(gen, logger).Enhance(ctx, req.Query)
			if effectiveQuery != req.Query {
				fmt.Fprintf(os.Stderr, "enhanced query: %s\n", effectiveQuery)
			}
		}
	}

	registry := buildRegistry(cfg)
	params := sources.SearchParams{
		Query:      effectiveQuery,
		MaxResults: req.MaxResults,
		DateFrom:   req.DateFrom,
		DateTo:     req.DateTo,
		Language:   req.Language,
	}

	sourceResults := registry.SearchSources(ctx, params, req.Sources)

	var results []domain.SearchResult
	for _, sr := range sourceResults {
		if sr.Err != nil {
			fmt.Fprintf(os.Stderr, "warning: %s failed: %v\n", sr.Source, sr.Err)
			continue
		}
		results = append(results, normalize.Records(sr.Records, sr.Source)...)
	}

	if rank && gen != nil {
		results = ai.NewRelevanceAnalyzer(gen, logger).Analyze(ctx, results)
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].RelevanceScore > results[j].RelevanceScore
		})
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	printResults(results)
	return nil
}

func printResults(results []domain.SearchResult) {
	if len(results) == 0 {
		fmt.Println("no results")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tSOURCE\tDATE\tTITLE")
	for _, r := range results {
		title := r.Title
		if len(title) > 80 {
			title = title[:77] + "..."
		}
		fmt.Fprintf(w, "%.2f\t%s\t%s\t%s\n", r.RelevanceScore, r.Source, r.Date, title)
	}
	w.Flush()
	fmt.Printf("\n%d results\n", len(results))
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
