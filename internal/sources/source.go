// Package sources provides interfaces and types for literature source adapters.
//
// This package defines the foundational abstractions that all source
// implementations must follow. Each external index (arXiv, Crossref, Google
// Scholar, ResearchGate, Scopus) implements the Source interface, allowing
// the treasury research pipeline to search multiple sources concurrently
// with a unified API.
//
// Example usage:
//
//	source := arxiv.New(cfg)
//	params := sources.SearchParams{
//		Query:      "corporate liquidity management",
//		MaxResults: 100,
//	}
//	records, err := source.Search(ctx, params)
package sources

import (
	"context"
	"time"

	"github.com/alejandrosalgar/scrapper-tesoreria/internal/domain"
)

// SearchParams defines the parameters for searching a literature source.
type SearchParams struct {
	// Query is the user's search query (required). Each adapter injects its
	// own treasury domain terms before dispatch.
	Query string

	// MaxResults limits the number of records returned. Sources clamp this
	// to their own API ceilings; callers must not assume the requested
	// count is honored exactly. A value of 0 uses the source's default.
	MaxResults int

	// DateFrom filters records published on or after this date.
	// If nil, no lower bound is applied.
	DateFrom *time.Time

	// DateTo filters records published on or before this date.
	// If nil, no upper bound is applied.
	DateTo *time.Time

	// Language is an ISO 639-1 language code. Sources that cannot filter
	// by language ignore it.
	Language string
}

// Record is a provisional, source-specific record as fetched and parsed by
// an adapter. It is unvalidated and never exposed outside the ingestion
// path; the normalizer maps it into the canonical domain.SearchResult.
type Record struct {
	// NaturalID is the source's own unique key (arXiv identifier, DOI),
	// empty when the source supplies none.
	NaturalID string

	Title    string
	Authors  []string
	Abstract string
	URL      string

	// Date is YYYY-MM-DD, or a bare year for scraped sources, or empty.
	Date string

	DOI     string
	Journal string

	// Extras carries additional source-specific fields by name.
	Extras map[string]string
}

// Source defines the interface that all literature source adapters implement.
type Source interface {
	// Search queries the source for records matching the given parameters.
	// Adapters apply their API ceilings and the post-parse publication-year
	// filter before returning. A structural failure of an individual item
	// skips that item; a transport or page-level failure returns an error,
	// which the caller absorbs into an empty result set.
	//
	// Implementations should:
	//   - Respect context cancellation
	//   - Apply rate limiting as needed
	//   - Never return more than min(params.MaxResults, source ceiling) records
	Search(ctx context.Context, params SearchParams) ([]Record, error)

	// SourceType returns the type identifier for this source.
	SourceType() domain.SourceType

	// Name returns a human-readable name for logging and metrics.
	Name() string

	// IsEnabled returns whether this source is enabled for searches.
	IsEnabled() bool
}

// ClampMaxResults resolves the effective result bound for a source with a
// hard API ceiling: min(requested, ceiling), with ceiling as the default
// when no count was requested.
func ClampMaxResults(requested, ceiling int) int {
	if requested <= 0 || requested > ceiling {
		return ceiling
	}
	return requested
}

// FilterByYear drops records whose publication year falls outside
// [from.Year, to.Year]. Records without a parseable year pass through
// untouched, as do all records when both bounds are nil.
func FilterByYear(records []Record, from, to *time.Time) []Record {
	if from == nil && to == nil {
		return records
	}

	filtered := records[:0]
	for _, rec := range records {
		year := yearOf(rec.Date)
		if year == 0 {
			filtered = append(filtered, rec)
			continue
		}
		if from != nil && year < from.Year() {
			continue
		}
		if to != nil && year > to.Year() {
			continue
		}
		filtered = append(filtered, rec)
	}
	return filtered
}

// yearOf extracts a four-digit year prefix from a date string.
func yearOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	year := 0
	for _, c := range date[:4] {
		if c < '0' || c > '9' {
			return 0
		}
		year = year*10 + int(c-'0')
	}
	return year
}
