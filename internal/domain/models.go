// Package domain provides domain models and business logic for the treasury research service.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// SearchStatus represents the lifecycle states of a search.
// These values must match the database enum search_status.
type SearchStatus string

const (
	SearchStatusPending    SearchStatus = "pending"
	SearchStatusProcessing SearchStatus = "processing"
	SearchStatusCompleted  SearchStatus = "completed"
	SearchStatusFailed     SearchStatus = "failed"
)

// IsTerminal returns true if the status represents a final state that will not change.
func (s SearchStatus) IsTerminal() bool {
	return s == SearchStatusCompleted || s == SearchStatusFailed
}

// SourceType identifies an external literature source searched by a dedicated adapter.
// These values must match the database enum source_type.
type SourceType string

const (
	SourceTypeArXiv         SourceType = "arxiv"
	SourceTypeGoogleScholar SourceType = "google_scholar"
	SourceTypeCrossref      SourceType = "crossref"
	SourceTypeResearchGate  SourceType = "researchgate"
	SourceTypeScopus        SourceType = "scopus"
)

// AllSourceTypes returns every known source type in a stable order.
func AllSourceTypes() []SourceType {
	return []SourceType{
		SourceTypeArXiv,
		SourceTypeGoogleScholar,
		SourceTypeCrossref,
		SourceTypeResearchGate,
		SourceTypeScopus,
	}
}

// IsValidSourceType reports whether st names a known source.
func IsValidSourceType(st SourceType) bool {
	switch st {
	case SourceTypeArXiv, SourceTypeGoogleScholar, SourceTypeCrossref,
		SourceTypeResearchGate, SourceTypeScopus:
		return true
	default:
		return false
	}
}

// Search request bounds.
const (
	MinMaxResults     = 1
	MaxMaxResults     = 1000
	DefaultMaxResults = 100
	DefaultLanguage   = "en"
)

// SearchRequest describes one search as submitted by the caller.
// A request is immutable once dispatched to the pipeline.
type SearchRequest struct {
	// Query is the raw user query.
	Query string

	// Sources lists the sources to search. Unknown sources contribute an
	// empty result set rather than an error.
	Sources []SourceType

	// MaxResults bounds the number of results requested per source.
	// Individual sources clamp this further to their own API ceilings.
	MaxResults int

	// DateFrom and DateTo bound the publication date range. Nil means unbounded.
	DateFrom *time.Time
	DateTo   *time.Time

	// Language is an ISO 639-1 language code.
	Language string

	// UseAIEnhancement enables AI query rewriting before dispatch.
	UseAIEnhancement bool
}

// ApplyDefaults fills in zero-valued optional fields.
func (r *SearchRequest) ApplyDefaults() {
	if r.MaxResults == 0 {
		r.MaxResults = DefaultMaxResults
	}
	if r.Language == "" {
		r.Language = DefaultLanguage
	}
	if len(r.Sources) == 0 {
		r.Sources = []SourceType{SourceTypeArXiv, SourceTypeCrossref}
	}
}

// Validate checks the request against the documented bounds.
func (r *SearchRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return NewValidationError("query", "query is required")
	}
	if r.MaxResults < MinMaxResults || r.MaxResults > MaxMaxResults {
		return NewValidationError("max_results", "must be between 1 and 1000")
	}
	if r.DateFrom != nil && r.DateTo != nil && r.DateTo.Before(*r.DateFrom) {
		return NewValidationError("date_to", "must not be before date_from")
	}
	return nil
}

// AIAnalysis is the structured payload attached to a result by relevance
// enrichment. On a per-item scoring failure only Error is populated.
type AIAnalysis struct {
	TreasuryTopics      []string `json:"treasury_topics,omitempty"`
	KeyInsights         string   `json:"key_insights,omitempty"`
	GeographicRelevance string   `json:"geographic_relevance,omitempty"`
	Error               string   `json:"error,omitempty"`
}

// SearchResult is the canonical, source-agnostic record produced by
// normalization. It is created by the normalizer, mutated in place by the
// relevance enricher, and never mutated after being handed to persistence.
type SearchResult struct {
	// ID is unique within one search's result set. It is the source's
	// natural key (arXiv identifier, DOI) when available, otherwise a
	// synthesized "<source>_<ordinal>" value.
	ID string `json:"id"`

	Title  string     `json:"title"`
	Source SourceType `json:"source"`

	// Authors is the ordered author names joined as a display string.
	Authors string `json:"authors"`

	Abstract string `json:"abstract"`
	URL      string `json:"url"`

	// Date is the publication date as an ISO calendar date (YYYY-MM-DD),
	// a bare year for scraped sources that expose nothing finer, or empty
	// when the source supplied no date.
	Date string `json:"date,omitempty"`

	DOI     string `json:"doi,omitempty"`
	Journal string `json:"journal,omitempty"`

	// Extras carries known optional source-specific fields (venue,
	// citation counts and the like) keyed by field name.
	Extras map[string]string `json:"extras,omitempty"`

	// RelevanceScore is in [0, 1]. Always set (default 0.0) once
	// enrichment has run, even on a per-item scoring failure.
	RelevanceScore float64 `json:"relevance_score"`

	// Analysis is the AI analysis payload, nil until enrichment runs.
	Analysis *AIAnalysis `json:"ai_analysis,omitempty"`
}

// Year returns the publication year parsed from Date, or 0 when absent
// or unparseable.
func (r *SearchResult) Year() int {
	return yearOf(r.Date)
}

// yearOf extracts a four-digit year from an ISO date or bare-year string.
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

// SearchRecord is the status record for one search. It is owned by the
// orchestrator and is the only entity the persistence layer updates in place.
type SearchRecord struct {
	SearchID      uuid.UUID
	OriginalQuery string
	EnhancedQuery string
	Sources       []SourceType
	MaxResults    int
	DateFrom      *time.Time
	DateTo        *time.Time
	Language      string
	Status        SearchStatus
	ResultsCount  int
	Error         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewSearchRecord builds the initial pending status record for a request.
func NewSearchRecord(searchID uuid.UUID, req SearchRequest) *SearchRecord {
	now := time.Now().UTC()
	return &SearchRecord{
		SearchID:      searchID,
		OriginalQuery: req.Query,
		EnhancedQuery: req.Query,
		Sources:       req.Sources,
		MaxResults:    req.MaxResults,
		DateFrom:      req.DateFrom,
		DateTo:        req.DateTo,
		Language:      req.Language,
		Status:        SearchStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
