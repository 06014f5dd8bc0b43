package httpserver

import (
	"time"

	"github.com/alejandrosalgar/scrapper-tesoreria/internal/domain"
)

// Response types for JSON serialization.

type startSearchResponse struct {
	SearchID  string    `json:"search_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	Message   string    `json:"message"`
}

type searchStatusResponse struct {
	SearchID      string    `json:"search_id"`
	OriginalQuery string    `json:"original_query"`
	EnhancedQuery string    `json:"enhanced_query,omitempty"`
	Sources       []string  `json:"sources"`
	MaxResults    int       `json:"max_results"`
	DateFrom      string    `json:"date_from,omitempty"`
	DateTo        string    `json:"date_to,omitempty"`
	Language      string    `json:"language"`
	Status        string    `json:"status"`
	ResultsCount  int       `json:"results_count"`
	Error         string    `json:"error,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type searchResultsResponse struct {
	SearchID     string                `json:"search_id"`
	Status       string                `json:"status"`
	ResultsCount int                   `json:"results_count"`
	Results      []domain.SearchResult `json:"results"`
}

type searchSummaryResponse struct {
	SearchID     string    `json:"search_id"`
	Query        string    `json:"query"`
	Sources      []string  `json:"sources"`
	Status       string    `json:"status"`
	ResultsCount int       `json:"results_count"`
	CreatedAt    time.Time `json:"created_at"`
}

type listSearchesResponse struct {
	Searches   []searchSummaryResponse `json:"searches"`
	TotalCount int                     `json:"total_count"`
}

type deleteSearchResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Converter functions

func recordToStatusResponse(r *domain.SearchRecord) searchStatusResponse {
	resp := searchStatusResponse{
		SearchID:      r.SearchID.String(),
		OriginalQuery: r.OriginalQuery,
		Sources:       sourceNames(r.Sources),
		MaxResults:    r.MaxResults,
		Language:      r.Language,
		Status:        string(r.Status),
		ResultsCount:  r.ResultsCount,
		Error:         r.Error,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if r.EnhancedQuery != r.OriginalQuery {
		resp.EnhancedQuery = r.EnhancedQuery
	}
	if r.DateFrom != nil {
		resp.DateFrom = r.DateFrom.Format("2006-01-02")
	}
	if r.DateTo != nil {
		resp.DateTo = r.DateTo.Format("2006-01-02")
	}
	return resp
}

func recordToSummary(r *domain.SearchRecord) searchSummaryResponse {
	return searchSummaryResponse{
		SearchID:     r.SearchID.String(),
		Query:        r.OriginalQuery,
		Sources:      sourceNames(r.Sources),
		Status:       string(r.Status),
		ResultsCount: r.ResultsCount,
		CreatedAt:    r.CreatedAt,
	}
}

func sourceNames(sources []domain.SourceType) []string {
	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = string(s)
	}
	return names
}
