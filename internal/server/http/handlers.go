package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/alejandrosalgar/scrapper-tesoreria/internal/domain"
	"github.com/alejandrosalgar/scrapper-tesoreria/internal/repository"
)

// Request body and pagination bounds.
const (
	maxRequestBodySize = 1 << 20 // 1 MB
	defaultListLimit   = 20
	maxListLimit       = 100
)

// startSearchRequest is the JSON request body for starting a search.
type startSearchRequest struct {
	Query            string   `json:"query" validate:"required,min=3,max=1000"`
	Sources          []string `json:"sources,omitempty" validate:"omitempty,max=5,dive,oneof=arxiv google_scholar crossref researchgate scopus"`
	MaxResults       int      `json:"max_results,omitempty" validate:"omitempty,min=1,max=1000"`
	DateFrom         *string  `json:"date_from,omitempty"`
	DateTo           *string  `json:"date_to,omitempty"`
	Language         string   `json:"language,omitempty" validate:"omitempty,len=2"`
	UseAIEnhancement *bool    `json:"use_ai_enhancement,omitempty"`
}

// startSearch handles POST /api/v1/searches. The search is accepted,
// persisted as pending and handed to the worker pool; the response returns
// before any source is contacted.
func (s *Server) startSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	var req startSearchRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}

	req.Query = strings.TrimSpace(req.Query)
	if err := s.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	searchReq := domain.SearchRequest{
		Query:      req.Query,
		MaxResults: req.MaxResults,
		Language:   req.Language,
		// Enhancement is on unless the caller opts out.
		UseAIEnhancement: req.UseAIEnhancement == nil || *req.UseAIEnhancement,
	}

	if len(req.Sources) > 0 {
		searchReq.Sources = make([]domain.SourceType, len(req.Sources))
		for i, src := range req.Sources {
			searchReq.Sources[i] = domain.SourceType(src)
		}
	}

	if req.DateFrom != nil {
		t, ok := parseAPIDate(w, *req.DateFrom, "date_from")
		if !ok {
			return
		}
		searchReq.DateFrom = &t
	}
	if req.DateTo != nil {
		t, ok := parseAPIDate(w, *req.DateTo, "date_to")
		if !ok {
			return
		}
		searchReq.DateTo = &t
	}

	searchReq.ApplyDefaults()
	if err := searchReq.Validate(); err != nil {
		writeDomainError(w, err)
		return
	}

	searchID := uuid.New()
	record := domain.NewSearchRecord(searchID, searchReq)

	// Best-effort: the pipeline re-saves metadata when it starts, so a
	// failed pending write must not reject the search.
	if err := s.searchRepo.SaveMetadata(ctx, record); err != nil {
		s.logger.Warn().Err(err).
			Str("search_id", searchID.String()).
			Msg("Failed to save pending search")
	}

	if err := s.dispatcher.Dispatch(searchID, searchReq); err != nil {
		s.logger.Error().Err(err).
			Str("search_id", searchID.String()).
			Msg("Failed to dispatch search")
		writeError(w, http.StatusServiceUnavailable, "search could not be scheduled")
		return
	}

	writeJSON(w, http.StatusAccepted, startSearchResponse{
		SearchID:  searchID.String(),
		Status:    string(domain.SearchStatusPending),
		CreatedAt: record.CreatedAt,
		Message:   "search accepted",
	})
}

// getSearchStatus handles GET /api/v1/searches/{searchID}/status.
func (s *Server) getSearchStatus(w http.ResponseWriter, r *http.Request) {
	searchID, ok := parseUUID(w, chi.URLParam(r, "searchID"), "search_id")
	if !ok {
		return
	}

	record, err := s.searchRepo.Get(r.Context(), searchID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, recordToStatusResponse(record))
}

// getSearchResults handles GET /api/v1/searches/{searchID}/results.
// Results are returned in descending relevance order.
func (s *Server) getSearchResults(w http.ResponseWriter, r *http.Request) {
	searchID, ok := parseUUID(w, chi.URLParam(r, "searchID"), "search_id")
	if !ok {
		return
	}

	limit, offset, ok := parseLimitOffset(w, r)
	if !ok {
		return
	}

	record, err := s.searchRepo.Get(r.Context(), searchID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	results, err := s.searchRepo.GetResults(r.Context(), searchID, limit, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResultsResponse{
		SearchID:     searchID.String(),
		Status:       string(record.Status),
		ResultsCount: record.ResultsCount,
		Results:      results,
	})
}

// listSearches handles GET /api/v1/searches. It lists recent searches,
// newest first. Listing failures degrade to an empty list rather than an
// error: the endpoint feeds dashboards where stale emptiness beats a 500.
func (s *Server) listSearches(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := parseLimitOffset(w, r)
	if !ok {
		return
	}

	filter := repository.SearchFilter{Limit: limit, Offset: offset}
	if statusParam := r.URL.Query().Get("status"); statusParam != "" {
		filter.Status = []domain.SearchStatus{domain.SearchStatus(statusParam)}
	}

	records, totalCount, err := s.searchRepo.List(r.Context(), filter)
	if err != nil {
		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) {
			writeError(w, http.StatusBadRequest, validationErr.Error())
			return
		}
		s.logger.Warn().Err(err).Msg("Failed to list searches")
		records = nil
		totalCount = 0
	}

	summaries := make([]searchSummaryResponse, len(records))
	for i, record := range records {
		summaries[i] = recordToSummary(record)
	}

	writeJSON(w, http.StatusOK, listSearchesResponse{
		Searches:   summaries,
		TotalCount: int(totalCount),
	})
}

// deleteSearch handles DELETE /api/v1/searches/{searchID}. The search and
// all its stored results are removed.
func (s *Server) deleteSearch(w http.ResponseWriter, r *http.Request) {
	searchID, ok := parseUUID(w, chi.URLParam(r, "searchID"), "search_id")
	if !ok {
		return
	}

	if err := s.searchRepo.Delete(r.Context(), searchID); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, deleteSearchResponse{
		Success: true,
		Message: "search deleted",
	})
}

// writeDomainError maps domain errors to HTTP status codes. Internal error
// details are not leaked to clients.
func writeDomainError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "resource not found")
	case errors.Is(err, domain.ErrInvalidInput):
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusBadRequest, ve.Error())
		} else {
			writeError(w, http.StatusBadRequest, "invalid input")
		}
	case errors.Is(err, domain.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "rate limited")
	case errors.Is(err, domain.ErrServiceUnavailable):
		writeError(w, http.StatusServiceUnavailable, "service unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// validationMessage renders the first struct validation failure as a
// client-facing message.
func validationMessage(err error) string {
	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return "invalid request"
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			return fmt.Sprintf("%s is required", field)
		case "min":
			return fmt.Sprintf("%s must be at least %s", field, fe.Param())
		case "max":
			return fmt.Sprintf("%s must be at most %s", field, fe.Param())
		case "oneof":
			return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
		case "len":
			return fmt.Sprintf("%s must be %s characters", field, fe.Param())
		default:
			return fmt.Sprintf("%s is invalid", field)
		}
	}
	return "invalid request"
}

// parseUUID parses a UUID path parameter, writing a 400 response if
// invalid. The parse error is not echoed back.
func parseUUID(w http.ResponseWriter, s, fieldName string) (uuid.UUID, bool) {
	id, err := uuid.Parse(s)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%s must be a valid UUID", fieldName))
		return uuid.Nil, false
	}
	return id, true
}

// parseAPIDate accepts a calendar date (YYYY-MM-DD) or an RFC3339
// timestamp.
func parseAPIDate(w http.ResponseWriter, value, fieldName string) (time.Time, bool) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, true
	}
	writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s format: expected YYYY-MM-DD or RFC3339", fieldName))
	return time.Time{}, false
}

// parseLimitOffset extracts limit and offset query parameters with bounds
// applied.
func parseLimitOffset(w http.ResponseWriter, r *http.Request) (limit, offset int, ok bool) {
	limit = defaultListLimit

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return 0, 0, false
		}
		limit = parsed
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		parsed, err := strconv.Atoi(offsetStr)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "offset must be a non-negative integer")
			return 0, 0, false
		}
		offset = parsed
	}

	return limit, offset, true
}
