package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrosalgar/scrapper-tesoreria/internal/domain"
	"github.com/alejandrosalgar/scrapper-tesoreria/internal/repository"
)

// mockSearchRepo implements repository.SearchRepository for handler tests.
type mockSearchRepo struct {
	saveMetadataFn func(ctx context.Context, record *domain.SearchRecord) error
	getFn          func(ctx context.Context, searchID uuid.UUID) (*domain.SearchRecord, error)
	getResultsFn   func(ctx context.Context, searchID uuid.UUID, limit, offset int) ([]domain.SearchResult, error)
	listFn         func(ctx context.Context, filter repository.SearchFilter) ([]*domain.SearchRecord, int64, error)
	deleteFn       func(ctx context.Context, searchID uuid.UUID) error
}

func (m *mockSearchRepo) SaveMetadata(ctx context.Context, record *domain.SearchRecord) error {
	if m.saveMetadataFn != nil {
		return m.saveMetadataFn(ctx, record)
	}
	return nil
}

func (m *mockSearchRepo) SaveResults(context.Context, uuid.UUID, []domain.SearchResult) error {
	return nil
}

func (m *mockSearchRepo) UpdateStatus(context.Context, uuid.UUID, domain.SearchStatus, int, string) error {
	return nil
}

func (m *mockSearchRepo) Get(ctx context.Context, searchID uuid.UUID) (*domain.SearchRecord, error) {
	if m.getFn != nil {
		return m.getFn(ctx, searchID)
	}
	return nil, domain.ErrNotFound
}

func (m *mockSearchRepo) GetResults(ctx context.Context, searchID uuid.UUID, limit, offset int) ([]domain.SearchResult, error) {
	if m.getResultsFn != nil {
		return m.getResultsFn(ctx, searchID, limit, offset)
	}
	return nil, nil
}

func (m *mockSearchRepo) List(ctx context.Context, filter repository.SearchFilter) ([]*domain.SearchRecord, int64, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return nil, 0, nil
}

func (m *mockSearchRepo) Delete(ctx context.Context, searchID uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, searchID)
	}
	return nil
}

// mockDispatcher records dispatched searches.
type mockDispatcher struct {
	dispatchFn func(searchID uuid.UUID, req domain.SearchRequest) error
	dispatched []domain.SearchRequest
}

func (m *mockDispatcher) Dispatch(searchID uuid.UUID, req domain.SearchRequest) error {
	m.dispatched = append(m.dispatched, req)
	if m.dispatchFn != nil {
		return m.dispatchFn(searchID, req)
	}
	return nil
}

func newTestServer(repo *mockSearchRepo, dispatcher *mockDispatcher) *Server {
	if repo == nil {
		repo = &mockSearchRepo{}
	}
	if dispatcher == nil {
		dispatcher = &mockDispatcher{}
	}
	return NewServer(Config{Address: "127.0.0.1:0"}, repo, dispatcher, nil, zerolog.Nop())
}

func doRequest(s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func completedRecord() *domain.SearchRecord {
	now := time.Now().UTC()
	return &domain.SearchRecord{
		SearchID:      uuid.New(),
		OriginalQuery: "supply chain finance",
		EnhancedQuery: "supply chain finance reverse factoring",
		Sources:       []domain.SourceType{domain.SourceTypeArXiv},
		MaxResults:    100,
		Language:      "en",
		Status:        domain.SearchStatusCompleted,
		ResultsCount:  2,
		CreatedAt:     now.Add(-time.Minute),
		UpdatedAt:     now,
	}
}

func TestStartSearch(t *testing.T) {
	t.Run("accepts valid request", func(t *testing.T) {
		var saved *domain.SearchRecord
		repo := &mockSearchRepo{
			saveMetadataFn: func(_ context.Context, record *domain.SearchRecord) error {
				saved = record
				return nil
			},
		}
		dispatcher := &mockDispatcher{}
		s := newTestServer(repo, dispatcher)

		rec := doRequest(s, http.MethodPost, "/api/v1/searches", map[string]interface{}{
			"query":   "corporate cash pooling",
			"sources": []string{"arxiv", "crossref"},
		})

		require.Equal(t, http.StatusAccepted, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "pending", body["status"])
		assert.NotEmpty(t, body["search_id"])

		require.NotNil(t, saved)
		assert.Equal(t, domain.SearchStatusPending, saved.Status)

		require.Len(t, dispatcher.dispatched, 1)
		req := dispatcher.dispatched[0]
		assert.Equal(t, "corporate cash pooling", req.Query)
		assert.Equal(t, []domain.SourceType{domain.SourceTypeArXiv, domain.SourceTypeCrossref}, req.Sources)
		assert.True(t, req.UseAIEnhancement, "enhancement defaults to on")
		assert.Equal(t, domain.DefaultMaxResults, req.MaxResults)
	})

	t.Run("caller can opt out of enhancement", func(t *testing.T) {
		dispatcher := &mockDispatcher{}
		s := newTestServer(nil, dispatcher)

		rec := doRequest(s, http.MethodPost, "/api/v1/searches", map[string]interface{}{
			"query":              "liquidity risk",
			"use_ai_enhancement": false,
		})

		require.Equal(t, http.StatusAccepted, rec.Code)
		require.Len(t, dispatcher.dispatched, 1)
		assert.False(t, dispatcher.dispatched[0].UseAIEnhancement)
	})

	t.Run("parses calendar date bounds", func(t *testing.T) {
		dispatcher := &mockDispatcher{}
		s := newTestServer(nil, dispatcher)

		rec := doRequest(s, http.MethodPost, "/api/v1/searches", map[string]interface{}{
			"query":     "working capital optimization",
			"date_from": "2020-01-01",
			"date_to":   "2024-12-31",
		})

		require.Equal(t, http.StatusAccepted, rec.Code)
		require.Len(t, dispatcher.dispatched, 1)
		req := dispatcher.dispatched[0]
		require.NotNil(t, req.DateFrom)
		require.NotNil(t, req.DateTo)
		assert.Equal(t, 2020, req.DateFrom.Year())
		assert.Equal(t, 2024, req.DateTo.Year())
	})

	t.Run("rejects invalid JSON", func(t *testing.T) {
		s := newTestServer(nil, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/searches", bytes.NewReader([]byte("{not json")))
		rec := httptest.NewRecorder()
		s.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects missing query", func(t *testing.T) {
		s := newTestServer(nil, nil)
		rec := doRequest(s, http.MethodPost, "/api/v1/searches", map[string]interface{}{})

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeBody(t, rec)["error"], "query is required")
	})

	t.Run("rejects unknown source", func(t *testing.T) {
		s := newTestServer(nil, nil)
		rec := doRequest(s, http.MethodPost, "/api/v1/searches", map[string]interface{}{
			"query":   "cash forecasting",
			"sources": []string{"pubmed"},
		})

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeBody(t, rec)["error"], "sources")
	})

	t.Run("rejects bad date format", func(t *testing.T) {
		s := newTestServer(nil, nil)
		rec := doRequest(s, http.MethodPost, "/api/v1/searches", map[string]interface{}{
			"query":     "cash forecasting",
			"date_from": "January 2020",
		})

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeBody(t, rec)["error"], "date_from")
	})

	t.Run("rejects inverted date range", func(t *testing.T) {
		s := newTestServer(nil, nil)
		rec := doRequest(s, http.MethodPost, "/api/v1/searches", map[string]interface{}{
			"query":     "cash forecasting",
			"date_from": "2024-01-01",
			"date_to":   "2020-01-01",
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("metadata save failure does not reject the search", func(t *testing.T) {
		repo := &mockSearchRepo{
			saveMetadataFn: func(context.Context, *domain.SearchRecord) error {
				return errors.New("db down")
			},
		}
		dispatcher := &mockDispatcher{}
		s := newTestServer(repo, dispatcher)

		rec := doRequest(s, http.MethodPost, "/api/v1/searches", map[string]interface{}{
			"query": "intercompany netting",
		})

		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.Len(t, dispatcher.dispatched, 1)
	})

	t.Run("dispatch failure returns 503", func(t *testing.T) {
		dispatcher := &mockDispatcher{
			dispatchFn: func(uuid.UUID, domain.SearchRequest) error {
				return errors.New("pool closed")
			},
		}
		s := newTestServer(nil, dispatcher)

		rec := doRequest(s, http.MethodPost, "/api/v1/searches", map[string]interface{}{
			"query": "intercompany netting",
		})

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestGetSearchStatus(t *testing.T) {
	t.Run("returns record", func(t *testing.T) {
		record := completedRecord()
		repo := &mockSearchRepo{
			getFn: func(_ context.Context, searchID uuid.UUID) (*domain.SearchRecord, error) {
				assert.Equal(t, record.SearchID, searchID)
				return record, nil
			},
		}
		s := newTestServer(repo, nil)

		rec := doRequest(s, http.MethodGet, "/api/v1/searches/"+record.SearchID.String()+"/status", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, record.SearchID.String(), body["search_id"])
		assert.Equal(t, "completed", body["status"])
		assert.Equal(t, "supply chain finance", body["original_query"])
		assert.Equal(t, "supply chain finance reverse factoring", body["enhanced_query"])
		assert.Equal(t, float64(2), body["results_count"])
	})

	t.Run("unknown search returns 404", func(t *testing.T) {
		s := newTestServer(nil, nil)
		rec := doRequest(s, http.MethodGet, "/api/v1/searches/"+uuid.NewString()+"/status", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed UUID returns 400", func(t *testing.T) {
		s := newTestServer(nil, nil)
		rec := doRequest(s, http.MethodGet, "/api/v1/searches/not-a-uuid/status", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetSearchResults(t *testing.T) {
	t.Run("returns ordered results", func(t *testing.T) {
		record := completedRecord()
		results := []domain.SearchResult{
			{ID: "a", Title: "High", Source: domain.SourceTypeArXiv, RelevanceScore: 0.9},
			{ID: "b", Title: "Low", Source: domain.SourceTypeArXiv, RelevanceScore: 0.2},
		}
		repo := &mockSearchRepo{
			getFn: func(context.Context, uuid.UUID) (*domain.SearchRecord, error) {
				return record, nil
			},
			getResultsFn: func(_ context.Context, _ uuid.UUID, limit, offset int) ([]domain.SearchResult, error) {
				assert.Equal(t, 50, limit)
				assert.Equal(t, 10, offset)
				return results, nil
			},
		}
		s := newTestServer(repo, nil)

		rec := doRequest(s, http.MethodGet,
			"/api/v1/searches/"+record.SearchID.String()+"/results?limit=50&offset=10", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp searchResultsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "completed", resp.Status)
		require.Len(t, resp.Results, 2)
		assert.Equal(t, "High", resp.Results[0].Title)
	})

	t.Run("invalid limit returns 400", func(t *testing.T) {
		s := newTestServer(nil, nil)
		rec := doRequest(s, http.MethodGet,
			"/api/v1/searches/"+uuid.NewString()+"/results?limit=-5", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown search returns 404", func(t *testing.T) {
		s := newTestServer(nil, nil)
		rec := doRequest(s, http.MethodGet,
			"/api/v1/searches/"+uuid.NewString()+"/results", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestListSearches(t *testing.T) {
	t.Run("returns summaries", func(t *testing.T) {
		record := completedRecord()
		repo := &mockSearchRepo{
			listFn: func(_ context.Context, filter repository.SearchFilter) ([]*domain.SearchRecord, int64, error) {
				assert.Equal(t, defaultListLimit, filter.Limit)
				return []*domain.SearchRecord{record}, 1, nil
			},
		}
		s := newTestServer(repo, nil)

		rec := doRequest(s, http.MethodGet, "/api/v1/searches", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp listSearchesResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 1, resp.TotalCount)
		require.Len(t, resp.Searches, 1)
		assert.Equal(t, record.SearchID.String(), resp.Searches[0].SearchID)
	})

	t.Run("passes status filter", func(t *testing.T) {
		repo := &mockSearchRepo{
			listFn: func(_ context.Context, filter repository.SearchFilter) ([]*domain.SearchRecord, int64, error) {
				assert.Equal(t, []domain.SearchStatus{domain.SearchStatusFailed}, filter.Status)
				return nil, 0, nil
			},
		}
		s := newTestServer(repo, nil)

		rec := doRequest(s, http.MethodGet, "/api/v1/searches?status=failed", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("repository failure degrades to empty list", func(t *testing.T) {
		repo := &mockSearchRepo{
			listFn: func(context.Context, repository.SearchFilter) ([]*domain.SearchRecord, int64, error) {
				return nil, 0, errors.New("db down")
			},
		}
		s := newTestServer(repo, nil)

		rec := doRequest(s, http.MethodGet, "/api/v1/searches", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp listSearchesResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Empty(t, resp.Searches)
		assert.Zero(t, resp.TotalCount)
	})

	t.Run("invalid status filter returns 400", func(t *testing.T) {
		repo := &mockSearchRepo{
			listFn: func(_ context.Context, filter repository.SearchFilter) ([]*domain.SearchRecord, int64, error) {
				if err := filter.Validate(); err != nil {
					return nil, 0, err
				}
				return nil, 0, nil
			},
		}
		s := newTestServer(repo, nil)

		rec := doRequest(s, http.MethodGet, "/api/v1/searches?status=bogus", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestDeleteSearch(t *testing.T) {
	t.Run("deletes search", func(t *testing.T) {
		var deleted uuid.UUID
		repo := &mockSearchRepo{
			deleteFn: func(_ context.Context, searchID uuid.UUID) error {
				deleted = searchID
				return nil
			},
		}
		s := newTestServer(repo, nil)
		searchID := uuid.New()

		rec := doRequest(s, http.MethodDelete, "/api/v1/searches/"+searchID.String(), nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, searchID, deleted)
		assert.Equal(t, true, decodeBody(t, rec)["success"])
	})

	t.Run("unknown search returns 404", func(t *testing.T) {
		repo := &mockSearchRepo{
			deleteFn: func(_ context.Context, searchID uuid.UUID) error {
				return domain.NewNotFoundError("search", searchID.String())
			},
		}
		s := newTestServer(repo, nil)

		rec := doRequest(s, http.MethodDelete, "/api/v1/searches/"+uuid.NewString(), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHealthEndpoints_NoDatabase(t *testing.T) {
	s := newTestServer(nil, nil)

	rec := doRequest(s, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(s, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := NewServer(Config{
		Address:        "127.0.0.1:0",
		MetricsEnabled: true,
		MetricsPath:    "/metrics",
	}, &mockSearchRepo{}, &mockDispatcher{}, nil, zerolog.Nop())

	rec := doRequest(s, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Body.String())
}
