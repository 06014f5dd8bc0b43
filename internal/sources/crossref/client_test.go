package crossref

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrosalgar/scrapper-tesoreria/internal/domain"
	"github.com/alejandrosalgar/scrapper-tesoreria/internal/sources"
)

const worksBody = `{
  "status": "ok",
  "message": {
    "total-results": 2,
    "items": [
      {
        "DOI": "10.1016/j.jcorpfin.2023.01.001",
        "type": "journal-article",
        "title": ["Cash Concentration", "in Multinational Groups"],
        "container-title": ["Journal of Corporate Finance"],
        "author": [
          {"given": "Dana", "family": "Osei"},
          {"given": "", "family": "Lindqvist"}
        ],
        "abstract": "",
        "URL": "http://dx.doi.org/10.1016/j.jcorpfin.2023.01.001",
        "published-print": {"date-parts": [[2023, 3, 15]]}
      },
      {
        "DOI": "",
        "type": "journal-article",
        "title": ["Untracked Work"],
        "container-title": [],
        "author": [],
        "URL": "https://example.org/untracked",
        "published-print": {"date-parts": [[2020]]}
      }
    ]
  }
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(Config{
		BaseURL:   srv.URL,
		Email:     "ops@example.com",
		Timeout:   5 * time.Second,
		RateLimit: 100,
		BurstSize: 10,
		Enabled:   true,
	})
}

func TestSearch_ParsesWorksResponse(t *testing.T) {
	var gotFilter, gotAgent string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/works", r.URL.Path)
		gotFilter = r.URL.Query().Get("filter")
		gotAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(worksBody))
	})

	records, err := client.Search(context.Background(), sources.SearchParams{
		Query:      "cash concentration",
		MaxResults: 10,
	})
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "type:journal-article", gotFilter)
	assert.Contains(t, gotAgent, "ops@example.com")

	first := records[0]
	assert.Equal(t, "10.1016/j.jcorpfin.2023.01.001", first.NaturalID)
	assert.Equal(t, "Cash Concentration in Multinational Groups", first.Title)
	assert.Equal(t, []string{"Dana Osei", "Lindqvist"}, first.Authors)
	assert.Equal(t, "https://doi.org/10.1016/j.jcorpfin.2023.01.001", first.URL)
	assert.Equal(t, "2023-03-15", first.Date)
	assert.Equal(t, "Journal of Corporate Finance", first.Journal)
	assert.Equal(t, "journal-article", first.Extras["type"])

	second := records[1]
	assert.Empty(t, second.NaturalID)
	assert.Equal(t, "https://example.org/untracked", second.URL)
	// A year-only date-parts entry is incomplete and yields no date.
	assert.Empty(t, second.Date)
}

func TestSearch_DateBoundsInFilter(t *testing.T) {
	var gotFilter string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotFilter = r.URL.Query().Get("filter")
		w.Write([]byte(`{"status":"ok","message":{"items":[]}}`))
	})

	from := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)

	_, err := client.Search(context.Background(), sources.SearchParams{
		Query:    "treasury",
		DateFrom: &from,
		DateTo:   &to,
	})
	require.NoError(t, err)

	assert.Contains(t, gotFilter, "from-pub-date:2020-01-01")
	assert.Contains(t, gotFilter, "until-pub-date:2023-12-31")
}

func TestSearch_ClampsRows(t *testing.T) {
	var gotRows string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotRows = r.URL.Query().Get("rows")
		w.Write([]byte(`{"status":"ok","message":{"items":[]}}`))
	})

	_, err := client.Search(context.Background(), sources.SearchParams{
		Query:      "treasury",
		MaxResults: 100000,
	})
	require.NoError(t, err)
	assert.Equal(t, "100", gotRows)
}

func TestSearch_NonOKStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	})

	_, err := client.Search(context.Background(), sources.SearchParams{Query: "treasury"})
	require.Error(t, err)

	var apiErr *domain.ExternalAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
}

func TestSearch_MalformedJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":`))
	})

	_, err := client.Search(context.Background(), sources.SearchParams{Query: "treasury"})
	assert.Error(t, err)
}

func TestConfigDefaults(t *testing.T) {
	client := New(Config{Enabled: true})

	assert.Equal(t, DefaultBaseURL, client.config.BaseURL)
	assert.Equal(t, DefaultRateLimit, client.config.RateLimit)
	assert.Equal(t, DefaultBurstSize, client.config.BurstSize)
	assert.Equal(t, domain.SourceTypeCrossref, client.SourceType())
	assert.Equal(t, "Crossref", client.Name())
}
