package arxiv

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

const twoEntryFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <totalResults>2</totalResults>
  <entry>
    <id>http://arxiv.org/abs/2301.12345v1</id>
    <title>Optimal Cash
      Pooling Structures</title>
    <summary>We model notional and physical cash pooling.</summary>
    <published>2023-01-15T18:30:00Z</published>
    <author><name>Alice Grant</name></author>
    <author><name>Bob Marsh</name></author>
    <journal_ref>J. Corp. Treasury 12 (2023)</journal_ref>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2105.00001v2</id>
    <title>Liquidity Buffers Under Stress</title>
    <summary>Buffer sizing for treasury desks.</summary>
    <published>2021-05-01T00:00:00Z</published>
    <author><name>Carol Yen</name></author>
  </entry>
</feed>`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := New(Config{
		BaseURL:   srv.URL,
		Timeout:   5 * time.Second,
		RateLimit: 100,
		BurstSize: 10,
		Enabled:   true,
	})
	return client, srv
}

func TestSearch_ParsesAtomFeed(t *testing.T) {
	var gotQuery string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("search_query")
		assert.Equal(t, "/query", r.URL.Path)
		w.Header().Set("Content-Type", "application/atom+xml")
		w.Write([]byte(twoEntryFeed))
	})

	records, err := client.Search(context.Background(), sources.SearchParams{
		Query:      "cash pooling",
		MaxResults: 10,
	})
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Contains(t, gotQuery, "cash pooling")
	assert.Contains(t, gotQuery, "cat:q-fin")

	first := records[0]
	assert.Equal(t, "2301.12345v1", first.NaturalID)
	assert.Contains(t, first.Title, "Optimal Cash")
	assert.Equal(t, []string{"Alice Grant", "Bob Marsh"}, first.Authors)
	assert.Equal(t, "http://arxiv.org/abs/2301.12345v1", first.URL)
	assert.Equal(t, "2023-01-15", first.Date)
	assert.Equal(t, "J. Corp. Treasury 12 (2023)", first.Extras["journal_ref"])

	second := records[1]
	assert.Equal(t, "2105.00001v2", second.NaturalID)
	assert.Equal(t, "2021-05-01", second.Date)
	assert.Nil(t, second.Extras)
}

func TestSearch_ClampsMaxResults(t *testing.T) {
	var gotMax string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMax = r.URL.Query().Get("max_results")
		w.Write([]byte(twoEntryFeed))
	})

	_, err := client.Search(context.Background(), sources.SearchParams{
		Query:      "treasury",
		MaxResults: 5000,
	})
	require.NoError(t, err)
	assert.Equal(t, "100", gotMax)
}

func TestSearch_FiltersByYear(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(twoEntryFeed))
	})

	from := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	records, err := client.Search(context.Background(), sources.SearchParams{
		Query:    "treasury",
		DateFrom: &from,
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "2301.12345v1", records[0].NaturalID)
}

func TestSearch_NonOKStatus(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	})

	_, err := client.Search(context.Background(), sources.SearchParams{Query: "treasury"})
	require.Error(t, err)

	var apiErr *domain.ExternalAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
}

func TestSearch_MalformedXML(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<feed><entry>"))
	})

	_, err := client.Search(context.Background(), sources.SearchParams{Query: "treasury"})
	assert.Error(t, err)
}

func TestSearch_SkipsEmptyEntries(t *testing.T) {
	feed := `<?xml version="1.0"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry><id></id><title>  </title></entry>
  <entry><id>http://arxiv.org/abs/2301.99999v1</id><title>Kept</title></entry>
</feed>`
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(feed))
	})

	records, err := client.Search(context.Background(), sources.SearchParams{Query: "treasury"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "2301.99999v1", records[0].NaturalID)
}

func TestConfigDefaults(t *testing.T) {
	client := New(Config{Enabled: true})

	assert.Equal(t, DefaultBaseURL, client.config.BaseURL)
	assert.Equal(t, DefaultTimeout, client.config.Timeout)
	assert.Equal(t, DefaultRateLimit, client.config.RateLimit)
	assert.True(t, client.IsEnabled())
	assert.Equal(t, domain.SourceTypeArXiv, client.SourceType())
	assert.Equal(t, "arXiv", client.Name())
}
