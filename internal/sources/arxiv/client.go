// Package arxiv implements the sources.Source interface for the arXiv
// preprint archive, searched through its Atom XML query API.
package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrosalgar/scrapper-tesoreria/internal/domain"
	"github.com/alejandrosalgar/scrapper-tesoreria/internal/sources"
)

const (
	// DefaultBaseURL is the default arXiv API base URL.
	DefaultBaseURL = "http://export.arxiv.org/api"

	// MaxResultsCeiling is the arXiv API hard result limit per request.
	MaxResultsCeiling = 100

	// DefaultRateLimit is the default rate limit (3 requests per second).
	DefaultRateLimit = 3.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 3

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// sourceName is the human-readable name for this source.
	sourceName = "arXiv"
)

// Config holds configuration for the arXiv client.
type Config struct {
	// BaseURL is the arXiv API base URL.
	BaseURL string

	// Timeout is the request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// Enabled indicates whether this source is enabled for searches.
	Enabled bool
}

// applyDefaults sets default values for unset configuration fields.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.BurstSize == 0 {
		c.BurstSize = DefaultBurstSize
	}
}

// Client implements the sources.Source interface for arXiv.
type Client struct {
	config     Config
	httpClient *sources.HTTPClient
}

var _ sources.Source = (*Client)(nil)

// New creates a new arXiv client with the given configuration.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	return &Client{
		config: cfg,
		httpClient: sources.NewHTTPClient(sources.HTTPClientConfig{
			Timeout:   cfg.Timeout,
			RateLimit: cfg.RateLimit,
			BurstSize: cfg.BurstSize,
		}),
	}
}

// NewWithHTTPClient creates a new arXiv client with a custom HTTP client.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *sources.HTTPClient) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// Search queries arXiv for treasury-related papers matching the parameters.
func (c *Client) Search(ctx context.Context, params sources.SearchParams) ([]sources.Record, error) {
	searchURL, err := c.buildSearchURL(params)
	if err != nil {
		return nil, fmt.Errorf("building search URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewExternalAPIError(sourceName, resp.StatusCode, string(body), nil)
	}

	// Parse the Atom XML response (limit body to 10MB).
	var feed Feed
	if err := xml.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&feed); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	limit := sources.ClampMaxResults(params.MaxResults, MaxResultsCeiling)
	records := make([]sources.Record, 0, len(feed.Entries))
	for i := range feed.Entries {
		if len(records) >= limit {
			break
		}
		rec, ok := entryToRecord(&feed.Entries[i])
		if !ok {
			continue
		}
		records = append(records, rec)
	}

	return sources.FilterByYear(records, params.DateFrom, params.DateTo), nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeArXiv
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled returns whether this source is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// buildSearchURL constructs the arXiv query API URL. The user query gets
// treasury OR-terms and a finance/economics category filter injected.
func (c *Client) buildSearchURL(params sources.SearchParams) (string, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}
	baseURL.Path = strings.TrimRight(baseURL.Path, "/") + "/query"

	searchQuery := fmt.Sprintf("all:(%s OR treasury OR cash OR liquidity) AND (cat:q-fin.* OR cat:econ.*)", params.Query)

	query := url.Values{}
	query.Set("search_query", searchQuery)
	query.Set("start", "0")
	query.Set("max_results", strconv.Itoa(sources.ClampMaxResults(params.MaxResults, MaxResultsCeiling)))
	query.Set("sortBy", "submittedDate")
	query.Set("sortOrder", "descending")

	baseURL.RawQuery = query.Encode()
	return baseURL.String(), nil
}

// entryToRecord converts an Atom entry to a provisional record. Entries
// without an identifier URL or title are skipped.
func entryToRecord(entry *Entry) (sources.Record, bool) {
	entryURL := strings.TrimSpace(entry.ID)
	title := strings.TrimSpace(entry.Title)
	if entryURL == "" && title == "" {
		return sources.Record{}, false
	}

	authors := make([]string, 0, len(entry.Authors))
	for _, a := range entry.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			authors = append(authors, name)
		}
	}

	// The published timestamp is RFC3339; the first 10 characters are the
	// calendar date.
	date := ""
	if len(entry.Published) >= 10 {
		date = entry.Published[:10]
	}

	rec := sources.Record{
		NaturalID: idFromEntryURL(entryURL),
		Title:     entry.Title,
		Authors:   authors,
		Abstract:  entry.Summary,
		URL:       entryURL,
		Date:      date,
		DOI:       strings.TrimSpace(entry.DOI),
	}
	if ref := strings.TrimSpace(entry.JournalRef); ref != "" {
		rec.Extras = map[string]string{"journal_ref": ref}
	}
	return rec, true
}

// idFromEntryURL extracts the arXiv identifier, the final path segment of
// the entry URL: "http://arxiv.org/abs/2301.12345v1" -> "2301.12345v1".
func idFromEntryURL(entryURL string) string {
	if entryURL == "" {
		return ""
	}
	if idx := strings.LastIndex(entryURL, "/"); idx >= 0 {
		return entryURL[idx+1:]
	}
	return entryURL
}
