// Package crossref implements the sources.Source interface for the
// Crossref DOI registry, searched through its public works API.
package crossref

import (
	"context"
	"encoding/json"
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
	// DefaultBaseURL is the default Crossref API base URL.
	DefaultBaseURL = "https://api.crossref.org"

	// MaxResultsCeiling is the Crossref API hard row limit per request.
	MaxResultsCeiling = 100

	// DefaultRateLimit is the default rate limit for the polite pool.
	DefaultRateLimit = 3.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 3

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// sourceName is the human-readable name for this source.
	sourceName = "Crossref"
)

// Config holds configuration for the Crossref client.
type Config struct {
	// BaseURL is the Crossref API base URL.
	BaseURL string

	// Email is the contact address embedded in the User-Agent header.
	// Crossref etiquette asks identified clients to supply one.
	Email string

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
	if c.Email == "" {
		c.Email = "research@example.com"
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

// Client implements the sources.Source interface for Crossref.
type Client struct {
	config     Config
	httpClient *sources.HTTPClient
}

var _ sources.Source = (*Client)(nil)

// New creates a new Crossref client with the given configuration.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	return &Client{
		config: cfg,
		httpClient: sources.NewHTTPClient(sources.HTTPClientConfig{
			Timeout:   cfg.Timeout,
			RateLimit: cfg.RateLimit,
			BurstSize: cfg.BurstSize,
			UserAgent: "TreasuryResearchBot/1.0 (mailto:" + cfg.Email + ")",
		}),
	}
}

// NewWithHTTPClient creates a new Crossref client with a custom HTTP client.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *sources.HTTPClient) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// Search queries Crossref for treasury-related journal articles.
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

	// Limit body to 10MB to prevent resource exhaustion.
	var works worksResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&works); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	limit := sources.ClampMaxResults(params.MaxResults, MaxResultsCeiling)
	records := make([]sources.Record, 0, len(works.Message.Items))
	for i := range works.Message.Items {
		if len(records) >= limit {
			break
		}
		records = append(records, itemToRecord(&works.Message.Items[i]))
	}

	return sources.FilterByYear(records, params.DateFrom, params.DateTo), nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeCrossref
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled returns whether this source is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// buildSearchURL constructs the Crossref works URL with injected treasury
// terms, a journal-article type filter and optional publication date bounds.
func (c *Client) buildSearchURL(params sources.SearchParams) (string, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}
	baseURL.Path = strings.TrimRight(baseURL.Path, "/") + "/works"

	filter := "type:journal-article"
	if params.DateFrom != nil {
		filter += ",from-pub-date:" + params.DateFrom.Format("2006-01-02")
	}
	if params.DateTo != nil {
		filter += ",until-pub-date:" + params.DateTo.Format("2006-01-02")
	}

	query := url.Values{}
	query.Set("query", params.Query+" (treasury OR cash OR liquidity OR financial management)")
	query.Set("rows", strconv.Itoa(sources.ClampMaxResults(params.MaxResults, MaxResultsCeiling)))
	query.Set("sort", "relevance")
	query.Set("filter", filter)

	baseURL.RawQuery = query.Encode()
	return baseURL.String(), nil
}

// itemToRecord converts a Crossref work to a provisional record. Title
// arrays are joined; author entries become "given family" strings; the
// abstract is left empty when Crossref has none so the normalizer can
// synthesize its venue fallback.
func itemToRecord(item *Item) sources.Record {
	authors := make([]string, 0, len(item.Author))
	for _, a := range item.Author {
		name := strings.TrimSpace(strings.TrimSpace(a.Given) + " " + strings.TrimSpace(a.Family))
		if name != "" {
			authors = append(authors, name)
		}
	}

	doi := item.DOI
	recordURL := item.URL
	if doi != "" {
		recordURL = "https://doi.org/" + doi
	}

	return sources.Record{
		NaturalID: doi,
		Title:     strings.Join(item.Title, " "),
		Authors:   authors,
		Abstract:  item.Abstract,
		URL:       recordURL,
		Date:      publishedDate(item.PublishedPrint),
		DOI:       doi,
		Journal:   strings.Join(item.ContainerTitle, ", "),
		Extras:    map[string]string{"type": item.Type},
	}
}

// publishedDate renders the first date-parts triple as YYYY-MM-DD.
// Incomplete dates yield an empty string.
func publishedDate(d *dateField) string {
	if d == nil || len(d.DateParts) == 0 || len(d.DateParts[0]) < 3 {
		return ""
	}
	parts := d.DateParts[0]
	return fmt.Sprintf("%d-%02d-%02d", parts[0], parts[1], parts[2])
}
