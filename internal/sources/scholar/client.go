// Package scholar implements the sources.Source interface for Google
// Scholar. Scholar has no public API, so results are scraped from the
// search result pages with structural selectors. The adapter is
// best-effort by design: selector misses yield empty fields and layout
// changes degrade to empty result sets.
package scholar

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/alejandrosalgar/scrapper-tesoreria/internal/domain"
	"github.com/alejandrosalgar/scrapper-tesoreria/internal/sources"
)

const (
	// DefaultBaseURL is the Google Scholar search endpoint.
	DefaultBaseURL = "https://scholar.google.com"

	// DefaultMaxResults bounds a scrape when the caller requests no count.
	DefaultMaxResults = 20

	// DefaultRateLimit is one page fetch per second. The token bucket is
	// the fixed inter-page politeness delay for this source.
	DefaultRateLimit = 1.0

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// pageSize is the number of results Scholar renders per page.
	pageSize = 10

	// sourceName is the human-readable name for this source.
	sourceName = "Google Scholar"
)

// Config holds configuration for the Google Scholar adapter.
type Config struct {
	// BaseURL is the Scholar base URL.
	BaseURL string

	// Timeout is the request timeout.
	Timeout time.Duration

	// RateLimit is the maximum page fetches per second.
	RateLimit float64

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
}

// Client implements the sources.Source interface for Google Scholar.
type Client struct {
	config     Config
	httpClient *sources.HTTPClient
}

var _ sources.Source = (*Client)(nil)

// New creates a new Google Scholar adapter with the given configuration.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	return &Client{
		config: cfg,
		httpClient: sources.NewHTTPClient(sources.HTTPClientConfig{
			Timeout:   cfg.Timeout,
			RateLimit: cfg.RateLimit,
			BurstSize: 1,
			UserAgent: sources.BrowserUserAgent,
		}),
	}
}

// NewWithHTTPClient creates an adapter with a custom HTTP client for tests.
func NewWithHTTPClient(cfg Config, httpClient *sources.HTTPClient) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// Search scrapes Scholar result pages until the requested count is reached
// or a page comes back empty.
func (c *Client) Search(ctx context.Context, params sources.SearchParams) ([]sources.Record, error) {
	limit := params.MaxResults
	if limit <= 0 {
		limit = DefaultMaxResults
	}

	var records []sources.Record
	for start := 0; len(records) < limit; start += pageSize {
		doc, err := sources.FetchDocument(ctx, c.httpClient, sourceName, c.pageURL(params, start))
		if err != nil {
			if len(records) > 0 {
				break
			}
			return nil, err
		}

		page := c.parsePage(doc, limit-len(records))
		if len(page) == 0 {
			break
		}
		records = append(records, page...)
	}

	return sources.FilterByYear(records, params.DateFrom, params.DateTo), nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeGoogleScholar
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled returns whether this source is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// pageURL builds the search URL for one result page.
func (c *Client) pageURL(params sources.SearchParams, start int) string {
	query := url.Values{}
	query.Set("q", params.Query+" treasury OR cash management OR liquidity")
	if params.Language != "" {
		query.Set("hl", params.Language)
	}
	if start > 0 {
		query.Set("start", strconv.Itoa(start))
	}
	return strings.TrimRight(c.config.BaseURL, "/") + "/scholar?" + query.Encode()
}

// parsePage extracts up to limit records from one result page.
func (c *Client) parsePage(doc *goquery.Document, limit int) []sources.Record {
	var records []sources.Record

	doc.Find("div.gs_r div.gs_ri").EachWithBreak(func(i int, item *goquery.Selection) bool {
		if len(records) >= limit {
			return false
		}

		titleLink := item.Find("h3.gs_rt a").First()
		title := strings.TrimSpace(titleLink.Text())
		href, _ := titleLink.Attr("href")

		// The byline reads "A Author, B Author - Journal, 2021 - publisher".
		byline := strings.TrimSpace(item.Find("div.gs_a").Text())
		authors, venue := splitByline(byline)

		records = append(records, sources.Record{
			Title:    title,
			Authors:  authors,
			Abstract: sources.Truncate(strings.TrimSpace(item.Find("div.gs_rs").Text()), sources.ScrapedAbstractLimit),
			URL:      href,
			Date:     sources.ExtractYear(byline),
			Journal:  venue,
		})
		return true
	})

	return records
}

// splitByline separates the author list from the venue in a Scholar byline.
func splitByline(byline string) ([]string, string) {
	parts := strings.Split(byline, " - ")
	if len(parts) == 0 || parts[0] == "" {
		return nil, ""
	}

	var authors []string
	for _, name := range strings.Split(parts[0], ",") {
		if name = strings.TrimSpace(name); name != "" {
			authors = append(authors, name)
		}
		if len(authors) >= sources.ScrapedAuthorLimit {
			break
		}
	}

	venue := ""
	if len(parts) > 1 {
		// Strip the trailing ", 2021" year fragment from the venue.
		venue = strings.TrimSpace(parts[1])
		if year := sources.ExtractYear(venue); year != "" {
			venue = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(strings.TrimSuffix(venue, year)), ","))
		}
	}
	return authors, venue
}
