// Package scopus implements the sources.Source interface for Scopus.
// The official Scopus API needs a subscription, so this adapter scrapes
// the web search results as a best-effort fallback. Selector misses yield
// empty fields; page-level failures (including the authentication wall
// Scopus sometimes raises for anonymous clients) yield an empty result set.
package scopus

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/alejandrosalgar/scrapper-tesoreria/internal/domain"
	"github.com/alejandrosalgar/scrapper-tesoreria/internal/sources"
)

const (
	// DefaultBaseURL is the Scopus site root.
	DefaultBaseURL = "https://www.scopus.com"

	// DefaultMaxResults bounds a scrape when the caller requests no count.
	DefaultMaxResults = 20

	// DefaultRateLimit is one page fetch per second.
	DefaultRateLimit = 1.0

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// sourceName is the human-readable name for this source.
	sourceName = "Scopus"
)

// Config holds configuration for the Scopus adapter.
type Config struct {
	// BaseURL is the site root.
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

// Client implements the sources.Source interface for Scopus.
type Client struct {
	config     Config
	httpClient *sources.HTTPClient
}

var _ sources.Source = (*Client)(nil)

// New creates a new Scopus adapter with the given configuration.
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

// Search scrapes the Scopus results page for treasury-related publications.
func (c *Client) Search(ctx context.Context, params sources.SearchParams) ([]sources.Record, error) {
	limit := params.MaxResults
	if limit <= 0 {
		limit = DefaultMaxResults
	}

	doc, err := sources.FetchDocument(ctx, c.httpClient, sourceName, c.searchURL(params))
	if err != nil {
		return nil, err
	}

	var records []sources.Record
	doc.Find("tr.searchArea").EachWithBreak(func(i int, item *goquery.Selection) bool {
		if len(records) >= limit {
			return false
		}

		titleLink := item.Find("a.previewLink").First()
		title := strings.TrimSpace(titleLink.Text())

		recordURL := ""
		if href, ok := titleLink.Attr("href"); ok && href != "" {
			recordURL = strings.TrimRight(c.config.BaseURL, "/") + "/" + strings.TrimLeft(href, "/")
		}

		var authors []string
		item.Find("td.authorCell a").EachWithBreak(func(i int, author *goquery.Selection) bool {
			if name := strings.TrimSpace(author.Text()); name != "" {
				authors = append(authors, name)
			}
			return len(authors) < sources.ScrapedAuthorLimit
		})

		journal := strings.TrimSpace(item.Find("span.sourceTitle").First().Text())

		records = append(records, sources.Record{
			Title:    title,
			Authors:  authors,
			Abstract: sources.Truncate(strings.TrimSpace(item.Find("div.abstractText").Text()), sources.ScrapedAbstractLimit),
			URL:      recordURL,
			Date:     sources.ExtractYear(journal),
			Journal:  journal,
		})
		return true
	})

	return sources.FilterByYear(records, params.DateFrom, params.DateTo), nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeScopus
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled returns whether this source is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// searchURL builds the results URL using the advanced TITLE-ABS-KEY query
// with injected treasury terms and year bounds.
func (c *Client) searchURL(params sources.SearchParams) string {
	query := url.Values{}
	query.Set("sort", "plf-f")
	query.Set("src", "s")
	query.Set("st1", params.Query)
	query.Set("sot", "b")
	query.Set("sdt", "b")
	query.Set("sl", "25")
	query.Set("s", fmt.Sprintf(`TITLE-ABS-KEY(%s AND (treasury OR "cash management" OR liquidity))`, params.Query))
	if params.DateFrom != nil {
		query.Set("dateFrom", params.DateFrom.Format("2006"))
	}
	if params.DateTo != nil {
		query.Set("dateTo", params.DateTo.Format("2006"))
	}
	return strings.TrimRight(c.config.BaseURL, "/") + "/results/results.uri?" + query.Encode()
}
