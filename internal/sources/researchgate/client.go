// Package researchgate implements the sources.Source interface for
// ResearchGate. ResearchGate has no public API, so publications are
// scraped from the search page with structural selectors. Selector misses
// yield empty fields; page-level failures yield an empty result set.
package researchgate

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/alejandrosalgar/scrapper-tesoreria/internal/domain"
	"github.com/alejandrosalgar/scrapper-tesoreria/internal/sources"
)

const (
	// DefaultBaseURL is the ResearchGate site root.
	DefaultBaseURL = "https://www.researchgate.net"

	// DefaultMaxResults bounds a scrape when the caller requests no count.
	DefaultMaxResults = 20

	// DefaultRateLimit is one page fetch per second.
	DefaultRateLimit = 1.0

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// sourceName is the human-readable name for this source.
	sourceName = "ResearchGate"
)

// Config holds configuration for the ResearchGate adapter.
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

// Client implements the sources.Source interface for ResearchGate.
type Client struct {
	config     Config
	httpClient *sources.HTTPClient
}

var _ sources.Source = (*Client)(nil)

// New creates a new ResearchGate adapter with the given configuration.
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

// Search scrapes the ResearchGate publication search page.
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
	doc.Find("div.nova-legacy-v-publication-item").EachWithBreak(func(i int, item *goquery.Selection) bool {
		if len(records) >= limit {
			return false
		}

		titleLink := item.Find("a.nova-legacy-e-link").First()
		title := strings.TrimSpace(titleLink.Text())

		recordURL := ""
		if href, ok := titleLink.Attr("href"); ok && href != "" {
			recordURL = strings.TrimRight(c.config.BaseURL, "/") + "/" + strings.TrimLeft(href, "/")
		}

		var authors []string
		item.Find("a.nova-legacy-e-link--color-inherit").EachWithBreak(func(i int, author *goquery.Selection) bool {
			if name := strings.TrimSpace(author.Text()); name != "" {
				authors = append(authors, name)
			}
			return len(authors) < sources.ScrapedAuthorLimit
		})

		records = append(records, sources.Record{
			Title:    title,
			Authors:  authors,
			Abstract: sources.Truncate(strings.TrimSpace(item.Find("div.nova-legacy-v-publication-item__description").Text()), sources.ScrapedAbstractLimit),
			URL:      recordURL,
			Date:     sources.ExtractYear(item.Find("span.nova-legacy-v-publication-item__meta-item").First().Text()),
		})
		return true
	})

	return sources.FilterByYear(records, params.DateFrom, params.DateTo), nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeResearchGate
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled returns whether this source is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// searchURL builds the publication search URL with injected treasury terms.
func (c *Client) searchURL(params sources.SearchParams) string {
	query := url.Values{}
	query.Set("q", params.Query+" treasury OR cash management OR liquidity")
	query.Set("type", "publication")
	return strings.TrimRight(c.config.BaseURL, "/") + "/search?" + query.Encode()
}
