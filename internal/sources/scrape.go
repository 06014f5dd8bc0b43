package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"

	"github.com/PuerkitoBio/goquery"

	"github.com/alejandrosalgar/scrapper-tesoreria/internal/domain"
)

// Shared helpers for the scrape-based adapters. These sources have no API;
// the adapters issue browser-like page requests and extract fields with
// structural selectors. A selector miss yields an empty field, never an
// error, and page-level failures yield an empty result set.

// BrowserUserAgent is sent to scraped indexes that reject non-browser clients.
const BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// ScrapedAbstractLimit bounds abstract previews extracted from result pages.
const ScrapedAbstractLimit = 500

// ScrapedAuthorLimit bounds the number of author links extracted per item.
const ScrapedAuthorLimit = 5

// maxScrapeBody bounds how much of a result page is parsed.
const maxScrapeBody = 10 << 20

var yearRegexp = regexp.MustCompile(`\d{4}`)

// ExtractYear returns the first four-digit year found in s, or "".
func ExtractYear(s string) string {
	return yearRegexp.FindString(s)
}

// FetchDocument issues a browser-like GET for pageURL and parses the
// response body as HTML.
func FetchDocument(ctx context.Context, client *HTTPClient, sourceName, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", BrowserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewExternalAPIError(sourceName, resp.StatusCode, string(body), nil)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxScrapeBody))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return doc, nil
}

// Truncate shortens s to at most limit runes.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
