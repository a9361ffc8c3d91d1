package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"reportforge/internal/logger"
)

// DuckDuckGoProvider implements the Provider interface by scraping the
// DuckDuckGo HTML endpoint. It needs no API key, which makes it the fallback
// when no Firecrawl credentials are configured. Results carry the snippet as
// content; there is no full-page scrape.
type DuckDuckGoProvider struct {
	client    *http.Client
	userAgent string
	rateLimit time.Duration

	mu       sync.Mutex
	lastCall time.Time
}

// NewDuckDuckGoProvider creates a new DuckDuckGo search provider
func NewDuckDuckGoProvider() *DuckDuckGoProvider {
	return &DuckDuckGoProvider{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		userAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
		rateLimit: 2 * time.Second, // Be respectful with rate limiting
	}
}

// SetRateLimit overrides the minimum delay between searches.
func (d *DuckDuckGoProvider) SetRateLimit(limit time.Duration) {
	if limit > 0 {
		d.rateLimit = limit
	}
}

// GetName returns the name of this provider
func (d *DuckDuckGoProvider) GetName() string {
	return "DuckDuckGo"
}

// Search performs a search against the DuckDuckGo HTML endpoint
func (d *DuckDuckGoProvider) Search(ctx context.Context, query string, config Config) ([]Result, error) {
	// Respect rate limiting; callers may search concurrently
	d.mu.Lock()
	if elapsed := time.Since(d.lastCall); elapsed < d.rateLimit {
		time.Sleep(d.rateLimit - elapsed)
	}
	d.lastCall = time.Now()
	d.mu.Unlock()

	searchURL := "https://html.duckduckgo.com/html/?q=" + url.QueryEscape(query)

	req, err := http.NewRequestWithContext(ctx, "GET", searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute search request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search request failed with status: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	if doc.Find("form#captcha").Length() > 0 {
		return nil, fmt.Errorf("DuckDuckGo search blocked by CAPTCHA: %w", ErrProviderUnavailable)
	}

	results := d.parseResults(doc, config.MaxResults)

	logger.Debug("DuckDuckGo search completed", "query", query, "results_found", len(results))

	if len(results) == 0 {
		return nil, ErrNoResults
	}
	return results, nil
}

// parseResults walks the result blocks of the HTML response
func (d *DuckDuckGoProvider) parseResults(doc *goquery.Document, maxResults int) []Result {
	var results []Result

	doc.Find("div.result").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if maxResults > 0 && len(results) >= maxResults {
			return false
		}

		link := s.Find("a.result__a").First()
		href, ok := link.Attr("href")
		if !ok {
			return true
		}

		resolved := resolveRedirect(href)
		if resolved == "" {
			return true
		}

		title := strings.TrimSpace(link.Text())
		snippet := strings.TrimSpace(s.Find("a.result__snippet").First().Text())
		if snippet == "" {
			snippet = strings.TrimSpace(s.Find("div.result__snippet").First().Text())
		}

		results = append(results, Result{
			URL:     resolved,
			Title:   title,
			Content: snippet,
			Domain:  extractDomain(resolved),
			Source:  "DuckDuckGo",
			Rank:    len(results) + 1,
		})
		return true
	})

	return results
}

// resolveRedirect unwraps DuckDuckGo's /l/?uddg= redirect links
func resolveRedirect(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if target := parsed.Query().Get("uddg"); target != "" {
		return target
	}
	if parsed.Scheme == "http" || parsed.Scheme == "https" {
		return href
	}
	return ""
}
