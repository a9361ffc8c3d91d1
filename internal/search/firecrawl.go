package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"reportforge/internal/logger"
)

const defaultFirecrawlBaseURL = "https://api.firecrawl.dev"

// FirecrawlProvider implements Provider using the Firecrawl search endpoint.
// Each result carries scraped markdown, so downstream consumers get page
// content in one round trip.
type FirecrawlProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// NewFirecrawlProvider creates a new Firecrawl search provider
func NewFirecrawlProvider(apiKey, baseURL string) *FirecrawlProvider {
	if baseURL == "" {
		baseURL = defaultFirecrawlBaseURL
	}
	return &FirecrawlProvider{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		// 50 requests per minute, aligned with Firecrawl's documented search limit
		limiter: rate.NewLimiter(rate.Every(time.Minute/50), 1),
	}
}

// SetRequestsPerMinute overrides the default request pacing.
func (p *FirecrawlProvider) SetRequestsPerMinute(rpm int) {
	if rpm > 0 {
		p.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)
	}
}

// GetName returns the name of this provider
func (p *FirecrawlProvider) GetName() string {
	return "Firecrawl"
}

// Search performs a search using the Firecrawl /v1/search endpoint
func (p *FirecrawlProvider) Search(ctx context.Context, query string, config Config) ([]Result, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait interrupted: %w", err)
	}

	payload := map[string]any{
		"query": query,
		"limit": config.MaxResults,
		"scrapeOptions": map[string]any{
			"formats": []string{"markdown"},
		},
	}
	if tbs := timeframeFilter(config.Timeframe); tbs != "" {
		payload["tbs"] = tbs
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode Firecrawl request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/v1/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create Firecrawl request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute Firecrawl request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to decoding
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case http.StatusPaymentRequired:
		return nil, ErrQuotaExceeded
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, fmt.Errorf("firecrawl rejected credentials (status %d): %w", resp.StatusCode, ErrMissingAPIKey)
	default:
		if resp.StatusCode >= 500 {
			return nil, fmt.Errorf("firecrawl unavailable (status %d): %w", resp.StatusCode, ErrProviderUnavailable)
		}
		return nil, fmt.Errorf("firecrawl request failed with status: %d", resp.StatusCode)
	}

	var apiResponse struct {
		Success bool `json:"success"`
		Data    []struct {
			URL         string `json:"url"`
			Title       string `json:"title"`
			Description string `json:"description"`
			Markdown    string `json:"markdown"`
		} `json:"data"`
		Error string `json:"error,omitempty"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, fmt.Errorf("failed to parse Firecrawl response: %w", err)
	}

	if !apiResponse.Success && apiResponse.Error != "" {
		return nil, fmt.Errorf("firecrawl error: %s", apiResponse.Error)
	}

	var results []Result
	for i, item := range apiResponse.Data {
		if item.URL == "" {
			continue
		}
		content := item.Markdown
		if content == "" {
			content = item.Description
		}
		results = append(results, Result{
			URL:     item.URL,
			Title:   item.Title,
			Content: content,
			Domain:  extractDomain(item.URL),
			Source:  "Firecrawl",
			Rank:    i + 1,
		})
	}

	logger.Debug("Firecrawl search completed", "query", query, "results_found", len(results))

	return results, nil
}

// timeframeFilter maps a recency hint to Google's tbs query syntax,
// which Firecrawl passes through to the underlying engine.
func timeframeFilter(timeframe string) string {
	switch strings.ToLower(timeframe) {
	case "day", "24h":
		return "qdr:d"
	case "week":
		return "qdr:w"
	case "month":
		return "qdr:m"
	case "year":
		return "qdr:y"
	default:
		return ""
	}
}

// extractDomain extracts the domain name from a URL
func extractDomain(urlStr string) string {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}

	domain := parsed.Hostname()
	if strings.HasPrefix(domain, "www.") {
		domain = domain[4:]
	}

	return domain
}
