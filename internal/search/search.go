package search

import (
	"context"
)

// Provider defines the unified interface for search providers.
// Implementations wrap a web-search/scrape endpoint and return scored-ready
// results; transport concerns (timeouts, rate limits) live inside the provider.
type Provider interface {
	// Search performs a search with configuration
	Search(ctx context.Context, query string, config Config) ([]Result, error)

	// GetName returns the name of the search provider
	GetName() string
}

// Config holds configuration for search requests
type Config struct {
	MaxResults int    // Maximum number of results to return
	Timeframe  string // Recency hint (e.g. "day", "week", "month", "year"); empty means no filter
}

// Result represents a unified search result
type Result struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"` // Markdown or snippet text, provider dependent
	Domain  string `json:"domain"`
	Source  string `json:"source"` // Provider-specific source identifier
	Rank    int    `json:"rank"`   // Position in search results
}

// ProviderType represents the type of search provider
type ProviderType string

const (
	ProviderTypeFirecrawl  ProviderType = "firecrawl"
	ProviderTypeDuckDuckGo ProviderType = "duckduckgo"
	ProviderTypeMock       ProviderType = "mock"
)

// ProviderFactory creates search providers based on type and configuration
type ProviderFactory struct{}

// NewProviderFactory creates a new provider factory
func NewProviderFactory() *ProviderFactory {
	return &ProviderFactory{}
}

// CreateProvider creates a search provider of the specified type
func (f *ProviderFactory) CreateProvider(providerType ProviderType, config map[string]string) (Provider, error) {
	switch providerType {
	case ProviderTypeFirecrawl:
		apiKey, exists := config["api_key"]
		if !exists || apiKey == "" {
			return nil, ErrMissingAPIKey
		}
		baseURL := config["base_url"]
		return NewFirecrawlProvider(apiKey, baseURL), nil
	case ProviderTypeDuckDuckGo:
		return NewDuckDuckGoProvider(), nil
	case ProviderTypeMock:
		return NewMockProvider(), nil
	default:
		return nil, ErrUnsupportedProvider
	}
}

// GetAvailableProviders returns a list of available provider types
func (f *ProviderFactory) GetAvailableProviders() []ProviderType {
	return []ProviderType{
		ProviderTypeFirecrawl,
		ProviderTypeDuckDuckGo,
		ProviderTypeMock,
	}
}
