package handlers

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"reportforge/internal/config"
	"reportforge/internal/search"
)

// newSearchProvider builds the configured search provider. An empty name
// falls back to the configured default.
func newSearchProvider(cfg *config.Config, name string) (search.Provider, error) {
	if name == "" {
		name = cfg.Search.DefaultProvider
	}

	factory := search.NewProviderFactory()
	switch search.ProviderType(name) {
	case search.ProviderTypeFirecrawl:
		provider, err := factory.CreateProvider(search.ProviderTypeFirecrawl, map[string]string{
			"api_key":  cfg.Search.Providers.Firecrawl.APIKey,
			"base_url": cfg.Search.Providers.Firecrawl.BaseURL,
		})
		if err != nil {
			return nil, err
		}
		if fc, ok := provider.(*search.FirecrawlProvider); ok && cfg.Search.Providers.Firecrawl.RequestsPerMinute > 0 {
			fc.SetRequestsPerMinute(cfg.Search.Providers.Firecrawl.RequestsPerMinute)
		}
		return provider, nil
	case search.ProviderTypeDuckDuckGo:
		provider, err := factory.CreateProvider(search.ProviderTypeDuckDuckGo, nil)
		if err != nil {
			return nil, err
		}
		if ddg, ok := provider.(*search.DuckDuckGoProvider); ok {
			if limit, err := time.ParseDuration(cfg.Search.Providers.DuckDuckGo.RateLimit); err == nil {
				ddg.SetRateLimit(limit)
			}
		}
		return provider, nil
	default:
		return factory.CreateProvider(search.ProviderType(name), nil)
	}
}

// writeJSONFile marshals v with indentation into dir/name, creating the
// directory if needed, and returns the full path.
func writeJSONFile(dir, name string, v any) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal output: %w", err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
