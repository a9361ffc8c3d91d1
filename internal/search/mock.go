package search

import (
	"context"
	"fmt"
	"sync"
)

// MockProvider implements Provider for testing purposes
type MockProvider struct {
	name    string
	results []Result
	err     error

	mu    sync.Mutex
	calls []string
}

// NewMockProvider creates a new mock search provider
func NewMockProvider() *MockProvider {
	return &MockProvider{
		name: "Mock",
		results: []Result{
			{
				URL:     "https://example.com/article1",
				Title:   "Example Article 1",
				Content: "This is a mock search result for testing purposes.",
				Domain:  "example.com",
				Source:  "Mock",
				Rank:    1,
			},
			{
				URL:     "https://test.org/article2",
				Title:   "Test Article 2",
				Content: "Another mock search result with different content.",
				Domain:  "test.org",
				Source:  "Mock",
				Rank:    2,
			},
			{
				URL:     "https://demo.net/article3",
				Title:   "Demo Article 3",
				Content: "Third mock result to simulate multiple search results.",
				Domain:  "demo.net",
				Source:  "Mock",
				Rank:    3,
			},
		},
	}
}

// GetName returns the name of this provider
func (m *MockProvider) GetName() string {
	return m.name
}

// Search returns the configured mock results or error
func (m *MockProvider) Search(ctx context.Context, query string, config Config) ([]Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, query)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.err != nil {
		return nil, m.err
	}

	maxResults := config.MaxResults
	if maxResults <= 0 || maxResults > len(m.results) {
		maxResults = len(m.results)
	}

	results := make([]Result, maxResults)
	for i := 0; i < maxResults; i++ {
		result := m.results[i]
		result.Title = fmt.Sprintf("%s (for query: %s)", result.Title, query)
		results[i] = result
	}

	return results, nil
}

// SetResults allows customization of mock results for testing
func (m *MockProvider) SetResults(results []Result) {
	m.results = results
}

// SetError makes every subsequent Search call fail with err
func (m *MockProvider) SetError(err error) {
	m.err = err
}

// SetName allows customization of provider name for testing
func (m *MockProvider) SetName(name string) {
	m.name = name
}

// Calls returns the queries issued so far, in order
func (m *MockProvider) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}
