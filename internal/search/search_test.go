package search

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
)

func TestProviderTypeConstants(t *testing.T) {
	expectedTypes := map[ProviderType]string{
		ProviderTypeFirecrawl:  "firecrawl",
		ProviderTypeDuckDuckGo: "duckduckgo",
		ProviderTypeMock:       "mock",
	}

	for providerType, expectedValue := range expectedTypes {
		if string(providerType) != expectedValue {
			t.Errorf("Expected %s to be %s, got %s", providerType, expectedValue, string(providerType))
		}
	}
}

func TestCreateMockProvider(t *testing.T) {
	factory := NewProviderFactory()

	provider, err := factory.CreateProvider(ProviderTypeMock, map[string]string{})
	if err != nil {
		t.Fatalf("Expected no error creating mock provider, got %v", err)
	}
	if provider.GetName() != "Mock" {
		t.Errorf("Expected provider name 'Mock', got %s", provider.GetName())
	}
}

func TestCreateFirecrawlProviderRequiresAPIKey(t *testing.T) {
	factory := NewProviderFactory()

	_, err := factory.CreateProvider(ProviderTypeFirecrawl, map[string]string{})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("Expected ErrMissingAPIKey, got %v", err)
	}

	provider, err := factory.CreateProvider(ProviderTypeFirecrawl, map[string]string{"api_key": "fc-test"})
	if err != nil {
		t.Fatalf("Expected no error with API key, got %v", err)
	}
	if provider.GetName() != "Firecrawl" {
		t.Errorf("Expected provider name 'Firecrawl', got %s", provider.GetName())
	}
}

func TestCreateUnsupportedProvider(t *testing.T) {
	factory := NewProviderFactory()

	_, err := factory.CreateProvider(ProviderType("bing"), map[string]string{})
	if !errors.Is(err, ErrUnsupportedProvider) {
		t.Errorf("Expected ErrUnsupportedProvider, got %v", err)
	}
}

func TestFirecrawlSearchDecodesResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/search" {
			t.Errorf("Expected path /v1/search, got %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer fc-test" {
			t.Errorf("Expected bearer auth header, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"success": true,
			"data": [
				{"url": "https://www.example.com/ev-market", "title": "EV Market", "markdown": "# EV Market\nGrowth is accelerating."},
				{"url": "https://news.test/batteries", "title": "Batteries", "description": "Battery costs fall."}
			]
		}`))
	}))
	defer server.Close()

	provider := NewFirecrawlProvider("fc-test", server.URL)

	results, err := provider.Search(context.Background(), "ev market", Config{MaxResults: 3})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].Domain != "example.com" {
		t.Errorf("Expected www. prefix stripped, got %s", results[0].Domain)
	}
	if !strings.Contains(results[0].Content, "Growth is accelerating") {
		t.Errorf("Expected markdown content, got %q", results[0].Content)
	}
	if results[1].Content != "Battery costs fall." {
		t.Errorf("Expected description fallback, got %q", results[1].Content)
	}
	if results[1].Rank != 2 {
		t.Errorf("Expected rank 2, got %d", results[1].Rank)
	}
}

func TestFirecrawlSearchStatusMapping(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusTooManyRequests, ErrRateLimited},
		{http.StatusPaymentRequired, ErrQuotaExceeded},
		{http.StatusUnauthorized, ErrMissingAPIKey},
		{http.StatusBadGateway, ErrProviderUnavailable},
	}

	for _, tc := range cases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))

		provider := NewFirecrawlProvider("fc-test", server.URL)
		_, err := provider.Search(context.Background(), "anything", Config{MaxResults: 1})
		if !errors.Is(err, tc.want) {
			t.Errorf("Status %d: expected %v, got %v", tc.status, tc.want, err)
		}
		server.Close()
	}
}

func TestTimeframeFilter(t *testing.T) {
	cases := map[string]string{
		"day":    "qdr:d",
		"week":   "qdr:w",
		"month":  "qdr:m",
		"year":   "qdr:y",
		"":       "",
		"decade": "",
	}

	for in, want := range cases {
		if got := timeframeFilter(in); got != want {
			t.Errorf("timeframeFilter(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDuckDuckGoParseResults(t *testing.T) {
	html := `<html><body>
		<div class="result">
			<a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fstory">Example Story</a>
			<a class="result__snippet">A snippet about the story.</a>
		</div>
		<div class="result">
			<a class="result__a" href="https://direct.example.org/page">Direct Link</a>
			<div class="result__snippet">Second snippet.</div>
		</div>
	</body></html>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("failed to build document: %v", err)
	}

	provider := NewDuckDuckGoProvider()
	results := provider.parseResults(doc, 10)

	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].URL != "https://example.com/story" {
		t.Errorf("Expected redirect unwrapped, got %s", results[0].URL)
	}
	if results[0].Content != "A snippet about the story." {
		t.Errorf("Unexpected snippet: %q", results[0].Content)
	}
	if results[1].URL != "https://direct.example.org/page" {
		t.Errorf("Expected direct URL kept, got %s", results[1].URL)
	}
	if results[1].Domain != "direct.example.org" {
		t.Errorf("Unexpected domain: %s", results[1].Domain)
	}
}

func TestDuckDuckGoSetRateLimit(t *testing.T) {
	provider := NewDuckDuckGoProvider()

	provider.SetRateLimit(250 * time.Millisecond)
	if provider.rateLimit != 250*time.Millisecond {
		t.Errorf("Expected rate limit 250ms, got %v", provider.rateLimit)
	}

	provider.SetRateLimit(0)
	if provider.rateLimit != 250*time.Millisecond {
		t.Errorf("Expected non-positive limit ignored, got %v", provider.rateLimit)
	}
}

func TestMockProviderLimitsResults(t *testing.T) {
	provider := NewMockProvider()

	results, err := provider.Search(context.Background(), "test query", Config{MaxResults: 2})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(results) != 2 {
		t.Errorf("Expected 2 results, got %d", len(results))
	}
	if calls := provider.Calls(); len(calls) != 1 || calls[0] != "test query" {
		t.Errorf("Expected recorded call, got %v", calls)
	}
}
