// Package llm wraps the Gemini SDK behind a small text-generation client.
// Callers depend on the TextGenerator interfaces they declare themselves, so
// tests never need a live gateway.
package llm

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/viper"
	"google.golang.org/genai"
)

const (
	// DefaultModel is the model used when neither the caller nor the
	// configuration names one.
	DefaultModel = "gemini-2.0-flash"
)

// Client is a thin gateway to the Gemini API.
type Client struct {
	apiKey    string
	modelName string
	gClient   *genai.Client
}

// TextGenerationOptions tune a single generation call. Zero values fall back
// to the service defaults.
type TextGenerationOptions struct {
	MaxTokens   int32
	Temperature float32
	Model       string
}

// NewClient creates a Gemini client. The API key is resolved in order from
// GEMINI_API_KEY, GOOGLE_GEMINI_API_KEY, GOOGLE_AI_API_KEY, and finally the
// ai.gemini.api_key configuration entry.
func NewClient(modelName string) (*Client, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		if apiKey = os.Getenv("GOOGLE_GEMINI_API_KEY"); apiKey == "" {
			if apiKey = os.Getenv("GOOGLE_AI_API_KEY"); apiKey == "" {
				apiKey = viper.GetString("ai.gemini.api_key")
			}
		}
	}
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required. Set GEMINI_API_KEY or ai.gemini.api_key in config")
	}

	if modelName == "" {
		modelName = viper.GetString("ai.gemini.model")
		if modelName == "" {
			modelName = DefaultModel
		}
	}

	ctx := context.Background()
	gClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{
		apiKey:    apiKey,
		modelName: modelName,
		gClient:   gClient,
	}, nil
}

// GenerateText sends a single prompt and returns the model's text response.
// Failures are returned as *GatewayError so callers can distinguish quota and
// timeout conditions from ordinary transport faults.
func (c *Client) GenerateText(ctx context.Context, prompt string, options TextGenerationOptions) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("prompt cannot be empty")
	}

	modelName := c.modelName
	if options.Model != "" {
		modelName = options.Model
	}

	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: prompt}},
		Role:  "user",
	}}

	var config *genai.GenerateContentConfig
	if options.MaxTokens > 0 || options.Temperature > 0 {
		config = &genai.GenerateContentConfig{}
		if options.MaxTokens > 0 {
			config.MaxOutputTokens = options.MaxTokens
		}
		if options.Temperature > 0 {
			temp := options.Temperature
			config.Temperature = &temp
		}
	}

	resp, err := c.gClient.Models.GenerateContent(ctx, modelName, contents, config)
	if err != nil {
		return "", classifyError(err)
	}

	text := resp.Text()
	if text == "" {
		return "", &GatewayError{Kind: KindTransport, Err: fmt.Errorf("empty response from model")}
	}

	return text, nil
}

// GetModelName returns the model this client generates with by default.
func (c *Client) GetModelName() string {
	return c.modelName
}

// Close releases client resources. The current SDK holds none, but callers
// should still defer it.
func (c *Client) Close() {
}
