// Package google adapts the Google GenAI SDK to the llm.Client contract.
package google

import (
	"context"

	"github.com/spetersoncode/stride/llm"
	"google.golang.org/genai"
)

// DefaultModel is used when no model option is given.
const DefaultModel = "gemini-2.0-flash"

// Client wraps the Google GenAI SDK to implement llm.Client.
type Client struct {
	client *genai.Client
	model  string
}

// ClientOption configures the Google client.
type ClientOption func(*Client)

// WithModel sets the model for requests.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

// New creates a client with the given API key.
func New(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	c := &Client{
		client: client,
		model:  DefaultModel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Complete sends one completion call and returns the model's text.
func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	config := &genai.GenerateContentConfig{}
	if req.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}

	contents := []*genai.Content{
		{Role: "user", Parts: []*genai.Part{{Text: req.Prompt}}},
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		// The genai SDK does not expose structured status codes uniformly;
		// treat call failures as unavailability and let the loop's bounded
		// retries decide.
		return "", &llm.UnavailableError{Provider: "google", Err: err}
	}

	text := ""
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			text += part.Text
		}
	}
	return text, nil
}
