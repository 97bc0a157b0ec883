// Package anthropic adapts the Anthropic SDK to the llm.Client contract.
package anthropic

import (
	"context"
	"errors"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/spetersoncode/stride/llm"
)

// DefaultModel is used when no model option is given.
const DefaultModel = anthropic.ModelClaudeSonnet4_5

// Client wraps the Anthropic SDK to implement llm.Client.
type Client struct {
	client    *anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

// ClientOption configures the Anthropic client.
type ClientOption func(*Client)

// WithModel sets the model for requests.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = anthropic.Model(model)
	}
}

// WithMaxTokens sets the completion token ceiling.
func WithMaxTokens(n int) ClientOption {
	return func(c *Client) {
		c.maxTokens = int64(n)
	}
}

// New creates a client with the given API key.
func New(apiKey string, opts ...ClientOption) *Client {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	c := &Client{
		client:    &client,
		model:     DefaultModel,
		maxTokens: 4096,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Complete sends one completion call and returns the model's text.
func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", wrapError(err)
	}

	text := ""
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return text, nil
}

// wrapError classifies SDK errors: rate limits and server errors become
// *llm.UnavailableError so the loop retries with backoff.
func wrapError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		code := apiErr.StatusCode
		if code == 429 || (code >= 500 && code < 600) {
			return &llm.UnavailableError{Provider: "anthropic", Err: err}
		}
	}
	return err
}
