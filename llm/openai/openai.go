// Package openai adapts the OpenAI SDK to the llm.Client contract. The
// client also implements memory.Embedder for hybrid memory retrieval.
package openai

import (
	"context"
	"errors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/spetersoncode/stride/llm"
)

// Default models used when no options are given.
const (
	DefaultModel          = openai.ChatModelGPT4o
	DefaultEmbeddingModel = openai.EmbeddingModelTextEmbedding3Small
)

// Client wraps the OpenAI SDK to implement llm.Client.
type Client struct {
	client         *openai.Client
	model          string
	embeddingModel string
}

// ClientOption configures the OpenAI client.
type ClientOption func(*Client)

// WithModel sets the chat model for requests.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

// WithEmbeddingModel sets the model used by Embed.
func WithEmbeddingModel(model string) ClientOption {
	return func(c *Client) {
		c.embeddingModel = model
	}
}

// New creates a client with the given API key.
func New(apiKey string, opts ...ClientOption) *Client {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	c := &Client{
		client:         &client,
		model:          DefaultModel,
		embeddingModel: DefaultEmbeddingModel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Complete sends one completion call and returns the model's text.
func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		return "", wrapError(err)
	}
	if len(resp.Choices) == 0 {
		return "", &llm.UnavailableError{Provider: "openai", Err: errors.New("empty choices")}
	}
	return resp.Choices[0].Message.Content, nil
}

// Embed returns one embedding vector per input text, in input order.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	resp, err := c.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(c.embeddingModel),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
	})
	if err != nil {
		return nil, wrapError(err)
	}
	embeddings := make([][]float64, len(resp.Data))
	for i, data := range resp.Data {
		embeddings[i] = data.Embedding
	}
	return embeddings, nil
}

func wrapError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		code := apiErr.StatusCode
		if code == 429 || (code >= 500 && code < 600) {
			return &llm.UnavailableError{Provider: "openai", Err: err}
		}
	}
	return err
}
