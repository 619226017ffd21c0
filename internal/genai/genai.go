// Package genai provides GenAI-enhanced operations using the OpenAI API.
package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// ErrNoChoicesReturned indicates the completion response carried no choices.
var ErrNoChoicesReturned = errors.New("no choices returned")

// DefaultModel is used when no model is configured explicitly.
const DefaultModel = openai.ChatModelGPT4oMini

// ClientInterface defines the chat-completion operations consumed by the
// classifier and chatbot modules. Implemented by Client and by test stubs.
type ClientInterface interface {
	// GeneratePrompt generates a completion from a system and a user prompt.
	GeneratePrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	// GenerateJSON generates a completion constrained to a JSON object,
	// with the given sampling temperature and output-token budget.
	GenerateJSON(ctx context.Context, userPrompt string, temperature float64, maxTokens int64) (string, error)
}

// completionFunc abstracts the OpenAI chat-completion call for testability.
type completionFunc func(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)

// Client wraps the OpenAI chat-completion service.
type Client struct {
	complete completionFunc
	model    openai.ChatModel
}

// Opts holds configuration options for creating a GenAI client.
type Opts struct {
	APIKey string
	Model  string
}

// Option configures a GenAI client.
type Option func(*Opts)

// WithAPIKey sets the OpenAI API key explicitly.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithModel overrides the default chat model.
func WithModel(model string) Option {
	return func(o *Opts) { o.Model = model }
}

// NewClient initializes a new GenAI client. The API key falls back to the
// OPENAI_API_KEY environment variable when not set via options.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}
	model := openai.ChatModel(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	cli := openai.NewClient(option.WithAPIKey(apiKey))
	slog.Debug("genai.NewClient: created OpenAI client", "model", model)
	return &Client{
		complete: func(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
			return cli.Chat.Completions.New(ctx, params)
		},
		model: model,
	}, nil
}

// GeneratePrompt generates a response based on the provided system and user prompts.
func (c *Client) GeneratePrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
	}
	resp, err := c.complete(ctx, params)
	if err != nil {
		slog.Error("Client.GeneratePrompt: completion failed", "error", err)
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoicesReturned
	}
	return resp.Choices[0].Message.Content, nil
}

// GenerateJSON generates a completion constrained to a JSON object. Callers are
// still expected to parse defensively; the response format is a hint, not a
// guarantee with every model.
func (c *Client) GenerateJSON(ctx context.Context, userPrompt string, temperature float64, maxTokens int64) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(userPrompt),
		},
		Temperature: openai.Float(temperature),
		MaxTokens:   openai.Int(maxTokens),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		},
	}
	resp, err := c.complete(ctx, params)
	if err != nil {
		slog.Error("Client.GenerateJSON: completion failed", "error", err)
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoicesReturned
	}
	return resp.Choices[0].Message.Content, nil
}
