package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicClient calls the Anthropic Messages API.
type AnthropicClient struct {
	client anthropic.Client
	config *Config
}

// NewAnthropicClient creates a new Anthropic client
func NewAnthropicClient(config *Config, extra ...option.RequestOption) *AnthropicClient {
	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithRequestTimeout(config.timeout()),
		option.WithMaxRetries(0),
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}
	opts = append(opts, extra...)

	return &AnthropicClient{
		client: anthropic.NewClient(opts...),
		config: config,
	}
}

// Complete sends a single-turn message
func (c *AnthropicClient) Complete(ctx context.Context, req Request) (string, error) {
	model, err := modelFor(c.config, req.Tier)
	if err != nil {
		return "", err
	}
	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(0.1),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.User)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", anthropicError(err)
	}

	var parts []string
	for _, block := range resp.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	text := strings.Join(parts, "")
	if text == "" {
		return "", &EmptyResponseError{Provider: ProviderAnthropic}
	}
	return text, nil
}

// Ping sends a one-token message; there is no cheaper authenticated call.
func (c *AnthropicClient) Ping(ctx context.Context) (*ConnectionInfo, error) {
	model := c.config.GetModel(TierLite)
	_, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: 1,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("Hi")),
		},
	})
	if err != nil {
		return nil, anthropicError(err)
	}
	return &ConnectionInfo{
		Provider:  ProviderAnthropic,
		Message:   "Connected successfully",
		ModelInfo: "Using " + model,
	}, nil
}

// Provider identifies the backend
func (c *AnthropicClient) Provider() Provider {
	return ProviderAnthropic
}

// Close is a no-op
func (c *AnthropicClient) Close() error {
	return nil
}

func anthropicError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		msg := http.StatusText(apiErr.StatusCode)
		if apiErr.StatusCode == http.StatusUnauthorized {
			msg = "Invalid API key"
		}
		return &APIError{Provider: ProviderAnthropic, StatusCode: apiErr.StatusCode, Message: msg, Cause: err}
	}
	return &APIError{Provider: ProviderAnthropic, Message: err.Error(), Cause: err}
}
