package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIClient implements Client for OpenAI and any OpenAI-compatible
// endpoint such as OpenRouter.
type OpenAIClient struct {
	client   *openai.Client
	config   *Config
	provider Provider
}

// NewOpenAIClient creates a client for config.Provider (openai or openrouter).
func NewOpenAIClient(config *Config, extra ...option.RequestOption) *OpenAIClient {
	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithRequestTimeout(config.timeout()),
		option.WithMaxRetries(0),
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}
	if config.Provider == ProviderOpenRouter {
		opts = append(opts, option.WithHeader("X-Title", "resume-matcher"))
	}
	opts = append(opts, extra...)

	return &OpenAIClient{
		client:   openai.NewClient(opts...),
		config:   config,
		provider: config.Provider,
	}
}

// Complete runs a chat completion
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	model, err := modelFor(c.config, req.Tier)
	if err != nil {
		return "", err
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.User))

	params := openai.ChatCompletionNewParams{
		Messages:    openai.F(messages),
		Model:       openai.F(openai.ChatModel(model)),
		Temperature: openai.F(0.1),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.F(int64(req.MaxTokens))
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", c.apiError(err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", &EmptyResponseError{Provider: c.provider}
	}
	return resp.Choices[0].Message.Content, nil
}

// Ping lists the models visible to the key
func (c *OpenAIClient) Ping(ctx context.Context) (*ConnectionInfo, error) {
	page, err := c.client.Models.List(ctx)
	if err != nil {
		return nil, c.apiError(err)
	}
	return &ConnectionInfo{
		Provider:  c.provider,
		Message:   "Connected successfully",
		ModelInfo: fmt.Sprintf("%d models available", len(page.Data)),
	}, nil
}

// Provider identifies the backend
func (c *OpenAIClient) Provider() Provider {
	return c.provider
}

// Close is a no-op; the SDK holds no long-lived resources.
func (c *OpenAIClient) Close() error {
	return nil
}

func (c *OpenAIClient) apiError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = http.StatusText(apiErr.StatusCode)
		}
		if apiErr.StatusCode == http.StatusUnauthorized {
			msg = "Invalid API key"
		}
		return &APIError{Provider: c.provider, StatusCode: apiErr.StatusCode, Message: msg, Cause: err}
	}
	return &APIError{Provider: c.provider, Message: err.Error(), Cause: err}
}
