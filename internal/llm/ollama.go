package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// OllamaClient talks to a local Ollama daemon. No API key is needed.
type OllamaClient struct {
	config     *Config
	httpClient *http.Client
}

// NewOllamaClient creates a new Ollama client
func NewOllamaClient(config *Config) *OllamaClient {
	return &OllamaClient{
		config:     config,
		httpClient: &http.Client{Timeout: config.timeout()},
	}
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   string          `json:"format,omitempty"`
	Options  map[string]any  `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Error   string        `json:"error,omitempty"`
}

type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Complete runs a non-streaming chat
func (c *OllamaClient) Complete(ctx context.Context, req Request) (string, error) {
	model, err := modelFor(c.config, req.Tier)
	if err != nil {
		return "", err
	}

	messages := make([]ollamaMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, ollamaMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, ollamaMessage{Role: "user", Content: req.User})

	body := ollamaChatRequest{Model: model, Messages: messages}
	if req.JSON {
		body.Format = "json"
	}
	if req.MaxTokens > 0 {
		body.Options = map[string]any{"num_predict": req.MaxTokens}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	var resp ollamaChatResponse
	if err := c.do(ctx, http.MethodPost, "/api/chat", payload, &resp); err != nil {
		return "", err
	}
	if resp.Message.Content == "" {
		return "", &EmptyResponseError{Provider: ProviderOllama}
	}
	return resp.Message.Content, nil
}

// Ping lists locally installed models
func (c *OllamaClient) Ping(ctx context.Context) (*ConnectionInfo, error) {
	var tags ollamaTagsResponse
	if err := c.do(ctx, http.MethodGet, "/api/tags", nil, &tags); err != nil {
		return nil, err
	}
	if len(tags.Models) == 0 {
		return nil, &APIError{Provider: ProviderOllama, Message: "No models installed"}
	}
	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return &ConnectionInfo{
		Provider:  ProviderOllama,
		Message:   "Connected successfully",
		ModelInfo: fmt.Sprintf("%d models available: %s", len(names), strings.Join(names, ", ")),
	}, nil
}

// Provider identifies the backend
func (c *OllamaClient) Provider() Provider {
	return ProviderOllama
}

// Close is a no-op
func (c *OllamaClient) Close() error {
	return nil
}

func (c *OllamaClient) do(ctx context.Context, method, path string, payload []byte, out any) error {
	baseURL := c.config.BaseURL
	if baseURL == "" {
		baseURL = OllamaBaseURL
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(baseURL, "/")+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Provider: ProviderOllama, Message: "Cannot connect to Ollama at " + baseURL, Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Provider: ProviderOllama, StatusCode: resp.StatusCode, Message: "failed to read response", Cause: err}
	}
	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		msg := http.StatusText(resp.StatusCode)
		if json.Unmarshal(raw, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &APIError{Provider: ProviderOllama, StatusCode: resp.StatusCode, Message: msg}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &APIError{Provider: ProviderOllama, StatusCode: resp.StatusCode, Message: "invalid JSON response", Cause: err}
	}
	return nil
}
