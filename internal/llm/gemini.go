package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GeminiClient implements Client for Google Gemini
type GeminiClient struct {
	client *genai.Client
	config *Config
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(ctx context.Context, config *Config) (*GeminiClient, error) {
	if config.APIKey == "" {
		return nil, &MissingAPIKeyError{Provider: ProviderGemini}
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(config.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		config: config,
	}, nil
}

// Complete sends one system+user exchange. JSON requests ask Gemini for an
// application/json response.
func (c *GeminiClient) Complete(ctx context.Context, req Request) (string, error) {
	name, err := modelFor(c.config, req.Tier)
	if err != nil {
		return "", err
	}
	model := c.model(name, req)

	ctx, cancel := context.WithTimeout(ctx, c.config.timeout())
	defer cancel()
	resp, err := model.GenerateContent(ctx, genai.Text(req.User))
	if err != nil {
		return "", geminiError(err)
	}
	return geminiText(resp)
}

func (c *GeminiClient) model(name string, req Request) *genai.GenerativeModel {
	m := c.client.GenerativeModel(name)
	m.SetTemperature(0.1)
	m.SetCandidateCount(1)
	if req.MaxTokens > 0 {
		m.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if req.System != "" {
		m.SystemInstruction = genai.NewUserContent(genai.Text(req.System))
	}
	if req.JSON {
		m.ResponseMIMEType = "application/json"
	}
	return m
}

// Ping lists the models visible to the key
func (c *GeminiClient) Ping(ctx context.Context) (*ConnectionInfo, error) {
	it := c.client.ListModels(ctx)
	count := 0
	for {
		_, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, geminiError(err)
		}
		count++
	}
	return &ConnectionInfo{
		Provider:  ProviderGemini,
		Message:   "Connected successfully",
		ModelInfo: fmt.Sprintf("%d models available", count),
	}, nil
}

// Provider identifies the backend
func (c *GeminiClient) Provider() Provider {
	return ProviderGemini
}

// Close releases resources held by the client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

func geminiError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return &APIError{Provider: ProviderGemini, StatusCode: gerr.Code, Message: gerr.Message, Cause: err}
	}
	return &APIError{Provider: ProviderGemini, Message: err.Error(), Cause: err}
}

// geminiText joins the text parts of the first candidate. A prompt or
// candidate stopped by safety filters is reported as an APIError.
func geminiText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", &EmptyResponseError{Provider: ProviderGemini}
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != genai.BlockReasonUnspecified {
		return "", &APIError{Provider: ProviderGemini, Message: "prompt blocked: " + fb.BlockReason.String()}
	}
	if len(resp.Candidates) == 0 {
		return "", &EmptyResponseError{Provider: ProviderGemini}
	}

	cand := resp.Candidates[0]
	if cand.FinishReason == genai.FinishReasonSafety {
		return "", &APIError{Provider: ProviderGemini, Message: "response blocked by safety filters"}
	}
	var b strings.Builder
	if cand.Content != nil {
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
	}
	if b.Len() == 0 {
		return "", &EmptyResponseError{Provider: ProviderGemini}
	}
	return b.String(), nil
}
