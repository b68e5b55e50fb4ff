package llm

import (
	"context"
	"fmt"
)

// Request is one system+user exchange.
type Request struct {
	System    string
	User      string
	MaxTokens int
	Tier      ModelTier
	// JSON asks providers that support it for a JSON-only response.
	JSON bool
}

// ConnectionInfo is the result of a connectivity check.
type ConnectionInfo struct {
	Provider  Provider
	Message   string
	ModelInfo string
}

// Client is an abstraction over LLM providers
type Client interface {
	// Complete returns the assistant text for req
	Complete(ctx context.Context, req Request) (string, error)
	// Ping verifies credentials and reachability
	Ping(ctx context.Context) (*ConnectionInfo, error)
	// Provider identifies the backend
	Provider() Provider
	// Close releases any resources held by the client
	Close() error
}

// NewClient creates a new LLM client based on configuration
func NewClient(ctx context.Context, config *Config) (Client, error) {
	if config == nil {
		config = DefaultConfig(ProviderOpenRouter)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Provider {
	case ProviderGemini:
		return NewGeminiClient(ctx, config)
	case ProviderOpenAI, ProviderOpenRouter:
		return NewOpenAIClient(config), nil
	case ProviderAnthropic:
		return NewAnthropicClient(config), nil
	case ProviderOllama:
		return NewOllamaClient(config), nil
	default:
		return nil, fmt.Errorf("unknown AI provider: %q", config.Provider)
	}
}

func modelFor(config *Config, tier ModelTier) (string, error) {
	if tier == "" {
		tier = TierStandard
	}
	model := config.GetModel(tier)
	if model == "" {
		return "", fmt.Errorf("no model configured for tier %s", tier)
	}
	return model, nil
}
