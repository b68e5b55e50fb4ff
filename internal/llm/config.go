// Package llm provides provider-neutral chat completion clients for the AI
// gateway. Each backend lives in its own file behind the Client interface.
package llm

import (
	"fmt"
	"time"
)

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for connection checks and trivial prompts
	TierLite ModelTier = "lite"
	// TierStandard is for structured extraction such as job analysis
	TierStandard ModelTier = "standard"
	// TierAdvanced is for resume tailoring
	TierAdvanced ModelTier = "advanced"
)

// Provider represents an LLM backend
type Provider string

// Provider constants define supported LLM providers
const (
	ProviderGemini     Provider = "gemini"
	ProviderOpenAI     Provider = "openai"
	ProviderOpenRouter Provider = "openrouter"
	ProviderAnthropic  Provider = "anthropic"
	ProviderOllama     Provider = "ollama"
)

// Default endpoints.
const (
	OpenRouterBaseURL = "https://openrouter.ai/api/v1/"
	OllamaBaseURL     = "http://localhost:11434"
	DefaultTimeout    = 2 * time.Minute
)

// Config holds the model configuration for one provider
type Config struct {
	Provider Provider
	Models   map[ModelTier]string
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
}

// DefaultConfig returns the default configuration for provider. Unknown
// providers fall back to OpenRouter.
func DefaultConfig(provider Provider) *Config {
	switch provider {
	case ProviderGemini:
		return DefaultGeminiConfig()
	case ProviderOpenAI:
		return singleModel(ProviderOpenAI, "gpt-4o-mini", "")
	case ProviderAnthropic:
		return singleModel(ProviderAnthropic, "claude-3-haiku-20240307", "")
	case ProviderOllama:
		return singleModel(ProviderOllama, "llama3.2", OllamaBaseURL)
	default:
		return singleModel(ProviderOpenRouter, "anthropic/claude-3.5-haiku", OpenRouterBaseURL)
	}
}

// DefaultGeminiConfig returns the default Gemini configuration
func DefaultGeminiConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
		Timeout: DefaultTimeout,
	}
}

func singleModel(p Provider, model, baseURL string) *Config {
	return &Config{
		Provider: p,
		Models: map[ModelTier]string{
			TierLite:     model,
			TierStandard: model,
			TierAdvanced: model,
		},
		BaseURL: baseURL,
		Timeout: DefaultTimeout,
	}
}

// RequiresAPIKey reports whether the provider authenticates with a key.
func (c *Config) RequiresAPIKey() bool {
	return c.Provider != ProviderOllama
}

// Validate checks the configuration before any network call is made.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderOpenRouter, ProviderAnthropic, ProviderOllama:
	default:
		return fmt.Errorf("unknown AI provider: %q", c.Provider)
	}
	if c.RequiresAPIKey() && c.APIKey == "" {
		return &MissingAPIKeyError{Provider: c.Provider}
	}
	return nil
}

// GetModel returns the model name for a given tier
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	// Fallback chain: try standard, then lite
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return "" // No model configured
}

// WithModel returns a new Config with a specific model for a tier
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	newConfig := *c
	newConfig.Models = make(map[ModelTier]string, len(c.Models)+1)
	for k, v := range c.Models {
		newConfig.Models[k] = v
	}
	newConfig.Models[tier] = model
	return &newConfig
}

// WithAllModels returns a new Config using model for every tier.
func (c *Config) WithAllModels(model string) *Config {
	next := c
	for _, tier := range []ModelTier{TierLite, TierStandard, TierAdvanced} {
		next = next.WithModel(tier, model)
	}
	return next
}

func (c *Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}
