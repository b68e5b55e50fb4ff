// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/ecodeclub/ekit/slice"
)

// AI providers understood by the gateway.
const (
	ProviderGemini     = "gemini"
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
	ProviderAnthropic  = "anthropic"
	ProviderOllama     = "ollama"
)

// Providers lists every supported provider.
var Providers = []string{ProviderGemini, ProviderOpenAI, ProviderOpenRouter, ProviderAnthropic, ProviderOllama}

// DefaultServerURL is used by the CLI when no server is configured.
const DefaultServerURL = "http://localhost:8080"

// providerKeyEnv maps providers to the environment variable holding their key.
var providerKeyEnv = map[string]string{
	ProviderGemini:     "GEMINI_API_KEY",
	ProviderOpenAI:     "OPENAI_API_KEY",
	ProviderOpenRouter: "OPENROUTER_API_KEY",
	ProviderAnthropic:  "ANTHROPIC_API_KEY",
}

// Config represents the configuration that can be loaded from a JSON file.
// All fields are optional; missing values come from the environment or defaults.
type Config struct {
	// Remote sync
	ServerURL string `json:"server_url,omitempty"` // resume-matcher server used by the CLI
	Token     string `json:"token,omitempty"`      // Session token written by `login`

	// Local cache
	CachePath string `json:"cache_path,omitempty"` // JSON cache file
	RedisURL  string `json:"redis_url,omitempty"`  // Use Redis instead of the cache file

	// AI
	AIProvider string `json:"ai_provider,omitempty"` // gemini, openai, openrouter, anthropic, ollama
	AIModel    string `json:"ai_model,omitempty"`    // Overrides the provider default
	APIKey     string `json:"api_key,omitempty"`     // Key for the selected provider
	OllamaURL  string `json:"ollama_url,omitempty"`  // Ollama base URL

	// Server
	Addr        string `json:"addr,omitempty"`         // Listen address for `serve`
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL

	// Export
	ChromeURL string `json:"chrome_ws_url,omitempty"` // Remote Chrome for PDF export

	Verbose bool `json:"verbose,omitempty"` // Debug logging
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Save writes the configuration as JSON, creating parent directories.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}

// DefaultPath returns the config file under the user's config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return filepath.Join(dir, "resume-matcher", "config.json"), nil
}

// ApplyEnv fills empty fields from environment variables. Values already set
// in the file win.
func (c *Config) ApplyEnv() {
	setIfEmpty := func(field *string, env string) {
		if *field == "" {
			*field = os.Getenv(env)
		}
	}
	setIfEmpty(&c.ServerURL, "RESUME_MATCHER_SERVER")
	setIfEmpty(&c.RedisURL, "REDIS_URL")
	setIfEmpty(&c.AIProvider, "AI_PROVIDER")
	setIfEmpty(&c.AIModel, "AI_MODEL")
	setIfEmpty(&c.OllamaURL, "OLLAMA_BASE_URL")
	setIfEmpty(&c.DatabaseURL, "DATABASE_URL")
	setIfEmpty(&c.ChromeURL, "CHROME_WS_URL")
	setIfEmpty(&c.Addr, "ADDR")

	c.AIProvider = strings.ToLower(strings.TrimSpace(c.AIProvider))
	if c.APIKey == "" {
		if env, ok := providerKeyEnv[c.AIProvider]; ok {
			c.APIKey = os.Getenv(env)
		}
	}
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by the commands that need them.
func (c *Config) Validate() error {
	if c.AIProvider != "" && !isProvider(c.AIProvider) {
		return fmt.Errorf("config error: unknown ai_provider %q (want one of %s)",
			c.AIProvider, strings.Join(Providers, ", "))
	}

	for name, raw := range map[string]string{
		"server_url":    c.ServerURL,
		"ollama_url":    c.OllamaURL,
		"chrome_ws_url": c.ChromeURL,
	} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("config error: '%s' is not a valid URL: %s", name, raw)
		}
	}

	return nil
}

// RequiresAPIKey reports whether the selected provider needs a key.
func (c *Config) RequiresAPIKey() bool {
	_, ok := providerKeyEnv[c.AIProvider]
	return ok
}

// APIKeyEnv returns the environment variable consulted for the provider's key.
func (c *Config) APIKeyEnv() string {
	return providerKeyEnv[c.AIProvider]
}

// MergeWithDefaults returns a new Config with empty string fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	for _, pair := range []struct {
		field *string
		def   string
	}{
		{&result.ServerURL, defaults.ServerURL},
		{&result.Token, defaults.Token},
		{&result.CachePath, defaults.CachePath},
		{&result.RedisURL, defaults.RedisURL},
		{&result.AIProvider, defaults.AIProvider},
		{&result.AIModel, defaults.AIModel},
		{&result.APIKey, defaults.APIKey},
		{&result.OllamaURL, defaults.OllamaURL},
		{&result.Addr, defaults.Addr},
		{&result.DatabaseURL, defaults.DatabaseURL},
		{&result.ChromeURL, defaults.ChromeURL},
	} {
		if *pair.field == "" {
			*pair.field = pair.def
		}
	}

	if result.ServerURL == "" {
		result.ServerURL = DefaultServerURL
	}
	if result.AIProvider == "" {
		result.AIProvider = ProviderOpenRouter
	}
	if result.Addr == "" {
		result.Addr = ":8080"
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

func isProvider(p string) bool {
	return slice.Contains(Providers, p)
}
