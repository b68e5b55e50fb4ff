package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"go.uber.org/zap"

	"github.com/jonathan/resume-matcher/internal/browser"
	"github.com/jonathan/resume-matcher/internal/config"
	"github.com/jonathan/resume-matcher/internal/export"
	"github.com/jonathan/resume-matcher/internal/fetch"
	"github.com/jonathan/resume-matcher/internal/gateway"
	"github.com/jonathan/resume-matcher/internal/kv"
	"github.com/jonathan/resume-matcher/internal/llm"
	"github.com/jonathan/resume-matcher/internal/logging"
	"github.com/jonathan/resume-matcher/internal/metrics"
	"github.com/jonathan/resume-matcher/internal/remote"
	"github.com/jonathan/resume-matcher/internal/workspace"
)

// redisNamespace prefixes every key written to a shared Redis cache.
const redisNamespace = "resume-matcher"

// resolveConfigPath returns --config or the per-user default.
func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.DefaultPath()
}

// readConfigFile loads the config file as written, treating a missing file
// as empty.
func readConfigFile() (*config.Config, string, error) {
	path, err := resolveConfigPath()
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &config.Config{}, path, nil
		}
		return nil, "", err
	}
	return cfg, path, nil
}

// loadConfig returns the effective configuration: file, then environment,
// then defaults.
func loadConfig() (*config.Config, error) {
	cfg, _, err := readConfigFile()
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	merged := cfg.MergeWithDefaults(config.Config{})
	if verbose {
		merged.Verbose = true
	}
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

// openLocalStore returns the Redis cache when configured, else the JSON file cache.
func openLocalStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (kv.Store, error) {
	if cfg.RedisURL != "" {
		return kv.OpenRedisStore(ctx, cfg.RedisURL, redisNamespace)
	}
	path := cfg.CachePath
	if path == "" {
		var err error
		if path, err = kv.DefaultPath(); err != nil {
			return nil, err
		}
	}
	return kv.NewFileStore(path, kv.WithFileLogger(log)), nil
}

// newLLMConfig maps the CLI configuration onto a provider configuration.
func newLLMConfig(cfg *config.Config) *llm.Config {
	lc := llm.DefaultConfig(llm.Provider(cfg.AIProvider))
	if cfg.AIModel != "" {
		lc = lc.WithAllModels(cfg.AIModel)
	}
	lc.APIKey = cfg.APIKey
	if lc.Provider == llm.ProviderOllama && cfg.OllamaURL != "" {
		lc.BaseURL = cfg.OllamaURL
	}
	return lc
}

// newGateway builds the AI gateway. The returned func releases the client.
func newGateway(ctx context.Context, cfg *config.Config, log *zap.Logger, m *metrics.Metrics) (*gateway.Service, func(), error) {
	client, err := llm.NewClient(ctx, newLLMConfig(cfg))
	if err != nil {
		return nil, nil, err
	}
	gw := gateway.New(client, gateway.WithLogger(log.Named("gateway")), gateway.WithMetrics(m))
	return gw, func() {
		if err := client.Close(); err != nil {
			log.Debug("failed to close AI client", zap.Error(err))
		}
	}, nil
}

func browserOptions(cfg *config.Config, log *zap.Logger) browser.Options {
	return browser.Options{RemoteURL: cfg.ChromeURL, Logger: log.Named("browser")}
}

// session bundles what a workspace command needs.
type session struct {
	cfg     *config.Config
	log     *zap.Logger
	ws      *workspace.Workspace
	closers []func()
}

// openSession loads the workspace. withAI requires a working AI provider.
func openSession(ctx context.Context, withAI bool) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.Verbose)
	if err != nil {
		return nil, err
	}
	s := &session{cfg: cfg, log: log}

	local, err := openLocalStore(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open local cache: %w", err)
	}

	opts := workspace.Options{
		Local:   local,
		Export:  export.Options{Browser: browserOptions(cfg, log)},
		Metrics: metrics.Default,
		Logger:  log,
	}
	if cfg.Token != "" {
		opts.Remote = remote.New(cfg.ServerURL, cfg.Token)
		opts.Authenticated = true
	}

	if withAI {
		gw, closeGW, err := newGateway(ctx, cfg, log, metrics.Default)
		if err != nil {
			return nil, fmt.Errorf("failed to configure AI provider: %w", err)
		}
		s.closers = append(s.closers, closeGW)
		opts.Gateway = gw

		fetchOpts := fetch.DefaultOptions()
		b := browserOptions(cfg, log)
		fetchOpts.Browser = &b
		fetchOpts.Logger = log.Named("fetch")
		opts.Fetcher = fetch.NewCachedFetcher(local, &fetch.CachedFetcherConfig{Options: fetchOpts, Logger: log.Named("fetch")})
	}

	ws, err := workspace.Open(ctx, opts)
	if err != nil {
		s.runClosers()
		return nil, err
	}
	s.ws = ws
	return s, nil
}

// Close pushes pending edits and releases resources.
func (s *session) Close(ctx context.Context) error {
	defer s.runClosers()
	defer func() { _ = s.log.Sync() }()
	return s.ws.Close(ctx)
}

func (s *session) runClosers() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// withSession opens a session, runs fn and closes the session. A failed
// final push is reported but not fatal: edits are already in the local cache.
func withSession(ctx context.Context, withAI bool, fn func(*session) error) error {
	s, err := openSession(ctx, withAI)
	if err != nil {
		return err
	}
	runErr := fn(s)
	if err := s.Close(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: changes are saved locally but were not synced: %v\n", err)
	}
	return runErr
}
