package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/resume-matcher/internal/kv"
)

// DefaultCacheTTL is how long a fetched posting is reused.
const DefaultCacheTTL = 7 * 24 * time.Hour

const cacheKeyPrefix = "resume-matcher-fetch:"

// CachedFetcher wraps JobPosting with a key-value cache of extracted text.
type CachedFetcher struct {
	store   kv.Store
	options *Options
	ttl     time.Duration
	now     func() time.Time
	log     *zap.Logger
	fetch   func(ctx context.Context, url string, opts *Options) (*Result, error)
}

// CachedFetcherConfig holds configuration for the cached fetcher.
type CachedFetcherConfig struct {
	CacheTTL time.Duration
	Options  *Options
	Logger   *zap.Logger
}

// NewCachedFetcher creates a fetcher that stores results in store. A nil
// store disables caching.
func NewCachedFetcher(store kv.Store, config *CachedFetcherConfig) *CachedFetcher {
	if config == nil {
		config = &CachedFetcherConfig{}
	}
	f := &CachedFetcher{
		store:   store,
		options: config.Options,
		ttl:     config.CacheTTL,
		now:     time.Now,
		log:     config.Logger,
		fetch:   JobPosting,
	}
	if f.options == nil {
		f.options = DefaultOptions()
	}
	if f.ttl == 0 {
		f.ttl = DefaultCacheTTL
	}
	if f.log == nil {
		f.log = zap.NewNop()
	}
	return f
}

// CachedResult extends Result with cache metadata.
type CachedResult struct {
	*Result
	FromCache bool
	FetchedAt time.Time
}

type cacheEntry struct {
	URL       string    `json:"url"`
	Text      string    `json:"text"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// Fetch returns the cached posting text when fresh and fetches otherwise.
// Cache failures are logged and never fail the fetch.
func (f *CachedFetcher) Fetch(ctx context.Context, urlStr string) (*CachedResult, error) {
	if entry := f.lookup(ctx, urlStr); entry != nil {
		return &CachedResult{
			Result:    &Result{URL: entry.URL, Text: entry.Text, StatusCode: 200},
			FromCache: true,
			FetchedAt: entry.FetchedAt,
		}, nil
	}

	result, err := f.fetch(ctx, urlStr, f.options)
	if err != nil {
		return nil, err
	}

	fetchedAt := f.now().UTC()
	if f.store != nil && result.Text != "" {
		raw, err := json.Marshal(cacheEntry{URL: urlStr, Text: result.Text, FetchedAt: fetchedAt})
		if err == nil {
			err = f.store.Set(ctx, cacheKey(urlStr), string(raw))
		}
		if err != nil {
			f.log.Warn("failed to cache fetched page", zap.String("url", urlStr), zap.Error(err))
		}
	}

	return &CachedResult{Result: result, FetchedAt: fetchedAt}, nil
}

// InvalidateCache drops the cached copy of urlStr.
func (f *CachedFetcher) InvalidateCache(ctx context.Context, urlStr string) error {
	if f.store == nil {
		return nil
	}
	return f.store.Remove(ctx, cacheKey(urlStr))
}

func (f *CachedFetcher) lookup(ctx context.Context, urlStr string) *cacheEntry {
	if f.store == nil {
		return nil
	}
	raw, ok, err := f.store.Get(ctx, cacheKey(urlStr))
	if err != nil {
		f.log.Warn("failed to read fetch cache", zap.String("url", urlStr), zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}
	var entry cacheEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		f.log.Warn("discarding corrupt fetch cache entry", zap.String("url", urlStr), zap.Error(err))
		return nil
	}
	if f.now().Sub(entry.FetchedAt) > f.ttl {
		return nil
	}
	return &entry
}

// cacheKey hashes the canonical form of urlStr.
func cacheKey(urlStr string) string {
	sum := sha256.Sum256([]byte(Canonical(urlStr)))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}
