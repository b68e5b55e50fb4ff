package kv

import (
	"context"
	"fmt"

	"github.com/ecodeclub/ecache"
	eredis "github.com/ecodeclub/ecache/redis"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the cache in Redis under a namespace. Values never expire.
type RedisStore struct {
	cache     ecache.Cache
	client    redis.Cmdable
	namespace string
}

// NewRedisStore wraps an existing go-redis client.
func NewRedisStore(client redis.Cmdable, namespace string) *RedisStore {
	return &RedisStore{
		cache: &ecache.NamespaceCache{
			C:         eredis.NewCache(client),
			Namespace: namespace,
		},
		client:    client,
		namespace: namespace,
	}
}

// OpenRedisStore parses a redis:// URL, checks connectivity and returns a store.
func OpenRedisStore(ctx context.Context, url, namespace string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return NewRedisStore(client, namespace), nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	val := s.cache.Get(ctx, key)
	if val.KeyNotFound() {
		return "", false, nil
	}
	if val.Err != nil {
		return "", false, fmt.Errorf("failed to get %s: %w", key, val.Err)
	}
	str, err := val.String()
	if err != nil {
		return "", false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return str, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.cache.Set(ctx, key, value, 0); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// SetMany writes all pairs with one MSET. ecache has no multi-key set, so
// keys are namespaced here the same way NamespaceCache does it.
func (s *RedisStore) SetMany(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	pairs := make([]any, 0, 2*len(values))
	for k, v := range values {
		pairs = append(pairs, s.namespace+k, v)
	}
	if err := s.client.MSet(ctx, pairs...).Err(); err != nil {
		return fmt.Errorf("failed to set %d keys: %w", len(values), err)
	}
	return nil
}

func (s *RedisStore) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if _, err := s.cache.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("failed to delete keys: %w", err)
	}
	return nil
}
