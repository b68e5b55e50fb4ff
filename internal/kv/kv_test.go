package kv

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "a", "1"))
	require.NoError(t, s.Set(ctx, "b", `{"json":true}`))

	v, ok, err := s.Get(ctx, "b")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"json":true}`, v)

	require.NoError(t, s.Set(ctx, "a", "2"))
	v, _, _ = s.Get(ctx, "a")
	assert.Equal(t, "2", v)

	require.NoError(t, s.SetMany(ctx, map[string]string{"a": "3", "c": "4"}))
	v, _, _ = s.Get(ctx, "a")
	assert.Equal(t, "3", v)
	v, _, _ = s.Get(ctx, "c")
	assert.Equal(t, "4", v)
	require.NoError(t, s.SetMany(ctx, nil))

	require.NoError(t, s.Remove(ctx, "a", "b", "c", "never-set"))
	_, ok, _ = s.Get(ctx, "a")
	assert.False(t, ok)
	_, ok, _ = s.Get(ctx, "b")
	assert.False(t, ok)
	_, ok, _ = s.Get(ctx, "c")
	assert.False(t, ok)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.json")
	exerciseStore(t, NewFileStore(path))
}

func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	ctx := context.Background()

	require.NoError(t, NewFileStore(path).Set(ctx, "k", "v"))

	v, ok, err := NewFileStore(path).Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0600))

	_, _, err := NewFileStore(path).Get(context.Background(), "k")
	assert.Error(t, err)
}

func TestFileStore_WriteReplacesCorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0600))
	ctx := context.Background()

	s := NewFileStore(path)
	s.now = func() time.Time { return time.Unix(1700000000, 0) }

	require.NoError(t, s.SetMany(ctx, map[string]string{"k": "v", "k2": "v2"}))

	v, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	aside, err := os.ReadFile(path + ".corrupt-1700000000")
	require.NoError(t, err)
	assert.Equal(t, "{broken", string(aside))

	// Remove on a corrupt file recovers too.
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0600))
	s.now = func() time.Time { return time.Unix(1700000001, 0) }
	require.NoError(t, s.Remove(ctx, "k"))
	require.NoError(t, s.Set(ctx, "k3", "v3"))
	v, _, err = s.Get(ctx, "k3")
	require.NoError(t, err)
	assert.Equal(t, "v3", v)
	assert.FileExists(t, path+".corrupt-1700000001")
}

func TestRedisStore_Integration(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("Skipping integration test: REDIS_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	s, err := OpenRedisStore(ctx, url, "resume-matcher-test:")
	if err != nil {
		t.Skipf("Skipping integration test: failed to connect to redis: %v", err)
	}
	exerciseStore(t, s)
}
