package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// FileStore persists all keys in a single JSON object on disk. Writes go to a
// temporary file first and are renamed into place.
//
// Reads of an unparsable file fail. Writes move such a file aside (suffix
// ".corrupt-<unix>") and start over from an empty object, so one bad file
// never blocks later saves.
type FileStore struct {
	path   string
	mu     sync.Mutex
	logger *zap.Logger
	now    func() time.Time
}

// FileOption configures a FileStore.
type FileOption func(*FileStore)

// WithFileLogger sets the logger used when a corrupt file is replaced.
func WithFileLogger(l *zap.Logger) FileOption {
	return func(f *FileStore) { f.logger = l }
}

// NewFileStore returns a store backed by path. The file is created lazily.
func NewFileStore(path string, opts ...FileOption) *FileStore {
	f := &FileStore{path: path, logger: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// DefaultPath returns the cache file under the user's config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return filepath.Join(dir, "resume-matcher", "cache.json"), nil
}

func (f *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.read()
	if err != nil {
		return "", false, err
	}
	v, ok := data[key]
	return v, ok, nil
}

func (f *FileStore) Set(ctx context.Context, key, value string) error {
	return f.SetMany(ctx, map[string]string{key: value})
}

// SetMany writes all pairs with a single file replacement.
func (f *FileStore) SetMany(_ context.Context, values map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.readForWrite()
	if err != nil {
		return err
	}
	for k, v := range values {
		data[k] = v
	}
	return f.write(data)
}

func (f *FileStore) Remove(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.readForWrite()
	if err != nil {
		return err
	}
	for _, k := range keys {
		delete(data, k)
	}
	return f.write(data)
}

// errCorrupt marks a cache file that exists but is not a JSON object of strings.
var errCorrupt = errors.New("cache file is corrupt")

func (f *FileStore) read() (map[string]string, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache file %s: %w", f.path, err)
	}

	data := make(map[string]string)
	if len(raw) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse cache file %s: %w: %w", f.path, errCorrupt, err)
	}
	return data, nil
}

// readForWrite is read, except that a corrupt file is moved aside and
// replaced by an empty map.
func (f *FileStore) readForWrite() (map[string]string, error) {
	data, err := f.read()
	if !errors.Is(err, errCorrupt) {
		return data, err
	}
	aside := fmt.Sprintf("%s.corrupt-%d", f.path, f.now().Unix())
	if rerr := os.Rename(f.path, aside); rerr != nil {
		return nil, fmt.Errorf("failed to move corrupt cache file aside: %w", rerr)
	}
	f.logger.Warn("replaced corrupt cache file", zap.String("path", f.path), zap.String("moved_to", aside), zap.Error(err))
	return make(map[string]string), nil
}

func (f *FileStore) write(data map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".cache-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace cache file: %w", err)
	}
	return nil
}
