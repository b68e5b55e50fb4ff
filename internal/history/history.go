// Package history keeps the most recent analyzed job descriptions in the local
// cache as a bounded newest-first list.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ecodeclub/ekit/slice"
	"go.uber.org/zap"

	"github.com/jonathan/resume-matcher/internal/document"
	"github.com/jonathan/resume-matcher/internal/kv"
	"github.com/jonathan/resume-matcher/internal/types"
)

// Key is the local cache slot holding the serialized history.
const Key = "resume-matcher-job-history"

// ErrNotFound is returned when no entry has the requested id.
var ErrNotFound = errors.New("job history entry not found")

// History is a ring buffer of at most types.MaxJobHistoryEntries entries.
// Every mutation is persisted before it returns.
type History struct {
	store  kv.Store
	now    func() time.Time
	logger *zap.Logger

	mu      sync.Mutex
	entries []types.JobHistoryEntry
}

// Option configures a History.
type Option func(*History)

// WithClock overrides time.Now for entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(h *History) { h.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(h *History) { h.logger = l }
}

// New returns an empty history over store. Call Load to read persisted entries.
func New(store kv.Store, opts ...Option) *History {
	h := &History{
		store:   store,
		now:     time.Now,
		logger:  zap.NewNop(),
		entries: []types.JobHistoryEntry{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Load reads the persisted history. Invalid stored data is logged and
// replaced with an empty history.
func (h *History) Load(ctx context.Context) error {
	raw, ok, err := h.store.Get(ctx, Key)
	if err != nil {
		return fmt.Errorf("failed to read job history: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = []types.JobHistoryEntry{}
	if !ok {
		return nil
	}

	entries, err := document.ParseJobHistory([]byte(raw))
	if err != nil {
		h.logger.Warn("invalid job history in local cache, using empty history", zap.Error(err))
		return nil
	}
	if len(entries) > types.MaxJobHistoryEntries {
		entries = entries[:types.MaxJobHistoryEntries]
	}
	h.entries = entries
	return nil
}

// Add records a new entry at the front, evicting the oldest entry when full.
func (h *History) Add(ctx context.Context, desc types.JobDescription, req *types.JobRequirements) (types.JobHistoryEntry, error) {
	entry := types.JobHistoryEntry{
		ID:             types.NewID(),
		CreatedAt:      h.now().UTC().Format(time.RFC3339Nano),
		JobDescription: desc,
		Requirements:   req,
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	next := make([]types.JobHistoryEntry, 0, types.MaxJobHistoryEntries)
	next = append(next, entry)
	next = append(next, h.entries...)
	if len(next) > types.MaxJobHistoryEntries {
		next = next[:types.MaxJobHistoryEntries]
	}
	if err := h.persistLocked(ctx, next); err != nil {
		return types.JobHistoryEntry{}, err
	}
	return entry, nil
}

// Delete removes the entry with id.
func (h *History) Delete(ctx context.Context, id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if slice.IndexFunc(h.entries, func(e types.JobHistoryEntry) bool { return e.ID == id }) < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	next := slice.FilterMap(h.entries, func(_ int, e types.JobHistoryEntry) (types.JobHistoryEntry, bool) {
		return e, e.ID != id
	})
	return h.persistLocked(ctx, next)
}

// Clear removes every entry and the cache slot.
func (h *History) Clear(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.store.Remove(ctx, Key); err != nil {
		return fmt.Errorf("failed to clear job history: %w", err)
	}
	h.entries = []types.JobHistoryEntry{}
	return nil
}

// List returns the entries newest first.
func (h *History) List() []types.JobHistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]types.JobHistoryEntry{}, h.entries...)
}

// Get returns the entry with id.
func (h *History) Get(id string) (types.JobHistoryEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	idx := slice.IndexFunc(h.entries, func(e types.JobHistoryEntry) bool { return e.ID == id })
	if idx < 0 {
		return types.JobHistoryEntry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return h.entries[idx], nil
}

func (h *History) persistLocked(ctx context.Context, entries []types.JobHistoryEntry) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal job history: %w", err)
	}
	if err := h.store.Set(ctx, Key, string(raw)); err != nil {
		return fmt.Errorf("failed to save job history: %w", err)
	}
	h.entries = entries
	return nil
}
