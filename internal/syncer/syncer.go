// Package syncer keeps the working resume in a fast local cache and mirrors it
// to an authoritative remote store with debounced, last-writer-wins pushes.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/resume-matcher/internal/document"
	"github.com/jonathan/resume-matcher/internal/kv"
	"github.com/jonathan/resume-matcher/internal/metrics"
	"github.com/jonathan/resume-matcher/internal/schedule"
	"github.com/jonathan/resume-matcher/internal/types"
)

// Local cache keys.
const (
	KeyResumeData      = "resume-matcher-resume-data"
	KeyResumeUpdatedAt = "resume-matcher-resume-updated-at"
)

// Timing defaults.
const (
	DefaultDebounce    = time.Second
	DefaultPushTimeout = 30 * time.Second
	syncedHold         = 2 * time.Second
	errorHold          = 3 * time.Second
)

// Status is the externally visible sync state.
type Status string

// Sync states
const (
	StatusIdle    Status = "idle"
	StatusSyncing Status = "syncing"
	StatusSynced  Status = "synced"
	StatusError   Status = "error"
)

// RemoteSnapshot is the server copy of the resume.
type RemoteSnapshot struct {
	Resume    *types.Resume
	UpdatedAt time.Time
}

// RemoteStore is the authoritative per-user store. Fetch returns (nil, nil)
// when the user has no stored resume.
type RemoteStore interface {
	Fetch(ctx context.Context) (*RemoteSnapshot, error)
	Push(ctx context.Context, r *types.Resume) (time.Time, error)
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithScheduler replaces the wall-clock scheduler.
func WithScheduler(s schedule.Scheduler) Option {
	return func(sy *Synchronizer) { sy.sched = s }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(sy *Synchronizer) { sy.logger = l }
}

// WithMetrics sets the collectors push outcomes are recorded on.
func WithMetrics(m *metrics.Metrics) Option {
	return func(sy *Synchronizer) { sy.metrics = m }
}

// WithDebounce overrides the quiet period before a push.
func WithDebounce(d time.Duration) Option {
	return func(sy *Synchronizer) { sy.debounce = d }
}

// WithPushTimeout bounds background pushes.
func WithPushTimeout(d time.Duration) Option {
	return func(sy *Synchronizer) { sy.pushTimeout = d }
}

// Synchronizer owns the in-memory resume. Every edit is written through to the
// local store immediately; authenticated sessions also push to the remote
// store once edits have been quiet for the debounce period.
type Synchronizer struct {
	local       kv.Store
	remote      RemoteStore
	sched       schedule.Scheduler
	logger      *zap.Logger
	metrics     *metrics.Metrics
	debounce    time.Duration
	pushTimeout time.Duration

	mu            sync.Mutex
	resume        *types.Resume
	authenticated bool
	rev           uint64
	status        Status
	statusGen     uint64
	lastSyncedAt  time.Time
	lastErr       error
	pending       schedule.Cancel
	pendingGen    uint64
	revert        schedule.Cancel
	subs          map[int]func(Status)
	nextSub       int
	closed        bool
	inflight      sync.WaitGroup
}

// New returns a Synchronizer over local and remote. remote may be nil for a
// purely local session.
func New(local kv.Store, remote RemoteStore, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		local:       local,
		remote:      remote,
		sched:       schedule.Real{},
		logger:      zap.NewNop(),
		metrics:     metrics.Default,
		debounce:    DefaultDebounce,
		pushTimeout: DefaultPushTimeout,
		resume:      types.EmptyResume(),
		status:      StatusIdle,
		subs:        make(map[int]func(Status)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type localSnapshot struct {
	resume    *types.Resume
	updatedAt time.Time
}

// Load resolves the starting document. With an authenticated session the local
// cache and the remote copy are read concurrently and the newer one wins, ties
// going to the remote copy. A winning local copy is pushed once.
func (s *Synchronizer) Load(ctx context.Context, authenticated bool) (*types.Resume, error) {
	if s.remote == nil {
		authenticated = false
	}

	var local localSnapshot
	var remote *RemoteSnapshot

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		local = s.readLocal(gctx)
		return nil
	})
	if authenticated {
		g.Go(func() error {
			remote = s.fetchRemote(gctx)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("failed to load resume: %w", err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	s.authenticated = authenticated

	pushNow := false
	switch {
	case remote != nil && !remote.UpdatedAt.Before(local.updatedAt):
		s.resume = remote.Resume
		s.lastSyncedAt = remote.UpdatedAt
		stamp := remote.UpdatedAt
		if stamp.IsZero() {
			stamp = s.sched.Now()
		}
		if err := s.writeLocalLocked(ctx, remote.Resume, stamp); err != nil {
			s.logger.Warn("failed to cache remote resume locally", zap.Error(err))
		}
		s.logger.Debug("remote resume is newer", zap.Time("remote", remote.UpdatedAt), zap.Time("local", local.updatedAt))
	case local.resume != nil:
		s.resume = local.resume
		pushNow = authenticated
		s.logger.Debug("using local resume", zap.Bool("push", pushNow))
	default:
		s.resume = types.EmptyResume()
	}
	s.rev++
	if pushNow {
		s.schedulePushLocked(0)
	}
	out := s.resume.Clone()
	s.mu.Unlock()

	return out, nil
}

// Resume returns a copy of the current document.
func (s *Synchronizer) Resume() *types.Resume {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resume.Clone()
}

// Authenticated reports whether the last Load ran with a remote session.
func (s *Synchronizer) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

// Update replaces the document. The local cache is written before returning;
// a remote push is (re)scheduled for after the debounce period.
func (s *Synchronizer) Update(ctx context.Context, r *types.Resume) error {
	if r == nil {
		return errors.New("resume is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	next := r.Clone()
	if err := s.writeLocalLocked(ctx, next, s.sched.Now()); err != nil {
		return err
	}
	s.resume = next
	s.rev++
	if s.authenticated {
		s.schedulePushLocked(s.debounce)
	}
	return nil
}

// Clear drops the local cache, resets the document to empty and, when
// authenticated, pushes the empty document immediately.
func (s *Synchronizer) Clear(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.cancelPendingLocked()
	s.resume = types.EmptyResume()
	s.rev++
	err := s.local.Remove(ctx, KeyResumeData, KeyResumeUpdatedAt)
	authenticated := s.authenticated
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to clear local resume: %w", err)
	}
	if authenticated {
		return s.push(ctx)
	}
	return nil
}

// Flush runs a pending push now. It is a no-op when nothing is pending.
func (s *Synchronizer) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.pending == nil {
		s.mu.Unlock()
		return nil
	}
	s.cancelPendingLocked()
	s.mu.Unlock()

	return s.push(ctx)
}

// Close cancels timers and waits for in-flight pushes. Pending debounced
// pushes are dropped; call Flush first to keep them.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.cancelPendingLocked()
	if s.revert != nil {
		s.revert()
		s.revert = nil
	}
	s.mu.Unlock()

	s.inflight.Wait()
}

// Status returns the current sync state.
func (s *Synchronizer) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// LastSyncedAt returns the server timestamp of the last successful sync.
func (s *Synchronizer) LastSyncedAt() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSyncedAt, !s.lastSyncedAt.IsZero()
}

// LastError returns the error of the most recent failed push, cleared by the
// next successful one.
func (s *Synchronizer) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Pending reports whether a debounced push is scheduled.
func (s *Synchronizer) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

// Subscribe registers fn for status changes. The returned func unsubscribes.
func (s *Synchronizer) Subscribe(fn func(Status)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Synchronizer) readLocal(ctx context.Context) localSnapshot {
	raw, ok, err := s.local.Get(ctx, KeyResumeData)
	if err != nil {
		s.logger.Warn("failed to read local resume", zap.Error(err))
		return localSnapshot{}
	}
	if !ok {
		return localSnapshot{}
	}
	r, err := document.ParseResume([]byte(raw))
	if err != nil {
		s.logger.Warn("ignoring invalid local resume", zap.Error(err))
		return localSnapshot{}
	}

	snap := localSnapshot{resume: r}
	stamp, ok, err := s.local.Get(ctx, KeyResumeUpdatedAt)
	if err != nil || !ok {
		return snap
	}
	if t, err := time.Parse(time.RFC3339Nano, stamp); err == nil {
		snap.updatedAt = t
	} else {
		s.logger.Warn("ignoring malformed local timestamp", zap.String("value", stamp))
	}
	return snap
}

func (s *Synchronizer) fetchRemote(ctx context.Context) *RemoteSnapshot {
	snap, err := s.remote.Fetch(ctx)
	switch {
	case errors.Is(err, ErrUnauthorized):
		s.logger.Info("remote session rejected, using local resume")
		return nil
	case err != nil:
		s.logger.Warn("failed to fetch remote resume", zap.Error(err))
		return nil
	case snap == nil || snap.Resume == nil:
		return nil
	}
	snap.Resume.ApplyDefaults()
	if err := document.ValidateResume(snap.Resume); err != nil {
		s.logger.Warn("ignoring invalid remote resume", zap.Error(err))
		return nil
	}
	return snap
}

func (s *Synchronizer) writeLocalLocked(ctx context.Context, r *types.Resume, stamp time.Time) error {
	raw, err := marshalResume(r)
	if err != nil {
		return err
	}
	err = s.local.SetMany(ctx, map[string]string{
		KeyResumeData:      raw,
		KeyResumeUpdatedAt: stamp.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("failed to write local resume: %w", err)
	}
	return nil
}

func (s *Synchronizer) schedulePushLocked(delay time.Duration) {
	s.cancelPendingLocked()
	gen := s.pendingGen
	s.pending = s.sched.AfterFunc(delay, func() {
		s.mu.Lock()
		// A timer that fired while being replaced or flushed must not push.
		if s.closed || s.pending == nil || s.pendingGen != gen {
			s.mu.Unlock()
			return
		}
		s.pending = nil
		s.mu.Unlock()

		ctx, done := context.WithTimeout(context.Background(), s.pushTimeout)
		defer done()
		_ = s.push(ctx)
	})
}

func (s *Synchronizer) cancelPendingLocked() {
	s.pendingGen++
	if s.pending != nil {
		s.pending()
		s.pending = nil
	}
}

func (s *Synchronizer) push(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	r := s.resume.Clone()
	rev := s.rev
	s.inflight.Add(1)
	notify := s.setStatusLocked(StatusSyncing)
	s.mu.Unlock()
	notify()
	defer s.inflight.Done()

	updatedAt, err := s.remote.Push(ctx, r)
	s.metrics.ObserveSync(err)

	s.mu.Lock()
	if err != nil {
		s.lastErr = err
		notify = s.setStatusLocked(StatusError)
		s.mu.Unlock()
		notify()
		s.logger.Warn("failed to push resume", zap.Error(err))
		return fmt.Errorf("failed to push resume: %w", err)
	}

	s.lastErr = nil
	if !updatedAt.IsZero() {
		s.lastSyncedAt = updatedAt
		// Newer edits keep their own timestamp so they are not mistaken for
		// the pushed copy on the next load.
		if s.rev == rev {
			if err := s.local.Set(ctx, KeyResumeUpdatedAt, updatedAt.UTC().Format(time.RFC3339Nano)); err != nil {
				s.logger.Warn("failed to record sync timestamp", zap.Error(err))
			}
		}
	}
	notify = s.setStatusLocked(StatusSynced)
	s.mu.Unlock()
	notify()
	s.logger.Debug("resume pushed", zap.Time("updatedAt", updatedAt))
	return nil
}

// setStatusLocked changes the status, arms the auto-revert for the terminal
// states and returns a func that notifies subscribers. Call it after unlocking.
func (s *Synchronizer) setStatusLocked(st Status) func() {
	s.status = st
	s.statusGen++
	gen := s.statusGen
	if s.revert != nil {
		s.revert()
		s.revert = nil
	}

	var hold time.Duration
	switch st {
	case StatusSynced:
		hold = syncedHold
	case StatusError:
		hold = errorHold
	}
	if hold > 0 && !s.closed {
		s.revert = s.sched.AfterFunc(hold, func() { s.revertToIdle(gen) })
	}
	return s.notifier(st)
}

func (s *Synchronizer) revertToIdle(gen uint64) {
	s.mu.Lock()
	if s.statusGen != gen {
		s.mu.Unlock()
		return
	}
	s.revert = nil
	s.status = StatusIdle
	s.statusGen++
	notify := s.notifier(StatusIdle)
	s.mu.Unlock()
	notify()
}

func (s *Synchronizer) notifier(st Status) func() {
	if len(s.subs) == 0 {
		return func() {}
	}
	subs := make([]func(Status), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	return func() {
		for _, fn := range subs {
			fn(st)
		}
	}
}
