// Package workspace is the client-side session: it owns the synchronized
// resume, the job history and the suggestion tracker of the latest tailoring
// run, and routes AI and export calls through them.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/jonathan/resume-matcher/internal/document"
	"github.com/jonathan/resume-matcher/internal/export"
	"github.com/jonathan/resume-matcher/internal/fetch"
	"github.com/jonathan/resume-matcher/internal/gateway"
	"github.com/jonathan/resume-matcher/internal/history"
	"github.com/jonathan/resume-matcher/internal/ingestion"
	"github.com/jonathan/resume-matcher/internal/kv"
	"github.com/jonathan/resume-matcher/internal/lifecycle"
	"github.com/jonathan/resume-matcher/internal/metrics"
	"github.com/jonathan/resume-matcher/internal/syncer"
	"github.com/jonathan/resume-matcher/internal/types"
)

// Messages returned in gateway results for failures the workspace detects itself.
const (
	msgNoGateway      = "AI provider is not configured"
	msgNoRequirements = "Analyze a job description before tailoring"
	msgNoFetcher      = "Fetching job postings is not configured"
)

// ErrNoTailoring is returned by suggestion operations before Tailor has succeeded.
var ErrNoTailoring = errors.New("no tailoring result; run tailor first")

// Options configures Open.
type Options struct {
	Local         kv.Store
	Remote        syncer.RemoteStore // nil for local-only sessions
	Authenticated bool
	Gateway       gateway.Gateway // nil disables AnalyzeJob and Tailor
	Fetcher       *fetch.CachedFetcher
	Export        export.Options
	Metrics       *metrics.Metrics
	Logger        *zap.Logger
	SyncOptions   []syncer.Option
	TrackerOpts   []lifecycle.Option
}

// Workspace is safe for concurrent use.
type Workspace struct {
	sync       *syncer.Synchronizer
	history    *history.History
	gateway    gateway.Gateway
	fetcher    *fetch.CachedFetcher
	exportOpts export.Options
	trackerOpt []lifecycle.Option
	log        *zap.Logger

	mu           sync.Mutex
	requirements *types.JobRequirements
	tracker      *lifecycle.Tracker
}

// Open loads the resume and the job history.
func Open(ctx context.Context, opts Options) (*Workspace, error) {
	if opts.Local == nil {
		return nil, errors.New("workspace: local store is required")
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	syncOpts := []syncer.Option{syncer.WithLogger(log.Named("sync"))}
	if opts.Metrics != nil {
		syncOpts = append(syncOpts, syncer.WithMetrics(opts.Metrics))
	}
	syncOpts = append(syncOpts, opts.SyncOptions...)

	w := &Workspace{
		sync:       syncer.New(opts.Local, opts.Remote, syncOpts...),
		history:    history.New(opts.Local, history.WithLogger(log.Named("history"))),
		gateway:    opts.Gateway,
		fetcher:    opts.Fetcher,
		exportOpts: opts.Export,
		trackerOpt: append([]lifecycle.Option{lifecycle.WithLogger(log.Named("suggestions"))}, opts.TrackerOpts...),
		log:        log,
	}

	if _, err := w.sync.Load(ctx, opts.Authenticated && opts.Remote != nil); err != nil {
		w.sync.Close()
		return nil, fmt.Errorf("failed to load resume: %w", err)
	}
	if err := w.history.Load(ctx); err != nil {
		w.log.Warn("failed to load job history", zap.Error(err))
	}
	return w, nil
}

// Resume returns a copy of the working resume.
func (w *Workspace) Resume() *types.Resume {
	return w.sync.Resume()
}

// Edit applies fn to a copy of the resume and stores the result.
func (w *Workspace) Edit(ctx context.Context, fn func(r *types.Resume)) error {
	r := w.sync.Resume()
	fn(r)
	return w.sync.Update(ctx, r)
}

// ImportJSON replaces the resume with a validated JSON upload.
func (w *Workspace) ImportJSON(ctx context.Context, src io.Reader) (*types.Resume, error) {
	r, err := document.ParseResumeUpload(src)
	if err != nil {
		return nil, err
	}
	if err := w.sync.Update(ctx, r); err != nil {
		return nil, err
	}
	w.resetTracker()
	return r, nil
}

// Clear empties the resume and drops the current suggestions.
func (w *Workspace) Clear(ctx context.Context) error {
	if err := w.sync.Clear(ctx); err != nil {
		return err
	}
	w.resetTracker()
	return nil
}

// AnalyzeJob extracts requirements from desc. A description left empty is
// fetched from desc.LinkedInURL. Successful analyses are added to the history
// and become the current requirements.
func (w *Workspace) AnalyzeJob(ctx context.Context, desc types.JobDescription) gateway.Result[types.JobRequirements] {
	if w.gateway == nil {
		return gateway.Result[types.JobRequirements]{Error: msgNoGateway}
	}

	if strings.TrimSpace(desc.Description) == "" && desc.LinkedInURL != "" {
		if w.fetcher == nil {
			return gateway.Result[types.JobRequirements]{Error: msgNoFetcher}
		}
		text, md, err := ingestion.FromURL(ctx, w.fetcher, desc.LinkedInURL)
		if err != nil {
			w.log.Warn("failed to fetch job posting", zap.String("url", desc.LinkedInURL), zap.Error(err))
			return gateway.Result[types.JobRequirements]{Error: err.Error()}
		}
		w.log.Debug("fetched job posting", zap.String("platform", md.Platform), zap.Bool("cached", md.FromCache))
		desc.Description = text
	} else {
		desc.Description = ingestion.CleanText(desc.Description)
	}

	req, err := w.gateway.AnalyzeJob(ctx, desc.Description)
	if err != nil {
		return gateway.NewResult(req, err)
	}

	if _, err := w.history.Add(ctx, desc, req); err != nil {
		w.log.Warn("failed to record job history", zap.Error(err))
	}
	w.mu.Lock()
	w.requirements = req
	w.tracker = nil
	w.mu.Unlock()
	return gateway.NewResult(req, nil)
}

// UseHistory makes a previously analyzed job the current one.
func (w *Workspace) UseHistory(id string) (types.JobHistoryEntry, error) {
	entry, err := w.history.Get(id)
	if err != nil {
		return entry, err
	}
	if entry.Requirements == nil {
		return entry, fmt.Errorf("job history entry %s has no requirements", id)
	}
	w.mu.Lock()
	w.requirements = entry.Requirements
	w.tracker = nil
	w.mu.Unlock()
	return entry, nil
}

// Requirements returns the current job requirements, or nil.
func (w *Workspace) Requirements() *types.JobRequirements {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.requirements
}

// Tailor requests suggestions for the working resume against the current
// requirements and starts a new suggestion tracker.
func (w *Workspace) Tailor(ctx context.Context) gateway.Result[types.TailoringResult] {
	if w.gateway == nil {
		return gateway.Result[types.TailoringResult]{Error: msgNoGateway}
	}
	req := w.Requirements()
	if req == nil {
		return gateway.Result[types.TailoringResult]{Error: msgNoRequirements}
	}

	result, err := w.gateway.Tailor(ctx, w.sync.Resume(), req)
	if err != nil {
		return gateway.NewResult(result, err)
	}

	tracker := lifecycle.NewTracker(result, w.trackerOpt...)
	w.mu.Lock()
	w.tracker = tracker
	w.mu.Unlock()
	return gateway.NewResult(tracker.Result(), nil)
}

// Suggestions returns the non-rejected suggestions of the latest tailoring run.
func (w *Workspace) Suggestions() []types.Suggestion {
	t := w.currentTracker()
	if t == nil {
		return nil
	}
	return t.Visible()
}

// Counts returns suggestion counts by status.
func (w *Workspace) Counts() map[types.SuggestionStatus]int {
	t := w.currentTracker()
	if t == nil {
		return map[types.SuggestionStatus]int{}
	}
	return t.Counts()
}

// Accept applies a suggestion to the resume and stores it.
func (w *Workspace) Accept(ctx context.Context, id string) error {
	return w.mutate(ctx, func(t *lifecycle.Tracker, r *types.Resume) (*types.Resume, error) {
		return t.Accept(r, id)
	})
}

// Undo restores the original content of an accepted suggestion.
func (w *Workspace) Undo(ctx context.Context, id string) error {
	return w.mutate(ctx, func(t *lifecycle.Tracker, r *types.Resume) (*types.Resume, error) {
		return t.Undo(r, id)
	})
}

// AcceptAll applies every pending suggestion.
func (w *Workspace) AcceptAll(ctx context.Context) error {
	return w.mutate(ctx, func(t *lifecycle.Tracker, r *types.Resume) (*types.Resume, error) {
		return t.AcceptAll(r)
	})
}

// Reject hides a pending suggestion. The resume is untouched.
func (w *Workspace) Reject(id string) error {
	t := w.currentTracker()
	if t == nil {
		return ErrNoTailoring
	}
	return t.Reject(id)
}

// Export renders the working resume, naming the file after the current job.
func (w *Workspace) Export(ctx context.Context, format string) (*export.File, error) {
	rd, err := export.ForFormat(format, w.exportOpts)
	if err != nil {
		return nil, err
	}
	var title, company string
	if req := w.Requirements(); req != nil {
		title, company = req.Title, req.Company
	}
	return export.Export(ctx, rd, w.sync.Resume(), title, company)
}

// History returns the analyzed jobs, newest first.
func (w *Workspace) History() []types.JobHistoryEntry {
	return w.history.List()
}

// DeleteHistory removes one history entry.
func (w *Workspace) DeleteHistory(ctx context.Context, id string) error {
	return w.history.Delete(ctx, id)
}

// ClearHistory removes all history entries.
func (w *Workspace) ClearHistory(ctx context.Context) error {
	return w.history.Clear(ctx)
}

// Status reports the synchronizer state.
func (w *Workspace) Status() syncer.Status {
	return w.sync.Status()
}

// Sync exposes the synchronizer for status reporting.
func (w *Workspace) Sync() *syncer.Synchronizer {
	return w.sync
}

// Close pushes pending changes and stops the synchronizer.
func (w *Workspace) Close(ctx context.Context) error {
	err := w.sync.Flush(ctx)
	w.sync.Close()
	if err != nil {
		return fmt.Errorf("failed to push pending changes: %w", err)
	}
	return nil
}

func (w *Workspace) currentTracker() *lifecycle.Tracker {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tracker
}

func (w *Workspace) resetTracker() {
	w.mu.Lock()
	w.tracker = nil
	w.mu.Unlock()
}

// mutate serializes tracker transitions so the read-apply-store sequence sees
// a consistent resume. A partial result returned alongside an error (AcceptAll
// stopping midway) is still stored. If storing fails, statuses go back to
// where they were before fn ran.
func (w *Workspace) mutate(ctx context.Context, fn func(*lifecycle.Tracker, *types.Resume) (*types.Resume, error)) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.tracker == nil {
		return ErrNoTailoring
	}
	cp := w.tracker.Checkpoint()
	cur := w.sync.Resume()
	next, err := fn(w.tracker, cur)
	if next == nil || next == cur {
		return err
	}
	if uerr := w.sync.Update(ctx, next); uerr != nil {
		w.tracker.Restore(cp)
		w.log.Warn("rolled back suggestion statuses", zap.Error(uerr))
		return uerr
	}
	return err
}
