// Package lifecycle tracks the pending/accepted/rejected state of tailoring
// suggestions and keeps the resume consistent with it: crossing into accepted
// applies a suggestion exactly once, crossing out of accepted reverts it once.
package lifecycle

import (
	"sync"

	"github.com/ecodeclub/ekit/slice"
	"github.com/jonathan/resume-matcher/internal/patch"
	"github.com/jonathan/resume-matcher/internal/types"
	"go.uber.org/zap"
)

// Patcher is the resume mutation surface the tracker depends on.
type Patcher interface {
	Apply(r *types.Resume, t patch.Target, suggested string) *types.Resume
	Revert(r *types.Resume, t patch.Target, original string) *types.Resume
	Current(r *types.Resume, t patch.Target) (string, bool)
}

type enginePatcher struct{}

func (enginePatcher) Apply(r *types.Resume, t patch.Target, s string) *types.Resume {
	return patch.Apply(r, t, s)
}

func (enginePatcher) Revert(r *types.Resume, t patch.Target, o string) *types.Resume {
	return patch.Revert(r, t, o)
}

func (enginePatcher) Current(r *types.Resume, t patch.Target) (string, bool) {
	return patch.Current(r, t)
}

// DefaultPatcher uses the patch package directly.
var DefaultPatcher Patcher = enginePatcher{}

// DriftPolicy controls what happens when the live value at a suggestion's
// address differs from what the transition expects.
type DriftPolicy int

const (
	// DriftReject refuses the transition with a *DriftError.
	DriftReject DriftPolicy = iota
	// DriftOverwrite installs the new value regardless.
	DriftOverwrite
)

// Option configures a Tracker.
type Option func(*Tracker)

// WithPatcher replaces the patch engine.
func WithPatcher(p Patcher) Option {
	return func(t *Tracker) { t.patcher = p }
}

// WithDriftPolicy sets the drift policy. The default is DriftReject.
func WithDriftPolicy(p DriftPolicy) Option {
	return func(t *Tracker) { t.drift = p }
}

// WithLogger sets the logger used for malformed suggestion warnings.
func WithLogger(l *zap.Logger) Option {
	return func(t *Tracker) { t.logger = l }
}

// Tracker owns one tailoring result. Status changes are in-memory only.
type Tracker struct {
	mu      sync.Mutex
	result  *types.TailoringResult
	targets map[string]patch.Target
	patcher Patcher
	drift   DriftPolicy
	logger  *zap.Logger
}

// NewTracker wraps a tailoring result. The result is copied; later changes
// to the argument are not observed.
func NewTracker(result *types.TailoringResult, opts ...Option) *Tracker {
	t := &Tracker{
		patcher: DefaultPatcher,
		drift:   DriftReject,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}

	cp := *result
	cp.Suggestions = append([]types.Suggestion{}, result.Suggestions...)
	t.result = &cp

	t.targets = make(map[string]patch.Target, len(cp.Suggestions))
	for i := range cp.Suggestions {
		s := &cp.Suggestions[i]
		target, err := patch.NewTarget(s)
		if err != nil {
			// Unparseable fields never resolve, so transitions on them are status-only.
			t.logger.Warn("suggestion has malformed field address",
				zap.String("suggestion_id", s.ID), zap.Error(err))
			target = patch.Target{Section: s.SectionType, ItemID: s.ItemID}
		}
		t.targets[s.ID] = target
	}
	return t
}

// Accept moves a pending suggestion to accepted and returns the patched resume.
func (t *Tracker) Accept(r *types.Resume, id string) (*types.Resume, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, err := t.find(id)
	if err != nil {
		return nil, err
	}
	if s.Status != types.StatusPending {
		return nil, &TransitionError{ID: id, Action: "accept", From: s.Status}
	}

	target := t.targets[id]
	if err := t.checkDrift(r, s, target, s.OriginalContent); err != nil {
		return nil, err
	}

	out := t.patcher.Apply(r, target, s.SuggestedContent)
	s.Status = types.StatusAccepted
	return out, nil
}

// Reject moves a pending suggestion to rejected. The resume is not touched.
func (t *Tracker) Reject(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, err := t.find(id)
	if err != nil {
		return err
	}
	if s.Status != types.StatusPending {
		return &TransitionError{ID: id, Action: "reject", From: s.Status}
	}
	s.Status = types.StatusRejected
	return nil
}

// Undo returns an accepted or rejected suggestion to pending. Undoing an
// accepted suggestion reverts its content; undoing a rejection only changes
// the status and returns r unchanged.
func (t *Tracker) Undo(r *types.Resume, id string) (*types.Resume, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, err := t.find(id)
	if err != nil {
		return nil, err
	}

	switch s.Status {
	case types.StatusAccepted:
		target := t.targets[id]
		if err := t.checkDrift(r, s, target, s.SuggestedContent); err != nil {
			return nil, err
		}
		out := t.patcher.Revert(r, target, s.OriginalContent)
		s.Status = types.StatusPending
		return out, nil
	case types.StatusRejected:
		s.Status = types.StatusPending
		return r, nil
	default:
		return nil, &TransitionError{ID: id, Action: "undo", From: s.Status}
	}
}

// AcceptAll accepts every pending suggestion in order. It stops at the first
// failure and returns the resume as patched up to that point together with
// the error; suggestions accepted before the failure stay accepted.
func (t *Tracker) AcceptAll(r *types.Resume) (*types.Resume, error) {
	for _, s := range t.All() {
		if s.Status != types.StatusPending {
			continue
		}
		next, err := t.Accept(r, s.ID)
		if err != nil {
			return r, err
		}
		r = next
	}
	return r, nil
}

// Checkpoint is a snapshot of suggestion statuses taken by Checkpoint.
type Checkpoint struct {
	statuses []types.SuggestionStatus
}

// Checkpoint records the current status of every suggestion.
func (t *Tracker) Checkpoint() Checkpoint {
	t.mu.Lock()
	defer t.mu.Unlock()

	return Checkpoint{statuses: slice.Map(t.result.Suggestions, func(_ int, s types.Suggestion) types.SuggestionStatus {
		return s.Status
	})}
}

// Restore puts statuses back to a checkpoint. Used when the resume produced
// by a transition could not be stored.
func (t *Tracker) Restore(cp Checkpoint) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.result.Suggestions {
		if i < len(cp.statuses) {
			t.result.Suggestions[i].Status = cp.statuses[i]
		}
	}
}

// Visible returns the suggestions shown by default: everything not rejected.
func (t *Tracker) Visible() []types.Suggestion {
	t.mu.Lock()
	defer t.mu.Unlock()

	return slice.FilterMap(t.result.Suggestions, func(_ int, s types.Suggestion) (types.Suggestion, bool) {
		return s, s.Status != types.StatusRejected
	})
}

// All returns every suggestion including rejected ones.
func (t *Tracker) All() []types.Suggestion {
	t.mu.Lock()
	defer t.mu.Unlock()

	return append([]types.Suggestion{}, t.result.Suggestions...)
}

// Get returns a copy of one suggestion.
func (t *Tracker) Get(id string) (types.Suggestion, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, err := t.find(id)
	if err != nil {
		return types.Suggestion{}, err
	}
	return *s, nil
}

// Counts tallies suggestions by status.
func (t *Tracker) Counts() map[types.SuggestionStatus]int {
	t.mu.Lock()
	defer t.mu.Unlock()

	counts := map[types.SuggestionStatus]int{
		types.StatusPending:  0,
		types.StatusAccepted: 0,
		types.StatusRejected: 0,
	}
	for _, s := range t.result.Suggestions {
		counts[s.Status]++
	}
	return counts
}

// Result returns a copy of the tailoring result with current statuses.
func (t *Tracker) Result() *types.TailoringResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	cp := *t.result
	cp.Suggestions = append([]types.Suggestion{}, t.result.Suggestions...)
	return &cp
}

func (t *Tracker) find(id string) (*types.Suggestion, error) {
	i := slice.IndexFunc(t.result.Suggestions, func(s types.Suggestion) bool { return s.ID == id })
	if i < 0 {
		return nil, ErrSuggestionNotFound
	}
	return &t.result.Suggestions[i], nil
}

// checkDrift compares the live value with expected. Addresses that do not
// resolve are left to the patcher's no-op behaviour.
func (t *Tracker) checkDrift(r *types.Resume, s *types.Suggestion, target patch.Target, expected string) error {
	if t.drift == DriftOverwrite {
		return nil
	}
	actual, ok := t.patcher.Current(r, target)
	if !ok || actual == expected {
		return nil
	}
	return &DriftError{ID: s.ID, Target: target.String(), Expected: expected, Actual: actual}
}
