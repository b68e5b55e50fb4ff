package lifecycle

import (
	"errors"
	"testing"

	"github.com/jonathan/resume-matcher/internal/patch"
	"github.com/jonathan/resume-matcher/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingPatcher delegates to the real engine and records every call.
type countingPatcher struct {
	applies  int
	reverts  int
	currents int
}

func (c *countingPatcher) Apply(r *types.Resume, t patch.Target, s string) *types.Resume {
	c.applies++
	return patch.Apply(r, t, s)
}

func (c *countingPatcher) Revert(r *types.Resume, t patch.Target, o string) *types.Resume {
	c.reverts++
	return patch.Revert(r, t, o)
}

func (c *countingPatcher) Current(r *types.Resume, t patch.Target) (string, bool) {
	c.currents++
	return patch.Current(r, t)
}

func fixture() (*types.Resume, *types.TailoringResult) {
	r := types.EmptyResume()
	r.PersonalInfo = types.PersonalInfo{Name: "Ada", Email: "ada@example.com", Summary: "Mathematician"}
	r.Experience = []types.Experience{{
		ID: "e1", Title: "Analyst", Company: "Babbage", StartDate: "1842",
		Description: "Translated notes", Highlights: []string{"First program"},
	}}

	result := &types.TailoringResult{
		MatchScore: 80,
		Suggestions: []types.Suggestion{
			{ID: "s1", SectionType: types.SectionExperience, ItemID: "e1", Field: "description",
				OriginalContent: "Translated notes", SuggestedContent: "Authored the first algorithm", Status: types.StatusPending},
			{ID: "s2", SectionType: types.SectionSummary, Field: "summary",
				OriginalContent: "Mathematician", SuggestedContent: "Computing pioneer", Status: types.StatusPending},
			{ID: "s3", SectionType: types.SectionExperience, ItemID: "missing", Field: "title",
				OriginalContent: "x", SuggestedContent: "y", Status: types.StatusPending},
		},
	}
	return r, result
}

func TestAccept_AppliesOnce(t *testing.T) {
	r, result := fixture()
	p := &countingPatcher{}
	tr := NewTracker(result, WithPatcher(p))

	out, err := tr.Accept(r, "s1")
	require.NoError(t, err)

	assert.Equal(t, "Authored the first algorithm", out.Experience[0].Description)
	assert.Equal(t, "Translated notes", r.Experience[0].Description)
	assert.Equal(t, 1, p.applies)
	assert.Equal(t, 0, p.reverts)

	s, err := tr.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, types.StatusAccepted, s.Status)
}

func TestAccept_Twice_IsInvalid(t *testing.T) {
	r, result := fixture()
	p := &countingPatcher{}
	tr := NewTracker(result, WithPatcher(p))

	out, err := tr.Accept(r, "s1")
	require.NoError(t, err)

	_, err = tr.Accept(out, "s1")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, 1, p.applies)
}

func TestReject_NoPatch(t *testing.T) {
	_, result := fixture()
	p := &countingPatcher{}
	tr := NewTracker(result, WithPatcher(p))

	require.NoError(t, tr.Reject("s1"))
	assert.Equal(t, 0, p.applies)
	assert.Equal(t, 0, p.reverts)

	err := tr.Reject("s1")
	var te *TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, types.StatusRejected, te.From)
}

func TestUndo_AcceptedReverts(t *testing.T) {
	r, result := fixture()
	p := &countingPatcher{}
	tr := NewTracker(result, WithPatcher(p))

	accepted, err := tr.Accept(r, "s1")
	require.NoError(t, err)

	back, err := tr.Undo(accepted, "s1")
	require.NoError(t, err)

	assert.Equal(t, r, back)
	assert.Equal(t, 1, p.applies)
	assert.Equal(t, 1, p.reverts)

	s, _ := tr.Get("s1")
	assert.Equal(t, types.StatusPending, s.Status)
}

func TestUndo_RejectedIsStatusOnly(t *testing.T) {
	r, result := fixture()
	p := &countingPatcher{}
	tr := NewTracker(result, WithPatcher(p))

	require.NoError(t, tr.Reject("s2"))
	out, err := tr.Undo(r, "s2")
	require.NoError(t, err)

	assert.Same(t, r, out)
	assert.Equal(t, 0, p.applies+p.reverts)
	s, _ := tr.Get("s2")
	assert.Equal(t, types.StatusPending, s.Status)
}

func TestUndo_PendingIsInvalid(t *testing.T) {
	r, result := fixture()
	tr := NewTracker(result)

	_, err := tr.Undo(r, "s1")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUnknownSuggestion(t *testing.T) {
	r, result := fixture()
	tr := NewTracker(result)

	_, err := tr.Accept(r, "nope")
	assert.ErrorIs(t, err, ErrSuggestionNotFound)
	assert.ErrorIs(t, tr.Reject("nope"), ErrSuggestionNotFound)
	_, err = tr.Undo(r, "nope")
	assert.ErrorIs(t, err, ErrSuggestionNotFound)
}

func TestAccept_UnresolvedAddressIsSilent(t *testing.T) {
	r, result := fixture()
	tr := NewTracker(result)

	out, err := tr.Accept(r, "s3")
	require.NoError(t, err)
	assert.Equal(t, r, out)

	s, _ := tr.Get("s3")
	assert.Equal(t, types.StatusAccepted, s.Status)
}

func TestAccept_DriftRejected(t *testing.T) {
	r, result := fixture()
	r.Experience[0].Description = "User rewrote this"
	p := &countingPatcher{}
	tr := NewTracker(result, WithPatcher(p))

	_, err := tr.Accept(r, "s1")
	var de *DriftError
	require.ErrorAs(t, err, &de)
	assert.True(t, errors.Is(err, ErrDrift))
	assert.Equal(t, "User rewrote this", de.Actual)
	assert.Equal(t, 0, p.applies)

	s, _ := tr.Get("s1")
	assert.Equal(t, types.StatusPending, s.Status)
}

func TestUndo_DriftRejected(t *testing.T) {
	r, result := fixture()
	tr := NewTracker(result)

	accepted, err := tr.Accept(r, "s2")
	require.NoError(t, err)
	accepted.PersonalInfo.Summary = "Edited after accepting"

	_, err = tr.Undo(accepted, "s2")
	assert.ErrorIs(t, err, ErrDrift)

	s, _ := tr.Get("s2")
	assert.Equal(t, types.StatusAccepted, s.Status)
}

func TestDriftOverwrite(t *testing.T) {
	r, result := fixture()
	r.Experience[0].Description = "User rewrote this"
	tr := NewTracker(result, WithDriftPolicy(DriftOverwrite))

	out, err := tr.Accept(r, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Authored the first algorithm", out.Experience[0].Description)
}

func TestVisible_HidesRejected(t *testing.T) {
	_, result := fixture()
	tr := NewTracker(result)

	require.NoError(t, tr.Reject("s2"))
	visible := tr.Visible()

	require.Len(t, visible, 2)
	assert.Equal(t, "s1", visible[0].ID)
	assert.Equal(t, "s3", visible[1].ID)
	assert.Len(t, tr.All(), 3)
}

func TestCounts(t *testing.T) {
	r, result := fixture()
	tr := NewTracker(result)

	_, err := tr.Accept(r, "s1")
	require.NoError(t, err)
	require.NoError(t, tr.Reject("s2"))

	counts := tr.Counts()
	assert.Equal(t, 1, counts[types.StatusPending])
	assert.Equal(t, 1, counts[types.StatusAccepted])
	assert.Equal(t, 1, counts[types.StatusRejected])
}

func TestAcceptAll(t *testing.T) {
	r, result := fixture()
	p := &countingPatcher{}
	tr := NewTracker(result, WithPatcher(p))
	require.NoError(t, tr.Reject("s3"))

	out, err := tr.AcceptAll(r)
	require.NoError(t, err)

	assert.Equal(t, "Authored the first algorithm", out.Experience[0].Description)
	assert.Equal(t, "Computing pioneer", out.PersonalInfo.Summary)
	assert.Equal(t, 2, p.applies)
}

func TestAcceptAll_PartialOnDrift(t *testing.T) {
	r, result := fixture()
	tr := NewTracker(result)
	r.PersonalInfo.Summary = "Edited"

	out, err := tr.AcceptAll(r)
	var drift *DriftError
	require.ErrorAs(t, err, &drift)
	assert.Equal(t, "s2", drift.ID)
	assert.Equal(t, "Authored the first algorithm", out.Experience[0].Description)
	assert.Equal(t, types.StatusAccepted, tr.Result().Suggestions[0].Status)
	assert.Equal(t, types.StatusPending, tr.Result().Suggestions[1].Status)
}

func TestCheckpointRestore(t *testing.T) {
	r, result := fixture()
	tr := NewTracker(result)
	require.NoError(t, tr.Reject("s3"))
	cp := tr.Checkpoint()

	_, err := tr.AcceptAll(r)
	require.NoError(t, err)
	assert.Equal(t, 2, tr.Counts()[types.StatusAccepted])

	tr.Restore(cp)
	counts := tr.Counts()
	assert.Equal(t, 2, counts[types.StatusPending])
	assert.Equal(t, 1, counts[types.StatusRejected])
	assert.Zero(t, counts[types.StatusAccepted])
}

func TestNewTracker_CopiesInput(t *testing.T) {
	r, result := fixture()
	tr := NewTracker(result)

	_, err := tr.Accept(r, "s1")
	require.NoError(t, err)
	assert.Equal(t, types.StatusPending, result.Suggestions[0].Status)
	assert.Equal(t, types.StatusAccepted, tr.Result().Suggestions[0].Status)
}

func TestMalformedField_StatusOnly(t *testing.T) {
	r, _ := fixture()
	result := &types.TailoringResult{Suggestions: []types.Suggestion{{
		ID: "bad", SectionType: types.SectionExperience, ItemID: "e1", Field: "highlights.first",
		OriginalContent: "First program", SuggestedContent: "x", Status: types.StatusPending,
	}}}
	tr := NewTracker(result)

	out, err := tr.Accept(r, "bad")
	require.NoError(t, err)
	assert.Equal(t, r, out)
}
