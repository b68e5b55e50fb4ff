package lifecycle

import (
	"errors"
	"fmt"

	"github.com/jonathan/resume-matcher/internal/types"
)

// Sentinel errors for errors.Is checks.
var (
	ErrInvalidTransition  = errors.New("invalid suggestion transition")
	ErrSuggestionNotFound = errors.New("suggestion not found")
	ErrDrift              = errors.New("resume changed since suggestion was generated")
)

// TransitionError reports an action that is not legal from the current status.
type TransitionError struct {
	ID     string
	Action string
	From   types.SuggestionStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s suggestion %s: status is %s", e.Action, e.ID, e.From)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// DriftError reports that the live value at a suggestion's address no longer
// matches the value the transition expects to replace.
type DriftError struct {
	ID       string
	Target   string
	Expected string
	Actual   string
}

func (e *DriftError) Error() string {
	return fmt.Sprintf("suggestion %s: %s was edited (expected %q, found %q)", e.ID, e.Target, e.Expected, e.Actual)
}

func (e *DriftError) Unwrap() error {
	return ErrDrift
}
