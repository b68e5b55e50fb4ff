// Package patch applies and reverts suggestion content at field addresses
// inside a resume. Both directions share one install routine and always work
// on a copy, so the input resume is never mutated.
package patch

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jonathan/resume-matcher/internal/types"
)

// FieldAddress names the target slot inside one entity: either a scalar field
// or one element of a string list.
type FieldAddress interface {
	fieldAddress()
	String() string
}

// Scalar addresses a plain string field such as "description".
type Scalar struct {
	Name string
}

func (Scalar) fieldAddress() {}

func (s Scalar) String() string { return s.Name }

// ArrayIndex addresses element Index of the list named Name, e.g. "highlights.2".
type ArrayIndex struct {
	Name  string
	Index int
}

func (ArrayIndex) fieldAddress() {}

func (a ArrayIndex) String() string { return fmt.Sprintf("%s.%d", a.Name, a.Index) }

// ParseField converts the wire form of a suggestion field into a FieldAddress.
func ParseField(field string) (FieldAddress, error) {
	if field == "" {
		return nil, &AddressError{Field: field, Message: "field is empty"}
	}

	name, idx, found := strings.Cut(field, ".")
	if !found {
		return Scalar{Name: field}, nil
	}
	if name == "" || strings.Contains(idx, ".") {
		return nil, &AddressError{Field: field, Message: "expected <list>.<index>"}
	}

	n, err := strconv.Atoi(idx)
	if err != nil || n < 0 {
		return nil, &AddressError{Field: field, Message: "index must be a non-negative integer"}
	}
	return ArrayIndex{Name: name, Index: n}, nil
}

// Target is a fully resolved suggestion address.
type Target struct {
	Section types.SectionType
	ItemID  string
	Field   FieldAddress
}

// NewTarget builds the address of a suggestion. Field strings are parsed once
// here so the engine only ever sees structured addresses.
func NewTarget(s *types.Suggestion) (Target, error) {
	if s.SectionType == types.SectionSummary {
		return Target{Section: types.SectionSummary, Field: Scalar{Name: "summary"}}, nil
	}

	field, err := ParseField(s.Field)
	if err != nil {
		return Target{}, err
	}
	return Target{Section: s.SectionType, ItemID: s.ItemID, Field: field}, nil
}

func (t Target) String() string {
	if t.Section == types.SectionSummary {
		return "summary"
	}
	return fmt.Sprintf("%s[%s].%s", t.Section, t.ItemID, t.Field)
}
