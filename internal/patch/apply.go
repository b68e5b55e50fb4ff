package patch

import (
	"github.com/ecodeclub/ekit/slice"
	"github.com/jonathan/resume-matcher/internal/types"
)

// Apply installs suggested content at the target and returns the new resume.
// An address that does not resolve yields an unchanged copy.
func Apply(r *types.Resume, t Target, suggested string) *types.Resume {
	return install(r, t, suggested)
}

// Revert installs the original content at the target. It is the same
// operation as Apply with the other half of the suggestion.
func Revert(r *types.Resume, t Target, original string) *types.Resume {
	return install(r, t, original)
}

// Current returns the live value at the target, or false if the address does
// not resolve.
func Current(r *types.Resume, t Target) (string, bool) {
	if r == nil {
		return "", false
	}
	slot := locate(r, t)
	if slot == nil {
		return "", false
	}
	return *slot, true
}

// Resolves reports whether the target exists in the resume.
func Resolves(r *types.Resume, t Target) bool {
	_, ok := Current(r, t)
	return ok
}

func install(r *types.Resume, t Target, content string) *types.Resume {
	out := r.Clone()
	if out == nil {
		return nil
	}
	if slot := locate(out, t); slot != nil {
		*slot = content
	}
	return out
}

// locate returns a pointer to the addressed string inside r, or nil.
func locate(r *types.Resume, t Target) *string {
	switch t.Section {
	case types.SectionSummary:
		return &r.PersonalInfo.Summary

	case types.SectionExperience:
		i := slice.IndexFunc(r.Experience, func(e types.Experience) bool { return e.ID == t.ItemID })
		if i < 0 {
			return nil
		}
		e := &r.Experience[i]
		return pick(t.Field,
			fields{"title": &e.Title, "company": &e.Company, "location": &e.Location, "description": &e.Description},
			lists{"highlights": e.Highlights})

	case types.SectionEducation:
		i := slice.IndexFunc(r.Education, func(e types.Education) bool { return e.ID == t.ItemID })
		if i < 0 {
			return nil
		}
		e := &r.Education[i]
		return pick(t.Field,
			fields{"degree": &e.Degree, "institution": &e.Institution, "location": &e.Location},
			nil)

	case types.SectionSkills:
		i := slice.IndexFunc(r.Skills, func(s types.Skill) bool { return s.ID == t.ItemID })
		if i < 0 {
			return nil
		}
		return pick(t.Field, fields{"name": &r.Skills[i].Name}, nil)

	case types.SectionProjects:
		i := slice.IndexFunc(r.Projects, func(p types.Project) bool { return p.ID == t.ItemID })
		if i < 0 {
			return nil
		}
		p := &r.Projects[i]
		return pick(t.Field,
			fields{"name": &p.Name, "description": &p.Description},
			lists{"highlights": p.Highlights, "technologies": p.Technologies})

	case types.SectionOpenSource:
		i := slice.IndexFunc(r.OpenSource, func(o types.OpenSource) bool { return o.ID == t.ItemID })
		if i < 0 {
			return nil
		}
		o := &r.OpenSource[i]
		return pick(t.Field,
			fields{"project": &o.Project, "description": &o.Description},
			lists{"contributions": o.Contributions})
	}
	return nil
}

type (
	fields map[string]*string
	lists  map[string][]string
)

func pick(addr FieldAddress, scalars fields, arrays lists) *string {
	switch a := addr.(type) {
	case Scalar:
		return scalars[a.Name]
	case ArrayIndex:
		list, ok := arrays[a.Name]
		if !ok || a.Index >= len(list) {
			return nil
		}
		return &list[a.Index]
	}
	return nil
}
