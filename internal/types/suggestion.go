//nolint:revive // types is a standard Go package name pattern
package types

// SectionType identifies which part of the resume a suggestion targets.
type SectionType string

// Section types
const (
	SectionSummary    SectionType = "summary"
	SectionExperience SectionType = "experience"
	SectionEducation  SectionType = "education"
	SectionSkills     SectionType = "skills"
	SectionProjects   SectionType = "projects"
	SectionOpenSource SectionType = "openSource"
)

// SuggestionStatus is the lifecycle state of a suggestion.
type SuggestionStatus string

// Suggestion statuses
const (
	StatusPending  SuggestionStatus = "pending"
	StatusAccepted SuggestionStatus = "accepted"
	StatusRejected SuggestionStatus = "rejected"
)

// MatchType describes how a job skill relates to the resume.
type MatchType string

// Match types
const (
	MatchExact   MatchType = "exact"
	MatchPartial MatchType = "partial"
	MatchRelated MatchType = "related"
)

// Suggestion is one proposed content change. OriginalContent and
// SuggestedContent are both retained so the change can be undone.
type Suggestion struct {
	ID               string           `json:"id" validate:"required"`
	SectionType      SectionType      `json:"sectionType" validate:"oneof=summary experience education skills projects openSource"`
	ItemID           string           `json:"itemId,omitempty"`
	Field            string           `json:"field" validate:"required"`
	OriginalContent  string           `json:"originalContent"`
	SuggestedContent string           `json:"suggestedContent"`
	Reason           string           `json:"reason"`
	Status           SuggestionStatus `json:"status" validate:"oneof=pending accepted rejected"`
}

// SkillMatch reports one job skill and whether the resume covers it.
type SkillMatch struct {
	Skill      string    `json:"skill" validate:"required"`
	MatchType  MatchType `json:"matchType" validate:"oneof=exact partial related"`
	FromResume string    `json:"fromResume,omitempty"`
	IsRequired *bool     `json:"isRequired,omitempty"`
}

// Required reports IsRequired, treating an absent value as true.
func (m SkillMatch) Required() bool {
	return m.IsRequired == nil || *m.IsRequired
}

// TailoringResult is the full output of a tailoring request.
type TailoringResult struct {
	MatchScore       int          `json:"matchScore" validate:"min=0,max=100"`
	MatchedSkills    []SkillMatch `json:"matchedSkills" validate:"dive"`
	MissingSkills    []string     `json:"missingSkills"`
	Suggestions      []Suggestion `json:"suggestions" validate:"dive"`
	Strengths        []string     `json:"strengths"`
	ImprovementAreas []string     `json:"improvementAreas"`
}

// ApplyDefaults fills absent lists, suggestion ids and statuses, and the
// isRequired flag of skill matches.
func (t *TailoringResult) ApplyDefaults() {
	if t.MatchedSkills == nil {
		t.MatchedSkills = []SkillMatch{}
	}
	if t.MissingSkills == nil {
		t.MissingSkills = []string{}
	}
	if t.Suggestions == nil {
		t.Suggestions = []Suggestion{}
	}
	if t.Strengths == nil {
		t.Strengths = []string{}
	}
	if t.ImprovementAreas == nil {
		t.ImprovementAreas = []string{}
	}
	for i := range t.Suggestions {
		if t.Suggestions[i].ID == "" {
			t.Suggestions[i].ID = NewID()
		}
		if t.Suggestions[i].Status == "" {
			t.Suggestions[i].Status = StatusPending
		}
	}
	for i := range t.MatchedSkills {
		if t.MatchedSkills[i].IsRequired == nil {
			required := true
			t.MatchedSkills[i].IsRequired = &required
		}
	}
}
