//nolint:revive // types is a standard Go package name pattern
package types

// JobDescription is the raw posting pasted or fetched by the user.
type JobDescription struct {
	Description string `json:"description" validate:"required"`
	LinkedInURL string `json:"linkedinUrl,omitempty" validate:"omitempty,url"`
}

// ExperienceYears is an optional years-of-experience range.
type ExperienceYears struct {
	Min *int `json:"min,omitempty" validate:"omitempty,min=0"`
	Max *int `json:"max,omitempty" validate:"omitempty,min=0"`
}

// JobRequirements is the structured result of analyzing a job description.
type JobRequirements struct {
	Title            string           `json:"title,omitempty"`
	Company          string           `json:"company,omitempty"`
	RequiredSkills   []string         `json:"requiredSkills"`
	PreferredSkills  []string         `json:"preferredSkills"`
	Qualifications   []string         `json:"qualifications"`
	ExperienceYears  *ExperienceYears `json:"experienceYears,omitempty"`
	Responsibilities []string         `json:"responsibilities"`
	Benefits         []string         `json:"benefits"`
	Keywords         []string         `json:"keywords"`
}

// ApplyDefaults replaces absent lists with empty ones.
func (j *JobRequirements) ApplyDefaults() {
	for _, list := range []*[]string{
		&j.RequiredSkills, &j.PreferredSkills, &j.Qualifications,
		&j.Responsibilities, &j.Benefits, &j.Keywords,
	} {
		if *list == nil {
			*list = []string{}
		}
	}
}

// Normalize swaps an inverted experience range so Min never exceeds Max.
func (j *JobRequirements) Normalize() {
	ey := j.ExperienceYears
	if ey == nil || ey.Min == nil || ey.Max == nil {
		return
	}
	if *ey.Min > *ey.Max {
		ey.Min, ey.Max = ey.Max, ey.Min
	}
}

// IsEmpty reports whether there is nothing to tailor against.
func (j *JobRequirements) IsEmpty() bool {
	return len(j.RequiredSkills) == 0 && len(j.Responsibilities) == 0
}
