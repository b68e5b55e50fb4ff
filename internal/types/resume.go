// Package types provides type definitions for structured data used throughout the resume-matcher system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "github.com/google/uuid"

// SkillProficiency is the self-assessed level of a skill.
type SkillProficiency string

// Skill proficiency levels
const (
	SkillBeginner     SkillProficiency = "beginner"
	SkillIntermediate SkillProficiency = "intermediate"
	SkillAdvanced     SkillProficiency = "advanced"
	SkillExpert       SkillProficiency = "expert"
)

// LanguageProficiency is the spoken-language fluency level.
type LanguageProficiency string

// Language proficiency levels
const (
	LanguageBasic          LanguageProficiency = "basic"
	LanguageConversational LanguageProficiency = "conversational"
	LanguageProfessional   LanguageProficiency = "professional"
	LanguageNative         LanguageProficiency = "native"
)

// OpenSourceRole is the contributor's role on an open-source project.
type OpenSourceRole string

// Open-source roles
const (
	RoleContributor OpenSourceRole = "contributor"
	RoleMaintainer  OpenSourceRole = "maintainer"
	RoleCreator     OpenSourceRole = "creator"
)

// PersonalInfo holds the resume header. LinkedIn and Website may be empty.
type PersonalInfo struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone,omitempty"`
	Location string `json:"location,omitempty"`
	LinkedIn string `json:"linkedin,omitempty" validate:"omitempty,url"`
	Website  string `json:"website,omitempty" validate:"omitempty,url"`
	Summary  string `json:"summary,omitempty"`
}

// Experience is a single employment entry.
type Experience struct {
	ID          string   `json:"id" validate:"required"`
	Title       string   `json:"title" validate:"required"`
	Company     string   `json:"company" validate:"required"`
	Location    string   `json:"location,omitempty"`
	StartDate   string   `json:"startDate" validate:"required"`
	EndDate     string   `json:"endDate,omitempty"`
	Current     bool     `json:"current"`
	Description string   `json:"description"`
	Highlights  []string `json:"highlights"`
}

// Education is a single degree entry.
type Education struct {
	ID             string `json:"id" validate:"required"`
	Degree         string `json:"degree" validate:"required"`
	Institution    string `json:"institution" validate:"required"`
	Location       string `json:"location,omitempty"`
	GraduationDate string `json:"graduationDate,omitempty"`
	GPA            string `json:"gpa,omitempty"`
}

// Skill is a named skill with a proficiency level.
type Skill struct {
	ID          string           `json:"id" validate:"required"`
	Name        string           `json:"name" validate:"required"`
	Proficiency SkillProficiency `json:"proficiency" validate:"oneof=beginner intermediate advanced expert"`
}

// Language is a spoken language.
type Language struct {
	ID          string              `json:"id" validate:"required"`
	Name        string              `json:"name" validate:"required"`
	Proficiency LanguageProficiency `json:"proficiency" validate:"oneof=basic conversational professional native"`
}

// Certification is a professional certification.
type Certification struct {
	ID     string `json:"id" validate:"required"`
	Name   string `json:"name" validate:"required"`
	Issuer string `json:"issuer" validate:"required"`
	Date   string `json:"date,omitempty"`
	URL    string `json:"url,omitempty" validate:"omitempty,url"`
}

// Project is a personal or professional project.
type Project struct {
	ID           string   `json:"id" validate:"required"`
	Name         string   `json:"name" validate:"required"`
	Description  string   `json:"description"`
	URL          string   `json:"url,omitempty" validate:"omitempty,url"`
	Technologies []string `json:"technologies"`
	Highlights   []string `json:"highlights"`
}

// OpenSource is an open-source contribution entry.
type OpenSource struct {
	ID            string         `json:"id" validate:"required"`
	Project       string         `json:"project" validate:"required"`
	Role          OpenSourceRole `json:"role" validate:"oneof=contributor maintainer creator"`
	URL           string         `json:"url,omitempty" validate:"omitempty,url"`
	Description   string         `json:"description"`
	Contributions []string       `json:"contributions"`
}

// Resume is the root document edited by the user and patched by suggestions.
// Collections are never nil once the document has passed through ApplyDefaults.
// Entity ids are unique within each collection; patches address entries by id.
type Resume struct {
	PersonalInfo   PersonalInfo    `json:"personalInfo"`
	Experience     []Experience    `json:"experience" validate:"unique=ID,dive"`
	Education      []Education     `json:"education" validate:"unique=ID,dive"`
	Skills         []Skill         `json:"skills" validate:"unique=ID,dive"`
	Languages      []Language      `json:"languages" validate:"unique=ID,dive"`
	Certifications []Certification `json:"certifications" validate:"unique=ID,dive"`
	Projects       []Project       `json:"projects" validate:"unique=ID,dive"`
	OpenSource     []OpenSource    `json:"openSource" validate:"unique=ID,dive"`
}

// NewID returns a fresh opaque entity identifier.
func NewID() string {
	return uuid.New().String()
}

// EmptyResume returns the default empty resume.
func EmptyResume() *Resume {
	r := &Resume{}
	r.ApplyDefaults()
	return r
}

// ApplyDefaults fills absent collections and enum values with their defaults.
// It never assigns identifiers.
func (r *Resume) ApplyDefaults() {
	if r.Experience == nil {
		r.Experience = []Experience{}
	}
	for i := range r.Experience {
		if r.Experience[i].Highlights == nil {
			r.Experience[i].Highlights = []string{}
		}
	}
	if r.Education == nil {
		r.Education = []Education{}
	}
	if r.Skills == nil {
		r.Skills = []Skill{}
	}
	for i := range r.Skills {
		if r.Skills[i].Proficiency == "" {
			r.Skills[i].Proficiency = SkillIntermediate
		}
	}
	if r.Languages == nil {
		r.Languages = []Language{}
	}
	for i := range r.Languages {
		if r.Languages[i].Proficiency == "" {
			r.Languages[i].Proficiency = LanguageProfessional
		}
	}
	if r.Certifications == nil {
		r.Certifications = []Certification{}
	}
	if r.Projects == nil {
		r.Projects = []Project{}
	}
	for i := range r.Projects {
		if r.Projects[i].Technologies == nil {
			r.Projects[i].Technologies = []string{}
		}
		if r.Projects[i].Highlights == nil {
			r.Projects[i].Highlights = []string{}
		}
	}
	if r.OpenSource == nil {
		r.OpenSource = []OpenSource{}
	}
	for i := range r.OpenSource {
		if r.OpenSource[i].Role == "" {
			r.OpenSource[i].Role = RoleContributor
		}
		if r.OpenSource[i].Contributions == nil {
			r.OpenSource[i].Contributions = []string{}
		}
	}
}

// IsEmpty reports whether the resume carries no content at all. A cleared
// resume is stored and synced in this form.
func (r *Resume) IsEmpty() bool {
	if r == nil {
		return true
	}
	return r.PersonalInfo == (PersonalInfo{}) &&
		len(r.Experience) == 0 &&
		len(r.Education) == 0 &&
		len(r.Skills) == 0 &&
		len(r.Languages) == 0 &&
		len(r.Certifications) == 0 &&
		len(r.Projects) == 0 &&
		len(r.OpenSource) == 0
}

// Clone returns a deep copy of the resume.
func (r *Resume) Clone() *Resume {
	if r == nil {
		return nil
	}
	c := *r

	c.Experience = make([]Experience, len(r.Experience))
	for i, e := range r.Experience {
		e.Highlights = cloneStrings(e.Highlights)
		c.Experience[i] = e
	}

	c.Education = append([]Education{}, r.Education...)
	c.Skills = append([]Skill{}, r.Skills...)
	c.Languages = append([]Language{}, r.Languages...)
	c.Certifications = append([]Certification{}, r.Certifications...)

	c.Projects = make([]Project, len(r.Projects))
	for i, p := range r.Projects {
		p.Technologies = cloneStrings(p.Technologies)
		p.Highlights = cloneStrings(p.Highlights)
		c.Projects[i] = p
	}

	c.OpenSource = make([]OpenSource, len(r.OpenSource))
	for i, o := range r.OpenSource {
		o.Contributions = cloneStrings(o.Contributions)
		c.OpenSource[i] = o
	}

	return &c
}

// NewExperience returns an experience entry with a fresh ID.
func NewExperience() Experience {
	return Experience{ID: NewID(), Highlights: []string{}}
}

// NewEducation returns an education entry with a fresh ID.
func NewEducation() Education {
	return Education{ID: NewID()}
}

// NewSkill returns a skill with a fresh ID and the default proficiency.
func NewSkill(name string) Skill {
	return Skill{ID: NewID(), Name: name, Proficiency: SkillIntermediate}
}

// NewLanguage returns a language with a fresh ID and the default proficiency.
func NewLanguage(name string) Language {
	return Language{ID: NewID(), Name: name, Proficiency: LanguageProfessional}
}

// NewCertification returns a certification with a fresh ID.
func NewCertification() Certification {
	return Certification{ID: NewID()}
}

// NewProject returns a project with a fresh ID.
func NewProject() Project {
	return Project{ID: NewID(), Technologies: []string{}, Highlights: []string{}}
}

// NewOpenSource returns an open-source entry with a fresh ID and the default role.
func NewOpenSource() OpenSource {
	return OpenSource{ID: NewID(), Role: RoleContributor, Contributions: []string{}}
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string{}, s...)
}
