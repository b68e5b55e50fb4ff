// Package export renders a resume as JSON, PDF or DOCX.
package export

import (
	"strconv"
	"strings"

	"github.com/ecodeclub/ekit/slice"
	"github.com/jonathan/resume-matcher/internal/types"
)

// View is the layout shared by the HTML and DOCX renderers.
type View struct {
	Name     string
	Contact  []string
	Summary  string
	Sections []Section
}

// Section is a titled block of entries. Sections with no entries are omitted.
type Section struct {
	Key     string
	Title   string
	Entries []Entry
	// Inline holds sections rendered as one joined line (skills, languages).
	Inline string
}

// Entry is one item inside a section.
type Entry struct {
	Heading     string
	Tag         string
	Date        string
	Subheading  string
	Description string
	Bullets     []string
	Link        string
}

// Section keys in rendering order.
const (
	SectionExperience     = "experience"
	SectionEducation      = "education"
	SectionSkills         = "skills"
	SectionLanguages      = "languages"
	SectionCertifications = "certifications"
	SectionProjects       = "projects"
	SectionOpenSource     = "openSource"
)

const (
	contactSeparator = " • "
	skillSeparator   = "  •  "
)

var monthNames = [...]string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

// NewView lays out r for rendering.
func NewView(r *types.Resume) *View {
	if r == nil {
		r = types.EmptyResume()
	}
	pi := r.PersonalInfo

	v := &View{
		Name:    pi.Name,
		Contact: nonEmpty(pi.Email, pi.Phone, pi.Location, pi.LinkedIn, pi.Website),
		Summary: pi.Summary,
	}

	v.add(Section{Key: SectionExperience, Title: "Experience", Entries: slice.Map(r.Experience, func(_ int, e types.Experience) Entry {
		end := "Present"
		if !e.Current {
			end = FormatDate(e.EndDate)
		}
		return Entry{
			Heading:     e.Title,
			Date:        joinNonEmpty(" – ", FormatDate(e.StartDate), end),
			Subheading:  joinNonEmpty(contactSeparator, e.Company, e.Location),
			Description: e.Description,
			Bullets:     nonEmpty(e.Highlights...),
		}
	})})

	v.add(Section{Key: SectionEducation, Title: "Education", Entries: slice.Map(r.Education, func(_ int, e types.Education) Entry {
		entry := Entry{
			Heading:    e.Degree,
			Date:       FormatDate(e.GraduationDate),
			Subheading: joinNonEmpty(contactSeparator, e.Institution, e.Location),
		}
		if e.GPA != "" {
			entry.Description = "GPA: " + e.GPA
		}
		return entry
	})})

	v.add(Section{Key: SectionSkills, Title: "Skills", Inline: strings.Join(slice.Map(r.Skills, func(_ int, s types.Skill) string {
		return s.Name + " (" + Label(string(s.Proficiency)) + ")"
	}), skillSeparator)})

	v.add(Section{Key: SectionLanguages, Title: "Languages", Inline: strings.Join(slice.Map(r.Languages, func(_ int, l types.Language) string {
		return l.Name + " – " + Label(string(l.Proficiency))
	}), skillSeparator)})

	v.add(Section{Key: SectionCertifications, Title: "Certifications", Entries: slice.Map(r.Certifications, func(_ int, c types.Certification) Entry {
		return Entry{
			Heading:    c.Name,
			Subheading: joinNonEmpty(contactSeparator, c.Issuer, FormatDate(c.Date)),
			Link:       c.URL,
		}
	})})

	v.add(Section{Key: SectionProjects, Title: "Projects", Entries: slice.Map(r.Projects, func(_ int, p types.Project) Entry {
		entry := Entry{
			Heading:     p.Name,
			Description: p.Description,
			Bullets:     nonEmpty(p.Highlights...),
			Link:        p.URL,
		}
		if techs := nonEmpty(p.Technologies...); len(techs) > 0 {
			entry.Subheading = strings.Join(techs, ", ")
		}
		return entry
	})})

	v.add(Section{Key: SectionOpenSource, Title: "Open Source", Entries: slice.Map(r.OpenSource, func(_ int, o types.OpenSource) Entry {
		return Entry{
			Heading:     o.Project,
			Tag:         Label(string(o.Role)),
			Description: o.Description,
			Bullets:     nonEmpty(o.Contributions...),
			Link:        o.URL,
		}
	})})

	return v
}

func (v *View) add(s Section) {
	if len(s.Entries) == 0 && s.Inline == "" {
		return
	}
	v.Sections = append(v.Sections, s)
}

// Section returns the section with the given key.
func (v *View) Section(key string) (Section, bool) {
	for _, s := range v.Sections {
		if s.Key == key {
			return s, true
		}
	}
	return Section{}, false
}

// ContactLine joins the contact fields the way the header prints them.
func (v *View) ContactLine() string {
	return strings.Join(v.Contact, contactSeparator)
}

// FormatDate turns "YYYY-MM" into "Mon YYYY". Values it cannot read are
// returned unchanged.
func FormatDate(s string) string {
	year, month, ok := strings.Cut(s, "-")
	if !ok {
		return s
	}
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > len(monthNames) {
		return s
	}
	return monthNames[m-1] + " " + year
}

// Label capitalizes an enum value (proficiency or role) for display.
func Label(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func nonEmpty(values ...string) []string {
	return slice.FilterMap(values, func(_ int, s string) (string, bool) {
		s = strings.TrimSpace(s)
		return s, s != ""
	})
}

func joinNonEmpty(sep string, values ...string) string {
	return strings.Join(nonEmpty(values...), sep)
}
