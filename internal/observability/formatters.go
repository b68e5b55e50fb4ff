// Package observability provides formatted terminal output for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jonathan/resume-matcher/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 72
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 8
)

// Printer handles formatted output for interactive commands
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		for _, wrapped := range wrap(line, boxWidth-4) {
			fmt.Fprintf(p.out, "│ %s%s │\n", wrapped, strings.Repeat(" ", boxWidth-4-len([]rune(wrapped))))
		}
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// wrap splits line into chunks of at most width runes, breaking on spaces
// where possible.
func wrap(line string, width int) []string {
	runes := []rune(line)
	if len(runes) <= width {
		return []string{line}
	}
	var out []string
	for len(runes) > width {
		cut := width
		for i := width; i > width/2; i-- {
			if runes[i] == ' ' {
				cut = i
				break
			}
		}
		out = append(out, strings.TrimRight(string(runes[:cut]), " "))
		runes = []rune(strings.TrimLeft(string(runes[cut:]), " "))
	}
	if len(runes) > 0 {
		out = append(out, string(runes))
	}
	return out
}

func writeList(sb *strings.Builder, label string, items []string, limit int) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(label + ":\n")
	count := min(len(items), limit)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("  • %s\n", items[i]))
	}
	if len(items) > limit {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(items)-limit))
	}
	sb.WriteString("\n")
}

// PrintJobRequirements outputs a summary of analyzed job requirements.
func (p *Printer) PrintJobRequirements(req *types.JobRequirements) {
	if req == nil {
		return
	}

	var sb strings.Builder
	if req.Title != "" {
		sb.WriteString(fmt.Sprintf("Role:     %s\n", req.Title))
	}
	if req.Company != "" {
		sb.WriteString(fmt.Sprintf("Company:  %s\n", req.Company))
	}
	if ey := req.ExperienceYears; ey != nil && (ey.Min != nil || ey.Max != nil) {
		sb.WriteString(fmt.Sprintf("Experience: %s years\n", yearsRange(ey)))
	}
	sb.WriteString("\n")

	writeList(&sb, "Required skills", req.RequiredSkills, maxItemsToShow)
	writeList(&sb, "Preferred skills", req.PreferredSkills, maxItemsToShow)
	writeList(&sb, "Responsibilities", req.Responsibilities, 5)
	writeList(&sb, "Keywords", req.Keywords, maxItemsToShow)

	p.printBox("JOB REQUIREMENTS", strings.TrimRight(sb.String(), "\n"))
}

func yearsRange(ey *types.ExperienceYears) string {
	switch {
	case ey.Min != nil && ey.Max != nil:
		return fmt.Sprintf("%d-%d", *ey.Min, *ey.Max)
	case ey.Min != nil:
		return fmt.Sprintf("%d+", *ey.Min)
	default:
		return fmt.Sprintf("up to %d", *ey.Max)
	}
}

// PrintTailoringResult outputs the match score and skill analysis.
func (p *Printer) PrintTailoringResult(result *types.TailoringResult) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Match score: %d%%\n\n", result.MatchScore))

	matched := make([]string, 0, len(result.MatchedSkills))
	for _, m := range result.MatchedSkills {
		label := fmt.Sprintf("%s (%s)", m.Skill, m.MatchType)
		if !m.Required() {
			label += " [preferred]"
		}
		matched = append(matched, label)
	}
	writeList(&sb, "Matched skills", matched, maxItemsToShow)
	writeList(&sb, "Missing skills", result.MissingSkills, maxItemsToShow)
	writeList(&sb, "Strengths", result.Strengths, 5)
	writeList(&sb, "Improvement areas", result.ImprovementAreas, 5)
	sb.WriteString(fmt.Sprintf("%d suggestions", len(result.Suggestions)))

	p.printBox("TAILORING ANALYSIS", sb.String())
}

// PrintSuggestion outputs one suggestion as a before/after diff.
func (p *Printer) PrintSuggestion(s types.Suggestion, index, total int) {
	var sb strings.Builder
	target := string(s.SectionType)
	if s.Field != "" && s.SectionType != types.SectionSummary {
		target += " › " + s.Field
	}
	sb.WriteString(fmt.Sprintf("Target:  %s\n", target))
	sb.WriteString(fmt.Sprintf("Status:  %s\n\n", s.Status))
	sb.WriteString("- " + orPlaceholder(s.OriginalContent) + "\n")
	sb.WriteString("+ " + orPlaceholder(s.SuggestedContent) + "\n")
	if s.Reason != "" {
		sb.WriteString("\nWhy: " + s.Reason)
	}

	p.printBox(fmt.Sprintf("SUGGESTION %d/%d", index, total), strings.TrimRight(sb.String(), "\n"))
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(empty)"
	}
	return s
}

// PrintCounts outputs suggestion totals by status.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintCounts(counts map[types.SuggestionStatus]int) {
	fmt.Fprintf(p.out, "%d accepted, %d rejected, %d pending\n",
		counts[types.StatusAccepted], counts[types.StatusRejected], counts[types.StatusPending])
}

// PrintHistory outputs saved job analyses, newest first.
func (p *Printer) PrintHistory(entries []types.JobHistoryEntry) {
	if len(entries) == 0 {
		p.printBox("JOB HISTORY", "No saved job analyses")
		return
	}

	var sb strings.Builder
	for i, e := range entries {
		title := "Untitled job"
		if e.Requirements != nil {
			switch {
			case e.Requirements.Title != "" && e.Requirements.Company != "":
				title = e.Requirements.Title + " at " + e.Requirements.Company
			case e.Requirements.Title != "":
				title = e.Requirements.Title
			case e.Requirements.Company != "":
				title = e.Requirements.Company
			}
		}
		sb.WriteString(fmt.Sprintf("%2d. %s\n", i+1, title))
		sb.WriteString(fmt.Sprintf("    %s  %s\n", formatTimestamp(e.CreatedAt), e.ID))
	}

	p.printBox("JOB HISTORY", strings.TrimRight(sb.String(), "\n"))
}

func formatTimestamp(s string) string {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return s
	}
	return t.Local().Format("2006-01-02 15:04")
}

// PrintResume outputs a section-by-section overview of the resume.
func (p *Printer) PrintResume(r *types.Resume) {
	if r == nil || r.IsEmpty() {
		p.printBox("RESUME", "Resume is empty")
		return
	}

	var sb strings.Builder
	pi := r.PersonalInfo
	sb.WriteString(fmt.Sprintf("Name:     %s\n", pi.Name))
	sb.WriteString(fmt.Sprintf("Email:    %s\n", pi.Email))
	if pi.Summary != "" {
		sb.WriteString(fmt.Sprintf("Summary:  %s\n", pi.Summary))
	}
	sb.WriteString("\n")

	experience := make([]string, 0, len(r.Experience))
	for _, e := range r.Experience {
		experience = append(experience, fmt.Sprintf("%s, %s (%d highlights)", e.Title, e.Company, len(e.Highlights)))
	}
	writeList(&sb, "Experience", experience, maxItemsToShow)

	skills := make([]string, 0, len(r.Skills))
	for _, s := range r.Skills {
		skills = append(skills, s.Name)
	}
	if len(skills) > 0 {
		sb.WriteString("Skills: " + strings.Join(skills, ", ") + "\n")
	}
	sb.WriteString(fmt.Sprintf("Education: %d  Projects: %d  Open source: %d  Certifications: %d  Languages: %d",
		len(r.Education), len(r.Projects), len(r.OpenSource), len(r.Certifications), len(r.Languages)))

	p.printBox("RESUME", sb.String())
}
