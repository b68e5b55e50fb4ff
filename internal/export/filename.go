package export

import (
	"regexp"
	"strings"

	"github.com/jonathan/resume-matcher/internal/types"
)

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]`)
	dashRun         = regexp.MustCompile(`-+`)
)

const defaultBaseName = "resume"

// Sanitize lowercases s and reduces it to dash-separated alphanumerics.
func Sanitize(s string) string {
	s = nonAlphanumeric.ReplaceAllString(strings.ToLower(s), "-")
	s = dashRun.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Filename builds the download name for a rendered resume. The job title is
// preferred over the company as a suffix. ext is given without the dot.
func Filename(r *types.Resume, jobTitle, company, ext string) string {
	name := baseName(r)
	if t := Sanitize(jobTitle); t != "" {
		name += "-" + t
	} else if c := Sanitize(company); c != "" {
		name += "-" + c
	}
	return name + "." + ext
}

// JSONFilename is the name used for JSON exports.
func JSONFilename(r *types.Resume) string {
	return baseName(r) + "-resume.json"
}

func baseName(r *types.Resume) string {
	if r == nil {
		return defaultBaseName
	}
	if n := Sanitize(r.PersonalInfo.Name); n != "" {
		return n
	}
	return defaultBaseName
}
