// Package ingestion turns pasted text, uploaded files and posting URLs into
// clean job description text.
package ingestion

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	inlineSpace = regexp.MustCompile(`[ \t\f\v]+`)
	bulletMark  = regexp.MustCompile(`^[-*\x{2022}\x{00b7}\x{25aa}\x{25cf}\x{25e6}\x{2023}\x{2013}]\s+`)
	orderedMark = regexp.MustCompile(`^(\d{1,2}[.)])\s+`)
)

// invisible maps characters that survive copy/paste from job boards and PDFs
// but carry no meaning. Non-breaking spaces become plain spaces.
var invisible = strings.NewReplacer(
	"\u00a0", " ",
	"\u2007", " ",
	"\u202f", " ",
	"\u200b", "",
	"\u200c", "",
	"\u200d", "",
	"\u2060", "",
	"\ufeff", "",
	"\u00ad", "",
)

// chrome holds whole lines that job boards inject around a posting.
var chrome = map[string]struct{}{
	"show more":             {},
	"show less":             {},
	"see more":              {},
	"see less":              {},
	"read more":             {},
	"\u2026show more":       {},
	"... show more":         {},
	"apply":                 {},
	"easy apply":            {},
	"apply on company site": {},
	"save":                  {},
	"share":                 {},
	"report this job":       {},
	"see who you know":      {},
}

// CleanText normalizes job description text. Headings and list items keep
// their line, list markers become "- " (nested one level with two spaces),
// runs of spaces collapse, and paragraphs are separated by one blank line.
func CleanText(content string) string {
	content = strings.NewReplacer("\r\n", "\n", "\r", "\n").Replace(content)
	content = invisible.Replace(content)

	var b strings.Builder
	blank := false
	for _, raw := range strings.Split(content, "\n") {
		line, ok := normalizeLine(raw)
		if !ok {
			continue
		}
		if line == "" {
			blank = b.Len() > 0
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
			if blank {
				b.WriteByte('\n')
			}
		}
		blank = false
		b.WriteString(line)
	}
	return b.String()
}

// normalizeLine rewrites one line. ok is false for lines that should be
// dropped entirely.
func normalizeLine(raw string) (line string, ok bool) {
	raw = strings.TrimRightFunc(raw, unicode.IsSpace)
	body := strings.TrimLeftFunc(raw, unicode.IsSpace)
	if body == "" {
		return "", true
	}
	if _, skip := chrome[strings.ToLower(body)]; skip {
		return "", false
	}
	indent := len(raw) - len(body)
	body = inlineSpace.ReplaceAllString(body, " ")

	if strings.HasPrefix(body, "#") {
		return body, true
	}
	if m := bulletMark.FindStringSubmatchIndex(body); m != nil {
		item := "- " + body[m[1]:]
		if indent >= 2 {
			return "  " + item, true
		}
		return item, true
	}
	if m := orderedMark.FindStringSubmatch(body); m != nil {
		return m[1] + " " + strings.TrimPrefix(body, m[0]), true
	}
	return body, true
}
