package export

import (
	"archive/zip"
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/resume-matcher/internal/types"
	"github.com/lukasjarosch/go-docx"
)

//go:embed templates/resume.docx
var docxTemplate []byte

const documentPart = "word/document.xml"

// Section keys double as template placeholders; each section also has a
// "<key>Title" placeholder for its heading.
var docxSections = []string{
	SectionExperience, SectionEducation, SectionSkills, SectionLanguages,
	SectionCertifications, SectionProjects, SectionOpenSource,
}

// Placeholder values are plain text. Line breaks and tabs inside a value
// become run-level breaks and tabs once the template is filled.
var runBreaks = strings.NewReplacer(
	"\n", `</w:t><w:br/><w:t xml:space="preserve">`,
	"&#xA;", `</w:t><w:br/><w:t xml:space="preserve">`,
	"&#10;", `</w:t><w:br/><w:t xml:space="preserve">`,
	"\t", `</w:t><w:tab/><w:t xml:space="preserve">`,
	"&#x9;", `</w:t><w:tab/><w:t xml:space="preserve">`,
	"&#9;", `</w:t><w:tab/><w:t xml:space="preserve">`,
)

// DOCXRenderer fills the embedded Word template.
type DOCXRenderer struct{}

func (DOCXRenderer) Format() string { return FormatDOCX }
func (DOCXRenderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
}

func (DOCXRenderer) Render(_ context.Context, r *types.Resume) ([]byte, error) {
	return DOCX(r)
}

// DOCX renders r as a Word document.
func DOCX(r *types.Resume) ([]byte, error) {
	doc, err := docx.OpenBytes(docxTemplate)
	if err != nil {
		return nil, &RenderError{Format: FormatDOCX, Message: "failed to open template", Cause: err}
	}

	if err := doc.ReplaceAll(Placeholders(NewView(r))); err != nil {
		return nil, &RenderError{Format: FormatDOCX, Message: "failed to fill template", Cause: err}
	}

	var filled bytes.Buffer
	if err := doc.Write(&filled); err != nil {
		return nil, &RenderError{Format: FormatDOCX, Message: "failed to write document", Cause: err}
	}

	out, err := rewritePart(filled.Bytes(), documentPart, runBreaks.Replace)
	if err != nil {
		return nil, &RenderError{Format: FormatDOCX, Message: "failed to format line breaks", Cause: err}
	}
	return out, nil
}

// Placeholders maps every template placeholder to its text for v.
func Placeholders(v *View) docx.PlaceholderMap {
	m := docx.PlaceholderMap{
		"name":    v.Name,
		"contact": v.ContactLine(),
		"summary": v.Summary,
	}
	for _, key := range docxSections {
		m[key+"Title"] = ""
		m[key] = ""
		if s, ok := v.Section(key); ok {
			m[key+"Title"] = strings.ToUpper(s.Title)
			m[key] = sectionText(s)
		}
	}
	return m
}

func sectionText(s Section) string {
	if s.Inline != "" {
		return s.Inline
	}
	blocks := make([]string, 0, len(s.Entries))
	for _, e := range s.Entries {
		var lines []string
		head := e.Heading
		if e.Tag != "" {
			head += " [" + e.Tag + "]"
		}
		if e.Date != "" {
			head += "\t" + e.Date
		}
		lines = append(lines, head)
		if e.Subheading != "" {
			lines = append(lines, e.Subheading)
		}
		if e.Link != "" {
			lines = append(lines, e.Link)
		}
		if e.Description != "" {
			lines = append(lines, e.Description)
		}
		for _, b := range e.Bullets {
			lines = append(lines, "• "+b)
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}
	return strings.Join(blocks, "\n\n")
}

// rewritePart copies the zip archive in src, passing the named part through fn.
func rewritePart(src []byte, part string, fn func(string) string) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(src), int64(len(src)))
	if err != nil {
		return nil, fmt.Errorf("failed to read archive: %w", err)
	}

	var out bytes.Buffer
	zw := zip.NewWriter(&out)
	for _, f := range zr.File {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: f.Name, Method: zip.Deflate, Modified: f.Modified})
		if err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", f.Name, err)
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f.Name, err)
		}
		if f.Name == part {
			data = []byte(fn(string(data)))
		}
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return out.Bytes(), nil
}
