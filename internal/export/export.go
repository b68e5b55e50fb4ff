package export

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/jonathan/resume-matcher/internal/browser"
	"github.com/jonathan/resume-matcher/internal/types"
)

// Supported formats
const (
	FormatPDF  = "pdf"
	FormatDOCX = "docx"
	FormatJSON = "json"
)

// Formats lists the supported formats.
var Formats = []string{FormatPDF, FormatDOCX, FormatJSON}

// Renderer turns a resume into a downloadable document.
type Renderer interface {
	Format() string
	ContentType() string
	Render(ctx context.Context, r *types.Resume) ([]byte, error)
}

// Options configures renderers that need external tools.
type Options struct {
	Browser browser.Options
}

// ForFormat returns the renderer for format (case-insensitive).
func ForFormat(format string, opts Options) (Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatPDF:
		return &PDFRenderer{Browser: opts.Browser}, nil
	case FormatDOCX:
		return DOCXRenderer{}, nil
	case FormatJSON:
		return JSONRenderer{}, nil
	default:
		return nil, &FormatError{Format: format}
	}
}

// File is a rendered export.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Export renders r and names the result after the resume owner and the
// target job.
func Export(ctx context.Context, rd Renderer, r *types.Resume, jobTitle, company string) (*File, error) {
	data, err := rd.Render(ctx, r)
	if err != nil {
		return nil, err
	}
	name := Filename(r, jobTitle, company, rd.Format())
	if rd.Format() == FormatJSON {
		name = JSONFilename(r)
	}
	return &File{Name: name, ContentType: rd.ContentType(), Data: data}, nil
}

// JSONRenderer writes the resume document itself.
type JSONRenderer struct{}

func (JSONRenderer) Format() string      { return FormatJSON }
func (JSONRenderer) ContentType() string { return "application/json" }

func (JSONRenderer) Render(_ context.Context, r *types.Resume) ([]byte, error) {
	return JSON(r)
}

// JSON encodes r with two-space indentation.
func JSON(r *types.Resume) ([]byte, error) {
	if r == nil {
		r = types.EmptyResume()
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, &RenderError{Format: FormatJSON, Message: "failed to encode resume", Cause: err}
	}
	return data, nil
}
