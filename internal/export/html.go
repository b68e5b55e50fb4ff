package export

import (
	"bytes"
	"context"
	_ "embed"
	"html/template"
	"strings"

	"github.com/jonathan/resume-matcher/internal/browser"
	"github.com/jonathan/resume-matcher/internal/types"
)

//go:embed templates/resume.html.tmpl
var htmlTemplate string

var resumeHTML = template.Must(template.New("resume").Funcs(template.FuncMap{
	"upper": strings.ToUpper,
}).Parse(htmlTemplate))

// HTML renders r as a standalone print-ready page.
func HTML(r *types.Resume) (string, error) {
	var buf bytes.Buffer
	if err := resumeHTML.Execute(&buf, NewView(r)); err != nil {
		return "", &RenderError{Format: "html", Message: "failed to execute template", Cause: err}
	}
	return buf.String(), nil
}

// PDFRenderer prints the HTML rendering through headless Chrome.
type PDFRenderer struct {
	Browser browser.Options
}

func (*PDFRenderer) Format() string      { return FormatPDF }
func (*PDFRenderer) ContentType() string { return "application/pdf" }

func (p *PDFRenderer) Render(ctx context.Context, r *types.Resume) ([]byte, error) {
	html, err := HTML(r)
	if err != nil {
		return nil, err
	}
	pdf, err := browser.PrintToPDF(ctx, p.Browser, html, browser.Letter)
	if err != nil {
		return nil, &RenderError{Format: FormatPDF, Message: "failed to print page", Cause: err}
	}
	return pdf, nil
}
