package ingestion

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"

	"github.com/jonathan/resume-matcher/internal/fetch"
)

// Detected file formats.
const (
	FormatPDF  = "pdf"
	FormatDOCX = "docx"
	FormatHTML = "html"
	FormatText = "text"
)

// MaxFileSize bounds job description files.
const MaxFileSize = 10 << 20

// ErrEmptyContent is returned when a file yields no text.
var ErrEmptyContent = errors.New("no text content found")

var (
	docxParagraphEnd = regexp.MustCompile(`</w:p>|<w:br/>|<w:tab/>`)
	xmlTag           = regexp.MustCompile(`<[^>]+>`)
)

// FromFile reads a job description from path, extracting text according to
// the file type.
func FromFile(path string) (string, *Metadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil, fmt.Errorf("file not found: %w", err)
		}
		return "", nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.Size() > MaxFileSize {
		return "", nil, fmt.Errorf("file %s exceeds %d bytes", path, MaxFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read file: %w", err)
	}

	text, md, err := FromBytes(filepath.Base(path), data)
	if err != nil {
		return "", nil, err
	}
	md.Source = SourceFile
	md.Path = path
	return text, md, nil
}

// FromBytes extracts text from an uploaded document. name is used for
// extension-based detection; content sniffing covers the rest.
func FromBytes(name string, data []byte) (string, *Metadata, error) {
	format := DetectFormat(name, data)

	var (
		raw string
		err error
	)
	switch format {
	case FormatPDF:
		raw, err = extractPDFText(data)
	case FormatDOCX:
		raw, err = extractDocxText(data)
	case FormatHTML:
		raw, err = fetch.ExtractMainText(string(data), fetch.ContentSelectors(fetch.PlatformUnknown), fetch.NoiseSelectors(fetch.PlatformUnknown)...)
	default:
		raw = string(data)
	}
	if err != nil {
		return "", nil, fmt.Errorf("failed to extract %s text from %s: %w", format, name, err)
	}

	cleaned := CleanText(raw)
	if cleaned == "" {
		return "", nil, fmt.Errorf("%s: %w", name, ErrEmptyContent)
	}

	md := NewMetadata(SourceFile, cleaned)
	md.Format = format
	return cleaned, md, nil
}

// DetectFormat picks an extractor by extension, falling back to MIME sniffing.
func DetectFormat(name string, data []byte) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return FormatPDF
	case ".docx":
		return FormatDOCX
	case ".html", ".htm":
		return FormatHTML
	case ".txt", ".md":
		return FormatText
	}

	mime := http.DetectContentType(data)
	switch {
	case strings.HasPrefix(mime, "application/pdf"):
		return FormatPDF
	case strings.HasPrefix(mime, "text/html"):
		return FormatHTML
	case strings.HasPrefix(mime, "application/zip") && bytes.Contains(data, []byte("word/")):
		return FormatDOCX
	default:
		return FormatText
	}
}

func extractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to read page %d: %w", i, err)
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func extractDocxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer func() { _ = doc.Close() }()

	content := doc.Editable().GetContent()
	content = docxParagraphEnd.ReplaceAllString(content, "\n")
	content = xmlTag.ReplaceAllString(content, "")
	return unescapeXML(content), nil
}

var xmlEntities = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&apos;", "'",
	"&amp;", "&",
)

func unescapeXML(s string) string {
	return xmlEntities.Replace(s)
}
