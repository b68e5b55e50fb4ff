// Package fetch retrieves job posting pages and reduces them to the text an
// analyzer needs.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/jonathan/resume-matcher/internal/browser"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; ResumeMatcher/1.0)"

// Result holds the raw and processed content from a URL fetch.
type Result struct {
	URL         string
	HTML        string
	Text        string
	ContentType string
	StatusCode  int
}

// Error represents an error during URL fetching.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures the fetch behavior.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
	// Browser enables headless rendering when the static page has too little
	// text. Nil disables the fallback.
	Browser *browser.Options
	Logger  *zap.Logger
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

// URL performs a GET and returns the body. A non-200 response returns both
// the result and an error.
func URL(ctx context.Context, urlStr string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	fail := func(msg string, cause error) *Error {
		return &Error{URL: urlStr, Message: msg, Cause: cause}
	}

	u, err := url.Parse(urlStr)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fail("invalid URL", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fail("failed to create request", err)
	}
	req.Header.Set("User-Agent", opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	resp, err := (&http.Client{Timeout: opts.Timeout}).Do(req)
	if err != nil {
		return nil, fail("HTTP request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fail("failed to read response body", err)
	}

	result := &Result{
		URL:         urlStr,
		HTML:        string(body),
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
	}
	if resp.StatusCode != http.StatusOK {
		return result, fail(fmt.Sprintf("HTTP status %d", resp.StatusCode), nil)
	}
	return result, nil
}

// maxBodyBytes caps how much of a posting page is read.
const maxBodyBytes = 8 << 20

// MinContentLength is the shortest extracted description accepted from a
// static fetch before falling back to the browser.
const MinContentLength = 500

func tooThin(text string) bool {
	return len(strings.TrimSpace(text)) < MinContentLength
}

// JobPosting fetches a posting and extracts its description. Boards that
// render client-side go straight to headless Chrome when opts.Browser is
// set; other pages are fetched statically and only rendered when the
// extracted text is too thin.
func JobPosting(ctx context.Context, urlStr string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	platform := DetectPlatform(urlStr)
	content, noise := ContentSelectors(platform), NoiseSelectors(platform)

	var static *Result
	if !(RendersClientSide(platform) && opts.Browser != nil) {
		result, err := URL(ctx, urlStr, opts)
		if err != nil && (opts.Browser == nil || result == nil) {
			return nil, err
		}
		if err == nil {
			text, err := ExtractMainText(result.HTML, content, noise...)
			if err != nil {
				return nil, &Error{URL: urlStr, Message: "failed to extract text", Cause: err}
			}
			result.Text = text
			if !tooThin(text) || opts.Browser == nil {
				return result, nil
			}
			static = result
		}
	}

	log.Info("rendering job posting in browser",
		zap.String("url", urlStr),
		zap.String("platform", string(platform)),
		zap.Bool("static_attempted", static != nil))

	html, err := browser.RenderHTML(ctx, *opts.Browser, urlStr)
	if err != nil {
		if static != nil {
			log.Warn("browser rendering failed, keeping static text", zap.String("url", urlStr), zap.Error(err))
			return static, nil
		}
		return nil, &Error{URL: urlStr, Message: "browser rendering failed", Cause: err}
	}
	text, err := ExtractMainText(html, content, noise...)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to extract text", Cause: err}
	}
	return &Result{URL: urlStr, HTML: html, Text: text, StatusCode: http.StatusOK}, nil
}

// blockTags end a line of extracted text.
var blockTags = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "br": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"ul": true, "ol": true, "li": true, "tr": true, "table": true,
	"blockquote": true, "pre": true,
}

// ExtractMainText parses html, removes noise, and returns the text of the
// first element matching content (or the body). Block elements become line
// breaks, list items become "- " bullets and headings keep a "#" marker so
// the description keeps its structure.
func ExtractMainText(html string, content []string, noise ...string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	if len(noise) > 0 {
		doc.Find(strings.Join(noise, ", ")).Remove()
	}

	root := doc.Find("body")
	for _, sel := range content {
		if found := doc.Find(sel); found.Length() > 0 && strings.TrimSpace(found.First().Text()) != "" {
			root = found.First()
			break
		}
	}

	var b strings.Builder
	writeBlocks(&b, root)
	return collapseLines(b.String()), nil
}

func writeBlocks(b *strings.Builder, sel *goquery.Selection) {
	sel.Contents().Each(func(_ int, node *goquery.Selection) {
		tag := goquery.NodeName(node)
		if tag == "#text" {
			b.WriteString(strings.Map(flattenSpace, node.Text()))
			return
		}
		block := blockTags[tag]
		if block {
			b.WriteByte('\n')
		}
		switch {
		case tag == "li":
			b.WriteString("- ")
		case len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6':
			b.WriteString(strings.Repeat("#", int(tag[1]-'0')) + " ")
		}
		writeBlocks(b, node)
		if block {
			b.WriteByte('\n')
		}
	})
}

// flattenSpace turns source line breaks inside text nodes into spaces.
func flattenSpace(r rune) rune {
	switch r {
	case '\n', '\r', '\t':
		return ' '
	}
	return r
}

// collapseLines trims every line, collapses inner whitespace and drops
// empty lines.
func collapseLines(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" && line != "-" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
