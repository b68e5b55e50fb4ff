// Package browser starts headless Chrome sessions for page rendering and PDF
// printing. Sessions use a remote DevTools endpoint when one is configured
// and a locally launched Chrome otherwise.
package browser

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a whole browser session.
const DefaultTimeout = 60 * time.Second

// Options selects how Chrome is reached.
type Options struct {
	// RemoteURL is a DevTools websocket URL (ws://host:9222). Empty launches
	// a local Chrome.
	RemoteURL string
	// ExecPath overrides the Chrome binary; CHROME_PATH is used when empty.
	ExecPath string
	Timeout  time.Duration
	Logger   *zap.Logger
}

func (o Options) timeout() time.Duration {
	if o.Timeout <= 0 {
		return DefaultTimeout
	}
	return o.Timeout
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// NewContext returns a chromedp task context and a function releasing the
// browser, allocator and timeout.
func NewContext(parent context.Context, opts Options) (context.Context, context.CancelFunc) {
	timeoutCtx, cancelTimeout := context.WithTimeout(parent, opts.timeout())

	var (
		allocCtx    context.Context
		cancelAlloc context.CancelFunc
	)
	if opts.RemoteURL != "" {
		allocCtx, cancelAlloc = chromedp.NewRemoteAllocator(timeoutCtx, opts.RemoteURL)
	} else {
		execOpts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)
		execPath := opts.ExecPath
		if execPath == "" {
			execPath = os.Getenv("CHROME_PATH")
		}
		if execPath != "" {
			execOpts = append(execOpts, chromedp.ExecPath(execPath))
		}
		allocCtx, cancelAlloc = chromedp.NewExecAllocator(timeoutCtx, execOpts...)
	}

	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	return taskCtx, func() {
		cancelTask()
		cancelAlloc()
		cancelTimeout()
	}
}

// RenderHTML loads url, waits for client-side rendering and returns the
// resulting document HTML.
func RenderHTML(ctx context.Context, opts Options, url string) (string, error) {
	log := opts.logger()
	log.Debug("starting headless browser", zap.String("url", url))

	taskCtx, cancel := NewContext(ctx, opts)
	defer cancel()

	var html string
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		// Give JavaScript-rendered job boards time to populate
		chromedp.Sleep(3*time.Second),
		chromedp.ActionFunc(func(ctx context.Context) error {
			// Dismiss cookie banners when present
			_ = chromedp.Click(`button[id*="accept"], button[class*="accept"]`, chromedp.NodeVisible, chromedp.AtLeast(0)).Do(ctx)
			return nil
		}),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("browser rendering failed: %w", err)
	}

	log.Debug("rendered page", zap.String("url", url), zap.Int("bytes", len(html)))
	return html, nil
}

// PaperSize is a page size in inches.
type PaperSize struct {
	Width, Height float64
}

// Letter is US letter paper.
var Letter = PaperSize{Width: 8.5, Height: 11}

// PrintToPDF loads html into a blank page and prints it.
func PrintToPDF(ctx context.Context, opts Options, html string, paper PaperSize) ([]byte, error) {
	taskCtx, cancel := NewContext(ctx, opts)
	defer cancel()

	params := page.PrintToPDF().
		WithPrintBackground(true).
		WithPreferCSSPageSize(true).
		WithMarginTop(0.4).
		WithMarginBottom(0.4).
		WithMarginLeft(0.4).
		WithMarginRight(0.4)
	if paper.Width > 0 && paper.Height > 0 {
		params = params.WithPaperWidth(paper.Width).WithPaperHeight(paper.Height)
	}

	var pdf []byte
	err := chromedp.Run(taskCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = params.Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to print PDF: %w", err)
	}

	opts.logger().Debug("printed PDF", zap.Int("bytes", len(pdf)))
	return pdf, nil
}
