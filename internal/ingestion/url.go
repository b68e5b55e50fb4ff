package ingestion

import (
	"context"
	"fmt"

	"github.com/jonathan/resume-matcher/internal/fetch"
)

// FromURL fetches a job posting through fetcher and cleans its text.
func FromURL(ctx context.Context, fetcher *fetch.CachedFetcher, urlStr string) (string, *Metadata, error) {
	result, err := fetcher.Fetch(ctx, urlStr)
	if err != nil {
		return "", nil, fmt.Errorf("failed to fetch job posting: %w", err)
	}

	cleaned := CleanText(result.Text)
	if cleaned == "" {
		return "", nil, fmt.Errorf("%s: %w", urlStr, ErrEmptyContent)
	}

	md := NewMetadata(SourceURL, cleaned)
	md.URL = urlStr
	md.Format = FormatHTML
	md.Platform = string(fetch.DetectPlatform(urlStr))
	md.FromCache = result.FromCache
	return cleaned, md, nil
}
