package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Source identifies where a job description came from.
type Source string

// Sources of job description text.
const (
	SourcePaste Source = "paste"
	SourceFile  Source = "file"
	SourceURL   Source = "url"
)

// Metadata describes one ingested job description
type Metadata struct {
	Source    Source `json:"source"`
	URL       string `json:"url,omitempty"`
	Path      string `json:"path,omitempty"`
	Format    string `json:"format,omitempty"`   // pdf, docx, html, text
	Platform  string `json:"platform,omitempty"` // Detected job board platform
	FromCache bool   `json:"from_cache,omitempty"`
	Timestamp string `json:"timestamp"` // RFC3339 format
	Hash      string `json:"hash"`      // SHA256 hex digest of the cleaned text
}

// NewMetadata creates a new Metadata instance with current timestamp
func NewMetadata(source Source, content string) *Metadata {
	return &Metadata{
		Source:    source,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Hash:      computeHash(content),
	}
}

// computeHash computes SHA256 hash of content and returns hex string
func computeHash(content string) string {
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}

// FromText cleans pasted text.
func FromText(content string) (string, *Metadata) {
	cleaned := CleanText(content)
	md := NewMetadata(SourcePaste, cleaned)
	md.Format = FormatText
	return cleaned, md
}
