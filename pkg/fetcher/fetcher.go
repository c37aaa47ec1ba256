// Package fetcher retrieves pages for offline analysis from the CLI.
// The browser extension sends page content itself; fetchers let the same
// pipeline run against a URL from the terminal.
package fetcher

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Fetcher abstracts page fetching strategies.
type Fetcher interface {
	// Fetch retrieves page content from a URL.
	Fetch(ctx context.Context, url string, opts Options) (Content, error)

	// Close releases any resources (browser instances, etc.).
	Close() error

	// Type returns a string identifying the fetcher type (e.g., "static", "dynamic").
	Type() string
}

// Options controls fetching behavior.
type Options struct {
	UserAgent       string
	Timeout         time.Duration
	WaitForSelector string // CSS selector to wait for (dynamic fetchers)
	Headers         map[string]string
}

// Content is a fetched page.
type Content struct {
	URL         string    `json:"url" yaml:"url"`
	HTML        string    `json:"-" yaml:"-"`
	Title       string    `json:"title" yaml:"title"`
	StatusCode  int       `json:"status_code" yaml:"status_code"`
	ContentType string    `json:"content_type,omitempty" yaml:"content_type,omitempty"`
	FetchedAt   time.Time `json:"fetched_at" yaml:"fetched_at"`
}

var (
	// ErrNotHTML indicates the response was not an HTML document.
	ErrNotHTML = errors.New("response is not HTML")

	// ErrUnsupportedScheme indicates a URL that is neither http nor https.
	ErrUnsupportedScheme = errors.New("only http and https URLs can be fetched")
)

// Mode names a fetcher implementation.
type Mode string

const (
	ModeStatic  Mode = "static"
	ModeDynamic Mode = "dynamic"
)

// isHTML reports whether a Content-Type header describes an HTML document.
// An empty header is accepted.
func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml")
}

// coalesce returns the first non-empty string.
func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
