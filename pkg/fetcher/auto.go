package fetcher

import (
	"context"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/jmylchreest/goalguard/internal/logger"
)

// ModeAuto fetches statically and retries with a browser when the page looks
// like it needs JavaScript to render.
const ModeAuto Mode = "auto"

// spaMarkers are empty mount points left behind by client-side frameworks.
var spaMarkers = []string{
	`<div id="root"></div>`,
	`<div id="app"></div>`,
	`<app-root></app-root>`,
	`<div id="__next"></div>`,
	`<div id="__nuxt"></div>`,
	`<div data-reactroot`,
	`ng-app`,
	`v-cloak`,
}

var (
	loadingIndicators  = []string{"loading", "please wait", "javascript required", "enable javascript"}
	noscriptIndicators = []string{"javascript", "enable", "required", "browser"}
)

// minRenderedText is the visible text length below which a page is treated
// as a loading shell.
const minRenderedText = 100

// AutoFetcher tries a static fetch first and falls back to a dynamic one.
// The dynamic fetcher is created on first use.
type AutoFetcher struct {
	static     Fetcher
	newDynamic func() (Fetcher, error)

	mu      sync.Mutex
	dynamic Fetcher
}

// NewAuto creates an AutoFetcher. newDynamic is called at most once, when a
// page first needs rendering.
func NewAuto(static Fetcher, newDynamic func() (Fetcher, error)) *AutoFetcher {
	return &AutoFetcher{static: static, newDynamic: newDynamic}
}

// Fetch implements Fetcher.
func (f *AutoFetcher) Fetch(ctx context.Context, url string, opts Options) (Content, error) {
	content, err := f.static.Fetch(ctx, url, opts)
	if err == nil && !NeedsJavaScript(content.HTML) {
		return content, nil
	}
	if ctx.Err() != nil {
		return Content{}, ctx.Err()
	}

	log := logger.Named("fetcher")
	if err != nil {
		log.Debug("static fetch failed, retrying with browser", "url", url, "error", err)
	} else {
		log.Debug("page needs javascript, retrying with browser", "url", url)
	}

	dynamic, derr := f.dynamicFetcher()
	if derr != nil {
		if err == nil {
			// The static copy is still usable, just thin.
			log.Warn("browser unavailable, using static content", "error", derr)
			return content, nil
		}
		return Content{}, err
	}
	return dynamic.Fetch(ctx, url, opts)
}

func (f *AutoFetcher) dynamicFetcher() (Fetcher, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dynamic != nil {
		return f.dynamic, nil
	}
	d, err := f.newDynamic()
	if err != nil {
		return nil, err
	}
	f.dynamic = d
	return d, nil
}

// Close implements Fetcher.
func (f *AutoFetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.static.Close(); err != nil {
		return err
	}
	if f.dynamic != nil {
		return f.dynamic.Close()
	}
	return nil
}

// Type implements Fetcher.
func (f *AutoFetcher) Type() string { return string(ModeAuto) }

// NeedsJavaScript reports whether statically fetched HTML appears to be a
// client-rendered shell.
func NeedsJavaScript(html string) bool {
	lower := strings.ToLower(html)
	for _, marker := range spaMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return false
	}

	noscript := strings.ToLower(doc.Find("noscript").Text())
	doc.Find("script, style, noscript").Remove()
	text := strings.ToLower(strings.TrimSpace(doc.Find("body").Text()))

	if len(text) < minRenderedText && containsAny(text, loadingIndicators) {
		return true
	}
	return containsAny(noscript, noscriptIndicators)
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
