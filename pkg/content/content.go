// Package content reduces an HTML page to bounded plain text for analysis.
package content

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/jmylchreest/goalguard/internal/logger"
)

const (
	// DefaultMaxLength bounds the extracted text, in runes.
	DefaultMaxLength = 4000

	// MinContainerLength is the text length a container must exceed to be
	// preferred over the next candidate.
	MinContainerLength = 100

	// Ellipsis is appended to truncated text.
	Ellipsis = "..."
)

// NoiseSelectors are removed before any text is read.
var NoiseSelectors = []string{"script", "style", "nav", "header", "footer", "aside", "noscript"}

// ContainerSelectors are tried in order; the first with enough text wins.
var ContainerSelectors = []string{"main", "article", `[role="main"]`, ".content", "body"}

var whitespaceRegex = regexp.MustCompile(`\s+`)

// Page is the extracted form of a document.
type Page struct {
	Title string `json:"title" yaml:"title"`
	Text  string `json:"text" yaml:"text"`
}

// Extractor pulls the main text out of HTML documents.
type Extractor struct {
	maxLength int
	strategy  Strategy
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithMaxLength overrides DefaultMaxLength. Non-positive values are ignored.
func WithMaxLength(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.maxLength = n
		}
	}
}

// WithStrategy selects the main-text strategy. Unknown values are ignored.
func WithStrategy(s Strategy) Option {
	return func(e *Extractor) {
		if s == StrategySelectors || s == StrategyReadability {
			e.strategy = s
		}
	}
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{maxLength: DefaultMaxLength, strategy: StrategySelectors}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the extractor name for logging.
func (e *Extractor) Name() string {
	return "content"
}

// Strategy returns the configured main-text strategy.
func (e *Extractor) Strategy() Strategy {
	return e.strategy
}

// MaxLength returns the configured text bound.
func (e *Extractor) MaxLength() int {
	return e.maxLength
}

// Extract parses html and extracts its title and text. It never fails: an
// unparseable document yields an empty Page.
func (e *Extractor) Extract(html string) Page {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		logger.Debug("html parse failed", "error", err)
		return Page{}
	}
	return e.ExtractDocument(doc)
}

// ExtractDocument extracts from an already parsed document. The document is
// cloned first and is never modified.
func (e *Extractor) ExtractDocument(doc *goquery.Document) (page Page) {
	defer func() {
		if r := recover(); r != nil {
			logger.Debug("content extraction failed", "panic", r)
			page = Page{}
		}
	}()

	if doc == nil {
		return Page{}
	}

	root := doc.Selection.Clone()
	title := Normalize(root.Find("title").First().Text())

	if e.strategy == StrategyReadability {
		if text, ok := readabilityText(root); ok {
			return Page{Title: title, Text: Truncate(text, e.maxLength)}
		}
		logger.Debug("readability found no article, using selectors")
	}

	root.Find(strings.Join(NoiseSelectors, ", ")).Remove()

	text := selectMainText(root)
	return Page{
		Title: title,
		Text:  Truncate(text, e.maxLength),
	}
}

func selectMainText(root *goquery.Selection) string {
	for _, selector := range ContainerSelectors {
		sel := root.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		text := Normalize(sel.Text())
		if utf8.RuneCountInString(text) > MinContainerLength {
			return text
		}
	}

	if body := root.Find("body"); body.Length() > 0 {
		return Normalize(body.Text())
	}
	return Normalize(root.Text())
}

// Normalize collapses runs of whitespace to single spaces and trims the ends.
func Normalize(s string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(s, " "))
}

// Truncate bounds text to max runes. When a space exists past 80% of max the
// cut is made there instead, and Ellipsis is appended.
func Truncate(text string, max int) string {
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text
	}

	runes := []rune(text)[:max]
	if i := lastSpace(runes); i > max*8/10 {
		runes = runes[:i]
	}
	return string(runes) + Ellipsis
}

func lastSpace(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == ' ' {
			return i
		}
	}
	return -1
}

// Extract is a convenience wrapper using default settings.
func Extract(html string) Page {
	return New().Extract(html)
}
