package content

import (
	"bytes"
	"fmt"
	"strings"

	readability "codeberg.org/readeck/go-readability/v2"
	"github.com/PuerkitoBio/goquery"
)

// Strategy selects how the main text of a page is located.
type Strategy string

const (
	// StrategySelectors strips noise elements and takes the first container
	// from ContainerSelectors with enough text.
	StrategySelectors Strategy = "selectors"

	// StrategyReadability scores candidate nodes the way Mozilla's
	// Readability does and falls back to StrategySelectors when it finds
	// nothing.
	StrategyReadability Strategy = "readability"
)

// Strategies lists the supported strategies.
var Strategies = []Strategy{StrategySelectors, StrategyReadability}

// ParseStrategy converts a name to a Strategy. The empty string selects
// StrategySelectors.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrategySelectors:
		return StrategySelectors, nil
	case StrategyReadability:
		return StrategyReadability, nil
	default:
		return "", fmt.Errorf("unknown extraction strategy %q (valid: %s, %s)", s, StrategySelectors, StrategyReadability)
	}
}

// readabilityText runs go-readability over the document. ok is false when
// no article could be identified.
func readabilityText(root *goquery.Selection) (string, bool) {
	html, err := goquery.OuterHtml(root)
	if err != nil {
		return "", false
	}

	parser := readability.NewParser()
	article, err := parser.Parse(strings.NewReader(html), nil)
	if err != nil || article.Node == nil {
		return "", false
	}

	var buf bytes.Buffer
	if err := article.RenderText(&buf); err != nil {
		return "", false
	}
	text := Normalize(buf.String())
	return text, text != ""
}
