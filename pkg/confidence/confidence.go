// Package confidence extracts a distraction score from free-form model output.
package confidence

import (
	"regexp"
	"strconv"
	"strings"
)

// Min and Max bound a valid confidence score.
const (
	Min = 0
	Max = 100
)

var digitRun = regexp.MustCompile(`\d+`)

// Parse returns the first run of decimal digits in raw as an integer.
// ok is false when there are no digits, the run does not fit in an int,
// or the value falls outside [Min, Max].
func Parse(raw string) (score int, ok bool) {
	match := digitRun.FindString(strings.TrimSpace(raw))
	if match == "" {
		return 0, false
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0, false
	}
	if n < Min || n > Max {
		return 0, false
	}
	return n, true
}
