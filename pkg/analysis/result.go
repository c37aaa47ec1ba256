// Package analysis decides whether a page distracts from the user's goals.
//
// The Analyzer runs one page through a fixed pipeline: precondition checks,
// rate limiting, a cache lookup, a provider call raced against a timeout and
// confidence parsing. Every failure is converted into an allowing Result.
// The Service wires an Analyzer to the store, the content extractor and
// per-page de-duplication.
package analysis

import (
	"fmt"
	"io"
)

// Reasons reported for short-circuited analyses.
const (
	ReasonNotConfigured = "not configured"
	ReasonNoGoals       = "no goals"
	ReasonRateLimited   = "rate limited"
	ReasonDisabled      = "disabled"

	failedPrefix = "Analysis failed: "
)

// Result is the outcome of one analysis. It is never modified after creation.
type Result struct {
	Confidence  int    `json:"confidence" yaml:"confidence"`
	ShouldBlock bool   `json:"should_block" yaml:"should_block"`
	Reasoning   string `json:"reasoning" yaml:"reasoning"`
	Provider    string `json:"provider,omitempty" yaml:"provider,omitempty"`
	Model       string `json:"model,omitempty" yaml:"model,omitempty"`
	DurationMS  int64  `json:"duration_ms,omitempty" yaml:"duration_ms,omitempty"`
	Error       string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Failed reports whether the result comes from the fail-open path.
func (r Result) Failed() bool {
	return r.Error != ""
}

// WriteText renders a one-line summary for the CLI.
func (r Result) WriteText(w io.Writer) error {
	verdict := "allow"
	if r.ShouldBlock {
		verdict = "block"
	}
	if r.Provider == "" {
		_, err := fmt.Fprintf(w, "%s: %s\n", verdict, r.Reasoning)
		return err
	}
	_, err := fmt.Fprintf(w, "%s: %s [%s/%s, %dms]\n", verdict, r.Reasoning, r.Provider, r.Model, r.DurationMS)
	return err
}

func allow(reason string) Result {
	return Result{Reasoning: reason}
}

func failed(err error) Result {
	msg := err.Error()
	return Result{
		Reasoning: failedPrefix + msg,
		Error:     msg,
	}
}
