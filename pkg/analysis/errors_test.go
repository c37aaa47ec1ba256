package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jmylchreest/goalguard/pkg/llm"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: CategoryNone},
		{name: "not configured", err: ErrNotConfigured, want: CategoryNotConfigured},
		{name: "no goals", err: ErrNoGoals, want: CategoryNoGoals},
		{name: "rate limited", err: ErrRateLimited, want: CategoryRateLimited},
		{name: "timeout", err: ErrTimeout, want: CategoryTimeout},
		{name: "deadline", err: fmt.Errorf("call: %w", context.DeadlineExceeded), want: CategoryTimeout},
		{name: "parse", err: &ParseError{Raw: "maybe"}, want: CategoryParse},
		{name: "http", err: &llm.APIError{Provider: "openai", StatusCode: 401, Body: "nope"}, want: CategoryHTTP},
		{name: "wrapped http", err: fmt.Errorf("send: %w", &llm.APIError{StatusCode: 429}), want: CategoryHTTP},
		{name: "empty envelope", err: fmt.Errorf("openai: %w: no choices", llm.ErrEmptyResponse), want: CategoryBadResponse},
		{name: "undecodable body", err: fmt.Errorf("anthropic: %w: bad json", llm.ErrMalformedResponse), want: CategoryBadResponse},
		{name: "adapter panic", err: fmt.Errorf("%w: nil map", ErrProviderPanic), want: CategoryPanic},
		{name: "canceled", err: context.Canceled, want: CategoryCanceled},
		{name: "other", err: errors.New("connection refused"), want: CategoryNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestFailedResult(t *testing.T) {
	r := failed(ErrTimeout)
	if r.Reasoning != "Analysis failed: Request timeout" {
		t.Errorf("unexpected reasoning %q", r.Reasoning)
	}
	if !r.Failed() || r.ShouldBlock || r.Confidence != 0 {
		t.Errorf("expected an allowing failure, got %+v", r)
	}
}

func TestResult_WriteText(t *testing.T) {
	var b strings.Builder
	r := Result{Confidence: 90, ShouldBlock: true, Reasoning: "Distraction confidence 90% (threshold 70%)",
		Provider: "openai", Model: "gpt-4o-mini", DurationMS: 412}
	if err := r.WriteText(&b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "block: Distraction confidence 90% (threshold 70%) [openai/gpt-4o-mini, 412ms]\n"
	if b.String() != want {
		t.Errorf("expected %q, got %q", want, b.String())
	}

	b.Reset()
	_ = allow(ReasonDisabled).WriteText(&b)
	if b.String() != "allow: disabled\n" {
		t.Errorf("unexpected short form %q", b.String())
	}
}

func TestBuildPrompt(t *testing.T) {
	got := BuildPrompt([]string{"finish the report", "go running"}, "Inbox (3)", "Quarterly numbers attached")

	for _, want := range []string{
		"- finish the report\n- go running\n",
		"Page title: Inbox (3)\n",
		"Page content:\nQuarterly numbers attached\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("expected prompt to contain %q, got:\n%s", want, got)
		}
	}
	if !strings.HasSuffix(got, "Respond with a single integer from 0 to 100 and nothing else.") {
		t.Errorf("prompt should end with the answer format instruction, got:\n%s", got)
	}
}

func TestBuildPrompt_NoEscaping(t *testing.T) {
	got := BuildPrompt([]string{"read <b>less</b> & focus"}, `"quoted"`, "a < b")
	if !strings.Contains(got, "- read <b>less</b> & focus") || !strings.Contains(got, `"quoted"`) {
		t.Errorf("text must be inserted verbatim, got:\n%s", got)
	}
}
