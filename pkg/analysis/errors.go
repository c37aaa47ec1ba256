package analysis

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmylchreest/goalguard/pkg/llm"
)

var (
	// ErrNotConfigured means no provider or API key is set.
	ErrNotConfigured = errors.New("provider not configured")

	// ErrNoGoals means there are no active goals to judge against.
	ErrNoGoals = errors.New("no active goals")

	// ErrRateLimited means the previous request was too recent.
	ErrRateLimited = errors.New("rate limited")

	// ErrProviderPanic means a provider adapter panicked mid-call.
	ErrProviderPanic = errors.New("provider panic")

	// ErrTimeout means the provider did not answer in time.
	ErrTimeout = errors.New("Request timeout") //nolint:staticcheck // surfaced verbatim to the extension
)

// ParseError means the provider answered without a usable confidence score.
// Use errors.As to check for this error type.
type ParseError struct {
	Raw string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("no valid confidence score in response %q", e.Raw)
}

// Error categories returned by Classify.
const (
	CategoryNone          = ""
	CategoryNotConfigured = "not_configured"
	CategoryNoGoals       = "no_goals"
	CategoryRateLimited   = "rate_limited"
	CategoryTimeout       = "timeout"
	CategoryParse         = "parse_error"
	CategoryHTTP          = "http_error"
	CategoryBadResponse   = "bad_response"
	CategoryPanic         = "provider_panic"
	CategoryCanceled      = "canceled"
	CategoryNetwork       = "network_error"
)

// Classify names the category of an analysis error for logs and metrics.
func Classify(err error) string {
	var parseErr *ParseError
	var apiErr *llm.APIError

	switch {
	case err == nil:
		return CategoryNone
	case errors.Is(err, ErrNotConfigured):
		return CategoryNotConfigured
	case errors.Is(err, ErrNoGoals):
		return CategoryNoGoals
	case errors.Is(err, ErrRateLimited):
		return CategoryRateLimited
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return CategoryTimeout
	case errors.As(err, &parseErr):
		return CategoryParse
	case errors.Is(err, llm.ErrEmptyResponse), errors.Is(err, llm.ErrMalformedResponse):
		return CategoryBadResponse
	case errors.Is(err, ErrProviderPanic):
		return CategoryPanic
	case errors.As(err, &apiErr):
		return CategoryHTTP
	case errors.Is(err, context.Canceled):
		return CategoryCanceled
	default:
		return CategoryNetwork
	}
}
