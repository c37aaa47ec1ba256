package llm

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"
)

var (
	// ErrMissingAPIKey is returned when a provider is created without a key.
	ErrMissingAPIKey = errors.New("API key required")

	// ErrUnknownProvider is returned by NewProvider for unregistered names.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrEmptyResponse is returned when a 2xx response carries no text.
	ErrEmptyResponse = errors.New("empty response")

	// ErrMalformedResponse is returned when a 2xx response body cannot be
	// decoded.
	ErrMalformedResponse = errors.New("malformed response")
)

// APIError is a non-2xx response from a provider.
// Use errors.As to check for this error type.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Body)
}

// fromOpenAIError maps openai-go failures (used by OpenAI and OpenRouter).
func fromOpenAIError(provider string, err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		body := apiErr.RawJSON()
		if body == "" {
			body = apiErr.Error()
		}
		return &APIError{Provider: provider, StatusCode: apiErr.StatusCode, Body: body}
	}
	if isDecodeError(err) {
		return fmt.Errorf("%s: %w: %v", provider, ErrMalformedResponse, err)
	}
	return fmt.Errorf("%s request failed: %w", provider, err)
}

func fromAnthropicError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		body := apiErr.RawJSON()
		if body == "" {
			body = apiErr.Error()
		}
		return &APIError{Provider: Anthropic, StatusCode: apiErr.StatusCode, Body: body}
	}
	if isDecodeError(err) {
		return fmt.Errorf("%s: %w: %v", Anthropic, ErrMalformedResponse, err)
	}
	return fmt.Errorf("%s request failed: %w", Anthropic, err)
}

// isDecodeError reports whether err came from decoding a response body.
func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}
