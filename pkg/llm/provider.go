// Package llm adapts remote chat-completion APIs to a single
// prompt-in, text-out contract.
//
// Each supported vendor (OpenRouter, OpenAI, Anthropic) is one Provider
// variant, created through NewProvider by name. Requests are deliberately
// small: a single user message, a 20 token output budget and near-zero
// temperature (or the reasoning-model equivalent).
package llm

import (
	"context"
	"net/http"
)

// Provider names.
const (
	OpenRouter = "openrouter"
	OpenAI     = "openai"
	Anthropic  = "anthropic"
)

// Sampling controls shared by every provider.
const (
	MaxTokens   = 20
	Temperature = 0.1
)

// Provider is a remote LLM vendor.
type Provider interface {
	// SendPrompt sends prompt as a single user message and returns the
	// model's text. Non-2xx responses are returned as *APIError.
	SendPrompt(ctx context.Context, prompt string) (string, error)

	// ValidateCredentials issues a minimal request and reports whether the
	// configured key was accepted. Failures of any kind yield false.
	ValidateCredentials(ctx context.Context) bool

	// Name returns the provider identifier (e.g., "openrouter").
	Name() string

	// Model returns the model requests are sent to.
	Model() string
}

// Config holds the settings shared by every provider.
type Config struct {
	APIKey  string
	BaseURL string // Overrides the vendor endpoint
	Model   string // Empty selects DefaultModel for the provider

	// MaxRetries bounds SDK-level retries of failed requests.
	MaxRetries int

	// HTTPClient is used for all requests when set.
	HTTPClient *http.Client

	// HTTPReferer and AppTitle for OpenRouter attribution
	HTTPReferer string
	AppTitle    string
}

// DefaultConfig returns the settings used by the CLI and server.
func DefaultConfig() Config {
	return Config{MaxRetries: 1}
}

func (c Config) modelOr(provider string) string {
	if c.Model != "" {
		return c.Model
	}
	return DefaultModel(provider)
}

func (c Config) retries() int {
	if c.MaxRetries < 0 {
		return 0
	}
	return c.MaxRetries
}
