package llm

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"
)

// Factory creates a provider from config.
type Factory func(cfg Config) (Provider, error)

// DefaultModels maps provider names to the model used when none is configured.
var DefaultModels = map[string]string{
	OpenRouter: "openai/gpt-4o-mini",
	OpenAI:     "gpt-4o-mini",
	Anthropic:  "claude-3-5-haiku-latest",
}

var registry = map[string]Factory{}

func init() {
	RegisterProvider(OpenRouter, func(cfg Config) (Provider, error) {
		return NewOpenRouterProvider(cfg)
	})
	RegisterProvider(OpenAI, func(cfg Config) (Provider, error) {
		return NewOpenAIProvider(cfg)
	})
	RegisterProvider(Anthropic, func(cfg Config) (Provider, error) {
		return NewAnthropicProvider(cfg)
	})
}

// NewProvider creates a provider by name.
func NewProvider(name string, cfg Config) (Provider, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s (available: %s)",
			ErrUnknownProvider, name, strings.Join(AvailableProviders(), ", "))
	}
	return factory(cfg)
}

// RegisterProvider adds or replaces a provider factory.
func RegisterProvider(name string, factory Factory) {
	registry[name] = factory
}

// AvailableProviders returns the registered provider names, sorted.
func AvailableProviders() []string {
	return slices.Sorted(maps.Keys(registry))
}

// IsRegistered returns true if a provider is registered.
func IsRegistered(name string) bool {
	_, ok := registry[name]
	return ok
}

// DefaultModel returns the default model for a provider.
func DefaultModel(provider string) string {
	return DefaultModels[provider]
}

// providerEnvKeys lists API key environment variables in detection order.
var providerEnvKeys = []struct {
	provider string
	env      string
}{
	{OpenRouter, "OPENROUTER_API_KEY"},
	{Anthropic, "ANTHROPIC_API_KEY"},
	{OpenAI, "OPENAI_API_KEY"},
}

// DetectProvider picks a provider from the environment.
// Priority: OPENROUTER_API_KEY > ANTHROPIC_API_KEY > OPENAI_API_KEY.
// Both results are empty when no key is set.
func DetectProvider() (provider string, apiKey string) {
	for _, k := range providerEnvKeys {
		if key := os.Getenv(k.env); key != "" {
			return k.provider, key
		}
	}
	return "", ""
}
