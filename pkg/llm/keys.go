package llm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidKeyFormat is returned by ValidateKeyFormat.
var ErrInvalidKeyFormat = errors.New("invalid API key format")

type keyRule struct {
	prefix string
	minLen int
}

var keyRules = map[string]keyRule{
	OpenRouter: {prefix: "sk-or-", minLen: 20},
	OpenAI:     {prefix: "sk-", minLen: 20},
	Anthropic:  {prefix: "sk-ant-", minLen: 20},
}

// genericKeyMinLen applies to providers without a known key format.
const genericKeyMinLen = 10

// ValidateKeyFormat performs an advisory, offline check of a key's shape.
// It cannot tell whether the key is accepted; see Provider.ValidateCredentials.
func ValidateKeyFormat(provider, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%w: key is empty", ErrInvalidKeyFormat)
	}

	rule, ok := keyRules[provider]
	if !ok {
		if len(key) < genericKeyMinLen {
			return fmt.Errorf("%w: expected at least %d characters", ErrInvalidKeyFormat, genericKeyMinLen)
		}
		return nil
	}

	if !strings.HasPrefix(key, rule.prefix) {
		return fmt.Errorf("%w: %s keys start with %q", ErrInvalidKeyFormat, provider, rule.prefix)
	}
	if len(key) < rule.minLen {
		return fmt.Errorf("%w: %s keys are at least %d characters", ErrInvalidKeyFormat, provider, rule.minLen)
	}
	return nil
}
