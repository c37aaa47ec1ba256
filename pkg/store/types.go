// Package store persists goals, settings and analytics for goalguard.
//
// Values live under three keys (settings, goals, analytics) in a Backend,
// mirroring the key/value storage the browser extension uses. Backends are
// interchangeable: the in-memory one here, a YAML file (store/filestore) and
// SQLite (store/sqlitestore).
package store

import (
	"time"
)

// Provider identifies a remote LLM vendor.
type Provider string

const (
	ProviderOpenRouter Provider = "openrouter"
	ProviderOpenAI     Provider = "openai"
	ProviderAnthropic  Provider = "anthropic"
)

// Providers lists every supported provider in display order.
var Providers = []Provider{ProviderOpenRouter, ProviderOpenAI, ProviderAnthropic}

// Limits on user-managed goals.
const (
	MaxGoals          = 10
	MaxGoalTextLength = 200
)

// Goal is a user-defined intention pages are judged against.
// Only IsActive changes after creation.
type Goal struct {
	ID        string    `json:"id" yaml:"id" validate:"required"`
	Text      string    `json:"text" yaml:"text" validate:"required,max=200"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	IsActive  bool      `json:"is_active" yaml:"is_active"`
}

// RateLimit throttles provider calls by wall-clock spacing.
type RateLimit struct {
	RequestsPerMinute int       `json:"requests_per_minute" yaml:"requests_per_minute" validate:"min=1,max=600"`
	LastRequestTime   time.Time `json:"last_request_time" yaml:"last_request_time"`
}

// Settings is the singleton user configuration.
type Settings struct {
	Enabled             bool      `json:"enabled" yaml:"enabled"`
	ConfidenceThreshold int       `json:"confidence_threshold" yaml:"confidence_threshold" validate:"min=0,max=100"`
	Provider            Provider  `json:"provider" yaml:"provider" validate:"omitempty,oneof=openrouter openai anthropic"`
	Model               string    `json:"model" yaml:"model" validate:"max=200"`
	APIKey              string    `json:"api_key" yaml:"api_key"`
	RateLimit           RateLimit `json:"rate_limit" yaml:"rate_limit"`
	EnableCache         bool      `json:"enable_cache" yaml:"enable_cache"`
}

// Configured reports whether a provider and API key are both set.
func (s Settings) Configured() bool {
	return s.Provider != "" && s.APIKey != ""
}

// Redacted returns a copy with the API key masked for display.
func (s Settings) Redacted() Settings {
	s.APIKey = MaskKey(s.APIKey)
	return s
}

// MaskKey keeps the first and last four characters of a secret.
func MaskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}

// DefaultSettings returns the settings used before the user configures anything.
func DefaultSettings() Settings {
	return Settings{
		Enabled:             true,
		ConfidenceThreshold: 70,
		Provider:            ProviderOpenRouter,
		RateLimit: RateLimit{
			RequestsPerMinute: 20,
		},
		EnableCache: true,
	}
}

// SettingsPatch is a partial update; nil fields are left untouched.
type SettingsPatch struct {
	Enabled             *bool      `json:"enabled,omitempty"`
	ConfidenceThreshold *int       `json:"confidence_threshold,omitempty"`
	Provider            *Provider  `json:"provider,omitempty"`
	Model               *string    `json:"model,omitempty"`
	APIKey              *string    `json:"api_key,omitempty"`
	RequestsPerMinute   *int       `json:"requests_per_minute,omitempty"`
	LastRequestTime     *time.Time `json:"last_request_time,omitempty"`
	EnableCache         *bool      `json:"enable_cache,omitempty"`
}

// Apply returns s with every non-nil field of p applied.
func (p SettingsPatch) Apply(s Settings) Settings {
	if p.Enabled != nil {
		s.Enabled = *p.Enabled
	}
	if p.ConfidenceThreshold != nil {
		s.ConfidenceThreshold = *p.ConfidenceThreshold
	}
	if p.Provider != nil {
		s.Provider = *p.Provider
	}
	if p.Model != nil {
		s.Model = *p.Model
	}
	if p.APIKey != nil {
		s.APIKey = *p.APIKey
	}
	if p.RequestsPerMinute != nil {
		s.RateLimit.RequestsPerMinute = *p.RequestsPerMinute
	}
	if p.LastRequestTime != nil {
		s.RateLimit.LastRequestTime = *p.LastRequestTime
	}
	if p.EnableCache != nil {
		s.EnableCache = *p.EnableCache
	}
	return s
}

// Analytics holds monotonically increasing usage counters.
type Analytics struct {
	TotalRequests int64 `json:"total_requests" yaml:"total_requests"`
	BlockedPages  int64 `json:"blocked_pages" yaml:"blocked_pages"`
	BypassedPages int64 `json:"bypassed_pages" yaml:"bypassed_pages"`
}

// AnalyticsDelta is added to the stored counters.
type AnalyticsDelta struct {
	TotalRequests int64
	BlockedPages  int64
	BypassedPages int64
}

// ActiveGoals filters goals down to the active ones, preserving order.
func ActiveGoals(goals []Goal) []Goal {
	active := make([]Goal, 0, len(goals))
	for _, g := range goals {
		if g.IsActive {
			active = append(active, g)
		}
	}
	return active
}

// GoalTexts returns the text of each goal in order.
func GoalTexts(goals []Goal) []string {
	texts := make([]string, len(goals))
	for i, g := range goals {
		texts[i] = g.Text
	}
	return texts
}
