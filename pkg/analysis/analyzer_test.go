package analysis

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/jmylchreest/goalguard/pkg/llm"
	"github.com/jmylchreest/goalguard/pkg/store"
)

func newTestAnalyzer(fp *fakeProvider, clock *fakeClock, opts ...Option) *Analyzer {
	base := []Option{WithProviderFactory(fp.factory()), WithClock(clock.Now)}
	return NewAnalyzer(append(base, opts...)...)
}

func pageRequest(s store.Settings, goals []store.Goal) Request {
	return Request{
		Title:    "Ten cat videos you must see",
		Content:  "An endless scroll of cats doing things.",
		URL:      "https://videos.example/cats",
		Goals:    goals,
		Settings: s,
	}
}

// --- Short Circuit Tests ---

func TestAnalyze_NotConfigured(t *testing.T) {
	tests := []struct {
		name     string
		settings store.Settings
	}{
		{name: "no key", settings: store.DefaultSettings()},
		{name: "no provider", settings: func() store.Settings {
			s := configuredSettings()
			s.Provider = ""
			return s
		}()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp := &fakeProvider{reply: "90"}
			a := newTestAnalyzer(fp, newFakeClock())

			got := a.Analyze(context.Background(), pageRequest(tt.settings, activeGoals("ship v2")))
			want := Result{Reasoning: ReasonNotConfigured}
			if got != want {
				t.Errorf("expected %+v, got %+v", want, got)
			}
			if fp.calls() != 0 {
				t.Errorf("expected no provider call, got %d", fp.calls())
			}
		})
	}
}

func TestAnalyze_NoActiveGoals(t *testing.T) {
	fp := &fakeProvider{reply: "90"}
	a := newTestAnalyzer(fp, newFakeClock())

	goals := activeGoals("ship v2")
	goals[0].IsActive = false

	got := a.Analyze(context.Background(), pageRequest(configuredSettings(), goals))
	if got != (Result{Reasoning: ReasonNoGoals}) {
		t.Errorf("expected no goals result, got %+v", got)
	}
	if fp.calls() != 0 {
		t.Errorf("expected no provider call, got %d", fp.calls())
	}
}

func TestAnalyze_RateLimited(t *testing.T) {
	clock := newFakeClock()
	fp := &fakeProvider{reply: "90"}
	writer := store.New(store.NewMemory())
	a := newTestAnalyzer(fp, clock, WithSettingsWriter(writer))

	s := configuredSettings()
	s.RateLimit.LastRequestTime = clock.Now().Add(-2999 * time.Millisecond)

	got := a.Analyze(context.Background(), pageRequest(s, activeGoals("ship v2")))
	if got != (Result{Reasoning: ReasonRateLimited}) {
		t.Errorf("expected rate limited result, got %+v", got)
	}
	if fp.calls() != 0 {
		t.Errorf("expected no provider call, got %d", fp.calls())
	}
	if a.Cache().Len() != 0 {
		t.Error("rate limited analyses must not touch the cache")
	}
	if !writer.Settings(context.Background()).RateLimit.LastRequestTime.IsZero() {
		t.Error("rate limited analyses must not record a request time")
	}

	s.RateLimit.LastRequestTime = clock.Now().Add(-3 * time.Second)
	if got := a.Analyze(context.Background(), pageRequest(s, activeGoals("ship v2"))); got.Reasoning == ReasonRateLimited {
		t.Error("a request a full interval later should not be limited")
	}
}

// --- Success Path Tests ---

func TestAnalyze_ThresholdBoundary(t *testing.T) {
	tests := []struct {
		name      string
		reply     string
		threshold int
		wantBlock bool
	}{
		{name: "equal blocks", reply: "70", threshold: 70, wantBlock: true},
		{name: "one below allows", reply: "69", threshold: 70, wantBlock: false},
		{name: "max", reply: "100", threshold: 100, wantBlock: true},
		{name: "zero threshold blocks everything", reply: "0", threshold: 0, wantBlock: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp := &fakeProvider{reply: tt.reply}
			a := newTestAnalyzer(fp, newFakeClock())

			s := configuredSettings()
			s.ConfidenceThreshold = tt.threshold
			got := a.Analyze(context.Background(), pageRequest(s, activeGoals("ship v2")))

			if got.ShouldBlock != tt.wantBlock {
				t.Errorf("expected should_block=%v, got %+v", tt.wantBlock, got)
			}
			if got.Failed() {
				t.Errorf("unexpected failure: %s", got.Error)
			}
		})
	}
}

func TestAnalyze_PopulatesResult(t *testing.T) {
	clock := newFakeClock()
	fp := &fakeProvider{reply: "The score is 83."}
	fp.onCall = func() { clock.Advance(250 * time.Millisecond) }
	a := newTestAnalyzer(fp, clock)

	got := a.Analyze(context.Background(), pageRequest(configuredSettings(), activeGoals("ship v2")))

	want := Result{
		Confidence:  83,
		ShouldBlock: true,
		Reasoning:   "Distraction confidence 83% (threshold 70%)",
		Provider:    llm.OpenRouter,
		Model:       llm.DefaultModel(llm.OpenRouter),
		DurationMS:  250,
	}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestAnalyze_ModelResolution(t *testing.T) {
	tests := []struct {
		name     string
		provider store.Provider
		model    string
		want     string
	}{
		{name: "anthropic default", provider: store.ProviderAnthropic, want: "claude-3-5-haiku-latest"},
		{name: "openai default", provider: store.ProviderOpenAI, want: "gpt-4o-mini"},
		{name: "explicit model", provider: store.ProviderOpenAI, model: "gpt-4.1-mini", want: "gpt-4.1-mini"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp := &fakeProvider{reply: "5"}
			a := newTestAnalyzer(fp, newFakeClock(), WithBaseURL("anthropic", "http://127.0.0.1:9/"))

			s := configuredSettings()
			s.Provider = tt.provider
			s.Model = tt.model
			got := a.Analyze(context.Background(), pageRequest(s, activeGoals("ship v2")))

			if got.Model != tt.want {
				t.Errorf("expected model %q, got %q", tt.want, got.Model)
			}
			cfg := fp.lastConfig()
			if cfg.APIKey != testKey {
				t.Errorf("expected api key to be passed through, got %q", cfg.APIKey)
			}
			wantBase := ""
			if tt.provider == store.ProviderAnthropic {
				wantBase = "http://127.0.0.1:9/"
			}
			if cfg.BaseURL != wantBase {
				t.Errorf("expected base url %q, got %q", wantBase, cfg.BaseURL)
			}
		})
	}
}

func TestAnalyze_Prompt(t *testing.T) {
	fp := &fakeProvider{reply: "10"}
	a := newTestAnalyzer(fp, newFakeClock())

	goals := activeGoals("write the thesis", "train for the marathon", "learn piano")
	goals[2].IsActive = false
	a.Analyze(context.Background(), pageRequest(configuredSettings(), goals))

	prompt := fp.lastPrompt()
	for _, want := range []string{
		"- write the thesis\n- train for the marathon\n",
		"Page title: Ten cat videos you must see",
		"An endless scroll of cats doing things.",
		"single integer from 0 to 100",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("expected prompt to contain %q, got:\n%s", want, prompt)
		}
	}
	if strings.Contains(prompt, "learn piano") {
		t.Error("inactive goals must not appear in the prompt")
	}
}

func TestAnalyze_RecordsRequestTimeBeforeCall(t *testing.T) {
	clock := newFakeClock()
	writer := store.New(store.NewMemory())

	var mu sync.Mutex
	var seen time.Time
	fp := &fakeProvider{reply: "10"}
	fp.onCall = func() {
		mu.Lock()
		defer mu.Unlock()
		seen = writer.Settings(context.Background()).RateLimit.LastRequestTime
	}
	a := newTestAnalyzer(fp, clock, WithSettingsWriter(writer))

	a.Analyze(context.Background(), pageRequest(configuredSettings(), activeGoals("ship v2")))

	mu.Lock()
	defer mu.Unlock()
	if !seen.Equal(clock.Now()) {
		t.Errorf("expected request time %v recorded before the call, got %v", clock.Now(), seen)
	}
}

func TestAnalyze_SettingsWriteFailureContinues(t *testing.T) {
	fp := &fakeProvider{reply: "95"}
	a := newTestAnalyzer(fp, newFakeClock(), WithSettingsWriter(failingWriter{}))

	got := a.Analyze(context.Background(), pageRequest(configuredSettings(), activeGoals("ship v2")))
	if !got.ShouldBlock || got.Failed() {
		t.Errorf("expected analysis to proceed, got %+v", got)
	}
}

// --- Cache Tests ---

func TestAnalyze_CacheHitIsIdentical(t *testing.T) {
	clock := newFakeClock()
	fp := &fakeProvider{reply: "77"}
	fp.onCall = func() { clock.Advance(120 * time.Millisecond) }
	a := newTestAnalyzer(fp, clock)

	req := pageRequest(configuredSettings(), activeGoals("ship v2"))
	first := a.Analyze(context.Background(), req)

	clock.Advance(30 * time.Minute)
	second := a.Analyze(context.Background(), req)

	if first != second {
		t.Errorf("expected identical results, got %+v and %+v", first, second)
	}
	if second.DurationMS != 120 {
		t.Errorf("expected duration from the first call, got %d", second.DurationMS)
	}
	if fp.calls() != 1 {
		t.Errorf("expected one provider call, got %d", fp.calls())
	}
}

func TestAnalyze_CacheExpires(t *testing.T) {
	clock := newFakeClock()
	fp := &fakeProvider{reply: "77"}
	a := newTestAnalyzer(fp, clock)

	req := pageRequest(configuredSettings(), activeGoals("ship v2"))
	a.Analyze(context.Background(), req)
	clock.Advance(time.Hour)
	a.Analyze(context.Background(), req)

	if fp.calls() != 2 {
		t.Errorf("expected a fresh call after expiry, got %d calls", fp.calls())
	}
}

func TestAnalyze_CacheDisabled(t *testing.T) {
	fp := &fakeProvider{reply: "77"}
	a := newTestAnalyzer(fp, newFakeClock())

	s := configuredSettings()
	s.EnableCache = false
	req := pageRequest(s, activeGoals("ship v2"))
	a.Analyze(context.Background(), req)
	a.Analyze(context.Background(), req)

	if fp.calls() != 2 {
		t.Errorf("expected two calls with caching off, got %d", fp.calls())
	}
	if a.Cache().Len() != 0 {
		t.Error("nothing should be cached when caching is off")
	}
}

func TestAnalyze_ClearCacheForcesMiss(t *testing.T) {
	fp := &fakeProvider{reply: "77"}
	a := newTestAnalyzer(fp, newFakeClock())

	req := pageRequest(configuredSettings(), activeGoals("ship v2"))
	a.Analyze(context.Background(), req)
	a.Cache().Clear()
	a.Analyze(context.Background(), req)

	if fp.calls() != 2 {
		t.Errorf("expected a miss after clearing, got %d calls", fp.calls())
	}
}

func TestAnalyze_GoalChangeMisses(t *testing.T) {
	fp := &fakeProvider{reply: "77"}
	a := newTestAnalyzer(fp, newFakeClock())

	a.Analyze(context.Background(), pageRequest(configuredSettings(), activeGoals("ship v2")))
	a.Analyze(context.Background(), pageRequest(configuredSettings(), activeGoals("ship v2", "sleep more")))

	if fp.calls() != 2 {
		t.Errorf("a different goal set must not hit the old entry, got %d calls", fp.calls())
	}
}

// --- Fail-open Tests ---

func TestAnalyze_FailOpen(t *testing.T) {
	tests := []struct {
		name       string
		provider   *fakeProvider
		factoryErr error
		wantErr    string
	}{
		{
			name:     "http 500",
			provider: &fakeProvider{err: &llm.APIError{Provider: "openrouter", StatusCode: 500, Body: "boom"}},
			wantErr:  "openrouter API error (status 500): boom",
		},
		{
			name:     "malformed response",
			provider: &fakeProvider{reply: "N/A"},
			wantErr:  `no valid confidence score in response "N/A"`,
		},
		{
			name:     "out of range score",
			provider: &fakeProvider{reply: "150"},
			wantErr:  `no valid confidence score in response "150"`,
		},
		{
			name:     "empty envelope",
			provider: &fakeProvider{err: llm.ErrEmptyResponse},
			wantErr:  "empty response",
		},
		{
			name:       "provider construction",
			provider:   &fakeProvider{},
			factoryErr: llm.ErrUnknownProvider,
			wantErr:    "unknown provider",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factory := tt.provider.factory()
			if tt.factoryErr != nil {
				factory = func(string, llm.Config) (llm.Provider, error) { return nil, tt.factoryErr }
			}
			a := NewAnalyzer(WithProviderFactory(factory), WithClock(newFakeClock().Now))

			got := a.Analyze(context.Background(), pageRequest(configuredSettings(), activeGoals("ship v2")))

			want := Result{Reasoning: "Analysis failed: " + tt.wantErr, Error: tt.wantErr}
			if got != want {
				t.Errorf("expected %+v, got %+v", want, got)
			}
			if a.Cache().Len() != 0 {
				t.Error("failures must not be cached")
			}
		})
	}
}

func TestAnalyze_ProviderPanicFailsOpen(t *testing.T) {
	fp := &fakeProvider{onCall: func() { panic("nil pointer in adapter") }}
	a := newTestAnalyzer(fp, newFakeClock())

	got := a.Analyze(context.Background(), pageRequest(configuredSettings(), activeGoals("ship v2")))

	want := Result{
		Reasoning: "Analysis failed: provider panic: nil pointer in adapter",
		Error:     "provider panic: nil pointer in adapter",
	}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestAnalyze_Timeout(t *testing.T) {
	defer goleak.VerifyNone(t)

	fp := &fakeProvider{block: true}
	a := NewAnalyzer(
		WithProviderFactory(fp.factory()),
		WithTimeout(20*time.Millisecond),
	)

	start := time.Now()
	got := a.Analyze(context.Background(), pageRequest(configuredSettings(), activeGoals("ship v2")))

	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("timeout did not bound the call, took %v", elapsed)
	}
	want := Result{Reasoning: "Analysis failed: Request timeout", Error: "Request timeout"}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestAnalyze_ParentCancelled(t *testing.T) {
	fp := &fakeProvider{block: true}
	a := newTestAnalyzer(fp, newFakeClock())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := a.Analyze(ctx, pageRequest(configuredSettings(), activeGoals("ship v2")))
	if got.ShouldBlock || got.Error != context.Canceled.Error() {
		t.Errorf("expected cancelled fail-open result, got %+v", got)
	}
}

// --- Credential Tests ---

func TestValidateCredentials(t *testing.T) {
	tests := []struct {
		name       string
		provider   string
		key        string
		accept     bool
		wantFormat bool
		wantValid  bool
	}{
		{name: "bad format", provider: llm.OpenRouter, key: "nope", wantFormat: false},
		{name: "rejected", provider: llm.OpenRouter, key: testKey, accept: false, wantFormat: true},
		{name: "accepted", provider: llm.OpenRouter, key: testKey, accept: true, wantFormat: true, wantValid: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp := &fakeProvider{validate: tt.accept}
			a := newTestAnalyzer(fp, newFakeClock())

			got := a.ValidateCredentials(context.Background(), tt.provider, tt.key, "")
			if got.FormatOK != tt.wantFormat || got.Valid != tt.wantValid {
				t.Errorf("unexpected check: %+v", got)
			}
			if got.Message == "" {
				t.Error("expected a user-facing message")
			}
			if got.Model != llm.DefaultModel(tt.provider) {
				t.Errorf("expected default model, got %q", got.Model)
			}
		})
	}
}
