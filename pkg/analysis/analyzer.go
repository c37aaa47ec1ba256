package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmylchreest/goalguard/internal/logger"
	"github.com/jmylchreest/goalguard/pkg/cache"
	"github.com/jmylchreest/goalguard/pkg/confidence"
	"github.com/jmylchreest/goalguard/pkg/llm"
	"github.com/jmylchreest/goalguard/pkg/ratelimit"
	"github.com/jmylchreest/goalguard/pkg/store"
)

// DefaultTimeout bounds a single provider call.
const DefaultTimeout = 10 * time.Second

// SettingsWriter persists partial settings updates. *store.Store implements it.
type SettingsWriter interface {
	UpdateSettings(ctx context.Context, patch store.SettingsPatch) (store.Settings, error)
}

// ProviderFactory creates a provider by name. llm.NewProvider is the default.
type ProviderFactory func(name string, cfg llm.Config) (llm.Provider, error)

// Request is one page to analyse.
type Request struct {
	Title    string
	Content  string
	URL      string
	Goals    []store.Goal
	Settings store.Settings
}

// Analyzer turns a page and the user's goals into a block decision.
type Analyzer struct {
	cache       *cache.Cache[Result]
	settings    SettingsWriter
	newProvider ProviderFactory
	llmConfig   llm.Config
	baseURLs    map[string]string
	timeout     time.Duration
	nowFunc     func() time.Time
	log         *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithCache shares a result cache with the caller.
func WithCache(c *cache.Cache[Result]) Option {
	return func(a *Analyzer) { a.cache = c }
}

// WithSettingsWriter sets where the last request time is recorded.
func WithSettingsWriter(w SettingsWriter) Option {
	return func(a *Analyzer) { a.settings = w }
}

// WithProviderFactory overrides provider construction.
func WithProviderFactory(f ProviderFactory) Option {
	return func(a *Analyzer) { a.newProvider = f }
}

// WithProviderConfig sets the base provider config (retries, HTTP client,
// attribution headers). APIKey, Model and BaseURL are filled per request.
func WithProviderConfig(cfg llm.Config) Option {
	return func(a *Analyzer) { a.llmConfig = cfg }
}

// WithBaseURL overrides the endpoint for one provider.
func WithBaseURL(provider, url string) Option {
	return func(a *Analyzer) {
		if url != "" {
			a.baseURLs[provider] = url
		}
	}
}

// WithTimeout overrides DefaultTimeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(a *Analyzer) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) { a.nowFunc = now }
}

// WithLogger overrides the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) { a.log = l }
}

// NewAnalyzer creates an Analyzer. Without options it uses a private one
// hour cache, llm.NewProvider and no settings writer.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{
		newProvider: llm.NewProvider,
		llmConfig:   llm.DefaultConfig(),
		baseURLs:    make(map[string]string),
		timeout:     DefaultTimeout,
		nowFunc:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.cache == nil {
		a.cache = cache.New[Result](cache.WithClock(a.nowFunc))
	}
	if a.log == nil {
		a.log = logger.Named("analysis")
	}
	return a
}

// Cache returns the result cache.
func (a *Analyzer) Cache() *cache.Cache[Result] {
	return a.cache
}

// Timeout returns the provider call bound.
func (a *Analyzer) Timeout() time.Duration {
	return a.timeout
}

// Analyze runs the decision pipeline. It never fails: every error becomes
// an allowing Result.
func (a *Analyzer) Analyze(ctx context.Context, req Request) Result {
	s := req.Settings
	log := a.log.With("url", req.URL)

	if !s.Configured() {
		return skip(ctx, log, ErrNotConfigured)
	}

	active := store.ActiveGoals(req.Goals)
	if len(active) == 0 {
		return skip(ctx, log, ErrNoGoals)
	}
	goalTexts := store.GoalTexts(active)

	now := a.nowFunc()
	if ratelimit.IsRateLimited(s.RateLimit, now) {
		return skip(ctx, log.With("next_allowed", ratelimit.NextAllowed(s.RateLimit)), ErrRateLimited)
	}

	var key string
	if s.EnableCache {
		key = cache.Fingerprint(req.URL, req.Content, goalTexts)
		if cached, ok := a.cache.Get(key); ok {
			log.DebugContext(ctx, "cache hit", "confidence", cached.Confidence)
			return cached
		}
	}

	a.recordRequestTime(ctx, now)

	result, err := a.dispatch(ctx, req, goalTexts)
	if err != nil {
		log.WarnContext(ctx, "analysis failed, allowing page",
			"provider", s.Provider, "category", Classify(err), "error", err)
		return failed(err)
	}

	log.InfoContext(ctx, "page analysed",
		"provider", result.Provider,
		"model", result.Model,
		"confidence", result.Confidence,
		"should_block", result.ShouldBlock,
		"duration_ms", result.DurationMS)

	if key != "" {
		a.cache.Put(key, result)
	}
	return result
}

var skipReasons = map[error]string{
	ErrNotConfigured: ReasonNotConfigured,
	ErrNoGoals:       ReasonNoGoals,
	ErrRateLimited:   ReasonRateLimited,
}

// skip ends the pipeline before any provider call.
func skip(ctx context.Context, log *slog.Logger, err error) Result {
	log.DebugContext(ctx, "analysis skipped", "category", Classify(err))
	return allow(skipReasons[err])
}

// recordRequestTime persists the request time before the call goes out so
// overlapping analyses are throttled. Failures are logged only.
func (a *Analyzer) recordRequestTime(ctx context.Context, now time.Time) {
	if a.settings == nil {
		return
	}
	if _, err := a.settings.UpdateSettings(ctx, store.SettingsPatch{LastRequestTime: &now}); err != nil {
		a.log.WarnContext(ctx, "failed to record request time", "error", err)
	}
}

func (a *Analyzer) dispatch(ctx context.Context, req Request, goals []string) (Result, error) {
	start := a.nowFunc()
	s := req.Settings

	prompt := BuildPrompt(goals, req.Title, req.Content)

	provider, err := a.provider(string(s.Provider), s.APIKey, s.Model)
	if err != nil {
		return Result{}, err
	}

	raw, err := a.send(ctx, provider, prompt)
	if err != nil {
		return Result{}, err
	}

	score, ok := confidence.Parse(raw)
	if !ok {
		return Result{}, &ParseError{Raw: raw}
	}

	return Result{
		Confidence:  score,
		ShouldBlock: score >= s.ConfidenceThreshold,
		Reasoning:   fmt.Sprintf("Distraction confidence %d%% (threshold %d%%)", score, s.ConfidenceThreshold),
		Provider:    provider.Name(),
		Model:       provider.Model(),
		DurationMS:  a.nowFunc().Sub(start).Milliseconds(),
	}, nil
}

// provider builds a provider for one request; an empty model selects the
// provider default.
func (a *Analyzer) provider(name, apiKey, model string) (llm.Provider, error) {
	if model == "" {
		model = llm.DefaultModel(name)
	}
	cfg := a.llmConfig
	cfg.APIKey = apiKey
	cfg.Model = model
	cfg.BaseURL = a.baseURLs[name]
	return a.newProvider(name, cfg)
}

type reply struct {
	text string
	err  error
}

// send races the provider call against the timeout. The losing call's
// context is cancelled and its reply discarded.
func (a *Analyzer) send(ctx context.Context, p llm.Provider, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	replies := make(chan reply, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				replies <- reply{err: fmt.Errorf("%w: %v", ErrProviderPanic, r)}
			}
		}()
		text, err := p.SendPrompt(ctx, prompt)
		replies <- reply{text: text, err: err}
	}()

	select {
	case r := <-replies:
		if r.err != nil && errors.Is(r.err, context.DeadlineExceeded) {
			return "", ErrTimeout
		}
		return r.text, r.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", ErrTimeout
		}
		return "", ctx.Err()
	}
}

// CredentialCheck is the user-visible outcome of validating an API key.
type CredentialCheck struct {
	Provider string `json:"provider" yaml:"provider"`
	Model    string `json:"model" yaml:"model"`
	FormatOK bool   `json:"format_ok" yaml:"format_ok"`
	Valid    bool   `json:"valid" yaml:"valid"`
	Message  string `json:"message" yaml:"message"`
}

// ValidateCredentials checks the key's format and then asks the provider
// whether it accepts it. It never returns an error; the outcome is reported
// in the CredentialCheck.
func (a *Analyzer) ValidateCredentials(ctx context.Context, provider, apiKey, model string) CredentialCheck {
	check := CredentialCheck{Provider: provider, Model: model}
	if check.Model == "" {
		check.Model = llm.DefaultModel(provider)
	}

	if err := llm.ValidateKeyFormat(provider, apiKey); err != nil {
		check.Message = err.Error()
		return check
	}
	check.FormatOK = true

	p, err := a.provider(provider, apiKey, model)
	if err != nil {
		check.Message = err.Error()
		return check
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if !p.ValidateCredentials(ctx) {
		check.Message = fmt.Sprintf("API key was rejected by %s", provider)
		a.log.InfoContext(ctx, "credential check failed", "provider", provider)
		return check
	}
	check.Valid = true
	check.Message = "API key is valid"
	return check
}

// WriteText renders the check for the CLI.
func (c CredentialCheck) WriteText(w io.Writer) error {
	status := "invalid"
	if c.Valid {
		status = "valid"
	}
	_, err := fmt.Fprintf(w, "%s (%s, %s): %s\n", status, c.Provider, c.Model, c.Message)
	return err
}
