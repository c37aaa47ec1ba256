package analysis

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jmylchreest/goalguard/internal/logger"
	"github.com/jmylchreest/goalguard/pkg/cache"
	"github.com/jmylchreest/goalguard/pkg/content"
	"github.com/jmylchreest/goalguard/pkg/store"
)

// Page is a visited page as reported by the browser.
// When Content is empty it is extracted from HTML.
type Page struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content,omitempty"`
	HTML    string `json:"html,omitempty"`
}

// Decision is the answer for one page: the analysis result plus the goals
// an overlay would remind the user of.
type Decision struct {
	Result    `yaml:",inline"`
	URL       string   `json:"url" yaml:"url"`
	Goals     []string `json:"goals" yaml:"goals"`
	Threshold int      `json:"threshold" yaml:"threshold"`
}

// WriteText renders the decision for the CLI.
func (d Decision) WriteText(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%s\n", d.URL); err != nil {
		return err
	}
	if err := d.Result.WriteText(w); err != nil {
		return err
	}
	for _, g := range d.Goals {
		if _, err := fmt.Fprintf(w, "  - %s\n", g); err != nil {
			return err
		}
	}
	return nil
}

// Service coordinates page analyses with the store: it loads settings and
// goals, coalesces duplicate triggers, counts analytics and keeps the result
// cache consistent with the active goal set.
type Service struct {
	store     *store.Store
	analyzer  *Analyzer
	extractor *content.Extractor
	inflight  singleflight.Group
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithExtractor overrides the content extractor used for HTML pages.
func WithExtractor(e *content.Extractor) ServiceOption {
	return func(s *Service) { s.extractor = e }
}

// NewService creates a Service.
func NewService(st *store.Store, analyzer *Analyzer, opts ...ServiceOption) *Service {
	s := &Service{
		store:     st,
		analyzer:  analyzer,
		extractor: content.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying store.
func (s *Service) Store() *store.Store {
	return s.store
}

// HandlePage analyses a page for a tab. While an analysis for the same
// (tab, url) is in flight, further calls wait for and share its decision
// instead of issuing another provider request.
func (s *Service) HandlePage(ctx context.Context, tabID int, page Page) Decision {
	key := fmt.Sprintf("%d|%s", tabID, page.URL)

	v, _, shared := s.inflight.Do(key, func() (any, error) {
		return s.handle(context.WithoutCancel(ctx), page), nil
	})
	if shared {
		logger.DebugContext(ctx, "coalesced page analysis", "tab_id", tabID, "url", page.URL)
	}
	return v.(Decision)
}

func (s *Service) handle(ctx context.Context, page Page) Decision {
	settings := s.store.Settings(ctx)
	active := store.ActiveGoals(s.store.Goals(ctx))

	decision := Decision{
		URL:       page.URL,
		Goals:     store.GoalTexts(active),
		Threshold: settings.ConfidenceThreshold,
	}
	if !settings.Enabled {
		decision.Result = allow(ReasonDisabled)
		return decision
	}

	title, text := page.Title, page.Content
	if text == "" && page.HTML != "" {
		extracted := s.extractor.Extract(page.HTML)
		text = extracted.Text
		if title == "" {
			title = extracted.Title
		}
	}

	decision.Result = s.analyzer.Analyze(ctx, Request{
		Title:    title,
		Content:  text,
		URL:      page.URL,
		Goals:    active,
		Settings: settings,
	})

	delta := store.AnalyticsDelta{TotalRequests: 1}
	if decision.ShouldBlock {
		delta.BlockedPages = 1
	}
	if _, err := s.store.UpdateAnalytics(ctx, delta); err != nil {
		logger.WarnContext(ctx, "failed to update analytics", "error", err)
	}
	return decision
}

// RecordBypass counts a user choosing to continue to a blocked page.
func (s *Service) RecordBypass(ctx context.Context) (store.Analytics, error) {
	return s.store.UpdateAnalytics(ctx, store.AnalyticsDelta{BypassedPages: 1})
}

// --- Goals ---

// Goals returns every stored goal.
func (s *Service) Goals(ctx context.Context) []store.Goal {
	return s.store.Goals(ctx)
}

// AddGoal stores a new active goal and clears the result cache.
func (s *Service) AddGoal(ctx context.Context, text string) (store.Goal, error) {
	return s.mutateGoals(ctx, func() (store.Goal, error) {
		return s.store.AddGoal(ctx, text)
	})
}

// SetGoalActive toggles a goal, clearing the cache if the active set changed.
func (s *Service) SetGoalActive(ctx context.Context, id string, active bool) (store.Goal, error) {
	return s.mutateGoals(ctx, func() (store.Goal, error) {
		return s.store.SetGoalActive(ctx, id, active)
	})
}

// DeleteGoal removes a goal, clearing the cache if it was active.
func (s *Service) DeleteGoal(ctx context.Context, id string) (store.Goal, error) {
	return s.mutateGoals(ctx, func() (store.Goal, error) {
		return s.store.DeleteGoal(ctx, id)
	})
}

// mutateGoals runs fn and clears the result cache when the active goal set
// differs afterwards.
func (s *Service) mutateGoals(ctx context.Context, fn func() (store.Goal, error)) (store.Goal, error) {
	before := s.activeGoalIDs(ctx)
	g, err := fn()
	if err != nil {
		return g, err
	}
	if !slices.Equal(before, s.activeGoalIDs(ctx)) {
		s.ClearCache()
		logger.DebugContext(ctx, "active goals changed, result cache cleared")
	}
	return g, nil
}

func (s *Service) activeGoalIDs(ctx context.Context) []string {
	active := store.ActiveGoals(s.store.Goals(ctx))
	ids := make([]string, len(active))
	for i, g := range active {
		ids[i] = g.ID
	}
	return ids
}

// --- Settings and analytics ---

// Settings returns the current settings.
func (s *Service) Settings(ctx context.Context) store.Settings {
	return s.store.Settings(ctx)
}

// UpdateSettings applies a partial settings update.
func (s *Service) UpdateSettings(ctx context.Context, patch store.SettingsPatch) (store.Settings, error) {
	return s.store.UpdateSettings(ctx, patch)
}

// Analytics returns the usage counters.
func (s *Service) Analytics(ctx context.Context) store.Analytics {
	return s.store.Analytics(ctx)
}

// ResetAnalytics zeroes the usage counters.
func (s *Service) ResetAnalytics(ctx context.Context) (store.Analytics, error) {
	return s.store.ResetAnalytics(ctx)
}

// ValidateCredentials checks a key without storing it. Empty arguments fall
// back to the stored settings, so a call with no arguments checks the
// configured key.
func (s *Service) ValidateCredentials(ctx context.Context, provider, apiKey, model string) CredentialCheck {
	current := s.store.Settings(ctx)
	if strings.TrimSpace(provider) == "" {
		provider = string(current.Provider)
		if model == "" {
			model = current.Model
		}
	}
	if apiKey == "" && provider == string(current.Provider) {
		apiKey = current.APIKey
	}
	return s.analyzer.ValidateCredentials(ctx, provider, apiKey, model)
}

// --- Cache ---

// ClearCache drops every cached result.
func (s *Service) ClearCache() {
	s.analyzer.Cache().Clear()
}

// CacheStats reports cache occupancy.
func (s *Service) CacheStats() cache.Stats {
	return s.analyzer.Cache().Stats()
}

// SweepCache removes expired results.
func (s *Service) SweepCache() int {
	return s.analyzer.Cache().Sweep()
}

// RunSweeper removes expired cache entries every interval until ctx is done.
func (s *Service) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.SweepCache(); n > 0 {
				logger.DebugContext(ctx, "swept expired cache entries", "removed", n)
			}
		}
	}
}
