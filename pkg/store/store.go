package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jmylchreest/goalguard/internal/logger"
)

var (
	// ErrGoalNotFound is returned when a goal id does not exist.
	ErrGoalNotFound = errors.New("goal not found")

	// ErrTooManyGoals is returned when adding a goal would exceed MaxGoals.
	ErrTooManyGoals = fmt.Errorf("at most %d goals are allowed", MaxGoals)
)

// Store provides typed access to goals, settings and analytics.
//
// Reads never fail: a backend error is logged and the last value read
// successfully (or the defaults) is returned instead. Writes go through a
// strict read-modify-write cycle serialised by the store; races with other
// processes sharing the backend are last-write-wins.
type Store struct {
	backend Backend

	mu            sync.Mutex
	lastSettings  *Settings
	lastGoals     []Goal
	lastAnalytics *Analytics

	nowFunc func() time.Time
	newID   func() string
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for goal timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.nowFunc = now }
}

// WithIDGenerator overrides goal id generation.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// New creates a Store over the given backend.
func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		nowFunc: time.Now,
		newID:   func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Backend returns the underlying backend.
func (s *Store) Backend() Backend {
	return s.backend
}

// Close closes the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

// --- Settings ---

// Settings returns the current settings, degrading to the last known value
// or the defaults when the backend cannot be read.
func (s *Store) Settings(ctx context.Context) Settings {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings, err := s.loadSettings(ctx)
	if err != nil {
		logger.WarnContext(ctx, "settings read failed, using fallback",
			"backend", s.backend.Name(), "error", err)
		if s.lastSettings != nil {
			return *s.lastSettings
		}
		return DefaultSettings()
	}
	return settings
}

// UpdateSettings applies patch to the stored settings and returns the result.
// The patched settings are validated before anything is written.
func (s *Store) UpdateSettings(ctx context.Context, patch SettingsPatch) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.loadSettings(ctx)
	if err != nil {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}

	updated := patch.Apply(current)
	if err := ValidateSettings(updated); err != nil {
		return current, err
	}
	if err := s.backend.Save(ctx, KeySettings, updated); err != nil {
		return current, fmt.Errorf("write settings: %w", err)
	}
	s.lastSettings = &updated
	return updated, nil
}

// loadSettings reads settings strictly. Callers must hold s.mu.
func (s *Store) loadSettings(ctx context.Context) (Settings, error) {
	settings := DefaultSettings()
	found, err := s.backend.Load(ctx, KeySettings, &settings)
	if err != nil {
		return Settings{}, err
	}
	if !found {
		settings = DefaultSettings()
	}
	s.lastSettings = &settings
	return settings, nil
}

// --- Goals ---

// Goals returns every stored goal in creation order.
func (s *Store) Goals(ctx context.Context) []Goal {
	s.mu.Lock()
	defer s.mu.Unlock()

	goals, err := s.loadGoals(ctx)
	if err != nil {
		logger.WarnContext(ctx, "goals read failed, using fallback",
			"backend", s.backend.Name(), "error", err)
		return append([]Goal(nil), s.lastGoals...)
	}
	return goals
}

// ActiveGoals returns the goals currently in effect.
func (s *Store) ActiveGoals(ctx context.Context) []Goal {
	return ActiveGoals(s.Goals(ctx))
}

// AddGoal stores a new active goal.
func (s *Store) AddGoal(ctx context.Context, text string) (Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	goals, err := s.loadGoals(ctx)
	if err != nil {
		return Goal{}, fmt.Errorf("read goals: %w", err)
	}
	if len(goals) >= MaxGoals {
		return Goal{}, ErrTooManyGoals
	}

	goal := Goal{
		ID:        s.newID(),
		Text:      strings.TrimSpace(text),
		CreatedAt: s.nowFunc().UTC(),
		IsActive:  true,
	}
	if err := ValidateGoal(goal); err != nil {
		return Goal{}, err
	}

	goals = append(goals, goal)
	if err := s.saveGoals(ctx, goals); err != nil {
		return Goal{}, err
	}
	return goal, nil
}

// SetGoalActive flips a goal in or out of effect.
func (s *Store) SetGoalActive(ctx context.Context, id string, active bool) (Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	goals, err := s.loadGoals(ctx)
	if err != nil {
		return Goal{}, fmt.Errorf("read goals: %w", err)
	}
	for i := range goals {
		if goals[i].ID != id {
			continue
		}
		goals[i].IsActive = active
		if err := s.saveGoals(ctx, goals); err != nil {
			return Goal{}, err
		}
		return goals[i], nil
	}
	return Goal{}, fmt.Errorf("%w: %s", ErrGoalNotFound, id)
}

// DeleteGoal removes a goal.
func (s *Store) DeleteGoal(ctx context.Context, id string) (Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	goals, err := s.loadGoals(ctx)
	if err != nil {
		return Goal{}, fmt.Errorf("read goals: %w", err)
	}
	for i, g := range goals {
		if g.ID != id {
			continue
		}
		remaining := append(goals[:i:i], goals[i+1:]...)
		if err := s.saveGoals(ctx, remaining); err != nil {
			return Goal{}, err
		}
		return g, nil
	}
	return Goal{}, fmt.Errorf("%w: %s", ErrGoalNotFound, id)
}

func (s *Store) loadGoals(ctx context.Context) ([]Goal, error) {
	var goals []Goal
	if _, err := s.backend.Load(ctx, KeyGoals, &goals); err != nil {
		return nil, err
	}
	if goals == nil {
		goals = []Goal{}
	}
	s.lastGoals = append([]Goal(nil), goals...)
	return goals, nil
}

func (s *Store) saveGoals(ctx context.Context, goals []Goal) error {
	if err := s.backend.Save(ctx, KeyGoals, goals); err != nil {
		return fmt.Errorf("write goals: %w", err)
	}
	s.lastGoals = append([]Goal(nil), goals...)
	return nil
}

// --- Analytics ---

// Analytics returns the current counters.
func (s *Store) Analytics(ctx context.Context) Analytics {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.loadAnalytics(ctx)
	if err != nil {
		logger.WarnContext(ctx, "analytics read failed, using fallback",
			"backend", s.backend.Name(), "error", err)
		if s.lastAnalytics != nil {
			return *s.lastAnalytics
		}
		return Analytics{}
	}
	return a
}

// UpdateAnalytics adds delta to the stored counters.
func (s *Store) UpdateAnalytics(ctx context.Context, delta AnalyticsDelta) (Analytics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.loadAnalytics(ctx)
	if err != nil {
		return Analytics{}, fmt.Errorf("read analytics: %w", err)
	}
	a.TotalRequests += delta.TotalRequests
	a.BlockedPages += delta.BlockedPages
	a.BypassedPages += delta.BypassedPages
	return a, s.saveAnalytics(ctx, a)
}

// ResetAnalytics subtracts every counter back to zero.
func (s *Store) ResetAnalytics(ctx context.Context) (Analytics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero Analytics
	return zero, s.saveAnalytics(ctx, zero)
}

func (s *Store) loadAnalytics(ctx context.Context) (Analytics, error) {
	var a Analytics
	if _, err := s.backend.Load(ctx, KeyAnalytics, &a); err != nil {
		return Analytics{}, err
	}
	s.lastAnalytics = &a
	return a, nil
}

func (s *Store) saveAnalytics(ctx context.Context, a Analytics) error {
	if err := s.backend.Save(ctx, KeyAnalytics, a); err != nil {
		return fmt.Errorf("write analytics: %w", err)
	}
	s.lastAnalytics = &a
	return nil
}
