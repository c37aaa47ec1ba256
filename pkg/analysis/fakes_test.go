package analysis

import (
	"context"
	"sync"
	"time"

	"github.com/jmylchreest/goalguard/pkg/llm"
	"github.com/jmylchreest/goalguard/pkg/store"
)

// fakeProvider is a scriptable llm.Provider.
type fakeProvider struct {
	mu       sync.Mutex
	name     string
	model    string
	reply    string
	err      error
	block    bool          // wait for context cancellation
	gate     chan struct{} // when set, wait for it to close before replying
	started  chan struct{} // when set, signalled on every call
	onCall   func()
	validate bool
	prompts  []string
	configs  []llm.Config
}

func (f *fakeProvider) SendPrompt(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	onCall := f.onCall
	f.mu.Unlock()

	if onCall != nil {
		onCall()
	}
	if f.started != nil {
		select {
		case f.started <- struct{}{}:
		default:
		}
	}
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if f.gate != nil {
		<-f.gate
	}
	return f.reply, f.err
}

func (f *fakeProvider) ValidateCredentials(context.Context) bool { return f.validate }

func (f *fakeProvider) Name() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.name
}

func (f *fakeProvider) Model() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.model
}

func (f *fakeProvider) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func (f *fakeProvider) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

func (f *fakeProvider) lastConfig() llm.Config {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.configs) == 0 {
		return llm.Config{}
	}
	return f.configs[len(f.configs)-1]
}

// factory returns a ProviderFactory that always hands out f.
func (f *fakeProvider) factory() ProviderFactory {
	return func(name string, cfg llm.Config) (llm.Provider, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.name = name
		f.model = cfg.Model
		f.configs = append(f.configs, cfg)
		return f, nil
	}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// failingWriter rejects every settings update.
type failingWriter struct{}

func (failingWriter) UpdateSettings(context.Context, store.SettingsPatch) (store.Settings, error) {
	return store.Settings{}, context.DeadlineExceeded
}

const testKey = "sk-or-v1-0123456789abcdef"

func configuredSettings() store.Settings {
	s := store.DefaultSettings()
	s.APIKey = testKey
	return s
}

func activeGoals(texts ...string) []store.Goal {
	goals := make([]store.Goal, len(texts))
	for i, t := range texts {
		goals[i] = store.Goal{ID: t, Text: t, IsActive: true}
	}
	return goals
}

func ptr[T any](v T) *T { return &v }
