// Package cache memoises analysis results per page state.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"
)

// DefaultDuration is how long an entry stays valid.
const DefaultDuration = time.Hour

// PrefixLength is how many runes of page content feed the fingerprint.
const PrefixLength = 100

// Fingerprint derives the cache key for a page state from the URL, the
// first PrefixLength runes of content and the active goal texts.
// Pages sharing a URL and content prefix under the same goals collide.
func Fingerprint(url, content string, goals []string) string {
	var b strings.Builder
	b.WriteString(url)
	b.WriteString(runePrefix(content, PrefixLength))
	b.WriteString(strings.Join(goals, "|"))

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func runePrefix(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// Stats summarises cache occupancy.
type Stats struct {
	Total   int `json:"total" yaml:"total"`
	Valid   int `json:"valid" yaml:"valid"`
	Expired int `json:"expired" yaml:"expired"`
}

// Cache maps fingerprints to values with time-based expiry. Expired entries
// are removed lazily by Get, or in bulk by Sweep.
type Cache[V any] struct {
	mu       sync.Mutex
	entries  map[string]entry[V]
	duration time.Duration
	nowFunc  func() time.Time
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	duration time.Duration
	nowFunc  func() time.Time
}

// WithDuration sets the validity window. Non-positive values keep the default.
func WithDuration(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.duration = d
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.nowFunc = now }
}

// New creates an empty cache.
func New[V any](opts ...Option) *Cache[V] {
	o := options{duration: DefaultDuration, nowFunc: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Cache[V]{
		entries:  make(map[string]entry[V]),
		duration: o.duration,
		nowFunc:  o.nowFunc,
	}
}

// Duration returns the validity window.
func (c *Cache[V]) Duration() time.Duration {
	return c.duration
}

// Get returns the value stored under key if it has not expired.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if c.expired(e, c.nowFunc()) {
		delete(c.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Put stores value under key, stamped with the current time.
func (c *Cache[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{value: value, storedAt: c.nowFunc()}
}

// Clear drops every entry.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}

// Len returns the number of entries, expired or not.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats counts valid and expired entries without evicting anything.
func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.nowFunc()
	s := Stats{Total: len(c.entries)}
	for _, e := range c.entries {
		if c.expired(e, now) {
			s.Expired++
		} else {
			s.Valid++
		}
	}
	return s
}

// Sweep removes expired entries and returns how many were dropped.
func (c *Cache[V]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.nowFunc()
	removed := 0
	for k, e := range c.entries {
		if c.expired(e, now) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

func (c *Cache[V]) expired(e entry[V], now time.Time) bool {
	return now.Sub(e.storedAt) >= c.duration
}
