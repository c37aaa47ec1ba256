// Package ratelimit spaces provider calls by wall-clock time.
//
// The limiter is a recency check, not a token bucket: two analyses started on
// the same tick can both pass before either records its request time.
package ratelimit

import (
	"time"

	"github.com/jmylchreest/goalguard/pkg/store"
)

// MinInterval returns the minimum spacing between requests for rpm requests
// per minute. A non-positive rpm disables limiting.
func MinInterval(rpm int) time.Duration {
	if rpm <= 0 {
		return 0
	}
	return time.Minute / time.Duration(rpm)
}

// IsRateLimited reports whether a request at now would come too soon after
// rl.LastRequestTime.
func IsRateLimited(rl store.RateLimit, now time.Time) bool {
	interval := MinInterval(rl.RequestsPerMinute)
	if interval == 0 || rl.LastRequestTime.IsZero() {
		return false
	}
	return now.Sub(rl.LastRequestTime) < interval
}

// NextAllowed returns the earliest time a request is permitted.
func NextAllowed(rl store.RateLimit) time.Time {
	if rl.LastRequestTime.IsZero() {
		return time.Time{}
	}
	return rl.LastRequestTime.Add(MinInterval(rl.RequestsPerMinute))
}
