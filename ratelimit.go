package auth

import (
	"sync"
	"time"
)

// RateLimiter is a per-key sliding-window request counter behind one mutex.
// It throttles across requests, so the bucket map is process-wide shared
// state; it is modeled as an injectable component rather than a package
// global so tests can instantiate independent limiters. The lock is held
// only for the prune-check-append section, never across I/O.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string][]time.Time
	now     func() time.Time
}

type RateLimiterOption func(*RateLimiter)

// WithRateLimiterClock injects a custom clock (useful for tests).
func WithRateLimiterClock(clock func() time.Time) RateLimiterOption {
	return func(rl *RateLimiter) {
		if clock != nil {
			rl.now = clock
		}
	}
}

// NewRateLimiter returns an empty limiter.
func NewRateLimiter(opts ...RateLimiterOption) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string][]time.Time),
		now:     time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(rl)
		}
	}

	return rl
}

// Allow prunes timestamps older than the window, then either records the
// request and returns true, or returns false without recording.
//
// TODO: idle keys are only pruned when touched again, so a long-running
// process accumulates one empty-able bucket per distinct key; add periodic
// eviction if key cardinality ever grows beyond action+IP pairs.
func (rl *RateLimiter) Allow(key string, maxRequests int, window time.Duration) bool {
	if maxRequests <= 0 {
		return false
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cutoff := now.Add(-window)

	// entries exactly one window old still count; only strictly older
	// timestamps fall out
	kept := rl.buckets[key][:0]
	for _, ts := range rl.buckets[key] {
		if !ts.Before(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= maxRequests {
		rl.buckets[key] = kept
		return false
	}

	rl.buckets[key] = append(kept, now)
	return true
}

// Size reports the number of tracked keys. Diagnostic only.
func (rl *RateLimiter) Size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}
