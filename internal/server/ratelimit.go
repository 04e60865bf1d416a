package server

import (
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/opencode-ai/mcp-gateway/pkg/types"
)

// slidingLimiter implements the per-client sliding-window limiter named in
// SPEC_FULL.md §4.1: a bucket of request timestamps per client, trimmed to
// [now-W, now] on every check, adapted from mattermost-plugin-cursor's
// inMemoryRateLimiter (map+mutex per key) but switched from a fixed window
// to a true sliding one per the spec's "trim timestamps older than now-W"
// contract.
type slidingLimiter struct {
	mu      sync.Mutex
	buckets map[string][]time.Time
	window  time.Duration
	cap     int
	now     func() time.Time
}

func newSlidingLimiter(cfg types.RateLimitConfig) *slidingLimiter {
	window := cfg.Window
	if window <= 0 {
		window = 60 * time.Second
	}
	cap := cfg.Cap
	if cap <= 0 {
		cap = 100
	}
	return &slidingLimiter{buckets: make(map[string][]time.Time), window: window, cap: cap, now: time.Now}
}

// result carries the decision plus the bookkeeping needed for X-RateLimit-* headers.
type limitResult struct {
	allowed   bool
	limit     int
	remaining int
}

func (l *slidingLimiter) check(key string) limitResult {
	now := l.now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.buckets[key][:0]
	for _, ts := range l.buckets[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= l.cap {
		l.buckets[key] = kept
		return limitResult{allowed: false, limit: l.cap, remaining: 0}
	}

	kept = append(kept, now)
	l.buckets[key] = kept
	return limitResult{allowed: true, limit: l.cap, remaining: l.cap - len(kept)}
}

// clientKey derives the rate-limit bucket key from the request's remote
// address.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// rateLimitMiddleware enforces the sliding window on every request it wraps
// and emits X-RateLimit-* headers per SPEC_FULL.md §4.1.
func rateLimitMiddleware(limiter *slidingLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			result := limiter.check(clientKey(r))

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.remaining))

			if !result.allowed {
				// Retry-After is the window length itself (SPEC_FULL.md §4.1:
				// ceil(W/1000)), not the dynamic remainder until the oldest
				// timestamp expires.
				retryAfter := int(math.Ceil(limiter.window.Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				writeErrorStatus(w, requestIDFrom(r.Context()), http.StatusTooManyRequests, fmt.Sprintf("rate limit exceeded: %d requests per %s", result.limit, limiter.window))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
