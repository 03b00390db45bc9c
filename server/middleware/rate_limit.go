// Package middleware carries HTTP-agnostic request policies shared by the
// router services.
package middleware

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per key. Keys are typically user ids;
// the companion turn endpoint uses it to keep one user from monopolizing
// the provider.
type RateLimiter struct {
	every time.Duration
	burst int

	mu       sync.Mutex
	limits   map[string]*limiterEntry
	lastSeen time.Duration
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastUsed time.Time
}

// NewRateLimiter creates a limiter allowing one event per `every` with the
// given burst. Buckets idle for an hour are pruned on access.
func NewRateLimiter(every time.Duration, burst int) *RateLimiter {
	if every <= 0 {
		every = time.Second
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		every:  every,
		burst:  burst,
		limits: make(map[string]*limiterEntry),
	}
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if len(rl.limits) > 1024 {
		for k, entry := range rl.limits {
			if now.Sub(entry.lastUsed) > time.Hour {
				delete(rl.limits, k)
			}
		}
	}

	if entry, ok := rl.limits[key]; ok {
		entry.lastUsed = now
		return entry.limiter
	}
	entry := &limiterEntry{
		limiter:  rate.NewLimiter(rate.Every(rl.every), rl.burst),
		lastUsed: now,
	}
	rl.limits[key] = entry
	return entry.limiter
}

// Allow reports whether an event may proceed for the given key.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.getLimiter(key).Allow()
}

// Wait blocks until an event may proceed or the context is done.
func (rl *RateLimiter) Wait(ctx context.Context, key string) error {
	return rl.getLimiter(key).Wait(ctx)
}
