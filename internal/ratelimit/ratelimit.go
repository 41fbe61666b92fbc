// Package ratelimit provides keyed token-bucket rate limiting for HTTP
// endpoints. The in-memory implementation suits a single-instance
// deployment; the interface leaves room for a distributed one.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter decides whether a request identified by key may proceed.
type RateLimiter interface {
	Allow(ctx context.Context, key string) bool
}

// InMemoryRateLimiter keeps one token bucket per key and evicts buckets
// that have been idle past maxAge.
type InMemoryRateLimiter struct {
	rate  rate.Limit
	burst int

	limiters   sync.Map // map[string]*rate.Limiter
	lastAccess sync.Map // map[string]time.Time

	cleanupInterval time.Duration
	maxAge          time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once
}

// NewInMemoryRateLimiter creates a limiter allowing rps requests per second
// per key with the given burst.
func NewInMemoryRateLimiter(rps float64, burst int) *InMemoryRateLimiter {
	l := &InMemoryRateLimiter{
		rate:            rate.Limit(rps),
		burst:           burst,
		cleanupInterval: 5 * time.Minute,
		maxAge:          10 * time.Minute,
		stopCleanup:     make(chan struct{}),
	}
	go l.cleanup()
	return l
}

// Allow reports whether one request for key is within the limit.
func (l *InMemoryRateLimiter) Allow(_ context.Context, key string) bool {
	limiter := l.getLimiter(key)
	l.lastAccess.Store(key, time.Now().UTC())
	return limiter.Allow()
}

// Stop terminates the background cleanup goroutine.
func (l *InMemoryRateLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCleanup) })
}

func (l *InMemoryRateLimiter) getLimiter(key string) *rate.Limiter {
	if v, ok := l.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}
	v, _ := l.limiters.LoadOrStore(key, rate.NewLimiter(l.rate, l.burst))
	return v.(*rate.Limiter)
}

func (l *InMemoryRateLimiter) cleanup() {
	ticker := time.NewTicker(l.cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().UTC().Add(-l.maxAge)
			l.lastAccess.Range(func(key, value any) bool {
				if t, ok := value.(time.Time); ok && t.Before(cutoff) {
					l.limiters.Delete(key)
					l.lastAccess.Delete(key)
				}
				return true
			})
		case <-l.stopCleanup:
			return
		}
	}
}
