// Package ratelimit throttles requests per key (client IP, login email).
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter decides whether one more request for key is allowed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryLimiter is a per-key token bucket kept in process memory.
type MemoryLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	ttl      time.Duration
	now      func() time.Time
}

var _ Limiter = (*MemoryLimiter)(nil)

func NewMemoryLimiter(rps float64, burst int) *MemoryLimiter {
	return &MemoryLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(rps),
		burst:    burst,
		ttl:      10 * time.Minute,
		now:      time.Now,
	}
}

// NewWindowLimiter allows n requests per window, refilled evenly.
func NewWindowLimiter(n int, window time.Duration) *MemoryLimiter {
	if n <= 0 {
		n = 1
	}
	l := NewMemoryLimiter(0, n)
	l.limit = rate.Every(window / time.Duration(n))
	if window > l.ttl {
		l.ttl = window
	}
	return l
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	l.evict(now)
	return v.limiter.AllowN(now, 1), nil
}

func (l *MemoryLimiter) evict(now time.Time) {
	for k, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.ttl {
			delete(l.visitors, k)
		}
	}
}
