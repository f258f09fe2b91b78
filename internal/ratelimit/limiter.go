package ratelimit

import (
	"sync"
	"time"
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

type bucket struct {
	count   int
	resetAt time.Time
}

// Limiter counts requests per key in fixed windows. The first request in a
// window creates the bucket; once count reaches the limit further requests in
// the same window are rejected; an elapsed window is replaced, not incremented.
//
// A burst of up to twice the limit can legally cross a window boundary. That
// is the documented fixed-window trade-off and is kept on purpose.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	calls   uint64
	now     func() time.Time
}

// Sweep expired buckets every this many Allow calls. Keeps the table bounded
// without a background goroutine.
const cleanupEvery = 512

// New builds an empty limiter.
func New() *Limiter {
	return &Limiter{
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

// Allow records one request for key and reports whether it fits in the
// current window. The check-and-increment is a single atomic step per key, so
// two concurrent requests can never both consume the last slot.
func (l *Limiter) Allow(key string, limit int, window time.Duration) Decision {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Second
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	l.calls++
	if l.calls%cleanupEvery == 0 {
		l.cleanupLocked(now)
	}

	b, ok := l.buckets[key]
	if !ok || !now.Before(b.resetAt) {
		b = &bucket{resetAt: now.Add(window)}
		l.buckets[key] = b
	}

	if b.count >= limit {
		return Decision{Allowed: false, Limit: limit, Remaining: 0, ResetAt: b.resetAt}
	}

	b.count++
	return Decision{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - b.count,
		ResetAt:   b.resetAt,
	}
}

// Size reports the number of tracked buckets, expired ones included.
func (l *Limiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *Limiter) cleanupLocked(now time.Time) {
	for key, b := range l.buckets {
		if !now.Before(b.resetAt) {
			delete(l.buckets, key)
		}
	}
}
