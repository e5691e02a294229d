package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const defaultIdleTTL = 10 * time.Minute

// Limiter keeps one token bucket per client key.
type Limiter struct {
	config  Config
	buckets map[string]*TokenBucket
	mu      sync.Mutex
	now     func() time.Time
}

// New creates a limiter. A zero RequestsPerMinute allows every request.
func New(config Config) *Limiter {
	if config.Burst <= 0 {
		config.Burst = config.RequestsPerMinute
	}
	if config.IdleTTL <= 0 {
		config.IdleTTL = defaultIdleTTL
	}
	return &Limiter{
		config:  config,
		buckets: make(map[string]*TokenBucket),
		now:     time.Now,
	}
}

// Allow takes one token from key's bucket.
func (l *Limiter) Allow(key string) Result {
	if l.config.RequestsPerMinute <= 0 {
		return Result{Allowed: true}
	}

	b := l.bucket(key)
	if b.Take(1) {
		return Result{Allowed: true, Limit: b.Capacity(), Remaining: b.Remaining()}
	}

	retry := b.TimeUntilAvailable(1)
	if retry < time.Second {
		retry = time.Second
	}
	return Result{
		Allowed:    false,
		Limit:      b.Capacity(),
		Remaining:  0,
		RetryAfter: retry,
	}
}

func (l *Limiter) bucket(key string) *TokenBucket {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = newTokenBucket(int64(l.config.Burst), float64(l.config.RequestsPerMinute)/60.0, l.now)
		l.buckets[key] = b
	}
	return b
}

// Sweep drops buckets unused for longer than IdleTTL and returns how many
// were removed.
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.config.IdleTTL)
	removed := 0
	for key, b := range l.buckets {
		if b.idleSince().Before(cutoff) {
			delete(l.buckets, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked clients.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// StartJanitor calls Sweep every interval until ctx is done.
func (l *Limiter) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := l.Sweep(); n > 0 {
					slog.Debug("rate limiter swept idle clients", "removed", n)
				}
			}
		}
	}()
}
