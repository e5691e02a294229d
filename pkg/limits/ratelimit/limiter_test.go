package ratelimit

import (
	"sync"
	"testing"
	"time"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newClock() *clock {
	return &clock{t: time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)}
}

func TestTokenBucket_Basic(t *testing.T) {
	bucket := NewTokenBucket(10, 10)

	if !bucket.Take(5) {
		t.Error("expected to take 5 tokens from full bucket")
	}
	if r := bucket.Remaining(); r != 5 {
		t.Errorf("Remaining() = %d, want 5", r)
	}
	if !bucket.Take(5) {
		t.Error("expected to take remaining 5 tokens")
	}
	if bucket.Take(1) {
		t.Error("expected bucket to be empty")
	}
}

func TestTokenBucket_FractionalRefill(t *testing.T) {
	c := newClock()
	bucket := newTokenBucket(1, 1.0/60, c.Now)

	if !bucket.Take(1) {
		t.Fatal("first take failed")
	}

	// Many short intervals must add up to one token.
	for range 59 {
		c.Advance(time.Second)
		if bucket.Take(1) {
			t.Fatal("token available too early")
		}
	}
	c.Advance(2 * time.Second)
	if !bucket.Take(1) {
		t.Error("token not refilled after a minute")
	}
}

func TestTokenBucket_CapacityLimit(t *testing.T) {
	c := newClock()
	bucket := newTokenBucket(10, 10, c.Now)

	c.Advance(time.Hour)
	if r := bucket.Remaining(); r != 10 {
		t.Errorf("Remaining() = %d, want capacity 10", r)
	}
}

func TestTokenBucket_TimeUntilAvailable(t *testing.T) {
	c := newClock()
	bucket := newTokenBucket(2, 1, c.Now)

	if d := bucket.TimeUntilAvailable(1); d != 0 {
		t.Errorf("full bucket wait = %v", d)
	}
	bucket.Take(2)
	if d := bucket.TimeUntilAvailable(1); d != time.Second {
		t.Errorf("wait = %v, want 1s", d)
	}
	bucket.Reset()
	if !bucket.Take(2) {
		t.Error("Reset() did not refill")
	}
}

func TestLimiter_BurstThen429(t *testing.T) {
	c := newClock()
	l := New(Config{RequestsPerMinute: 60, Burst: 3})
	l.now = c.Now

	for i := range 3 {
		if res := l.Allow("1.2.3.4"); !res.Allowed {
			t.Fatalf("request %d rejected", i)
		}
	}

	res := l.Allow("1.2.3.4")
	if res.Allowed {
		t.Fatal("request after burst allowed")
	}
	if res.RetryAfter != time.Second || res.Limit != 3 {
		t.Errorf("result = %+v", res)
	}

	if !l.Allow("5.6.7.8").Allowed {
		t.Error("other client affected by limit")
	}

	c.Advance(time.Second)
	if !l.Allow("1.2.3.4").Allowed {
		t.Error("token not refilled after one second")
	}
}

func TestLimiter_Disabled(t *testing.T) {
	l := New(Config{})
	for range 1000 {
		if !l.Allow("x").Allowed {
			t.Fatal("zero rate should allow everything")
		}
	}
	if l.Len() != 0 {
		t.Errorf("Len() = %d, disabled limiter should not track clients", l.Len())
	}
}

func TestLimiter_Sweep(t *testing.T) {
	c := newClock()
	l := New(Config{RequestsPerMinute: 60, IdleTTL: time.Minute})
	l.now = c.Now

	l.Allow("old")
	c.Advance(2 * time.Minute)
	l.Allow("fresh")

	if n := l.Sweep(); n != 1 {
		t.Errorf("Sweep() removed %d, want 1", n)
	}
	if l.Len() != 1 {
		t.Errorf("Len() = %d, want 1", l.Len())
	}
}

func TestLimiter_Concurrent(t *testing.T) {
	l := New(Config{RequestsPerMinute: 60, Burst: 50})

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("shared").Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed < 50 || allowed > 51 {
		t.Errorf("allowed = %d, want about 50", allowed)
	}
}
