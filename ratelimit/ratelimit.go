// Package ratelimit paces outbound navigations so that consecutive
// requests are spaced by a (optionally randomized) minimum delay,
// measured globally across all goroutines sharing one Limiter.
package ratelimit

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"
)

// Limiter spaces calls to Wait. Multiple fetches may be in flight at
// once; only the start of each navigation is serialized in time.
type Limiter struct {
	mu        sync.Mutex
	minDelay  time.Duration
	maxDelay  time.Duration
	randomize bool
	next      time.Time // earliest instant the next Wait may return
}

// New creates a Limiter. maxDelay is clamped to at least minDelay.
func New(minDelay, maxDelay time.Duration, randomize bool) *Limiter {
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &Limiter{
		minDelay:  minDelay,
		maxDelay:  maxDelay,
		randomize: randomize,
	}
}

// Wait blocks until at least the configured delay has elapsed since the
// previous Wait returned, or until ctx is done. Each caller reserves its
// slot under the lock and sleeps outside it, so concurrent callers are
// granted strictly ordered, correctly spaced slots.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	now := time.Now()
	target := l.next
	if target.Before(now) {
		target = now
	}
	l.next = target.Add(l.delay())
	l.mu.Unlock()

	d := time.Until(target)
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Reset forgets the pacing history, letting the next Wait return immediately.
func (l *Limiter) Reset() {
	l.mu.Lock()
	l.next = time.Time{}
	l.mu.Unlock()
}

func (l *Limiter) delay() time.Duration {
	if !l.randomize || l.maxDelay == l.minDelay {
		return l.minDelay
	}
	return l.minDelay + rand.N(l.maxDelay-l.minDelay)
}
