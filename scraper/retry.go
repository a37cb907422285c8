package scraper

import (
	"context"
	"time"
)

// RetryPolicy is a bounded exponential backoff description. It is a
// plain value so retry behavior can be tested without any navigation.
type RetryPolicy struct {
	// MaxAttempts is the total number of navigation attempts (>= 1).
	MaxAttempts int

	// BaseDelay is the backoff after the first failed attempt.
	BaseDelay time.Duration

	// MaxDelay caps the backoff.
	MaxDelay time.Duration
}

// Normalize clamps the policy to usable values.
func (p RetryPolicy) Normalize() RetryPolicy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = time.Second
	}
	if p.MaxDelay < p.BaseDelay {
		p.MaxDelay = p.BaseDelay
	}
	return p
}

// Backoff returns the delay to sleep after the given failed attempt
// (1-based): BaseDelay doubling per attempt, capped at MaxDelay.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Sleep blocks for the attempt's backoff or until ctx is done.
func (p RetryPolicy) Sleep(ctx context.Context, attempt int) error {
	timer := time.NewTimer(p.Backoff(attempt))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
