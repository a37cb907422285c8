package scraper

import (
	"context"
	"testing"
	"time"
)

func TestBackoffDoublesAndCaps(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 5, BaseDelay: time.Second, MaxDelay: 5 * time.Second}

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 5 * time.Second}, // 8s capped
		{5, 5 * time.Second},
		{0, 1 * time.Second}, // clamped to attempt 1
	}
	for _, tc := range cases {
		if got := p.Backoff(tc.attempt); got != tc.want {
			t.Errorf("Backoff(%d) = %v, want %v", tc.attempt, got, tc.want)
		}
	}
}

func TestNormalizeClampsDegeneratePolicies(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 0, BaseDelay: -time.Second, MaxDelay: 0}.Normalize()
	if p.MaxAttempts != 1 {
		t.Errorf("MaxAttempts = %d, want 1", p.MaxAttempts)
	}
	if p.BaseDelay != time.Second {
		t.Errorf("BaseDelay = %v, want 1s", p.BaseDelay)
	}
	if p.MaxDelay < p.BaseDelay {
		t.Errorf("MaxDelay %v < BaseDelay %v", p.MaxDelay, p.BaseDelay)
	}
}

func TestSleepRespectsContext(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Hour, MaxDelay: time.Hour}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	if err := p.Sleep(ctx, 1); err == nil {
		t.Fatal("Sleep returned nil under an expired context")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Sleep took %v to notice cancellation", elapsed)
	}
}
