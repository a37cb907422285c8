package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestWaitSpacesCalls(t *testing.T) {
	l := New(20*time.Millisecond, 20*time.Millisecond, false)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := l.Wait(ctx); err != nil {
			t.Fatalf("Wait %d: %v", i, err)
		}
	}
	elapsed := time.Since(start)

	// First call is immediate, the next two are spaced 20ms apart.
	if elapsed < 40*time.Millisecond {
		t.Errorf("3 waits finished in %v, want >= 40ms", elapsed)
	}
}

func TestWaitConcurrentCallersGetDistinctSlots(t *testing.T) {
	l := New(10*time.Millisecond, 10*time.Millisecond, false)
	ctx := context.Background()

	const n = 5
	times := make([]time.Time, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := l.Wait(ctx); err != nil {
				t.Errorf("Wait: %v", err)
				return
			}
			times[i] = time.Now()
		}(i)
	}
	wg.Wait()

	// Every pair of return times must be at least ~one delay apart.
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			gap := times[i].Sub(times[j])
			if gap < 0 {
				gap = -gap
			}
			if gap < 8*time.Millisecond {
				t.Errorf("waits %d and %d returned %v apart, want >= ~10ms", i, j, gap)
			}
		}
	}
}

func TestWaitRandomizedStaysInRange(t *testing.T) {
	l := New(5*time.Millisecond, 15*time.Millisecond, true)
	for i := 0; i < 50; i++ {
		d := l.delay()
		if d < 5*time.Millisecond || d > 15*time.Millisecond {
			t.Fatalf("delay %v outside [5ms, 15ms]", d)
		}
	}
}

func TestWaitCancelled(t *testing.T) {
	l := New(time.Hour, time.Hour, false)
	ctx := context.Background()

	// First wait is immediate; the second would sleep an hour.
	if err := l.Wait(ctx); err != nil {
		t.Fatalf("first Wait: %v", err)
	}

	cctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	if err := l.Wait(cctx); err == nil {
		t.Fatal("second Wait returned nil, want context error")
	}
}

func TestReset(t *testing.T) {
	l := New(time.Hour, time.Hour, false)
	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("first Wait: %v", err)
	}
	l.Reset()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := l.Wait(context.Background()); err != nil {
			t.Errorf("Wait after Reset: %v", err)
		}
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait after Reset did not return promptly")
	}
}
