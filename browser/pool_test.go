package browser

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/reelscout/models"
)

// fakePage satisfies Page without a browser.
type fakePage struct {
	id     int
	closed atomic.Bool
}

func (f *fakePage) Navigate(context.Context, string) (*goquery.Document, error) { return nil, nil }
func (f *fakePage) Reset() error                                                { return nil }

type fakeFactory struct {
	mu      sync.Mutex
	created int
	fail    bool
}

func (ff *fakeFactory) new() (Page, error) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	if ff.fail {
		return nil, errors.New("factory broken")
	}
	ff.created++
	return &fakePage{id: ff.created}, nil
}

func destroyFake(p Page) {
	p.(*fakePage).closed.Store(true)
}

func newTestPool(t *testing.T, opts Options) (*Pool, *fakeFactory) {
	t.Helper()
	ff := &fakeFactory{}
	p, err := NewPool(opts, ff.new, destroyFake)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	t.Cleanup(p.Close)
	return p, ff
}

func TestPoolPreCreatesAllHandles(t *testing.T) {
	_, ff := newTestPool(t, Options{Size: 3, AcquireTimeout: time.Second})
	if ff.created != 3 {
		t.Errorf("created %d pages at startup, want 3", ff.created)
	}
}

func TestPoolFailsStartupWhenFactoryBroken(t *testing.T) {
	ff := &fakeFactory{fail: true}
	if _, err := NewPool(Options{Size: 2, AcquireTimeout: time.Second}, ff.new, destroyFake); err == nil {
		t.Fatal("NewPool succeeded with a broken factory")
	}
}

func TestPoolNeverExceedsSize(t *testing.T) {
	p, _ := newTestPool(t, Options{Size: 2, AcquireTimeout: 50 * time.Millisecond})
	ctx := context.Background()

	h1, err := p.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire 1: %v", err)
	}
	h2, err := p.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire 2: %v", err)
	}

	// Third acquire must time out with POOL_EXHAUSTED.
	_, err = p.Acquire(ctx)
	if models.CodeOf(err) != models.ErrCodePoolExhausted {
		t.Fatalf("third Acquire error = %v, want POOL_EXHAUSTED", err)
	}

	if got := p.Stats().ActivePages; got != 2 {
		t.Errorf("ActivePages = %d, want 2", got)
	}
	p.Release(h1)
	p.Release(h2)
}

func TestPoolAcquireBlocksUntilRelease(t *testing.T) {
	p, _ := newTestPool(t, Options{Size: 1, AcquireTimeout: 2 * time.Second})
	ctx := context.Background()

	h, err := p.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	acquired := make(chan *Handle)
	go func() {
		h2, err := p.Acquire(ctx)
		if err != nil {
			t.Errorf("blocked Acquire: %v", err)
		}
		acquired <- h2
	}()

	select {
	case <-acquired:
		t.Fatal("second Acquire returned before Release")
	case <-time.After(50 * time.Millisecond):
	}

	p.Release(h)
	select {
	case h2 := <-acquired:
		p.Release(h2)
	case <-time.After(time.Second):
		t.Fatal("second Acquire did not return after Release")
	}
}

func TestPoolAcquireRespectsContext(t *testing.T) {
	p, _ := newTestPool(t, Options{Size: 1, AcquireTimeout: time.Minute})
	h, _ := p.Acquire(context.Background())
	defer p.Release(h)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := p.Acquire(ctx)
	if models.CodeOf(err) != models.ErrCodeCancelled {
		t.Fatalf("Acquire error = %v, want CANCELLED", err)
	}
}

func TestPoolRecyclesAfterUses(t *testing.T) {
	p, ff := newTestPool(t, Options{Size: 1, AcquireTimeout: time.Second, RecycleAfterUses: 2})
	ctx := context.Background()

	var first Page
	for i := 0; i < 2; i++ {
		h, err := p.Acquire(ctx)
		if err != nil {
			t.Fatalf("Acquire %d: %v", i, err)
		}
		if first == nil {
			first = h.Page()
		}
		p.Release(h)
	}

	// Two uses hit the threshold: the old page is destroyed and a fresh
	// one takes its slot.
	if !first.(*fakePage).closed.Load() {
		t.Error("recycled page was not destroyed")
	}
	if ff.created != 2 {
		t.Errorf("factory created %d pages, want 2 (initial + replacement)", ff.created)
	}

	h, err := p.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire after recycle: %v", err)
	}
	if h.Page() == first {
		t.Error("old page still in rotation after recycling")
	}
	p.Release(h)
}

func TestPoolKeepsOldHandleWhenReplacementFails(t *testing.T) {
	p, ff := newTestPool(t, Options{Size: 1, AcquireTimeout: time.Second, RecycleAfterUses: 1})
	ctx := context.Background()

	h, err := p.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	old := h.Page()

	ff.mu.Lock()
	ff.fail = true
	ff.mu.Unlock()
	p.Release(h)

	// The pool must not shrink: the old handle stays in rotation.
	h2, err := p.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire after failed recycle: %v", err)
	}
	if h2.Page() != old {
		t.Error("expected the old page back after replacement failure")
	}
	if old.(*fakePage).closed.Load() {
		t.Error("old page was destroyed despite failed replacement")
	}
	p.Release(h2)
}

func TestPoolReleaseAfterCloseDestroysLoanedHandle(t *testing.T) {
	ff := &fakeFactory{}
	p, err := NewPool(Options{Size: 1, AcquireTimeout: 50 * time.Millisecond}, ff.new, destroyFake)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}

	h, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	p.Close()
	p.Release(h)

	if !h.Page().(*fakePage).closed.Load() {
		t.Error("handle released after Close was not destroyed")
	}
	if _, err := p.Acquire(context.Background()); err == nil {
		t.Fatal("Acquire after Close succeeded")
	}
}

func TestPoolCloseDestroysIdleHandles(t *testing.T) {
	ff := &fakeFactory{}
	p, err := NewPool(Options{Size: 2, AcquireTimeout: 50 * time.Millisecond}, ff.new, destroyFake)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	p.Close()

	_, err = p.Acquire(context.Background())
	if err == nil {
		t.Fatal("Acquire on closed pool succeeded")
	}
}
