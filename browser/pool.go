package browser

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/use-agent/reelscout/models"
)

// PageFactory creates a fresh page resource.
type PageFactory func() (Page, error)

// PageDestroyer closes a page resource.
type PageDestroyer func(Page)

// Handle is one pooled page with recycling metadata. A handle is owned
// by the pool while idle and loaned to exactly one caller while busy.
type Handle struct {
	ID       int64
	page     Page
	useCount int
	created  time.Time
}

// Page returns the underlying page resource.
func (h *Handle) Page() Page { return h.page }

// UseCount returns how many times the handle has been released.
func (h *Handle) UseCount() int { return h.useCount }

// Age returns how long ago the handle was created.
func (h *Handle) Age() time.Duration { return time.Since(h.created) }

// Options configures a Pool.
type Options struct {
	// Size is the fixed number of handles. Busy + free == Size always.
	Size int

	// AcquireTimeout bounds how long Acquire blocks before failing
	// with POOL_EXHAUSTED.
	AcquireTimeout time.Duration

	// RecycleAfterUses replaces a handle after this many uses (0 disables).
	RecycleAfterUses int

	// RecycleAfterAge replaces a handle older than this (0 disables).
	RecycleAfterAge time.Duration
}

// Pool is a fixed-size pool of page handles. Unlike an elastic pool it
// never grows or shrinks: recycled handles are replaced one-for-one so
// the busy+free invariant holds for the pool's whole lifetime.
type Pool struct {
	opts      Options
	factory   PageFactory
	destroyer PageDestroyer

	idle   chan *Handle
	mu     sync.Mutex
	closed bool
	nextID atomic.Int64
	active atomic.Int32
}

// NewPool creates a pool and pre-creates all handles eagerly, so a
// broken browser surfaces at startup rather than mid-scrape.
func NewPool(opts Options, factory PageFactory, destroyer PageDestroyer) (*Pool, error) {
	if opts.Size < 1 {
		opts.Size = 1
	}
	if opts.AcquireTimeout <= 0 {
		opts.AcquireTimeout = 30 * time.Second
	}

	p := &Pool{
		opts:      opts,
		factory:   factory,
		destroyer: destroyer,
		idle:      make(chan *Handle, opts.Size),
	}

	for i := 0; i < opts.Size; i++ {
		h, err := p.newHandle()
		if err != nil {
			p.Close()
			return nil, models.NewScrapeError(models.ErrCodeInternal,
				"failed to pre-create pooled page", err)
		}
		p.idle <- h
	}
	return p, nil
}

// Acquire loans out a free handle. It blocks until a handle is released,
// the acquire timeout elapses (POOL_EXHAUSTED), or ctx is done (CANCELLED).
func (p *Pool) Acquire(ctx context.Context) (*Handle, error) {
	select {
	case h, ok := <-p.idle:
		if !ok {
			return nil, models.NewScrapeError(models.ErrCodeCancelled, "pool is closed", nil)
		}
		p.active.Add(1)
		return h, nil
	default:
	}

	timer := time.NewTimer(p.opts.AcquireTimeout)
	defer timer.Stop()
	select {
	case h, ok := <-p.idle:
		if !ok {
			return nil, models.NewScrapeError(models.ErrCodeCancelled, "pool is closed", nil)
		}
		p.active.Add(1)
		return h, nil
	case <-ctx.Done():
		return nil, models.NewScrapeError(models.ErrCodeCancelled,
			"scrape deadline expired while waiting for a page", ctx.Err())
	case <-timer.C:
		return nil, models.NewScrapeError(models.ErrCodePoolExhausted,
			"no page became available within the acquire timeout", nil)
	}
}

// Release returns a handle to the free set. A handle past its recycling
// threshold is destroyed and replaced with a freshly created one; if the
// replacement cannot be created the old handle stays in rotation so the
// pool never shrinks.
func (p *Pool) Release(h *Handle) {
	p.active.Add(-1)
	h.useCount++

	out := h
	if p.shouldRecycle(h) {
		fresh, err := p.newHandle()
		if err != nil {
			slog.Warn("pool: failed to create replacement page, reusing old handle",
				"id", h.ID, "useCount", h.useCount, "error", err)
		} else {
			slog.Debug("pool: recycling page", "id", h.ID,
				"useCount", h.useCount, "age", h.Age())
			p.destroyer(h.page)
			out = fresh
		}
	}

	// The closed check and the send are one critical section, so a
	// concurrent Close cannot drain the idle set between them and leave
	// the handle parked undestroyed. The send never blocks: idle is
	// buffered to Size and busy+free never exceeds it.
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.destroyer(out.page)
		return
	}
	p.idle <- out
	p.mu.Unlock()
}

func (p *Pool) shouldRecycle(h *Handle) bool {
	if p.opts.RecycleAfterUses > 0 && h.useCount >= p.opts.RecycleAfterUses {
		return true
	}
	if p.opts.RecycleAfterAge > 0 && h.Age() >= p.opts.RecycleAfterAge {
		return true
	}
	return false
}

// Stats returns a snapshot of the pool's current state.
func (p *Pool) Stats() models.PoolStats {
	return models.PoolStats{
		PoolSize:    p.opts.Size,
		ActivePages: int(p.active.Load()),
	}
}

// Close destroys all idle handles and marks the pool closed. Handles
// still loaned out are destroyed as they are released.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	for {
		select {
		case h := <-p.idle:
			p.destroyer(h.page)
		default:
			return
		}
	}
}

func (p *Pool) newHandle() (*Handle, error) {
	page, err := p.factory()
	if err != nil {
		return nil, err
	}
	return &Handle{
		ID:      p.nextID.Add(1),
		page:    page,
		created: time.Now(),
	}, nil
}
