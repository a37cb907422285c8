// Package scraper is the scraping core: the rate-limited, retrying page
// fetch protocol and the paginated-extraction control flow. It knows
// nothing about page semantics; selector mapping is injected by callers.
package scraper

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/reelscout/browser"
	"github.com/use-agent/reelscout/config"
	"github.com/use-agent/reelscout/models"
	"github.com/use-agent/reelscout/ratelimit"
)

// PageResult is a successfully fetched page. The DOM document is
// detached from the pooled browser handle, which has already been
// returned to the pool by the time Fetch returns.
type PageResult struct {
	URL      string
	Doc      *goquery.Document
	Duration time.Duration
	Attempts int

	// NotFound marks a page that loaded fine but reports the target
	// subject as missing. A semantic result, not a transport failure.
	NotFound bool
}

// NotFoundCheck classifies a rendered document as a "content not found"
// page. Injected configuration, like the selector maps.
type NotFoundCheck func(*goquery.Document) bool

// Fetcher turns URLs into rendered documents using pooled browser
// handles, pacing every navigation through a shared rate limiter and
// retrying transient failures with exponential backoff.
type Fetcher struct {
	pool           *browser.Pool
	limiter        *ratelimit.Limiter
	retry          RetryPolicy
	attemptTimeout time.Duration
	notFound       NotFoundCheck
}

// NewFetcher creates a Fetcher. The pool and limiter are shared across
// all concurrent scrapes; the retry policy and per-attempt timeout come
// from the scraper configuration.
func NewFetcher(pool *browser.Pool, limiter *ratelimit.Limiter, cfg config.ScraperConfig) *Fetcher {
	return &Fetcher{
		pool:    pool,
		limiter: limiter,
		retry: RetryPolicy{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   cfg.RetryBaseDelay,
			MaxDelay:    cfg.RetryMaxDelay,
		}.Normalize(),
		attemptTimeout: cfg.PageLoadTimeout,
		notFound:       func(*goquery.Document) bool { return false },
	}
}

// SetNotFoundCheck installs the semantic not-found classifier.
func (f *Fetcher) SetNotFoundCheck(fn NotFoundCheck) {
	if fn != nil {
		f.notFound = fn
	}
}

// Fetch navigates to url and returns the rendered document.
//
// Lifecycle:
//
//  1. Acquire a handle from the pool (bounded by the acquire timeout).
//  2. DEFER: reset the page and return the handle — on every exit path,
//     so a failed fetch can never starve the pool.
//  3. Per attempt: rate-limit wait, navigate under the per-attempt
//     timeout, back off and retry on transient failure.
//  4. Classify the outcome: success, semantic not-found, or a
//     FetchError carrying the attempt count.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*PageResult, error) {
	start := time.Now()

	h, err := f.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if resetErr := h.Page().Reset(); resetErr != nil {
			slog.Warn("cleanup: failed to reset page", "error", resetErr)
		}
		f.pool.Release(h)
	}()

	var lastErr error
	lastCode := models.ErrCodeNavigation

	for attempt := 1; attempt <= f.retry.MaxAttempts; attempt++ {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, models.NewScrapeError(models.ErrCodeCancelled,
				"scrape deadline expired while rate limited", err)
		}

		attemptCtx, cancel := context.WithTimeout(ctx, f.attemptTimeout)
		doc, navErr := h.Page().Navigate(attemptCtx, url)
		cancel()

		if navErr == nil {
			res := &PageResult{
				URL:      url,
				Doc:      doc,
				Duration: time.Since(start),
				Attempts: attempt,
			}
			if f.notFound(doc) {
				res.NotFound = true
			}
			return res, nil
		}

		// The scrape-level deadline always wins over the per-attempt one.
		if ctx.Err() != nil {
			return nil, models.NewFetchError(models.ErrCodeCancelled,
				"scrape deadline expired during navigation", attempt, ctx.Err())
		}

		lastErr = navErr
		if errors.Is(navErr, context.DeadlineExceeded) {
			lastCode = models.ErrCodeTimeout
		} else {
			lastCode = models.ErrCodeNavigation
		}

		if attempt < f.retry.MaxAttempts {
			slog.Debug("navigation failed, retrying",
				"url", url, "attempt", attempt, "error", navErr)
			if err := f.retry.Sleep(ctx, attempt); err != nil {
				return nil, models.NewFetchError(models.ErrCodeCancelled,
					"scrape deadline expired during retry backoff", attempt, err)
			}
		}
	}

	return nil, models.NewFetchError(lastCode,
		"navigation failed after exhausting retries", f.retry.MaxAttempts, lastErr)
}
