package scraper

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/reelscout/models"
)

// ExtractFunc pulls records out of one fetched page and signals whether
// more pages follow. Implementations classify their own failures: a
// *models.RetryableExtractionError triggers one re-fetch of the page;
// anything else aborts pagination as fatal.
type ExtractFunc[T any] func(pageIndex int, doc *goquery.Document) (records []T, hasMore bool, err error)

// PageURLFunc builds the URL for a page index (1-based).
type PageURLFunc func(baseURL string, pageIndex int) string

// DefaultPageURL appends "page/N/" for pages past the first.
func DefaultPageURL(baseURL string, pageIndex int) string {
	if pageIndex <= 1 {
		return baseURL
	}
	return fmt.Sprintf("%spage/%d/", baseURL, pageIndex)
}

// PaginateOptions tunes one pagination run.
type PaginateOptions struct {
	// MaxPages caps the walk. <= 0 means 1.
	MaxPages int

	// Prefetch is how many page fetches may be in flight at once.
	// 1 walks strictly sequentially.
	Prefetch int

	// PageURL overrides page URL construction (default: "page/N/").
	PageURL PageURLFunc

	// PartialOnCancel returns records gathered before a deadline expiry
	// instead of discarding them.
	PartialOnCancel bool
}

func (o PaginateOptions) normalized() PaginateOptions {
	if o.MaxPages < 1 {
		o.MaxPages = 1
	}
	if o.Prefetch < 1 {
		o.Prefetch = 1
	}
	if o.PageURL == nil {
		o.PageURL = DefaultPageURL
	}
	return o
}

// PageSet is the aggregated outcome of a pagination run. Partial marks
// a run terminated early by a fatal error; the records gathered before
// the failure are retained and Err carries the terminating error.
type PageSet[T any] struct {
	Records []T
	Pages   int
	Partial bool
	Err     *models.ScrapeError
}

// fetchOut is one page's fetch outcome before in-order processing.
type fetchOut struct {
	res *PageResult
	err error
}

// Paginate walks base URL pages from index 1 upward, extracting records
// in page order until MaxPages, a no-more-pages signal, or a fatal error.
//
// With Prefetch > 1 pages are fetched in waves of that width, but
// extraction and the stop decision always run in index order and pages
// fetched beyond a detected end are discarded — the walk is forward-only
// and its output is identical to the sequential one.
//
// Re-invoking Paginate with the same inputs restarts from page 1; the
// walk holds no state between runs.
func Paginate[T any](ctx context.Context, f *Fetcher, baseURL string, extract ExtractFunc[T], opts PaginateOptions) (*PageSet[T], error) {
	opts = opts.normalized()
	set := &PageSet[T]{}

	for waveStart := 1; waveStart <= opts.MaxPages; waveStart += opts.Prefetch {
		waveEnd := waveStart + opts.Prefetch - 1
		if waveEnd > opts.MaxPages {
			waveEnd = opts.MaxPages
		}

		outs := fetchWave(ctx, f, baseURL, opts.PageURL, waveStart, waveEnd)

		for page := waveStart; page <= waveEnd; page++ {
			out := outs[page-waveStart]
			done, err := appendPage(ctx, f, baseURL, extract, opts, set, page, out)
			if err != nil {
				return nil, err
			}
			if done {
				return set, nil
			}
		}
	}

	return set, nil
}

// fetchWave fetches pages [start, end] concurrently. Results come back
// positionally so the caller can re-sequence completion order into
// index order.
func fetchWave(ctx context.Context, f *Fetcher, baseURL string, pageURL PageURLFunc, start, end int) []fetchOut {
	outs := make([]fetchOut, end-start+1)
	if start == end {
		res, err := f.Fetch(ctx, pageURL(baseURL, start))
		outs[0] = fetchOut{res: res, err: err}
		return outs
	}

	var wg sync.WaitGroup
	for page := start; page <= end; page++ {
		wg.Add(1)
		go func(page int) {
			defer wg.Done()
			res, err := f.Fetch(ctx, pageURL(baseURL, page))
			outs[page-start] = fetchOut{res: res, err: err}
		}(page)
	}
	wg.Wait()
	return outs
}

// appendPage processes one page in index order. It returns done=true
// when pagination should stop (end reached or fatal error recorded on
// the set), or a non-nil error when the whole run must fail.
func appendPage[T any](ctx context.Context, f *Fetcher, baseURL string, extract ExtractFunc[T], opts PaginateOptions, set *PageSet[T], page int, out fetchOut) (bool, error) {
	if out.err != nil {
		return failPage(set, opts, page, out.err)
	}

	if out.res.NotFound {
		// A missing first page means the subject does not exist; a
		// missing later page is the end of the collection.
		if page == 1 {
			return false, models.NewScrapeError(models.ErrCodeNotFound,
				"subject not found", nil)
		}
		return true, nil
	}

	records, hasMore, err := extract(page, out.res.Doc)
	if err != nil && models.IsRetryableExtraction(err) {
		// Selector not rendered yet — one re-fetch before escalating.
		refetched, ferr := f.Fetch(ctx, opts.PageURL(baseURL, page))
		if ferr != nil {
			return failPage(set, opts, page, ferr)
		}
		if refetched.NotFound {
			// The page vanished between fetches: same semantics as a
			// not-found first fetch.
			if page == 1 {
				return false, models.NewScrapeError(models.ErrCodeNotFound,
					"subject not found", nil)
			}
			return true, nil
		}
		records, hasMore, err = extract(page, refetched.Doc)
	}
	if err != nil {
		fatal := models.NewScrapeError(models.ErrCodeExtraction,
			fmt.Sprintf("extraction failed on page %d", page), err)
		return failPage(set, opts, page, fatal)
	}

	set.Records = append(set.Records, records...)
	set.Pages = page
	return !hasMore, nil
}

// failPage records a terminating error. Cancellation discards partial
// results unless the caller opted into keeping them; everything else
// preserves the records gathered so far, tagged partial.
func failPage[T any](set *PageSet[T], opts PaginateOptions, page int, err error) (bool, error) {
	var se *models.ScrapeError
	if !errors.As(err, &se) {
		se = models.NewScrapeError(models.ErrCodeInternal,
			fmt.Sprintf("page %d failed", page), err)
	}

	if se.Code == models.ErrCodeCancelled && !opts.PartialOnCancel {
		return false, se
	}
	if page == 1 {
		// Nothing gathered; surface the failure directly.
		return false, se
	}
	set.Partial = true
	set.Err = se
	return true, nil
}
