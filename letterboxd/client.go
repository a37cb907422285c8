package letterboxd

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/reelscout/cache"
	"github.com/use-agent/reelscout/models"
	"github.com/use-agent/reelscout/scraper"
	"github.com/use-agent/reelscout/snapshot"
	"github.com/use-agent/reelscout/webhook"
)

// Options wires the optional collaborators into a Client. Every field
// may be nil; a nil cache disables caching, a nil store disables
// snapshots, a nil manager disables webhooks.
type Options struct {
	Cache     *cache.Cache
	Snapshots *snapshot.Store
	Webhooks  *webhook.Manager

	// Prefetch is the pagination prefetch window (1 = sequential).
	Prefetch int
}

// Client orchestrates scrapes: validation, cache consultation, paced
// fetching, extraction, snapshotting, and webhook notification.
type Client struct {
	fetcher   *scraper.Fetcher
	extractor *Extractor
	cache     *cache.Cache
	snapshots *snapshot.Store
	webhooks  *webhook.Manager
	prefetch  int
}

// NewClient creates a Client and installs the extractor's not-found
// classifier on the fetcher.
func NewClient(fetcher *scraper.Fetcher, extractor *Extractor, opts Options) *Client {
	if extractor == nil {
		extractor = NewExtractor(nil)
	}
	fetcher.SetNotFoundCheck(extractor.NotFound)
	if opts.Prefetch < 1 {
		opts.Prefetch = 1
	}
	return &Client{
		fetcher:   fetcher,
		extractor: extractor,
		cache:     opts.Cache,
		snapshots: opts.Snapshots,
		webhooks:  opts.Webhooks,
		prefetch:  opts.Prefetch,
	}
}

// Outcome wraps a scraped payload with its completeness information.
// Partial payloads carry everything gathered before the terminating
// error, which Err describes.
type Outcome[T any] struct {
	Data    T
	Pages   int
	Partial bool
	Err     *models.ScrapeError
	Cached  bool
}

// CollectionOptions tunes one paginated collection scrape.
type CollectionOptions struct {
	// MaxPages caps the walk. <= 0 means 50.
	MaxPages int

	// TTL is the acceptable cache age; 0 uses the cache default,
	// negative disables the cache for this call.
	TTL time.Duration

	// Force bypasses the cache.
	Force bool
}

func (o CollectionOptions) normalized() CollectionOptions {
	if o.MaxPages <= 0 {
		o.MaxPages = 50
	}
	return o
}

// ScrapeUser scrapes a full user profile: header, favourites, recent
// activity, and (when req.Paginate) the complete watchlist and watched
// films. Cached results are returned as-is; fresh results are cached,
// optionally snapshotted, and announced over webhooks.
func (c *Client) ScrapeUser(ctx context.Context, req models.ScrapeUserRequest) (*Outcome[*models.UserScrape], error) {
	req.Defaults()
	if err := ValidateUsername(req.Username); err != nil {
		return nil, err
	}

	wantPages := req.Paginate != nil && *req.Paginate
	key := cache.Key("user", req.Username, strconv.FormatBool(wantPages), strconv.Itoa(req.MaxPages))
	ttl := time.Duration(req.CacheTTL) * time.Second
	if hit := c.cacheGet(key, ttl, req.Force); hit != nil {
		if data, ok := hit.(*models.UserScrape); ok {
			cached := *data
			cached.Metadata.FromCache = true
			return &Outcome[*models.UserScrape]{Data: &cached, Cached: true}, nil
		}
	}

	start := time.Now()
	targetURL := ProfileURL(req.Username)
	res, err := c.fetcher.Fetch(ctx, targetURL)
	if err != nil {
		c.notifyFailed(req.Username, err)
		return nil, err
	}
	if res.NotFound {
		err := models.NewScrapeError(models.ErrCodeNotFound,
			fmt.Sprintf("user %q not found", req.Username), nil)
		c.notifyFailed(req.Username, err)
		return nil, err
	}

	profile, err := c.extractor.Profile(req.Username, res.Doc)
	if err != nil {
		c.notifyFailed(req.Username, err)
		return nil, err
	}

	data := &models.UserScrape{
		Profile: *profile,
		Films: models.UserFilms{
			Favourites:     c.extractor.Favourites(res.Doc),
			RecentActivity: c.extractor.RecentActivity(res.Doc),
		},
	}

	out := &Outcome[*models.UserScrape]{Data: data}
	if wantPages {
		watchlist, err := paginate(c, ctx, WatchlistURL(req.Username), c.extractor.PosterPage, req.MaxPages)
		if err != nil {
			c.notifyFailed(req.Username, err)
			return nil, err
		}
		films, err := paginate(c, ctx, FilmsURL(req.Username), c.extractor.PosterPage, req.MaxPages)
		if err != nil {
			c.notifyFailed(req.Username, err)
			return nil, err
		}
		data.Films.Watchlist = watchlist.Records
		data.Films.AllFilms = films.Records
		out.Pages = watchlist.Pages + films.Pages
		if watchlist.Partial {
			out.Partial, out.Err = true, watchlist.Err
		}
		if films.Partial {
			out.Partial, out.Err = true, films.Err
		}
	}

	data.Metadata = models.ScrapeMetadata{
		ScrapedAt: time.Now().UTC(),
		TargetURL: targetURL,
		Duration:  time.Since(start),
	}

	// Partial payloads are neither cached nor snapshotted; serving an
	// incomplete collection as fresh would mask the failure.
	if !out.Partial {
		c.cacheSet(key, data, ttl)
		if req.Snapshot {
			c.snapshotUser(req.Username, data)
		}
		if c.webhooks != nil {
			c.webhooks.Notify(webhook.EventScrapeCompleted, req.Username, data.Metadata)
		}
	}
	return out, nil
}

// ScrapeWatchlist walks a user's watchlist pages.
func (c *Client) ScrapeWatchlist(ctx context.Context, username string, opts CollectionOptions) (*Outcome[[]models.FilmEntry], error) {
	return scrapeCollection(c, ctx, "watchlist", username, WatchlistURL(username), c.extractor.PosterPage, opts)
}

// ScrapeFilms walks a user's watched-films pages.
func (c *Client) ScrapeFilms(ctx context.Context, username string, opts CollectionOptions) (*Outcome[[]models.FilmEntry], error) {
	return scrapeCollection(c, ctx, "films", username, FilmsURL(username), c.extractor.PosterPage, opts)
}

// ScrapeDiary walks a user's diary pages.
func (c *Client) ScrapeDiary(ctx context.Context, username string, opts CollectionOptions) (*Outcome[[]models.DiaryEntry], error) {
	return scrapeCollection(c, ctx, "diary", username, DiaryURL(username), c.extractor.DiaryPage, opts)
}

// ScrapeReviews walks a user's review pages.
func (c *Client) ScrapeReviews(ctx context.Context, username string, opts CollectionOptions) (*Outcome[[]models.ReviewEntry], error) {
	return scrapeCollection(c, ctx, "reviews", username, ReviewsURL(username), c.extractor.ReviewsPage, opts)
}

// ScrapeLists walks a user's list summary pages.
func (c *Client) ScrapeLists(ctx context.Context, username string, opts CollectionOptions) (*Outcome[[]models.ListSummary], error) {
	return scrapeCollection(c, ctx, "lists", username, ListsURL(username), c.extractor.ListsPage, opts)
}

// ScrapeFollowers walks a user's followers pages.
func (c *Client) ScrapeFollowers(ctx context.Context, username string, opts CollectionOptions) (*Outcome[[]models.Person], error) {
	return scrapeCollection(c, ctx, "followers", username, FollowersURL(username), c.extractor.PeoplePage, opts)
}

// ScrapeFollowing walks the pages of accounts a user follows.
func (c *Client) ScrapeFollowing(ctx context.Context, username string, opts CollectionOptions) (*Outcome[[]models.Person], error) {
	return scrapeCollection(c, ctx, "following", username, FollowingURL(username), c.extractor.PeoplePage, opts)
}

// ScrapeListContents walks a list's pages, capturing its name and
// description from the first page.
func (c *Client) ScrapeListContents(ctx context.Context, listPath string, opts CollectionOptions) (*Outcome[*models.ListContents], error) {
	opts = opts.normalized()
	listURL := ListURL(listPath)
	key := cache.Key("list", listURL, strconv.Itoa(opts.MaxPages))
	if hit := c.cacheGet(key, opts.TTL, opts.Force); hit != nil {
		if data, ok := hit.(*models.ListContents); ok {
			return &Outcome[*models.ListContents]{Data: data, Cached: true}, nil
		}
	}

	contents := &models.ListContents{ListURL: listURL}
	extract := func(page int, doc *goquery.Document) ([]models.FilmEntry, bool, error) {
		if page == 1 {
			contents.ListName, contents.Description = c.extractor.ListContents(doc)
		}
		return c.extractor.PosterPage(page, doc)
	}

	set, err := paginate(c, ctx, listURL, extract, opts.MaxPages)
	if err != nil {
		return nil, err
	}
	contents.Films = set.Records

	out := &Outcome[*models.ListContents]{
		Data:    contents,
		Pages:   set.Pages,
		Partial: set.Partial,
		Err:     set.Err,
	}
	if !set.Partial {
		c.cacheSet(key, contents, opts.TTL)
	}
	return out, nil
}

// ScrapeFilm scrapes a single film page by slug.
func (c *Client) ScrapeFilm(ctx context.Context, slug string, ttl time.Duration, force bool) (*Outcome[*models.FilmDetails], error) {
	if slug == "" {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "film slug is required", nil)
	}
	key := cache.Key("film", slug)
	if hit := c.cacheGet(key, ttl, force); hit != nil {
		if data, ok := hit.(*models.FilmDetails); ok {
			return &Outcome[*models.FilmDetails]{Data: data, Cached: true}, nil
		}
	}

	res, err := c.fetcher.Fetch(ctx, FilmURL(slug))
	if err != nil {
		return nil, err
	}
	if res.NotFound {
		return nil, models.NewScrapeError(models.ErrCodeNotFound,
			fmt.Sprintf("film %q not found", slug), nil)
	}

	details, err := c.extractor.FilmDetails(slug, res.Doc)
	if err != nil {
		return nil, err
	}
	c.cacheSet(key, details, ttl)
	return &Outcome[*models.FilmDetails]{Data: details, Pages: 1}, nil
}

// Search runs a film search and returns up to maxResults hits.
func (c *Client) Search(ctx context.Context, query string, maxResults int) (*Outcome[[]models.SearchResult], error) {
	if query == "" {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "search query is required", nil)
	}
	key := cache.Key("search", query, strconv.Itoa(maxResults))
	if hit := c.cacheGet(key, 0, false); hit != nil {
		if data, ok := hit.([]models.SearchResult); ok {
			return &Outcome[[]models.SearchResult]{Data: data, Cached: true}, nil
		}
	}

	res, err := c.fetcher.Fetch(ctx, SearchURL(query))
	if err != nil {
		return nil, err
	}
	results := c.extractor.SearchResults(res.Doc, maxResults)
	c.cacheSet(key, results, 0)
	return &Outcome[[]models.SearchResult]{Data: results, Pages: 1}, nil
}

// scrapeCollection is the shared cache-then-paginate path for the
// per-collection scrape operations.
func scrapeCollection[T any](c *Client, ctx context.Context, kind, username, baseURL string, extract scraper.ExtractFunc[T], opts CollectionOptions) (*Outcome[[]T], error) {
	opts = opts.normalized()
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}

	key := cache.Key(kind, username, strconv.Itoa(opts.MaxPages))
	if hit := c.cacheGet(key, opts.TTL, opts.Force); hit != nil {
		if data, ok := hit.([]T); ok {
			return &Outcome[[]T]{Data: data, Cached: true}, nil
		}
	}

	set, err := paginate(c, ctx, baseURL, extract, opts.MaxPages)
	if err != nil {
		return nil, err
	}
	out := &Outcome[[]T]{
		Data:    set.Records,
		Pages:   set.Pages,
		Partial: set.Partial,
		Err:     set.Err,
	}
	if !set.Partial {
		c.cacheSet(key, set.Records, opts.TTL)
	}
	return out, nil
}

// paginate runs one collection walk with the client's prefetch window.
// A free function because methods cannot introduce type parameters.
func paginate[T any](c *Client, ctx context.Context, baseURL string, extract scraper.ExtractFunc[T], maxPages int) (*scraper.PageSet[T], error) {
	return scraper.Paginate(ctx, c.fetcher, baseURL, extract, scraper.PaginateOptions{
		MaxPages:        maxPages,
		Prefetch:        c.prefetch,
		PartialOnCancel: false,
	})
}

// cacheGet consults the cache unless forced or disabled for the call.
func (c *Client) cacheGet(key string, ttl time.Duration, force bool) any {
	if c.cache == nil || force || ttl < 0 {
		return nil
	}
	v, ok := c.cache.Get(key, ttl)
	if !ok {
		return nil
	}
	return v
}

func (c *Client) cacheSet(key string, value any, ttl time.Duration) {
	if c.cache == nil || ttl < 0 {
		return
	}
	c.cache.Set(key, value)
}

// snapshotUser appends the scrape to the snapshot store and, when the
// payload structurally changed since the previous capture, announces
// the diff over webhooks.
func (c *Client) snapshotUser(username string, data *models.UserScrape) {
	if c.snapshots == nil {
		return
	}
	previous, err := c.snapshots.LoadLatest(username)
	if err != nil {
		slog.Warn("failed to load previous snapshot", "subject", username, "error", err)
	}
	current, err := c.snapshots.Save(username, data)
	if err != nil {
		slog.Warn("failed to save snapshot", "subject", username, "error", err)
		return
	}
	if previous == nil || c.webhooks == nil {
		return
	}
	diff, err := snapshot.Diff(previous, current)
	if err != nil {
		slog.Warn("failed to diff snapshots", "subject", username, "error", err)
		return
	}
	if diff.HasChanges {
		c.webhooks.Notify(webhook.EventSnapshotChanged, username, diff)
	}
}

func (c *Client) notifyFailed(subject string, err error) {
	if c.webhooks == nil {
		return
	}
	var detail *models.ErrorDetail
	if se, ok := err.(*models.ScrapeError); ok {
		detail = se.ToDetail()
	} else {
		detail = &models.ErrorDetail{Code: models.CodeOf(err), Message: err.Error()}
	}
	c.webhooks.Notify(webhook.EventScrapeFailed, subject, detail)
}
