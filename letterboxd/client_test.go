package letterboxd

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/reelscout/browser"
	"github.com/use-agent/reelscout/cache"
	"github.com/use-agent/reelscout/config"
	"github.com/use-agent/reelscout/models"
	"github.com/use-agent/reelscout/ratelimit"
	"github.com/use-agent/reelscout/scraper"
	"github.com/use-agent/reelscout/snapshot"
)

// fakeSite serves canned HTML per URL and counts fetches.
type fakeSite struct {
	mu      sync.Mutex
	pages   map[string]string
	fetches map[string]int
}

func newFakeSite() *fakeSite {
	return &fakeSite{pages: make(map[string]string), fetches: make(map[string]int)}
}

func (s *fakeSite) add(url, html string) { s.pages[url] = html }

func (s *fakeSite) count(url string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches[url]
}

// sitePage adapts fakeSite to browser.Page. Unknown URLs render the
// site's error page.
type sitePage struct{ site *fakeSite }

func (p *sitePage) Navigate(ctx context.Context, url string) (*goquery.Document, error) {
	p.site.mu.Lock()
	p.site.fetches[url]++
	html, ok := p.site.pages[url]
	p.site.mu.Unlock()
	if !ok {
		html = `<html><body class="error"><section class="message">Sorry, we can't find the page.</section></body></html>`
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

func (p *sitePage) Reset() error { return nil }

func newTestClient(t *testing.T, site *fakeSite, opts Options) *Client {
	t.Helper()
	pool, err := browser.NewPool(browser.Options{Size: 2, AcquireTimeout: time.Second},
		func() (browser.Page, error) { return &sitePage{site: site}, nil },
		func(browser.Page) {})
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	t.Cleanup(pool.Close)

	cfg := config.ScraperConfig{
		MinDelay:        time.Millisecond,
		MaxDelay:        time.Millisecond,
		PageLoadTimeout: 200 * time.Millisecond,
		MaxRetries:      2,
		RetryBaseDelay:  time.Millisecond,
		RetryMaxDelay:   2 * time.Millisecond,
	}
	cfg.Normalize()
	fetcher := scraper.NewFetcher(pool, ratelimit.New(cfg.MinDelay, cfg.MaxDelay, false), cfg)
	return NewClient(fetcher, NewExtractor(nil), opts)
}

func posterGridHTML(next bool, slugs ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><ul class="poster-list">`)
	for _, slug := range slugs {
		fmt.Fprintf(&b, `<li class="poster-container"><div class="film-poster" data-target-link="/film/%s/"><div><img alt="%s" src="/%s.jpg"></div></div></li>`, slug, slug, slug)
	}
	b.WriteString("</ul>")
	if next {
		b.WriteString(`<a class="next" href="#">Next</a>`)
	}
	b.WriteString("</body></html>")
	return b.String()
}

func addAliceProfile(site *fakeSite) {
	site.add(ProfileURL("alice"), profileHTML)
	site.add(WatchlistURL("alice"), posterGridHTML(true, "tar"))
	site.add(WatchlistURL("alice")+"page/2/", posterGridHTML(false, "aftersun"))
	site.add(FilmsURL("alice"), posterGridHTML(false, "heat", "dune-part-two"))
}

func TestScrapeUserFullProfile(t *testing.T) {
	site := newFakeSite()
	addAliceProfile(site)
	c := newTestClient(t, site, Options{})

	paginate := true
	out, err := c.ScrapeUser(context.Background(), models.ScrapeUserRequest{
		Username: "alice",
		Paginate: &paginate,
	})
	if err != nil {
		t.Fatalf("ScrapeUser: %v", err)
	}
	if out.Partial || out.Cached {
		t.Errorf("outcome = partial %v cached %v, want neither", out.Partial, out.Cached)
	}

	data := out.Data
	if data.Profile.DisplayName != "Alice Liddell" {
		t.Errorf("DisplayName = %q", data.Profile.DisplayName)
	}
	if len(data.Films.Favourites) != 1 || len(data.Films.RecentActivity) != 1 {
		t.Errorf("strips = %+v", data.Films)
	}
	if len(data.Films.Watchlist) != 2 {
		t.Errorf("Watchlist = %+v, want tar + aftersun", data.Films.Watchlist)
	}
	if len(data.Films.AllFilms) != 2 {
		t.Errorf("AllFilms = %+v, want heat + dune-part-two", data.Films.AllFilms)
	}
	if data.Metadata.TargetURL != ProfileURL("alice") {
		t.Errorf("TargetURL = %q", data.Metadata.TargetURL)
	}
}

func TestScrapeUserServesFromCache(t *testing.T) {
	site := newFakeSite()
	addAliceProfile(site)
	cc := cache.New(time.Hour)
	t.Cleanup(cc.Stop)
	c := newTestClient(t, site, Options{Cache: cc})

	paginate := false
	req := models.ScrapeUserRequest{Username: "alice", Paginate: &paginate}

	if _, err := c.ScrapeUser(context.Background(), req); err != nil {
		t.Fatalf("first ScrapeUser: %v", err)
	}
	out, err := c.ScrapeUser(context.Background(), req)
	if err != nil {
		t.Fatalf("second ScrapeUser: %v", err)
	}
	if !out.Cached || !out.Data.Metadata.FromCache {
		t.Error("second scrape was not served from cache")
	}
	if n := site.count(ProfileURL("alice")); n != 1 {
		t.Errorf("profile fetched %d times, want 1", n)
	}

	// Force bypasses the cache.
	req.Force = true
	out, err = c.ScrapeUser(context.Background(), req)
	if err != nil {
		t.Fatalf("forced ScrapeUser: %v", err)
	}
	if out.Cached {
		t.Error("forced scrape was served from cache")
	}
	if n := site.count(ProfileURL("alice")); n != 2 {
		t.Errorf("profile fetched %d times after force, want 2", n)
	}
}

func TestScrapeUserNotFound(t *testing.T) {
	c := newTestClient(t, newFakeSite(), Options{})
	paginate := false
	_, err := c.ScrapeUser(context.Background(), models.ScrapeUserRequest{
		Username: "nobody", Paginate: &paginate,
	})
	if models.CodeOf(err) != models.ErrCodeNotFound {
		t.Fatalf("error = %v, want NOT_FOUND", err)
	}
}

func TestScrapeUserRejectsInvalidUsername(t *testing.T) {
	c := newTestClient(t, newFakeSite(), Options{})
	_, err := c.ScrapeUser(context.Background(), models.ScrapeUserRequest{Username: "bad name"})
	if models.CodeOf(err) != models.ErrCodeInvalidInput {
		t.Fatalf("error = %v, want INVALID_INPUT", err)
	}
}

func TestScrapeUserAppendsSnapshot(t *testing.T) {
	site := newFakeSite()
	addAliceProfile(site)
	snaps := snapshot.NewStore(snapshot.NewMemoryBackend())
	t.Cleanup(func() { snaps.Close() })
	c := newTestClient(t, site, Options{Snapshots: snaps})

	paginate := false
	_, err := c.ScrapeUser(context.Background(), models.ScrapeUserRequest{
		Username: "alice", Paginate: &paginate, Snapshot: true,
	})
	if err != nil {
		t.Fatalf("ScrapeUser: %v", err)
	}

	latest, err := snaps.LoadLatest("alice")
	if err != nil || latest == nil {
		t.Fatalf("LoadLatest = (%v, %v), want a snapshot", latest, err)
	}
}

func TestScrapeWatchlistPaginates(t *testing.T) {
	site := newFakeSite()
	addAliceProfile(site)
	c := newTestClient(t, site, Options{})

	out, err := c.ScrapeWatchlist(context.Background(), "alice", CollectionOptions{})
	if err != nil {
		t.Fatalf("ScrapeWatchlist: %v", err)
	}
	if len(out.Data) != 2 || out.Pages != 2 {
		t.Errorf("watchlist = %d films over %d pages, want 2 over 2", len(out.Data), out.Pages)
	}
	if out.Data[0].FilmSlug != "tar" || out.Data[1].FilmSlug != "aftersun" {
		t.Errorf("watchlist order = %+v", out.Data)
	}
}

func TestScrapeFilm(t *testing.T) {
	site := newFakeSite()
	site.add(FilmURL("oppenheimer"), filmHTML)
	c := newTestClient(t, site, Options{})

	out, err := c.ScrapeFilm(context.Background(), "oppenheimer", 0, false)
	if err != nil {
		t.Fatalf("ScrapeFilm: %v", err)
	}
	if out.Data.Title != "Oppenheimer" || out.Data.RuntimeMins != 181 {
		t.Errorf("film = %+v", out.Data)
	}
}

func TestCompareUsers(t *testing.T) {
	site := newFakeSite()
	site.add(FilmsURL("alice"), posterGridHTML(false, "dune-part-two", "heat"))
	site.add(FilmsURL("bob"), posterGridHTML(false, "heat", "tar"))
	c := newTestClient(t, site, Options{})

	cmp, err := c.CompareUsers(context.Background(), "alice", "bob", CollectionOptions{})
	if err != nil {
		t.Fatalf("CompareUsers: %v", err)
	}
	if cmp.Statistics.CommonCount != 1 || cmp.CommonFilms[0].FilmSlug != "heat" {
		t.Errorf("common = %+v", cmp.CommonFilms)
	}
	if cmp.Statistics.UniqueToUser1 != 1 || cmp.Statistics.UniqueToUser2 != 1 {
		t.Errorf("stats = %+v", cmp.Statistics)
	}
	if cmp.Statistics.Compatibility != 50 {
		t.Errorf("Compatibility = %v, want 50", cmp.Statistics.Compatibility)
	}
}

func TestBatchScrapeUsersIsolatesFailures(t *testing.T) {
	site := newFakeSite()
	addAliceProfile(site)
	c := newTestClient(t, site, Options{})

	paginate := false
	var progressCalls int
	results := c.BatchScrapeUsers(context.Background(), models.BatchScrapeRequest{
		Usernames: []string{"alice", "ghost99"},
		Paginate:  &paginate,
	}, func(username string, done, total int, err error) {
		progressCalls++
	})

	if !results["alice"].Success {
		t.Errorf("alice = %+v, want success", results["alice"])
	}
	if results["ghost99"].Success || results["ghost99"].Error == "" {
		t.Errorf("ghost99 = %+v, want failure with message", results["ghost99"])
	}
	if progressCalls != 2 {
		t.Errorf("progress called %d times, want 2", progressCalls)
	}
}
