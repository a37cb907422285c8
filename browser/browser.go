// Package browser owns the headless Chrome lifecycle and the fixed-size
// pool of reusable page handles that the scraping core draws from.
package browser

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/reelscout/config"
	"github.com/use-agent/reelscout/models"
	"github.com/ysmood/gson"
)

// Page is a reusable resource capable of navigating to a URL and
// returning the rendered DOM as a queryable document.
type Page interface {
	// Navigate loads url and returns the rendered document. The
	// document is detached from the live page, so it stays valid
	// after the underlying handle is returned to the pool.
	Navigate(ctx context.Context, url string) (*goquery.Document, error)

	// Reset clears page state between loans (about:blank).
	Reset() error
}

// Browser launches and owns one headless Chrome process and builds the
// page pool on top of it.
type Browser struct {
	browser     *rod.Browser
	cfg         config.BrowserConfig
	elementWait time.Duration
	pool        *Pool
}

// New launches a headless browser and initialises the page pool.
// elementWait bounds how long a page may take to settle after
// navigation before its current DOM is used as-is.
func New(cfg config.BrowserConfig, elementWait time.Duration) (*Browser, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}

	// ── Stealth / stability flags ───────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInternal,
			"failed to launch browser", err)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	rb := rod.New().ControlURL(controlURL)
	if err := rb.Connect(); err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInternal,
			"failed to connect to browser", err)
	}

	b := &Browser{browser: rb, cfg: cfg, elementWait: elementWait}

	pool, err := NewPool(Options{
		Size:             cfg.PoolSize,
		AcquireTimeout:   cfg.AcquireTimeout,
		RecycleAfterUses: cfg.RecycleAfterUses,
		RecycleAfterAge:  cfg.RecycleAfterAge,
	}, b.newPage, destroyPage)
	if err != nil {
		rb.MustClose()
		return nil, err
	}
	b.pool = pool
	slog.Info("page pool created", "poolSize", cfg.PoolSize)

	return b, nil
}

// Pool returns the page pool.
func (b *Browser) Pool() *Pool { return b.pool }

// Close drains the pool and kills the browser process. Call this on
// graceful shutdown to prevent zombie Chrome processes.
func (b *Browser) Close() {
	slog.Info("browser shutting down: draining page pool")
	b.pool.Close()
	slog.Info("browser shutting down: closing browser")
	b.browser.MustClose()
	slog.Info("browser shutdown complete")
}

// newPage creates one pooled tab with stealth and resource blocking
// installed before any navigation happens.
func (b *Browser) newPage() (Page, error) {
	page, err := b.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, err
	}

	if b.cfg.Stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth",
				"error", evalErr)
		}
	}

	if err := applyHeaders(page, b.extraHeaders()); err != nil {
		slog.Warn("failed to set extra headers on page", "error", err)
	}

	router := setupHijack(page, b.cfg.BlockedResourceTypes)

	return &rodPage{page: page, router: router, settleTimeout: b.elementWait}, nil
}

// extraHeaders builds the header overrides sent with every request.
func (b *Browser) extraHeaders() map[string]string {
	headers := make(map[string]string)
	if b.cfg.AcceptLanguage != "" {
		headers["Accept-Language"] = b.cfg.AcceptLanguage
	}
	if b.cfg.UserAgent != "" {
		headers["User-Agent"] = b.cfg.UserAgent
	}
	return headers
}

// applyHeaders converts a plain string map to the proto.NetworkHeaders
// type (map[string]gson.JSON) and installs it on the page.
func applyHeaders(page *rod.Page, headers map[string]string) error {
	if len(headers) == 0 {
		return nil
	}
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return proto.NetworkSetExtraHTTPHeaders{Headers: m}.Call(page)
}

func destroyPage(p Page) {
	rp, ok := p.(*rodPage)
	if !ok {
		return
	}
	if rp.router != nil {
		_ = rp.router.Stop()
	}
	if err := rp.page.Close(); err != nil {
		slog.Warn("failed to close page", "error", err)
	}
}

// rodPage adapts a *rod.Page to the pool's Page interface.
type rodPage struct {
	page          *rod.Page
	router        *rod.HijackRouter
	settleTimeout time.Duration
}

// Navigate loads the URL with the given context bound to all Rod
// operations and snapshots the rendered DOM into a goquery document.
func (rp *rodPage) Navigate(ctx context.Context, url string) (*goquery.Document, error) {
	p := rp.page.Context(ctx)

	if err := p.Navigate(url); err != nil {
		return nil, err
	}

	// Letterboxd renders poster grids client-side; wait for the DOM to
	// settle instead of network idle (WaitRequestIdle conflicts with the
	// hijack router's Fetch domain on newer Chromium). The wait is bounded
	// by the element wait timeout so a page that never stabilises cannot
	// consume the whole attempt budget.
	waitCtx, cancel := settleContext(ctx, rp.settleTimeout)
	if err := rp.page.Context(waitCtx).WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM",
			"url", url, "error", err)
	}
	cancel()

	html, err := p.HTML()
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// settleContext bounds the post-navigation settle wait by the element
// wait timeout. The parent's deadline still wins when it is earlier.
func settleContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

// Reset navigates to about:blank so retained DOM cannot leak across loans.
func (rp *rodPage) Reset() error {
	return rp.page.Navigate("about:blank")
}
