package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/reelscout/api"
	"github.com/use-agent/reelscout/browser"
	"github.com/use-agent/reelscout/cache"
	"github.com/use-agent/reelscout/config"
	"github.com/use-agent/reelscout/letterboxd"
	"github.com/use-agent/reelscout/ratelimit"
	"github.com/use-agent/reelscout/scraper"
	"github.com/use-agent/reelscout/snapshot"
	"github.com/use-agent/reelscout/webhook"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("reelscout starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"poolSize", cfg.Browser.PoolSize,
	)

	// ── 3. Selector configuration ───────────────────────────────────
	selectors := letterboxd.DefaultSelectors()
	if cfg.Scraper.SelectorsPath != "" {
		loaded, err := letterboxd.LoadSelectors(cfg.Scraper.SelectorsPath)
		if err != nil {
			slog.Error("failed to load selector overrides", "path", cfg.Scraper.SelectorsPath, "error", err)
			os.Exit(1)
		}
		selectors = loaded
		slog.Info("selector overrides loaded",
			"path", cfg.Scraper.SelectorsPath, "version", selectors.Version)
	}

	// ── 4. Launch browser and page pool ─────────────────────────────
	b, err := browser.New(cfg.Browser, cfg.Scraper.ElementWaitTimeout)
	if err != nil {
		slog.Error("failed to initialise browser", "error", err)
		os.Exit(1)
	}
	defer b.Close()

	// ── 5. Scraping core: pacing, fetching ──────────────────────────
	limiter := ratelimit.New(cfg.Scraper.MinDelay, cfg.Scraper.MaxDelay, cfg.Scraper.Randomize)
	fetcher := scraper.NewFetcher(b.Pool(), limiter, cfg.Scraper)

	// ── 6. Cache, snapshots, webhooks ───────────────────────────────
	cc := cache.New(cfg.Cache.DefaultTTL)
	defer cc.Stop()

	backend, err := newSnapshotBackend(cfg.Snapshot)
	if err != nil {
		slog.Error("failed to initialise snapshot backend", "error", err)
		os.Exit(1)
	}
	snaps := snapshot.NewStore(backend)
	defer snaps.Close()

	hooks := webhook.NewManager(cfg.Webhook.Secret, 10*time.Second, 3)

	// ── 7. Domain client ────────────────────────────────────────────
	client := letterboxd.NewClient(fetcher, letterboxd.NewExtractor(selectors), letterboxd.Options{
		Cache:     cc,
		Snapshots: snaps,
		Webhooks:  hooks,
		Prefetch:  cfg.Scraper.Prefetch,
	})

	// ── 8. Setup router and HTTP server ─────────────────────────────
	startTime := time.Now()
	router := api.NewRouter(client, b.Pool(), snaps, hooks, cfg, startTime)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 9. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// Give in-flight requests 5 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// b.Close() runs via defer — drains page pool and kills Chrome.
	slog.Info("reelscout stopped")
}

// newSnapshotBackend selects the snapshot persistence backend.
func newSnapshotBackend(cfg config.SnapshotConfig) (snapshot.Backend, error) {
	switch cfg.Backend {
	case "memory":
		return snapshot.NewMemoryBackend(), nil
	default:
		return snapshot.NewSQLiteBackend(cfg.SQLitePath)
	}
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
