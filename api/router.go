// Package api wires the HTTP surface: routes, auth, and inbound rate
// limiting.
package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/reelscout/api/handler"
	"github.com/use-agent/reelscout/api/middleware"
	"github.com/use-agent/reelscout/browser"
	"github.com/use-agent/reelscout/config"
	"github.com/use-agent/reelscout/letterboxd"
	"github.com/use-agent/reelscout/snapshot"
	"github.com/use-agent/reelscout/webhook"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health endpoint is intentionally outside auth so monitoring probes always work.
func NewRouter(client *letterboxd.Client, pool *browser.Pool, snaps *snapshot.Store, hooks *webhook.Manager, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	// Health — no auth required.
	v1.GET("/health", handler.Health(pool, startTime))

	// Protected group — auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	// Scrape
	protected.POST("/scrape/user", handler.ScrapeUser(client, cfg))
	protected.POST("/scrape/film", handler.ScrapeFilm(client, cfg))
	protected.POST("/scrape/list", handler.ScrapeList(client, cfg))
	protected.POST("/scrape/batch", handler.Batch(client, cfg))

	// Per-collection reads
	users := protected.Group("/users/:username")
	users.GET("/watchlist", handler.Collection(client.ScrapeWatchlist, cfg))
	users.GET("/films", handler.Collection(client.ScrapeFilms, cfg))
	users.GET("/diary", handler.Collection(client.ScrapeDiary, cfg))
	users.GET("/reviews", handler.Collection(client.ScrapeReviews, cfg))
	users.GET("/lists", handler.Collection(client.ScrapeLists, cfg))
	users.GET("/followers", handler.Collection(client.ScrapeFollowers, cfg))
	users.GET("/following", handler.Collection(client.ScrapeFollowing, cfg))

	// Search and comparison
	protected.GET("/search/films", handler.Search(client, cfg))
	protected.POST("/compare", handler.Compare(client, cfg))

	// Snapshots
	protected.GET("/snapshots/:username", handler.ListSnapshots(snaps))
	protected.GET("/snapshots/:username/latest", handler.LatestSnapshot(snaps))
	protected.GET("/snapshots/:username/diff", handler.DiffSnapshots(snaps))

	// Webhooks
	protected.POST("/webhooks", handler.RegisterWebhook(hooks))
	protected.GET("/webhooks", handler.ListWebhooks(hooks))
	protected.DELETE("/webhooks/:id", handler.UnregisterWebhook(hooks))

	// Export
	protected.GET("/export/user/:username", handler.Export(client, cfg))

	return r
}
