package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/reelscout/config"
	"github.com/use-agent/reelscout/letterboxd"
	"github.com/use-agent/reelscout/models"
)

// collectionScrape is the shape shared by every per-collection client
// operation, so one handler serves all of them.
type collectionScrape[T any] func(ctx context.Context, username string, opts letterboxd.CollectionOptions) (*letterboxd.Outcome[T], error)

// Collection returns a handler for GET /api/v1/users/:username/<collection>.
//
// Query parameters: max_pages, cache_ttl (seconds, negative disables),
// force, timeout (seconds).
func Collection[T any](scrape collectionScrape[T], cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		username := c.Param("username")
		opts := letterboxd.CollectionOptions{
			MaxPages: queryInt(c, "max_pages", 0),
			TTL:      time.Duration(queryInt(c, "cache_ttl", 0)) * time.Second,
			Force:    c.Query("force") == "true",
		}

		ctx, cancel := scrapeContext(c, queryInt(c, "timeout", 0), cfg.Scraper.MaxTimeout)
		defer cancel()

		out, err := scrape(ctx, username, opts)
		if err != nil {
			respondError(c, err)
			return
		}
		outcomeJSON(c, out)
	}
}

// Search returns a handler for GET /api/v1/search/films.
func Search(client *letterboxd.Client, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := c.Query("q")
		limit := queryInt(c, "limit", 10)

		ctx, cancel := scrapeContext(c, queryInt(c, "timeout", 0), cfg.Scraper.MaxTimeout)
		defer cancel()

		out, err := client.Search(ctx, query, limit)
		if err != nil {
			respondError(c, err)
			return
		}
		outcomeJSON(c, out)
	}
}

// Compare returns a handler for POST /api/v1/compare.
func Compare(client *letterboxd.Client, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.CompareRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}

		ctx, cancel := scrapeContext(c, 0, cfg.Scraper.MaxTimeout)
		defer cancel()

		cmp, err := client.CompareUsers(ctx, req.User1, req.User2, letterboxd.CollectionOptions{})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.ScrapeResponse{Status: models.StatusComplete, Data: cmp})
	}
}

func queryInt(c *gin.Context, name string, fallback int) int {
	if v := c.Query(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
