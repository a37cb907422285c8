package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/reelscout/config"
	"github.com/use-agent/reelscout/letterboxd"
	"github.com/use-agent/reelscout/models"
)

// Batch returns a handler for POST /api/v1/scrape/batch.
//
// The batch runs synchronously under the server's maximum scrape
// deadline; one user's failure is reported in its result entry, never
// as a request failure.
func Batch(client *letterboxd.Client, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.BatchScrapeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}
		req.Defaults()

		ctx, cancel := scrapeContext(c, 0, cfg.Scraper.MaxTimeout)
		defer cancel()

		results := client.BatchScrapeUsers(ctx, req, func(username string, done, total int, err error) {
			slog.Info("batch progress",
				"username", username, "done", done, "total", total, "failed", err != nil)
		})

		succeeded := 0
		for _, r := range results {
			if r.Success {
				succeeded++
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    models.StatusComplete,
			"total":     len(req.Usernames),
			"succeeded": succeeded,
			"failed":    len(req.Usernames) - succeeded,
			"results":   results,
		})
	}
}
