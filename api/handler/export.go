package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/reelscout/config"
	"github.com/use-agent/reelscout/export"
	"github.com/use-agent/reelscout/letterboxd"
	"github.com/use-agent/reelscout/models"
)

// Export returns a handler for GET /api/v1/export/user/:username.
//
// Scrapes (or serves from cache) the full profile and streams it in the
// requested format: ?format=json|csv|xml, default json.
func Export(client *letterboxd.Client, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		format := c.DefaultQuery("format", export.FormatJSON)
		contentType := export.ContentType(format)
		if contentType == "" {
			respondError(c, models.NewScrapeError(models.ErrCodeInvalidInput,
				fmt.Sprintf("unsupported export format %q", format), nil))
			return
		}

		ctx, cancel := scrapeContext(c, queryInt(c, "timeout", 0), cfg.Scraper.MaxTimeout)
		defer cancel()

		paginate := c.DefaultQuery("paginate", "true") == "true"
		out, err := client.ScrapeUser(ctx, models.ScrapeUserRequest{
			Username: c.Param("username"),
			Paginate: &paginate,
			MaxPages: queryInt(c, "max_pages", 0),
			Force:    c.Query("force") == "true",
		})
		if err != nil {
			respondError(c, err)
			return
		}

		c.Header("Content-Disposition",
			fmt.Sprintf("attachment; filename=%s.%s", c.Param("username"), format))
		c.Header("Content-Type", contentType)
		c.Status(http.StatusOK)
		if err := export.Write(c.Writer, format, out.Data); err != nil {
			// Headers are already out; all we can do is log through gin's
			// error list.
			_ = c.Error(err)
		}
	}
}
