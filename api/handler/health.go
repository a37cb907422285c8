package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/reelscout/browser"
	"github.com/use-agent/reelscout/models"
)

// Health returns a handler for GET /api/v1/health.
//
// Reports pool utilisation and degrades status when > 80% of pages are active.
func Health(pool *browser.Pool, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := pool.Stats()

		status := "healthy"
		if stats.PoolSize > 0 && stats.ActivePages > int(float64(stats.PoolSize)*0.8) {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:        status,
			UptimeSeconds: time.Since(startTime).Seconds(),
			Pool:          stats,
		})
	}
}
