package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/reelscout/models"
	"github.com/use-agent/reelscout/webhook"
)

// RegisterWebhook returns a handler for POST /api/v1/webhooks.
func RegisterWebhook(mgr *webhook.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.RegisterWebhookRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}
		reg := mgr.Register(req.URL, req.Events)
		c.JSON(http.StatusCreated, reg)
	}
}

// ListWebhooks returns a handler for GET /api/v1/webhooks.
func ListWebhooks(mgr *webhook.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		regs := mgr.List()
		c.JSON(http.StatusOK, gin.H{"count": len(regs), "webhooks": regs})
	}
}

// UnregisterWebhook returns a handler for DELETE /api/v1/webhooks/:id.
func UnregisterWebhook(mgr *webhook.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !mgr.Unregister(c.Param("id")) {
			respondError(c, models.NewScrapeError(models.ErrCodeNotFound,
				"webhook not found", nil))
			return
		}
		c.Status(http.StatusNoContent)
	}
}
