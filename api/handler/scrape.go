// Package handler contains the gin handlers for the scrape API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/reelscout/config"
	"github.com/use-agent/reelscout/letterboxd"
	"github.com/use-agent/reelscout/models"
)

// ScrapeUser returns a handler for POST /api/v1/scrape/user.
//
// Orchestration flow:
//  1. Parse & validate request, apply defaults.
//  2. Derive the scrape deadline (request timeout capped by server max).
//  3. Client.ScrapeUser — cache, fetch, extract, snapshot, notify.
//  4. Map the outcome to complete/partial and respond.
func ScrapeUser(client *letterboxd.Client, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ScrapeUserRequest
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

		ctx, cancel := scrapeContext(c, req.Timeout, cfg.Scraper.MaxTimeout)
		defer cancel()

		out, err := client.ScrapeUser(ctx, req)
		if err != nil {
			respondError(c, err)
			return
		}
		outcomeJSON(c, out)
	}
}

// ScrapeFilm returns a handler for POST /api/v1/scrape/film.
func ScrapeFilm(client *letterboxd.Client, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.FilmRequest
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

		out, err := client.ScrapeFilm(ctx, req.FilmSlug, time.Duration(req.CacheTTL)*time.Second, false)
		if err != nil {
			respondError(c, err)
			return
		}
		outcomeJSON(c, out)
	}
}

// ScrapeList returns a handler for POST /api/v1/scrape/list.
func ScrapeList(client *letterboxd.Client, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ListRequest
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

		out, err := client.ScrapeListContents(ctx, req.ListPath, letterboxd.CollectionOptions{
			MaxPages: req.MaxPages,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		outcomeJSON(c, out)
	}
}

// scrapeContext derives the scrape deadline from the request timeout in
// seconds, capped by the server maximum. 0 uses half the maximum.
func scrapeContext(c *gin.Context, timeoutSec int, maxTimeout time.Duration) (context.Context, context.CancelFunc) {
	timeout := time.Duration(timeoutSec) * time.Second
	if timeout <= 0 {
		timeout = maxTimeout / 2
	}
	if timeout > maxTimeout {
		timeout = maxTimeout
	}
	return context.WithTimeout(c.Request.Context(), timeout)
}

// outcomeJSON maps a scrape outcome to the response envelope. Partial
// outcomes are still 200s; the envelope carries the terminating error.
func outcomeJSON[T any](c *gin.Context, out *letterboxd.Outcome[T]) {
	resp := models.ScrapeResponse{
		Status: models.StatusComplete,
		Data:   out.Data,
		Pages:  out.Pages,
		Cached: out.Cached,
	}
	if out.Partial {
		resp.Status = models.StatusPartial
		if out.Err != nil {
			resp.Error = out.Err.ToDetail()
		}
	}
	c.JSON(http.StatusOK, resp)
}

// respondError maps a ScrapeError to the correct HTTP status code and writes
// a structured JSON error response.
func respondError(c *gin.Context, err error) {
	scrapeErr, ok := err.(*models.ScrapeError)
	if !ok {
		scrapeErr = models.NewScrapeError(models.ErrCodeInternal, err.Error(), err)
	}
	c.JSON(mapErrorToStatus(scrapeErr), models.ErrorResponse{Error: scrapeErr.ToDetail()})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeNavigation:
		return http.StatusBadGateway // 502
	case models.ErrCodeNotFound:
		return http.StatusNotFound // 404
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited, models.ErrCodePoolExhausted:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	case models.ErrCodeCancelled:
		return http.StatusGatewayTimeout // 504
	default:
		return http.StatusInternalServerError // 500
	}
}
