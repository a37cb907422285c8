package models

// Status values attached to every scrape response.
const (
	StatusComplete = "complete"
	StatusPartial  = "partial"
)

// ScrapeResponse is the envelope for all scrape endpoints. Status is
// "complete" or "partial"; a partial response carries the terminating
// error so the caller can decide whether to accept, retry, or discard.
type ScrapeResponse struct {
	Status string       `json:"status"`
	Data   any          `json:"data,omitempty"`
	Pages  int          `json:"pages,omitempty"`
	Error  *ErrorDetail `json:"error,omitempty"`
	Cached bool         `json:"cached,omitempty"`
}

// ErrorResponse is the envelope for failed requests.
type ErrorResponse struct {
	Error *ErrorDetail `json:"error"`
}

// HealthResponse is returned by GET /api/v1/health.
type HealthResponse struct {
	Status        string    `json:"status"`
	UptimeSeconds float64   `json:"uptime_seconds"`
	Pool          PoolStats `json:"pool"`
}
