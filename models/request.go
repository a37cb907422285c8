package models

// ScrapeUserRequest is the payload for POST /api/v1/scrape/user.
type ScrapeUserRequest struct {
	// Username is the profile to scrape. Required.
	Username string `json:"username" binding:"required"`

	// Paginate walks every page of the watchlist and films collections.
	// Default: true.
	Paginate *bool `json:"paginate,omitempty"`

	// MaxPages caps pagination per collection. Default: 50.
	MaxPages int `json:"max_pages,omitempty" binding:"omitempty,min=1,max=500"`

	// CacheTTL is the acceptable cache age in seconds. 0 uses the
	// server default; negative disables the cache for this request.
	CacheTTL int `json:"cache_ttl,omitempty"`

	// Force bypasses the cache entirely.
	Force bool `json:"force,omitempty"`

	// Snapshot appends the result to the snapshot store on success.
	Snapshot bool `json:"snapshot,omitempty"`

	// Timeout is the deadline in seconds for the whole scrape.
	// Default: 120. Capped by the server's max timeout.
	Timeout int `json:"timeout,omitempty" binding:"omitempty,min=1"`
}

// Defaults applies default values to unset fields.
func (r *ScrapeUserRequest) Defaults() {
	if r.Paginate == nil {
		t := true
		r.Paginate = &t
	}
	if r.MaxPages == 0 {
		r.MaxPages = 50
	}
	if r.Timeout == 0 {
		r.Timeout = 120
	}
}

// BatchScrapeRequest is the payload for POST /api/v1/scrape/batch.
type BatchScrapeRequest struct {
	Usernames []string `json:"usernames" binding:"required,min=1,max=50"`
	Paginate  *bool    `json:"paginate,omitempty"`
	MaxPages  int      `json:"max_pages,omitempty" binding:"omitempty,min=1,max=500"`
}

// Defaults applies default values to unset fields.
func (r *BatchScrapeRequest) Defaults() {
	if r.Paginate == nil {
		t := true
		r.Paginate = &t
	}
	if r.MaxPages == 0 {
		r.MaxPages = 50
	}
}

// FilmRequest is the payload for POST /api/v1/scrape/film.
type FilmRequest struct {
	FilmSlug string `json:"film_slug" binding:"required"`
	CacheTTL int    `json:"cache_ttl,omitempty"`
}

// ListRequest is the payload for POST /api/v1/scrape/list.
type ListRequest struct {
	ListPath string `json:"list_path" binding:"required"`
	MaxPages int    `json:"max_pages,omitempty" binding:"omitempty,min=1,max=500"`
}

// CompareRequest is the payload for POST /api/v1/compare.
type CompareRequest struct {
	User1    string `json:"user1" binding:"required"`
	User2    string `json:"user2" binding:"required"`
	Paginate *bool  `json:"paginate,omitempty"`
}

// RegisterWebhookRequest is the payload for POST /api/v1/webhooks.
type RegisterWebhookRequest struct {
	URL    string   `json:"url" binding:"required,url"`
	Events []string `json:"events,omitempty"`
}
