package models

import "time"

// Profile is the header block of a user page.
type Profile struct {
	Username    string        `json:"username"`
	DisplayName string        `json:"display_name"`
	Bio         string        `json:"bio,omitempty"`
	AvatarURL   string        `json:"avatar_url,omitempty"`
	Statistics  []string      `json:"statistics"`
	Stats       *ProfileStats `json:"stats,omitempty"`
	Pro         bool          `json:"pro"`
	Patron      bool          `json:"patron"`
}

// ProfileStats is the parsed form of the raw statistic strings.
type ProfileStats struct {
	FilmsWatched  int `json:"films_watched"`
	FilmsThisYear int `json:"films_this_year"`
	Lists         int `json:"lists"`
	Following     int `json:"following"`
	Followers     int `json:"followers"`
}

// FilmEntry is one poster on a watchlist, films, favourites, or
// recent-activity grid.
type FilmEntry struct {
	FilmName  string `json:"film_name"`
	FilmSlug  string `json:"film_slug,omitempty"`
	PosterURL string `json:"film_poster_image,omitempty"`
}

// FilmDetails is a scraped film page.
type FilmDetails struct {
	FilmSlug      string   `json:"film_slug"`
	Title         string   `json:"title"`
	Year          string   `json:"year,omitempty"`
	Director      string   `json:"director,omitempty"`
	RuntimeMins   int      `json:"runtime_mins,omitempty"`
	Genres        []string `json:"genres,omitempty"`
	AverageRating string   `json:"average_rating,omitempty"`
	Tagline       string   `json:"tagline,omitempty"`
	Description   string   `json:"description,omitempty"`
}

// ReviewEntry is one review on a user's reviews pages.
type ReviewEntry struct {
	FilmName   string  `json:"film_name"`
	FilmSlug   string  `json:"film_slug,omitempty"`
	Rating     string  `json:"rating,omitempty"`
	RatingNum  float64 `json:"rating_value,omitempty"`
	ReviewText string  `json:"review_text,omitempty"`
	ReviewDate string  `json:"review_date,omitempty"`
	Liked      bool    `json:"liked"`
}

// DiaryEntry is one row of a user's film diary.
type DiaryEntry struct {
	FilmName  string `json:"film_name"`
	FilmSlug  string `json:"film_slug,omitempty"`
	WatchDate string `json:"watch_date,omitempty"`
	Rating    string `json:"rating,omitempty"`
	Rewatch   bool   `json:"rewatch"`
	Liked     bool   `json:"liked"`
	HasReview bool   `json:"has_review"`
}

// ListSummary is one list on a user's lists pages.
type ListSummary struct {
	ListName    string `json:"list_name"`
	ListURL     string `json:"list_url,omitempty"`
	Description string `json:"description,omitempty"`
	FilmCount   string `json:"film_count,omitempty"`
}

// ListContents is a scraped list page with all its films.
type ListContents struct {
	ListURL     string      `json:"list_url"`
	ListName    string      `json:"list_name,omitempty"`
	Description string      `json:"description,omitempty"`
	Films       []FilmEntry `json:"films"`
}

// Person is one row of a followers or following table.
type Person struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	ProfileURL  string `json:"profile_url,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// SearchResult is one film hit on a search results page.
type SearchResult struct {
	Title     string `json:"title"`
	Year      string `json:"year,omitempty"`
	FilmSlug  string `json:"film_slug,omitempty"`
	Director  string `json:"director,omitempty"`
	PosterURL string `json:"poster_url,omitempty"`
}

// UserScrape is the full payload of a user profile scrape.
type UserScrape struct {
	Metadata ScrapeMetadata `json:"metadata"`
	Profile  Profile        `json:"profile"`
	Films    UserFilms      `json:"films"`
}

// UserFilms groups the film collections attached to a profile scrape.
type UserFilms struct {
	Favourites     []FilmEntry `json:"favourite_films"`
	RecentActivity []FilmEntry `json:"recent_activity"`
	Watchlist      []FilmEntry `json:"watchlist,omitempty"`
	AllFilms       []FilmEntry `json:"all_films,omitempty"`
}

// ScrapeMetadata records when and how a payload was produced.
type ScrapeMetadata struct {
	ScrapedAt time.Time     `json:"scraped_at"`
	TargetURL string        `json:"target_url"`
	Duration  time.Duration `json:"duration_ns"`
	FromCache bool          `json:"from_cache,omitempty"`
}

// Comparison is the outcome of comparing two users' watched films.
type Comparison struct {
	User1         string          `json:"user1"`
	User2         string          `json:"user2"`
	Statistics    ComparisonStats `json:"statistics"`
	CommonFilms   []FilmEntry     `json:"common_films"`
	UniqueToUser1 []FilmEntry     `json:"unique_to_user1"`
	UniqueToUser2 []FilmEntry     `json:"unique_to_user2"`
}

// ComparisonStats summarizes a Comparison.
type ComparisonStats struct {
	User1TotalFilms int     `json:"user1_total_films"`
	User2TotalFilms int     `json:"user2_total_films"`
	CommonCount     int     `json:"common_count"`
	UniqueToUser1   int     `json:"unique_to_user1_count"`
	UniqueToUser2   int     `json:"unique_to_user2_count"`
	Compatibility   float64 `json:"compatibility_percentage"`
}

// BatchResult is the outcome for one user in a batch scrape.
type BatchResult struct {
	Success bool        `json:"success"`
	Data    *UserScrape `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// PoolStats is a point-in-time view of the browser pool.
type PoolStats struct {
	PoolSize    int `json:"pool_size"`
	ActivePages int `json:"active_pages"`
}
