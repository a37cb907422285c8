package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Scraper   ScraperConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Snapshot  SnapshotConfig
	Webhook   WebhookConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance and the page pool.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// PoolSize is the fixed number of pooled pages (max concurrent tabs).
	PoolSize int // default: 3

	// AcquireTimeout is how long a caller waits for a free page before
	// the acquisition fails with POOL_EXHAUSTED.
	AcquireTimeout time.Duration // default: 30s

	// RecycleAfterUses destroys and replaces a page once it has served
	// this many fetches. Bounds accumulated browser state.
	RecycleAfterUses int // default: 50

	// RecycleAfterAge destroys and replaces a page older than this.
	RecycleAfterAge time.Duration // default: 50m

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Stealth injects anti-bot-detection JS into every new page.
	Stealth bool // default: true

	// UserAgent overrides the browser's User-Agent header when non-empty.
	UserAgent string

	// AcceptLanguage is sent with every request so the site serves
	// consistent English markup for the selectors.
	AcceptLanguage string // default: "en-US,en;q=0.9"

	// BlockedResourceTypes lists resource types to block during navigation.
	// default: ["Image", "Stylesheet", "Font", "Media"]
	BlockedResourceTypes []string
}

// ScraperConfig controls fetch pacing, timeouts, and retries.
type ScraperConfig struct {
	// MinDelay is the minimum delay between outbound navigations.
	MinDelay time.Duration // default: 1s

	// MaxDelay is the upper bound for randomized delays.
	MaxDelay time.Duration // default: 2s

	// Randomize picks a random delay in [MinDelay, MaxDelay] per request.
	Randomize bool // default: true

	// PageLoadTimeout is the per-attempt navigation deadline.
	PageLoadTimeout time.Duration // default: 30s

	// ElementWaitTimeout bounds the post-navigation wait for the
	// page's DOM to settle before the current DOM is used as-is.
	ElementWaitTimeout time.Duration // default: 10s

	// MaxRetries is the maximum number of navigation attempts per fetch.
	MaxRetries int // default: 3

	// RetryBaseDelay is the initial backoff delay, doubling per attempt.
	RetryBaseDelay time.Duration // default: 1s

	// RetryMaxDelay caps the backoff delay.
	RetryMaxDelay time.Duration // default: 30s

	// Prefetch is the pagination prefetch window (1 = sequential).
	Prefetch int // default: 1

	// MaxTimeout is the maximum allowed scrape deadline from the client.
	MaxTimeout time.Duration // default: 300s

	// SelectorsPath points to a JSON selector override file. Empty uses
	// the built-in selector set.
	SelectorsPath string
}

// CacheConfig controls the scrape result cache.
type CacheConfig struct {
	// DefaultTTL is the entry lifetime when the caller does not pass one.
	DefaultTTL time.Duration // default: 1h
}

// SnapshotConfig controls snapshot persistence.
type SnapshotConfig struct {
	// Backend selects the snapshot store: "sqlite" or "memory".
	Backend string // default: "sqlite"

	// SQLitePath is the database file for the sqlite backend.
	SQLitePath string // default: "reelscout.db"
}

// WebhookConfig controls outbound webhook delivery.
type WebhookConfig struct {
	// Secret signs webhook payloads with HMAC-SHA256 when non-empty.
	Secret string
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key API rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 5

	// Burst is the maximum burst size per API key.
	Burst int // default: 10
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host: envOr("REELSCOUT_HOST", "0.0.0.0"),
			Port: envIntOr("REELSCOUT_PORT", 8080),
			Mode: envOr("REELSCOUT_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:         envBoolOr("REELSCOUT_HEADLESS", true),
			PoolSize:         envIntOr("REELSCOUT_POOL_SIZE", 3),
			AcquireTimeout:   envDurationOr("REELSCOUT_ACQUIRE_TIMEOUT", 30*time.Second),
			RecycleAfterUses: envIntOr("REELSCOUT_RECYCLE_USES", 50),
			RecycleAfterAge:  envDurationOr("REELSCOUT_RECYCLE_AGE", 50*time.Minute),
			NoSandbox:        envBoolOr("REELSCOUT_NO_SANDBOX", false),
			BrowserBin:       os.Getenv("REELSCOUT_BROWSER_BIN"),
			Stealth:          envBoolOr("REELSCOUT_STEALTH", true),
			UserAgent:        os.Getenv("REELSCOUT_USER_AGENT"),
			AcceptLanguage:   envOr("REELSCOUT_ACCEPT_LANGUAGE", "en-US,en;q=0.9"),
			BlockedResourceTypes: envSliceOr("REELSCOUT_BLOCKED_RESOURCES", []string{
				"Image", "Stylesheet", "Font", "Media",
			}),
		},
		Scraper: ScraperConfig{
			MinDelay:           envDurationOr("REELSCOUT_MIN_DELAY", 1*time.Second),
			MaxDelay:           envDurationOr("REELSCOUT_MAX_DELAY", 2*time.Second),
			Randomize:          envBoolOr("REELSCOUT_RANDOMIZE_DELAY", true),
			PageLoadTimeout:    envDurationOr("REELSCOUT_PAGE_LOAD_TIMEOUT", 30*time.Second),
			ElementWaitTimeout: envDurationOr("REELSCOUT_ELEMENT_WAIT_TIMEOUT", 10*time.Second),
			MaxRetries:         envIntOr("REELSCOUT_MAX_RETRIES", 3),
			RetryBaseDelay:     envDurationOr("REELSCOUT_RETRY_BASE_DELAY", 1*time.Second),
			RetryMaxDelay:      envDurationOr("REELSCOUT_RETRY_MAX_DELAY", 30*time.Second),
			Prefetch:           envIntOr("REELSCOUT_PREFETCH", 1),
			MaxTimeout:         envDurationOr("REELSCOUT_MAX_TIMEOUT", 300*time.Second),
			SelectorsPath:      os.Getenv("REELSCOUT_SELECTORS"),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("REELSCOUT_AUTH_ENABLED", false),
			APIKeys: envSliceOr("REELSCOUT_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("REELSCOUT_RATE_RPS", 5.0),
			Burst:             envIntOr("REELSCOUT_RATE_BURST", 10),
		},
		Cache: CacheConfig{
			DefaultTTL: envDurationOr("REELSCOUT_CACHE_TTL", 1*time.Hour),
		},
		Snapshot: SnapshotConfig{
			Backend:    envOr("REELSCOUT_SNAPSHOT_BACKEND", "sqlite"),
			SQLitePath: envOr("REELSCOUT_SNAPSHOT_DB", "reelscout.db"),
		},
		Webhook: WebhookConfig{
			Secret: os.Getenv("REELSCOUT_WEBHOOK_SECRET"),
		},
		Log: LogConfig{
			Level:  envOr("REELSCOUT_LOG_LEVEL", "info"),
			Format: envOr("REELSCOUT_LOG_FORMAT", "json"),
		},
	}
	cfg.Scraper.Normalize()
	if cfg.Browser.PoolSize < 1 {
		cfg.Browser.PoolSize = 1
	}
	return cfg
}

// Normalize enforces the invariants the scraping core relies on:
// non-zero delays, MaxDelay >= MinDelay, retries >= 1.
func (c *ScraperConfig) Normalize() {
	if c.MinDelay <= 0 {
		c.MinDelay = 1 * time.Second
	}
	if c.MaxDelay < c.MinDelay {
		c.MaxDelay = c.MinDelay
	}
	if c.MaxRetries < 1 {
		c.MaxRetries = 1
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = 1 * time.Second
	}
	if c.RetryMaxDelay < c.RetryBaseDelay {
		c.RetryMaxDelay = c.RetryBaseDelay
	}
	if c.Prefetch < 1 {
		c.Prefetch = 1
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
