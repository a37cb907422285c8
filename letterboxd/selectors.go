// Package letterboxd is the domain layer: selector configuration,
// per-page-type extractors, and the scrape orchestration that ties the
// scraping core to Letterboxd's public pages.
package letterboxd

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/andybalholm/cascadia"
)

// SelectorConfig is a versioned field→locator dictionary injected into
// the extractors. Locators never live in scraping logic, so a site
// markup change is a config edit, not a code change.
type SelectorConfig struct {
	Version    int                          `json:"version"`
	Categories map[string]map[string]string `json:"selectors"`

	mu sync.RWMutex
}

// DefaultSelectors returns the built-in selector set for the current
// site markup.
func DefaultSelectors() *SelectorConfig {
	return &SelectorConfig{
		Version: 1,
		Categories: map[string]map[string]string{
			"profile": {
				"content_wrap": "div#content div.content-wrap",
				"header":       "section.profile-header.js-profile-header",
				"avatar":       "div.profile-summary.js-profile-summary div.profile-avatar span img",
				"display_name": "div.profile-summary.js-profile-summary div.profile-name-and-actions.js-profile-name-and-actions h1.person-display-name span",
				"statistics":   "div.profile-summary.js-profile-summary div.profile-info.js-profile-info div.profile-stats.js-profile-stats h4.profile-statistic",
				"bio":          "div.profile-summary.js-profile-summary div.profile-info.js-profile-info div.bio.js-bio div",
				"pro_badge":    "span.badge.-pro",
				"patron_badge": "span.badge.-patron",
			},
			"films": {
				"favourites_section": "section#favourites",
				"activity_section":   "section#recent-activity",
				"poster_list":        "ul.poster-list",
				"poster_container":   "li.poster-container",
				"film_poster":        "div.film-poster",
				"poster_image":       "div.film-poster div img",
			},
			"watchlist": {
				"poster_list":      "ul.poster-list",
				"poster_container": "li.poster-container",
				"next_page":        "a.next",
			},
			"film_page": {
				"header":      "section.film-header-group",
				"title":       "h1.headline-1",
				"year":        "small.number a",
				"director":    "span.directorlist a",
				"tagline":     "h4.tagline",
				"description": "div.truncate p",
				"sidebar":     "aside.sidebar",
				"runtime":     "p.text-link",
				"genres":      "div#tab-genres a.text-slug",
				"rating":      "a.tooltip.display-rating",
			},
			"reviews": {
				"review_item": "li.film-detail",
				"rating":      "span.rating",
				"body":        "div.body-text",
				"date":        "span.date a",
				"liked":       "span.like.icon-liked",
			},
			"diary": {
				"entry_row":    "tr.diary-entry-row",
				"film_details": "td.td-film-details div.film-poster",
				"calendar":     "td.td-calendar a",
				"rating":       "td.td-rating span.rating",
				"rewatch":      "td.td-rewatch span.icon-status-rewatch",
				"like":         "td.td-like span.icon-liked",
				"review_icon":  "td.td-review a.icon-review",
			},
			"lists": {
				"list_item":   "section.list-set",
				"title":       "h2.title a",
				"description": "div.body-text p",
				"count":       "small.value",
			},
			"social": {
				"person_table": "table.person-table tr",
				"avatar":       "td.table-person a.avatar img",
				"name_link":    "td.table-person h3.title-3 a",
			},
			"search": {
				"result_item": "ul.results li.film-detail",
				"title":       "h2.headline-2 a",
				"year":        "h2.headline-2 small a",
				"director":    "p.film-detail-content a",
			},
			"errors": {
				"not_found": "body.error section.message",
			},
		},
	}
}

// LoadSelectors reads a JSON selector file and deep-merges it over the
// defaults, so a config file only needs to carry overrides. Every
// selector is validated with cascadia before being accepted.
func LoadSelectors(path string) (*SelectorConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("selectors: read %s: %w", path, err)
	}

	var custom SelectorConfig
	if err := json.Unmarshal(data, &custom); err != nil {
		return nil, fmt.Errorf("selectors: parse %s: %w", path, err)
	}

	cfg := DefaultSelectors()
	for category, overrides := range custom.Categories {
		if cfg.Categories[category] == nil {
			cfg.Categories[category] = make(map[string]string)
		}
		for name, sel := range overrides {
			cfg.Categories[category][name] = sel
		}
	}
	if custom.Version > 0 {
		cfg.Version = custom.Version
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the current selector set to a JSON file.
func (s *SelectorConfig) Save(path string) error {
	s.mu.RLock()
	data, err := json.MarshalIndent(s, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("selectors: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("selectors: write %s: %w", path, err)
	}
	return nil
}

// Validate parses every selector with cascadia so a bad locator fails
// at config load, not mid-scrape.
func (s *SelectorConfig) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for category, selectors := range s.Categories {
		for name, sel := range selectors {
			if _, err := cascadia.Parse(sel); err != nil {
				return fmt.Errorf("selectors: invalid %s.%s %q: %w", category, name, sel, err)
			}
		}
	}
	return nil
}

// Get returns a selector by category and name, or "" when absent.
func (s *SelectorConfig) Get(category, name string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Categories[category][name]
}

// Set updates one selector after validating it and bumps the version.
func (s *SelectorConfig) Set(category, name, sel string) error {
	if _, err := cascadia.Parse(sel); err != nil {
		return fmt.Errorf("selectors: invalid %s.%s %q: %w", category, name, sel, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Categories[category] == nil {
		s.Categories[category] = make(map[string]string)
	}
	s.Categories[category][name] = sel
	s.Version++
	return nil
}
