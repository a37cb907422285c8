package letterboxd

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/use-agent/reelscout/models"
)

var (
	statRe    = regexp.MustCompile(`([\d,]+)\s+(.+)`)
	runtimeRe = regexp.MustCompile(`(\d[\d,]*)\s*min`)
)

// ParseRating converts a star glyph rating to its numeric value:
// each ★ is one point, a trailing ½ adds half. Returns 0 for
// unrated or unrecognized text.
func ParseRating(stars string) float64 {
	stars = strings.TrimSpace(stars)
	var value float64
	for _, r := range stars {
		switch r {
		case '★':
			value++
		case '½':
			value += 0.5
		}
	}
	return value
}

// ParseStatistics converts the profile header's raw statistic strings
// ("1,234 Films", "56 This year", ...) into a structured form. Strings
// that match no known label are ignored.
func ParseStatistics(raw []string) *models.ProfileStats {
	stats := &models.ProfileStats{}
	for _, s := range raw {
		m := statRe.FindStringSubmatch(strings.TrimSpace(s))
		if m == nil {
			continue
		}
		n := parseCount(m[1])
		switch strings.ToLower(strings.TrimSpace(m[2])) {
		case "films", "film":
			stats.FilmsWatched = n
		case "this year":
			stats.FilmsThisYear = n
		case "lists", "list":
			stats.Lists = n
		case "following":
			stats.Following = n
		case "followers", "follower":
			stats.Followers = n
		}
	}
	return stats
}

// ParseRuntime extracts the minute count from film sidebar text like
// "166 mins  More at IMDb". Returns 0 when absent.
func ParseRuntime(text string) int {
	m := runtimeRe.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	return parseCount(m[1])
}

// parseCount parses a comma-grouped integer ("1,234"). Returns 0 on
// malformed input.
func parseCount(s string) int {
	n, err := strconv.Atoi(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return 0
	}
	return n
}

// cleanText collapses runs of whitespace the way browsers render them.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
