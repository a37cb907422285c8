package letterboxd

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/use-agent/reelscout/models"
)

// BaseURL is the site root all page URLs are built from.
const BaseURL = "https://letterboxd.com"

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ValidateUsername rejects usernames before any browser work is spent
// on them: 2-30 characters, letters, digits, underscore.
func ValidateUsername(username string) error {
	if len(username) < 2 || len(username) > 30 {
		return models.NewScrapeError(models.ErrCodeInvalidInput,
			fmt.Sprintf("username %q must be 2-30 characters", username), nil)
	}
	if !usernameRe.MatchString(username) {
		return models.NewScrapeError(models.ErrCodeInvalidInput,
			fmt.Sprintf("username %q may only contain letters, digits, and underscore", username), nil)
	}
	return nil
}

// ProfileURL returns the user's profile page.
func ProfileURL(username string) string {
	return fmt.Sprintf("%s/%s/", BaseURL, username)
}

// WatchlistURL returns the first page of a user's watchlist.
func WatchlistURL(username string) string {
	return fmt.Sprintf("%s/%s/watchlist/", BaseURL, username)
}

// FilmsURL returns the first page of a user's watched films grid.
func FilmsURL(username string) string {
	return fmt.Sprintf("%s/%s/films/", BaseURL, username)
}

// DiaryURL returns the first page of a user's diary.
func DiaryURL(username string) string {
	return fmt.Sprintf("%s/%s/films/diary/", BaseURL, username)
}

// ReviewsURL returns the first page of a user's reviews.
func ReviewsURL(username string) string {
	return fmt.Sprintf("%s/%s/films/reviews/", BaseURL, username)
}

// ListsURL returns the first page of a user's lists.
func ListsURL(username string) string {
	return fmt.Sprintf("%s/%s/lists/", BaseURL, username)
}

// FollowersURL returns the first page of a user's followers.
func FollowersURL(username string) string {
	return fmt.Sprintf("%s/%s/followers/", BaseURL, username)
}

// FollowingURL returns the first page of accounts a user follows.
func FollowingURL(username string) string {
	return fmt.Sprintf("%s/%s/following/", BaseURL, username)
}

// FilmURL returns a film page by slug.
func FilmURL(slug string) string {
	return fmt.Sprintf("%s/film/%s/", BaseURL, slug)
}

// SearchURL returns the film search results page for a query.
func SearchURL(query string) string {
	return fmt.Sprintf("%s/search/films/%s/", BaseURL, url.PathEscape(query))
}

// ListURL normalizes a list path ("user/list/name" or a full URL) into
// the first page of that list.
func ListURL(listPath string) string {
	if strings.HasPrefix(listPath, "http://") || strings.HasPrefix(listPath, "https://") {
		if !strings.HasSuffix(listPath, "/") {
			listPath += "/"
		}
		return listPath
	}
	listPath = strings.Trim(listPath, "/")
	return fmt.Sprintf("%s/%s/", BaseURL, listPath)
}

// absoluteURL resolves href attributes, which the site serves
// root-relative, against BaseURL.
func absoluteURL(href string) string {
	if href == "" || strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return BaseURL + "/" + strings.TrimPrefix(href, "/")
}

// slugFromFilmHref pulls the film slug out of an href like
// "/film/the-substance/" or a data-target-link value.
func slugFromFilmHref(href string) string {
	href = strings.Trim(href, "/")
	parts := strings.Split(href, "/")
	for i, part := range parts {
		if part == "film" && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	return ""
}
