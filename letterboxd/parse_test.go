package letterboxd

import "testing"

func TestParseRating(t *testing.T) {
	cases := []struct {
		stars string
		want  float64
	}{
		{"★★★★★", 5},
		{"★★★½", 3.5},
		{"½", 0.5},
		{" ★★ ", 2},
		{"", 0},
		{"no rating", 0},
	}
	for _, tc := range cases {
		if got := ParseRating(tc.stars); got != tc.want {
			t.Errorf("ParseRating(%q) = %v, want %v", tc.stars, got, tc.want)
		}
	}
}

func TestParseStatistics(t *testing.T) {
	stats := ParseStatistics([]string{
		"1,234 Films",
		"56 This year",
		"7 Lists",
		"89 Following",
		"101 Followers",
		"weird entry",
	})
	if stats.FilmsWatched != 1234 {
		t.Errorf("FilmsWatched = %d, want 1234", stats.FilmsWatched)
	}
	if stats.FilmsThisYear != 56 {
		t.Errorf("FilmsThisYear = %d, want 56", stats.FilmsThisYear)
	}
	if stats.Lists != 7 {
		t.Errorf("Lists = %d, want 7", stats.Lists)
	}
	if stats.Following != 89 {
		t.Errorf("Following = %d, want 89", stats.Following)
	}
	if stats.Followers != 101 {
		t.Errorf("Followers = %d, want 101", stats.Followers)
	}
}

func TestParseRuntime(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"166 mins  More at IMDb TMDB", 166},
		{"90 min", 90},
		{"1,000 mins", 1000},
		{"More at IMDb", 0},
	}
	for _, tc := range cases {
		if got := ParseRuntime(tc.text); got != tc.want {
			t.Errorf("ParseRuntime(%q) = %d, want %d", tc.text, got, tc.want)
		}
	}
}

func TestValidateUsername(t *testing.T) {
	for _, ok := range []string{"ab", "alice_99", "A_1234567890"} {
		if err := ValidateUsername(ok); err != nil {
			t.Errorf("ValidateUsername(%q) = %v, want nil", ok, err)
		}
	}
	bad := []string{
		"a",
		"",
		"user name",
		"user-name",
		"über",
		"0123456789012345678901234567890", // 31 chars
	}
	for _, b := range bad {
		if err := ValidateUsername(b); err == nil {
			t.Errorf("ValidateUsername(%q) = nil, want error", b)
		}
	}
}

func TestPageURLs(t *testing.T) {
	if got := WatchlistURL("alice"); got != "https://letterboxd.com/alice/watchlist/" {
		t.Errorf("WatchlistURL = %q", got)
	}
	if got := FilmURL("the-substance"); got != "https://letterboxd.com/film/the-substance/" {
		t.Errorf("FilmURL = %q", got)
	}
	if got := ListURL("alice/list/best-of-2024"); got != "https://letterboxd.com/alice/list/best-of-2024/" {
		t.Errorf("ListURL = %q", got)
	}
	if got := ListURL("https://letterboxd.com/alice/list/best-of-2024"); got != "https://letterboxd.com/alice/list/best-of-2024/" {
		t.Errorf("ListURL(full) = %q", got)
	}
	if got := SearchURL("blade runner"); got != "https://letterboxd.com/search/films/blade%20runner/" {
		t.Errorf("SearchURL = %q", got)
	}
}

func TestSlugFromFilmHref(t *testing.T) {
	cases := map[string]string{
		"/film/the-substance/":      "the-substance",
		"https://letterboxd.com/film/dune-part-two/": "dune-part-two",
		"/alice/watchlist/":         "",
		"":                          "",
	}
	for href, want := range cases {
		if got := slugFromFilmHref(href); got != want {
			t.Errorf("slugFromFilmHref(%q) = %q, want %q", href, got, want)
		}
	}
}
