package letterboxd

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/reelscout/models"
)

// Extractor maps rendered documents to records using an injected
// selector set. Extractors never navigate; they only read DOMs handed
// to them.
type Extractor struct {
	sel *SelectorConfig
}

// NewExtractor creates an Extractor over the given selector set.
func NewExtractor(sel *SelectorConfig) *Extractor {
	if sel == nil {
		sel = DefaultSelectors()
	}
	return &Extractor{sel: sel}
}

// NotFound reports whether the document is the site's error page.
// Pages like profiles and films always carry a content wrap; its
// absence together with an error section marks a missing subject.
func (e *Extractor) NotFound(doc *goquery.Document) bool {
	if doc.Find(e.sel.Get("errors", "not_found")).Length() > 0 {
		return true
	}
	title := strings.ToLower(doc.Find("title").First().Text())
	return strings.Contains(title, "not found")
}

// Profile extracts the profile header block. A missing header on a
// page that is not the error page means the site markup changed, which
// is fatal rather than retryable.
func (e *Extractor) Profile(username string, doc *goquery.Document) (*models.Profile, error) {
	header := doc.Find(e.sel.Get("profile", "header"))
	if header.Length() == 0 {
		return nil, models.NewScrapeError(models.ErrCodeExtraction,
			fmt.Sprintf("profile header not found for %s", username), nil)
	}

	p := &models.Profile{Username: username}
	p.DisplayName = cleanText(header.Find(e.sel.Get("profile", "display_name")).First().Text())
	if p.DisplayName == "" {
		p.DisplayName = username
	}
	p.Bio = cleanText(header.Find(e.sel.Get("profile", "bio")).Text())
	if avatar, ok := header.Find(e.sel.Get("profile", "avatar")).First().Attr("src"); ok {
		p.AvatarURL = avatar
	}
	header.Find(e.sel.Get("profile", "statistics")).Each(func(_ int, s *goquery.Selection) {
		if text := cleanText(s.Text()); text != "" {
			p.Statistics = append(p.Statistics, text)
		}
	})
	p.Stats = ParseStatistics(p.Statistics)
	p.Pro = header.Find(e.sel.Get("profile", "pro_badge")).Length() > 0
	p.Patron = header.Find(e.sel.Get("profile", "patron_badge")).Length() > 0
	return p, nil
}

// Favourites extracts the profile page's favourite-films strip.
func (e *Extractor) Favourites(doc *goquery.Document) []models.FilmEntry {
	section := doc.Find(e.sel.Get("films", "favourites_section"))
	return e.posterEntries(section.Find(e.sel.Get("films", "poster_container")))
}

// RecentActivity extracts the profile page's recent-activity strip.
func (e *Extractor) RecentActivity(doc *goquery.Document) []models.FilmEntry {
	section := doc.Find(e.sel.Get("films", "activity_section"))
	return e.posterEntries(section.Find(e.sel.Get("films", "poster_container")))
}

// PosterPage extracts one page of a poster grid (watchlist, watched
// films, list contents). An empty grid means the collection ended.
func (e *Extractor) PosterPage(_ int, doc *goquery.Document) ([]models.FilmEntry, bool, error) {
	containers := doc.Find(e.sel.Get("watchlist", "poster_list")).
		Find(e.sel.Get("watchlist", "poster_container"))
	entries := e.posterEntries(containers)
	if len(entries) == 0 {
		return nil, false, nil
	}
	return entries, e.hasNextPage(doc), nil
}

// posterEntries maps poster containers to film entries. The film name
// lives in the poster image's alt text; the slug in the poster div's
// target link.
func (e *Extractor) posterEntries(containers *goquery.Selection) []models.FilmEntry {
	var entries []models.FilmEntry
	containers.Each(func(_ int, s *goquery.Selection) {
		entry := models.FilmEntry{}
		img := s.Find(e.sel.Get("films", "poster_image")).First()
		entry.FilmName = cleanText(img.AttrOr("alt", ""))
		entry.PosterURL = img.AttrOr("src", "")

		poster := s.Find(e.sel.Get("films", "film_poster")).First()
		if link, ok := poster.Attr("data-target-link"); ok {
			entry.FilmSlug = slugFromFilmHref(link)
		}
		if entry.FilmSlug == "" {
			entry.FilmSlug = slugFromFilmHref(poster.AttrOr("data-film-slug", ""))
		}
		if entry.FilmName == "" && entry.FilmSlug == "" {
			return
		}
		entries = append(entries, entry)
	})
	return entries
}

// DiaryPage extracts one page of diary rows.
func (e *Extractor) DiaryPage(_ int, doc *goquery.Document) ([]models.DiaryEntry, bool, error) {
	var entries []models.DiaryEntry
	doc.Find(e.sel.Get("diary", "entry_row")).Each(func(_ int, s *goquery.Selection) {
		entry := models.DiaryEntry{}
		poster := s.Find(e.sel.Get("diary", "film_details")).First()
		entry.FilmName = cleanText(poster.Find("img").First().AttrOr("alt", ""))
		entry.FilmSlug = slugFromFilmHref(poster.AttrOr("data-target-link", ""))
		if href, ok := s.Find(e.sel.Get("diary", "calendar")).First().Attr("href"); ok {
			entry.WatchDate = watchDateFromHref(href)
		}
		entry.Rating = cleanText(s.Find(e.sel.Get("diary", "rating")).First().Text())
		entry.Rewatch = s.Find(e.sel.Get("diary", "rewatch")).Length() > 0
		entry.Liked = s.Find(e.sel.Get("diary", "like")).Length() > 0
		entry.HasReview = s.Find(e.sel.Get("diary", "review_icon")).Length() > 0
		if entry.FilmName != "" || entry.FilmSlug != "" {
			entries = append(entries, entry)
		}
	})
	if len(entries) == 0 {
		return nil, false, nil
	}
	return entries, e.hasNextPage(doc), nil
}

// ReviewsPage extracts one page of review items.
func (e *Extractor) ReviewsPage(_ int, doc *goquery.Document) ([]models.ReviewEntry, bool, error) {
	var entries []models.ReviewEntry
	doc.Find(e.sel.Get("reviews", "review_item")).Each(func(_ int, s *goquery.Selection) {
		entry := models.ReviewEntry{}
		link := s.Find("h2 a").First()
		entry.FilmName = cleanText(link.Text())
		entry.FilmSlug = slugFromFilmHref(link.AttrOr("href", ""))
		entry.Rating = cleanText(s.Find(e.sel.Get("reviews", "rating")).First().Text())
		entry.RatingNum = ParseRating(entry.Rating)
		entry.ReviewText = cleanText(s.Find(e.sel.Get("reviews", "body")).Text())
		entry.ReviewDate = cleanText(s.Find(e.sel.Get("reviews", "date")).First().Text())
		entry.Liked = s.Find(e.sel.Get("reviews", "liked")).Length() > 0
		if entry.FilmName != "" {
			entries = append(entries, entry)
		}
	})
	if len(entries) == 0 {
		return nil, false, nil
	}
	return entries, e.hasNextPage(doc), nil
}

// ListsPage extracts one page of list summaries.
func (e *Extractor) ListsPage(_ int, doc *goquery.Document) ([]models.ListSummary, bool, error) {
	var entries []models.ListSummary
	doc.Find(e.sel.Get("lists", "list_item")).Each(func(_ int, s *goquery.Selection) {
		entry := models.ListSummary{}
		title := s.Find(e.sel.Get("lists", "title")).First()
		entry.ListName = cleanText(title.Text())
		entry.ListURL = absoluteURL(title.AttrOr("href", ""))
		entry.Description = cleanText(s.Find(e.sel.Get("lists", "description")).Text())
		entry.FilmCount = cleanText(s.Find(e.sel.Get("lists", "count")).First().Text())
		if entry.ListName != "" {
			entries = append(entries, entry)
		}
	})
	if len(entries) == 0 {
		return nil, false, nil
	}
	return entries, e.hasNextPage(doc), nil
}

// PeoplePage extracts one page of a followers or following table.
func (e *Extractor) PeoplePage(_ int, doc *goquery.Document) ([]models.Person, bool, error) {
	var entries []models.Person
	doc.Find(e.sel.Get("social", "person_table")).Each(func(_ int, s *goquery.Selection) {
		p := models.Person{}
		link := s.Find(e.sel.Get("social", "name_link")).First()
		p.DisplayName = cleanText(link.Text())
		if href, ok := link.Attr("href"); ok {
			p.Username = strings.Trim(href, "/")
			p.ProfileURL = absoluteURL(href)
		}
		p.AvatarURL = s.Find(e.sel.Get("social", "avatar")).First().AttrOr("src", "")
		if p.Username != "" {
			entries = append(entries, p)
		}
	})
	if len(entries) == 0 {
		return nil, false, nil
	}
	return entries, e.hasNextPage(doc), nil
}

// ListContents extracts the name and description block of a list page.
// The films themselves come from PosterPage over the same documents.
func (e *Extractor) ListContents(doc *goquery.Document) (name, description string) {
	name = cleanText(doc.Find("h1.title-1").First().Text())
	description = cleanText(doc.Find("div.body-text p").First().Text())
	return name, description
}

// FilmDetails extracts a film page. A missing header is fatal.
func (e *Extractor) FilmDetails(slug string, doc *goquery.Document) (*models.FilmDetails, error) {
	header := doc.Find(e.sel.Get("film_page", "header"))
	if header.Length() == 0 {
		return nil, models.NewScrapeError(models.ErrCodeExtraction,
			fmt.Sprintf("film header not found for %s", slug), nil)
	}

	d := &models.FilmDetails{FilmSlug: slug}
	d.Title = cleanText(header.Find(e.sel.Get("film_page", "title")).First().Text())
	d.Year = cleanText(header.Find(e.sel.Get("film_page", "year")).First().Text())
	d.Director = cleanText(header.Find(e.sel.Get("film_page", "director")).First().Text())
	d.Tagline = cleanText(doc.Find(e.sel.Get("film_page", "tagline")).First().Text())
	d.Description = cleanText(doc.Find(e.sel.Get("film_page", "description")).First().Text())
	d.AverageRating = cleanText(doc.Find(e.sel.Get("film_page", "rating")).First().Text())
	d.RuntimeMins = ParseRuntime(doc.Find(e.sel.Get("film_page", "sidebar")).
		Find(e.sel.Get("film_page", "runtime")).Text())
	doc.Find(e.sel.Get("film_page", "genres")).Each(func(_ int, s *goquery.Selection) {
		if g := cleanText(s.Text()); g != "" {
			d.Genres = append(d.Genres, g)
		}
	})
	return d, nil
}

// SearchResults extracts film hits from a search results page, up to
// maxResults (<= 0 means all).
func (e *Extractor) SearchResults(doc *goquery.Document, maxResults int) []models.SearchResult {
	var results []models.SearchResult
	doc.Find(e.sel.Get("search", "result_item")).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		r := models.SearchResult{}
		title := s.Find(e.sel.Get("search", "title")).First()
		r.Title = cleanText(title.Text())
		r.FilmSlug = slugFromFilmHref(title.AttrOr("href", ""))
		r.Year = cleanText(s.Find(e.sel.Get("search", "year")).First().Text())
		r.Director = cleanText(s.Find(e.sel.Get("search", "director")).First().Text())
		r.PosterURL = s.Find("img").First().AttrOr("src", "")
		if r.Title == "" {
			return true
		}
		results = append(results, r)
		return maxResults <= 0 || len(results) < maxResults
	})
	return results
}

// hasNextPage reports whether the pagination footer links a next page.
func (e *Extractor) hasNextPage(doc *goquery.Document) bool {
	return doc.Find(e.sel.Get("watchlist", "next_page")).Length() > 0
}

// watchDateFromHref turns a diary calendar href like
// "/user/films/diary/for/2024/03/15/" into "2024-03-15".
func watchDateFromHref(href string) string {
	parts := strings.Split(strings.Trim(href, "/"), "/")
	for i, part := range parts {
		if part == "for" && i+3 < len(parts) {
			return parts[i+1] + "-" + parts[i+2] + "-" + parts[i+3]
		}
	}
	return ""
}
