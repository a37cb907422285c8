// Package export renders scraped user payloads in the supported
// download formats: JSON, flattened CSV, and XML.
package export

import (
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"

	"github.com/use-agent/reelscout/models"
)

// Supported export formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatXML  = "xml"
)

// ContentType returns the MIME type for a format, or "" when the
// format is unknown.
func ContentType(format string) string {
	switch format {
	case FormatJSON:
		return "application/json"
	case FormatCSV:
		return "text/csv"
	case FormatXML:
		return "application/xml"
	}
	return ""
}

// Write renders data in the given format.
func Write(w io.Writer, format string, data *models.UserScrape) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, data)
	case FormatCSV:
		return WriteCSV(w, data)
	case FormatXML:
		return WriteXML(w, data)
	}
	return models.NewScrapeError(models.ErrCodeInvalidInput,
		fmt.Sprintf("unsupported export format %q", format), nil)
}

// WriteJSON renders the payload as indented JSON.
func WriteJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// WriteCSV flattens the payload's film collections into one table with
// a collection column, preceded by a profile summary row.
func WriteCSV(w io.Writer, data *models.UserScrape) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"username", "display_name", "films_watched", "followers", "following"}); err != nil {
		return err
	}
	stats := data.Profile.Stats
	if stats == nil {
		stats = &models.ProfileStats{}
	}
	if err := cw.Write([]string{
		data.Profile.Username,
		data.Profile.DisplayName,
		strconv.Itoa(stats.FilmsWatched),
		strconv.Itoa(stats.Followers),
		strconv.Itoa(stats.Following),
	}); err != nil {
		return err
	}

	if err := cw.Write(nil); err != nil {
		return err
	}
	if err := cw.Write([]string{"collection", "film_name", "film_slug", "poster_url"}); err != nil {
		return err
	}
	for _, section := range []struct {
		name  string
		films []models.FilmEntry
	}{
		{"favourites", data.Films.Favourites},
		{"recent_activity", data.Films.RecentActivity},
		{"watchlist", data.Films.Watchlist},
		{"all_films", data.Films.AllFilms},
	} {
		for _, f := range section.films {
			if err := cw.Write([]string{section.name, f.FilmName, f.FilmSlug, f.PosterURL}); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// xml mirrors of the JSON payload types; the models carry only json tags.
type xmlUser struct {
	XMLName     xml.Name      `xml:"user"`
	Username    string        `xml:"username"`
	DisplayName string        `xml:"display_name"`
	Bio         string        `xml:"bio,omitempty"`
	Statistics  []string      `xml:"statistics>statistic"`
	Films       []xmlFilmList `xml:"films>collection"`
}

type xmlFilmList struct {
	Name    string    `xml:"name,attr"`
	Entries []xmlFilm `xml:"film"`
}

type xmlFilm struct {
	Name      string `xml:"name"`
	Slug      string `xml:"slug,omitempty"`
	PosterURL string `xml:"poster_url,omitempty"`
}

// WriteXML renders the payload as XML with a standard header.
func WriteXML(w io.Writer, data *models.UserScrape) error {
	doc := xmlUser{
		Username:    data.Profile.Username,
		DisplayName: data.Profile.DisplayName,
		Bio:         data.Profile.Bio,
		Statistics:  data.Profile.Statistics,
	}
	for _, section := range []struct {
		name  string
		films []models.FilmEntry
	}{
		{"favourites", data.Films.Favourites},
		{"recent_activity", data.Films.RecentActivity},
		{"watchlist", data.Films.Watchlist},
		{"all_films", data.Films.AllFilms},
	} {
		list := xmlFilmList{Name: section.name}
		for _, f := range section.films {
			list.Entries = append(list.Entries, xmlFilm{
				Name:      f.FilmName,
				Slug:      f.FilmSlug,
				PosterURL: f.PosterURL,
			})
		}
		doc.Films = append(doc.Films, list)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}
