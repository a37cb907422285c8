package letterboxd

import (
	"context"

	"github.com/use-agent/reelscout/models"
)

// CompareUsers scrapes both users' watched films and computes their
// overlap. Compatibility is the common count over the smaller
// collection, as a percentage.
func (c *Client) CompareUsers(ctx context.Context, user1, user2 string, opts CollectionOptions) (*models.Comparison, error) {
	if err := ValidateUsername(user1); err != nil {
		return nil, err
	}
	if err := ValidateUsername(user2); err != nil {
		return nil, err
	}

	films1, err := c.ScrapeFilms(ctx, user1, opts)
	if err != nil {
		return nil, err
	}
	films2, err := c.ScrapeFilms(ctx, user2, opts)
	if err != nil {
		return nil, err
	}

	return compareFilms(user1, user2, films1.Data, films2.Data), nil
}

// compareFilms computes the set relationship between two film lists,
// keyed by slug with name as fallback for entries lacking one.
func compareFilms(user1, user2 string, films1, films2 []models.FilmEntry) *models.Comparison {
	set1 := filmSet(films1)
	set2 := filmSet(films2)

	cmp := &models.Comparison{User1: user1, User2: user2}
	for key, film := range set1 {
		if _, ok := set2[key]; ok {
			cmp.CommonFilms = append(cmp.CommonFilms, film)
		} else {
			cmp.UniqueToUser1 = append(cmp.UniqueToUser1, film)
		}
	}
	for key, film := range set2 {
		if _, ok := set1[key]; !ok {
			cmp.UniqueToUser2 = append(cmp.UniqueToUser2, film)
		}
	}

	cmp.Statistics = models.ComparisonStats{
		User1TotalFilms: len(set1),
		User2TotalFilms: len(set2),
		CommonCount:     len(cmp.CommonFilms),
		UniqueToUser1:   len(cmp.UniqueToUser1),
		UniqueToUser2:   len(cmp.UniqueToUser2),
	}
	if smaller := min(len(set1), len(set2)); smaller > 0 {
		cmp.Statistics.Compatibility = float64(cmp.Statistics.CommonCount) / float64(smaller) * 100
	}
	return cmp
}

func filmSet(films []models.FilmEntry) map[string]models.FilmEntry {
	set := make(map[string]models.FilmEntry, len(films))
	for _, f := range films {
		key := f.FilmSlug
		if key == "" {
			key = f.FilmName
		}
		if key == "" {
			continue
		}
		if _, ok := set[key]; !ok {
			set[key] = f
		}
	}
	return set
}
