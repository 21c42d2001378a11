package tasks

import (
	"github.com/desertthunder/genrestats/internal/models"
	"github.com/desertthunder/genrestats/internal/shared"
)

type genreTotals struct {
	count       int
	popularity  float64
	durationMS  float64
	albumTracks float64
}

// AggregateSummaries groups records by genre and computes the mean popularity, duration and album size.
//
// Rows follow the order in which each genre first appears, which is the configured category order.
// Genres with no records produce no row. Empty input returns an empty, non-nil slice.
func AggregateSummaries(records []models.TrackRecord) []models.CategorySummary {
	order := make([]string, 0)
	totals := make(map[string]*genreTotals)

	for _, r := range records {
		t, ok := totals[r.Genre]
		if !ok {
			t = &genreTotals{}
			totals[r.Genre] = t
			order = append(order, r.Genre)
		}
		t.count++
		t.popularity += float64(r.Popularity)
		t.durationMS += float64(r.DurationMS)
		t.albumTracks += float64(r.TotalTracksInAlbum)
	}

	summaries := make([]models.CategorySummary, 0, len(order))
	for _, genre := range order {
		t := totals[genre]
		n := float64(t.count)
		avgDuration := t.durationMS / n
		summaries = append(summaries, models.CategorySummary{
			Genre:                 genre,
			AvgPopularity:         t.popularity / n,
			AvgDurationMS:         avgDuration,
			AvgDuration:           shared.FormatDuration(avgDuration),
			AvgTotalTracksInAlbum: t.albumTracks / n,
		})
	}
	return summaries
}
