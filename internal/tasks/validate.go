package tasks

import (
	"math"
	"strconv"

	"github.com/desertthunder/genrestats/internal/models"
)

const (
	ExpectInSet   = "expect_column_values_to_be_in_set"
	ExpectBetween = "expect_column_values_to_be_between"

	MinPopularity = 0.0
	MaxPopularity = 100.0
)

// ValidateSummaries evaluates the data-quality expectations against the summary table.
//
// Each expectation yields exactly one result covering every row. Results are diagnostics only;
// a failed expectation never stops the run.
func ValidateSummaries(summaries []models.CategorySummary, allowed []string) []models.ExpectationResult {
	return []models.ExpectationResult{
		expectGenreInSet(summaries, allowed),
		expectPopularityBetween(summaries, MinPopularity, MaxPopularity),
	}
}

func expectGenreInSet(summaries []models.CategorySummary, allowed []string) models.ExpectationResult {
	set := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		set[a] = struct{}{}
	}

	var unexpected []models.UnexpectedRow
	for i, s := range summaries {
		if _, ok := set[s.Genre]; !ok {
			unexpected = append(unexpected, models.UnexpectedRow{Row: i, Genre: s.Genre, Value: s.Genre})
		}
	}
	return newExpectationResult(ExpectInSet, "genre", len(summaries), unexpected)
}

// expectPopularityBetween checks the closed interval [lo, hi]. NaN is never in range.
func expectPopularityBetween(summaries []models.CategorySummary, lo, hi float64) models.ExpectationResult {
	var unexpected []models.UnexpectedRow
	for i, s := range summaries {
		v := s.AvgPopularity
		if math.IsNaN(v) || v < lo || v > hi {
			unexpected = append(unexpected, models.UnexpectedRow{
				Row:   i,
				Genre: s.Genre,
				Value: strconv.FormatFloat(v, 'f', -1, 64),
			})
		}
	}
	return newExpectationResult(ExpectBetween, "avg_popularity", len(summaries), unexpected)
}

func newExpectationResult(name, column string, count int, unexpected []models.UnexpectedRow) models.ExpectationResult {
	return models.ExpectationResult{
		Name:   name,
		Column: column,
		Passed: len(unexpected) == 0,
		Details: models.ExpectationDetails{
			ElementCount:    count,
			UnexpectedCount: len(unexpected),
			Unexpected:      unexpected,
		},
	}
}
