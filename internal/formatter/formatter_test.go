package formatter

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/genrestats/internal/models"
	"github.com/desertthunder/genrestats/internal/shared"
	th "github.com/desertthunder/genrestats/internal/testing"
)

func testSummaries() []models.CategorySummary {
	return []models.CategorySummary{
		{Genre: "rock", AvgPopularity: 70, AvgDurationMS: 210000, AvgDuration: "3 min 30 sec", AvgTotalTracksInAlbum: 11},
		{Genre: "jazz", AvgPopularity: 45.5, AvgDurationMS: 305500, AvgDuration: "5 min 5 sec", AvgTotalTracksInAlbum: 8.5},
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportSummariesToCSV", func(t *testing.T) {
		data, err := ExportSummariesToCSV(testSummaries())
		if err != nil {
			t.Fatalf("ExportSummariesToCSV failed: %v", err)
		}

		want := "genre,avg_popularity,avg_duration_ms,avg_total_tracks_in_album\n" +
			"rock,70,3 min 30 sec,11\n" +
			"jazz,45.5,5 min 5 sec,8.5\n"
		if string(data) != want {
			t.Errorf("unexpected CSV:\ngot:\n%s\nwant:\n%s", data, want)
		}
	})

	t.Run("ExportSummariesToCSV Empty", func(t *testing.T) {
		data, err := ExportSummariesToCSV(nil)
		if err != nil {
			t.Fatalf("ExportSummariesToCSV failed: %v", err)
		}

		if string(data) != "genre,avg_popularity,avg_duration_ms,avg_total_tracks_in_album\n" {
			t.Errorf("expected header only, got %q", data)
		}
	})

	t.Run("ExportSummariesToCSV Quotes Genres", func(t *testing.T) {
		summaries := []models.CategorySummary{{Genre: "rock, classic", AvgDuration: "0 min 0 sec"}}
		data, err := ExportSummariesToCSV(summaries)
		if err != nil {
			t.Fatalf("ExportSummariesToCSV failed: %v", err)
		}

		if !strings.Contains(string(data), `"rock, classic",0,0 min 0 sec,0`) {
			t.Errorf("expected quoted genre, got %s", data)
		}
	})

	t.Run("WriteSummaryCSV", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "spotify_summary.csv")

		if err := WriteSummaryCSV(testSummaries(), path); err != nil {
			t.Fatalf("WriteSummaryCSV failed: %v", err)
		}

		th.AssertFileExists(t, path)
		first := th.MustReadFile(t, path)

		if err := WriteSummaryCSV(testSummaries(), path); err != nil {
			t.Fatalf("second WriteSummaryCSV failed: %v", err)
		}
		if second := th.MustReadFile(t, path); second != first {
			t.Error("expected identical inputs to produce identical files")
		}

		entries, _ := os.ReadDir(dir)
		if len(entries) != 1 {
			t.Errorf("expected no temp files to remain, found %d entries", len(entries))
		}
	})

	t.Run("WriteSummaryCSV Unwritable Destination", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing", "out.csv")

		err := WriteSummaryCSV(testSummaries(), path)
		var ioErr *shared.IOError
		if !errors.As(err, &ioErr) {
			t.Fatalf("expected *shared.IOError, got %T: %v", err, err)
		}
		if ioErr.Path != path {
			t.Errorf("expected path %s, got %s", path, ioErr.Path)
		}
		th.AssertNoFile(t, path)
	})

	t.Run("WriteReportJSON", func(t *testing.T) {
		results := []models.ExpectationResult{
			{Name: "expect_column_values_to_be_in_set", Column: "genre", Passed: true, Details: models.ExpectationDetails{ElementCount: 2}},
			{
				Name:   "expect_column_values_to_be_between",
				Column: "avg_popularity",
				Passed: false,
				Details: models.ExpectationDetails{
					ElementCount:    2,
					UnexpectedCount: 1,
					Unexpected:      []models.UnexpectedRow{{Row: 1, Genre: "jazz", Value: "120"}},
				},
			},
		}

		path := filepath.Join(t.TempDir(), "report.json")
		if err := WriteReportJSON(results, path); err != nil {
			t.Fatalf("WriteReportJSON failed: %v", err)
		}

		var report ValidationReport
		if err := json.Unmarshal([]byte(th.MustReadFile(t, path)), &report); err != nil {
			t.Fatalf("report is not valid JSON: %v", err)
		}

		if report.Success {
			t.Error("expected report to be unsuccessful")
		}
		if report.Statistics.Evaluated != 2 || report.Statistics.Successful != 1 || report.Statistics.Unsuccessful != 1 {
			t.Errorf("unexpected statistics: %+v", report.Statistics)
		}
		if got := report.Results[1].Details.Unexpected[0].Genre; got != "jazz" {
			t.Errorf("expected unexpected row for jazz, got %s", got)
		}
	})

	t.Run("NewValidationReport Empty", func(t *testing.T) {
		report := NewValidationReport(nil)
		if !report.Success {
			t.Error("expected empty report to succeed")
		}
		if report.Results == nil {
			t.Error("expected non-nil results")
		}
	})
}
