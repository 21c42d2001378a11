// package formatter renders pipeline output as the CSV artifact and the JSON validation report
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/desertthunder/genrestats/internal/models"
	"github.com/desertthunder/genrestats/internal/shared"
)

// SummaryHeader is the artifact's header row.
//
// avg_duration_ms holds the formatted "<M> min <S> sec" string, not milliseconds.
var SummaryHeader = []string{"genre", "avg_popularity", "avg_duration_ms", "avg_total_tracks_in_album"}

// ValidationReport is the JSON document written next to the artifact.
type ValidationReport struct {
	Success    bool                       `json:"success"`
	Statistics ReportStatistics           `json:"statistics"`
	Results    []models.ExpectationResult `json:"results"`
}

// ReportStatistics counts evaluated expectations.
type ReportStatistics struct {
	Evaluated    int `json:"evaluated_expectations"`
	Successful   int `json:"successful_expectations"`
	Unsuccessful int `json:"unsuccessful_expectations"`
}

// NewValidationReport tallies results into a [ValidationReport].
func NewValidationReport(results []models.ExpectationResult) ValidationReport {
	report := ValidationReport{Success: true, Results: results}
	if report.Results == nil {
		report.Results = []models.ExpectationResult{}
	}
	for _, r := range results {
		report.Statistics.Evaluated++
		if r.Passed {
			report.Statistics.Successful++
		} else {
			report.Statistics.Unsuccessful++
			report.Success = false
		}
	}
	return report
}

// ExportSummariesToCSV converts summaries to CSV with columns: genre, avg_popularity, avg_duration_ms, avg_total_tracks_in_album
func ExportSummariesToCSV(summaries []models.CategorySummary) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(SummaryHeader); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, s := range summaries {
		record := []string{
			s.Genre,
			formatFloat(s.AvgPopularity),
			s.AvgDuration,
			formatFloat(s.AvgTotalTracksInAlbum),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// WriteSummaryCSV renders summaries and atomically replaces destination with the result.
func WriteSummaryCSV(summaries []models.CategorySummary, destination string) error {
	data, err := ExportSummariesToCSV(summaries)
	if err != nil {
		return &shared.IOError{Op: "encode", Path: destination, Err: err}
	}
	return shared.WriteFileAtomic(destination, data, 0644)
}

// ExportReportJSON renders the validation report as indented JSON.
func ExportReportJSON(results []models.ExpectationResult) ([]byte, error) {
	data, err := shared.MarshalJSON(NewValidationReport(results), true)
	if err != nil {
		return nil, fmt.Errorf("failed to encode validation report: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteReportJSON atomically writes the validation report to path.
func WriteReportJSON(results []models.ExpectationResult, path string) error {
	data, err := ExportReportJSON(results)
	if err != nil {
		return &shared.IOError{Op: "encode", Path: path, Err: err}
	}
	return shared.WriteFileAtomic(path, data, 0644)
}

// formatFloat uses the shortest representation that round-trips, so 55 renders as "55" and 55.5 as "55.5".
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
