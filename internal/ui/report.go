package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"
	"github.com/desertthunder/genrestats/internal/formatter"
	"github.com/desertthunder/genrestats/internal/models"
	"github.com/desertthunder/genrestats/internal/tasks"
)

const (
	passMark = "✓"
	failMark = "✗"
)

// summaryRows renders summaries the way the CSV artifact stores them.
func summaryRows(summaries []models.CategorySummary) [][]string {
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{
			s.Genre,
			strconv.FormatFloat(s.AvgPopularity, 'f', 2, 64),
			s.AvgDuration,
			strconv.FormatFloat(s.AvgTotalTracksInAlbum, 'f', 2, 64),
		})
	}
	return rows
}

func staticTable(headers []string, rows [][]string) string {
	return ltable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styles.help).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == ltable.HeaderRow {
				return styles.header
			}
			return styles.cell
		}).
		String()
}

// RenderExpectations lists each expectation with its pass mark and any unexpected rows.
func RenderExpectations(results []models.ExpectationResult) string {
	var b strings.Builder
	for _, r := range results {
		if r.Passed {
			fmt.Fprintf(&b, "%s %s (%s) %d/%d rows\n",
				styles.ok.Render(passMark), r.Name, r.Column, r.Details.ElementCount, r.Details.ElementCount)
			continue
		}
		fmt.Fprintf(&b, "%s %s (%s) %d unexpected of %d rows\n",
			styles.err.Render(failMark), r.Name, r.Column, r.Details.UnexpectedCount, r.Details.ElementCount)
		for _, row := range r.Details.Unexpected {
			fmt.Fprintf(&b, "    row %d %s: %s\n", row.Row, row.Genre, styles.warn.Render(row.Value))
		}
	}
	return b.String()
}

// RenderReport renders a finished run: the summary table, expectation results and artifact locations.
func RenderReport(result *tasks.RunResult) string {
	if result == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(styles.title.Render("genrestats run " + result.RunID))
	b.WriteString("\n")

	if len(result.Summaries) == 0 {
		b.WriteString(styles.help.Render("No tracks returned; the artifact contains only the header."))
		b.WriteString("\n")
	} else {
		b.WriteString(staticTable(formatter.SummaryHeader, summaryRows(result.Summaries)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(RenderExpectations(result.Expectations))
	b.WriteString("\n")

	fmt.Fprintf(&b, "Wrote %s (%d tracks, %d genres) in %s\n",
		result.ArtifactPath, result.TrackCount, len(result.Summaries),
		result.FinishedAt.Sub(result.StartedAt).Round(time.Millisecond))
	if result.ReportPath != "" {
		fmt.Fprintf(&b, "Report: %s\n", result.ReportPath)
	}
	if result.PublishedURL != "" {
		fmt.Fprintf(&b, "Published: %s\n", result.PublishedURL)
	}
	return b.String()
}

// RenderRuns renders ledger entries, newest first, for the history command.
func RenderRuns(runs []*models.RunRecord) string {
	if len(runs) == 0 {
		return styles.help.Render("No runs recorded.") + "\n"
	}

	headers := []string{"#", "ID", "Status", "Categories", "Tracks", "Genres", "Expectations", "Started", "Duration"}
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		status := styles.ok.Render(string(r.Status()))
		if r.Status() == models.RunFailed {
			status = styles.err.Render(string(r.Status()))
		}
		rows = append(rows, []string{
			strconv.Itoa(r.Sequence()),
			shortID(r.ID()),
			status,
			r.CategoriesString(),
			strconv.Itoa(r.TrackCount()),
			strconv.Itoa(r.SummaryCount()),
			fmt.Sprintf("%d/%d", r.ExpectationsPassed(), r.ExpectationsPassed()+r.ExpectationsFailed()),
			r.StartedAt().Format("2006-01-02 15:04:05"),
			r.Duration().Round(time.Millisecond).String(),
		})
	}
	return staticTable(headers, rows) + "\n"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
