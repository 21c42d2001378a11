package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// RunStatus is the terminal state of a pipeline run.
type RunStatus string

const (
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// RunRecord is the audit entry written after each pipeline run.
//
// Records are written by the pipeline and read back only by the history command.
type RunRecord struct {
	id                 string
	sequence           int
	status             RunStatus
	categories         []string
	trackCount         int
	summaryCount       int
	expectationsPassed int
	expectationsFailed int
	artifactPath       string
	publishedURL       string
	errorMessage       string
	startedAt          time.Time
	finishedAt         time.Time
	createdAt          time.Time
	updatedAt          time.Time
}

// NewRunRecord creates a RunRecord for a run that started at startedAt.
func NewRunRecord(categories []string, startedAt time.Time) *RunRecord {
	now := time.Now()
	return &RunRecord{
		status:     RunSucceeded,
		categories: append([]string(nil), categories...),
		startedAt:  startedAt,
		finishedAt: startedAt,
		createdAt:  now,
		updatedAt:  now,
	}
}

func (r *RunRecord) ID() string { return r.id }
func (r *RunRecord) Sequence() int { return r.sequence }
func (r *RunRecord) Status() RunStatus { return r.status }
func (r *RunRecord) Categories() []string { return r.categories }
func (r *RunRecord) TrackCount() int { return r.trackCount }
func (r *RunRecord) SummaryCount() int { return r.summaryCount }
func (r *RunRecord) ArtifactPath() string { return r.artifactPath }
func (r *RunRecord) PublishedURL() string { return r.publishedURL }
func (r *RunRecord) ErrorMessage() string { return r.errorMessage }
func (r *RunRecord) StartedAt() time.Time { return r.startedAt }
func (r *RunRecord) FinishedAt() time.Time { return r.finishedAt }
func (r *RunRecord) CreatedAt() time.Time { return r.createdAt }
func (r *RunRecord) UpdatedAt() time.Time { return r.updatedAt }
func (r *RunRecord) ExpectationsPassed() int { return r.expectationsPassed }
func (r *RunRecord) ExpectationsFailed() int { return r.expectationsFailed }

// CategoriesString joins the categories for storage and display.
func (r *RunRecord) CategoriesString() string { return strings.Join(r.categories, ",") }

// Duration is the wall time between start and finish.
func (r *RunRecord) Duration() time.Duration { return r.finishedAt.Sub(r.startedAt) }

func (r *RunRecord) SetID(id string) { r.id = id }
func (r *RunRecord) SetSequence(seq int) { r.sequence = seq }
func (r *RunRecord) SetUpdatedAt(t time.Time) { r.updatedAt = t }
func (r *RunRecord) SetArtifactPath(p string) { r.artifactPath = p }
func (r *RunRecord) SetPublishedURL(u string) { r.publishedURL = u }
func (r *RunRecord) SetFinishedAt(t time.Time) { r.finishedAt = t }
func (r *RunRecord) SetCategoriesString(s string) {
	if s == "" {
		r.categories = nil
		return
	}
	r.categories = strings.Split(s, ",")
}

// SetCounts records how much data the run produced.
func (r *RunRecord) SetCounts(tracks, summaries int) {
	r.trackCount = tracks
	r.summaryCount = summaries
}

// SetExpectations tallies passed and failed expectation results.
func (r *RunRecord) SetExpectations(results []ExpectationResult) {
	r.expectationsPassed, r.expectationsFailed = 0, 0
	for _, res := range results {
		if res.Passed {
			r.expectationsPassed++
		} else {
			r.expectationsFailed++
		}
	}
}

// SetExpectationCounts sets the tallies directly, used when scanning rows.
func (r *RunRecord) SetExpectationCounts(passed, failed int) {
	r.expectationsPassed = passed
	r.expectationsFailed = failed
}

// Fail marks the run as failed with the error's message.
func (r *RunRecord) Fail(err error) {
	r.status = RunFailed
	if err != nil {
		r.errorMessage = err.Error()
	}
}

// Restore populates fields read back from storage.
func (r *RunRecord) Restore(status RunStatus, errorMessage string, startedAt, finishedAt, createdAt, updatedAt time.Time) {
	r.status = status
	r.errorMessage = errorMessage
	r.startedAt = startedAt
	r.finishedAt = finishedAt
	r.createdAt = createdAt
	r.updatedAt = updatedAt
}

// Validate checks the record is consistent before persistence.
func (r *RunRecord) Validate() error {
	if r.id == "" {
		return errors.New("run id is required")
	}
	switch r.status {
	case RunSucceeded, RunFailed:
	default:
		return fmt.Errorf("invalid run status %q", r.status)
	}
	if r.status == RunFailed && r.errorMessage == "" {
		return errors.New("failed runs require an error message")
	}
	if r.finishedAt.Before(r.startedAt) {
		return errors.New("run cannot finish before it starts")
	}
	return nil
}
