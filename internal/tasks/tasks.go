// package tasks implements the extract, aggregate and validate pipeline.
//
// The core abstraction is Pipeline, which runs the stages in order and writes the artifact.
// Stages emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/genrestats/internal/formatter"
	"github.com/desertthunder/genrestats/internal/models"
	"github.com/desertthunder/genrestats/internal/services"
	"github.com/desertthunder/genrestats/internal/shared"
)

// Config is everything a single run needs to know. It is passed in explicitly; the pipeline reads no globals.
type Config struct {
	Credential        models.Credential
	Categories        []string
	Limit             int
	AllowedCategories []string
	Output            string // CSV artifact destination
	Report            string // optional JSON validation report
}

// Validate checks the run configuration before any network call.
func (c Config) Validate() error {
	if len(c.Categories) == 0 {
		return fmt.Errorf("%w: no categories configured", shared.ErrInvalidConfig)
	}
	for _, q := range models.NewCategoryQueries(c.Categories, c.Limit) {
		if err := q.Validate(); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
		}
	}
	if c.Output == "" {
		return fmt.Errorf("%w: output path is empty", shared.ErrInvalidConfig)
	}
	return nil
}

// Publisher copies a committed artifact to remote storage and returns its location.
type Publisher interface {
	Publish(ctx context.Context, path string) (string, error)
}

// Recorder persists a [models.RunRecord] once a run finishes.
//
// Implemented by repositories.RunRepository.
type Recorder interface {
	Create(run *models.RunRecord) error
}

// RunResult contains everything one successful run produced.
type RunResult struct {
	RunID        string
	Categories   []string
	TrackCount   int
	Summaries    []models.CategorySummary
	Expectations []models.ExpectationResult
	ArtifactPath string
	ReportPath   string
	PublishedURL string
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Passed reports whether every expectation held.
func (r *RunResult) Passed() bool {
	for _, e := range r.Expectations {
		if !e.Passed {
			return false
		}
	}
	return true
}

// Engine runs the pipeline end to end.
type Engine interface {
	Run(ctx context.Context, progress chan<- ProgressUpdate) (*RunResult, error)
}

// PipelineOpts holds the dependencies of a [Pipeline]. Publisher and Recorder are optional.
type PipelineOpts struct {
	Config    Config
	Service   services.Service
	PageSize  int
	Logger    *log.Logger
	Publisher Publisher
	Recorder  Recorder
	Now       func() time.Time
}

// Pipeline implements Engine: authenticate, collect, aggregate, validate, write, then optionally publish and record.
type Pipeline struct {
	config    Config
	service   services.Service
	collector *Collector
	logger    *log.Logger
	publisher Publisher
	recorder  Recorder
	now       func() time.Time
}

var _ Engine = (*Pipeline)(nil)

// NewPipeline creates a new Pipeline with the provided options.
func NewPipeline(opts PipelineOpts) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Pipeline{
		config:    opts.Config,
		service:   opts.Service,
		collector: NewCollector(opts.Service, opts.PageSize, logger),
		logger:    logger,
		publisher: opts.Publisher,
		recorder:  opts.Recorder,
		now:       now,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Run executes one pipeline run.
//
// Either the artifact is committed and a RunResult returned, or the run fails with a [*shared.StageError]
// and no result. Failed expectations are logged but do not fail the run.
func (p *Pipeline) Run(ctx context.Context, progress chan<- ProgressUpdate) (*RunResult, error) {
	result := &RunResult{
		RunID:      shared.GenerateID(),
		Categories: append([]string(nil), p.config.Categories...),
		StartedAt:  p.now(),
	}
	logger := shared.WithLogger(p.logger, "run", result.RunID)
	logger.Info("pipeline started", "categories", len(result.Categories), "limit", p.config.Limit)

	err := p.run(ctx, logger, result, progress)
	result.FinishedAt = p.now()
	p.record(logger, result, err, progress)

	if err != nil {
		logger.Error("pipeline failed", "stage", shared.Stage(err), "error", err)
		return nil, err
	}

	logger.Info("pipeline finished", "summaries", len(result.Summaries), "output", result.ArtifactPath, "duration", result.FinishedAt.Sub(result.StartedAt))
	sendProgress(progress, doneUpdate(result))
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, logger *log.Logger, result *RunResult, progress chan<- ProgressUpdate) error {
	if p.service == nil {
		return stageError(Configure, fmt.Errorf("%w: no catalog service", shared.ErrInvalidConfig))
	}
	if err := p.config.Validate(); err != nil {
		return stageError(Configure, err)
	}

	sendProgress(progress, authenticateUpdate())
	token, err := p.service.Authenticate(ctx, p.config.Credential)
	if err != nil {
		return stageError(Authenticate, err)
	}
	logger.Debug("authenticated", "service", p.service.Name())

	queries := models.NewCategoryQueries(p.config.Categories, p.config.Limit)
	records, err := p.collector.collect(ctx, token, queries, progress)
	if err != nil {
		return err
	}
	result.TrackCount = len(records)

	sendProgress(progress, aggregateUpdate(len(records)))
	result.Summaries = AggregateSummaries(records)

	result.Expectations = ValidateSummaries(result.Summaries, p.config.AllowedCategories)
	logExpectations(logger, result.Expectations)
	sendProgress(progress, validateUpdate(result.Expectations))

	sendProgress(progress, writeUpdate(p.config.Output))
	if err := formatter.WriteSummaryCSV(result.Summaries, p.config.Output); err != nil {
		return stageError(Write, err)
	}
	result.ArtifactPath = p.config.Output

	if p.config.Report != "" {
		sendProgress(progress, reportUpdate(p.config.Report))
		if err := formatter.WriteReportJSON(result.Expectations, p.config.Report); err != nil {
			return stageError(Report, err)
		}
		result.ReportPath = p.config.Report
	}

	if p.publisher != nil {
		sendProgress(progress, publishUpdate(result.ArtifactPath))
		url, err := p.publisher.Publish(ctx, result.ArtifactPath)
		if err != nil {
			return stageError(Publish, err)
		}
		result.PublishedURL = url
		logger.Info("artifact published", "url", url)
	}

	return nil
}

// record writes the run to the ledger. Failures are logged and never change the run's outcome.
func (p *Pipeline) record(logger *log.Logger, result *RunResult, runErr error, progress chan<- ProgressUpdate) {
	if p.recorder == nil {
		return
	}

	run := models.NewRunRecord(result.Categories, result.StartedAt)
	run.SetID(result.RunID)
	run.SetFinishedAt(result.FinishedAt)
	run.SetCounts(result.TrackCount, len(result.Summaries))
	run.SetExpectations(result.Expectations)
	run.SetArtifactPath(result.ArtifactPath)
	run.SetPublishedURL(result.PublishedURL)
	if runErr != nil {
		run.Fail(runErr)
	}

	sendProgress(progress, recordUpdate(run))
	if err := p.recorder.Create(run); err != nil {
		logger.Warn("failed to record run", "error", err)
	}
}

func logExpectations(logger *log.Logger, results []models.ExpectationResult) {
	for _, r := range results {
		if r.Passed {
			logger.Info("expectation passed", "expectation", r.Name, "column", r.Column, "rows", r.Details.ElementCount)
			continue
		}
		logger.Warn("expectation failed",
			"expectation", r.Name,
			"column", r.Column,
			"unexpected", r.Details.UnexpectedCount,
			"rows", r.Details.ElementCount,
		)
		for _, row := range r.Details.Unexpected {
			logger.Warn("unexpected value", "expectation", r.Name, "row", row.Row, "genre", row.Genre, "value", row.Value)
		}
	}
}

func stageError(phase Phase, err error) error {
	var se *shared.StageError
	if errors.As(err, &se) {
		return err
	}
	return &shared.StageError{Stage: phase.String(), Err: err}
}
