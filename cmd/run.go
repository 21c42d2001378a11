package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/genrestats/internal/repositories"
	"github.com/desertthunder/genrestats/internal/services"
	"github.com/desertthunder/genrestats/internal/shared"
	"github.com/desertthunder/genrestats/internal/storage"
	"github.com/desertthunder/genrestats/internal/tasks"
	"github.com/desertthunder/genrestats/internal/ui"
	"github.com/urfave/cli/v3"
)

// interactiveLogFile receives logs while the TUI owns the terminal and [log] file is unset.
const interactiveLogFile = "./tmp/genrestats-tui.log"

// Run executes one pipeline run and prints the rendered report.
func (r *Runner) Run(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	applyRunFlags(config, cmd)
	if err := config.Validate(); err != nil {
		return err
	}

	interactive := cmd.Bool("interactive")
	quiet := cmd.Bool("quiet")

	logger, closer, err := r.runLogger(config, interactive, quiet)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	pipeline, cleanup, err := r.newPipeline(config, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	if interactive {
		return r.runInteractive(ctx, pipeline)
	}

	var result *tasks.RunResult
	if quiet {
		result, err = pipeline.Run(ctx, nil)
	} else {
		result, err = r.runWithProgress(ctx, pipeline)
	}
	if err != nil {
		return err
	}

	if !quiet {
		r.writePlain("\n%s", ui.RenderReport(result))
	}
	return nil
}

// runWithProgress prints progress messages while the pipeline runs.
func (r *Runner) runWithProgress(ctx context.Context, engine tasks.Engine) (*tasks.RunResult, error) {
	progressCh := make(chan tasks.ProgressUpdate, 50)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for update := range progressCh {
			switch update.Phase {
			case tasks.Collect:
				r.writePlain("   %s\n", update.Message)
			case tasks.Done:
			default:
				r.writePlain("%s\n", update.Message)
			}
		}
	}()

	result, err := engine.Run(ctx, progressCh)
	close(progressCh)
	<-drained
	return result, err
}

// applyRunFlags overrides pipeline settings with any flags passed to run.
func applyRunFlags(config *shared.Config, cmd *cli.Command) {
	if cmd.IsSet("output") {
		config.Pipeline.Output = cmd.String("output")
	}
	if cmd.IsSet("limit") {
		config.Pipeline.Limit = int(cmd.Int("limit"))
	}
	if cmd.IsSet("category") {
		config.Pipeline.Categories = cmd.StringSlice("category")
	}
	if cmd.IsSet("report") {
		config.Pipeline.Report = cmd.String("report")
	}
}

// runLogger builds the logger for a run from the [log] section.
//
// Interactive runs always log to a file so output does not corrupt the TUI; quiet raises the level to warn.
func (r *Runner) runLogger(config *shared.Config, interactive, quiet bool) (*log.Logger, io.Closer, error) {
	level := log.InfoLevel
	if name := strings.TrimSpace(config.Log.Level); name != "" {
		parsed, err := log.ParseLevel(name)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: log.level %q", shared.ErrInvalidConfig, name)
		}
		level = parsed
	}
	if quiet && level < log.WarnLevel {
		level = log.WarnLevel
	}

	logger := r.logger
	var closer io.Closer

	path := config.Log.File
	if path == "" && interactive {
		path = interactiveLogFile
	}
	if path != "" {
		fileLogger, c, err := shared.NewFileLogger(shared.FileLogOptions{
			Path:       path,
			MaxSizeMB:  config.Log.MaxSizeMB,
			MaxBackups: config.Log.MaxBackups,
			MaxAgeDays: config.Log.MaxAgeDays,
			Stderr:     !interactive,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create file logger: %w", err)
		}
		logger, closer = fileLogger, c
	}

	shared.SetLogLevel(logger, level)
	return logger, closer, nil
}

// newPipeline wires the Spotify service and the optional publisher and run ledger.
//
// The returned cleanup closes the ledger and is safe to call when none was opened.
func (r *Runner) newPipeline(config *shared.Config, logger *log.Logger) (*tasks.Pipeline, func(), error) {
	cleanup := func() {}

	service := services.NewSpotifyService(services.SpotifyOptions{
		TokenURL:          config.Credentials.Spotify.TokenURL,
		BaseURL:           config.API.BaseURL,
		Timeout:           config.API.Timeout(),
		RequestsPerSecond: config.API.RequestsPerSecond,
		HTTPClient:        r.httpClient,
	})

	opts := tasks.PipelineOpts{
		Config: tasks.Config{
			Credential:        config.Credentials.Spotify.Credential(),
			Categories:        config.Pipeline.Categories,
			Limit:             config.Pipeline.Limit,
			AllowedCategories: config.Pipeline.AllowedCategories,
			Output:            config.Pipeline.Output,
			Report:            config.Pipeline.Report,
		},
		Service:  service,
		PageSize: config.API.PageSize,
		Logger:   logger,
	}

	if config.Storage.Minio.Enabled {
		publisher, err := storage.NewMinioPublisher(config.Storage.Minio, logger)
		if err != nil {
			return nil, cleanup, err
		}
		opts.Publisher = publisher
	}

	if config.Database.Enabled {
		db, err := shared.OpenLedger(config.Database)
		if err != nil {
			return nil, cleanup, err
		}
		opts.Recorder = repositories.NewRunRepository(db)
		cleanup = func() {
			if err := db.Close(); err != nil {
				logger.Warn("failed to close run ledger", "error", err)
			}
		}
	}

	return tasks.NewPipeline(opts), cleanup, nil
}
