package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/desertthunder/genrestats/internal/models"
	"github.com/desertthunder/genrestats/internal/repositories"
	"github.com/desertthunder/genrestats/internal/shared"
	"github.com/desertthunder/genrestats/internal/ui"
	"github.com/urfave/cli/v3"
)

// runView is the JSON shape of a ledger entry.
type runView struct {
	ID                 string           `json:"id"`
	Sequence           int              `json:"sequence"`
	Status             models.RunStatus `json:"status"`
	Categories         []string         `json:"categories"`
	TrackCount         int              `json:"track_count"`
	SummaryCount       int              `json:"summary_count"`
	ExpectationsPassed int              `json:"expectations_passed"`
	ExpectationsFailed int              `json:"expectations_failed"`
	ArtifactPath       string           `json:"artifact_path,omitempty"`
	PublishedURL       string           `json:"published_url,omitempty"`
	Error              string           `json:"error,omitempty"`
	StartedAt          time.Time        `json:"started_at"`
	FinishedAt         time.Time        `json:"finished_at"`
}

func newRunView(r *models.RunRecord) runView {
	return runView{
		ID:                 r.ID(),
		Sequence:           r.Sequence(),
		Status:             r.Status(),
		Categories:         r.Categories(),
		TrackCount:         r.TrackCount(),
		SummaryCount:       r.SummaryCount(),
		ExpectationsPassed: r.ExpectationsPassed(),
		ExpectationsFailed: r.ExpectationsFailed(),
		ArtifactPath:       r.ArtifactPath(),
		PublishedURL:       r.PublishedURL(),
		Error:              r.ErrorMessage(),
		StartedAt:          r.StartedAt(),
		FinishedAt:         r.FinishedAt(),
	}
}

// History lists recorded runs, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	status := cmd.String("status")
	switch models.RunStatus(status) {
	case "", models.RunSucceeded, models.RunFailed:
	default:
		return fmt.Errorf("%w: status must be %q or %q", shared.ErrInvalidArgument, models.RunSucceeded, models.RunFailed)
	}

	path := config.Database.Path
	if path != shared.MemoryDatabase {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return r.writePlain("No run ledger at %s. Enable [database] and run 'genrestats setup database'.\n", path)
		}
	}

	db, err := shared.OpenLedger(config.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := repositories.NewRunRepository(db).List(map[string]any{
		"status": status,
		"limit":  int(cmd.Int("limit")),
	})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		views := make([]runView, len(runs))
		for i, run := range runs {
			views[i] = newRunView(run)
		}
		return r.writeJSON(views, cmd.Bool("pretty"))
	}

	return r.writePlain("%s", ui.RenderRuns(runs))
}
