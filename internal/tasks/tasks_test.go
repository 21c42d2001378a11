package tasks

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/desertthunder/genrestats/internal/models"
	"github.com/desertthunder/genrestats/internal/shared"
	tu "github.com/desertthunder/genrestats/internal/testing"
)

const rockJazzCSV = "genre,avg_popularity,avg_duration_ms,avg_total_tracks_in_album\n" +
	"rock,70,3 min 30 sec,11\n" +
	"jazz,45.5,5 min 5 sec,8.5\n"

type mockPublisher struct {
	paths []string
	url   string
	err   error
}

func (m *mockPublisher) Publish(ctx context.Context, path string) (string, error) {
	m.paths = append(m.paths, path)
	if m.err != nil {
		return "", m.err
	}
	return m.url, nil
}

type mockRecorder struct {
	runs []*models.RunRecord
	err  error
}

func (m *mockRecorder) Create(run *models.RunRecord) error {
	m.runs = append(m.runs, run)
	return m.err
}

func testConfig(dir string) Config {
	return Config{
		Credential:        models.NewCredential(tu.TestClientID, tu.TestClientSecret),
		Categories:        []string{"rock", "jazz"},
		Limit:             2,
		AllowedCategories: allowedGenres,
		Output:            filepath.Join(dir, "spotify_summary.csv"),
	}
}

func newTestPipeline(t *testing.T, catalog *tu.CatalogServer, cfg Config, mutate func(*PipelineOpts)) *Pipeline {
	t.Helper()
	opts := PipelineOpts{Config: cfg, Service: newCatalogService(catalog)}
	if mutate != nil {
		mutate(&opts)
	}
	return NewPipeline(opts)
}

func TestPipeline(t *testing.T) {
	t.Run("Run", func(t *testing.T) {
		t.Run("Rock And Jazz End To End", func(t *testing.T) {
			catalog := tu.NewCatalogServer(t, rockJazzCatalog())
			cfg := testConfig(t.TempDir())
			pipeline := newTestPipeline(t, catalog, cfg, nil)

			result, err := pipeline.Run(context.Background(), nil)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if got := tu.MustReadFile(t, cfg.Output); got != rockJazzCSV {
				t.Errorf("unexpected artifact:\ngot:\n%s\nwant:\n%s", got, rockJazzCSV)
			}

			if result.TrackCount != 4 {
				t.Errorf("expected 4 tracks, got %d", result.TrackCount)
			}
			if len(result.Summaries) != 2 {
				t.Errorf("expected 2 summaries, got %d", len(result.Summaries))
			}
			if !result.Passed() {
				t.Errorf("expected both expectations to pass, got %+v", result.Expectations)
			}
			if result.ArtifactPath != cfg.Output {
				t.Errorf("expected artifact path %s, got %s", cfg.Output, result.ArtifactPath)
			}
			if result.RunID == "" {
				t.Error("expected run id to be set")
			}
		})

		t.Run("Idempotent Artifacts", func(t *testing.T) {
			catalog := tu.NewCatalogServer(t, rockJazzCatalog())
			dir := t.TempDir()

			first := testConfig(dir)
			first.Output = filepath.Join(dir, "first.csv")
			second := testConfig(dir)
			second.Output = filepath.Join(dir, "second.csv")

			for _, cfg := range []Config{first, second} {
				if _, err := newTestPipeline(t, catalog, cfg, nil).Run(context.Background(), nil); err != nil {
					t.Fatalf("run failed: %v", err)
				}
			}

			if tu.MustReadFile(t, first.Output) != tu.MustReadFile(t, second.Output) {
				t.Error("expected byte-identical artifacts")
			}
		})

		t.Run("Failed Expectation Is Not Fatal", func(t *testing.T) {
			catalog := tu.NewCatalogServer(t, map[string][]tu.CatalogTrack{
				"k-pop": {{ID: "k1", Name: "K", Artist: "Idol", Album: "Debut", Popularity: 90, DurationMS: 180000, TotalTracks: 5}},
			})
			cfg := testConfig(t.TempDir())
			cfg.Categories = []string{"k-pop"}

			result, err := newTestPipeline(t, catalog, cfg, nil).Run(context.Background(), nil)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if result.Passed() {
				t.Error("expected genre expectation to fail")
			}
			tu.AssertFileExists(t, cfg.Output)
		})

		t.Run("Writes Report", func(t *testing.T) {
			catalog := tu.NewCatalogServer(t, rockJazzCatalog())
			dir := t.TempDir()
			cfg := testConfig(dir)
			cfg.Report = filepath.Join(dir, "report.json")

			result, err := newTestPipeline(t, catalog, cfg, nil).Run(context.Background(), nil)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			tu.AssertFileExists(t, cfg.Report)
			if result.ReportPath != cfg.Report {
				t.Errorf("expected report path %s, got %s", cfg.Report, result.ReportPath)
			}
		})

		t.Run("Progress Updates", func(t *testing.T) {
			catalog := tu.NewCatalogServer(t, rockJazzCatalog())
			cfg := testConfig(t.TempDir())
			progress := make(chan ProgressUpdate, 32)

			if _, err := newTestPipeline(t, catalog, cfg, nil).Run(context.Background(), progress); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			close(progress)

			var phases []Phase
			for u := range progress {
				phases = append(phases, u.Phase)
			}

			want := []Phase{Authenticate, Collect, Collect, Collect, Collect, Aggregate, Validate, Write, Done}
			if len(phases) != len(want) {
				t.Fatalf("expected %d updates, got %d: %v", len(want), len(phases), phases)
			}
			for i, p := range want {
				if phases[i] != p {
					t.Errorf("update %d: expected %s, got %s", i, p, phases[i])
				}
			}
		})

		t.Run("Full Progress Channel Never Blocks", func(t *testing.T) {
			catalog := tu.NewCatalogServer(t, rockJazzCatalog())
			cfg := testConfig(t.TempDir())
			progress := make(chan ProgressUpdate)

			done := make(chan error, 1)
			go func() {
				_, err := newTestPipeline(t, catalog, cfg, nil).Run(context.Background(), progress)
				done <- err
			}()

			select {
			case err := <-done:
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
			case <-time.After(5 * time.Second):
				t.Fatal("pipeline blocked on an unread progress channel")
			}
		})
	})

	t.Run("Errors", func(t *testing.T) {
		t.Run("Authentication Failure", func(t *testing.T) {
			catalog := tu.NewCatalogServer(t, rockJazzCatalog())
			cfg := testConfig(t.TempDir())
			cfg.Credential = models.NewCredential("bad", "creds")

			result, err := newTestPipeline(t, catalog, cfg, nil).Run(context.Background(), nil)
			if result != nil {
				t.Error("expected no result on failure")
			}
			if shared.Stage(err) != "authenticate" {
				t.Errorf("expected authenticate stage, got %q (%v)", shared.Stage(err), err)
			}
			if !errors.Is(err, shared.ErrAuthFailed) {
				t.Errorf("expected ErrAuthFailed, got %v", err)
			}
			if len(catalog.Searches()) != 0 {
				t.Error("no search should run without a token")
			}
			tu.AssertNoFile(t, cfg.Output)
		})

		t.Run("Collect Failure Names Category", func(t *testing.T) {
			catalog := tu.NewCatalogServer(t, rockJazzCatalog())
			catalog.Status["jazz"] = 500
			cfg := testConfig(t.TempDir())

			_, err := newTestPipeline(t, catalog, cfg, nil).Run(context.Background(), nil)

			var stageErr *shared.StageError
			if !errors.As(err, &stageErr) {
				t.Fatalf("expected *shared.StageError, got %T: %v", err, err)
			}
			if stageErr.Stage != "collect" || stageErr.Category != "jazz" {
				t.Errorf("expected collect [jazz], got %s [%s]", stageErr.Stage, stageErr.Category)
			}
			tu.AssertNoFile(t, cfg.Output)
		})

		t.Run("Write Failure", func(t *testing.T) {
			catalog := tu.NewCatalogServer(t, rockJazzCatalog())
			cfg := testConfig(t.TempDir())
			cfg.Output = filepath.Join(t.TempDir(), "missing", "out.csv")

			_, err := newTestPipeline(t, catalog, cfg, nil).Run(context.Background(), nil)
			if shared.Stage(err) != "write" {
				t.Errorf("expected write stage, got %q", shared.Stage(err))
			}
			if !errors.Is(err, shared.ErrIO) {
				t.Errorf("expected ErrIO, got %v", err)
			}
		})

		t.Run("Invalid Config", func(t *testing.T) {
			catalog := tu.NewCatalogServer(t, rockJazzCatalog())
			cfg := testConfig(t.TempDir())
			cfg.Limit = 0

			_, err := newTestPipeline(t, catalog, cfg, nil).Run(context.Background(), nil)
			if shared.Stage(err) != "configure" {
				t.Errorf("expected configure stage, got %q", shared.Stage(err))
			}
			if !errors.Is(err, shared.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
			if len(catalog.TokenRequests()) != 0 {
				t.Error("invalid config should fail before authenticating")
			}
		})

		t.Run("Cancelled Context", func(t *testing.T) {
			catalog := tu.NewCatalogServer(t, rockJazzCatalog())
			cfg := testConfig(t.TempDir())
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			_, err := newTestPipeline(t, catalog, cfg, nil).Run(ctx, nil)
			if err == nil {
				t.Fatal("expected error for cancelled context")
			}
			tu.AssertNoFile(t, cfg.Output)
		})
	})

	t.Run("Publisher", func(t *testing.T) {
		t.Run("Publishes Committed Artifact", func(t *testing.T) {
			catalog := tu.NewCatalogServer(t, rockJazzCatalog())
			cfg := testConfig(t.TempDir())
			publisher := &mockPublisher{url: "s3://genrestats/summaries/spotify_summary.csv"}

			result, err := newTestPipeline(t, catalog, cfg, func(o *PipelineOpts) { o.Publisher = publisher }).Run(context.Background(), nil)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if len(publisher.paths) != 1 || publisher.paths[0] != cfg.Output {
				t.Errorf("expected publish of %s, got %v", cfg.Output, publisher.paths)
			}
			if result.PublishedURL != publisher.url {
				t.Errorf("expected published URL %s, got %s", publisher.url, result.PublishedURL)
			}
		})

		t.Run("Publish Failure Is Fatal", func(t *testing.T) {
			catalog := tu.NewCatalogServer(t, rockJazzCatalog())
			cfg := testConfig(t.TempDir())
			publisher := &mockPublisher{err: errors.New("bucket unreachable")}

			_, err := newTestPipeline(t, catalog, cfg, func(o *PipelineOpts) { o.Publisher = publisher }).Run(context.Background(), nil)
			if shared.Stage(err) != "publish" {
				t.Errorf("expected publish stage, got %q", shared.Stage(err))
			}
			tu.AssertFileExists(t, cfg.Output)
		})
	})

	t.Run("Recorder", func(t *testing.T) {
		t.Run("Records Successful Run", func(t *testing.T) {
			catalog := tu.NewCatalogServer(t, rockJazzCatalog())
			cfg := testConfig(t.TempDir())
			recorder := &mockRecorder{}

			result, err := newTestPipeline(t, catalog, cfg, func(o *PipelineOpts) { o.Recorder = recorder }).Run(context.Background(), nil)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if len(recorder.runs) != 1 {
				t.Fatalf("expected 1 recorded run, got %d", len(recorder.runs))
			}
			run := recorder.runs[0]
			if run.ID() != result.RunID {
				t.Errorf("expected run id %s, got %s", result.RunID, run.ID())
			}
			if run.Status() != models.RunSucceeded {
				t.Errorf("expected succeeded, got %s", run.Status())
			}
			if run.TrackCount() != 4 || run.SummaryCount() != 2 || run.ExpectationsPassed() != 2 {
				t.Errorf("unexpected counts: tracks=%d summaries=%d passed=%d", run.TrackCount(), run.SummaryCount(), run.ExpectationsPassed())
			}
			if err := run.Validate(); err != nil {
				t.Errorf("recorded run should be valid: %v", err)
			}
		})

		t.Run("Reports Record Progress", func(t *testing.T) {
			catalog := tu.NewCatalogServer(t, rockJazzCatalog())
			cfg := testConfig(t.TempDir())
			progress := make(chan ProgressUpdate, 32)

			_, err := newTestPipeline(t, catalog, cfg, func(o *PipelineOpts) { o.Recorder = &mockRecorder{} }).Run(context.Background(), progress)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			close(progress)

			var phases []Phase
			for u := range progress {
				phases = append(phases, u.Phase)
			}
			if n := len(phases); n < 2 || phases[n-2] != Record || phases[n-1] != Done {
				t.Errorf("expected record then done as the last updates, got %v", phases)
			}
		})

		t.Run("Records Failed Run", func(t *testing.T) {
			catalog := tu.NewCatalogServer(t, rockJazzCatalog())
			cfg := testConfig(t.TempDir())
			cfg.Credential = models.NewCredential("bad", "creds")
			recorder := &mockRecorder{}

			_, err := newTestPipeline(t, catalog, cfg, func(o *PipelineOpts) { o.Recorder = recorder }).Run(context.Background(), nil)
			if err == nil {
				t.Fatal("expected error")
			}

			if len(recorder.runs) != 1 {
				t.Fatalf("expected 1 recorded run, got %d", len(recorder.runs))
			}
			if run := recorder.runs[0]; run.Status() != models.RunFailed || run.ErrorMessage() == "" {
				t.Errorf("expected failed run with message, got %s %q", run.Status(), run.ErrorMessage())
			}
		})

		t.Run("Recorder Error Is Not Fatal", func(t *testing.T) {
			catalog := tu.NewCatalogServer(t, rockJazzCatalog())
			cfg := testConfig(t.TempDir())
			recorder := &mockRecorder{err: errors.New("database is locked")}

			if _, err := newTestPipeline(t, catalog, cfg, func(o *PipelineOpts) { o.Recorder = recorder }).Run(context.Background(), nil); err != nil {
				t.Errorf("ledger failure should not fail the run, got %v", err)
			}
		})
	})
}
