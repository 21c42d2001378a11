package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/genrestats/internal/models"
	"github.com/desertthunder/genrestats/internal/shared"
)

// ErrRunNotFound is returned when no run matches the requested ID.
var ErrRunNotFound = errors.New("run not found")

const runColumns = `
	id, sequence, status, categories, track_count, summary_count,
	expectations_passed, expectations_failed, artifact_path, published_url,
	error_message, started_at, finished_at, created_at, updated_at
`

// RunRepository implements [models.Repository] for [models.RunRecord] ledger entries.
type RunRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.RunRecord] = (*RunRepository)(nil)

// NewRunRepository creates a new [RunRepository] with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a run with the next sequence number. An ID is generated when the run has none.
func (r *RunRepository) Create(run *models.RunRecord) error {
	sequence, err := NextSequence(r.db, "runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	if run.ID() == "" {
		run.SetID(shared.GenerateID())
	}
	run.SetSequence(sequence)

	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `INSERT INTO runs (` + runColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.Exec(query,
		run.ID(), sequence, string(run.Status()), run.CategoriesString(), run.TrackCount(), run.SummaryCount(),
		run.ExpectationsPassed(), run.ExpectationsFailed(), run.ArtifactPath(), run.PublishedURL(),
		run.ErrorMessage(), run.StartedAt(), run.FinishedAt(), run.CreatedAt(), run.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	return nil
}

// Get retrieves a run by ID
func (r *RunRepository) Get(id string) (*models.RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE id = ?`

	run, err := scanRun(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	return run, nil
}

// Update rewrites the mutable outcome fields of an existing run
func (r *RunRepository) Update(run *models.RunRecord) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	run.SetUpdatedAt(now)

	query := `
		UPDATE runs
		SET status = ?, track_count = ?, summary_count = ?, expectations_passed = ?, expectations_failed = ?,
			artifact_path = ?, published_url = ?, error_message = ?, finished_at = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		string(run.Status()), run.TrackCount(), run.SummaryCount(), run.ExpectationsPassed(), run.ExpectationsFailed(),
		run.ArtifactPath(), run.PublishedURL(), run.ErrorMessage(), run.FinishedAt(), now, run.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	return requireAffected(result, run.ID())
}

// Delete removes a run by ID
func (r *RunRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	return requireAffected(result, id)
}

// List retrieves runs newest first.
//
// Supported criteria: "status" ([models.RunStatus] or string) and "limit" (int, 0 means all).
func (r *RunRepository) List(criteria map[string]any) ([]*models.RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE 1 = 1`
	args := []any{}

	switch status := criteria["status"].(type) {
	case models.RunStatus:
		query += " AND status = ?"
		args = append(args, string(status))
	case string:
		if status != "" {
			query += " AND status = ?"
			args = append(args, status)
		}
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []*models.RunRecord{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*models.RunRecord, error) {
	var (
		id, status, categories, artifactPath, publishedURL, errorMessage string
		sequence, trackCount, summaryCount, passed, failed              int
		startedAt, finishedAt, createdAt, updatedAt                     time.Time
	)

	err := row.Scan(
		&id, &sequence, &status, &categories, &trackCount, &summaryCount,
		&passed, &failed, &artifactPath, &publishedURL,
		&errorMessage, &startedAt, &finishedAt, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	run := models.NewRunRecord(nil, startedAt)
	run.SetID(id)
	run.SetSequence(sequence)
	run.SetCategoriesString(categories)
	run.SetCounts(trackCount, summaryCount)
	run.SetExpectationCounts(passed, failed)
	run.SetArtifactPath(artifactPath)
	run.SetPublishedURL(publishedURL)
	run.Restore(models.RunStatus(status), errorMessage, startedAt, finishedAt, createdAt, updatedAt)
	return run, nil
}

func requireAffected(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}
