package tasks

import (
	"fmt"

	"github.com/desertthunder/genrestats/internal/models"
)

// ProgressUpdate represents a progress event during a pipeline run.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Pipeline phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Pipeline phase enumeration
type Phase int

const (
	Configure Phase = iota
	Authenticate
	Collect
	Aggregate
	Validate
	Write
	Report
	Publish
	Record
	Done
)

// String returns the phase name, which doubles as the stage name in [shared.StageError].
func (p Phase) String() string {
	switch p {
	case Configure:
		return "configure"
	case Authenticate:
		return "authenticate"
	case Collect:
		return "collect"
	case Aggregate:
		return "aggregate"
	case Validate:
		return "validate"
	case Write:
		return "write"
	case Report:
		return "report"
	case Publish:
		return "publish"
	case Record:
		return "record"
	case Done:
		return "done"
	default:
		return ""
	}
}

func authenticateUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   Authenticate,
		Step:    1,
		Total:   1,
		Message: "Requesting access token...",
	}
}

func collectUpdate(step, total int, category string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Collect,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Searching genre:%s...", step, total, category),
	}
}

func collectedUpdate(step, total int, category string, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Collect,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d tracks)", step, total, category, count),
	}
}

func aggregateUpdate(records int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Aggregate,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Aggregating %d tracks...", records),
	}
}

func validateUpdate(results []models.ExpectationResult) ProgressUpdate {
	passed := 0
	for _, r := range results {
		if r.Passed {
			passed++
		}
	}
	return ProgressUpdate{
		Phase:   Validate,
		Step:    passed,
		Total:   len(results),
		Message: fmt.Sprintf("Expectations: %d/%d passed", passed, len(results)),
		Data:    results,
	}
}

func writeUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Write,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Writing %s...", path),
	}
}

func reportUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Report,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Writing validation report %s...", path),
	}
}

func publishUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Publish,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Publishing %s...", path),
	}
}

func recordUpdate(run *models.RunRecord) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Record,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Recording %s run...", run.Status()),
	}
}

func doneUpdate(result *RunResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Done,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Wrote %d genres to %s", len(result.Summaries), result.ArtifactPath),
		Data:    result,
	}
}
