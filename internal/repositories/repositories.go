package repositories

import (
	"database/sql"
	"fmt"
)

// sequenceTables maps an entity table to its single-row counter table.
var sequenceTables = map[string]string{
	"runs": "runs_sequence",
}

// NextSequence increments and returns the counter for table in a single statement.
//
// Sequence numbers give runs a human-readable order (run #42) shown by the history command.
func NextSequence(db *sql.DB, table string) (int, error) {
	counter, ok := sequenceTables[table]
	if !ok {
		return 0, fmt.Errorf("no sequence for table %q", table)
	}

	var sequence int
	query := fmt.Sprintf("UPDATE %s SET value = value + 1 WHERE id = 1 RETURNING value", counter)
	if err := db.QueryRow(query).Scan(&sequence); err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}
	return sequence, nil
}
