// Package repositories implements SQLite persistence for the run ledger.
//
// [RunRepository] implements models.Repository for [models.RunRecord] with atomic sequence
// generation for human-readable ordering (run #42). The pipeline only ever writes to it through
// the tasks.Recorder interface; the history command is its only reader.
//
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
