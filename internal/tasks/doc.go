// Package tasks runs the genre statistics pipeline with real-time progress reporting.
//
// # Stages
//
// [Pipeline.Run] executes, strictly in order:
//
//  1. Authenticate : client-credentials token via [services.Service]
//  2. Collect : one search per category, paged up to the limit, flattened into [models.TrackRecord] rows
//  3. Aggregate : per-genre means in first-seen order ([AggregateSummaries])
//  4. Validate : [ExpectInSet] on genre and [ExpectBetween] on avg_popularity ([ValidateSummaries])
//  5. Write : atomic CSV artifact via the formatter package
//  6. Report, Publish : optional JSON report and object storage upload
//
// A failure in any stage aborts the run with a [shared.StageError] naming the stage and, during
// collection, the category. Failed expectations are logged as warnings and returned in the
// [RunResult]; they never abort the run.
//
// # Progress Reporting
//
// All stages use non-blocking channels for progress updates.
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Run Ledger
//
// The optional [Recorder] interface receives a [models.RunRecord] after every run, successful or not.
//
// Recording errors are logged and ignored so the ledger can never fail a run. Nothing in the pipeline reads
// the ledger back; each run starts from scratch.
package tasks
