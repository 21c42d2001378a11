// Package ui renders pipeline results for the terminal.
//
// [RenderReport] and [RenderRuns] produce static lipgloss output for the run and history commands.
//
// The interactive (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type:
//  1. [RunningView] : spinner plus the latest [tasks.ProgressUpdate] messages
//  2. [ResultView] : summary table (charmbracelet/bubbles/table) and expectation results
//
// Progress updates flow through a channel from the Pipeline, providing non-blocking status reporting during a run.
package ui
