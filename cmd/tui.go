package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/genrestats/internal/tasks"
	"github.com/desertthunder/genrestats/internal/ui"
)

// runInteractive runs the pipeline inside the TUI. The run's error, if any, is returned once the UI exits;
// quitting before the run finishes is an error.
func (r *Runner) runInteractive(ctx context.Context, engine tasks.Engine) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := ui.NewModel(ctx, engine)
	p := tea.NewProgram(model, tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	_, err := model.Result()
	return err
}
