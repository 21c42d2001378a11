package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/genrestats/internal/tasks"
)

type fakeEngine struct {
	updates []tasks.ProgressUpdate
	result  *tasks.RunResult
	err     error
	runs    int
}

func (f *fakeEngine) Run(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*tasks.RunResult, error) {
	f.runs++
	for _, u := range f.updates {
		progress <- u
	}
	return f.result, f.err
}

// drive feeds messages from cmd back into the model until the run completes.
func drive(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	for range 100 {
		if cmd == nil {
			t.Fatal("run ended without a completion message")
		}
		msg := cmd()
		_, cmd = m.Update(msg)
		if um, ok := msg.(Msg); ok && um.kind == MsgRunComplete {
			return
		}
	}
	t.Fatal("run did not complete")
}

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel(t *testing.T) {
	updates := []tasks.ProgressUpdate{
		{Phase: tasks.Authenticate, Step: 1, Total: 1, Message: "Requesting access token..."},
		{Phase: tasks.Collect, Step: 1, Total: 2, Message: "[1/2] Searching genre:rock..."},
		{Phase: tasks.Collect, Step: 2, Total: 2, Message: "[2/2] Searching genre:jazz..."},
	}

	t.Run("Running View", func(t *testing.T) {
		m := NewModel(context.Background(), &fakeEngine{})
		m.Update(progressUpdateMsg(updates[1]))

		view := m.View()
		if !strings.Contains(view, "Searching genres (1/2)") {
			t.Errorf("expected collect progress, got:\n%s", view)
		}
		if !strings.Contains(view, "genre:rock") {
			t.Errorf("expected progress message, got:\n%s", view)
		}
	})

	t.Run("Completes With Result", func(t *testing.T) {
		engine := &fakeEngine{updates: updates, result: sampleResult()}
		m := NewModel(context.Background(), engine)

		drive(t, m, m.startRun())

		if m.view != ResultView {
			t.Fatalf("expected result view, got %v", m.view)
		}
		result, err := m.Result()
		if err != nil || result == nil {
			t.Fatalf("expected result, got %v, %v", result, err)
		}
		if len(m.log) != len(updates) {
			t.Errorf("expected %d log lines, got %d", len(updates), len(m.log))
		}
		if rows := m.table.Rows(); len(rows) != 2 || rows[0][0] != "rock" || rows[1][0] != "jazz" {
			t.Errorf("unexpected table rows %v", rows)
		}

		view := m.View()
		if !strings.Contains(view, "failed expectations") {
			t.Errorf("expected failed expectation title, got:\n%s", view)
		}
		if !strings.Contains(view, "spotify_summary.csv") {
			t.Errorf("expected artifact path, got:\n%s", view)
		}
	})

	t.Run("Completes With Error", func(t *testing.T) {
		engine := &fakeEngine{err: errors.New("authenticate: rejected")}
		m := NewModel(context.Background(), engine)

		drive(t, m, m.startRun())

		if _, err := m.Result(); err == nil {
			t.Fatal("expected error")
		}
		if view := m.View(); !strings.Contains(view, "Run failed: authenticate: rejected") {
			t.Errorf("expected failure message, got:\n%s", view)
		}
	})

	t.Run("Rerun", func(t *testing.T) {
		engine := &fakeEngine{result: sampleResult()}
		m := NewModel(context.Background(), engine)
		drive(t, m, m.startRun())

		_, cmd := m.Update(keyPress("r"))
		if m.view != RunningView {
			t.Fatalf("expected running view after rerun, got %v", m.view)
		}
		if cmd == nil {
			t.Fatal("expected rerun command")
		}
		drive(t, m, m.waitForProgress())
		if engine.runs != 2 {
			t.Errorf("expected 2 runs, got %d", engine.runs)
		}
	})

	t.Run("Rerun Ignored While Running", func(t *testing.T) {
		m := NewModel(context.Background(), &fakeEngine{})
		if _, cmd := m.Update(keyPress("r")); cmd != nil {
			t.Error("expected no command while running")
		}
	})

	t.Run("Quit Before Completion", func(t *testing.T) {
		m := NewModel(context.Background(), &fakeEngine{})
		m.Update(keyPress("q"))

		result, err := m.Result()
		if result != nil {
			t.Errorf("expected no result, got %+v", result)
		}
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("Quit", func(t *testing.T) {
		m := NewModel(context.Background(), &fakeEngine{})
		_, cmd := m.Update(keyPress("q"))
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
	})
}
