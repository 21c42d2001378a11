package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/genrestats/internal/formatter"
	"github.com/desertthunder/genrestats/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	RunningView ViewState = iota
	ResultView
)

// maxLogLines bounds the progress history shown while a run is in flight.
const maxLogLines = 8

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	engine       tasks.Engine
	width        int
	height       int
	spinner      spinner.Model
	table        table.Model
	progressChan chan tasks.ProgressUpdate
	outcome      *runOutcome
	progress     tasks.ProgressUpdate
	log          []string
	result       *tasks.RunResult
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model that drives engine.
func NewModel(ctx context.Context, engine tasks.Engine) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.ok

	return &Model{
		ctx:     ctx,
		view:    RunningView,
		engine:  engine,
		spinner: s,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init starts the spinner and the pipeline run.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startRun())
}

// Result returns the last run's result and error.
//
// Quitting while a run is in progress reports a wrapped [context.Canceled].
func (m *Model) Result() (*tasks.RunResult, error) {
	if m.view == RunningView || (m.result == nil && m.err == nil) {
		return nil, fmt.Errorf("%w: quit before the run finished", context.Canceled)
	}
	return m.result, m.err
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case spinner.TickMsg:
		if m.view != RunningView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		switch msg.kind {
		case MsgProgressUpdate:
			update := msg.data.(tasks.ProgressUpdate)
			m.progress = update
			m.appendLog(update.Message)
			return m, m.waitForProgress()
		case MsgRunComplete:
			outcome := msg.data.(runOutcome)
			m.result = outcome.result
			m.err = outcome.err
			m.progressChan = nil
			m.outcome = nil
			m.view = ResultView
			if m.result != nil {
				m.table = newSummaryTable(m.result, m.height)
			}
			return m, nil
		}
	}

	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.quit) {
		return m, tea.Quit
	}
	if m.view != ResultView {
		return m, nil
	}
	if key.Matches(msg, m.keys.rerun) {
		m.view = RunningView
		m.result = nil
		m.err = nil
		m.log = nil
		m.progress = tasks.ProgressUpdate{}
		return m, tea.Batch(m.spinner.Tick, m.startRun())
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *Model) appendLog(line string) {
	if line == "" {
		return
	}
	m.log = append(m.log, line)
	if len(m.log) > maxLogLines {
		m.log = m.log[len(m.log)-maxLogLines:]
	}
}

func (m *Model) startRun() tea.Cmd {
	progress := make(chan tasks.ProgressUpdate, 50)
	outcome := &runOutcome{}
	m.progressChan = progress
	m.outcome = outcome

	go func() {
		outcome.result, outcome.err = m.engine.Run(m.ctx, progress)
		close(progress)
	}()

	return m.waitForProgress()
}

// waitForProgress reads the next update; the closed channel signals the run's outcome is ready.
func (m *Model) waitForProgress() tea.Cmd {
	progress, outcome := m.progressChan, m.outcome
	return func() tea.Msg {
		if progress == nil || outcome == nil {
			return runCompleteMsg(nil, nil)
		}

		update, ok := <-progress
		if !ok {
			return runCompleteMsg(outcome.result, outcome.err)
		}
		return progressUpdateMsg(update)
	}
}

func newSummaryTable(result *tasks.RunResult, height int) table.Model {
	columns := make([]table.Column, len(formatter.SummaryHeader))
	for i, title := range formatter.SummaryHeader {
		columns[i] = table.Column{Title: title, Width: lipgloss.Width(title) + 2}
	}

	rows := summaryRows(result.Summaries)
	tableRows := make([]table.Row, len(rows))
	for i, row := range rows {
		for j, cell := range row {
			if w := lipgloss.Width(cell) + 2; w > columns[j].Width {
				columns[j].Width = w
			}
		}
		tableRows[i] = table.Row(row)
	}

	h := len(rows) + 1
	if height > 0 && h > height/2 {
		h = height / 2
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(tableRows),
		table.WithFocused(true),
		table.WithHeight(h),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).Bold(true)
	t.SetStyles(s)
	return t
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case RunningView:
		return m.renderRunning()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) renderRunning() string {
	title := styles.title.Render("Collecting genre statistics")

	var phase string
	switch m.progress.Phase {
	case tasks.Collect:
		if m.progress.Total > 0 {
			phase = fmt.Sprintf("Searching genres (%d/%d)", m.progress.Step, m.progress.Total)
		} else {
			phase = "Searching genres..."
		}
	case tasks.Configure:
		phase = "Starting..."
	default:
		phase = phaseLabel(m.progress.Phase)
	}

	lines := make([]string, len(m.log))
	for i, line := range m.log {
		lines[i] = styles.help.Render(line)
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.quit})
	return fmt.Sprintf("%s\n%s %s\n\n%s\n\n%s", title, m.spinner.View(), phase, strings.Join(lines, "\n"), helpView)
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.up, m.keys.down, m.keys.rerun, m.keys.quit})

	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Run failed: %v", m.err)) + "\n\n" + helpView
	}
	if m.result == nil {
		return styles.err.Render("No result available") + "\n\n" + helpView
	}

	title := styles.ok.Render(passMark + " Run complete")
	if !m.result.Passed() {
		title = styles.warn.Render(failMark + " Run complete with failed expectations")
	}

	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n\n")
	if len(m.result.Summaries) > 0 {
		b.WriteString(m.table.View())
		b.WriteString("\n\n")
	}
	b.WriteString(RenderExpectations(m.result.Expectations))
	fmt.Fprintf(&b, "\nWrote %s (%d tracks)\n", m.result.ArtifactPath, m.result.TrackCount)
	if m.result.PublishedURL != "" {
		fmt.Fprintf(&b, "Published: %s\n", m.result.PublishedURL)
	}
	b.WriteString("\n")
	b.WriteString(helpView)
	return b.String()
}

func phaseLabel(p tasks.Phase) string {
	name := p.String()
	if name == "" {
		return "Processing..."
	}
	return strings.ToUpper(name[:1]) + name[1:] + "..."
}
