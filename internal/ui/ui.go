package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/hifi/internal/models"
	"github.com/desertthunder/hifi/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoginView ViewState = iota
	ResultView
	HistoryView
)

// RunLister lists journal entries for the history view.
type RunLister interface {
	List(criteria map[string]any) ([]*models.LoginRun, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	cancel       context.CancelFunc
	view         ViewState
	previous     ViewState
	bridge       *tasks.LoginBridge
	runs         RunLister
	width        int
	height       int
	spinner      spinner.Model
	output       viewport.Model
	lines        []string
	lineChan     chan string
	doneChan     chan *tasks.LoginResult
	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	result       *tasks.LoginResult
	history      list.Model
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model. runs may be nil, which disables the history view.
func NewModel(ctx context.Context, bridge *tasks.LoginBridge, runs RunLister) *Model {
	ctx, cancel := context.WithCancel(ctx)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.title.UnsetMarginBottom()

	return &Model{
		ctx:     ctx,
		cancel:  cancel,
		view:    LoginView,
		bridge:  bridge,
		runs:    runs,
		spinner: sp,
		output:  viewport.New(80, 20),
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Result returns the outcome of the last completed run, if any.
func (m *Model) Result() *tasks.LoginResult { return m.result }

// Init starts the login task.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startLogin())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.output.Width = max(msg.Width-4, 20)
		m.output.Height = max(msg.Height-8, 5)
		if m.history.Width() != 0 {
			m.history.SetSize(msg.Width-4, msg.Height-6)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case spinner.TickMsg:
		if m.view != LoginView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case lineMsg:
		m.appendLine(string(msg))
		return m, m.waitForLine()

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case loginCompleteMsg:
		m.result = msg.result
		m.lineChan, m.doneChan, m.progressChan = nil, nil, nil
		if m.view == LoginView {
			m.view = ResultView
		}
		return m, nil

	case runsFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.history = list.New(runItems(msg.runs), list.NewDefaultDelegate(), 0, 0)
		m.history.Title = "Recent login runs"
		m.history.SetSize(max(m.width-4, 20), max(m.height-6, 5))
		return m, nil
	}

	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case LoginView:
		return m.renderLogin()
	case ResultView:
		return m.renderResult()
	case HistoryView:
		return m.renderHistory()
	default:
		return ""
	}
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		m.cancel()
		return m, tea.Quit

	case key.Matches(msg, m.keys.history) && m.runs != nil && m.view != HistoryView:
		m.previous = m.view
		m.view = HistoryView
		m.err = nil
		return m, m.fetchRuns()

	case key.Matches(msg, m.keys.back) && m.view == HistoryView:
		m.view = m.previous
		if m.view == LoginView && m.result != nil {
			m.view = ResultView
		}
		return m, nil

	case key.Matches(msg, m.keys.restart) && m.view == ResultView:
		m.view = LoginView
		m.lines = nil
		m.output.SetContent("")
		m.result = nil
		m.progress = tasks.ProgressUpdate{}
		return m, tea.Batch(m.spinner.Tick, m.startLogin())
	}

	var cmd tea.Cmd
	switch m.view {
	case HistoryView:
		m.history, cmd = m.history.Update(msg)
	default:
		m.output, cmd = m.output.Update(msg)
	}
	return m, cmd
}

func (m *Model) appendLine(line string) {
	m.lines = append(m.lines, styles.Line(line))
	m.output.SetContent(strings.Join(m.lines, "\n"))
	m.output.GotoBottom()
}

// startLogin runs the bridge in the background. Lines are delivered in order on
// lineChan, which is closed after the result is placed on doneChan.
func (m *Model) startLogin() tea.Cmd {
	m.lineChan = make(chan string, 64)
	m.doneChan = make(chan *tasks.LoginResult, 1)
	m.progressChan = make(chan tasks.ProgressUpdate, 16)

	lines, done, progress, ctx := m.lineChan, m.doneChan, m.progressChan, m.ctx
	sink := func(line string) error {
		select {
		case lines <- line:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	go func() {
		done <- m.bridge.Run(ctx, models.SourceCLI, sink, progress)
		close(lines)
		close(progress)
	}()

	return tea.Batch(m.waitForLine(), m.waitForProgress())
}

func (m *Model) waitForLine() tea.Cmd {
	lines, done := m.lineChan, m.doneChan
	if lines == nil {
		return nil
	}
	return func() tea.Msg {
		line, ok := <-lines
		if !ok {
			return loginCompleteMsg{result: <-done}
		}
		return lineMsg(line)
	}
}

func (m *Model) waitForProgress() tea.Cmd {
	progress := m.progressChan
	if progress == nil {
		return nil
	}
	return func() tea.Msg {
		update, ok := <-progress
		if !ok {
			return nil
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) fetchRuns() tea.Cmd {
	return func() tea.Msg {
		runs, err := m.runs.List(map[string]any{"limit": 50})
		return runsFetchedMsg{runs: runs, err: err}
	}
}

func (m *Model) renderLogin() string {
	title := styles.title.Render(fmt.Sprintf("%s Logging in", m.spinner.View()))

	status := m.progress.Message
	if m.progress.Phase == tasks.Streaming {
		status = fmt.Sprintf("%d lines received", m.progress.Step)
	}

	helpKeys := []key.Binding{m.keys.up, m.keys.down, m.keys.quit}
	if m.runs != nil {
		helpKeys = append(helpKeys, m.keys.history)
	}

	return fmt.Sprintf("%s\n%s\n\n%s\n\n%s", title, styles.help.Render(status), m.output.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderResult() string {
	var title string
	switch {
	case m.result == nil:
		title = styles.err.Render("No result available")
	case m.result.Err != nil:
		title = styles.err.Render(fmt.Sprintf("✗ Login failed: %v", m.result.Err))
	case m.result.ExitCode != nil && *m.result.ExitCode != 0:
		title = styles.warn.Render(fmt.Sprintf("! Login task exited with status %d", *m.result.ExitCode))
	default:
		title = styles.ok.Render("✓ Login complete")
	}

	var info string
	if m.result != nil {
		info = fmt.Sprintf("\nLines: %d", m.result.Lines)
		if m.result.RunID != "" {
			info += fmt.Sprintf("\nRun: %s", m.result.RunID)
		}
	}

	helpKeys := []key.Binding{m.keys.restart, m.keys.up, m.keys.down, m.keys.quit}
	if m.runs != nil {
		helpKeys = append(helpKeys, m.keys.history)
	}

	return fmt.Sprintf("%s\n\n%s\n%s\n\n%s", title, m.output.View(), info, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderHistory() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress esc to go back", m.err))
	}
	if m.history.Width() == 0 {
		return styles.help.Render("Loading runs...")
	}
	return fmt.Sprintf("%s\n\n%s", m.history.View(), m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit}))
}
