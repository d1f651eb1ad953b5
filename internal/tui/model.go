package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/joe/psync/internal/syncengine"
)

// TickMsg is sent periodically so the elapsed time keeps moving between
// engine progress events.
type TickMsg time.Time

// TickCmd returns a command that sends a TickMsg after TickIntervalMs.
func TickCmd() tea.Cmd {
	return tea.Tick(TickIntervalMs*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// StatsModel renders live statistics for one engine run.
type StatsModel struct {
	bridge  *EventBridge
	cancel  context.CancelFunc
	spinner spinner.Model

	source  string
	dest    string
	workers int

	started     time.Time
	elapsed     time.Duration
	filesDone   int
	bytesCopied int64

	result    *syncengine.RunResult
	err       error
	done      bool
	cancelled bool
}

// NewStatsModel creates a model fed by bridge. cancel is called when the user
// interrupts the run.
func NewStatsModel(bridge *EventBridge, cancel context.CancelFunc) StatsModel {
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = spinnerStyle()

	return StatsModel{
		bridge:  bridge,
		cancel:  cancel,
		spinner: spin,
	}
}

// Done reports whether the run has completed.
func (m StatsModel) Done() bool {
	return m.done
}

// Result returns the final result, or nil while the run is in progress.
func (m StatsModel) Result() *syncengine.RunResult {
	return m.result
}

// Err returns the error the run ended with.
func (m StatsModel) Err() error {
	return m.err
}

// Init implements tea.Model
func (m StatsModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.bridge.ListenCmd(),
		TickCmd(),
	)
}

// Update implements tea.Model
func (m StatsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case EngineEventMsg:
		return m.handleEngineEvent(msg.Event)
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	case TickMsg:
		if m.done {
			return m, nil
		}

		if !m.started.IsZero() {
			m.elapsed = time.Time(msg).Sub(m.started)
		}

		return m, TickCmd()
	}

	return m, nil
}

// View implements tea.Model
func (m StatsModel) View() string {
	var builder strings.Builder

	switch {
	case m.done && m.err != nil:
		builder.WriteString(errorStyle().Render("✗ Sync failed"))
		builder.WriteString("\n")
		builder.WriteString(m.err.Error())
		builder.WriteString("\n")
	case m.done:
		builder.WriteString(successStyle().Render("✓ Sync complete"))
		builder.WriteString("\n")
		builder.WriteString(Summary(m.result))
		builder.WriteString("\n")
	default:
		builder.WriteString(m.spinner.View())
		builder.WriteString(" ")

		if m.cancelled {
			builder.WriteString(labelStyle().Render("Stopping"))
		} else {
			builder.WriteString(labelStyle().Render("Copying"))
		}

		if m.source != "" {
			builder.WriteString(" ")
			builder.WriteString(dimStyle().Render(fmt.Sprintf("%s → %s (%d workers)", m.source, m.dest, m.workers)))
		}

		builder.WriteString("\n")
		builder.WriteString(ProgressLine(m.bytesCopied, m.filesDone, m.elapsed))
		builder.WriteString("\n")
	}

	return builder.String()
}

func (m StatsModel) handleEngineEvent(event syncengine.Event) (tea.Model, tea.Cmd) {
	switch event := event.(type) {
	case syncengine.SyncStarted:
		m.source = event.Source
		m.dest = event.Destination
		m.workers = event.Workers
		m.started = time.Now()
	case syncengine.SyncFileComplete:
		m.filesDone++
		m.bytesCopied += event.Bytes
	case syncengine.SyncProgress:
		m.filesDone = event.FilesDone
		m.bytesCopied = event.BytesCopied
		m.elapsed = event.Elapsed
	case syncengine.SyncComplete:
		m.done = true
		m.result = event.Result
		m.err = event.Err

		if event.Result != nil {
			m.filesDone = event.Result.Units()
			m.bytesCopied = event.Result.BytesCopied
			m.elapsed = event.Result.Elapsed
		}

		return m, tea.Quit
	}

	return m, m.bridge.ListenCmd()
}

func (m StatsModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() != KeyCtrlC {
		return m, nil
	}

	// A second interrupt stops waiting for the engine.
	if m.cancelled {
		return m, tea.Quit
	}

	m.cancelled = true

	if m.cancel != nil {
		m.cancel()
	}

	return m, nil
}
