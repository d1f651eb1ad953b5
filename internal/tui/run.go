package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joe/psync/internal/syncengine"
)

// Run executes engine while a StatsModel renders its progress, and returns
// the engine's result once both have finished.
func Run(ctx context.Context, engine *syncengine.Engine, opts ...tea.ProgramOption) (*syncengine.RunResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	bridge := NewEventBridge()
	engine.SetEventEmitter(bridge)

	type outcome struct {
		result *syncengine.RunResult
		err    error
	}

	finished := make(chan outcome, 1)

	go func() {
		result, err := engine.Run(ctx)
		bridge.Close()
		finished <- outcome{result: result, err: err}
	}()

	program := tea.NewProgram(NewStatsModel(bridge, cancel), opts...)
	_, programErr := program.Run()

	// The program may quit before SyncComplete has been read.
	go func() {
		for range bridge.Subscribe() {
		}
	}()

	if programErr != nil {
		cancel()
	}

	done := <-finished
	if done.err == nil && programErr != nil {
		return done.result, fmt.Errorf("failed to run TUI: %w", programErr)
	}

	return done.result, done.err
}
