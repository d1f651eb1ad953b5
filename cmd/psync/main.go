// Package main is the entry point for the psync application.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/term" //nolint:depguard // Required for TTY detection

	"github.com/joe/psync/internal/config"
	"github.com/joe/psync/internal/logging"
	"github.com/joe/psync/internal/syncengine"
	"github.com/joe/psync/internal/tui"
	"github.com/joe/psync/internal/walker"
	pkgerrors "github.com/joe/psync/pkg/errors"
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, cfg, os.Stdout, os.Stderr)

	stop()
	os.Exit(code)
}

// run executes one copy with a validated config and returns the exit code.
func run(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer) int {
	logger, closeLog, err := logging.Setup(logging.Options{
		Console:   stderr,
		NoColor:   !isTerminal(stderr),
		Verbosity: cfg.Verbose,
		LogFile:   cfg.LogFile,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	defer func() {
		_ = closeLog()
	}()

	engine, err := newEngine(cfg, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	var result *syncengine.RunResult

	switch {
	case cfg.Stats && isTerminal(stdout):
		result, err = tui.Run(ctx, engine)
	case cfg.Stats:
		engine.SetEventEmitter(tui.NewLineReporter(stderr))

		result, err = engine.Run(ctx)
		if err == nil {
			fmt.Fprintln(stdout, tui.Summary(result))
		}
	default:
		result, err = engine.Run(ctx)
	}

	if err != nil {
		reportError(stderr, err)
		return 1
	}

	logger.Debug().Int("units", result.Units()).Msg("exiting")

	return 0
}

func newEngine(cfg *config.Config, logger zerolog.Logger) (*syncengine.Engine, error) {
	filter, err := walker.NewGlobFilter(cfg.Excludes...)
	if err != nil {
		return nil, err
	}

	engine := syncengine.NewEngine(cfg.Source, cfg.CopyRoot)
	engine.Workers = int(cfg.Threads)
	engine.CompareMode = cfg.Compare
	engine.Filter = filter
	engine.Logger = logger

	return engine, nil
}

func reportError(out io.Writer, err error) {
	fmt.Fprintf(out, "Runtime error: %v\n", err)

	enriched := pkgerrors.NewEnricher().Enrich(err, "")
	if suggestions := pkgerrors.FormatSuggestions(enriched); suggestions != "" {
		fmt.Fprintf(out, "Try these solutions:\n%s\n", suggestions)
	}
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)

	return ok && term.IsTerminal(int(file.Fd()))
}
