// Package logging builds the zerolog logger shared by the CLI and the engine.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Options controls logger construction.
type Options struct {
	// Console receives human-readable output. Defaults to os.Stderr.
	Console io.Writer
	// NoColor disables ANSI colors on the console.
	NoColor bool
	// Verbosity maps 0 to warn, 1 to info, 2 to debug and anything higher to trace.
	Verbosity int
	// LogFile, when set, also receives JSON lines. It is appended to.
	LogFile string
}

// Level returns the zerolog level for a verbosity count.
func Level(verbosity int) zerolog.Level {
	switch {
	case verbosity <= 0:
		return zerolog.WarnLevel
	case verbosity == 1:
		return zerolog.InfoLevel
	case verbosity == 2: //nolint:mnd // verbosity steps
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}

// Setup creates a logger writing to the console and, optionally, a log file.
// The returned close function releases the log file and is never nil.
// At trace verbosity Setup lowers zerolog's global level to trace.
func Setup(opts Options) (zerolog.Logger, func() error, error) {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	writers := []io.Writer{zerolog.ConsoleWriter{
		Out:        console,
		TimeFormat: time.Kitchen,
		NoColor:    opts.NoColor,
	}}

	closeFn := func() error { return nil }

	if opts.LogFile != "" {
		file, err := openLogFile(opts.LogFile)
		if err != nil {
			return zerolog.Nop(), closeFn, err
		}

		writers = append(writers, file)
		closeFn = file.Close
	}

	level := Level(opts.Verbosity)

	// zerolog's process-wide level caps every logger and defaults to debug,
	// so trace output needs it lowered. It is only ever lowered here; the
	// returned logger's own level does the filtering.
	if level < zerolog.GlobalLevel() {
		zerolog.SetGlobalLevel(level)
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Logger()

	if opts.Verbosity >= 2 { //nolint:mnd // caller info from debug up
		logger = logger.With().Caller().Logger()
	}

	logger.Debug().Int("verbosity", opts.Verbosity).Str("logFile", opts.LogFile).Msg("logger initialized")

	return logger, closeFn, nil
}

// Component returns logger tagged with the component name.
func Component(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}

func openLogFile(path string) (*os.File, error) {
	err := os.MkdirAll(filepath.Dir(path), 0o755)
	if err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644) // #nosec G304 - path is provided by the user
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return file, nil
}
