package tui

import (
	"fmt"
	"io"

	"github.com/joe/psync/internal/syncengine"
)

// LineReporter writes a single self-overwriting progress line for terminals
// where the interactive TUI is unavailable.
type LineReporter struct {
	out   io.Writer
	wrote bool
}

// NewLineReporter creates a LineReporter writing to out.
func NewLineReporter(out io.Writer) *LineReporter {
	return &LineReporter{out: out}
}

// Emit implements syncengine.EventEmitter.
func (r *LineReporter) Emit(event syncengine.Event) {
	switch event := event.(type) {
	case syncengine.SyncProgress:
		_, _ = fmt.Fprintf(r.out, "\r%s", ProgressLine(event.BytesCopied, event.FilesDone, event.Elapsed))
		r.wrote = true
	case syncengine.SyncComplete:
		if r.wrote {
			_, _ = fmt.Fprintln(r.out)
			r.wrote = false
		}
	}
}
