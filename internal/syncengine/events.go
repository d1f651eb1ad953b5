package syncengine

import "time"

// Event is the interface implemented by all sync engine events.
type Event interface {
	isEvent()
}

// EventEmitter is the interface for emitting events.
// Events are emitted from a single goroutine, in order.
type EventEmitter interface {
	Emit(event Event)
}

// Sync phase events

// SyncStarted is emitted once the destination root is ready and workers start.
type SyncStarted struct {
	Source      string
	Destination string
	Workers     int
}

func (SyncStarted) isEvent() {}

// SyncProgress is emitted periodically while units complete.
type SyncProgress struct {
	FilesDone int

	// BytesCopied includes content of files that are still being written.
	BytesCopied int64

	Elapsed time.Duration
}

func (SyncProgress) isEvent() {}

// SyncFileComplete is emitted when one unit has been handled.
type SyncFileComplete struct {
	Path   string
	Action Action
	Bytes  int64
}

func (SyncFileComplete) isEvent() {}

// SyncComplete is emitted when the run ends, successfully or not.
type SyncComplete struct {
	Result *RunResult
	Err    error
}

func (SyncComplete) isEvent() {}

// Error events

// ErrorOccurred is emitted for the error that ends the run.
type ErrorOccurred struct {
	Phase string
	Err   error
}

func (ErrorOccurred) isEvent() {}

// Exported constants.
const (
	// PhaseTraverse names errors raised while walking the source tree
	PhaseTraverse = "traverse"
	// PhaseCopy names errors raised while copying a unit
	PhaseCopy = "copy"
)
