package syncengine

import (
	"errors"
	"fmt"
	"io/fs"
	"sync/atomic"

	"github.com/joe/psync/internal/config"
	"github.com/joe/psync/internal/walker"
	"github.com/joe/psync/pkg/fileops"
	"github.com/joe/psync/pkg/filesystem"
)

// Exported constants.
const (
	// MergeThreshold is the size below which an existing destination is
	// replaced without comparing it to the source.
	MergeThreshold = 1024
)

// Exported variables.
var (
	ErrConflict = errors.New("destination is a directory")
)

// Action describes what was done for one CopyUnit.
type Action int

const (
	// ActionCopied means a file was created at a destination that did not exist
	ActionCopied Action = iota
	// ActionLinked means a symlink was created at a destination that did not exist
	ActionLinked
	// ActionReplaced means an existing destination was removed and recreated
	ActionReplaced
	// ActionSkipped means the destination was identical and left alone
	ActionSkipped
)

// String returns the string representation of Action
func (a Action) String() string {
	switch a {
	case ActionCopied:
		return "copied"
	case ActionLinked:
		return "linked"
	case ActionReplaced:
		return "replaced"
	case ActionSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Outcome is the result of executing one CopyUnit.
type Outcome struct {
	Action Action
	// Bytes is the file content written; zero for symlinks and skips.
	Bytes int64
}

// CopyError reports a failed unit with both of its paths.
type CopyError struct {
	Op          string
	Source      string
	Destination string
	Err         error
}

func (e *CopyError) Error() string {
	return fmt.Sprintf("%s %s -> %s: %v", e.Op, e.Source, e.Destination, e.Err)
}

func (e *CopyError) Unwrap() error {
	return e.Err
}

// FailedPath returns the destination of the failed unit.
func (e *CopyError) FailedPath() string {
	return e.Destination
}

// Syncer applies the copy and merge policy to single CopyUnits.
// It holds no per-unit state and is safe for concurrent use.
type Syncer struct {
	fs          filesystem.FileSystem
	ops         *fileops.FileOps
	compareMode config.CompareMode
	written     *atomic.Int64
}

// SyncerOption configures a Syncer.
type SyncerOption func(*Syncer)

// WithByteCounter adds every byte of file content written to counter while
// the copy is still in progress.
func WithByteCounter(counter *atomic.Int64) SyncerOption {
	return func(s *Syncer) {
		s.written = counter
	}
}

// NewSyncer creates a Syncer over fsys.
func NewSyncer(fsys filesystem.FileSystem, mode config.CompareMode, opts ...SyncerOption) *Syncer {
	s := &Syncer{
		fs:          fsys,
		ops:         fileops.NewFileOps(fsys),
		compareMode: mode,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Execute materializes the unit at its destination.
//
// A unit that cannot exist yet is created blindly. Otherwise the destination
// is inspected: a missing one is created, a directory is a conflict, a small
// one is replaced and a large one is replaced only if it differs.
func (s *Syncer) Execute(unit walker.CopyUnit) (Outcome, error) {
	if !unit.MayExist {
		return s.create(unit)
	}

	info, err := s.fs.Lstat(unit.DestinationPath)
	if errors.Is(err, fs.ErrNotExist) {
		return s.create(unit)
	}

	if err != nil {
		return Outcome{}, s.fail("inspect", unit, err)
	}

	if info.IsDir() {
		return Outcome{}, s.fail("merge", unit, ErrConflict)
	}

	if info.Size() >= MergeThreshold {
		same, err := s.identical(unit, info)
		if err != nil {
			return Outcome{}, s.fail("compare", unit, err)
		}

		if same {
			return Outcome{Action: ActionSkipped}, nil
		}
	}

	err = s.fs.Remove(unit.DestinationPath)
	if err != nil {
		return Outcome{}, s.fail("remove", unit, err)
	}

	outcome, err := s.create(unit)
	if err != nil {
		return Outcome{}, err
	}

	outcome.Action = ActionReplaced

	return outcome, nil
}

func (s *Syncer) create(unit walker.CopyUnit) (Outcome, error) {
	if unit.IsSymlink {
		err := s.ops.CopySymlink(unit.SourcePath, unit.DestinationPath)
		if err != nil {
			return Outcome{}, s.fail("link", unit, err)
		}

		return Outcome{Action: ActionLinked}, nil
	}

	written, err := s.ops.CopyFile(unit.SourcePath, unit.DestinationPath, s.progress())
	if err != nil {
		return Outcome{}, s.fail("copy", unit, err)
	}

	return Outcome{Action: ActionCopied, Bytes: written}, nil
}

// progress returns a per-file callback feeding the byte counter, or nil.
func (s *Syncer) progress() fileops.ProgressCallback {
	if s.written == nil {
		return nil
	}

	var reported int64

	return func(transferred, _ int64, _ string) {
		s.written.Add(transferred - reported)
		reported = transferred
	}
}

// identical reports whether the existing destination already matches the
// source. Entries of different kinds never match.
func (s *Syncer) identical(unit walker.CopyUnit, dest fs.FileInfo) (bool, error) {
	destIsLink := dest.Mode()&fs.ModeSymlink != 0
	if unit.IsSymlink != destIsLink {
		return false, nil
	}

	if unit.IsSymlink {
		return s.ops.SameLinkTarget(unit.SourcePath, unit.DestinationPath)
	}

	if !dest.Mode().IsRegular() {
		return false, nil
	}

	src, err := s.fs.Lstat(unit.SourcePath)
	if err != nil {
		return false, err
	}

	if src.Size() != dest.Size() {
		return false, nil
	}

	if s.compareMode == config.CompareHash {
		return s.ops.CompareFilesHash(unit.SourcePath, unit.DestinationPath)
	}

	return s.ops.CompareFilesBytes(unit.SourcePath, unit.DestinationPath)
}

func (s *Syncer) fail(op string, unit walker.CopyUnit, err error) error {
	return &CopyError{Op: op, Source: unit.SourcePath, Destination: unit.DestinationPath, Err: err}
}
