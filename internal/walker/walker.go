// Package walker traverses a source tree depth-first, creating the matching
// destination directories as it goes and yielding one CopyUnit per file or
// symlink.
//
// The walk is lazy: directory entries are read in small batches and each
// call to Next does only as much work as it takes to find the next unit.
// Every directory is created at the destination before any unit inside it is
// yielded, so a consumer may copy a unit as soon as it receives it.
//
// Once a destination directory has been created by the walk itself it is
// known to be empty, and so is every directory below it. Units under such a
// fresh directory have MayExist == false, and the walker stops checking the
// destination for the rest of that subtree.
//
// The first I/O error ends the walk for good. Err reports it, and Next keeps
// returning false even if unread directories remain.
package walker

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"path"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/joe/psync/pkg/filesystem"
)

// Exported constants.
const (
	// DefaultBatchSize is how many entries are read from a directory at a time
	DefaultBatchSize = 64
	// DefaultDirPermissions is the mode used for created destination directories, before umask
	DefaultDirPermissions = 0o777
)

// Exported variables.
var (
	ErrDestinationConflict = errors.New("destination exists and is not a directory")
	ErrUnsupportedEntry    = errors.New("unsupported entry type")
)

// CopyUnit is one non-directory source entry paired with its destination.
type CopyUnit struct {
	SourcePath      string
	DestinationPath string
	IsSymlink       bool
	// MayExist is false only when the destination directory was created by
	// this walk, which guarantees DestinationPath does not exist yet.
	MayExist bool
}

// TraversalError reports the operation and path at which the walk failed.
type TraversalError struct {
	Op   string
	Path string
	Err  error
}

func (e *TraversalError) Error() string {
	return fmt.Sprintf("traversal %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *TraversalError) Unwrap() error {
	return e.Err
}

// FailedPath returns the path the operation failed on.
func (e *TraversalError) FailedPath() string {
	return e.Path
}

// Option configures a Walker.
type Option func(*Walker)

// WithBatchSize sets how many entries are read per directory read.
func WithBatchSize(n int) Option {
	return func(w *Walker) {
		if n > 0 {
			w.batchSize = n
		}
	}
}

// WithFilter skips every entry the filter excludes. Excluded directories are
// neither created nor descended into.
func WithFilter(filter FileFilter) Option {
	return func(w *Walker) {
		if filter != nil {
			w.filter = filter
		}
	}
}

// WithLogger sets the logger used for per-directory trace output.
func WithLogger(logger zerolog.Logger) Option {
	return func(w *Walker) {
		w.logger = logger
	}
}

type state int

const (
	stateWalking state = iota
	stateDone
	statePoisoned
)

// frame is one directory on the traversal stack.
type frame struct {
	dir     filesystem.DirReader
	pending []fs.DirEntry
	eof     bool

	source string
	dest   string
	rel    string
	// fresh is true when dest was created by this walk.
	fresh bool
}

// Walker is a single-use iterator over the CopyUnits of one source tree.
// It is not safe for concurrent use.
type Walker struct {
	fs        filesystem.FileSystem
	filter    FileFilter
	batchSize int
	logger    zerolog.Logger

	stack []*frame
	state state
	err   error
}

// Walk opens sourceRoot and prepares destRoot, creating it if it does not
// exist. Failing to open the source as a directory, or a destination root
// that exists but is not a directory, is returned here rather than from the
// iteration.
func Walk(fsys filesystem.FileSystem, sourceRoot, destRoot string, opts ...Option) (*Walker, error) {
	w := &Walker{
		fs:        fsys,
		filter:    includeAll{},
		batchSize: DefaultBatchSize,
		logger:    zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(w)
	}

	dir, err := fsys.OpenDir(sourceRoot)
	if err != nil {
		return nil, &TraversalError{Op: "open", Path: sourceRoot, Err: err}
	}

	fresh, err := w.prepareDestination(destRoot, false, true)
	if err != nil {
		_ = dir.Close()
		return nil, err
	}

	w.stack = append(w.stack, &frame{
		dir:    dir,
		source: sourceRoot,
		dest:   destRoot,
		fresh:  fresh,
	})

	return w, nil
}

// Next returns the next CopyUnit. It returns false when the walk is finished
// or has failed; check Err to tell the two apart.
func (w *Walker) Next() (CopyUnit, bool) {
	if w.state != stateWalking {
		return CopyUnit{}, false
	}

	for len(w.stack) > 0 {
		top := w.stack[len(w.stack)-1]

		entry, ok, err := w.nextEntry(top)
		if err != nil {
			w.poison(&TraversalError{Op: "read", Path: top.source, Err: err})
			return CopyUnit{}, false
		}

		if !ok {
			w.pop()
			continue
		}

		name := entry.Name()
		if !w.filter.ShouldInclude(path.Join(top.rel, name)) {
			continue
		}

		source := filepath.Join(top.source, name)
		dest := filepath.Join(top.dest, name)
		mode := entry.Type()

		switch {
		case mode.IsDir():
			err = w.descend(top, name, source, dest)
			if err != nil {
				w.poison(err)
				return CopyUnit{}, false
			}
		case mode.IsRegular(), mode&fs.ModeSymlink != 0:
			return CopyUnit{
				SourcePath:      source,
				DestinationPath: dest,
				IsSymlink:       mode&fs.ModeSymlink != 0,
				MayExist:        !top.fresh,
			}, true
		default:
			w.poison(&TraversalError{Op: "classify", Path: source, Err: fmt.Errorf("%w: %s", ErrUnsupportedEntry, mode)})
			return CopyUnit{}, false
		}
	}

	w.state = stateDone

	return CopyUnit{}, false
}

// Err returns the error that ended the walk, or nil.
func (w *Walker) Err() error {
	return w.err
}

// All returns the remaining units as a sequence. A walk error is yielded once,
// as the final element.
func (w *Walker) All() iter.Seq2[CopyUnit, error] {
	return func(yield func(CopyUnit, error) bool) {
		for {
			unit, ok := w.Next()
			if !ok {
				break
			}

			if !yield(unit, nil) {
				return
			}
		}

		if w.err != nil {
			yield(CopyUnit{}, w.err)
		}
	}
}

// Depth reports the number of directories currently open on the stack.
func (w *Walker) Depth() int {
	return len(w.stack)
}

// Close releases every open directory. Further calls to Next return false.
func (w *Walker) Close() error {
	var errs []error

	for _, f := range w.stack {
		if err := f.dir.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	w.stack = nil

	if w.state == stateWalking {
		w.state = stateDone
	}

	return errors.Join(errs...)
}

func (w *Walker) descend(parent *frame, name, source, dest string) error {
	fresh, err := w.prepareDestination(dest, parent.fresh, false)
	if err != nil {
		return err
	}

	dir, err := w.fs.OpenDir(source)
	if err != nil {
		return &TraversalError{Op: "open", Path: source, Err: err}
	}

	w.stack = append(w.stack, &frame{
		dir:    dir,
		source: source,
		dest:   dest,
		rel:    path.Join(parent.rel, name),
		fresh:  fresh,
	})

	return nil
}

// prepareDestination makes sure dest exists as a directory and reports whether
// it was created now. Under a fresh parent the existence check is skipped.
// Only the root may be a symlink to a directory; below it a symlink in place
// of a directory is a conflict and is never descended into.
func (w *Walker) prepareDestination(dest string, parentFresh, root bool) (bool, error) {
	if !parentFresh {
		stat := w.fs.Lstat
		if root {
			stat = w.fs.Stat
		}

		info, err := stat(dest)

		switch {
		case err == nil && info.IsDir():
			return false, nil
		case err == nil:
			return false, &TraversalError{Op: "mkdir", Path: dest, Err: ErrDestinationConflict}
		case !errors.Is(err, fs.ErrNotExist):
			return false, &TraversalError{Op: "stat", Path: dest, Err: err}
		}
	}

	err := w.fs.Mkdir(dest, DefaultDirPermissions)
	if err != nil {
		return false, &TraversalError{Op: "mkdir", Path: dest, Err: err}
	}

	w.logger.Trace().Str("path", dest).Msg("created directory")

	return true, nil
}

// nextEntry hands out the frame's next entry, reading another batch when the
// buffered ones are used up. It returns false once the directory is exhausted.
func (w *Walker) nextEntry(f *frame) (fs.DirEntry, bool, error) {
	if len(f.pending) == 0 && !f.eof {
		entries, err := f.dir.ReadDir(w.batchSize)

		switch {
		case errors.Is(err, io.EOF):
			f.eof = true
		case err != nil:
			return nil, false, err
		}

		f.pending = entries
	}

	if len(f.pending) == 0 {
		return nil, false, nil
	}

	entry := f.pending[0]
	f.pending = f.pending[1:]

	return entry, true, nil
}

func (w *Walker) pop() {
	last := len(w.stack) - 1
	_ = w.stack[last].dir.Close()
	w.stack[last] = nil
	w.stack = w.stack[:last]
}

func (w *Walker) poison(err error) {
	w.err = err
	_ = w.Close()
	w.state = statePoisoned
}
