package filesystem

import (
	"io/fs"
	"os"
	"sync"
	"time"
)

// Op names a FileSystem operation that a FaultyFileSystem can fail.
type Op string

// Exported constants.
const (
	OpChtimes         Op = "chtimes"
	OpCreateExclusive Op = "create"
	OpLstat           Op = "lstat"
	OpMkdir           Op = "mkdir"
	OpOpen            Op = "open"
	OpOpenDir         Op = "opendir"
	OpReadDir         Op = "readdir"
	OpReadlink        Op = "readlink"
	OpRemove          Op = "remove"
	OpStat            Op = "stat"
	OpSymlink         Op = "symlink"
)

// FaultyFileSystem wraps another FileSystem and fails selected operations on
// selected paths. It is safe for concurrent use and is meant for tests that
// need I/O failures the real filesystem cannot produce on demand.
type FaultyFileSystem struct {
	base FileSystem

	mu       sync.Mutex
	faults   map[faultKey]error
	readdirs map[string]readDirFault
	calls    map[faultKey]int
}

type faultKey struct {
	op   Op
	path string
}

type readDirFault struct {
	after int
	err   error
}

// NewFaultyFileSystem wraps base. With no faults registered it behaves exactly like base.
func NewFaultyFileSystem(base FileSystem) *FaultyFileSystem {
	return &FaultyFileSystem{
		base:     base,
		faults:   make(map[faultKey]error),
		readdirs: make(map[string]readDirFault),
		calls:    make(map[faultKey]int),
	}
}

// Fail makes every call of op on path return err.
func (f *FaultyFileSystem) Fail(op Op, path string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.faults[faultKey{op: op, path: path}] = err
}

// FailReadDir makes the directory reader for path return err once it has
// handed out `after` entries.
func (f *FaultyFileSystem) FailReadDir(path string, after int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.readdirs[path] = readDirFault{after: after, err: err}
}

// Calls reports how many times op was invoked on path.
func (f *FaultyFileSystem) Calls(op Op, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls[faultKey{op: op, path: path}]
}

func (f *FaultyFileSystem) check(op Op, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := faultKey{op: op, path: path}
	f.calls[key]++

	return f.faults[key]
}

// Chtimes implements FileSystem.
func (f *FaultyFileSystem) Chtimes(path string, atime, mtime time.Time) error {
	if err := f.check(OpChtimes, path); err != nil {
		return err
	}

	return f.base.Chtimes(path, atime, mtime)
}

// CreateExclusive implements FileSystem.
func (f *FaultyFileSystem) CreateExclusive(path string, perm os.FileMode) (File, error) {
	if err := f.check(OpCreateExclusive, path); err != nil {
		return nil, err
	}

	return f.base.CreateExclusive(path, perm)
}

// Lstat implements FileSystem.
func (f *FaultyFileSystem) Lstat(path string) (os.FileInfo, error) {
	if err := f.check(OpLstat, path); err != nil {
		return nil, err
	}

	return f.base.Lstat(path)
}

// Mkdir implements FileSystem.
func (f *FaultyFileSystem) Mkdir(path string, perm os.FileMode) error {
	if err := f.check(OpMkdir, path); err != nil {
		return err
	}

	return f.base.Mkdir(path, perm)
}

// Open implements FileSystem.
func (f *FaultyFileSystem) Open(path string) (File, error) {
	if err := f.check(OpOpen, path); err != nil {
		return nil, err
	}

	return f.base.Open(path)
}

// OpenDir implements FileSystem.
func (f *FaultyFileSystem) OpenDir(path string) (DirReader, error) {
	if err := f.check(OpOpenDir, path); err != nil {
		return nil, err
	}

	dir, err := f.base.OpenDir(path)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	fault, ok := f.readdirs[path]
	f.mu.Unlock()

	if !ok {
		return dir, nil
	}

	return &faultyDirReader{DirReader: dir, remaining: fault.after, err: fault.err}, nil
}

// Readlink implements FileSystem.
func (f *FaultyFileSystem) Readlink(path string) (string, error) {
	if err := f.check(OpReadlink, path); err != nil {
		return "", err
	}

	return f.base.Readlink(path)
}

// Remove implements FileSystem.
func (f *FaultyFileSystem) Remove(path string) error {
	if err := f.check(OpRemove, path); err != nil {
		return err
	}

	return f.base.Remove(path)
}

// Stat implements FileSystem.
func (f *FaultyFileSystem) Stat(path string) (os.FileInfo, error) {
	if err := f.check(OpStat, path); err != nil {
		return nil, err
	}

	return f.base.Stat(path)
}

// Symlink implements FileSystem.
func (f *FaultyFileSystem) Symlink(target, path string) error {
	if err := f.check(OpSymlink, path); err != nil {
		return err
	}

	return f.base.Symlink(target, path)
}

// faultyDirReader hands out entries one at a time until its budget runs out,
// then fails every further read.
type faultyDirReader struct {
	DirReader
	remaining int
	err       error
}

func (r *faultyDirReader) ReadDir(n int) ([]fs.DirEntry, error) {
	if r.remaining <= 0 {
		return nil, r.err
	}

	if n <= 0 || n > r.remaining {
		n = r.remaining
	}

	entries, err := r.DirReader.ReadDir(n)
	r.remaining -= len(entries)

	return entries, err
}
