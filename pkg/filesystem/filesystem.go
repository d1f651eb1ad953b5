// Package filesystem provides an abstraction layer for filesystem operations
// to enable dependency injection and fault injection in tests.
package filesystem

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"
)

// Exported variables.
var (
	ErrNotDirectory = errors.New("not a directory")
)

// File is an interface that abstracts file operations.
// This allows us to work with both real files and wrapped files.
type File interface {
	io.Reader
	io.Writer
	io.Closer
	Stat() (os.FileInfo, error)
}

// DirReader enumerates the entries of one open directory.
// ReadDir follows the contract of (*os.File).ReadDir: with n > 0 it returns
// at most n entries and io.EOF once the directory is exhausted.
type DirReader interface {
	ReadDir(n int) ([]fs.DirEntry, error)
	Close() error
}

// FileSystem is an interface that abstracts filesystem operations.
// Stat follows symlinks, Lstat does not.
type FileSystem interface {
	OpenDir(path string) (DirReader, error)
	Mkdir(path string, perm os.FileMode) error

	Open(path string) (File, error)
	// CreateExclusive creates path for writing and fails if it already exists.
	CreateExclusive(path string, perm os.FileMode) (File, error)

	Readlink(path string) (string, error)
	Symlink(target, path string) error

	Chtimes(path string, atime, mtime time.Time) error
	Remove(path string) error
	Stat(path string) (os.FileInfo, error)
	Lstat(path string) (os.FileInfo, error)
}

// RealFileSystem implements FileSystem using the os package.
type RealFileSystem struct{}

// NewRealFileSystem creates a new RealFileSystem instance.
func NewRealFileSystem() *RealFileSystem {
	return &RealFileSystem{}
}

// Chtimes changes the access and modification times of a file.
func (fs *RealFileSystem) Chtimes(path string, atime, mtime time.Time) error {
	err := os.Chtimes(path, atime, mtime)
	if err != nil {
		return fmt.Errorf("failed to change times for %s: %w", path, err)
	}

	return nil
}

// CreateExclusive creates a new file for writing, failing if path exists.
func (fs *RealFileSystem) CreateExclusive(path string, perm os.FileMode) (File, error) {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm) // #nosec G304 - path is controlled by caller
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}

	return file, nil
}

// Lstat returns file information without following symlinks.
func (fs *RealFileSystem) Lstat(path string) (os.FileInfo, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to lstat %s: %w", path, err)
	}

	return info, nil
}

// Mkdir creates a single directory. The parent must exist.
func (fs *RealFileSystem) Mkdir(path string, perm os.FileMode) error {
	err := os.Mkdir(path, perm)
	if err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}

	return nil
}

// Open opens a file for reading.
func (fs *RealFileSystem) Open(path string) (File, error) {
	file, err := os.Open(path) // #nosec G304 - path is controlled by caller
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	return file, nil
}

// OpenDir opens a directory for incremental enumeration.
func (fs *RealFileSystem) OpenDir(path string) (DirReader, error) {
	dir, err := os.Open(path) // #nosec G304 - path is controlled by caller
	if err != nil {
		return nil, fmt.Errorf("failed to open directory %s: %w", path, err)
	}

	info, err := dir.Stat()
	if err != nil {
		_ = dir.Close()
		return nil, fmt.Errorf("failed to stat directory %s: %w", path, err)
	}

	if !info.IsDir() {
		_ = dir.Close()
		return nil, fmt.Errorf("failed to open directory %s: %w", path, ErrNotDirectory)
	}

	return dir, nil
}

// Readlink returns the raw target of a symlink.
func (fs *RealFileSystem) Readlink(path string) (string, error) {
	target, err := os.Readlink(path)
	if err != nil {
		return "", fmt.Errorf("failed to read link %s: %w", path, err)
	}

	return target, nil
}

// Remove removes a file, symlink or empty directory.
func (fs *RealFileSystem) Remove(path string) error {
	err := os.Remove(path)
	if err != nil {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}

	return nil
}

// Stat returns file information, following symlinks.
func (fs *RealFileSystem) Stat(path string) (os.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	return info, nil
}

// Symlink creates path as a symlink pointing at target, verbatim.
func (fs *RealFileSystem) Symlink(target, path string) error {
	err := os.Symlink(target, path)
	if err != nil {
		return fmt.Errorf("failed to create symlink %s -> %s: %w", path, target, err)
	}

	return nil
}
