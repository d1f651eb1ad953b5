// Package fileops provides file operation utilities for copying and comparing files.
package fileops

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/joe/psync/pkg/filesystem"
)

// Exported constants.
const (
	// BufferSize is the size of the buffer used for file copy and compare operations (64KB)
	BufferSize = 64 * 1024
	// DefaultFilePermissions is the mode used for blind-created files before umask
	DefaultFilePermissions = 0o666
)

// Exported variables.
var (
	ErrNotRegular = errors.New("not a regular file")
)

// ProgressCallback is called during file copies to report progress
type ProgressCallback func(bytesTransferred int64, totalBytes int64, currentFile string)

// FileOps provides file operations with dependency injection for filesystem access.
// Source reads go through SourceFS, destination writes through DestFS.
type FileOps struct {
	SourceFS filesystem.FileSystem
	DestFS   filesystem.FileSystem
}

// NewFileOps creates a new FileOps instance using fs for both sides.
func NewFileOps(fs filesystem.FileSystem) *FileOps {
	return &FileOps{SourceFS: fs, DestFS: fs}
}

// NewRealFileOps creates a new FileOps instance using the real filesystem.
func NewRealFileOps() *FileOps {
	return NewFileOps(filesystem.NewRealFileSystem())
}

// CopyFile copies the regular file src to dst, which must not exist yet.
// The destination's parent directory must already exist. The source
// modification time is carried over.
func (fo *FileOps) CopyFile(src, dst string, progress ProgressCallback) (int64, error) {
	sourceFile, err := fo.SourceFS.Open(src)
	if err != nil {
		return 0, fmt.Errorf("failed to open source file %s: %w", src, err)
	}

	defer func() {
		_ = sourceFile.Close()
	}()

	sourceInfo, err := sourceFile.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat source file %s: %w", src, err)
	}

	if !sourceInfo.Mode().IsRegular() {
		return 0, fmt.Errorf("failed to copy %s: %w", src, ErrNotRegular)
	}

	destFile, err := fo.DestFS.CreateExclusive(dst, DefaultFilePermissions)
	if err != nil {
		return 0, fmt.Errorf("failed to create destination file %s: %w", dst, err)
	}

	written, err := copyLoop(sourceFile, destFile, sourceInfo.Size(), src, progress)

	closeErr := destFile.Close()
	if err != nil {
		return written, fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}

	if closeErr != nil {
		return written, fmt.Errorf("failed to close destination file %s: %w", dst, closeErr)
	}

	err = fo.DestFS.Chtimes(dst, sourceInfo.ModTime(), sourceInfo.ModTime())
	if err != nil {
		return written, fmt.Errorf("failed to preserve modification time for %s: %w", dst, err)
	}

	return written, nil
}

// CopySymlink recreates the symlink src at dst with the identical raw target.
// Relative targets stay relative to the new location, so the copy may dangle.
func (fo *FileOps) CopySymlink(src, dst string) error {
	target, err := fo.SourceFS.Readlink(src)
	if err != nil {
		return fmt.Errorf("failed to read symlink %s: %w", src, err)
	}

	err = fo.DestFS.Symlink(target, dst)
	if err != nil {
		return fmt.Errorf("failed to recreate symlink %s: %w", dst, err)
	}

	return nil
}

// SameLinkTarget reports whether the symlinks src and dst point at the same raw target.
func (fo *FileOps) SameLinkTarget(src, dst string) (bool, error) {
	srcTarget, err := fo.SourceFS.Readlink(src)
	if err != nil {
		return false, fmt.Errorf("failed to read symlink %s: %w", src, err)
	}

	dstTarget, err := fo.DestFS.Readlink(dst)
	if err != nil {
		return false, fmt.Errorf("failed to read symlink %s: %w", dst, err)
	}

	return srcTarget == dstTarget, nil
}

// CompareFilesBytes reports whether src and dst have identical contents.
func (fo *FileOps) CompareFilesBytes(src, dst string) (bool, error) {
	file1, err := fo.SourceFS.Open(src)
	if err != nil {
		return false, fmt.Errorf("failed to open file %s: %w", src, err)
	}

	defer func() {
		_ = file1.Close()
	}()

	file2, err := fo.DestFS.Open(dst)
	if err != nil {
		return false, fmt.Errorf("failed to open file %s: %w", dst, err)
	}

	defer func() {
		_ = file2.Close()
	}()

	info1, err := file1.Stat()
	if err != nil {
		return false, fmt.Errorf("failed to stat file %s: %w", src, err)
	}

	info2, err := file2.Stat()
	if err != nil {
		return false, fmt.Errorf("failed to stat file %s: %w", dst, err)
	}

	// Quick size check
	if info1.Size() != info2.Size() {
		return false, nil
	}

	identical, err := compareFileContents(file1, file2)
	if err != nil {
		return false, fmt.Errorf("failed to compare %s and %s: %w", src, dst, err)
	}

	return identical, nil
}

// CompareFilesHash reports whether src and dst have the same xxhash64 digest.
func (fo *FileOps) CompareFilesHash(src, dst string) (bool, error) {
	srcHash, err := computeFileHash(fo.SourceFS, src)
	if err != nil {
		return false, err
	}

	dstHash, err := computeFileHash(fo.DestFS, dst)
	if err != nil {
		return false, err
	}

	return srcHash == dstHash, nil
}

// ComputeFileHash computes the hex xxhash64 digest of a source-side file.
func (fo *FileOps) ComputeFileHash(filePath string) (string, error) {
	return computeFileHash(fo.SourceFS, filePath)
}

func computeFileHash(fs filesystem.FileSystem, filePath string) (string, error) {
	file, err := fs.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file %s: %w", filePath, err)
	}

	defer func() {
		_ = file.Close()
	}()

	hash := xxhash.New()

	_, err = io.CopyBuffer(hash, file, make([]byte, BufferSize))
	if err != nil {
		return "", fmt.Errorf("failed to read file %s for hashing: %w", filePath, err)
	}

	return strconv.FormatUint(hash.Sum64(), 16), nil
}

// compareFileContents performs byte-by-byte comparison of two open files.
func compareFileContents(file1, file2 io.Reader) (bool, error) {
	buf1 := make([]byte, BufferSize)
	buf2 := make([]byte, BufferSize)

	for {
		n1, err1 := io.ReadFull(file1, buf1)
		n2, err2 := io.ReadFull(file2, buf2)

		if n1 != n2 || !compareByteBuffers(buf1, buf2, n1) {
			return false, nil
		}

		done1 := isEOF(err1)
		done2 := isEOF(err2)

		if done1 && done2 {
			return true, nil
		}

		if err1 != nil && !done1 {
			return false, fmt.Errorf("failed to read from first file: %w", err1)
		}

		if err2 != nil && !done2 {
			return false, fmt.Errorf("failed to read from second file: %w", err2)
		}

		if done1 != done2 {
			return false, nil
		}
	}
}

func isEOF(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

// copyLoop performs the actual file copy with progress tracking.
func copyLoop(sourceFile io.Reader, destFile io.Writer, sourceSize int64, srcPath string, progress ProgressCallback) (int64, error) {
	var written int64

	buf := make([]byte, BufferSize)

	for {
		nr, err := sourceFile.Read(buf) //nolint:varnamelen // nr is idiomatic for bytes read
		if nr > 0 {
			nw, werr := destFile.Write(buf[0:nr]) //nolint:varnamelen // nw is idiomatic for bytes written
			if werr != nil {
				return written, fmt.Errorf("failed to write to destination: %w", werr)
			}

			if nr != nw {
				return written, fmt.Errorf("short write: %w", io.ErrShortWrite)
			}

			written += int64(nw)

			if progress != nil {
				progress(written, sourceSize, srcPath)
			}
		}

		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return written, fmt.Errorf("failed to read from source: %w", err)
		}
	}

	return written, nil
}

// compareByteBuffers compares two byte buffers up to n bytes.
func compareByteBuffers(buf1, buf2 []byte, n int) bool {
	for i := range n {
		if buf1[i] != buf2[i] {
			return false
		}
	}

	return true
}
