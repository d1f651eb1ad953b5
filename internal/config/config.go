// Package config handles application configuration and command-line argument parsing.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/alexflint/go-arg"
)

// CompareMode selects how two same-sized files are compared when merging.
type CompareMode int

const (
	// CompareContent compares the files byte by byte
	CompareContent CompareMode = iota
	// CompareHash compares the xxhash64 digests of the files
	CompareHash
)

// Exported variables.
var (
	ErrDestinationExists       = errors.New("destination already exists (use --sync to merge into it)")
	ErrDestinationInsideSource = errors.New("destination is inside the source tree")
	ErrDestinationNotDir       = errors.New("destination path is not a directory")
	ErrInvalidCompareMode      = errors.New("invalid compare mode")
	ErrNoThreads               = errors.New("at least one thread is required")
	ErrSourceMissing           = errors.New("source path does not exist")
	ErrSourceNotDir            = errors.New("source path is not a directory")
)

// String returns the string representation of CompareMode
func (cm CompareMode) String() string {
	switch cm {
	case CompareContent:
		return "content"
	case CompareHash:
		return "hash"
	default:
		return "unknown"
	}
}

// ParseCompareMode parses a string into a CompareMode
func ParseCompareMode(s string) (CompareMode, error) {
	switch strings.ToLower(s) {
	case "content", "bytes":
		return CompareContent, nil
	case "hash", "xxhash":
		return CompareHash, nil
	default:
		return CompareContent, fmt.Errorf("%w: %s (valid: content, hash)", ErrInvalidCompareMode, s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler for go-arg
func (cm *CompareMode) UnmarshalText(text []byte) error {
	parsed, err := ParseCompareMode(string(text))
	if err != nil {
		return err
	}

	*cm = parsed

	return nil
}

// MarshalText implements encoding.TextMarshaler so go-arg can print the default
func (cm CompareMode) MarshalText() ([]byte, error) {
	return []byte(cm.String()), nil
}

// Config holds the application configuration
type Config struct {
	Source   string      `arg:"positional,required" help:"Source directory"`
	Dest     string      `arg:"positional,required" help:"Destination directory (created if missing; SRC is nested inside it otherwise)"`
	Threads  uint8       `arg:"-t,--threads,env:PSYNC_THREADS" default:"1" help:"Number of worker threads"`
	Stats    bool        `arg:"-s,--stats" help:"Show transfer statistics"`
	Sync     bool        `arg:"--sync" help:"Merge into an existing destination, skipping identical files"`
	Excludes []string    `arg:"-x,--exclude,separate" help:"Glob of relative paths to skip (repeatable)"`
	Compare  CompareMode `arg:"--compare" default:"content" help:"How large files are compared when merging: content|hash"`
	Verbose  int         `arg:"-v,--verbose" default:"0" help:"Log verbosity: 0 warn, 1 info, 2 debug, 3 trace"`
	LogFile  string      `arg:"--log-file" help:"Also write JSON logs to this file"`

	// CopyRoot is the directory the source tree is copied into, derived from Source and Dest.
	CopyRoot string `arg:"-"`
}

// Description returns the program description for go-arg
func (Config) Description() string {
	return "Copy or synchronize a directory tree using a pool of worker threads"
}

// Version returns the version string for go-arg
func (Config) Version() string {
	return "psync 1.0.0"
}

// ParseFlags parses command-line flags and returns configuration
func ParseFlags() (*Config, error) {
	cfg := &Config{}

	arg.MustParse(cfg)

	return PostProcessConfig(cfg)
}

// Parse parses args (without the program name) the same way ParseFlags parses os.Args.
func Parse(args []string) (*Config, error) {
	cfg := &Config{}

	parser, err := arg.NewParser(arg.Config{Program: "psync"}, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build argument parser: %w", err)
	}

	err = parser.Parse(args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse arguments: %w", err)
	}

	return PostProcessConfig(cfg)
}

// PostProcessConfig validates a parsed config and derives the copy root
func PostProcessConfig(cfg *Config) (*Config, error) {
	if cfg.Threads < 1 {
		return nil, ErrNoThreads
	}

	if err := cfg.ValidatePaths(); err != nil {
		return nil, err
	}

	root, err := ResolveDestination(cfg.Source, cfg.Dest, cfg.Sync)
	if err != nil {
		return nil, err
	}

	cfg.CopyRoot = root

	return cfg, nil
}

// ValidatePaths validates that the source is an existing directory
func (cfg *Config) ValidatePaths() error {
	if cfg.Source == "" {
		return fmt.Errorf("source path is required")
	}

	if cfg.Dest == "" {
		return fmt.Errorf("destination path is required")
	}

	sourceInfo, err := os.Stat(cfg.Source)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrSourceMissing, cfg.Source)
	}

	if err != nil {
		return fmt.Errorf("cannot access source path: %w", err)
	}

	if !sourceInfo.IsDir() {
		return fmt.Errorf("%w: %s", ErrSourceNotDir, cfg.Source)
	}

	return nil
}

// ResolveDestination decides where the source tree is copied to.
//
// A missing dest becomes the copy root itself. An existing dest directory
// receives the tree under its own name, dest/<base of source>. If that
// nested root already exists, allowMerge must be set.
func ResolveDestination(source, dest string, allowMerge bool) (string, error) {
	absSource, err := filepath.Abs(source)
	if err != nil {
		return "", fmt.Errorf("cannot resolve source path: %w", err)
	}

	root := dest

	destInfo, err := os.Stat(dest)

	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return "", fmt.Errorf("cannot access destination path: %w", err)
	case !destInfo.IsDir():
		return "", fmt.Errorf("%w: %s", ErrDestinationNotDir, dest)
	default:
		root = filepath.Join(dest, filepath.Base(absSource))

		_, err = os.Lstat(root)
		if err == nil && !allowMerge {
			return "", fmt.Errorf("%w: %s", ErrDestinationExists, root)
		}

		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("cannot access destination path: %w", err)
		}
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("cannot resolve destination path: %w", err)
	}

	if isWithin(absSource, absRoot) {
		return "", fmt.Errorf("%w: %s", ErrDestinationInsideSource, root)
	}

	return root, nil
}

// isWithin reports whether target is dir itself or below it.
func isWithin(dir, target string) bool {
	rel, err := filepath.Rel(dir, target)
	if err != nil {
		return false
	}

	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
