package walker

import (
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// FileFilter decides which source entries take part in the copy.
type FileFilter interface {
	// ShouldInclude returns true if the entry at the given slash-separated
	// relative path should be copied (or, for a directory, descended into).
	ShouldInclude(relativePath string) bool
}

// GlobFilter excludes entries matching any of a set of doublestar patterns.
// A pattern without a slash is also matched against the entry's base name,
// so "*.tmp" excludes temporary files at every depth.
type GlobFilter struct {
	patterns []string
}

// NewGlobFilter creates a GlobFilter. Invalid patterns are rejected up front.
// No patterns matches everything.
func NewGlobFilter(excludes ...string) (*GlobFilter, error) {
	patterns := make([]string, 0, len(excludes))

	for _, pattern := range excludes {
		if pattern == "" {
			continue
		}

		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, doublestar.ErrBadPattern)
		}

		patterns = append(patterns, pattern)
	}

	return &GlobFilter{patterns: patterns}, nil
}

// ShouldInclude returns false if any exclude pattern matches relativePath.
func (f *GlobFilter) ShouldInclude(relativePath string) bool {
	base := path.Base(relativePath)

	for _, pattern := range f.patterns {
		if doublestar.MatchUnvalidated(pattern, relativePath) {
			return false
		}

		if !strings.Contains(pattern, "/") && doublestar.MatchUnvalidated(pattern, base) {
			return false
		}
	}

	return true
}

// includeAll is used when no filter is configured.
type includeAll struct{}

func (includeAll) ShouldInclude(string) bool { return true }
