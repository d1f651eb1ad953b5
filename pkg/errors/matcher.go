package errors

import "strings"

// PatternMatcher matches error messages to categories using string patterns.
type PatternMatcher interface {
	Match(errorMsg string) ErrorCategory
}

// categoryPatterns pairs a category with the message fragments that select it.
type categoryPatterns struct {
	category ErrorCategory
	patterns []string
}

// NewPatternMatcher creates a new PatternMatcher with predefined patterns.
// Categories are tried in order, so a message matching several of them gets the first.
func NewPatternMatcher() PatternMatcher {
	return &patternMatcher{
		patterns: []categoryPatterns{
			{CategoryPermission, []string{
				"permission denied",
				"access denied",
				"operation not permitted",
			}},
			{CategoryDiskSpace, []string{
				"no space left on device",
				"disk full",
				"quota exceeded",
			}},
			{CategoryConflict, []string{
				"file exists",
				"already exists",
				"destination exists",
				"destination is a directory",
				"is a directory",
				"inside the source tree",
			}},
			{CategoryUnsupported, []string{
				"unsupported entry type",
			}},
			{CategoryPath, []string{
				"no such file or directory",
				"file not found",
				"path does not exist",
				"not a directory",
			}},
			{CategoryCopy, []string{
				"short write",
				"input/output error",
				"i/o error",
				"too many open files",
			}},
		},
	}
}

// patternMatcher is the concrete implementation of PatternMatcher.
type patternMatcher struct {
	patterns []categoryPatterns
}

// Match returns the error category based on pattern matching.
func (m *patternMatcher) Match(errorMsg string) ErrorCategory {
	lowerMsg := strings.ToLower(errorMsg)

	for _, entry := range m.patterns {
		for _, pattern := range entry.patterns {
			if strings.Contains(lowerMsg, pattern) {
				return entry.category
			}
		}
	}

	return CategoryUnknown
}
