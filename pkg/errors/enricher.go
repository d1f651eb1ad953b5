package errors

import (
	"errors"
	"regexp"
	"strings"
)

// Enricher enriches standard errors with actionable suggestions.
type Enricher interface {
	Enrich(err error, affectedPath string) error
}

// PathReporter is implemented by errors that know which path they concern,
// such as the engine's per-unit copy errors and the walker's traversal errors.
type PathReporter interface {
	error
	FailedPath() string
}

// NewEnricher creates a new Enricher with default pattern matcher and suggestion generator.
func NewEnricher() Enricher {
	return &enricher{
		matcher:   NewPatternMatcher(),
		generator: NewSuggestionGenerator(),
	}
}

// unexported variables.
var (
	//nolint:gochecknoglobals // Compiled once, shared by every enricher
	pathExtractionPatterns = []*regexp.Regexp{
		// "<op> <source> -> <destination>: ..." names the destination
		regexp.MustCompile(`\b\w+\s+\S+\s+->\s+((?:[A-Za-z]:)?[^\s:]+):`),
		// "traversal <op> <path>: ..." from the walker
		regexp.MustCompile(`\btraversal\s+\w+\s+((?:[A-Za-z]:)?[^\s:]+):`),
		// "<op> /path: ..." and "<op> ./path: ..." from the os package
		regexp.MustCompile(`\b\w+\s+([./][^\s:]+):`),
		// Windows paths with backslashes or forward slashes
		regexp.MustCompile(`\b\w+\s+([A-Za-z]:[\\/][^\s:]+):`),
	}
)

// enricher is the concrete implementation of Enricher.
type enricher struct {
	matcher   PatternMatcher
	generator SuggestionGenerator
}

// Enrich categorizes err and attaches suggestions. An ActionableError anywhere
// in the chain is returned unchanged.
//
// The affected path is, in order of preference: affectedPath, the FailedPath
// of the first PathReporter in the chain, or a path found in the message.
func (e *enricher) Enrich(err error, affectedPath string) error {
	var actionableErr ActionableError
	if errors.As(err, &actionableErr) {
		return actionableErr
	}

	errMsg := err.Error()

	if affectedPath == "" {
		affectedPath = failedPath(err)
	}

	category := e.matcher.Match(errMsg)

	return NewActionableError(
		errMsg,
		category,
		e.generator.Generate(category, affectedPath),
		affectedPath,
	)
}

func failedPath(err error) string {
	var reporter PathReporter
	if errors.As(err, &reporter) {
		if path := reporter.FailedPath(); path != "" {
			return path
		}
	}

	return extractPath(err.Error())
}

// extractPath finds the path in messages shaped like
//   - "open /home/user/file.txt: permission denied"
//   - "copy /src/a -> /dst/a: short write" (the destination is returned)
//   - "traversal mkdir out/sub: file exists"
//
// It returns "" when nothing matches.
func extractPath(errorMsg string) string {
	for _, pattern := range pathExtractionPatterns {
		if matches := pattern.FindStringSubmatch(errorMsg); len(matches) > 1 {
			if path := strings.TrimSpace(matches[1]); path != "" {
				return path
			}
		}
	}

	return ""
}
