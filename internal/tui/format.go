package tui

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/joe/psync/internal/syncengine"
)

// FormatBytes formats bytes into human-readable format (e.g., "1.5 MB")
func FormatBytes(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}

	return humanize.Bytes(uint64(bytes))
}

// FormatRate formats transfer rate into human-readable format (e.g., "5.2 MB/s")
func FormatRate(bytesPerSec float64) string {
	if bytesPerSec < 1 {
		return "0 B/s"
	}

	return humanize.Bytes(uint64(bytesPerSec)) + "/s"
}

// FormatDuration formats a duration with one decimal of seconds (e.g., "2.5s"),
// switching to whole units from a minute up (e.g., "2m30s").
func FormatDuration(duration time.Duration) string {
	if duration < time.Minute {
		return fmt.Sprintf("%.1fs", duration.Seconds())
	}

	return duration.Round(time.Second).String()
}

// rate returns bytes per second, or zero before any time has passed.
func rate(bytes int64, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}

	return float64(bytes) / elapsed.Seconds()
}

// ProgressLine is the one-line live status: bytes, elapsed time and rate.
func ProgressLine(bytes int64, files int, elapsed time.Duration) string {
	return fmt.Sprintf("Copied %s in %s = %s (%s files)",
		FormatBytes(bytes), FormatDuration(elapsed), FormatRate(rate(bytes, elapsed)), humanize.Comma(int64(files)))
}

// Summary describes a finished run.
func Summary(result *syncengine.RunResult) string {
	if result == nil {
		return ""
	}

	return fmt.Sprintf("%s\n%d copied, %d linked, %d replaced, %d skipped",
		ProgressLine(result.BytesCopied, result.Units(), result.Elapsed),
		result.FilesCopied, result.SymlinksCreated, result.FilesReplaced, result.FilesSkipped)
}
