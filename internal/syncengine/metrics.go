package syncengine

import "time"

// RunResult aggregates the outcomes of one run. It is written only by the
// goroutine consuming results.
type RunResult struct {
	// BytesCopied counts file content written, including replacements.
	BytesCopied int64

	// FilesCopied counts files blind-created at a destination that did not exist.
	FilesCopied int

	// SymlinksCreated counts symlinks recreated at a destination that did not exist.
	SymlinksCreated int

	// FilesReplaced counts destinations that were removed and recreated.
	FilesReplaced int

	// FilesSkipped counts destinations left alone because they were identical.
	FilesSkipped int

	// Elapsed is the wall time from the start of the run to the last result.
	Elapsed time.Duration
}

// Units returns the number of CopyUnits that completed.
func (r *RunResult) Units() int {
	return r.FilesCopied + r.SymlinksCreated + r.FilesReplaced + r.FilesSkipped
}

// Throughput returns bytes copied per second of elapsed time.
func (r *RunResult) Throughput() float64 {
	secs := r.Elapsed.Seconds()
	if secs <= 0 {
		return 0
	}

	return float64(r.BytesCopied) / secs
}

func (r *RunResult) record(outcome Outcome) {
	switch outcome.Action {
	case ActionCopied:
		r.FilesCopied++
	case ActionLinked:
		r.SymlinksCreated++
	case ActionReplaced:
		r.FilesReplaced++
	case ActionSkipped:
		r.FilesSkipped++
	}

	r.BytesCopied += outcome.Bytes
}
