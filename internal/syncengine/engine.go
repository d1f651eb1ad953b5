// Package syncengine copies a source tree to a destination using a pool of
// workers: one job walks the tree and every unit it yields becomes a copy job
// on the same pool.
package syncengine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/joe/psync/internal/config"
	"github.com/joe/psync/internal/logging"
	"github.com/joe/psync/internal/walker"
	"github.com/joe/psync/pkg/filesystem"
	"github.com/joe/psync/pkg/workqueue"
)

// Exported constants.
const (
	// DefaultProgressInterval is how often SyncProgress is emitted
	DefaultProgressInterval = 100 * time.Millisecond
)

// Exported variables.
var (
	ErrNoWorkers   = errors.New("at least one worker is required")
	ErrJobPanicked = errors.New("job panicked")
)

// Engine handles the synchronization process
type Engine struct {
	SourcePath       string
	DestPath         string
	Workers          int                // Number of pool goroutines, traversal included
	CompareMode      config.CompareMode // How large existing files are compared
	Filter           walker.FileFilter  // Optional exclusion filter
	FS               filesystem.FileSystem
	Logger           zerolog.Logger
	Clock            Clock
	ProgressInterval time.Duration

	emitter EventEmitter
	written atomic.Int64
}

// result is what producers send to the consumer. Exactly one of outcome and
// err is meaningful.
type result struct {
	unit    walker.CopyUnit
	outcome Outcome
	err     error
	phase   string
}

// NewEngine creates a new sync engine copying source into dest.
func NewEngine(source, dest string) *Engine {
	return &Engine{
		SourcePath:       source,
		DestPath:         dest,
		Workers:          1,
		CompareMode:      config.CompareContent,
		FS:               filesystem.NewRealFileSystem(),
		Logger:           zerolog.Nop(),
		Clock:            SystemClock{},
		ProgressInterval: DefaultProgressInterval,
	}
}

// SetEventEmitter sets the event emitter for progress reporting.
// A nil emitter disables events.
func (e *Engine) SetEventEmitter(emitter EventEmitter) {
	e.emitter = emitter
}

// GetEventEmitter returns the configured event emitter, if any.
func (e *Engine) GetEventEmitter() EventEmitter {
	return e.emitter
}

// Run copies the tree and blocks until every unit has been handled or the run
// has failed. The first error stops the traversal and any copy job that has
// not started yet; jobs already running finish. The returned result holds
// whatever completed, also on failure.
//
// Cancelling ctx has the same effect as a failing unit.
func (e *Engine) Run(ctx context.Context) (*RunResult, error) {
	if e.Workers < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrNoWorkers, e.Workers)
	}

	logger := logging.Component(e.Logger, "engine")
	start := e.Clock.Now()
	e.written.Store(0)

	opts := []walker.Option{walker.WithLogger(logger)}
	if e.Filter != nil {
		opts = append(opts, walker.WithFilter(e.Filter))
	}

	tree, err := walker.Walk(e.FS, e.SourcePath, e.DestPath, opts...)
	if err != nil {
		logger.Error().Err(err).Msg("failed to start traversal")
		e.emit(ErrorOccurred{Phase: PhaseTraverse, Err: err})
		e.emit(SyncComplete{Err: err})

		return nil, err
	}

	logger.Info().
		Str("source", e.SourcePath).
		Str("dest", e.DestPath).
		Int("workers", e.Workers).
		Msg("sync started")
	e.emit(SyncStarted{Source: e.SourcePath, Destination: e.DestPath, Workers: e.Workers})

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	pool := workqueue.New(e.Workers, workqueue.WithLogger(logger))
	results := make(chan result, e.Workers)

	var producers sync.WaitGroup

	spawner := pool.Spawner()

	producers.Add(1)
	spawner.Go(e.traverse(runCtx, tree, spawner, &producers, results))

	go func() {
		producers.Wait()
		close(results)
	}()

	runResult, runErr := e.consume(runCtx, cancel, results, start, logger)

	pool.Close()

	if runErr == nil && ctx.Err() != nil {
		runErr = fmt.Errorf("sync interrupted: %w", ctx.Err())
	}

	runResult.Elapsed = e.Clock.Now().Sub(start)

	if runErr != nil {
		logger.Error().Err(runErr).Msg("sync failed")
	} else {
		logger.Info().
			Int("units", runResult.Units()).
			Int64("bytes", runResult.BytesCopied).
			Dur("elapsed", runResult.Elapsed).
			Float64("bytesPerSecond", runResult.Throughput()).
			Msg("sync complete")
	}

	e.emit(SyncComplete{Result: runResult, Err: runErr})

	return runResult, runErr
}

// traverse returns the job that drains the walker. It holds one producer
// count itself and registers one more for every copy job it spawns, before
// spawning it. A panic in either kind of job is sent as that job's result.
func (e *Engine) traverse(
	ctx context.Context,
	tree *walker.Walker,
	spawner workqueue.Spawner,
	producers *sync.WaitGroup,
	results chan<- result,
) workqueue.Job {
	syncer := NewSyncer(e.FS, e.CompareMode, WithByteCounter(&e.written))

	return func() {
		defer producers.Done()

		defer func() {
			_ = tree.Close()
		}()

		defer func() {
			if r := recover(); r != nil {
				results <- result{err: fmt.Errorf("traversal %w: %v", ErrJobPanicked, r), phase: PhaseTraverse}
			}
		}()

		for ctx.Err() == nil {
			unit, ok := tree.Next()
			if !ok {
				break
			}

			producers.Add(1)
			spawner.Go(func() {
				defer producers.Done()

				defer func() {
					if r := recover(); r != nil {
						err := &CopyError{
							Op:          "copy",
							Source:      unit.SourcePath,
							Destination: unit.DestinationPath,
							Err:         fmt.Errorf("%w: %v", ErrJobPanicked, r),
						}
						results <- result{unit: unit, err: err, phase: PhaseCopy}
					}
				}()

				if ctx.Err() != nil {
					return
				}

				outcome, err := syncer.Execute(unit)
				results <- result{unit: unit, outcome: outcome, err: err, phase: PhaseCopy}
			})
		}

		if err := tree.Err(); err != nil {
			results <- result{err: err, phase: PhaseTraverse}
		}
	}
}

// consume aggregates results until the channel is closed. After the first
// error it cancels the run and discards everything else.
func (e *Engine) consume(
	ctx context.Context,
	cancel context.CancelFunc,
	results <-chan result,
	start time.Time,
	logger zerolog.Logger,
) (*RunResult, error) {
	runResult := &RunResult{}

	var firstErr error

	ticker := e.Clock.NewTicker(e.progressInterval())
	defer ticker.Stop()

	for {
		select {
		case res, ok := <-results:
			if !ok {
				return runResult, firstErr
			}

			if firstErr != nil {
				continue
			}

			if res.err != nil {
				firstErr = res.err

				cancel()
				e.emit(ErrorOccurred{Phase: res.phase, Err: res.err})

				continue
			}

			runResult.record(res.outcome)

			logger.Debug().
				Str("path", res.unit.DestinationPath).
				Stringer("action", res.outcome.Action).
				Int64("bytes", res.outcome.Bytes).
				Msg("unit done")
			e.emit(SyncFileComplete{Path: res.unit.DestinationPath, Action: res.outcome.Action, Bytes: res.outcome.Bytes})
		case <-ticker.C():
			if ctx.Err() == nil {
				e.emit(SyncProgress{
					FilesDone:   runResult.Units(),
					BytesCopied: e.written.Load(),
					Elapsed:     e.Clock.Now().Sub(start),
				})
			}
		}
	}
}

func (e *Engine) progressInterval() time.Duration {
	if e.ProgressInterval <= 0 {
		return DefaultProgressInterval
	}

	return e.ProgressInterval
}

func (e *Engine) emit(event Event) {
	if e.emitter != nil {
		e.emitter.Emit(event)
	}
}
