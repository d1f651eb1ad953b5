// Package workqueue provides a fixed-size pool of goroutines draining one
// shared FIFO queue. Jobs may submit further jobs into the pool they run on.
package workqueue

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/rs/zerolog"
)

// Exported variables.
var (
	ErrClosed = errors.New("work queue closed")
)

// Job is one unit of work. Everything it needs must be captured at submission.
type Job func()

// Option configures a Pool.
type Option func(*Pool)

// WithLogger sets the logger used to report recovered job panics.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Pool) {
		p.logger = logger
	}
}

// Pool runs submitted jobs on a fixed number of worker goroutines.
// The queue is unbounded, so Submit never blocks on capacity.
type Pool struct {
	mu     sync.Mutex
	ready  *sync.Cond
	queue  []Job
	closed bool

	workers   sync.WaitGroup
	closeOnce sync.Once
	logger    zerolog.Logger
}

// New starts a pool with the given number of workers. It panics if workers < 1.
func New(workers int, opts ...Option) *Pool {
	if workers < 1 {
		panic(fmt.Sprintf("workqueue: need at least one worker, got %d", workers))
	}

	p := &Pool{logger: zerolog.Nop()}
	p.ready = sync.NewCond(&p.mu)

	for _, opt := range opts {
		opt(p)
	}

	for id := range workers {
		p.workers.Go(func() {
			p.work(id)
		})
	}

	return p
}

// Submit enqueues job. It is safe to call from any goroutine, including a
// running job, and returns ErrClosed once Close has been called.
func (p *Pool) Submit(job Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	p.queue = append(p.queue, job)
	p.ready.Signal()

	return nil
}

// Spawner returns a handle that jobs use to submit follow-up work.
func (p *Pool) Spawner() Spawner {
	return Spawner{pool: p}
}

// Pending reports how many jobs are queued and not yet picked up by a worker.
func (p *Pool) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.queue)
}

// Close stops accepting jobs, lets the workers finish everything already
// queued and waits for all of them to exit. Calling it again is a no-op.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.ready.Broadcast()
		p.mu.Unlock()
	})

	p.workers.Wait()
}

func (p *Pool) work(id int) {
	for {
		job, ok := p.next()
		if !ok {
			return
		}

		p.run(id, job)
	}
}

// next blocks until a job is available. It returns false once the pool is
// closed and the queue is empty.
func (p *Pool) next() (Job, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.queue) == 0 && !p.closed {
		p.ready.Wait()
	}

	if len(p.queue) == 0 {
		return nil, false
	}

	job := p.queue[0]
	p.queue[0] = nil
	p.queue = p.queue[1:]

	return job, true
}

func (p *Pool) run(id int, job Job) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error().
				Int("worker", id).
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("job panicked")
		}
	}()

	job()
}

// Spawner submits jobs into the pool it came from. Holding one does not keep
// the pool open.
type Spawner struct {
	pool *Pool
}

// Go enqueues job. It panics if the pool has been closed.
func (s Spawner) Go(job Job) {
	if err := s.pool.Submit(job); err != nil {
		panic(fmt.Sprintf("workqueue: spawn: %v", err))
	}
}
