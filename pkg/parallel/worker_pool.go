// Package parallel runs independent tasks on a bounded set of goroutines.
package parallel

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/dd0wney/misinfo-cascade/pkg/logging"
)

// WorkerPool manages a pool of worker goroutines
type WorkerPool struct {
	workers int
	tasks   chan func()
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex // Protects tasks from concurrent close during send
	closed  bool         // Protected by mu
	logger  logging.Logger
	panics  atomic.Int64
}

var (
	// ErrTooManyWorkers is returned when the worker count exceeds the maximum allowed.
	ErrTooManyWorkers = errors.New("worker count exceeds maximum")
	// ErrPoolClosed is returned when submitting to a closed pool.
	ErrPoolClosed = errors.New("worker pool is closed")
)

// MaxWorkers is the maximum number of workers allowed in a pool.
const MaxWorkers = math.MaxInt / 2

// PoolOption configures a WorkerPool.
type PoolOption func(*WorkerPool)

// WithLogger reports recovered task panics to logger.
func WithLogger(logger logging.Logger) PoolOption {
	return func(wp *WorkerPool) {
		wp.logger = logger
	}
}

// NewWorkerPool creates a new worker pool with specified number of workers.
// A non-positive count means one worker.
func NewWorkerPool(workers int, opts ...PoolOption) (*WorkerPool, error) {
	if workers <= 0 {
		workers = 1
	}

	// Prevent overflow in buffer size calculation
	if workers > MaxWorkers {
		return nil, fmt.Errorf("%w: %d exceeds %d", ErrTooManyWorkers, workers, MaxWorkers)
	}

	pool := &WorkerPool{
		workers: workers,
		tasks:   make(chan func(), workers*2),
		logger:  logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(pool)
	}

	for i := 0; i < pool.workers; i++ {
		pool.wg.Add(1)
		go pool.worker(i)
	}
	return pool, nil
}

// Workers returns the number of worker goroutines.
func (wp *WorkerPool) Workers() int {
	return wp.workers
}

// Panics returns how many tasks panicked so far.
func (wp *WorkerPool) Panics() int64 {
	return wp.panics.Load()
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for task := range wp.tasks {
		wp.run(id, task)
	}
}

// run executes one task, keeping the worker alive if it panics.
func (wp *WorkerPool) run(id int, task func()) {
	defer func() {
		if r := recover(); r != nil {
			wp.panics.Add(1)
			wp.logger.Error("worker task panicked",
				logging.Int("worker", id),
				logging.String("panic", fmt.Sprint(r)))
		}
	}()
	task()
}

// Submit queues task, blocking while the queue is full. It returns
// ErrPoolClosed after Close and ctx.Err() if ctx ends first.
func (wp *WorkerPool) Submit(ctx context.Context, task func()) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.closed {
		return ErrPoolClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	select {
	case wp.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting tasks and waits for queued ones to finish.
func (wp *WorkerPool) Close() {
	wp.once.Do(func() {
		wp.mu.Lock()
		wp.closed = true
		close(wp.tasks)
		wp.mu.Unlock()
	})
	wp.wg.Wait()
}

// Wait is an alias for Close.
func (wp *WorkerPool) Wait() {
	wp.Close()
}
