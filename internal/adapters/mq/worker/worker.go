// Package worker defines the asynchronous persistence path for matrix
// position events.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/okian/quorum/internal/adapters/mq/queue"
	"github.com/okian/quorum/pkg/logger"
	"github.com/okian/quorum/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultRetryCount     = 3
	defaultRetryDelay     = 50 * time.Millisecond
	workerShutdownTimeout = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Event is what workers read off the queue.
type Event = queue.Event

// Setter writes a canonical position to durable storage.
type Setter interface {
	SetPosition(ctx context.Context, sessionID, ideaID string, x, y float64) error
}

// Queue defines how workers receive events.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Event
}

// Worker drains the queue into the position store until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// PersistWorker implements Worker for position events.
type PersistWorker struct {
	queue  Queue
	setter Setter
	name   string

	retryCount int
	retryDelay time.Duration

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewPersistWorker creates a new worker with configuration options.
func NewPersistWorker(queue Queue, setter Setter, opts ...Option) *PersistWorker {
	w := &PersistWorker{
		queue:      queue,
		setter:     setter,
		name:       "worker",
		retryCount: defaultRetryCount,
		retryDelay: defaultRetryDelay,
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = logger.Get().Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *PersistWorker) Run(ctx context.Context) {
	defer close(w.done)

	eventChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case event, ok := <-eventChan:
			if !ok {
				// Channel closed, worker should stop
				return
			}
			if err := w.persist(ctx, event); err != nil {
				// A lost write is recovered by the next drag of the
				// same idea; the connection is never torn down.
				metrics.RecordPersistError()
				w.logger.Error(ctx, "position persistence failed",
					logger.String("sessionID", event.SessionID),
					logger.String("ideaID", event.IdeaID),
					logger.Error(err),
				)
			}
		}
	}
}

// persist writes one event to the store with bounded retry on transient
// failure.
func (w *PersistWorker) persist(ctx context.Context, event Event) error {
	start := time.Now()
	defer func() {
		metrics.RecordPersistLatency(float64(time.Since(start).Milliseconds()))
	}()

	var err error
	for attempt := 0; attempt <= w.retryCount; attempt++ {
		if attempt > 0 {
			metrics.RecordPersistRetry()
			select {
			case <-ctx.Done():
				return fmt.Errorf("persist canceled: %w", ctx.Err())
			case <-time.After(w.retryDelay * time.Duration(attempt)):
			}
		}
		err = w.setter.SetPosition(ctx, event.SessionID, event.IdeaID, event.X, event.Y)
		if err == nil {
			return nil
		}
	}
	return fmt.Errorf("persist position for idea %s: %w", event.IdeaID, err)
}

// Shutdown gracefully stops the worker.
func (w *PersistWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Pool manages multiple workers draining one queue.
type Pool struct {
	workers []*PersistWorker
	queue   Queue
	setter  Setter

	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, queue Queue, setter Setter, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers: make([]*PersistWorker, workerCount),
		queue:   queue,
		setter:  setter,
		logger:  logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		workerOpts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		pool.workers[i] = NewPersistWorker(queue, setter, workerOpts...)
	}

	metrics.UpdateWorkerCount(workerCount)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, worker := range p.workers {
		go worker.Run(ctx)
	}
}

// Stop gracefully stops all workers.
func (p *Pool) Stop() {
	for _, worker := range p.workers {
		close(worker.shutdown)
	}
	for _, worker := range p.workers {
		select {
		case <-worker.done:
		case <-time.After(workerShutdownTimeout):
		}
	}
}

// Shutdown closes the queue and waits for workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	// Close the queue first so no new events arrive.
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, worker := range p.workers {
		select {
		case <-worker.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	return nil
}
