package async

import (
	"context"
	"errors"
	"sync"
	"time"

	"log/slog"
)

// ErrQueueClosed is returned by Enqueue after Shutdown.
var ErrQueueClosed = errors.New("queue is shutting down")

type ProcessorQueue struct {
	handle  Handler
	logger  *slog.Logger
	workers int
	timeout time.Duration
	depth   func(int)

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// WithDepthReporter is called with the number of waiting jobs whenever it changes.
func WithDepthReporter(fn func(int)) Option {
	return func(q *ProcessorQueue) { q.depth = fn }
}

func NewProcessorQueue(handle Handler, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		handle:  handle,
		logger:  logger,
		workers: 1,
		timeout: 10 * time.Minute,
		ch:      make(chan Job, 16),
		depth:   func(int) {},
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("queue.worker.started", "worker_id", workerID)

				for job := range q.ch {
					q.depth(len(q.ch))
					q.run(workerID, job)
				}

				q.logger.Info("queue.worker.stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ProcessorQueue) run(workerID int, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("queue.job.panic", "worker_id", workerID, "job_id", job.ID, "panic", r)
		}
	}()

	start := time.Now()
	if err := q.handle(ctx, job); err != nil {
		q.logger.Error("queue.job.failed", "worker_id", workerID, "job_id", job.ID, "files", len(job.Paths), "error", err)
		return
	}
	q.logger.Info("queue.job.ok",
		"worker_id", workerID,
		"job_id", job.ID,
		"files", len(job.Paths),
		"wait_ms", start.Sub(job.SubmittedAt).Milliseconds(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
}

// Enqueue blocks while the queue is full, until ctx ends.
func (q *ProcessorQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("queue.enqueue.closed", "job_id", job.ID)
		return ErrQueueClosed
	}
	select {
	case q.ch <- job:
	default:
		q.logger.Warn("queue.full", "job_id", job.ID)
		select {
		case q.ch <- job:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	q.depth(len(q.ch))
	q.logger.Info("queue.enqueued", "job_id", job.ID, "files", len(job.Paths))
	return nil
}

func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("queue.shutdown.interrupted")
	case <-done:
		q.logger.Info("queue.shutdown.ok")
	}
}
