package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/phanvandien/ocr-script/constants"
	"github.com/phanvandien/ocr-script/internal/core"
	"github.com/phanvandien/ocr-script/internal/entity"
	"github.com/phanvandien/ocr-script/internal/progress"
)

// ProcessorQueue runs batch jobs on a fixed set of background workers.
type ProcessorQueue struct {
	runner  TaskRunner
	logger  *slog.Logger
	workers int
	timeout time.Duration
	tracker *progress.Tracker
	onDone  ResultHook

	ch   chan core.Job
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
			q.ch = make(chan core.Job, n)
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

// WithTracker publishes a QUEUED event for every accepted job.
func WithTracker(t *progress.Tracker) Option {
	return func(q *ProcessorQueue) { q.tracker = t }
}

func WithResultHook(h ResultHook) Option {
	return func(q *ProcessorQueue) { q.onDone = h }
}

func NewProcessorQueue(runner TaskRunner, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		runner:  runner,
		logger:  logger,
		workers: 2,
		timeout: 30 * time.Minute,
		ch:      make(chan core.Job, 64),
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
				q.logger.Debug("queue.worker.started", "worker_id", workerID)

				for job := range q.ch {
					ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
					res, err := q.runner.Run(ctx, job)
					cancel()

					if err != nil {
						q.logger.Error("queue.job.failed", "worker_id", workerID, "session_id", job.SessionID, "error", err)
					} else {
						q.logger.Info("queue.job.done", "worker_id", workerID, "session_id", job.SessionID)
					}
					if q.onDone != nil {
						q.onDone(job, res, err)
					}
				}

				q.logger.Debug("queue.worker.stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

// Enqueue hands job to the workers, blocking when the buffer is full.
func (q *ProcessorQueue) Enqueue(ctx context.Context, job core.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("queue.enqueue.rejected", "session_id", job.SessionID, "reason", "shutting down")
		return ErrQueueClosed
	}
	if q.tracker != nil {
		_ = q.tracker.Publish(ctx, job.SessionID, entity.NewProgressEvent(0, 0, "Đang chờ xử lý", constants.TaskStatusQueued))
	}
	select {
	case q.ch <- job:
		q.logger.Info("queue.enqueued", "session_id", job.SessionID, "archive", job.ArchivePath)
	default:
		q.logger.Warn("queue.full.backpressure", "session_id", job.SessionID)
		select {
		case q.ch <- job:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Shutdown stops accepting jobs and waits for queued ones until ctx ends.
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
		q.logger.Info("queue.shutdown.drained")
	}
}

var _ Queue = (*ProcessorQueue)(nil)
