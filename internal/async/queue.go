package async

import (
	"context"
	"errors"

	"github.com/phanvandien/ocr-script/internal/core"
	"github.com/phanvandien/ocr-script/internal/entity"
)

// ErrQueueClosed is returned by Enqueue after Shutdown.
var ErrQueueClosed = errors.New("queue is shutting down")

type Queue interface {
	Enqueue(ctx context.Context, job core.Job) error
	Shutdown(ctx context.Context)
}

// TaskRunner executes one batch job.
type TaskRunner interface {
	Run(ctx context.Context, job core.Job) (*entity.BatchResult, error)
}

// ResultHook is called after every job, on the queue worker goroutine.
type ResultHook func(job core.Job, res *entity.BatchResult, err error)
