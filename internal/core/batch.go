package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/phanvandien/ocr-script/constants"
	"github.com/phanvandien/ocr-script/internal/archive"
	"github.com/phanvandien/ocr-script/internal/common"
	"github.com/phanvandien/ocr-script/internal/entity"
)

// MaxWorkers caps how many images are extracted at once.
const MaxWorkers = 3

const (
	reasonTooLarge  = "file too large"
	reasonTimeout   = "timeout"
	reasonCancelled = "cancelled"
)

// ProgressSink receives progress updates; failures are not fatal.
type ProgressSink interface {
	Update(ctx context.Context, sessionID string, current, total int, message string) error
}

type BatchConfig struct {
	MaxImages       int
	Workers         int
	MaxEntryBytes   int64
	CompletionDelay time.Duration
	PerImageTimeout time.Duration
}

func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		MaxImages:       constants.MaxImagesDefault,
		Workers:         MaxWorkers,
		MaxEntryBytes:   constants.MaxEntryBytes,
		CompletionDelay: 200 * time.Millisecond,
		PerImageTimeout: 30 * time.Second,
	}
}

// Batch fans the images of one archive out to a bounded pool of workers and
// aggregates their outcomes in completion order.
type Batch struct {
	worker   ImageProcessor
	progress ProgressSink
	cfg      BatchConfig
	logger   *slog.Logger
}

func NewBatch(worker ImageProcessor, progress ProgressSink, cfg BatchConfig, logger *slog.Logger) *Batch {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultBatchConfig()
	if cfg.MaxImages <= 0 {
		cfg.MaxImages = def.MaxImages
	}
	if cfg.Workers <= 0 || cfg.Workers > MaxWorkers {
		cfg.Workers = MaxWorkers
	}
	if cfg.MaxEntryBytes <= 0 {
		cfg.MaxEntryBytes = def.MaxEntryBytes
	}
	if cfg.CompletionDelay < 0 {
		cfg.CompletionDelay = 0
	}
	if cfg.PerImageTimeout <= 0 {
		cfg.PerImageTimeout = def.PerImageTimeout
	}
	return &Batch{worker: worker, progress: progress, cfg: cfg, logger: logger}
}

type indexedOutcome struct {
	index   int
	outcome entity.ImageOutcome
}

// Run processes every eligible image of the archive. It returns an error only
// when the archive itself cannot be read; per-image problems are outcomes.
func (b *Batch) Run(ctx context.Context, r io.ReaderAt, size int64, mode constants.Mode, sessionID string) (*entity.BatchResult, error) {
	start := time.Now()
	log := b.logger.With("session_id", sessionID, "mode", mode)

	zr, err := archive.Open(r, size)
	if err != nil {
		log.Error("batch.archive.open_failed", "error", err)
		return nil, common.NewAppError("ARCHIVE_ERROR", "cannot read archive", fmt.Errorf("%w: %w", common.ErrArchive, err))
	}

	entries, dropped := archive.Truncate(archive.Eligible(zr), b.cfg.MaxImages)
	if dropped > 0 {
		log.Warn("batch.images.truncated", "kept", len(entries), "dropped", dropped, "max_images", b.cfg.MaxImages)
	}
	total := len(entries)
	if total == 0 {
		log.Info("batch.run.empty", "elapsed_ms", time.Since(start).Milliseconds())
		return entity.NewBatchResult(sessionID, mode, nil), nil
	}
	log.Info("batch.run.start", "images", total)
	b.report(ctx, sessionID, 0, total, fmt.Sprintf("Bắt đầu xử lý %d ảnh", total))

	outcomes := make([]entity.ImageOutcome, 0, total)
	done := make([]bool, total)
	record := func(i int, o entity.ImageOutcome) {
		done[i] = true
		outcomes = append(outcomes, o)
		mark := "✓"
		if !o.Success {
			mark = "✗"
		}
		b.report(ctx, sessionID, len(outcomes), total, mark+" "+entries[i].Name)
	}

	dispatch := make([]int, 0, total)
	for i, e := range entries {
		if e.Size > b.cfg.MaxEntryBytes {
			log.Warn("batch.image.too_large", "filename", e.Name, "bytes", e.Size, "limit", b.cfg.MaxEntryBytes)
			record(i, entity.Failed(e.Name, reasonTooLarge, ""))
			continue
		}
		dispatch = append(dispatch, i)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// sized to the dispatch count so abandoned workers never block
	results := make(chan indexedOutcome, len(dispatch))
	width := min(b.cfg.Workers, len(dispatch))
	if width > 0 {
		sem := semaphore.NewWeighted(int64(width))
		go func() {
			for _, i := range dispatch {
				if err := sem.Acquire(runCtx, 1); err != nil {
					return
				}
				go func(i int) {
					defer sem.Release(1)
					results <- indexedOutcome{index: i, outcome: b.processEntry(runCtx, sessionID, i, entries[i], mode)}
				}(i)
			}
		}()
	}

	deadline := time.NewTimer(time.Duration(total) * b.cfg.PerImageTimeout)
	defer deadline.Stop()

	abort := ""
	for pending := len(dispatch); pending > 0 && abort == ""; {
		select {
		case res := <-results:
			pending--
			record(res.index, res.outcome)
			b.pause(ctx)
		case <-deadline.C:
			abort = reasonTimeout
		case <-ctx.Done():
			abort = reasonCancelled
		}
	}

	if abort != "" {
		cancel()
		missing := 0
		for i, e := range entries {
			if !done[i] {
				missing++
				record(i, entity.Failed(e.Name, abort, ""))
			}
		}
		log.Error("batch.run.aborted", "reason", abort, "missing", missing, "elapsed_ms", time.Since(start).Milliseconds())
	}

	result := entity.NewBatchResult(sessionID, mode, outcomes)
	log.Info("batch.run.done",
		"images", result.TotalImages,
		"successful", result.SuccessfulImages,
		"records", result.TotalRecords,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

// processEntry reads one member and runs the worker on it. It runs on a pool
// goroutine and must not touch aggregation state.
func (b *Batch) processEntry(ctx context.Context, sessionID string, index int, e archive.Entry, mode constants.Mode) (out entity.ImageOutcome) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("batch.worker.panic", "session_id", sessionID, "filename", e.Name, "panic", r, "stack", string(debug.Stack()))
			out = entity.Failed(e.Name, fmt.Sprintf("internal error: %v", r), "")
		}
	}()

	data, err := e.ReadAll(b.cfg.MaxEntryBytes)
	if err != nil {
		b.logger.Warn("batch.image.read_failed", "session_id", sessionID, "filename", e.Name, "error", err)
		return entity.Failed(e.Name, err.Error(), "")
	}
	return b.worker.Process(ctx, WorkItem{
		SessionID: sessionID,
		Index:     index,
		Name:      e.Name,
		Data:      data,
		Mode:      mode,
	})
}

func (b *Batch) report(ctx context.Context, sessionID string, current, total int, message string) {
	if b.progress == nil {
		return
	}
	if err := b.progress.Update(ctx, sessionID, current, total, message); err != nil {
		b.logger.Warn("batch.progress.write_failed", "session_id", sessionID, "error", err)
	}
}

func (b *Batch) pause(ctx context.Context) {
	if b.cfg.CompletionDelay <= 0 {
		return
	}
	t := time.NewTimer(b.cfg.CompletionDelay)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
