package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/phanvandien/ocr-script/constants"
	"github.com/phanvandien/ocr-script/internal/common"
	"github.com/phanvandien/ocr-script/internal/entity"
	"github.com/phanvandien/ocr-script/internal/progress"
	"github.com/phanvandien/ocr-script/internal/store"
)

// Job describes one uploaded archive waiting to be processed.
type Job struct {
	SessionID     string
	ArchivePath   string
	Mode          constants.Mode
	ExcelFilename string
	// Temporary archives are removed once the run finishes.
	Temporary bool
}

// Task runs a batch for a Job and writes its final result exactly once.
type Task struct {
	batch      *Batch
	store      store.Store
	tracker    *progress.Tracker
	resultTTL  time.Duration
	failureTTL time.Duration
	logger     *slog.Logger
}

func NewTask(batch *Batch, s store.Store, tracker *progress.Tracker, resultTTL, failureTTL time.Duration, logger *slog.Logger) *Task {
	if logger == nil {
		logger = slog.Default()
	}
	if resultTTL <= 0 {
		resultTTL = 2 * time.Hour
	}
	if failureTTL <= 0 {
		failureTTL = time.Hour
	}
	return &Task{
		batch:      batch,
		store:      s,
		tracker:    tracker,
		resultTTL:  resultTTL,
		failureTTL: failureTTL,
		logger:     logger,
	}
}

// Run processes job. The returned result is also stored under result:<session>.
// A non-nil error means the archive could not be processed; the failure result
// is still stored and returned.
func (t *Task) Run(ctx context.Context, job Job) (*entity.BatchResult, error) {
	if job.SessionID == "" {
		job.SessionID = uuid.NewString()
	}
	if job.ExcelFilename == "" {
		job.ExcelFilename = constants.DefaultExcelFilename
	}
	log := t.logger.With("session_id", job.SessionID)
	start := time.Now()
	log.Info("task.run.start", "archive", job.ArchivePath, "mode", job.Mode)

	if job.Temporary {
		defer func() {
			if err := os.Remove(job.ArchivePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
				log.Warn("task.cleanup.failed", "archive", job.ArchivePath, "error", err)
			}
		}()
	}

	res, runErr := t.runArchive(ctx, job)
	if runErr != nil {
		res = entity.FailedBatchResult(job.SessionID, job.Mode, runErr)
		res.ExcelFilename = job.ExcelFilename
		if err := store.SetJSON(ctx, t.store, store.ResultKey(job.SessionID), res, t.failureTTL); err != nil {
			log.Error("task.result.write_failed", "error", err)
		}
		t.finish(ctx, job.SessionID, 0, 0, "Lỗi: "+runErr.Error(), constants.TaskStatusFailed)
		log.Error("task.run.failed", "error", runErr, "elapsed_ms", time.Since(start).Milliseconds())
		return res, runErr
	}

	res.ExcelFilename = job.ExcelFilename
	if err := store.SetJSON(ctx, t.store, store.ResultKey(job.SessionID), res, t.resultTTL); err != nil {
		err = common.WrapError(err, "write result")
		log.Error("task.result.write_failed", "error", err)
		t.finish(ctx, job.SessionID, 0, 0, "Lỗi: "+err.Error(), constants.TaskStatusFailed)
		return res, err
	}
	t.finish(ctx, job.SessionID, res.TotalImages, res.TotalImages,
		fmt.Sprintf("Xong! %d/%d ảnh", res.SuccessfulImages, res.TotalImages), constants.TaskStatusDone)

	log.Info("task.run.done",
		"images", res.TotalImages,
		"successful", res.SuccessfulImages,
		"records", res.TotalRecords,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (t *Task) runArchive(ctx context.Context, job Job) (*entity.BatchResult, error) {
	f, err := os.Open(job.ArchivePath)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat archive: %w", err)
	}
	return t.batch.Run(ctx, f, st.Size(), job.Mode, job.SessionID)
}

func (t *Task) finish(ctx context.Context, sessionID string, current, total int, message string, status constants.TaskStatus) {
	if t.tracker == nil {
		return
	}
	_ = t.tracker.Finish(ctx, sessionID, current, total, message, status)
}
