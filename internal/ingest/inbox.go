// Package ingest turns ZIP archives dropped into an inbox directory into batch jobs.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/phanvandien/ocr-script/constants"
	"github.com/phanvandien/ocr-script/internal/async"
	"github.com/phanvandien/ocr-script/internal/core"
	"github.com/phanvandien/ocr-script/internal/export"
)

// InboxStats summarizes what an Inbox has seen.
type InboxStats struct {
	Seen    uint32
	Queued  uint32
	Skipped uint32
	Failed  uint32
}

type stamp struct {
	size    int64
	modTime time.Time
}

// Inbox enqueues one job per distinct archive version.
type Inbox struct {
	queue       async.Queue
	defaultMode constants.Mode
	logger      *slog.Logger

	mu    sync.Mutex
	seen  map[string]stamp
	stats InboxStats
}

func NewInbox(queue async.Queue, defaultMode constants.Mode, logger *slog.Logger) *Inbox {
	if logger == nil {
		logger = slog.Default()
	}
	return &Inbox{
		queue:       queue,
		defaultMode: defaultMode,
		logger:      logger,
		seen:        make(map[string]stamp),
	}
}

// Submit enqueues path unless the same version of it was already queued.
func (in *Inbox) Submit(ctx context.Context, path string) (core.Job, bool, error) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.stats.Seen++

	st, err := os.Stat(path)
	if err != nil {
		in.stats.Failed++
		return core.Job{}, false, fmt.Errorf("stat %s: %w", path, err)
	}
	if st.IsDir() || !IsArchive(path) || IsHidden(path) {
		in.stats.Skipped++
		return core.Job{}, false, nil
	}
	cur := stamp{size: st.Size(), modTime: st.ModTime()}
	if prev, ok := in.seen[path]; ok && prev == cur {
		in.stats.Skipped++
		in.logger.Debug("ingest.inbox.duplicate", "path", path)
		return core.Job{}, false, nil
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	excel, err := export.CleanFilename(stem)
	if err != nil {
		excel = constants.DefaultExcelFilename
	}
	job := core.Job{
		SessionID:     uuid.NewString(),
		ArchivePath:   path,
		Mode:          ModeForPath(path, in.defaultMode),
		ExcelFilename: excel,
	}
	if err := in.queue.Enqueue(ctx, job); err != nil {
		in.stats.Failed++
		return job, false, fmt.Errorf("enqueue %s: %w", path, err)
	}
	in.seen[path] = cur
	in.stats.Queued++
	in.logger.Info("ingest.inbox.queued", "path", path, "session_id", job.SessionID, "mode", job.Mode)
	return job, true, nil
}

// Run submits every path from paths until it closes or ctx ends.
func (in *Inbox) Run(ctx context.Context, paths <-chan string, errs <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case p, ok := <-paths:
			if !ok {
				return
			}
			if _, _, err := in.Submit(ctx, p); err != nil {
				in.logger.Warn("ingest.inbox.submit_failed", "path", p, "error", err)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			in.logger.Warn("ingest.inbox.watch_error", "error", err)
		}
	}
}

func (in *Inbox) Stats() InboxStats {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.stats
}
