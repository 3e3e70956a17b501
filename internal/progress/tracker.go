// Package progress publishes per-session progress events to the store.
package progress

import (
	"context"
	"log/slog"
	"time"

	"github.com/phanvandien/ocr-script/constants"
	"github.com/phanvandien/ocr-script/internal/entity"
	"github.com/phanvandien/ocr-script/internal/store"
)

const DefaultTTL = time.Hour

// Tracker overwrites progress:<session> on every update.
type Tracker struct {
	store  store.Store
	ttl    time.Duration
	logger *slog.Logger
}

func NewTracker(s store.Store, ttl time.Duration, logger *slog.Logger) *Tracker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{store: s, ttl: ttl, logger: logger}
}

// Update records a running event. Write failures are logged and returned;
// callers treat them as non-fatal.
func (t *Tracker) Update(ctx context.Context, sessionID string, current, total int, message string) error {
	return t.Publish(ctx, sessionID, entity.NewProgressEvent(current, total, message, constants.TaskStatusRunning))
}

// Finish records the terminal event of a session.
func (t *Tracker) Finish(ctx context.Context, sessionID string, current, total int, message string, status constants.TaskStatus) error {
	return t.Publish(ctx, sessionID, entity.NewProgressEvent(current, total, message, status))
}

func (t *Tracker) Publish(ctx context.Context, sessionID string, ev entity.ProgressEvent) error {
	if err := store.SetJSON(ctx, t.store, store.ProgressKey(sessionID), ev, t.ttl); err != nil {
		t.logger.Warn("progress.write_failed", "session_id", sessionID, "current", ev.Current, "total", ev.Total, "error", err)
		return err
	}
	t.logger.Debug("progress.updated", "session_id", sessionID, "current", ev.Current, "total", ev.Total, "message", ev.Message)
	return nil
}

// Get returns the latest event, or store.ErrNotFound.
func (t *Tracker) Get(ctx context.Context, sessionID string) (entity.ProgressEvent, error) {
	var ev entity.ProgressEvent
	err := store.GetJSON(ctx, t.store, store.ProgressKey(sessionID), &ev)
	return ev, err
}
