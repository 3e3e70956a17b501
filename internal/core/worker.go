package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"runtime/debug"
	"strings"
	"time"

	"github.com/phanvandien/ocr-script/constants"
	"github.com/phanvandien/ocr-script/internal/common"
	"github.com/phanvandien/ocr-script/internal/entity"
	"github.com/phanvandien/ocr-script/internal/imaging"
	"github.com/phanvandien/ocr-script/internal/llm"
	"github.com/phanvandien/ocr-script/internal/media"
)

// WorkItem is one image handed to a Worker.
type WorkItem struct {
	SessionID string
	Index     int // position in the run, used for unique media keys
	Name      string
	Data      []byte
	Mode      constants.Mode
	// MediaKey overrides the key derived from Index and Name.
	MediaKey string
}

// ImageProcessor turns one image into an outcome. It never fails.
type ImageProcessor interface {
	Process(ctx context.Context, item WorkItem) entity.ImageOutcome
}

// Worker prepares an image, keeps a copy in media storage and extracts records.
type Worker struct {
	extractor   llm.FieldExtractor
	media       media.Store
	logger      *slog.Logger
	maxVisionMB float64
}

func NewWorker(extractor llm.FieldExtractor, mediaStore media.Store, logger *slog.Logger, maxVisionMB float64) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	if maxVisionMB <= 0 {
		maxVisionMB = constants.MaxVisionMB
	}
	return &Worker{
		extractor:   extractor,
		media:       mediaStore,
		logger:      logger,
		maxVisionMB: maxVisionMB,
	}
}

// Process runs the per-image pipeline. Panics become failure outcomes.
func (w *Worker) Process(ctx context.Context, item WorkItem) (out entity.ImageOutcome) {
	ctx = common.WithSessionID(ctx, item.SessionID)
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("worker.panic",
				"session_id", item.SessionID,
				"filename", item.Name,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			key := out.ImageKey
			out = entity.Failed(item.Name, fmt.Sprintf("internal error: %v", r), out.ImagePath)
			out.ImageKey = key
		}
	}()

	prepared := imaging.Prepare(item.Data, w.maxVisionMB)
	imagePath, imageKey := w.persist(ctx, item, prepared)
	out.ImagePath = imagePath
	out.ImageKey = imageKey

	payload, err := w.extractor.Extract(ctx, llm.NewExtractRequest(prepared, item.Name, item.Mode))
	if err != nil {
		reason := err.Error()
		if errors.Is(err, llm.ErrNoDataExtracted) {
			reason = "no data extracted"
		}
		w.logger.Warn("worker.image.failed",
			"session_id", item.SessionID,
			"filename", item.Name,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		out = entity.Failed(item.Name, reason, imagePath)
		out.ImageKey = imageKey
		return out
	}

	w.logger.Info("worker.image.ok",
		"session_id", item.SessionID,
		"filename", item.Name,
		"records", len(payload.Records),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	out = entity.Succeeded(item.Name, payload.Records, imagePath)
	out.ImageKey = imageKey
	return out
}

// persist stores the prepared image and returns its location and key. Failures
// only cost the image link.
func (w *Worker) persist(ctx context.Context, item WorkItem, data []byte) (string, string) {
	if w.media == nil {
		return "", ""
	}
	mimeType := llm.DetectImageMIME(data, item.Name)
	ext := constants.NormalizeExt(path.Ext(item.Name))
	switch mimeType {
	case "image/jpeg":
		ext = "jpg"
	case "image/png":
		ext = "png"
	}
	key := item.MediaKey
	if key == "" {
		key = media.ImageKey(item.SessionID, item.Index, item.Name, ext)
	} else if path.Ext(key) != "."+ext {
		key = strings.TrimSuffix(key, path.Ext(key)) + "." + ext
	}
	loc, err := w.media.Save(ctx, key, data, mimeType)
	if err != nil {
		w.logger.Warn("worker.image.persist_failed", "session_id", item.SessionID, "filename", item.Name, "key", key, "error", err)
		return "", ""
	}
	return loc, key
}

var _ ImageProcessor = (*Worker)(nil)
