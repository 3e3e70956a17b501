package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"

	"github.com/phanvandien/ocr-script/internal/common"
)

const (
	DefaultMaxAttempts = 2
	DefaultRetryPause  = time.Second
)

// Extractor calls an Oracle with retries and validates what comes back.
type Extractor struct {
	oracle      Oracle
	logger      *slog.Logger
	maxAttempts int
	pause       time.Duration
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithMaxAttempts sets the total number of oracle calls per image.
func WithMaxAttempts(n int) ExtractorOption {
	return func(e *Extractor) {
		if n > 0 {
			e.maxAttempts = n
		}
	}
}

// WithRetryPause sets the fixed pause between attempts.
func WithRetryPause(d time.Duration) ExtractorOption {
	return func(e *Extractor) {
		if d >= 0 {
			e.pause = d
		}
	}
}

func NewExtractor(oracle Oracle, logger *slog.Logger, opts ...ExtractorOption) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Extractor{
		oracle:      oracle,
		logger:      logger,
		maxAttempts: DefaultMaxAttempts,
		pause:       DefaultRetryPause,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract sends the image to the oracle and returns the validated records.
// Transport errors, undecodable or mis-shaped output and responses with no
// valid items are all retried, up to the configured attempts.
func (e *Extractor) Extract(ctx context.Context, req ExtractRequest) (Payload, error) {
	rid := uuid.New().String()
	ctx = common.WithRequestID(ctx, rid)
	start := time.Now()
	if req.Prompt == "" {
		req.Prompt = PromptFor(req.Mode)
	}
	oreq := OracleRequest{
		Prompt:       req.Prompt,
		ImageDataURL: DataURL(req.Image, DetectImageMIME(req.Image, req.Filename)),
		Filename:     req.Filename,
	}

	e.logger.Info("llm.extract.start",
		"req_id", rid,
		"session_id", common.SessionIDFromContext(ctx),
		"file", req.Filename,
		"mode", req.Mode,
		"image_bytes", len(req.Image),
		"max_attempts", e.maxAttempts,
	)

	attempt := 0
	op := func() (Payload, error) {
		attempt++
		text, err := e.oracle.Complete(ctx, oreq)
		if err != nil {
			if ctx.Err() != nil {
				return Payload{}, backoff.Permanent(fmt.Errorf("%w: %w", ErrOracleUnavailable, err))
			}
			return Payload{}, fmt.Errorf("%w: %w", ErrOracleUnavailable, err)
		}
		return ParseResponse(req.Mode, text, e.logger)
	}

	payload, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewConstantBackOff(e.pause)),
		backoff.WithMaxTries(uint(e.maxAttempts)),
		backoff.WithNotify(func(err error, next time.Duration) {
			e.logger.Warn("llm.extract.retry",
				"req_id", rid,
				"file", req.Filename,
				"attempt", attempt,
				"error", err,
				"next_in_ms", next.Milliseconds(),
			)
		}),
	)
	if err != nil {
		if !errors.Is(err, ErrSchemaInvalid) && !errors.Is(err, ErrNoDataExtracted) && !errors.Is(err, ErrOracleUnavailable) {
			err = fmt.Errorf("%w: %w", ErrOracleUnavailable, err)
		}
		e.logger.Error("llm.extract.failed",
			"req_id", rid,
			"session_id", common.SessionIDFromContext(ctx),
			"file", req.Filename,
			"attempts", attempt,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return payload, err
	}

	e.logger.Info("llm.extract.ok",
		"req_id", rid,
		"file", req.Filename,
		"records", len(payload.Records),
		"dropped", payload.Dropped,
		"attempts", attempt,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return payload, nil
}

var _ FieldExtractor = (*Extractor)(nil)
