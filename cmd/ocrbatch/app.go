package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/hashicorp/go-multierror"

	"github.com/phanvandien/ocr-script/constants"
	"github.com/phanvandien/ocr-script/internal/common"
	"github.com/phanvandien/ocr-script/internal/core"
	"github.com/phanvandien/ocr-script/internal/entity"
	"github.com/phanvandien/ocr-script/internal/export"
	"github.com/phanvandien/ocr-script/internal/llm"
	"github.com/phanvandien/ocr-script/internal/llm/openai"
	"github.com/phanvandien/ocr-script/internal/media"
	"github.com/phanvandien/ocr-script/internal/progress"
	"github.com/phanvandien/ocr-script/internal/records"
	"github.com/phanvandien/ocr-script/internal/store"
)

// app holds the resources shared by every subcommand.
type app struct {
	cfg     *common.Config
	logger  *slog.Logger
	store   store.Store
	tracker *progress.Tracker
	records *records.Service
	export  *export.Service

	worker *core.Worker
	task   *core.Task

	closers []func() error
}

// newApp loads configuration and opens the result store. withOracle also
// builds the extraction pipeline, which requires model credentials.
func newApp(ctx context.Context, withOracle bool) (*app, error) {
	cfg, err := common.LoadConfig()
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	if logFile != "" {
		cfg.Log.File = logFile
	}
	if withOracle {
		err = cfg.Validate()
	} else {
		err = cfg.ValidateStorage()
	}
	if err != nil {
		return nil, err
	}

	logger, closeLog, err := common.NewLogger(cfg.Log, os.Stderr)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	a := &app{cfg: cfg, logger: logger, closers: []func() error{closeLog}}

	s, err := store.Open(ctx, store.Config{
		Driver:      cfg.Store.Driver,
		DSN:         cfg.Store.DSN,
		DialTimeout: cfg.Store.DialTimeout,
		MaxConns:    cfg.Store.MaxConns,
	}, logger)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}
	a.store = s
	a.closers = append(a.closers, s.Close)
	a.tracker = progress.NewTracker(s, cfg.Store.ProgressTTL, logger)
	a.export = export.NewService(logger)

	if withOracle {
		if err := a.buildPipeline(ctx); err != nil {
			_ = a.Close()
			return nil, err
		}
	}
	var processor core.ImageProcessor
	if a.worker != nil {
		processor = a.worker
	}
	a.records = records.NewService(s, processor, cfg.Store.ResultTTL, logger)

	logger.Debug("app.ready", "store", cfg.Store.Driver, "media", cfg.Media.Driver, "oracle", withOracle)
	return a, nil
}

func (a *app) buildPipeline(ctx context.Context) error {
	cfg := a.cfg
	mediaStore, err := media.New(ctx, media.Config{
		Driver:           cfg.Media.Driver,
		Root:             cfg.Media.Root,
		ConnectionString: cfg.Media.ConnectionString,
		Container:        cfg.Media.Container,
	}, a.logger)
	if err != nil {
		return fmt.Errorf("open media store: %w", err)
	}

	client := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, a.logger)
	extractor := llm.NewExtractor(client, a.logger,
		llm.WithMaxAttempts(cfg.LLM.MaxAttempts),
		llm.WithRetryPause(cfg.LLM.RetryPause),
	)

	a.worker = core.NewWorker(extractor, mediaStore, a.logger, constants.MaxVisionMB)
	batch := core.NewBatch(a.worker, a.tracker, core.BatchConfig{
		MaxImages:       cfg.Batch.MaxImages,
		Workers:         cfg.Batch.Workers,
		MaxEntryBytes:   constants.MaxEntryBytes,
		CompletionDelay: cfg.Batch.CompletionDelay,
		PerImageTimeout: cfg.Batch.PerImageTimeout,
	}, a.logger)
	a.task = core.NewTask(batch, a.store, a.tracker, cfg.Store.ResultTTL, cfg.Store.FailureTTL, a.logger)
	return nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var result *multierror.Error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// writeWorkbook renders res and writes it to path.
func (a *app) writeWorkbook(res *entity.BatchResult, path string) error {
	b, err := a.export.Workbook(res)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	a.logger.Info("export.xlsx.written", "session_id", res.SessionID, "path", path, "records", res.TotalRecords)
	return nil
}

// parseModeFlag accepts an empty value as transcript.
func parseModeFlag(v string) (constants.Mode, error) {
	if v == "" {
		return constants.ModeTranscript, nil
	}
	return constants.ParseMode(v)
}
