package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/phanvandien/ocr-script/internal/async"
	"github.com/phanvandien/ocr-script/internal/core"
	"github.com/phanvandien/ocr-script/internal/entity"
	"github.com/phanvandien/ocr-script/internal/ingest"
)

var (
	watchDirs        []string
	watchMode        string
	watchOutDir      string
	watchInitialScan bool
	watchDebounce    time.Duration
	watchDrain       time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Process every archive dropped into the inbox directories",
	Long: "Watch directories for .zip archives and queue one batch per archive version.\n" +
		"Archives under a directory named \"transcript\" or \"certificate\" use that mode.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		mode, err := parseModeFlag(watchMode)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, true)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := a.Close(); cerr != nil {
				a.logger.Warn("app.close.failed", "error", cerr)
			}
		}()

		queue := async.NewProcessorQueue(a.task, a.logger,
			async.WithWorkers(a.cfg.Batch.QueueWorkers),
			async.WithTracker(a.tracker),
			async.WithResultHook(func(job core.Job, res *entity.BatchResult, err error) {
				if err != nil || res == nil || res.TotalRecords == 0 {
					return
				}
				dir := watchOutDir
				if dir == "" {
					dir = filepath.Dir(job.ArchivePath)
				}
				if werr := a.writeWorkbook(res, filepath.Join(dir, res.ExcelFilename)); werr != nil {
					a.logger.Error("export.xlsx.failed", "session_id", job.SessionID, "error", werr)
				}
			}),
		)

		paths, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
			Roots:       watchDirs,
			InitialScan: watchInitialScan,
			Debounce:    watchDebounce,
		}, a.logger)
		if err != nil {
			queue.Shutdown(context.Background())
			return err
		}

		inbox := ingest.NewInbox(queue, mode, a.logger)
		a.logger.Info("watch.started", "dirs", watchDirs, "mode", mode)
		inbox.Run(ctx, paths, errs)

		drainCtx, cancel := context.WithTimeout(context.Background(), watchDrain)
		defer cancel()
		queue.Shutdown(drainCtx)

		st := inbox.Stats()
		a.logger.Info("watch.stopped", "seen", st.Seen, "queued", st.Queued, "skipped", st.Skipped, "failed", st.Failed)
		return nil
	},
}

func init() {
	watchCmd.Flags().StringSliceVar(&watchDirs, "dir", []string{"./inbox"}, "directory to watch (repeatable)")
	watchCmd.Flags().StringVar(&watchMode, "mode", "transcript", "default processing mode")
	watchCmd.Flags().StringVar(&watchOutDir, "out", "", "spreadsheet directory (default: next to the archive)")
	watchCmd.Flags().BoolVar(&watchInitialScan, "initial-scan", true, "queue archives already present at startup")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 2*time.Second, "wait for writes to settle before queueing")
	watchCmd.Flags().DurationVar(&watchDrain, "drain-timeout", 5*time.Minute, "how long to wait for queued jobs on shutdown")
}
