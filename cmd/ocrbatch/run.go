package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/phanvandien/ocr-script/internal/core"
	"github.com/phanvandien/ocr-script/internal/export"
)

var (
	runMode    string
	runExcel   string
	runOutDir  string
	runSession string
	runNoExcel bool
)

var runCmd = &cobra.Command{
	Use:   "run <archive.zip>",
	Short: "Process one archive and write its spreadsheet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := parseModeFlag(runMode)
		if err != nil {
			return err
		}
		excel, err := export.CleanFilename(runExcel)
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

		res, err := a.task.Run(ctx, core.Job{
			SessionID:     runSession,
			ArchivePath:   args[0],
			Mode:          mode,
			ExcelFilename: excel,
		})
		if err != nil {
			return err
		}

		if !runNoExcel && res.TotalRecords > 0 {
			if err := a.writeWorkbook(res, filepath.Join(runOutDir, res.ExcelFilename)); err != nil {
				return err
			}
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(summaryOf(res)); err != nil {
			return fmt.Errorf("print summary: %w", err)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runMode, "mode", "transcript", "processing mode (transcript, certificate)")
	runCmd.Flags().StringVar(&runExcel, "excel", "", "spreadsheet file name (default ocr_ketqua.xlsx)")
	runCmd.Flags().StringVar(&runOutDir, "out", ".", "directory to write the spreadsheet into")
	runCmd.Flags().StringVar(&runSession, "session", "", "session id (generated when empty)")
	runCmd.Flags().BoolVar(&runNoExcel, "no-excel", false, "skip writing the spreadsheet")
}
