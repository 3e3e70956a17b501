package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/phanvandien/ocr-script/internal/entity"
	"github.com/phanvandien/ocr-script/internal/export"
	"github.com/phanvandien/ocr-script/internal/records"
)

var (
	exportOut    string
	exportFilter records.Filter
	exportList   bool
)

var exportCmd = &cobra.Command{
	Use:   "export <session-id>",
	Short: "Write the spreadsheet of a stored session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := a.Close(); cerr != nil {
				a.logger.Warn("app.close.failed", "error", cerr)
			}
		}()

		res, err := a.records.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		matches := exportFilter.Apply(res)

		if exportList {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(matches)
		}

		view := *res
		view.Data = make([]entity.Record, 0, len(matches))
		for _, m := range matches {
			view.Data = append(view.Data, m.Record)
		}
		view.TotalRecords = len(view.Data)
		if view.TotalRecords == 0 {
			return fmt.Errorf("session %s has no matching records", args[0])
		}

		path := exportOut
		if path == "" {
			name, err := export.CleanFilename(res.ExcelFilename)
			if err != nil {
				return err
			}
			path = filepath.Join(".", name)
		}
		if err := a.writeWorkbook(&view, path); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output path (default: the session's spreadsheet name)")
	exportCmd.Flags().StringVar(&exportFilter.SeatNumber, "sbd", "", "only records whose seat number contains this")
	exportCmd.Flags().StringVar(&exportFilter.FullName, "name", "", "only records whose full name contains this")
	exportCmd.Flags().StringVar(&exportFilter.Major, "major", "", "only records whose major contains this")
	exportCmd.Flags().BoolVar(&exportList, "list", false, "print matching records with their indexes instead of writing a file")
}
