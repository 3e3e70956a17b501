package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phanvandien/ocr-script/constants"
	"github.com/phanvandien/ocr-script/internal/records"
)

var editCmd = &cobra.Command{
	Use:   "edit <session-id> <index> <field=value>...",
	Short: "Correct fields of one extracted record",
	Long: fmt.Sprintf("Correct fields of the index-th record (0-based, as listed by export --list).\n"+
		"Transcript fields: %s\nCertificate fields: %s",
		strings.Join(records.SortedFields(constants.ModeTranscript), ", "),
		strings.Join(records.SortedFields(constants.ModeCertificate), ", ")),
	Args: cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid index %q: %w", args[1], err)
		}
		fields, err := parseAssignments(args[2:])
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := a.Close(); cerr != nil {
				a.logger.Warn("app.close.failed", "error", cerr)
			}
		}()

		res, err := a.records.Edit(cmd.Context(), args[0], index, fields)
		if err != nil {
			return err
		}
		return json.NewEncoder(cmd.OutOrStdout()).Encode(res.Data[index])
	},
}

var replaceImageCmd = &cobra.Command{
	Use:   "replace-image <session-id> <image-file>",
	Short: "Re-extract one image of a session from a corrected scan",
	Long: "Re-run extraction for the image of the session whose file name matches\n" +
		"the base name of image-file, replacing its records.",
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := a.Close(); cerr != nil {
				a.logger.Warn("app.close.failed", "error", cerr)
			}
		}()

		res, err := a.records.ReplaceImage(cmd.Context(), args[0], filepath.Base(args[1]), data)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(summaryOf(res))
	},
}

// parseAssignments turns field=value pairs into an edit set. Values are passed
// as strings; the records service coerces them per field.
func parseAssignments(pairs []string) (map[string]any, error) {
	fields := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("expected field=value, got %q", p)
		}
		fields[k] = v
	}
	return fields, nil
}
