package main

import (
	"github.com/spf13/cobra"
)

var (
	logLevel  string
	logFormat string
	logFile   string
)

var rootCmd = &cobra.Command{
	Use:           "ocrbatch",
	Short:         "Extract transcript and certificate records from ZIP archives of scanned images",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "override log format (json, text)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also append JSON logs to this file")

	rootCmd.AddCommand(runCmd, watchCmd, exportCmd, progressCmd, editCmd, replaceImageCmd)
}
