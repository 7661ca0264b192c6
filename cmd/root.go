package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/resumeload/resumeload/internal/config"
	"github.com/resumeload/resumeload/internal/logging"
	"github.com/resumeload/resumeload/internal/store"
)

// Version is set via ldflags during build.
var Version = "dev"

var (
	flagConcurrency int
	flagOutputDir   string
	flagDebug       bool
)

var rootCmd = &cobra.Command{
	Use:     "resumeload",
	Short:   "A resilient, resumable multi-file HTTP downloader",
	Long:    `resumeload fetches large HTTP resources as a sequence of byte-range chunks, persisting each as it arrives so a download survives network failures and process restarts.`,
	Version: Version,
}

// Execute runs the CLI; main calls this and exits on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().IntVar(&flagConcurrency, "concurrency", 2, "maximum number of downloads driven at once")
	rootCmd.PersistentFlags().StringVar(&flagOutputDir, "output-dir", ".", "directory assembled artifacts are written to")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging to stderr and the debug log file")

	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(listCmd)
}

func configureLogging() error {
	if err := config.EnsureDirs(); err != nil {
		return fmt.Errorf("preparing app directory: %w", err)
	}
	if err := logging.Configure(config.GetLogsDir(), flagDebug); err != nil {
		return fmt.Errorf("configuring logging: %w", err)
	}
	return nil
}

func openStore() (*store.Store, error) {
	if err := config.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("preparing app directory: %w", err)
	}
	st, err := store.Open(config.GetDBPath(), config.GetLockPath())
	if err != nil {
		return nil, fmt.Errorf("opening chunk store (is another resumeload already running?): %w", err)
	}
	return st, nil
}
