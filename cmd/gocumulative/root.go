package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gitrdm/gocumulative/internal/logging"
)

var (
	// Global flags
	verbose bool
	jsonLog bool
	quiet   bool

	// log is the process-wide logger, set before any subcommand runs.
	log *slog.Logger = logging.Discard()
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "gocumulative",
	Short: "Bounds propagation for cumulative scheduling instances",
	Long: `gocumulative reads single-resource scheduling instances and runs
bounds-consistent propagation over the start-time windows.

Core Commands:
  propagate    Tighten start windows to a propagation fixpoint
  check        Test a concrete start assignment against the capacity
  bench        Propagate a batch of instances concurrently
  version      Show version information

An instance file lists one resource capacity and a set of jobs, each
with a duration, a demand, and an [earliest, latest] start window.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := "info"
		if verbose {
			level = "debug"
		}
		l, err := logging.New(logging.Config{Level: level, JSON: jsonLog, Quiet: quiet})
		if err != nil {
			return err
		}
		log = l
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonLog, "json", false, "Log in JSON instead of text")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress logging entirely")
}
