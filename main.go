package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	configPath string
	verbose    bool
	timeout    time.Duration

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "zbudget",
	Short: "Groundwater zone budget post-processor",
	Long: `zbudget aggregates element-level groundwater budget output into
user-defined zones and writes per-zone inflow/outflow reports.

Inputs are a zone definition file and a budget store snapshot. Settings come
from ZBUDGET_* environment variables, an optional YAML config, and flags.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML run config (default: $ZBUDGET_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Minute, "Run timeout")

	addSourceFlags(runCmd)
	addOutputFlags(runCmd)
	runCmd.Flags().String("database-url", "", "Persist the run to Postgres")
	runCmd.Flags().String("metrics-textfile", "", "Write run metrics to a node exporter textfile")
	runCmd.Flags().String("notify-webhook", "", "Post a run summary to this webhook")

	timestepsCmd.Flags().Float64("delta", 1, "Step size in units")
	timestepsCmd.Flags().String("unit", "1MON", "Step unit (1DAY, 1MON, 1YEAR)")

	addSourceFlags(columnsCmd)
	columnsCmd.Flags().IntSlice("cols", nil, "1-based report column ids (1 = first component IN)")
	_ = columnsCmd.MarkFlagRequired("cols")

	locationsCmd.Flags().String("source", "", "Location budget snapshot")
	locationsCmd.Flags().Float64("area-factor", 0, "Area conversion factor")
	locationsCmd.Flags().Float64("volume-factor", 0, "Volume conversion factor")
	locationsCmd.Flags().Float64("length-factor", 0, "Length conversion factor")
	locationsCmd.Flags().String("area-units", "", "Area unit name")
	locationsCmd.Flags().String("volume-units", "", "Volume unit name")
	addOutputFlags(locationsCmd)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(timestepsCmd)
	rootCmd.AddCommand(zonesCmd)
	rootCmd.AddCommand(columnsCmd)
	rootCmd.AddCommand(locationsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// commandContext bounds a command by the global timeout and interrupt signals.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}
