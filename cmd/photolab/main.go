package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

const devVersion = "0.1.0-dev"

// Set via ldflags at build time.
var (
	version = devVersion
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := interruptContext(context.Background())
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "photolab",
		Short: "Photoelectric effect laboratory",
		Long: `photolab simulates a photoelectric effect experiment.

Pick a photocathode material, set the light wavelength and intensity,
and measure the photocurrent at an applied voltage, one reading at a time
or as a voltage sweep. Recorded data can be exported as CSV and plotted
as an I-V characteristic curve.`,
		SilenceUsage: true,
	}

	addGlobalFlags(rootCmd)

	rootCmd.AddCommand(
		newVersionCmd(),
		newMaterialsCmd(),
		newReadoutCmd(),
		newMeasureCmd(),
		newSweepCmd(),
		newPlotCmd(),
		newStatsCmd(),
		newServeCmd(),
		newMCPServerCmd(),
		newConfigCmd(),
	)

	return rootCmd
}

// addGlobalFlags registers the persistent flags shared by every command.
func addGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")
	cmd.PersistentFlags().String("config", "", "Config file (default ~/.photolab/config.yaml)")
	cmd.PersistentFlags().String("log-level", "", "Log level: trace, debug, info, warn")
	cmd.PersistentFlags().Uint64("seed", 0, "Noise seed; 0 picks a random seed")
	cmd.PersistentFlags().String("backend", "", "Data set backend: memory or sqlite")
	cmd.PersistentFlags().Duration("sample-delay", 0, "Settling delay per sample (e.g. 50ms, 0s)")
}

// interruptContext returns a context cancelled on the first Ctrl-C or
// SIGTERM. Sweeps and servers stop at their next step boundary.
func interruptContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
