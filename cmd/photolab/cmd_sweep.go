package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/nvandessel/photolab/internal/constants"
	"github.com/nvandessel/photolab/internal/dataset"
	"github.com/nvandessel/photolab/internal/experiment"
	"github.com/nvandessel/photolab/internal/plot"
	"github.com/nvandessel/photolab/internal/sweep"
	"github.com/spf13/cobra"
)

func newSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Sweep the applied voltage and record an I-V curve",
		Long: `Step the applied voltage from --min to --max, taking one averaged
reading per step. Press Ctrl-C to stop early; readings already taken are
kept, exported and plotted.

Examples:
  photolab sweep --material K --wavelength 450
  photolab sweep --min -2 --max 1 --step 0.2 --export iv.csv --plot iv.png`,
		RunE: runSweep,
	}
	addExperimentFlags(cmd)
	cmd.Flags().Float64("min", 0, "Sweep start voltage (default from config)")
	cmd.Flags().Float64("max", 0, "Sweep end voltage (default from config)")
	cmd.Flags().Float64("step", 0, "Voltage step, at least 0.1 V (default from config)")
	cmd.Flags().String("export", "", "Write the recorded points to a CSV file")
	cmd.Flags().String("plot", "", "Render the I-V chart to a .png or .svg file")
	cmd.Flags().Bool("quiet", false, "Do not print progress")
	return cmd
}

// sweepReport is the JSON output of the sweep command.
type sweepReport struct {
	*experiment.SweepResult
	Stats dataset.Summary `json:"stats"`
	Seed  uint64          `json:"seed"`
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("min") {
		cfg.Sweep.MinV, _ = flags.GetFloat64("min")
	}
	if flags.Changed("max") {
		cfg.Sweep.MaxV, _ = flags.GetFloat64("max")
	}
	if flags.Changed("step") {
		cfg.Sweep.StepV, _ = flags.GetFloat64("step")
	}
	if err := cfg.Sweep.Validate(); err != nil {
		return err
	}

	plotPath, _ := flags.GetString("plot")
	if plotPath != "" {
		if _, err := plot.ParseFormat(filepath.Ext(plotPath)); err != nil {
			return err
		}
	}

	a, err := openApp(cmd, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	var progress func(sweep.Progress)
	if quiet, _ := flags.GetBool("quiet"); !quiet && !jsonOutput(cmd) {
		progress = progressPrinter(cmd.ErrOrStderr())
	}

	res, err := a.session.Sweep(cmd.Context(), cfg.Sweep, progress)
	if progress != nil {
		fmt.Fprintln(cmd.ErrOrStderr())
	}
	if err != nil {
		return err
	}

	if err := exportIfRequested(cmd, a, res.Points); err != nil {
		return err
	}
	if plotPath != "" && len(res.Points) > 0 {
		if err := plot.RenderFile(plotPath, res.Points, plot.DefaultOptions()); err != nil {
			return fmt.Errorf("failed to plot: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Plot written to %s\n", plotPath)
	}

	stats := dataset.Summarize(res.Points, constants.DefaultCurrentEpsilon)
	if jsonOutput(cmd) {
		return writeJSON(cmd.OutOrStdout(), sweepReport{SweepResult: res, Stats: stats, Seed: a.seed})
	}

	out := cmd.OutOrStdout()
	printPoints(out, res.Points)
	if res.Cancelled {
		fmt.Fprintf(out, "Sweep cancelled after %d of %d steps\n", len(res.Points), res.Total)
	}
	printSummary(out, stats)
	return nil
}

// progressPrinter rewrites a single progress line on w.
func progressPrinter(w io.Writer) func(sweep.Progress) {
	return func(p sweep.Progress) {
		fmt.Fprintf(w, "\rSweeping %3.0f%% (%d/%d) at %+.1f V", p.Fraction*100, p.Index+1, p.Total, p.VoltageV)
	}
}
