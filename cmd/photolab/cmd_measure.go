package main

import (
	"fmt"

	"github.com/nvandessel/photolab/internal/dataset"
	"github.com/spf13/cobra"
)

func newMeasureCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "measure",
		Short: "Take averaged current readings at the applied voltage",
		Long: `Take one or more averaged current readings at the applied voltage.

Each reading draws --rounds noisy samples and records their mean and
standard error as one data point.

Examples:
  photolab measure --material Cs --wavelength 400 --voltage 0.5
  photolab measure --count 5 --export readings.csv`,
		RunE: runMeasure,
	}
	addExperimentFlags(cmd)
	cmd.Flags().Int("count", 1, "Number of readings to take")
	cmd.Flags().String("export", "", "Write the readings to a CSV file")
	return cmd
}

func runMeasure(cmd *cobra.Command, args []string) error {
	count, _ := cmd.Flags().GetInt("count")
	if count < 1 {
		return fmt.Errorf("--count must be at least 1, got %d", count)
	}

	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	points := make([]dataset.DataPoint, 0, count)
	for range count {
		if ctx.Err() != nil {
			break
		}
		dp, err := a.session.Measure(ctx)
		if err != nil {
			return err
		}
		points = append(points, dp)
	}

	if err := exportIfRequested(cmd, a, points); err != nil {
		return err
	}

	if jsonOutput(cmd) {
		return writeJSON(cmd.OutOrStdout(), map[string]any{
			"points": points,
			"count":  len(points),
		})
	}

	printPoints(cmd.OutOrStdout(), points)
	if len(points) < count {
		fmt.Fprintf(cmd.OutOrStdout(), "Interrupted after %d of %d readings\n", len(points), count)
	}
	return nil
}

// exportIfRequested writes points to the --export path, if one was given.
func exportIfRequested(cmd *cobra.Command, a *app, points []dataset.DataPoint) error {
	path, _ := cmd.Flags().GetString("export")
	if path == "" {
		return nil
	}
	if err := exportCSV(path, points, a.session.Parameters().NoiseLevel); err != nil {
		return fmt.Errorf("failed to export: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d point(s) to %s\n", len(points), path)
	return nil
}
