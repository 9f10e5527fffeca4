package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/nvandessel/photolab/internal/constants"
	"github.com/nvandessel/photolab/internal/dataset"
	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats <data.csv>",
		Short: "Compute threshold voltage and correlation of an exported CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eps, _ := cmd.Flags().GetFloat64("epsilon")
			if !(eps >= 0) {
				return fmt.Errorf("--epsilon must be non-negative, got %g", eps)
			}

			points, err := readCSV(args[0])
			if err != nil {
				return err
			}
			summary := dataset.Summarize(points, eps)
			groups := dataset.GroupPoints(points)

			if jsonOutput(cmd) {
				type groupStats struct {
					Label             string   `json:"label"`
					Points            int      `json:"points"`
					ThresholdVoltageV *float64 `json:"threshold_voltage,omitempty"`
				}
				gs := make([]groupStats, 0, len(groups))
				for _, g := range groups {
					item := groupStats{Label: g.Label, Points: len(g.Points)}
					if v, ok := dataset.ThresholdVoltage(g.Points, eps); ok {
						item.ThresholdVoltageV = &v
					}
					gs = append(gs, item)
				}
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"summary": summary,
					"groups":  gs,
				})
			}

			out := cmd.OutOrStdout()
			printSummary(out, summary)
			if len(groups) > 1 {
				t := newTable(table.Row{"Group", "Points", "Threshold (V)"}, 2, 3)
				for _, g := range groups {
					threshold := "-"
					if v, ok := dataset.ThresholdVoltage(g.Points, eps); ok {
						threshold = fmt.Sprintf("%.2f", v)
					}
					t.AppendRow(table.Row{g.Label, len(g.Points), threshold})
				}
				fmt.Fprintln(out, t.Render())
			}
			return nil
		},
	}
	cmd.Flags().Float64("epsilon", constants.DefaultCurrentEpsilon, "Current (nA) above which a point carries photocurrent")
	return cmd
}
