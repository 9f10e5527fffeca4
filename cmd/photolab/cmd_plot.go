package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nvandessel/photolab/internal/dataset"
	"github.com/nvandessel/photolab/internal/export"
	"github.com/nvandessel/photolab/internal/plot"
	"github.com/spf13/cobra"
)

func newPlotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot <data.csv>",
		Short: "Render an I-V chart from an exported CSV file",
		Long: `Render the I-V characteristic curve of a CSV export as PNG or SVG.
Each (material, wavelength) group becomes one line, with dashed standard
error bands.

Examples:
  photolab plot iv.csv                  # writes iv.png
  photolab plot iv.csv --out iv.svg --title "Potassium at 450 nm"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := args[0]
			out, _ := cmd.Flags().GetString("out")
			if out == "" {
				out = strings.TrimSuffix(in, filepath.Ext(in)) + ".png"
			}

			opts := plot.DefaultOptions()
			if title, _ := cmd.Flags().GetString("title"); title != "" {
				opts.Title = title
			}
			if w, _ := cmd.Flags().GetInt("width"); w > 0 {
				opts.Width = w
			}
			if h, _ := cmd.Flags().GetInt("height"); h > 0 {
				opts.Height = h
			}
			if noErr, _ := cmd.Flags().GetBool("no-error-bands"); noErr {
				opts.ErrorBands = false
			}

			points, err := readCSV(in)
			if err != nil {
				return err
			}
			if err := plot.RenderFile(out, points, opts); err != nil {
				return fmt.Errorf("failed to plot: %w", err)
			}

			if jsonOutput(cmd) {
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"path":   out,
					"points": len(points),
					"groups": len(dataset.GroupPoints(points)),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Plot written to %s (%d points)\n", out, len(points))
			return nil
		},
	}
	cmd.Flags().String("out", "", "Output file, .png or .svg (default: input name with .png)")
	cmd.Flags().String("title", "", "Chart title")
	cmd.Flags().Int("width", 0, "Image width in pixels")
	cmd.Flags().Int("height", 0, "Image height in pixels")
	cmd.Flags().Bool("no-error-bands", false, "Omit the standard error bands")
	return cmd
}

// readCSV reads the data points of a CSV export.
func readCSV(path string) ([]dataset.DataPoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	points, err := export.ReadPoints(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return points, nil
}
