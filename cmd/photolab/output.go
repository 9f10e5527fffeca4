package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/nvandessel/photolab/internal/dataset"
	"github.com/nvandessel/photolab/internal/experiment"
	"github.com/nvandessel/photolab/internal/export"
	"github.com/nvandessel/photolab/internal/physics"
	"github.com/spf13/cobra"
)

func jsonOutput(cmd *cobra.Command) bool {
	jsonOut, _ := cmd.Flags().GetBool("json")
	return jsonOut
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newTable returns a light-style table writer with the given header and
// right-aligned numeric columns.
func newTable(header table.Row, numericCols ...int) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(header)
	cfgs := make([]table.ColumnConfig, 0, len(numericCols))
	for _, n := range numericCols {
		cfgs = append(cfgs, table.ColumnConfig{Number: n, Align: text.AlignRight})
	}
	t.SetColumnConfigs(cfgs)
	return t
}

// printPoints renders points as a table.
func printPoints(w io.Writer, points []dataset.DataPoint) {
	t := newTable(table.Row{"#", "Material", "λ (nm)", "V (V)", "I (nA)", "± SE (nA)", "Rounds"}, 1, 3, 4, 5, 6, 7)
	for i, p := range points {
		t.AppendRow(table.Row{
			i + 1,
			p.Material,
			fmt.Sprintf("%g", p.WavelengthNm),
			fmt.Sprintf("%.2f", p.VoltageV),
			fmt.Sprintf("%.4f", p.CurrentNa),
			fmt.Sprintf("%.4f", p.ErrorNa),
			len(p.RawMeasurements),
		})
	}
	fmt.Fprintln(w, t.Render())
}

// printSummary writes derived statistics as indented lines.
func printSummary(w io.Writer, s dataset.Summary) {
	fmt.Fprintf(w, "Points:            %d in %d group(s)\n", s.Points, s.Groups)
	if s.ThresholdVoltageV != nil {
		fmt.Fprintf(w, "Threshold voltage: %.2f V\n", *s.ThresholdVoltageV)
	} else {
		fmt.Fprintln(w, "Threshold voltage: -")
	}
	if s.Correlation != nil {
		fmt.Fprintf(w, "Correlation:       %.4f\n", *s.Correlation)
	} else {
		fmt.Fprintln(w, "Correlation:       -")
	}
}

// printReadout renders the derived quantities of the current parameters.
func printReadout(w io.Writer, r experiment.Readout) {
	t := newTable(table.Row{"Quantity", "Value"}, 2)
	material := "(none selected)"
	if r.Material != "" {
		material = r.Material
	}
	t.AppendRows([]table.Row{
		{"Material", material},
		{"Wavelength", fmt.Sprintf("%g nm (%s)", r.WavelengthNm, r.Band)},
		{"Intensity", fmt.Sprintf("%g μW/cm²", r.IntensityUwCm2)},
		{"Voltage", fmt.Sprintf("%.2f V", r.VoltageV)},
		{"Photon energy", fmt.Sprintf("%.3f eV", r.PhotonEnergyEv)},
	})
	if r.Material != "" {
		t.AppendRows([]table.Row{
			{"Work function", fmt.Sprintf("%.2f eV", r.WorkFunctionEv)},
			{"Threshold wavelength", fmt.Sprintf("%.1f nm", r.ThresholdWavelengthNm)},
			{"Max kinetic energy", fmt.Sprintf("%.3f eV", r.MaxKineticEnergyEv)},
			{"Stopping potential", fmt.Sprintf("%.3f V", r.StoppingPotentialV)},
			{"Emission", yesNo(r.Emits)},
		})
	}
	fmt.Fprintln(w, t.Render())
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// exportCSV writes points to path in the CSV export format.
func exportCSV(path string, points []dataset.DataPoint, noiseLevel float64) error {
	return export.WriteFile(path, points, export.Metadata{
		ExportedAt: time.Now(),
		Constants:  physics.StandardConstants(),
		NoiseLevel: noiseLevel,
	})
}
