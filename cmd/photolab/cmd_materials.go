package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/nvandessel/photolab/internal/physics"
	"github.com/spf13/cobra"
)

func newMaterialsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "materials",
		Short: "List photocathode materials and their work functions",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog := physics.Catalog()

			if jsonOutput(cmd) {
				type item struct {
					physics.Material
					ThresholdWavelengthNm float64 `json:"threshold_wavelength_nm"`
				}
				items := make([]item, 0, len(catalog))
				for _, m := range catalog {
					items = append(items, item{Material: m, ThresholdWavelengthNm: m.ThresholdWavelengthNm()})
				}
				return writeJSON(cmd.OutOrStdout(), map[string]any{"materials": items, "count": len(items)})
			}

			t := newTable(table.Row{"Symbol", "Material", "φ (eV)", "λ₀ (nm)"}, 3, 4)
			for _, m := range catalog {
				t.AppendRow(table.Row{
					m.Symbol,
					m.Name,
					fmt.Sprintf("%.2f", m.WorkFunctionEv),
					fmt.Sprintf("%.1f", m.ThresholdWavelengthNm()),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}
}
