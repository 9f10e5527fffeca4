package main

import (
	"github.com/spf13/cobra"
)

func newReadoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "readout",
		Short: "Show photon energy, stopping potential and threshold for the parameters",
		Long: `Compute the derived quantities of the experiment parameters without
taking a measurement: photon energy, maximum kinetic energy, stopping
potential and the material's threshold wavelength.

Examples:
  photolab readout --material Na --wavelength 350
  photolab readout --material Au --wavelength 700 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			r, err := a.session.Readout()
			if err != nil {
				return err
			}
			if jsonOutput(cmd) {
				return writeJSON(cmd.OutOrStdout(), r)
			}
			printReadout(cmd.OutOrStdout(), r)
			return nil
		},
	}
	addExperimentFlags(cmd)
	return cmd
}
