package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"go.ngs.io/xsec-api/internal/domain"
	"go.ngs.io/xsec-api/internal/usecase"
)

var (
	queryWindow     windowFlags
	queryEnv        environmentFlags
	queryWavelength float64
	queryUnit       string
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Compute the cross section at one wavelength",
	Long:  "Fetches the window into a table, computes the Lorentz cross section and interpolates it at --wavelength.",
	Args:  cobra.NoArgs,
	RunE:  runQuery,
}

func init() {
	queryWindow.register(queryCmd)
	queryEnv.register(queryCmd)
	queryCmd.Flags().Float64VarP(&queryWavelength, "wavelength", "w", 0, "query point")
	queryCmd.Flags().StringVarP(&queryUnit, "unit", "u", string(domain.UnitWavenumber), "unit of --wavelength: cm-1|um|nm")
	_ = queryCmd.MarkFlagRequired("wavelength")
}

func runQuery(cmd *cobra.Command, _ []string) error {
	unit, err := domain.ParseSpectralUnit(queryUnit)
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer closeApp(a)

	resp, err := a.UseCase.Execute(cmd.Context(), usecase.CrossSectionRequest{
		MoleculeID:     queryWindow.molecule,
		IsotopologueID: queryWindow.isotopologue,
		NuMin:          queryWindow.numin,
		NuMax:          queryWindow.numax,
		Wavelength:     queryWavelength,
		Unit:           unit,
		TemperatureK:   queryEnv.temperature,
		PressureAtm:    queryEnv.pressure,
	})
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if flagFormat == "json" {
		return writeJSON(w, resp)
	}
	fmt.Fprintf(w, "%.6e %s\n", resp.CrossSection, resp.Units)
	if resp.Extrapolated {
		fmt.Fprintf(w, "warning: %.6f cm-1 is outside [%g, %g], boundary value returned\n",
			resp.Wavenumber, resp.NuMin, resp.NuMax)
	}
	return nil
}
