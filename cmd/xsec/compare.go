package main

import (
	"fmt"
	"math"
	"os"

	"github.com/spf13/cobra"

	"go.ngs.io/xsec-api/internal/adapter/interp"
	"go.ngs.io/xsec-api/internal/adapter/store/netcdf"
	"go.ngs.io/xsec-api/internal/domain"
	"go.ngs.io/xsec-api/internal/usecase"
)

var (
	compareWindow     windowFlags
	compareEnv        environmentFlags
	compareStep       float64
	compareTable      string
	compareReference  string
	compareAbsorption bool
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare a computed spectrum against a reference CSV",
	Long:  "Interpolates the computed coefficient at every reference wavenumber and reports the mean offset and the RMSE around it.",
	Args:  cobra.NoArgs,
	RunE:  runCompare,
}

func init() {
	compareWindow.register(compareCmd)
	compareEnv.register(compareCmd)
	compareCmd.Flags().Float64Var(&compareStep, "step", usecase.DefaultStep, "grid step in cm-1")
	compareCmd.Flags().StringVar(&compareTable, "table", "", "compute from a stored table instead of fetching")
	compareCmd.Flags().StringVarP(&compareReference, "reference", "r", "", "reference spectrum: .nc, or .csv with nu,coef columns")
	compareCmd.Flags().BoolVar(&compareAbsorption, "absorption", false, "compare in cm-1 instead of cm2/molecule")
	_ = compareCmd.MarkFlagRequired("reference")
}

// comparison summarizes reference minus model differences.
type comparison struct {
	Points  int     `json:"points"`
	Mean    float64 `json:"mean_offset"`
	RMSE    float64 `json:"rmse"`
	MaxAbs  float64 `json:"max_abs_diff"`
	MaxAtNu float64 `json:"max_abs_diff_nu"`
	Units   string  `json:"units"`
}

func runCompare(cmd *cobra.Command, _ []string) error {
	ref, err := loadReference(compareReference)
	if err != nil {
		return fmt.Errorf("reference %s: %w", compareReference, err)
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer closeApp(a)

	resp, err := a.UseCase.Spectrum(cmd.Context(), usecase.SpectrumRequest{
		MoleculeID:     compareWindow.molecule,
		IsotopologueID: compareWindow.isotopologue,
		NuMin:          compareWindow.numin,
		NuMax:          compareWindow.numax,
		Step:           compareStep,
		TemperatureK:   compareEnv.temperature,
		PressureAtm:    compareEnv.pressure,
		Absorption:     compareAbsorption,
		Table:          compareTable,
	})
	if err != nil {
		return err
	}

	model := &interp.Series{X: resp.Nu, Values: resp.Coef}
	modelAtRef, err := model.InterpolateMany(ref.Nu)
	if err != nil {
		return err
	}

	result, err := compareSeries(ref.Nu, ref.Coef, modelAtRef)
	if err != nil {
		return err
	}
	result.Units = resp.Units

	w := cmd.OutOrStdout()
	if flagFormat == "json" {
		return writeJSON(w, result)
	}
	fmt.Fprintf(w, "Points: %d\n", result.Points)
	fmt.Fprintf(w, "Mean offset (reference - model): %.6e %s\n", result.Mean, result.Units)
	fmt.Fprintf(w, "RMSE around mean: %.6e %s\n", result.RMSE, result.Units)
	fmt.Fprintf(w, "Max |diff|: %.6e at %.6f cm-1\n", result.MaxAbs, result.MaxAtNu)
	return nil
}

// loadReference reads a reference spectrum from NetCDF (.nc) or CSV (.csv).
func loadReference(path string) (*domain.Spectrum, error) {
	kind, err := outputKind(path)
	if err != nil {
		return nil, err
	}
	if kind == kindNetCDF {
		s, _, err := netcdf.ReadSpectrum(path)
		return s, err
	}

	//nolint:gosec // G304: Reference path is provided by the user.
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readSpectrumCSV(f)
}

// compareSeries computes the mean of ref-model and the RMSE around that mean.
func compareSeries(nu, ref, model []float64) (comparison, error) {
	if len(ref) == 0 {
		return comparison{}, interp.ErrEmptySeries
	}
	if len(ref) != len(model) || len(nu) != len(ref) {
		return comparison{}, fmt.Errorf("length mismatch: %d reference points, %d model points", len(ref), len(model))
	}

	var c comparison
	c.Points = len(ref)

	var sum float64
	for i := range ref {
		d := ref[i] - model[i]
		sum += d
		if math.Abs(d) > c.MaxAbs {
			c.MaxAbs = math.Abs(d)
			c.MaxAtNu = nu[i]
		}
	}
	c.Mean = sum / float64(c.Points)

	var sse float64
	for i := range ref {
		d := ref[i] - model[i] - c.Mean
		sse += d * d
	}
	c.RMSE = math.Sqrt(sse / float64(c.Points))
	return c, nil
}
