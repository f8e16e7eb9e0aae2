package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"go.ngs.io/xsec-api/internal/adapter/store/netcdf"
	"go.ngs.io/xsec-api/internal/domain"
	"go.ngs.io/xsec-api/internal/usecase"
)

var (
	spectrumWindow     windowFlags
	spectrumEnv        environmentFlags
	spectrumStep       float64
	spectrumSelf       float64
	spectrumAbsorption bool
	spectrumTable      string
	spectrumPeaks      int
	spectrumOut        string
)

var spectrumCmd = &cobra.Command{
	Use:   "spectrum",
	Short: "Compute the absorption coefficient over a window",
	Long:  "Computes the Lorentz coefficient on a fixed-step grid and writes it as NetCDF (.nc) or CSV (.csv). Without --out the strongest peaks are printed.",
	Args:  cobra.NoArgs,
	RunE:  runSpectrum,
}

func init() {
	spectrumWindow.register(spectrumCmd)
	spectrumEnv.register(spectrumCmd)
	spectrumCmd.Flags().Float64Var(&spectrumStep, "step", usecase.DefaultStep, "grid step in cm-1")
	spectrumCmd.Flags().Float64Var(&spectrumSelf, "self", 0, "self-broadening volume fraction (0-1)")
	spectrumCmd.Flags().BoolVar(&spectrumAbsorption, "absorption", false, "output cm-1 instead of cm2/molecule")
	spectrumCmd.Flags().StringVar(&spectrumTable, "table", "", "compute from a stored table instead of fetching")
	spectrumCmd.Flags().IntVar(&spectrumPeaks, "peaks", 10, "number of strongest peaks to report (-1 for all)")
	spectrumCmd.Flags().StringVarP(&spectrumOut, "out", "o", "", "output file (.nc or .csv)")
}

func runSpectrum(cmd *cobra.Command, _ []string) error {
	if spectrumSelf < 0 || spectrumSelf > 1 {
		return fmt.Errorf("invalid --self %g: must be between 0 and 1", spectrumSelf)
	}
	if spectrumOut != "" {
		if _, err := outputKind(spectrumOut); err != nil {
			return err
		}
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer closeApp(a)

	resp, err := a.UseCase.Spectrum(cmd.Context(), usecase.SpectrumRequest{
		MoleculeID:     spectrumWindow.molecule,
		IsotopologueID: spectrumWindow.isotopologue,
		NuMin:          spectrumWindow.numin,
		NuMax:          spectrumWindow.numax,
		Step:           spectrumStep,
		TemperatureK:   spectrumEnv.temperature,
		PressureAtm:    spectrumEnv.pressure,
		SelfFraction:   spectrumSelf,
		Absorption:     spectrumAbsorption,
		Table:          spectrumTable,
		Peaks:          spectrumPeaks,
	})
	if err != nil {
		return err
	}

	if spectrumOut != "" {
		if err := writeSpectrumFile(spectrumOut, resp); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d points to %s\n", len(resp.Nu), spectrumOut)
	}

	w := cmd.OutOrStdout()
	if flagFormat == "json" {
		return writeJSON(w, struct {
			Table    string        `json:"table"`
			Units    string        `json:"units"`
			NumLines int           `json:"num_lines"`
			Points   int           `json:"num_grid_points"`
			Peaks    []domain.Peak `json:"peaks"`
		}{resp.Table, resp.Units, resp.NumLines, len(resp.Nu), resp.Peaks})
	}
	formatPeaksText(w, resp)
	return nil
}

const (
	kindNetCDF = "netcdf"
	kindCSV    = "csv"
)

// outputKind selects the writer from the file extension.
func outputKind(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".nc", ".nc4":
		return kindNetCDF, nil
	case ".csv":
		return kindCSV, nil
	default:
		return "", fmt.Errorf("unsupported file %s: use .nc or .csv", path)
	}
}

func writeSpectrumFile(path string, resp *usecase.SpectrumResponse) error {
	kind, err := outputKind(path)
	if err != nil {
		return err
	}
	if kind == kindNetCDF {
		return netcdf.WriteSpectrum(path, resp.Spectrum, netcdf.Metadata{
			Table:        resp.Table,
			PressureAtm:  resp.PressureAtm,
			TemperatureK: resp.TemperatureK,
		})
	}

	//nolint:gosec // G304: Output path is provided by the user.
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := writeSpectrumCSV(f, resp.Spectrum); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// writeSpectrumCSV writes a header and one (nu, coef) row per sample.
func writeSpectrumCSV(w io.Writer, s *domain.Spectrum) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"nu_cm-1", "coef_" + s.Units}); err != nil {
		return err
	}
	for i := range s.Nu {
		row := []string{
			strconv.FormatFloat(s.Nu[i], 'f', -1, 64),
			strconv.FormatFloat(s.Coef[i], 'e', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// readSpectrumCSV reads (nu, coef) pairs. Lines starting with '#' and a
// non-numeric header row are skipped.
func readSpectrumCSV(r io.Reader) (*domain.Spectrum, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	s := &domain.Spectrum{}
	for i, record := range records {
		if len(record) < 2 {
			return nil, fmt.Errorf("row %d: expected at least 2 columns, got %d", i+1, len(record))
		}
		nu, err := strconv.ParseFloat(strings.TrimSpace(record[0]), 64)
		if err != nil {
			if i == 0 {
				continue
			}
			return nil, fmt.Errorf("row %d: invalid nu '%s': %w", i+1, record[0], err)
		}
		coef, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid coef '%s': %w", i+1, record[1], err)
		}
		s.Nu = append(s.Nu, nu)
		s.Coef = append(s.Coef, coef)
	}
	return s, nil
}
