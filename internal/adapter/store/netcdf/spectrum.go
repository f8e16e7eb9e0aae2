// Package netcdf exports computed spectra to NetCDF files and reads them back.
package netcdf

import (
	"fmt"
	"io"

	cdf "github.com/fhs/go-netcdf/netcdf"

	"go.ngs.io/xsec-api/internal/domain"
)

// Variable and attribute names of the spectrum layout.
const (
	dimNu        = "nu"
	varNu        = "nu"
	varCoef      = "coef"
	attrUnits    = "units"
	attrPressure = "pressure_atm"
	attrTemp     = "temperature_k"
	attrTable    = "source_table"
)

// Metadata is stored as global and variable attributes next to the arrays.
type Metadata struct {
	Table        string
	PressureAtm  float64
	TemperatureK float64
}

// WriteSpectrum writes s to path, replacing any existing file.
func WriteSpectrum(path string, s *domain.Spectrum, meta Metadata) (err error) {
	if s == nil || len(s.Nu) == 0 {
		return fmt.Errorf("cannot write an empty spectrum: %w", domain.ErrEmptyGrid)
	}
	if len(s.Nu) != len(s.Coef) {
		return fmt.Errorf("spectrum has %d wavenumbers and %d coefficients", len(s.Nu), len(s.Coef))
	}

	ds, err := cdf.CreateFile(path, cdf.CLOBBER|cdf.NETCDF4)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	// Data is flushed on close, so its error is the write's error.
	defer closeInto(ds, &err)

	dim, err := ds.AddDim(dimNu, uint64(len(s.Nu)))
	if err != nil {
		return err
	}
	nuVar, err := ds.AddVar(varNu, cdf.DOUBLE, []cdf.Dim{dim})
	if err != nil {
		return err
	}
	coefVar, err := ds.AddVar(varCoef, cdf.DOUBLE, []cdf.Dim{dim})
	if err != nil {
		return err
	}

	if err := nuVar.Attr(attrUnits).WriteBytes([]byte(string(domain.UnitWavenumber))); err != nil {
		return fmt.Errorf("failed to write nu units: %w", err)
	}
	if err := coefVar.Attr(attrUnits).WriteBytes([]byte(s.Units)); err != nil {
		return fmt.Errorf("failed to write coef units: %w", err)
	}
	if err := ds.Attr(attrPressure).WriteFloat64s([]float64{meta.PressureAtm}); err != nil {
		return fmt.Errorf("failed to write pressure: %w", err)
	}
	if err := ds.Attr(attrTemp).WriteFloat64s([]float64{meta.TemperatureK}); err != nil {
		return fmt.Errorf("failed to write temperature: %w", err)
	}
	if meta.Table != "" {
		if err := ds.Attr(attrTable).WriteBytes([]byte(meta.Table)); err != nil {
			return fmt.Errorf("failed to write table name: %w", err)
		}
	}

	if err := ds.EndDef(); err != nil {
		return fmt.Errorf("enddef: %w", err)
	}
	if err := nuVar.WriteFloat64s(s.Nu); err != nil {
		return fmt.Errorf("failed to write nu: %w", err)
	}
	if err := coefVar.WriteFloat64s(s.Coef); err != nil {
		return fmt.Errorf("failed to write coef: %w", err)
	}
	return nil
}

// closeInto closes c and records its error in errp unless one is already set.
func closeInto(c io.Closer, errp *error) {
	if cerr := c.Close(); cerr != nil && *errp == nil {
		*errp = fmt.Errorf("failed to close file: %w", cerr)
	}
}

// ReadSpectrum reads a spectrum written by WriteSpectrum. Missing attributes
// are left at their zero values.
func ReadSpectrum(path string) (*domain.Spectrum, Metadata, error) {
	var meta Metadata

	ds, err := cdf.OpenFile(path, cdf.NOWRITE)
	if err != nil {
		return nil, meta, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = ds.Close() }()

	nuVar, err := ds.Var(varNu)
	if err != nil {
		return nil, meta, fmt.Errorf("variable %s not found: %w", varNu, err)
	}
	coefVar, err := ds.Var(varCoef)
	if err != nil {
		return nil, meta, fmt.Errorf("variable %s not found: %w", varCoef, err)
	}

	nu, err := readFloat64Var(nuVar)
	if err != nil {
		return nil, meta, fmt.Errorf("failed to read %s: %w", varNu, err)
	}
	coef, err := readFloat64Var(coefVar)
	if err != nil {
		return nil, meta, fmt.Errorf("failed to read %s: %w", varCoef, err)
	}
	if len(nu) != len(coef) {
		return nil, meta, fmt.Errorf("%s and %s differ in length: %d vs %d", varNu, varCoef, len(nu), len(coef))
	}

	units, _ := readText(coefVar.Attr(attrUnits))
	meta.Table, _ = readText(ds.Attr(attrTable))
	meta.PressureAtm, _ = readScalar(ds.Attr(attrPressure))
	meta.TemperatureK, _ = readScalar(ds.Attr(attrTemp))

	return &domain.Spectrum{Nu: nu, Coef: coef, Units: units}, meta, nil
}

func readText(a cdf.Attr) (string, bool) {
	n, err := a.Len()
	if err != nil || n == 0 {
		return "", false
	}
	buf := make([]byte, n)
	if err := a.ReadBytes(buf); err != nil {
		return "", false
	}
	return string(buf), true
}

func readScalar(a cdf.Attr) (float64, bool) {
	if n, err := a.Len(); err != nil || n == 0 {
		return 0, false
	}
	buf64 := make([]float64, 1)
	if err := a.ReadFloat64s(buf64); err == nil {
		return buf64[0], true
	}
	buf32 := make([]float32, 1)
	if err := a.ReadFloat32s(buf32); err == nil {
		return float64(buf32[0]), true
	}
	return 0, false
}

// readFloat64Var reads a 1D DOUBLE or FLOAT variable.
func readFloat64Var(v cdf.Var) ([]float64, error) {
	dims, err := v.Dims()
	if err != nil {
		return nil, fmt.Errorf("failed to get dimensions: %w", err)
	}
	if len(dims) != 1 {
		return nil, fmt.Errorf("expected 1D variable, got %dD", len(dims))
	}
	length, err := dims[0].Len()
	if err != nil {
		return nil, err
	}

	t, err := v.Type()
	if err != nil {
		return nil, fmt.Errorf("failed to get var type: %w", err)
	}
	switch t {
	case cdf.DOUBLE:
		data := make([]float64, length)
		if err := v.ReadFloat64s(data); err != nil {
			return nil, err
		}
		return data, nil
	case cdf.FLOAT:
		tmp := make([]float32, length)
		if err := v.ReadFloat32s(tmp); err != nil {
			return nil, err
		}
		out := make([]float64, length)
		for i, val := range tmp {
			out[i] = float64(val)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported var type: %v", t)
	}
}
