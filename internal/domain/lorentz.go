package domain

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Physical constants in CGS units.
const (
	// C2 is the second radiation constant hc/k in cm K.
	C2 = 1.4388028496642257
	// BoltzmannCGS is the Boltzmann constant in erg/K.
	BoltzmannCGS = 1.380648813e-16
	// AtmToDyn converts atm to dyn/cm2.
	AtmToDyn = 1.01325e6
	// PRef is the HITRAN reference pressure in atm.
	PRef = 1.0
)

// DefaultOmegaWingHW is the line wing extent in half widths when none is given.
const DefaultOmegaWingHW = 50.0

// Unit labels of computed spectra.
const (
	UnitsCrossSection = "cm2/molecule"
	UnitsAbsorption   = "cm-1"
)

var (
	// ErrEmptyGrid is returned when a wavenumber range and step produce no samples.
	ErrEmptyGrid = errors.New("empty wavenumber grid")
	// ErrInvalidEnvironment is returned for non-physical temperature or pressure.
	ErrInvalidEnvironment = errors.New("invalid environment")
	// ErrGridTooLarge is returned when a range and step exceed MaxGridPoints.
	ErrGridTooLarge = errors.New("wavenumber grid too large")
)

// MaxGridPoints bounds the number of samples of one computed spectrum.
const MaxGridPoints = 10_000_000

// Diluent holds the volume fractions of the broadening gases.
// The zero value means pure air broadening.
type Diluent struct {
	Air  float64
	Self float64
}

func (d Diluent) isZero() bool { return d.Air == 0 && d.Self == 0 }

// CoefficientOptions configures AbsorptionCoefficientLorentz.
type CoefficientOptions struct {
	Components  []Component
	Environment Environment
	Diluent     Diluent

	// Wavenumber grid in cm-1.
	OmegaMin  float64
	OmegaMax  float64
	OmegaStep float64

	// Line wing extent: max(OmegaWing, OmegaWingHW * gamma) around each line.
	OmegaWing   float64
	OmegaWingHW float64

	// Lines weaker than this after temperature scaling are skipped.
	IntensityThreshold float64

	// HITRANUnits selects cm2/molecule output; otherwise the coefficient is
	// multiplied by the number density and reported in cm-1.
	HITRANUnits bool

	Isotopologues *IsotopologueTable
	Partition     PartitionFunction
}

// Spectrum is an absorption coefficient sampled on a regular wavenumber grid.
type Spectrum struct {
	Nu    []float64
	Coef  []float64
	Units string
}

// Len returns the number of samples.
func (s *Spectrum) Len() int { return len(s.Nu) }

// WavenumberGrid builds an evenly spaced grid from lower to upper. The upper bound
// is included when it falls on (or within 1e-10 of) a step.
func WavenumberGrid(lower, upper, step float64) ([]float64, error) {
	if step <= 0 || math.IsNaN(step) {
		return nil, fmt.Errorf("%w: step %g must be positive", ErrEmptyGrid, step)
	}
	if !(upper > lower) {
		return nil, fmt.Errorf("%w: range [%g, %g] is empty", ErrEmptyGrid, lower, upper)
	}
	count := math.Floor((upper-lower)/step) + 1
	// The upper bound can add one more sample below.
	if math.IsInf(count, 0) || math.IsNaN(count) || count+1 > MaxGridPoints {
		return nil, fmt.Errorf("%w: range [%g, %g] with step %g exceeds %d points",
			ErrGridTooLarge, lower, upper, step, MaxGridPoints)
	}
	n := int(count)
	last := lower + step*float64(n-1)
	if math.Abs((upper-last)-step) < 1e-10 {
		last += step
		n++
	}
	grid := make([]float64, n)
	if n == 1 {
		grid[0] = lower
		return grid, nil
	}
	span := last - lower
	for i := range grid {
		grid[i] = lower + span*float64(i)/float64(n-1)
	}
	return grid, nil
}

// LineIntensity scales a reference intensity from TRef to temperature t.
func LineIntensity(swRef, nu, eLower, qRef, qT, t float64) float64 {
	ch := math.Exp(-C2*eLower/t) * (1 - math.Exp(-C2*nu/t))
	zn := math.Exp(-C2*eLower/TRef) * (1 - math.Exp(-C2*nu/TRef))
	return swRef * qRef / qT * (ch / zn)
}

// LorentzProfile returns the area-normalized Lorentz line shape at nu.
func LorentzProfile(nu0, gamma, nu float64) float64 {
	d := nu - nu0
	return gamma / math.Pi / (gamma*gamma + d*d)
}

// VolumeConcentration returns the number density in molecules/cm3.
func VolumeConcentration(pAtm, t float64) float64 {
	return pAtm * AtmToDyn / (BoltzmannCGS * t)
}

// AbsorptionCoefficientLorentz sums Lorentz-broadened lines of the selected
// components on the grid defined by opts.
// α(ν) = Σ_k factor * S_k(T) * L(ν; ν_k + δ_k p, γ_k)
func AbsorptionCoefficientLorentz(lines []Line, opts CoefficientOptions) (*Spectrum, error) {
	env := opts.Environment
	if !(env.TemperatureK > 0) {
		return nil, fmt.Errorf("%w: temperature %g K must be positive", ErrInvalidEnvironment, env.TemperatureK)
	}
	if env.PressureAtm < 0 || math.IsNaN(env.PressureAtm) {
		return nil, fmt.Errorf("%w: pressure %g atm must not be negative", ErrInvalidEnvironment, env.PressureAtm)
	}
	if len(opts.Components) == 0 {
		return nil, fmt.Errorf("at least one component is required")
	}

	grid, err := WavenumberGrid(opts.OmegaMin, opts.OmegaMax, opts.OmegaStep)
	if err != nil {
		return nil, err
	}

	isos := opts.Isotopologues
	if isos == nil {
		isos = NewIsotopologueTable()
	}
	partition := opts.Partition
	if partition == nil {
		partition = PowerLawPartition{}
	}
	wingHW := opts.OmegaWingHW
	if wingHW <= 0 {
		wingHW = DefaultOmegaWingHW
	}
	diluent := opts.Diluent
	if diluent.isZero() {
		diluent.Air = 1.0
	}

	// Per-component abundance scale and partition sums.
	type componentState struct {
		scale float64
		qRef  float64
		qT    float64
	}
	states := make(map[IsoKey]componentState, len(opts.Components))
	for _, c := range opts.Components {
		iso, err := isos.Lookup(c.MoleculeID, c.IsotopologueID)
		if err != nil {
			return nil, err
		}
		abundance := c.Abundance
		if abundance == 0 {
			abundance = iso.Abundance
		}
		qRef := partition.Q(iso, TRef)
		qT := partition.Q(iso, env.TemperatureK)
		if qRef <= 0 || qT <= 0 {
			return nil, fmt.Errorf("non-positive partition sum for %s at %g K", c.Key(), env.TemperatureK)
		}
		states[c.Key()] = componentState{
			scale: abundance / iso.Abundance,
			qRef:  qRef,
			qT:    qT,
		}
	}

	factor := 1.0
	units := UnitsCrossSection
	if !opts.HITRANUnits {
		factor = VolumeConcentration(env.PressureAtm, env.TemperatureK)
		units = UnitsAbsorption
	}

	coef := make([]float64, len(grid))
	pRatio := env.PressureAtm / PRef
	tRatio := TRef / env.TemperatureK

	for _, line := range lines {
		st, ok := states[line.Key()]
		if !ok {
			continue
		}

		s := LineIntensity(line.Sw, line.Nu, line.ELower, st.qRef, st.qT, env.TemperatureK)
		if s < opts.IntensityThreshold {
			continue
		}

		tDep := math.Pow(tRatio, line.NAir)
		gamma := diluent.Air*line.GammaAir*pRatio*tDep + diluent.Self*line.GammaSelf*pRatio*tDep
		if gamma <= 0 {
			// Zero-width lines (p = 0) have no sampled contribution.
			continue
		}
		center := line.Nu + diluent.Air*line.DeltaAir*pRatio

		wing := math.Max(opts.OmegaWing, wingHW*gamma)
		lo := sort.Search(len(grid), func(i int) bool { return grid[i] > line.Nu-wing })
		hi := sort.Search(len(grid), func(i int) bool { return grid[i] > line.Nu+wing })

		weight := factor * st.scale * s
		for i := lo; i < hi; i++ {
			coef[i] += weight * LorentzProfile(center, gamma, grid[i])
		}
	}

	return &Spectrum{Nu: grid, Coef: coef, Units: units}, nil
}
