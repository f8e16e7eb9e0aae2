package domain

import (
	"errors"
	"math"
	"testing"
)

func testLine() Line {
	return Line{
		MoleculeID:     5,
		IsotopologueID: 1,
		Nu:             1000.0,
		Sw:             1.0e-20,
		GammaAir:       0.07,
		GammaSelf:      0.08,
		ELower:         100.0,
		NAir:           0.75,
	}
}

func testOptions() CoefficientOptions {
	return CoefficientOptions{
		Components:  []Component{{MoleculeID: 5, IsotopologueID: 1}},
		Environment: Environment{PressureAtm: 1.0, TemperatureK: TRef},
		OmegaMin:    999.0,
		OmegaMax:    1001.0,
		OmegaStep:   0.01,
		HITRANUnits: true,
	}
}

// TestWavenumberGrid_IncludesUpperBound tests that an upper bound on a step is kept.
func TestWavenumberGrid_IncludesUpperBound(t *testing.T) {
	grid, err := WavenumberGrid(10.0, 10.2, 0.1)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	expected := []float64{10.0, 10.1, 10.2}
	if len(grid) != len(expected) {
		t.Fatalf("Expected %d samples, got %d (%v)", len(expected), len(grid), grid)
	}
	for i := range expected {
		if math.Abs(grid[i]-expected[i]) > 1e-9 {
			t.Errorf("Sample %d: expected %.10f, got %.10f", i, expected[i], grid[i])
		}
	}
}

// TestWavenumberGrid_OffStepUpperBound tests that a bound between steps is not reached.
func TestWavenumberGrid_OffStepUpperBound(t *testing.T) {
	grid, err := WavenumberGrid(0.0, 1.05, 0.5)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(grid) != 3 || grid[2] != 1.0 {
		t.Errorf("Expected [0 0.5 1], got %v", grid)
	}
}

// TestWavenumberGrid_Invalid tests the empty-grid error cases.
func TestWavenumberGrid_Invalid(t *testing.T) {
	tests := []struct {
		name               string
		lower, upper, step float64
	}{
		{"swapped bounds", 2000, 1000, 0.01},
		{"equal bounds", 1000, 1000, 0.01},
		{"zero step", 1000, 2000, 0},
		{"negative step", 1000, 2000, -0.01},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := WavenumberGrid(tt.lower, tt.upper, tt.step)
			if !errors.Is(err, ErrEmptyGrid) {
				t.Errorf("Expected ErrEmptyGrid, got %v", err)
			}
		})
	}
}

// TestWavenumberGrid_TooLarge tests that oversized grids are rejected before allocation.
func TestWavenumberGrid_TooLarge(t *testing.T) {
	tests := []struct {
		name               string
		lower, upper, step float64
	}{
		{"huge range", 0, 1e12, 0.01},
		{"tiny step", 1000, 2000, 1e-9},
		{"infinite bound", 0, math.Inf(1), 0.01},
		{"one past the limit", 0, MaxGridPoints, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := WavenumberGrid(tt.lower, tt.upper, tt.step)
			if !errors.Is(err, ErrGridTooLarge) {
				t.Errorf("Expected ErrGridTooLarge, got %v", err)
			}
		})
	}
}

// TestLineIntensity_ReferenceTemperature tests that no scaling happens at 296 K.
func TestLineIntensity_ReferenceTemperature(t *testing.T) {
	s := LineIntensity(1e-20, 2000, 500, 100, 100, TRef)
	if math.Abs(s-1e-20)/1e-20 > 1e-12 {
		t.Errorf("Expected 1e-20, got %g", s)
	}
}

// TestLineIntensity_HotLowerState tests that lines from excited states grow with temperature.
func TestLineIntensity_HotLowerState(t *testing.T) {
	iso := StandardIsotopologues[IsoKey{5, 1}]
	p := PowerLawPartition{}
	cold := LineIntensity(1e-20, 2000, 2000, p.Q(iso, TRef), p.Q(iso, 200), 200)
	hot := LineIntensity(1e-20, 2000, 2000, p.Q(iso, TRef), p.Q(iso, 400), 400)
	if !(hot > 1e-20 && cold < 1e-20) {
		t.Errorf("Expected cold < 1e-20 < hot, got cold=%g hot=%g", cold, hot)
	}
}

// TestLorentzProfile_Area tests the normalization of the line shape.
func TestLorentzProfile_Area(t *testing.T) {
	const gamma = 0.1
	const wing = 200.0 // Half widths.
	const n = 400000
	step := 2 * wing * gamma / n

	area := 0.0
	for i := 0; i <= n; i++ {
		nu := -wing*gamma + float64(i)*step
		w := step
		if i == 0 || i == n {
			w = step / 2
		}
		area += w * LorentzProfile(0, gamma, nu)
	}

	expected := 2 / math.Pi * math.Atan(wing)
	if math.Abs(area-expected) > 1e-6 {
		t.Errorf("Area: expected %.8f, got %.8f", expected, area)
	}
}

// TestAbsorptionCoefficientLorentz_SingleLine tests the coefficient of one line at 296 K and 1 atm.
func TestAbsorptionCoefficientLorentz_SingleLine(t *testing.T) {
	line := testLine()
	spec, err := AbsorptionCoefficientLorentz([]Line{line}, testOptions())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if spec.Units != UnitsCrossSection {
		t.Errorf("Units: expected %s, got %s", UnitsCrossSection, spec.Units)
	}
	if len(spec.Nu) != len(spec.Coef) || len(spec.Nu) < 200 {
		t.Fatalf("Unexpected spectrum size: nu=%d coef=%d", len(spec.Nu), len(spec.Coef))
	}

	for i, nu := range spec.Nu {
		expected := line.Sw * LorentzProfile(line.Nu, line.GammaAir, nu)
		if math.Abs(spec.Coef[i]-expected) > 1e-12*expected {
			t.Fatalf("At %.4f: expected %g, got %g", nu, expected, spec.Coef[i])
		}
	}
}

// TestAbsorptionCoefficientLorentz_PressureBroadening tests that the width scales with pressure.
func TestAbsorptionCoefficientLorentz_PressureBroadening(t *testing.T) {
	opts := testOptions()
	opts.Environment.PressureAtm = 0.5
	spec, err := AbsorptionCoefficientLorentz([]Line{testLine()}, opts)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	gamma := 0.07 * 0.5
	for i, nu := range spec.Nu {
		expected := 1e-20 * LorentzProfile(1000.0, gamma, nu)
		if math.Abs(spec.Coef[i]-expected) > 1e-12*expected {
			t.Fatalf("At %.4f: expected %g, got %g", nu, expected, spec.Coef[i])
		}
	}
}

// TestAbsorptionCoefficientLorentz_Shift tests the pressure-induced line shift.
func TestAbsorptionCoefficientLorentz_Shift(t *testing.T) {
	line := testLine()
	line.DeltaAir = -0.1
	spec, err := AbsorptionCoefficientLorentz([]Line{line}, testOptions())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	peaks := FindPeaks(spec)
	if len(peaks) != 1 {
		t.Fatalf("Expected 1 peak, found %d", len(peaks))
	}
	if math.Abs(peaks[0].Nu-999.9) > 1e-6 {
		t.Errorf("Peak position: expected 999.9, got %.6f", peaks[0].Nu)
	}
}

// TestAbsorptionCoefficientLorentz_Wing tests that contributions stop at the wing cutoff.
func TestAbsorptionCoefficientLorentz_Wing(t *testing.T) {
	opts := testOptions()
	opts.OmegaWingHW = 5.1 // 0.357 cm-1 either side.
	spec, err := AbsorptionCoefficientLorentz([]Line{testLine()}, opts)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	for i, nu := range spec.Nu {
		far := math.Abs(nu-1000.0) > 0.357
		if far && spec.Coef[i] != 0 {
			t.Fatalf("At %.4f: expected 0 outside wing, got %g", nu, spec.Coef[i])
		}
		if !far && spec.Coef[i] == 0 {
			t.Fatalf("At %.4f: expected contribution inside wing", nu)
		}
	}
}

// TestAbsorptionCoefficientLorentz_IgnoresOtherComponents tests component filtering.
func TestAbsorptionCoefficientLorentz_IgnoresOtherComponents(t *testing.T) {
	other := testLine()
	other.IsotopologueID = 2
	spec, err := AbsorptionCoefficientLorentz([]Line{other}, testOptions())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	for i, c := range spec.Coef {
		if c != 0 {
			t.Fatalf("Sample %d: expected 0, got %g", i, c)
		}
	}
}

// TestAbsorptionCoefficientLorentz_NumberDensity tests the non-HITRAN unit scaling.
func TestAbsorptionCoefficientLorentz_NumberDensity(t *testing.T) {
	xsec, err := AbsorptionCoefficientLorentz([]Line{testLine()}, testOptions())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	opts := testOptions()
	opts.HITRANUnits = false
	abs, err := AbsorptionCoefficientLorentz([]Line{testLine()}, opts)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if abs.Units != UnitsAbsorption {
		t.Errorf("Units: expected %s, got %s", UnitsAbsorption, abs.Units)
	}

	n := VolumeConcentration(1.0, TRef)
	i := len(abs.Coef) / 2
	if math.Abs(abs.Coef[i]/xsec.Coef[i]-n)/n > 1e-12 {
		t.Errorf("Ratio: expected %g, got %g", n, abs.Coef[i]/xsec.Coef[i])
	}
}

// TestAbsorptionCoefficientLorentz_Abundance tests non-natural abundance scaling.
func TestAbsorptionCoefficientLorentz_Abundance(t *testing.T) {
	natural, err := AbsorptionCoefficientLorentz([]Line{testLine()}, testOptions())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	opts := testOptions()
	opts.Components[0].Abundance = StandardIsotopologues[IsoKey{5, 1}].Abundance / 2
	half, err := AbsorptionCoefficientLorentz([]Line{testLine()}, opts)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	i := len(half.Coef) / 2
	if math.Abs(half.Coef[i]*2-natural.Coef[i]) > 1e-12*natural.Coef[i] {
		t.Errorf("Expected half of %g, got %g", natural.Coef[i], half.Coef[i])
	}
}

// TestAbsorptionCoefficientLorentz_InvalidInput tests the errors the calculator enforces.
func TestAbsorptionCoefficientLorentz_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*CoefficientOptions)
		want   error
	}{
		{"zero temperature", func(o *CoefficientOptions) { o.Environment.TemperatureK = 0 }, ErrInvalidEnvironment},
		{"negative temperature", func(o *CoefficientOptions) { o.Environment.TemperatureK = -10 }, ErrInvalidEnvironment},
		{"negative pressure", func(o *CoefficientOptions) { o.Environment.PressureAtm = -1 }, ErrInvalidEnvironment},
		{"swapped range", func(o *CoefficientOptions) { o.OmegaMin, o.OmegaMax = o.OmegaMax, o.OmegaMin }, ErrEmptyGrid},
		{"unknown isotopologue", func(o *CoefficientOptions) { o.Components[0].IsotopologueID = 9 }, ErrUnknownIsotopologue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions()
			tt.modify(&opts)
			_, err := AbsorptionCoefficientLorentz([]Line{testLine()}, opts)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

// TestAbsorptionCoefficientLorentz_ZeroPressure tests that zero-width lines add nothing.
func TestAbsorptionCoefficientLorentz_ZeroPressure(t *testing.T) {
	opts := testOptions()
	opts.Environment.PressureAtm = 0
	opts.OmegaWing = 1
	spec, err := AbsorptionCoefficientLorentz([]Line{testLine()}, opts)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	for i, c := range spec.Coef {
		if c != 0 || math.IsNaN(c) {
			t.Fatalf("Sample %d: expected 0, got %g", i, c)
		}
	}
}
