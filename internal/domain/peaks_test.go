package domain

import (
	"math"
	"testing"
)

// TestFindPeaks tests local maximum detection.
func TestFindPeaks(t *testing.T) {
	s := &Spectrum{
		Nu:   []float64{0, 1, 2, 3, 4, 5, 6, 7, 8},
		Coef: []float64{0, 1, 3, 1, 0, 2, 2, 1, 0},
	}

	peaks := FindPeaks(s)

	// The plateau at 5-6 is skipped.
	if len(peaks) != 1 {
		t.Fatalf("Expected 1 peak, found %d", len(peaks))
	}
	if peaks[0].Nu != 2 || peaks[0].Coef != 3 {
		t.Errorf("Expected peak (2, 3), got (%v, %v)", peaks[0].Nu, peaks[0].Coef)
	}
}

// TestFindPeaks_ShortSpectrum tests that fewer than three samples produce no peaks.
func TestFindPeaks_ShortSpectrum(t *testing.T) {
	peaks := FindPeaks(&Spectrum{Nu: []float64{0, 1}, Coef: []float64{1, 0}})
	if len(peaks) != 0 {
		t.Errorf("Expected no peaks, got %v", peaks)
	}
}

// TestRefinePeak_Parabola tests that a sampled parabola refines to its vertex.
func TestRefinePeak_Parabola(t *testing.T) {
	// c(nu) = 4 - (nu - 1.3)^2
	f := func(nu float64) float64 { return 4 - (nu-1.3)*(nu-1.3) }

	nu, c := RefinePeak(0, 1, 2, f(0), f(1), f(2))
	if math.Abs(nu-1.3) > 1e-9 {
		t.Errorf("Vertex position: expected 1.3, got %.10f", nu)
	}
	if math.Abs(c-4) > 1e-9 {
		t.Errorf("Vertex value: expected 4, got %.10f", c)
	}
}

// TestRefinePeak_NonUniform tests that uneven spacing returns the discrete peak.
func TestRefinePeak_NonUniform(t *testing.T) {
	nu, c := RefinePeak(0, 1, 3, 1, 2, 1)
	if nu != 1 || c != 2 {
		t.Errorf("Expected (1, 2), got (%v, %v)", nu, c)
	}
}

// TestRefinePeaks_LorentzLine tests refinement on a computed line.
func TestRefinePeaks_LorentzLine(t *testing.T) {
	line := testLine()
	line.Nu = 1000.004
	spec, err := AbsorptionCoefficientLorentz([]Line{line}, testOptions())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	raw := FindPeaks(spec)
	refined := RefinePeaks(spec, raw)
	if len(refined) != 1 {
		t.Fatalf("Expected 1 peak, found %d", len(refined))
	}
	if math.Abs(refined[0].Nu-1000.004) >= math.Abs(raw[0].Nu-1000.004) {
		t.Errorf("Refined peak %.6f is not closer to 1000.004 than %.6f", refined[0].Nu, raw[0].Nu)
	}
}

// TestStrongestPeaks tests ordering and truncation.
func TestStrongestPeaks(t *testing.T) {
	peaks := []Peak{{Nu: 1, Coef: 1}, {Nu: 2, Coef: 5}, {Nu: 3, Coef: 3}}

	top := StrongestPeaks(peaks, 2)
	if len(top) != 2 || top[0].Nu != 2 || top[1].Nu != 3 {
		t.Errorf("Expected peaks at 2 and 3, got %v", top)
	}
	if peaks[0].Nu != 1 {
		t.Errorf("Input slice was reordered: %v", peaks)
	}
	if all := StrongestPeaks(peaks, -1); len(all) != 3 {
		t.Errorf("Expected all 3 peaks, got %d", len(all))
	}
}
