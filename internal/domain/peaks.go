package domain

import (
	"math"
	"sort"
)

// Peak is a local maximum of a spectrum.
type Peak struct {
	Nu   float64 `json:"nu"`
	Coef float64 `json:"coef"`
}

// FindPeaks identifies local maxima of a spectrum using the sign change of the
// first difference. Plateaus are skipped.
func FindPeaks(s *Spectrum) []Peak {
	peaks := make([]Peak, 0)
	if s == nil || len(s.Nu) < 3 || len(s.Nu) != len(s.Coef) {
		return peaks
	}

	for i := 1; i < len(s.Coef)-1; i++ {
		prev, curr, next := s.Coef[i-1], s.Coef[i], s.Coef[i+1]
		if curr > prev && curr > next {
			peaks = append(peaks, Peak{Nu: s.Nu[i], Coef: curr})
		}
	}
	return peaks
}

// RefinePeak fits a parabola through three equally spaced samples around a
// discrete maximum and returns the vertex.
func RefinePeak(nu0, nu1, nu2, c0, c1, c2 float64) (float64, float64) {
	d1 := nu1 - nu0
	d2 := nu2 - nu1
	if math.Abs(d1-d2) > 1e-9*math.Max(1, math.Abs(d1)) {
		return nu1, c1
	}

	a := (c2 - 2*c1 + c0) / (2 * d1 * d1)
	b := (c2 - c0) / (2 * d1)
	if math.Abs(a) < 1e-300 {
		return nu1, c1
	}

	dv := -b / (2 * a)
	if math.Abs(dv) > d1 {
		return nu1, c1
	}
	return nu1 + dv, c1 + b*dv + a*dv*dv
}

// RefinePeaks applies parabolic refinement to every peak of s.
func RefinePeaks(s *Spectrum, peaks []Peak) []Peak {
	if s == nil || len(s.Nu) < 3 {
		return peaks
	}
	refined := make([]Peak, 0, len(peaks))
	for _, p := range peaks {
		i := sort.SearchFloat64s(s.Nu, p.Nu)
		if i < 1 || i >= len(s.Nu)-1 || s.Nu[i] != p.Nu {
			refined = append(refined, p)
			continue
		}
		nu, coef := RefinePeak(s.Nu[i-1], s.Nu[i], s.Nu[i+1], s.Coef[i-1], s.Coef[i], s.Coef[i+1])
		refined = append(refined, Peak{Nu: nu, Coef: coef})
	}
	return refined
}

// StrongestPeaks returns at most n peaks ordered by decreasing coefficient.
func StrongestPeaks(peaks []Peak, n int) []Peak {
	out := make([]Peak, len(peaks))
	copy(out, peaks)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Coef > out[j].Coef })
	if n >= 0 && n < len(out) {
		out = out[:n]
	}
	return out
}
