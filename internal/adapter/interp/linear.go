// Package interp provides one-dimensional interpolation over sampled curves.
package interp

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrEmptySeries is returned when interpolating a curve with no samples.
var ErrEmptySeries = errors.New("empty series")

// Segment is the interval between two neighbouring samples.
type Segment struct {
	X0, X1 float64
	V0, V1 float64
}

// LinearInterpolate performs two-point linear interpolation within a segment
// Formula:
//
//	f(x) ≈ (1-t)f(x0) + t*f(x1),  t = (x - x0) / (x1 - x0)
func LinearInterpolate(seg Segment, x float64) (float64, error) {
	if seg.X1 <= seg.X0 {
		return 0, fmt.Errorf("invalid segment: X1 must be > X0")
	}

	const epsilon = 1e-9
	if x < seg.X0-epsilon || x > seg.X1+epsilon {
		return 0, fmt.Errorf("x coordinate %.6f is outside segment [%.6f, %.6f]", x, seg.X0, seg.X1)
	}

	t := (x - seg.X0) / (seg.X1 - seg.X0)
	t = math.Max(0, math.Min(1, t))

	return (1-t)*seg.V0 + t*seg.V1, nil
}

// Series is a sampled curve with increasing X.
type Series struct {
	X      []float64
	Values []float64
}

// Validate checks if the series can be interpolated.
func (s *Series) Validate() error {
	if len(s.X) == 0 {
		return ErrEmptySeries
	}
	if len(s.Values) != len(s.X) {
		return fmt.Errorf("number of values (%d) must match X coordinates (%d)", len(s.Values), len(s.X))
	}
	for i := 1; i < len(s.X); i++ {
		if s.X[i] <= s.X[i-1] {
			return fmt.Errorf("X coordinates must be strictly increasing")
		}
	}
	return nil
}

// Bounds returns the first and last X coordinate.
func (s *Series) Bounds() (float64, float64) {
	if len(s.X) == 0 {
		return math.NaN(), math.NaN()
	}
	return s.X[0], s.X[len(s.X)-1]
}

// Contains reports whether x lies within the sampled domain.
func (s *Series) Contains(x float64) bool {
	lo, hi := s.Bounds()
	return x >= lo && x <= hi
}

// InterpolateAt evaluates the series at x. Points outside the domain take the
// value of the nearest boundary sample.
func (s *Series) InterpolateAt(x float64) (float64, error) {
	if err := s.Validate(); err != nil {
		return 0, fmt.Errorf("invalid series: %w", err)
	}
	return s.interpolate(x)
}

func (s *Series) interpolate(x float64) (float64, error) {
	if math.IsNaN(x) {
		return math.NaN(), nil
	}

	n := len(s.X)
	if x <= s.X[0] {
		return s.Values[0], nil
	}
	if x >= s.X[n-1] {
		return s.Values[n-1], nil
	}

	// First index with X[i] >= x; i is in [1, n-1] here.
	i := sort.SearchFloat64s(s.X, x)
	if s.X[i] == x {
		return s.Values[i], nil
	}

	return LinearInterpolate(Segment{
		X0: s.X[i-1],
		X1: s.X[i],
		V0: s.Values[i-1],
		V1: s.Values[i],
	}, x)
}

// Linear interpolates the curve (xp, fp) at x with boundary clamping.
func Linear(xp, fp []float64, x float64) (float64, error) {
	s := Series{X: xp, Values: fp}
	return s.InterpolateAt(x)
}

// InterpolateMany evaluates the series at every point of xs.
func (s *Series) InterpolateMany(xs []float64) ([]float64, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid series: %w", err)
	}
	out := make([]float64, len(xs))
	for i, x := range xs {
		v, err := s.interpolate(x)
		if err != nil {
			return nil, fmt.Errorf("failed to interpolate at %.6f: %w", x, err)
		}
		out[i] = v
	}
	return out, nil
}
