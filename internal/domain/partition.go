package domain

import (
	"math"
	"sort"
)

// TRef is the HITRAN reference temperature in K.
const TRef = 296.0

// PartitionFunction returns the total internal partition sum Q(T).
type PartitionFunction interface {
	// Q returns the partition sum of the isotopologue at temperature t (K).
	Q(iso Isotopologue, t float64) float64
}

// PowerLawPartition approximates Q(T) = Q(296) * (T/296)^beta with beta = 1 for
// linear molecules and 1.5 otherwise (rigid rotor, vibration neglected).
type PowerLawPartition struct{}

// Q returns the power-law partition sum.
func (PowerLawPartition) Q(iso Isotopologue, t float64) float64 {
	beta := 1.5
	if iso.Linear {
		beta = 1.0
	}
	return iso.Q296 * math.Pow(t/TRef, beta)
}

// TabulatedPartition interpolates tabulated partition sums and falls back to
// PowerLawPartition for isotopologues or temperatures it does not cover.
type TabulatedPartition struct {
	set      *PartitionSumSet
	fallback PowerLawPartition
}

// NewTabulatedPartition creates a partition function backed by set.
// A nil set behaves exactly like PowerLawPartition.
func NewTabulatedPartition(set *PartitionSumSet) *TabulatedPartition {
	return &TabulatedPartition{set: set}
}

// Q returns the tabulated partition sum.
func (p *TabulatedPartition) Q(iso Isotopologue, t float64) float64 {
	if p.set != nil {
		if tab, ok := p.set.ByKey[iso.Key()]; ok {
			if q, ok := tab.Eval(t); ok {
				return q
			}
		}
	}
	return p.fallback.Q(iso, t)
}

// Eval interpolates Q linearly in T. It reports false outside the tabulated range.
func (s *PartitionSum) Eval(t float64) (float64, bool) {
	n := len(s.T)
	if n == 0 || n != len(s.Q) || t < s.T[0] || t > s.T[n-1] {
		return 0, false
	}
	i := sort.SearchFloat64s(s.T, t)
	if s.T[i] == t {
		return s.Q[i], true
	}
	w := (t - s.T[i-1]) / (s.T[i] - s.T[i-1])
	return s.Q[i-1] + w*(s.Q[i]-s.Q[i-1]), true
}
