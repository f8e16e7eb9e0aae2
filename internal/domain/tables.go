package domain

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// PartitionSum holds tabulated Q(T) values for one isotopologue.
// T must be strictly increasing.
type PartitionSum struct {
	MoleculeID     int       `json:"molecule_id"`
	IsotopologueID int       `json:"isotopologue_id"`
	T              []float64 `json:"t"`
	Q              []float64 `json:"q"`
}

// PartitionSumSet is a collection of tabulated partition sums.
type PartitionSumSet struct {
	Sums  []PartitionSum          `json:"sums"`
	ByKey map[IsoKey]PartitionSum `json:"-"`
}

// LoadPartitionSumSet reads a partition sum set from a JSON file.
func LoadPartitionSumSet(path string) (*PartitionSumSet, error) {
	//nolint:gosec // G304: Path comes from configuration.
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var set PartitionSumSet
	if err := json.Unmarshal(b, &set); err != nil {
		return nil, fmt.Errorf("invalid partition sum json: %w", err)
	}
	set.ByKey = make(map[IsoKey]PartitionSum, len(set.Sums))
	for _, s := range set.Sums {
		if len(s.T) != len(s.Q) {
			return nil, fmt.Errorf("partition sum (%d,%d): %d temperatures but %d values",
				s.MoleculeID, s.IsotopologueID, len(s.T), len(s.Q))
		}
		if !sort.Float64sAreSorted(s.T) {
			return nil, fmt.Errorf("partition sum (%d,%d): temperatures must be increasing", s.MoleculeID, s.IsotopologueID)
		}
		set.ByKey[IsoKey{MoleculeID: s.MoleculeID, IsotopologueID: s.IsotopologueID}] = s
	}
	return &set, nil
}

// LoadIsotopologues reads additional isotopologue metadata from a JSON array.
func LoadIsotopologues(path string) ([]Isotopologue, error) {
	//nolint:gosec // G304: Path comes from configuration.
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var isos []Isotopologue
	if err := json.Unmarshal(b, &isos); err != nil {
		return nil, fmt.Errorf("invalid isotopologue json: %w", err)
	}
	for _, iso := range isos {
		if iso.GlobalID <= 0 {
			return nil, fmt.Errorf("isotopologue %s: global_id must be positive", iso.Key())
		}
		if iso.Abundance <= 0 || iso.Q296 <= 0 {
			return nil, fmt.Errorf("isotopologue %s: abundance and q296 must be positive", iso.Key())
		}
	}
	return isos, nil
}
