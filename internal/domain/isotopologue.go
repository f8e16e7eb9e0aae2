package domain

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownIsotopologue is returned when a (molecule, isotopologue) pair has no metadata.
var ErrUnknownIsotopologue = errors.New("unknown isotopologue")

// IsoKey identifies an isotopologue by HITRAN molecule and local isotopologue number.
type IsoKey struct {
	MoleculeID     int
	IsotopologueID int
}

func (k IsoKey) String() string {
	return fmt.Sprintf("(%d,%d)", k.MoleculeID, k.IsotopologueID)
}

// Isotopologue holds the HITRAN metadata needed to fetch and scale lines.
type Isotopologue struct {
	MoleculeID     int     `json:"molecule_id"`
	IsotopologueID int     `json:"isotopologue_id"`
	GlobalID       int     `json:"global_id"`  // HITRAN global isotopologue id used by the API.
	Molecule       string  `json:"molecule"`   // E.g., "H2O".
	Formula        string  `json:"formula"`    // E.g., "H2(16O)".
	Abundance      float64 `json:"abundance"`  // Natural terrestrial abundance.
	MolarMass      float64 `json:"molar_mass"` // g/mol.
	Q296           float64 `json:"q296"`       // Total internal partition sum at 296 K.
	Linear         bool    `json:"linear"`     // Linear molecules rotate with two degrees of freedom.
}

// Key returns the lookup key of the isotopologue.
func (i Isotopologue) Key() IsoKey {
	return IsoKey{MoleculeID: i.MoleculeID, IsotopologueID: i.IsotopologueID}
}

// StandardIsotopologues contains the most abundant isotopologues of the common
// atmospheric absorbers.
// Reference: https://hitran.org/docs/iso-meta/
//
//nolint:gochecknoglobals // Read-only metadata table.
var StandardIsotopologues = map[IsoKey]Isotopologue{
	// Water vapour.
	{1, 1}: {1, 1, 1, "H2O", "H2(16O)", 0.997317, 18.010565, 174.58, false},
	{1, 2}: {1, 2, 2, "H2O", "H2(18O)", 1.99983e-3, 20.014811, 176.05, false},
	{1, 3}: {1, 3, 3, "H2O", "H2(17O)", 3.71884e-4, 19.01478, 1052.14, false},
	{1, 4}: {1, 4, 4, "H2O", "HD(16O)", 3.10693e-4, 19.01674, 864.74, false},

	// Carbon dioxide.
	{2, 1}: {2, 1, 7, "CO2", "(12C)(16O)2", 0.984204, 43.98983, 286.09, true},
	{2, 2}: {2, 2, 8, "CO2", "(13C)(16O)2", 1.10574e-2, 44.993185, 576.64, true},
	{2, 3}: {2, 3, 9, "CO2", "(16O)(12C)(18O)", 3.94707e-3, 45.994076, 607.81, true},

	// Ozone.
	{3, 1}: {3, 1, 16, "O3", "(16O)3", 0.992901, 47.984745, 3483.71, false},

	// Nitrous oxide.
	{4, 1}: {4, 1, 21, "N2O", "(14N)2(16O)", 0.990333, 44.001062, 4984.9, true},

	// Carbon monoxide.
	{5, 1}: {5, 1, 26, "CO", "(12C)(16O)", 0.986544, 27.994915, 107.42, true},
	{5, 2}: {5, 2, 27, "CO", "(13C)(16O)", 1.10836e-2, 28.99827, 224.69, true},

	// Methane.
	{6, 1}: {6, 1, 32, "CH4", "(12C)H4", 0.988274, 16.0313, 590.48, false},
	{6, 2}: {6, 2, 33, "CH4", "(13C)H4", 1.11031e-2, 17.034655, 1180.82, false},

	// Oxygen.
	{7, 1}: {7, 1, 36, "O2", "(16O)2", 0.995262, 31.98983, 215.73, true},

	// Nitric oxide.
	{8, 1}: {8, 1, 39, "NO", "(14N)(16O)", 0.993974, 29.997989, 1142.13, true},

	// Sulfur dioxide.
	{9, 1}: {9, 1, 42, "SO2", "(32S)(16O)2", 0.945678, 63.961901, 6340.3, false},

	// Nitrogen dioxide.
	{10, 1}: {10, 1, 44, "NO2", "(14N)(16O)2", 0.991616, 45.992904, 13577.48, false},

	// Ammonia.
	{11, 1}: {11, 1, 45, "NH3", "(14N)H3", 0.995872, 17.026549, 1725.22, false},

	// Hydrogen fluoride.
	{14, 1}: {14, 1, 51, "HF", "H(19F)", 0.99984, 20.006229, 41.47, true},

	// Hydrogen chloride.
	{15, 1}: {15, 1, 52, "HCl", "H(35Cl)", 0.757587, 35.976678, 160.65, true},
	{15, 2}: {15, 2, 53, "HCl", "H(37Cl)", 0.242257, 37.973729, 160.89, true},
}

// IsotopologueTable is a lookup of isotopologue metadata.
type IsotopologueTable struct {
	byKey map[IsoKey]Isotopologue
}

// NewIsotopologueTable creates a table seeded with StandardIsotopologues and the given extras.
// Extras replace built-in entries with the same key.
func NewIsotopologueTable(extra ...Isotopologue) *IsotopologueTable {
	t := &IsotopologueTable{byKey: make(map[IsoKey]Isotopologue, len(StandardIsotopologues)+len(extra))}
	for k, v := range StandardIsotopologues {
		t.byKey[k] = v
	}
	for _, iso := range extra {
		t.byKey[iso.Key()] = iso
	}
	return t
}

// Lookup returns the metadata for a (molecule, isotopologue) pair.
func (t *IsotopologueTable) Lookup(moleculeID, isotopologueID int) (Isotopologue, error) {
	iso, ok := t.byKey[IsoKey{MoleculeID: moleculeID, IsotopologueID: isotopologueID}]
	if !ok {
		return Isotopologue{}, fmt.Errorf("%w: molecule %d isotopologue %d", ErrUnknownIsotopologue, moleculeID, isotopologueID)
	}
	return iso, nil
}

// All returns every isotopologue ordered by molecule and isotopologue number.
func (t *IsotopologueTable) All() []Isotopologue {
	out := make([]Isotopologue, 0, len(t.byKey))
	for _, iso := range t.byKey {
		out = append(out, iso)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MoleculeID != out[j].MoleculeID {
			return out[i].MoleculeID < out[j].MoleculeID
		}
		return out[i].IsotopologueID < out[j].IsotopologueID
	})
	return out
}
