package domain

// Line is a single HITRAN line-by-line transition record.
type Line struct {
	MoleculeID     int
	IsotopologueID int
	Nu             float64 // Transition wavenumber in cm-1.
	Sw             float64 // Intensity at 296 K in cm-1/(molecule cm-2).
	A              float64 // Einstein A-coefficient in s-1.
	GammaAir       float64 // Air-broadened half width at 296 K in cm-1/atm.
	GammaSelf      float64 // Self-broadened half width at 296 K in cm-1/atm.
	ELower         float64 // Lower-state energy in cm-1.
	NAir           float64 // Temperature exponent for GammaAir.
	DeltaAir       float64 // Air pressure-induced shift in cm-1/atm.

	GlobalUpperQuanta string
	GlobalLowerQuanta string
	LocalUpperQuanta  string
	LocalLowerQuanta  string
	ErrorCodes        string
	References        string
	LineMixingFlag    string
	GUpper            float64 // Upper-state statistical weight.
	GLower            float64 // Lower-state statistical weight.
}

// Key returns the isotopologue key of the line.
func (l Line) Key() IsoKey {
	return IsoKey{MoleculeID: l.MoleculeID, IsotopologueID: l.IsotopologueID}
}

// Environment holds the thermodynamic conditions of the absorbing gas.
type Environment struct {
	PressureAtm  float64
	TemperatureK float64
}

// Component selects one isotopologue for the coefficient sum.
// Abundance of zero means the natural abundance.
type Component struct {
	MoleculeID     int
	IsotopologueID int
	Abundance      float64
}

// Key returns the isotopologue key of the component.
func (c Component) Key() IsoKey {
	return IsoKey{MoleculeID: c.MoleculeID, IsotopologueID: c.IsotopologueID}
}
