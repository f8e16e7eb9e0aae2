package usecase

import (
	"context"
	"fmt"

	"go.ngs.io/xsec-api/internal/adapter/hitran"
	"go.ngs.io/xsec-api/internal/adapter/store"
	"go.ngs.io/xsec-api/internal/domain"
)

// SpectrumRequest asks for the full computed curve instead of one point.
type SpectrumRequest struct {
	MoleculeID     int
	IsotopologueID int
	NuMin          float64
	NuMax          float64
	Step           float64 // Defaults to the use case step.

	TemperatureK float64
	PressureAtm  float64

	// SelfFraction is the volume fraction of self broadening; the rest is air.
	SelfFraction float64
	// Absorption selects cm-1 output instead of cm2/molecule.
	Absorption bool

	// Table reuses a stored table instead of fetching.
	Table string
	// Peaks is the number of strongest peaks to report; negative means all.
	Peaks int
}

// SpectrumResponse contains a computed curve and its strongest peaks.
type SpectrumResponse struct {
	Table          string           `json:"table"`
	MoleculeID     int              `json:"molecule_id"`
	IsotopologueID int              `json:"isotopologue_id"`
	TemperatureK   float64          `json:"temperature_k"`
	PressureAtm    float64          `json:"pressure_atm"`
	Units          string           `json:"units"`
	NumLines       int              `json:"num_lines"`
	Nu             []float64        `json:"nu"`
	Coef           []float64        `json:"coef"`
	Peaks          []domain.Peak    `json:"peaks"`
	Spectrum       *domain.Spectrum `json:"-"`
}

// Spectrum computes the Lorentz coefficient over the requested window.
func (uc *CrossSectionUseCase) Spectrum(ctx context.Context, req SpectrumRequest) (*SpectrumResponse, error) {
	var tbl *store.Table
	var err error

	name := req.Table
	if name != "" {
		tbl, err = uc.store.LoadTable(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to load table %s: %w", name, err)
		}
	} else {
		name = uc.TableNameFor(req.MoleculeID, req.IsotopologueID, req.NuMin, req.NuMax)
		unlock := uc.locks.lock(name)
		tbl, err = uc.fetchLocked(ctx, name, hitran.Query{
			MoleculeID:     req.MoleculeID,
			IsotopologueID: req.IsotopologueID,
			NuMin:          req.NuMin,
			NuMax:          req.NuMax,
		})
		unlock()
		if err != nil {
			return nil, err
		}
	}

	step := req.Step
	if step <= 0 {
		step = uc.step
	}
	diluent := domain.Diluent{Air: 1 - req.SelfFraction, Self: req.SelfFraction}

	spec, err := uc.compute(tbl.Lines, domain.CoefficientOptions{
		Components:  []domain.Component{{MoleculeID: req.MoleculeID, IsotopologueID: req.IsotopologueID}},
		Environment: domain.Environment{PressureAtm: req.PressureAtm, TemperatureK: req.TemperatureK},
		Diluent:     diluent,
		OmegaMin:    req.NuMin,
		OmegaMax:    req.NuMax,
		OmegaStep:   step,
		HITRANUnits: !req.Absorption,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compute absorption coefficient: %w", err)
	}

	peaks := domain.RefinePeaks(spec, domain.FindPeaks(spec))
	peaks = domain.StrongestPeaks(peaks, req.Peaks)

	return &SpectrumResponse{
		Table:          name,
		MoleculeID:     req.MoleculeID,
		IsotopologueID: req.IsotopologueID,
		TemperatureK:   req.TemperatureK,
		PressureAtm:    req.PressureAtm,
		Units:          spec.Units,
		NumLines:       len(tbl.Lines),
		Nu:             spec.Nu,
		Coef:           spec.Coef,
		Peaks:          peaks,
		Spectrum:       spec,
	}, nil
}
