package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.ngs.io/xsec-api/internal/adapter/hitran"
	"go.ngs.io/xsec-api/internal/adapter/interp"
	"go.ngs.io/xsec-api/internal/adapter/store"
	"go.ngs.io/xsec-api/internal/domain"
	"go.ngs.io/xsec-api/internal/logging"
	"go.ngs.io/xsec-api/internal/metrics"
)

// DefaultStep is the wavenumber step of the computed curve in cm-1.
const DefaultStep = 0.01

// LineFetcher retrieves line lists from the spectroscopic database.
type LineFetcher interface {
	Fetch(ctx context.Context, q hitran.Query) ([]domain.Line, error)
}

// Calculator computes an absorption coefficient from lines.
type Calculator interface {
	Compute(lines []domain.Line, opts domain.CoefficientOptions) (*domain.Spectrum, error)
}

// LorentzCalculator computes Lorentz-broadened spectra.
type LorentzCalculator struct{}

// Compute implements Calculator.
func (LorentzCalculator) Compute(lines []domain.Line, opts domain.CoefficientOptions) (*domain.Spectrum, error) {
	return domain.AbsorptionCoefficientLorentz(lines, opts)
}

// CrossSectionRequest encapsulates a cross-section query.
type CrossSectionRequest struct {
	MoleculeID     int
	IsotopologueID int

	// Wavenumber window of the fetch and of the computed curve, in cm-1.
	NuMin float64
	NuMax float64

	// Query point in Unit. The default unit is cm-1.
	Wavelength float64
	Unit       domain.SpectralUnit

	TemperatureK float64
	PressureAtm  float64
}

// CrossSectionResponse contains the interpolated cross section.
type CrossSectionResponse struct {
	Table          string  `json:"table"`
	MoleculeID     int     `json:"molecule_id"`
	IsotopologueID int     `json:"isotopologue_id"`
	NuMin          float64 `json:"numin"`
	NuMax          float64 `json:"numax"`
	Wavelength     float64 `json:"wavelength"`
	Unit           string  `json:"unit"`
	Wavenumber     float64 `json:"wavenumber"`
	TemperatureK   float64 `json:"temperature_k"`
	PressureAtm    float64 `json:"pressure_atm"`
	CrossSection   float64 `json:"cross_section"`
	Units          string  `json:"units"`
	Extrapolated   bool    `json:"extrapolated"`
	NumLines       int     `json:"num_lines"`
	NumGridPoints  int     `json:"num_grid_points"`
}

// Options configures a CrossSectionUseCase. Zero values take defaults.
type Options struct {
	// TableName is used for every fetch when set; otherwise each request
	// derives its own name.
	TableName     string
	Step          float64
	Isotopologues *domain.IsotopologueTable
	Partition     domain.PartitionFunction
}

// CrossSectionUseCase orchestrates fetch, computation and interpolation.
type CrossSectionUseCase struct {
	fetcher       LineFetcher
	calc          Calculator
	store         store.LineStore
	tableName     string
	step          float64
	isotopologues *domain.IsotopologueTable
	partition     domain.PartitionFunction
	locks         *tableLocks
}

// NewCrossSectionUseCase creates a new cross-section use case.
func NewCrossSectionUseCase(fetcher LineFetcher, calc Calculator, lineStore store.LineStore, opts Options) *CrossSectionUseCase {
	if calc == nil {
		calc = LorentzCalculator{}
	}
	if opts.Step <= 0 {
		opts.Step = DefaultStep
	}
	if opts.Isotopologues == nil {
		opts.Isotopologues = domain.NewIsotopologueTable()
	}
	if opts.Partition == nil {
		opts.Partition = domain.PowerLawPartition{}
	}
	return &CrossSectionUseCase{
		fetcher:       fetcher,
		calc:          calc,
		store:         lineStore,
		tableName:     opts.TableName,
		step:          opts.Step,
		isotopologues: opts.Isotopologues,
		partition:     opts.Partition,
		locks:         newTableLocks(),
	}
}

// Execute fetches the lines of one isotopologue into a table, computes the
// Lorentz cross section over [NuMin, NuMax] and interpolates it at the query
// point. Temperature, pressure and range are passed to the calculator as
// given; it rejects non-physical values.
func (uc *CrossSectionUseCase) Execute(ctx context.Context, req CrossSectionRequest) (*CrossSectionResponse, error) {
	unit := req.Unit
	if unit == "" {
		unit = domain.UnitWavenumber
	}
	nu, err := domain.ToWavenumber(req.Wavelength, unit)
	if err != nil {
		return nil, fmt.Errorf("invalid query point: %w", err)
	}

	table := uc.TableNameFor(req.MoleculeID, req.IsotopologueID, req.NuMin, req.NuMax)
	unlock := uc.locks.lock(table)
	defer unlock()

	tbl, err := uc.fetchLocked(ctx, table, hitran.Query{
		MoleculeID:     req.MoleculeID,
		IsotopologueID: req.IsotopologueID,
		NuMin:          req.NuMin,
		NuMax:          req.NuMax,
	})
	if err != nil {
		return nil, err
	}

	spec, err := uc.compute(tbl.Lines, domain.CoefficientOptions{
		Components:  []domain.Component{{MoleculeID: req.MoleculeID, IsotopologueID: req.IsotopologueID}},
		Environment: domain.Environment{PressureAtm: req.PressureAtm, TemperatureK: req.TemperatureK},
		OmegaMin:    req.NuMin,
		OmegaMax:    req.NuMax,
		OmegaStep:   uc.step,
		HITRANUnits: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compute absorption coefficient: %w", err)
	}

	xsec, err := interp.Linear(spec.Nu, spec.Coef, nu)
	if err != nil {
		return nil, fmt.Errorf("failed to interpolate at %.6f cm-1: %w", nu, err)
	}

	// The grid can stop short of NuMax when the range is not a whole number of steps.
	gridMin, gridMax := spec.Nu[0], spec.Nu[len(spec.Nu)-1]
	extrapolated := nu < gridMin || nu > gridMax
	if extrapolated {
		logging.Warn("Query point outside computed grid, returning boundary value",
			"wavenumber", nu,
			"unit", string(unit),
			"grid_min", gridMin,
			"grid_max", gridMax)
	}

	return &CrossSectionResponse{
		Table:          table,
		MoleculeID:     req.MoleculeID,
		IsotopologueID: req.IsotopologueID,
		NuMin:          req.NuMin,
		NuMax:          req.NuMax,
		Wavelength:     req.Wavelength,
		Unit:           string(unit),
		Wavenumber:     nu,
		TemperatureK:   req.TemperatureK,
		PressureAtm:    req.PressureAtm,
		CrossSection:   xsec,
		Units:          spec.Units,
		Extrapolated:   extrapolated,
		NumLines:       len(tbl.Lines),
		NumGridPoints:  spec.Len(),
	}, nil
}

// TableNameFor returns the table a request for these parameters writes to.
func (uc *CrossSectionUseCase) TableNameFor(moleculeID, isotopologueID int, nuMin, nuMax float64) string {
	if uc.tableName != "" {
		return uc.tableName
	}
	return store.DefaultTableName(moleculeID, isotopologueID, nuMin, nuMax)
}

// FetchRequest selects lines to download into a table.
type FetchRequest struct {
	MoleculeID     int
	IsotopologueID int
	NuMin          float64
	NuMax          float64
	Table          string // Optional; derived from the parameters when empty.
}

// Fetch downloads lines into a table, replacing any previous contents.
func (uc *CrossSectionUseCase) Fetch(ctx context.Context, req FetchRequest) (*store.TableInfo, error) {
	table := req.Table
	if table == "" {
		table = uc.TableNameFor(req.MoleculeID, req.IsotopologueID, req.NuMin, req.NuMax)
	}
	unlock := uc.locks.lock(table)
	defer unlock()

	tbl, err := uc.fetchLocked(ctx, table, hitran.Query{
		MoleculeID:     req.MoleculeID,
		IsotopologueID: req.IsotopologueID,
		NuMin:          req.NuMin,
		NuMax:          req.NuMax,
	})
	if err != nil {
		return nil, err
	}
	return &tbl.TableInfo, nil
}

// fetchLocked downloads and stores a table. Caller must hold the table lock.
func (uc *CrossSectionUseCase) fetchLocked(ctx context.Context, table string, q hitran.Query) (*store.Table, error) {
	start := time.Now()
	lines, err := uc.fetcher.Fetch(ctx, q)
	metrics.ObserveFetch(time.Since(start).Seconds(), len(lines), err)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch lines for molecule %d isotopologue %d: %w", q.MoleculeID, q.IsotopologueID, err)
	}

	tbl := &store.Table{
		TableInfo: store.TableInfo{
			Name:           table,
			MoleculeID:     q.MoleculeID,
			IsotopologueID: q.IsotopologueID,
			NuMin:          q.NuMin,
			NuMax:          q.NuMax,
			NumLines:       len(lines),
			Source:         "hitran",
			FetchedAt:      time.Now().UTC(),
		},
		Lines: lines,
	}
	if err := uc.store.SaveTable(ctx, tbl); err != nil {
		return nil, fmt.Errorf("failed to save table %s: %w", table, err)
	}

	logging.Info("Fetched line table",
		"table", table,
		"molecule_id", q.MoleculeID,
		"isotopologue_id", q.IsotopologueID,
		"lines", len(lines),
		"duration_ms", time.Since(start).Milliseconds())
	return tbl, nil
}

func (uc *CrossSectionUseCase) compute(lines []domain.Line, opts domain.CoefficientOptions) (*domain.Spectrum, error) {
	if opts.Isotopologues == nil {
		opts.Isotopologues = uc.isotopologues
	}
	if opts.Partition == nil {
		opts.Partition = uc.partition
	}
	start := time.Now()
	spec, err := uc.calc.Compute(lines, opts)
	metrics.ComputeDuration.Observe(time.Since(start).Seconds())
	return spec, err
}

// ListTables returns the stored tables.
func (uc *CrossSectionUseCase) ListTables(ctx context.Context) ([]store.TableInfo, error) {
	return uc.store.ListTables(ctx)
}

// DropTable removes a stored table.
func (uc *CrossSectionUseCase) DropTable(ctx context.Context, name string) error {
	unlock := uc.locks.lock(name)
	defer unlock()
	return uc.store.DropTable(ctx, name)
}

// Isotopologues returns the known isotopologues.
func (uc *CrossSectionUseCase) Isotopologues() []domain.Isotopologue {
	return uc.isotopologues.All()
}

// tableLocks serializes writers of the same table within the process.
// Entries are reference counted and removed when the last holder unlocks.
type tableLocks struct {
	mu    sync.Mutex
	locks map[string]*tableLock
}

type tableLock struct {
	mu   sync.Mutex
	refs int
}

func newTableLocks() *tableLocks {
	return &tableLocks{locks: make(map[string]*tableLock)}
}

func (l *tableLocks) lock(name string) func() {
	l.mu.Lock()
	tl, ok := l.locks[name]
	if !ok {
		tl = &tableLock{}
		l.locks[name] = tl
	}
	tl.refs++
	l.mu.Unlock()

	tl.mu.Lock()
	return func() {
		tl.mu.Unlock()
		l.mu.Lock()
		tl.refs--
		if tl.refs == 0 {
			delete(l.locks, name)
		}
		l.mu.Unlock()
	}
}

func (l *tableLocks) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
