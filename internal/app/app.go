// Package app assembles the cross-section pipeline from configuration.
package app

import (
	"fmt"
	"os"
	"path/filepath"

	"go.ngs.io/xsec-api/internal/adapter/hitran"
	"go.ngs.io/xsec-api/internal/adapter/store"
	"go.ngs.io/xsec-api/internal/adapter/store/local"
	"go.ngs.io/xsec-api/internal/adapter/store/sqlite"
	"go.ngs.io/xsec-api/internal/config"
	"go.ngs.io/xsec-api/internal/domain"
	"go.ngs.io/xsec-api/internal/logging"
	"go.ngs.io/xsec-api/internal/usecase"
)

// App holds the wired use case and the store it owns.
type App struct {
	UseCase *usecase.CrossSectionUseCase
	Store   store.LineStore
	Client  *hitran.Client
}

// New builds the isotopologue table, partition function, line store and
// HITRAN client described by cfg.
func New(cfg *config.Config) (*App, error) {
	var extra []domain.Isotopologue
	if cfg.IsotopologuesPath != "" {
		isos, err := domain.LoadIsotopologues(cfg.IsotopologuesPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load isotopologues: %w", err)
		}
		logging.Info("Loaded isotopologue metadata", "path", cfg.IsotopologuesPath, "count", len(isos))
		extra = isos
	}
	isotopologues := domain.NewIsotopologueTable(extra...)

	var partition domain.PartitionFunction = domain.PowerLawPartition{}
	if cfg.PartitionSumsPath != "" {
		set, err := domain.LoadPartitionSumSet(cfg.PartitionSumsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load partition sums: %w", err)
		}
		logging.Info("Loaded partition sums", "path", cfg.PartitionSumsPath, "count", len(set.ByKey))
		partition = domain.NewTabulatedPartition(set)
	} else {
		logging.Warn("PARTITION_SUMS_PATH is not set, using the rigid-rotor power law for Q(T); results away from 296 K are approximate")
	}

	lineStore, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	client := hitran.NewClient(hitran.Config{
		BaseURL:           cfg.HITRANBaseURL,
		APIKey:            cfg.HITRANAPIKey,
		Timeout:           cfg.HITRANTimeout,
		RequestsPerSecond: cfg.HITRANRate,
		Isotopologues:     isotopologues,
	})
	if cfg.HITRANAPIKey == "" {
		logging.Warn("HITRAN_API_KEY is not set, upstream requests may be rejected")
	}

	uc := usecase.NewCrossSectionUseCase(client, usecase.LorentzCalculator{}, lineStore, usecase.Options{
		TableName:     cfg.TableName,
		Isotopologues: isotopologues,
		Partition:     partition,
	})

	return &App{UseCase: uc, Store: lineStore, Client: client}, nil
}

// Close releases the line store.
func (a *App) Close() error {
	return a.Store.Close()
}

func openStore(cfg *config.Config) (store.LineStore, error) {
	switch cfg.StoreBackend {
	case config.BackendSQLite:
		//nolint:gosec // G301: Data directory is shared with other tools.
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
		}
		s, err := sqlite.NewStore(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		if err := s.Migrate(); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("failed to migrate sqlite store: %w", err)
		}
		logging.Info("Using sqlite line store", "path", cfg.SQLitePath)
		return s, nil
	default:
		s, err := local.NewStore(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open local store: %w", err)
		}
		logging.Info("Using local line store", "dir", cfg.DataDir)
		return s, nil
	}
}
