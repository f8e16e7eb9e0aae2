// Package store defines persistence for fetched HITRAN line tables.
package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"time"

	"go.ngs.io/xsec-api/internal/domain"
)

var (
	// ErrTableNotFound is returned when a named table does not exist.
	ErrTableNotFound = errors.New("table not found")
	// ErrInvalidName is returned for table names that are not safe file names.
	ErrInvalidName = errors.New("invalid table name")
)

var tableNameRe = regexp.MustCompile(`^[A-Za-z0-9_.\-]{1,128}$`)

// TableInfo describes a stored line table.
type TableInfo struct {
	Name           string    `json:"name"`
	MoleculeID     int       `json:"molecule_id"`
	IsotopologueID int       `json:"isotopologue_id"`
	NuMin          float64   `json:"numin"`
	NuMax          float64   `json:"numax"`
	NumLines       int       `json:"num_lines"`
	Source         string    `json:"source,omitempty"` // Request URL or file the lines came from.
	FetchedAt      time.Time `json:"fetched_at"`
}

// Table is a named set of lines.
type Table struct {
	TableInfo
	Lines []domain.Line
}

// LineStore persists line tables by name. Saving an existing name replaces it.
type LineStore interface {
	SaveTable(ctx context.Context, t *Table) error
	LoadTable(ctx context.Context, name string) (*Table, error)
	ListTables(ctx context.Context) ([]TableInfo, error)
	DropTable(ctx context.Context, name string) error
	Close() error
}

// ValidateName rejects names that are not safe as file names.
func ValidateName(name string) error {
	if !tableNameRe.MatchString(name) || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// DefaultTableName derives a table name from the fetch parameters, e.g.
// m5_i1_2000_2200.
func DefaultTableName(moleculeID, isotopologueID int, nuMin, nuMax float64) string {
	return fmt.Sprintf("m%d_i%d_%s_%s", moleculeID, isotopologueID, formatNu(nuMin), formatNu(nuMax))
}

// formatNu prints v rounded to 1e-6 cm-1 so float noise in a bound does not
// leak into the name.
func formatNu(v float64) string {
	if math.Abs(v) < 1e15 {
		v = math.Round(v*1e6) / 1e6
		if v == 0 {
			v = 0 // Drop the sign of -0.
		}
	}
	s := fmt.Sprintf("%g", v)
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '-':
			out = append(out, 'n')
		case '+':
		default:
			out = append(out, s[i])
		}
	}
	return string(out)
}
