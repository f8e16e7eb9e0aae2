// Package sqlite stores line tables in a single SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"go.ngs.io/xsec-api/internal/adapter/store"
	"go.ngs.io/xsec-api/internal/domain"
)

// Store is the SQLite LineStore.
type Store struct {
	db *sql.DB
}

var _ store.LineStore = (*Store)(nil)

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the schema. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS line_tables (
  name            TEXT PRIMARY KEY,
  molecule_id     INTEGER NOT NULL,
  isotopologue_id INTEGER NOT NULL,
  numin           REAL NOT NULL,
  numax           REAL NOT NULL,
  num_lines       INTEGER NOT NULL,
  source          TEXT,
  fetched_at      TIMESTAMP
);

CREATE TABLE IF NOT EXISTS lines (
  table_name      TEXT NOT NULL REFERENCES line_tables(name) ON DELETE CASCADE,
  ordinal         INTEGER NOT NULL,
  molec_id        INTEGER NOT NULL,
  local_iso_id    INTEGER NOT NULL,
  nu              REAL NOT NULL,
  sw              REAL NOT NULL,
  a               REAL NOT NULL,
  gamma_air       REAL NOT NULL,
  gamma_self      REAL NOT NULL,
  elower          REAL NOT NULL,
  n_air           REAL NOT NULL,
  delta_air       REAL NOT NULL,
  global_upper_quanta TEXT,
  global_lower_quanta TEXT,
  local_upper_quanta  TEXT,
  local_lower_quanta  TEXT,
  ierr            TEXT,
  iref            TEXT,
  line_mixing_flag TEXT,
  gp              REAL,
  gpp             REAL,
  PRIMARY KEY (table_name, ordinal)
);

CREATE INDEX IF NOT EXISTS idx_lines_nu ON lines(table_name, nu);
`

const lineColumns = `molec_id, local_iso_id, nu, sw, a, gamma_air, gamma_self, elower, n_air, delta_air,
  global_upper_quanta, global_lower_quanta, local_upper_quanta, local_lower_quanta,
  ierr, iref, line_mixing_flag, gp, gpp`

// SaveTable replaces the table and its lines in one transaction.
func (s *Store) SaveTable(ctx context.Context, t *store.Table) error {
	if err := store.ValidateName(t.Name); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM lines WHERE table_name = ?", t.Name); err != nil {
		return fmt.Errorf("delete lines: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM line_tables WHERE name = ?", t.Name); err != nil {
		return fmt.Errorf("delete table: %w", err)
	}

	fetched := t.FetchedAt
	if fetched.IsZero() {
		fetched = time.Now().UTC()
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO line_tables (name, molecule_id, isotopologue_id, numin, numax, num_lines, source, fetched_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Name, t.MoleculeID, t.IsotopologueID, t.NuMin, t.NuMax, len(t.Lines), t.Source, fetched,
	); err != nil {
		return fmt.Errorf("insert table: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO lines (table_name, ordinal, "+lineColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare line insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, l := range t.Lines {
		if _, err := stmt.ExecContext(ctx, t.Name, i,
			l.MoleculeID, l.IsotopologueID, l.Nu, l.Sw, l.A, l.GammaAir, l.GammaSelf, l.ELower, l.NAir, l.DeltaAir,
			l.GlobalUpperQuanta, l.GlobalLowerQuanta, l.LocalUpperQuanta, l.LocalLowerQuanta,
			l.ErrorCodes, l.References, l.LineMixingFlag, l.GUpper, l.GLower,
		); err != nil {
			return fmt.Errorf("insert line %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) tableInfo(ctx context.Context, name string) (store.TableInfo, error) {
	var info store.TableInfo
	var source sql.NullString
	var fetched sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT name, molecule_id, isotopologue_id, numin, numax, num_lines, source, fetched_at
		 FROM line_tables WHERE name = ?`, name,
	).Scan(&info.Name, &info.MoleculeID, &info.IsotopologueID, &info.NuMin, &info.NuMax, &info.NumLines, &source, &fetched)
	if errors.Is(err, sql.ErrNoRows) {
		return info, fmt.Errorf("%w: %s", store.ErrTableNotFound, name)
	}
	if err != nil {
		return info, fmt.Errorf("query table %s: %w", name, err)
	}
	info.Source = source.String
	info.FetchedAt = fetched.Time
	return info, nil
}

// LoadTable reads a table with its lines in insertion order.
func (s *Store) LoadTable(ctx context.Context, name string) (*store.Table, error) {
	if err := store.ValidateName(name); err != nil {
		return nil, err
	}
	info, err := s.tableInfo(ctx, name)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+lineColumns+" FROM lines WHERE table_name = ? ORDER BY ordinal", name)
	if err != nil {
		return nil, fmt.Errorf("query lines: %w", err)
	}
	defer func() { _ = rows.Close() }()

	lines := make([]domain.Line, 0, info.NumLines)
	for rows.Next() {
		var l domain.Line
		if err := rows.Scan(
			&l.MoleculeID, &l.IsotopologueID, &l.Nu, &l.Sw, &l.A, &l.GammaAir, &l.GammaSelf, &l.ELower, &l.NAir, &l.DeltaAir,
			&l.GlobalUpperQuanta, &l.GlobalLowerQuanta, &l.LocalUpperQuanta, &l.LocalLowerQuanta,
			&l.ErrorCodes, &l.References, &l.LineMixingFlag, &l.GUpper, &l.GLower,
		); err != nil {
			return nil, fmt.Errorf("scan line: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lines: %w", err)
	}
	info.NumLines = len(lines)
	return &store.Table{TableInfo: info, Lines: lines}, nil
}

// ListTables returns every table, sorted by name.
func (s *Store) ListTables(ctx context.Context) ([]store.TableInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, molecule_id, isotopologue_id, numin, numax, num_lines, source, fetched_at
		 FROM line_tables ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	infos := make([]store.TableInfo, 0)
	for rows.Next() {
		var info store.TableInfo
		var source sql.NullString
		var fetched sql.NullTime
		if err := rows.Scan(&info.Name, &info.MoleculeID, &info.IsotopologueID, &info.NuMin, &info.NuMax, &info.NumLines, &source, &fetched); err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		info.Source = source.String
		info.FetchedAt = fetched.Time
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// DropTable deletes a table and its lines.
func (s *Store) DropTable(ctx context.Context, name string) error {
	if err := store.ValidateName(name); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM line_tables WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("delete table: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", store.ErrTableNotFound, name)
	}
	return nil
}
