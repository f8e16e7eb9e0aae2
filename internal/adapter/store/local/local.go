// Package local stores line tables as .par files in a data directory.
//
// Each table is a pair of files: <name>.data holds the 160-character records
// and <name>.header holds the JSON table description. A .data file without a
// header (e.g. a .par file copied into the directory) is still loadable.
package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.ngs.io/xsec-api/internal/adapter/hitran"
	"go.ngs.io/xsec-api/internal/adapter/store"
	"go.ngs.io/xsec-api/internal/logging"
)

const (
	dataExt   = ".data"
	headerExt = ".header"
)

// Store is a directory-backed LineStore.
type Store struct {
	dir string
	mu  sync.RWMutex
}

var _ store.LineStore = (*Store)(nil)

// NewStore opens dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	//nolint:gosec // G301: Data directory is shared with other tools.
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the data directory.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) dataPath(name string) string   { return filepath.Join(s.dir, name+dataExt) }
func (s *Store) headerPath(name string) string { return filepath.Join(s.dir, name+headerExt) }

// SaveTable writes both files through temporary files and renames them into place.
func (s *Store) SaveTable(ctx context.Context, t *store.Table) error {
	if err := store.ValidateName(t.Name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	info := t.TableInfo
	info.NumLines = len(t.Lines)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writeAtomic(s.dataPath(t.Name), func(w io.Writer) error {
		return hitran.WriteParLines(w, t.Lines)
	}); err != nil {
		return fmt.Errorf("failed to write table %s: %w", t.Name, err)
	}
	if err := s.writeAtomic(s.headerPath(t.Name), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}); err != nil {
		return fmt.Errorf("failed to write header for %s: %w", t.Name, err)
	}

	logging.Debug("Saved table", "table", t.Name, "lines", info.NumLines, "dir", s.dir)
	return nil
}

func (s *Store) writeAtomic(path string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(s.dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// LoadTable reads a table. The header is optional.
func (s *Store) LoadTable(ctx context.Context, name string) (*store.Table, error) {
	if err := store.ValidateName(name); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	//nolint:gosec // G304: Name validated above.
	f, err := os.Open(s.dataPath(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", store.ErrTableNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open table %s: %w", name, err)
	}
	defer func() { _ = f.Close() }()

	lines, err := hitran.ParseParLines(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse table %s: %w", name, err)
	}

	info, err := s.readHeader(name)
	if err != nil {
		return nil, err
	}
	info.NumLines = len(lines)
	if info.NuMin == 0 && info.NuMax == 0 && len(lines) > 0 {
		info.NuMin, info.NuMax = lines[0].Nu, lines[len(lines)-1].Nu
		info.MoleculeID, info.IsotopologueID = lines[0].MoleculeID, lines[0].IsotopologueID
	}

	return &store.Table{TableInfo: info, Lines: lines}, nil
}

// readHeader returns the stored description, or a minimal one when the header
// file is missing. Caller must hold the lock.
func (s *Store) readHeader(name string) (store.TableInfo, error) {
	info := store.TableInfo{Name: name}
	//nolint:gosec // G304: Name validated by the caller.
	data, err := os.ReadFile(s.headerPath(name))
	if errors.Is(err, fs.ErrNotExist) {
		info.Source = s.dataPath(name)
		return info, nil
	}
	if err != nil {
		return info, fmt.Errorf("failed to read header for %s: %w", name, err)
	}
	if err := json.Unmarshal(data, &info); err != nil {
		return info, fmt.Errorf("invalid header for %s: %w", name, err)
	}
	info.Name = name
	return info, nil
}

// ListTables lists every .data file in the directory, sorted by name.
func (s *Store) ListTables(ctx context.Context) ([]store.TableInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory %s: %w", s.dir, err)
	}

	infos := make([]store.TableInfo, 0)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), dataExt) {
			continue
		}
		name := strings.TrimSuffix(e.Name(), dataExt)
		if store.ValidateName(name) != nil {
			continue
		}
		info, err := s.readHeader(name)
		if err != nil {
			logging.Warn("Skipping table with unreadable header", "table", name, "error", err)
			continue
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// DropTable removes both files of a table.
func (s *Store) DropTable(ctx context.Context, name string) error {
	if err := store.ValidateName(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.dataPath(name))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", store.ErrTableNotFound, name)
	}
	if err != nil {
		return fmt.Errorf("failed to remove table %s: %w", name, err)
	}
	if err := os.Remove(s.headerPath(name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove header for %s: %w", name, err)
	}
	return nil
}

// Close is a no-op; the directory store holds no open handles.
func (s *Store) Close() error {
	return nil
}
