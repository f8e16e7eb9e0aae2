package local

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.ngs.io/xsec-api/internal/adapter/hitran"
	"go.ngs.io/xsec-api/internal/adapter/store"
	"go.ngs.io/xsec-api/internal/domain"
)

func testLines() []domain.Line {
	base := domain.Line{
		MoleculeID: 5, IsotopologueID: 1,
		Sw: 1.919e-19, A: 14.28, GammaAir: 0.0532, GammaSelf: 0.058,
		NAir: 0.69, DeltaAir: -0.003046, GUpper: 3, GLower: 1,
	}
	a, b := base, base
	a.Nu = 2147.081139
	b.Nu, b.ELower = 2150.856010, 3.8450
	return []domain.Line{a, b}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_SaveLoad(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	fetched := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	err := s.SaveTable(ctx, &store.Table{
		TableInfo: store.TableInfo{Name: "co", MoleculeID: 5, IsotopologueID: 1, NuMin: 2140, NuMax: 2160, FetchedAt: fetched},
		Lines:     testLines(),
	})
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(s.Dir(), "co.data"))
	assert.FileExists(t, filepath.Join(s.Dir(), "co.header"))

	tbl, err := s.LoadTable(ctx, "co")
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.NumLines)
	assert.Equal(t, 2140.0, tbl.NuMin)
	assert.True(t, tbl.FetchedAt.Equal(fetched))
	require.Len(t, tbl.Lines, 2)
	assert.InDelta(t, 2150.85601, tbl.Lines[1].Nu, 1e-9)
	assert.InDelta(t, 3.845, tbl.Lines[1].ELower, 1e-9)
}

func TestStore_Overwrite(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveTable(ctx, &store.Table{TableInfo: store.TableInfo{Name: "co"}, Lines: testLines()}))
	require.NoError(t, s.SaveTable(ctx, &store.Table{TableInfo: store.TableInfo{Name: "co"}, Lines: testLines()[:1]}))

	tbl, err := s.LoadTable(ctx, "co")
	require.NoError(t, err)
	assert.Len(t, tbl.Lines, 1)

	// No temporary files are left behind.
	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestStore_LoadMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.LoadTable(context.Background(), "nothing")
	assert.ErrorIs(t, err, store.ErrTableNotFound)

	_, err = s.LoadTable(context.Background(), "../escape")
	require.Error(t, err)
	assert.NotErrorIs(t, err, store.ErrTableNotFound)
}

func TestStore_LoadWithoutHeader(t *testing.T) {
	s := newTestStore(t)
	f, err := os.Create(filepath.Join(s.Dir(), "imported.data"))
	require.NoError(t, err)
	require.NoError(t, hitran.WriteParLines(f, testLines()))
	require.NoError(t, f.Close())

	tbl, err := s.LoadTable(context.Background(), "imported")
	require.NoError(t, err)
	assert.Equal(t, 5, tbl.MoleculeID)
	assert.InDelta(t, 2147.081139, tbl.NuMin, 1e-9)
	assert.InDelta(t, 2150.85601, tbl.NuMax, 1e-9)
	assert.Equal(t, 2, tbl.NumLines)
}

func TestStore_ListAndDrop(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"b", "a"} {
		require.NoError(t, s.SaveTable(ctx, &store.Table{TableInfo: store.TableInfo{Name: name}, Lines: testLines()}))
	}
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "notes.txt"), []byte("x"), 0o600))

	infos, err := s.ListTables(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "a", infos[0].Name)
	assert.Equal(t, 2, infos[0].NumLines)

	require.NoError(t, s.DropTable(ctx, "a"))
	assert.ErrorIs(t, s.DropTable(ctx, "a"), store.ErrTableNotFound)

	infos, err = s.ListTables(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "b", infos[0].Name)
}

func TestStore_CancelledContext(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.SaveTable(ctx, &store.Table{TableInfo: store.TableInfo{Name: "co"}, Lines: testLines()})
	assert.ErrorIs(t, err, context.Canceled)
}
