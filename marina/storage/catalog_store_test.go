package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wbrown/marina-sql/marina"
	"github.com/wbrown/marina-sql/marina/catalog"
)

func buildTestCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat := catalog.NewCatalog(4096)

	_, err := cat.CreateTable("Sailors", catalog.TableStatistics{Cardinality: 750, Pages: 50})
	require.NoError(t, err)
	_, err = cat.AddColumn("Sailors", catalog.Column{Name: "sid", Type: marina.TypeInt,
		Stats: catalog.ColumnStatistics{N: 750, Distinct: 750, Min: 0, Max: 999, WidthFraction: 4.0 / 4096}})
	require.NoError(t, err)
	_, err = cat.AddColumn("Sailors", catalog.Column{Name: "sname", Type: marina.TypeVarChar, Length: 25,
		Stats: catalog.ColumnStatistics{N: 750, Distinct: 700, WidthFraction: 25.0 / 4096}})
	require.NoError(t, err)
	require.NoError(t, cat.SetPrimaryKey("Sailors", []string{"sid"}))
	_, err = cat.AddIndex("Sailors", catalog.Index{
		Name: "sailors_sid", Kind: catalog.BTreeIndex, Clustered: true,
		KeyColumns: []string{"sid"},
		Stats:      catalog.IndexStatistics{Pages: 8, Distinct: 750},
	})
	require.NoError(t, err)

	_, err = cat.CreateTable("Boats", catalog.TableStatistics{Cardinality: 100, Pages: 5})
	require.NoError(t, err)
	_, err = cat.AddColumn("Boats", catalog.Column{Name: "bid", Type: marina.TypeInt,
		Stats: catalog.ColumnStatistics{N: 100, Distinct: 100, WidthFraction: 4.0 / 4096}})
	require.NoError(t, err)

	return cat
}

func TestBuildAndOpenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	cat := buildTestCatalog(t)
	require.NoError(t, Build(path, cat))

	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	require.Equal(t, 4096, store.PageSize())

	tables := store.Tables()
	require.Len(t, tables, 2)
	require.Equal(t, "Boats", tables[0].Name)
	require.Equal(t, "Sailors", tables[1].Name)

	sailors, err := store.LookupTable("Sailors")
	require.NoError(t, err)
	require.Equal(t, int64(750), sailors.Stats.Cardinality)
	require.Equal(t, int64(50), sailors.Stats.Pages)
	require.Equal(t, []string{"sid"}, sailors.PrimaryKey)
	require.Len(t, sailors.Columns, 2)

	sid, ok := sailors.Column("sid")
	require.True(t, ok)
	require.Equal(t, marina.TypeInt, sid.Type)
	require.Equal(t, int64(750), sid.Stats.Distinct)
	require.InDelta(t, 4.0/4096, sid.Stats.WidthFraction, 1e-9)

	sname, ok := sailors.Column("sname")
	require.True(t, ok)
	require.Equal(t, 25, sname.Length)

	ix, ok := sailors.Index("sailors_sid")
	require.True(t, ok)
	require.Equal(t, catalog.BTreeIndex, ix.Kind)
	require.True(t, ix.Clustered)
	require.Equal(t, int64(8), ix.Stats.Pages)

	_, err = store.LookupTable("Reserves")
	require.Error(t, err)
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.db"))
	require.Error(t, err)
}
