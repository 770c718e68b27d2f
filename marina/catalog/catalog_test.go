package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wbrown/marina-sql/marina"
)

func TestCatalogConstruction(t *testing.T) {
	cat := NewCatalog(4096)
	_, err := cat.CreateTable("Sailors", TableStatistics{Cardinality: 750, Pages: 50})
	require.NoError(t, err)

	_, err = cat.AddColumn("Sailors", Column{Name: "sid", Type: marina.TypeInt,
		Stats: ColumnStatistics{N: 750, Distinct: 750, WidthFraction: 4.0 / 4096}})
	require.NoError(t, err)
	_, err = cat.AddColumn("Sailors", Column{Name: "sname", Type: marina.TypeVarChar, Length: 25,
		Stats: ColumnStatistics{N: 750, Distinct: 700, WidthFraction: 25.0 / 4096}})
	require.NoError(t, err)
	require.NoError(t, cat.SetPrimaryKey("Sailors", []string{"sid"}))

	tbl, err := cat.LookupTable("Sailors")
	require.NoError(t, err)
	require.Len(t, tbl.Columns, 2)
	require.InDelta(t, 29.0/4096, tbl.Stats.WidthFraction, 1e-9)

	col, ok := tbl.Column("sid")
	require.True(t, ok)
	require.Equal(t, 0, col.Ordinal)
}

func TestCatalogConflicts(t *testing.T) {
	cat := NewCatalog(0)
	_, err := cat.CreateTable("Boats", TableStatistics{})
	require.NoError(t, err)

	_, err = cat.CreateTable("Boats", TableStatistics{})
	require.Error(t, err, "duplicate table must fail at construction")

	_, err = cat.AddColumn("Boats", Column{Name: "bid", Type: marina.TypeInt})
	require.NoError(t, err)
	_, err = cat.AddColumn("Boats", Column{Name: "bid", Type: marina.TypeInt})
	require.Error(t, err, "duplicate column must fail at construction")

	_, err = cat.AddIndex("Boats", Index{Name: "bid_ix", Kind: BTreeIndex, KeyColumns: []string{"bid"}})
	require.NoError(t, err)
	_, err = cat.AddIndex("Boats", Index{Name: "bid_ix", Kind: BTreeIndex, KeyColumns: []string{"bid"}})
	require.Error(t, err, "duplicate index must fail at construction")

	_, err = cat.AddIndex("Boats", Index{Name: "ghost", Kind: BTreeIndex, KeyColumns: []string{"nope"}})
	require.Error(t, err, "index over a missing column must fail")

	_, err = cat.LookupTable("Reserves")
	require.Error(t, err)
	var qe *marina.QueryError
	require.ErrorAs(t, err, &qe)
}

func TestParseColumnType(t *testing.T) {
	tests := []struct {
		in     string
		typ    marina.DataType
		length int
	}{
		{"integer", marina.TypeInt, 0},
		{"numeric", marina.TypeDouble, 0},
		{"float", marina.TypeFloat, 0},
		{"date", marina.TypeDate, 0},
		{"character varying(25)", marina.TypeVarChar, 25},
		{"char(10)", marina.TypeChar, 10},
	}
	for _, tt := range tests {
		typ, length, err := ParseColumnType(tt.in)
		require.NoError(t, err, tt.in)
		require.Equal(t, tt.typ, typ, tt.in)
		require.Equal(t, tt.length, length, tt.in)
	}
	_, _, err := ParseColumnType("blob")
	require.Error(t, err)
}

const sailorsXML = `
<systemCatalog pageSize="4096">
  <table name="Sailors" cardinality="750" pages="50">
    <column name="sid" type="integer" width="4" distinct="750" min="0" max="999"/>
    <column name="sname" type="character varying(25)" width="25" distinct="700"/>
    <column name="rating" type="integer" width="4" distinct="10" min="1" max="10"/>
    <column name="age" type="float" width="4" distinct="50" min="18" max="80"/>
    <primaryKey><keyColumn>sid</keyColumn></primaryKey>
    <index name="sailors_sid" type="btree" clustered="true" pages="8" cardinality="750">
      <keyColumn>sid</keyColumn>
    </index>
  </table>
  <table name="Reserves" cardinality="1500" pages="30">
    <column name="sid" type="integer" width="4" distinct="600" min="0" max="999"/>
    <column name="bid" type="integer" width="4" distinct="90" min="0" max="99"/>
    <column name="day" type="date" width="8" distinct="365"/>
  </table>
</systemCatalog>`

func TestLoadXML(t *testing.T) {
	cat, err := LoadXML(strings.NewReader(sailorsXML))
	require.NoError(t, err)
	require.Equal(t, 4096, cat.PageSize())

	sailors, err := cat.LookupTable("Sailors")
	require.NoError(t, err)
	require.Equal(t, int64(750), sailors.Stats.Cardinality)
	require.Equal(t, int64(50), sailors.Stats.Pages)
	require.Equal(t, []string{"sid"}, sailors.PrimaryKey)

	sid, ok := sailors.Column("sid")
	require.True(t, ok)
	require.Equal(t, marina.TypeInt, sid.Type)
	require.InDelta(t, 4.0/4096, sid.Stats.WidthFraction, 1e-9)
	require.Equal(t, float64(999), sid.Stats.Max)

	sname, _ := sailors.Column("sname")
	require.Equal(t, marina.TypeVarChar, sname.Type)
	require.Equal(t, 25, sname.Length)

	ix, ok := sailors.Index("sailors_sid")
	require.True(t, ok)
	require.Equal(t, BTreeIndex, ix.Kind)
	require.True(t, ix.Clustered)
	require.True(t, ix.Covers("sid"))

	reserves, err := cat.LookupTable("Reserves")
	require.NoError(t, err)
	require.Empty(t, reserves.Indexes)

	// Tables lists in name order.
	tables := cat.Tables()
	require.Len(t, tables, 2)
	require.Equal(t, "Reserves", tables[0].Name)
	require.Equal(t, "Sailors", tables[1].Name)
}

func TestLoadXMLBadType(t *testing.T) {
	_, err := LoadXML(strings.NewReader(`
<systemCatalog pageSize="4096">
  <table name="T" cardinality="1" pages="1">
    <column name="c" type="blob" width="4"/>
  </table>
</systemCatalog>`))
	require.Error(t, err)
}
