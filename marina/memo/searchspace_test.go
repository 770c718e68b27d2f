package memo

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wbrown/marina-sql/marina"
	"github.com/wbrown/marina-sql/marina/catalog"
	"github.com/wbrown/marina-sql/marina/expr"
)

func testCatalog() *catalog.Catalog {
	cat := catalog.NewCatalog(4096)
	cat.CreateTable("Sailors", catalog.TableStatistics{Cardinality: 750, Pages: 50})
	cat.AddColumn("Sailors", catalog.Column{Name: "sid", Type: marina.TypeInt,
		Stats: catalog.ColumnStatistics{N: 750, Distinct: 750, WidthFraction: 4.0 / 4096}})
	cat.SetPrimaryKey("Sailors", []string{"sid"})
	cat.CreateTable("Reserves", catalog.TableStatistics{Cardinality: 1500, Pages: 30})
	cat.AddColumn("Reserves", catalog.Column{Name: "sid", Type: marina.TypeInt,
		Stats: catalog.ColumnStatistics{N: 1500, Distinct: 600, WidthFraction: 4.0 / 4096}})
	return cat
}

func sailorsJoin(t *testing.T) (*expr.Expression, *catalog.TableRef, *catalog.TableRef) {
	t.Helper()
	cat := testCatalog()
	sailors, err := cat.LookupTable("Sailors")
	require.NoError(t, err)
	reserves, err := cat.LookupTable("Reserves")
	require.NoError(t, err)
	s := catalog.NewTableRef("S", sailors)
	r := catalog.NewTableRef("R", reserves)
	ssid, _ := sailors.Column("sid")
	rsid, _ := reserves.Column("sid")
	join := expr.New(
		expr.NewEquiJoin(
			[]catalog.ColumnRef{catalog.NewColumnRef(s, ssid)},
			[]catalog.ColumnRef{catalog.NewColumnRef(r, rsid)}),
		expr.New(expr.NewGetTable(s)),
		expr.New(expr.NewGetTable(r)))
	return join, s, r
}

func TestInsertIdempotent(t *testing.T) {
	join, _, _ := sailorsJoin(t)
	space := NewSearchSpace()

	m1, err := space.Insert(join)
	require.NoError(t, err)
	require.Equal(t, 3, space.NumGroups())
	require.Equal(t, 3, space.NumMembers())

	m2, err := space.Insert(join)
	require.NoError(t, err)
	require.Same(t, m1, m2, "re-inserting yields the same multi-expression")
	require.Equal(t, 3, space.NumGroups(), "group count unchanged")
	require.Equal(t, 3, space.NumMembers(), "member count unchanged")
}

func TestInsertSharesSubtrees(t *testing.T) {
	join, s, _ := sailorsJoin(t)
	space := NewSearchSpace()
	_, err := space.Insert(join)
	require.NoError(t, err)

	// Inserting a standalone GetTable(S) reuses its group.
	m, err := space.Insert(expr.New(expr.NewGetTable(s)))
	require.NoError(t, err)
	require.Equal(t, 3, space.NumGroups())
	require.Equal(t, GroupID(0), space.Canonical(m.Group()))
}

func TestGroupProps(t *testing.T) {
	join, _, _ := sailorsJoin(t)
	space := NewSearchSpace()
	root, err := space.Insert(join)
	require.NoError(t, err)

	g := space.Group(root.Group())
	require.Len(t, g.Props().Schema, 2)
	require.InDelta(t, 1500, g.Props().Cardinality, 1e-6)

	// Input group props derive from their own operators.
	left := space.Group(root.Input(0))
	require.Equal(t, float64(750), left.Props().Cardinality)
}

func TestInsertSubstituteIntoGroup(t *testing.T) {
	join, _, _ := sailorsJoin(t)
	space := NewSearchSpace()
	root, err := space.Insert(join)
	require.NoError(t, err)
	rootGroup := root.Group()

	op := root.Operator().(*expr.EquiJoin)
	// Commuted join enters the same group through leaf-bound insertion.
	commuted := expr.New(expr.NewEquiJoin(op.RightCols, op.LeftCols),
		expr.New(expr.NewLeaf(1)), expr.New(expr.NewLeaf(0)))
	leaves := map[int]GroupID{0: root.Input(0), 1: root.Input(1)}

	m, created, err := space.InsertSubstitute(commuted, rootGroup, leaves)
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, space.Canonical(rootGroup), space.Canonical(m.Group()))
	require.Len(t, space.Group(rootGroup).Members(), 2)

	// The same substitute again is a no-op.
	m2, created, err := space.InsertSubstitute(commuted, rootGroup, leaves)
	require.NoError(t, err)
	require.False(t, created)
	require.Same(t, m, m2)
	require.Len(t, space.Group(rootGroup).Members(), 2)
}

func TestFiredRulesBitset(t *testing.T) {
	join, _, _ := sailorsJoin(t)
	space := NewSearchSpace()
	root, err := space.Insert(join)
	require.NoError(t, err)

	require.False(t, root.HasFired(3))
	root.MarkFired(3)
	require.True(t, root.HasFired(3))
	require.False(t, root.HasFired(2))
	// Monotonic: marking again changes nothing.
	root.MarkFired(3)
	require.True(t, root.HasFired(3))
}

func TestWinnerLifecycle(t *testing.T) {
	join, _, _ := sailorsJoin(t)
	space := NewSearchSpace()
	root, err := space.Insert(join)
	require.NoError(t, err)
	g := space.Group(root.Group())

	props := marina.AnyProperties()
	w := g.Winner(props)
	require.Same(t, w, g.Winner(props), "winner entry is created once per requirement")
	require.False(t, w.HasPlan())
	require.True(t, w.Cost.IsInfinity())

	require.True(t, w.Update(root, marina.Cost(10), nil))
	require.False(t, w.Update(root, marina.Cost(20), nil), "costlier update is rejected")
	require.True(t, w.Update(root, marina.Cost(5), nil))

	require.NoError(t, w.MarkReady())
	require.Error(t, w.MarkReady(), "readying twice is an invariant violation")
	var oe *marina.OptimizerError
	require.ErrorAs(t, w.MarkReady(), &oe)
}

func TestDeterministicDump(t *testing.T) {
	build := func() string {
		join, _, _ := sailorsJoin(t)
		space := NewSearchSpace()
		_, err := space.Insert(join)
		require.NoError(t, err)
		return space.String()
	}
	first := build()
	require.NotEmpty(t, first)
	for i := 0; i < 5; i++ {
		require.Equal(t, first, build(), "memo dump must be deterministic")
	}
}

func TestRepr(t *testing.T) {
	join, _, _ := sailorsJoin(t)
	space := NewSearchSpace()
	root, err := space.Insert(join)
	require.NoError(t, err)

	repr := space.Repr(root.Group())
	require.NotNil(t, repr)
	require.Equal(t, expr.OpEquiJoin, repr.Operator().Type())
	require.Equal(t, 2, repr.Size())
	require.Equal(t, expr.OpGetTable, repr.Input(0).Operator().Type())
}
