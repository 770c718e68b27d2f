package rules

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wbrown/marina-sql/marina"
	"github.com/wbrown/marina-sql/marina/catalog"
	"github.com/wbrown/marina-sql/marina/expr"
	"github.com/wbrown/marina-sql/marina/memo"
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
	cat.AddColumn("Reserves", catalog.Column{Name: "bid", Type: marina.TypeInt,
		Stats: catalog.ColumnStatistics{N: 1500, Distinct: 90, WidthFraction: 4.0 / 4096}})
	cat.CreateTable("Boats", catalog.TableStatistics{Cardinality: 100, Pages: 5})
	cat.AddColumn("Boats", catalog.Column{Name: "bid", Type: marina.TypeInt,
		Stats: catalog.ColumnStatistics{N: 100, Distinct: 100, WidthFraction: 4.0 / 4096}})
	cat.SetPrimaryKey("Boats", []string{"bid"})
	return cat
}

type fixture struct {
	cat     *catalog.Catalog
	s, r, b *catalog.TableRef
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cat := testCatalog()
	sailors, _ := cat.LookupTable("Sailors")
	reserves, _ := cat.LookupTable("Reserves")
	boats, _ := cat.LookupTable("Boats")
	return &fixture{
		cat: cat,
		s:   catalog.NewTableRef("S", sailors),
		r:   catalog.NewTableRef("R", reserves),
		b:   catalog.NewTableRef("B", boats),
	}
}

func (f *fixture) col(t *testing.T, ref *catalog.TableRef, name string) catalog.ColumnRef {
	t.Helper()
	c, ok := ref.Table.Column(name)
	require.True(t, ok)
	return catalog.NewColumnRef(ref, c)
}

func (f *fixture) sailorsReservesJoin(t *testing.T) *expr.Expression {
	return expr.New(
		expr.NewEquiJoin(
			[]catalog.ColumnRef{f.col(t, f.s, "sid")},
			[]catalog.ColumnRef{f.col(t, f.r, "sid")}),
		expr.New(expr.NewGetTable(f.s)),
		expr.New(expr.NewGetTable(f.r)))
}

func TestSetAssignsBits(t *testing.T) {
	set := NewSet()
	seen := map[uint]string{}
	for _, r := range set.Rules() {
		if prev, dup := seen[r.Bit()]; dup {
			t.Fatalf("bit %d assigned to both %s and %s", r.Bit(), prev, r.Name())
		}
		seen[r.Bit()] = r.Name()
		require.True(t, r.Enabled())
	}
	require.NoError(t, set.SetEnabled("EquiJoinCommute", false))
	r, ok := set.Lookup("EquiJoinCommute")
	require.True(t, ok)
	require.False(t, r.Enabled())
	require.Error(t, set.SetEnabled("NoSuchRule", true))

	// Two sets assign bits independently.
	other := NewSet()
	require.Equal(t, len(set.Rules()), len(other.Rules()))
}

func TestCommuteSubstitute(t *testing.T) {
	f := newFixture(t)
	space := memo.NewSearchSpace()
	root, err := space.Insert(f.sailorsReservesJoin(t))
	require.NoError(t, err)

	rule := NewEquiJoinCommute()
	require.True(t, rule.RootMatch(root))
	bindings := Bind(space, rule.Pattern(), root)
	require.Len(t, bindings, 1)

	subs, err := rule.Substitutes(space, bindings[0], marina.AnyProperties())
	require.NoError(t, err)
	require.Len(t, subs, 1)

	sub := subs[0]
	join := sub.Operator().(*expr.EquiJoin)
	require.Equal(t, "R.sid", join.LeftCols[0].QualifiedName())
	require.Equal(t, "S.sid", join.RightCols[0].QualifiedName())

	// The substitute's children are the original join's children, swapped.
	leftLeaf := sub.Input(0).Operator().(*expr.Leaf)
	rightLeaf := sub.Input(1).Operator().(*expr.Leaf)
	g0, _ := bindings[0].Leaf(leftLeaf.Index)
	g1, _ := bindings[0].Leaf(rightLeaf.Index)
	require.Equal(t, space.Canonical(root.Input(1)), space.Canonical(g0))
	require.Equal(t, space.Canonical(root.Input(0)), space.Canonical(g1))
}

func TestHashJoinSubstitutePreservesInputs(t *testing.T) {
	f := newFixture(t)
	space := memo.NewSearchSpace()
	root, err := space.Insert(f.sailorsReservesJoin(t))
	require.NoError(t, err)

	rule := NewEquiJoinToHashJoin()
	require.Equal(t, PromiseHash, rule.Promise(root, marina.AnyProperties()))

	bindings := Bind(space, rule.Pattern(), root)
	require.Len(t, bindings, 1)
	subs, err := rule.Substitutes(space, bindings[0], marina.AnyProperties())
	require.NoError(t, err)
	require.Len(t, subs, 1)

	hj := subs[0].Operator().(*expr.HashJoin)
	orig := root.Operator().(*expr.EquiJoin)
	require.Equal(t, orig.LeftCols, hj.LeftCols)
	require.Equal(t, orig.RightCols, hj.RightCols)

	// Inserting the substitute keeps it in the original group with the
	// original child groups.
	m, created, err := space.InsertSubstitute(subs[0], root.Group(), bindings[0].Leaves())
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, space.Canonical(root.Input(0)), space.Canonical(m.Input(0)))
	require.Equal(t, space.Canonical(root.Input(1)), space.Canonical(m.Input(1)))
}

func TestCrossProductPromises(t *testing.T) {
	f := newFixture(t)
	space := memo.NewSearchSpace()
	cross := expr.New(expr.NewEquiJoin(nil, nil),
		expr.New(expr.NewGetTable(f.s)),
		expr.New(expr.NewGetTable(f.r)))
	root, err := space.Insert(cross)
	require.NoError(t, err)

	require.Equal(t, PromiseNone, NewEquiJoinToHashJoin().Promise(root, marina.AnyProperties()))
	require.Equal(t, PromiseNone, NewEquiJoinToSortMergeJoin().Promise(root, marina.AnyProperties()))
	// Nested loops still implements the cross product.
	require.Equal(t, PromisePhysical, NewEquiJoinToNestedLoops().Promise(root, marina.AnyProperties()))
}

func TestBinderExhaustiveness(t *testing.T) {
	f := newFixture(t)
	space := memo.NewSearchSpace()

	// Root: (S join R) join B. The inner group gets a second logical
	// member (the commuted join); the associativity pattern must then
	// produce one binding per inner alternative.
	inner := f.sailorsReservesJoin(t)
	top := expr.New(
		expr.NewEquiJoin(
			[]catalog.ColumnRef{f.col(t, f.r, "bid")},
			[]catalog.ColumnRef{f.col(t, f.b, "bid")}),
		inner,
		expr.New(expr.NewGetTable(f.b)))
	root, err := space.Insert(top)
	require.NoError(t, err)

	assoc := NewEquiJoinLeftAssoc()
	require.Len(t, Bind(space, assoc.Pattern(), root), 1)

	// Add the commuted member to the inner group.
	innerM, err := space.Insert(inner)
	require.NoError(t, err)
	commuted := expr.New(
		expr.NewEquiJoin(
			[]catalog.ColumnRef{f.col(t, f.r, "sid")},
			[]catalog.ColumnRef{f.col(t, f.s, "sid")}),
		expr.New(expr.NewLeaf(1)), expr.New(expr.NewLeaf(0)))
	_, created, err := space.InsertSubstitute(commuted, innerM.Group(),
		map[int]memo.GroupID{0: innerM.Input(0), 1: innerM.Input(1)})
	require.NoError(t, err)
	require.True(t, created)

	bindings := Bind(space, assoc.Pattern(), root)
	require.Len(t, bindings, 2, "one binding per logical member of the inner group")

	// A physical member never binds.
	fs := expr.New(expr.NewFileScan(f.s))
	_, _, err = space.InsertSubstitute(fs, innerM.Input(0), nil)
	require.NoError(t, err)
	require.Len(t, Bind(space, assoc.Pattern(), root), 2)
}

func TestBinderNoMatch(t *testing.T) {
	f := newFixture(t)
	space := memo.NewSearchSpace()
	get, err := space.Insert(expr.New(expr.NewGetTable(f.s)))
	require.NoError(t, err)

	// A join pattern does not match a table access; no bindings, no error.
	require.Empty(t, Bind(space, NewEquiJoinCommute().Pattern(), get))
	require.Empty(t, Bind(space, NewEquiJoinLeftAssoc().Pattern(), get))
}

func TestLeftAssocSubstitute(t *testing.T) {
	f := newFixture(t)
	space := memo.NewSearchSpace()
	inner := f.sailorsReservesJoin(t)
	top := expr.New(
		expr.NewEquiJoin(
			[]catalog.ColumnRef{f.col(t, f.r, "bid")},
			[]catalog.ColumnRef{f.col(t, f.b, "bid")}),
		inner,
		expr.New(expr.NewGetTable(f.b)))
	root, err := space.Insert(top)
	require.NoError(t, err)

	assoc := NewEquiJoinLeftAssoc()
	bindings := Bind(space, assoc.Pattern(), root)
	require.Len(t, bindings, 1)

	subs, err := assoc.Substitutes(space, bindings[0], marina.AnyProperties())
	require.NoError(t, err)
	require.Len(t, subs, 1)

	// S join (R join B): top keeps S.sid=R.sid, inner takes R.bid=B.bid.
	newTop := subs[0].Operator().(*expr.EquiJoin)
	require.Equal(t, "S.sid", newTop.LeftCols[0].QualifiedName())
	require.Equal(t, "R.sid", newTop.RightCols[0].QualifiedName())
	newInner := subs[0].Input(1).Operator().(*expr.EquiJoin)
	require.Equal(t, "R.bid", newInner.LeftCols[0].QualifiedName())
	require.Equal(t, "B.bid", newInner.RightCols[0].QualifiedName())
}

func TestSelectPushThruJoin(t *testing.T) {
	f := newFixture(t)
	space := memo.NewSearchSpace()

	pred := expr.New(expr.NewCompare(expr.CmpGT),
		expr.New(expr.NewAttrRef(f.col(t, f.s, "sid"))),
		expr.New(expr.NewConstInt(100)))
	sel := expr.New(expr.NewSelect(), f.sailorsReservesJoin(t), pred)
	root, err := space.Insert(sel)
	require.NoError(t, err)

	rule := NewSelectPushThruJoin()
	bindings := Bind(space, rule.Pattern(), root)
	require.Len(t, bindings, 1)

	subs, err := rule.Substitutes(space, bindings[0], marina.AnyProperties())
	require.NoError(t, err)
	require.Len(t, subs, 1)

	// Predicate references only S columns: the Select lands on the left
	// input under the join.
	join := subs[0].Operator().(*expr.EquiJoin)
	require.NotNil(t, join)
	require.Equal(t, expr.OpSelect, subs[0].Input(0).Operator().Type())
	require.True(t, subs[0].Input(1).Operator().IsLeaf())
}

func TestSortEnforcer(t *testing.T) {
	f := newFixture(t)
	space := memo.NewSearchSpace()
	root, err := space.Insert(f.sailorsReservesJoin(t))
	require.NoError(t, err)

	enf := NewSortEnforcer()
	require.Equal(t, PromiseNone, enf.Promise(root, marina.AnyProperties()))

	required := marina.RequireOrder(marina.OrderedBy("S.sid"))
	require.Equal(t, PromisePhysical, enf.Promise(root, required))

	b := enf.SelfBinding(root)
	g, ok := b.Leaf(0)
	require.True(t, ok)
	require.Equal(t, space.Canonical(root.Group()), space.Canonical(g))

	subs, err := enf.Substitutes(space, b, required)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	sortOp := subs[0].Operator().(*expr.Sort)
	require.True(t, sortOp.Order.Equals(marina.OrderedBy("S.sid")))
}
