package parser

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
	cat.AddColumn("Sailors", catalog.Column{Name: "sname", Type: marina.TypeVarChar, Length: 25,
		Stats: catalog.ColumnStatistics{N: 750, Distinct: 700, WidthFraction: 25.0 / 4096}})
	cat.AddColumn("Sailors", catalog.Column{Name: "rating", Type: marina.TypeInt,
		Stats: catalog.ColumnStatistics{N: 750, Distinct: 10, WidthFraction: 4.0 / 4096}})
	cat.SetPrimaryKey("Sailors", []string{"sid"})
	cat.CreateTable("Reserves", catalog.TableStatistics{Cardinality: 1500, Pages: 30})
	cat.AddColumn("Reserves", catalog.Column{Name: "sid", Type: marina.TypeInt,
		Stats: catalog.ColumnStatistics{N: 1500, Distinct: 600, WidthFraction: 4.0 / 4096}})
	cat.AddColumn("Reserves", catalog.Column{Name: "bid", Type: marina.TypeInt,
		Stats: catalog.ColumnStatistics{N: 1500, Distinct: 90, WidthFraction: 4.0 / 4096}})
	return cat
}

func TestParseGet(t *testing.T) {
	q, err := Parse("GET(Sailors, S)")
	require.NoError(t, err)
	require.Equal(t, NodeGet, q.Kind)
	require.Equal(t, "Sailors", q.Table)
	require.Equal(t, "S", q.Alias)
}

func TestParseJoin(t *testing.T) {
	q, err := Parse("(EQJOIN(S.sid, R.sid), GET(Sailors, S), GET(Reserves, R))")
	require.NoError(t, err)
	require.Equal(t, NodeEqJoin, q.Kind)
	require.Equal(t, "S.sid", q.JoinLeft)
	require.Equal(t, "R.sid", q.JoinRight)
	require.Len(t, q.Children, 2)
	require.Equal(t, NodeGet, q.Children[0].Kind)
}

func TestParseCrossJoin(t *testing.T) {
	q, err := Parse("(EQJOIN(), GET(Sailors, S), GET(Reserves, R))")
	require.NoError(t, err)
	require.Equal(t, NodeEqJoin, q.Kind)
	require.Empty(t, q.JoinLeft)
}

func TestParseSelectProjectDistinct(t *testing.T) {
	q, err := Parse("(DISTINCT, (PROJECT(<S.sname, S.rating>), (SELECT, GET(Sailors, S), (OP_AND, (OP_GT, ATTR(S.rating), INT(7)), (OP_EQ, ATTR(S.sname), STRING('Horatio'))))))")
	require.NoError(t, err)
	require.Equal(t, NodeDistinct, q.Kind)
	proj := q.Children[0]
	require.Equal(t, NodeProject, proj.Kind)
	require.Equal(t, []string{"S.sname", "S.rating"}, proj.Attrs)
	sel := proj.Children[0]
	require.Equal(t, NodeSelect, sel.Kind)
	and := sel.Children[1]
	require.Equal(t, NodeAnd, and.Kind)
	cmp := and.Children[0]
	require.Equal(t, NodeCompare, cmp.Kind)
	require.Equal(t, expr.CmpGT, cmp.CmpOp)
	str := and.Children[1].Children[1]
	require.Equal(t, NodeString, str.Kind)
	require.Equal(t, "Horatio", str.StrValue)
}

func TestParseErrors(t *testing.T) {
	bad := []string{
		"",
		"(EQJOIN(S.sid, R.sid), GET(Sailors, S)",
		"GET(Sailors)",
		"(FROBNICATE, GET(Sailors, S))",
		"INT(abc)",
		"GET(Sailors, S) trailing",
	}
	for _, in := range bad {
		_, err := Parse(in)
		require.Error(t, err, "input %q", in)
		var qe *marina.QueryError
		require.ErrorAs(t, err, &qe, "input %q", in)
	}
}

func TestResolveJoin(t *testing.T) {
	cat := testCatalog()
	e, err := ParseAndResolve("(EQJOIN(S.sid, R.sid), GET(Sailors, S), GET(Reserves, R))", cat)
	require.NoError(t, err)

	join := e.Operator().(*expr.EquiJoin)
	require.Equal(t, "S.sid", join.LeftCols[0].QualifiedName())
	require.Equal(t, "R.sid", join.RightCols[0].QualifiedName())

	left := e.Input(0).Operator().(*expr.GetTable)
	require.Equal(t, "S", left.Ref.Alias)
	require.Equal(t, "Sailors", left.Ref.Table.Name)
}

func TestResolveSwapsJoinSides(t *testing.T) {
	// The first qname belongs to the right input; resolution reorders the
	// pair so the left column comes from the left subtree.
	cat := testCatalog()
	e, err := ParseAndResolve("(EQJOIN(R.sid, S.sid), GET(Sailors, S), GET(Reserves, R))", cat)
	require.NoError(t, err)
	join := e.Operator().(*expr.EquiJoin)
	require.Equal(t, "S.sid", join.LeftCols[0].QualifiedName())
	require.Equal(t, "R.sid", join.RightCols[0].QualifiedName())
}

func TestResolveSameTableTwice(t *testing.T) {
	cat := testCatalog()
	e, err := ParseAndResolve("(EQJOIN(S1.sid, S2.sid), GET(Sailors, S1), GET(Sailors, S2))", cat)
	require.NoError(t, err)

	left := e.Input(0).Operator().(*expr.GetTable)
	right := e.Input(1).Operator().(*expr.GetTable)
	require.NotEqual(t, left.Ref, right.Ref, "each alias gets its own reference")
	require.False(t, left.Equals(right))
}

func TestResolveErrors(t *testing.T) {
	cat := testCatalog()
	bad := map[string]string{
		"unknown table":     "GET(Yachts, Y)",
		"unresolved alias":  "(SELECT, GET(Sailors, S), (OP_EQ, ATTR(X.sid), INT(1)))",
		"unknown column":    "(SELECT, GET(Sailors, S), (OP_EQ, ATTR(S.tonnage), INT(1)))",
		"duplicate alias":   "(EQJOIN(S.sid, S.sid), GET(Sailors, S), GET(Reserves, S))",
		"type mismatch":     "(SELECT, GET(Sailors, S), (OP_EQ, ATTR(S.sname), INT(1)))",
		"foreign join cols": "(EQJOIN(S.sid, S.rating), GET(Sailors, S1), GET(Reserves, R))",
	}
	for name, in := range bad {
		t.Run(name, func(t *testing.T) {
			_, err := ParseAndResolve(in, cat)
			require.Error(t, err)
			var qe *marina.QueryError
			require.ErrorAs(t, err, &qe)
		})
	}
}

func TestQueryExpressionRoundTrip(t *testing.T) {
	in := "(EQJOIN(S.sid, R.sid), GET(Sailors, S), GET(Reserves, R))"
	q, err := Parse(in)
	require.NoError(t, err)
	again, err := Parse(q.String())
	require.NoError(t, err)
	require.Equal(t, q.String(), again.String())
}
