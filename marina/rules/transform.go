package rules

import (
	"github.com/wbrown/marina-sql/marina"
	"github.com/wbrown/marina-sql/marina/catalog"
	"github.com/wbrown/marina-sql/marina/expr"
	"github.com/wbrown/marina-sql/marina/memo"
)

// schemaColumns returns the column set of a group's schema keyed by
// qualified name.
func schemaColumns(space *memo.SearchSpace, g memo.GroupID) map[string]bool {
	out := make(map[string]bool)
	for _, c := range space.Group(g).Props().Schema {
		out[c.QualifiedName()] = true
	}
	return out
}

// predicateColumns walks an item subtree collecting referenced columns.
func predicateColumns(pred *expr.Expression) []catalog.ColumnRef {
	var cols []catalog.ColumnRef
	pred.Preorder(func(e *expr.Expression) {
		if attr, ok := e.Operator().(*expr.AttrRef); ok {
			cols = append(cols, attr.Ref)
		}
	})
	return cols
}

// EquiJoinCommute swaps the inputs of an equi-join:
// A join B becomes B join A with the column lists exchanged.
type EquiJoinCommute struct {
	pattern *expr.Expression
}

// NewEquiJoinCommute creates the join commutativity rule.
func NewEquiJoinCommute() *EquiJoinCommute {
	return &EquiJoinCommute{
		pattern: expr.New(expr.NewEquiJoin(nil, nil),
			expr.New(expr.NewLeaf(0)), expr.New(expr.NewLeaf(1))),
	}
}

func (r *EquiJoinCommute) Name() string              { return "EquiJoinCommute" }
func (r *EquiJoinCommute) IsTransformation() bool    { return true }
func (r *EquiJoinCommute) Pattern() *expr.Expression { return r.pattern }

func (r *EquiJoinCommute) Promise(_ *memo.MultiExpression, _ marina.PhysicalProperties) Promise {
	return PromiseLogical
}

func (r *EquiJoinCommute) RootMatch(m *memo.MultiExpression) bool {
	return rootTypeMatch(r.pattern, m)
}

func (r *EquiJoinCommute) Substitutes(_ *memo.SearchSpace, b *Binding, _ marina.PhysicalProperties) ([]*expr.Expression, error) {
	join := b.MExpr(r.pattern).Operator().(*expr.EquiJoin)
	sub := expr.New(expr.NewEquiJoin(join.RightCols, join.LeftCols),
		expr.New(expr.NewLeaf(1)), expr.New(expr.NewLeaf(0)))
	return []*expr.Expression{sub}, nil
}

// EquiJoinLeftAssoc reassociates (A join B) join C into A join (B join C),
// routing each equality pair to the join that can evaluate it.
type EquiJoinLeftAssoc struct {
	pattern *expr.Expression
	inner   *expr.Expression
}

// NewEquiJoinLeftAssoc creates the join associativity rule.
func NewEquiJoinLeftAssoc() *EquiJoinLeftAssoc {
	inner := expr.New(expr.NewEquiJoin(nil, nil),
		expr.New(expr.NewLeaf(0)), expr.New(expr.NewLeaf(1)))
	return &EquiJoinLeftAssoc{
		pattern: expr.New(expr.NewEquiJoin(nil, nil), inner, expr.New(expr.NewLeaf(2))),
		inner:   inner,
	}
}

func (r *EquiJoinLeftAssoc) Name() string              { return "EquiJoinLeftAssoc" }
func (r *EquiJoinLeftAssoc) IsTransformation() bool    { return true }
func (r *EquiJoinLeftAssoc) Pattern() *expr.Expression { return r.pattern }

func (r *EquiJoinLeftAssoc) Promise(_ *memo.MultiExpression, _ marina.PhysicalProperties) Promise {
	return PromiseLogical
}

func (r *EquiJoinLeftAssoc) RootMatch(m *memo.MultiExpression) bool {
	return rootTypeMatch(r.pattern, m)
}

func (r *EquiJoinLeftAssoc) Substitutes(space *memo.SearchSpace, b *Binding, required marina.PhysicalProperties) ([]*expr.Expression, error) {
	top := b.MExpr(r.pattern).Operator().(*expr.EquiJoin)
	inner := b.MExpr(r.inner).Operator().(*expr.EquiJoin)

	groupA, _ := b.Leaf(0)
	schemaA := schemaColumns(space, groupA)

	// Split the top join's pairs by which inner side their left column
	// comes from: pairs rooted in A stay on the new top join, pairs rooted
	// in B move into the new inner join B-C.
	var topLeft, topRight, innerLeft, innerRight []catalog.ColumnRef
	for i := range top.LeftCols {
		if schemaA[top.LeftCols[i].QualifiedName()] {
			topLeft = append(topLeft, top.LeftCols[i])
			topRight = append(topRight, top.RightCols[i])
		} else {
			innerLeft = append(innerLeft, top.LeftCols[i])
			innerRight = append(innerRight, top.RightCols[i])
		}
	}
	// The original A-B pairs become top-level pairs of A join (B join C).
	topLeft = append(append([]catalog.ColumnRef{}, inner.LeftCols...), topLeft...)
	topRight = append(append([]catalog.ColumnRef{}, inner.RightCols...), topRight...)

	// Reassociating into a cross-product inner join buys nothing.
	if len(innerLeft) == 0 {
		return nil, nil
	}

	sub := expr.New(expr.NewEquiJoin(topLeft, topRight),
		expr.New(expr.NewLeaf(0)),
		expr.New(expr.NewEquiJoin(innerLeft, innerRight),
			expr.New(expr.NewLeaf(1)), expr.New(expr.NewLeaf(2))))
	return []*expr.Expression{sub}, nil
}

// SelectPushThruJoin pushes a selection below an equi-join when the
// predicate touches only one side.
type SelectPushThruJoin struct {
	pattern *expr.Expression
	join    *expr.Expression
}

// NewSelectPushThruJoin creates the predicate push-down rule.
func NewSelectPushThruJoin() *SelectPushThruJoin {
	join := expr.New(expr.NewEquiJoin(nil, nil),
		expr.New(expr.NewLeaf(0)), expr.New(expr.NewLeaf(1)))
	return &SelectPushThruJoin{
		pattern: expr.New(expr.NewSelect(), join, expr.New(expr.NewLeaf(2))),
		join:    join,
	}
}

func (r *SelectPushThruJoin) Name() string              { return "SelectPushThruJoin" }
func (r *SelectPushThruJoin) IsTransformation() bool    { return true }
func (r *SelectPushThruJoin) Pattern() *expr.Expression { return r.pattern }

func (r *SelectPushThruJoin) Promise(_ *memo.MultiExpression, _ marina.PhysicalProperties) Promise {
	return PromiseLogical
}

func (r *SelectPushThruJoin) RootMatch(m *memo.MultiExpression) bool {
	return rootTypeMatch(r.pattern, m)
}

func (r *SelectPushThruJoin) Substitutes(space *memo.SearchSpace, b *Binding, required marina.PhysicalProperties) ([]*expr.Expression, error) {
	join := b.MExpr(r.join).Operator().(*expr.EquiJoin)
	predGroup, _ := b.Leaf(2)
	pred := space.Repr(predGroup)
	if pred == nil {
		return nil, nil
	}
	cols := predicateColumns(pred)

	leftGroup, _ := b.Leaf(0)
	rightGroup, _ := b.Leaf(1)
	leftSchema := schemaColumns(space, leftGroup)
	rightSchema := schemaColumns(space, rightGroup)

	allLeft, allRight := true, true
	for _, c := range cols {
		if !leftSchema[c.QualifiedName()] {
			allLeft = false
		}
		if !rightSchema[c.QualifiedName()] {
			allRight = false
		}
	}

	newJoin := expr.NewEquiJoin(join.LeftCols, join.RightCols)
	switch {
	case allLeft:
		sub := expr.New(newJoin,
			expr.New(expr.NewSelect(), expr.New(expr.NewLeaf(0)), expr.New(expr.NewLeaf(2))),
			expr.New(expr.NewLeaf(1)))
		return []*expr.Expression{sub}, nil
	case allRight:
		sub := expr.New(newJoin,
			expr.New(expr.NewLeaf(0)),
			expr.New(expr.NewSelect(), expr.New(expr.NewLeaf(1)), expr.New(expr.NewLeaf(2))))
		return []*expr.Expression{sub}, nil
	default:
		return nil, nil
	}
}

// ProjectPushThruJoin narrows join inputs to the columns the projection and
// the join condition actually need.
type ProjectPushThruJoin struct {
	pattern *expr.Expression
	join    *expr.Expression
}

// NewProjectPushThruJoin creates the projection push-down rule.
func NewProjectPushThruJoin() *ProjectPushThruJoin {
	join := expr.New(expr.NewEquiJoin(nil, nil),
		expr.New(expr.NewLeaf(0)), expr.New(expr.NewLeaf(1)))
	return &ProjectPushThruJoin{
		pattern: expr.New(expr.NewProject(nil), join),
		join:    join,
	}
}

func (r *ProjectPushThruJoin) Name() string              { return "ProjectPushThruJoin" }
func (r *ProjectPushThruJoin) IsTransformation() bool    { return true }
func (r *ProjectPushThruJoin) Pattern() *expr.Expression { return r.pattern }

func (r *ProjectPushThruJoin) Promise(_ *memo.MultiExpression, _ marina.PhysicalProperties) Promise {
	return PromiseLogical
}

func (r *ProjectPushThruJoin) RootMatch(m *memo.MultiExpression) bool {
	return rootTypeMatch(r.pattern, m)
}

func (r *ProjectPushThruJoin) Substitutes(space *memo.SearchSpace, b *Binding, required marina.PhysicalProperties) ([]*expr.Expression, error) {
	proj := b.MExpr(r.pattern).Operator().(*expr.Project)
	join := b.MExpr(r.join).Operator().(*expr.EquiJoin)

	needed := make(map[string]bool)
	for _, c := range proj.Cols {
		needed[c.QualifiedName()] = true
	}
	for _, c := range join.LeftCols {
		needed[c.QualifiedName()] = true
	}
	for _, c := range join.RightCols {
		needed[c.QualifiedName()] = true
	}

	leftGroup, _ := b.Leaf(0)
	rightGroup, _ := b.Leaf(1)
	leftSchema := space.Group(leftGroup).Props().Schema
	rightSchema := space.Group(rightGroup).Props().Schema

	side := func(schema []catalog.ColumnRef, leafIndex int) *expr.Expression {
		var keep []catalog.ColumnRef
		for _, c := range schema {
			if needed[c.QualifiedName()] {
				keep = append(keep, c)
			}
		}
		if len(keep) == len(schema) || len(keep) == 0 {
			return expr.New(expr.NewLeaf(leafIndex))
		}
		return expr.New(expr.NewProject(keep), expr.New(expr.NewLeaf(leafIndex)))
	}

	left := side(leftSchema, 0)
	right := side(rightSchema, 1)
	if left.Operator().IsLeaf() && right.Operator().IsLeaf() {
		// Nothing to trim on either side.
		return nil, nil
	}
	sub := expr.New(expr.NewProject(proj.Cols),
		expr.New(expr.NewEquiJoin(join.LeftCols, join.RightCols), left, right))
	return []*expr.Expression{sub}, nil
}
