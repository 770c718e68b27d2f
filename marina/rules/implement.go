package rules

import (
	"github.com/wbrown/marina-sql/marina"
	"github.com/wbrown/marina-sql/marina/expr"
	"github.com/wbrown/marina-sql/marina/memo"
)

// GetTableToFileScan implements a table access as a heap file scan.
type GetTableToFileScan struct {
	pattern *expr.Expression
}

// NewGetTableToFileScan creates the file scan implementation rule.
func NewGetTableToFileScan() *GetTableToFileScan {
	return &GetTableToFileScan{pattern: expr.New(expr.NewGetTable(nil))}
}

func (r *GetTableToFileScan) Name() string              { return "GetTableToFileScan" }
func (r *GetTableToFileScan) IsTransformation() bool    { return false }
func (r *GetTableToFileScan) Pattern() *expr.Expression { return r.pattern }

func (r *GetTableToFileScan) Promise(_ *memo.MultiExpression, _ marina.PhysicalProperties) Promise {
	return PromisePhysical
}

func (r *GetTableToFileScan) RootMatch(m *memo.MultiExpression) bool {
	return rootTypeMatch(r.pattern, m)
}

func (r *GetTableToFileScan) Substitutes(_ *memo.SearchSpace, b *Binding, _ marina.PhysicalProperties) ([]*expr.Expression, error) {
	get := b.MExpr(r.pattern).Operator().(*expr.GetTable)
	return []*expr.Expression{expr.New(expr.NewFileScan(get.Ref))}, nil
}

// GetTableToIndexScan implements a table access through each of the
// table's indexes; the cost model arbitrates among them.
type GetTableToIndexScan struct {
	pattern *expr.Expression
}

// NewGetTableToIndexScan creates the index scan implementation rule.
func NewGetTableToIndexScan() *GetTableToIndexScan {
	return &GetTableToIndexScan{pattern: expr.New(expr.NewGetTable(nil))}
}

func (r *GetTableToIndexScan) Name() string              { return "GetTableToIndexScan" }
func (r *GetTableToIndexScan) IsTransformation() bool    { return false }
func (r *GetTableToIndexScan) Pattern() *expr.Expression { return r.pattern }

func (r *GetTableToIndexScan) Promise(m *memo.MultiExpression, _ marina.PhysicalProperties) Promise {
	get := m.Operator().(*expr.GetTable)
	if len(get.Ref.Table.Indexes) == 0 {
		return PromiseNone
	}
	return PromisePhysical
}

func (r *GetTableToIndexScan) RootMatch(m *memo.MultiExpression) bool {
	return rootTypeMatch(r.pattern, m)
}

func (r *GetTableToIndexScan) Substitutes(_ *memo.SearchSpace, b *Binding, _ marina.PhysicalProperties) ([]*expr.Expression, error) {
	get := b.MExpr(r.pattern).Operator().(*expr.GetTable)
	var subs []*expr.Expression
	for _, ix := range get.Ref.Table.Indexes {
		subs = append(subs, expr.New(expr.NewIndexScan(get.Ref, ix)))
	}
	return subs, nil
}

// EquiJoinToNestedLoops implements any equi-join, cross products included,
// as a nested-loops join.
type EquiJoinToNestedLoops struct {
	pattern *expr.Expression
}

// NewEquiJoinToNestedLoops creates the nested-loops implementation rule.
func NewEquiJoinToNestedLoops() *EquiJoinToNestedLoops {
	return &EquiJoinToNestedLoops{
		pattern: expr.New(expr.NewEquiJoin(nil, nil),
			expr.New(expr.NewLeaf(0)), expr.New(expr.NewLeaf(1))),
	}
}

func (r *EquiJoinToNestedLoops) Name() string              { return "EquiJoinToNestedLoops" }
func (r *EquiJoinToNestedLoops) IsTransformation() bool    { return false }
func (r *EquiJoinToNestedLoops) Pattern() *expr.Expression { return r.pattern }

func (r *EquiJoinToNestedLoops) Promise(_ *memo.MultiExpression, _ marina.PhysicalProperties) Promise {
	return PromisePhysical
}

func (r *EquiJoinToNestedLoops) RootMatch(m *memo.MultiExpression) bool {
	return rootTypeMatch(r.pattern, m)
}

func (r *EquiJoinToNestedLoops) Substitutes(_ *memo.SearchSpace, b *Binding, _ marina.PhysicalProperties) ([]*expr.Expression, error) {
	join := b.MExpr(r.pattern).Operator().(*expr.EquiJoin)
	sub := expr.New(expr.NewNestedLoopsJoin(join.LeftCols, join.RightCols),
		expr.New(expr.NewLeaf(0)), expr.New(expr.NewLeaf(1)))
	return []*expr.Expression{sub}, nil
}

// EquiJoinToHashJoin implements an equi-join as a hash join. Cross
// products have nothing to hash on and get PromiseNone.
type EquiJoinToHashJoin struct {
	pattern *expr.Expression
}

// NewEquiJoinToHashJoin creates the hash join implementation rule.
func NewEquiJoinToHashJoin() *EquiJoinToHashJoin {
	return &EquiJoinToHashJoin{
		pattern: expr.New(expr.NewEquiJoin(nil, nil),
			expr.New(expr.NewLeaf(0)), expr.New(expr.NewLeaf(1))),
	}
}

func (r *EquiJoinToHashJoin) Name() string              { return "EquiJoinToHashJoin" }
func (r *EquiJoinToHashJoin) IsTransformation() bool    { return false }
func (r *EquiJoinToHashJoin) Pattern() *expr.Expression { return r.pattern }

func (r *EquiJoinToHashJoin) Promise(m *memo.MultiExpression, _ marina.PhysicalProperties) Promise {
	if m.Operator().(*expr.EquiJoin).IsCrossProduct() {
		return PromiseNone
	}
	return PromiseHash
}

func (r *EquiJoinToHashJoin) RootMatch(m *memo.MultiExpression) bool {
	return rootTypeMatch(r.pattern, m)
}

func (r *EquiJoinToHashJoin) Substitutes(_ *memo.SearchSpace, b *Binding, _ marina.PhysicalProperties) ([]*expr.Expression, error) {
	join := b.MExpr(r.pattern).Operator().(*expr.EquiJoin)
	sub := expr.New(expr.NewHashJoin(join.LeftCols, join.RightCols),
		expr.New(expr.NewLeaf(0)), expr.New(expr.NewLeaf(1)))
	return []*expr.Expression{sub}, nil
}

// EquiJoinToSortMergeJoin implements an equi-join as a sort-merge join;
// the join's inputs are then required sorted on the join columns.
type EquiJoinToSortMergeJoin struct {
	pattern *expr.Expression
}

// NewEquiJoinToSortMergeJoin creates the sort-merge implementation rule.
func NewEquiJoinToSortMergeJoin() *EquiJoinToSortMergeJoin {
	return &EquiJoinToSortMergeJoin{
		pattern: expr.New(expr.NewEquiJoin(nil, nil),
			expr.New(expr.NewLeaf(0)), expr.New(expr.NewLeaf(1))),
	}
}

func (r *EquiJoinToSortMergeJoin) Name() string              { return "EquiJoinToSortMergeJoin" }
func (r *EquiJoinToSortMergeJoin) IsTransformation() bool    { return false }
func (r *EquiJoinToSortMergeJoin) Pattern() *expr.Expression { return r.pattern }

func (r *EquiJoinToSortMergeJoin) Promise(m *memo.MultiExpression, _ marina.PhysicalProperties) Promise {
	if m.Operator().(*expr.EquiJoin).IsCrossProduct() {
		return PromiseNone
	}
	return PromisePhysical
}

func (r *EquiJoinToSortMergeJoin) RootMatch(m *memo.MultiExpression) bool {
	return rootTypeMatch(r.pattern, m)
}

func (r *EquiJoinToSortMergeJoin) Substitutes(_ *memo.SearchSpace, b *Binding, _ marina.PhysicalProperties) ([]*expr.Expression, error) {
	join := b.MExpr(r.pattern).Operator().(*expr.EquiJoin)
	sub := expr.New(expr.NewSortMergeJoin(join.LeftCols, join.RightCols),
		expr.New(expr.NewLeaf(0)), expr.New(expr.NewLeaf(1)))
	return []*expr.Expression{sub}, nil
}

// SelectToFilter implements a selection as a tuple filter.
type SelectToFilter struct {
	pattern *expr.Expression
}

// NewSelectToFilter creates the filter implementation rule.
func NewSelectToFilter() *SelectToFilter {
	return &SelectToFilter{
		pattern: expr.New(expr.NewSelect(),
			expr.New(expr.NewLeaf(0)), expr.New(expr.NewLeaf(1))),
	}
}

func (r *SelectToFilter) Name() string              { return "SelectToFilter" }
func (r *SelectToFilter) IsTransformation() bool    { return false }
func (r *SelectToFilter) Pattern() *expr.Expression { return r.pattern }

func (r *SelectToFilter) Promise(_ *memo.MultiExpression, _ marina.PhysicalProperties) Promise {
	return PromisePhysical
}

func (r *SelectToFilter) RootMatch(m *memo.MultiExpression) bool {
	return rootTypeMatch(r.pattern, m)
}

func (r *SelectToFilter) Substitutes(_ *memo.SearchSpace, b *Binding, _ marina.PhysicalProperties) ([]*expr.Expression, error) {
	sub := expr.New(expr.NewFilter(),
		expr.New(expr.NewLeaf(0)), expr.New(expr.NewLeaf(1)))
	return []*expr.Expression{sub}, nil
}

// ProjectToPhysProject implements a projection.
type ProjectToPhysProject struct {
	pattern *expr.Expression
}

// NewProjectToPhysProject creates the projection implementation rule.
func NewProjectToPhysProject() *ProjectToPhysProject {
	return &ProjectToPhysProject{
		pattern: expr.New(expr.NewProject(nil), expr.New(expr.NewLeaf(0))),
	}
}

func (r *ProjectToPhysProject) Name() string              { return "ProjectToPhysProject" }
func (r *ProjectToPhysProject) IsTransformation() bool    { return false }
func (r *ProjectToPhysProject) Pattern() *expr.Expression { return r.pattern }

func (r *ProjectToPhysProject) Promise(_ *memo.MultiExpression, _ marina.PhysicalProperties) Promise {
	return PromisePhysical
}

func (r *ProjectToPhysProject) RootMatch(m *memo.MultiExpression) bool {
	return rootTypeMatch(r.pattern, m)
}

func (r *ProjectToPhysProject) Substitutes(_ *memo.SearchSpace, b *Binding, _ marina.PhysicalProperties) ([]*expr.Expression, error) {
	proj := b.MExpr(r.pattern).Operator().(*expr.Project)
	sub := expr.New(expr.NewPhysProject(proj.Cols), expr.New(expr.NewLeaf(0)))
	return []*expr.Expression{sub}, nil
}

// DistinctToHashDistinct implements duplicate elimination with a hash
// table.
type DistinctToHashDistinct struct {
	pattern *expr.Expression
}

// NewDistinctToHashDistinct creates the hash distinct implementation rule.
func NewDistinctToHashDistinct() *DistinctToHashDistinct {
	return &DistinctToHashDistinct{
		pattern: expr.New(expr.NewDistinct(), expr.New(expr.NewLeaf(0))),
	}
}

func (r *DistinctToHashDistinct) Name() string              { return "DistinctToHashDistinct" }
func (r *DistinctToHashDistinct) IsTransformation() bool    { return false }
func (r *DistinctToHashDistinct) Pattern() *expr.Expression { return r.pattern }

func (r *DistinctToHashDistinct) Promise(_ *memo.MultiExpression, _ marina.PhysicalProperties) Promise {
	return PromiseHash
}

func (r *DistinctToHashDistinct) RootMatch(m *memo.MultiExpression) bool {
	return rootTypeMatch(r.pattern, m)
}

func (r *DistinctToHashDistinct) Substitutes(_ *memo.SearchSpace, b *Binding, _ marina.PhysicalProperties) ([]*expr.Expression, error) {
	sub := expr.New(expr.NewHashDistinct(), expr.New(expr.NewLeaf(0)))
	return []*expr.Expression{sub}, nil
}
