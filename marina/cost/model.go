// Package cost estimates the local cost of physical operators. The model
// is pluggable; PageIOModel is the teaching default, charging page IOs for
// scans and per-tuple CPU for joins, filters, and sorts.
package cost

import (
	"math"

	"github.com/wbrown/marina-sql/marina"
	"github.com/wbrown/marina-sql/marina/expr"
)

// Model prices one physical operator in isolation. The total cost of a
// plan node is its local cost plus the optimal costs of its inputs under
// the properties they must deliver.
type Model interface {
	// LocalCost returns the operator's own cost given its inputs' logical
	// properties. Item operators cost zero.
	LocalCost(op expr.Operator, inputs []*expr.LogicalProps) marina.Cost
}

// PageIOModel is the default cost model.
type PageIOModel struct {
	// PageIO is the cost of reading one page.
	PageIO float64
	// CPUPerTuple is the cost of touching one tuple.
	CPUPerTuple float64
	// HashBuildFactor scales the per-tuple cost of building a hash table;
	// probing costs one CPUPerTuple. Building dearer than probing steers
	// the smaller input to the build side.
	HashBuildFactor float64
}

// NewPageIOModel returns the model with the default constants.
func NewPageIOModel() *PageIOModel {
	return &PageIOModel{
		PageIO:          1.0,
		CPUPerTuple:     0.01,
		HashBuildFactor: 4.0,
	}
}

// LocalCost implements Model.
func (m *PageIOModel) LocalCost(op expr.Operator, inputs []*expr.LogicalProps) marina.Cost {
	if op.IsItem() {
		return marina.ZeroCost()
	}
	card := func(i int) float64 {
		if i < len(inputs) && inputs[i] != nil {
			return inputs[i].Cardinality
		}
		return 0
	}
	switch o := op.(type) {
	case *expr.FileScan:
		return marina.Cost(float64(o.Ref.Table.Stats.Pages) * m.PageIO)
	case *expr.IndexScan:
		ixPages := float64(o.Index.Stats.Pages)
		if o.Index.Clustered {
			return marina.Cost((ixPages + float64(o.Ref.Table.Stats.Pages)) * m.PageIO)
		}
		// Unclustered: one page fetch per qualifying tuple.
		return marina.Cost(ixPages*m.PageIO + float64(o.Ref.Table.Stats.Cardinality)*m.PageIO)
	case *expr.NestedLoopsJoin:
		return marina.Cost(card(0) * card(1) * m.CPUPerTuple)
	case *expr.HashJoin:
		return marina.Cost(card(0)*m.CPUPerTuple*m.HashBuildFactor + card(1)*m.CPUPerTuple)
	case *expr.SortMergeJoin:
		return marina.Cost((card(0) + card(1)) * m.CPUPerTuple)
	case *expr.Filter:
		return marina.Cost(card(0) * m.CPUPerTuple)
	case *expr.PhysProject:
		return marina.Cost(card(0) * m.CPUPerTuple)
	case *expr.HashDistinct:
		return marina.Cost(card(0) * m.CPUPerTuple * 2)
	case *expr.Sort:
		n := card(0)
		if n < 2 {
			return marina.Cost(m.CPUPerTuple)
		}
		return marina.Cost(n * math.Log2(n) * m.CPUPerTuple * 2)
	default:
		// Logical operators have no execution cost; asking is a caller bug
		// surfaced as an unusable plan.
		return marina.Infinity()
	}
}
