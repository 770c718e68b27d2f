package expr

import (
	"fmt"

	"github.com/wbrown/marina-sql/marina"
	"github.com/wbrown/marina-sql/marina/catalog"
)

// FileScan reads a table's heap file front to back. Delivers no order.
type FileScan struct {
	physicalBase
	Ref *catalog.TableRef
}

// NewFileScan builds a heap scan of the referenced table.
func NewFileScan(ref *catalog.TableRef) *FileScan {
	return &FileScan{Ref: ref}
}

func (f *FileScan) Type() OpType { return OpFileScan }
func (f *FileScan) Name() string { return "FileScan" }
func (f *FileScan) Arity() int   { return 0 }

func (f *FileScan) Equals(other Operator) bool {
	o, ok := other.(*FileScan)
	return ok && o.Ref == f.Ref
}

func (f *FileScan) Hash() uint64 {
	return newOpHash(OpFileScan).mixString(f.Ref.Alias).mixString(f.Ref.Table.Name).value()
}

func (f *FileScan) String() string {
	return fmt.Sprintf("FileScan(%s)", f.Ref)
}

// IndexScan reads a table through one of its indexes. A clustered B-tree
// scan delivers its key order natively.
type IndexScan struct {
	physicalBase
	Ref   *catalog.TableRef
	Index *catalog.Index
}

// NewIndexScan builds an index scan.
func NewIndexScan(ref *catalog.TableRef, index *catalog.Index) *IndexScan {
	return &IndexScan{Ref: ref, Index: index}
}

func (s *IndexScan) Type() OpType { return OpIndexScan }
func (s *IndexScan) Name() string { return "IndexScan" }
func (s *IndexScan) Arity() int   { return 0 }

func (s *IndexScan) Equals(other Operator) bool {
	o, ok := other.(*IndexScan)
	return ok && o.Ref == s.Ref && o.Index == s.Index
}

func (s *IndexScan) Hash() uint64 {
	return newOpHash(OpIndexScan).mixString(s.Ref.Alias).mixString(s.Index.Name).value()
}

func (s *IndexScan) String() string {
	return fmt.Sprintf("IndexScan(%s.%s)", s.Ref, s.Index.Name)
}

// DeliveredOrder returns the order an index scan produces, if any.
func (s *IndexScan) DeliveredOrder() marina.DataOrder {
	if s.Index.Kind != catalog.BTreeIndex || !s.Index.Clustered {
		return marina.AnyOrder()
	}
	names := make([]string, len(s.Index.KeyColumns))
	for i, k := range s.Index.KeyColumns {
		names[i] = s.Ref.Alias + "." + k
	}
	return marina.OrderedBy(names...)
}

// joinPhysical carries the equality columns shared by the join
// implementations.
type joinPhysical struct {
	physicalBase
	LeftCols  []catalog.ColumnRef
	RightCols []catalog.ColumnRef
}

func (j *joinPhysical) Arity() int { return 2 }

func (j *joinPhysical) hashInto(h opHash) uint64 {
	for _, c := range j.LeftCols {
		h = h.mixString(c.QualifiedName())
	}
	h = h.mixByte(0)
	for _, c := range j.RightCols {
		h = h.mixString(c.QualifiedName())
	}
	return h.value()
}

// NestedLoopsJoin is the fallback join: for every left tuple, scan the
// right input.
type NestedLoopsJoin struct {
	joinPhysical
}

// NewNestedLoopsJoin builds a nested-loops join.
func NewNestedLoopsJoin(left, right []catalog.ColumnRef) *NestedLoopsJoin {
	return &NestedLoopsJoin{joinPhysical{LeftCols: left, RightCols: right}}
}

func (j *NestedLoopsJoin) Type() OpType { return OpNestedLoopsJoin }
func (j *NestedLoopsJoin) Name() string { return "NestedLoopsJoin" }

func (j *NestedLoopsJoin) Equals(other Operator) bool {
	o, ok := other.(*NestedLoopsJoin)
	return ok && sameColumns(j.LeftCols, o.LeftCols) && sameColumns(j.RightCols, o.RightCols)
}

func (j *NestedLoopsJoin) Hash() uint64 {
	return j.hashInto(newOpHash(OpNestedLoopsJoin))
}

func (j *NestedLoopsJoin) String() string {
	return fmt.Sprintf("NestedLoopsJoin(%s)", joinColumnList(j.LeftCols, j.RightCols))
}

// HashJoin builds a hash table on its left input and probes with the right.
// Requires at least one equality column.
type HashJoin struct {
	joinPhysical
}

// NewHashJoin builds a hash join.
func NewHashJoin(left, right []catalog.ColumnRef) *HashJoin {
	return &HashJoin{joinPhysical{LeftCols: left, RightCols: right}}
}

func (j *HashJoin) Type() OpType { return OpHashJoin }
func (j *HashJoin) Name() string { return "HashJoin" }

func (j *HashJoin) Equals(other Operator) bool {
	o, ok := other.(*HashJoin)
	return ok && sameColumns(j.LeftCols, o.LeftCols) && sameColumns(j.RightCols, o.RightCols)
}

func (j *HashJoin) Hash() uint64 {
	return j.hashInto(newOpHash(OpHashJoin))
}

func (j *HashJoin) String() string {
	return fmt.Sprintf("HashJoin(%s)", joinColumnList(j.LeftCols, j.RightCols))
}

// SortMergeJoin merges two inputs sorted on the join columns. It requires
// its inputs ordered and delivers the left order.
type SortMergeJoin struct {
	joinPhysical
}

// NewSortMergeJoin builds a sort-merge join.
func NewSortMergeJoin(left, right []catalog.ColumnRef) *SortMergeJoin {
	return &SortMergeJoin{joinPhysical{LeftCols: left, RightCols: right}}
}

func (j *SortMergeJoin) Type() OpType { return OpSortMergeJoin }
func (j *SortMergeJoin) Name() string { return "SortMergeJoin" }

func (j *SortMergeJoin) Equals(other Operator) bool {
	o, ok := other.(*SortMergeJoin)
	return ok && sameColumns(j.LeftCols, o.LeftCols) && sameColumns(j.RightCols, o.RightCols)
}

func (j *SortMergeJoin) Hash() uint64 {
	return j.hashInto(newOpHash(OpSortMergeJoin))
}

func (j *SortMergeJoin) String() string {
	return fmt.Sprintf("SortMergeJoin(%s)", joinColumnList(j.LeftCols, j.RightCols))
}

// Filter is the physical selection: evaluates its predicate input against
// each tuple of its relational input. Preserves input order.
type Filter struct {
	physicalBase
}

// NewFilter builds a physical selection.
func NewFilter() *Filter {
	return &Filter{}
}

func (f *Filter) Type() OpType { return OpFilter }
func (f *Filter) Name() string { return "Filter" }
func (f *Filter) Arity() int   { return 2 }

func (f *Filter) Equals(other Operator) bool {
	_, ok := other.(*Filter)
	return ok
}

func (f *Filter) Hash() uint64 {
	return newOpHash(OpFilter).value()
}

func (f *Filter) String() string {
	return "Filter"
}

// PhysProject is the physical projection. Preserves input order.
type PhysProject struct {
	physicalBase
	Cols []catalog.ColumnRef
}

// NewPhysProject builds a physical projection.
func NewPhysProject(cols []catalog.ColumnRef) *PhysProject {
	return &PhysProject{Cols: cols}
}

func (p *PhysProject) Type() OpType { return OpPhysProject }
func (p *PhysProject) Name() string { return "PhysProject" }
func (p *PhysProject) Arity() int   { return 1 }

func (p *PhysProject) Equals(other Operator) bool {
	o, ok := other.(*PhysProject)
	return ok && sameColumns(p.Cols, o.Cols)
}

func (p *PhysProject) Hash() uint64 {
	h := newOpHash(OpPhysProject)
	for _, c := range p.Cols {
		h = h.mixString(c.QualifiedName())
	}
	return h.value()
}

func (p *PhysProject) String() string {
	return fmt.Sprintf("PhysProject(%s)", columnList(p.Cols))
}

// HashDistinct removes duplicates with an in-memory hash table.
type HashDistinct struct {
	physicalBase
}

// NewHashDistinct builds a hash-based duplicate eliminator.
func NewHashDistinct() *HashDistinct {
	return &HashDistinct{}
}

func (d *HashDistinct) Type() OpType { return OpHashDistinct }
func (d *HashDistinct) Name() string { return "HashDistinct" }
func (d *HashDistinct) Arity() int   { return 1 }

func (d *HashDistinct) Equals(other Operator) bool {
	_, ok := other.(*HashDistinct)
	return ok
}

func (d *HashDistinct) Hash() uint64 {
	return newOpHash(OpHashDistinct).value()
}

func (d *HashDistinct) String() string {
	return "HashDistinct"
}

// Sort is the order enforcer: it is placed above a plan that delivers no
// particular order to satisfy a required one.
type Sort struct {
	physicalBase
	Order marina.DataOrder
}

// NewSort builds a sort enforcer for the given order.
func NewSort(order marina.DataOrder) *Sort {
	return &Sort{Order: order}
}

func (s *Sort) Type() OpType { return OpSort }
func (s *Sort) Name() string { return "Sort" }
func (s *Sort) Arity() int   { return 1 }

// Enforced marks Sort as an enforcer.
func (s *Sort) Enforced() marina.PhysicalProperties {
	return marina.RequireOrder(s.Order)
}

func (s *Sort) Equals(other Operator) bool {
	o, ok := other.(*Sort)
	return ok && s.Order.Equals(o.Order)
}

func (s *Sort) Hash() uint64 {
	return newOpHash(OpSort).mixString(s.Order.String()).value()
}

func (s *Sort) String() string {
	return fmt.Sprintf("Sort(%s)", s.Order)
}
