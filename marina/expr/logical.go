package expr

import (
	"fmt"
	"strings"

	"github.com/wbrown/marina-sql/marina"
	"github.com/wbrown/marina-sql/marina/catalog"
)

// GetTable reads one aliased table occurrence. Equality is by reference
// identity: two aliases of the same table are distinct operators.
type GetTable struct {
	logicalBase
	Ref *catalog.TableRef
}

// NewGetTable builds a table access operator.
func NewGetTable(ref *catalog.TableRef) *GetTable {
	return &GetTable{Ref: ref}
}

func (g *GetTable) Type() OpType { return OpGetTable }
func (g *GetTable) Name() string { return "GetTable" }
func (g *GetTable) Arity() int   { return 0 }

func (g *GetTable) Equals(other Operator) bool {
	o, ok := other.(*GetTable)
	return ok && o.Ref == g.Ref
}

func (g *GetTable) Hash() uint64 {
	return newOpHash(OpGetTable).mixString(g.Ref.Alias).mixString(g.Ref.Table.Name).value()
}

func (g *GetTable) String() string {
	return fmt.Sprintf("GetTable(%s)", g.Ref)
}

// EquiJoin joins two inputs on pairwise column equality. Empty column lists
// denote a cross product.
type EquiJoin struct {
	logicalBase
	LeftCols  []catalog.ColumnRef
	RightCols []catalog.ColumnRef
}

// NewEquiJoin builds an equi-join on the given column pairs.
func NewEquiJoin(left, right []catalog.ColumnRef) *EquiJoin {
	return &EquiJoin{LeftCols: left, RightCols: right}
}

func (j *EquiJoin) Type() OpType { return OpEquiJoin }
func (j *EquiJoin) Name() string { return "EquiJoin" }
func (j *EquiJoin) Arity() int   { return 2 }

// IsCrossProduct reports whether the join has no equality columns.
func (j *EquiJoin) IsCrossProduct() bool {
	return len(j.LeftCols) == 0
}

func (j *EquiJoin) Equals(other Operator) bool {
	o, ok := other.(*EquiJoin)
	return ok && sameColumns(j.LeftCols, o.LeftCols) && sameColumns(j.RightCols, o.RightCols)
}

func (j *EquiJoin) Hash() uint64 {
	h := newOpHash(OpEquiJoin)
	for _, c := range j.LeftCols {
		h = h.mixString(c.QualifiedName())
	}
	h = h.mixByte(0)
	for _, c := range j.RightCols {
		h = h.mixString(c.QualifiedName())
	}
	return h.value()
}

func (j *EquiJoin) String() string {
	return fmt.Sprintf("EquiJoin(%s)", joinColumnList(j.LeftCols, j.RightCols))
}

// Select filters its first input by the predicate in its second (item)
// input.
type Select struct {
	logicalBase
}

// NewSelect builds a selection.
func NewSelect() *Select {
	return &Select{}
}

func (s *Select) Type() OpType { return OpSelect }
func (s *Select) Name() string { return "Select" }
func (s *Select) Arity() int   { return 2 }

func (s *Select) Equals(other Operator) bool {
	_, ok := other.(*Select)
	return ok
}

func (s *Select) Hash() uint64 {
	return newOpHash(OpSelect).value()
}

func (s *Select) String() string {
	return "Select"
}

// Project trims its input's schema to the given columns.
type Project struct {
	logicalBase
	Cols []catalog.ColumnRef
}

// NewProject builds a projection.
func NewProject(cols []catalog.ColumnRef) *Project {
	return &Project{Cols: cols}
}

func (p *Project) Type() OpType { return OpProject }
func (p *Project) Name() string { return "Project" }
func (p *Project) Arity() int   { return 1 }

func (p *Project) Equals(other Operator) bool {
	o, ok := other.(*Project)
	return ok && sameColumns(p.Cols, o.Cols)
}

func (p *Project) Hash() uint64 {
	h := newOpHash(OpProject)
	for _, c := range p.Cols {
		h = h.mixString(c.QualifiedName())
	}
	return h.value()
}

func (p *Project) String() string {
	return fmt.Sprintf("Project(%s)", columnList(p.Cols))
}

// Distinct removes duplicate tuples from its input.
type Distinct struct {
	logicalBase
}

// NewDistinct builds a duplicate-elimination operator.
func NewDistinct() *Distinct {
	return &Distinct{}
}

func (d *Distinct) Type() OpType { return OpDistinct }
func (d *Distinct) Name() string { return "Distinct" }
func (d *Distinct) Arity() int   { return 1 }

func (d *Distinct) Equals(other Operator) bool {
	_, ok := other.(*Distinct)
	return ok
}

func (d *Distinct) Hash() uint64 {
	return newOpHash(OpDistinct).value()
}

func (d *Distinct) String() string {
	return "Distinct"
}

// sameColumns compares column reference lists element-wise.
func sameColumns(a, b []catalog.ColumnRef) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].SameColumn(b[i]) {
			return false
		}
	}
	return true
}

// columnList renders "S.sid, S.sname".
func columnList(cols []catalog.ColumnRef) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = c.QualifiedName()
	}
	return strings.Join(parts, ", ")
}

// joinColumnList renders "S.sid=R.sid, S.bid=R.bid" or "cross".
func joinColumnList(left, right []catalog.ColumnRef) string {
	if len(left) == 0 {
		return "cross"
	}
	parts := make([]string, len(left))
	for i := range left {
		parts[i] = left[i].QualifiedName() + "=" + right[i].QualifiedName()
	}
	return strings.Join(parts, ", ")
}

// OrderFromColumns builds an ascending DataOrder over column references.
func OrderFromColumns(cols []catalog.ColumnRef) marina.DataOrder {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.QualifiedName()
	}
	return marina.OrderedBy(names...)
}
