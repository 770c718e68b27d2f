package expr

import (
	"fmt"

	"github.com/wbrown/marina-sql/marina/catalog"
)

// FuncDep is a functional dependency: the determinant columns decide the
// dependent columns. Columns are qualified names.
type FuncDep struct {
	From []string
	To   []string
}

// LogicalProps are the collection properties shared by every member of a
// memo group: output schema, cardinality estimates, candidate keys, and
// functional dependencies. Derivation is pure and local: an operator's
// properties follow from its parameters and its children's properties.
type LogicalProps struct {
	Schema         []catalog.ColumnRef
	Cardinality    float64
	MaxCardinality float64
	Keys           [][]string // candidate keys, as qualified column names
	FDs            []FuncDep
	Scalar         bool // true for item (scalar) subtrees
}

// ChildProps is the derivation view of one input group: its logical
// properties plus a representative expression, needed when the child is a
// predicate subtree whose shape drives selectivity.
type ChildProps struct {
	Props *LogicalProps
	Repr  *Expression
}

// HasColumn reports whether the schema contains the column.
func (p *LogicalProps) HasColumn(ref catalog.ColumnRef) bool {
	for _, c := range p.Schema {
		if c.SameColumn(ref) {
			return true
		}
	}
	return false
}

// HasKey reports whether some candidate key is covered by the given column
// set.
func (p *LogicalProps) HasKey(columns map[string]bool) bool {
	for _, key := range p.Keys {
		covered := true
		for _, col := range key {
			if !columns[col] {
				covered = false
				break
			}
		}
		if covered {
			return true
		}
	}
	return false
}

// columnDistinct finds the distinct count of a schema column, defaulting to
// the input cardinality when statistics are missing.
func columnDistinct(ref catalog.ColumnRef, fallback float64) float64 {
	if d := ref.Column.Stats.Distinct; d > 0 {
		return float64(d)
	}
	return fallback
}

// Derive computes a group's logical properties from its defining operator
// and the properties of its input groups.
func Derive(op Operator, children []ChildProps) (*LogicalProps, error) {
	if op.IsItem() {
		return &LogicalProps{Scalar: true}, nil
	}
	switch o := op.(type) {
	case *GetTable:
		return deriveGetTable(o), nil
	case *EquiJoin:
		return deriveEquiJoin(o, children)
	case *Select:
		return deriveSelect(children)
	case *Project:
		return deriveProject(o, children)
	case *Distinct:
		return deriveDistinct(children)
	default:
		return nil, fmt.Errorf("cannot derive logical properties for %s", op.Name())
	}
}

func deriveGetTable(g *GetTable) *LogicalProps {
	t := g.Ref.Table
	props := &LogicalProps{
		Cardinality:    float64(t.Stats.Cardinality),
		MaxCardinality: float64(t.Stats.Cardinality),
	}
	for _, col := range t.Columns {
		props.Schema = append(props.Schema, catalog.NewColumnRef(g.Ref, col))
	}
	if len(t.PrimaryKey) > 0 {
		key := make([]string, len(t.PrimaryKey))
		for i, k := range t.PrimaryKey {
			key[i] = g.Ref.Alias + "." + k
		}
		props.Keys = append(props.Keys, key)
		var rest []string
		for _, c := range props.Schema {
			rest = append(rest, c.QualifiedName())
		}
		props.FDs = append(props.FDs, FuncDep{From: key, To: rest})
	}
	return props
}

func deriveEquiJoin(j *EquiJoin, children []ChildProps) (*LogicalProps, error) {
	if len(children) != 2 {
		return nil, fmt.Errorf("EquiJoin expects 2 inputs, got %d", len(children))
	}
	left, right := children[0].Props, children[1].Props
	props := &LogicalProps{
		Schema:         append(append([]catalog.ColumnRef{}, left.Schema...), right.Schema...),
		MaxCardinality: left.MaxCardinality * right.MaxCardinality,
	}

	// Join selectivity: each equality pair filters by one over the larger
	// distinct count of its two sides.
	selectivity := 1.0
	for i := range j.LeftCols {
		dl := columnDistinct(j.LeftCols[i], left.Cardinality)
		dr := columnDistinct(j.RightCols[i], right.Cardinality)
		if d := maxFloat(dl, dr); d > 0 {
			selectivity /= d
		}
	}
	props.Cardinality = left.Cardinality * right.Cardinality * selectivity

	// Key propagation: if the join columns on one side cover a key of that
	// side, each tuple of the other side matches at most once, so the other
	// side's keys survive. Otherwise keys combine pairwise.
	rightJoinCols := make(map[string]bool)
	for _, c := range j.RightCols {
		rightJoinCols[c.QualifiedName()] = true
	}
	leftJoinCols := make(map[string]bool)
	for _, c := range j.LeftCols {
		leftJoinCols[c.QualifiedName()] = true
	}
	switch {
	case right.HasKey(rightJoinCols):
		props.Keys = append(props.Keys, left.Keys...)
	case left.HasKey(leftJoinCols):
		props.Keys = append(props.Keys, right.Keys...)
	default:
		for _, lk := range left.Keys {
			for _, rk := range right.Keys {
				props.Keys = append(props.Keys, append(append([]string{}, lk...), rk...))
			}
		}
	}

	// FDs flow through, and each equality pair adds mutual dependencies.
	props.FDs = append(append([]FuncDep{}, left.FDs...), right.FDs...)
	for i := range j.LeftCols {
		l, r := j.LeftCols[i].QualifiedName(), j.RightCols[i].QualifiedName()
		props.FDs = append(props.FDs,
			FuncDep{From: []string{l}, To: []string{r}},
			FuncDep{From: []string{r}, To: []string{l}})
	}
	return props, nil
}

func deriveSelect(children []ChildProps) (*LogicalProps, error) {
	if len(children) != 2 {
		return nil, fmt.Errorf("Select expects 2 inputs, got %d", len(children))
	}
	input := children[0].Props
	props := &LogicalProps{
		Schema:         input.Schema,
		MaxCardinality: input.MaxCardinality,
		Keys:           input.Keys,
		FDs:            input.FDs,
	}
	sel := 1.0
	if children[1].Repr != nil {
		sel = Selectivity(children[1].Repr, input)
	}
	props.Cardinality = input.Cardinality * sel
	return props, nil
}

func deriveProject(p *Project, children []ChildProps) (*LogicalProps, error) {
	if len(children) != 1 {
		return nil, fmt.Errorf("Project expects 1 input, got %d", len(children))
	}
	input := children[0].Props
	props := &LogicalProps{
		Schema:         p.Cols,
		Cardinality:    input.Cardinality,
		MaxCardinality: input.MaxCardinality,
	}
	// Keys survive only if every key column is still projected.
	projected := make(map[string]bool)
	for _, c := range p.Cols {
		projected[c.QualifiedName()] = true
	}
	for _, key := range input.Keys {
		keep := true
		for _, col := range key {
			if !projected[col] {
				keep = false
				break
			}
		}
		if keep {
			props.Keys = append(props.Keys, key)
		}
	}
	for _, fd := range input.FDs {
		keep := true
		for _, col := range append(append([]string{}, fd.From...), fd.To...) {
			if !projected[col] {
				keep = false
				break
			}
		}
		if keep {
			props.FDs = append(props.FDs, fd)
		}
	}
	return props, nil
}

func deriveDistinct(children []ChildProps) (*LogicalProps, error) {
	if len(children) != 1 {
		return nil, fmt.Errorf("Distinct expects 1 input, got %d", len(children))
	}
	input := children[0].Props
	props := &LogicalProps{
		Schema:         input.Schema,
		MaxCardinality: input.MaxCardinality,
		Keys:           input.Keys,
		FDs:            input.FDs,
	}
	// Over a key the input is already duplicate-free. Otherwise cap the
	// estimate by the product of per-column distinct counts.
	schemaCols := make(map[string]bool)
	for _, c := range input.Schema {
		schemaCols[c.QualifiedName()] = true
	}
	if input.HasKey(schemaCols) {
		props.Cardinality = input.Cardinality
	} else {
		combos := 1.0
		for _, c := range input.Schema {
			combos *= columnDistinct(c, input.Cardinality)
			if combos >= input.Cardinality {
				combos = input.Cardinality
				break
			}
		}
		props.Cardinality = minFloat(input.Cardinality, combos)
	}
	// The full schema is now a key.
	if !input.HasKey(schemaCols) {
		var all []string
		for _, c := range input.Schema {
			all = append(all, c.QualifiedName())
		}
		props.Keys = append(append([][]string{}, input.Keys...), all)
	}
	return props, nil
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
