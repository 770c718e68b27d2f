package parser

import (
	"strings"

	"github.com/wbrown/marina-sql/marina"
	"github.com/wbrown/marina-sql/marina/catalog"
	"github.com/wbrown/marina-sql/marina/expr"
)

// ReferenceTable maps query aliases to table references. Each alias names
// one occurrence of a table; the same table may appear under several
// aliases, each with its own identity.
type ReferenceTable struct {
	refs map[string]*catalog.TableRef
}

// NewReferenceTable creates an empty reference table.
func NewReferenceTable() *ReferenceTable {
	return &ReferenceTable{refs: make(map[string]*catalog.TableRef)}
}

// Register binds an alias to a table.
func (rt *ReferenceTable) Register(alias string, table *catalog.Table) (*catalog.TableRef, error) {
	if _, dup := rt.refs[alias]; dup {
		return nil, marina.Queryf("alias %q bound twice", alias)
	}
	ref := catalog.NewTableRef(alias, table)
	rt.refs[alias] = ref
	return ref, nil
}

// Lookup finds the reference for an alias.
func (rt *ReferenceTable) Lookup(alias string) (*catalog.TableRef, bool) {
	ref, ok := rt.refs[alias]
	return ref, ok
}

// ResolveColumn resolves a qualified name "S.sid" to a column reference.
func (rt *ReferenceTable) ResolveColumn(qname string) (catalog.ColumnRef, error) {
	parts := strings.SplitN(qname, ".", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return catalog.ColumnRef{}, marina.Queryf("column reference %q must be alias.column", qname)
	}
	ref, ok := rt.refs[parts[0]]
	if !ok {
		return catalog.ColumnRef{}, marina.Queryf("unresolved alias %q in %q", parts[0], qname)
	}
	col, ok := ref.Table.Column(parts[1])
	if !ok {
		return catalog.ColumnRef{}, marina.Queryf("no column %q in table %q (alias %q)",
			parts[1], ref.Table.Name, parts[0])
	}
	return catalog.NewColumnRef(ref, col), nil
}

// Resolve turns a parsed query into a catalog-linked operator expression,
// registering aliases, resolving columns, and type-checking predicates.
func Resolve(q *QueryExpression, cat catalog.Provider) (*expr.Expression, error) {
	rt := NewReferenceTable()
	if err := collectAliases(q, cat, rt); err != nil {
		return nil, err
	}
	e, _, err := build(q, rt)
	return e, err
}

// ParseAndResolve is the one-call front door: text to operator expression.
func ParseAndResolve(input string, cat catalog.Provider) (*expr.Expression, error) {
	q, err := Parse(input)
	if err != nil {
		return nil, err
	}
	return Resolve(q, cat)
}

// collectAliases registers every GET alias before resolution, since join
// parameters may reference aliases introduced later in the text.
func collectAliases(q *QueryExpression, cat catalog.Provider, rt *ReferenceTable) error {
	if q.Kind == NodeGet {
		table, err := cat.LookupTable(q.Table)
		if err != nil {
			return err
		}
		if _, err := rt.Register(q.Alias, table); err != nil {
			return err
		}
	}
	for _, c := range q.Children {
		if err := collectAliases(c, cat, rt); err != nil {
			return err
		}
	}
	return nil
}

// subtreeAliases collects the aliases a relational subtree produces.
func subtreeAliases(q *QueryExpression, out map[string]bool) {
	if q.Kind == NodeGet {
		out[q.Alias] = true
	}
	for _, c := range q.Children {
		subtreeAliases(c, out)
	}
}

// build constructs the operator tree. For item subtrees it also returns
// the value type, for predicate type checking.
func build(q *QueryExpression, rt *ReferenceTable) (*expr.Expression, marina.DataType, error) {
	switch q.Kind {
	case NodeGet:
		ref, _ := rt.Lookup(q.Alias)
		return expr.New(expr.NewGetTable(ref)), marina.TypeUnknown, nil

	case NodeEqJoin:
		if len(q.Children) != 2 {
			return nil, 0, marina.Queryf("EQJOIN takes 2 inputs, got %d", len(q.Children))
		}
		left, _, err := build(q.Children[0], rt)
		if err != nil {
			return nil, 0, err
		}
		right, _, err := build(q.Children[1], rt)
		if err != nil {
			return nil, 0, err
		}
		var leftCols, rightCols []catalog.ColumnRef
		if q.JoinLeft != "" {
			lc, err := rt.ResolveColumn(q.JoinLeft)
			if err != nil {
				return nil, 0, err
			}
			rc, err := rt.ResolveColumn(q.JoinRight)
			if err != nil {
				return nil, 0, err
			}
			// The first qname must come from the left input; accept either
			// order in the text.
			leftAliases := make(map[string]bool)
			subtreeAliases(q.Children[0], leftAliases)
			if !leftAliases[lc.Table.Alias] {
				lc, rc = rc, lc
			}
			if !leftAliases[lc.Table.Alias] {
				return nil, 0, marina.Queryf("join column %q comes from neither input", q.JoinLeft)
			}
			if _, ok := marina.CommonType(lc.Type(), rc.Type()); !ok {
				return nil, 0, marina.Queryf("join columns %s (%s) and %s (%s) are incomparable",
					lc.QualifiedName(), lc.Type(), rc.QualifiedName(), rc.Type())
			}
			leftCols = []catalog.ColumnRef{lc}
			rightCols = []catalog.ColumnRef{rc}
		}
		return expr.New(expr.NewEquiJoin(leftCols, rightCols), left, right), marina.TypeUnknown, nil

	case NodeSelect:
		if len(q.Children) != 2 {
			return nil, 0, marina.Queryf("SELECT takes an input and a predicate, got %d children", len(q.Children))
		}
		input, _, err := build(q.Children[0], rt)
		if err != nil {
			return nil, 0, err
		}
		pred, _, err := build(q.Children[1], rt)
		if err != nil {
			return nil, 0, err
		}
		if !pred.Operator().IsItem() {
			return nil, 0, marina.Queryf("SELECT predicate must be a scalar expression")
		}
		return expr.New(expr.NewSelect(), input, pred), marina.TypeUnknown, nil

	case NodeProject:
		if len(q.Children) != 1 {
			return nil, 0, marina.Queryf("PROJECT takes 1 input, got %d", len(q.Children))
		}
		input, _, err := build(q.Children[0], rt)
		if err != nil {
			return nil, 0, err
		}
		cols := make([]catalog.ColumnRef, len(q.Attrs))
		for i, a := range q.Attrs {
			c, err := rt.ResolveColumn(a)
			if err != nil {
				return nil, 0, err
			}
			cols[i] = c
		}
		return expr.New(expr.NewProject(cols), input), marina.TypeUnknown, nil

	case NodeDistinct:
		if len(q.Children) != 1 {
			return nil, 0, marina.Queryf("DISTINCT takes 1 input, got %d", len(q.Children))
		}
		input, _, err := build(q.Children[0], rt)
		if err != nil {
			return nil, 0, err
		}
		return expr.New(expr.NewDistinct(), input), marina.TypeUnknown, nil

	case NodeAnd, NodeOr:
		if len(q.Children) != 2 {
			return nil, 0, marina.Queryf("boolean operator takes 2 inputs, got %d", len(q.Children))
		}
		left, _, err := build(q.Children[0], rt)
		if err != nil {
			return nil, 0, err
		}
		right, _, err := build(q.Children[1], rt)
		if err != nil {
			return nil, 0, err
		}
		for _, c := range []*expr.Expression{left, right} {
			switch c.Operator().Type() {
			case expr.OpCompare, expr.OpAnd, expr.OpOr:
			default:
				return nil, 0, marina.Queryf("boolean operand must be a predicate, got %s", c.Operator())
			}
		}
		var op expr.Operator
		if q.Kind == NodeAnd {
			op = expr.NewAnd()
		} else {
			op = expr.NewOr()
		}
		return expr.New(op, left, right), marina.TypeUnknown, nil

	case NodeCompare:
		if len(q.Children) != 2 {
			return nil, 0, marina.Queryf("comparison takes 2 operands, got %d", len(q.Children))
		}
		left, lt, err := build(q.Children[0], rt)
		if err != nil {
			return nil, 0, err
		}
		right, rtype, err := build(q.Children[1], rt)
		if err != nil {
			return nil, 0, err
		}
		common, ok := marina.CommonType(lt, rtype)
		if !ok {
			return nil, 0, marina.Queryf("cannot compare %s and %s", lt, rtype)
		}
		cmp := expr.NewCompare(q.CmpOp)
		cmp.ResultType = common
		return expr.New(cmp, left, right), marina.TypeUnknown, nil

	case NodeAttr:
		c, err := rt.ResolveColumn(q.Attrs[0])
		if err != nil {
			return nil, 0, err
		}
		return expr.New(expr.NewAttrRef(c)), c.Type(), nil

	case NodeInt:
		return expr.New(expr.NewConstInt(q.IntValue)), marina.TypeInt, nil

	case NodeString:
		return expr.New(expr.NewConstString(q.StrValue)), marina.TypeVarChar, nil

	default:
		return nil, 0, marina.Queryf("unknown query node kind %d", q.Kind)
	}
}
