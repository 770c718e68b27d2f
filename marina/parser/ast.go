// Package parser turns the textual S-expression query grammar into a
// QueryExpression and resolves it against the catalog into an operator
// expression the optimizer consumes.
//
// Grammar:
//
//	expr := '(' op (',' expr)* ')' | GET '(' table ',' alias ')'
//	      | ATTR '(' qname ')' | INT '(' n ')' | STRING '(' s ')'
//	op   := DISTINCT | PROJECT '(' '<' attrList '>' ')' | SELECT
//	      | EQJOIN '(' [qname ',' qname] ')' | OP_AND | OP_OR
//	      | OP_EQ | OP_LT | OP_GT | OP_LE | OP_GE | OP_NE
package parser

import (
	"fmt"
	"strings"

	"github.com/wbrown/marina-sql/marina/expr"
)

// NodeKind tags a parsed query node.
type NodeKind int

const (
	NodeGet NodeKind = iota
	NodeEqJoin
	NodeSelect
	NodeProject
	NodeDistinct
	NodeAnd
	NodeOr
	NodeCompare
	NodeAttr
	NodeInt
	NodeString
)

// QueryExpression is the parse tree before catalog resolution.
type QueryExpression struct {
	Kind     NodeKind
	Table    string   // GET: table name
	Alias    string   // GET: alias
	Attrs    []string // PROJECT: attribute list; ATTR: single qname
	JoinLeft string   // EQJOIN: left qname, empty for cross product
	JoinRight string  // EQJOIN: right qname
	CmpOp    expr.CompareOp
	IntValue int64
	StrValue string
	Children []*QueryExpression
}

// String renders the node back in grammar form.
func (q *QueryExpression) String() string {
	head := ""
	switch q.Kind {
	case NodeGet:
		return fmt.Sprintf("GET(%s, %s)", q.Table, q.Alias)
	case NodeAttr:
		return fmt.Sprintf("ATTR(%s)", q.Attrs[0])
	case NodeInt:
		return fmt.Sprintf("INT(%d)", q.IntValue)
	case NodeString:
		return fmt.Sprintf("STRING('%s')", q.StrValue)
	case NodeEqJoin:
		if q.JoinLeft == "" {
			head = "EQJOIN()"
		} else {
			head = fmt.Sprintf("EQJOIN(%s, %s)", q.JoinLeft, q.JoinRight)
		}
	case NodeProject:
		head = fmt.Sprintf("PROJECT(<%s>)", strings.Join(q.Attrs, ", "))
	case NodeSelect:
		head = "SELECT"
	case NodeDistinct:
		head = "DISTINCT"
	case NodeAnd:
		head = "OP_AND"
	case NodeOr:
		head = "OP_OR"
	case NodeCompare:
		head = "OP_" + cmpName(q.CmpOp)
	}
	parts := []string{head}
	for _, c := range q.Children {
		parts = append(parts, c.String())
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func cmpName(op expr.CompareOp) string {
	switch op {
	case expr.CmpEQ:
		return "EQ"
	case expr.CmpNE:
		return "NE"
	case expr.CmpLT:
		return "LT"
	case expr.CmpLE:
		return "LE"
	case expr.CmpGT:
		return "GT"
	case expr.CmpGE:
		return "GE"
	default:
		return "??"
	}
}
