package parser

import (
	"strconv"

	"github.com/wbrown/marina-sql/marina"
	"github.com/wbrown/marina-sql/marina/expr"
	"github.com/wbrown/marina-sql/marina/sexp"
)

// Parse turns query text into a QueryExpression tree.
func Parse(input string) (*QueryExpression, error) {
	lex := sexp.NewLexer(input)
	if err := lex.Lex(); err != nil {
		return nil, marina.Queryf("parse: %v", err)
	}
	p := &parser{lex: lex}
	q, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if t := lex.Peek(); t.Type != sexp.TokenEOF {
		return nil, marina.Queryf("parse: trailing input at %d:%d", t.Line, t.Col)
	}
	return q, nil
}

type parser struct {
	lex *sexp.Lexer
}

func (p *parser) expect(typ sexp.TokenType, what string) (sexp.Token, error) {
	t := p.lex.Next()
	if t.Type != typ {
		return t, marina.Queryf("parse: expected %s at %d:%d, got %s", what, t.Line, t.Col, t)
	}
	return t, nil
}

func (p *parser) parseExpr() (*QueryExpression, error) {
	t := p.lex.Peek()
	switch t.Type {
	case sexp.TokenLeftParen:
		return p.parseCompound()
	case sexp.TokenAtom:
		return p.parseCall()
	default:
		return nil, marina.Queryf("parse: unexpected %s", t)
	}
}

// parseCompound parses '(' op (',' expr)* ')'.
func (p *parser) parseCompound() (*QueryExpression, error) {
	if _, err := p.expect(sexp.TokenLeftParen, "'('"); err != nil {
		return nil, err
	}
	head, err := p.parseHead()
	if err != nil {
		return nil, err
	}
	for p.lex.Peek().Type == sexp.TokenComma {
		p.lex.Next()
		child, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		head.Children = append(head.Children, child)
	}
	if _, err := p.expect(sexp.TokenRightParen, "')'"); err != nil {
		return nil, err
	}
	return head, nil
}

// parseHead parses the operator atom and its parameter list.
func (p *parser) parseHead() (*QueryExpression, error) {
	t, err := p.expect(sexp.TokenAtom, "operator")
	if err != nil {
		return nil, err
	}
	switch t.Value {
	case "SELECT":
		return &QueryExpression{Kind: NodeSelect}, nil
	case "DISTINCT":
		return &QueryExpression{Kind: NodeDistinct}, nil
	case "OP_AND":
		return &QueryExpression{Kind: NodeAnd}, nil
	case "OP_OR":
		return &QueryExpression{Kind: NodeOr}, nil
	case "OP_EQ":
		return &QueryExpression{Kind: NodeCompare, CmpOp: expr.CmpEQ}, nil
	case "OP_NE":
		return &QueryExpression{Kind: NodeCompare, CmpOp: expr.CmpNE}, nil
	case "OP_LT":
		return &QueryExpression{Kind: NodeCompare, CmpOp: expr.CmpLT}, nil
	case "OP_LE":
		return &QueryExpression{Kind: NodeCompare, CmpOp: expr.CmpLE}, nil
	case "OP_GT":
		return &QueryExpression{Kind: NodeCompare, CmpOp: expr.CmpGT}, nil
	case "OP_GE":
		return &QueryExpression{Kind: NodeCompare, CmpOp: expr.CmpGE}, nil
	case "EQJOIN":
		return p.parseEqJoinParams()
	case "PROJECT":
		return p.parseProjectParams()
	case "GET", "ATTR", "INT", "STRING":
		return p.parseCallNamed(t.Value)
	default:
		return nil, marina.Queryf("parse: unknown operator %q at %d:%d", t.Value, t.Line, t.Col)
	}
}

// parseCall parses leaf calls like GET(Sailors, S) outside a compound.
func (p *parser) parseCall() (*QueryExpression, error) {
	t, err := p.expect(sexp.TokenAtom, "operator")
	if err != nil {
		return nil, err
	}
	return p.parseCallNamed(t.Value)
}

func (p *parser) parseCallNamed(name string) (*QueryExpression, error) {
	switch name {
	case "GET":
		if _, err := p.expect(sexp.TokenLeftParen, "'('"); err != nil {
			return nil, err
		}
		table, err := p.expect(sexp.TokenAtom, "table name")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(sexp.TokenComma, "','"); err != nil {
			return nil, err
		}
		alias, err := p.expect(sexp.TokenAtom, "alias")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(sexp.TokenRightParen, "')'"); err != nil {
			return nil, err
		}
		return &QueryExpression{Kind: NodeGet, Table: table.Value, Alias: alias.Value}, nil
	case "ATTR":
		if _, err := p.expect(sexp.TokenLeftParen, "'('"); err != nil {
			return nil, err
		}
		qname, err := p.expect(sexp.TokenAtom, "qualified name")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(sexp.TokenRightParen, "')'"); err != nil {
			return nil, err
		}
		return &QueryExpression{Kind: NodeAttr, Attrs: []string{qname.Value}}, nil
	case "INT":
		if _, err := p.expect(sexp.TokenLeftParen, "'('"); err != nil {
			return nil, err
		}
		lit, err := p.expect(sexp.TokenAtom, "integer")
		if err != nil {
			return nil, err
		}
		n, err := strconv.ParseInt(lit.Value, 10, 64)
		if err != nil {
			return nil, marina.Queryf("parse: bad integer %q at %d:%d", lit.Value, lit.Line, lit.Col)
		}
		if _, err := p.expect(sexp.TokenRightParen, "')'"); err != nil {
			return nil, err
		}
		return &QueryExpression{Kind: NodeInt, IntValue: n}, nil
	case "STRING":
		if _, err := p.expect(sexp.TokenLeftParen, "'('"); err != nil {
			return nil, err
		}
		t := p.lex.Next()
		if t.Type != sexp.TokenString && t.Type != sexp.TokenAtom {
			return nil, marina.Queryf("parse: expected string at %d:%d, got %s", t.Line, t.Col, t)
		}
		if _, err := p.expect(sexp.TokenRightParen, "')'"); err != nil {
			return nil, err
		}
		return &QueryExpression{Kind: NodeString, StrValue: t.Value}, nil
	default:
		return nil, marina.Queryf("parse: unknown call %q", name)
	}
}

// parseEqJoinParams parses EQJOIN '(' [qname ',' qname] ')'. Empty
// parentheses denote a cross product.
func (p *parser) parseEqJoinParams() (*QueryExpression, error) {
	if _, err := p.expect(sexp.TokenLeftParen, "'('"); err != nil {
		return nil, err
	}
	q := &QueryExpression{Kind: NodeEqJoin}
	if p.lex.Peek().Type == sexp.TokenRightParen {
		p.lex.Next()
		return q, nil
	}
	left, err := p.expect(sexp.TokenAtom, "qualified name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(sexp.TokenComma, "','"); err != nil {
		return nil, err
	}
	right, err := p.expect(sexp.TokenAtom, "qualified name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(sexp.TokenRightParen, "')'"); err != nil {
		return nil, err
	}
	q.JoinLeft = left.Value
	q.JoinRight = right.Value
	return q, nil
}

// parseProjectParams parses PROJECT '(' '<' attr (',' attr)* '>' ')'.
func (p *parser) parseProjectParams() (*QueryExpression, error) {
	if _, err := p.expect(sexp.TokenLeftParen, "'('"); err != nil {
		return nil, err
	}
	if _, err := p.expect(sexp.TokenLeftAngle, "'<'"); err != nil {
		return nil, err
	}
	q := &QueryExpression{Kind: NodeProject}
	for {
		attr, err := p.expect(sexp.TokenAtom, "attribute")
		if err != nil {
			return nil, err
		}
		q.Attrs = append(q.Attrs, attr.Value)
		if p.lex.Peek().Type != sexp.TokenComma {
			break
		}
		p.lex.Next()
	}
	if _, err := p.expect(sexp.TokenRightAngle, "'>'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(sexp.TokenRightParen, "')'"); err != nil {
		return nil, err
	}
	return q, nil
}
