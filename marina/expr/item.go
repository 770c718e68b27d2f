package expr

import (
	"fmt"

	"github.com/wbrown/marina-sql/marina"
	"github.com/wbrown/marina-sql/marina/catalog"
)

// CompareOp identifies a comparison operator inside a predicate.
type CompareOp uint8

const (
	CmpEQ CompareOp = iota
	CmpNE
	CmpLT
	CmpLE
	CmpGT
	CmpGE
)

// String returns the SQL spelling of the comparison.
func (op CompareOp) String() string {
	switch op {
	case CmpEQ:
		return "="
	case CmpNE:
		return "<>"
	case CmpLT:
		return "<"
	case CmpLE:
		return "<="
	case CmpGT:
		return ">"
	case CmpGE:
		return ">="
	default:
		return "?"
	}
}

// AttrRef is an item operator referencing a column of some table occurrence.
type AttrRef struct {
	itemBase
	Ref catalog.ColumnRef
}

// NewAttrRef builds a column reference item.
func NewAttrRef(ref catalog.ColumnRef) *AttrRef {
	return &AttrRef{Ref: ref}
}

func (a *AttrRef) Type() OpType { return OpAttrRef }
func (a *AttrRef) Name() string { return "Attr" }
func (a *AttrRef) Arity() int   { return 0 }

func (a *AttrRef) Equals(other Operator) bool {
	o, ok := other.(*AttrRef)
	return ok && a.Ref.SameColumn(o.Ref)
}

func (a *AttrRef) Hash() uint64 {
	return newOpHash(OpAttrRef).mixString(a.Ref.QualifiedName()).value()
}

func (a *AttrRef) String() string {
	return a.Ref.QualifiedName()
}

// ConstInt is an integer literal.
type ConstInt struct {
	itemBase
	Value int64
}

// NewConstInt builds an integer literal item.
func NewConstInt(v int64) *ConstInt {
	return &ConstInt{Value: v}
}

func (c *ConstInt) Type() OpType { return OpConstInt }
func (c *ConstInt) Name() string { return "Int" }
func (c *ConstInt) Arity() int   { return 0 }

func (c *ConstInt) Equals(other Operator) bool {
	o, ok := other.(*ConstInt)
	return ok && o.Value == c.Value
}

func (c *ConstInt) Hash() uint64 {
	return newOpHash(OpConstInt).mix(uint64(c.Value)).value()
}

func (c *ConstInt) String() string {
	return fmt.Sprintf("%d", c.Value)
}

// ConstString is a string literal.
type ConstString struct {
	itemBase
	Value string
}

// NewConstString builds a string literal item.
func NewConstString(v string) *ConstString {
	return &ConstString{Value: v}
}

func (c *ConstString) Type() OpType { return OpConstString }
func (c *ConstString) Name() string { return "String" }
func (c *ConstString) Arity() int   { return 0 }

func (c *ConstString) Equals(other Operator) bool {
	o, ok := other.(*ConstString)
	return ok && o.Value == c.Value
}

func (c *ConstString) Hash() uint64 {
	return newOpHash(OpConstString).mixString(c.Value).value()
}

func (c *ConstString) String() string {
	return fmt.Sprintf("%q", c.Value)
}

// Compare applies a comparison to its two item inputs. Operand types must
// share a common type in the catalog lattice; resolution checks this.
type Compare struct {
	itemBase
	Op CompareOp
	// ResultType is the common operand type the comparison evaluates under.
	ResultType marina.DataType
}

// NewCompare builds a comparison item.
func NewCompare(op CompareOp) *Compare {
	return &Compare{Op: op}
}

func (c *Compare) Type() OpType { return OpCompare }
func (c *Compare) Name() string { return "Compare" }
func (c *Compare) Arity() int   { return 2 }

func (c *Compare) Equals(other Operator) bool {
	o, ok := other.(*Compare)
	return ok && o.Op == c.Op
}

func (c *Compare) Hash() uint64 {
	return newOpHash(OpCompare).mixByte(byte(c.Op)).value()
}

func (c *Compare) String() string {
	return fmt.Sprintf("Cmp(%s)", c.Op)
}

// And is boolean conjunction over two item inputs.
type And struct {
	itemBase
}

// NewAnd builds a conjunction item.
func NewAnd() *And {
	return &And{}
}

func (a *And) Type() OpType { return OpAnd }
func (a *And) Name() string { return "And" }
func (a *And) Arity() int   { return 2 }

func (a *And) Equals(other Operator) bool {
	_, ok := other.(*And)
	return ok
}

func (a *And) Hash() uint64 {
	return newOpHash(OpAnd).value()
}

func (a *And) String() string {
	return "And"
}

// Or is boolean disjunction over two item inputs.
type Or struct {
	itemBase
}

// NewOr builds a disjunction item.
func NewOr() *Or {
	return &Or{}
}

func (o *Or) Type() OpType { return OpOr }
func (o *Or) Name() string { return "Or" }
func (o *Or) Arity() int   { return 2 }

func (o *Or) Equals(other Operator) bool {
	_, ok := other.(*Or)
	return ok
}

func (o *Or) Hash() uint64 {
	return newOpHash(OpOr).value()
}

func (o *Or) String() string {
	return "Or"
}
