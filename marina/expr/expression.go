package expr

import (
	"fmt"
	"strings"
)

// Expression is an immutable n-ary operator tree. It serves three roles:
// rule patterns (with Leaf placeholders), input queries, and final physical
// plans.
type Expression struct {
	op     Operator
	inputs []*Expression
}

// New builds an expression node. The number of inputs must match the
// operator's arity unless the operator is a Leaf.
func New(op Operator, inputs ...*Expression) *Expression {
	return &Expression{op: op, inputs: inputs}
}

// Operator returns the node's operator.
func (e *Expression) Operator() Operator {
	return e.op
}

// Size returns the number of inputs.
func (e *Expression) Size() int {
	return len(e.inputs)
}

// Input returns the i-th input subtree.
func (e *Expression) Input(i int) *Expression {
	return e.inputs[i]
}

// Inputs returns the input slice. Callers must not mutate it.
func (e *Expression) Inputs() []*Expression {
	return e.inputs
}

// Preorder visits the root, then each input subtree in order.
func (e *Expression) Preorder(visit func(*Expression)) {
	visit(e)
	for _, in := range e.inputs {
		in.Preorder(visit)
	}
}

// Postorder visits each input subtree in order, then the root.
func (e *Expression) Postorder(visit func(*Expression)) {
	for _, in := range e.inputs {
		in.Postorder(visit)
	}
	visit(e)
}

// Inorder visits left subtree, root, then the remaining subtrees. For
// binary trees this is the usual left-root-right order; leaves degrade to a
// plain visit.
func (e *Expression) Inorder(visit func(*Expression)) {
	if len(e.inputs) == 0 {
		visit(e)
		return
	}
	e.inputs[0].Inorder(visit)
	visit(e)
	for _, in := range e.inputs[1:] {
		in.Inorder(visit)
	}
}

// String renders the tree on one line: Op(child, child).
func (e *Expression) String() string {
	if len(e.inputs) == 0 {
		return e.op.String()
	}
	parts := make([]string, len(e.inputs))
	for i, in := range e.inputs {
		parts[i] = in.String()
	}
	return fmt.Sprintf("%s[%s]", e.op.String(), strings.Join(parts, ", "))
}

// Format renders the tree indented, one operator per line.
func (e *Expression) Format() string {
	var b strings.Builder
	e.format(&b, 0)
	return b.String()
}

func (e *Expression) format(b *strings.Builder, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(e.op.String())
	b.WriteByte('\n')
	for _, in := range e.inputs {
		in.format(b, depth+1)
	}
}
