package rules

import (
	"github.com/wbrown/marina-sql/marina/expr"
	"github.com/wbrown/marina-sql/marina/memo"
)

// Binding is one way a rule pattern maps onto the memo: each pattern leaf
// is bound to an input group, and each interior pattern node to the
// concrete multi-expression it matched.
type Binding struct {
	leaves  map[int]memo.GroupID
	matched map[*expr.Expression]*memo.MultiExpression
}

// Leaves returns the leaf-index-to-group binding, in the form
// SearchSpace.InsertSubstitute consumes.
func (b *Binding) Leaves() map[int]memo.GroupID {
	return b.leaves
}

// Leaf returns the group bound to a pattern leaf index.
func (b *Binding) Leaf(index int) (memo.GroupID, bool) {
	g, ok := b.leaves[index]
	return g, ok
}

// MExpr returns the multi-expression matched at an interior pattern node.
func (b *Binding) MExpr(patternNode *expr.Expression) *memo.MultiExpression {
	return b.matched[patternNode]
}

func (b *Binding) clone() *Binding {
	nb := &Binding{
		leaves:  make(map[int]memo.GroupID, len(b.leaves)),
		matched: make(map[*expr.Expression]*memo.MultiExpression, len(b.matched)),
	}
	for k, v := range b.leaves {
		nb.leaves[k] = v
	}
	for k, v := range b.matched {
		nb.matched[k] = v
	}
	return nb
}

// Bind enumerates every way the pattern matches rooted at the given
// multi-expression. Pattern leaves bind whole input groups; interior
// pattern nodes descend into each matching logical member of the input
// group, so the result is the cross product over alternatives. An empty
// slice means no match; binding never fails with an error.
func Bind(space *memo.SearchSpace, pattern *expr.Expression, root *memo.MultiExpression) []*Binding {
	if pattern.Operator().Type() != root.Operator().Type() {
		return nil
	}
	if pattern.Size() != root.InputCount() {
		return nil
	}
	bindings := []*Binding{{
		leaves:  map[int]memo.GroupID{},
		matched: map[*expr.Expression]*memo.MultiExpression{pattern: root},
	}}
	for i := 0; i < pattern.Size(); i++ {
		child := pattern.Input(i)
		inputGroup := space.Canonical(root.Input(i))
		if leaf, ok := child.Operator().(*expr.Leaf); ok {
			for _, b := range bindings {
				b.leaves[leaf.Index] = inputGroup
			}
			continue
		}
		// Interior pattern node: try every logical member of the input
		// group as the subtree root.
		var expanded []*Binding
		for _, member := range space.Group(inputGroup).Members() {
			if member.Operator().IsPhysical() {
				continue
			}
			for _, sub := range Bind(space, child, member) {
				for _, b := range bindings {
					merged := b.clone()
					for k, v := range sub.leaves {
						merged.leaves[k] = v
					}
					for k, v := range sub.matched {
						merged.matched[k] = v
					}
					expanded = append(expanded, merged)
				}
			}
		}
		bindings = expanded
		if len(bindings) == 0 {
			return nil
		}
	}
	return bindings
}
