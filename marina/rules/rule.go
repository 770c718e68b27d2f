// Package rules holds the optimizer's rule catalogue: transformation rules
// (logical to logical), implementation rules (logical to physical), and the
// sort enforcer, together with the pattern binder that matches rule
// patterns against the memo.
package rules

import (
	"github.com/wbrown/marina-sql/marina"
	"github.com/wbrown/marina-sql/marina/expr"
	"github.com/wbrown/marina-sql/marina/memo"
)

// Promise ranks how eagerly a rule application should be tried in a given
// context. Higher fires first; PromiseNone is skipped entirely.
type Promise int

const (
	PromiseNone Promise = iota
	PromiseLogical
	PromisePhysical
	PromiseHash
)

// String returns the promise's display name.
func (p Promise) String() string {
	switch p {
	case PromiseNone:
		return "none"
	case PromiseLogical:
		return "logical"
	case PromisePhysical:
		return "physical"
	case PromiseHash:
		return "hash"
	default:
		return "unknown"
	}
}

// Rule is one transformation or implementation rule. Rules are stateless
// and shared read-only by every task; per-multi-expression "fired" state
// lives in the memo.
type Rule interface {
	// Name identifies the rule in dumps and traces.
	Name() string
	// IsTransformation reports whether the substitute is logical. Only
	// transformation rules fire during exploration.
	IsTransformation() bool
	// Pattern returns the original pattern tree; Leaf operators mark
	// positions bound to whole input groups.
	Pattern() *expr.Expression
	// Promise ranks the rule for a multi-expression under the given
	// required properties. PromiseNone skips the application.
	Promise(m *memo.MultiExpression, required marina.PhysicalProperties) Promise
	// RootMatch is a cheap root-only test, ahead of full binding.
	RootMatch(m *memo.MultiExpression) bool
	// Substitutes produces the substitute expressions for one binding.
	// Leaf operators in a substitute refer to the binding's bound groups.
	Substitutes(space *memo.SearchSpace, b *Binding, required marina.PhysicalProperties) ([]*expr.Expression, error)
}

// rootTypeMatch is the usual RootMatch: operator type equality with the
// pattern root.
func rootTypeMatch(pattern *expr.Expression, m *memo.MultiExpression) bool {
	return m.Operator().Type() == pattern.Operator().Type()
}
