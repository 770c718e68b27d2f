package rules

import (
	"github.com/wbrown/marina-sql/marina"
	"github.com/wbrown/marina-sql/marina/expr"
	"github.com/wbrown/marina-sql/marina/memo"
)

// SortEnforcer places a Sort above a group to satisfy a required order the
// group's plans cannot deliver natively. Its substitute's input is the
// matched multi-expression's own group, optimized under no order
// requirement; applying it never triggers further exploration of that
// subtree, since Sort is already physical.
type SortEnforcer struct {
	pattern *expr.Expression
}

// NewSortEnforcer creates the sort enforcer rule.
func NewSortEnforcer() *SortEnforcer {
	return &SortEnforcer{pattern: expr.New(expr.NewLeaf(0))}
}

func (r *SortEnforcer) Name() string              { return "SortEnforcer" }
func (r *SortEnforcer) IsTransformation() bool    { return false }
func (r *SortEnforcer) Pattern() *expr.Expression { return r.pattern }

// Promise fires only when an order is actually required.
func (r *SortEnforcer) Promise(_ *memo.MultiExpression, required marina.PhysicalProperties) Promise {
	if required.Order.IsAny() {
		return PromiseNone
	}
	return PromisePhysical
}

// RootMatch accepts any logical relational operator; the enforcer does not
// inspect the expression it sits above.
func (r *SortEnforcer) RootMatch(m *memo.MultiExpression) bool {
	op := m.Operator()
	return op.IsLogical() && !op.IsItem()
}

// SelfBinding binds the enforcer's single pattern leaf to the matched
// multi-expression's own group. The generic binder cannot produce this
// binding, since the pattern has no concrete root operator.
func (r *SortEnforcer) SelfBinding(m *memo.MultiExpression) *Binding {
	return &Binding{
		leaves:  map[int]memo.GroupID{0: m.Group()},
		matched: map[*expr.Expression]*memo.MultiExpression{r.pattern: m},
	}
}

// Substitutes builds Sort(group) for the required order.
func (r *SortEnforcer) Substitutes(_ *memo.SearchSpace, _ *Binding, required marina.PhysicalProperties) ([]*expr.Expression, error) {
	if required.Order.IsAny() {
		return nil, nil
	}
	sub := expr.New(expr.NewSort(required.Order), expr.New(expr.NewLeaf(0)))
	return []*expr.Expression{sub}, nil
}
