package memo

import (
	"fmt"

	"github.com/wbrown/marina-sql/marina"
)

// Winner is the best physical multi-expression found so far for one
// (group, required properties) pair. Ready is raised exactly once, when the
// optimization pass for that property set finishes.
type Winner struct {
	Required marina.PhysicalProperties
	MExpr    *MultiExpression
	Cost     marina.Cost
	Ready    bool

	// InputRequired records the physical properties each input of MExpr was
	// optimized under; plan extraction follows them downward.
	InputRequired []marina.PhysicalProperties
}

// newWinner starts an empty winner with infinite cost.
func newWinner(required marina.PhysicalProperties) *Winner {
	return &Winner{Required: required, Cost: marina.Infinity()}
}

// HasPlan reports whether any plan has been recorded.
func (w *Winner) HasPlan() bool {
	return w.MExpr != nil
}

// Update records a cheaper plan. Returns false if the candidate does not
// improve on the current best.
func (w *Winner) Update(m *MultiExpression, cost marina.Cost, inputRequired []marina.PhysicalProperties) bool {
	if w.HasPlan() && !cost.Less(w.Cost) {
		return false
	}
	w.MExpr = m
	w.Cost = cost
	w.InputRequired = inputRequired
	return true
}

// MarkReady finalizes the winner. Readying twice is an optimizer invariant
// violation.
func (w *Winner) MarkReady() error {
	if w.Ready {
		return marina.Internalf("winner for %s marked ready twice", w.Required)
	}
	w.Ready = true
	return nil
}

// String renders "winner[any] = HashJoin(...) cost=42.00" for memo dumps.
func (w *Winner) String() string {
	if !w.HasPlan() {
		return fmt.Sprintf("winner[%s] = <none>", w.Required)
	}
	ready := ""
	if w.Ready {
		ready = " ready"
	}
	return fmt.Sprintf("winner[%s] = %s cost=%s%s", w.Required, w.MExpr.Operator(), w.Cost, ready)
}
