// Package memo implements the optimizer's search space: an arena of groups
// of logically equivalent multi-expressions, with interning, group merging,
// and winner bookkeeping.
//
// The SearchSpace owns every group and multi-expression; everything else
// holds GroupIDs and reads through the arena. Group merging is implemented
// with a union-find over group IDs, so stored IDs stay valid and resolve to
// a canonical group on access.
package memo

import (
	"fmt"
	"strings"

	"github.com/wbrown/marina-sql/marina/expr"
)

// GroupID indexes a group in the search space arena.
type GroupID int

// InvalidGroup marks "no group".
const InvalidGroup GroupID = -1

// MultiExpression is one operator whose inputs are groups rather than
// expressions: the node type of the memo. Within a group no two
// multi-expressions compare equal.
type MultiExpression struct {
	op     expr.Operator
	inputs []GroupID
	group  GroupID

	// firedRules records which rules have fired on this multi-expression,
	// one bit per rule. Monotonic.
	firedRules uint64
}

// Operator returns the defining operator.
func (m *MultiExpression) Operator() expr.Operator {
	return m.op
}

// InputCount returns the number of input groups.
func (m *MultiExpression) InputCount() int {
	return len(m.inputs)
}

// Input returns the i-th input group ID as stored. Resolve through
// SearchSpace.Canonical before comparing.
func (m *MultiExpression) Input(i int) GroupID {
	return m.inputs[i]
}

// Group returns the owning group's stored ID.
func (m *MultiExpression) Group() GroupID {
	return m.group
}

// HasFired reports whether the rule bit is set.
func (m *MultiExpression) HasFired(bit uint) bool {
	return m.firedRules&(1<<bit) != 0
}

// MarkFired sets the rule bit. Bits are never cleared.
func (m *MultiExpression) MarkFired(bit uint) {
	m.firedRules |= 1 << bit
}

// String renders "HashJoin(S.sid=R.sid) [1 2]".
func (m *MultiExpression) String() string {
	if len(m.inputs) == 0 {
		return m.op.String()
	}
	parts := make([]string, len(m.inputs))
	for i, g := range m.inputs {
		parts[i] = fmt.Sprintf("%d", g)
	}
	return fmt.Sprintf("%s [%s]", m.op.String(), strings.Join(parts, " "))
}
