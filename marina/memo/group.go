package memo

import (
	"github.com/wbrown/marina-sql/marina"
	"github.com/wbrown/marina-sql/marina/expr"
)

// Group is an equivalence class of multi-expressions producing the same
// logical collection. Logical properties are derived once, from the first
// logical member.
type Group struct {
	id      GroupID
	props   *expr.LogicalProps
	members []*MultiExpression

	// winners maps required-property keys to the best plan found for them.
	// winnerOrder preserves first-request order for deterministic dumps.
	winners     map[string]*Winner
	winnerOrder []string

	explored  bool
	optimized bool

	// merged marks a group whose members were folded into another; its ID
	// now forwards through the union-find.
	merged bool
}

func newGroup(id GroupID, props *expr.LogicalProps) *Group {
	return &Group{
		id:      id,
		props:   props,
		winners: make(map[string]*Winner),
	}
}

// ID returns the group's arena ID.
func (g *Group) ID() GroupID {
	return g.id
}

// Props returns the group's logical properties.
func (g *Group) Props() *expr.LogicalProps {
	return g.props
}

// Members returns the member list in insertion order. Callers must not
// mutate it.
func (g *Group) Members() []*MultiExpression {
	return g.members
}

// Explored reports whether every transformation rule has fired on every
// logical member.
func (g *Group) Explored() bool {
	return g.explored
}

// MarkExplored raises the explored flag. Monotonic.
func (g *Group) MarkExplored() {
	g.explored = true
}

// Optimized reports whether some required-property optimization completed.
func (g *Group) Optimized() bool {
	return g.optimized
}

// MarkOptimized raises the optimized flag. Monotonic.
func (g *Group) MarkOptimized() {
	g.optimized = true
}

// Winner returns the winner entry for the required properties, creating an
// empty one on first request.
func (g *Group) Winner(required marina.PhysicalProperties) *Winner {
	key := required.Key()
	if w, ok := g.winners[key]; ok {
		return w
	}
	w := newWinner(required)
	g.winners[key] = w
	g.winnerOrder = append(g.winnerOrder, key)
	return w
}

// FindWinner returns the winner entry for the required properties if one
// exists.
func (g *Group) FindWinner(required marina.PhysicalProperties) (*Winner, bool) {
	w, ok := g.winners[required.Key()]
	return w, ok
}

// Winners returns the winner entries in first-request order.
func (g *Group) Winners() []*Winner {
	out := make([]*Winner, 0, len(g.winnerOrder))
	for _, key := range g.winnerOrder {
		out = append(out, g.winners[key])
	}
	return out
}
