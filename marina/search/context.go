// Package search drives the optimization: a LIFO stack of tasks explores
// the memo, fires rules, costs physical alternatives under branch-and-bound
// pruning, and records winners per required physical property.
//
// The whole search is single-threaded and cooperative: a task runs to
// completion once popped, and scheduling is nothing but explicit pushes.
// Within a fan-out the task pushed last pops first; the task flagged last
// in a group's fan-out finalizes the group when its chain drains.
package search

import (
	"github.com/wbrown/marina-sql/marina"
)

// Context is the search context for optimizing one group: the physical
// properties the result must deliver and the cost bound above which plans
// are pruned. The bound tightens as better winners appear; tasks sharing a
// context see the tighter bound immediately.
type Context struct {
	Required marina.PhysicalProperties
	Bound    marina.Cost
}

// NewContext builds a context with the given requirement and bound.
func NewContext(required marina.PhysicalProperties, bound marina.Cost) *Context {
	return &Context{Required: required, Bound: bound}
}

// Tighten lowers the bound if the new cost is cheaper.
func (c *Context) Tighten(cost marina.Cost) {
	if cost.Less(c.Bound) {
		c.Bound = cost
	}
}

// child derives the context a child group is optimized under: its own
// requirement and whatever budget remains.
func (c *Context) child(required marina.PhysicalProperties, remaining marina.Cost) *Context {
	return &Context{Required: required, Bound: remaining}
}
