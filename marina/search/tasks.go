package search

import (
	"sort"

	"github.com/wbrown/marina-sql/marina"
	"github.com/wbrown/marina-sql/marina/expr"
	"github.com/wbrown/marina-sql/marina/memo"
	"github.com/wbrown/marina-sql/marina/rules"
	"github.com/wbrown/marina-sql/marina/trace"
)

// task is one deferred unit of search work. A task runs to completion once
// popped; it may push further tasks, which pop before anything older on
// the stack.
type task interface {
	perform(o *Optimizer) error
}

// completeLast finalizes a group when the task flagged last in its fan-out
// drains: exploration marks the group explored, optimization marks it
// optimized and readies the winner for the context's requirement.
func (o *Optimizer) completeLast(group memo.GroupID, ctx *Context, exploring bool) error {
	g := o.space.Group(group)
	if exploring {
		g.MarkExplored()
		trace.Emit(o.handler, trace.GroupExplored, map[string]interface{}{"group": g.ID()})
		return nil
	}
	g.MarkOptimized()
	w := g.Winner(ctx.Required)
	if err := w.MarkReady(); err != nil {
		return err
	}
	trace.Emit(o.handler, trace.GroupOptimized, map[string]interface{}{
		"group": g.ID(), "required": ctx.Required,
	})
	return nil
}

// optimizeGroup finds the best plan for a group under the context's
// required properties. If the group is already optimized for them the
// existing winner stands; otherwise every member is scheduled, the
// latest-inserted member's chain carrying the last flag.
type optimizeGroup struct {
	group memo.GroupID
	ctx   *Context
	last  bool
}

func (t *optimizeGroup) perform(o *Optimizer) error {
	g := o.space.Group(t.group)
	w := g.Winner(t.ctx.Required)
	if w.Ready {
		return nil
	}
	members := g.Members()
	if len(members) == 0 {
		return marina.Internalf("group %d has no members", g.ID())
	}
	// Push in reverse so the earliest-inserted member pops first; the
	// latest-inserted member executes last and finalizes the group.
	first := true
	for i := len(members) - 1; i >= 0; i-- {
		m := members[i]
		if m.Operator().IsPhysical() {
			o.push(&optimizeInputs{m: m, ctx: t.ctx, last: t.last && first})
		} else {
			o.push(&optimizeExpression{m: m, ctx: t.ctx, last: t.last && first})
		}
		first = false
	}
	return nil
}

// exploreGroup enriches a group with every logical alternative reachable
// through transformation rules, so pattern matching sees them all.
type exploreGroup struct {
	group memo.GroupID
	ctx   *Context
}

func (t *exploreGroup) perform(o *Optimizer) error {
	g := o.space.Group(t.group)
	if g.Explored() {
		return nil
	}
	var logical []*memo.MultiExpression
	for _, m := range g.Members() {
		if m.Operator().IsLogical() {
			logical = append(logical, m)
		}
	}
	if len(logical) == 0 {
		// Scalar groups have nothing to explore.
		g.MarkExplored()
		return nil
	}
	first := true
	for i := len(logical) - 1; i >= 0; i-- {
		o.push(&optimizeExpression{m: logical[i], ctx: t.ctx, last: first, exploring: true})
		first = false
	}
	return nil
}

// move is one applicable (rule, promise) pair for a multi-expression.
type move struct {
	rule    *rules.BoundRule
	promise rules.Promise
}

// optimizeExpression fires every applicable rule on one multi-expression,
// highest promise first. Item operators bypass rule search entirely and go
// straight to input costing.
type optimizeExpression struct {
	m         *memo.MultiExpression
	ctx       *Context
	last      bool
	exploring bool
}

func (t *optimizeExpression) perform(o *Optimizer) error {
	op := t.m.Operator()
	if op.IsItem() {
		if t.exploring {
			if t.last {
				return o.completeLast(t.m.Group(), t.ctx, true)
			}
			return nil
		}
		o.push(&optimizeInputs{m: t.m, ctx: t.ctx, last: t.last})
		return nil
	}
	if !op.IsLogical() {
		return marina.Internalf("optimizeExpression on %s operator %s", opClass(op), op)
	}

	var moves []move
	for _, r := range o.rules.Rules() {
		if !r.Enabled() {
			continue
		}
		// Enforcers are context-dependent: the same group may need Sort
		// under several orders, so they bypass the fired-once bitset and
		// rely on memo interning for idempotence.
		if !isEnforcer(r) && t.m.HasFired(r.Bit()) {
			continue
		}
		if t.exploring && !r.IsTransformation() {
			continue
		}
		if !r.RootMatch(t.m) {
			continue
		}
		p := r.Promise(t.m, t.ctx.Required)
		if p == rules.PromiseNone {
			continue
		}
		moves = append(moves, move{rule: r, promise: p})
	}
	sort.SliceStable(moves, func(i, j int) bool { return moves[i].promise > moves[j].promise })

	if len(moves) == 0 {
		if t.last {
			return o.completeLast(t.m.Group(), t.ctx, t.exploring)
		}
		return nil
	}

	// Push moves lowest promise first so the highest pops first; the
	// lowest-promise application executes last and inherits the last flag.
	first := true
	for i := len(moves) - 1; i >= 0; i-- {
		o.push(&applyRule{
			m:         t.m,
			rule:      moves[i].rule,
			ctx:       t.ctx,
			last:      t.last && first,
			exploring: t.exploring,
		})
		first = false
	}

	// Pattern matching inside applyRule must see every logical alternative
	// of the input groups the patterns descend into, so explore them first.
	pushed := make(map[memo.GroupID]bool)
	for _, mv := range moves {
		pattern := mv.rule.Pattern()
		for i := 0; i < pattern.Size() && i < t.m.InputCount(); i++ {
			if pattern.Input(i).Operator().IsLeaf() {
				continue
			}
			in := o.space.Canonical(t.m.Input(i))
			if pushed[in] || o.space.Group(in).Explored() {
				continue
			}
			pushed[in] = true
			o.push(&exploreGroup{group: in, ctx: t.ctx})
		}
	}
	return nil
}

func isEnforcer(r *rules.BoundRule) bool {
	_, ok := r.Rule.(*rules.SortEnforcer)
	return ok
}

func opClass(op expr.Operator) string {
	switch {
	case op.IsPhysical():
		return "physical"
	case op.IsLeaf():
		return "leaf"
	case op.IsItem():
		return "item"
	default:
		return "logical"
	}
}

// applyRule binds one rule's pattern against a multi-expression, inserts
// every substitute, and schedules the newly created members. The rule
// fires at most once per multi-expression.
type applyRule struct {
	m         *memo.MultiExpression
	rule      *rules.BoundRule
	ctx       *Context
	last      bool
	exploring bool
}

func (t *applyRule) perform(o *Optimizer) error {
	if !isEnforcer(t.rule) {
		if t.m.HasFired(t.rule.Bit()) {
			if t.last {
				return o.completeLast(t.m.Group(), t.ctx, t.exploring)
			}
			return nil
		}
		t.m.MarkFired(t.rule.Bit())
	}

	var bindings []*rules.Binding
	if se, ok := t.rule.Rule.(*rules.SortEnforcer); ok {
		bindings = []*rules.Binding{se.SelfBinding(t.m)}
	} else {
		bindings = rules.Bind(o.space, t.rule.Pattern(), t.m)
	}

	var created []*memo.MultiExpression
	for _, b := range bindings {
		subs, err := t.rule.Substitutes(o.space, b, t.ctx.Required)
		if err != nil {
			return err
		}
		for _, sub := range subs {
			nm, fresh, err := o.space.InsertSubstitute(sub, t.m.Group(), b.Leaves())
			if err != nil {
				return err
			}
			if fresh {
				created = append(created, nm)
			}
		}
	}
	trace.Emit(o.handler, trace.RuleApplied, map[string]interface{}{
		"rule": t.rule.Name(), "mexpr": t.m.String(), "inserted": len(created),
	})

	if len(created) == 0 {
		if t.last {
			return o.completeLast(t.m.Group(), t.ctx, t.exploring)
		}
		return nil
	}
	// The earliest-created member pops first; the latest executes last and
	// inherits the last flag.
	first := true
	for i := len(created) - 1; i >= 0; i-- {
		nm := created[i]
		if nm.Operator().IsPhysical() {
			if t.exploring {
				return marina.Internalf("physical substitute %s during exploration", nm.Operator())
			}
			o.push(&optimizeInputs{m: nm, ctx: t.ctx, last: t.last && first})
		} else {
			o.push(&optimizeExpression{m: nm, ctx: t.ctx, last: t.last && first, exploring: t.exploring})
		}
		first = false
	}
	return nil
}

// optimizeInputs costs one physical (or item) multi-expression: each input
// group is optimized under the properties it must deliver, one at a time,
// the task re-pushing itself between children. When every child winner is
// known the total cost decides whether this member becomes the group's
// winner for the context's requirement.
type optimizeInputs struct {
	m    *memo.MultiExpression
	ctx  *Context
	last bool

	started       bool
	childIndex    int
	localCost     marina.Cost
	childRequired []marina.PhysicalProperties
	childCost     []marina.Cost
}

func (t *optimizeInputs) perform(o *Optimizer) error {
	op := t.m.Operator()
	n := t.m.InputCount()

	if !t.started {
		t.started = true
		childProps := make([]*expr.LogicalProps, n)
		for i := 0; i < n; i++ {
			childProps[i] = o.space.Group(t.m.Input(i)).Props()
		}
		t.localCost = o.model.LocalCost(op, childProps)
		required, ok := inputRequirements(op, t.ctx.Required)
		if !ok {
			// This member cannot deliver the required properties; an
			// enforcer or another member must.
			return t.finish(o)
		}
		t.childRequired = required
		t.childCost = make([]marina.Cost, n)
		if !t.localCost.Less(t.ctx.Bound) {
			return t.finish(o)
		}
	}

	for t.childIndex < n {
		// An enforcer's input is its own group; requiring the same
		// properties we are computing would recurse forever.
		if o.space.Canonical(t.m.Input(t.childIndex)) == o.space.Canonical(t.m.Group()) &&
			t.childRequired[t.childIndex].Equals(t.ctx.Required) {
			return t.finish(o)
		}
		cg := o.space.Group(t.m.Input(t.childIndex))
		w, ok := cg.FindWinner(t.childRequired[t.childIndex])
		if !ok || !w.Ready {
			// Optimize this child, then resume.
			remaining := t.ctx.Bound.Add(-t.accumulated())
			o.push(t)
			o.push(&optimizeGroup{
				group: t.m.Input(t.childIndex),
				ctx:   t.ctx.child(t.childRequired[t.childIndex], remaining),
				last:  true,
			})
			return nil
		}
		if !w.HasPlan() || w.Cost.IsInfinity() {
			return t.finish(o)
		}
		t.childCost[t.childIndex] = w.Cost
		t.childIndex++
		if !t.accumulated().Less(t.ctx.Bound) {
			// Partial cost already reaches the bound; prune.
			return t.finish(o)
		}
	}

	total := t.accumulated()
	g := o.space.Group(t.m.Group())
	w := g.Winner(t.ctx.Required)
	if w.Update(t.m, total, t.childRequired) {
		t.ctx.Tighten(total)
		trace.Emit(o.handler, trace.WinnerUpdated, map[string]interface{}{
			"group": g.ID(), "required": t.ctx.Required, "mexpr": op.String(), "cost": total,
		})
	}
	return t.finish(o)
}

// accumulated sums local cost plus child costs gathered so far.
func (t *optimizeInputs) accumulated() marina.Cost {
	total := t.localCost
	for i := 0; i < t.childIndex; i++ {
		total = total.Add(t.childCost[i])
	}
	return total
}

func (t *optimizeInputs) finish(o *Optimizer) error {
	if t.last {
		return o.completeLast(t.m.Group(), t.ctx, false)
	}
	return nil
}

// inputRequirements derives, for one physical or item operator, the
// properties each input must deliver for the operator to satisfy the
// required properties, or reports that it cannot.
func inputRequirements(op expr.Operator, required marina.PhysicalProperties) ([]marina.PhysicalProperties, bool) {
	anyOf := func(n int) []marina.PhysicalProperties {
		out := make([]marina.PhysicalProperties, n)
		for i := range out {
			out[i] = marina.AnyProperties()
		}
		return out
	}
	if op.IsItem() {
		return anyOf(op.Arity()), true
	}
	switch o := op.(type) {
	case *expr.FileScan:
		return nil, required.Order.IsAny()
	case *expr.IndexScan:
		return nil, o.DeliveredOrder().Satisfies(required.Order)
	case *expr.NestedLoopsJoin:
		return anyOf(2), required.Order.IsAny()
	case *expr.HashJoin:
		return anyOf(2), required.Order.IsAny()
	case *expr.SortMergeJoin:
		left := expr.OrderFromColumns(o.LeftCols)
		right := expr.OrderFromColumns(o.RightCols)
		if !left.Satisfies(required.Order) {
			return nil, false
		}
		return []marina.PhysicalProperties{
			marina.RequireOrder(left),
			marina.RequireOrder(right),
		}, true
	case *expr.Filter:
		return []marina.PhysicalProperties{required, marina.AnyProperties()}, true
	case *expr.PhysProject:
		if !orderCovered(required.Order, o) {
			return nil, false
		}
		return []marina.PhysicalProperties{required}, true
	case *expr.HashDistinct:
		return anyOf(1), required.Order.IsAny()
	case *expr.Sort:
		if !o.Order.Satisfies(required.Order) {
			return nil, false
		}
		return anyOf(1), true
	default:
		return nil, false
	}
}

// orderCovered reports whether every ordering column survives the
// projection.
func orderCovered(order marina.DataOrder, proj *expr.PhysProject) bool {
	if order.IsAny() {
		return true
	}
	cols := make(map[string]bool, len(proj.Cols))
	for _, c := range proj.Cols {
		cols[c.QualifiedName()] = true
	}
	for _, oc := range order.Columns {
		if !cols[oc.Column] {
			return false
		}
	}
	return true
}
