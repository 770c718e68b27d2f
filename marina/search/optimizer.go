package search

import (
	"github.com/wbrown/marina-sql/marina"
	"github.com/wbrown/marina-sql/marina/cost"
	"github.com/wbrown/marina-sql/marina/expr"
	"github.com/wbrown/marina-sql/marina/memo"
	"github.com/wbrown/marina-sql/marina/rules"
	"github.com/wbrown/marina-sql/marina/trace"
)

// Options configure one optimizer instance.
type Options struct {
	// MaxTasks bounds the search as a runaway backstop. Zero selects the
	// default.
	MaxTasks int
	// Handler receives search events; nil disables tracing.
	Handler trace.Handler
}

// DefaultMaxTasks is far above what the shipped rule set needs on
// realistic queries.
const DefaultMaxTasks = 1_000_000

// Optimizer is the top-down search driver. It owns the task stack and the
// search space of the optimization in flight; rules and the cost model are
// shared read-only.
type Optimizer struct {
	rules   *rules.Set
	model   cost.Model
	options Options

	space     *memo.SearchSpace
	rootGroup memo.GroupID
	stack     []task
	popped    int
	handler   trace.Handler
}

// NewOptimizer builds an optimizer over a rule set and cost model. A nil
// model selects the default page-IO model.
func NewOptimizer(ruleSet *rules.Set, model cost.Model, options Options) *Optimizer {
	if ruleSet == nil {
		ruleSet = rules.NewSet()
	}
	if model == nil {
		model = cost.NewPageIOModel()
	}
	if options.MaxTasks <= 0 {
		options.MaxTasks = DefaultMaxTasks
	}
	return &Optimizer{
		rules:   ruleSet,
		model:   model,
		options: options,
		handler: options.Handler,
	}
}

// Rules returns the optimizer's rule set.
func (o *Optimizer) Rules() *rules.Set {
	return o.rules
}

// SearchSpace returns the memo of the last optimization, for dumps and
// tests.
func (o *Optimizer) SearchSpace() *memo.SearchSpace {
	return o.space
}

// RootGroup returns the root group of the last optimization.
func (o *Optimizer) RootGroup() memo.GroupID {
	return o.space.Canonical(o.rootGroup)
}

func (o *Optimizer) push(t task) {
	o.stack = append(o.stack, t)
}

// Optimize finds the cheapest physical plan for a logical query expression
// delivering the required physical properties.
func (o *Optimizer) Optimize(query *expr.Expression, required marina.PhysicalProperties) (*Plan, error) {
	o.space = memo.NewSearchSpace()
	o.stack = o.stack[:0]
	o.popped = 0

	root, err := o.space.Insert(query)
	if err != nil {
		return nil, err
	}
	o.rootGroup = root.Group()
	trace.Emit(o.handler, trace.OptimizeBegin, map[string]interface{}{
		"query": query.String(), "required": required,
	})

	ctx := NewContext(required, marina.Infinity())
	o.push(&optimizeGroup{group: root.Group(), ctx: ctx, last: true})
	if err := o.run(); err != nil {
		return nil, err
	}

	plan, err := o.extract(root.Group(), required)
	if err != nil {
		return nil, err
	}
	trace.Emit(o.handler, trace.OptimizeComplete, map[string]interface{}{
		"groups":  o.space.NumGroups(),
		"members": o.space.NumMembers(),
		"tasks":   o.popped,
		"cost":    plan.Cost,
	})
	return plan, nil
}

// Explain optimizes and returns the plan annotated per node with derived
// properties and costs; Plan carries the annotations, Render formats them.
func (o *Optimizer) Explain(query *expr.Expression, required marina.PhysicalProperties) (*Plan, error) {
	return o.Optimize(query, required)
}

// run drains the task stack.
func (o *Optimizer) run() error {
	for len(o.stack) > 0 {
		t := o.stack[len(o.stack)-1]
		o.stack = o.stack[:len(o.stack)-1]
		o.popped++
		if o.popped > o.options.MaxTasks {
			return marina.Internalf("task budget exhausted after %d tasks", o.options.MaxTasks)
		}
		if err := t.perform(o); err != nil {
			return err
		}
	}
	return nil
}

// extract rebuilds the winning physical plan tree by following winners
// from the root group downward.
func (o *Optimizer) extract(group memo.GroupID, required marina.PhysicalProperties) (*Plan, error) {
	node, err := o.extractNode(group, required)
	if err != nil {
		return nil, err
	}
	return &Plan{Root: node, Cost: node.TotalCost}, nil
}

func (o *Optimizer) extractNode(group memo.GroupID, required marina.PhysicalProperties) (*PlanNode, error) {
	g := o.space.Group(group)
	w, ok := g.FindWinner(required)
	if !ok || !w.HasPlan() {
		return nil, marina.Queryf("no physical plan for %s under %s: the rule set cannot implement it",
			o.describeGroup(g), required)
	}
	m := w.MExpr
	node := &PlanNode{
		Op:        m.Operator(),
		Props:     g.Props(),
		Required:  required,
		TotalCost: w.Cost,
	}
	childProps := make([]*expr.LogicalProps, m.InputCount())
	for i := 0; i < m.InputCount(); i++ {
		childProps[i] = o.space.Group(m.Input(i)).Props()
	}
	node.LocalCost = o.model.LocalCost(m.Operator(), childProps)
	for i := 0; i < m.InputCount(); i++ {
		child, err := o.extractNode(m.Input(i), w.InputRequired[i])
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, child)
	}
	return node, nil
}

// describeGroup names a group by its first logical member for error
// messages.
func (o *Optimizer) describeGroup(g *memo.Group) string {
	for _, m := range g.Members() {
		if !m.Operator().IsPhysical() {
			return m.Operator().String()
		}
	}
	return "empty group"
}
