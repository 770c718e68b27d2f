package search

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/wbrown/marina-sql/marina"
	"github.com/wbrown/marina-sql/marina/expr"
)

// Plan is the optimizer's output: a tree of physical operators annotated
// with the properties and costs the search derived.
type Plan struct {
	Root *PlanNode
	Cost marina.Cost
}

// PlanNode is one operator of the chosen plan.
type PlanNode struct {
	Op       expr.Operator
	Children []*PlanNode
	// Props are the logical properties of the node's group.
	Props *expr.LogicalProps
	// Required are the physical properties this node was optimized under.
	Required marina.PhysicalProperties
	// LocalCost is the operator's own cost; TotalCost includes inputs.
	LocalCost marina.Cost
	TotalCost marina.Cost
}

// Expression converts the plan back to a plain expression tree.
func (p *Plan) Expression() *expr.Expression {
	return p.Root.expression()
}

func (n *PlanNode) expression() *expr.Expression {
	inputs := make([]*expr.Expression, len(n.Children))
	for i, c := range n.Children {
		inputs[i] = c.expression()
	}
	return expr.New(n.Op, inputs...)
}

// String renders the plan as an indented operator tree.
func (p *Plan) String() string {
	var b strings.Builder
	p.Root.format(&b, 0)
	return b.String()
}

func (n *PlanNode) format(b *strings.Builder, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(n.Op.String())
	b.WriteByte('\n')
	for _, c := range n.Children {
		c.format(b, depth+1)
	}
}

// Render formats the annotated plan as a tree followed by a per-node cost
// table.
func (p *Plan) Render() string {
	var b strings.Builder
	b.WriteString(p.String())
	b.WriteByte('\n')

	tableString := &strings.Builder{}
	headers := []string{"operator", "est. rows", "required", "local cost", "total cost"}
	alignment := make([]tw.Align, len(headers))
	for i := range alignment {
		alignment[i] = tw.AlignNone
	}
	table := tablewriter.NewTable(tableString,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithAlignment(alignment),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header(headers)
	p.Root.appendRows(table, 0)
	table.Render()
	b.WriteString(tableString.String())
	return b.String()
}

func (n *PlanNode) appendRows(table *tablewriter.Table, depth int) {
	rows := ""
	if n.Props != nil && !n.Props.Scalar {
		rows = fmt.Sprintf("%.1f", n.Props.Cardinality)
	}
	table.Append([]string{
		strings.Repeat("  ", depth) + n.Op.String(),
		rows,
		n.Required.String(),
		n.LocalCost.String(),
		n.TotalCost.String(),
	})
	for _, c := range n.Children {
		c.appendRows(table, depth+1)
	}
}
