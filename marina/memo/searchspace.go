package memo

import (
	"fmt"
	"strings"

	"github.com/wbrown/marina-sql/marina"
	"github.com/wbrown/marina-sql/marina/expr"
)

// SearchSpace is the memo: the arena owning every group and
// multi-expression built during one optimization.
type SearchSpace struct {
	groups []*Group
	parent []GroupID // union-find forest over group IDs

	// index buckets multi-expressions by operator hash for interning.
	// Bucket entries are compared by operator equality plus canonical input
	// groups.
	index map[uint64][]*MultiExpression
}

// NewSearchSpace creates an empty memo.
func NewSearchSpace() *SearchSpace {
	return &SearchSpace{
		index: make(map[uint64][]*MultiExpression),
	}
}

// Canonical resolves a group ID through the union-find forest, compressing
// the path it walks.
func (s *SearchSpace) Canonical(id GroupID) GroupID {
	root := id
	for s.parent[root] != root {
		root = s.parent[root]
	}
	for s.parent[id] != root {
		s.parent[id], id = root, s.parent[id]
	}
	return root
}

// Group returns the canonical group for an ID.
func (s *SearchSpace) Group(id GroupID) *Group {
	return s.groups[s.Canonical(id)]
}

// NumGroups counts live (unmerged) groups.
func (s *SearchSpace) NumGroups() int {
	n := 0
	for _, g := range s.groups {
		if !g.merged {
			n++
		}
	}
	return n
}

// NumMembers counts multi-expressions across live groups.
func (s *SearchSpace) NumMembers() int {
	n := 0
	for _, g := range s.groups {
		if !g.merged {
			n += len(g.members)
		}
	}
	return n
}

// Insert interns a concrete expression bottom-up. A subtree equal to an
// existing multi-expression reuses it; otherwise a fresh group is created
// for each new node. Returns the root's multi-expression; inserting the
// same expression twice returns the first result and leaves the memo
// unchanged.
func (s *SearchSpace) Insert(e *expr.Expression) (*MultiExpression, error) {
	m, _, err := s.insertNode(e, InvalidGroup, nil)
	return m, err
}

// InsertSubstitute interns a rule substitute into the group of the rule's
// original multi-expression. Leaf operators in the substitute resolve to
// bound groups. Returns (mexpr, created): created is false when an equal
// multi-expression already existed.
func (s *SearchSpace) InsertSubstitute(e *expr.Expression, target GroupID, leaves map[int]GroupID) (*MultiExpression, bool, error) {
	return s.insertNode(e, target, leaves)
}

func (s *SearchSpace) insertChild(e *expr.Expression, leaves map[int]GroupID) (GroupID, error) {
	if leaf, ok := e.Operator().(*expr.Leaf); ok {
		g, bound := leaves[leaf.Index]
		if !bound {
			return InvalidGroup, marina.Internalf("unbound pattern leaf %d in substitute", leaf.Index)
		}
		return s.Canonical(g), nil
	}
	m, _, err := s.insertNode(e, InvalidGroup, leaves)
	if err != nil {
		return InvalidGroup, err
	}
	return s.Canonical(m.group), nil
}

func (s *SearchSpace) insertNode(e *expr.Expression, target GroupID, leaves map[int]GroupID) (*MultiExpression, bool, error) {
	op := e.Operator()
	if op.IsLeaf() {
		return nil, false, marina.Internalf("pattern leaf at the root of an inserted expression")
	}
	inputs := make([]GroupID, e.Size())
	for i := 0; i < e.Size(); i++ {
		g, err := s.insertChild(e.Input(i), leaves)
		if err != nil {
			return nil, false, err
		}
		inputs[i] = g
	}

	if existing := s.find(op, inputs); existing != nil {
		// Equivalence discovered across groups unifies them.
		if target != InvalidGroup && s.Canonical(existing.group) != s.Canonical(target) {
			if err := s.mergeGroups(existing.group, target); err != nil {
				return nil, false, err
			}
		}
		return existing, false, nil
	}

	m := &MultiExpression{op: op, inputs: inputs}
	if target == InvalidGroup {
		props, err := s.deriveProps(op, inputs)
		if err != nil {
			return nil, false, err
		}
		id := GroupID(len(s.groups))
		g := newGroup(id, props)
		s.groups = append(s.groups, g)
		s.parent = append(s.parent, id)
		m.group = id
		g.members = append(g.members, m)
	} else {
		g := s.Group(target)
		m.group = g.id
		g.members = append(g.members, m)
	}
	s.index[op.Hash()] = append(s.index[op.Hash()], m)
	return m, true, nil
}

// find locates an existing multi-expression with an equal operator and the
// same canonical input groups.
func (s *SearchSpace) find(op expr.Operator, inputs []GroupID) *MultiExpression {
	for _, m := range s.index[op.Hash()] {
		if s.equalMExpr(m, op, inputs) {
			return m
		}
	}
	return nil
}

func (s *SearchSpace) equalMExpr(m *MultiExpression, op expr.Operator, inputs []GroupID) bool {
	if !m.op.Equals(op) || len(m.inputs) != len(inputs) {
		return false
	}
	for i := range inputs {
		if s.Canonical(m.inputs[i]) != s.Canonical(inputs[i]) {
			return false
		}
	}
	return true
}

// deriveProps computes a fresh group's logical properties from the defining
// operator and its input groups.
func (s *SearchSpace) deriveProps(op expr.Operator, inputs []GroupID) (*expr.LogicalProps, error) {
	children := make([]expr.ChildProps, len(inputs))
	for i, id := range inputs {
		g := s.Group(id)
		children[i] = expr.ChildProps{Props: g.props}
		if g.props.Scalar {
			children[i].Repr = s.Repr(id)
		}
	}
	return expr.Derive(op, children)
}

// Repr extracts a representative concrete expression for a group: its
// first member, recursively.
func (s *SearchSpace) Repr(id GroupID) *expr.Expression {
	g := s.Group(id)
	if len(g.members) == 0 {
		return nil
	}
	m := g.members[0]
	inputs := make([]*expr.Expression, m.InputCount())
	for i := range inputs {
		inputs[i] = s.Repr(m.Input(i))
	}
	return expr.New(m.Operator(), inputs...)
}

// mergeGroups unifies two groups found to be logically equivalent,
// retargeting references through the union-find and folding duplicate
// members. Merging may cascade: once inputs unify, previously distinct
// parents can become equal too.
func (s *SearchSpace) mergeGroups(a, b GroupID) error {
	type pair struct{ a, b GroupID }
	work := []pair{{a, b}}
	for len(work) > 0 {
		p := work[0]
		work = work[1:]
		ca, cb := s.Canonical(p.a), s.Canonical(p.b)
		if ca == cb {
			continue
		}
		// Keep the older group so IDs in dumps stay stable.
		if cb < ca {
			ca, cb = cb, ca
		}
		keeper, loser := s.groups[ca], s.groups[cb]
		s.parent[cb] = ca
		loser.merged = true

		// Fold loser members into the keeper, dropping duplicates but
		// preserving their fired-rule bits.
		for _, m := range loser.members {
			if dup := s.findMember(keeper, m); dup != nil {
				dup.firedRules |= m.firedRules
				s.dropFromIndex(m)
				continue
			}
			m.group = ca
			keeper.members = append(keeper.members, m)
		}
		loser.members = nil

		// Merge winner tables, keeping the cheaper entry per requirement.
		for _, key := range loser.winnerOrder {
			lw := loser.winners[key]
			if kw, ok := keeper.winners[key]; ok {
				if lw.HasPlan() && lw.Cost.Less(kw.Cost) {
					kw.MExpr = lw.MExpr
					kw.Cost = lw.Cost
					kw.InputRequired = lw.InputRequired
				}
			} else {
				keeper.winners[key] = lw
				keeper.winnerOrder = append(keeper.winnerOrder, key)
			}
		}
		keeper.explored = keeper.explored && loser.explored
		keeper.optimized = keeper.optimized && loser.optimized

		// Unifying these groups may make members of other groups equal.
		follow, err := s.dedupAfterMerge()
		if err != nil {
			return err
		}
		for _, f := range follow {
			work = append(work, pair{f[0], f[1]})
		}
	}
	return nil
}

// dedupAfterMerge sweeps the index for multi-expressions that became equal
// after a union. Duplicates within one group are folded; duplicates across
// groups report the groups for a follow-up merge.
func (s *SearchSpace) dedupAfterMerge() ([][2]GroupID, error) {
	var follow [][2]GroupID
	for _, bucket := range s.index {
		for i := 0; i < len(bucket); i++ {
			for j := i + 1; j < len(bucket); j++ {
				mi, mj := bucket[i], bucket[j]
				if !s.equalMExpr(mi, mj.op, mj.inputs) {
					continue
				}
				gi, gj := s.Canonical(mi.group), s.Canonical(mj.group)
				if gi == gj {
					mi.firedRules |= mj.firedRules
					s.removeMember(s.groups[gi], mj)
					s.dropFromIndex(mj)
					j--
					bucket = s.index[mi.op.Hash()]
				} else {
					follow = append(follow, [2]GroupID{gi, gj})
				}
			}
		}
	}
	return follow, nil
}

func (s *SearchSpace) findMember(g *Group, candidate *MultiExpression) *MultiExpression {
	for _, m := range g.members {
		if m != candidate && s.equalMExpr(m, candidate.op, candidate.inputs) {
			return m
		}
	}
	return nil
}

func (s *SearchSpace) removeMember(g *Group, m *MultiExpression) {
	for i, member := range g.members {
		if member == m {
			g.members = append(g.members[:i], g.members[i+1:]...)
			return
		}
	}
}

func (s *SearchSpace) dropFromIndex(m *MultiExpression) {
	bucket := s.index[m.op.Hash()]
	for i, entry := range bucket {
		if entry == m {
			s.index[m.op.Hash()] = append(bucket[:i], bucket[i+1:]...)
			return
		}
	}
}

// String renders the deterministic memo dump: groups in insertion order,
// members in insertion order, then winners in first-request order.
func (s *SearchSpace) String() string {
	var b strings.Builder
	for _, g := range s.groups {
		if g.merged {
			continue
		}
		if g.props.Scalar {
			fmt.Fprintf(&b, "group %d (scalar)\n", g.id)
		} else {
			fmt.Fprintf(&b, "group %d (card=%.1f)\n", g.id, g.props.Cardinality)
		}
		for i, m := range g.members {
			fmt.Fprintf(&b, "  %d: %s\n", i, s.memberString(m))
		}
		for _, w := range g.Winners() {
			fmt.Fprintf(&b, "  %s\n", w)
		}
	}
	return b.String()
}

func (s *SearchSpace) memberString(m *MultiExpression) string {
	if m.InputCount() == 0 {
		return m.op.String()
	}
	parts := make([]string, m.InputCount())
	for i := 0; i < m.InputCount(); i++ {
		parts[i] = fmt.Sprintf("%d", s.Canonical(m.Input(i)))
	}
	return fmt.Sprintf("%s [%s]", m.op.String(), strings.Join(parts, " "))
}
