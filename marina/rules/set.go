package rules

import (
	"fmt"
)

// BoundRule is a rule registered in a Set, carrying its assigned bit
// identity and enable flag.
type BoundRule struct {
	Rule
	bit     uint
	enabled bool
}

// Bit returns the rule's bit in multi-expression fired-rule bitsets.
func (b *BoundRule) Bit() uint {
	return b.bit
}

// Enabled reports whether the rule participates in the search.
func (b *BoundRule) Enabled() bool {
	return b.enabled
}

// Set is the rule catalogue for one optimizer instance. Bit identities are
// assigned at construction, so two optimizers in one process never share
// fired-rule state.
type Set struct {
	rules  []*BoundRule
	byName map[string]*BoundRule
}

// maxRules bounds the catalogue: fired-rule bookkeeping is a uint64
// bitset.
const maxRules = 64

// NewSet builds the default rule catalogue: the transformation rules, the
// implementation rules, and the sort enforcer.
func NewSet() *Set {
	s := &Set{byName: make(map[string]*BoundRule)}
	for _, r := range []Rule{
		NewEquiJoinCommute(),
		NewEquiJoinLeftAssoc(),
		NewSelectPushThruJoin(),
		NewProjectPushThruJoin(),
		NewGetTableToFileScan(),
		NewGetTableToIndexScan(),
		NewEquiJoinToNestedLoops(),
		NewEquiJoinToHashJoin(),
		NewEquiJoinToSortMergeJoin(),
		NewSelectToFilter(),
		NewProjectToPhysProject(),
		NewDistinctToHashDistinct(),
		NewSortEnforcer(),
	} {
		s.MustRegister(r)
	}
	return s
}

// NewEmptySet builds a Set with no rules, for tests that register their
// own.
func NewEmptySet() *Set {
	return &Set{byName: make(map[string]*BoundRule)}
}

// Register adds a rule and assigns it the next bit.
func (s *Set) Register(r Rule) (*BoundRule, error) {
	if len(s.rules) >= maxRules {
		return nil, fmt.Errorf("rule set full: %d rules max", maxRules)
	}
	if _, dup := s.byName[r.Name()]; dup {
		return nil, fmt.Errorf("rule %q already registered", r.Name())
	}
	b := &BoundRule{Rule: r, bit: uint(len(s.rules)), enabled: true}
	s.rules = append(s.rules, b)
	s.byName[r.Name()] = b
	return b, nil
}

// MustRegister adds a rule, panicking on a construction-time mistake.
func (s *Set) MustRegister(r Rule) *BoundRule {
	b, err := s.Register(r)
	if err != nil {
		panic(err)
	}
	return b
}

// Rules returns all registered rules in bit order.
func (s *Set) Rules() []*BoundRule {
	return s.rules
}

// Lookup finds a rule by name.
func (s *Set) Lookup(name string) (*BoundRule, bool) {
	b, ok := s.byName[name]
	return b, ok
}

// SetEnabled toggles a rule by name.
func (s *Set) SetEnabled(name string, enabled bool) error {
	b, ok := s.byName[name]
	if !ok {
		return fmt.Errorf("no rule %q", name)
	}
	b.enabled = enabled
	return nil
}
