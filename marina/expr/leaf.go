package expr

import "fmt"

// Leaf is a pattern-only placeholder carrying a small integer index. During
// binding, Leaf(i) matches an entire input group; it never appears in a
// concrete plan. A Leaf is neither logical nor physical.
type Leaf struct {
	Index int
}

// NewLeaf builds a pattern placeholder.
func NewLeaf(index int) *Leaf {
	return &Leaf{Index: index}
}

func (l *Leaf) Type() OpType     { return OpLeaf }
func (l *Leaf) Name() string     { return "Leaf" }
func (l *Leaf) Arity() int       { return 0 }
func (l *Leaf) IsLogical() bool  { return false }
func (l *Leaf) IsPhysical() bool { return false }
func (l *Leaf) IsLeaf() bool     { return true }
func (l *Leaf) IsItem() bool     { return false }

func (l *Leaf) Equals(other Operator) bool {
	o, ok := other.(*Leaf)
	return ok && o.Index == l.Index
}

func (l *Leaf) Hash() uint64 {
	return newOpHash(OpLeaf).mix(uint64(l.Index)).value()
}

func (l *Leaf) String() string {
	return fmt.Sprintf("Leaf(%d)", l.Index)
}
