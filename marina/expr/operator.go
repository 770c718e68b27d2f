// Package expr defines the operator and expression model the optimizer
// searches over: logical operators parsed from queries, physical operators
// produced by implementation rules, leaf placeholders used in rule patterns,
// and item operators for scalar sub-expressions. Expressions are immutable
// n-ary trees of operators.
package expr

import (
	"encoding/binary"
	"math"

	"github.com/wbrown/marina-sql/marina"
)

// OpType tags an operator variant.
type OpType uint8

const (
	OpLeaf OpType = iota

	// Logical operators.
	OpGetTable
	OpEquiJoin
	OpSelect
	OpProject
	OpDistinct

	// Physical operators.
	OpFileScan
	OpIndexScan
	OpNestedLoopsJoin
	OpHashJoin
	OpSortMergeJoin
	OpFilter
	OpPhysProject
	OpHashDistinct
	OpSort

	// Item (scalar) operators.
	OpAttrRef
	OpConstInt
	OpConstString
	OpCompare
	OpAnd
	OpOr
)

// Operator is the discriminated operator value. Concrete operators carry
// their own parameters; the interface is the small universal API the memo
// and rule engine need.
type Operator interface {
	// Type returns the variant tag.
	Type() OpType
	// Name returns the display name used in plan and memo dumps.
	Name() string
	// Arity returns the number of inputs the operator takes.
	Arity() int
	// IsLogical reports whether the operator belongs to a logical plan.
	IsLogical() bool
	// IsPhysical reports whether the operator belongs to a physical plan.
	IsPhysical() bool
	// IsLeaf reports whether the operator is a pattern placeholder.
	IsLeaf() bool
	// IsItem reports whether the operator is a scalar item.
	IsItem() bool
	// Equals compares type and operator-specific parameters.
	Equals(other Operator) bool
	// Hash returns a stable hash over type and parameters.
	Hash() uint64
	// String returns the display form including parameters.
	String() string
}

// Enforcer is implemented by physical operators inserted solely to satisfy
// a required physical property.
type Enforcer interface {
	Operator
	// Enforced returns the properties the operator guarantees on output.
	Enforced() marina.PhysicalProperties
}

// opHash is a running FNV-1a accumulator for operator hashing.
type opHash uint64

const (
	fnvOffset = 14695981039346656037
	fnvPrime  = 1099511628211
)

func newOpHash(t OpType) opHash {
	return opHash(fnvOffset).mixByte(byte(t))
}

func (h opHash) mixByte(b byte) opHash {
	return (h ^ opHash(b)) * fnvPrime
}

func (h opHash) mix(v uint64) opHash {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	for _, b := range buf {
		h = h.mixByte(b)
	}
	return h
}

func (h opHash) mixString(s string) opHash {
	for i := 0; i < len(s); i++ {
		h = h.mixByte(s[i])
	}
	return h
}

func (h opHash) mixFloat(f float64) opHash {
	return h.mix(math.Float64bits(f))
}

func (h opHash) value() uint64 {
	return uint64(h)
}

// Shared class bases. Each concrete operator embeds exactly one.

type logicalBase struct{}

func (logicalBase) IsLogical() bool  { return true }
func (logicalBase) IsPhysical() bool { return false }
func (logicalBase) IsLeaf() bool     { return false }
func (logicalBase) IsItem() bool     { return false }

type physicalBase struct{}

func (physicalBase) IsLogical() bool  { return false }
func (physicalBase) IsPhysical() bool { return true }
func (physicalBase) IsLeaf() bool     { return false }
func (physicalBase) IsItem() bool     { return false }

type itemBase struct{}

func (itemBase) IsLogical() bool  { return false }
func (itemBase) IsPhysical() bool { return false }
func (itemBase) IsLeaf() bool     { return false }
func (itemBase) IsItem() bool     { return true }
