package marina

import (
	"fmt"
	"strings"
)

// OrderColumn is one element of a sort order: a qualified column name
// (alias.column) and a direction.
type OrderColumn struct {
	Column     string // qualified name, e.g. "S.sid"
	Descending bool
}

// String returns "S.sid" or "S.sid desc".
func (o OrderColumn) String() string {
	if o.Descending {
		return o.Column + " desc"
	}
	return o.Column
}

// DataOrder describes the tuple ordering of a stream. The zero value is
// "any order" (no requirement, nothing guaranteed).
type DataOrder struct {
	Columns []OrderColumn
}

// AnyOrder returns the order with no requirement.
func AnyOrder() DataOrder {
	return DataOrder{}
}

// OrderedBy builds an ascending order over the given qualified columns.
func OrderedBy(columns ...string) DataOrder {
	ord := DataOrder{Columns: make([]OrderColumn, len(columns))}
	for i, c := range columns {
		ord.Columns[i] = OrderColumn{Column: c}
	}
	return ord
}

// IsAny reports whether the order carries no requirement.
func (d DataOrder) IsAny() bool {
	return len(d.Columns) == 0
}

// Satisfies reports whether a delivered order meets a required one: the
// requirement is ANY, or it is a prefix of the delivered order.
func (d DataOrder) Satisfies(required DataOrder) bool {
	if required.IsAny() {
		return true
	}
	if len(required.Columns) > len(d.Columns) {
		return false
	}
	for i, col := range required.Columns {
		if d.Columns[i] != col {
			return false
		}
	}
	return true
}

// Equals reports column-for-column equality.
func (d DataOrder) Equals(other DataOrder) bool {
	if len(d.Columns) != len(other.Columns) {
		return false
	}
	for i, col := range d.Columns {
		if other.Columns[i] != col {
			return false
		}
	}
	return true
}

// String returns "any" or "ord(S.sid, S.age desc)".
func (d DataOrder) String() string {
	if d.IsAny() {
		return "any"
	}
	parts := make([]string, len(d.Columns))
	for i, col := range d.Columns {
		parts[i] = col.String()
	}
	return fmt.Sprintf("ord(%s)", strings.Join(parts, ", "))
}

// PhysicalProperties are the properties a plan must deliver: a tuple order
// and, reserved for future distributed planning, a partitioning scheme.
type PhysicalProperties struct {
	Order        DataOrder
	Partitioning string // empty: none required
}

// AnyProperties returns the unconstrained property set.
func AnyProperties() PhysicalProperties {
	return PhysicalProperties{}
}

// RequireOrder builds a property set requiring the given order.
func RequireOrder(order DataOrder) PhysicalProperties {
	return PhysicalProperties{Order: order}
}

// IsAny reports whether nothing is required.
func (p PhysicalProperties) IsAny() bool {
	return p.Order.IsAny() && p.Partitioning == ""
}

// Satisfies reports whether delivered properties meet required ones.
func (p PhysicalProperties) Satisfies(required PhysicalProperties) bool {
	if !p.Order.Satisfies(required.Order) {
		return false
	}
	return required.Partitioning == "" || p.Partitioning == required.Partitioning
}

// Equals reports exact property equality.
func (p PhysicalProperties) Equals(other PhysicalProperties) bool {
	return p.Order.Equals(other.Order) && p.Partitioning == other.Partitioning
}

// Key returns a canonical string usable as a map key for winner lookup.
func (p PhysicalProperties) Key() string {
	if p.Partitioning == "" {
		return p.Order.String()
	}
	return p.Order.String() + "/part:" + p.Partitioning
}

// String returns the human-readable form.
func (p PhysicalProperties) String() string {
	return p.Key()
}
