package catalog

import (
	"github.com/wbrown/marina-sql/marina"
)

// TableRef is one aliased occurrence of a table in a query. Two references
// to the same table under different aliases are distinct; operator equality
// compares reference identity, not table name.
type TableRef struct {
	Alias string
	Table *Table
}

// NewTableRef binds an alias to a table.
func NewTableRef(alias string, table *Table) *TableRef {
	return &TableRef{Alias: alias, Table: table}
}

// String returns "Sailors S" or just the table name when unaliased.
func (r *TableRef) String() string {
	if r.Alias == "" || r.Alias == r.Table.Name {
		return r.Table.Name
	}
	return r.Table.Name + " " + r.Alias
}

// ColumnRef is a resolved column reference: an aliased table occurrence plus
// one of its columns.
type ColumnRef struct {
	Table  *TableRef
	Column *Column
}

// NewColumnRef builds a resolved column reference.
func NewColumnRef(table *TableRef, column *Column) ColumnRef {
	return ColumnRef{Table: table, Column: column}
}

// QualifiedName returns "S.sid".
func (c ColumnRef) QualifiedName() string {
	return c.Table.Alias + "." + c.Column.Name
}

// Type returns the column's data type.
func (c ColumnRef) Type() marina.DataType {
	return c.Column.Type
}

// SameColumn reports whether two references name the same column of the
// same table occurrence.
func (c ColumnRef) SameColumn(other ColumnRef) bool {
	return c.Table == other.Table && c.Column == other.Column
}
