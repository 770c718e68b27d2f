// Package catalog holds the read-only system catalog the optimizer plans
// against: table, column, and index descriptors with their statistics.
//
// A catalog is built once, either programmatically, from a catalog XML file
// (xml.go), or from a persistent catalog store, and is never mutated during
// optimization. Widths are normalized to a fraction of the page size so the
// cost model works in page units.
package catalog

import (
	"fmt"
	"sort"

	"github.com/wbrown/marina-sql/marina"
)

// DefaultPageSize is used when a catalog is built without an explicit page
// size.
const DefaultPageSize = 4096

// TableStatistics describes a stored table.
type TableStatistics struct {
	Cardinality   int64   // number of tuples
	Pages         int64   // number of heap pages
	WidthFraction float64 // tuple width as a fraction of the page size
}

// ColumnStatistics describes a column's value distribution.
type ColumnStatistics struct {
	N             int64   // number of values (table cardinality)
	Distinct      int64   // number of distinct values
	Min           float64 // minimum value, for numeric columns
	Max           float64 // maximum value, for numeric columns
	WidthFraction float64 // column width as a fraction of the page size
}

// IndexStatistics describes an index.
type IndexStatistics struct {
	Pages    int64
	Distinct int64
}

// IndexKind is the access method of an index.
type IndexKind uint8

const (
	BTreeIndex IndexKind = iota
	StaticHashIndex
	BitmapIndex
)

// String returns the XML spelling of the index kind.
func (k IndexKind) String() string {
	switch k {
	case BTreeIndex:
		return "btree"
	case StaticHashIndex:
		return "shash"
	case BitmapIndex:
		return "bitmap"
	default:
		return "unknown"
	}
}

// ParseIndexKind parses the XML spelling of an index kind.
func ParseIndexKind(s string) (IndexKind, error) {
	switch s {
	case "btree":
		return BTreeIndex, nil
	case "shash":
		return StaticHashIndex, nil
	case "bitmap":
		return BitmapIndex, nil
	default:
		return 0, fmt.Errorf("unknown index type %q", s)
	}
}

// Column is a column descriptor.
type Column struct {
	Name    string
	Type    marina.DataType
	Length  int // declared length for CHAR/VARCHAR, 0 otherwise
	Ordinal int // position within the table
	Stats   ColumnStatistics
}

// Index is an index descriptor.
type Index struct {
	Name       string
	Kind       IndexKind
	Clustered  bool
	KeyColumns []string // ordered key column names
	Stats      IndexStatistics
}

// Covers reports whether the index key starts with the given column.
func (ix *Index) Covers(column string) bool {
	return len(ix.KeyColumns) > 0 && ix.KeyColumns[0] == column
}

// Table is a table descriptor.
type Table struct {
	Name       string
	Columns    []*Column
	PrimaryKey []string
	Indexes    []*Index
	Stats      TableStatistics

	byName map[string]*Column
}

// Column looks up a column by name.
func (t *Table) Column(name string) (*Column, bool) {
	c, ok := t.byName[name]
	return c, ok
}

// Index looks up an index by name.
func (t *Table) Index(name string) (*Index, bool) {
	for _, ix := range t.Indexes {
		if ix.Name == name {
			return ix, true
		}
	}
	return nil, false
}

// Provider is the read-only catalog view the optimizer consumes. Both the
// in-memory Catalog and the persistent catalog store implement it.
type Provider interface {
	// LookupTable finds a table by name.
	LookupTable(name string) (*Table, error)
	// Tables lists all tables in name order.
	Tables() []*Table
	// PageSize returns the page size widths are normalized against.
	PageSize() int
}

// Catalog is the in-memory system catalog.
type Catalog struct {
	pageSize int
	tables   map[string]*Table
	order    []string // insertion order, for deterministic listing
}

// NewCatalog creates an empty catalog with the given page size. A page size
// of zero selects DefaultPageSize.
func NewCatalog(pageSize int) *Catalog {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Catalog{
		pageSize: pageSize,
		tables:   make(map[string]*Table),
	}
}

// PageSize implements Provider.
func (c *Catalog) PageSize() int {
	return c.pageSize
}

// CreateTable registers a new table. Creating a table that already exists is
// a construction-time conflict, never an optimization-time one.
func (c *Catalog) CreateTable(name string, stats TableStatistics) (*Table, error) {
	if _, exists := c.tables[name]; exists {
		return nil, fmt.Errorf("catalog conflict: table %q already exists", name)
	}
	t := &Table{
		Name:   name,
		Stats:  stats,
		byName: make(map[string]*Column),
	}
	c.tables[name] = t
	c.order = append(c.order, name)
	return t, nil
}

// AddColumn appends a column to a table.
func (c *Catalog) AddColumn(table string, col Column) (*Column, error) {
	t, err := c.LookupTable(table)
	if err != nil {
		return nil, err
	}
	if _, exists := t.byName[col.Name]; exists {
		return nil, fmt.Errorf("catalog conflict: column %q already exists in table %q", col.Name, table)
	}
	col.Ordinal = len(t.Columns)
	added := col
	t.Columns = append(t.Columns, &added)
	t.byName[added.Name] = &added
	// Table width is the sum of its column widths.
	t.Stats.WidthFraction += added.Stats.WidthFraction
	return &added, nil
}

// AddIndex registers an index on a table. Key columns must exist.
func (c *Catalog) AddIndex(table string, ix Index) (*Index, error) {
	t, err := c.LookupTable(table)
	if err != nil {
		return nil, err
	}
	if _, exists := t.Index(ix.Name); exists {
		return nil, fmt.Errorf("catalog conflict: index %q already exists on table %q", ix.Name, table)
	}
	for _, key := range ix.KeyColumns {
		if _, ok := t.Column(key); !ok {
			return nil, fmt.Errorf("index %q: no column %q in table %q", ix.Name, key, table)
		}
	}
	added := ix
	t.Indexes = append(t.Indexes, &added)
	return &added, nil
}

// SetPrimaryKey records the table's primary key columns.
func (c *Catalog) SetPrimaryKey(table string, columns []string) error {
	t, err := c.LookupTable(table)
	if err != nil {
		return err
	}
	for _, key := range columns {
		if _, ok := t.Column(key); !ok {
			return fmt.Errorf("primary key: no column %q in table %q", key, table)
		}
	}
	t.PrimaryKey = columns
	return nil
}

// LookupTable implements Provider.
func (c *Catalog) LookupTable(name string) (*Table, error) {
	t, ok := c.tables[name]
	if !ok {
		return nil, marina.Queryf("no table %q in catalog", name)
	}
	return t, nil
}

// Tables implements Provider.
func (c *Catalog) Tables() []*Table {
	names := make([]string, len(c.order))
	copy(names, c.order)
	sort.Strings(names)
	out := make([]*Table, 0, len(names))
	for _, n := range names {
		out = append(out, c.tables[n])
	}
	return out
}
