// Package storage persists the system catalog in BadgerDB. A catalog is
// compiled once from its XML source (cmd/build-catalog) and opened
// read-only by tools that plan against it; the optimizer itself keeps no
// on-disk state.
package storage

import (
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/wbrown/marina-sql/marina"
	"github.com/wbrown/marina-sql/marina/catalog"
)

const (
	metaPageSizeKey = "meta:pagesize"
	tableKeyPrefix  = "table:"
)

// storedColumn is the persisted form of a column descriptor.
type storedColumn struct {
	Name          string          `json:"name"`
	Type          marina.DataType `json:"type"`
	Length        int             `json:"length,omitempty"`
	Distinct      int64           `json:"distinct"`
	Min           float64         `json:"min"`
	Max           float64         `json:"max"`
	WidthFraction float64         `json:"widthFraction"`
}

// storedIndex is the persisted form of an index descriptor.
type storedIndex struct {
	Name        string            `json:"name"`
	Kind        catalog.IndexKind `json:"kind"`
	Clustered   bool              `json:"clustered,omitempty"`
	KeyColumns  []string          `json:"keyColumns"`
	Pages       int64             `json:"pages"`
	Cardinality int64             `json:"cardinality"`
}

// storedTable is the persisted form of a table descriptor.
type storedTable struct {
	Name        string         `json:"name"`
	Cardinality int64          `json:"cardinality"`
	Pages       int64          `json:"pages"`
	Columns     []storedColumn `json:"columns"`
	PrimaryKey  []string       `json:"primaryKey,omitempty"`
	Indexes     []storedIndex  `json:"indexes,omitempty"`
}

// Build compiles an in-memory catalog into a Badger database at path.
func Build(path string, cat *catalog.Catalog) error {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Disable BadgerDB logs for now
	db, err := badger.Open(opts)
	if err != nil {
		return fmt.Errorf("failed to open badger: %w", err)
	}
	defer db.Close()

	return db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(metaPageSizeKey), []byte(fmt.Sprintf("%d", cat.PageSize()))); err != nil {
			return err
		}
		for _, t := range cat.Tables() {
			st := storedTable{
				Name:        t.Name,
				Cardinality: t.Stats.Cardinality,
				Pages:       t.Stats.Pages,
				PrimaryKey:  t.PrimaryKey,
			}
			for _, c := range t.Columns {
				st.Columns = append(st.Columns, storedColumn{
					Name:          c.Name,
					Type:          c.Type,
					Length:        c.Length,
					Distinct:      c.Stats.Distinct,
					Min:           c.Stats.Min,
					Max:           c.Stats.Max,
					WidthFraction: c.Stats.WidthFraction,
				})
			}
			for _, ix := range t.Indexes {
				st.Indexes = append(st.Indexes, storedIndex{
					Name:        ix.Name,
					Kind:        ix.Kind,
					Clustered:   ix.Clustered,
					KeyColumns:  ix.KeyColumns,
					Pages:       ix.Stats.Pages,
					Cardinality: ix.Stats.Distinct,
				})
			}
			value, err := json.Marshal(st)
			if err != nil {
				return fmt.Errorf("encode table %q: %w", t.Name, err)
			}
			if err := txn.Set([]byte(tableKeyPrefix+t.Name), value); err != nil {
				return fmt.Errorf("write table %q: %w", t.Name, err)
			}
		}
		return nil
	})
}

// CatalogStore is a read-only catalog backed by a Badger database. It
// loads all descriptors at open time; the catalog Provider interface then
// serves from memory.
type CatalogStore struct {
	db  *badger.DB
	cat *catalog.Catalog
}

// Open opens a catalog database read-only.
func Open(path string) (*CatalogStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	opts.ReadOnly = true
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	cat, err := load(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &CatalogStore{db: db, cat: cat}, nil
}

func load(db *badger.DB) (*catalog.Catalog, error) {
	pageSize := catalog.DefaultPageSize
	var tables []storedTable
	err := db.View(func(txn *badger.Txn) error {
		if item, err := txn.Get([]byte(metaPageSizeKey)); err == nil {
			if err := item.Value(func(v []byte) error {
				_, serr := fmt.Sscanf(string(v), "%d", &pageSize)
				return serr
			}); err != nil {
				return err
			}
		}
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(tableKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(v []byte) error {
				var st storedTable
				if err := json.Unmarshal(v, &st); err != nil {
					return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
				}
				tables = append(tables, st)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	cat := catalog.NewCatalog(pageSize)
	for _, st := range tables {
		if _, err := cat.CreateTable(st.Name, catalog.TableStatistics{
			Cardinality: st.Cardinality,
			Pages:       st.Pages,
		}); err != nil {
			return nil, err
		}
		for _, c := range st.Columns {
			if _, err := cat.AddColumn(st.Name, catalog.Column{
				Name:   c.Name,
				Type:   c.Type,
				Length: c.Length,
				Stats: catalog.ColumnStatistics{
					N:             st.Cardinality,
					Distinct:      c.Distinct,
					Min:           c.Min,
					Max:           c.Max,
					WidthFraction: c.WidthFraction,
				},
			}); err != nil {
				return nil, err
			}
		}
		if len(st.PrimaryKey) > 0 {
			if err := cat.SetPrimaryKey(st.Name, st.PrimaryKey); err != nil {
				return nil, err
			}
		}
		for _, ix := range st.Indexes {
			if _, err := cat.AddIndex(st.Name, catalog.Index{
				Name:       ix.Name,
				Kind:       ix.Kind,
				Clustered:  ix.Clustered,
				KeyColumns: ix.KeyColumns,
				Stats: catalog.IndexStatistics{
					Pages:    ix.Pages,
					Distinct: ix.Cardinality,
				},
			}); err != nil {
				return nil, err
			}
		}
	}
	return cat, nil
}

// LookupTable implements catalog.Provider.
func (s *CatalogStore) LookupTable(name string) (*catalog.Table, error) {
	return s.cat.LookupTable(name)
}

// Tables implements catalog.Provider.
func (s *CatalogStore) Tables() []*catalog.Table {
	return s.cat.Tables()
}

// PageSize implements catalog.Provider.
func (s *CatalogStore) PageSize() int {
	return s.cat.PageSize()
}

// Close releases the underlying database.
func (s *CatalogStore) Close() error {
	return s.db.Close()
}
