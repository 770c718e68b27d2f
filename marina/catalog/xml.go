package catalog

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/wbrown/marina-sql/marina"
)

// Catalog XML format:
//
//	<systemCatalog pageSize="4096">
//	  <table name="Sailors" cardinality="750" pages="50">
//	    <column name="sid" type="integer" width="4" distinct="750"
//	            min="0" max="999"/>
//	    <column name="sname" type="character varying(25)" width="25"
//	            distinct="700"/>
//	    <primaryKey><keyColumn>sid</keyColumn></primaryKey>
//	    <foreignKey table="Reserves" column="sid" refColumn="sid"/>
//	    <index name="sailors_sid" type="btree" clustered="true" pages="8"
//	           cardinality="750">
//	      <keyColumn>sid</keyColumn>
//	    </index>
//	  </table>
//	</systemCatalog>
//
// Widths are byte counts in the file and are normalized to a fraction of
// pageSize on load.

type xmlCatalog struct {
	XMLName  xml.Name   `xml:"systemCatalog"`
	PageSize int        `xml:"pageSize,attr"`
	Tables   []xmlTable `xml:"table"`
}

type xmlTable struct {
	Name        string          `xml:"name,attr"`
	Cardinality int64           `xml:"cardinality,attr"`
	Pages       int64           `xml:"pages,attr"`
	Columns     []xmlColumn     `xml:"column"`
	PrimaryKey  *xmlKey         `xml:"primaryKey"`
	ForeignKeys []xmlForeignKey `xml:"foreignKey"`
	Indexes     []xmlIndex      `xml:"index"`
}

type xmlColumn struct {
	Name     string  `xml:"name,attr"`
	Type     string  `xml:"type,attr"`
	Width    int     `xml:"width,attr"`
	Distinct int64   `xml:"distinct,attr"`
	Min      float64 `xml:"min,attr"`
	Max      float64 `xml:"max,attr"`
}

type xmlKey struct {
	KeyColumns []string `xml:"keyColumn"`
}

type xmlForeignKey struct {
	Table     string `xml:"table,attr"`
	Column    string `xml:"column,attr"`
	RefColumn string `xml:"refColumn,attr"`
}

type xmlIndex struct {
	Name        string   `xml:"name,attr"`
	Type        string   `xml:"type,attr"`
	Clustered   bool     `xml:"clustered,attr"`
	Pages       int64    `xml:"pages,attr"`
	Cardinality int64    `xml:"cardinality,attr"`
	KeyColumns  []string `xml:"keyColumn"`
}

var varCharPattern = regexp.MustCompile(`^character varying\((\d+)\)$`)
var charPattern = regexp.MustCompile(`^char(?:acter)?\((\d+)\)$`)

// ParseColumnType maps a catalog XML type string to a DataType and declared
// length.
func ParseColumnType(s string) (marina.DataType, int, error) {
	switch strings.TrimSpace(s) {
	case "tinyint":
		return marina.TypeTinyInt, 0, nil
	case "smallint":
		return marina.TypeSmallInt, 0, nil
	case "integer", "int":
		return marina.TypeInt, 0, nil
	case "bigint":
		return marina.TypeBigInt, 0, nil
	case "float", "real":
		return marina.TypeFloat, 0, nil
	case "numeric", "double":
		return marina.TypeDouble, 0, nil
	case "date":
		return marina.TypeDate, 0, nil
	case "timestamp":
		return marina.TypeTimestamp, 0, nil
	}
	if m := varCharPattern.FindStringSubmatch(s); m != nil {
		var n int
		fmt.Sscanf(m[1], "%d", &n)
		return marina.TypeVarChar, n, nil
	}
	if m := charPattern.FindStringSubmatch(s); m != nil {
		var n int
		fmt.Sscanf(m[1], "%d", &n)
		return marina.TypeChar, n, nil
	}
	return marina.TypeUnknown, 0, fmt.Errorf("unknown column type %q", s)
}

// LoadXML reads a catalog from XML.
func LoadXML(r io.Reader) (*Catalog, error) {
	var doc xmlCatalog
	dec := xml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("catalog xml: %w", err)
	}
	pageSize := doc.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	cat := NewCatalog(pageSize)
	for _, xt := range doc.Tables {
		if _, err := cat.CreateTable(xt.Name, TableStatistics{
			Cardinality: xt.Cardinality,
			Pages:       xt.Pages,
		}); err != nil {
			return nil, err
		}
		for _, xc := range xt.Columns {
			typ, length, err := ParseColumnType(xc.Type)
			if err != nil {
				return nil, fmt.Errorf("table %q column %q: %w", xt.Name, xc.Name, err)
			}
			distinct := xc.Distinct
			if distinct <= 0 {
				distinct = xt.Cardinality
			}
			if _, err := cat.AddColumn(xt.Name, Column{
				Name:   xc.Name,
				Type:   typ,
				Length: length,
				Stats: ColumnStatistics{
					N:             xt.Cardinality,
					Distinct:      distinct,
					Min:           xc.Min,
					Max:           xc.Max,
					WidthFraction: float64(xc.Width) / float64(pageSize),
				},
			}); err != nil {
				return nil, err
			}
		}
		if xt.PrimaryKey != nil {
			if err := cat.SetPrimaryKey(xt.Name, xt.PrimaryKey.KeyColumns); err != nil {
				return nil, err
			}
		}
		for _, xi := range xt.Indexes {
			kind, err := ParseIndexKind(xi.Type)
			if err != nil {
				return nil, fmt.Errorf("table %q index %q: %w", xt.Name, xi.Name, err)
			}
			if _, err := cat.AddIndex(xt.Name, Index{
				Name:       xi.Name,
				Kind:       kind,
				Clustered:  xi.Clustered,
				KeyColumns: xi.KeyColumns,
				Stats: IndexStatistics{
					Pages:    xi.Pages,
					Distinct: xi.Cardinality,
				},
			}); err != nil {
				return nil, err
			}
		}
	}
	return cat, nil
}

// LoadXMLFile reads a catalog from an XML file on disk.
func LoadXMLFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadXML(f)
}
