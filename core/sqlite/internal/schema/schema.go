package schema

import (
	"fmt"
	"strings"

	dberrors "github.com/FocuswithJustin/litereader/core/errors"
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/btree"
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/record"
)

// ObjectType is the type column of a sqlite_schema row.
type ObjectType string

const (
	TypeTable   ObjectType = "table"
	TypeIndex   ObjectType = "index"
	TypeView    ObjectType = "view"
	TypeTrigger ObjectType = "trigger"
)

// SchemaPage is the root page of sqlite_schema.
const SchemaPage = 1

// Object is one row of sqlite_schema.
type Object struct {
	Type     ObjectType `json:"type"`
	Name     string     `json:"name"`
	TblName  string     `json:"tbl_name"`
	RootPage uint32     `json:"rootpage"`
	SQL      string     `json:"sql,omitempty"`
	RowID    int64      `json:"-"`
}

// Internal reports whether the object is one SQLite maintains itself, such
// as sqlite_sequence or an automatic index.
func (o Object) Internal() bool {
	return strings.HasPrefix(strings.ToLower(o.Name), "sqlite_")
}

// Schema holds the rows of sqlite_schema in on-disk order.
type Schema struct {
	Objects []Object
}

// Load decodes sqlite_schema from page 1. Only a single leaf page is read;
// a schema that has grown into a multi-page b-tree is reported as
// unsupported.
func Load(page *btree.Page) (*Schema, error) {
	if page.Number != SchemaPage {
		return nil, fmt.Errorf("sqlite_schema lives on page %d, not page %d", SchemaPage, page.Number)
	}
	if page.IsBtree() && !page.IsLeaf() {
		return nil, dberrors.NewUnsupported("schema layout", "sqlite_schema spans more than one page")
	}

	cells, err := page.Cells()
	if err != nil {
		return nil, fmt.Errorf("failed to read sqlite_schema: %w", err)
	}

	s := &Schema{Objects: make([]Object, 0, len(cells))}
	for _, c := range cells {
		obj, err := ParseObject(c.Record)
		if err != nil {
			return nil, fmt.Errorf("sqlite_schema row %d: %w", c.RowID, err)
		}
		obj.RowID = c.RowID
		s.Objects = append(s.Objects, obj)
	}
	return s, nil
}

// ParseObject converts a decoded sqlite_schema record into an Object.
func ParseObject(rec *record.Record) (Object, error) {
	if rec.Len() != 5 {
		return Object{}, fmt.Errorf("%w: sqlite_schema row has %d columns, want 5", dberrors.ErrMalformedRecord, rec.Len())
	}

	var obj Object
	var err error
	var typ string
	if typ, err = textColumn(rec, 0, "type", false); err != nil {
		return Object{}, err
	}
	obj.Type = ObjectType(typ)
	if obj.Name, err = textColumn(rec, 1, "name", false); err != nil {
		return Object{}, err
	}
	if obj.TblName, err = textColumn(rec, 2, "tbl_name", false); err != nil {
		return Object{}, err
	}
	if obj.SQL, err = textColumn(rec, 4, "sql", true); err != nil {
		return Object{}, err
	}

	switch root := rec.Column(3); root.Kind {
	case record.KindNull:
	case record.KindInteger:
		if root.Int < 0 || root.Int > int64(^uint32(0)) {
			return Object{}, fmt.Errorf("%w: rootpage %d", dberrors.ErrMalformedRecord, root.Int)
		}
		obj.RootPage = uint32(root.Int)
	default:
		return Object{}, fmt.Errorf("%w: rootpage is %s", dberrors.ErrMalformedRecord, root.Kind)
	}

	return obj, nil
}

func textColumn(rec *record.Record, i int, name string, nullable bool) (string, error) {
	v := rec.Column(i)
	switch {
	case v.Kind == record.KindText:
		return v.Text, nil
	case v.Kind == record.KindNull && nullable:
		return "", nil
	default:
		return "", fmt.Errorf("%w: %s is %s", dberrors.ErrMalformedRecord, name, v.Kind)
	}
}

// Tables returns the user tables, skipping sqlite_ internal tables.
func (s *Schema) Tables() []Object {
	return s.filter(func(o Object) bool {
		return o.Type == TypeTable && !o.Internal()
	})
}

// ByType returns every object of type t, internal ones included.
func (s *Schema) ByType(t ObjectType) []Object {
	return s.filter(func(o Object) bool { return o.Type == t })
}

// Indexes returns the indexes defined on table.
func (s *Schema) Indexes(table string) []Object {
	return s.filter(func(o Object) bool {
		return o.Type == TypeIndex && strings.EqualFold(o.TblName, table)
	})
}

// Table looks up a table by name. Names compare case-insensitively, as in SQL.
func (s *Schema) Table(name string) (Object, error) {
	for _, o := range s.Objects {
		if o.Type == TypeTable && strings.EqualFold(o.Name, name) {
			return o, nil
		}
	}
	return Object{}, dberrors.NewNotFound("table", name)
}

func (s *Schema) filter(keep func(Object) bool) []Object {
	var out []Object
	for _, o := range s.Objects {
		if keep(o) {
			out = append(out, o)
		}
	}
	return out
}
