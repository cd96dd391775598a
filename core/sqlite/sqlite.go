// Package sqlite reads SQLite database files directly from their on-disk
// format, without a SQL engine.
//
// The package decodes the 100-byte file header, single b-tree pages, the
// cells on table leaf pages and the records they carry. It never writes to
// the file and never executes SQL.
//
// Basic usage:
//
//	db, err := sqlite.Open("fruits.db")
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	rows, err := db.Rows("fruits")
//
// Files compressed with xz are detected by their magic bytes and read from
// memory after decompression.
package sqlite

import (
	"fmt"
	"log/slog"

	dberrors "github.com/FocuswithJustin/litereader/core/errors"
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/btree"
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/format"
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/pager"
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/record"
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/schema"
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/utf"
)

// Re-exported decoder types.
type (
	Header     = format.DatabaseHeader
	Page       = btree.Page
	PageHeader = btree.PageHeader
	PageType   = btree.PageType
	Cell       = btree.Cell
	Record     = record.Record
	Value      = record.Value
	Kind       = record.Kind
	Object     = schema.Object
	Schema     = schema.Schema
	Encoding   = utf.Encoding
)

// Value kinds.
const (
	KindNull    = record.KindNull
	KindInteger = record.KindInteger
	KindFloat   = record.KindFloat
	KindBlob    = record.KindBlob
	KindText    = record.KindText
)

// DefaultCacheSize is the number of pages a DB caches unless told otherwise.
const DefaultCacheSize = pager.DefaultCacheSize

// Option configures Open.
type Option func(*pager.Options)

// WithCacheSize sets the page cache capacity in pages. A negative value
// disables the cache.
func WithCacheSize(pages int64) Option {
	return func(o *pager.Options) { o.CacheSize = pages }
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(o *pager.Options) { o.Logger = logger }
}

// DB is an open, read-only database file. It is safe for concurrent use.
type DB struct {
	pager *pager.Pager
}

// Row is one table row: its rowid and the decoded column values.
type Row struct {
	RowID  int64   `json:"rowid"`
	Values []Value `json:"values"`
}

// Open opens the database at path and validates its header the way SQLite
// does before reading any page.
func Open(path string, opts ...Option) (*DB, error) {
	var o pager.Options
	for _, opt := range opts {
		opt(&o)
	}
	p, err := pager.Open(path, o)
	if err != nil {
		return nil, err
	}
	return &DB{pager: p}, nil
}

// ReadHeader reads and validates the file header of the database at path.
func ReadHeader(path string) (*Header, error) {
	return pager.OpenHeader(path)
}

// ReadPage reads page n of the database at path in a single open, read and
// close cycle. h must be the header read from the same file.
func ReadPage(path string, h *Header, n uint32) (*Page, error) {
	return pager.GetPage(path, h, n)
}

// DecodeCell decodes the table leaf cell at offset within body, the page
// bytes with the file header removed on page 1.
func DecodeCell(body []byte, offset uint16, isFirstPage bool) (*Cell, error) {
	return btree.DecodeCell(body, offset, isFirstPage)
}

// DecodeRecord decodes the record that starts at offset within buf.
func DecodeRecord(buf []byte, offset int) (*Record, error) {
	return record.Decode(buf, offset)
}

// Close releases the underlying file. It is safe to call more than once.
func (db *DB) Close() error {
	return db.pager.Close()
}

// Path returns the path the database was opened from.
func (db *DB) Path() string {
	return db.pager.Path()
}

// Header returns a copy of the file header.
func (db *DB) Header() *Header {
	return db.pager.Header()
}

// Compressed reports whether the file was xz-compressed on disk.
func (db *DB) Compressed() bool {
	return db.pager.Compressed()
}

// PageCount returns the number of whole pages in the file.
func (db *DB) PageCount() uint32 {
	return db.pager.PageCount()
}

// Page returns page n. Page numbers start at 1.
func (db *DB) Page(n uint32) (*Page, error) {
	return db.pager.Page(n)
}

// Cells decodes every cell on page n, which must be a table leaf page.
func (db *DB) Cells(n uint32) ([]*Cell, error) {
	page, err := db.pager.Page(n)
	if err != nil {
		return nil, err
	}
	return page.Cells()
}

// Schema reads sqlite_schema from page 1. It is re-read on every call.
func (db *DB) Schema() (*Schema, error) {
	page, err := db.pager.Page(schema.SchemaPage)
	if err != nil {
		return nil, err
	}
	return schema.Load(page)
}

// Tables returns the names of the user tables in schema order.
func (db *DB) Tables() ([]string, error) {
	s, err := db.Schema()
	if err != nil {
		return nil, err
	}
	tables := s.Tables()
	names := make([]string, 0, len(tables))
	for _, t := range tables {
		names = append(names, t.Name)
	}
	return names, nil
}

// rootPage resolves table to its root page, which must be a table leaf.
func (db *DB) rootPage(table string) (*Page, error) {
	s, err := db.Schema()
	if err != nil {
		return nil, err
	}
	obj, err := s.Table(table)
	if err != nil {
		return nil, err
	}
	if obj.RootPage == 0 {
		return nil, dberrors.NewUnsupported("table", fmt.Sprintf("%s has no root page", obj.Name))
	}

	page, err := db.pager.Page(obj.RootPage)
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", obj.Name, err)
	}
	if !page.IsBtree() {
		return nil, fmt.Errorf("table %s: root page %d: %w: 0x%02x",
			obj.Name, page.Number, dberrors.ErrInvalidPageType, byte(page.Type()))
	}
	if !page.IsTable() {
		// WITHOUT ROWID tables are stored as index b-trees
		return nil, dberrors.NewUnsupported("table layout",
			fmt.Sprintf("%s is a WITHOUT ROWID table (root %d is a %s page)", obj.Name, page.Number, page.Type()))
	}
	if !page.IsLeaf() {
		return nil, dberrors.NewUnsupported("table layout",
			fmt.Sprintf("%s spans more than one page (root %d is interior)", obj.Name, page.Number))
	}
	return page, nil
}

// Rows decodes every row of table. Only tables that fit on their root leaf
// page are readable; larger tables report ErrUnsupported.
func (db *DB) Rows(table string) ([]Row, error) {
	page, err := db.rootPage(table)
	if err != nil {
		return nil, err
	}
	cells, err := page.Cells()
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", table, err)
	}

	rows := make([]Row, len(cells))
	for i, c := range cells {
		rows[i] = Row{RowID: c.RowID, Values: c.Record.Values}
	}
	return rows, nil
}

// RowCount returns the number of rows in table, taken from the cell count
// of its root leaf page without decoding any records.
func (db *DB) RowCount(table string) (int, error) {
	page, err := db.rootPage(table)
	if err != nil {
		return 0, err
	}
	return int(page.Header.NumCells), nil
}
