package main

import (
	"fmt"
	"math"
	"strings"
	"text/tabwriter"

	"github.com/FocuswithJustin/litereader/core/sqlite"
)

// DBInfoCmd prints the database summary.
type DBInfoCmd struct {
	Path string `arg:"" help:"Database file" type:"existingfile"`
}

func (c *DBInfoCmd) Run(app *App) error {
	return app.track("dbinfo", c.Path, app.printDBInfo)
}

func (a *App) printDBInfo(db *sqlite.DB) error {
	info, err := db.Info()
	if err != nil {
		return err
	}
	if a.jsonOutput() {
		return a.printJSON(info)
	}

	a.printf("database page size: %d\n", info.PageSize)
	a.printf("number of tables: %d\n", info.TableCount)
	return nil
}

// TablesCmd lists user tables.
type TablesCmd struct {
	Path string `arg:"" help:"Database file" type:"existingfile"`
}

func (c *TablesCmd) Run(app *App) error {
	return app.track("tables", c.Path, app.printTables)
}

func (a *App) printTables(db *sqlite.DB) error {
	tables, err := db.Tables()
	if err != nil {
		return err
	}
	if a.jsonOutput() {
		return a.printJSON(tables)
	}

	for _, name := range tables {
		a.printf("%s\n", name)
	}
	return nil
}

// SchemaCmd lists every object in sqlite_schema.
type SchemaCmd struct {
	Path string `arg:"" help:"Database file" type:"existingfile"`
	SQL  bool   `help:"Include the CREATE statement of each object"`
}

func (c *SchemaCmd) Run(app *App) error {
	return app.track("schema", c.Path, func(db *sqlite.DB) error {
		s, err := db.Schema()
		if err != nil {
			return err
		}
		if app.jsonOutput() {
			objects := s.Objects
			if objects == nil {
				objects = []sqlite.Object{}
			}
			return app.printJSON(objects)
		}

		w := tabwriter.NewWriter(app.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TYPE\tNAME\tTABLE\tROOTPAGE")
		for _, o := range s.Objects {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", o.Type, o.Name, o.TblName, o.RootPage)
			if c.SQL && o.SQL != "" {
				fmt.Fprintf(w, "\t%s\t\t\n", o.SQL)
			}
		}
		return w.Flush()
	})
}

// HeaderCmd prints the file header.
type HeaderCmd struct {
	Path string `arg:"" help:"Database file" type:"existingfile"`
}

type headerView struct {
	Magic             string `json:"magic"`
	PageSize          int    `json:"page_size"`
	WriteVersion      uint8  `json:"write_version"`
	ReadVersion       uint8  `json:"read_version"`
	ReservedSpace     uint8  `json:"reserved_space"`
	MaxPayloadFrac    uint8  `json:"max_payload_fraction"`
	MinPayloadFrac    uint8  `json:"min_payload_fraction"`
	LeafPayloadFrac   uint8  `json:"leaf_payload_fraction"`
	FileChangeCounter uint32 `json:"file_change_counter"`
	DatabaseSize      uint32 `json:"database_size_pages"`
	FirstFreelist     uint32 `json:"first_freelist_trunk"`
	FreelistCount     uint32 `json:"freelist_count"`
	SchemaCookie      uint32 `json:"schema_cookie"`
	SchemaFormat      uint32 `json:"schema_format"`
	DefaultCacheSize  uint32 `json:"default_cache_size"`
	LargestRootPage   uint32 `json:"largest_root_page"`
	TextEncoding      string `json:"text_encoding"`
	UserVersion       uint32 `json:"user_version"`
	IncrVacuum        uint32 `json:"incremental_vacuum"`
	AppID             uint32 `json:"application_id"`
	VersionValidFor   uint32 `json:"version_valid_for"`
	SQLiteVersion     string `json:"sqlite_version"`
}

func newHeaderView(h *sqlite.Header) headerView {
	return headerView{
		Magic:             strings.TrimRight(string(h.Magic[:]), "\x00"),
		PageSize:          h.GetPageSize(),
		WriteVersion:      h.WriteVersion,
		ReadVersion:       h.ReadVersion,
		ReservedSpace:     h.ReservedSpace,
		MaxPayloadFrac:    h.MaxPayloadFrac,
		MinPayloadFrac:    h.MinPayloadFrac,
		LeafPayloadFrac:   h.LeafPayloadFrac,
		FileChangeCounter: h.FileChangeCounter,
		DatabaseSize:      h.DatabaseSize,
		FirstFreelist:     h.FirstFreelist,
		FreelistCount:     h.FreelistCount,
		SchemaCookie:      h.SchemaCookie,
		SchemaFormat:      h.SchemaFormat,
		DefaultCacheSize:  h.DefaultCacheSize,
		LargestRootPage:   h.LargestRootPage,
		TextEncoding:      h.Encoding().String(),
		UserVersion:       h.UserVersion,
		IncrVacuum:        h.IncrVacuum,
		AppID:             h.AppID,
		VersionValidFor:   h.VersionValidFor,
		SQLiteVersion:     h.VersionString(),
	}
}

func (c *HeaderCmd) Run(app *App) error {
	return app.track("header", c.Path, func(db *sqlite.DB) error {
		v := newHeaderView(db.Header())
		if app.jsonOutput() {
			return app.printJSON(v)
		}

		w := tabwriter.NewWriter(app.out, 0, 4, 1, ' ', 0)
		fmt.Fprintf(w, "magic:\t%s\n", v.Magic)
		fmt.Fprintf(w, "page size:\t%d\n", v.PageSize)
		fmt.Fprintf(w, "write version:\t%d\n", v.WriteVersion)
		fmt.Fprintf(w, "read version:\t%d\n", v.ReadVersion)
		fmt.Fprintf(w, "reserved space:\t%d\n", v.ReservedSpace)
		fmt.Fprintf(w, "payload fractions:\t%d/%d/%d\n", v.MaxPayloadFrac, v.MinPayloadFrac, v.LeafPayloadFrac)
		fmt.Fprintf(w, "file change counter:\t%d\n", v.FileChangeCounter)
		fmt.Fprintf(w, "database size:\t%d pages\n", v.DatabaseSize)
		fmt.Fprintf(w, "freelist:\t%d pages (first trunk %d)\n", v.FreelistCount, v.FirstFreelist)
		fmt.Fprintf(w, "schema cookie:\t%d\n", v.SchemaCookie)
		fmt.Fprintf(w, "schema format:\t%d\n", v.SchemaFormat)
		fmt.Fprintf(w, "default cache size:\t%d\n", v.DefaultCacheSize)
		fmt.Fprintf(w, "largest root page:\t%d\n", v.LargestRootPage)
		fmt.Fprintf(w, "text encoding:\t%s\n", v.TextEncoding)
		fmt.Fprintf(w, "user version:\t%d\n", v.UserVersion)
		fmt.Fprintf(w, "incremental vacuum:\t%d\n", v.IncrVacuum)
		fmt.Fprintf(w, "application id:\t%d\n", v.AppID)
		fmt.Fprintf(w, "version valid for:\t%d\n", v.VersionValidFor)
		fmt.Fprintf(w, "sqlite version:\t%s\n", v.SQLiteVersion)
		return w.Flush()
	})
}

// PageCmd describes one page.
type PageCmd struct {
	Path string `arg:"" help:"Database file" type:"existingfile"`
	N    uint32 `arg:"" name:"page" help:"1-based page number"`
}

type pageView struct {
	Number           uint32   `json:"page"`
	Type             string   `json:"type"`
	BTree            bool     `json:"btree"`
	NumCells         uint16   `json:"cells"`
	FirstFreeblock   uint16   `json:"first_freeblock"`
	CellContentStart int      `json:"cell_content_start"`
	FragmentedBytes  byte     `json:"fragmented_bytes"`
	RightChild       uint32   `json:"right_child,omitempty"`
	PageSize         int      `json:"page_size"`
	UsableSize       int      `json:"usable_size"`
	CellOffsets      []uint16 `json:"cell_offsets"`
	Blake3           string   `json:"blake3"`
}

func newPageView(page *sqlite.Page) (pageView, error) {
	v := pageView{
		Number:      page.Number,
		Type:        page.Type().String(),
		BTree:       page.IsBtree(),
		PageSize:    len(page.Data),
		UsableSize:  page.UsableSize,
		CellOffsets: []uint16{},
		Blake3:      page.FingerprintHex(),
	}
	if !page.IsBtree() {
		// Overflow, freelist and pointer-map pages have no b-tree header
		v.Type = fmt.Sprintf("non-b-tree (0x%02x)", byte(page.Type()))
		return v, nil
	}

	offsets, err := page.CellOffsets()
	if err != nil {
		return v, err
	}
	v.NumCells = page.Header.NumCells
	v.FirstFreeblock = page.Header.FirstFreeblock
	v.CellContentStart = page.Header.ContentStart()
	v.FragmentedBytes = page.Header.FragmentedBytes
	v.RightChild = page.Header.RightChild
	v.CellOffsets = offsets
	return v, nil
}

func (c *PageCmd) Run(app *App) error {
	return app.track("page", c.Path, func(db *sqlite.DB) error {
		page, err := db.Page(c.N)
		if err != nil {
			return err
		}
		v, err := newPageView(page)
		if err != nil {
			return err
		}
		if app.jsonOutput() {
			return app.printJSON(v)
		}

		w := tabwriter.NewWriter(app.out, 0, 4, 1, ' ', 0)
		fmt.Fprintf(w, "page:\t%d\n", v.Number)
		fmt.Fprintf(w, "type:\t%s\n", v.Type)
		if v.BTree {
			fmt.Fprintf(w, "cells:\t%d\n", v.NumCells)
			fmt.Fprintf(w, "first freeblock:\t%d\n", v.FirstFreeblock)
			fmt.Fprintf(w, "cell content start:\t%d\n", v.CellContentStart)
			fmt.Fprintf(w, "fragmented bytes:\t%d\n", v.FragmentedBytes)
			if !page.IsLeaf() {
				fmt.Fprintf(w, "right child:\t%d\n", v.RightChild)
			}
		}
		fmt.Fprintf(w, "page size:\t%d\n", v.PageSize)
		fmt.Fprintf(w, "usable size:\t%d\n", v.UsableSize)
		if v.BTree {
			fmt.Fprintf(w, "cell offsets:\t%s\n", joinUint16(v.CellOffsets))
		}
		fmt.Fprintf(w, "blake3:\t%s\n", v.Blake3)
		return w.Flush()
	})
}

func joinUint16(xs []uint16) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprint(x)
	}
	return strings.Join(parts, " ")
}

// CellsCmd decodes the cells of a table leaf page.
type CellsCmd struct {
	Path string `arg:"" help:"Database file" type:"existingfile"`
	N    uint32 `arg:"" name:"page" help:"1-based page number"`
}

type cellView struct {
	Offset      uint16 `json:"offset"`
	RowID       int64  `json:"rowid"`
	PayloadSize uint64 `json:"payload_size"`
	Values      []any  `json:"values"`
}

func (c *CellsCmd) Run(app *App) error {
	return app.track("cells", c.Path, func(db *sqlite.DB) error {
		cells, err := db.Cells(c.N)
		if err != nil {
			return err
		}
		if app.jsonOutput() {
			views := make([]cellView, len(cells))
			for i, cell := range cells {
				views[i] = cellView{
					Offset:      cell.Offset,
					RowID:       cell.RowID,
					PayloadSize: cell.PayloadSize,
					Values:      jsonValues(cell.Record.Values),
				}
			}
			return app.printJSON(views)
		}

		for _, cell := range cells {
			app.printf("offset=%d rowid=%d payload=%d %s\n",
				cell.Offset, cell.RowID, cell.PayloadSize, joinValues(cell.Record.Values, " "))
		}
		return nil
	})
}

// RowsCmd prints the rows of a table.
type RowsCmd struct {
	Path  string `arg:"" help:"Database file" type:"existingfile"`
	Table string `arg:"" help:"Table name"`
	Limit int    `short:"n" help:"Print at most this many rows (0 prints all)"`
	RowID bool   `name:"rowid" help:"Prefix each row with its rowid"`
	Sep   string `name:"separator" default:"|" help:"Column separator for text output"`
}

type rowView struct {
	RowID  int64 `json:"rowid"`
	Values []any `json:"values"`
}

func (c *RowsCmd) Run(app *App) error {
	return app.track("rows", c.Path, func(db *sqlite.DB) error {
		rows, err := db.Rows(c.Table)
		if err != nil {
			return err
		}
		if c.Limit > 0 && len(rows) > c.Limit {
			rows = rows[:c.Limit]
		}

		if app.jsonOutput() {
			views := make([]rowView, len(rows))
			for i, r := range rows {
				views[i] = rowView{RowID: r.RowID, Values: jsonValues(r.Values)}
			}
			return app.printJSON(views)
		}

		for _, r := range rows {
			line := joinValues(r.Values, c.Sep)
			if c.RowID {
				line = fmt.Sprintf("%d%s%s", r.RowID, c.Sep, line)
			}
			app.printf("%s\n", line)
		}
		return nil
	})
}

func joinValues(values []sqlite.Value, sep string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = v.String()
	}
	return strings.Join(parts, sep)
}

// jsonValues converts values for encoding/json: NULL becomes null and blobs
// are base64 encoded. JSON has no infinities, so non-finite REALs are
// written as the strings "Inf", "-Inf" and "NaN".
func jsonValues(values []sqlite.Value) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = jsonValue(v)
	}
	return out
}

func jsonValue(v sqlite.Value) any {
	if v.Kind != sqlite.KindFloat {
		return v.Any()
	}
	switch {
	case math.IsInf(v.Float, 1):
		return "Inf"
	case math.IsInf(v.Float, -1):
		return "-Inf"
	case math.IsNaN(v.Float):
		return "NaN"
	}
	return v.Float
}

// CountCmd counts the rows of a table.
type CountCmd struct {
	Path  string `arg:"" help:"Database file" type:"existingfile"`
	Table string `arg:"" help:"Table name"`
}

func (c *CountCmd) Run(app *App) error {
	return app.track("count", c.Path, func(db *sqlite.DB) error {
		n, err := db.RowCount(c.Table)
		if err != nil {
			return err
		}
		if app.jsonOutput() {
			return app.printJSON(map[string]any{"table": c.Table, "rows": n})
		}

		app.printf("%d\n", n)
		return nil
	})
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(app *App) error {
	app.printf("litereader version %s\n", version)
	return nil
}
