package sqlite

import (
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/schema"
)

// Info summarises a database file.
type Info struct {
	Path            string   `json:"path"`
	PageSize        int      `json:"page_size"`
	PageCount       uint32   `json:"page_count"`
	FileSize        int64    `json:"file_size_bytes"`
	Compressed      bool     `json:"compressed,omitempty"`
	Encoding        string   `json:"encoding"`
	TableCount      int      `json:"number_of_tables"`
	IndexCount      int      `json:"number_of_indexes"`
	ViewCount       int      `json:"number_of_views"`
	TriggerCount    int      `json:"number_of_triggers"`
	Tables          []string `json:"tables"`
	WriteVersion    uint8    `json:"write_version"`
	ReadVersion     uint8    `json:"read_version"`
	ReservedSpace   uint8    `json:"reserved_space"`
	FileChangeCount uint32   `json:"file_change_counter"`
	FreelistCount   uint32   `json:"freelist_count"`
	SchemaCookie    uint32   `json:"schema_cookie"`
	SchemaFormat    uint32   `json:"schema_format"`
	UserVersion     uint32   `json:"user_version"`
	ApplicationID   uint32   `json:"application_id"`
	SQLiteVersion   string   `json:"sqlite_version"`
}

// Info reports the header fields and schema object counts of the database.
// TableCount counts every table row in sqlite_schema, internal tables such
// as sqlite_sequence included; Tables lists user tables only.
func (db *DB) Info() (*Info, error) {
	h := db.pager.Header()
	s, err := db.Schema()
	if err != nil {
		return nil, err
	}

	tables, err := db.Tables()
	if err != nil {
		return nil, err
	}
	if tables == nil {
		tables = []string{}
	}

	return &Info{
		Path:            db.pager.Path(),
		PageSize:        db.pager.PageSize(),
		PageCount:       db.pager.PageCount(),
		FileSize:        db.pager.Size(),
		Compressed:      db.pager.Compressed(),
		Encoding:        h.Encoding().String(),
		TableCount:      len(s.ByType(schema.TypeTable)),
		IndexCount:      len(s.ByType(schema.TypeIndex)),
		ViewCount:       len(s.ByType(schema.TypeView)),
		TriggerCount:    len(s.ByType(schema.TypeTrigger)),
		Tables:          tables,
		WriteVersion:    h.WriteVersion,
		ReadVersion:     h.ReadVersion,
		ReservedSpace:   h.ReservedSpace,
		FileChangeCount: h.FileChangeCounter,
		FreelistCount:   h.FreelistCount,
		SchemaCookie:    h.SchemaCookie,
		SchemaFormat:    h.SchemaFormat,
		UserVersion:     h.UserVersion,
		ApplicationID:   h.AppID,
		SQLiteVersion:   h.VersionString(),
	}, nil
}
