//go:build cgo_sqlite

package sqliteexternal

import (
	// Registers "sqlite3" with database/sql.
	_ "github.com/mattn/go-sqlite3"
)

// Fixture engine identity, read by internal/sqlitetest when it builds test
// databases under the cgo_sqlite tag.
const (
	DriverName    = "sqlite3"
	DriverType    = "cgo"
	DriverPackage = "github.com/mattn/go-sqlite3"
)
