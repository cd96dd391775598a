//go:build cgo_sqlite

package sqlitetest

import (
	sqliteexternal "github.com/FocuswithJustin/litereader/contrib/sqlite-external"
)

// Fixtures are written by mattn/go-sqlite3 under the cgo_sqlite tag.
const (
	driverName    = sqliteexternal.DriverName
	driverType    = sqliteexternal.DriverType
	driverPackage = sqliteexternal.DriverPackage + " (via contrib/sqlite-external)"
)
