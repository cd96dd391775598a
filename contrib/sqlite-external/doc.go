// Package sqliteexternal registers the CGO SQLite engine used to write test
// fixtures.
//
// litereader never uses a SQLite engine to read databases. Fixture files are
// written by the pure Go modernc.org/sqlite unless the cgo_sqlite tag swaps
// in github.com/mattn/go-sqlite3 through this package:
//
//	import _ "github.com/FocuswithJustin/litereader/contrib/sqlite-external"
//
// Build with:
//
//	CGO_ENABLED=1 go test -tags cgo_sqlite ./...
//
// Running the suite under both engines checks the decoder against files
// written by two independent SQLite builds.
package sqliteexternal
