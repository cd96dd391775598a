// Package sqlitetest builds real SQLite database files for tests.
//
// Databases are written through database/sql by a full SQLite engine:
// modernc.org/sqlite by default, or mattn/go-sqlite3 when built with
// -tags cgo_sqlite. The engines only ever write fixtures; everything under
// test reads the resulting files byte by byte.
package sqlitetest

import (
	"bufio"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/ulikunitz/xz"
)

// DriverName returns the database/sql driver used to write fixtures.
func DriverName() string {
	return driverName
}

// DriverType returns "purego" or "cgo".
func DriverType() string {
	return driverType
}

// DriverPackage returns the import path of the fixture engine.
func DriverPackage() string {
	return driverPackage
}

// Build creates a database at path by running stmts in order on a single
// connection, so connection-scoped pragmas such as page_size take effect.
func Build(path string, stmts ...string) error {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return fmt.Errorf("failed to execute %q: %w", stmt, err)
		}
	}
	return db.Close()
}

// Create builds a database named name in a fresh temporary directory and
// returns its path.
func Create(t testing.TB, name string, stmts ...string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := Build(path, stmts...); err != nil {
		t.Fatalf("sqlitetest: %v", err)
	}
	return path
}

// FruitsSchema creates a 512-byte-page database with one small table:
//
//	fruits(qty INTEGER, name TEXT) = (1,'apples'), (2,'bananas'), (3,'cherries')
//
// plus an index and a view, so page 1 lists three schema objects.
var FruitsSchema = []string{
	"PRAGMA page_size = 512",
	"CREATE TABLE fruits (qty INTEGER, name TEXT)",
	"INSERT INTO fruits (qty, name) VALUES (1, 'apples'), (2, 'bananas'), (3, 'cherries')",
	"CREATE INDEX fruits_by_name ON fruits (name)",
	"CREATE VIEW cheap_fruits AS SELECT name FROM fruits WHERE qty < 3",
}

// Fruits creates the FruitsSchema database and returns its path.
func Fruits(t testing.TB) string {
	t.Helper()
	return Create(t, "fruits.db", FruitsSchema...)
}

// CompressXZ writes an xz-compressed copy of src next to it and returns the
// new path.
func CompressXZ(t testing.TB, src string) string {
	t.Helper()

	dst := src + ".xz"
	if err := compressFile(src, dst); err != nil {
		t.Fatalf("sqlitetest: %v", err)
	}
	return dst
}

func compressFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(out)
	w, err := xz.NewWriter(bw)
	if err != nil {
		out.Close()
		return fmt.Errorf("failed to create xz writer: %w", err)
	}
	if _, err := io.Copy(w, in); err != nil {
		out.Close()
		return err
	}
	if err := w.Close(); err != nil {
		out.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
