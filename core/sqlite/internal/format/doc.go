// Package format defines SQLite file format constants and structures.
//
// # Database File Header
//
// Every SQLite database file begins with a 100-byte header. All multi-byte
// fields are big-endian:
//
//	 0..15  magic string "SQLite format 3\x00"
//	16..17  page size (1 means 65536)
//	24..27  file change counter
//	28..31  database size in pages
//	32..35  first freelist trunk page
//	36..39  total freelist pages
//	40..43  schema cookie
//	44..47  schema format number
//	56..59  text encoding (1=UTF-8, 2=UTF-16le, 3=UTF-16be)
//	60..63  user version
//	68..71  application id
//	92..95  version-valid-for number
//	96..99  SQLite version number
//
// Example usage:
//
//	data := make([]byte, format.HeaderSize)
//	if _, err := io.ReadFull(file, data); err != nil {
//	    return err
//	}
//	header, err := format.ParseHeader(data)
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("Page size: %d\n", header.GetPageSize())
//
// # Page Types
//
//   - Interior Index (0x02)
//   - Interior Table (0x05)
//   - Leaf Index (0x0a)
//   - Leaf Table (0x0d)
//
// # Thread Safety
//
// A parsed DatabaseHeader is never modified by this package and may be shared
// between goroutines.
//
// # References
//
//   - SQLite File Format: https://www.sqlite.org/fileformat.html
package format
