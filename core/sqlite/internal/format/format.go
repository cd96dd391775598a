// Package format defines SQLite file format constants and structures.
//
// This package provides low-level SQLite database file format definitions including:
//   - Database header format and offsets
//   - Page type constants
//   - B-tree page header offsets
//   - Helper functions for validation
//
// These constants are used throughout the decoder.
package format

import (
	"encoding/binary"
	"fmt"

	dberrors "github.com/FocuswithJustin/litereader/core/errors"
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/utf"
)

// SQLite file format constants
const (
	// HeaderSize is the database header size in bytes (first 100 bytes of the database file).
	HeaderSize = 100

	// MagicString is the magic header string for SQLite 3 database files.
	// Must be exactly 16 bytes including the null terminator.
	MagicString = "SQLite format 3\000"

	// DefaultPageSize is the default page size for new databases (4096 bytes).
	DefaultPageSize = 4096

	// MinPageSize is the minimum allowed page size (512 bytes).
	MinPageSize = 512

	// MaxPageSize is the maximum allowed page size (65536 bytes).
	MaxPageSize = 65536
)

// Header offsets - byte positions in the 100-byte database header
const (
	OffsetMagic             = 0  // 16 bytes
	OffsetPageSize          = 16 // 2 bytes; 1 means 65536
	OffsetWriteVersion      = 18 // 1 byte
	OffsetReadVersion       = 19 // 1 byte
	OffsetReservedSpace     = 20 // 1 byte, unused bytes at the end of each page
	OffsetMaxPayloadFrac    = 21 // 1 byte, must be 64
	OffsetMinPayloadFrac    = 22 // 1 byte, must be 32
	OffsetLeafPayloadFrac   = 23 // 1 byte, must be 32
	OffsetFileChangeCounter = 24
	OffsetDatabaseSize      = 28 // in pages
	OffsetFirstFreelist     = 32
	OffsetFreelistCount     = 36
	OffsetSchemaCookie      = 40
	OffsetSchemaFormat      = 44
	OffsetDefaultCacheSize  = 48
	OffsetLargestRootPage   = 52
	OffsetTextEncoding      = 56 // 1 = UTF-8, 2 = UTF-16le, 3 = UTF-16be
	OffsetUserVersion       = 60
	OffsetIncrVacuum        = 64
	OffsetAppID             = 68
	OffsetReserved          = 72 // 20 bytes, must be zero
	OffsetVersionValidFor   = 92
	OffsetSQLiteVersion     = 96
)

// Page types - first byte of B-tree page header
const (
	// PageTypeInteriorIndex is an interior index b-tree page (0x02).
	PageTypeInteriorIndex = 0x02

	// PageTypeInteriorTable is an interior table b-tree page (0x05).
	PageTypeInteriorTable = 0x05

	// PageTypeLeafIndex is a leaf index b-tree page (0x0a).
	PageTypeLeafIndex = 0x0a

	// PageTypeLeafTable is a leaf table b-tree page (0x0d).
	PageTypeLeafTable = 0x0d
)

// B-tree page header offsets
const (
	BtreePageType         = 0 // 1 byte
	BtreeFirstFreeblock   = 1 // 2 bytes
	BtreeCellCount        = 3 // 2 bytes
	BtreeCellContentStart = 5 // 2 bytes; 0 means 65536
	BtreeFragmentedBytes  = 7 // 1 byte
	BtreeRightmostPointer = 8 // 4 bytes, interior pages only
)

// B-tree page header sizes
const (
	// BtreeHeaderSizeLeaf is the size of a leaf page header (8 bytes).
	BtreeHeaderSizeLeaf = 8

	// BtreeHeaderSizeInterior is the size of an interior page header (12 bytes).
	// Includes the 4-byte right-most pointer.
	BtreeHeaderSizeInterior = 12
)

// DatabaseHeader represents the 100-byte SQLite database file header.
// It is immutable once parsed.
type DatabaseHeader struct {
	// Magic is the magic header string ("SQLite format 3\x00").
	Magic [16]byte

	// PageSize is the raw page size field. 1 represents 65536; use GetPageSize.
	PageSize uint16

	WriteVersion    uint8
	ReadVersion     uint8
	ReservedSpace   uint8
	MaxPayloadFrac  uint8
	MinPayloadFrac  uint8
	LeafPayloadFrac uint8

	// FileChangeCounter is incremented whenever the database file is modified.
	FileChangeCounter uint32

	// DatabaseSize is the size of the database file in pages.
	DatabaseSize uint32

	FirstFreelist    uint32
	FreelistCount    uint32
	SchemaCookie     uint32
	SchemaFormat     uint32
	DefaultCacheSize uint32
	LargestRootPage  uint32

	// TextEncoding is the database text encoding (1=UTF-8, 2=UTF-16le, 3=UTF-16be).
	TextEncoding uint32

	UserVersion     uint32
	IncrVacuum      uint32
	AppID           uint32
	Reserved        [20]byte
	VersionValidFor uint32

	// SQLiteVersion is the SQLite version number that wrote the database.
	SQLiteVersion uint32
}

// ParseHeader parses the 100-byte database header from raw bytes.
// A signature mismatch wraps ErrInvalidMagic; an impossible page size wraps
// ErrInvalidHeader.
func ParseHeader(data []byte) (*DatabaseHeader, error) {
	h := &DatabaseHeader{}
	if err := h.Parse(data); err != nil {
		return nil, err
	}
	return h, nil
}

// Parse parses the 100-byte database header from raw bytes.
func (h *DatabaseHeader) Parse(data []byte) error {
	if len(data) < HeaderSize {
		return dberrors.NewTruncated("database header", 0, HeaderSize, len(data))
	}

	copy(h.Magic[:], data[OffsetMagic:OffsetMagic+16])
	if string(h.Magic[:]) != MagicString {
		return fmt.Errorf("%w: got %q, want %q", dberrors.ErrInvalidMagic, h.Magic[:], MagicString)
	}

	h.PageSize = binary.BigEndian.Uint16(data[OffsetPageSize : OffsetPageSize+2])
	if !IsValidPageSize(h.GetPageSize()) {
		return fmt.Errorf("%w: page size %d", dberrors.ErrInvalidHeader, h.GetPageSize())
	}

	h.WriteVersion = data[OffsetWriteVersion]
	h.ReadVersion = data[OffsetReadVersion]
	h.ReservedSpace = data[OffsetReservedSpace]
	h.MaxPayloadFrac = data[OffsetMaxPayloadFrac]
	h.MinPayloadFrac = data[OffsetMinPayloadFrac]
	h.LeafPayloadFrac = data[OffsetLeafPayloadFrac]

	h.FileChangeCounter = binary.BigEndian.Uint32(data[OffsetFileChangeCounter:])
	h.DatabaseSize = binary.BigEndian.Uint32(data[OffsetDatabaseSize:])
	h.FirstFreelist = binary.BigEndian.Uint32(data[OffsetFirstFreelist:])
	h.FreelistCount = binary.BigEndian.Uint32(data[OffsetFreelistCount:])
	h.SchemaCookie = binary.BigEndian.Uint32(data[OffsetSchemaCookie:])
	h.SchemaFormat = binary.BigEndian.Uint32(data[OffsetSchemaFormat:])
	h.DefaultCacheSize = binary.BigEndian.Uint32(data[OffsetDefaultCacheSize:])
	h.LargestRootPage = binary.BigEndian.Uint32(data[OffsetLargestRootPage:])
	h.TextEncoding = binary.BigEndian.Uint32(data[OffsetTextEncoding:])
	h.UserVersion = binary.BigEndian.Uint32(data[OffsetUserVersion:])
	h.IncrVacuum = binary.BigEndian.Uint32(data[OffsetIncrVacuum:])
	h.AppID = binary.BigEndian.Uint32(data[OffsetAppID:])
	h.VersionValidFor = binary.BigEndian.Uint32(data[OffsetVersionValidFor:])
	h.SQLiteVersion = binary.BigEndian.Uint32(data[OffsetSQLiteVersion:])

	copy(h.Reserved[:], data[OffsetReserved:OffsetReserved+20])

	return nil
}

// Serialize serializes the database header to 100 bytes.
func (h *DatabaseHeader) Serialize() []byte {
	data := make([]byte, HeaderSize)

	copy(data[OffsetMagic:], h.Magic[:])
	binary.BigEndian.PutUint16(data[OffsetPageSize:], h.PageSize)

	data[OffsetWriteVersion] = h.WriteVersion
	data[OffsetReadVersion] = h.ReadVersion
	data[OffsetReservedSpace] = h.ReservedSpace
	data[OffsetMaxPayloadFrac] = h.MaxPayloadFrac
	data[OffsetMinPayloadFrac] = h.MinPayloadFrac
	data[OffsetLeafPayloadFrac] = h.LeafPayloadFrac

	binary.BigEndian.PutUint32(data[OffsetFileChangeCounter:], h.FileChangeCounter)
	binary.BigEndian.PutUint32(data[OffsetDatabaseSize:], h.DatabaseSize)
	binary.BigEndian.PutUint32(data[OffsetFirstFreelist:], h.FirstFreelist)
	binary.BigEndian.PutUint32(data[OffsetFreelistCount:], h.FreelistCount)
	binary.BigEndian.PutUint32(data[OffsetSchemaCookie:], h.SchemaCookie)
	binary.BigEndian.PutUint32(data[OffsetSchemaFormat:], h.SchemaFormat)
	binary.BigEndian.PutUint32(data[OffsetDefaultCacheSize:], h.DefaultCacheSize)
	binary.BigEndian.PutUint32(data[OffsetLargestRootPage:], h.LargestRootPage)
	binary.BigEndian.PutUint32(data[OffsetTextEncoding:], h.TextEncoding)
	binary.BigEndian.PutUint32(data[OffsetUserVersion:], h.UserVersion)
	binary.BigEndian.PutUint32(data[OffsetIncrVacuum:], h.IncrVacuum)
	binary.BigEndian.PutUint32(data[OffsetAppID:], h.AppID)
	binary.BigEndian.PutUint32(data[OffsetVersionValidFor:], h.VersionValidFor)
	binary.BigEndian.PutUint32(data[OffsetSQLiteVersion:], h.SQLiteVersion)

	copy(data[OffsetReserved:], h.Reserved[:])

	return data
}

// NewHeader creates a new database header with default values.
func NewHeader(pageSize int) *DatabaseHeader {
	// 65536 is stored as 1
	var pageSizeVal uint16
	if pageSize == MaxPageSize {
		pageSizeVal = 1
	} else {
		pageSizeVal = uint16(pageSize)
	}

	h := &DatabaseHeader{
		PageSize:        pageSizeVal,
		WriteVersion:    1,
		ReadVersion:     1,
		MaxPayloadFrac:  64,
		MinPayloadFrac:  32,
		LeafPayloadFrac: 32,
		SchemaFormat:    4,
		TextEncoding:    uint32(utf.UTF8),
		SQLiteVersion:   3051020,
	}

	copy(h.Magic[:], MagicString)

	return h
}

// Validate performs the stricter checks SQLite applies when opening a file.
// Parse only rejects what would make page addressing impossible.
func (h *DatabaseHeader) Validate() error {
	if string(h.Magic[:]) != MagicString {
		return dberrors.ErrInvalidMagic
	}

	pageSize := h.GetPageSize()
	if !IsValidPageSize(pageSize) {
		return fmt.Errorf("%w: page size %d", dberrors.ErrInvalidHeader, pageSize)
	}

	if h.WriteVersion != 1 && h.WriteVersion != 2 {
		return fmt.Errorf("%w: write version %d", dberrors.ErrInvalidHeader, h.WriteVersion)
	}
	if h.ReadVersion != 1 && h.ReadVersion != 2 {
		return fmt.Errorf("%w: read version %d", dberrors.ErrInvalidHeader, h.ReadVersion)
	}

	if h.MaxPayloadFrac != 64 || h.MinPayloadFrac != 32 || h.LeafPayloadFrac != 32 {
		return fmt.Errorf("%w: payload fractions %d/%d/%d", dberrors.ErrInvalidHeader,
			h.MaxPayloadFrac, h.MinPayloadFrac, h.LeafPayloadFrac)
	}

	if h.SchemaFormat > 4 {
		return fmt.Errorf("%w: schema format %d", dberrors.ErrInvalidHeader, h.SchemaFormat)
	}

	// A brand-new empty database stores 0 until the first table is created
	if h.TextEncoding != 0 && !h.Encoding().Valid() {
		return fmt.Errorf("%w: text encoding %d", dberrors.ErrInvalidHeader, h.TextEncoding)
	}

	return nil
}

// GetPageSize returns the actual page size, handling the special case where
// a stored value of 1 means 65536.
func (h *DatabaseHeader) GetPageSize() int {
	if h.PageSize == 1 {
		return MaxPageSize
	}
	return int(h.PageSize)
}

// UsableSize returns the page size minus the reserved space at the end of
// each page.
func (h *DatabaseHeader) UsableSize() int {
	return h.GetPageSize() - int(h.ReservedSpace)
}

// Encoding returns the text encoding as a utf.Encoding.
func (h *DatabaseHeader) Encoding() utf.Encoding {
	return utf.Encoding(h.TextEncoding)
}

// IsValidPageSize checks if a page size is valid.
// Valid page sizes are powers of 2 between 512 and 65536 inclusive.
func IsValidPageSize(size int) bool {
	if size < MinPageSize || size > MaxPageSize {
		return false
	}

	return size&(size-1) == 0
}

// VersionString formats SQLiteVersion the way sqlite3_libversion does.
func (h *DatabaseHeader) VersionString() string {
	v := h.SQLiteVersion
	return fmt.Sprintf("%d.%d.%d", v/1000000, (v/1000)%1000, v%1000)
}
