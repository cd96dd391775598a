// Package btree decodes B-tree pages: the page header, the cell pointer
// array and table-leaf cells.
package btree

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/zeebo/blake3"

	dberrors "github.com/FocuswithJustin/litereader/core/errors"
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/format"
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/utf"
)

// PageType is the first byte of a B-tree page header.
type PageType byte

// Page type constants (first byte of page header)
const (
	PageTypeInteriorIndex PageType = format.PageTypeInteriorIndex // Interior index b-tree page
	PageTypeInteriorTable PageType = format.PageTypeInteriorTable // Interior table b-tree page
	PageTypeLeafIndex     PageType = format.PageTypeLeafIndex     // Leaf index b-tree page
	PageTypeLeafTable     PageType = format.PageTypeLeafTable     // Leaf table b-tree page
)

// Page type flags (bit flags in page type byte)
const (
	ptfIntKey = 0x01 // Table b-trees (integer key)
	ptfLeaf   = 0x08 // Leaf page
)

// Valid reports whether t is one of the four B-tree page types.
func (t PageType) Valid() bool {
	switch t {
	case PageTypeInteriorIndex, PageTypeInteriorTable, PageTypeLeafIndex, PageTypeLeafTable:
		return true
	}
	return false
}

// IsLeaf reports whether t is a leaf page type.
func (t PageType) IsLeaf() bool { return t&ptfLeaf != 0 }

// IsTable reports whether t belongs to a table (rowid) b-tree.
func (t PageType) IsTable() bool { return t&ptfIntKey != 0 }

func (t PageType) String() string {
	switch t {
	case PageTypeInteriorIndex:
		return "interior index"
	case PageTypeInteriorTable:
		return "interior table"
	case PageTypeLeafIndex:
		return "leaf index"
	case PageTypeLeafTable:
		return "leaf table"
	default:
		return fmt.Sprintf("unknown(0x%02x)", byte(t))
	}
}

// PageHeader represents the parsed header of a B-tree page
type PageHeader struct {
	PageType         PageType // Page type (0x02, 0x05, 0x0a, 0x0d)
	FirstFreeblock   uint16   // Offset to first freeblock (0 if none)
	NumCells         uint16   // Number of cells on this page
	CellContentStart uint16   // Start of cell content area; 0 means 65536
	FragmentedBytes  byte     // Number of fragmented free bytes
	RightChild       uint32   // Right-most child page number (interior pages only)

	HeaderSize    int // Size of page header (8 or 12 bytes)
	CellPtrOffset int // Offset in the raw page where the cell pointer array starts
}

// ParsePageHeader parses the B-tree page header from a raw page buffer.
// On the first page the header follows the 100-byte file header.
func ParsePageHeader(buf []byte, isFirstPage bool) (*PageHeader, error) {
	offset := 0
	if isFirstPage {
		offset = format.HeaderSize
	}
	if len(buf) < offset+format.BtreeHeaderSizeLeaf {
		return nil, dberrors.NewTruncated("page header", offset, format.BtreeHeaderSizeLeaf, len(buf)-offset)
	}

	h := &PageHeader{
		PageType:         PageType(buf[offset+format.BtreePageType]),
		FirstFreeblock:   binary.BigEndian.Uint16(buf[offset+format.BtreeFirstFreeblock:]),
		NumCells:         binary.BigEndian.Uint16(buf[offset+format.BtreeCellCount:]),
		CellContentStart: binary.BigEndian.Uint16(buf[offset+format.BtreeCellContentStart:]),
		FragmentedBytes:  buf[offset+format.BtreeFragmentedBytes],
		HeaderSize:       format.BtreeHeaderSizeLeaf,
	}

	if !h.PageType.Valid() {
		return nil, fmt.Errorf("%w: 0x%02x", dberrors.ErrInvalidPageType, byte(h.PageType))
	}

	if !h.PageType.IsLeaf() {
		if len(buf) < offset+format.BtreeHeaderSizeInterior {
			return nil, dberrors.NewTruncated("interior page header", offset, format.BtreeHeaderSizeInterior, len(buf)-offset)
		}
		h.RightChild = binary.BigEndian.Uint32(buf[offset+format.BtreeRightmostPointer:])
		h.HeaderSize = format.BtreeHeaderSizeInterior
	}

	h.CellPtrOffset = offset + h.HeaderSize
	return h, nil
}

// IsLeaf reports whether the page is a leaf page.
func (h *PageHeader) IsLeaf() bool { return h.PageType.IsLeaf() }

// IsTable reports whether the page belongs to a table b-tree.
func (h *PageHeader) IsTable() bool { return h.PageType.IsTable() }

// ContentStart returns the start of the cell content area, mapping the
// stored 0 to 65536.
func (h *PageHeader) ContentStart() int {
	if h.CellContentStart == 0 {
		return format.MaxPageSize
	}
	return int(h.CellContentStart)
}

// String returns a string representation of the page header
func (h *PageHeader) String() string {
	return fmt.Sprintf("PageHeader{type=%s, cells=%d, contentStart=%d, freeblock=%d, fragmented=%d}",
		h.PageType, h.NumCells, h.ContentStart(), h.FirstFreeblock, h.FragmentedBytes)
}

// Page is one database page. It owns its raw bytes and holds no reference
// to the file it was read from. Overflow, freelist and pointer-map pages
// load like any other page but carry no b-tree header.
type Page struct {
	Number     uint32       // 1-based page number
	Data       []byte       // Raw page bytes, exactly page size long
	Header     *PageHeader  // Parsed b-tree page header; nil on non-b-tree pages
	UsableSize int          // Page size minus reserved bytes
	Encoding   utf.Encoding // Text encoding for record values
}

// NewPage wraps the raw bytes of page number and parses its b-tree header.
// A type byte that is not a b-tree type leaves Header nil. dbHeader supplies
// the usable size and text encoding; when nil the whole buffer is usable and
// text is UTF-8.
func NewPage(number uint32, data []byte, dbHeader *format.DatabaseHeader) (*Page, error) {
	if number == 0 {
		return nil, &dberrors.PageRangeError{Page: 0}
	}

	header, err := ParsePageHeader(data, number == 1)
	if err != nil && !errors.Is(err, dberrors.ErrInvalidPageType) {
		return nil, fmt.Errorf("page %d: %w", number, err)
	}

	p := &Page{
		Number:     number,
		Data:       data,
		Header:     header,
		UsableSize: len(data),
		Encoding:   utf.UTF8,
	}
	if dbHeader != nil {
		p.UsableSize = dbHeader.UsableSize()
		if enc := dbHeader.Encoding(); enc.Valid() {
			p.Encoding = enc
		}
	}
	return p, nil
}

// IsFirst reports whether this is page 1, which carries the file header.
func (p *Page) IsFirst() bool { return p.Number == 1 }

// Body returns the raw bytes without the 100-byte file header on page 1.
func (p *Page) Body() []byte {
	if p.IsFirst() {
		return p.Data[format.HeaderSize:]
	}
	return p.Data
}

// Type returns the page type byte. On a non-b-tree page it is whatever the
// first byte holds.
func (p *Page) Type() PageType {
	if p.Header != nil {
		return p.Header.PageType
	}
	if body := p.Body(); len(body) > 0 {
		return PageType(body[0])
	}
	return 0
}

// IsBtree reports whether the page has a b-tree page header.
func (p *Page) IsBtree() bool { return p.Header != nil }

// IsLeaf reports whether the page is a b-tree leaf page.
func (p *Page) IsLeaf() bool { return p.IsBtree() && p.Header.IsLeaf() }

// IsTable reports whether the page belongs to a table b-tree.
func (p *Page) IsTable() bool { return p.IsBtree() && p.Header.IsTable() }

// requireBtree fails with ErrInvalidPageType on pages without a b-tree header.
func (p *Page) requireBtree() error {
	if p.IsBtree() {
		return nil
	}
	return fmt.Errorf("page %d: %w: 0x%02x", p.Number, dberrors.ErrInvalidPageType, byte(p.Type()))
}

// Fingerprint returns the BLAKE3 digest of the raw page bytes.
func (p *Page) Fingerprint() [32]byte {
	return blake3.Sum256(p.Data)
}

// FingerprintHex returns Fingerprint as a hex string.
func (p *Page) FingerprintHex() string {
	sum := p.Fingerprint()
	return hex.EncodeToString(sum[:])
}

// CellOffsets returns the cell pointer array of p in on-disk order. Each
// offset is relative to the start of the raw page buffer, so on page 1 it
// already includes the 100-byte file header.
func CellOffsets(p *Page) ([]uint16, error) {
	if err := p.requireBtree(); err != nil {
		return nil, err
	}
	h := p.Header
	end := h.CellPtrOffset + 2*int(h.NumCells)
	if end > len(p.Data) {
		return nil, dberrors.NewTruncated("cell pointer array", h.CellPtrOffset, 2*int(h.NumCells), len(p.Data)-h.CellPtrOffset)
	}

	offsets := make([]uint16, h.NumCells)
	for i := range offsets {
		offsets[i] = binary.BigEndian.Uint16(p.Data[h.CellPtrOffset+2*i:])
	}
	return offsets, nil
}

// CellOffsets returns the cell pointer array of the page.
func (p *Page) CellOffsets() ([]uint16, error) {
	return CellOffsets(p)
}
