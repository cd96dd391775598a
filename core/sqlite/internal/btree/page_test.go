package btree

import (
	"encoding/binary"
	"errors"
	"reflect"
	"testing"

	"github.com/zeebo/blake3"

	dberrors "github.com/FocuswithJustin/litereader/core/errors"
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/format"
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/record"
)

func TestParsePageHeader(t *testing.T) {
	tests := []struct {
		name       string
		pageType   PageType
		first      bool
		wantLeaf   bool
		wantTable  bool
		headerSize int
	}{
		{"leaf table", PageTypeLeafTable, false, true, true, 8},
		{"interior table", PageTypeInteriorTable, false, false, true, 12},
		{"leaf index", PageTypeLeafIndex, false, true, false, 8},
		{"interior index", PageTypeInteriorIndex, false, false, false, 12},
		{"leaf table on page 1", PageTypeLeafTable, true, true, true, 8},
		{"interior table on page 1", PageTypeInteriorTable, true, false, true, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := make([]byte, 512)
			off := 0
			if tt.first {
				off = format.HeaderSize
			}
			data[off] = byte(tt.pageType)
			binary.BigEndian.PutUint16(data[off+1:], 300)
			binary.BigEndian.PutUint16(data[off+3:], 7)
			binary.BigEndian.PutUint16(data[off+5:], 400)
			data[off+7] = 3
			binary.BigEndian.PutUint32(data[off+8:], 42)

			h, err := ParsePageHeader(data, tt.first)
			if err != nil {
				t.Fatalf("ParsePageHeader() error = %v", err)
			}

			if h.PageType != tt.pageType {
				t.Errorf("PageType = %v, want %v", h.PageType, tt.pageType)
			}
			if h.FirstFreeblock != 300 || h.NumCells != 7 || h.ContentStart() != 400 || h.FragmentedBytes != 3 {
				t.Errorf("header fields = %+v", h)
			}
			if h.IsLeaf() != tt.wantLeaf || h.IsTable() != tt.wantTable {
				t.Errorf("IsLeaf/IsTable = %v/%v, want %v/%v", h.IsLeaf(), h.IsTable(), tt.wantLeaf, tt.wantTable)
			}
			if h.HeaderSize != tt.headerSize {
				t.Errorf("HeaderSize = %d, want %d", h.HeaderSize, tt.headerSize)
			}
			if h.CellPtrOffset != off+tt.headerSize {
				t.Errorf("CellPtrOffset = %d, want %d", h.CellPtrOffset, off+tt.headerSize)
			}

			wantRight := uint32(0)
			if !tt.wantLeaf {
				wantRight = 42
			}
			if h.RightChild != wantRight {
				t.Errorf("RightChild = %d, want %d", h.RightChild, wantRight)
			}
		})
	}
}

func TestParsePageHeaderErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		first   bool
		wantErr error
	}{
		{"empty", nil, false, dberrors.ErrTruncatedInput},
		{"short leaf header", []byte{0x0d, 0, 0, 0}, false, dberrors.ErrTruncatedInput},
		{"short interior header", []byte{0x05, 0, 0, 0, 0, 0, 0, 0, 0, 0}, false, dberrors.ErrTruncatedInput},
		{"page 1 without room for header", make([]byte, 104), true, dberrors.ErrTruncatedInput},
		{"zero type byte", make([]byte, 512), false, dberrors.ErrInvalidPageType},
		{"unknown type byte", append([]byte{0x0e}, make([]byte, 511)...), false, dberrors.ErrInvalidPageType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePageHeader(tt.data, tt.first)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ParsePageHeader() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestContentStartZeroMeans65536(t *testing.T) {
	h := &PageHeader{PageType: PageTypeLeafTable}
	if h.ContentStart() != 65536 {
		t.Errorf("ContentStart() = %d, want 65536", h.ContentStart())
	}
}

func TestCellOffsets(t *testing.T) {
	data := buildLeafPage(t, 512, false,
		rowCell(1, record.Integer(10)),
		rowCell(2, record.Integer(20)),
		rowCell(3, record.Integer(30)),
	)
	p, err := NewPage(2, data, nil)
	if err != nil {
		t.Fatal(err)
	}

	offsets, err := p.CellOffsets()
	if err != nil {
		t.Fatalf("CellOffsets() error = %v", err)
	}
	if len(offsets) != 3 {
		t.Fatalf("len(offsets) = %d, want 3", len(offsets))
	}
	// Cells were written from the end of the page backwards
	if !(offsets[0] > offsets[1] && offsets[1] > offsets[2]) {
		t.Errorf("offsets = %v, want descending", offsets)
	}
	if int(offsets[2]) != p.Header.ContentStart() {
		t.Errorf("last offset %d != content start %d", offsets[2], p.Header.ContentStart())
	}
}

func TestCellOffsetsFirstPageAreAbsolute(t *testing.T) {
	// 100-byte file header, 8-byte page header, one pointer holding 108
	data := make([]byte, 512)
	copy(data, format.NewHeader(512).Serialize())
	data[100] = byte(PageTypeLeafTable)
	binary.BigEndian.PutUint16(data[103:], 1)
	binary.BigEndian.PutUint16(data[108:], 108)

	p, err := NewPage(1, data, nil)
	if err != nil {
		t.Fatal(err)
	}
	offsets, err := CellOffsets(p)
	if err != nil {
		t.Fatalf("CellOffsets() error = %v", err)
	}
	if !reflect.DeepEqual(offsets, []uint16{108}) {
		t.Fatalf("CellOffsets() = %v, want [108]", offsets)
	}

	// The cell header is read from body offset 8: payload size 0x00 at 8,
	// rowid 0x6c at 9, and the empty payload leaves the record truncated at 10.
	_, err = DecodeCell(p.Body(), offsets[0], true)
	var te *dberrors.TruncatedError
	if !errors.As(err, &te) {
		t.Fatalf("DecodeCell() error = %v, want *TruncatedError", err)
	}
	if te.Offset != 10 {
		t.Errorf("TruncatedError.Offset = %d, want 10", te.Offset)
	}
}

func TestCellOffsetsTruncated(t *testing.T) {
	data := buildLeafPage(t, 512, false)
	binary.BigEndian.PutUint16(data[3:], 300) // 600 bytes of pointers cannot fit

	p, err := NewPage(2, data, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := CellOffsets(p); !errors.Is(err, dberrors.ErrTruncatedInput) {
		t.Errorf("CellOffsets() error = %v, want ErrTruncatedInput", err)
	}
}

func TestNewPage(t *testing.T) {
	data := buildLeafPage(t, 1024, true, rowCell(1, record.Text("x")))

	h := format.NewHeader(1024)
	h.ReservedSpace = 24
	p, err := NewPage(1, data, h)
	if err != nil {
		t.Fatalf("NewPage() error = %v", err)
	}
	if !p.IsFirst() || p.Type() != PageTypeLeafTable || !p.IsLeaf() || !p.IsTable() {
		t.Errorf("page = %+v", p)
	}
	if p.UsableSize != 1000 {
		t.Errorf("UsableSize = %d, want 1000", p.UsableSize)
	}
	if len(p.Body()) != 1024-format.HeaderSize {
		t.Errorf("len(Body()) = %d, want %d", len(p.Body()), 1024-format.HeaderSize)
	}

	if _, err := NewPage(0, data, h); !errors.Is(err, dberrors.ErrPageOutOfRange) {
		t.Errorf("NewPage(0) error = %v, want ErrPageOutOfRange", err)
	}
	if _, err := NewPage(2, []byte{0x0d, 0, 0}, h); !errors.Is(err, dberrors.ErrTruncatedInput) {
		t.Errorf("NewPage(short) error = %v, want ErrTruncatedInput", err)
	}
}

func TestNewPageNonBtree(t *testing.T) {
	// An overflow page starts with the next page number
	data := make([]byte, 512)
	data[3] = 7

	p, err := NewPage(6, data, format.NewHeader(512))
	if err != nil {
		t.Fatalf("NewPage() error = %v", err)
	}
	if p.IsBtree() || p.IsLeaf() || p.IsTable() {
		t.Errorf("IsBtree/IsLeaf/IsTable = %v/%v/%v, want all false", p.IsBtree(), p.IsLeaf(), p.IsTable())
	}
	if p.Type() != 0 || p.Type().Valid() {
		t.Errorf("Type() = %s", p.Type())
	}
	if len(p.FingerprintHex()) != 64 {
		t.Errorf("FingerprintHex() = %q", p.FingerprintHex())
	}

	if _, err := p.CellOffsets(); !errors.Is(err, dberrors.ErrInvalidPageType) {
		t.Errorf("CellOffsets() error = %v, want ErrInvalidPageType", err)
	}
	if _, err := p.Cells(); !errors.Is(err, dberrors.ErrInvalidPageType) {
		t.Errorf("Cells() error = %v, want ErrInvalidPageType", err)
	}
	if _, err := p.Cell(0); !errors.Is(err, dberrors.ErrInvalidPageType) {
		t.Errorf("Cell(0) error = %v, want ErrInvalidPageType", err)
	}
}

func TestFingerprint(t *testing.T) {
	data := buildLeafPage(t, 512, false, rowCell(1, record.Integer(5)))
	p, err := NewPage(3, data, nil)
	if err != nil {
		t.Fatal(err)
	}

	if p.Fingerprint() != blake3.Sum256(data) {
		t.Error("Fingerprint() does not match the BLAKE3 digest of the page")
	}
	if len(p.FingerprintHex()) != 64 {
		t.Errorf("len(FingerprintHex()) = %d, want 64", len(p.FingerprintHex()))
	}

	before := p.Fingerprint()
	data[500] ^= 0xFF
	if p.Fingerprint() == before {
		t.Error("Fingerprint() did not change after modifying the page")
	}
}

func TestPageTypeString(t *testing.T) {
	tests := []struct {
		pt   PageType
		want string
	}{
		{PageTypeInteriorIndex, "interior index"},
		{PageTypeInteriorTable, "interior table"},
		{PageTypeLeafIndex, "leaf index"},
		{PageTypeLeafTable, "leaf table"},
		{PageType(0x42), "unknown(0x42)"},
	}
	for _, tt := range tests {
		if got := tt.pt.String(); got != tt.want {
			t.Errorf("PageType(0x%02x).String() = %q, want %q", byte(tt.pt), got, tt.want)
		}
	}
}
