package btree

import (
	"encoding/binary"
	"testing"

	"github.com/FocuswithJustin/litereader/core/sqlite/internal/format"
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/record"
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/utf"
)

// encodeCell builds a table-leaf cell around payload.
func encodeCell(rowid int64, payload []byte) []byte {
	buf := utf.AppendVarint(nil, uint64(len(payload)))
	buf = utf.AppendVarint(buf, uint64(rowid))
	return append(buf, payload...)
}

// rowCell builds a table-leaf cell holding a record of values.
func rowCell(rowid int64, values ...record.Value) []byte {
	return encodeCell(rowid, record.Encode(values))
}

// buildLeafPage lays cells out from the end of the page backwards, the way
// SQLite fills a fresh page, and writes their pointers in order. When first
// is set the page starts with a database header.
func buildLeafPage(t testing.TB, pageSize int, first bool, cells ...[]byte) []byte {
	t.Helper()

	data := make([]byte, pageSize)
	hdrOff := 0
	if first {
		h := format.NewHeader(pageSize)
		h.DatabaseSize = 1
		copy(data, h.Serialize())
		hdrOff = format.HeaderSize
	}

	data[hdrOff] = byte(PageTypeLeafTable)
	binary.BigEndian.PutUint16(data[hdrOff+3:], uint16(len(cells)))

	content := pageSize
	ptr := hdrOff + format.BtreeHeaderSizeLeaf
	for _, c := range cells {
		content -= len(c)
		if content < hdrOff+format.BtreeHeaderSizeLeaf+2*len(cells) {
			t.Fatalf("cells do not fit in a %d byte page", pageSize)
		}
		copy(data[content:], c)
		binary.BigEndian.PutUint16(data[ptr:], uint16(content))
		ptr += 2
	}
	binary.BigEndian.PutUint16(data[hdrOff+5:], uint16(content%format.MaxPageSize))

	return data
}
