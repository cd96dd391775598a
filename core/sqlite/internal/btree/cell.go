package btree

import (
	"fmt"

	dberrors "github.com/FocuswithJustin/litereader/core/errors"
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/format"
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/record"
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/utf"
)

// Cell is a decoded table-leaf cell.
// Format: varint(payload_size), varint(rowid), payload
type Cell struct {
	Offset      uint16 // Offset of the cell within the raw page
	PayloadSize uint64 // Declared payload size in bytes
	RowID       int64
	Record      *record.Record
}

// String returns a string representation of the cell
func (c *Cell) String() string {
	return fmt.Sprintf("Cell{offset=%d, rowid=%d, payloadSize=%d, columns=%d}",
		c.Offset, c.RowID, c.PayloadSize, c.Record.Len())
}

// CellDecoder decodes table-leaf cells for a database with a given usable
// page size and text encoding.
type CellDecoder struct {
	// UsableSize enables the overflow check when non-zero.
	UsableSize int
	Encoding   utf.Encoding
}

// DecodeCell decodes the UTF-8 table-leaf cell at offset. body is the page
// without its file header (Page.Body), and offset is a cell pointer taken
// from the raw page, so on the first page 100 is subtracted before reading.
func DecodeCell(body []byte, offset uint16, isFirstPage bool) (*Cell, error) {
	return CellDecoder{}.Decode(body, offset, isFirstPage)
}

// Decode decodes the table-leaf cell at offset. See DecodeCell.
func (d CellDecoder) Decode(body []byte, offset uint16, isFirstPage bool) (*Cell, error) {
	pos := int(offset)
	if isFirstPage {
		if pos < format.HeaderSize {
			return nil, fmt.Errorf("%w: cell offset %d lies inside the file header", dberrors.ErrMalformedRecord, offset)
		}
		pos -= format.HeaderSize
	}

	payloadSize, n, err := utf.GetVarintAt(body, pos)
	if err != nil {
		return nil, fmt.Errorf("cell payload size: %w", err)
	}
	pos += n

	rowid, n, err := utf.GetVarintAt(body, pos)
	if err != nil {
		return nil, fmt.Errorf("cell rowid: %w", err)
	}
	pos += n

	if d.UsableSize > 0 && payloadSize > uint64(calculateMaxLocal(d.UsableSize)) {
		return nil, &dberrors.UnsupportedError{
			Feature: "overflow pages",
			Reason:  fmt.Sprintf("payload of %d bytes exceeds the %d bytes stored on a page", payloadSize, calculateMaxLocal(d.UsableSize)),
		}
	}
	if payloadSize > uint64(len(body)-pos) {
		return nil, dberrors.NewTruncated("cell payload", pos, int(min(payloadSize, uint64(len(body)+1))), len(body)-pos)
	}
	end := pos + int(payloadSize)

	rec, err := record.Decoder{Encoding: d.Encoding}.Decode(body[:end], pos)
	if err != nil {
		return nil, fmt.Errorf("cell at offset %d: %w", offset, err)
	}

	return &Cell{
		Offset:      offset,
		PayloadSize: payloadSize,
		RowID:       int64(rowid),
		Record:      rec,
	}, nil
}

// calculateMaxLocal returns the largest payload a table-leaf cell stores
// without spilling to overflow pages.
func calculateMaxLocal(usableSize int) int {
	return usableSize - 35
}

// cellDecoder returns a decoder configured for p.
func (p *Page) cellDecoder() CellDecoder {
	return CellDecoder{UsableSize: p.UsableSize, Encoding: p.Encoding}
}

// Cell decodes the i-th cell of a table-leaf page.
func (p *Page) Cell(i int) (*Cell, error) {
	if err := p.requireTableLeaf(); err != nil {
		return nil, err
	}
	offsets, err := CellOffsets(p)
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= len(offsets) {
		return nil, dberrors.NewNotFound("cell", fmt.Sprintf("%d on page %d (page has %d cells)", i, p.Number, len(offsets)))
	}
	return p.cellDecoder().Decode(p.Body(), offsets[i], p.IsFirst())
}

// Cells decodes every cell of a table-leaf page in on-disk order.
// Decoding stops at the first corrupt cell.
func (p *Page) Cells() ([]*Cell, error) {
	if err := p.requireTableLeaf(); err != nil {
		return nil, err
	}
	offsets, err := CellOffsets(p)
	if err != nil {
		return nil, err
	}

	d := p.cellDecoder()
	body := p.Body()
	cells := make([]*Cell, 0, len(offsets))
	for i, off := range offsets {
		c, err := d.Decode(body, off, p.IsFirst())
		if err != nil {
			return nil, fmt.Errorf("page %d cell %d: %w", p.Number, i, err)
		}
		cells = append(cells, c)
	}
	return cells, nil
}

func (p *Page) requireTableLeaf() error {
	if err := p.requireBtree(); err != nil {
		return err
	}
	if p.Type() != PageTypeLeafTable {
		return dberrors.NewUnsupported("page type", fmt.Sprintf("page %d is a %s page; only leaf table cells are decoded", p.Number, p.Type()))
	}
	return nil
}
