package record

import (
	"fmt"
	"math"

	dberrors "github.com/FocuswithJustin/litereader/core/errors"
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/utf"
)

// SQLite Record Format
//
// A record consists of:
// 1. Header: varint header_size, followed by varint type codes for each column
// 2. Body: column values in sequence
//
// header_size counts itself, so the serial type varints occupy
// header_size - len(varint(header_size)) bytes.

// Record is a decoded record. SerialTypes and Values are parallel: Values[i]
// was decoded using SerialTypes[i].
type Record struct {
	HeaderSize  uint64
	SerialTypes []SerialType
	Values      []Value
}

// Len returns the number of columns.
func (r *Record) Len() int {
	return len(r.Values)
}

// Column returns the value of column i, or NULL when the record has fewer
// columns (SQLite omits trailing columns added by ALTER TABLE).
func (r *Record) Column(i int) Value {
	if i < 0 || i >= len(r.Values) {
		return Null()
	}
	return r.Values[i]
}

// Decode decodes a UTF-8 record that starts at offset within buf.
func Decode(buf []byte, offset int) (*Record, error) {
	return Decoder{}.Decode(buf, offset)
}

// Decode decodes a record that starts at offset within buf. The record body
// may be followed by unrelated bytes; only what the header describes is read.
func (d Decoder) Decode(buf []byte, offset int) (*Record, error) {
	headerSize, n, err := utf.GetVarintAt(buf, offset)
	if err != nil {
		return nil, fmt.Errorf("record header size: %w", err)
	}
	if headerSize < uint64(n) {
		return nil, fmt.Errorf("%w: header size %d smaller than its own varint", dberrors.ErrMalformedRecord, headerSize)
	}

	if headerSize > uint64(len(buf)-offset) {
		need := int(min(headerSize, math.MaxInt32))
		return nil, dberrors.NewTruncated("record header", offset, need, len(buf)-offset)
	}
	headerEnd := offset + int(headerSize)

	pos := offset + n
	var serialTypes []SerialType
	for pos < headerEnd {
		st, m, err := utf.GetVarintAt(buf[:headerEnd], pos)
		if err != nil {
			if dberrors.Is(err, dberrors.ErrTruncatedInput) {
				return nil, fmt.Errorf("%w: serial type at offset %d overruns header ending at %d",
					dberrors.ErrMalformedRecord, pos, headerEnd)
			}
			return nil, err
		}
		serialTypes = append(serialTypes, SerialType(st))
		pos += m
	}

	values := make([]Value, len(serialTypes))
	for i, st := range serialTypes {
		v, m, err := d.DecodeValue(st, buf[pos:])
		if err != nil {
			var te *dberrors.TruncatedError
			if dberrors.As(err, &te) {
				te.Offset += pos
			}
			return nil, fmt.Errorf("column %d: %w", i, err)
		}
		values[i] = v
		pos += m
	}

	return &Record{
		HeaderSize:  headerSize,
		SerialTypes: serialTypes,
		Values:      values,
	}, nil
}

// Encode builds a record payload holding values, choosing the smallest
// serial type for each. Text is stored as UTF-8.
func Encode(values []Value) []byte {
	serialTypes := make([]SerialType, len(values))
	typesSize := 0
	bodySize := 0
	for i, v := range values {
		st := SerialTypeFor(v)
		serialTypes[i] = st
		typesSize += utf.VarintLen(uint64(st))
		n, _ := SerialTypeLen(st)
		bodySize += n
	}

	// The header size includes its own varint, so iterate until stable
	headerSize := typesSize + 1
	for {
		next := utf.VarintLen(uint64(headerSize)) + typesSize
		if next == headerSize {
			break
		}
		headerSize = next
	}

	buf := make([]byte, 0, headerSize+bodySize)
	buf = utf.AppendVarint(buf, uint64(headerSize))
	for _, st := range serialTypes {
		buf = utf.AppendVarint(buf, uint64(st))
	}
	for i, v := range values {
		buf = AppendValue(buf, v, serialTypes[i])
	}
	return buf
}
