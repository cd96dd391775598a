// Package record decodes SQLite record payloads: the serial-type header and
// the typed column values that follow it.
package record

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"

	dberrors "github.com/FocuswithJustin/litereader/core/errors"
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/utf"
)

// Serial type codes:
//   0: NULL
//   1: 8-bit signed integer
//   2: 16-bit big-endian signed integer
//   3: 24-bit big-endian signed integer
//   4: 32-bit big-endian signed integer
//   5: 48-bit big-endian signed integer
//   6: 64-bit big-endian signed integer
//   7: IEEE 754 float64 (big-endian)
//   8: integer constant 0 (no data stored)
//   9: integer constant 1 (no data stored)
//   10,11: Reserved for internal use
//   N>=12 (even): BLOB of (N-12)/2 bytes
//   N>=13 (odd): TEXT of (N-13)/2 bytes

// SerialType is a column's storage class tag as stored in a record header.
type SerialType uint64

const (
	SerialTypeNull    SerialType = 0
	SerialTypeInt8    SerialType = 1
	SerialTypeInt16   SerialType = 2
	SerialTypeInt24   SerialType = 3
	SerialTypeInt32   SerialType = 4
	SerialTypeInt48   SerialType = 5
	SerialTypeInt64   SerialType = 6
	SerialTypeFloat64 SerialType = 7
	SerialTypeZero    SerialType = 8
	SerialTypeOne     SerialType = 9
	serialTypeBlob    SerialType = 12
	serialTypeText    SerialType = 13
)

// IsBlob reports whether st is an even blob code (>= 12).
func (st SerialType) IsBlob() bool { return st >= serialTypeBlob && st%2 == 0 }

// IsText reports whether st is an odd text code (>= 13).
func (st SerialType) IsText() bool { return st >= serialTypeText && st%2 == 1 }

// Kind discriminates the variants of Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindInteger
	KindFloat
	KindBlob
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindBlob:
		return "blob"
	case KindText:
		return "text"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a decoded column value. Only the field matching Kind is set.
type Value struct {
	Kind  Kind
	Int   int64
	Float float64
	Blob  []byte
	Text  string
}

// Null returns the SQL NULL value.
func Null() Value { return Value{Kind: KindNull} }

// Integer returns an integer value.
func Integer(i int64) Value { return Value{Kind: KindInteger, Int: i} }

// Float returns a floating point value.
func Float(f float64) Value { return Value{Kind: KindFloat, Float: f} }

// Blob returns a blob value holding b.
func Blob(b []byte) Value { return Value{Kind: KindBlob, Blob: b} }

// Text returns a text value.
func Text(s string) Value { return Value{Kind: KindText, Text: s} }

// IsNull reports whether v is NULL.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// Equal reports whether v and o hold the same variant and payload. A nil
// blob equals an empty one. Floats compare bitwise, so NaN equals itself.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindInteger:
		return v.Int == o.Int
	case KindFloat:
		return math.Float64bits(v.Float) == math.Float64bits(o.Float)
	case KindBlob:
		return bytes.Equal(v.Blob, o.Blob)
	case KindText:
		return v.Text == o.Text
	default:
		return true
	}
}

// Any returns the value as nil, int64, float64, []byte or string.
func (v Value) Any() any {
	switch v.Kind {
	case KindInteger:
		return v.Int
	case KindFloat:
		return v.Float
	case KindBlob:
		return v.Blob
	case KindText:
		return v.Text
	default:
		return nil
	}
}

func (v Value) String() string {
	switch v.Kind {
	case KindInteger:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case KindBlob:
		return fmt.Sprintf("x'%X'", v.Blob)
	case KindText:
		return v.Text
	default:
		return "NULL"
	}
}

// SerialTypeLen returns the number of body bytes a value of the given serial
// type occupies. Reserved codes fail with ErrReservedSerialType.
func SerialTypeLen(st SerialType) (int, error) {
	switch st {
	case SerialTypeNull, SerialTypeZero, SerialTypeOne:
		return 0, nil
	case SerialTypeInt8:
		return 1, nil
	case SerialTypeInt16:
		return 2, nil
	case SerialTypeInt24:
		return 3, nil
	case SerialTypeInt32:
		return 4, nil
	case SerialTypeInt48:
		return 6, nil
	case SerialTypeInt64, SerialTypeFloat64:
		return 8, nil
	case 10, 11:
		return 0, &dberrors.SerialTypeError{SerialType: uint64(st), Err: dberrors.ErrReservedSerialType}
	}

	n := (st - serialTypeBlob) / 2
	if n > math.MaxInt {
		return 0, &dberrors.SerialTypeError{SerialType: uint64(st), Err: dberrors.ErrUnknownSerialType}
	}
	return int(n), nil
}

// SerialTypeFor returns the smallest serial type that can store v.
func SerialTypeFor(v Value) SerialType {
	switch v.Kind {
	case KindInteger:
		i := v.Int
		switch {
		case i == 0:
			return SerialTypeZero
		case i == 1:
			return SerialTypeOne
		case i >= math.MinInt8 && i <= math.MaxInt8:
			return SerialTypeInt8
		case i >= math.MinInt16 && i <= math.MaxInt16:
			return SerialTypeInt16
		case i >= -1<<23 && i < 1<<23:
			return SerialTypeInt24
		case i >= math.MinInt32 && i <= math.MaxInt32:
			return SerialTypeInt32
		case i >= -1<<47 && i < 1<<47:
			return SerialTypeInt48
		default:
			return SerialTypeInt64
		}
	case KindFloat:
		return SerialTypeFloat64
	case KindText:
		return serialTypeText + SerialType(2*len(v.Text))
	case KindBlob:
		return serialTypeBlob + SerialType(2*len(v.Blob))
	default:
		return SerialTypeNull
	}
}

// Decoder decodes values whose text is stored in a particular encoding.
// The zero Decoder reads UTF-8.
type Decoder struct {
	Encoding utf.Encoding
}

// DecodeValue decodes a UTF-8 database value of serial type st from the start
// of buf. It returns the value and the number of bytes consumed.
func DecodeValue(st SerialType, buf []byte) (Value, int, error) {
	return Decoder{}.DecodeValue(st, buf)
}

// DecodeValue decodes a value of serial type st from the start of buf.
// Integers narrower than 64 bits are sign-extended. Blob bytes are copied,
// so the returned value never aliases buf.
func (d Decoder) DecodeValue(st SerialType, buf []byte) (Value, int, error) {
	n, err := SerialTypeLen(st)
	if err != nil {
		return Value{}, 0, err
	}
	if n > len(buf) {
		return Value{}, 0, dberrors.NewTruncated(fmt.Sprintf("serial type %d", st), 0, n, len(buf))
	}

	switch st {
	case SerialTypeNull:
		return Null(), 0, nil
	case SerialTypeZero:
		return Integer(0), 0, nil
	case SerialTypeOne:
		return Integer(1), 0, nil
	case SerialTypeInt8:
		return Integer(int64(int8(buf[0]))), n, nil
	case SerialTypeInt16:
		return Integer(int64(int16(binary.BigEndian.Uint16(buf)))), n, nil
	case SerialTypeInt24:
		v := int64(buf[0])<<16 | int64(buf[1])<<8 | int64(buf[2])
		if buf[0]&0x80 != 0 {
			v |= ^0xffffff // Sign extend
		}
		return Integer(v), n, nil
	case SerialTypeInt32:
		return Integer(int64(int32(binary.BigEndian.Uint32(buf)))), n, nil
	case SerialTypeInt48:
		v := int64(buf[0])<<40 | int64(buf[1])<<32 |
			int64(buf[2])<<24 | int64(buf[3])<<16 |
			int64(buf[4])<<8 | int64(buf[5])
		if buf[0]&0x80 != 0 {
			v |= ^0xffffffffffff // Sign extend
		}
		return Integer(v), n, nil
	case SerialTypeInt64:
		return Integer(int64(binary.BigEndian.Uint64(buf))), n, nil
	case SerialTypeFloat64:
		return Float(math.Float64frombits(binary.BigEndian.Uint64(buf))), n, nil
	}

	if st.IsBlob() {
		b := make([]byte, n)
		copy(b, buf[:n])
		return Blob(b), n, nil
	}

	s, err := utf.DecodeText(buf[:n], d.Encoding)
	if err != nil {
		return Value{}, 0, err
	}
	return Text(s), n, nil
}

// AppendValue appends the body bytes of v, stored as serial type st, to dst.
func AppendValue(dst []byte, v Value, st SerialType) []byte {
	switch st {
	case SerialTypeNull, SerialTypeZero, SerialTypeOne:
		return dst
	case SerialTypeInt8:
		return append(dst, byte(v.Int))
	case SerialTypeInt16:
		return binary.BigEndian.AppendUint16(dst, uint16(v.Int))
	case SerialTypeInt24:
		u := uint32(v.Int)
		return append(dst, byte(u>>16), byte(u>>8), byte(u))
	case SerialTypeInt32:
		return binary.BigEndian.AppendUint32(dst, uint32(v.Int))
	case SerialTypeInt48:
		u := uint64(v.Int)
		return append(dst,
			byte(u>>40), byte(u>>32), byte(u>>24),
			byte(u>>16), byte(u>>8), byte(u))
	case SerialTypeInt64:
		return binary.BigEndian.AppendUint64(dst, uint64(v.Int))
	case SerialTypeFloat64:
		return binary.BigEndian.AppendUint64(dst, math.Float64bits(v.Float))
	}
	if st.IsBlob() {
		return append(dst, v.Blob...)
	}
	return append(dst, v.Text...)
}
