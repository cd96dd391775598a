package utf

import (
	dberrors "github.com/FocuswithJustin/litereader/core/errors"
)

// Varint encoding and decoding functions following SQLite's format.
//
// SQLite uses a variable-length integer encoding where:
// - 1-9 bytes encode a 64-bit integer
// - High bit of each byte indicates continuation (except byte 9)
// - Format:
//     7 bits - A
//    14 bits - BA
//    21 bits - BBA
//    28 bits - BBBA
//    35 bits - BBBBA
//    42 bits - BBBBBA
//    49 bits - BBBBBBA
//    56 bits - BBBBBBBA
//    64 bits - BBBBBBBBC
//
// Where:
//   A = 0xxxxxxx    7 bits of data and one flag bit
//   B = 1xxxxxxx    7 bits of data and one flag bit
//   C = xxxxxxxx    8 bits of data (no flag bit on 9th byte)

// MaxVarintLen is the longest varint encoding in bytes.
const MaxVarintLen = 9

// GetVarint decodes a varint from the start of buf and returns the value and
// the number of bytes consumed. Only the bytes the encoding actually needs
// are read; if buf ends first the error wraps ErrTruncatedInput.
func GetVarint(buf []byte) (uint64, int, error) {
	// Fast path for 1-byte varints
	if len(buf) > 0 && buf[0] < 0x80 {
		return uint64(buf[0]), 1, nil
	}

	var v uint64
	for i := 0; i < MaxVarintLen-1; i++ {
		if i >= len(buf) {
			return 0, 0, dberrors.NewTruncated("varint", 0, i+1, len(buf))
		}
		b := buf[i]
		v = v<<7 | uint64(b&0x7f)
		if b&0x80 == 0 {
			return v, i + 1, nil
		}
	}

	// 9th byte contributes all 8 bits
	if len(buf) < MaxVarintLen {
		return 0, 0, dberrors.NewTruncated("varint", 0, MaxVarintLen, len(buf))
	}
	v = v<<8 | uint64(buf[MaxVarintLen-1])
	return v, MaxVarintLen, nil
}

// GetVarintAt decodes a varint starting at offset within buf. Truncation
// errors report the absolute offset.
func GetVarintAt(buf []byte, offset int) (uint64, int, error) {
	if offset < 0 || offset > len(buf) {
		return 0, 0, dberrors.NewTruncated("varint", offset, 1, len(buf)-offset)
	}
	v, n, err := GetVarint(buf[offset:])
	if err != nil {
		if te, ok := err.(*dberrors.TruncatedError); ok {
			te.Offset = offset
		}
		return 0, 0, err
	}
	return v, n, nil
}

// PutVarint encodes a 64-bit unsigned integer into buf and returns the number of bytes written.
// buf must be at least 9 bytes long.
func PutVarint(buf []byte, v uint64) int {
	// Fast path for small values
	if v <= 0x7f {
		buf[0] = byte(v)
		return 1
	}
	if v <= 0x3fff {
		buf[0] = byte((v>>7)&0x7f) | 0x80
		buf[1] = byte(v & 0x7f)
		return 2
	}

	return putVarint64(buf, v)
}

// putVarint64 handles encoding of larger varints.
func putVarint64(buf []byte, v uint64) int {
	// Anything above 56 bits needs the 9-byte form
	if v&(uint64(0xff000000)<<32) != 0 {
		buf[8] = byte(v)
		v >>= 8
		for i := 7; i >= 0; i-- {
			buf[i] = byte(v&0x7f) | 0x80
			v >>= 7
		}
		return 9
	}

	// Emit 7-bit groups least significant first, then reverse
	var temp [MaxVarintLen]byte
	n := 0
	for {
		temp[n] = byte(v&0x7f) | 0x80
		n++
		v >>= 7
		if v == 0 {
			break
		}
	}

	// Least significant group is written last and carries no continuation bit
	temp[0] &= 0x7f

	for i := 0; i < n; i++ {
		buf[i] = temp[n-1-i]
	}

	return n
}

// AppendVarint appends the varint encoding of v to dst.
func AppendVarint(dst []byte, v uint64) []byte {
	var buf [MaxVarintLen]byte
	n := PutVarint(buf[:], v)
	return append(dst, buf[:n]...)
}

// EncodeVarint returns the varint encoding of v.
func EncodeVarint(v uint64) []byte {
	return AppendVarint(make([]byte, 0, VarintLen(v)), v)
}

// VarintLen returns the number of bytes needed to encode v as a varint.
func VarintLen(v uint64) int {
	if v <= 0x7f {
		return 1
	}
	if v <= 0x3fff {
		return 2
	}
	if v&(uint64(0xff000000)<<32) != 0 {
		return 9
	}
	i := 1
	for v >>= 7; v != 0; v >>= 7 {
		i++
	}
	return i
}
