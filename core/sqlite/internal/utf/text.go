// Package utf provides the variable-length integer codec and text decoding
// used by the SQLite record format.
package utf

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"

	dberrors "github.com/FocuswithJustin/litereader/core/errors"
)

// Encoding is the database text encoding stored at header offset 56.
type Encoding uint32

const (
	// UTF8 encoding
	UTF8 Encoding = 1

	// UTF16LE is little-endian UTF-16
	UTF16LE Encoding = 2

	// UTF16BE is big-endian UTF-16
	UTF16BE Encoding = 3
)

// String returns the name SQLite uses for the encoding.
func (e Encoding) String() string {
	switch e {
	case UTF8:
		return "UTF-8"
	case UTF16LE:
		return "UTF-16le"
	case UTF16BE:
		return "UTF-16be"
	default:
		return fmt.Sprintf("encoding(%d)", uint32(e))
	}
}

// Valid reports whether e is one of the three encodings SQLite defines.
func (e Encoding) Valid() bool {
	return e >= UTF8 && e <= UTF16BE
}

// DecodeText converts the stored bytes of a TEXT value to a Go string.
// UTF-8 text must be valid UTF-8; the error wraps ErrInvalidUTF8 otherwise.
// UTF-16 text must have an even length; unpaired surrogates become U+FFFD.
// An encoding of 0 is treated as UTF-8.
func DecodeText(data []byte, enc Encoding) (string, error) {
	switch enc {
	case 0, UTF8:
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%w: %d bytes", dberrors.ErrInvalidUTF8, len(data))
		}
		return string(data), nil
	case UTF16LE, UTF16BE:
		if len(data)%2 != 0 {
			return "", fmt.Errorf("%w: odd-length %s text (%d bytes)", dberrors.ErrInvalidUTF8, enc, len(data))
		}
		out, err := utf16Decoding(enc).NewDecoder().Bytes(data)
		if err != nil {
			return "", fmt.Errorf("%w: %v", dberrors.ErrInvalidUTF8, err)
		}
		return string(out), nil
	default:
		return "", dberrors.NewUnsupported("text encoding", enc.String())
	}
}

func utf16Decoding(enc Encoding) encoding.Encoding {
	if enc == UTF16BE {
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	}
	return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
}

// EncodeText converts s to the stored byte form for enc.
func EncodeText(s string, enc Encoding) ([]byte, error) {
	switch enc {
	case 0, UTF8:
		return []byte(s), nil
	case UTF16LE, UTF16BE:
		return utf16Decoding(enc).NewEncoder().Bytes([]byte(s))
	default:
		return nil, dberrors.NewUnsupported("text encoding", enc.String())
	}
}
