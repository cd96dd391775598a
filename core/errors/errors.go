// Package errors provides the error taxonomy shared by the litereader decoder.
//
// Every failure the decoder can report maps to one of the sentinel errors
// below. Typed errors carry the context (path, page number, offset, serial
// type) and unwrap to their sentinel, so callers test with errors.Is and
// inspect details with errors.As.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for each failure kind
var (
	// ErrIO indicates a file open, seek or read failure
	ErrIO = errors.New("i/o error")
	// ErrInvalidMagic indicates the file does not start with the SQLite signature
	ErrInvalidMagic = errors.New("invalid database magic")
	// ErrInvalidHeader indicates a header field outside its legal range
	ErrInvalidHeader = errors.New("invalid database header")
	// ErrPageOutOfRange indicates a page number beyond the file extent
	ErrPageOutOfRange = errors.New("page out of range")
	// ErrTruncatedInput indicates a read that would run past the supplied buffer
	ErrTruncatedInput = errors.New("truncated input")
	// ErrReservedSerialType indicates serial type 10 or 11
	ErrReservedSerialType = errors.New("reserved serial type")
	// ErrUnknownSerialType indicates a serial type with no defined meaning
	ErrUnknownSerialType = errors.New("unknown serial type")
	// ErrInvalidUTF8 indicates a text value whose bytes are not valid UTF-8
	ErrInvalidUTF8 = errors.New("invalid utf-8 text")
	// ErrMalformedRecord indicates a record header inconsistent with its size
	ErrMalformedRecord = errors.New("malformed record")
	// ErrInvalidPageType indicates a page type byte that is not a B-tree page
	ErrInvalidPageType = errors.New("invalid page type")
	// ErrUnsupported indicates a valid structure this decoder does not read
	ErrUnsupported = errors.New("unsupported")
	// ErrNotFound indicates a named schema object does not exist
	ErrNotFound = errors.New("not found")
)

// IOError represents a file operation failure. The underlying OS error is
// preserved and reachable through errors.Is / errors.As.
type IOError struct {
	Operation string // Operation being performed (e.g., "open", "read")
	Path      string // File path involved
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

// Unwrap yields both ErrIO and the underlying error.
func (e *IOError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrIO}
	}
	return []error{ErrIO, e.Err}
}

// PageRangeError reports a page number that cannot be read from the file.
type PageRangeError struct {
	Page      uint32 // Requested 1-based page number
	PageCount uint32 // Number of whole pages in the file
}

func (e *PageRangeError) Error() string {
	return fmt.Sprintf("page %d out of range (file has %d pages)", e.Page, e.PageCount)
}

func (e *PageRangeError) Unwrap() error {
	return ErrPageOutOfRange
}

// TruncatedError reports a decode step that needed more bytes than the
// buffer holds.
type TruncatedError struct {
	What   string // What was being decoded (e.g., "varint", "serial type 6")
	Offset int    // Offset of the read within the buffer
	Need   int    // Bytes required
	Have   int    // Bytes available from Offset
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("truncated %s at offset %d: need %d bytes, have %d", e.What, e.Offset, e.Need, e.Have)
}

func (e *TruncatedError) Unwrap() error {
	return ErrTruncatedInput
}

// SerialTypeError reports a serial type tag that cannot be decoded.
type SerialTypeError struct {
	SerialType uint64
	Err        error // ErrReservedSerialType or ErrUnknownSerialType
}

func (e *SerialTypeError) Error() string {
	return fmt.Sprintf("%v: %d", e.Err, e.SerialType)
}

func (e *SerialTypeError) Unwrap() error {
	return e.Err
}

// UnsupportedError represents an unsupported feature or format
type UnsupportedError struct {
	Feature string // Feature or format that is unsupported
	Reason  string // Why it's not supported
	Err     error  // Underlying error, if any
}

func (e *UnsupportedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unsupported %s: %s", e.Feature, e.Reason)
	}
	return fmt.Sprintf("unsupported %s", e.Feature)
}

func (e *UnsupportedError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrUnsupported
}

// NotFoundError represents a schema object that does not exist
type NotFoundError struct {
	Resource string // Type of object (e.g., "table")
	ID       string // Name of the object
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// Helper functions for creating common errors

// NewIO creates an IOError
func NewIO(operation, path string, err error) *IOError {
	return &IOError{
		Operation: operation,
		Path:      path,
		Err:       err,
	}
}

// NewTruncated creates a TruncatedError
func NewTruncated(what string, offset, need, have int) *TruncatedError {
	if have < 0 {
		have = 0
	}
	return &TruncatedError{
		What:   what,
		Offset: offset,
		Need:   need,
		Have:   have,
	}
}

// NewUnsupported creates an UnsupportedError
func NewUnsupported(feature, reason string) *UnsupportedError {
	return &UnsupportedError{
		Feature: feature,
		Reason:  reason,
	}
}

// NewNotFound creates a NotFoundError
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		ID:       id,
	}
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target any) bool {
	return errors.As(err, target)
}
