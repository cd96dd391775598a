package pager

import (
	"errors"
	"fmt"
	"io"
	"os"

	dberrors "github.com/FocuswithJustin/litereader/core/errors"
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/btree"
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/format"
)

// OpenHeader reads and parses the 100-byte header of the database at path.
// A file shorter than the header fails with an *errors.IOError.
func OpenHeader(path string) (*format.DatabaseHeader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, dberrors.NewIO("open", path, err)
	}
	defer f.Close()

	return readHeader(f, path)
}

func readHeader(r io.ReaderAt, path string) (*format.DatabaseHeader, error) {
	buf := make([]byte, format.HeaderSize)
	if _, err := r.ReadAt(buf, 0); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, dberrors.NewIO("read header of", path, err)
	}

	h, err := format.ParseHeader(buf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return h, nil
}

// GetPage reads the raw bytes of page n of the database at path. Any page
// can be read; the b-tree header is parsed when the page has one. The file
// is opened and closed within the call.
func GetPage(path string, h *format.DatabaseHeader, n uint32) (*btree.Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, dberrors.NewIO("open", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, dberrors.NewIO("stat", path, err)
	}

	data, err := readPageAt(f, path, h.GetPageSize(), pageCount(info.Size(), h.GetPageSize()), n)
	if err != nil {
		return nil, err
	}
	return btree.NewPage(n, data, h)
}

// readPageAt reads exactly one page from r. Page 0 and pages beyond count
// are out of range.
func readPageAt(r io.ReaderAt, path string, pageSize int, count uint32, n uint32) ([]byte, error) {
	if n == 0 || n > count {
		return nil, &dberrors.PageRangeError{Page: n, PageCount: count}
	}

	data := make([]byte, pageSize)
	offset := int64(n-1) * int64(pageSize)
	if _, err := r.ReadAt(data, offset); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &dberrors.PageRangeError{Page: n, PageCount: count}
		}
		return nil, dberrors.NewIO(fmt.Sprintf("read page %d of", n), path, err)
	}
	return data, nil
}

// pageCount returns the number of whole pages in size bytes.
func pageCount(size int64, pageSize int) uint32 {
	if pageSize <= 0 || size <= 0 {
		return 0
	}
	count := size / int64(pageSize)
	if count > int64(^uint32(0)) {
		return ^uint32(0)
	}
	return uint32(count)
}
