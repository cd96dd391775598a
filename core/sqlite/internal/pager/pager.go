package pager

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/ulikunitz/xz"

	dberrors "github.com/FocuswithJustin/litereader/core/errors"
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/btree"
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/format"
)

// Default values
const (
	DefaultCacheSize = 2000 // Default number of pages to cache
)

// xzMagic starts every xz stream.
var xzMagic = []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}

// Injectable for tests
var (
	osOpen      = os.Open
	xzNewReader = xz.NewReader
	ioReadAll   = io.ReadAll
)

// ErrClosed is returned by a Pager after Close.
var ErrClosed = errors.New("pager is closed")

// Options configures a Pager.
type Options struct {
	// CacheSize is the maximum number of pages kept in memory.
	// Zero selects DefaultCacheSize; a negative value disables caching.
	CacheSize int64

	// Logger receives debug output. Nil uses slog.Default().
	Logger *slog.Logger
}

// Pager serves pages of one database file. It is safe for concurrent use.
type Pager struct {
	path       string
	src        io.ReaderAt
	closer     io.Closer
	size       int64
	compressed bool

	header    *format.DatabaseHeader
	pageSize  int
	pageCount uint32

	cache  *ristretto.Cache[uint32, []byte]
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// Open opens the database at path for reading. xz-compressed files are
// decompressed into memory first.
func Open(path string, opts Options) (*Pager, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	f, err := osOpen(path)
	if err != nil {
		return nil, dberrors.NewIO("open", path, err)
	}

	p := &Pager{path: path, logger: logger.With("path", path)}

	compressed, err := isXZ(f)
	if err != nil {
		f.Close()
		return nil, dberrors.NewIO("read", path, err)
	}

	if compressed {
		data, err := decompress(f)
		f.Close()
		if err != nil {
			return nil, dberrors.NewIO("decompress", path, err)
		}
		p.src = bytes.NewReader(data)
		p.size = int64(len(data))
		p.compressed = true
	} else {
		info, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, dberrors.NewIO("stat", path, err)
		}
		p.src = f
		p.closer = f
		p.size = info.Size()
	}

	if p.header, err = readHeader(p.src, path); err != nil {
		p.closeSource()
		return nil, err
	}
	if err := p.header.Validate(); err != nil {
		p.closeSource()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	p.pageSize = p.header.GetPageSize()
	p.pageCount = pageCount(p.size, p.pageSize)

	if opts.CacheSize >= 0 {
		maxPages := opts.CacheSize
		if maxPages == 0 {
			maxPages = DefaultCacheSize
		}
		p.cache, err = ristretto.NewCache(&ristretto.Config[uint32, []byte]{
			NumCounters: maxPages * 10,
			MaxCost:     maxPages,
			BufferItems: 64,
		})
		if err != nil {
			p.closeSource()
			return nil, fmt.Errorf("failed to create page cache: %w", err)
		}
	}

	p.logger.Debug("opened database",
		"page_size", p.pageSize,
		"page_count", p.pageCount,
		"compressed", p.compressed,
		"cache_pages", opts.CacheSize)

	return p, nil
}

// isXZ sniffs the first bytes of r for the xz magic.
func isXZ(r io.ReaderAt) (bool, error) {
	magic := make([]byte, len(xzMagic))
	n, err := r.ReadAt(magic, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	return n == len(xzMagic) && bytes.Equal(magic, xzMagic), nil
}

func decompress(f *os.File) ([]byte, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	r, err := xzNewReader(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("failed to create xz reader: %w", err)
	}
	return ioReadAll(r)
}

// Close releases the file handle and the page cache.
func (p *Pager) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	if p.cache != nil {
		p.cache.Close()
	}
	return p.closeSource()
}

func (p *Pager) closeSource() error {
	if p.closer == nil {
		return nil
	}
	err := p.closer.Close()
	p.closer = nil
	if err != nil {
		return dberrors.NewIO("close", p.path, err)
	}
	return nil
}

// Path returns the path the pager was opened with.
func (p *Pager) Path() string { return p.path }

// Header returns a copy of the database header.
func (p *Pager) Header() *format.DatabaseHeader {
	h := *p.header
	return &h
}

// PageSize returns the page size in bytes.
func (p *Pager) PageSize() int { return p.pageSize }

// PageCount returns the number of whole pages in the file.
func (p *Pager) PageCount() uint32 { return p.pageCount }

// Size returns the database size in bytes, after decompression.
func (p *Pager) Size() int64 { return p.size }

// Compressed reports whether the database was read from an xz stream.
func (p *Pager) Compressed() bool { return p.compressed }

// RawPage returns a private copy of the bytes of page n.
func (p *Pager) RawPage(n uint32) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return nil, ErrClosed
	}

	if p.cache != nil {
		if data, ok := p.cache.Get(n); ok {
			return bytes.Clone(data), nil
		}
	}

	data, err := readPageAt(p.src, p.path, p.pageSize, p.pageCount, n)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("page cache miss", "page", n)

	if p.cache != nil {
		p.cache.Set(n, bytes.Clone(data), 1)
	}
	return data, nil
}

// Page returns page n, with its b-tree header parsed when it has one.
func (p *Pager) Page(n uint32) (*btree.Page, error) {
	data, err := p.RawPage(n)
	if err != nil {
		return nil, err
	}
	return btree.NewPage(n, data, p.header)
}

// Wait blocks until pending cache writes are visible to readers.
func (p *Pager) Wait() {
	if p.cache != nil {
		p.cache.Wait()
	}
}
