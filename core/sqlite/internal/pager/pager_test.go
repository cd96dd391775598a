package pager

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ulikunitz/xz"

	dberrors "github.com/FocuswithJustin/litereader/core/errors"
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/btree"
	"github.com/FocuswithJustin/litereader/core/sqlite/internal/utf"
	"github.com/FocuswithJustin/litereader/internal/sqlitetest"
)

func TestOpenHeader(t *testing.T) {
	path := sqlitetest.Fruits(t)

	h, err := OpenHeader(path)
	if err != nil {
		t.Fatalf("OpenHeader() error = %v", err)
	}
	if h.GetPageSize() != 512 {
		t.Errorf("page size = %d, want 512", h.GetPageSize())
	}
	if h.Encoding() != utf.UTF8 {
		t.Errorf("encoding = %v, want UTF-8", h.Encoding())
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if int64(h.DatabaseSize)*512 != info.Size() {
		t.Errorf("DatabaseSize = %d pages, file is %d bytes", h.DatabaseSize, info.Size())
	}
	if err := h.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestOpenHeaderErrors(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, data []byte) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	tests := []struct {
		name    string
		path    string
		wantErr []error
	}{
		{"missing file", filepath.Join(dir, "missing.db"), []error{dberrors.ErrIO, fs.ErrNotExist}},
		{"empty file", write("empty.db", nil), []error{dberrors.ErrIO, io.ErrUnexpectedEOF}},
		{"short file", write("short.db", []byte("SQLite format 3\x00")), []error{dberrors.ErrIO, io.ErrUnexpectedEOF}},
		{"bad magic", write("magic.db", make([]byte, 512)), []error{dberrors.ErrInvalidMagic}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := OpenHeader(tt.path)
			if err == nil {
				t.Fatal("OpenHeader() expected error")
			}
			for _, want := range tt.wantErr {
				if !errors.Is(err, want) {
					t.Errorf("OpenHeader() error = %v, want %v", err, want)
				}
			}
		})
	}
}

func TestGetPage(t *testing.T) {
	path := sqlitetest.Fruits(t)
	h, err := OpenHeader(path)
	if err != nil {
		t.Fatal(err)
	}

	first, err := GetPage(path, h, 1)
	if err != nil {
		t.Fatalf("GetPage(1) error = %v", err)
	}
	if !first.IsFirst() || first.Type() != btree.PageTypeLeafTable {
		t.Errorf("page 1 = %s", first.Header)
	}
	if len(first.Data) != 512 {
		t.Errorf("len(page 1) = %d, want 512", len(first.Data))
	}
	if !bytes.HasPrefix(first.Data, []byte("SQLite format 3\x00")) {
		t.Error("page 1 should start with the file header")
	}
	if first.Header.NumCells != 3 {
		t.Errorf("page 1 has %d cells, want 3 schema rows", first.Header.NumCells)
	}

	second, err := GetPage(path, h, 2)
	if err != nil {
		t.Fatalf("GetPage(2) error = %v", err)
	}
	if second.Type() != btree.PageTypeLeafTable || second.Header.NumCells != 3 {
		t.Errorf("page 2 = %s, want a leaf table with 3 cells", second.Header)
	}

	third, err := GetPage(path, h, 3)
	if err != nil {
		t.Fatalf("GetPage(3) error = %v", err)
	}
	if third.Type() != btree.PageTypeLeafIndex {
		t.Errorf("page 3 type = %s, want leaf index", third.Type())
	}
}

func TestGetPageOutOfRange(t *testing.T) {
	path := sqlitetest.Fruits(t)
	h, err := OpenHeader(path)
	if err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	count := uint32(info.Size() / 512)

	for _, n := range []uint32{0, count + 1, 1 << 30} {
		_, err := GetPage(path, h, n)
		if !errors.Is(err, dberrors.ErrPageOutOfRange) {
			t.Errorf("GetPage(%d) error = %v, want ErrPageOutOfRange", n, err)
			continue
		}
		var pre *dberrors.PageRangeError
		if !errors.As(err, &pre) || pre.Page != n || pre.PageCount != count {
			t.Errorf("GetPage(%d) error = %#v", n, err)
		}
	}

	// A partial final page is past the end of the file
	if err := os.Truncate(path, info.Size()-100); err != nil {
		t.Fatal(err)
	}
	if _, err := GetPage(path, h, count); !errors.Is(err, dberrors.ErrPageOutOfRange) {
		t.Errorf("GetPage(partial) error = %v, want ErrPageOutOfRange", err)
	}
}

func TestGetPageOverflowChain(t *testing.T) {
	path := sqlitetest.Create(t, "blob.db",
		"PRAGMA page_size = 512",
		"CREATE TABLE blobs (b BLOB)",
		"INSERT INTO blobs VALUES (zeroblob(3000))",
	)
	h, err := OpenHeader(path)
	if err != nil {
		t.Fatal(err)
	}
	if h.DatabaseSize < 4 {
		t.Fatalf("DatabaseSize = %d, want a root page plus an overflow chain", h.DatabaseSize)
	}

	root, err := GetPage(path, h, 2)
	if err != nil {
		t.Fatalf("GetPage(2) error = %v", err)
	}
	if _, err := root.Cells(); !errors.Is(err, dberrors.ErrUnsupported) {
		t.Errorf("root Cells() error = %v, want ErrUnsupported for the spilled payload", err)
	}

	for n := uint32(3); n <= h.DatabaseSize; n++ {
		page, err := GetPage(path, h, n)
		if err != nil {
			t.Fatalf("GetPage(%d) error = %v", n, err)
		}
		if page.IsBtree() || page.Header != nil {
			t.Errorf("page %d parsed as a %s page", n, page.Type())
		}
		if len(page.Data) != 512 {
			t.Errorf("page %d has %d bytes, want 512", n, len(page.Data))
		}
		if page.Fingerprint() == ([32]byte{}) {
			t.Errorf("page %d has an empty fingerprint", n)
		}
		if _, err := page.CellOffsets(); !errors.Is(err, dberrors.ErrInvalidPageType) {
			t.Errorf("page %d CellOffsets() error = %v, want ErrInvalidPageType", n, err)
		}
		if _, err := page.Cells(); !errors.Is(err, dberrors.ErrInvalidPageType) {
			t.Errorf("page %d Cells() error = %v, want ErrInvalidPageType", n, err)
		}
	}
}

func TestPager(t *testing.T) {
	path := sqlitetest.Fruits(t)

	p, err := Open(path, Options{})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer p.Close()

	if p.PageSize() != 512 || p.Compressed() || p.Path() != path {
		t.Errorf("pager = size %d, compressed %v, path %q", p.PageSize(), p.Compressed(), p.Path())
	}
	if int64(p.PageCount())*512 != p.Size() {
		t.Errorf("PageCount() = %d, Size() = %d", p.PageCount(), p.Size())
	}

	h, err := OpenHeader(path)
	if err != nil {
		t.Fatal(err)
	}
	for n := uint32(1); n <= p.PageCount(); n++ {
		got, err := p.RawPage(n)
		if err != nil {
			t.Fatalf("RawPage(%d) error = %v", n, err)
		}
		want, err := GetPage(path, h, n)
		if err != nil {
			t.Fatalf("GetPage(%d) error = %v", n, err)
		}
		if !bytes.Equal(got, want.Data) {
			t.Errorf("page %d differs between Pager and GetPage", n)
		}
	}

	if _, err := p.Page(p.PageCount() + 1); !errors.Is(err, dberrors.ErrPageOutOfRange) {
		t.Errorf("Page(past end) error = %v, want ErrPageOutOfRange", err)
	}

	// The returned header is a copy
	p.Header().UserVersion = 99
	if p.Header().UserVersion == 99 {
		t.Error("Header() exposed the pager's header")
	}
}

func TestPagerCopyOnFetch(t *testing.T) {
	for _, size := range []int64{0, -1} {
		p, err := Open(sqlitetest.Fruits(t), Options{CacheSize: size})
		if err != nil {
			t.Fatal(err)
		}

		first, err := p.RawPage(2)
		if err != nil {
			t.Fatal(err)
		}
		orig := bytes.Clone(first)
		p.Wait()

		for i := range first {
			first[i] = 0xEE
		}

		again, err := p.RawPage(2)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(again, orig) {
			t.Errorf("cache size %d: modifying a returned page changed later reads", size)
		}
		p.Close()
	}
}

func TestPagerXZ(t *testing.T) {
	plain := sqlitetest.Fruits(t)
	compressed := sqlitetest.CompressXZ(t, plain)

	p, err := Open(compressed, Options{})
	if err != nil {
		t.Fatalf("Open(xz) error = %v", err)
	}
	defer p.Close()

	if !p.Compressed() {
		t.Error("Compressed() = false for an xz source")
	}

	want, err := os.ReadFile(plain)
	if err != nil {
		t.Fatal(err)
	}
	if p.Size() != int64(len(want)) {
		t.Errorf("Size() = %d, want %d", p.Size(), len(want))
	}
	for n := uint32(1); n <= p.PageCount(); n++ {
		got, err := p.RawPage(n)
		if err != nil {
			t.Fatalf("RawPage(%d) error = %v", n, err)
		}
		off := int(n-1) * 512
		if !bytes.Equal(got, want[off:off+512]) {
			t.Errorf("page %d differs from the uncompressed file", n)
		}
	}
}

func TestPagerXZReaderError(t *testing.T) {
	compressed := sqlitetest.CompressXZ(t, sqlitetest.Fruits(t))

	orig := xzNewReader
	t.Cleanup(func() { xzNewReader = orig })
	xzNewReader = func(io.Reader) (*xz.Reader, error) {
		return nil, errors.New("xz reader failure")
	}

	_, err := Open(compressed, Options{})
	if !errors.Is(err, dberrors.ErrIO) {
		t.Errorf("Open() error = %v, want ErrIO", err)
	}
}

func TestPagerClose(t *testing.T) {
	p, err := Open(sqlitetest.Fruits(t), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if _, err := p.Page(1); !errors.Is(err, ErrClosed) {
		t.Errorf("Page() after Close error = %v, want ErrClosed", err)
	}
}

func TestPagerOpenErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Open(filepath.Join(dir, "missing.db"), Options{}); !errors.Is(err, dberrors.ErrIO) {
		t.Errorf("Open(missing) error = %v, want ErrIO", err)
	}

	notDB := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(notDB, []byte(strings.Repeat("not a database ", 20)), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(notDB, Options{}); !errors.Is(err, dberrors.ErrInvalidMagic) {
		t.Errorf("Open(text file) error = %v, want ErrInvalidMagic", err)
	}

	// Payload fractions other than 64/32/32 are rejected by SQLite on open
	data, err := os.ReadFile(sqlitetest.Fruits(t))
	if err != nil {
		t.Fatal(err)
	}
	data[21] = 10
	badHeader := filepath.Join(dir, "fractions.db")
	if err := os.WriteFile(badHeader, data, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(badHeader, Options{}); !errors.Is(err, dberrors.ErrInvalidHeader) {
		t.Errorf("Open(bad payload fractions) error = %v, want ErrInvalidHeader", err)
	}
}

func TestPagerConcurrentReaders(t *testing.T) {
	p, err := Open(sqlitetest.Fruits(t), Options{CacheSize: 2})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	want := make(map[uint32][32]byte)
	for n := uint32(1); n <= p.PageCount(); n++ {
		page, err := p.Page(n)
		if err != nil {
			t.Fatal(err)
		}
		want[n] = page.Fingerprint()
	}

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				n := uint32(i)%p.PageCount() + 1
				page, err := p.Page(n)
				if err != nil {
					errs <- err
					return
				}
				if page.Fingerprint() != want[n] {
					errs <- errors.New("page content changed under concurrent reads")
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestPagerDebugLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	p, err := Open(sqlitetest.Fruits(t), Options{Logger: logger})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	if _, err := p.Page(2); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "opened database") || !strings.Contains(out, "page cache miss") {
		t.Errorf("debug log missing expected messages:\n%s", out)
	}
}
