/*
Package pager reads database pages from disk.

Two levels of access are provided. OpenHeader and GetPage are stateless:
each call opens the file, reads what it needs and closes it again, so the
returned header and pages never reference a file handle.

	h, err := pager.OpenHeader("app.db")
	if err != nil {
		return err
	}
	page, err := pager.GetPage("app.db", h, 2)

A Pager keeps the header and a read-only handle for repeated access and
serves pages through a ristretto cache. Cached bytes are copied on the way
in and on the way out, so callers may modify the pages they receive without
affecting other readers. A Pager is safe for concurrent use.

	p, err := pager.Open("app.db", pager.Options{CacheSize: 256})
	if err != nil {
		return err
	}
	defer p.Close()

	page, err := p.Page(1)

# Compressed Sources

Open also accepts xz-compressed database snapshots. The stream is recognised
by its magic bytes, decompressed once into memory and then read like a file.

# Page Numbers

Pages are numbered from 1. Page n starts at byte (n-1)*pageSize. Page 1
starts with the 100-byte file header; its b-tree header follows at offset
100. Requests for page 0 or for pages that would extend past the end of the
data fail with an error wrapping errors.ErrPageOutOfRange.
*/
package pager
