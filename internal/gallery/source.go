package gallery

import (
	"bytes"
	"io"
	"os"

	"evalgallery/internal/models"
)

// Source is a caller-owned file handle. The gallery only reads from it; the
// underlying file is never moved or deleted.
type Source interface {
	Open() (io.ReadCloser, error)
}

type pathSource string

// FromPath returns a Source reading the file at path.
func FromPath(path string) Source {
	return pathSource(path)
}

func (p pathSource) Open() (io.ReadCloser, error) {
	return os.Open(string(p))
}

type bytesSource []byte

// FromBytes returns a Source serving a copy of data.
func FromBytes(data []byte) Source {
	buf := make([]byte, len(data))
	copy(buf, data)
	return bytesSource(buf)
}

func (b bytesSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b)), nil
}

// Content is an open stream over one stored format. Callers must Close it.
type Content struct {
	Format    models.Format
	SizeBytes int64
	SHA256    string
	Body      io.ReadCloser
}

func (c *Content) Read(p []byte) (int, error) {
	return c.Body.Read(p)
}

func (c *Content) Close() error {
	if c == nil || c.Body == nil {
		return nil
	}
	return c.Body.Close()
}

func closeContents(contents map[models.Format]*Content) {
	for _, c := range contents {
		_ = c.Close()
	}
}
