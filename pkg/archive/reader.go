package archive

import (
	"fmt"
	"io"
	"os"

	"github.com/DataDog/zstd"
)

const (
	// DefaultCompressionLevel is the default compression level for encoding.
	DefaultCompressionLevel = zstd.BestSpeed
)

// Reader decompresses the content of a cache file.
type Reader struct {
	header    *Header
	zReader   io.ReadCloser
	headerBuf [HeaderSize]byte
}

// NewReader reads and validates the header, then returns a reader for the
// decompressed content.
func NewReader(r io.Reader) (*Reader, error) {
	reader := &Reader{
		header: &Header{},
	}

	if _, err := io.ReadFull(r, reader.headerBuf[:]); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	if err := reader.header.UnmarshalBinary(reader.headerBuf[:]); err != nil {
		return nil, fmt.Errorf("parse header: %w", err)
	}

	reader.zReader = zstd.NewReader(r)
	return reader, nil
}

// Header returns the cache header.
func (r *Reader) Header() *Header {
	return r.header
}

// Read reads decompressed content into p.
func (r *Reader) Read(p []byte) (n int, err error) {
	return r.zReader.Read(p)
}

// Close closes the reader.
func (r *Reader) Close() error {
	return r.zReader.Close()
}

// Length returns the content length.
func (r *Reader) Length() int {
	return int(r.header.Length)
}

// CompressedLength returns the compressed data length.
func (r *Reader) CompressedLength() int {
	return int(r.header.CompressedLength)
}

// ReadAll reads the header and the entire content of a cache file.
func ReadAll(r io.Reader) (*Header, []byte, error) {
	reader, err := NewReader(r)
	if err != nil {
		return nil, nil, err
	}
	defer reader.Close()

	data := make([]byte, reader.Length())
	if _, err := io.ReadFull(reader, data); err != nil {
		return nil, nil, fmt.Errorf("read content: %w", err)
	}
	return reader.Header(), data, nil
}

// ReadFile reads the cache file at path.
func ReadFile(path string) (*Header, []byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	h, data, err := ReadAll(f)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return h, data, nil
}
