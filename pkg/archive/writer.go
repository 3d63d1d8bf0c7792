package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/DataDog/zstd"
)

// Writer wraps an io.WriteSeeker to compress content into a cache file.
type Writer struct {
	dst     io.WriteSeeker
	zWriter *zstd.Writer
	header  *Header
	level   int
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithCompressionLevel sets the compression level for the writer.
func WithCompressionLevel(level int) WriterOption {
	return func(w *Writer) {
		w.level = level
	}
}

// NewWriter creates a cache writer that writes to dst. h.Length must hold
// the size of the content that will be written.
func NewWriter(dst io.WriteSeeker, h *Header, opts ...WriterOption) (*Writer, error) {
	w := &Writer{
		dst:    dst,
		level:  DefaultCompressionLevel,
		header: h,
	}
	w.header.CompressedLength = 0 // Will be updated after writing

	for _, opt := range opts {
		opt(w)
	}

	// Write placeholder header
	headerBytes, err := w.header.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal header: %w", err)
	}
	if _, err := dst.Write(headerBytes); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	w.zWriter = zstd.NewWriterLevel(dst, w.level)
	return w, nil
}

// Write writes compressed data.
func (w *Writer) Write(p []byte) (n int, err error) {
	return w.zWriter.Write(p)
}

// Close finalizes the cache file by updating the header with the compressed
// size.
func (w *Writer) Close() error {
	if err := w.zWriter.Close(); err != nil {
		return fmt.Errorf("close compressor: %w", err)
	}

	pos, err := w.dst.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("get position: %w", err)
	}

	w.header.CompressedLength = uint64(pos) - uint64(w.header.Size())

	if _, err := w.dst.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("seek to start: %w", err)
	}

	headerBytes, err := w.header.MarshalBinary()
	if err != nil {
		return fmt.Errorf("marshal header: %w", err)
	}

	if _, err := w.dst.Write(headerBytes); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	if _, err := w.dst.Seek(pos, io.SeekStart); err != nil {
		return fmt.Errorf("seek to end: %w", err)
	}

	return nil
}

// Encode compresses content and writes it as a cache file to dst. The
// content length is taken from data.
func Encode(dst io.WriteSeeker, h *Header, data []byte, opts ...WriterOption) error {
	h.Length = uint64(len(data))
	w, err := NewWriter(dst, h, opts...)
	if err != nil {
		return err
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write data: %w", err)
	}

	return w.Close()
}

// WriteFile writes a cache file at path, creating parent directories. The
// file is written under a temporary name and renamed into place.
func WriteFile(path string, h *Header, data []byte, opts ...WriterOption) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	f, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmp := f.Name()

	if err := Encode(f, h, data, opts...); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
