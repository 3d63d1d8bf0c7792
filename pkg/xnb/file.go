package xnb

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// File is a container with its header and raw payload.
type File struct {
	Header  Header
	Payload []byte // compressed blocks when Header.Compressed, content otherwise
}

// maxPrealloc bounds buffer preallocation driven by sizes read from a
// header. Larger payloads grow as bytes arrive.
const maxPrealloc = 1 << 20

// Read parses a container from r. Exactly PayloadSize bytes are consumed
// after the header.
func Read(r io.Reader) (*File, error) {
	return read(r, -1)
}

// read parses a container. A non-negative limit is the number of bytes
// available in r; a header declaring more is rejected before the payload
// is read.
func read(r io.Reader, limit int64) (*File, error) {
	var buf [CompressedHeaderSize]byte
	if _, err := io.ReadFull(r, buf[:HeaderSize]); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if buf[5]&FlagCompressed != 0 {
		if _, err := io.ReadFull(r, buf[HeaderSize:]); err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}
	}

	f := &File{}
	if err := f.Header.UnmarshalBinary(buf[:]); err != nil {
		return nil, fmt.Errorf("parse header: %w", err)
	}

	size := int64(f.Header.PayloadSize())
	if limit >= 0 && int64(f.Header.Size())+size > limit {
		return nil, fmt.Errorf("header declares %d bytes, file has %d: %w",
			int64(f.Header.Size())+size, limit, io.ErrUnexpectedEOF)
	}

	payload := bytes.NewBuffer(make([]byte, 0, min(size, maxPrealloc)))
	n, err := io.CopyN(payload, r, size)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	if err != nil {
		return nil, fmt.Errorf("read payload: got %d of %d bytes: %w", n, size, err)
	}
	f.Payload = payload.Bytes()
	return f, nil
}

// ReadFile opens and parses the container at path. The file is closed
// before returning.
func ReadFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer fh.Close()

	fi, err := fh.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}

	f, err := read(fh, fi.Size())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Content returns the decompressed content stream. An uncompressed payload
// is returned unchanged.
func (f *File) Content() ([]byte, error) {
	if !f.Header.Compressed {
		return f.Payload, nil
	}
	data, err := Decompress(f.Payload, int(f.Header.UncompressedSize))
	if err != nil {
		return nil, err
	}
	if len(data) != int(f.Header.UncompressedSize) {
		return nil, fmt.Errorf("decompressed %d bytes, header declares %d", len(data), f.Header.UncompressedSize)
	}
	return data, nil
}

// Encode writes an uncompressed container holding content.
func Encode(w io.Writer, platform Platform, hiDef bool, content []byte) error {
	h := Header{
		Platform:       platform,
		Version:        VersionXNA31,
		HiDef:          hiDef,
		CompressedSize: uint32(HeaderSize + len(content)),
	}
	hb, err := h.MarshalBinary()
	if err != nil {
		return fmt.Errorf("marshal header: %w", err)
	}
	if _, err := w.Write(hb); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := w.Write(content); err != nil {
		return fmt.Errorf("write content: %w", err)
	}
	return nil
}
