// Package archive stores decompressed XNB content in Zstandard compressed
// cache files.
//
// LZX decompression is the slowest step of loading a container. A cache file
// keeps the container's platform and flags next to the decompressed content
// stream so it can be decoded again without the LZX pass.
package archive

import (
	"encoding/binary"
	"fmt"

	"github.com/aldrheim/xnbtools/pkg/xnb"
)

// Magic bytes identifying a cache file.
var Magic = [4]byte{'X', 'N', 'B', 'Z'}

// HeaderSize is the fixed binary size of a cache header.
const HeaderSize = 36 // 4 + 4 + 4 + 8 + 8 + 8 bytes

const headerLength = HeaderSize - 8

// Header represents the header of a cache file.
type Header struct {
	Magic            [4]byte
	HeaderLength     uint32
	Platform         xnb.Platform
	Version          xnb.Version
	HiDef            bool
	SourceModTime    int64  // source container modification time, Unix nanoseconds
	Length           uint64 // content size
	CompressedLength uint64 // compressed size
}

// Size returns the binary size of the header.
func (h *Header) Size() int {
	return HeaderSize
}

// Container returns the header of an uncompressed container holding the
// cached content.
func (h *Header) Container() xnb.Header {
	return xnb.Header{
		Platform:       h.Platform,
		Version:        h.Version,
		HiDef:          h.HiDef,
		CompressedSize: uint32(xnb.HeaderSize + h.Length),
	}
}

// Validate checks the header for validity.
func (h *Header) Validate() error {
	if h.Magic != Magic {
		return fmt.Errorf("invalid magic: expected %x, got %x", Magic, h.Magic)
	}
	if h.HeaderLength != headerLength {
		return fmt.Errorf("invalid header length: expected %d, got %d", headerLength, h.HeaderLength)
	}
	if h.Length == 0 {
		return fmt.Errorf("content size is zero")
	}
	if h.CompressedLength == 0 {
		return fmt.Errorf("compressed size is zero")
	}
	c := h.Container()
	if err := c.Validate(); err != nil {
		return fmt.Errorf("container: %w", err)
	}
	return nil
}

// MarshalBinary encodes the header to binary format.
func (h *Header) MarshalBinary() ([]byte, error) {
	buf := make([]byte, HeaderSize)
	h.EncodeTo(buf)
	return buf, nil
}

// EncodeTo writes the header to the given buffer.
// The buffer must be at least HeaderSize bytes.
func (h *Header) EncodeTo(buf []byte) {
	copy(buf[0:4], h.Magic[:])
	binary.LittleEndian.PutUint32(buf[4:8], h.HeaderLength)
	buf[8] = byte(h.Platform)
	buf[9] = byte(h.Version)
	buf[10] = 0
	if h.HiDef {
		buf[10] = xnb.FlagHiDef
	}
	buf[11] = 0
	binary.LittleEndian.PutUint64(buf[12:20], uint64(h.SourceModTime))
	binary.LittleEndian.PutUint64(buf[20:28], h.Length)
	binary.LittleEndian.PutUint64(buf[28:36], h.CompressedLength)
}

// UnmarshalBinary decodes the header from binary format.
func (h *Header) UnmarshalBinary(data []byte) error {
	if len(data) < HeaderSize {
		return fmt.Errorf("header data too short: need %d, got %d", HeaderSize, len(data))
	}
	h.DecodeFrom(data)
	return h.Validate()
}

// DecodeFrom reads the header from the given buffer.
// Does not validate - use UnmarshalBinary for validation.
func (h *Header) DecodeFrom(data []byte) {
	copy(h.Magic[:], data[0:4])
	h.HeaderLength = binary.LittleEndian.Uint32(data[4:8])
	h.Platform = xnb.Platform(data[8])
	h.Version = xnb.Version(data[9])
	h.HiDef = data[10]&xnb.FlagHiDef != 0
	h.SourceModTime = int64(binary.LittleEndian.Uint64(data[12:20]))
	h.Length = binary.LittleEndian.Uint64(data[20:28])
	h.CompressedLength = binary.LittleEndian.Uint64(data[28:36])
}

// NewHeader creates a cache header for content taken from the container
// described by src.
func NewHeader(src xnb.Header, sourceModTime int64, contentSize uint64) *Header {
	return &Header{
		Magic:         Magic,
		HeaderLength:  headerLength,
		Platform:      src.Platform,
		Version:       src.Version,
		HiDef:         src.HiDef,
		SourceModTime: sourceModTime,
		Length:        contentSize,
	}
}
