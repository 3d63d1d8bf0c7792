// Package xnb reads XNA Game Studio compiled content containers.
//
// A container is a small fixed header followed by a payload that is either
// stored as-is or compressed with LZX in a sequence of framed blocks. The
// decompressed payload is the content stream decoded by package content.
package xnb

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Magic identifies an XNB container.
var Magic = [3]byte{'X', 'N', 'B'}

const (
	// HeaderSize is the size of an uncompressed container header.
	HeaderSize = 10
	// CompressedHeaderSize adds the uncompressed-size field.
	CompressedHeaderSize = 14
)

// Flag bits.
const (
	FlagHiDef      = 0x01
	FlagCompressed = 0x80
)

var (
	ErrInvalidMagic       = errors.New("not an XNB file")
	ErrUnsupportedVersion = errors.New("unsupported XNA version")
)

// Platform is the target platform tag.
type Platform byte

const (
	PlatformWindows      Platform = 'w'
	PlatformWindowsPhone Platform = 'm'
	PlatformXbox360      Platform = 'x'
)

func (p Platform) String() string {
	switch p {
	case PlatformWindows:
		return "Windows"
	case PlatformWindowsPhone:
		return "WindowsPhone"
	case PlatformXbox360:
		return "Xbox360"
	default:
		return fmt.Sprintf("Platform(%q)", byte(p))
	}
}

// Version is the XNA framework version byte.
type Version byte

const (
	VersionXNA31 Version = 4
	VersionXNA40 Version = 5
)

func (v Version) String() string {
	switch v {
	case VersionXNA31:
		return "XNA 3.1"
	case VersionXNA40:
		return "XNA 4.0"
	default:
		return fmt.Sprintf("Version(%d)", byte(v))
	}
}

// Header is the fixed container header.
type Header struct {
	Platform         Platform
	Version          Version
	HiDef            bool
	Compressed       bool
	CompressedSize   uint32 // total file size, header included
	UncompressedSize uint32 // payload size after decompression; zero unless Compressed
}

// Size returns the encoded header length.
func (h *Header) Size() int {
	if h.Compressed {
		return CompressedHeaderSize
	}
	return HeaderSize
}

// PayloadSize returns the number of payload bytes following the header.
func (h *Header) PayloadSize() int {
	return int(h.CompressedSize) - h.Size()
}

// Validate checks platform, version and sizes.
func (h *Header) Validate() error {
	switch h.Platform {
	case PlatformWindows, PlatformWindowsPhone, PlatformXbox360:
	default:
		return fmt.Errorf("unknown platform: %d", byte(h.Platform))
	}
	switch h.Version {
	case VersionXNA31:
	case VersionXNA40:
		return fmt.Errorf("%w: %s, only %s is supported", ErrUnsupportedVersion, h.Version, VersionXNA31)
	default:
		return fmt.Errorf("unknown version: %d", byte(h.Version))
	}
	if int(h.CompressedSize) < h.Size() {
		return fmt.Errorf("file size %d smaller than header size %d", h.CompressedSize, h.Size())
	}
	return nil
}

// MarshalBinary encodes the header.
func (h *Header) MarshalBinary() ([]byte, error) {
	buf := make([]byte, h.Size())
	h.EncodeTo(buf)
	return buf, nil
}

// EncodeTo writes the header to buf, which must hold at least Size bytes.
func (h *Header) EncodeTo(buf []byte) {
	copy(buf[0:3], Magic[:])
	buf[3] = byte(h.Platform)
	buf[4] = byte(h.Version)
	var flags byte
	if h.HiDef {
		flags |= FlagHiDef
	}
	if h.Compressed {
		flags |= FlagCompressed
	}
	buf[5] = flags
	binary.LittleEndian.PutUint32(buf[6:10], h.CompressedSize)
	if h.Compressed {
		binary.LittleEndian.PutUint32(buf[10:14], h.UncompressedSize)
	}
}

// UnmarshalBinary decodes and validates a header from the start of data.
func (h *Header) UnmarshalBinary(data []byte) error {
	if len(data) < HeaderSize {
		return fmt.Errorf("header data too short: need %d, got %d", HeaderSize, len(data))
	}
	if [3]byte(data[0:3]) != Magic {
		return ErrInvalidMagic
	}
	flags := data[5]
	if flags&^(FlagHiDef|FlagCompressed) != 0 {
		return fmt.Errorf("unknown flag bits: %#x", flags)
	}

	h.Platform = Platform(data[3])
	h.Version = Version(data[4])
	h.HiDef = flags&FlagHiDef != 0
	h.Compressed = flags&FlagCompressed != 0
	h.CompressedSize = binary.LittleEndian.Uint32(data[6:10])
	h.UncompressedSize = 0
	if h.Compressed {
		if len(data) < CompressedHeaderSize {
			return fmt.Errorf("header data too short: need %d, got %d", CompressedHeaderSize, len(data))
		}
		h.UncompressedSize = binary.LittleEndian.Uint32(data[10:14])
	}
	return h.Validate()
}

// String returns a human-readable summary.
func (h *Header) String() string {
	return fmt.Sprintf("%s %s hidef=%t compressed=%t size=%d uncompressed=%d",
		h.Platform, h.Version, h.HiDef, h.Compressed, h.CompressedSize, h.UncompressedSize)
}
