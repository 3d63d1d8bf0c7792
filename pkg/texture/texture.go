// Package texture decodes XNA texture surfaces into 8-bit pixels and
// exports them as standard image files.
//
// XNA 3.1 content uses three surface formats: Color (uncompressed BGRA),
// DXT1 (BC1) and DXT5 (BC3). Decoded pixels are BGRA, the byte order the
// engine uploads; SwapRedBlue converts to RGBA for image encoders.
package texture

import "fmt"

// Format is an XNA 3.1 SurfaceFormat value.
type Format uint32

const (
	FormatColor Format = 1
	FormatBC1   Format = 28
	FormatBC3   Format = 32
)

// ParseFormat validates a stored surface format code.
func ParseFormat(v uint32) (Format, error) {
	switch f := Format(v); f {
	case FormatColor, FormatBC1, FormatBC3:
		return f, nil
	default:
		return 0, fmt.Errorf("unknown texture format: %d", v)
	}
}

// String returns a human-readable name for the format.
func (f Format) String() string {
	switch f {
	case FormatColor:
		return "Color"
	case FormatBC1:
		return "BC1"
	case FormatBC3:
		return "BC3"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint32(f))
	}
}

// BlockDim returns the block width and height in pixels.
func (f Format) BlockDim() int {
	if f == FormatColor {
		return 1
	}
	return 4
}

// BlockSize returns the size of one block in bytes.
func (f Format) BlockSize() int {
	switch f {
	case FormatBC1:
		return 8
	case FormatBC3:
		// 8 bytes of alpha endpoints and indices, then a BC1 colour block.
		return 16
	default:
		return 4
	}
}

// Compressed reports whether f is block compressed.
func (f Format) Compressed() bool {
	return f == FormatBC1 || f == FormatBC3
}

// MipDimension returns base >> mip, never less than one pixel.
func MipDimension(base, mip int) int {
	d := base >> mip
	if d < 1 {
		return 1
	}
	return d
}

func blocks(pixels, dim int) int {
	n := (pixels + dim - 1) / dim
	if n < 1 {
		return 1
	}
	return n
}

// BytesPerRow returns the byte length of one row of blocks of a mip level.
func BytesPerRow(f Format, width, mip int) int {
	return blocks(MipDimension(width, mip), f.BlockDim()) * f.BlockSize()
}

// RowsPerImage returns the number of block rows of a mip level.
func RowsPerImage(f Format, height, mip int) int {
	return blocks(MipDimension(height, mip), f.BlockDim())
}

// MipSize returns the expected byte length of a mip level.
func MipSize(f Format, width, height, mip int) int {
	return BytesPerRow(f, width, mip) * RowsPerImage(f, height, mip)
}
