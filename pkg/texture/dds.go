package texture

import (
	"encoding/binary"
	"fmt"
	"io"
)

// DDS header constants
const (
	DDS_MAGIC                    = 0x20534444 // "DDS "
	DDS_HEADER_SIZE              = 124
	DDS_HEADER_FLAGS_CAPS        = 0x1
	DDS_HEADER_FLAGS_HEIGHT      = 0x2
	DDS_HEADER_FLAGS_WIDTH       = 0x4
	DDS_HEADER_FLAGS_PITCH       = 0x8
	DDS_HEADER_FLAGS_PIXELFORMAT = 0x1000
	DDS_HEADER_FLAGS_MIPMAPCOUNT = 0x20000
	DDS_HEADER_FLAGS_LINEARSIZE  = 0x80000
	DDS_HEADER_FLAGS_DEPTH       = 0x800000

	DDS_SURFACE_FLAGS_TEXTURE = 0x1000
	DDS_SURFACE_FLAGS_COMPLEX = 0x8
	DDS_SURFACE_FLAGS_MIPMAP  = 0x400000
	DDS_CAPS2_VOLUME          = 0x200000

	DDS_PIXELFORMAT_SIZE = 32
	DDS_FOURCC           = 0x4
	DDS_RGB              = 0x40
	DDS_ALPHAPIXELS      = 0x1

	FOURCC_DXT1 = 0x31545844 // "DXT1"
	FOURCC_DXT5 = 0x35545844 // "DXT5"
)

// Surface describes a texture for DDS export. Depth is 1 for 2D textures.
type Surface struct {
	Format Format
	Width  int
	Height int
	Depth  int
	Mips   [][]byte
}

// WriteDDS writes s as a DDS file with a legacy (non-DX10) header so that
// common tools can open it.
func WriteDDS(w io.Writer, s Surface) error {
	if len(s.Mips) == 0 {
		return fmt.Errorf("texture has no mip levels")
	}
	header, err := createDDSHeader(s)
	if err != nil {
		return err
	}
	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, mip := range s.Mips {
		if _, err := w.Write(mip); err != nil {
			return fmt.Errorf("write mip %d: %w", i, err)
		}
	}
	return nil
}

func createDDSHeader(s Surface) ([]byte, error) {
	header := make([]byte, 4+DDS_HEADER_SIZE)
	put := func(off int, v uint32) {
		binary.LittleEndian.PutUint32(header[off:off+4], v)
	}

	put(0, DDS_MAGIC)
	put(4, DDS_HEADER_SIZE)

	flags := uint32(DDS_HEADER_FLAGS_CAPS | DDS_HEADER_FLAGS_HEIGHT | DDS_HEADER_FLAGS_WIDTH |
		DDS_HEADER_FLAGS_PIXELFORMAT)
	if s.Format.Compressed() {
		flags |= DDS_HEADER_FLAGS_LINEARSIZE
	} else {
		flags |= DDS_HEADER_FLAGS_PITCH
	}
	mipCount := uint32(len(s.Mips))
	if mipCount > 1 {
		flags |= DDS_HEADER_FLAGS_MIPMAPCOUNT
	}
	if s.Depth > 1 {
		flags |= DDS_HEADER_FLAGS_DEPTH
	}
	put(8, flags)
	put(12, uint32(s.Height))
	put(16, uint32(s.Width))

	// dwPitchOrLinearSize
	if s.Format.Compressed() {
		put(20, uint32(MipSize(s.Format, s.Width, s.Height, 0)))
	} else {
		put(20, uint32(BytesPerRow(s.Format, s.Width, 0)))
	}
	if s.Depth > 1 {
		put(24, uint32(s.Depth))
	}
	put(28, mipCount)

	// dwReserved1[11] at 32..76, pixel format at 76
	pf := 76
	put(pf, DDS_PIXELFORMAT_SIZE)
	switch s.Format {
	case FormatBC1:
		put(pf+4, DDS_FOURCC)
		put(pf+8, FOURCC_DXT1)
	case FormatBC3:
		put(pf+4, DDS_FOURCC)
		put(pf+8, FOURCC_DXT5)
	case FormatColor:
		// A8R8G8B8, stored as BGRA bytes
		put(pf+4, DDS_RGB|DDS_ALPHAPIXELS)
		put(pf+12, 32)
		put(pf+16, 0x00FF0000)
		put(pf+20, 0x0000FF00)
		put(pf+24, 0x000000FF)
		put(pf+28, 0xFF000000)
	default:
		return nil, fmt.Errorf("dds export not supported for format: %s", s.Format)
	}

	caps := uint32(DDS_SURFACE_FLAGS_TEXTURE)
	if mipCount > 1 {
		caps |= DDS_SURFACE_FLAGS_MIPMAP | DDS_SURFACE_FLAGS_COMPLEX
	}
	put(108, caps)
	if s.Depth > 1 {
		put(112, DDS_CAPS2_VOLUME)
	}

	return header, nil
}
