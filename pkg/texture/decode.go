package texture

import "fmt"

// Decode expands a surface of the given format into BGRA8 pixels,
// width*height*4 bytes. Color data is returned unchanged.
func Decode(data []byte, width, height int, f Format) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid dimensions %dx%d", width, height)
	}
	switch f {
	case FormatColor:
		if len(data) < width*height*4 {
			return nil, fmt.Errorf("color data truncated: need %d, got %d", width*height*4, len(data))
		}
		return data, nil
	case FormatBC1:
		return decodeBC1(data, width, height)
	case FormatBC3:
		return decodeBC3(data, width, height)
	default:
		return nil, fmt.Errorf("decompression not implemented for format: %s", f)
	}
}

// SwapRedBlue swaps bytes 0 and 2 of every 4-byte group, converting BGRA to
// RGBA and back. The input is not modified.
func SwapRedBlue(src []byte) []byte {
	dst := make([]byte, len(src)/4*4)
	for i := 0; i+3 < len(src); i += 4 {
		dst[i+0] = src[i+2]
		dst[i+1] = src[i+1]
		dst[i+2] = src[i+0]
		dst[i+3] = src[i+3]
	}
	return dst
}

// expand565 converts an RGB565 value to 8-bit channels.
func expand565(c uint16) (r, g, b int) {
	r5 := int(c>>11) & 0x1F
	g6 := int(c>>5) & 0x3F
	b5 := int(c) & 0x1F
	return r5<<3 | r5>>2, g6<<2 | g6>>4, b5<<3 | b5>>2
}

// colorPalette builds the four BGRA entries of a BC1-style colour block.
// Three-colour mode with transparent black is only used when punchThrough.
func colorPalette(block []byte, punchThrough bool) [4][4]uint8 {
	c0 := uint16(block[0]) | uint16(block[1])<<8
	c1 := uint16(block[2]) | uint16(block[3])<<8
	r0, g0, b0 := expand565(c0)
	r1, g1, b1 := expand565(c1)

	var p [4][4]uint8
	p[0] = [4]uint8{uint8(b0), uint8(g0), uint8(r0), 255}
	p[1] = [4]uint8{uint8(b1), uint8(g1), uint8(r1), 255}
	if c0 > c1 || !punchThrough {
		p[2] = [4]uint8{uint8((2*b0 + b1) / 3), uint8((2*g0 + g1) / 3), uint8((2*r0 + r1) / 3), 255}
		p[3] = [4]uint8{uint8((b0 + 2*b1) / 3), uint8((g0 + 2*g1) / 3), uint8((r0 + 2*r1) / 3), 255}
	} else {
		p[2] = [4]uint8{uint8((b0 + b1) / 2), uint8((g0 + g1) / 2), uint8((r0 + r1) / 2), 255}
		p[3] = [4]uint8{0, 0, 0, 0}
	}
	return p
}

func decodeBC1(data []byte, width, height int) ([]byte, error) {
	out := make([]byte, width*height*4)
	blockW := (width + 3) / 4
	blockH := (height + 3) / 4
	if need := blockW * blockH * 8; len(data) < need {
		return nil, fmt.Errorf("bc1 data truncated: need %d, got %d", need, len(data))
	}

	offset := 0
	for by := 0; by < blockH; by++ {
		for bx := 0; bx < blockW; bx++ {
			block := data[offset : offset+8]
			offset += 8

			palette := colorPalette(block, true)
			indices := uint32(block[4]) | uint32(block[5])<<8 | uint32(block[6])<<16 | uint32(block[7])<<24

			for py := 0; py < 4; py++ {
				for px := 0; px < 4; px++ {
					x, y := bx*4+px, by*4+py
					if x >= width || y >= height {
						continue
					}
					idx := (indices >> (2 * (py*4 + px))) & 3
					o := (y*width + x) * 4
					copy(out[o:o+4], palette[idx][:])
				}
			}
		}
	}
	return out, nil
}

func decodeBC3(data []byte, width, height int) ([]byte, error) {
	out := make([]byte, width*height*4)
	blockW := (width + 3) / 4
	blockH := (height + 3) / 4
	if need := blockW * blockH * 16; len(data) < need {
		return nil, fmt.Errorf("bc3 data truncated: need %d, got %d", need, len(data))
	}

	offset := 0
	for by := 0; by < blockH; by++ {
		for bx := 0; bx < blockW; bx++ {
			block := data[offset : offset+16]
			offset += 16

			alphas := alphaPalette(block[0], block[1])
			var alphaIndices uint64
			for i := 0; i < 6; i++ {
				alphaIndices |= uint64(block[2+i]) << (8 * i)
			}

			palette := colorPalette(block[8:], false)
			indices := uint32(block[12]) | uint32(block[13])<<8 | uint32(block[14])<<16 | uint32(block[15])<<24

			for py := 0; py < 4; py++ {
				for px := 0; px < 4; px++ {
					x, y := bx*4+px, by*4+py
					if x >= width || y >= height {
						continue
					}
					p := py*4 + px
					o := (y*width + x) * 4
					c := palette[(indices>>(2*p))&3]
					out[o+0] = c[0]
					out[o+1] = c[1]
					out[o+2] = c[2]
					out[o+3] = alphas[(alphaIndices>>(3*p))&7]
				}
			}
		}
	}
	return out, nil
}

func alphaPalette(a0, a1 uint8) [8]uint8 {
	var a [8]uint8
	a[0], a[1] = a0, a1
	lerp := func(i, steps int) uint8 {
		return uint8((int(a0)*(steps-i) + int(a1)*i + steps/2) / steps)
	}
	if a0 > a1 {
		for i := 1; i <= 6; i++ {
			a[i+1] = lerp(i, 7)
		}
	} else {
		for i := 1; i <= 4; i++ {
			a[i+1] = lerp(i, 5)
		}
		a[6] = 0
		a[7] = 255
	}
	return a
}
