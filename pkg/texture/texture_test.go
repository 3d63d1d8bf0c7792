package texture

import (
	"bytes"
	"encoding/binary"
	"image/png"
	"testing"
)

func TestLayout(t *testing.T) {
	tests := []struct {
		format       Format
		width        int
		height       int
		mip          int
		bytesPerRow  int
		rowsPerImage int
	}{
		{FormatColor, 2, 2, 0, 8, 2},
		{FormatColor, 256, 128, 1, 512, 64},
		{FormatBC1, 256, 256, 0, 512, 64},
		{FormatBC1, 4, 4, 3, 8, 1}, // clamped to one block
		{FormatBC3, 256, 256, 0, 1024, 64},
		{FormatBC3, 6, 6, 0, 32, 2},
	}

	for _, tt := range tests {
		if got := BytesPerRow(tt.format, tt.width, tt.mip); got != tt.bytesPerRow {
			t.Errorf("%s %dx%d mip %d: expected bytes per row %d, got %d",
				tt.format, tt.width, tt.height, tt.mip, tt.bytesPerRow, got)
		}
		if got := RowsPerImage(tt.format, tt.height, tt.mip); got != tt.rowsPerImage {
			t.Errorf("%s %dx%d mip %d: expected rows %d, got %d",
				tt.format, tt.width, tt.height, tt.mip, tt.rowsPerImage, got)
		}
	}

	if got := MipSize(FormatColor, 2, 2, 0); got != 16 {
		t.Errorf("expected 16 byte mip, got %d", got)
	}
}

func TestParseFormat(t *testing.T) {
	for _, v := range []uint32{1, 28, 32} {
		if _, err := ParseFormat(v); err != nil {
			t.Errorf("format %d: %v", v, err)
		}
	}
	if _, err := ParseFormat(30); err == nil {
		t.Error("expected error for DXT3")
	}
}

func bc1Block(c0, c1 uint16, indices uint32) []byte {
	b := binary.LittleEndian.AppendUint16(nil, c0)
	b = binary.LittleEndian.AppendUint16(b, c1)
	return binary.LittleEndian.AppendUint32(b, indices)
}

func TestDecodeBC1(t *testing.T) {
	t.Run("FourColor", func(t *testing.T) {
		// pixel 0 uses colour 0 (red), pixel 1 colour 1 (blue)
		block := bc1Block(0xF800, 0x001F, 1<<2)
		out, err := Decode(block, 4, 4, FormatBC1)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(out) != 4*4*4 {
			t.Fatalf("expected 64 bytes, got %d", len(out))
		}
		if !bytes.Equal(out[0:4], []byte{0, 0, 255, 255}) {
			t.Errorf("expected red BGRA, got %v", out[0:4])
		}
		if !bytes.Equal(out[4:8], []byte{255, 0, 0, 255}) {
			t.Errorf("expected blue BGRA, got %v", out[4:8])
		}
	})

	t.Run("PunchThrough", func(t *testing.T) {
		block := bc1Block(0x0000, 0xFFFF, 0xFFFFFFFF)
		out, err := Decode(block, 4, 4, FormatBC1)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if out[3] != 0 {
			t.Errorf("expected transparent pixel, got alpha %d", out[3])
		}
	})

	t.Run("PartialBlock", func(t *testing.T) {
		out, err := Decode(bc1Block(0xF800, 0xF800, 0), 2, 2, FormatBC1)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(out) != 2*2*4 {
			t.Errorf("expected 16 bytes, got %d", len(out))
		}
	})

	t.Run("Truncated", func(t *testing.T) {
		if _, err := Decode(make([]byte, 4), 4, 4, FormatBC1); err == nil {
			t.Error("expected error for truncated data")
		}
	})
}

func TestDecodeBC3(t *testing.T) {
	// alpha endpoints 255 and 0; pixel 0 index 0, pixel 1 index 1, pixel 2 index 2
	alpha := []byte{255, 0}
	var bits uint64 = 0<<0 | 1<<3 | 2<<6
	for i := 0; i < 6; i++ {
		alpha = append(alpha, byte(bits>>(8*i)))
	}
	block := append(alpha, bc1Block(0x07E0, 0x07E0, 0)...)

	out, err := Decode(block, 4, 4, FormatBC3)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out[3] != 255 || out[7] != 0 || out[11] != 219 {
		t.Errorf("unexpected alpha values %d %d %d", out[3], out[7], out[11])
	}
	if !bytes.Equal(out[0:3], []byte{0, 255, 0}) {
		t.Errorf("expected green, got %v", out[0:3])
	}
}

func TestSwapRedBlue(t *testing.T) {
	bgra := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	rgba := SwapRedBlue(bgra)
	if !bytes.Equal(rgba, []byte{3, 2, 1, 4, 7, 6, 5, 8}) {
		t.Errorf("unexpected swap result %v", rgba)
	}
	if !bytes.Equal(SwapRedBlue(rgba), bgra) {
		t.Error("swap must be its own inverse")
	}
	if bgra[0] != 1 {
		t.Error("input must not be modified")
	}
}

func TestColorPassthrough(t *testing.T) {
	data := []byte{
		0, 0, 255, 255, 0, 255, 0, 255,
		255, 0, 0, 255, 10, 20, 30, 40,
	}
	out, err := Decode(data, 2, 2, FormatColor)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Error("color data must pass through unchanged")
	}

	img, err := ToImage(out, 2, 2)
	if err != nil {
		t.Fatalf("to image: %v", err)
	}
	if c := img.NRGBAAt(0, 0); c.R != 255 || c.G != 0 || c.B != 0 || c.A != 255 {
		t.Errorf("expected red at (0,0), got %v", c)
	}
	if c := img.NRGBAAt(1, 1); c.R != 30 || c.G != 20 || c.B != 10 || c.A != 40 {
		t.Errorf("unexpected pixel at (1,1): %v", c)
	}
}

func TestEncode(t *testing.T) {
	img, err := DecodeImage(bc1Block(0xF800, 0x001F, 0x55555555), 4, 4, FormatBC1)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	t.Run("PNG", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Encode(&buf, img, ImagePNG); err != nil {
			t.Fatalf("encode: %v", err)
		}
		decoded, err := png.Decode(&buf)
		if err != nil {
			t.Fatalf("png decode: %v", err)
		}
		if decoded.Bounds().Dx() != 4 {
			t.Errorf("expected width 4, got %d", decoded.Bounds().Dx())
		}
	})

	for _, f := range []ImageFormat{ImageWebP, ImageTGA, ImageBMP} {
		var buf bytes.Buffer
		if err := Encode(&buf, img, f); err != nil {
			t.Errorf("%s: %v", f, err)
		}
		if buf.Len() == 0 {
			t.Errorf("%s: no output", f)
		}
	}

	if _, err := ParseImageFormat(".WEBP"); err != nil {
		t.Errorf("parse format: %v", err)
	}
	if _, err := ParseImageFormat("gif"); err == nil {
		t.Error("expected error for gif")
	}
}

func TestFit(t *testing.T) {
	img, _ := ToImage(make([]byte, 64*32*4), 64, 32)
	fitted := Fit(img, 16)
	if b := fitted.Bounds(); b.Dx() != 16 || b.Dy() != 8 {
		t.Errorf("expected 16x8, got %dx%d", b.Dx(), b.Dy())
	}
	if Fit(img, 0) != img {
		t.Error("expected unchanged image for maxSize 0")
	}
}

func TestWriteDDS(t *testing.T) {
	s := Surface{
		Format: FormatBC1,
		Width:  8,
		Height: 8,
		Depth:  1,
		Mips:   [][]byte{make([]byte, 32), make([]byte, 8)},
	}
	var buf bytes.Buffer
	if err := WriteDDS(&buf, s); err != nil {
		t.Fatalf("write dds: %v", err)
	}
	data := buf.Bytes()
	if len(data) != 4+DDS_HEADER_SIZE+40 {
		t.Fatalf("expected %d bytes, got %d", 4+DDS_HEADER_SIZE+40, len(data))
	}
	if binary.LittleEndian.Uint32(data[0:]) != DDS_MAGIC {
		t.Error("missing DDS magic")
	}
	if binary.LittleEndian.Uint32(data[84:]) != FOURCC_DXT1 {
		t.Error("expected DXT1 fourcc")
	}
	if binary.LittleEndian.Uint32(data[28:]) != 2 {
		t.Errorf("expected 2 mips, got %d", binary.LittleEndian.Uint32(data[28:]))
	}
	if binary.LittleEndian.Uint32(data[20:]) != 32 {
		t.Errorf("expected linear size 32, got %d", binary.LittleEndian.Uint32(data[20:]))
	}
}
