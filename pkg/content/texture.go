package content

import (
	"image"

	"github.com/pkg/errors"

	"github.com/aldrheim/xnbtools/pkg/texture"
)

// Texture2D is a 2D texture with its full mip chain.
type Texture2D struct {
	Format texture.Format
	Width  uint32
	Height uint32
	Mips   [][]byte
}

// Texture3D is a volume texture. Each mip holds all depth slices.
type Texture3D struct {
	Format texture.Format
	Width  uint32
	Height uint32
	Depth  uint32
	Mips   [][]byte
}

func (*Texture2D) Kind() Kind { return KindTexture2D }
func (*Texture3D) Kind() Kind { return KindTexture3D }
func (*Texture2D) sealed()    {}
func (*Texture3D) sealed()    {}

// BytesPerRow returns the byte length of one block row of mip level mip.
func (t *Texture2D) BytesPerRow(mip int) int {
	return texture.BytesPerRow(t.Format, int(t.Width), mip)
}

// RowsPerImage returns the number of block rows of mip level mip.
func (t *Texture2D) RowsPerImage(mip int) int {
	return texture.RowsPerImage(t.Format, int(t.Height), mip)
}

// MipSize returns the width and height in pixels of mip level mip.
func (t *Texture2D) MipSize(mip int) (int, int) {
	return texture.MipDimension(int(t.Width), mip), texture.MipDimension(int(t.Height), mip)
}

// Decode expands mip level mip to BGRA8 pixels.
func (t *Texture2D) Decode(mip int) ([]byte, error) {
	if mip < 0 || mip >= len(t.Mips) {
		return nil, errors.Errorf("mip %d out of range [0, %d)", mip, len(t.Mips))
	}
	w, h := t.MipSize(mip)
	return texture.Decode(t.Mips[mip], w, h, t.Format)
}

// Image decodes mip level mip as an image.
func (t *Texture2D) Image(mip int) (*image.NRGBA, error) {
	bgra, err := t.Decode(mip)
	if err != nil {
		return nil, err
	}
	w, h := t.MipSize(mip)
	return texture.ToImage(bgra, w, h)
}

// Surface returns t for DDS export.
func (t *Texture2D) Surface() texture.Surface {
	return texture.Surface{
		Format: t.Format,
		Width:  int(t.Width),
		Height: int(t.Height),
		Depth:  1,
		Mips:   t.Mips,
	}
}

// Surface returns t for DDS export.
func (t *Texture3D) Surface() texture.Surface {
	return texture.Surface{
		Format: t.Format,
		Width:  int(t.Width),
		Height: int(t.Height),
		Depth:  int(t.Depth),
		Mips:   t.Mips,
	}
}

func readFormat(d *decoder) texture.Format {
	v := d.u32("format")
	if d.err != nil {
		return 0
	}
	f, err := texture.ParseFormat(v)
	if err != nil {
		d.err = errors.WithStack(err)
	}
	return f
}

func readMips(d *decoder) [][]byte {
	n := d.countU32("mip count")
	mips := make([][]byte, 0, d.sized(n, 4))
	for i := 0; i < n && d.err == nil; i++ {
		size := d.countU32("mip size")
		mips = append(mips, d.bytes(size, "mip data"))
	}
	return mips
}

func readTexture2D(d *decoder) *Texture2D {
	t := &Texture2D{}
	t.Format = readFormat(d)
	t.Width = d.u32("width")
	t.Height = d.u32("height")
	t.Mips = readMips(d)
	return t
}

func readTexture3D(d *decoder) *Texture3D {
	t := &Texture3D{}
	t.Format = readFormat(d)
	t.Width = d.u32("width")
	t.Height = d.u32("height")
	t.Depth = d.u32("depth")
	t.Mips = readMips(d)
	return t
}
