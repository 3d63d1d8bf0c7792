package texture

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

// ImageFormat selects the output encoding for exported textures.
type ImageFormat string

const (
	ImagePNG  ImageFormat = "png"
	ImageWebP ImageFormat = "webp"
	ImageTGA  ImageFormat = "tga"
	ImageBMP  ImageFormat = "bmp"
)

// ParseImageFormat accepts a format name or file extension.
func ParseImageFormat(s string) (ImageFormat, error) {
	switch f := ImageFormat(strings.TrimPrefix(strings.ToLower(s), ".")); f {
	case ImagePNG, ImageWebP, ImageTGA, ImageBMP:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported image format: %q", s)
	}
}

// Ext returns the file extension including the dot.
func (f ImageFormat) Ext() string {
	return "." + string(f)
}

// ToImage wraps BGRA8 pixels as an NRGBA image.
func ToImage(bgra []byte, width, height int) (*image.NRGBA, error) {
	if len(bgra) < width*height*4 {
		return nil, fmt.Errorf("pixel data truncated: need %d, got %d", width*height*4, len(bgra))
	}
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	copy(img.Pix, SwapRedBlue(bgra[:width*height*4]))
	return img, nil
}

// DecodeImage decodes one surface straight to an image.
func DecodeImage(data []byte, width, height int, f Format) (*image.NRGBA, error) {
	bgra, err := Decode(data, width, height, f)
	if err != nil {
		return nil, err
	}
	return ToImage(bgra, width, height)
}

// Fit downscales img so neither side exceeds maxSize, keeping the aspect
// ratio. Images already within bounds, or maxSize <= 0, are returned as is.
func Fit(img image.Image, maxSize int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxSize <= 0 || (w <= maxSize && h <= maxSize) {
		return img
	}
	if w >= h {
		h = max(1, h*maxSize/w)
		w = maxSize
	} else {
		w = max(1, w*maxSize/h)
		h = maxSize
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Encode writes img in the requested format.
func Encode(w io.Writer, img image.Image, f ImageFormat) error {
	var err error
	switch f {
	case ImagePNG:
		err = png.Encode(w, img)
	case ImageWebP:
		err = nativewebp.Encode(w, img, nil)
	case ImageTGA:
		err = tga.Encode(w, img)
	case ImageBMP:
		err = bmp.Encode(w, img)
	default:
		return fmt.Errorf("unsupported image format: %q", f)
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", f, err)
	}
	return nil
}
