package xnb

import (
	"bytes"
	"fmt"

	"github.com/aldrheim/xnbtools/pkg/binread"
	"github.com/aldrheim/xnbtools/pkg/lzx"
)

const (
	// DefaultFrameSize is the uncompressed size of a block without an
	// explicit frame size.
	DefaultFrameSize = 0x8000
	// WindowBits gives the 64KB LZX window used by XNA.
	WindowBits = 16

	frameSentinel = 0xFF
)

// Decompressor is the stateful sliding-window decoder fed each block in
// order. One instance serves exactly one payload.
type Decompressor interface {
	Decompress(block []byte, frameSize int) ([]byte, error)
}

// NewDecompressor returns the LZX decompressor XNA content is written with.
func NewDecompressor() (Decompressor, error) {
	d, err := lzx.NewDecoder(WindowBits)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Decompress expands a compressed payload. sizeHint, when nonzero,
// preallocates the output up to a bound.
func Decompress(payload []byte, sizeHint int) ([]byte, error) {
	dec, err := NewDecompressor()
	if err != nil {
		return nil, err
	}
	return DecompressWith(dec, payload, sizeHint)
}

// DecompressWith walks the block framing of payload, feeding every block to
// dec and concatenating the frames.
func DecompressWith(dec Decompressor, payload []byte, sizeHint int) ([]byte, error) {
	out := bytes.NewBuffer(make([]byte, 0, min(max(sizeHint, 0), maxPrealloc)))
	r := binread.NewReader(payload)

	for r.Len() > 0 {
		start := r.Pos()
		frameSize := DefaultFrameSize
		var blockSize int

		lead, err := r.U8()
		if err != nil {
			return nil, fmt.Errorf("read block at %d: %w", start, err)
		}
		if lead == frameSentinel {
			fs, err := r.U16BE()
			if err != nil {
				return nil, fmt.Errorf("read frame size at %d: %w", start, err)
			}
			bs, err := r.U16BE()
			if err != nil {
				return nil, fmt.Errorf("read block size at %d: %w", start, err)
			}
			frameSize, blockSize = int(fs), int(bs)
		} else {
			if err := r.Seek(start); err != nil {
				return nil, err
			}
			bs, err := r.U16BE()
			if err != nil {
				return nil, fmt.Errorf("read block size at %d: %w", start, err)
			}
			blockSize = int(bs)
		}

		if frameSize == 0 || blockSize == 0 {
			break
		}

		block, err := r.Bytes(blockSize)
		if err != nil {
			return nil, fmt.Errorf("read block of %d bytes at %d: %w", blockSize, start, err)
		}
		frame, err := dec.Decompress(block, frameSize)
		if err != nil {
			return nil, fmt.Errorf("decompress block at %d: %w", start, err)
		}
		out.Write(frame)
	}

	return out.Bytes(), nil
}
