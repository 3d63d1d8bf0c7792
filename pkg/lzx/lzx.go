// Package lzx implements the LZX sliding-window decompressor used by XNA
// content files.
//
// A Decoder is stateful: the window, the repeated-offset queue, the Huffman
// code lengths and any partially consumed block all carry over from one
// Decompress call to the next. Each XNB payload needs exactly one Decoder,
// fed its compressed blocks in order.
package lzx

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrCorrupt is returned for any malformed bitstream.
var ErrCorrupt = errors.New("lzx: corrupt stream")

const (
	minMatch          = 2
	numChars          = 256
	numPrimaryLengths = 7
	numSecondaryLens  = 249
	pretreeSymbols    = 20
	alignedSymbols    = 8

	blockVerbatim     = 1
	blockAligned      = 2
	blockUncompressed = 3

	maxFrames = 32768
)

var (
	extraBits    [51]uint8
	positionBase [51]uint32
)

func init() {
	var j uint8
	for i := 0; i < 50; i += 2 {
		extraBits[i] = j
		extraBits[i+1] = j
		if i != 0 && j < 17 {
			j++
		}
	}
	extraBits[50] = 17
	var base uint32
	for i := range positionBase {
		positionBase[i] = base
		base += 1 << extraBits[i]
	}
}

// Decoder holds LZX state across frames of one stream.
type Decoder struct {
	window     []byte
	windowSize uint32
	windowPos  uint32
	mainElems  int

	r0, r1, r2 uint32

	mainLens   []byte
	lengthLens [numSecondaryLens]byte
	alignLens  [alignedSymbols]byte
	pretree    huffman
	mainTree   huffman
	lengthTree huffman
	alignTree  huffman

	headerRead     bool
	blockType      int
	blockLength    uint32
	blockRemaining uint32

	intelFileSize int32
	intelCurPos   int32
	intelStarted  bool
	frames        int
}

// NewDecoder returns a decoder for a window of 1<<windowBits bytes.
// XNA content always uses 16 (64KB).
func NewDecoder(windowBits uint) (*Decoder, error) {
	if windowBits < 15 || windowBits > 21 {
		return nil, fmt.Errorf("lzx: window bits %d out of range [15, 21]", windowBits)
	}
	var slots int
	switch windowBits {
	case 20:
		slots = 42
	case 21:
		slots = 50
	default:
		slots = int(windowBits) * 2
	}
	d := &Decoder{
		window:     make([]byte, 1<<windowBits),
		windowSize: 1 << windowBits,
		mainElems:  numChars + slots*8,
		r0:         1,
		r1:         1,
		r2:         1,
	}
	d.mainLens = make([]byte, d.mainElems)
	return d, nil
}

// Decompress decodes one compressed block that expands to frameSize bytes.
// The returned slice is freshly allocated.
func (d *Decoder) Decompress(block []byte, frameSize int) ([]byte, error) {
	if frameSize <= 0 || uint32(frameSize) > d.windowSize {
		return nil, fmt.Errorf("lzx: frame size %d out of range", frameSize)
	}
	frameStart := d.windowPos
	frameEnd := frameStart + uint32(frameSize)
	if frameEnd > d.windowSize {
		return nil, fmt.Errorf("%w: frame of %d bytes crosses window end at %d", ErrCorrupt, frameSize, frameStart)
	}

	br := newBitReader(block)

	if !d.headerRead {
		if br.readBits(1) != 0 {
			hi := br.readBits(16)
			lo := br.readBits(16)
			d.intelFileSize = int32(hi<<16 | lo)
		}
		d.headerRead = true
	}

	for d.windowPos < frameEnd {
		if d.blockRemaining == 0 {
			if err := d.readBlockHeader(br); err != nil {
				return nil, err
			}
		}

		run := frameEnd - d.windowPos
		if d.blockRemaining < run {
			run = d.blockRemaining
		}

		var produced uint32
		var err error
		switch d.blockType {
		case blockVerbatim, blockAligned:
			produced, err = d.decodeCompressed(br, run)
		case blockUncompressed:
			produced, err = d.copyUncompressed(br, run)
		default:
			err = fmt.Errorf("%w: block type %d", ErrCorrupt, d.blockType)
		}
		if err != nil {
			return nil, err
		}
		if produced > d.blockRemaining {
			return nil, fmt.Errorf("%w: match overruns block by %d bytes", ErrCorrupt, produced-d.blockRemaining)
		}
		d.blockRemaining -= produced

		if br.overrun() {
			return nil, fmt.Errorf("%w: read past end of input block", ErrCorrupt)
		}
	}

	if d.windowPos != frameEnd {
		return nil, fmt.Errorf("%w: decoded beyond frame end (%d != %d)", ErrCorrupt, d.windowPos-frameStart, frameSize)
	}

	out := make([]byte, frameSize)
	copy(out, d.window[frameStart:frameEnd])
	if d.windowPos == d.windowSize {
		d.windowPos = 0
	}

	d.translateE8(out)
	return out, nil
}

func (d *Decoder) readBlockHeader(br *bitReader) error {
	if d.blockType == blockUncompressed && d.blockLength&1 == 1 {
		// odd uncompressed blocks are padded to a word boundary
		if _, ok := br.rawBytes(1); !ok {
			return fmt.Errorf("%w: missing uncompressed block padding", ErrCorrupt)
		}
	}

	d.blockType = int(br.readBits(3))
	hi := br.readBits(16)
	lo := br.readBits(8)
	d.blockLength = hi<<8 | lo
	d.blockRemaining = d.blockLength

	switch d.blockType {
	case blockAligned:
		for i := range d.alignLens {
			d.alignLens[i] = byte(br.readBits(3))
		}
		if err := d.alignTree.build(d.alignLens[:]); err != nil {
			return fmt.Errorf("%w: aligned tree: %v", ErrCorrupt, err)
		}
		fallthrough
	case blockVerbatim:
		if err := d.readLengths(br, d.mainLens, 0, numChars); err != nil {
			return err
		}
		if err := d.readLengths(br, d.mainLens, numChars, d.mainElems); err != nil {
			return err
		}
		if err := d.mainTree.build(d.mainLens); err != nil {
			return fmt.Errorf("%w: main tree: %v", ErrCorrupt, err)
		}
		if d.mainLens[0xE8] != 0 {
			d.intelStarted = true
		}
		if err := d.readLengths(br, d.lengthLens[:], 0, numSecondaryLens); err != nil {
			return err
		}
		if err := d.lengthTree.build(d.lengthLens[:]); err != nil {
			return fmt.Errorf("%w: length tree: %v", ErrCorrupt, err)
		}
	case blockUncompressed:
		d.intelStarted = true
		br.align()
		raw, ok := br.rawBytes(12)
		if !ok {
			return fmt.Errorf("%w: truncated uncompressed block header", ErrCorrupt)
		}
		d.r0 = binary.LittleEndian.Uint32(raw[0:])
		d.r1 = binary.LittleEndian.Uint32(raw[4:])
		d.r2 = binary.LittleEndian.Uint32(raw[8:])
	default:
		return fmt.Errorf("%w: block type %d", ErrCorrupt, d.blockType)
	}
	return nil
}

// readLengths reads pretree-coded code lengths for lens[first:last]. Lengths
// are deltas against the previous block's values. Runs that extend past last
// are truncated.
func (d *Decoder) readLengths(br *bitReader, lens []byte, first, last int) error {
	var pre [pretreeSymbols]byte
	for i := range pre {
		pre[i] = byte(br.readBits(4))
	}
	if err := d.pretree.build(pre[:]); err != nil {
		return fmt.Errorf("%w: pretree: %v", ErrCorrupt, err)
	}

	for x := first; x < last; {
		z, err := d.pretree.decode(br)
		if err != nil {
			return err
		}
		switch z {
		case 17:
			n := int(br.readBits(4)) + 4
			for ; n > 0 && x < last; n-- {
				lens[x] = 0
				x++
			}
		case 18:
			n := int(br.readBits(5)) + 20
			for ; n > 0 && x < last; n-- {
				lens[x] = 0
				x++
			}
		case 19:
			n := int(br.readBits(1)) + 4
			z, err = d.pretree.decode(br)
			if err != nil {
				return err
			}
			v := (int(lens[x]) - z + 17) % 17
			for ; n > 0 && x < last; n-- {
				lens[x] = byte(v)
				x++
			}
		default:
			lens[x] = byte((int(lens[x]) - z + 17) % 17)
			x++
		}
	}
	return nil
}

// decodeCompressed decodes at least run bytes of a verbatim or aligned block.
// The final match may extend past run; the total produced is returned.
func (d *Decoder) decodeCompressed(br *bitReader, run uint32) (uint32, error) {
	mask := d.windowSize - 1
	var produced uint32
	for produced < run {
		sym, err := d.mainTree.decode(br)
		if err != nil {
			return 0, err
		}
		if sym < numChars {
			d.window[d.windowPos] = byte(sym)
			d.windowPos++
			produced++
			continue
		}

		sym -= numChars
		length := uint32(sym & numPrimaryLengths)
		if length == numPrimaryLengths {
			footer, err := d.lengthTree.decode(br)
			if err != nil {
				return 0, err
			}
			length += uint32(footer)
		}
		length += minMatch

		slot := sym >> 3
		var offset uint32
		switch slot {
		case 0:
			offset = d.r0
		case 1:
			offset = d.r1
			d.r1 = d.r0
			d.r0 = offset
		case 2:
			offset = d.r2
			d.r2 = d.r0
			d.r0 = offset
		default:
			offset, err = d.matchOffset(br, slot)
			if err != nil {
				return 0, err
			}
			d.r2 = d.r1
			d.r1 = d.r0
			d.r0 = offset
		}

		if d.windowPos+length > d.windowSize {
			return 0, fmt.Errorf("%w: match runs past window end", ErrCorrupt)
		}
		src := d.windowPos - offset
		for i := uint32(0); i < length; i++ {
			d.window[d.windowPos] = d.window[(src+i)&mask]
			d.windowPos++
		}
		produced += length
	}
	return produced, nil
}

func (d *Decoder) matchOffset(br *bitReader, slot int) (uint32, error) {
	if slot >= len(positionBase) {
		return 0, fmt.Errorf("%w: position slot %d", ErrCorrupt, slot)
	}
	extra := uint(extraBits[slot])
	offset := positionBase[slot] - 2

	if d.blockType != blockAligned {
		return offset + br.readBits(extra), nil
	}

	switch {
	case extra > 3:
		offset += br.readBits(extra-3) << 3
		a, err := d.alignTree.decode(br)
		if err != nil {
			return 0, err
		}
		offset += uint32(a)
	case extra == 3:
		a, err := d.alignTree.decode(br)
		if err != nil {
			return 0, err
		}
		offset += uint32(a)
	case extra > 0:
		offset += br.readBits(extra)
	default:
		offset = 1
	}
	return offset, nil
}

func (d *Decoder) copyUncompressed(br *bitReader, run uint32) (uint32, error) {
	raw, ok := br.rawBytes(int(run))
	if !ok {
		return 0, fmt.Errorf("%w: truncated uncompressed data", ErrCorrupt)
	}
	copy(d.window[d.windowPos:], raw)
	d.windowPos += run
	return run, nil
}

// translateE8 undoes the x86 CALL translation applied by the compressor.
// XNA content never enables it, but the header bit is honoured.
func (d *Decoder) translateE8(out []byte) {
	size := int32(len(out))
	defer func() {
		d.intelCurPos += size
		d.frames++
	}()
	if !d.intelStarted || d.intelFileSize == 0 || size <= 10 || d.frames >= maxFrames {
		return
	}

	cur := d.intelCurPos
	for i := 0; i < len(out)-10; {
		if out[i] != 0xE8 {
			i++
			cur++
			continue
		}
		abs := int32(binary.LittleEndian.Uint32(out[i+1:]))
		if abs >= -cur && abs < d.intelFileSize {
			var rel int32
			if abs >= 0 {
				rel = abs - cur
			} else {
				rel = abs + d.intelFileSize
			}
			binary.LittleEndian.PutUint32(out[i+1:], uint32(rel))
		}
		i += 5
		cur += 5
	}
}
