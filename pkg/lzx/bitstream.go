package lzx

import "encoding/binary"

// bitReader reads an LZX bitstream: 16-bit little-endian words consumed
// most significant bit first. Reads past the end of the input yield zero
// bits; the decoder detects overruns by position.
type bitReader struct {
	data []byte
	pos  int
	buf  uint64 // valid bits are left-aligned
	n    uint
}

func newBitReader(data []byte) *bitReader {
	return &bitReader{data: data}
}

func (br *bitReader) ensure(k uint) {
	for br.n < k {
		var w uint16
		if br.pos+1 < len(br.data) {
			w = binary.LittleEndian.Uint16(br.data[br.pos:])
		} else if br.pos < len(br.data) {
			w = uint16(br.data[br.pos])
		}
		br.pos += 2
		br.buf |= uint64(w) << (48 - br.n)
		br.n += 16
	}
}

func (br *bitReader) peek(k uint) uint32 {
	br.ensure(k)
	return uint32(br.buf >> (64 - k))
}

func (br *bitReader) remove(k uint) {
	br.buf <<= k
	br.n -= k
}

// readBits reads k bits, k <= 32.
func (br *bitReader) readBits(k uint) uint32 {
	if k == 0 {
		return 0
	}
	if k > 16 {
		hi := br.readBits(16)
		return hi<<(k-16) | br.readBits(k-16)
	}
	v := br.peek(k)
	br.remove(k)
	return v
}

// align discards the rest of the current word. When the stream is already
// word aligned, a full word of padding is consumed instead.
func (br *bitReader) align() {
	if br.n == 0 {
		br.ensure(16)
	}
	br.buf = 0
	br.n = 0
}

// rawBytes reads n bytes directly from the input. The bit buffer must be
// empty, i.e. align must have been called.
func (br *bitReader) rawBytes(n int) ([]byte, bool) {
	if br.pos+n > len(br.data) {
		return nil, false
	}
	b := br.data[br.pos : br.pos+n]
	br.pos += n
	return b, true
}

// overrun reports whether more than two bytes past the end were consumed.
// Huffman table reads may legitimately touch one padding word.
func (br *bitReader) overrun() bool {
	consumed := br.pos - int(br.n/8)
	return consumed > len(br.data)+2
}
