package lzx

import "fmt"

const maxCodeLen = 16

// huffman is a canonical prefix code decoder. Codes are assigned shortest
// first and by ascending symbol within a length.
type huffman struct {
	counts  [maxCodeLen + 1]uint16
	symbols []uint16
	empty   bool
}

func (h *huffman) build(lens []byte) error {
	h.counts = [maxCodeLen + 1]uint16{}
	for _, l := range lens {
		if l > maxCodeLen {
			return fmt.Errorf("code length %d exceeds %d", l, maxCodeLen)
		}
		h.counts[l]++
	}
	h.counts[0] = 0

	// Oversubscribed trees are corrupt. Incomplete trees are tolerated and
	// only fail if an unassigned code is actually read.
	left := 1
	total := 0
	for l := 1; l <= maxCodeLen; l++ {
		left <<= 1
		left -= int(h.counts[l])
		if left < 0 {
			return fmt.Errorf("oversubscribed huffman tree")
		}
		total += int(h.counts[l])
	}
	h.empty = total == 0

	var offs [maxCodeLen + 2]uint16
	for l := 1; l <= maxCodeLen; l++ {
		offs[l+1] = offs[l] + h.counts[l]
	}
	if cap(h.symbols) < total {
		h.symbols = make([]uint16, total)
	}
	h.symbols = h.symbols[:total]
	for sym, l := range lens {
		if l != 0 {
			h.symbols[offs[l]] = uint16(sym)
			offs[l]++
		}
	}
	return nil
}

func (h *huffman) decode(br *bitReader) (int, error) {
	if h.empty {
		return 0, fmt.Errorf("%w: read from empty huffman tree", ErrCorrupt)
	}
	bits := br.peek(maxCodeLen)
	code, first, index := 0, 0, 0
	for l := 1; l <= maxCodeLen; l++ {
		code |= int(bits>>(maxCodeLen-l)) & 1
		count := int(h.counts[l])
		if code-first < count {
			br.remove(uint(l))
			return int(h.symbols[index+code-first]), nil
		}
		index += count
		first += count
		first <<= 1
		code <<= 1
	}
	return 0, fmt.Errorf("%w: invalid huffman code", ErrCorrupt)
}
