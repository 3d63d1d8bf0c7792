package lzx

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

// bitWriter produces an LZX bitstream: bits are packed MSB first into
// little-endian 16-bit words.
type bitWriter struct {
	out []byte
	acc uint16
	n   uint
}

func (w *bitWriter) bits(v uint32, k uint) {
	for i := k; i > 0; i-- {
		w.acc = w.acc<<1 | uint16((v>>(i-1))&1)
		w.n++
		if w.n == 16 {
			w.out = binary.LittleEndian.AppendUint16(w.out, w.acc)
			w.acc, w.n = 0, 0
		}
	}
}

func (w *bitWriter) flush() []byte {
	if w.n > 0 {
		w.bits(0, 16-w.n)
	}
	return w.out
}

func (w *bitWriter) blockHeader(kind int, length int) {
	w.bits(uint32(kind), 3)
	w.bits(uint32(length>>8), 16)
	w.bits(uint32(length&0xff), 8)
}

// pretree writes a pretree where only symbols a and b have one-bit codes,
// a being "0" and b being "1" (a < b).
func (w *bitWriter) pretree(a, b int) {
	for i := 0; i < pretreeSymbols; i++ {
		if i == a || i == b {
			w.bits(1, 4)
		} else {
			w.bits(0, 4)
		}
	}
}

// flatTrees writes main and length trees for a 64KB window where every main
// symbol below mainCount has length codeLen and the length tree is empty.
func (w *bitWriter) flatTrees(codeLen int, mainCount int) {
	delta := (17 - codeLen) % 17
	// first 256 main lengths
	w.pretree(0, delta)
	for i := 0; i < numChars; i++ {
		if i < mainCount {
			w.bits(1, 1)
		} else {
			w.bits(0, 1)
		}
	}
	// remaining 256 main lengths
	w.pretree(0, delta)
	for i := numChars; i < numChars+32*8; i++ {
		if i < mainCount {
			w.bits(1, 1)
		} else {
			w.bits(0, 1)
		}
	}
	// length tree, all zero
	w.pretree(0, delta)
	for i := 0; i < numSecondaryLens; i++ {
		w.bits(0, 1)
	}
}

func newTestDecoder(t *testing.T) *Decoder {
	t.Helper()
	d, err := NewDecoder(16)
	if err != nil {
		t.Fatalf("new decoder: %v", err)
	}
	return d
}

func TestUncompressedBlock(t *testing.T) {
	data := []byte("Magicka content, stored without compression")

	w := &bitWriter{}
	w.bits(0, 1) // no E8 translation
	w.blockHeader(blockUncompressed, len(data))
	block := w.flush()
	block = binary.LittleEndian.AppendUint32(block, 1)
	block = binary.LittleEndian.AppendUint32(block, 1)
	block = binary.LittleEndian.AppendUint32(block, 1)
	block = append(block, data...)

	d := newTestDecoder(t)
	out, err := d.Decompress(block, len(data))
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Errorf("expected %q, got %q", data, out)
	}
}

func TestUncompressedBlockAcrossFrames(t *testing.T) {
	data := []byte("0123456789abcdefFEDCBA9876543210")

	w := &bitWriter{}
	w.bits(0, 1)
	w.blockHeader(blockUncompressed, len(data))
	first := w.flush()
	first = append(first, make([]byte, 12)...)
	first = append(first, data[:16]...)
	second := append([]byte(nil), data[16:]...)

	d := newTestDecoder(t)
	out1, err := d.Decompress(first, 16)
	if err != nil {
		t.Fatalf("frame 1: %v", err)
	}
	out2, err := d.Decompress(second, 16)
	if err != nil {
		t.Fatalf("frame 2: %v", err)
	}
	if got := append(out1, out2...); !bytes.Equal(got, data) {
		t.Errorf("expected %q, got %q", data, got)
	}
}

func TestVerbatimLiterals(t *testing.T) {
	text := []byte("Hello, Aldrheim!")

	w := &bitWriter{}
	w.bits(0, 1)
	w.blockHeader(blockVerbatim, len(text))
	w.flatTrees(8, numChars)
	for _, c := range text {
		w.bits(uint32(c), 8)
	}

	d := newTestDecoder(t)
	out, err := d.Decompress(w.flush(), len(text))
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if !bytes.Equal(out, text) {
		t.Errorf("expected %q, got %q", text, out)
	}
}

func TestVerbatimMatches(t *testing.T) {
	matchSym := func(slot, lenHeader int) uint32 {
		return uint32(numChars + (slot<<3 | lenHeader))
	}

	w := &bitWriter{}
	w.bits(0, 1)
	w.blockHeader(blockVerbatim, 12)
	w.flatTrees(9, numChars+32*8)

	w.bits('a', 9)
	w.bits(matchSym(3, 3), 9) // offset 1, length 5
	w.bits('b', 9)
	w.bits(matchSym(0, 0), 9) // repeat offset R0=1, length 2
	w.bits(matchSym(6, 1), 9) // base 8, two extra bits
	w.bits(3, 2)              // offset 9, length 3

	d := newTestDecoder(t)
	out, err := d.Decompress(w.flush(), 12)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if want := []byte("aaaaaabbbaaa"); !bytes.Equal(out, want) {
		t.Errorf("expected %q, got %q", want, out)
	}
	if d.r0 != 9 || d.r1 != 1 || d.r2 != 1 {
		t.Errorf("unexpected repeated offsets: %d %d %d", d.r0, d.r1, d.r2)
	}
}

func TestMatchAcrossFrames(t *testing.T) {
	// One verbatim block of 8 bytes split over two 4-byte frames; the second
	// frame copies from the first through the shared window.
	w := &bitWriter{}
	w.bits(0, 1)
	w.blockHeader(blockVerbatim, 8)
	w.flatTrees(9, numChars+32*8)
	for _, c := range []byte("abcd") {
		w.bits(uint32(c), 9)
	}
	first := w.flush()

	w = &bitWriter{}
	w.bits(uint32(numChars+(5<<3|2)), 9) // slot 5: base 6, one extra bit
	w.bits(0, 1)                          // offset 4, length 4
	second := w.flush()

	d := newTestDecoder(t)
	out1, err := d.Decompress(first, 4)
	if err != nil {
		t.Fatalf("frame 1: %v", err)
	}
	out2, err := d.Decompress(second, 4)
	if err != nil {
		t.Fatalf("frame 2: %v", err)
	}
	if got := string(out1) + string(out2); got != "abcdabcd" {
		t.Errorf("expected abcdabcd, got %q", got)
	}

	fresh := newTestDecoder(t)
	if _, err := fresh.Decompress(second, 4); err == nil {
		t.Error("expected a fresh decoder to reject a continuation frame")
	}
}

// TestMixedBlockStream decodes one stream of three frames: an uncompressed
// block filling the whole window with E8 translation enabled, then an
// aligned block whose matches copy from the end of the wrapped window.
func TestMixedBlockStream(t *testing.T) {
	const (
		half     = 1 << 15
		fileSize = 0x20000
	)
	data := make([]byte, 2*half)
	for i := range data {
		data[i] = byte(i % 200)
	}
	data[100] = 0xE8
	binary.LittleEndian.PutUint32(data[101:], 1000)
	data[2*half-20] = 0xE8
	binary.LittleEndian.PutUint32(data[2*half-19:], 70000)

	w := &bitWriter{}
	w.bits(1, 1) // E8 translation on
	w.bits(fileSize>>16, 16)
	w.bits(fileSize&0xffff, 16)
	w.blockHeader(blockUncompressed, len(data))
	first := w.flush()
	for i := 0; i < 3; i++ {
		first = binary.LittleEndian.AppendUint32(first, 1)
	}
	first = append(first, data[:half]...)
	second := append([]byte(nil), data[half:]...)

	matchSym := func(slot, lenHeader int) uint32 {
		return uint32(numChars + (slot<<3 | lenHeader))
	}
	w = &bitWriter{}
	w.blockHeader(blockAligned, 22)
	for i := 0; i < alignedSymbols; i++ {
		w.bits(3, 3)
	}
	w.flatTrees(9, numChars+32*8)
	w.bits(matchSym(8, 6), 9) // base 16, aligned symbol only
	w.bits(6, 3)              // offset 20, length 8
	w.bits(matchSym(0, 6), 9) // R0, length 8
	w.bits(matchSym(0, 2), 9) // R0, length 4
	w.bits(matchSym(10, 0), 9)
	w.bits(1, 1) // base 32, one verbatim bit then aligned
	w.bits(7, 3) // offset 45, length 2
	third := w.flush()

	d := newTestDecoder(t)
	out1, err := d.Decompress(first, half)
	if err != nil {
		t.Fatalf("frame 1: %v", err)
	}
	out2, err := d.Decompress(second, half)
	if err != nil {
		t.Fatalf("frame 2: %v", err)
	}
	if d.windowPos != 0 {
		t.Fatalf("expected the window to wrap, position %d", d.windowPos)
	}
	out3, err := d.Decompress(third, 22)
	if err != nil {
		t.Fatalf("frame 3: %v", err)
	}

	// absolute call targets become relative to each frame's stream position
	if got := binary.LittleEndian.Uint32(out1[101:]); got != 1000-100 {
		t.Errorf("frame 1: expected call offset %d, got %d", 1000-100, got)
	}
	if got := binary.LittleEndian.Uint32(out2[half-19:]); got != 70000-(2*half-20) {
		t.Errorf("frame 2: expected call offset %d, got %d", 70000-(2*half-20), got)
	}

	want := append([]byte(nil), data[2*half-20:]...)
	want = append(want, data[2*half-25], data[2*half-24])
	binary.LittleEndian.PutUint32(want[1:], 70000-2*half)
	if !bytes.Equal(out3, want) {
		t.Errorf("frame 3: expected %x, got %x", want, out3)
	}
	if d.r0 != 45 || d.r1 != 20 || d.r2 != 1 {
		t.Errorf("unexpected repeated offsets: %d %d %d", d.r0, d.r1, d.r2)
	}

	// the rest of the window is untouched by translation
	for i, b := range out1[105:] {
		if b != data[105+i] {
			t.Fatalf("frame 1: byte %d changed to %#x", 105+i, b)
		}
	}
}

func TestInvalidBlockType(t *testing.T) {
	w := &bitWriter{}
	w.bits(0, 1)
	w.blockHeader(5, 16)

	d := newTestDecoder(t)
	_, err := d.Decompress(w.flush(), 16)
	if !errors.Is(err, ErrCorrupt) {
		t.Errorf("expected ErrCorrupt, got %v", err)
	}
}

func TestNewDecoderWindow(t *testing.T) {
	if _, err := NewDecoder(12); err == nil {
		t.Error("expected error for window bits 12")
	}
	d := newTestDecoder(t)
	if d.mainElems != 512 {
		t.Errorf("expected 512 main elements for a 64KB window, got %d", d.mainElems)
	}
	if _, err := d.Decompress(nil, 1<<17); err == nil {
		t.Error("expected error for a frame larger than the window")
	}
}

func BenchmarkVerbatimLiterals(b *testing.B) {
	text := bytes.Repeat([]byte("xnb"), 10000)
	w := &bitWriter{}
	w.bits(0, 1)
	w.blockHeader(blockVerbatim, len(text))
	w.flatTrees(8, numChars)
	for _, c := range text {
		w.bits(uint32(c), 8)
	}
	block := w.flush()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		d, _ := NewDecoder(16)
		if _, err := d.Decompress(block, len(text)); err != nil {
			b.Fatal(err)
		}
	}
}
