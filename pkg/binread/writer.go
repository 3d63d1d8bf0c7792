package binread

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Writer is the encoding counterpart of Reader. It appends to an internal
// buffer and never fails.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Bytes returns the encoded buffer.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the encoded length.
func (w *Writer) Len() int { return len(w.buf) }

func (w *Writer) Raw(b []byte) *Writer {
	w.buf = append(w.buf, b...)
	return w
}

func (w *Writer) U8(v uint8) *Writer {
	w.buf = append(w.buf, v)
	return w
}

func (w *Writer) Bool(v bool) *Writer {
	if v {
		return w.U8(1)
	}
	return w.U8(0)
}

func (w *Writer) U16(v uint16) *Writer {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
	return w
}

func (w *Writer) U16BE(v uint16) *Writer {
	w.buf = binary.BigEndian.AppendUint16(w.buf, v)
	return w
}

func (w *Writer) U32(v uint32) *Writer {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
	return w
}

func (w *Writer) I32(v int32) *Writer {
	return w.U32(uint32(v))
}

func (w *Writer) F32(v float32) *Writer {
	return w.U32(math.Float32bits(v))
}

// Int7 appends v as a 7-bit encoded int.
func (w *Writer) Int7(v int32) *Writer {
	u := uint32(v)
	for u >= 0x80 {
		w.buf = append(w.buf, byte(u)|0x80)
		u >>= 7
	}
	w.buf = append(w.buf, byte(u))
	return w
}

func (w *Writer) String(s string) *Writer {
	w.Int7(int32(len(s)))
	w.buf = append(w.buf, s...)
	return w
}

func (w *Writer) Vec2(v mgl32.Vec2) *Writer {
	return w.F32(v[0]).F32(v[1])
}

func (w *Writer) Vec3(v mgl32.Vec3) *Writer {
	return w.F32(v[0]).F32(v[1]).F32(v[2])
}

func (w *Writer) Quat(q mgl32.Quat) *Writer {
	return w.F32(q.V[0]).F32(q.V[1]).F32(q.V[2]).F32(q.W)
}

func (w *Writer) Mat4(m mgl32.Mat4) *Writer {
	for _, f := range m {
		w.F32(f)
	}
	return w
}
