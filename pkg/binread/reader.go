// Package binread provides a cursor over an in-memory byte buffer for decoding
// the primitive values found in XNB content streams.
//
// All multi-byte integers and floats are little-endian unless the method name
// says otherwise. Every read fails with io.ErrUnexpectedEOF on truncation.
package binread

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// MaxVarintLen is the maximum number of bytes a 7-bit encoded int may occupy.
const MaxVarintLen = 5

// ErrVarintOverflow is returned when a 7-bit encoded int does not terminate
// within MaxVarintLen bytes.
var ErrVarintOverflow = errors.New("7-bit encoded int overflows 32 bits")

// Reader decodes primitives from a byte slice.
type Reader struct {
	b   []byte
	pos int
}

// NewReader returns a Reader positioned at the start of b.
func NewReader(b []byte) *Reader {
	return &Reader{b: b}
}

// Pos returns the current cursor offset.
func (r *Reader) Pos() int { return r.pos }

// Len returns the number of unread bytes.
func (r *Reader) Len() int { return len(r.b) - r.pos }

// Seek moves the cursor to an absolute offset.
func (r *Reader) Seek(pos int) error {
	if pos < 0 || pos > len(r.b) {
		return fmt.Errorf("seek to %d: out of range [0, %d]", pos, len(r.b))
	}
	r.pos = pos
	return nil
}

func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.b) {
		return nil, io.ErrUnexpectedEOF
	}
	b := r.b[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// Bytes reads n raw bytes and returns an owned copy.
func (r *Reader) Bytes(n int) ([]byte, error) {
	b, err := r.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

func (r *Reader) U8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Bool reads one byte; any nonzero value is true.
func (r *Reader) Bool() (bool, error) {
	v, err := r.U8()
	return v != 0, err
}

func (r *Reader) U16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// U16BE reads a big-endian uint16. Only the compression framing uses this.
func (r *Reader) U16BE() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (r *Reader) U32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) I32() (int32, error) {
	v, err := r.U32()
	return int32(v), err
}

func (r *Reader) F32() (float32, error) {
	v, err := r.U32()
	return math.Float32frombits(v), err
}

// Int7 reads a 7-bit encoded int: seven payload bits per byte, high bit set
// while more bytes follow.
func (r *Reader) Int7() (int32, error) {
	var result uint32
	for i := 0; i < MaxVarintLen; i++ {
		b, err := r.U8()
		if err != nil {
			return 0, err
		}
		if i == MaxVarintLen-1 && b > 0x0f {
			return 0, ErrVarintOverflow
		}
		result |= uint32(b&0x7f) << (7 * i)
		if b&0x80 == 0 {
			return int32(result), nil
		}
	}
	return 0, ErrVarintOverflow
}

// String reads a 7-bit length prefix followed by that many UTF-8 bytes.
func (r *Reader) String() (string, error) {
	n, err := r.Int7()
	if err != nil {
		return "", fmt.Errorf("string length: %w", err)
	}
	if n < 0 {
		return "", fmt.Errorf("negative string length %d", n)
	}
	b, err := r.take(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *Reader) floats(dst []float32) error {
	for i := range dst {
		v, err := r.F32()
		if err != nil {
			return err
		}
		dst[i] = v
	}
	return nil
}

func (r *Reader) Vec2() (mgl32.Vec2, error) {
	var v mgl32.Vec2
	err := r.floats(v[:])
	return v, err
}

func (r *Reader) Vec3() (mgl32.Vec3, error) {
	var v mgl32.Vec3
	err := r.floats(v[:])
	return v, err
}

// Quat reads four floats in x, y, z, w order.
func (r *Reader) Quat() (mgl32.Quat, error) {
	var f [4]float32
	if err := r.floats(f[:]); err != nil {
		return mgl32.Quat{}, err
	}
	return mgl32.Quat{W: f[3], V: mgl32.Vec3{f[0], f[1], f[2]}}, nil
}

// Mat4 reads sixteen floats. The source engine stores M11..M44 row by row
// for row vectors, which is the same memory layout as a column-major mgl32
// matrix for column vectors, so the values are stored in read order.
func (r *Reader) Mat4() (mgl32.Mat4, error) {
	var m mgl32.Mat4
	err := r.floats(m[:])
	return m, err
}
