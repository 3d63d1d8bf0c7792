package content

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/aldrheim/xnbtools/pkg/binread"
)

// decoder reads one content stream. The first failure is kept in err and
// every later read becomes a no-op, so layouts read top to bottom and
// check the error once.
type decoder struct {
	r       *binread.Reader
	readers []TypeReader
	err     error
}

func newDecoder(data []byte) *decoder {
	return &decoder{r: binread.NewReader(data)}
}

func (d *decoder) fail(err error, field string) {
	if d.err == nil {
		d.err = errors.Wrapf(err, "read %s at offset %d", field, d.r.Pos())
	}
}

func (d *decoder) errorf(format string, args ...any) {
	if d.err == nil {
		d.err = errors.Errorf(format, args...)
	}
}

func (d *decoder) u8(field string) uint8 {
	if d.err != nil {
		return 0
	}
	v, err := d.r.U8()
	if err != nil {
		d.fail(err, field)
	}
	return v
}

func (d *decoder) boolean(field string) bool {
	if d.err != nil {
		return false
	}
	v, err := d.r.Bool()
	if err != nil {
		d.fail(err, field)
	}
	return v
}

func (d *decoder) u16(field string) uint16 {
	if d.err != nil {
		return 0
	}
	v, err := d.r.U16()
	if err != nil {
		d.fail(err, field)
	}
	return v
}

func (d *decoder) u32(field string) uint32 {
	if d.err != nil {
		return 0
	}
	v, err := d.r.U32()
	if err != nil {
		d.fail(err, field)
	}
	return v
}

func (d *decoder) i32(field string) int32 {
	if d.err != nil {
		return 0
	}
	v, err := d.r.I32()
	if err != nil {
		d.fail(err, field)
	}
	return v
}

func (d *decoder) f32(field string) float32 {
	if d.err != nil {
		return 0
	}
	v, err := d.r.F32()
	if err != nil {
		d.fail(err, field)
	}
	return v
}

func (d *decoder) int7(field string) int32 {
	if d.err != nil {
		return 0
	}
	v, err := d.r.Int7()
	if err != nil {
		d.fail(err, field)
	}
	return v
}

func (d *decoder) str(field string) string {
	if d.err != nil {
		return ""
	}
	v, err := d.r.String()
	if err != nil {
		d.fail(err, field)
	}
	return v
}

func (d *decoder) bytes(n int, field string) []byte {
	if d.err != nil {
		return nil
	}
	v, err := d.r.Bytes(n)
	if err != nil {
		d.fail(err, field)
	}
	return v
}

func (d *decoder) vec2(field string) mgl32.Vec2 {
	if d.err != nil {
		return mgl32.Vec2{}
	}
	v, err := d.r.Vec2()
	if err != nil {
		d.fail(err, field)
	}
	return v
}

func (d *decoder) vec3(field string) mgl32.Vec3 {
	if d.err != nil {
		return mgl32.Vec3{}
	}
	v, err := d.r.Vec3()
	if err != nil {
		d.fail(err, field)
	}
	return v
}

func (d *decoder) quat(field string) mgl32.Quat {
	if d.err != nil {
		return mgl32.QuatIdent()
	}
	v, err := d.r.Quat()
	if err != nil {
		d.fail(err, field)
	}
	return v
}

func (d *decoder) mat4(field string) mgl32.Mat4 {
	if d.err != nil {
		return mgl32.Mat4{}
	}
	v, err := d.r.Mat4()
	if err != nil {
		d.fail(err, field)
	}
	return v
}

func (d *decoder) color(field string) Color {
	return Color{
		R: d.f32(field + ".r"),
		G: d.f32(field + ".g"),
		B: d.f32(field + ".b"),
	}
}

// count reads an i32 element count. Negative counts are rejected.
func (d *decoder) count(field string) int {
	n := d.i32(field)
	if n < 0 {
		d.errorf("invalid %s: %d", field, n)
		return 0
	}
	return int(n)
}

func (d *decoder) countU32(field string) int {
	return int(d.u32(field))
}

func (d *decoder) countU16(field string) int {
	return int(d.u16(field))
}

// sized returns a slice capacity for n elements of at least minSize bytes
// each, bounded by what is left in the stream.
func (d *decoder) sized(n, minSize int) int {
	if d.err != nil {
		return 0
	}
	if limit := d.r.Len() / max(minSize, 1); n > limit {
		return limit
	}
	return n
}

// boneRef reads a bone index, one byte wide for models with at most 255
// bones and four bytes otherwise.
func (d *decoder) boneRef(numBones int, field string) uint32 {
	if numBones <= 255 {
		return uint32(d.u8(field))
	}
	return d.u32(field)
}
