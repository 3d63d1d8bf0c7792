package content

import "fmt"

// ElementFormat is the storage format of one vertex element.
type ElementFormat uint8

const (
	FormatSingle ElementFormat = iota
	FormatVector2
	FormatVector3
	FormatVector4
	FormatColor
	FormatByte4
	FormatShort2
	FormatShort4
	FormatRgba32
	FormatNormalizedShort2
	FormatNormalizedShort4
	FormatRgb32
	FormatRgba64
	FormatUInt40
	FormatNormalized40
	FormatHalfVector2
	FormatHalfVector4
)

var elementFormats = [...]struct {
	name string
	size int
}{
	FormatSingle:           {"Single", 4},
	FormatVector2:          {"Vector2", 8},
	FormatVector3:          {"Vector3", 12},
	FormatVector4:          {"Vector4", 16},
	FormatColor:            {"Color", 4},
	FormatByte4:            {"Byte4", 4},
	FormatShort2:           {"Short2", 4},
	FormatShort4:           {"Short4", 8},
	FormatRgba32:           {"Rgba32", 4},
	FormatNormalizedShort2: {"NormalizedShort2", 4},
	FormatNormalizedShort4: {"NormalizedShort4", 8},
	FormatRgb32:            {"Rgb32", 4},
	FormatRgba64:           {"Rgba64", 8},
	FormatUInt40:           {"UInt40", 4},
	FormatNormalized40:     {"Normalized40", 4},
	FormatHalfVector2:      {"HalfVector2", 4},
	FormatHalfVector4:      {"HalfVector4", 8},
}

// Size returns the byte size of one element of this format.
func (f ElementFormat) Size() int {
	if int(f) < len(elementFormats) {
		return elementFormats[f].size
	}
	return 0
}

func (f ElementFormat) String() string {
	if int(f) < len(elementFormats) {
		return elementFormats[f].name
	}
	return fmt.Sprintf("ElementFormat(%d)", uint8(f))
}

// ElementMethod is the tessellator processing method of an element.
type ElementMethod uint8

const (
	MethodDefault          ElementMethod = 0
	MethodUV               ElementMethod = 4
	MethodLookUp           ElementMethod = 5
	MethodLookUpPresampled ElementMethod = 6
)

func (m ElementMethod) String() string {
	switch m {
	case MethodDefault:
		return "Default"
	case MethodUV:
		return "UV"
	case MethodLookUp:
		return "LookUp"
	case MethodLookUpPresampled:
		return "LookUpPresampled"
	}
	return fmt.Sprintf("ElementMethod(%d)", uint8(m))
}

// ElementUsage is the semantic of a vertex element.
type ElementUsage uint8

const (
	UsagePosition          ElementUsage = 0
	UsageBlendWeight       ElementUsage = 1
	UsageBlendIndices      ElementUsage = 2
	UsageNormal            ElementUsage = 3
	UsagePointSize         ElementUsage = 4
	UsageTextureCoordinate ElementUsage = 5
	UsageTangent           ElementUsage = 6
	UsageBinormal          ElementUsage = 7
	UsageTessellateFactor  ElementUsage = 8
	UsageColor             ElementUsage = 10
	UsageFog               ElementUsage = 11
	UsageDepth             ElementUsage = 12
	UsageSample            ElementUsage = 13
)

var usageNames = map[ElementUsage]string{
	UsagePosition:          "Position",
	UsageBlendWeight:       "BlendWeight",
	UsageBlendIndices:      "BlendIndices",
	UsageNormal:            "Normal",
	UsagePointSize:         "PointSize",
	UsageTextureCoordinate: "TextureCoordinate",
	UsageTangent:           "Tangent",
	UsageBinormal:          "Binormal",
	UsageTessellateFactor:  "TessellateFactor",
	UsageColor:             "Color",
	UsageFog:               "Fog",
	UsageDepth:             "Depth",
	UsageSample:            "Sample",
}

func (u ElementUsage) String() string {
	if name, ok := usageNames[u]; ok {
		return name
	}
	return fmt.Sprintf("ElementUsage(%d)", uint8(u))
}

// VertexElement describes one attribute inside a vertex.
type VertexElement struct {
	Stream     uint16
	Offset     uint16
	Format     ElementFormat
	Method     ElementMethod
	Usage      ElementUsage
	UsageIndex uint8
}

func (e VertexElement) String() string {
	return fmt.Sprintf("%s-%s", e.Format, e.Usage)
}

// VertexDeclaration is the schema for the bytes of a VertexBuffer.
type VertexDeclaration struct {
	Elements []VertexElement
}

// Stride returns the vertex size derived from the element layout.
func (v *VertexDeclaration) Stride() int {
	stride := 0
	for _, el := range v.Elements {
		stride = max(stride, int(el.Offset)+el.Format.Size())
	}
	return stride
}

// VertexBuffer holds raw vertex bytes.
type VertexBuffer struct {
	Data []byte
}

// IndexBuffer holds raw 16- or 32-bit indices.
type IndexBuffer struct {
	Is16Bit bool
	Data    []byte
}

// IndexSize returns the byte width of a single index.
func (b *IndexBuffer) IndexSize() int {
	if b.Is16Bit {
		return 2
	}
	return 4
}

// IndexCount returns the number of indices in the buffer.
func (b *IndexBuffer) IndexCount() int {
	return len(b.Data) / b.IndexSize()
}

// Index returns index i widened to 32 bits.
func (b *IndexBuffer) Index(i int) uint32 {
	if b.Is16Bit {
		return uint32(b.Data[2*i]) | uint32(b.Data[2*i+1])<<8
	}
	o := 4 * i
	return uint32(b.Data[o]) | uint32(b.Data[o+1])<<8 | uint32(b.Data[o+2])<<16 | uint32(b.Data[o+3])<<24
}

func (*VertexDeclaration) Kind() Kind { return KindVertexDeclaration }
func (*VertexBuffer) Kind() Kind      { return KindVertexBuffer }
func (*IndexBuffer) Kind() Kind       { return KindIndexBuffer }
func (*VertexDeclaration) sealed()    {}
func (*VertexBuffer) sealed()         {}
func (*IndexBuffer) sealed()          {}

func readVertexElement(d *decoder) VertexElement {
	el := VertexElement{
		Stream:     d.u16("element stream"),
		Offset:     d.u16("element offset"),
		Format:     ElementFormat(d.u8("element format")),
		Method:     ElementMethod(d.u8("element method")),
		Usage:      ElementUsage(d.u8("element usage")),
		UsageIndex: d.u8("element usage index"),
	}
	if d.err != nil {
		return el
	}

	if int(el.Format) >= len(elementFormats) {
		d.errorf("unknown element format: %d", uint8(el.Format))
	}
	switch el.Method {
	case MethodDefault, MethodUV, MethodLookUp, MethodLookUpPresampled:
	default:
		d.errorf("unknown element method: %d", uint8(el.Method))
	}
	if _, ok := usageNames[el.Usage]; !ok {
		d.errorf("unknown element usage: %d", uint8(el.Usage))
	}
	return el
}

func readVertexDeclaration(d *decoder) *VertexDeclaration {
	n := d.countU32("element count")
	decl := &VertexDeclaration{Elements: make([]VertexElement, 0, d.sized(n, 8))}
	for i := 0; i < n && d.err == nil; i++ {
		decl.Elements = append(decl.Elements, readVertexElement(d))
	}
	return decl
}

func readVertexBuffer(d *decoder) *VertexBuffer {
	size := d.countU32("vertex data size")
	return &VertexBuffer{Data: d.bytes(size, "vertex data")}
}

func readIndexBuffer(d *decoder) *IndexBuffer {
	b := &IndexBuffer{Is16Bit: d.boolean("16-bit flag")}
	size := d.countU32("index data size")
	b.Data = d.bytes(size, "index data")
	return b
}
