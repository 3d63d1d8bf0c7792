package content

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// Color is a linear RGB colour.
type Color struct {
	R, G, B float32
}

// Vec3 returns the colour as a vector.
func (c Color) Vec3() mgl32.Vec3 {
	return mgl32.Vec3{c.R, c.G, c.B}
}

// Material is one layer of a deferred effect.
type Material struct {
	DiffuseTextureAlphaDisabled bool
	AlphaMaskEnabled            bool
	DiffuseColor                Color
	SpecAmount                  float32
	SpecPower                   float32
	EmissiveAmount              float32
	NormalPower                 float32
	Reflectiveness              float32
	DiffuseTexture              string
	MaterialTexture             string
	NormalTexture               string
}

// RenderDeferredEffect is the deferred shading material used by level and
// model geometry. Material1 is present for two-layer blended surfaces.
type RenderDeferredEffect struct {
	Alpha                               float32
	Sharpness                           float32
	VertexColorEnabled                  bool
	UseMaterialTextureForReflectiveness bool
	ReflectionMap                       string
	Material0                           Material
	Material1                           *Material
}

// DiffuseTextures returns the non-empty diffuse texture paths of both
// material layers.
func (e *RenderDeferredEffect) DiffuseTextures() []string {
	var out []string
	if e.Material0.DiffuseTexture != "" {
		out = append(out, e.Material0.DiffuseTexture)
	}
	if e.Material1 != nil && e.Material1.DiffuseTexture != "" {
		out = append(out, e.Material1.DiffuseTexture)
	}
	return out
}

// AdditiveEffect is an additively blended, unlit material.
type AdditiveEffect struct {
	ColorTint          Color
	VertexColorEnabled bool
	TextureEnabled     bool
	Texture            string
}

// RenderDeferredLiquidEffect is the water and ice material.
type RenderDeferredLiquidEffect struct {
	ReflectionMap       string
	WaveHeight          float32
	WaveSpeed0          mgl32.Vec2
	WaveSpeed1          mgl32.Vec2
	WaterReflectiveness float32
	BottomColor         Color
	DeepBottomColor     Color
	WaterEmissiveAmount float32
	WaterSpecAmount     float32
	WaterSpecPower      float32
	BottomTexture       string
	WaterNormalMap      string
	IceReflectiveness   float32
	IceColor            Color
	IceEmissiveAmount   float32
	IceSpecAmount       float32
	IceSpecPower        float32
	IceDiffuseMap       string
	IceNormalMap        string
}

func (*RenderDeferredEffect) Kind() Kind       { return KindRenderDeferredEffect }
func (*AdditiveEffect) Kind() Kind             { return KindAdditiveEffect }
func (*RenderDeferredLiquidEffect) Kind() Kind { return KindRenderDeferredLiquidEffect }
func (*RenderDeferredEffect) sealed()          {}
func (*AdditiveEffect) sealed()                {}
func (*RenderDeferredLiquidEffect) sealed()    {}

func readMaterial(d *decoder) Material {
	return Material{
		DiffuseTextureAlphaDisabled: d.boolean("diffuse texture alpha disabled"),
		AlphaMaskEnabled:            d.boolean("alpha mask enabled"),
		DiffuseColor:                d.color("diffuse color"),
		SpecAmount:                  d.f32("spec amount"),
		SpecPower:                   d.f32("spec power"),
		EmissiveAmount:              d.f32("emissive amount"),
		NormalPower:                 d.f32("normal power"),
		Reflectiveness:              d.f32("reflectiveness"),
		DiffuseTexture:              d.str("diffuse texture"),
		MaterialTexture:             d.str("material texture"),
		NormalTexture:               d.str("normal texture"),
	}
}

func readRenderDeferredEffect(d *decoder) *RenderDeferredEffect {
	e := &RenderDeferredEffect{
		Alpha:                               d.f32("alpha"),
		Sharpness:                           d.f32("sharpness"),
		VertexColorEnabled:                  d.boolean("vertex color enabled"),
		UseMaterialTextureForReflectiveness: d.boolean("use material texture for reflectiveness"),
		ReflectionMap:                       d.str("reflection map"),
	}
	e.Material0 = readMaterial(d)
	if d.boolean("material 1 present") {
		m := readMaterial(d)
		e.Material1 = &m
	}
	return e
}

func readAdditiveEffect(d *decoder) *AdditiveEffect {
	return &AdditiveEffect{
		ColorTint:          d.color("color tint"),
		VertexColorEnabled: d.boolean("vertex color enabled"),
		TextureEnabled:     d.boolean("texture enabled"),
		Texture:            d.str("texture"),
	}
}

func readRenderDeferredLiquidEffect(d *decoder) *RenderDeferredLiquidEffect {
	return &RenderDeferredLiquidEffect{
		ReflectionMap:       d.str("reflection map"),
		WaveHeight:          d.f32("wave height"),
		WaveSpeed0:          d.vec2("wave speed 0"),
		WaveSpeed1:          d.vec2("wave speed 1"),
		WaterReflectiveness: d.f32("water reflectiveness"),
		BottomColor:         d.color("bottom color"),
		DeepBottomColor:     d.color("deep bottom color"),
		WaterEmissiveAmount: d.f32("water emissive amount"),
		WaterSpecAmount:     d.f32("water spec amount"),
		WaterSpecPower:      d.f32("water spec power"),
		BottomTexture:       d.str("bottom texture"),
		WaterNormalMap:      d.str("water normal map"),
		IceReflectiveness:   d.f32("ice reflectiveness"),
		IceColor:            d.color("ice color"),
		IceEmissiveAmount:   d.f32("ice emissive amount"),
		IceSpecAmount:       d.f32("ice spec amount"),
		IceSpecPower:        d.f32("ice spec power"),
		IceDiffuseMap:       d.str("ice diffuse map"),
		IceNormalMap:        d.str("ice normal map"),
	}
}

// DeferredVertexLayout gives the byte offset of each attribute the deferred
// shader reads. Absent attributes are -1.
type DeferredVertexLayout struct {
	Stride    int
	Position  int
	Normal    int
	Tangent0  int
	Tangent1  int
	Color     int
	TexCoord0 int
	TexCoord1 int
}

// NewDeferredVertexLayout maps decl onto the deferred shader inputs. The
// first occurrence of each usage wins; tangents and texture coordinates take
// up to two slots. Usages the shader has no input for are an error, as is
// a declaration without position, normal or texture coordinates.
func NewDeferredVertexLayout(decl *VertexDeclaration) (*DeferredVertexLayout, error) {
	l := &DeferredVertexLayout{
		Stride:    decl.Stride(),
		Position:  -1,
		Normal:    -1,
		Tangent0:  -1,
		Tangent1:  -1,
		Color:     -1,
		TexCoord0: -1,
		TexCoord1: -1,
	}

	first := func(slots ...*int) func(int) {
		return func(offset int) {
			for _, s := range slots {
				if *s < 0 {
					*s = offset
					return
				}
			}
		}
	}
	assign := map[ElementUsage]func(int){
		UsagePosition:          first(&l.Position),
		UsageNormal:            first(&l.Normal),
		UsageTangent:           first(&l.Tangent0, &l.Tangent1),
		UsageColor:             first(&l.Color),
		UsageTextureCoordinate: first(&l.TexCoord0, &l.TexCoord1),
	}

	for _, el := range decl.Elements {
		set, ok := assign[el.Usage]
		if !ok {
			return nil, errors.Errorf("unsupported vertex usage %q", el.Usage)
		}
		set(int(el.Offset))
	}

	switch {
	case l.Position < 0:
		return nil, errors.New("missing vertex element 'position'")
	case l.Normal < 0:
		return nil, errors.New("missing vertex element 'normal'")
	case l.TexCoord0 < 0:
		return nil, errors.New("missing vertex element 'tex_coord'")
	}
	return l, nil
}
