package content

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// ErrLiquidUnsupported is returned when a level contains liquid volumes.
// Their layout is unknown, and reading past one would desynchronise the rest
// of the level.
var ErrLiquidUnsupported = errors.New("liquid volumes are not supported")

// MaxCollisionMeshes is the number of collision mesh slots in a level.
const MaxCollisionMeshes = 10

// LevelModel is a complete level: static geometry plus everything placed
// in it.
type LevelModel struct {
	Model           *BiTreeModel
	AnimatedParts   []AnimatedLevelPart
	Lights          []Light
	Effects         []EffectStorage
	PhysicsObjects  []PhysicsEntity
	Liquids         []Liquid
	ForceFields     []ForceField
	CollisionMeshes []TriangleMesh
	CameraMesh      *TriangleMesh
	TriggerAreas    []TriggerArea
	Locators        []Locator
	NavMesh         NavMesh
}

func (*LevelModel) Kind() Kind { return KindLevelModel }
func (*LevelModel) sealed()    {}

// MeshSetting is a pair of per-mesh flags of an animated part.
type MeshSetting struct {
	Name  string
	Flag1 bool
	Flag2 bool
}

// PartCollision is the collision mesh of an animated part.
type PartCollision struct {
	Material CollisionMaterial
	Mesh     TriangleMesh
}

// AnimatedLevelPart is a moving piece of a level, such as a door or a
// bridge, with its own model and nested sub-parts.
type AnimatedLevelPart struct {
	Name              string
	AffectShields     bool
	Model             *Model
	MeshSettings      []MeshSetting
	Liquids           []Liquid
	Locators          []Locator
	AnimationDuration float32
	Animation         AnimationChannel
	Effects           []EffectStorage
	LightRefs         []LightRef
	Collision         *PartCollision
	NavMesh           *NavMesh
	Children          []AnimatedLevelPart
}

// Walk visits p and all nested parts depth first.
func (p *AnimatedLevelPart) Walk(fn func(*AnimatedLevelPart)) {
	fn(p)
	for i := range p.Children {
		p.Children[i].Walk(fn)
	}
}

// LightKind is the shape of a light.
type LightKind uint32

const (
	LightPoint       LightKind = 0
	LightDirectional LightKind = 1
	LightSpot        LightKind = 2
	LightCustom      LightKind = 10
)

func (k LightKind) String() string {
	switch k {
	case LightPoint:
		return "Point"
	case LightDirectional:
		return "Directional"
	case LightSpot:
		return "Spot"
	case LightCustom:
		return "Custom"
	}
	return fmt.Sprintf("LightKind(%d)", uint32(k))
}

// LightVariation is the animated intensity pattern of a light.
type LightVariation uint32

const (
	VariationNone LightVariation = iota
	VariationSine
	VariationFlicker
	VariationCandle
	VariationStrobe
)

func (v LightVariation) String() string {
	switch v {
	case VariationNone:
		return "None"
	case VariationSine:
		return "Sine"
	case VariationFlicker:
		return "Flicker"
	case VariationCandle:
		return "Candle"
	case VariationStrobe:
		return "Strobe"
	}
	return fmt.Sprintf("LightVariation(%d)", uint32(v))
}

// Light is a static light of a level.
type Light struct {
	Name            string
	Position        mgl32.Vec3
	Direction       mgl32.Vec3
	Kind            LightKind
	Variation       LightVariation
	Reach           float32
	UseAttenuation  bool
	CutoffAngle     float32
	Sharpness       float32
	DiffuseColor    Color
	AmbientColor    Color
	SpecularAmount  float32
	VariationSpeed  float32
	VariationAmount float32
	ShadowMapSize   int32
	CastsShadows    bool
}

// LightRef attaches a named level light to an animated part.
type LightRef struct {
	Name      string
	Transform mgl32.Mat4
}

// EffectStorage places a visual effect in the level.
type EffectStorage struct {
	Name     string
	Position mgl32.Vec3
	Forward  mgl32.Vec3
	Range    float32
	Effect   string
}

// PhysicsEntity places a physics object template.
type PhysicsEntity struct {
	Transform mgl32.Mat4
	Template  string
}

// Liquid is a water or lava volume. Decoding one always fails; the type
// exists so that levels without liquids keep their shape.
type Liquid struct {
	Reader int32
}

// ForceField is a shield-like distortion surface with its own geometry.
type ForceField struct {
	Color              Color
	Width              float32
	AlphaPower         float32
	AlphaFalloffPower  float32
	MaxRadius          float32
	RippleDistortion   float32
	MapDistortion      float32
	VertexColorEnabled bool
	DisplacementMap    string
	TTL                float32
	VertexBuffer       *VertexBuffer
	IndexBuffer        *IndexBuffer
	Declaration        *VertexDeclaration
	VertexStride       int32
	NumVertices        int32
	PrimitiveCount     int32
}

// TriggerArea is an oriented box that fires scripted events.
type TriggerArea struct {
	Name        string
	Position    mgl32.Vec3
	SideLengths mgl32.Vec3
	Orientation mgl32.Quat
}

// Locator is a named point of interest.
type Locator struct {
	Name      string
	Transform mgl32.Mat4
	Radius    float32
}

// Position returns the translation of the locator's transform.
func (l Locator) Position() mgl32.Vec3 {
	return l.Transform.Col(3).Vec3()
}

func readLevelModel(d *decoder) *LevelModel {
	l := &LevelModel{}
	l.Model = readAs[*BiTreeModel](d, "bi-tree model")

	n := d.count("animated part count")
	for i := 0; i < n && d.err == nil; i++ {
		l.AnimatedParts = append(l.AnimatedParts, readAnimatedLevelPart(d))
	}

	n = d.count("light count")
	for i := 0; i < n && d.err == nil; i++ {
		l.Lights = append(l.Lights, readLight(d))
	}

	l.Effects = readEffectStorages(d)

	n = d.count("physics entity count")
	for i := 0; i < n && d.err == nil; i++ {
		l.PhysicsObjects = append(l.PhysicsObjects, PhysicsEntity{
			Transform: d.mat4("physics entity transform"),
			Template:  d.str("physics entity template"),
		})
	}

	l.Liquids = readLiquids(d)

	n = d.count("force field count")
	for i := 0; i < n && d.err == nil; i++ {
		l.ForceFields = append(l.ForceFields, readForceField(d))
	}

	for i := 0; i < MaxCollisionMeshes && d.err == nil; i++ {
		if d.boolean("collision mesh present") {
			l.CollisionMeshes = append(l.CollisionMeshes, readTriangleMesh(d))
		}
	}
	if d.boolean("camera mesh present") {
		m := readTriangleMesh(d)
		l.CameraMesh = &m
	}

	n = d.count("trigger area count")
	for i := 0; i < n && d.err == nil; i++ {
		l.TriggerAreas = append(l.TriggerAreas, TriggerArea{
			Name:        d.str("trigger area name"),
			Position:    d.vec3("trigger area position"),
			SideLengths: d.vec3("trigger area side lengths"),
			Orientation: d.quat("trigger area orientation"),
		})
	}

	l.Locators = readLocators(d)
	l.NavMesh = readNavMesh(d)
	return l
}

func readAnimatedLevelPart(d *decoder) AnimatedLevelPart {
	p := AnimatedLevelPart{
		Name:          d.str("part name"),
		AffectShields: d.boolean("affect shields"),
	}
	p.Model = readAs[*Model](d, "model")

	n := d.count("mesh setting count")
	for i := 0; i < n && d.err == nil; i++ {
		p.MeshSettings = append(p.MeshSettings, MeshSetting{
			Name:  d.str("mesh setting name"),
			Flag1: d.boolean("mesh setting flag"),
			Flag2: d.boolean("mesh setting flag"),
		})
	}

	p.Liquids = readLiquids(d)
	p.Locators = readLocators(d)
	p.AnimationDuration = d.f32("animation duration")
	p.Animation = readAnimationChannel(d)
	p.Effects = readEffectStorages(d)

	n = d.count("light ref count")
	for i := 0; i < n && d.err == nil; i++ {
		p.LightRefs = append(p.LightRefs, LightRef{
			Name:      d.str("light ref name"),
			Transform: d.mat4("light ref transform"),
		})
	}

	if d.boolean("collision present") {
		c := PartCollision{Material: readCollisionMaterial(d)}
		c.Mesh = readTriangleMesh(d)
		p.Collision = &c
	}
	if d.boolean("nav mesh present") {
		m := readNavMesh(d)
		p.NavMesh = &m
	}

	n = d.count("child part count")
	for i := 0; i < n && d.err == nil; i++ {
		p.Children = append(p.Children, readAnimatedLevelPart(d))
	}
	if d.err != nil {
		d.err = errors.Wrapf(d.err, "animated part %q", p.Name)
	}
	return p
}

func readLight(d *decoder) Light {
	l := Light{
		Name:      d.str("light name"),
		Position:  d.vec3("light position"),
		Direction: d.vec3("light direction"),
		Kind:      LightKind(d.u32("light kind")),
		Variation: LightVariation(d.u32("light variation")),
	}
	if d.err == nil {
		switch l.Kind {
		case LightPoint, LightDirectional, LightSpot, LightCustom:
		default:
			d.errorf("unknown light kind: %d", uint32(l.Kind))
		}
		if l.Variation > VariationStrobe {
			d.errorf("unknown light variation: %d", uint32(l.Variation))
		}
	}
	l.Reach = d.f32("reach")
	l.UseAttenuation = d.boolean("use attenuation")
	l.CutoffAngle = d.f32("cutoff angle")
	l.Sharpness = d.f32("sharpness")
	l.DiffuseColor = d.color("diffuse color")
	l.AmbientColor = d.color("ambient color")
	l.SpecularAmount = d.f32("specular amount")
	l.VariationSpeed = d.f32("variation speed")
	l.VariationAmount = d.f32("variation amount")
	l.ShadowMapSize = d.i32("shadow map size")
	l.CastsShadows = d.boolean("casts shadows")
	return l
}

func readEffectStorages(d *decoder) []EffectStorage {
	n := d.count("effect count")
	out := make([]EffectStorage, 0, d.sized(n, 30))
	for i := 0; i < n && d.err == nil; i++ {
		out = append(out, EffectStorage{
			Name:     d.str("effect name"),
			Position: d.vec3("effect position"),
			Forward:  d.vec3("effect forward"),
			Range:    d.f32("effect range"),
			Effect:   d.str("effect"),
		})
	}
	return out
}

func readLocators(d *decoder) []Locator {
	n := d.count("locator count")
	out := make([]Locator, 0, d.sized(n, 69))
	for i := 0; i < n && d.err == nil; i++ {
		out = append(out, Locator{
			Name:      d.str("locator name"),
			Transform: d.mat4("locator transform"),
			Radius:    d.f32("locator radius"),
		})
	}
	return out
}

// readLiquids reads a liquid count. Any liquid aborts the decode after its
// reader id is read.
func readLiquids(d *decoder) []Liquid {
	n := d.count("liquid count")
	if n == 0 || d.err != nil {
		return nil
	}
	id := d.int7("liquid reader id")
	if d.err != nil {
		return nil
	}
	name := "<invalid>"
	if id >= 1 && int(id) <= len(d.readers) {
		name = d.readers[id-1].BaseName()
	}
	d.err = errors.Wrapf(ErrLiquidUnsupported, "liquid 1 of %d (reader %d, %s)", n, id, name)
	return nil
}

func readForceField(d *decoder) ForceField {
	f := ForceField{
		Color:              d.color("force field color"),
		Width:              d.f32("width"),
		AlphaPower:         d.f32("alpha power"),
		AlphaFalloffPower:  d.f32("alpha falloff power"),
		MaxRadius:          d.f32("max radius"),
		RippleDistortion:   d.f32("ripple distortion"),
		MapDistortion:      d.f32("map distortion"),
		VertexColorEnabled: d.boolean("vertex color enabled"),
		DisplacementMap:    d.str("displacement map"),
		TTL:                d.f32("ttl"),
	}
	f.VertexBuffer = readAs[*VertexBuffer](d, "vertex buffer")
	f.IndexBuffer = readAs[*IndexBuffer](d, "index buffer")
	f.Declaration = readAs[*VertexDeclaration](d, "vertex declaration")
	f.VertexStride = d.i32("vertex stride")
	f.NumVertices = d.i32("vertex count")
	f.PrimitiveCount = d.i32("primitive count")
	return f
}
