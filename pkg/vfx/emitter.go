package vfx

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Emitter is a particle source of an effect. ContinuousEmitter is the only
// implementation.
type Emitter interface {
	EmitterName() string
	emitter()
}

// SpreadType selects the emission volume of a continuous emitter.
type SpreadType uint8

const (
	SpreadCone SpreadType = iota
	SpreadArc
)

func (s SpreadType) String() string {
	if s == SpreadArc {
		return "Arc"
	}
	return "Cone"
}

// ContinuousEmitter spawns particles at a steady rate. Angles are in
// degrees; the *Distribution properties shape the random pick between the
// matching Min and Max.
type ContinuousEmitter struct {
	// Name is not unique within an effect.
	Name               string
	Sprite             uint8
	ParticlesPerSecond Property

	SpreadType                      SpreadType
	SpreadArcHorizontalAngle        Property
	SpreadArcHorizontalDistribution Property
	SpreadArcVerticalMin            Property
	SpreadArcVerticalMax            Property
	SpreadArcVerticalDistribution   Property
	SpreadConeAngle                 Property
	SpreadConeDistribution          Property

	PositionX       Property
	PositionY       Property
	PositionZ       Property
	PositionXOffset Property
	PositionYOffset Property
	PositionZOffset Property

	VelocityMin          Property
	VelocityMax          Property
	VelocityDistribution Property
	Drag                 Property
	Gravity              Property

	RotationMin       Property
	RotationMax       Property
	RotationSpeedMin  Property
	RotationSpeedMax  Property
	RotationCCWChance Property

	SizeStartMin          Property
	SizeStartMax          Property
	SizeStartDistribution Property
	SizeEndMin            Property
	SizeEndMax            Property
	SizeEndDistribution   Property

	LifetimeMin          Property
	LifetimeMax          Property
	LifetimeDistribution Property

	AdditiveBlend bool
	HSV           bool
	Colorize      bool

	HueMin                 Property
	HueMax                 Property
	HueDistribution        Property
	SaturationMin          Property
	SaturationMax          Property
	SaturationDistribution Property
	ValueMin               Property
	ValueMax               Property
	ValueDistribution      Property
	AlphaMin               Property
	AlphaMax               Property
	AlphaDistribution      Property
}

func (e *ContinuousEmitter) EmitterName() string { return e.Name }
func (*ContinuousEmitter) emitter() {}

// NewContinuousEmitter returns an emitter with every optional property at
// its default.
func NewContinuousEmitter(name string) *ContinuousEmitter {
	zero, one := Constant(0), Constant(1)
	return &ContinuousEmitter{
		Name:       name,
		SpreadType: SpreadCone,

		SpreadArcHorizontalAngle:        zero,
		SpreadArcHorizontalDistribution: one,
		SpreadArcVerticalMin:            zero,
		SpreadArcVerticalMax:            zero,
		SpreadArcVerticalDistribution:   one,
		SpreadConeAngle:                 zero,
		SpreadConeDistribution:          one,

		PositionX:       zero,
		PositionY:       zero,
		PositionZ:       zero,
		PositionXOffset: zero,
		PositionYOffset: zero,
		PositionZOffset: zero,

		VelocityMin:          zero,
		VelocityMax:          zero,
		VelocityDistribution: one,
		Drag:                 zero,
		Gravity:              zero,

		RotationMin:       zero,
		RotationMax:       zero,
		RotationSpeedMin:  zero,
		RotationSpeedMax:  zero,
		RotationCCWChance: Constant(50),

		SizeStartMin:          one,
		SizeStartMax:          one,
		SizeStartDistribution: one,
		SizeEndMin:            one,
		SizeEndMax:            one,
		SizeEndDistribution:   one,

		LifetimeMin:          zero,
		LifetimeMax:          zero,
		LifetimeDistribution: one,

		HueMin:                 zero,
		HueMax:                 zero,
		HueDistribution:        one,
		SaturationMin:          one,
		SaturationMax:          one,
		SaturationDistribution: one,
		ValueMin:               one,
		ValueMax:               one,
		ValueDistribution:      one,
		AlphaMin:               one,
		AlphaMax:               one,
		AlphaDistribution:      one,
	}
}

// properties maps element names to the keyframed fields they set.
func (e *ContinuousEmitter) properties() map[string]*Property {
	return map[string]*Property{
		"ParticlesPerSecond":              &e.ParticlesPerSecond,
		"SpreadArcHorizontalAngle":        &e.SpreadArcHorizontalAngle,
		"SpreadArcHorizontalDistribution": &e.SpreadArcHorizontalDistribution,
		"SpreadArcVerticalMin":            &e.SpreadArcVerticalMin,
		"SpreadArcVerticalMax":            &e.SpreadArcVerticalMax,
		"SpreadArcVerticalDistribution":   &e.SpreadArcVerticalDistribution,
		"SpreadConeAngle":                 &e.SpreadConeAngle,
		"SpreadConeDistribution":          &e.SpreadConeDistribution,
		"PositionX":                       &e.PositionX,
		"PositionY":                       &e.PositionY,
		"PositionZ":                       &e.PositionZ,
		"PositionXOffset":                 &e.PositionXOffset,
		"PositionYOffset":                 &e.PositionYOffset,
		"PositionZOffset":                 &e.PositionZOffset,
		"VelocityMin":                     &e.VelocityMin,
		"VelocityMax":                     &e.VelocityMax,
		"VelocityDist":                    &e.VelocityDistribution,
		"Drag":                            &e.Drag,
		"Gravity":                         &e.Gravity,
		"RotationMin":                     &e.RotationMin,
		"RotationMax":                     &e.RotationMax,
		"RotationSpeedMin":                &e.RotationSpeedMin,
		"RotationSpeedMax":                &e.RotationSpeedMax,
		"RotationPCCW":                    &e.RotationCCWChance,
		"SizeStartMin":                    &e.SizeStartMin,
		"SizeStartMax":                    &e.SizeStartMax,
		"SizeStartDist":                   &e.SizeStartDistribution,
		"SizeEndMin":                      &e.SizeEndMin,
		"SizeEndMax":                      &e.SizeEndMax,
		"SizeEndDist":                     &e.SizeEndDistribution,
		"LifeTimeMin":                     &e.LifetimeMin,
		"LifeTimeMax":                     &e.LifetimeMax,
		"LifeTimeDistribution":            &e.LifetimeDistribution,
		"HueMin":                          &e.HueMin,
		"HueMax":                          &e.HueMax,
		"HueDistribution":                 &e.HueDistribution,
		"SatMin":                          &e.SaturationMin,
		"SatMax":                          &e.SaturationMax,
		"SatDistribution":                 &e.SaturationDistribution,
		"ValueMin":                        &e.ValueMin,
		"ValueMax":                        &e.ValueMax,
		"ValueDistribution":               &e.ValueDistribution,
		"AlphaMin":                        &e.AlphaMin,
		"AlphaMax":                        &e.AlphaMax,
		"AlphaDistribution":               &e.AlphaDistribution,
	}
}

func readContinuousEmitter(n *node) (*ContinuousEmitter, error) {
	name, ok := n.attr("name")
	if !ok {
		return nil, errors.New("expected <ContinuousEmitter> to have a 'name' attribute")
	}
	e := NewContinuousEmitter(name)
	props := e.properties()

	var haveSprite, haveRate bool
	for _, c := range n.children {
		if p, ok := props[c.name]; ok {
			v, err := readProperty(c)
			if err != nil {
				return nil, errors.Wrapf(err, "emitter %q", name)
			}
			*p = v
			haveRate = haveRate || c.name == "ParticlesPerSecond"
			continue
		}

		var err error
		switch c.name {
		case "Particle":
			err = readSprite(c, &e.Sprite)
			haveSprite = err == nil
		case "BlendMode":
			err = readChoice(c, map[string]func(){
				"additive": func() { e.AdditiveBlend = true },
				"alpha":    func() { e.AdditiveBlend = false },
			})
		case "SpreadType":
			err = readChoice(c, map[string]func(){
				"arc":  func() { e.SpreadType = SpreadArc },
				"cone": func() { e.SpreadType = SpreadCone },
			})
		case "HSV":
			err = readChoice(c, map[string]func(){
				"true":  func() { e.HSV = true },
				"false": func() { e.HSV = false },
			})
		case "ColorControlAlpha":
			// Sets HSV with the opposite sense.
			err = readChoice(c, map[string]func(){
				"true":  func() { e.HSV = false },
				"false": func() { e.HSV = true },
			})
		case "Colorize":
			err = readChoice(c, map[string]func(){
				"true":  func() { e.Colorize = true },
				"false": func() { e.Colorize = false },
			})
		}
		if err != nil {
			return nil, errors.Wrapf(err, "emitter %q", name)
		}
	}

	if !haveSprite {
		return nil, errors.Errorf("emitter %q: expected a <Particle> child", name)
	}
	if !haveRate {
		return nil, errors.Errorf("emitter %q: expected a <ParticlesPerSecond> child", name)
	}
	return e, nil
}

func readSprite(n *node, dst *uint8) error {
	v, ok := n.attrFold("value")
	if !ok {
		return errors.Errorf("expected <%s> to have a 'value' attribute", n.name)
	}
	i, err := strconv.ParseUint(v, 10, 8)
	if err != nil {
		return errors.Wrapf(err, "<%s> value", n.name)
	}
	*dst = uint8(i)
	return nil
}

// readChoice matches the value attribute of n, ignoring case, against the
// keys of choices and runs the match.
func readChoice(n *node, choices map[string]func()) error {
	v, ok := n.attrFold("value")
	if !ok {
		return errors.Errorf("expected <%s> to have a 'value' attribute", n.name)
	}
	set, ok := choices[strings.ToLower(v)]
	if !ok {
		return errors.Errorf("unexpected <%s> value %q", n.name, v)
	}
	set()
	return nil
}
