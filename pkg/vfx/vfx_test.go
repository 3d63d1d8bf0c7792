package vfx

import (
	"encoding/xml"
	"math"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

const fireEffect = `<?xml version="1.0" encoding="utf-8"?>
<Effect type="Looping" duration="2.5" keyFramesPerSecond="10">
  <ContinuousEmitter name="flames">
    <Particle value="12" />
    <ParticlesPerSecond>
      <Key time="10" value="100" />
      <Key time="0" value="0" />
      <Key time="10" value="999" />
    </ParticlesPerSecond>
    <BlendMode Value="Additive" />
    <SpreadType value="arc" />
    <SizeStartMin VALUE="0.5" />
    <Gravity value="-9.8" />
  </ContinuousEmitter>
  <PointEmitter name="ignored" />
</Effect>`

func TestParse(t *testing.T) {
	fx, err := Parse([]byte(fireEffect))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if fx.Kind != KindLooping || fx.Duration != 2.5 || fx.KeyFramesPerSecond != 10 {
		t.Errorf("unexpected effect header %+v", fx)
	}
	if len(fx.Emitters) != 1 {
		t.Fatalf("expected 1 emitter, got %d", len(fx.Emitters))
	}
	e, ok := fx.Emitters[0].(*ContinuousEmitter)
	if !ok {
		t.Fatalf("expected *ContinuousEmitter, got %T", fx.Emitters[0])
	}

	if e.Name != "flames" || e.Sprite != 12 {
		t.Errorf("unexpected emitter identity %q sprite %d", e.Name, e.Sprite)
	}
	if !e.AdditiveBlend || e.SpreadType != SpreadArc {
		t.Errorf("expected additive arc emitter, got additive=%v spread=%s", e.AdditiveBlend, e.SpreadType)
	}
	if e.SizeStartMin.IsAnimated() || e.SizeStartMin.Value != 0.5 {
		t.Errorf("expected constant 0.5 size, got %+v", e.SizeStartMin)
	}
	if e.Gravity.Value != -9.8 {
		t.Errorf("expected gravity -9.8, got %v", e.Gravity.Value)
	}

	keys := e.ParticlesPerSecond.Keys
	if len(keys) != 2 {
		t.Fatalf("expected 2 deduplicated keys, got %d", len(keys))
	}
	if keys[0].Time != 0 || keys[1].Time != 10 || keys[1].Value != 100 {
		t.Errorf("expected keys sorted with the first duplicate kept, got %+v", keys)
	}
}

func TestDefaults(t *testing.T) {
	e := NewContinuousEmitter("x")
	tests := []struct {
		name string
		p    Property
		want float32
	}{
		{"SizeEndMax", e.SizeEndMax, 1},
		{"LifetimeDistribution", e.LifetimeDistribution, 1},
		{"LifetimeMin", e.LifetimeMin, 0},
		{"RotationCCWChance", e.RotationCCWChance, 50},
		{"SaturationMin", e.SaturationMin, 1},
		{"AlphaMax", e.AlphaMax, 1},
		{"HueMax", e.HueMax, 0},
		{"Drag", e.Drag, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.p.IsAnimated() || tt.p.Value != tt.want {
				t.Errorf("expected constant %v, got %+v", tt.want, tt.p)
			}
		})
	}
	if e.SpreadType != SpreadCone || e.AdditiveBlend || e.HSV || e.Colorize {
		t.Errorf("unexpected default flags %+v", e)
	}
}

func TestInterpolate(t *testing.T) {
	p, err := Animated([]Keyframe{{Time: 0, Value: 0}, {Time: 10, Value: 1}})
	if err != nil {
		t.Fatalf("animated: %v", err)
	}

	tests := []struct {
		time float32
		want float32
	}{
		{-5, 0},
		{0, 0},
		{5, 0.5},
		{7.9, 0.7},
		{10, 1},
		{15, 1},
		{8589934592, 1}, // frame past the uint32 range saturates
		{math.MaxFloat32, 1},
	}
	for _, tt := range tests {
		if got := p.Interpolate(tt.time, 1); got != tt.want {
			t.Errorf("at %v: expected %v, got %v", tt.time, tt.want, got)
		}
	}

	if got := Constant(3).Interpolate(100, 30); got != 3 {
		t.Errorf("expected constant 3, got %v", got)
	}
	if got := p.Interpolate(0.25, 20); got != 0.5 {
		t.Errorf("expected frame 5 at 20 fps to be 0.5, got %v", got)
	}
}

func TestInterpolateMatchesScan(t *testing.T) {
	p, err := Animated([]Keyframe{{0, 4}, {3, 1}, {4, 8}, {9, -2}})
	if err != nil {
		t.Fatalf("animated: %v", err)
	}
	scan := func(frame uint32) float32 {
		k := p.Keys
		if frame <= k[0].Time {
			return k[0].Value
		}
		for i := 1; i < len(k); i++ {
			if frame <= k[i].Time {
				f := float32(frame-k[i-1].Time) / float32(k[i].Time-k[i-1].Time)
				return k[i-1].Value + (k[i].Value-k[i-1].Value)*f
			}
		}
		return k[len(k)-1].Value
	}
	for frame := uint32(0); frame < 12; frame++ {
		if got, want := p.Interpolate(float32(frame), 1), scan(frame); got != want {
			t.Errorf("frame %d: expected %v, got %v", frame, want, got)
		}
	}
}

func TestAnimatedEmpty(t *testing.T) {
	if _, err := Animated(nil); err == nil {
		t.Fatal("expected error for no keyframes")
	}
}

func TestColorControlAlpha(t *testing.T) {
	// ColorControlAlpha and HSV name the same switch with opposite senses.
	// This mirrors the shipped content and may be wrong.
	tests := []struct {
		element string
		value   string
		hsv     bool
	}{
		{"HSV", "true", true},
		{"HSV", "False", false},
		{"ColorControlAlpha", "true", false},
		{"ColorControlAlpha", "false", true},
	}
	for _, tt := range tests {
		t.Run(tt.element+"="+tt.value, func(t *testing.T) {
			doc := `<Effect type="Single" duration="1" keyFramesPerSecond="30">
  <ContinuousEmitter name="e">
    <Particle value="0" /><ParticlesPerSecond value="1" />
    <` + tt.element + ` value="` + tt.value + `" />
  </ContinuousEmitter>
</Effect>`
			fx, err := Parse([]byte(doc))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if hsv := fx.Emitters[0].(*ContinuousEmitter).HSV; hsv != tt.hsv {
				t.Errorf("expected hsv=%v, got %v", tt.hsv, hsv)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	emitter := func(body string) string {
		return `<Effect type="Single" duration="1" keyFramesPerSecond="30"><ContinuousEmitter name="e">` +
			body + `</ContinuousEmitter></Effect>`
	}
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"WrongRoot", `<Effects type="Single" duration="1" keyFramesPerSecond="30"/>`, "<Effect>"},
		{"MissingType", `<Effect duration="1" keyFramesPerSecond="30"/>`, "'type'"},
		{"BadType", `<Effect type="Once" duration="1" keyFramesPerSecond="30"/>`, "unsupported effect type"},
		{"MissingDuration", `<Effect type="Single" keyFramesPerSecond="30"/>`, "'duration'"},
		{"BadRate", `<Effect type="Single" duration="1" keyFramesPerSecond="-1"/>`, "keyFramesPerSecond"},
		{"MissingName", `<Effect type="Single" duration="1" keyFramesPerSecond="30"><ContinuousEmitter/></Effect>`, "'name'"},
		{"MissingParticle", emitter(`<ParticlesPerSecond value="1"/>`), "<Particle>"},
		{"MissingRate", emitter(`<Particle value="1"/>`), "<ParticlesPerSecond>"},
		{"NoKeys", emitter(`<Particle value="1"/><ParticlesPerSecond/>`), "<Key>"},
		{"KeyWithoutTime", emitter(`<Particle value="1"/><ParticlesPerSecond><Key value="1"/></ParticlesPerSecond>`), "'time'"},
		{"BadBlendMode", emitter(`<Particle value="1"/><ParticlesPerSecond value="1"/><BlendMode value="multiply"/>`), "multiply"},
		{"SpriteRange", emitter(`<Particle value="256"/><ParticlesPerSecond value="1"/>`), "Particle"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestMalformedEntity(t *testing.T) {
	doc := `<Effect type="Single" duration="1" keyFramesPerSecond="30">
  <ContinuousEmitter name="spark&nbsp;s">
    <Particle value="3" /><ParticlesPerSecond value="5" />
  </ContinuousEmitter>
</Effect>`
	fx, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if name := fx.Emitters[0].EmitterName(); name != "sparks" {
		t.Errorf("expected entity stripped from name, got %q", name)
	}
}

func TestMalformedEntityRetriesOnce(t *testing.T) {
	// Stripping leaves an unterminated element, so the retry fails too.
	doc := `<Effect type="Single" duration="1" keyFramesPerSecond="30">&bogus;</Effect`
	if _, err := Parse([]byte(doc)); err == nil {
		t.Fatal("expected error after the single retry")
	}
}

func TestIsEntityError(t *testing.T) {
	parseErr := func(doc string) error {
		_, err := parseDocument([]byte(doc))
		return err
	}

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"UnknownEntity", parseErr(`<a>&nbsp;</a>`), true},
		{"BareAmpersand", parseErr(`<a>x & y</a>`), true},
		{"InAttribute", parseErr(`<a name="R&D"/>`), true},
		{"Wrapped", errors.Wrap(parseErr(`<a>&bogus;</a>`), "effect"), true},
		{"MismatchedTag", parseErr(`<a></b>`), false},
		{"OtherEntityMessage", &xml.SyntaxError{Msg: "entity expansion limit reached", Line: 1}, false},
		{"NotSyntax", errors.New("invalid character entity"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isEntityError(tt.err); got != tt.want {
				t.Errorf("expected %v for %v, got %v", tt.want, tt.err, got)
			}
		})
	}
}

func TestStripEntities(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"a&amp;b", "ab"},
		{"a & b", "ab"},
		{"x&y", "x"},
		{"plain", "plain"},
		{"&", ""},
	}
	for _, tt := range tests {
		if got := string(stripEntities([]byte(tt.in))); got != tt.want {
			t.Errorf("%q: expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestCharset(t *testing.T) {
	doc := []byte("<?xml version=\"1.0\" encoding=\"windows-1252\"?>\n" +
		"<Effect type=\"Infinite\" duration=\"0\" keyFramesPerSecond=\"1\">" +
		"<ContinuousEmitter name=\"caf\xe9\"><Particle value=\"1\"/><ParticlesPerSecond value=\"1\"/></ContinuousEmitter>" +
		"</Effect>")
	fx, err := Parse(doc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if name := fx.Emitters[0].EmitterName(); name != "café" {
		t.Errorf("expected decoded name, got %q", name)
	}
}
