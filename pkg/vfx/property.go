package vfx

import (
	"math"
	"sort"
	"strconv"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"
)

// Keyframe is a property value at a frame index. Frames are counted at the
// effect's keyframes-per-second rate.
type Keyframe struct {
	Time  uint32
	Value float32
}

// Property is an emitter parameter that is either a constant or a
// piecewise-linear curve over keyframes. Keys is nil for constants.
type Property struct {
	Value float32
	Keys  []Keyframe
}

// Constant returns a property fixed at v.
func Constant(v float32) Property {
	return Property{Value: v}
}

// Animated returns a keyframed property. The keys are sorted by time and
// only the first key for each time is kept.
func Animated(keys []Keyframe) (Property, error) {
	if len(keys) == 0 {
		return Property{}, errors.New("animated property has no keyframes")
	}
	sorted := make([]Keyframe, len(keys))
	copy(sorted, keys)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })

	out := sorted[:1]
	for _, k := range sorted[1:] {
		if k.Time != out[len(out)-1].Time {
			out = append(out, k)
		}
	}
	return Property{Keys: out}, nil
}

// IsAnimated reports whether the property has keyframes.
func (p Property) IsAnimated() bool {
	return len(p.Keys) > 0
}

// Interpolate evaluates the property at time t seconds. The time is turned
// into a whole frame index at fps frames per second, negative times map to
// frame 0, and values are held flat outside the keyframe range.
func (p Property) Interpolate(t float32, fps uint32) float32 {
	if !p.IsAnimated() {
		return p.Value
	}
	frame := frameIndex(t, fps)

	first, last := p.Keys[0], p.Keys[len(p.Keys)-1]
	if frame <= first.Time {
		return first.Value
	}
	if frame >= last.Time {
		return last.Value
	}
	for i := 1; i < len(p.Keys); i++ {
		k0, k1 := p.Keys[i-1], p.Keys[i]
		if frame >= k0.Time && frame <= k1.Time {
			f := float32(frame-k0.Time) / float32(k1.Time-k0.Time)
			return lerp(k0.Value, k1.Value, f)
		}
	}
	return last.Value
}

// frameIndex converts t seconds to a frame, saturating at both ends of the
// uint32 range.
func frameIndex(t float32, fps uint32) uint32 {
	x := math32.Max(0, math32.Trunc(t*float32(fps)))
	if x >= math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(x)
}

func lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

// readProperty reads n as a constant when it has a value attribute, matched
// case-insensitively, and as a curve over its <Key> children otherwise.
func readProperty(n *node) (Property, error) {
	if v, ok := n.attrFold("value"); ok {
		f, err := parseFloat(v)
		if err != nil {
			return Property{}, errors.Wrapf(err, "<%s> value", n.name)
		}
		return Constant(f), nil
	}

	var keys []Keyframe
	for _, c := range n.children {
		if c.name != "Key" {
			continue
		}
		k, err := readKeyframe(c)
		if err != nil {
			return Property{}, errors.Wrapf(err, "<%s>", n.name)
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return Property{}, errors.Errorf("expected <%s> to have <Key> children because it has no 'value' attribute", n.name)
	}
	return Animated(keys)
}

func readKeyframe(n *node) (Keyframe, error) {
	ts, ok := n.attr("time")
	if !ok {
		return Keyframe{}, errors.New("expected <Key> to have a 'time' attribute")
	}
	t, err := strconv.ParseUint(ts, 10, 32)
	if err != nil {
		return Keyframe{}, errors.Wrapf(err, "keyframe time %q", ts)
	}
	vs, ok := n.attr("value")
	if !ok {
		return Keyframe{}, errors.New("expected <Key> to have a 'value' attribute")
	}
	v, err := parseFloat(vs)
	if err != nil {
		return Keyframe{}, errors.Wrapf(err, "keyframe value %q", vs)
	}
	return Keyframe{Time: uint32(t), Value: v}, nil
}

func parseFloat(s string) (float32, error) {
	f, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0, err
	}
	return float32(f), nil
}
