// Package vfx parses the XML particle effect descriptors shipped next to the
// game's XNB content.
//
// An effect document has an <Effect> root carrying the playback kind,
// duration and keyframe rate, and a list of emitter elements. Emitter
// parameters are properties that hold either a constant or a keyframed
// curve, evaluated with Property.Interpolate.
package vfx

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Kind is the playback mode of an effect.
type Kind uint8

const (
	KindSingle Kind = iota
	KindLooping
	KindInfinite
)

var kindNames = [...]string{"Single", "Looping", "Infinite"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind matches the type attribute of an <Effect> element.
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if s == name {
			return Kind(i), nil
		}
	}
	return 0, errors.Errorf("unsupported effect type %q", s)
}

// Effect is a parsed visual effect.
type Effect struct {
	Kind               Kind
	Duration           float32
	KeyFramesPerSecond uint32
	Emitters           []Emitter
}

// Parse decodes an effect document. A document rejected for a malformed
// entity reference has every entity-like run removed and is parsed once
// more; a second failure is returned.
func Parse(data []byte) (*Effect, error) {
	root, err := parseDocument(data)
	if err != nil && isEntityError(err) {
		log.Warn().Err(err).Msg("malformed entity reference in effect, stripping entities and retrying")
		root, err = parseDocument(stripEntities(data))
	}
	if err != nil {
		return nil, errors.Wrap(err, "parse effect xml")
	}
	return readEffect(root)
}

// Load reads and parses the effect file at path.
func Load(path string) (*Effect, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	fx, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	return fx, nil
}

func readEffect(root *node) (*Effect, error) {
	if root.name != "Effect" {
		return nil, errors.Errorf("expected root element <Effect>, got <%s>", root.name)
	}

	typ, ok := root.attr("type")
	if !ok {
		return nil, errors.New("expected <Effect> to have a 'type' attribute")
	}
	kind, err := ParseKind(typ)
	if err != nil {
		return nil, err
	}

	ds, ok := root.attr("duration")
	if !ok {
		return nil, errors.New("expected <Effect> to have a 'duration' attribute")
	}
	duration, err := parseFloat(ds)
	if err != nil {
		return nil, errors.Wrapf(err, "effect duration %q", ds)
	}

	fs, ok := root.attr("keyFramesPerSecond")
	if !ok {
		return nil, errors.New("expected <Effect> to have a 'keyFramesPerSecond' attribute")
	}
	fps, err := strconv.ParseUint(fs, 10, 32)
	if err != nil {
		return nil, errors.Wrapf(err, "effect keyFramesPerSecond %q", fs)
	}

	fx := &Effect{Kind: kind, Duration: duration, KeyFramesPerSecond: uint32(fps)}
	for _, c := range root.children {
		switch c.name {
		case "ContinuousEmitter":
			e, err := readContinuousEmitter(c)
			if err != nil {
				return nil, err
			}
			fx.Emitters = append(fx.Emitters, e)
		default:
			log.Error().Str("element", c.name).Msg("unsupported effect child element, skipping")
		}
	}
	return fx, nil
}
