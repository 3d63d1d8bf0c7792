// Package content decodes the typed object graph stored in a decompressed
// XNB payload.
//
// A payload starts with a manifest of type readers, followed by a count of
// shared assets, the primary asset and the shared assets themselves. Every
// asset is prefixed with a 7-bit encoded index into the manifest; index 0 is
// the null asset. Decoding is strict: an unknown reader name or a malformed
// field aborts the whole payload.
package content

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/aldrheim/xnbtools/pkg/xnb"
)

// ErrUnknownTypeReader is returned for a manifest entry no decoder exists for.
var ErrUnknownTypeReader = errors.New("unknown type reader")

// Reader names, without the assembly qualifier.
const (
	StringReaderName                     = "Microsoft.Xna.Framework.Content.StringReader"
	Texture2DReaderName                  = "Microsoft.Xna.Framework.Content.Texture2DReader"
	Texture3DReaderName                  = "Microsoft.Xna.Framework.Content.Texture3DReader"
	ModelReaderName                      = "Microsoft.Xna.Framework.Content.ModelReader"
	VertexDeclarationReaderName          = "Microsoft.Xna.Framework.Content.VertexDeclarationReader"
	VertexBufferReaderName               = "Microsoft.Xna.Framework.Content.VertexBufferReader"
	IndexBufferReaderName                = "Microsoft.Xna.Framework.Content.IndexBufferReader"
	BiTreeModelReaderName                = "PolygonHead.Pipeline.BiTreeModelReader"
	AdditiveEffectReaderName             = "PolygonHead.Pipeline.AdditiveEffectReader"
	RenderDeferredEffectReaderName       = "PolygonHead.Pipeline.RenderDeferredEffectReader"
	RenderDeferredLiquidEffectReaderName = "PolygonHead.Pipeline.RenderDeferredLiquidEffectReader"
	LevelModelReaderName                 = "Magicka.ContentReaders.LevelModelReader"

	// ListReaderName prefixes the generic list readers used by collision meshes.
	ListReaderName = "Microsoft.Xna.Framework.Content.ListReader"
)

// Kind identifies the concrete type of an Asset.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindTexture2D
	KindTexture3D
	KindModel
	KindVertexDeclaration
	KindVertexBuffer
	KindIndexBuffer
	KindBiTreeModel
	KindAdditiveEffect
	KindRenderDeferredEffect
	KindRenderDeferredLiquidEffect
	KindLevelModel
)

var kindNames = [...]string{
	KindNull:                       "Null",
	KindString:                     "String",
	KindTexture2D:                  "Texture2D",
	KindTexture3D:                  "Texture3D",
	KindModel:                      "Model",
	KindVertexDeclaration:          "VertexDeclaration",
	KindVertexBuffer:               "VertexBuffer",
	KindIndexBuffer:                "IndexBuffer",
	KindBiTreeModel:                "BiTreeModel",
	KindAdditiveEffect:             "AdditiveEffect",
	KindRenderDeferredEffect:       "RenderDeferredEffect",
	KindRenderDeferredLiquidEffect: "RenderDeferredLiquidEffect",
	KindLevelModel:                 "LevelModel",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// readerKinds maps reader names to the kind they decode.
var readerKinds = map[string]Kind{
	StringReaderName:                     KindString,
	Texture2DReaderName:                  KindTexture2D,
	Texture3DReaderName:                  KindTexture3D,
	ModelReaderName:                      KindModel,
	VertexDeclarationReaderName:          KindVertexDeclaration,
	VertexBufferReaderName:               KindVertexBuffer,
	IndexBufferReaderName:                KindIndexBuffer,
	BiTreeModelReaderName:                KindBiTreeModel,
	AdditiveEffectReaderName:             KindAdditiveEffect,
	RenderDeferredEffectReaderName:       KindRenderDeferredEffect,
	RenderDeferredLiquidEffectReaderName: KindRenderDeferredLiquidEffect,
	LevelModelReaderName:                 KindLevelModel,
}

// Asset is one decoded object. The set of implementations is closed.
type Asset interface {
	Kind() Kind
	sealed()
}

// Null is the empty asset, type index 0.
type Null struct{}

// String is a string asset.
type String string

func (Null) Kind() Kind   { return KindNull }
func (String) Kind() Kind { return KindString }

func (Null) sealed()   {}
func (String) sealed() {}

// TypeReader is one manifest entry.
type TypeReader struct {
	Name    string
	Version int32
}

// BaseName returns the reader name without its assembly qualifier.
func (t TypeReader) BaseName() string {
	name, _, _ := strings.Cut(t.Name, ",")
	return strings.TrimSpace(name)
}

// Content is a fully decoded payload.
type Content struct {
	Readers []TypeReader
	Primary Asset
	Shared  []Asset
}

// SharedAsset returns the shared asset referenced by a 1-based index, as
// stored in mesh parts.
func (c *Content) SharedAsset(index int32) (Asset, error) {
	if index < 1 || int(index) > len(c.Shared) {
		return nil, errors.Errorf("shared asset index %d out of range [1, %d]", index, len(c.Shared))
	}
	return c.Shared[index-1], nil
}

// Parse decodes a decompressed payload.
func Parse(data []byte) (*Content, error) {
	d := newDecoder(data)

	numReaders := d.int7("type reader count")
	if numReaders < 0 {
		return nil, errors.Errorf("invalid type reader count: %d", numReaders)
	}
	readers := make([]TypeReader, 0, d.sized(int(numReaders), 5))
	for i := 0; i < int(numReaders) && d.err == nil; i++ {
		readers = append(readers, TypeReader{
			Name:    d.str("type reader name"),
			Version: d.i32("type reader version"),
		})
	}
	d.readers = readers

	numShared := d.int7("shared asset count")
	if numShared < 0 {
		return nil, errors.Errorf("invalid shared asset count: %d", numShared)
	}

	primary := d.asset()
	if d.err != nil {
		return nil, errors.Wrap(d.err, "primary asset")
	}

	shared := make([]Asset, 0, d.sized(int(numShared), 1))
	for i := 0; i < int(numShared); i++ {
		a := d.asset()
		if d.err != nil {
			return nil, errors.Wrapf(d.err, "shared asset %d", i+1)
		}
		shared = append(shared, a)
	}

	return &Content{Readers: readers, Primary: primary, Shared: shared}, nil
}

// Decode reads an XNB container from memory, decompresses it and decodes
// its content.
func Decode(data []byte) (*xnb.Header, *Content, error) {
	f, err := xnb.Read(bytes.NewReader(data))
	if err != nil {
		return nil, nil, err
	}
	return decodeFile(f)
}

// Load reads and decodes the XNB file at path.
func Load(path string) (*xnb.Header, *Content, error) {
	f, err := xnb.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	h, c, err := decodeFile(f)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "decode %s", path)
	}
	return h, c, nil
}

func decodeFile(f *xnb.File) (*xnb.Header, *Content, error) {
	payload, err := f.Content()
	if err != nil {
		return nil, nil, err
	}
	c, err := Parse(payload)
	if err != nil {
		return nil, nil, err
	}
	return &f.Header, c, nil
}

// typeReader resolves a 1-based manifest index.
func (d *decoder) typeReader(id int32) (TypeReader, bool) {
	if id < 1 || int(id) > len(d.readers) {
		d.errorf("type reader index %d out of range [1, %d]", id, len(d.readers))
		return TypeReader{}, false
	}
	return d.readers[id-1], true
}

// asset reads one polymorphic asset. It returns nil once d.err is set.
func (d *decoder) asset() Asset {
	id := d.int7("type id")
	if d.err != nil {
		return nil
	}
	if id == 0 {
		return Null{}
	}
	tr, ok := d.typeReader(id)
	if !ok {
		return nil
	}
	kind, ok := readerKinds[tr.BaseName()]
	if !ok {
		d.err = errors.Wrapf(ErrUnknownTypeReader, "%q", tr.Name)
		return nil
	}

	a := d.decodeKind(kind)
	if d.err != nil {
		d.err = errors.Wrapf(d.err, "decode %s", kind)
		return nil
	}
	return a
}

func (d *decoder) decodeKind(kind Kind) Asset {
	switch kind {
	case KindString:
		return String(d.str("string"))
	case KindTexture2D:
		return readTexture2D(d)
	case KindTexture3D:
		return readTexture3D(d)
	case KindModel:
		return readModel(d)
	case KindVertexDeclaration:
		return readVertexDeclaration(d)
	case KindVertexBuffer:
		return readVertexBuffer(d)
	case KindIndexBuffer:
		return readIndexBuffer(d)
	case KindBiTreeModel:
		return readBiTreeModel(d)
	case KindAdditiveEffect:
		return readAdditiveEffect(d)
	case KindRenderDeferredEffect:
		return readRenderDeferredEffect(d)
	case KindRenderDeferredLiquidEffect:
		return readRenderDeferredLiquidEffect(d)
	case KindLevelModel:
		return readLevelModel(d)
	}
	d.errorf("no decoder for %s", kind)
	return nil
}

// readAs reads a nested asset and asserts its concrete type.
func readAs[T Asset](d *decoder, what string) T {
	var zero T
	a := d.asset()
	if d.err != nil {
		return zero
	}
	v, ok := a.(T)
	if !ok {
		d.errorf("expected %s, got %s", what, a.Kind())
		return zero
	}
	return v
}
