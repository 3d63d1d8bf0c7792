package assets

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/aldrheim/xnbtools/pkg/archive"
	"github.com/aldrheim/xnbtools/pkg/content"
	"github.com/aldrheim/xnbtools/pkg/xnb"
)

// CacheExt is the extension of decompressed content cache files.
const CacheExt = ".xnbz"

// Texture is a loaded 2D texture.
type Texture struct {
	Path string
	*content.Texture2D
}

// Model is a loaded model with the effect stored in its first shared asset
// and that effect's diffuse texture.
type Model struct {
	Path    string
	Model   *content.Model
	Effect  *content.RenderDeferredEffect
	Diffuse *Texture
}

// LevelTree is one static geometry tree of a level with its resolved
// textures.
type LevelTree struct {
	Tree     *content.BiTree
	Effect   *content.RenderDeferredEffect
	Layout   *content.DeferredVertexLayout
	Diffuse0 *Texture
	Diffuse1 *Texture
}

// Level is a loaded level model.
type Level struct {
	Path  string
	Level *content.LevelModel
	Trees []LevelTree
}

// Loader loads content through a Resolver and keeps one shared handle per
// texture and model path. It is safe for concurrent use.
type Loader struct {
	resolver *Resolver
	cacheDir string

	mu       sync.Mutex
	textures map[string]*Texture
	models   map[string]*Model
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithCacheDir stores decompressed content under dir and reuses it while
// the source file is unchanged.
func WithCacheDir(dir string) LoaderOption {
	return func(l *Loader) {
		l.cacheDir = dir
	}
}

// NewLoader creates a loader for the installation at root.
func NewLoader(root string, opts ...LoaderOption) *Loader {
	l := &Loader{
		resolver: NewResolver(root),
		textures: make(map[string]*Texture),
		models:   make(map[string]*Model),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Resolver returns the path resolver used by the loader.
func (l *Loader) Resolver() *Resolver {
	return l.resolver
}

// LoadTexture loads the Texture2D at path, relative to base.
func (l *Loader) LoadTexture(path, base string) (*Texture, error) {
	resolved, err := l.resolver.Resolve(path, base)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	tex, ok := l.textures[resolved]
	l.mu.Unlock()
	if ok {
		return tex, nil
	}

	c, err := l.Content(resolved)
	if err != nil {
		return nil, err
	}
	t, ok := c.Primary.(*content.Texture2D)
	if !ok {
		return nil, errors.Errorf("expected Texture2D at path %s, got %s", resolved, c.Primary.Kind())
	}

	log.Debug().Str("path", resolved).Msg("loaded Texture2D")
	return l.storeTexture(&Texture{Path: resolved, Texture2D: t}), nil
}

// LoadModel loads the Model at path, relative to base, along with the
// diffuse texture of its deferred effect.
func (l *Loader) LoadModel(path, base string) (*Model, error) {
	resolved, err := l.resolver.Resolve(path, base)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	m, ok := l.models[resolved]
	l.mu.Unlock()
	if ok {
		return m, nil
	}

	c, err := l.Content(resolved)
	if err != nil {
		return nil, err
	}
	model, ok := c.Primary.(*content.Model)
	if !ok {
		return nil, errors.Errorf("expected Model at path %s, got %s", resolved, c.Primary.Kind())
	}
	if len(c.Shared) == 0 {
		return nil, errors.Errorf("expected RenderDeferredEffect at shared asset 0 at path %s, model has no shared assets", resolved)
	}
	fx, ok := c.Shared[0].(*content.RenderDeferredEffect)
	if !ok {
		return nil, errors.Errorf("expected RenderDeferredEffect at shared asset 0 at path %s, got %s", resolved, c.Shared[0].Kind())
	}

	diffuse, err := l.LoadTexture(fx.Material0.DiffuseTexture, resolved)
	if err != nil {
		return nil, errors.Wrapf(err, "model %s", resolved)
	}

	log.Debug().Str("path", resolved).Int("meshes", len(model.Meshes)).Msg("loaded Model")
	return l.storeModel(&Model{Path: resolved, Model: model, Effect: fx, Diffuse: diffuse}), nil
}

// LoadLevel loads the LevelModel at path, relative to base. Every tree must
// carry a RenderDeferredEffect; its diffuse textures are loaded relative to
// the level file.
func (l *Loader) LoadLevel(path, base string) (*Level, error) {
	resolved, err := l.resolver.Resolve(path, base)
	if err != nil {
		return nil, err
	}

	c, err := l.Content(resolved)
	if err != nil {
		return nil, err
	}
	level, ok := c.Primary.(*content.LevelModel)
	if !ok {
		return nil, errors.Errorf("expected LevelModel at path %s, got %s", resolved, c.Primary.Kind())
	}

	out := &Level{Path: resolved, Level: level, Trees: make([]LevelTree, 0, len(level.Model.Trees))}
	for i := range level.Model.Trees {
		tree := &level.Model.Trees[i]
		lt, err := l.loadTree(tree, resolved)
		if err != nil {
			return nil, errors.Wrapf(err, "level %s tree %d", resolved, i)
		}
		out.Trees = append(out.Trees, lt)
	}

	log.Debug().Str("path", resolved).Int("trees", len(out.Trees)).Msg("loaded LevelModel")
	return out, nil
}

func (l *Loader) loadTree(tree *content.BiTree, levelPath string) (LevelTree, error) {
	fx, ok := tree.RenderDeferredEffect()
	if !ok {
		return LevelTree{}, errors.Errorf("expected RenderDeferredEffect inside LevelModel BiTree, got %s", tree.Effect.Kind())
	}
	if err := tree.Validate(); err != nil {
		return LevelTree{}, err
	}
	layout, err := content.NewDeferredVertexLayout(tree.Declaration)
	if err != nil {
		return LevelTree{}, err
	}
	if int(tree.VertexStride) != layout.Stride {
		log.Warn().Int32("stored", tree.VertexStride).Int("declared", layout.Stride).Msg("BiTree vertex stride differs from its declaration")
	}

	lt := LevelTree{Tree: tree, Effect: fx, Layout: layout}
	if p := fx.Material0.DiffuseTexture; p != "" {
		if lt.Diffuse0, err = l.LoadTexture(p, levelPath); err != nil {
			return LevelTree{}, err
		}
	}
	if fx.Material1 != nil && fx.Material1.DiffuseTexture != "" {
		if lt.Diffuse1, err = l.LoadTexture(fx.Material1.DiffuseTexture, levelPath); err != nil {
			return LevelTree{}, err
		}
	}
	return lt, nil
}

func (l *Loader) storeTexture(t *Texture) *Texture {
	l.mu.Lock()
	defer l.mu.Unlock()
	if existing, ok := l.textures[t.Path]; ok {
		return existing
	}
	l.textures[t.Path] = t
	return t
}

func (l *Loader) storeModel(m *Model) *Model {
	l.mu.Lock()
	defer l.mu.Unlock()
	if existing, ok := l.models[m.Path]; ok {
		return existing
	}
	l.models[m.Path] = m
	return m
}

// Content decodes the XNB file at an already resolved path. With a cache
// directory configured, the decompressed stream is read from and written to
// the cache.
func (l *Loader) Content(path string) (*content.Content, error) {
	data, err := l.payload(path)
	if err != nil {
		return nil, err
	}
	c, err := content.Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse content from file %s", path)
	}
	return c, nil
}

func (l *Loader) payload(path string) ([]byte, error) {
	cachePath, ok := l.cachePath(path)
	if !ok {
		_, data, err := readContainer(path)
		return data, err
	}

	fi, err := os.Stat(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	modTime := fi.ModTime().UnixNano()

	if h, data, err := archive.ReadFile(cachePath); err == nil && h.SourceModTime == modTime {
		log.Debug().Str("path", path).Str("cache", cachePath).Msg("content cache hit")
		return data, nil
	}

	h, data, err := readContainer(path)
	if err != nil {
		return nil, err
	}
	if err := archive.WriteFile(cachePath, archive.NewHeader(*h, modTime, uint64(len(data))), data); err != nil {
		log.Warn().Err(err).Str("cache", cachePath).Msg("failed to write content cache")
	}
	return data, nil
}

// cachePath maps a resolved content path to its cache file. Files outside
// the installation are not cached.
func (l *Loader) cachePath(path string) (string, bool) {
	if l.cacheDir == "" {
		return "", false
	}
	root, err := canonical(l.resolver.Root)
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.Join(l.cacheDir, strings.TrimSuffix(rel, filepath.Ext(rel))+CacheExt), true
}

func readContainer(path string) (*xnb.Header, []byte, error) {
	f, err := xnb.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	data, err := f.Content()
	if err != nil {
		return nil, nil, errors.Wrapf(err, "decompress %s", path)
	}
	return &f.Header, data, nil
}
