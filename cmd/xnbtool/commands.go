package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aldrheim/xnbtools/pkg/archive"
	"github.com/aldrheim/xnbtools/pkg/assets"
	"github.com/aldrheim/xnbtools/pkg/batch"
	"github.com/aldrheim/xnbtools/pkg/config"
	"github.com/aldrheim/xnbtools/pkg/content"
	"github.com/aldrheim/xnbtools/pkg/texture"
	"github.com/aldrheim/xnbtools/pkg/vfx"
	"github.com/aldrheim/xnbtools/pkg/xnb"
)

func runInfo() error {
	h, c, err := content.Load(inputPath)
	if err != nil {
		return err
	}

	fmt.Printf("File:    %s\n", inputPath)
	fmt.Printf("Header:  %s\n", h)
	fmt.Printf("Readers: %d\n", len(c.Readers))
	for i, r := range c.Readers {
		fmt.Printf("  %2d  %s (version %d)\n", i+1, r.BaseName(), r.Version)
	}
	fmt.Printf("Primary: %s\n", describe(c.Primary))
	for i, a := range c.Shared {
		fmt.Printf("Shared %d: %s\n", i+1, describe(a))
	}
	return nil
}

// describe returns a one-line summary of an asset.
func describe(a content.Asset) string {
	switch a := a.(type) {
	case *content.Texture2D:
		return fmt.Sprintf("Texture2D %s %dx%d, %d mips", a.Format, a.Width, a.Height, len(a.Mips))
	case *content.Texture3D:
		return fmt.Sprintf("Texture3D %s %dx%dx%d, %d mips", a.Format, a.Width, a.Height, a.Depth, len(a.Mips))
	case *content.Model:
		return fmt.Sprintf("Model with %d bones, %d meshes", len(a.Bones), len(a.Meshes))
	case *content.BiTreeModel:
		return fmt.Sprintf("BiTreeModel with %d trees", len(a.Trees))
	case *content.LevelModel:
		return fmt.Sprintf("LevelModel with %d trees, %d lights, %d parts, %d locators",
			len(a.Model.Trees), len(a.Lights), len(a.AnimatedParts), len(a.Locators))
	case *content.RenderDeferredEffect:
		return fmt.Sprintf("RenderDeferredEffect textures %v", a.DiffuseTextures())
	case content.String:
		return fmt.Sprintf("String %q", string(a))
	default:
		return a.Kind().String()
	}
}

// outputPath maps an input file to a path under the output directory,
// keeping its position relative to the input root.
func outputPath(cfg config.Config, root, path, ext string) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		rel = filepath.Base(path)
	}
	out := filepath.Join(cfg.OutputDir, strings.TrimSuffix(rel, filepath.Ext(rel))+ext)
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	return out, nil
}

// inputFiles returns inputPath itself, or every matching file below it when
// it is a directory.
func inputFiles(exts ...string) (string, []string, error) {
	fi, err := os.Stat(inputPath)
	if err != nil {
		return "", nil, fmt.Errorf("stat input: %w", err)
	}
	if !fi.IsDir() {
		return filepath.Dir(inputPath), []string{inputPath}, nil
	}
	files, err := batch.Walk(inputPath, exts...)
	if err != nil {
		return "", nil, err
	}
	return inputPath, files, nil
}

// createOutput writes path with fn. A failed write or close removes the
// partial file.
func createOutput(path string, fn func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
		if err != nil {
			os.Remove(path)
		}
	}()
	return fn(f)
}

func report(results []batch.Result) error {
	failed := batch.Failed(results)
	fmt.Printf("Processed %d files, %d failed\n", len(results), len(failed))
	for _, r := range failed {
		fmt.Printf("  FAIL %s: %s\n", r.Path, r.Error)
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d of %d files failed", len(failed), len(results))
	}
	return nil
}

func runExtract(cfg config.Config) error {
	root, files, err := inputFiles(assets.Ext)
	if err != nil {
		return err
	}

	ext := ".decompressed"
	if useZstd {
		ext = assets.CacheExt
	}

	results := batch.Run(files, cfg.Workers, func(path string) (string, error) {
		f, err := xnb.ReadFile(path)
		if err != nil {
			return "", err
		}
		data, err := f.Content()
		if err != nil {
			return "", err
		}
		out, err := outputPath(cfg, root, path, ext)
		if err != nil {
			return "", err
		}

		if useZstd {
			fi, err := os.Stat(path)
			if err != nil {
				return "", err
			}
			h := archive.NewHeader(f.Header, fi.ModTime().UnixNano(), uint64(len(data)))
			if err := archive.WriteFile(out, h, data); err != nil {
				return "", err
			}
			return fmt.Sprintf("%d bytes, %d compressed", h.Length, h.CompressedLength), nil
		}

		if err := os.WriteFile(out, data, 0644); err != nil {
			return "", fmt.Errorf("write %s: %w", out, err)
		}
		return fmt.Sprintf("%d bytes", len(data)), nil
	})
	return report(results)
}

func runDecompress(cfg config.Config) error {
	root, files, err := inputFiles(assets.Ext)
	if err != nil {
		return err
	}

	results := batch.Run(files, cfg.Workers, func(path string) (string, error) {
		f, err := xnb.ReadFile(path)
		if err != nil {
			return "", err
		}
		data, err := f.Content()
		if err != nil {
			return "", err
		}
		out, err := outputPath(cfg, root, path, assets.Ext)
		if err != nil {
			return "", err
		}

		if err := createOutput(out, func(w io.Writer) error {
			return xnb.Encode(w, f.Header.Platform, f.Header.HiDef, data)
		}); err != nil {
			return "", err
		}
		return fmt.Sprintf("%d -> %d bytes", f.Header.CompressedSize, xnb.HeaderSize+len(data)), nil
	})
	return report(results)
}

func runTextures(cfg config.Config) error {
	root, files, err := inputFiles(assets.Ext)
	if err != nil {
		return err
	}
	imgFormat, err := texture.ParseImageFormat(cfg.ImageFormat)
	if err != nil {
		return err
	}

	results := batch.Run(files, cfg.Workers, func(path string) (string, error) {
		_, c, err := content.Load(path)
		if err != nil {
			return "", err
		}

		switch t := c.Primary.(type) {
		case *content.Texture2D:
			if writeDDS {
				return exportDDS(cfg, root, path, t.Surface())
			}
			img, err := t.Image(0)
			if err != nil {
				return "", err
			}
			out, err := outputPath(cfg, root, path, imgFormat.Ext())
			if err != nil {
				return "", err
			}
			if err := createOutput(out, func(w io.Writer) error {
				return texture.Encode(w, texture.Fit(img, cfg.MaxTextureSize), imgFormat)
			}); err != nil {
				return "", err
			}
			return fmt.Sprintf("%s %dx%d", t.Format, t.Width, t.Height), nil
		case *content.Texture3D:
			return exportDDS(cfg, root, path, t.Surface())
		default:
			return "skipped " + c.Primary.Kind().String(), nil
		}
	})
	return report(results)
}

func exportDDS(cfg config.Config, root, path string, s texture.Surface) (string, error) {
	out, err := outputPath(cfg, root, path, ".dds")
	if err != nil {
		return "", err
	}
	if err := createOutput(out, func(w io.Writer) error {
		return texture.WriteDDS(w, s)
	}); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %dx%d dds", s.Format, s.Width, s.Height), nil
}

func runVFX() error {
	fx, err := vfx.Load(inputPath)
	if err != nil {
		return err
	}

	fmt.Printf("Effect:   %s, %.2fs at %d keyframes/sec\n", fx.Kind, fx.Duration, fx.KeyFramesPerSecond)
	fmt.Printf("Emitters: %d\n", len(fx.Emitters))
	for _, e := range fx.Emitters {
		ce, ok := e.(*vfx.ContinuousEmitter)
		if !ok {
			fmt.Printf("  %s\n", e.EmitterName())
			continue
		}
		fmt.Printf("  %s: sprite %d, %s spread, %.1f particles/sec at t=0\n",
			ce.Name, ce.Sprite, ce.SpreadType, ce.ParticlesPerSecond.Interpolate(0, fx.KeyFramesPerSecond))
	}
	return nil
}

func runScan(cfg config.Config) error {
	files, err := batch.Walk(inputPath, assets.Ext, ".xml")
	if err != nil {
		return err
	}
	fmt.Printf("Scanning %d files with %d workers\n", len(files), cfg.Workers)

	results := batch.Run(files, cfg.Workers, func(path string) (string, error) {
		if strings.EqualFold(filepath.Ext(path), ".xml") {
			fx, err := vfx.Load(path)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("effect with %d emitters", len(fx.Emitters)), nil
		}
		_, c, err := content.Load(path)
		if err != nil {
			return "", err
		}
		return describe(c.Primary), nil
	})
	return report(results)
}

func runLevel(cfg config.Config) error {
	root, path := cfg.InstallDir, inputPath
	if root == "" {
		root, path = filepath.Dir(inputPath), filepath.Base(inputPath)
	} else if filepath.IsAbs(path) {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("level path: %w", err)
		}
		path = rel
	}

	var opts []assets.LoaderOption
	if cfg.CacheDir != "" {
		opts = append(opts, assets.WithCacheDir(cfg.CacheDir))
	}
	l := assets.NewLoader(root, opts...)

	lvl, err := l.LoadLevel(path, "")
	if err != nil {
		return err
	}

	fmt.Printf("Level: %s\n", lvl.Path)
	for i, t := range lvl.Trees {
		fmt.Printf("  tree %d: %d vertices, stride %d, %d indices\n",
			i, t.Tree.NumVertices, t.Layout.Stride, t.Tree.IndexBuffer.IndexCount())
		for _, tex := range []*assets.Texture{t.Diffuse0, t.Diffuse1} {
			if tex != nil {
				fmt.Printf("    %s %s %dx%d\n", tex.Path, tex.Format, tex.Width, tex.Height)
			}
		}
	}
	m := lvl.Level
	fmt.Printf("Lights: %d, parts: %d, triggers: %d, locators: %d, nav triangles: %d\n",
		len(m.Lights), len(m.AnimatedParts), len(m.TriggerAreas), len(m.Locators), len(m.NavMesh.Triangles))
	return nil
}
