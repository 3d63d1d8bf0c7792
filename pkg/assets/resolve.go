// Package assets locates XNB files inside a game installation and loads them
// with their dependencies.
//
// Paths stored inside content use Windows separators and rarely match the
// casing on disk. Resolver turns them into real paths; Loader shares the
// decoded textures and models between every asset that references them.
package assets

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Ext is the extension appended to content paths that have none.
const Ext = ".xnb"

// FixPath converts a content path with backslash separators to a slash
// separated path.
func FixPath(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}

// Resolver maps content paths onto files below an installation directory.
type Resolver struct {
	Root string
}

// NewResolver returns a resolver rooted at the game install directory.
func NewResolver(root string) *Resolver {
	return &Resolver{Root: root}
}

// Resolve returns the canonical path of the file that path refers to.
//
// base is the directory path is relative to. An empty base is the install
// directory, a relative base is joined onto it, and a base naming a file is
// replaced by its parent directory. Paths without an extension get ".xnb".
// When the exact path does not exist each component is matched without
// regard to case.
func (r *Resolver) Resolve(path, base string) (string, error) {
	if base == "" {
		base = r.Root
	}
	if !filepath.IsAbs(base) {
		base = filepath.Join(r.Root, base)
	}
	if fi, err := os.Stat(base); err != nil || !fi.IsDir() {
		base = filepath.Dir(base)
	}

	path = filepath.FromSlash(FixPath(path))
	if filepath.Ext(path) == "" {
		path += Ext
	}

	full := filepath.Join(base, path)
	if _, err := os.Stat(full); err == nil {
		return canonical(full)
	}

	current := base
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		switch part {
		case "", ".":
			continue
		case "..":
			current = filepath.Dir(current)
			continue
		}

		match, err := matchFold(current, part)
		if err != nil {
			return "", err
		}
		current = filepath.Join(current, match)
	}
	return canonical(current)
}

// matchFold returns the entry of dir whose name equals name ignoring case.
func matchFold(dir, name string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", errors.Wrapf(err, "unable to find path %s", filepath.Join(dir, name))
	}
	for _, e := range entries {
		if strings.EqualFold(e.Name(), name) {
			return e.Name(), nil
		}
	}
	return "", errors.Errorf("unable to find path %s", filepath.Join(dir, name))
}

func canonical(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", errors.WithStack(err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return resolved, nil
}
