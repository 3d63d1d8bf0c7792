package main

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aldrheim/xnbtools/pkg/config"
	"github.com/aldrheim/xnbtools/pkg/content"
	"github.com/aldrheim/xnbtools/pkg/texture"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		name  string
		asset content.Asset
		want  string
	}{
		{"Texture", &content.Texture2D{Format: texture.FormatBC1, Width: 64, Height: 32, Mips: make([][]byte, 7)}, "Texture2D BC1 64x32, 7 mips"},
		{"String", content.String("bone"), `String "bone"`},
		{"Null", content.Null{}, "Null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := describe(tt.asset); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestOutputPath(t *testing.T) {
	out := t.TempDir()
	cfg := config.Config{OutputDir: out}

	got, err := outputPath(cfg, "/games/Content", "/games/Content/Levels/Textures/floor.xnb", ".png")
	if err != nil {
		t.Fatalf("output path: %v", err)
	}
	want := filepath.Join(out, "Levels", "Textures", "floor.png")
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
	if fi, err := os.Stat(filepath.Dir(want)); err != nil || !fi.IsDir() {
		t.Errorf("expected the output directory to be created: %v", err)
	}
}

func TestCreateOutput(t *testing.T) {
	dir := t.TempDir()

	ok := filepath.Join(dir, "floor.png")
	if err := createOutput(ok, func(w io.Writer) error {
		_, err := w.Write([]byte("png"))
		return err
	}); err != nil {
		t.Fatalf("create output: %v", err)
	}
	if data, err := os.ReadFile(ok); err != nil || string(data) != "png" {
		t.Errorf("expected written file, got %q, %v", data, err)
	}

	failed := filepath.Join(dir, "moss.png")
	encodeErr := errors.New("encode png: short write")
	err := createOutput(failed, func(w io.Writer) error {
		w.Write([]byte("partial"))
		return encodeErr
	})
	if !errors.Is(err, encodeErr) {
		t.Fatalf("expected the encode error, got %v", err)
	}
	if _, err := os.Stat(failed); !os.IsNotExist(err) {
		t.Errorf("expected the partial file to be removed, got %v", err)
	}

	if err := createOutput(filepath.Join(dir, "missing", "x.png"), func(io.Writer) error { return nil }); err == nil {
		t.Error("expected error for a missing directory")
	}
}
