package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/rs/zerolog"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "xnbtool.json")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `{
		"install_dir": "/games/Magicka",
		"output_dir": "export",
		"image_format": "WEBP",
		"max_texture_size": 512,
		"workers": 4
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.InstallDir != "/games/Magicka" || cfg.OutputDir != "export" {
		t.Errorf("unexpected paths %+v", cfg)
	}
	if cfg.MaxTextureSize != 512 || cfg.Workers != 4 {
		t.Errorf("unexpected settings %+v", cfg)
	}
	if cfg.CacheDir != "" || cfg.LogLevel != "" {
		t.Errorf("expected unset fields to stay empty, got %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := Load(writeConfig(t, `{"workers": "many"}`)); err == nil {
		t.Error("expected error for a bad field type")
	}
}

func TestResolve(t *testing.T) {
	install := filepath.Join(string(filepath.Separator), "games", "Magicka")

	tests := []struct {
		name  string
		cfg   Config
		flags Flags
		want  Config
	}{
		{
			name: "Defaults",
			want: Config{OutputDir: ".", ImageFormat: "png", Workers: runtime.NumCPU(), LogLevel: "info"},
		},
		{
			name: "RelativeToInstall",
			cfg:  Config{InstallDir: install, OutputDir: "export", CacheDir: "cache", Workers: 2},
			want: Config{
				InstallDir:  install,
				OutputDir:   filepath.Join(install, "export"),
				CacheDir:    filepath.Join(install, "cache"),
				ImageFormat: "png",
				Workers:     2,
				LogLevel:    "info",
			},
		},
		{
			name:  "FlagsOverride",
			cfg:   Config{InstallDir: "/old", OutputDir: "/out", ImageFormat: "tga", Workers: 2, LogLevel: "warn"},
			flags: Flags{InstallDir: install, ImageFormat: "BMP", Workers: 8, Verbose: true},
			want: Config{
				InstallDir:  install,
				OutputDir:   "/out",
				ImageFormat: "bmp",
				Workers:     8,
				LogLevel:    "debug",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			cfg.Resolve(tt.flags)
			if cfg != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, cfg)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"Valid", Config{ImageFormat: "webp", LogLevel: "debug"}, false},
		{"BadFormat", Config{ImageFormat: "jpeg", LogLevel: "info"}, true},
		{"NegativeSize", Config{ImageFormat: "png", MaxTextureSize: -1, LogLevel: "info"}, true},
		{"BadLevel", Config{ImageFormat: "png", LogLevel: "loud"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}

	cfg := Config{LogLevel: "warn"}
	if lvl, _ := cfg.Level(); lvl != zerolog.WarnLevel {
		t.Errorf("expected warn level, got %v", lvl)
	}
}
