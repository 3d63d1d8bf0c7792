// Package config loads xnbtool settings from a JSON file and merges them
// with command line flags.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aldrheim/xnbtools/pkg/texture"
)

// Config holds all configurable paths and export settings.
type Config struct {
	// Paths
	InstallDir string `json:"install_dir"`
	OutputDir  string `json:"output_dir"`
	CacheDir   string `json:"cache_dir"`

	// Export settings
	ImageFormat    string `json:"image_format"`
	MaxTextureSize int    `json:"max_texture_size"`
	Workers        int    `json:"workers"`
	LogLevel       string `json:"log_level"`
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	InstallDir  string
	OutputDir   string
	CacheDir    string
	ImageFormat string
	Workers     int
	Verbose     bool
}

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Resolve applies flag overrides, resolves relative paths against the
// install directory and fills in defaults.
func (c *Config) Resolve(flags Flags) {
	// CLI flags override config file
	if flags.InstallDir != "" {
		c.InstallDir = flags.InstallDir
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.CacheDir != "" {
		c.CacheDir = flags.CacheDir
	}
	if flags.ImageFormat != "" {
		c.ImageFormat = flags.ImageFormat
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.Verbose {
		c.LogLevel = "debug"
	}

	// Resolve relative paths against the install dir
	if c.InstallDir != "" {
		if c.OutputDir != "" && !filepath.IsAbs(c.OutputDir) {
			c.OutputDir = filepath.Join(c.InstallDir, c.OutputDir)
		}
		if c.CacheDir != "" && !filepath.IsAbs(c.CacheDir) {
			c.CacheDir = filepath.Join(c.InstallDir, c.CacheDir)
		}
	}

	if c.OutputDir == "" {
		c.OutputDir = "."
	}
	if c.ImageFormat == "" {
		c.ImageFormat = string(texture.ImagePNG)
	}
	c.ImageFormat = strings.ToLower(c.ImageFormat)
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate checks values that Resolve cannot default.
func (c *Config) Validate() error {
	if _, err := texture.ParseImageFormat(c.ImageFormat); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.MaxTextureSize < 0 {
		return fmt.Errorf("config: max_texture_size must not be negative, got %d", c.MaxTextureSize)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level returns the configured log level.
func (c *Config) Level() (zerolog.Level, error) {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel, fmt.Errorf("config: log_level: %w", err)
	}
	return lvl, nil
}
