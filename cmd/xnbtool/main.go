// Package main provides a command-line tool for inspecting and exporting
// Magicka XNB content.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/aldrheim/xnbtools/pkg/config"
)

var (
	mode       string
	configPath string
	inputPath  string
	installDir string
	outputDir  string
	cacheDir   string
	format     string
	maxSize    int
	workers    int
	writeDDS   bool
	useZstd    bool
	verbose    bool
)

func init() {
	flag.StringVar(&mode, "mode", "", "Operation mode: info, extract, decompress, textures, vfx, scan, level")
	flag.StringVar(&configPath, "config", "", "Path to a JSON config file")
	flag.StringVar(&inputPath, "input", "", "Input file or directory")
	flag.StringVar(&installDir, "install", "", "Game installation directory used to resolve content paths")
	flag.StringVar(&outputDir, "output", "", "Output directory")
	flag.StringVar(&cacheDir, "cache", "", "Directory for the decompressed content cache")
	flag.StringVar(&format, "format", "", "Image format for exported textures: png, webp, tga, bmp")
	flag.IntVar(&maxSize, "max-size", 0, "Downscale exported textures so neither side exceeds this size")
	flag.IntVar(&workers, "workers", 0, "Number of parallel workers (default: all CPUs)")
	flag.BoolVar(&writeDDS, "dds", false, "Export textures as DDS instead of decoding them")
	flag.BoolVar(&useZstd, "zstd", false, "Store extracted content streams as zstd archives")
	flag.BoolVar(&verbose, "verbose", false, "Enable debug logging")
}

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := validateFlags(); err != nil {
		flag.Usage()
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	lvl, err := cfg.Level()
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	switch mode {
	case "info":
		return runInfo()
	case "extract":
		return runExtract(cfg)
	case "decompress":
		return runDecompress(cfg)
	case "textures":
		return runTextures(cfg)
	case "vfx":
		return runVFX()
	case "scan":
		return runScan(cfg)
	case "level":
		return runLevel(cfg)
	default:
		return fmt.Errorf("unknown mode: %s", mode)
	}
}

func validateFlags() error {
	if mode == "" {
		return fmt.Errorf("mode is required")
	}
	if inputPath == "" {
		return fmt.Errorf("input is required")
	}
	if maxSize < 0 {
		return fmt.Errorf("max-size must not be negative")
	}

	switch mode {
	case "info", "vfx", "scan", "level":
	case "extract", "decompress", "textures":
		if outputDir == "" && configPath == "" {
			return fmt.Errorf("%s mode requires -output", mode)
		}
	default:
		return fmt.Errorf("mode must be one of info, extract, decompress, textures, vfx, scan, level")
	}

	return nil
}

func loadConfig() (config.Config, error) {
	var cfg config.Config
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return config.Config{}, err
		}
	}
	cfg.Resolve(config.Flags{
		InstallDir:  installDir,
		OutputDir:   outputDir,
		CacheDir:    cacheDir,
		ImageFormat: format,
		Workers:     workers,
		Verbose:     verbose,
	})
	if maxSize > 0 {
		cfg.MaxTextureSize = maxSize
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
