package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
)

var outputFormats = map[string]bool{
	".png":  true,
	".tif":  true,
	".tiff": true,
	".bmp":  true,
}

// Validate checks the configuration and fills in the default log level.
func Validate(cfg *Config) error {
	if cfg.Input == "" {
		return fmt.Errorf("input is required")
	}
	if cfg.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}

	if cfg.Geometry.BandHeight <= 0 {
		return fmt.Errorf("geometry.band_height must be > 0")
	}
	if cfg.Geometry.Bands < 3 {
		return fmt.Errorf("geometry.bands must be >= 3 to hold blue, green and red")
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return fmt.Errorf("log_level %q: must be debug, info, warn or error", cfg.LogLevel)
	}

	return ValidateOutputs(cfg.Outputs)
}

// ValidateOutputs checks that every image output has a supported lossless
// extension and that no two outputs share a name.
func ValidateOutputs(o OutputsConfig) error {
	images := map[string]string{
		"red":       o.Red,
		"green":     o.Green,
		"blue":      o.Blue,
		"composite": o.Composite,
	}
	seen := make(map[string]string)
	for key, name := range images {
		if name == "" {
			return fmt.Errorf("outputs.%s is required", key)
		}
		if name != filepath.Base(name) {
			return fmt.Errorf("outputs.%s %q must be a bare file name", key, name)
		}
		if ext := strings.ToLower(filepath.Ext(name)); !outputFormats[ext] {
			return fmt.Errorf("outputs.%s %q: unsupported format %q (png, tif, tiff, bmp)", key, name, ext)
		}
		if other, dup := seen[name]; dup {
			return fmt.Errorf("outputs.%s and outputs.%s both write %q", other, key, name)
		}
		seen[name] = key
	}

	for key, name := range map[string]string{"frame_map": o.FrameMap, "manifest": o.Manifest} {
		if name == "" {
			continue
		}
		if name != filepath.Base(name) {
			return fmt.Errorf("outputs.%s %q must be a bare file name", key, name)
		}
		if other, dup := seen[name]; dup {
			return fmt.Errorf("outputs.%s and outputs.%s both write %q", other, key, name)
		}
		seen[name] = key
	}
	if o.FrameMap != "" {
		if ext := strings.ToLower(filepath.Ext(o.FrameMap)); ext != ".jpg" && ext != ".jpeg" {
			return fmt.Errorf("outputs.frame_map %q must be a .jpg", o.FrameMap)
		}
	}
	return nil
}
