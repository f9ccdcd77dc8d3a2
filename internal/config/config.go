package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"junocam/pkg/junocam"
)

// Config is the complete demux run configuration.
type Config struct {
	Input     string         `yaml:"input"`
	OutputDir string         `yaml:"output_dir"`
	Outputs   OutputsConfig  `yaml:"outputs"`
	Geometry  GeometryConfig `yaml:"geometry"`
	LogLevel  string         `yaml:"log_level"` // debug, info, warn, error
}

// OutputsConfig names the files written under OutputDir.
type OutputsConfig struct {
	Red       string `yaml:"red"`
	Green     string `yaml:"green"`
	Blue      string `yaml:"blue"`
	Composite string `yaml:"composite"`
	FrameMap  string `yaml:"frame_map"` // empty disables the diagram
	Manifest  string `yaml:"manifest"`  // empty disables the manifest
}

// GeometryConfig is the strip layout of the raw image.
type GeometryConfig struct {
	BandHeight int `yaml:"band_height"`
	Bands      int `yaml:"bands"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Input:     "images/raw/JNCE_2022056_40C00036_V01-raw.png",
		OutputDir: "images/processed",
		Outputs: OutputsConfig{
			Red:       "red_channel.png",
			Green:     "green_channel.png",
			Blue:      "blue_channel.png",
			Composite: "combined_rgb.png",
			Manifest:  "manifest.yaml",
		},
		Geometry: GeometryConfig{
			BandHeight: junocam.DefaultBandHeight,
			Bands:      junocam.DefaultBands,
		},
		LogLevel: "info",
	}
}

// Load reads a YAML configuration file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// SlogLevel maps LogLevel to a slog level.
func (c *Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// DemuxParams returns the JunoCam filter table with the configured geometry.
func (c *Config) DemuxParams() junocam.DemuxParams {
	p := junocam.DefaultParams()
	p.BandHeight = c.Geometry.BandHeight
	p.Bands = c.Geometry.Bands
	return p
}

// OutputPath joins a configured file name onto OutputDir. An empty name
// stays empty.
func (c *Config) OutputPath(name string) string {
	if name == "" {
		return ""
	}
	return filepath.Join(c.OutputDir, name)
}
