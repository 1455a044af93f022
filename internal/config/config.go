// Package config reads the YAML configuration of the tuffmap command.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Environment variables consulted when the file leaves a value unset.
const (
	EnvConfig      = "TUFFMAP_CONFIG"
	EnvSeed        = "TUFFMAP_SEED"
	EnvMetricsAddr = "TUFFMAP_METRICS_ADDR"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid configuration")

// Config is the root of the configuration file.
type Config struct {
	Level     LevelConfig     `yaml:"level"`
	Generate  GenerateConfig  `yaml:"generate"`
	Render    RenderConfig    `yaml:"render"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// LevelConfig selects a TUFF2 level file. An empty path generates a map.
type LevelConfig struct {
	Path string `yaml:"path"`
}

// GenerateConfig sizes and seeds a generated map. Zero sizes use the
// generator defaults.
type GenerateConfig struct {
	Seed   int64 `yaml:"seed"`
	Width  int   `yaml:"width"`
	Height int   `yaml:"height"`
}

// RenderConfig controls the frame written after the passes.
type RenderConfig struct {
	Borders   bool       `yaml:"borders"`
	Palette   string     `yaml:"palette"` // palette JSON path, empty uses the embedded one
	Output    string     `yaml:"output"` // PNG path, empty skips rendering
	View      ViewConfig `yaml:"view"`
	Scale     int        `yaml:"scale"`
	Reveal    bool       `yaml:"reveal"` // start an episode under the actor first
	FadeSteps int        `yaml:"fade_steps"`
}

// ViewConfig is the frame size in cells. Zero renders the whole map.
type ViewConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// TelemetryConfig controls tracing, log verbosity and the metrics endpoint.
type TelemetryConfig struct {
	Tracing     bool    `yaml:"tracing"`
	SampleRatio float64 `yaml:"sample_ratio"`
	Verbosity   int     `yaml:"verbosity"`
	MetricsAddr string  `yaml:"metrics_addr"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Render: RenderConfig{
			Borders:   true,
			Output:    "tuffmap.png",
			Scale:     1,
			FadeSteps: 10,
		},
	}
}

// Load reads a YAML file over Default. If path is empty it falls back to
// TUFFMAP_CONFIG, and without either it returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv(EnvConfig)
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks sizes and counts.
func (c Config) Validate() error {
	switch {
	case c.Generate.Width < 0 || c.Generate.Height < 0:
		return fmt.Errorf("generate size %dx%d: %w", c.Generate.Width, c.Generate.Height, ErrInvalid)
	case c.Render.View.Width < 0 || c.Render.View.Height < 0:
		return fmt.Errorf("view size %dx%d: %w", c.Render.View.Width, c.Render.View.Height, ErrInvalid)
	case c.Render.Scale < 0:
		return fmt.Errorf("scale %d: %w", c.Render.Scale, ErrInvalid)
	case c.Render.FadeSteps < 0:
		return fmt.Errorf("fade steps %d: %w", c.Render.FadeSteps, ErrInvalid)
	case c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1:
		return fmt.Errorf("sample ratio %g: %w", c.Telemetry.SampleRatio, ErrInvalid)
	case c.Telemetry.Verbosity < 0:
		return fmt.Errorf("verbosity %d: %w", c.Telemetry.Verbosity, ErrInvalid)
	}
	return nil
}

// GetSeed returns the generator seed with priority: config -> env -> 0
// (time based).
func (g GenerateConfig) GetSeed() int64 {
	if g.Seed != 0 {
		return g.Seed
	}
	if v := os.Getenv(EnvSeed); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			return seed
		}
	}
	return 0
}

// GetMetricsAddr returns the metrics listen address with priority:
// config -> env -> "" (disabled).
func (t TelemetryConfig) GetMetricsAddr() string {
	if t.MetricsAddr != "" {
		return t.MetricsAddr
	}
	return os.Getenv(EnvMetricsAddr)
}
