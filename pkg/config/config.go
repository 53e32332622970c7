// Package config provides configuration loading and management for plotmodel.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Processing parameters for derived curves
	Processing struct {
		// NumWorkers bounds the goroutines used by parallel reductions
		NumWorkers int `yaml:"numWorkers"`

		// DerivativeWindow is the half-width of the finite difference stencil
		DerivativeWindow int `yaml:"derivativeWindow"`

		// SmoothWindow is the number of points in each local polynomial fit
		SmoothWindow int `yaml:"smoothWindow"`

		// SmoothOrder is the degree of the local polynomial
		SmoothOrder int `yaml:"smoothOrder"`

		// MedianWindow is the moving median width
		MedianWindow int `yaml:"medianWindow"`
	} `yaml:"processing"`

	// Profile sampling parameters
	Profile struct {
		// Step is the distance in pixels between line samples
		Step float64 `yaml:"step"`
	} `yaml:"profile"`

	// Reduction limits
	Reduction struct {
		// MaxResultBytes caps the memory a single reduction may allocate
		MaxResultBytes uint64 `yaml:"maxResultBytes"`

		// DebounceMillis is the quiet period before a dragged region is reduced
		DebounceMillis int `yaml:"debounceMillis"`
	} `yaml:"reduction"`

	// Isosurface parameters
	Isosurface struct {
		// MaxVertices is the vertex cap for one surface
		MaxVertices int `yaml:"maxVertices"`

		// BoxSize is the sampling stride in voxels
		BoxSize int `yaml:"boxSize"`

		// TickCount is the number of ticks generated per axis
		TickCount int `yaml:"tickCount"`
	} `yaml:"isosurface"`

	// Geometry defaults used when a detector has no metadata
	Geometry struct {
		PixelSize  float64 `yaml:"pixelSize"`
		Distance   float64 `yaml:"distance"`
		Wavelength float64 `yaml:"wavelength"`
	} `yaml:"geometry"`

	// Spectrum dataset name patterns used to pick x and y columns
	Spectrum struct {
		XDatasets []string `yaml:"xDatasets"`
		YDatasets []string `yaml:"yDatasets"`
	} `yaml:"spectrum"`

	// Logging parameters
	Logging struct {
		// Level is a logrus level name
		Level string `yaml:"level"`

		// JSON switches to structured JSON output
		JSON bool `yaml:"json"`
	} `yaml:"logging"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Processing.NumWorkers = runtime.NumCPU()
	cfg.Processing.DerivativeWindow = 1
	cfg.Processing.SmoothWindow = 13
	cfg.Processing.SmoothOrder = 9
	cfg.Processing.MedianWindow = 5

	cfg.Profile.Step = 1.0

	cfg.Reduction.MaxResultBytes = 512 << 20
	cfg.Reduction.DebounceMillis = 50

	cfg.Isosurface.MaxVertices = 1_000_000
	cfg.Isosurface.BoxSize = 1
	cfg.Isosurface.TickCount = 15

	cfg.Geometry.PixelSize = 0.172
	cfg.Geometry.Distance = 200
	cfg.Geometry.Wavelength = 1.0

	cfg.Spectrum.XDatasets = []string{"*energy", "*Energy", "x"}
	cfg.Spectrum.YDatasets = []string{"*counts", "*Counts", "*I0", "y"}

	cfg.Logging.Level = "warning"

	return cfg
}

// Validate reports the first inconsistent value
func (c *Config) Validate() error {
	if c.Processing.DerivativeWindow < 1 {
		return fmt.Errorf("derivativeWindow must be at least 1, got %d", c.Processing.DerivativeWindow)
	}
	if c.Processing.SmoothOrder >= c.Processing.SmoothWindow {
		return fmt.Errorf("smoothOrder %d must be below smoothWindow %d", c.Processing.SmoothOrder, c.Processing.SmoothWindow)
	}
	if c.Processing.MedianWindow < 1 {
		return fmt.Errorf("medianWindow must be at least 1, got %d", c.Processing.MedianWindow)
	}
	if c.Profile.Step <= 0 {
		return fmt.Errorf("profile step must be positive, got %g", c.Profile.Step)
	}
	if c.Isosurface.BoxSize < 1 {
		return fmt.Errorf("isosurface boxSize must be at least 1, got %d", c.Isosurface.BoxSize)
	}
	return nil
}

// IsXDataset reports whether a dataset name matches one of the x patterns
func (c *Config) IsXDataset(name string) bool {
	return matchAny(c.Spectrum.XDatasets, name)
}

// IsYDataset reports whether a dataset name matches one of the y patterns
func (c *Config) IsYDataset(name string) bool {
	return matchAny(c.Spectrum.YDatasets, name)
}

func matchAny(patterns []string, name string) bool {
	name = strings.TrimSpace(name)
	for _, p := range patterns {
		if ok, err := path.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
