// Package config provides configuration loading and management for emiheatmap.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"emiheatmap/pkg/aggregation"
	"emiheatmap/pkg/bands"
	"emiheatmap/pkg/interpolation"
	"emiheatmap/pkg/visualization"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Processing parameters
	Processing struct {
		// Aggregation is the band reduction policy, "amplitude" or "amplitude-squared"
		Aggregation string `yaml:"aggregation"`

		// StepHz is the nominal frequency band width
		StepHz float64 `yaml:"stepHz"`

		// UpsampleFactor is the number of mesh points per scan position and axis
		UpsampleFactor int `yaml:"upsampleFactor"`

		// NumWorkers bounds how many bands are interpolated concurrently
		NumWorkers int `yaml:"numWorkers"`
	} `yaml:"processing"`

	// Output parameters
	Output struct {
		// HeatmapPath is the existing directory receiving the images
		HeatmapPath string `yaml:"heatmapPath"`

		// PreviewColumns is the number of panels per row of out.png
		PreviewColumns int `yaml:"previewColumns"`

		// WriteManifest adds manifest.yaml next to the images
		WriteManifest bool `yaml:"writeManifest"`
	} `yaml:"output"`

	// Logging parameters
	Logging struct {
		// Level is a zerolog level name
		Level string `yaml:"level"`

		// Format is "console" or "json"
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Processing.Aggregation = string(aggregation.Amplitude)
	cfg.Processing.StepHz = bands.DefaultStep
	cfg.Processing.UpsampleFactor = interpolation.DefaultUpsampleFactor
	cfg.Processing.NumWorkers = runtime.NumCPU()

	cfg.Output.HeatmapPath = "."
	cfg.Output.PreviewColumns = visualization.DefaultPreviewColumns
	cfg.Output.WriteManifest = true

	cfg.Logging.Level = zerolog.InfoLevel.String()
	cfg.Logging.Format = "console"

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

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

// Validate checks that every value is usable
func (c *Config) Validate() error {
	if _, err := aggregation.ParsePolicy(c.Processing.Aggregation); err != nil {
		return err
	}
	if !(c.Processing.StepHz > 0) {
		return fmt.Errorf("processing.stepHz must be positive, got %g", c.Processing.StepHz)
	}
	if c.Processing.UpsampleFactor < 1 {
		return fmt.Errorf("processing.upsampleFactor must be at least 1, got %d", c.Processing.UpsampleFactor)
	}
	if c.Processing.NumWorkers < 1 {
		return fmt.Errorf("processing.numWorkers must be at least 1, got %d", c.Processing.NumWorkers)
	}
	if c.Output.PreviewColumns < 1 {
		return fmt.Errorf("output.previewColumns must be at least 1, got %d", c.Output.PreviewColumns)
	}
	if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
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
