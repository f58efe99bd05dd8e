// Package config holds the latticeanalyzer settings, read from a YAML file
// layered over DefaultConfig.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Processing parameters
	Processing struct {
		// NumWorkers is the number of goroutines a kernel launch may use
		NumWorkers int `yaml:"numWorkers"`

		// Executor selects the kernel execution strategy: "parallel" or "sequential"
		Executor string `yaml:"executor"`

		// BlockSize is the side of the square block a kernel grid is cut into
		BlockSize int `yaml:"blockSize"`
	} `yaml:"processing"`

	// Input parameters
	Input struct {
		// DimSize is the side of the square raw intensity matrix
		DimSize int `yaml:"dimSize"`
	} `yaml:"input"`

	// Outlier repair parameters
	Repair struct {
		// Enabled turns the outlier repair step on
		Enabled bool `yaml:"enabled"`

		// MinThreshold is the lower bound, as a fraction of the mean amplitude
		MinThreshold float64 `yaml:"minThreshold"`

		// MaxThreshold is the upper bound, as a fraction of the mean amplitude
		MaxThreshold float64 `yaml:"maxThreshold"`
	} `yaml:"repair"`

	// Geometric transform parameters
	Transform struct {
		// Rotation is the rotation angle in degrees; 0 skips the step
		Rotation float64 `yaml:"rotation"`

		// Magnification is the scale factor; 1 skips the step
		Magnification float64 `yaml:"magnification"`

		// CropAfterRotation trims the empty corners of a rotated image
		CropAfterRotation bool `yaml:"cropAfterRotation"`
	} `yaml:"transform"`

	// Seam blending parameters
	Link struct {
		// Enabled links every pair of consecutive images with a blended seam
		Enabled bool `yaml:"enabled"`

		// Vertical stacks the pairs instead of placing them side by side
		Vertical bool `yaml:"vertical"`

		// MarginFraction is the seam band width as a fraction of the image size
		MarginFraction float64 `yaml:"marginFraction"`
	} `yaml:"link"`

	// Output parameters
	Output struct {
		// Format is the picture format: "png" or "tiff"
		Format string `yaml:"format"`

		// LogScale displays amplitudes on a logarithmic scale
		LogScale bool `yaml:"logScale"`

		// SaveIntermediaryResults determines whether to save intermediary processing results
		SaveIntermediaryResults bool `yaml:"saveIntermediaryResults"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`

		// MosaicColumns joins the results into a mosaic with this many
		// images per row; 0 disables the mosaic
		MosaicColumns int `yaml:"mosaicColumns"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default processing parameters
	cfg.Processing.NumWorkers = runtime.NumCPU() // Use all available cores by default
	cfg.Processing.Executor = "parallel"
	cfg.Processing.BlockSize = 16

	cfg.Input.DimSize = 1024

	cfg.Repair.Enabled = true
	cfg.Repair.MinThreshold = 0.7
	cfg.Repair.MaxThreshold = 1.3

	cfg.Transform.Rotation = 0
	cfg.Transform.Magnification = 1
	cfg.Transform.CropAfterRotation = false

	cfg.Link.Enabled = false
	cfg.Link.Vertical = false
	cfg.Link.MarginFraction = 0.1

	// Set default output parameters
	cfg.Output.Format = "png"
	cfg.Output.LogScale = false
	cfg.Output.SaveIntermediaryResults = false
	cfg.Output.Verbose = false
	cfg.Output.MosaicColumns = 0

	return cfg
}

// Validate checks the values a YAML file or flag may have broken.
func (cfg *Config) Validate() error {
	switch cfg.Processing.Executor {
	case "parallel", "sequential":
	default:
		return fmt.Errorf("invalid executor %q (must be parallel or sequential)", cfg.Processing.Executor)
	}
	if cfg.Processing.NumWorkers < 1 {
		return fmt.Errorf("numWorkers must be positive, got %d", cfg.Processing.NumWorkers)
	}
	if cfg.Processing.BlockSize < 1 {
		return fmt.Errorf("blockSize must be positive, got %d", cfg.Processing.BlockSize)
	}
	if cfg.Input.DimSize < 1 {
		return fmt.Errorf("dimSize must be positive, got %d", cfg.Input.DimSize)
	}
	if cfg.Repair.MinThreshold < 0 || cfg.Repair.MaxThreshold < cfg.Repair.MinThreshold {
		return fmt.Errorf("invalid repair thresholds [%g, %g]", cfg.Repair.MinThreshold, cfg.Repair.MaxThreshold)
	}
	if cfg.Transform.Magnification <= 0 {
		return fmt.Errorf("magnification must be positive, got %g", cfg.Transform.Magnification)
	}
	if cfg.Link.MarginFraction < 0 || cfg.Link.MarginFraction >= 0.5 {
		return fmt.Errorf("marginFraction must be in [0, 0.5), got %g", cfg.Link.MarginFraction)
	}
	switch cfg.Output.Format {
	case "png", "tiff", "tif":
	default:
		return fmt.Errorf("invalid output format %q (must be png or tiff)", cfg.Output.Format)
	}
	if cfg.Output.MosaicColumns < 0 {
		return fmt.Errorf("mosaicColumns must not be negative, got %d", cfg.Output.MosaicColumns)
	}
	return nil
}

// LoadConfig reads the YAML file at configPath on top of DefaultConfig, so
// sections or keys missing from the file keep their defaults. A missing file
// yields the defaults unchanged.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(configPath)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read analyzer config %s: %w", configPath, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse analyzer config %s: %w", configPath, err)
	}
	return cfg, nil
}

// SaveConfig writes cfg as YAML, creating the parent directory.
func SaveConfig(cfg *Config, configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode analyzer config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write analyzer config %s: %w", configPath, err)
	}
	return nil
}

// CreateDefaultConfigFile writes DefaultConfig to configPath; the CLI uses it
// for -write-config.
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}
