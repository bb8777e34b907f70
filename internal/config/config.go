// Package config loads sandpile experiment files. It supports YAML files and
// environment variable overrides on top of built-in defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kachinap/sandpile-project/internal/logging"
	"github.com/kachinap/sandpile-project/internal/sims/sandpile"
)

// File is a complete experiment description.
type File struct {
	// Sandpile holds the model parameters.
	Sandpile sandpile.Config `yaml:"sandpile"`

	Run RunConfig `yaml:"run"`

	Logging LoggingConfig `yaml:"logging"`

	Storage StorageConfig `yaml:"storage"`
}

// RunConfig controls the avalanche driver.
type RunConfig struct {
	// Avalanches is the number of single-grain depositions per run.
	Avalanches int `yaml:"avalanches"`
	// Equilibrate relaxes the seeded grid before the first deposition.
	Equilibrate bool `yaml:"equilibrate"`
	// ProgressInterval is the minimum time between progress log lines.
	ProgressInterval time.Duration `yaml:"progress_interval"`
	// HistogramBins is the number of log-spaced bins in exported histograms.
	HistogramBins int `yaml:"histogram_bins"`
}

// LoggingConfig configures operational logging.
type LoggingConfig struct {
	// Level is one of "error", "warn", "info" (default), "debug" or "trace".
	Level string `yaml:"level"`
	// Format is "text" (default) or "json".
	Format string `yaml:"format"`
}

// StorageConfig locates persisted snapshots and runs. Empty paths disable
// the corresponding store.
type StorageConfig struct {
	DBPath      string `yaml:"db_path"`
	SnapshotDir string `yaml:"snapshot_dir"`
}

// Default returns a File with the standard experiment settings.
func Default() *File {
	return &File{
		Sandpile: sandpile.DefaultConfig(),
		Run: RunConfig{
			Avalanches:       20000,
			Equilibrate:      true,
			ProgressInterval: 2 * time.Second,
			HistogramBins:    50,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Storage: StorageConfig{
			SnapshotDir: "snapshots",
		},
	}
}

// Load returns the defaults, overlaid with path when it is non-empty, and
// finally with environment overrides.
func Load(path string) (*File, error) {
	cfg := Default()
	if path != "" {
		fileCfg, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file. Keys missing from the
// file keep their default values.
func LoadFromFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Validate checks the whole file, model parameters included.
func (f *File) Validate() error {
	if err := f.Sandpile.Validate(); err != nil {
		return err
	}
	if f.Run.Avalanches < 0 {
		return fmt.Errorf("avalanches must be non-negative, got %d", f.Run.Avalanches)
	}
	if f.Run.ProgressInterval < 0 {
		return fmt.Errorf("progress_interval must be non-negative, got %v", f.Run.ProgressInterval)
	}
	if f.Run.HistogramBins < 1 {
		return fmt.Errorf("histogram_bins must be positive, got %d", f.Run.HistogramBins)
	}
	if !logging.ValidLevel(f.Logging.Level) {
		return fmt.Errorf("invalid log level: %s (valid: error, warn, info, debug, trace)", f.Logging.Level)
	}
	switch f.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid log format: %s (valid: text, json)", f.Logging.Format)
	}
	return nil
}

// Marshal renders f as YAML.
func (f *File) Marshal() ([]byte, error) {
	return yaml.Marshal(f)
}

func applyEnvOverrides(cfg *File) error {
	if v := os.Getenv("SANDPILE_SEED"); v != "" {
		seed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("SANDPILE_SEED: %w", err)
		}
		cfg.Sandpile.Seed = seed
	}
	if v := os.Getenv("SANDPILE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SANDPILE_DB"); v != "" {
		cfg.Storage.DBPath = v
	}
	return nil
}
