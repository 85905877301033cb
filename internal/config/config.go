// Package config loads tool configuration from a YAML file with
// environment variable overrides. Flags beat env, env beats file,
// file beats defaults; the CLI applies the flag layer.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFile is probed in the working directory when no explicit
// config path is given.
const DefaultFile = ".overlap.yaml"

// Config is the full tool configuration.
type Config struct {
	Log         LogConfig         `yaml:"log"`
	Limits      LimitsConfig      `yaml:"limits"`
	Analysis    AnalysisConfig    `yaml:"analysis"`
	Performance PerformanceConfig `yaml:"performance"`
	Cache       CacheConfig       `yaml:"cache"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// File receives a copy of the log output when set.
	File string `yaml:"file"`
}

// LimitsConfig bounds untrusted input.
type LimitsConfig struct {
	MaxFileSize     int64 `yaml:"max_file_size"`
	MaxTests        int   `yaml:"max_tests"`
	MaxLinesPerFile int   `yaml:"max_lines_per_file"`
}

// AnalysisConfig holds detection policy knobs.
type AnalysisConfig struct {
	// SimilarityThreshold is the default Jaccard threshold for
	// near-duplicate detection. Must be in [0, 1].
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
}

// PerformanceConfig controls parallel ingestion.
type PerformanceConfig struct {
	Parallel bool `yaml:"parallel"`

	// Workers is the worker count for parallel work. 0 means one
	// worker per CPU.
	Workers int `yaml:"workers"`
}

// CacheConfig controls the on-disk analysis cache.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log: LogConfig{Level: "info"},
		Limits: LimitsConfig{
			MaxFileSize:     100 * 1024 * 1024,
			MaxTests:        50000,
			MaxLinesPerFile: 100000,
		},
		Analysis:    AnalysisConfig{SimilarityThreshold: 0.7},
		Performance: PerformanceConfig{Parallel: true},
		Cache:       CacheConfig{},
	}
}

// Load builds the effective configuration: defaults, then the YAML
// file (explicit path, or DefaultFile if present), then env
// overrides. An explicit path that cannot be read is an error; a
// missing DefaultFile is not.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		dec := yaml.NewDecoder(strings.NewReader(string(data)))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("config file %s: %w", path, err)
		}
	case explicit:
		return Config{}, fmt.Errorf("config file %s: %w", path, err)
	}

	applyEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overlays OVERLAP_* environment variables. Unparseable
// values are ignored rather than fatal: env is a convenience layer.
func applyEnv(cfg *Config) {
	if v := os.Getenv("OVERLAP_LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("OVERLAP_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	if v := os.Getenv("OVERLAP_MAX_TESTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Limits.MaxTests = n
		}
	}
	if v := os.Getenv("OVERLAP_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Analysis.SimilarityThreshold = f
		}
	}
	if v := os.Getenv("OVERLAP_PARALLEL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Performance.Parallel = b
		}
	}
}

// validate rejects configurations that would misbehave silently.
func (c Config) validate() error {
	if c.Analysis.SimilarityThreshold < 0 || c.Analysis.SimilarityThreshold > 1 {
		return fmt.Errorf("invalid similarity_threshold %v: must be in [0, 1]",
			c.Analysis.SimilarityThreshold)
	}
	if c.Performance.Workers < 0 {
		return fmt.Errorf("invalid workers %d: must be >= 0", c.Performance.Workers)
	}
	if c.Limits.MaxFileSize <= 0 || c.Limits.MaxTests <= 0 || c.Limits.MaxLinesPerFile <= 0 {
		return fmt.Errorf("limits must be positive")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	return nil
}
