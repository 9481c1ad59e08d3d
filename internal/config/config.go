// Package config loads the harvester's configuration from a YAML file,
// applying environment-variable expansion and sane defaults, following
// the DefaultConfig/Load/Validate shape used elsewhere in this codebase's
// sibling tooling.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the harvester's full configuration, covering transport
// timing, pagination bounds, per-stage batch limits, and filesystem paths.
type Config struct {
	Transport  TransportConfig  `yaml:"transport"`
	Pagination PaginationConfig `yaml:"pagination"`
	Batch      BatchConfig      `yaml:"batch"`
	Paths      PathsConfig      `yaml:"paths"`
	LogLevel   string           `yaml:"log_level"`
	LogFormat  string           `yaml:"log_format"`
}

// TransportConfig holds the rate limiter's timing knobs and retry policy.
type TransportConfig struct {
	MinDelay        time.Duration `yaml:"min_delay"`
	MaxDelay        time.Duration `yaml:"max_delay"`
	BackoffFactor   float64       `yaml:"backoff_factor"`
	RecoveryFactor  float64       `yaml:"recovery_factor"`
	MaxBackoff      time.Duration `yaml:"max_backoff"`
	PageLoadWait    time.Duration `yaml:"page_load_wait"`
	ChallengeWait   time.Duration `yaml:"challenge_wait"`
	MaxRetries      int           `yaml:"max_retries"`
	MinContentChars int           `yaml:"min_content_chars"`
	IdleReset       time.Duration `yaml:"idle_reset"`
}

// PaginationConfig bounds the discovery stage's offset walk.
type PaginationConfig struct {
	MaxOffset       int `yaml:"max_offset"`
	ResultsPerPage  int `yaml:"results_per_page"`
}

// BatchConfig sets each stage's per-invocation work limit.
type BatchConfig struct {
	OverviewBatchSize    int `yaml:"overview_batch_size"`
	MapStatsBatchSize    int `yaml:"map_stats_batch_size"`
	PerfEconomyBatchSize int `yaml:"perf_economy_batch_size"`
}

// PathsConfig sets the filesystem locations for the store and the HTML archive.
type PathsConfig struct {
	DataDir string `yaml:"data_dir"`
	DBPath  string `yaml:"db_path"`
}

// Default returns the configuration with every knob at its spec-mandated default.
func Default() *Config {
	return &Config{
		Transport: TransportConfig{
			MinDelay:        3 * time.Second,
			MaxDelay:        8 * time.Second,
			BackoffFactor:   2.0,
			RecoveryFactor:  0.95,
			MaxBackoff:      120 * time.Second,
			PageLoadWait:    30 * time.Second,
			ChallengeWait:   5 * time.Second,
			MaxRetries:      5,
			MinContentChars: 10000,
			IdleReset:       2 * time.Minute,
		},
		Pagination: PaginationConfig{
			MaxOffset:      100,
			ResultsPerPage: 9900,
		},
		Batch: BatchConfig{
			OverviewBatchSize:    10,
			MapStatsBatchSize:    10,
			PerfEconomyBatchSize: 10,
		},
		Paths: PathsConfig{
			DataDir: "./data",
			DBPath:  "./data/hltv.db",
		},
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load reads configuration from a YAML file at path, layering it over
// Default(). Environment variables in the file (e.g. "$HOME") are
// expanded before parsing. A missing file is not an error — Default() is
// returned unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = "config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return cfg, nil
}

// Validate rejects a configuration with structurally invalid knobs before
// the pipeline starts — a structural error per the error taxonomy, meant
// to surface immediately rather than fail mid-batch.
func (c *Config) Validate() error {
	if c.Transport.MinDelay <= 0 || c.Transport.MaxDelay < c.Transport.MinDelay {
		return fmt.Errorf("transport.min_delay/max_delay must satisfy 0 < min <= max")
	}
	if c.Transport.BackoffFactor <= 1.0 {
		return fmt.Errorf("transport.backoff_factor must be > 1.0")
	}
	if c.Transport.RecoveryFactor <= 0 || c.Transport.RecoveryFactor >= 1.0 {
		return fmt.Errorf("transport.recovery_factor must be in (0, 1)")
	}
	if c.Transport.MaxRetries < 0 {
		return fmt.Errorf("transport.max_retries must be >= 0")
	}
	if c.Transport.MinContentChars <= 0 {
		return fmt.Errorf("transport.min_content_chars must be > 0")
	}
	if c.Transport.IdleReset < 0 {
		return fmt.Errorf("transport.idle_reset must be >= 0")
	}
	if c.Pagination.MaxOffset < 0 || c.Pagination.ResultsPerPage <= 0 {
		return fmt.Errorf("pagination bounds must be non-negative with a positive page size")
	}
	if c.Batch.OverviewBatchSize <= 0 || c.Batch.MapStatsBatchSize <= 0 || c.Batch.PerfEconomyBatchSize <= 0 {
		return fmt.Errorf("batch sizes must be positive")
	}
	if c.Paths.DataDir == "" || c.Paths.DBPath == "" {
		return fmt.Errorf("paths.data_dir and paths.db_path are required")
	}
	return nil
}

// Save writes the configuration to path as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
