package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the viewer configuration.
type Config struct {
	Workers   int    `json:"workers" yaml:"workers"`
	QueueSize int    `json:"queue_size" yaml:"queue_size"` // per-worker inbox
	LogLevel  string `json:"log_level" yaml:"log_level"`   // debug, info, warn, error

	Version    string `json:"version" yaml:"version"`         // registered block table
	BlocksPath string `json:"blocks_path" yaml:"blocks_path"` // minecraft-data blocks.json; overrides Version
	TablePath  string `json:"table_path" yaml:"table_path"`   // render table YAML; overrides BlocksPath and Version

	PayloadDir    string `json:"payload_dir" yaml:"payload_dir"`       // read payloads from a store instead of generating
	GeneratorType string `json:"generator_type" yaml:"generator_type"` // "hills" or "flat"
	Seed          int64  `json:"seed" yaml:"seed"`
	Radius        int    `json:"radius" yaml:"radius"` // chunks loaded around the origin

	MetricsAddr string `json:"metrics_addr" yaml:"metrics_addr"` // empty disables /metrics
	FeedAddr    string `json:"feed_addr" yaml:"feed_addr"`       // empty disables the websocket feed
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Workers:       4,
		QueueSize:     64,
		LogLevel:      "info",
		Version:       "pc-1.8",
		GeneratorType: "hills",
		Radius:        4,
		MetricsAddr:   ":9100",
		FeedAddr:      ":8080",
	}
}

// Load reads a YAML config file. Keys missing from the file keep their
// default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Merge applies file-loaded config values into cfg, but only for fields
// that were NOT explicitly set via CLI flags. explicitFlags contains the
// flag names that were explicitly provided on the command line.
func Merge(cfg *Config, fromFile *Config, explicitFlags map[string]bool) {
	if !explicitFlags["workers"] {
		cfg.Workers = fromFile.Workers
	}
	if !explicitFlags["queue-size"] {
		cfg.QueueSize = fromFile.QueueSize
	}
	if !explicitFlags["log-level"] {
		cfg.LogLevel = fromFile.LogLevel
	}
	if !explicitFlags["version"] {
		cfg.Version = fromFile.Version
	}
	if !explicitFlags["blocks"] {
		cfg.BlocksPath = fromFile.BlocksPath
	}
	if !explicitFlags["table"] {
		cfg.TablePath = fromFile.TablePath
	}
	if !explicitFlags["payloads"] {
		cfg.PayloadDir = fromFile.PayloadDir
	}
	if !explicitFlags["generator"] {
		cfg.GeneratorType = fromFile.GeneratorType
	}
	if !explicitFlags["seed"] {
		cfg.Seed = fromFile.Seed
	}
	if !explicitFlags["radius"] {
		cfg.Radius = fromFile.Radius
	}
	if !explicitFlags["metrics-addr"] {
		cfg.MetricsAddr = fromFile.MetricsAddr
	}
	if !explicitFlags["feed-addr"] {
		cfg.FeedAddr = fromFile.FeedAddr
	}
}

// Validate reports every invalid field.
func (c *Config) Validate() error {
	var errs []error
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	if c.QueueSize < 1 {
		errs = append(errs, fmt.Errorf("queue_size must be at least 1, got %d", c.QueueSize))
	}
	if c.Radius < 0 {
		errs = append(errs, fmt.Errorf("radius must not be negative, got %d", c.Radius))
	}
	if c.Version == "" && c.BlocksPath == "" && c.TablePath == "" {
		errs = append(errs, errors.New("one of version, blocks_path or table_path is required"))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}
