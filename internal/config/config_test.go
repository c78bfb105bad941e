package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chunkview.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadKeepsDefaults(t *testing.T) {
	path := writeFile(t, "workers: 8\ngenerator_type: flat\nseed: 99\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Workers != 8 {
		t.Errorf("Workers = %d, want 8", cfg.Workers)
	}
	if cfg.GeneratorType != "flat" {
		t.Errorf("GeneratorType = %q, want flat", cfg.GeneratorType)
	}
	if cfg.Seed != 99 {
		t.Errorf("Seed = %d, want 99", cfg.Seed)
	}
	def := DefaultConfig()
	if cfg.QueueSize != def.QueueSize || cfg.Version != def.Version || cfg.FeedAddr != def.FeedAddr {
		t.Errorf("unset keys lost their defaults: %+v", cfg)
	}
}

func TestLoadTablePath(t *testing.T) {
	cfg, err := Load(writeFile(t, "table_path: /etc/chunkview/table.yaml\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.TablePath != "/etc/chunkview/table.yaml" {
		t.Errorf("TablePath = %q, want /etc/chunkview/table.yaml", cfg.TablePath)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := Load(writeFile(t, "workers: [1, 2]\n")); err == nil {
		t.Error("expected error for malformed file")
	}
}

func TestMergeRespectsExplicitFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 2
	cfg.Seed = 7

	fromFile := DefaultConfig()
	fromFile.Workers = 16
	fromFile.Seed = 1234
	fromFile.PayloadDir = "data"
	fromFile.TablePath = "tables/custom.yaml"

	Merge(cfg, fromFile, map[string]bool{"workers": true})

	if cfg.Workers != 2 {
		t.Errorf("Workers = %d, want explicit flag value 2", cfg.Workers)
	}
	if cfg.Seed != 1234 {
		t.Errorf("Seed = %d, want file value 1234", cfg.Seed)
	}
	if cfg.PayloadDir != "data" {
		t.Errorf("PayloadDir = %q, want data", cfg.PayloadDir)
	}
	if cfg.TablePath != "tables/custom.yaml" {
		t.Errorf("TablePath = %q, want tables/custom.yaml", cfg.TablePath)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"no workers", func(c *Config) { c.Workers = 0 }, false},
		{"no queue", func(c *Config) { c.QueueSize = 0 }, false},
		{"negative radius", func(c *Config) { c.Radius = -1 }, false},
		{"no blocks", func(c *Config) { c.Version = "" }, false},
		{"blocks path only", func(c *Config) { c.Version = ""; c.BlocksPath = "blocks.json" }, true},
		{"table path only", func(c *Config) { c.Version = ""; c.TablePath = "table.yaml" }, true},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "debug"
	l, err := cfg.Level()
	if err != nil {
		t.Fatal(err)
	}
	if l != slog.LevelDebug {
		t.Errorf("Level() = %v, want debug", l)
	}
}
