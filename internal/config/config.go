// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

// Package config loads, merges, and validates parley configuration.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/parley-chat/parley/internal/xdg"
)

// Config is the root parley configuration, read from parley.yaml.
type Config struct {
	Log           LogConfig           `koanf:"log" json:"log,omitempty"`
	Plugins       PluginsConfig       `koanf:"plugins" json:"plugins,omitempty"`
	Observability ObservabilityConfig `koanf:"observability" json:"observability,omitempty"`
}

// LogConfig controls log output.
type LogConfig struct {
	Format string `koanf:"format" json:"format,omitempty" jsonschema:"enum=json,enum=text"`
	Level  string `koanf:"level" json:"level,omitempty" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
}

// PluginsConfig controls which plugin files load and from where.
type PluginsConfig struct {
	// Dir is the plugins directory. Empty means the XDG data default.
	Dir string `koanf:"dir" json:"dir,omitempty"`
	// Load lists plugin filenames in load order. Relative names
	// resolve inside Dir.
	Load []string `koanf:"load" json:"load,omitempty"`
	// Engines names the enabled engines. Empty means all.
	Engines []string `koanf:"engines" json:"engines,omitempty"`
}

// ObservabilityConfig controls the metrics/health HTTP server.
type ObservabilityConfig struct {
	Enabled bool   `koanf:"enabled" json:"enabled,omitempty"`
	Addr    string `koanf:"addr" json:"addr,omitempty" jsonschema:"example=127.0.0.1:9100"`
}

// Default returns the configuration used when no file and no flags
// are given.
func Default() Config {
	return Config{
		Log: LogConfig{
			Format: "json",
			Level:  "info",
		},
		Observability: ObservabilityConfig{
			Addr: "127.0.0.1:9100",
		},
	}
}

// flagKeys maps CLI flag names to configuration keys. Flags not
// listed here never reach the configuration.
var flagKeys = map[string]string{
	"log-format":   "log.format",
	"log-level":    "log.level",
	"plugins-dir":  "plugins.dir",
	"metrics-addr": "observability.addr",
	"metrics":      "observability.enabled",
}

// Load reads the configuration file at path (when non-empty),
// overlays any recognized flags, and validates the result. The file
// is checked against the JSON Schema before it is merged, so schema
// violations name the offending key instead of failing deep in an
// unmarshal.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	cfg := Default()
	k := koanf.New(".")

	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // path comes from the operator's own flag
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := ValidateSchema(data); err != nil {
			return Config{}, fmt.Errorf("config %s: %s", path, FormatSchemaError(err))
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("failed to load config %s: %w", path, err)
		}
	}

	if flags != nil {
		provider := posflag.ProviderWithValue(flags, ".", k, func(key, value string) (string, any) {
			mapped, ok := flagKeys[key]
			if !ok {
				return "", nil
			}
			return mapped, value
		})
		if err := k.Load(provider, nil); err != nil {
			return Config{}, fmt.Errorf("failed to merge flags: %w", err)
		}
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Plugins.Dir == "" {
		cfg.Plugins.Dir = xdg.PluginsDir()
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks constraints the schema cannot express on merged
// values, notably flag overrides that never pass schema validation.
func (c *Config) Validate() error {
	switch c.Log.Format {
	case "", "json", "text":
	default:
		return fmt.Errorf("log.format must be 'json' or 'text', got %q", c.Log.Format)
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}

	if c.Observability.Enabled && c.Observability.Addr == "" {
		return fmt.Errorf("observability.addr is required when observability.enabled is true")
	}

	for _, name := range c.Plugins.Load {
		if name == "" {
			return fmt.Errorf("plugins.load entries must not be empty")
		}
	}

	return nil
}
