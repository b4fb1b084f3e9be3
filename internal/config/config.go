// Package config loads application configuration from defaults, an optional
// YAML file and FINED_* environment variables, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in order. The
// first file found wins.
var DefaultConfigPaths = []string{
	"fined.yaml",
	"fined.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "FINED_CONFIG"

// Storage backends.
const (
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config is the application configuration.
type Config struct {
	Storage  StorageConfig `koanf:"storage"`
	Language string        `koanf:"language"`
	Log      LogConfig     `koanf:"log"`
}

// StorageConfig selects and locates the key-value backend.
type StorageConfig struct {
	// Backend is one of badger, sqlite or memory.
	Backend string `koanf:"backend"`
	// Path is the data directory (badger) or database file (sqlite).
	Path string `koanf:"path"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level string `koanf:"level"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend: BackendBadger,
			Path:    defaultDataPath(),
		},
		Language: "en",
		Log: LogConfig{
			Level: "info",
		},
	}
}

func defaultDataPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir + "/fined/data"
	}
	return "fined-data"
}

// Load builds the configuration: defaults, then the config file (if any),
// then FINED_* environment variables.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// FINED_STORAGE_BACKEND -> storage.backend, FINED_LOG_LEVEL -> log.level
	envProvider := env.Provider("FINED_", ".", func(key string) string {
		key = strings.TrimPrefix(key, "FINED_")
		return strings.ReplaceAll(strings.ToLower(key), "_", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigFile() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		return path
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Validate checks the configuration for unusable values.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendBadger, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Storage.Backend != BackendMemory && c.Storage.Path == "" {
		return fmt.Errorf("storage path is required for backend %q", c.Storage.Backend)
	}
	return nil
}
