// Package config holds pvescout configuration: defaults, YAML file loading
// and environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SecretEnvVar is the environment variable consulted for the integrity
// secret when the config file does not provide one.
const SecretEnvVar = "PVESCOUT_HMAC_SECRET"

// Config holds all pvescout configuration.
type Config struct {
	// Engine identity; the name doubles as the cache namespace.
	Engine EngineConfig `yaml:"engine"`

	// Remote catalogue endpoint.
	Fetch FetchConfig `yaml:"fetch"`

	// Persistent cache store.
	Cache CacheConfig `yaml:"cache"`

	// Integrity signing.
	Security SecurityConfig `yaml:"security"`

	// Logging.
	Logging LoggingConfig `yaml:"logging"`

	// HTTP server.
	Server ServerConfig `yaml:"server"`
}

// EngineConfig identifies the engine instance.
type EngineConfig struct {
	Name string `yaml:"name"`
}

// FetchConfig holds catalogue fetch settings.
type FetchConfig struct {
	URL            string `yaml:"url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// CacheConfig holds cache store settings. An empty Path selects an
// in-memory store that lives only as long as the process.
type CacheConfig struct {
	Path     string `yaml:"path"`
	TTLHours int    `yaml:"ttl_hours"`
}

// SecurityConfig holds integrity-signing settings.
type SecurityConfig struct {
	Secret  string `yaml:"hmac_secret"`
	KeyFile string `yaml:"key_file"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Listen string `yaml:"listen"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".pvescout")

	return &Config{
		Engine: EngineConfig{
			Name: "pve-community-scripts",
		},
		Fetch: FetchConfig{
			URL:            "https://community-scripts.github.io/ProxmoxVE/api/categories",
			TimeoutSeconds: 30,
		},
		Cache: CacheConfig{
			Path:     filepath.Join(dataDir, "cache.db"),
			TTLHours: 12,
		},
		Security: SecurityConfig{
			KeyFile: filepath.Join(dataDir, "secret.key"),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Server: ServerConfig{
			Listen: "127.0.0.1:8484",
		},
	}
}

// Load reads configuration from path, layered over defaults, then applies
// environment overrides. An empty path loads defaults plus overrides only.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PVESCOUT_API_URL"); v != "" {
		cfg.Fetch.URL = v
	}
	if v := os.Getenv("PVESCOUT_CACHE_PATH"); v != "" {
		cfg.Cache.Path = v
	}
	if v := os.Getenv("PVESCOUT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("PVESCOUT_LISTEN"); v != "" {
		cfg.Server.Listen = v
	}
}

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	if c.Engine.Name == "" {
		return fmt.Errorf("engine name must not be empty")
	}
	if c.Fetch.URL == "" {
		return fmt.Errorf("fetch URL must not be empty")
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch timeout must be positive, got %d", c.Fetch.TimeoutSeconds)
	}
	if c.Cache.TTLHours <= 0 {
		return fmt.Errorf("cache TTL must be positive, got %d", c.Cache.TTLHours)
	}
	return nil
}
