// Package config loads and validates the server configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bionetlab/netcontrol/pkg/validation"
)

// Config is the full server configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Engine    EngineConfig    `yaml:"engine"`
	Broadcast BroadcastConfig `yaml:"broadcast"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig configures the HTTP surface
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig configures analysis persistence. With an empty URL the
// server falls back to the in-memory store.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// EngineConfig configures analysis execution
type EngineConfig struct {
	Workers            int    `yaml:"workers"`
	IterationLimit     int    `yaml:"iteration_limit"`
	NoImprovementLimit int    `yaml:"no_improvement_limit"`
	CoveragePolicy     string `yaml:"coverage_policy"`
}

// BroadcastConfig configures the external progress publisher
type BroadcastConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"`
}

// LoggingConfig configures structured logging
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is given
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ShutdownTimeout: 30 * time.Second,
		},
		Engine: EngineConfig{
			Workers:            4,
			IterationLimit:     100,
			NoImprovementLimit: 25,
			CoveragePolicy:     "matching",
		},
		Broadcast: BroadcastConfig{
			ListenAddr: "tcp://127.0.0.1:5555",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads a YAML config file, layering it over the defaults
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the configuration for consistency
func (c Config) Validate() error {
	return validation.NewConfigValidator("Config").
		RangeInt("Server.Port", c.Server.Port, 1, 65535).
		MinDuration("Server.ShutdownTimeout", c.Server.ShutdownTimeout, time.Second).
		Positive("Engine.Workers", c.Engine.Workers).
		Positive("Engine.IterationLimit", c.Engine.IterationLimit).
		Positive("Engine.NoImprovementLimit", c.Engine.NoImprovementLimit).
		OneOf("Engine.CoveragePolicy", c.Engine.CoveragePolicy, []string{"matching", "reachability"}).
		OneOf("Logging.Level", c.Logging.Level, []string{"debug", "info", "warn", "error"}).
		When(c.Broadcast.Enabled, func(cv *validation.ConfigValidator) {
			cv.Required("Broadcast.ListenAddr", c.Broadcast.ListenAddr)
		}).
		Validate()
}
