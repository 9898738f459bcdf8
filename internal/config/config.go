// Package config loads and validates mediaindex configuration.
//
// Configuration comes from four layers, highest precedence first: CLI flags
// (applied by the command layer), environment variables, an optional YAML
// file and built-in defaults.
package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/mediaindex/internal/foundation/errors"
)

// Config represents the application configuration.
type Config struct {
	MediaDir    string        `yaml:"media_dir"`
	InitDataset int           `yaml:"init_dataset"`
	Prefix      string        `yaml:"prefix"`
	Template    string        `yaml:"template"`
	TemplateDir string        `yaml:"template_dir"`
	Title       string        `yaml:"title"`
	Seed        SeedConfig    `yaml:"seed"`
	Serve       ServeConfig   `yaml:"serve"`
	Logging     LoggingConfig `yaml:"logging"`
}

// SeedConfig controls placeholder dataset seeding.
type SeedConfig struct {
	URLPattern  string        `yaml:"url_pattern"` // must contain {index}
	Concurrency int           `yaml:"concurrency"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxBytes    int64         `yaml:"max_bytes"`
	Strict      bool          `yaml:"strict"` // fail the run if any fetch fails
	Retry       RetryConfig   `yaml:"retry"`
}

// RetryConfig holds raw retry/backoff settings for seeding fetches.
type RetryConfig struct {
	Mode       RetryBackoffMode `yaml:"mode"`
	Initial    time.Duration    `yaml:"initial"`
	Max        time.Duration    `yaml:"max"`
	MaxRetries int              `yaml:"max_retries"`
}

// ServeConfig controls the preview server.
type ServeConfig struct {
	Addr        string        `yaml:"addr"`
	Watch       bool          `yaml:"watch"`
	Metrics     bool          `yaml:"metrics"`
	ETagRefresh time.Duration `yaml:"etag_refresh"`
}

// LoggingConfig selects log level and handler format.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// Load reads configuration from configPath (optional; empty means defaults only),
// applies environment overrides and defaults. It does not validate; callers
// validate after applying CLI overrides.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	cfg := &Config{}
	if configPath != "" {
		data, err := os.ReadFile(configPath) // #nosec G304 -- user-supplied config path
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, ferrors.ConfigError("configuration file not found").
					WithContext("path", configPath).
					Build()
			}
			return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read config file").
				Fatal().
				WithContext("path", configPath).
				Build()
		}
		if err := decode(data, cfg); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to parse config file").
				Fatal().
				WithContext("path", configPath).
				Build()
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := ApplyDefaults(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode expands ${VAR} references and strictly unmarshals YAML into cfg.
func decode(data []byte, cfg *Config) error {
	expanded := os.ExpandEnv(string(data))
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
