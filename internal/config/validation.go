package config

import (
	"strings"

	ferrors "git.home.luguber.info/inful/mediaindex/internal/foundation/errors"
)

const maxSeedConcurrency = 64

// Validate checks the merged configuration. Call it after CLI overrides.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.MediaDir) == "" {
		return ferrors.ConfigError("media directory is required (--media-dir or " + EnvMediaDir + ")").Build()
	}
	if c.InitDataset < 0 {
		return ferrors.ValidationError("init-dataset must not be negative").
			WithContext("init_dataset", c.InitDataset).
			Build()
	}
	return c.Seed.validate(c.InitDataset > 0)
}

func (s SeedConfig) validate(seeding bool) error {
	if seeding && !strings.Contains(s.URLPattern, IndexPlaceholder) {
		return ferrors.ConfigError("seed url_pattern must contain " + IndexPlaceholder).
			WithContext("url_pattern", s.URLPattern).
			Build()
	}
	if s.Concurrency < 1 || s.Concurrency > maxSeedConcurrency {
		return ferrors.ConfigError("seed concurrency must be between 1 and 64").
			WithContext("concurrency", s.Concurrency).
			Build()
	}
	if s.MaxBytes < 0 {
		return ferrors.ConfigError("seed max_bytes must be positive").
			WithContext("max_bytes", s.MaxBytes).
			Build()
	}
	if s.Retry.MaxRetries < 0 {
		return ferrors.ConfigError("seed retry max_retries cannot be negative").
			WithContext("max_retries", s.Retry.MaxRetries).
			Build()
	}
	if NormalizeRetryBackoff(string(s.Retry.Mode)) == "" {
		return ferrors.ConfigError("unknown seed retry mode").
			WithContext("mode", string(s.Retry.Mode)).
			Build()
	}
	return nil
}
