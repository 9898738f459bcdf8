package config

import "time"

const (
	// DefaultURLPattern is the placeholder image service used for seeding.
	DefaultURLPattern = "https://picsum.photos/1920/1080/?random={index}"
	// IndexPlaceholder is replaced by the zero-based fetch index.
	IndexPlaceholder = "{index}"
	// IndexFileName is the generated page written into the media root.
	IndexFileName = "index.html"
)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// PageDefaultApplier handles page rendering defaults.
type PageDefaultApplier struct{}

func (PageDefaultApplier) Domain() string { return "page" }

func (PageDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.TemplateDir == "" {
		cfg.TemplateDir = "."
	}
	if cfg.Title == "" {
		cfg.Title = "Media"
	}
	return nil
}

// SeedDefaultApplier handles dataset seeding defaults.
type SeedDefaultApplier struct{}

func (SeedDefaultApplier) Domain() string { return "seed" }

func (SeedDefaultApplier) ApplyDefaults(cfg *Config) error {
	s := &cfg.Seed
	if s.URLPattern == "" {
		s.URLPattern = DefaultURLPattern
	}
	if s.Concurrency == 0 {
		s.Concurrency = 1
	}
	if s.Timeout <= 0 {
		s.Timeout = 30 * time.Second
	}
	if s.MaxBytes == 0 {
		s.MaxBytes = 20 << 20
	}

	// Retries stay off unless configured; a failed fetch is reported, not repeated.
	if s.Retry.Mode == "" {
		s.Retry.Mode = RetryBackoffLinear
	} else if m := NormalizeRetryBackoff(string(s.Retry.Mode)); m != "" {
		s.Retry.Mode = m
	}
	if s.Retry.Initial <= 0 {
		s.Retry.Initial = time.Second
	}
	if s.Retry.Max <= 0 {
		s.Retry.Max = 30 * time.Second
	}
	return nil
}

// ServeDefaultApplier handles preview server defaults.
type ServeDefaultApplier struct{}

func (ServeDefaultApplier) Domain() string { return "serve" }

func (ServeDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Serve.Addr == "" {
		cfg.Serve.Addr = ":8080"
	}
	if cfg.Serve.ETagRefresh <= 0 {
		cfg.Serve.ETagRefresh = 10 * time.Minute
	}
	return nil
}

// LoggingDefaultApplier normalizes logging settings.
type LoggingDefaultApplier struct{}

func (LoggingDefaultApplier) Domain() string { return "logging" }

func (LoggingDefaultApplier) ApplyDefaults(cfg *Config) error {
	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))
	return nil
}

// ApplyDefaults runs every domain applier in order.
func ApplyDefaults(cfg *Config) error {
	appliers := []DefaultApplier{
		PageDefaultApplier{},
		SeedDefaultApplier{},
		ServeDefaultApplier{},
		LoggingDefaultApplier{},
	}
	for _, a := range appliers {
		if err := a.ApplyDefaults(cfg); err != nil {
			return err
		}
	}
	return nil
}
