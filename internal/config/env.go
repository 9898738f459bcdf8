package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	ferrors "git.home.luguber.info/inful/mediaindex/internal/foundation/errors"
)

// Environment variable names recognized by mediaindex.
const (
	EnvMediaDir    = "MEDIAINDEX_MEDIA_DIR"
	EnvInitDataset = "MEDIAINDEX_INIT_DATASET"
	EnvPrefix      = "MEDIAINDEX_PREFIX"
	EnvTemplate    = "MEDIAINDEX_TEMPLATE"
	EnvURLPattern  = "MEDIAINDEX_SEED_URL_PATTERN"
	EnvLogLevel    = "MEDIAINDEX_LOG_LEVEL"
	EnvLogFormat   = "MEDIAINDEX_LOG_FORMAT"
)

// envFiles are loaded in order; existing process variables are never overridden.
var envFiles = []string{".env", ".env.local"}

func loadEnvFiles() {
	for _, name := range envFiles {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			fmt.Fprintf(os.Stderr, "Note: could not load %s: %v\n", name, err)
		}
	}
}

// applyEnv overlays MEDIAINDEX_* variables onto cfg.
func applyEnv(cfg *Config) error {
	if v, ok := os.LookupEnv(EnvMediaDir); ok && v != "" {
		cfg.MediaDir = v
	}
	if v, ok := os.LookupEnv(EnvInitDataset); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryConfig, "invalid integer in environment").
				Fatal().
				WithContext("variable", EnvInitDataset).
				WithContext("value", v).
				Build()
		}
		cfg.InitDataset = n
	}
	if v, ok := os.LookupEnv(EnvPrefix); ok && v != "" {
		cfg.Prefix = v
	}
	if v, ok := os.LookupEnv(EnvTemplate); ok && v != "" {
		cfg.Template = v
	}
	if v, ok := os.LookupEnv(EnvURLPattern); ok && v != "" {
		cfg.Seed.URLPattern = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok && v != "" {
		cfg.Logging.Level = LogLevel(v)
	}
	if v, ok := os.LookupEnv(EnvLogFormat); ok && v != "" {
		cfg.Logging.Format = LogFormat(v)
	}
	return nil
}
