package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables that override config.yaml.
const (
	EnvTranscribeURL = "PODIUM_TRANSCRIBE_URL"
	EnvScoreURL      = "PODIUM_SCORE_URL"
	EnvSynthesizeURL = "PODIUM_SYNTHESIZE_URL"
	EnvReviewURL     = "PODIUM_REVIEW_URL"
	EnvHTTPTimeout   = "PODIUM_HTTP_TIMEOUT"
)

// LoadEnv reads dir/.env into the process environment without replacing
// variables that are already set. A missing .env file is not an error.
func LoadEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides endpoint and timeout settings from the environment.
// A timeout that is not a positive number of seconds is an error.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvTranscribeURL); v != "" {
		c.Endpoints.Transcribe = v
	}
	if v := os.Getenv(EnvScoreURL); v != "" {
		c.Endpoints.Score = v
	}
	if v := os.Getenv(EnvSynthesizeURL); v != "" {
		c.Endpoints.Synthesize = v
	}
	if v := os.Getenv(EnvReviewURL); v != "" {
		c.Endpoints.Review = v
	}
	if v := os.Getenv(EnvHTTPTimeout); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			return fmt.Errorf("%s=%q: want a positive number of seconds", EnvHTTPTimeout, v)
		}
		c.HTTP.TimeoutSeconds = secs
	}
	return nil
}

// Load reads the project config (falling back to defaults when none has been
// written yet), applies .env and environment overrides, and validates it.
func Load(dir string) (*Config, error) {
	cfg, err := ReadConfig(dir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		cfg = DefaultConfig()
	}

	if err := LoadEnv(dir); err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
