// Package config reads CLI defaults from the environment.
//
// Values come from CRITERIA_* environment variables, optionally seeded from
// a .env file. Command-line flags override every value here.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvDB             = "CRITERIA_DB"
	EnvEventThreshold = "CRITERIA_EVENT_THRESHOLD"
	EnvLogLevel       = "CRITERIA_LOG_LEVEL"
	EnvFormat         = "CRITERIA_FORMAT"
)

// Defaults.
const (
	DefaultDB             = "criteria.db"
	DefaultEventThreshold = 100
	DefaultLogLevel       = "warn"
	DefaultFormat         = "text"
)

// Config holds CLI defaults.
type Config struct {
	DBPath         string
	EventThreshold int
	LogLevel       string
	Format         string
}

// Default returns the built-in defaults without reading the environment.
func Default() *Config {
	return &Config{
		DBPath:         DefaultDB,
		EventThreshold: DefaultEventThreshold,
		LogLevel:       DefaultLogLevel,
		Format:         DefaultFormat,
	}
}

// Load reads the configuration. Each named env file is loaded if it
// exists; with no names, ".env" in the working directory is tried.
// Variables already set in the environment are never overwritten.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := &Config{
		DBPath:         getEnv(EnvDB, DefaultDB),
		EventThreshold: getEnvAsInt(EnvEventThreshold, DefaultEventThreshold),
		LogLevel:       strings.ToLower(getEnv(EnvLogLevel, DefaultLogLevel)),
		Format:         strings.ToLower(getEnv(EnvFormat, DefaultFormat)),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	if c.EventThreshold < 1 {
		return fmt.Errorf("%s must be at least 1, got %d", EnvEventThreshold, c.EventThreshold)
	}
	if c.Format != "text" && c.Format != "json" {
		return fmt.Errorf("%s must be text or json, got %q", EnvFormat, c.Format)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel (debug, info, warn, error).
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("%s: %w", EnvLogLevel, err)
	}
	return level, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
