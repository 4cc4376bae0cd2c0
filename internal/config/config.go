// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for learnpath.
type Config struct {
	DBPath        string
	GuestPath     string
	CatalogPath   string
	LogMode       string
	LogHashSalt   string
	SaveDebounce  time.Duration
	HTTPAddr      string
	DefaultUserID string
	EnvFileLoaded bool
}

// DefaultConfig returns a Config with defaults. DBPath and GuestPath are
// left empty and resolved against the home directory by Load.
func DefaultConfig() Config {
	return Config{
		LogMode:      "dev",
		SaveDebounce: 500 * time.Millisecond,
		HTTPAddr:     ":8080",
	}
}

// Load reads an optional .env file from the working directory, then
// environment variables, falling back to defaults for unset or invalid values.
func Load() (Config, error) {
	cfg := DefaultConfig()

	if err := godotenv.Load(); err == nil {
		cfg.EnvFileLoaded = true
	}

	applyEnv(&cfg)

	if cfg.DBPath == "" || cfg.GuestPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return cfg, fmt.Errorf("finding home directory: %w", err)
		}
		if cfg.DBPath == "" {
			cfg.DBPath = filepath.Join(home, ".learnpath", "learnpath.db")
		}
		if cfg.GuestPath == "" {
			cfg.GuestPath = filepath.Join(home, ".learnpath", "guest.json")
		}
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("LEARNPATH_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("LEARNPATH_GUEST_FILE"); v != "" {
		cfg.GuestPath = v
	}
	if v := os.Getenv("LEARNPATH_CATALOG"); v != "" {
		cfg.CatalogPath = v
	}
	if v := os.Getenv("LEARNPATH_LOG_MODE"); v != "" {
		cfg.LogMode = v
	}
	if v := os.Getenv("LEARNPATH_LOG_HASH_SALT"); v != "" {
		cfg.LogHashSalt = v
	}
	if v := os.Getenv("LEARNPATH_SAVE_DEBOUNCE_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.SaveDebounce = time.Duration(n) * time.Millisecond
		}
	}
	if v := os.Getenv("LEARNPATH_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("LEARNPATH_USER"); v != "" {
		cfg.DefaultUserID = v
	}
}
