// Package config loads trackboard settings from ~/.trackboard/config.yaml
// and TRACKBOARD_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds everything main needs to wire a backend.
type Config struct {
	// APIURL selects the remote backend. Empty means the local replica.
	APIURL        string `yaml:"api_url"`
	APIToken      string `yaml:"api_token"`
	Workspace     string `yaml:"workspace"`
	Project       string `yaml:"project"`
	DBPath        string `yaml:"db"`
	Actor         string `yaml:"actor"`
	CacheTTLMs    int    `yaml:"cache_ttl_ms"`
	HTTPTimeoutMs int    `yaml:"http_timeout_ms"`
	LogUseCases   bool   `yaml:"log"`
}

// Dir returns ~/.trackboard, or a relative .trackboard when the home
// directory is unknown.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".trackboard"
	}
	return filepath.Join(home, ".trackboard")
}

// DefaultPath is the config file Load reads.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Default returns a Config for the local replica.
func Default() Config {
	return Config{
		Workspace:     "default",
		DBPath:        filepath.Join(Dir(), "trackboard.db"),
		Actor:         defaultActor(),
		CacheTTLMs:    30000,
		HTTPTimeoutMs: 10000,
	}
}

func defaultActor() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "local"
}

// Load reads DefaultPath and applies environment overrides.
func Load() (Config, error) {
	return LoadFrom(DefaultPath())
}

// LoadFrom reads the YAML file at path over the defaults, then applies
// environment overrides. A missing file is not an error.
func LoadFrom(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("reading config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v, ok := os.LookupEnv("TRACKBOARD_API_URL"); ok {
		cfg.APIURL = v
	}
	if v := os.Getenv("TRACKBOARD_API_TOKEN"); v != "" {
		cfg.APIToken = v
	}
	if v := os.Getenv("TRACKBOARD_WORKSPACE"); v != "" {
		cfg.Workspace = v
	}
	if v := os.Getenv("TRACKBOARD_PROJECT"); v != "" {
		cfg.Project = v
	}
	if v := os.Getenv("TRACKBOARD_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("TRACKBOARD_ACTOR"); v != "" {
		cfg.Actor = v
	}
	if v := os.Getenv("TRACKBOARD_CACHE_TTL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.CacheTTLMs = n
		}
	}
	if v := os.Getenv("TRACKBOARD_HTTP_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HTTPTimeoutMs = n
		}
	}
	if v := os.Getenv("TRACKBOARD_LOG"); v != "" {
		cfg.LogUseCases, _ = strconv.ParseBool(v)
	}
}

// UseLocal reports whether commands run against the SQLite replica.
func (c Config) UseLocal() bool {
	return c.APIURL == ""
}

func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMs) * time.Millisecond
}

func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutMs) * time.Millisecond
}
