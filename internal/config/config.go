// Package config loads the service configuration from a JSON file. The
// parsed struct is handed explicitly to the loader and server — there is no
// ambient configuration state.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config is the whole service configuration.
type Config struct {
	Dataset Dataset `json:"dataset"`
	Server  Server  `json:"server"`
	Reload  Reload  `json:"reload"`
}

// Dataset describes the source file and how to read it. Columns maps
// source column names onto the engine's semantic fields; empty means the
// stock dataset headers.
type Dataset struct {
	Path    string            `json:"path"`
	Sheet   string            `json:"sheet,omitempty"`
	Columns map[string]string `json:"columns,omitempty"`
	Strict  bool              `json:"strict,omitempty"`
	Dedup   string            `json:"dedup,omitempty"` // "", "first" or "last"
}

type Server struct {
	Addr string `json:"addr"`
}

// Reload controls how the dataset is refreshed: a file watch, a cron
// schedule, or both.
type Reload struct {
	Watch bool   `json:"watch,omitempty"`
	Cron  string `json:"cron,omitempty"` // robfig/cron spec, e.g. "@hourly"
}

// Load reads and validates a config file, filling defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
}

func (c *Config) validate() error {
	if c.Dataset.Path == "" {
		return fmt.Errorf("config: dataset.path is required")
	}
	switch c.Dataset.Dedup {
	case "", "first", "last":
	default:
		return fmt.Errorf("config: dataset.dedup must be empty, %q or %q, got %q", "first", "last", c.Dataset.Dedup)
	}
	return nil
}
