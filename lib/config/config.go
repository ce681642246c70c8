// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/modstats/lib/report"
)

// EnvironmentVariable names the variable [Load] reads the config path
// from.
const EnvironmentVariable = "MODSTATS_CONFIG"

// Config is the agent and collector configuration.
type Config struct {
	// Folder is the durable statistics folder (settings.cfg, reports,
	// Plugins/).
	Folder string `yaml:"folder"`

	// CollectorURL receives report uploads.
	// Default: http://localhost:5000/statistics/report
	CollectorURL string `yaml:"collector_url"`

	// CheckpointInterval is the minimum spacing between checkpoints.
	// Default: 15s
	CheckpointInterval time.Duration `yaml:"checkpoint_interval"`

	// UploadTimeout bounds each upload request. Default: 30s
	UploadTimeout time.Duration `yaml:"upload_timeout"`

	// UploadConcurrency bounds uploads in flight. 0 means unbounded.
	UploadConcurrency int `yaml:"upload_concurrency"`

	// InventoryDir is scanned for sub-component manifests. Empty
	// disables the inventory.
	InventoryDir string `yaml:"inventory_dir"`

	// InstallRoot is the host application's install directory.
	InstallRoot string `yaml:"install_root"`

	// LogLevel is one of debug, info, warn, error. Default: info
	LogLevel string `yaml:"log_level"`

	// Host describes the host application build.
	Host HostConfig `yaml:"host"`

	// Collector configures modstats-collector.
	Collector CollectorConfig `yaml:"collector"`
}

// HostConfig describes the host application build reported in
// gameVersion.
type HostConfig struct {
	Build        int  `yaml:"build"`
	Major        int  `yaml:"major"`
	Minor        int  `yaml:"minor"`
	Revision     int  `yaml:"revision"`
	Experimental bool `yaml:"experimental"`
	Beta         bool `yaml:"beta"`
	Steam        bool `yaml:"steam"`
}

// CollectorConfig configures the collector server.
type CollectorConfig struct {
	// Listen is the TCP address to serve on. Default: :5000
	Listen string `yaml:"listen"`

	// Database is the SQLite file reports are stored in.
	Database string `yaml:"database"`
}

// Default returns the configuration used when no file is given, and
// the base that a file is merged onto.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	folder := filepath.Join(homeDir, ".local", "share", "modstats")

	return &Config{
		Folder:             folder,
		CollectorURL:       "http://localhost:5000/statistics/report",
		CheckpointInterval: 15 * time.Second,
		UploadTimeout:      30 * time.Second,
		LogLevel:           "info",
		Collector: CollectorConfig{
			Listen:   ":5000",
			Database: filepath.Join(folder, "collector.db"),
		},
	}
}

// Load loads the file named by MODSTATS_CONFIG. It fails when the
// variable is unset.
func Load() (*Config, error) {
	path := os.Getenv(EnvironmentVariable)
	if path == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your modstats.yaml, or use --config", EnvironmentVariable)
	}
	return LoadFile(path)
}

// LoadFile merges the YAML file at path onto [Default] and expands
// path variables. Unknown keys are rejected.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.expandVariables()
	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} in path fields.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}

	c.Folder = expandVars(c.Folder, vars)
	vars["MODSTATS_FOLDER"] = c.Folder

	c.InventoryDir = expandVars(c.InventoryDir, vars)
	c.InstallRoot = expandVars(c.InstallRoot, vars)
	c.Collector.Database = expandVars(c.Collector.Database, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars replaces ${VAR} and ${VAR:-default}. vars take precedence
// over the process environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		name, defaultValue := parts[1], parts[2]

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Folder == "" {
		errs = append(errs, fmt.Errorf("folder is required"))
	}

	if parsed, err := url.Parse(c.CollectorURL); err != nil {
		errs = append(errs, fmt.Errorf("collector_url: %w", err))
	} else if parsed.Scheme != "http" && parsed.Scheme != "https" {
		errs = append(errs, fmt.Errorf("collector_url must be an http or https URL, got %q", c.CollectorURL))
	}

	if c.CheckpointInterval <= 0 {
		errs = append(errs, fmt.Errorf("checkpoint_interval must be positive, got %s", c.CheckpointInterval))
	}
	if c.UploadTimeout <= 0 {
		errs = append(errs, fmt.Errorf("upload_timeout must be positive, got %s", c.UploadTimeout))
	}
	if c.UploadConcurrency < 0 {
		errs = append(errs, fmt.Errorf("upload_concurrency must not be negative, got %d", c.UploadConcurrency))
	}

	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}

// GameVersion converts the host section to the report form. Is64 is
// taken from the running binary.
func (h HostConfig) GameVersion() report.GameVersion {
	return report.GameVersion{
		Build:        h.Build,
		Major:        h.Major,
		Minor:        h.Minor,
		Revision:     h.Revision,
		Experimental: h.Experimental,
		IsBeta:       h.Beta,
		IsSteam:      h.Steam,
		Is64:         strconv.IntSize == 64,
	}
}
