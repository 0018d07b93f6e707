// Package config loads tracelight configuration from defaults, a config
// file, environment variables, and command-line flags, in that order of
// precedence (lowest to highest).
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/tracelight-labs/tracelight/pkg/lineage"
)

// Default configuration values.
const (
	DefaultScriptsDir = "."
	DefaultStrategy   = "auto"
	DefaultFormat     = "table"
	DefaultStateFile  = ".tracelight/history.db"
	DefaultLogLevel   = "info"
	DefaultServeAddr  = ":8080"
)

// ServeConfig holds viewer server settings.
type ServeConfig struct {
	Addr  string `koanf:"addr"`
	Watch bool   `koanf:"watch"`
}

// Config holds all CLI configuration options.
type Config struct {
	ScriptsDir     string      `koanf:"scripts_dir"`
	Dialect        string      `koanf:"dialect"`
	Strategy       string      `koanf:"strategy"`
	Normalize      string      `koanf:"normalize"`
	Workers        int         `koanf:"workers"`
	Format         string      `koanf:"format"`
	StatePath      string      `koanf:"state_path"`
	LogLevel       string      `koanf:"log_level"`
	FailOnWarnings bool        `koanf:"fail_on_warnings"`
	Verbose        bool        `koanf:"verbose"`
	Serve          ServeConfig `koanf:"serve"`

	// ProjectRoot is the directory the config file was found in, or the
	// working directory when there is none. Relative paths in the config
	// resolve against it.
	ProjectRoot string `koanf:"-"`
}

// Validate checks that enumerated settings hold known values. Path
// existence is not checked here so that help output works anywhere.
func (c *Config) Validate() error {
	if _, err := lineage.ParseStrategy(c.Strategy); err != nil {
		return err
	}
	if _, err := lineage.ParseNormalizeMode(c.Normalize); err != nil {
		return err
	}
	switch c.Format {
	case "table", "json", "yaml", "dot":
	default:
		return fmt.Errorf("unknown output format %q (known: table, json, yaml, dot)", c.Format)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLogLevel converts a level name into a slog.Level. The empty string
// selects info.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q (known: debug, info, warn, error)", s)
}
