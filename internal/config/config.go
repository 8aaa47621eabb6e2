// Package config loads the optional mcpmail config file.
//
// Settings are layered: command-line flags win over environment variables,
// which win over the config file, which wins over built-in defaults. The
// file is YAML and may reference environment variables as ${VAR}:
//
//	server:
//	  url: https://mail.example.com
//	  endpoint_path: /mcp
//	  timeout: 30s
//	  token: ${MCP_TOKEN}
//	log:
//	  level: debug
//	  format: json
//	metrics:
//	  addr: 127.0.0.1:9090
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the config file name looked up in the search paths.
const FileName = "mcpmail.yaml"

// Config mirrors the YAML file. Zero values mean "not set".
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ServerConfig describes the MCP server to talk to.
type ServerConfig struct {
	URL           string        `yaml:"url"`
	EndpointPath  string        `yaml:"endpoint_path"`
	Timeout       time.Duration `yaml:"timeout"`
	Token         string        `yaml:"token"`
	SessionHeader string        `yaml:"session_header"`
}

// LogConfig controls diagnostics on stderr.
type LogConfig struct {
	Level  string `yaml:"level"`  // info, debug
	Format string `yaml:"format"` // text, json
}

// Debug reports whether the configured level is debug.
func (l LogConfig) Debug() bool {
	return strings.EqualFold(l.Level, "debug")
}

// MetricsConfig controls the Prometheus scrape endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// DefaultSearchPaths returns the config file search order:
// ./mcpmail.yaml, then ~/.config/mcpmail/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{FileName}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "mcpmail", "config.yaml"))
	}

	return paths
}

// Find locates a config file. An explicit path must exist. Otherwise the
// first existing entry of DefaultSearchPaths is returned, or "" when there
// is none, since the file is optional.
func Find(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", nil
}

// Load reads a config file, expanding environment variables first.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the values that can be checked without the server.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Timeout < 0 {
		errs = append(errs, fmt.Errorf("server.timeout must not be negative, got %s", c.Server.Timeout))
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "info", "debug":
	default:
		errs = append(errs, fmt.Errorf("invalid log.level %q, must be one of: info, debug", c.Log.Level))
	}
	return errors.Join(errs...)
}
