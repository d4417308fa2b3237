package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sameehj/untappd-mcp/pkg/untappd"
)

// Config defines runtime settings for the adapter. Credentials never live
// here; they come from the environment only.
type Config struct {
	LogLevel  string        `yaml:"logLevel"`
	LogFormat string        `yaml:"logFormat"`
	API       APIConfig     `yaml:"api"`
	Gateway   GatewayConfig `yaml:"gateway"`
	HTTP      HTTPConfig    `yaml:"http"`
}

type APIConfig struct {
	BaseURL string `yaml:"baseURL"`
	Timeout string `yaml:"timeout"`
}

type GatewayConfig struct {
	Address      string   `yaml:"address"`
	AllowedAddrs []string `yaml:"allowedAddrs"`
	MaxSessions  int      `yaml:"maxSessions"`
}

type HTTPConfig struct {
	Address string `yaml:"address"`
}

// LoadConfig loads configuration from a YAML file and environment overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		LogLevel:  "info",
		LogFormat: "json",
		API: APIConfig{
			BaseURL: untappd.DefaultBaseURL,
			Timeout: "30s",
		},
		Gateway: GatewayConfig{
			Address: "127.0.0.1:4242",
		},
		HTTP: HTTPConfig{
			Address: "127.0.0.1:8080",
		},
	}

	if path == "" {
		// Fall back to the advertised default, but only when it exists;
		// running without any config file is the normal case.
		if def := DefaultConfigPath(); fileExists(def) {
			path = def
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if level := os.Getenv("UNTAPPD_LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
	if format := os.Getenv("UNTAPPD_LOG_FORMAT"); format != "" {
		cfg.LogFormat = format
	}
	if baseURL := os.Getenv("UNTAPPD_API_BASE_URL"); baseURL != "" {
		cfg.API.BaseURL = baseURL
	}

	if _, err := cfg.APITimeout(); err != nil {
		return nil, fmt.Errorf("invalid api timeout: %w", err)
	}

	return cfg, nil
}

// APITimeout parses the configured per-request timeout.
func (c *Config) APITimeout() (time.Duration, error) {
	if c.API.Timeout == "" {
		return 0, nil
	}
	return time.ParseDuration(c.API.Timeout)
}

// DefaultConfigPath returns the default location for the CLI config file.
func DefaultConfigPath() string {
	if path := os.Getenv("UNTAPPD_MCP_CONFIG"); path != "" {
		return path
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".untappd-mcp", "config.yaml")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
