package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sameehj/untappd-mcp/pkg/untappd"
)

// pointDefaultConfigAway keeps tests independent of any real
// ~/.untappd-mcp/config.yaml on the machine running them.
func pointDefaultConfigAway(t *testing.T) {
	t.Helper()
	t.Setenv("UNTAPPD_MCP_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))
}

func TestLoadConfigDefaults(t *testing.T) {
	pointDefaultConfigAway(t)
	t.Setenv("UNTAPPD_LOG_LEVEL", "")
	t.Setenv("UNTAPPD_LOG_FORMAT", "")
	t.Setenv("UNTAPPD_API_BASE_URL", "")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("unexpected log level %q", cfg.LogLevel)
	}
	if cfg.API.BaseURL != untappd.DefaultBaseURL {
		t.Fatalf("unexpected base URL %q", cfg.API.BaseURL)
	}
	timeout, err := cfg.APITimeout()
	if err != nil {
		t.Fatalf("APITimeout: %v", err)
	}
	if timeout.Seconds() != 30 {
		t.Fatalf("unexpected timeout %v", timeout)
	}
}

func TestLoadConfigFile(t *testing.T) {
	t.Setenv("UNTAPPD_LOG_LEVEL", "")
	t.Setenv("UNTAPPD_API_BASE_URL", "")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "logLevel: debug\napi:\n  baseURL: http://localhost:9999/v4\n  timeout: 5s\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("unexpected log level %q", cfg.LogLevel)
	}
	if cfg.API.BaseURL != "http://localhost:9999/v4" {
		t.Fatalf("unexpected base URL %q", cfg.API.BaseURL)
	}
}

func TestLoadConfigDefaultPath(t *testing.T) {
	t.Setenv("UNTAPPD_LOG_LEVEL", "")
	t.Setenv("UNTAPPD_API_BASE_URL", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("logLevel: error\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("UNTAPPD_MCP_CONFIG", path)

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.LogLevel != "error" {
		t.Fatalf("default config path not loaded, got level %q", cfg.LogLevel)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	pointDefaultConfigAway(t)
	t.Setenv("UNTAPPD_LOG_LEVEL", "warn")
	t.Setenv("UNTAPPD_API_BASE_URL", "http://localhost:1234/v4")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("env override lost, got %q", cfg.LogLevel)
	}
	if cfg.API.BaseURL != "http://localhost:1234/v4" {
		t.Fatalf("env override lost, got %q", cfg.API.BaseURL)
	}
}

func TestLoadConfigBadTimeout(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("api:\n  timeout: soon\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for unparseable timeout")
	}
}
