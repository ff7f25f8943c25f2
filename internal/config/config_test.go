package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseDefaultConfig(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		t.Fatalf("failed to parse default config: %v", err)
	}

	if cfg.API.BaseURL != "http://localhost:8001/api" {
		t.Errorf("expected default base_url, got %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 0 {
		t.Errorf("expected no timeout, got %s", cfg.API.Timeout)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("expected port 3000, got %d", cfg.Server.Port)
	}
	if cfg.Upload.MaxFileSizeBytes() != 10<<20 {
		t.Errorf("expected 10 MiB upload cap, got %d", cfg.Upload.MaxFileSizeBytes())
	}
	if len(cfg.Upload.AllowedExtensions) != 2 {
		t.Errorf("expected 2 extensions, got %v", cfg.Upload.AllowedExtensions)
	}
}

func TestParseMinimalConfig(t *testing.T) {
	data := []byte(`
api:
  base_url: https://drafts.example.com/api/
  timeout: 90s
server:
  port: 9000
upload:
  max_file_size: 512KiB
  allowed_extensions: [CSV]
`)
	cfg, err := parse(data)
	if err != nil {
		t.Fatalf("failed to parse minimal config: %v", err)
	}

	if cfg.API.BaseURL != "https://drafts.example.com/api" {
		t.Errorf("expected trailing slash trimmed, got %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 90*time.Second {
		t.Errorf("expected 90s timeout, got %s", cfg.API.Timeout)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	if cfg.Upload.MaxFileSizeBytes() != 512<<10 {
		t.Errorf("expected 512 KiB, got %d", cfg.Upload.MaxFileSizeBytes())
	}
	if got := cfg.Upload.AllowedExtensions; len(got) != 1 || got[0] != ".csv" {
		t.Errorf("expected [.csv], got %v", got)
	}
	// Defaults should still be set for unspecified fields
	if cfg.Logging.Level != "INFO" {
		t.Errorf("expected default level, got %q", cfg.Logging.Level)
	}
}

func TestParseRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"base url":  "api:\n  base_url: not-a-url\n",
		"port":      "server:\n  port: 70000\n",
		"file size": "upload:\n  max_file_size: lots\n",
		"timeout":   "api:\n  timeout: -1s\n",
	}
	for name, data := range cases {
		if _, err := parse([]byte(data)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvAPIURL, "http://backend:8001/api")
	t.Setenv(EnvPublicURL, "https://drafts.example.com/")

	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	if cfg.API.BaseURL != "http://backend:8001/api" {
		t.Errorf("expected env base_url, got %q", cfg.API.BaseURL)
	}
	if cfg.Server.PublicURL != "https://drafts.example.com" {
		t.Errorf("expected env public_url, got %q", cfg.Server.PublicURL)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, DefaultConfigYAML, 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		t.Error("expected cors origins to be populated from file")
	}
}

func TestResolveConfigPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	_, err := ResolveConfigPath("")
	if !errors.Is(err, ErrNoConfig) {
		t.Errorf("expected ErrNoConfig, got %v", err)
	}

	if _, err := ResolveConfigPath("/does/not/exist.yaml"); err == nil {
		t.Error("expected error for missing explicit path")
	}

	if err := os.WriteFile("config.yaml", DefaultConfigYAML, 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	path, err := ResolveConfigPath("")
	if err != nil {
		t.Fatalf("expected ./config.yaml to resolve: %v", err)
	}
	if path != "config.yaml" {
		t.Errorf("expected 'config.yaml', got %q", path)
	}
}

func TestLoggingVerbose(t *testing.T) {
	if (Logging{Level: "INFO"}).Verbose() {
		t.Error("INFO should not be verbose")
	}
	if !(Logging{Level: "debug"}).Verbose() {
		t.Error("debug should be verbose")
	}
}
