package config

import (
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

// Environment variables that override the config file.
const (
	EnvAPIURL    = "DRAFTANALYZER_API_URL"
	EnvPublicURL = "DRAFTANALYZER_PUBLIC_URL"
)

// ErrNoConfig is returned by ResolveConfigPath when no config file exists.
var ErrNoConfig = errors.New("no config file found")

type Config struct {
	API     API     `yaml:"api"`
	Server  Server  `yaml:"server"`
	Upload  Upload  `yaml:"upload"`
	Logging Logging `yaml:"logging"`
}

type API struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type Server struct {
	Port        int      `yaml:"port"`
	PublicURL   string   `yaml:"public_url"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type Upload struct {
	MaxFileSize       string   `yaml:"max_file_size"`
	AllowedExtensions []string `yaml:"allowed_extensions"`

	maxBytes int64
}

type Logging struct {
	Level string `yaml:"level"`
}

// MaxFileSizeBytes returns the parsed upload cap.
func (u Upload) MaxFileSizeBytes() int64 {
	return u.maxBytes
}

// Verbose reports whether the configured level asks for debug output.
func (l Logging) Verbose() bool {
	return strings.EqualFold(l.Level, "DEBUG")
}

// ConfigDir returns the XDG config directory for draftanalyzer.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "draftanalyzer")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/draftanalyzer/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"%w; searched:\n  %s\n  ./config.yaml\n\nRun 'draftanalyzer init' to create a default config",
		ErrNoConfig, xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// Default returns the built-in configuration.
func Default() (*Config, error) {
	return parse(DefaultConfigYAML)
}

// parse parses YAML bytes into a Config, applying defaults and then environment
// overrides.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		API: API{BaseURL: "http://localhost:8001/api"},
		Server: Server{
			Port:        3000,
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Upload: Upload{
			MaxFileSize:       "10MiB",
			AllowedExtensions: []string{".txt", ".csv"},
		},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if v := os.Getenv(EnvAPIURL); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv(EnvPublicURL); v != "" {
		cfg.Server.PublicURL = v
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid api.base_url %q", c.API.BaseURL)
	}
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")

	if c.Server.PublicURL != "" {
		u, err := url.Parse(c.Server.PublicURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid server.public_url %q", c.Server.PublicURL)
		}
		c.Server.PublicURL = strings.TrimRight(c.Server.PublicURL, "/")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("invalid api.timeout %s", c.API.Timeout)
	}

	n, err := humanize.ParseBytes(c.Upload.MaxFileSize)
	if err != nil {
		return fmt.Errorf("invalid upload.max_file_size %q: %w", c.Upload.MaxFileSize, err)
	}
	if n == 0 {
		return fmt.Errorf("upload.max_file_size must be positive")
	}
	c.Upload.maxBytes = int64(n)

	for i, ext := range c.Upload.AllowedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.Upload.AllowedExtensions[i] = ext
	}
	return nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
