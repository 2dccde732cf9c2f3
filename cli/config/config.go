// Package config handles CLI configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config represents the CLI configuration. Values come from the YAML config
// file first; KIMI_* environment variables override them.
type Config struct {
	CookiesFile string        `yaml:"cookies_file" env:"KIMI_COOKIES_FILE"`
	BaseURL     string        `yaml:"base_url,omitempty" env:"KIMI_BASE_URL"`
	Proxy       string        `yaml:"proxy,omitempty" env:"KIMI_PROXY"`
	Timeout     time.Duration `yaml:"timeout,omitempty" env:"KIMI_TIMEOUT"`
	Model       string        `yaml:"model,omitempty" env:"KIMI_MODEL"`
}

// DefaultConfigPath returns the default configuration file path for the current platform.
// - macOS/Linux: ~/.kimi/config.yaml
// - Windows: %USERPROFILE%\.kimi\config.yaml
func DefaultConfigPath() string {
	var homeDir string

	if runtime.GOOS == "windows" {
		homeDir = os.Getenv("USERPROFILE")
	} else {
		homeDir = os.Getenv("HOME")
	}

	if homeDir == "" {
		return "config.yaml"
	}

	return filepath.Join(homeDir, ".kimi", "config.yaml")
}

// DefaultCookiesPath returns the conventional cookie file location next to
// the config file.
func DefaultCookiesPath() string {
	return filepath.Join(filepath.Dir(DefaultConfigPath()), "cookies.txt")
}

// LoadConfig loads configuration from the specified path, then applies
// environment variable overrides. A missing config file is not an error;
// a file that exists but cannot be read or parsed is.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	return cfg, nil
}
