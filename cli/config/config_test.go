package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigMissingFileIsEmpty(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.CookiesFile != "" || cfg.Proxy != "" {
		t.Errorf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "cookies_file: /tmp/cookies.txt\nproxy: socks5://localhost:1080\ntimeout: 30s\nmodel: k2\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.CookiesFile != "/tmp/cookies.txt" {
		t.Errorf("CookiesFile = %q", cfg.CookiesFile)
	}
	if cfg.Proxy != "socks5://localhost:1080" {
		t.Errorf("Proxy = %q", cfg.Proxy)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.Timeout)
	}
	if cfg.Model != "k2" {
		t.Errorf("Model = %q, want k2", cfg.Model)
	}
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("cookies_file: /from/file.txt\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("KIMI_COOKIES_FILE", "/from/env.txt")
	t.Setenv("KIMI_TIMEOUT", "90s")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.CookiesFile != "/from/env.txt" {
		t.Errorf("CookiesFile = %q, want env value", cfg.CookiesFile)
	}
	if cfg.Timeout != 90*time.Second {
		t.Errorf("Timeout = %v, want 90s", cfg.Timeout)
	}
}

func TestLoadConfigMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("cookies_file: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("LoadConfig() succeeded on malformed YAML")
	}
}

func TestDefaultConfigPath(t *testing.T) {
	got := DefaultConfigPath()
	if filepath.Base(got) != "config.yaml" {
		t.Errorf("DefaultConfigPath() = %q", got)
	}
}
