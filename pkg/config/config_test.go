package config

import (
	"os"
	"testing"
	"time"
)

type testConfig struct {
	Name    string        `yaml:"name" env:"APP_NAME"`
	Port    int           `yaml:"port" env:"APP_PORT"`
	Debug   bool          `yaml:"debug" env:"APP_DEBUG"`
	Timeout time.Duration `yaml:"timeout" env:"APP_TIMEOUT"`
	News    struct {
		APIKey string `yaml:"api_key" env:"NEWSAPI_KEY"`
	} `yaml:"news"`
}

func TestLoad(t *testing.T) {
	content := `
name: test-app
port: 8080
debug: false
news:
  api_key: abc123
`
	f, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(f.Name())
	f.WriteString(content)
	f.Close()

	var cfg testConfig
	if err := Load(f.Name(), &cfg); err != nil {
		t.Fatal(err)
	}

	if cfg.Name != "test-app" {
		t.Fatalf("expected 'test-app', got '%s'", cfg.Name)
	}
	if cfg.Port != 8080 {
		t.Fatalf("expected 8080, got %d", cfg.Port)
	}
	if cfg.News.APIKey != "abc123" {
		t.Fatalf("expected 'abc123', got '%s'", cfg.News.APIKey)
	}
}

func TestEnvOverride(t *testing.T) {
	content := `
name: default
port: 3000
`
	f, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(f.Name())
	f.WriteString(content)
	f.Close()

	t.Setenv("APP_NAME", "from-env")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("APP_DEBUG", "true")
	t.Setenv("APP_TIMEOUT", "45s")
	t.Setenv("NEWSAPI_KEY", "env-key")

	var cfg testConfig
	if err := Load(f.Name(), &cfg); err != nil {
		t.Fatal(err)
	}

	if cfg.Name != "from-env" {
		t.Fatalf("expected 'from-env', got '%s'", cfg.Name)
	}
	if cfg.Port != 9090 {
		t.Fatalf("expected 9090, got %d", cfg.Port)
	}
	if !cfg.Debug {
		t.Fatal("expected debug to be true from env")
	}
	if cfg.Timeout != 45*time.Second {
		t.Fatalf("expected 45s timeout, got %v", cfg.Timeout)
	}
	if cfg.News.APIKey != "env-key" {
		t.Fatalf("expected nested override, got '%s'", cfg.News.APIKey)
	}
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	t.Setenv("APP_NAME", "env-only")

	var cfg testConfig
	if err := LoadOrDefault("/nonexistent/config.yaml", &cfg); err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	// Env overrides still apply without a file
	if cfg.Name != "env-only" {
		t.Fatalf("expected 'env-only', got '%s'", cfg.Name)
	}
	if cfg.Port != 0 {
		t.Fatalf("expected zero port, got %d", cfg.Port)
	}
}
