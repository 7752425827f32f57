package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type serverConfig struct {
	Name string     `yaml:"name" env:"NAME"`
	HTTP httpConfig `yaml:"http" envPrefix:"HTTP_"`
}

type httpConfig struct {
	Port int `yaml:"port" env:"PORT"`
}

func (c *serverConfig) Validate() error {
	if c.HTTP.Port == 0 {
		return errors.New("port is required")
	}
	return nil
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("TEST_SERVER_NAME", "trees")
	path := writeConfig(t, "name: ${TEST_SERVER_NAME}\nhttp:\n  port: 9000\n")

	var cfg serverConfig
	if err := Load(path, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "trees" || cfg.HTTP.Port != 9000 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("GRAMPSXML_HTTP_PORT", "9100")
	path := writeConfig(t, "name: trees\nhttp:\n  port: 9000\n")

	var cfg serverConfig
	if err := Load(path, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Port != 9100 {
		t.Errorf("port = %d, want 9100", cfg.HTTP.Port)
	}
	if cfg.Name != "trees" {
		t.Errorf("unset variable changed name: %q", cfg.Name)
	}
}

func TestLoadValidates(t *testing.T) {
	path := writeConfig(t, "name: trees\n")
	var cfg serverConfig
	err := Load(path, &cfg)
	if err == nil || !strings.Contains(err.Error(), "port is required") {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadEnvWithoutFile(t *testing.T) {
	t.Setenv("GRAMPSXML_NAME", "env-only")
	cfg := serverConfig{HTTP: httpConfig{Port: 8080}}
	if err := LoadEnv(&cfg); err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if cfg.Name != "env-only" {
		t.Errorf("name = %q", cfg.Name)
	}
}

func TestLoadWithDefaults(t *testing.T) {
	def := writeConfig(t, "name: fallback\nhttp:\n  port: 1\n")
	var cfg serverConfig
	if err := LoadWithDefaults(filepath.Join(t.TempDir(), "missing.yaml"), def, &cfg); err != nil {
		t.Fatalf("LoadWithDefaults: %v", err)
	}
	if cfg.Name != "fallback" {
		t.Errorf("name = %q", cfg.Name)
	}
	if err := LoadWithDefaults(filepath.Join(t.TempDir(), "missing.yaml"), "", &cfg); err == nil {
		t.Error("expected error without default file")
	}
}
