package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type testConfig struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port"`
}

type validatedConfig struct {
	Port int `yaml:"port"`
}

func (c *validatedConfig) Validate() error {
	if c.Port == 0 {
		return os.ErrInvalid
	}
	return nil
}

func TestParse_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_CONFIG_NAME", "expanded")

	var cfg testConfig
	if err := Parse([]byte("name: ${TEST_CONFIG_NAME}\nport: 9000\n"), &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Name != "expanded" || cfg.Port != 9000 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestParse_ValidatorCalled(t *testing.T) {
	var cfg validatedConfig
	err := Parse([]byte("port: 0\n"), &cfg)
	if err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Errorf("err = %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	var cfg testConfig
	if err := Load(filepath.Join(t.TempDir(), "nope.yaml"), &cfg); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadWithDefaults_Fallback(t *testing.T) {
	dir := t.TempDir()
	def := filepath.Join(dir, "default.yaml")
	if err := os.WriteFile(def, []byte("name: fallback\nport: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var cfg testConfig
	if err := LoadWithDefaults(filepath.Join(dir, "missing.yaml"), def, &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Name != "fallback" {
		t.Errorf("name = %q", cfg.Name)
	}
}
