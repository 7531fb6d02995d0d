package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/north-cloud/webunpack/infrastructure/config"
)

type sampleConfig struct {
	API struct {
		BaseURL string        `env:"SAMPLE_API_URL"     yaml:"base_url"`
		Timeout time.Duration `env:"SAMPLE_API_TIMEOUT" yaml:"timeout"`
	} `yaml:"api"`
	Origins []string `env:"SAMPLE_ORIGINS" yaml:"origins"`
	Debug   bool     `env:"SAMPLE_DEBUG"   yaml:"debug"`
	Port    int      `yaml:"port"`
}

func TestLoad_MissingFileYieldsZeroValue(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))

	cfg, err := config.Load[sampleConfig](filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.BaseURL != "" || cfg.Port != 0 {
		t.Errorf("expected zero config, got %+v", cfg)
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	yml := "api:\n  base_url: http://from-yaml\n  timeout: 5s\nport: 9000\n"
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("ENV_FILE", filepath.Join(dir, "absent.env"))
	t.Setenv("SAMPLE_API_URL", "http://from-env")
	t.Setenv("SAMPLE_API_TIMEOUT", "45s")
	t.Setenv("SAMPLE_ORIGINS", "http://a, http://b")
	t.Setenv("SAMPLE_DEBUG", "yes")

	cfg, err := config.Load[sampleConfig](path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.API.BaseURL != "http://from-env" {
		t.Errorf("base_url = %q, want env value", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 45*time.Second {
		t.Errorf("timeout = %v, want 45s", cfg.API.Timeout)
	}
	if cfg.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Port)
	}
	if len(cfg.Origins) != 2 || cfg.Origins[1] != "http://b" {
		t.Errorf("origins = %v", cfg.Origins)
	}
	if !cfg.Debug {
		t.Error("debug = false, want true")
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("api: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))

	if _, err := config.Load[sampleConfig](path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadWithDefaults_EnvWinsOverDefaults(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))
	t.Setenv("SAMPLE_API_URL", "http://env")

	cfg, err := config.LoadWithDefaults[sampleConfig]("", func(c *sampleConfig) {
		c.API.BaseURL = "http://default"
		c.Port = 8095
	})
	if err != nil {
		t.Fatalf("LoadWithDefaults: %v", err)
	}
	if cfg.API.BaseURL != "http://env" {
		t.Errorf("base_url = %q, want env value", cfg.API.BaseURL)
	}
	if cfg.Port != 8095 {
		t.Errorf("port = %d, want default", cfg.Port)
	}
}

func TestValidateHTTPURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value   string
		wantErr bool
	}{
		{"http://localhost:8000", false},
		{"https://api.example.com", false},
		{"", true},
		{"localhost:8000", true},
		{"ftp://example.com", true},
	}
	for _, tt := range tests {
		err := config.ValidateHTTPURL("api.base_url", tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateHTTPURL(%q) err = %v, wantErr %v", tt.value, err, tt.wantErr)
		}
	}
}
