package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lantern/internal/config"
)

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	cfg.API.BaseURL = "https://deploy.example.com"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("LANTERN_API_TOKEN", "")
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[api]\nbase_url = \"https://deploy.example.com\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be read")
	}
	if resolved != path {
		t.Fatalf("resolved path = %q, want %q", resolved, path)
	}
	if cfg.Watch.PollIntervalSeconds != 5 {
		t.Fatalf("poll interval default = %d, want 5", cfg.Watch.PollIntervalSeconds)
	}
	if cfg.Watch.FilterMode != config.FilterModeIntersect {
		t.Fatalf("filter mode default = %q", cfg.Watch.FilterMode)
	}
}

func TestLoadTokenFromEnvironment(t *testing.T) {
	t.Setenv("LANTERN_API_TOKEN", "env-token")
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[api]\nbase_url = \"https://deploy.example.com\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.Token != "env-token" {
		t.Fatalf("token = %q, want env-token", cfg.API.Token)
	}
}

func TestValidateRejectsBadFilterMode(t *testing.T) {
	cfg := config.Default()
	cfg.API.BaseURL = "https://deploy.example.com"
	cfg.Watch.FilterMode = "union"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "filter_mode") {
		t.Fatalf("expected filter_mode error, got %v", err)
	}
}

func TestValidateRejectsExcessiveLookback(t *testing.T) {
	cfg := config.Default()
	cfg.API.BaseURL = "https://deploy.example.com"
	cfg.Watch.LookbackSeconds = cfg.Watch.MaxLookbackSeconds + 1
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "lookback") {
		t.Fatalf("expected lookback error, got %v", err)
	}
}

func TestValidateRequiresBaseURL(t *testing.T) {
	cfg := config.Default()
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "base_url") {
		t.Fatalf("expected base_url error, got %v", err)
	}
}

func TestValidateRejectsBackoffCapBelowBase(t *testing.T) {
	cfg := config.Default()
	cfg.API.BaseURL = "https://deploy.example.com"
	cfg.Watch.BackoffBaseSeconds = 30
	cfg.Watch.BackoffCapSeconds = 10
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected backoff cap error")
	}
}

func TestSampleConfigParses(t *testing.T) {
	t.Setenv("LANTERN_API_TOKEN", "")
	path := filepath.Join(t.TempDir(), "config.toml")
	sample := strings.Replace(config.SampleConfig(),
		`base_url = ""`, `base_url = "https://deploy.example.com"`, 1)
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config should load: %v", err)
	}
}
