package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// API contains connection settings for the deployment service.
type API struct {
	BaseURL        string `toml:"base_url"`
	Token          string `toml:"token"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Watch contains cadence and retry settings for the watch loop.
type Watch struct {
	PollIntervalSeconds int    `toml:"poll_interval_seconds"`
	DiscoveryEvery      int    `toml:"discovery_every"`
	FetchLimit          int    `toml:"fetch_limit"`
	FetchTimeoutSeconds int    `toml:"fetch_timeout_seconds"`
	LookbackSeconds     int    `toml:"lookback_seconds"`
	MaxLookbackSeconds  int    `toml:"max_lookback_seconds"`
	FilterMode          string `toml:"filter_mode"`
	BackoffBaseSeconds  int    `toml:"backoff_base_seconds"`
	BackoffCapSeconds   int    `toml:"backoff_cap_seconds"`
	MaxFailures         int    `toml:"max_failures"`
	StartTimeoutSeconds int    `toml:"start_timeout_seconds"`
}

// Record contains settings for the optional local event archive.
type Record struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// Config aggregates every setting the lantern CLI reads.
type Config struct {
	API       API    `toml:"api"`
	Watch     Watch  `toml:"watch"`
	Record    Record `toml:"record"`
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// PollInterval returns the watch poll cadence as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Watch.PollIntervalSeconds) * time.Second
}

// FetchTimeout returns the per-fetch remote call budget.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Watch.FetchTimeoutSeconds) * time.Second
}

// Lookback returns the configured first-fetch look-back window.
func (c *Config) Lookback() time.Duration {
	return time.Duration(c.Watch.LookbackSeconds) * time.Second
}

// BackoffBase returns the initial per-tailer retry delay.
func (c *Config) BackoffBase() time.Duration {
	return time.Duration(c.Watch.BackoffBaseSeconds) * time.Second
}

// BackoffCap returns the maximum per-tailer retry delay.
func (c *Config) BackoffCap() time.Duration {
	return time.Duration(c.Watch.BackoffCapSeconds) * time.Second
}

// StartTimeout returns how long `watch --wait` polls a pending deployment.
func (c *Config) StartTimeout() time.Duration {
	return time.Duration(c.Watch.StartTimeoutSeconds) * time.Second
}

// APITimeout returns the deployment API request budget.
func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// SampleConfig returns the embedded sample configuration document.
func SampleConfig() string {
	return sampleConfig
}

// Load reads configuration from the provided path, falling back to the
// default search locations when path is empty. It returns the effective
// config, the resolved path, and whether a file was actually read.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("lantern.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// DefaultConfigPath returns the canonical user config location.
func DefaultConfigPath() (string, error) {
	return ExpandPath("~/.config/lantern/config.toml")
}

// ExpandPath resolves ~ prefixes and returns an absolute path.
func ExpandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if path == "~" {
			return home, nil
		}
		return filepath.Join(home, path[2:]), nil
	}
	return filepath.Abs(path)
}
