package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateWatch(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.BaseURL == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/lantern/config.toml"
		}
		return fmt.Errorf("api.base_url is required. Edit %s (create with 'lantern config init')", defaultPath)
	}
	parsed, err := url.Parse(c.API.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("api.base_url %q is not a valid URL", c.API.BaseURL)
	}
	return nil
}

func (c *Config) validateWatch() error {
	w := c.Watch
	if w.PollIntervalSeconds <= 0 {
		return errors.New("watch.poll_interval_seconds must be positive")
	}
	if w.DiscoveryEvery < 1 {
		return errors.New("watch.discovery_every must be at least 1")
	}
	if w.FetchTimeoutSeconds <= 0 {
		return errors.New("watch.fetch_timeout_seconds must be positive")
	}
	if w.LookbackSeconds < 0 {
		return errors.New("watch.lookback_seconds must not be negative")
	}
	if w.MaxLookbackSeconds > 0 && w.LookbackSeconds > w.MaxLookbackSeconds {
		return fmt.Errorf("watch.lookback_seconds %d exceeds watch.max_lookback_seconds %d",
			w.LookbackSeconds, w.MaxLookbackSeconds)
	}
	if w.FilterMode != FilterModeIntersect && w.FilterMode != FilterModePattern {
		return fmt.Errorf("watch.filter_mode must be %q or %q", FilterModeIntersect, FilterModePattern)
	}
	if w.BackoffBaseSeconds <= 0 {
		return errors.New("watch.backoff_base_seconds must be positive")
	}
	if w.BackoffCapSeconds < w.BackoffBaseSeconds {
		return errors.New("watch.backoff_cap_seconds must not be below watch.backoff_base_seconds")
	}
	if w.MaxFailures < 1 {
		return errors.New("watch.max_failures must be at least 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level %q is not one of debug, info, warn, error", c.LogLevel)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("log_format %q is not one of console, json", c.LogFormat)
	}
	return nil
}
