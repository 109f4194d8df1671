package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeAPI(); err != nil {
		return err
	}
	if err := c.normalizeRecord(); err != nil {
		return err
	}
	c.normalizeWatch()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeAPI() error {
	c.API.BaseURL = strings.TrimSpace(c.API.BaseURL)
	c.API.Token = strings.TrimSpace(c.API.Token)
	if c.API.Token == "" {
		c.API.Token = strings.TrimSpace(os.Getenv("LANTERN_API_TOKEN"))
	}
	if c.API.TimeoutSeconds <= 0 {
		c.API.TimeoutSeconds = defaultAPITimeoutSeconds
	}
	return nil
}

func (c *Config) normalizeRecord() error {
	if strings.TrimSpace(c.Record.Dir) == "" {
		c.Record.Dir = defaultRecordDir
	}
	expanded, err := ExpandPath(c.Record.Dir)
	if err != nil {
		return fmt.Errorf("record.dir: %w", err)
	}
	c.Record.Dir = expanded
	return nil
}

func (c *Config) normalizeWatch() {
	mode := strings.ToLower(strings.TrimSpace(c.Watch.FilterMode))
	if mode == "" {
		mode = defaultFilterMode
	}
	c.Watch.FilterMode = mode
	if c.Watch.FetchLimit <= 0 {
		c.Watch.FetchLimit = defaultFetchLimit
	}
	if c.Watch.DiscoveryEvery <= 0 {
		c.Watch.DiscoveryEvery = defaultDiscoveryEvery
	}
}

func (c *Config) normalizeLogging() {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	if c.LogFormat == "" {
		c.LogFormat = defaultLogFormat
	}
}
