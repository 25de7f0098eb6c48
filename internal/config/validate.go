package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLibrary(); err != nil {
		return err
	}
	if err := c.validateTMDB(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateFetch(); err != nil {
		return err
	}
	if err := c.validateSweep(); err != nil {
		return err
	}
	if err := c.Policy().Validate(); err != nil {
		return fmt.Errorf("tiers: %w", err)
	}
	return nil
}

func (c *Config) validateLibrary() error {
	if c.Library.URL == "" {
		return errors.New("library.url must be set")
	}
	if c.Library.APIKey == "" {
		return errors.New("library.api_key must be set")
	}
	switch strings.ToLower(strings.TrimSpace(c.Library.Mode)) {
	case "series", "sonarr", "movies", "movie", "radarr", "":
	default:
		return fmt.Errorf("library.mode: unsupported value %q", c.Library.Mode)
	}
	return nil
}

func (c *Config) validateTMDB() error {
	if c.TMDB.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/downgraderr/config.toml"
		}
		return fmt.Errorf("tmdb.api_key is required. Edit %s (create with 'downgraderr config init')", defaultPath)
	}
	if c.TMDB.BaseURL == "" {
		return errors.New("tmdb.base_url must be set")
	}
	if c.TMDB.RatePerSecond < 0 {
		return errors.New("tmdb.rate_per_second must not be negative")
	}
	return nil
}

func (c *Config) validateCache() error {
	if strings.TrimSpace(c.Cache.Path) == "" {
		return errors.New("cache.path must be set")
	}
	if c.Cache.FreshnessDays <= 0 {
		return errors.New("cache.freshness_days must be positive")
	}
	return nil
}

func (c *Config) validateFetch() error {
	return ensurePositiveMap(map[string]int{
		"fetch.attempts":        c.Fetch.Attempts,
		"fetch.retry_delay":     c.Fetch.RetryDelay,
		"fetch.request_timeout": c.Fetch.RequestTimeout,
	})
}

func (c *Config) validateSweep() error {
	if c.Sweep.Workers <= 0 {
		return errors.New("sweep.workers must be positive")
	}
	if c.Sweep.MaxFailures < 0 {
		return errors.New("sweep.max_failures must not be negative")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
