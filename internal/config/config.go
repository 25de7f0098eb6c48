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

	"github.com/wheat4714/downgraderr/internal/policy"
)

//go:embed sample_config.toml
var sampleConfig string

// Library contains the media-management backend connection settings.
type Library struct {
	URL    string `toml:"url"`
	APIKey string `toml:"api_key"`
	// Mode selects the endpoint family: "series" (Sonarr) or "movies" (Radarr).
	Mode string `toml:"mode"`
}

// TMDB contains configuration for The Movie Database API.
type TMDB struct {
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
	Language string `toml:"language"`
	// RatePerSecond throttles catalog requests when positive.
	RatePerSecond float64 `toml:"rate_per_second"`
}

// Cache contains configuration for the rating cache.
type Cache struct {
	Path          string `toml:"path"`
	FreshnessDays int    `toml:"freshness_days"`
}

// Fetch contains the shared retry policy for remote calls.
type Fetch struct {
	Attempts       int `toml:"attempts"`
	RetryDelay     int `toml:"retry_delay"`     // seconds
	RequestTimeout int `toml:"request_timeout"` // seconds
}

// Sweep contains configuration for the library classification run.
type Sweep struct {
	Workers     int    `toml:"workers"`
	MaxFailures int    `toml:"max_failures"`
	LockPath    string `toml:"lock_path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	Path   string `toml:"path"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// TierRule is one entry of the ordered tier policy, highest quality first.
type TierRule struct {
	Name              string   `toml:"name"`
	Genres            []string `toml:"genres"`
	MinRating         float64  `toml:"min_rating"`
	MaxEpisodes       int      `toml:"max_episodes"`
	MinYear           int      `toml:"min_year"`
	MaxAgeDays        int      `toml:"max_age_days"`
	RequireEnded      bool     `toml:"require_ended"`
	RequireContinuing bool     `toml:"require_continuing"`
}

// Config encapsulates all configuration values for downgraderr.
type Config struct {
	Library       Library       `toml:"library"`
	TMDB          TMDB          `toml:"tmdb"`
	Cache         Cache         `toml:"cache"`
	Fetch         Fetch         `toml:"fetch"`
	Sweep         Sweep         `toml:"sweep"`
	Logging       Logging       `toml:"logging"`
	Notifications Notifications `toml:"notifications"`
	Tiers         []TierRule    `toml:"tiers"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/downgraderr/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
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
		expanded, err := expandPath(path)
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

	projectPath, err := filepath.Abs("downgraderr.toml")
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

func (c *Config) normalize() error {
	for _, field := range []*string{&c.Cache.Path, &c.Sweep.LockPath, &c.Logging.Path} {
		if strings.TrimSpace(*field) == "" {
			continue
		}
		expanded, err := expandPath(*field)
		if err != nil {
			return err
		}
		*field = expanded
	}
	c.Library.URL = strings.TrimRight(strings.TrimSpace(c.Library.URL), "/")
	c.Library.APIKey = strings.TrimSpace(c.Library.APIKey)
	c.TMDB.APIKey = strings.TrimSpace(c.TMDB.APIKey)
	c.TMDB.BaseURL = strings.TrimRight(strings.TrimSpace(c.TMDB.BaseURL), "/")
	return nil
}

// Policy converts the configured tier rules into the classifier's policy.
func (c *Config) Policy() policy.Policy {
	tiers := make([]policy.Tier, 0, len(c.Tiers))
	for _, rule := range c.Tiers {
		tiers = append(tiers, policy.Tier{
			Name:              strings.TrimSpace(rule.Name),
			Genres:            rule.Genres,
			MinRating:         rule.MinRating,
			MaxEpisodes:       rule.MaxEpisodes,
			MinYear:           rule.MinYear,
			MaxAgeDays:        rule.MaxAgeDays,
			RequireEnded:      rule.RequireEnded,
			RequireContinuing: rule.RequireContinuing,
		})
	}
	return policy.Policy{Tiers: tiers}
}

// FreshnessWindow returns the cache freshness window as a duration.
func (c *Config) FreshnessWindow() time.Duration {
	return time.Duration(c.Cache.FreshnessDays) * 24 * time.Hour
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
