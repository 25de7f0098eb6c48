// Package testsupport builds throwaway configurations for tests.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"github.com/wheat4714/downgraderr/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp paths per test. It
// carries working API keys and a minimal two-tier policy so it validates
// as-is; options may override any field.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Library.URL = "http://localhost:8989"
	cfg.Library.APIKey = "test-library-key"
	cfg.TMDB.APIKey = "test-tmdb-key"
	cfg.Cache.Path = filepath.Join(base, "ratings.db")
	cfg.Sweep.LockPath = filepath.Join(base, "sweep.lock")
	cfg.Tiers = []config.TierRule{
		{Name: "4k", MinRating: 8},
		{Name: "720p"},
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithTiers replaces the tier list on the test config.
func WithTiers(tiers ...config.TierRule) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Tiers = tiers
	}
}

// WithLibraryURL points the test config at a specific backend, typically an
// httptest server.
func WithLibraryURL(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Library.URL = url
	}
}

// WriteConfig marshals the config to a TOML file in a temp directory and
// returns its path.
func WriteConfig(t testing.TB, cfg *config.Config) string {
	t.Helper()

	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal test config: %v", err)
	}
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write test config: %v", err)
	}
	return path
}
