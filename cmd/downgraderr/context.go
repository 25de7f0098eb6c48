package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/wheat4714/downgraderr/internal/config"
	"github.com/wheat4714/downgraderr/internal/fetch"
	"github.com/wheat4714/downgraderr/internal/library"
	"github.com/wheat4714/downgraderr/internal/logging"
	"github.com/wheat4714/downgraderr/internal/notifications"
	"github.com/wheat4714/downgraderr/internal/ratingcache"
	"github.com/wheat4714/downgraderr/internal/tmdb"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) buildLogger(cfg *config.Config) (*slog.Logger, error) {
	paths := []string{"stderr"}
	if cfg.Logging.Path != "" {
		paths = append(paths, cfg.Logging.Path)
	}
	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: paths,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, nil
}

// runtime bundles the wired service graph for a sweep invocation.
type runtime struct {
	cfg      *config.Config
	logger   *slog.Logger
	cache    *ratingcache.Store
	library  *library.Client
	resolver *tmdb.Resolver
	notifier notifications.Service
}

func (c *commandContext) buildRuntime() (*runtime, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	logger, err := c.buildLogger(cfg)
	if err != nil {
		return nil, err
	}

	mode, err := library.ParseMode(cfg.Library.Mode)
	if err != nil {
		return nil, fmt.Errorf("library mode: %w", err)
	}

	retry := fetch.Config{
		Attempts:       cfg.Fetch.Attempts,
		RetryDelay:     time.Duration(cfg.Fetch.RetryDelay) * time.Second,
		RequestTimeout: time.Duration(cfg.Fetch.RequestTimeout) * time.Second,
	}

	libraryFetcher := fetch.New(retry, logger)
	libraryClient, err := library.New(cfg.Library.URL, cfg.Library.APIKey, mode, libraryFetcher, logger)
	if err != nil {
		return nil, fmt.Errorf("library client: %w", err)
	}

	tmdbRetry := retry
	tmdbRetry.RatePerSecond = cfg.TMDB.RatePerSecond
	tmdbFetcher := fetch.New(tmdbRetry, logger)
	tmdbClient, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language, tmdbFetcher)
	if err != nil {
		return nil, fmt.Errorf("tmdb client: %w", err)
	}

	cache, err := ratingcache.Open(cfg.Cache.Path, cfg.FreshnessWindow(), logger)
	if err != nil {
		return nil, fmt.Errorf("open rating cache: %w", err)
	}

	mediaType := tmdb.MediaTypeTV
	if mode == library.ModeMovies {
		mediaType = tmdb.MediaTypeMovie
	}
	resolver := tmdb.NewResolver(tmdbClient, cache, mediaType, logger)

	return &runtime{
		cfg:      cfg,
		logger:   logger,
		cache:    cache,
		library:  libraryClient,
		resolver: resolver,
		notifier: notifications.NewService(cfg),
	}, nil
}

func (r *runtime) Close() error {
	if r == nil || r.cache == nil {
		return nil
	}
	return r.cache.Close()
}

// openCache builds just the rating cache for maintenance commands.
func (c *commandContext) openCache() (*ratingcache.Store, *config.Config, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	store, err := ratingcache.Open(cfg.Cache.Path, cfg.FreshnessWindow(), logging.NewNop())
	if err != nil {
		return nil, nil, fmt.Errorf("open rating cache: %w", err)
	}
	return store, cfg, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
