package config

const (
	defaultLibraryMode         = "series"
	defaultTMDBBaseURL         = "https://api.themoviedb.org/3"
	defaultTMDBLanguage        = "en-US"
	defaultCachePath           = "~/.local/share/downgraderr/ratings.db"
	defaultCacheFreshnessDays  = 7
	defaultFetchAttempts       = 3
	defaultFetchRetryDelay     = 2
	defaultFetchRequestTimeout = 15
	defaultSweepWorkers        = 4
	defaultSweepLockPath       = "~/.local/share/downgraderr/sweep.lock"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultNotifyTimeout       = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Library: Library{
			Mode: defaultLibraryMode,
		},
		TMDB: TMDB{
			BaseURL:  defaultTMDBBaseURL,
			Language: defaultTMDBLanguage,
		},
		Cache: Cache{
			Path:          defaultCachePath,
			FreshnessDays: defaultCacheFreshnessDays,
		},
		Fetch: Fetch{
			Attempts:       defaultFetchAttempts,
			RetryDelay:     defaultFetchRetryDelay,
			RequestTimeout: defaultFetchRequestTimeout,
		},
		Sweep: Sweep{
			Workers:  defaultSweepWorkers,
			LockPath: defaultSweepLockPath,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
		},
	}
}
