package ratingcache

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/wheat4714/downgraderr/internal/logging"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; a mismatched database must be cleared before reuse.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the
// expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// DefaultFreshness is how long a cached rating is served without re-fetching.
const DefaultFreshness = 7 * 24 * time.Hour

// Entry is one cached rating keyed by the catalog's own identifier.
type Entry struct {
	TMDBID    int64
	Rating    float64
	FetchedAt time.Time
}

// Store persists ratings in SQLite. Concurrent GetOrFetch calls are safe;
// two callers racing on the same key may both fetch, and the later write
// wins.
type Store struct {
	db        *sql.DB
	path      string
	freshness time.Duration
	logger    *slog.Logger
}

// Open initializes or connects to the rating database at path.
func Open(path string, freshness time.Duration, logger *slog.Logger) (*Store, error) {
	if freshness <= 0 {
		freshness = DefaultFreshness
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{
		db:        db,
		path:      path,
		freshness: freshness,
		logger:    logging.NewComponentLogger(logger, "ratingcache"),
	}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// GetOrFetch returns the cached rating for tmdbID when it is younger than
// the freshness window, otherwise invokes fn, stores its result with the
// current timestamp, and returns it.
func (s *Store) GetOrFetch(ctx context.Context, tmdbID int64, fn func(context.Context) (float64, error)) (float64, error) {
	if tmdbID <= 0 {
		return 0, errors.New("tmdb id must be positive")
	}

	entry, found, err := s.Lookup(ctx, tmdbID)
	if err != nil {
		return 0, err
	}
	if found && time.Since(entry.FetchedAt) < s.freshness {
		s.logger.Debug("rating cache hit",
			logging.Int64("tmdb_id", tmdbID),
			logging.Float64("rating", entry.Rating))
		return entry.Rating, nil
	}

	rating, err := fn(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.put(ctx, tmdbID, rating, time.Now().UTC()); err != nil {
		return 0, err
	}
	s.logger.Debug("rating cached",
		logging.Int64("tmdb_id", tmdbID),
		logging.Float64("rating", rating),
		logging.Bool("refresh", found))
	return rating, nil
}

// Lookup returns the cache entry for tmdbID regardless of freshness.
func (s *Store) Lookup(ctx context.Context, tmdbID int64) (Entry, bool, error) {
	var (
		rating    float64
		fetchedAt string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT rating, fetched_at FROM ratings WHERE tmdb_id = ?", tmdbID,
	).Scan(&rating, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("lookup rating: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, fetchedAt)
	if err != nil {
		return Entry{}, false, fmt.Errorf("parse fetched_at: %w", err)
	}
	return Entry{TMDBID: tmdbID, Rating: rating, FetchedAt: ts}, true, nil
}

// List returns all entries ordered by fetch time, newest first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT tmdb_id, rating, fetched_at FROM ratings ORDER BY fetched_at DESC")
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry     Entry
			fetchedAt string
		)
		if err := rows.Scan(&entry.TMDBID, &entry.Rating, &fetchedAt); err != nil {
			return nil, fmt.Errorf("scan rating row: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, fetchedAt)
		if err != nil {
			return nil, fmt.Errorf("parse fetched_at: %w", err)
		}
		entry.FetchedAt = ts
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Count returns the number of cached ratings.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM ratings").Scan(&count); err != nil {
		return 0, fmt.Errorf("count ratings: %w", err)
	}
	return count, nil
}

// Prune removes entries fetched before the cutoff and reports how many rows
// were deleted.
func (s *Store) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx, "DELETE FROM ratings WHERE fetched_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune ratings: %w", err)
	}
	return res.RowsAffected()
}

// Clear removes every cached rating.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM ratings")
	if err != nil {
		return 0, fmt.Errorf("clear ratings: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) put(ctx context.Context, tmdbID int64, rating float64, fetchedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ratings (tmdb_id, rating, fetched_at) VALUES (?, ?, ?)
         ON CONFLICT(tmdb_id) DO UPDATE SET rating = excluded.rating, fetched_at = excluded.fetched_at`,
		tmdbID, rating, fetchedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("store rating: %w", err)
	}
	return nil
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (run 'downgraderr cache clear' or delete %s)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}
