package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/wheat4714/downgraderr/internal/library"
	"github.com/wheat4714/downgraderr/internal/logging"
	"github.com/wheat4714/downgraderr/internal/notifications"
	"github.com/wheat4714/downgraderr/internal/policy"
	"github.com/wheat4714/downgraderr/internal/services"
)

// LibraryService is the backend surface the runner needs.
type LibraryService interface {
	Profiles(ctx context.Context) ([]library.Profile, error)
	Items(ctx context.Context) ([]library.Item, error)
	ItemDetail(ctx context.Context, id int64) (library.Item, error)
	SetProfile(ctx context.Context, id, profileID int64) error
}

// RatingResolver supplies the catalog rating for a display title.
type RatingResolver interface {
	ResolveRating(ctx context.Context, title string) (float64, error)
}

// Options tunes a sweep run.
type Options struct {
	Policy   policy.Policy
	Workers  int
	DryRun   bool
	LockPath string
}

// Runner walks the whole library once: resolve the tier-to-profile mapping,
// then classify and update every item on a bounded worker pool.
type Runner struct {
	library  LibraryService
	ratings  RatingResolver
	notifier notifications.Service
	logger   *slog.Logger
	opts     Options

	// now is swappable so tests can pin recency windows.
	now func() time.Time
}

// New builds a Runner. The notifier may be nil; a nil logger falls back to a
// silent one.
func New(lib LibraryService, ratings RatingResolver, notifier notifications.Service, logger *slog.Logger, opts Options) (*Runner, error) {
	if lib == nil {
		return nil, services.Wrap(services.ErrConfiguration, "sweep", "new", "library service is required", nil)
	}
	if ratings == nil {
		return nil, services.Wrap(services.ErrConfiguration, "sweep", "new", "rating resolver is required", nil)
	}
	if err := opts.Policy.Validate(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "sweep", "new", "invalid tier policy", err)
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		library:  lib,
		ratings:  ratings,
		notifier: notifier,
		logger:   logger.With(logging.String(logging.FieldComponent, "sweep")),
		opts:     opts,
		now:      time.Now,
	}, nil
}

// Run performs one full sweep. Per-item failures are recorded in the report
// rather than aborting the run; only setup failures (lock, profile
// resolution, item listing) return an error.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	logger := r.logger.With(logging.String(logging.FieldRunID, runID))

	if r.opts.LockPath != "" {
		release, err := r.acquireLock()
		if err != nil {
			return nil, err
		}
		defer release()
	}

	started := r.now()

	profileIDs, err := r.resolveProfiles(ctx)
	if err != nil {
		r.notifyError(ctx, err)
		return nil, err
	}

	items, err := r.library.Items(ctx)
	if err != nil {
		err = services.Wrap(nil, "sweep", "list items", "list library items", err)
		r.notifyError(ctx, err)
		return nil, err
	}
	logger.Info("sweep started",
		logging.Int("items", len(items)),
		logging.Int("workers", r.opts.Workers),
		logging.Bool("dry_run", r.opts.DryRun))
	if r.notifier != nil {
		if err := r.notifier.NotifySweepStarted(ctx, len(items)); err != nil {
			logger.Warn("sweep start notification failed", logging.Error(err))
		}
	}

	report := r.processAll(ctx, items, profileIDs)
	report.Duration = r.now().Sub(started)

	logger.Info("sweep finished",
		logging.Int("processed", report.Processed),
		logging.Int("updated", report.Updated),
		logging.Int("failed", report.Failed),
		logging.Duration("duration", report.Duration))
	if r.notifier != nil {
		if err := r.notifier.NotifySweepCompleted(ctx, report.Updated, report.Failed, report.Duration); err != nil {
			logger.Warn("sweep completion notification failed", logging.Error(err))
		}
	}

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

func (r *Runner) acquireLock() (func(), error) {
	if dir := filepath.Dir(r.opts.LockPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, services.Wrap(nil, "sweep", "lock", "create lock directory", err)
		}
	}
	lock := flock.New(r.opts.LockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(nil, "sweep", "lock", "acquire run lock", err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrConfiguration, "sweep", "lock", "another sweep is already running", nil)
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			r.logger.Warn("failed to release run lock", logging.Error(err))
		}
	}, nil
}

// resolveProfiles maps every tier name in the policy to a backend profile ID.
// Any miss fails the whole run before item processing begins.
func (r *Runner) resolveProfiles(ctx context.Context) (map[string]int64, error) {
	profiles, err := r.library.Profiles(ctx)
	if err != nil {
		return nil, services.Wrap(nil, "sweep", "resolve profiles", "list quality profiles", err)
	}

	ids := make(map[string]int64, len(r.opts.Policy.Tiers))
	for _, name := range r.opts.Policy.TierNames() {
		id, err := library.ProfileIDForName(name, profiles)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "sweep", "resolve profiles",
				fmt.Sprintf("tier %q has no matching quality profile", name), err)
		}
		ids[name] = id
	}
	return ids, nil
}

func (r *Runner) processAll(ctx context.Context, items []library.Item, profileIDs map[string]int64) *Report {
	jobs := make(chan library.Item)
	results := make(chan ItemResult)

	var workers sync.WaitGroup
	for range r.opts.Workers {
		workers.Add(1)
		go func() {
			defer workers.Done()
			for item := range jobs {
				results <- r.processItem(ctx, item, profileIDs)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, item := range items {
			select {
			case jobs <- item:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		workers.Wait()
		close(results)
	}()

	report := &Report{}
	for result := range results {
		report.add(result)
	}
	return report
}

func (r *Runner) processItem(ctx context.Context, item library.Item, profileIDs map[string]int64) ItemResult {
	ctx = services.WithItemID(ctx, item.ID)
	logger := logging.WithContext(ctx, r.logger)
	result := ItemResult{ItemID: item.ID, Title: item.Title}

	rating, err := r.ratings.ResolveRating(ctx, item.Title)
	if err != nil {
		result.Err = fmt.Errorf("resolve rating for %q: %w", item.Title, err)
		logger.Error("item failed", logging.Error(result.Err))
		return result
	}

	detail, err := r.library.ItemDetail(ctx, item.ID)
	if err != nil {
		result.Err = fmt.Errorf("fetch detail for %q: %w", item.Title, err)
		logger.Error("item failed", logging.Error(result.Err))
		return result
	}

	signals := policy.SignalsForItem(detail, rating)
	tier := policy.Classify(signals, r.opts.Policy, r.now())
	result.Tier = tier
	result.ProfileID = profileIDs[tier]

	logger.Debug("item classified",
		logging.String(logging.FieldTier, tier),
		logging.Float64("rating", rating),
		logging.String("status", string(detail.Status)))

	if r.opts.DryRun {
		logger.Info("dry run, skipping profile update",
			logging.String(logging.FieldTier, tier),
			logging.Int64("profile_id", result.ProfileID))
		return result
	}

	if err := r.library.SetProfile(ctx, item.ID, result.ProfileID); err != nil {
		result.Err = fmt.Errorf("set profile for %q: %w", item.Title, err)
		logger.Error("item failed", logging.Error(result.Err))
		return result
	}

	logger.Info("profile updated",
		logging.String(logging.FieldTier, tier),
		logging.Int64("profile_id", result.ProfileID))
	return result
}

func (r *Runner) notifyError(ctx context.Context, err error) {
	if r.notifier == nil {
		return
	}
	if nerr := r.notifier.NotifyError(ctx, err, "sweep"); nerr != nil {
		r.logger.Warn("error notification failed", logging.Error(nerr))
	}
}
