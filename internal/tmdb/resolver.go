package tmdb

import (
	"context"
	"log/slog"

	"github.com/wheat4714/downgraderr/internal/logging"
	"github.com/wheat4714/downgraderr/internal/titles"
)

// Cache abstracts the rating cache consumed by the resolver.
type Cache interface {
	GetOrFetch(ctx context.Context, tmdbID int64, fn func(context.Context) (float64, error)) (float64, error)
}

// Resolver maps a display title to a TMDB rating, going through the cache so
// detail fetches are skipped while an entry is fresh.
type Resolver struct {
	searcher  Searcher
	cache     Cache
	mediaType MediaType
	logger    *slog.Logger
}

// NewResolver builds a rating resolver for one media type.
func NewResolver(searcher Searcher, cache Cache, mediaType MediaType, logger *slog.Logger) *Resolver {
	return &Resolver{
		searcher:  searcher,
		cache:     cache,
		mediaType: mediaType,
		logger:    logging.NewComponentLogger(logger, "tmdb"),
	}
}

// ResolveRating resolves the TMDB rating for a display title. A title with no
// search results resolves to rating 0; that is a valid outcome, not an error.
func (r *Resolver) ResolveRating(ctx context.Context, title string) (float64, error) {
	clean, year, _ := titles.Normalize(title)

	resp, err := r.searcher.Search(ctx, r.mediaType, clean, year)
	if err != nil {
		return 0, err
	}
	if resp.TotalResults == 0 || len(resp.Results) == 0 {
		r.logger.Warn("no catalog match for title",
			logging.String("title", clean),
			logging.Int("year", year))
		return 0, nil
	}

	id := resp.Results[0].ID
	return r.cache.GetOrFetch(ctx, id, func(ctx context.Context) (float64, error) {
		detail, err := r.searcher.Details(ctx, r.mediaType, id)
		if err != nil {
			return 0, err
		}
		return detail.VoteAverage, nil
	})
}
