package tmdb_test

import (
	"context"
	"errors"
	"testing"

	"github.com/wheat4714/downgraderr/internal/tmdb"
)

type fakeSearcher struct {
	searchResp  *tmdb.Response
	searchErr   error
	detail      *tmdb.Result
	detailErr   error
	detailCalls int
}

func (f *fakeSearcher) Search(ctx context.Context, mediaType tmdb.MediaType, query string, year int) (*tmdb.Response, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.searchResp, nil
}

func (f *fakeSearcher) Details(ctx context.Context, mediaType tmdb.MediaType, id int64) (*tmdb.Result, error) {
	f.detailCalls++
	if f.detailErr != nil {
		return nil, f.detailErr
	}
	return f.detail, nil
}

type passthroughCache struct {
	calls int
}

func (c *passthroughCache) GetOrFetch(ctx context.Context, tmdbID int64, fn func(context.Context) (float64, error)) (float64, error) {
	c.calls++
	return fn(ctx)
}

type hitCache struct {
	rating float64
}

func (c *hitCache) GetOrFetch(ctx context.Context, tmdbID int64, fn func(context.Context) (float64, error)) (float64, error) {
	return c.rating, nil
}

func TestResolveRatingFetchesDetailOnMiss(t *testing.T) {
	searcher := &fakeSearcher{
		searchResp: &tmdb.Response{TotalResults: 1, Results: []tmdb.Result{{ID: 7}}},
		detail:     &tmdb.Result{ID: 7, VoteAverage: 8.5},
	}
	cache := &passthroughCache{}
	resolver := tmdb.NewResolver(searcher, cache, tmdb.MediaTypeTV, nil)

	rating, err := resolver.ResolveRating(context.Background(), "The Wire (2002)")
	if err != nil {
		t.Fatalf("ResolveRating: %v", err)
	}
	if rating != 8.5 {
		t.Errorf("rating mismatch: %v", rating)
	}
	if cache.calls != 1 || searcher.detailCalls != 1 {
		t.Errorf("expected one cache pass and one detail fetch, got %d/%d", cache.calls, searcher.detailCalls)
	}
}

func TestResolveRatingSkipsDetailOnCacheHit(t *testing.T) {
	searcher := &fakeSearcher{
		searchResp: &tmdb.Response{TotalResults: 1, Results: []tmdb.Result{{ID: 7}}},
	}
	resolver := tmdb.NewResolver(searcher, &hitCache{rating: 6.1}, tmdb.MediaTypeMovie, nil)

	rating, err := resolver.ResolveRating(context.Background(), "Heat")
	if err != nil {
		t.Fatalf("ResolveRating: %v", err)
	}
	if rating != 6.1 {
		t.Errorf("rating mismatch: %v", rating)
	}
	if searcher.detailCalls != 0 {
		t.Errorf("detail fetch should be skipped on cache hit, got %d calls", searcher.detailCalls)
	}
}

func TestResolveRatingZeroResultsIsNotAnError(t *testing.T) {
	searcher := &fakeSearcher{searchResp: &tmdb.Response{TotalResults: 0}}
	resolver := tmdb.NewResolver(searcher, &passthroughCache{}, tmdb.MediaTypeMovie, nil)

	rating, err := resolver.ResolveRating(context.Background(), "Obscure Title")
	if err != nil {
		t.Fatalf("zero results must not be an error, got %v", err)
	}
	if rating != 0 {
		t.Errorf("expected sentinel rating 0, got %v", rating)
	}
}

func TestResolveRatingPropagatesSearchError(t *testing.T) {
	boom := errors.New("boom")
	resolver := tmdb.NewResolver(&fakeSearcher{searchErr: boom}, &passthroughCache{}, tmdb.MediaTypeMovie, nil)

	if _, err := resolver.ResolveRating(context.Background(), "Heat"); !errors.Is(err, boom) {
		t.Fatalf("expected search error, got %v", err)
	}
}
