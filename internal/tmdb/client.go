package tmdb

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/wheat4714/downgraderr/internal/fetch"
)

// MediaType selects which TMDB endpoint family a lookup targets.
type MediaType string

const (
	MediaTypeMovie MediaType = "movie"
	MediaTypeTV    MediaType = "tv"
)

// Result represents a single TMDB search match or detail record.
type Result struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int64   `json:"vote_count"`
}

// Response models the TMDB paginated search response.
type Response struct {
	Page         int      `json:"page"`
	Results      []Result `json:"results"`
	TotalPages   int      `json:"total_pages"`
	TotalResults int      `json:"total_results"`
}

// Searcher defines the TMDB operations used by rating resolution.
type Searcher interface {
	Search(ctx context.Context, mediaType MediaType, query string, year int) (*Response, error)
	Details(ctx context.Context, mediaType MediaType, id int64) (*Result, error)
}

// Client provides access to the TMDB API through the shared fetcher.
type Client struct {
	apiKey   string
	baseURL  string
	language string
	fetcher  *fetch.Client
}

var _ Searcher = (*Client)(nil)

// New creates a TMDB client.
func New(apiKey, baseURL, language string, fetcher *fetch.Client) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tmdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tmdb base url required")
	}
	if fetcher == nil {
		return nil, errors.New("tmdb fetch client required")
	}
	return &Client{
		apiKey:   apiKey,
		baseURL:  strings.TrimRight(baseURL, "/"),
		language: strings.TrimSpace(language),
		fetcher:  fetcher,
	}, nil
}

// Search performs a TMDB title search, optionally scoped to a year.
func (c *Client) Search(ctx context.Context, mediaType MediaType, query string, year int) (*Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}

	params := c.baseParams()
	params.Set("query", query)
	if year > 0 {
		switch mediaType {
		case MediaTypeTV:
			params.Set("first_air_date_year", strconv.Itoa(year))
		default:
			params.Set("primary_release_year", strconv.Itoa(year))
		}
	}

	var payload Response
	endpoint := fmt.Sprintf("%s/search/%s", c.baseURL, mediaType)
	if err := c.fetcher.GetJSON(ctx, endpoint, params, nil, &payload); err != nil {
		return nil, fmt.Errorf("tmdb %s search: %w", mediaType, err)
	}
	return &payload, nil
}

// Details fetches the full record for a TMDB identifier.
func (c *Client) Details(ctx context.Context, mediaType MediaType, id int64) (*Result, error) {
	if id <= 0 {
		return nil, errors.New("tmdb id must be positive")
	}

	var payload Result
	endpoint := fmt.Sprintf("%s/%s/%d", c.baseURL, mediaType, id)
	if err := c.fetcher.GetJSON(ctx, endpoint, c.baseParams(), nil, &payload); err != nil {
		return nil, fmt.Errorf("tmdb %s details: %w", mediaType, err)
	}
	return &payload, nil
}

func (c *Client) baseParams() url.Values {
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	if c.language != "" {
		params.Set("language", c.language)
	}
	return params
}
