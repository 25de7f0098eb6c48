package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/wheat4714/downgraderr/internal/fetch"
	"github.com/wheat4714/downgraderr/internal/logging"
	"github.com/wheat4714/downgraderr/internal/services"
)

// Mode selects which endpoint family the backend speaks.
type Mode string

const (
	// ModeSeries targets a Sonarr-style backend (/api/v3/series).
	ModeSeries Mode = "series"
	// ModeMovies targets a Radarr-style backend (/api/v3/movie).
	ModeMovies Mode = "movies"
)

// ParseMode validates a configured mode string.
func ParseMode(raw string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "series", "sonarr", "":
		return ModeSeries, nil
	case "movies", "movie", "radarr":
		return ModeMovies, nil
	default:
		return "", fmt.Errorf("unsupported library mode %q", raw)
	}
}

// Client is a typed view over the media-management backend's v3 REST API.
type Client struct {
	baseURL string
	apiKey  string
	mode    Mode
	fetcher *fetch.Client
	logger  *slog.Logger
}

// New creates a library client.
func New(baseURL, apiKey string, mode Mode, fetcher *fetch.Client, logger *slog.Logger) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("library url required")
	}
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("library api key required")
	}
	if fetcher == nil {
		return nil, errors.New("library fetch client required")
	}
	if mode != ModeSeries && mode != ModeMovies {
		return nil, fmt.Errorf("unsupported library mode %q", mode)
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		mode:    mode,
		fetcher: fetcher,
		logger:  logging.NewComponentLogger(logger, "library"),
	}, nil
}

// Mode returns the endpoint family this client speaks.
func (c *Client) Mode() Mode { return c.mode }

// Profiles lists the backend's quality profiles.
func (c *Client) Profiles(ctx context.Context) ([]Profile, error) {
	var profiles []Profile
	if err := c.fetcher.GetJSON(ctx, c.baseURL+"/api/v3/qualityprofile", nil, c.headers(), &profiles); err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return profiles, nil
}

// ProfileIDForName resolves a profile name case-insensitively, returning
// services.ErrNotFound when no profile matches.
func ProfileIDForName(name string, profiles []Profile) (int64, error) {
	for _, profile := range profiles {
		if strings.EqualFold(profile.Name, name) {
			return profile.ID, nil
		}
	}
	return 0, services.Wrap(services.ErrNotFound, "library", "resolve profile", fmt.Sprintf("profile %q not found", name), nil)
}

// Items enumerates every item in the library.
func (c *Client) Items(ctx context.Context) ([]Item, error) {
	var payloads []itemPayload
	if err := c.fetcher.GetJSON(ctx, c.itemsURL(), nil, c.headers(), &payloads); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	items := make([]Item, 0, len(payloads))
	for _, payload := range payloads {
		items = append(items, payload.toItem(c.mode))
	}
	return items, nil
}

// ItemDetail fetches one item's full typed record, including genres, status,
// and per-season episode statistics.
func (c *Client) ItemDetail(ctx context.Context, id int64) (Item, error) {
	var payload itemPayload
	if err := c.fetcher.GetJSON(ctx, c.itemURL(id), nil, c.headers(), &payload); err != nil {
		return Item{}, fmt.Errorf("item %d detail: %w", id, err)
	}
	return payload.toItem(c.mode), nil
}

// SetProfile assigns a quality profile to an item. The backend requires a
// full representation on update, so this is a read-modify-write: fetch the
// raw record, overwrite only qualityProfileId, and resubmit everything.
func (c *Client) SetProfile(ctx context.Context, id, profileID int64) error {
	var record map[string]any
	if err := c.fetcher.GetJSON(ctx, c.itemURL(id), nil, c.headers(), &record); err != nil {
		return fmt.Errorf("item %d fetch for update: %w", id, err)
	}
	record["qualityProfileId"] = profileID

	if err := c.fetcher.PutJSON(ctx, c.itemURL(id), c.headers(), record, nil); err != nil {
		return fmt.Errorf("item %d update: %w", id, err)
	}
	c.logger.Debug("profile assigned",
		logging.Int64(logging.FieldItemID, id),
		logging.Int64("profile_id", profileID))
	return nil
}

func (c *Client) headers() http.Header {
	headers := http.Header{}
	headers.Set("X-Api-Key", c.apiKey)
	return headers
}

func (c *Client) itemsURL() string {
	if c.mode == ModeMovies {
		return c.baseURL + "/api/v3/movie"
	}
	return c.baseURL + "/api/v3/series"
}

func (c *Client) itemURL(id int64) string {
	return fmt.Sprintf("%s/%d", c.itemsURL(), id)
}
