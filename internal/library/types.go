package library

import (
	"strings"
	"time"
)

// Profile is one quality profile known to the backend.
type Profile struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Status is the airing/release status of a library item.
type Status string

const (
	StatusContinuing Status = "continuing"
	StatusEnded      Status = "ended"
	StatusUnknown    Status = "unknown"
)

// ParseStatus maps a backend status string onto the three states the
// classifier understands. Released movies count as ended.
func ParseStatus(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "continuing", "upcoming":
		return StatusContinuing
	case "ended", "released":
		return StatusEnded
	default:
		return StatusUnknown
	}
}

// Item is the typed view of a library record used by classification.
// ReferenceDate is the last-aired date for series and the release date for
// movies; EpisodeCount is only known for series.
type Item struct {
	ID                int64
	Title             string
	Status            Status
	Genres            []string
	EpisodeCount      int
	EpisodeCountKnown bool
	ReferenceDate     time.Time
	HasReferenceDate  bool
}

// ReferenceYear returns the year of the reference date, or 0 when unknown.
func (i Item) ReferenceYear() int {
	if !i.HasReferenceDate {
		return 0
	}
	return i.ReferenceDate.Year()
}

type seasonStatistics struct {
	EpisodeCount int `json:"episodeCount"`
}

type seasonPayload struct {
	SeasonNumber int               `json:"seasonNumber"`
	Statistics   *seasonStatistics `json:"statistics"`
}

type itemPayload struct {
	ID             int64           `json:"id"`
	Title          string          `json:"title"`
	Status         string          `json:"status"`
	Genres         []string        `json:"genres"`
	PreviousAiring string          `json:"previousAiring"`
	InCinemas      string          `json:"inCinemas"`
	Seasons        []seasonPayload `json:"seasons"`
}

func (p itemPayload) toItem(mode Mode) Item {
	item := Item{
		ID:     p.ID,
		Title:  p.Title,
		Status: ParseStatus(p.Status),
		Genres: p.Genres,
	}

	raw := p.PreviousAiring
	if mode == ModeMovies {
		raw = p.InCinemas
	}
	if ts, ok := parseBackendTime(raw); ok {
		item.ReferenceDate = ts
		item.HasReferenceDate = true
	}

	if mode == ModeSeries && len(p.Seasons) > 0 {
		total := 0
		for _, season := range p.Seasons {
			if season.Statistics != nil {
				total += season.Statistics.EpisodeCount
			}
		}
		item.EpisodeCount = total
		item.EpisodeCountKnown = true
	}
	return item
}

func parseBackendTime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05Z", "2006-01-02"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
