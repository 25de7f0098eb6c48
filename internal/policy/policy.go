package policy

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/wheat4714/downgraderr/internal/library"
)

// Tier is one rule in the ordered classification policy. A zero-valued
// condition is absent and vacuously true: MinRating 0 passes every rating,
// MaxEpisodes 0 disables the episode test, and so on. MinYear and MaxAgeDays
// are alternative recency signals; a tier may set at most one of them.
type Tier struct {
	Name              string
	Genres            []string
	MinRating         float64
	MaxEpisodes       int
	MinYear           int
	MaxAgeDays        int
	RequireEnded      bool
	RequireContinuing bool
}

// unconditional reports whether the tier matches every item.
func (t Tier) unconditional() bool {
	return len(t.Genres) == 0 &&
		t.MinRating <= 0 &&
		t.MaxEpisodes <= 0 &&
		t.MinYear <= 0 &&
		t.MaxAgeDays <= 0 &&
		!t.RequireEnded &&
		!t.RequireContinuing
}

// Policy is the ordered tier list, highest quality first. The final tier must
// be unconditional so classification always resolves.
type Policy struct {
	Tiers []Tier
}

// TierNames returns the configured tier names in order.
func (p Policy) TierNames() []string {
	names := make([]string, 0, len(p.Tiers))
	for _, tier := range p.Tiers {
		names = append(names, tier.Name)
	}
	return names
}

// Validate checks the structural invariants the classifier relies on.
func (p Policy) Validate() error {
	if len(p.Tiers) == 0 {
		return fmt.Errorf("policy requires at least one tier")
	}
	seen := make(map[string]struct{}, len(p.Tiers))
	for i, tier := range p.Tiers {
		name := strings.TrimSpace(tier.Name)
		if name == "" {
			return fmt.Errorf("tier %d: name must be set", i+1)
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("tier %q: duplicate name", name)
		}
		seen[key] = struct{}{}
		if tier.MinRating < 0 || tier.MinRating > 10 {
			return fmt.Errorf("tier %q: min_rating must be within [0,10]", name)
		}
		if tier.MinYear > 0 && tier.MaxAgeDays > 0 {
			return fmt.Errorf("tier %q: min_year and max_age_days are mutually exclusive", name)
		}
		if tier.RequireEnded && tier.RequireContinuing {
			return fmt.Errorf("tier %q: require_ended and require_continuing are mutually exclusive", name)
		}
	}
	if last := p.Tiers[len(p.Tiers)-1]; !last.unconditional() {
		return fmt.Errorf("tier %q: the final tier must have no conditions", last.Name)
	}
	return nil
}

// Signals is the resolved per-item input bundle for classification.
type Signals struct {
	Status            library.Status
	Rating            float64
	EpisodeCount      int
	EpisodeCountKnown bool
	ReferenceDate     time.Time
	HasReferenceDate  bool
	Genres            []string
}

// SignalsForItem combines a library record with its resolved rating.
func SignalsForItem(item library.Item, rating float64) Signals {
	return Signals{
		Status:            item.Status,
		Rating:            rating,
		EpisodeCount:      item.EpisodeCount,
		EpisodeCountKnown: item.EpisodeCountKnown,
		ReferenceDate:     item.ReferenceDate,
		HasReferenceDate:  item.HasReferenceDate,
		Genres:            item.Genres,
	}
}

// Classify evaluates the policy in order and returns the name of the first
// tier whose present conditions all hold. Unknown signals fail any threshold
// that references them, so items with missing data settle into lower tiers.
// A validated policy ends in an unconditional tier, making Classify total.
func Classify(sig Signals, p Policy, now time.Time) string {
	for _, tier := range p.Tiers {
		if matches(tier, sig, now) {
			return tier.Name
		}
	}
	return p.Tiers[len(p.Tiers)-1].Name
}

func matches(tier Tier, sig Signals, now time.Time) bool {
	if tier.MinRating > 0 && sig.Rating < tier.MinRating {
		return false
	}
	if tier.MaxEpisodes > 0 {
		if !sig.EpisodeCountKnown || sig.EpisodeCount >= tier.MaxEpisodes {
			return false
		}
	}
	if tier.MinYear > 0 {
		if !sig.HasReferenceDate || sig.ReferenceDate.Year() < tier.MinYear {
			return false
		}
	}
	if tier.MaxAgeDays > 0 {
		if !sig.HasReferenceDate {
			return false
		}
		if now.Sub(sig.ReferenceDate) > time.Duration(tier.MaxAgeDays)*24*time.Hour {
			return false
		}
	}
	if tier.RequireEnded && sig.Status != library.StatusEnded {
		return false
	}
	if tier.RequireContinuing && sig.Status != library.StatusContinuing {
		return false
	}
	if len(tier.Genres) > 0 && !genresIntersect(tier.Genres, sig.Genres) {
		return false
	}
	return true
}

var genreFold = cases.Fold()

func genresIntersect(want, have []string) bool {
	if len(have) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(want))
	for _, genre := range want {
		set[genreFold.String(strings.TrimSpace(genre))] = struct{}{}
	}
	for _, genre := range have {
		if _, ok := set[genreFold.String(strings.TrimSpace(genre))]; ok {
			return true
		}
	}
	return false
}
