package policy_test

import (
	"testing"
	"time"

	"github.com/wheat4714/downgraderr/internal/library"
	"github.com/wheat4714/downgraderr/internal/policy"
)

func twoTierPolicy() policy.Policy {
	return policy.Policy{Tiers: []policy.Tier{
		{Name: "A", Genres: []string{"Drama"}, MinRating: 8},
		{Name: "B"},
	}}
}

func TestClassifyPrefersEarlierTiers(t *testing.T) {
	pol := twoTierPolicy()
	now := time.Now()

	sig := policy.Signals{Rating: 9, Genres: []string{"Drama"}}
	if got := policy.Classify(sig, pol, now); got != "A" {
		t.Errorf("high-rated drama should land in A, got %q", got)
	}

	sig.Rating = 5
	if got := policy.Classify(sig, pol, now); got != "B" {
		t.Errorf("low-rated drama should fall through to B, got %q", got)
	}
}

func TestClassifyGenreMatchIsCaseInsensitive(t *testing.T) {
	pol := twoTierPolicy()
	sig := policy.Signals{Rating: 9, Genres: []string{"drama"}}
	if got := policy.Classify(sig, pol, time.Now()); got != "A" {
		t.Errorf("genre comparison should fold case, got %q", got)
	}
}

func TestClassifyTotality(t *testing.T) {
	pol := policy.Policy{Tiers: []policy.Tier{
		{Name: "4k", Genres: []string{"Drama"}, MinRating: 8, MaxEpisodes: 50, RequireEnded: true, MinYear: 2010},
		{Name: "1080p", MinRating: 6, RequireContinuing: true},
		{Name: "720p"},
	}}
	if err := pol.Validate(); err != nil {
		t.Fatalf("policy should validate: %v", err)
	}

	now := time.Now()
	statuses := []library.Status{library.StatusEnded, library.StatusContinuing, library.StatusUnknown}
	ratings := []float64{0, 5.5, 10}
	episodes := []struct {
		count int
		known bool
	}{{0, true}, {0, false}, {500, true}}
	genres := [][]string{{"Drama"}, {"Comedy"}, nil}
	dates := []struct {
		ts  time.Time
		has bool
	}{{now.AddDate(-1, 0, 0), true}, {time.Time{}, false}}

	for _, status := range statuses {
		for _, rating := range ratings {
			for _, ep := range episodes {
				for _, genre := range genres {
					for _, date := range dates {
						sig := policy.Signals{
							Status:            status,
							Rating:            rating,
							EpisodeCount:      ep.count,
							EpisodeCountKnown: ep.known,
							ReferenceDate:     date.ts,
							HasReferenceDate:  date.has,
							Genres:            genre,
						}
						tier := policy.Classify(sig, pol, now)
						if tier == "" {
							t.Fatalf("Classify returned empty tier for %+v", sig)
						}
					}
				}
			}
		}
	}
}

func TestClassifyUnknownSignalsFailThresholds(t *testing.T) {
	pol := policy.Policy{Tiers: []policy.Tier{
		{Name: "recent", MaxAgeDays: 60},
		{Name: "small", MaxEpisodes: 100},
		{Name: "default"},
	}}
	sig := policy.Signals{}
	if got := policy.Classify(sig, pol, time.Now()); got != "default" {
		t.Errorf("missing date and episode count should fall to default, got %q", got)
	}
}

func TestClassifyRecencyWindow(t *testing.T) {
	pol := policy.Policy{Tiers: []policy.Tier{
		{Name: "fresh", MaxAgeDays: 60},
		{Name: "stale"},
	}}
	now := time.Now()

	sig := policy.Signals{ReferenceDate: now.AddDate(0, 0, -30), HasReferenceDate: true}
	if got := policy.Classify(sig, pol, now); got != "fresh" {
		t.Errorf("item aired 30 days ago should be fresh, got %q", got)
	}

	sig.ReferenceDate = now.AddDate(0, 0, -90)
	if got := policy.Classify(sig, pol, now); got != "stale" {
		t.Errorf("item aired 90 days ago should be stale, got %q", got)
	}
}

func TestClassifyYearThreshold(t *testing.T) {
	pol := policy.Policy{Tiers: []policy.Tier{
		{Name: "modern", MinYear: 2015},
		{Name: "legacy"},
	}}
	now := time.Now()

	sig := policy.Signals{
		ReferenceDate:    time.Date(2018, 6, 1, 0, 0, 0, 0, time.UTC),
		HasReferenceDate: true,
	}
	if got := policy.Classify(sig, pol, now); got != "modern" {
		t.Errorf("2018 release should be modern, got %q", got)
	}

	sig.ReferenceDate = time.Date(1999, 6, 1, 0, 0, 0, 0, time.UTC)
	if got := policy.Classify(sig, pol, now); got != "legacy" {
		t.Errorf("1999 release should be legacy, got %q", got)
	}
}

func TestClassifyStatusRequirements(t *testing.T) {
	pol := policy.Policy{Tiers: []policy.Tier{
		{Name: "archive", RequireEnded: true},
		{Name: "active", RequireContinuing: true},
		{Name: "default"},
	}}
	now := time.Now()

	if got := policy.Classify(policy.Signals{Status: library.StatusEnded}, pol, now); got != "archive" {
		t.Errorf("ended item: got %q", got)
	}
	if got := policy.Classify(policy.Signals{Status: library.StatusContinuing}, pol, now); got != "active" {
		t.Errorf("continuing item: got %q", got)
	}
	if got := policy.Classify(policy.Signals{Status: library.StatusUnknown}, pol, now); got != "default" {
		t.Errorf("unknown status: got %q", got)
	}
}

func TestValidateRejectsConditionalFinalTier(t *testing.T) {
	pol := policy.Policy{Tiers: []policy.Tier{
		{Name: "only", MinRating: 5},
	}}
	if err := pol.Validate(); err == nil {
		t.Fatal("conditional final tier must be rejected")
	}
}

func TestValidateRejectsCombinedRecencySignals(t *testing.T) {
	pol := policy.Policy{Tiers: []policy.Tier{
		{Name: "bad", MinYear: 2015, MaxAgeDays: 60},
		{Name: "default"},
	}}
	if err := pol.Validate(); err == nil {
		t.Fatal("min_year and max_age_days together must be rejected")
	}
}

func TestValidateRejectsDuplicateNames(t *testing.T) {
	pol := policy.Policy{Tiers: []policy.Tier{
		{Name: "HD", MinRating: 5},
		{Name: "hd"},
	}}
	if err := pol.Validate(); err == nil {
		t.Fatal("duplicate tier names must be rejected")
	}
}

func TestValidateRejectsEmptyPolicy(t *testing.T) {
	if err := (policy.Policy{}).Validate(); err == nil {
		t.Fatal("empty policy must be rejected")
	}
}

func TestValidateRejectsContradictoryStatus(t *testing.T) {
	pol := policy.Policy{Tiers: []policy.Tier{
		{Name: "bad", RequireEnded: true, RequireContinuing: true},
		{Name: "default"},
	}}
	if err := pol.Validate(); err == nil {
		t.Fatal("contradictory status requirements must be rejected")
	}
}

func TestSignalsForItem(t *testing.T) {
	aired := time.Date(2008, 3, 9, 0, 0, 0, 0, time.UTC)
	item := library.Item{
		Status:            library.StatusEnded,
		Genres:            []string{"Drama"},
		EpisodeCount:      60,
		EpisodeCountKnown: true,
		ReferenceDate:     aired,
		HasReferenceDate:  true,
	}
	sig := policy.SignalsForItem(item, 9.3)
	if sig.Rating != 9.3 || sig.EpisodeCount != 60 || !sig.HasReferenceDate {
		t.Errorf("signal bundle mismatch: %+v", sig)
	}
}
