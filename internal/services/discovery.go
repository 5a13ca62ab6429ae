package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"house-swap-app/internal/models"
	"house-swap-app/internal/utils"

	"gorm.io/gorm"
)

// FeedFilters is the closed set of discovery predicates. Boolean filters are
// only applied when true and combine with AND.
type FeedFilters struct {
	Pets      bool   `form:"pets" json:"pets"`
	Pool      bool   `form:"pool" json:"pool"`
	Bedrooms  bool   `form:"bedrooms" json:"bedrooms"`
	Beach     bool   `form:"beach" json:"beach"`
	Mountains bool   `form:"mountains" json:"mountains"`
	City      bool   `form:"city" json:"city"`
	Rural     bool   `form:"rural" json:"rural"`
	Location  string `form:"location" json:"location"`
	Dates     string `form:"dates" json:"dates"`
}

// Key is a canonical fingerprint of the filters; a session whose key
// changes starts a new sequence.
func (f FeedFilters) Key() string {
	flags := []struct {
		name string
		on   bool
	}{
		{"pets", f.Pets},
		{"pool", f.Pool},
		{"bedrooms", f.Bedrooms},
		{"beach", f.Beach},
		{"mountains", f.Mountains},
		{"city", f.City},
		{"rural", f.Rural},
	}

	var b strings.Builder
	for _, flag := range flags {
		if flag.on {
			b.WriteString(flag.name)
			b.WriteByte(',')
		}
	}
	b.WriteString("|")
	b.WriteString(NormalizeLocation(f.Location))
	b.WriteString("|")
	b.WriteString(strings.TrimSpace(f.Dates))
	return b.String()
}

func (f FeedFilters) apply(q *gorm.DB) *gorm.DB {
	if f.Pets {
		q = q.Where("pets = ?", true)
	}
	if f.Pool {
		q = q.Where("pool = ?", true)
	}
	if f.Bedrooms {
		q = q.Where("bedrooms = ?", true)
	}
	if f.Beach {
		q = q.Where("beach = ?", true)
	}
	if f.Mountains {
		q = q.Where("mountains = ?", true)
	}
	if f.City {
		q = q.Where("city = ?", true)
	}
	if f.Rural {
		q = q.Where("rural = ?", true)
	}
	if loc := NormalizeLocation(f.Location); loc != "" {
		q = q.Where("location = ?", loc)
	}

	// Substring match on either end of the requested range, not calendar aware.
	start, end := utils.SplitDateRange(f.Dates)
	switch {
	case start != "" && end != "":
		q = q.Where("(available_dates LIKE ? OR available_dates LIKE ?)", "%"+start+"%", "%"+end+"%")
	case start != "":
		q = q.Where("available_dates LIKE ?", "%"+start+"%")
	}
	return q
}

// FeedState is the per-session discovery cursor. It is passed into and
// returned from every Next call and never shared across sessions.
type FeedState struct {
	SessionID string `json:"session_id"`
	Sequence  []uint `json:"sequence"`
	Position  int    `json:"position"`
	Shown     int    `json:"shown"`
	FilterKey string `json:"filter_key"`
}

type FeedSignal string

const (
	FeedCandidate     FeedSignal = "candidate"
	FeedOnlyMatchSeen FeedSignal = "only_match_seen"
	FeedNoProfiles    FeedSignal = "no_profiles"
)

type FeedResult struct {
	Signal  FeedSignal      `json:"signal"`
	Profile *models.Profile `json:"profile,omitempty"`
}

type DiscoveryService struct {
	db  *gorm.DB
	rng *rand.Rand
}

func NewDiscoveryService(db *gorm.DB) *DiscoveryService {
	return &DiscoveryService{db: db}
}

// BuildSequence returns the shuffled ids of every candidate profile. A nil
// viewer is a guest and skips the self and already-responded exclusions.
func (s *DiscoveryService) BuildSequence(ctx context.Context, viewerID *uint, filters FeedFilters) ([]uint, error) {
	db := s.db.WithContext(ctx)
	q := db.Model(&models.Profile{}).Where("is_visible = ?", true)

	if viewerID != nil {
		responded := db.Model(&models.MatchResponse{}).
			Select("to_profile_id").
			Where("from_user_id = ?", *viewerID)
		q = q.Where("user_id <> ?", *viewerID).Where("id NOT IN (?)", responded)
	}

	var ids []uint
	if err := filters.apply(q).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to build discovery sequence: %w", err)
	}

	s.shuffle(ids)
	return ids, nil
}

// Next returns the next candidate and the advanced state. On exhaustion the
// sequence is rebuilt, except when it held a single profile that was shown:
// then the only-match signal is returned so the feed does not loop on it.
func (s *DiscoveryService) Next(ctx context.Context, viewerID *uint, state FeedState, filters FeedFilters) (FeedState, FeedResult, error) {
	key := filters.Key()
	if state.FilterKey != key {
		state = FeedState{SessionID: state.SessionID, FilterKey: key}
	}

	if profile, err := s.advance(ctx, &state); err != nil || profile != nil {
		return state, candidate(profile), err
	}

	if len(state.Sequence) == 1 && state.Shown == 1 {
		return state, FeedResult{Signal: FeedOnlyMatchSeen}, nil
	}

	seq, err := s.BuildSequence(ctx, viewerID, filters)
	if err != nil {
		return state, FeedResult{}, err
	}
	state.Sequence = seq
	state.Position = 0
	state.Shown = 0

	profile, err := s.advance(ctx, &state)
	if err != nil {
		return state, FeedResult{}, err
	}
	if profile == nil {
		return state, FeedResult{Signal: FeedNoProfiles}, nil
	}
	return state, candidate(profile), nil
}

// advance walks the sequence from the cursor, skipping ids whose profile
// has since been deleted or hidden. Shown counts the profiles served from
// the current sequence.
func (s *DiscoveryService) advance(ctx context.Context, state *FeedState) (*models.Profile, error) {
	for state.Position < len(state.Sequence) {
		id := state.Sequence[state.Position]
		state.Position++

		var profile models.Profile
		err := s.db.WithContext(ctx).
			Preload("HouseImages").
			Where("id = ? AND is_visible = ?", id, true).
			Take(&profile).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load candidate: %w", err)
		}
		state.Shown++
		return &profile, nil
	}
	return nil, nil
}

func (s *DiscoveryService) shuffle(ids []uint) {
	swap := func(i, j int) { ids[i], ids[j] = ids[j], ids[i] }
	if s.rng != nil {
		s.rng.Shuffle(len(ids), swap)
		return
	}
	rand.Shuffle(len(ids), swap)
}

func candidate(profile *models.Profile) FeedResult {
	if profile == nil {
		return FeedResult{}
	}
	return FeedResult{Signal: FeedCandidate, Profile: profile}
}
