package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"house-swap-app/internal/redis"
)

// FeedStore persists discovery cursors between requests.
type FeedStore interface {
	Load(ctx context.Context, viewerID *uint, sessionID string) (FeedState, error)
	Save(ctx context.Context, viewerID *uint, state FeedState) error
}

type RedisFeedStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisFeedStore(client *redis.Client, ttl time.Duration) *RedisFeedStore {
	return &RedisFeedStore{client: client, ttl: ttl}
}

// Load returns an empty state for unknown or expired sessions.
func (s *RedisFeedStore) Load(ctx context.Context, viewerID *uint, sessionID string) (FeedState, error) {
	raw, err := s.client.Get(ctx, feedKey(viewerID, sessionID))
	if redis.IsNil(err) {
		return FeedState{SessionID: sessionID}, nil
	}
	if err != nil {
		return FeedState{}, fmt.Errorf("failed to load feed session: %w", err)
	}

	var state FeedState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		// A corrupt entry only costs the viewer a reshuffle.
		return FeedState{SessionID: sessionID}, nil
	}
	state.SessionID = sessionID
	return state, nil
}

func (s *RedisFeedStore) Save(ctx context.Context, viewerID *uint, state FeedState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode feed session: %w", err)
	}
	if err := s.client.Set(ctx, feedKey(viewerID, state.SessionID), raw, s.ttl); err != nil {
		return fmt.Errorf("failed to save feed session: %w", err)
	}
	return nil
}

func feedKey(viewerID *uint, sessionID string) string {
	owner := "guest"
	if viewerID != nil {
		owner = strconv.FormatUint(uint64(*viewerID), 10)
	}
	return "feed:" + owner + ":" + sessionID
}
