package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"house-swap-app/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MatchOutcome struct {
	IsMutual      bool `json:"is_mutual"`
	NewMatch      bool `json:"new_match"`
	CounterpartID uint `json:"counterpart_id"`
}

type MatchService struct {
	db         *gorm.DB
	dispatcher *Dispatcher
	events     EventPublisher
	log        logrus.FieldLogger
	now        func() time.Time
}

func NewMatchService(db *gorm.DB, dispatcher *Dispatcher, events EventPublisher, log logrus.FieldLogger) *MatchService {
	if events == nil {
		events = NoopPublisher{}
	}
	return &MatchService{
		db:         db,
		dispatcher: dispatcher,
		events:     events,
		log:        log,
		now:        time.Now,
	}
}

// Like records viewer's like of the target profile. Repeated calls converge
// on one row. Notifications fire once per transition into mutuality: the
// check runs after the like is committed and the announcement is claimed
// through a unique pair row, so reciprocal likes racing each other announce
// exactly once.
func (s *MatchService) Like(ctx context.Context, viewerID, profileID uint) (MatchOutcome, error) {
	target, err := s.respondableProfile(ctx, viewerID, profileID)
	if err != nil {
		return MatchOutcome{}, err
	}

	if err := upsertResponse(s.db.WithContext(ctx), viewerID, target.ID, true, s.now()); err != nil {
		return MatchOutcome{}, fmt.Errorf("failed to record like: %w", err)
	}

	outcome := MatchOutcome{CounterpartID: target.UserID}
	outcome.IsMutual, err = s.IsMatched(ctx, viewerID, target.UserID)
	if err != nil {
		return MatchOutcome{}, fmt.Errorf("failed to check match: %w", err)
	}
	if !outcome.IsMutual {
		return outcome, nil
	}

	outcome.NewMatch, err = s.claimAnnouncement(ctx, viewerID, target.UserID)
	if err != nil {
		return MatchOutcome{}, fmt.Errorf("failed to record match: %w", err)
	}
	if outcome.NewMatch {
		s.announceMatch(ctx, viewerID, target.UserID)
	}

	return outcome, nil
}

// Pass records a dislike so the profile drops out of the viewer's feed. It
// also downgrades an earlier like.
func (s *MatchService) Pass(ctx context.Context, viewerID, profileID uint) error {
	target, err := s.respondableProfile(ctx, viewerID, profileID)
	if err != nil {
		return err
	}
	if err := upsertResponse(s.db.WithContext(ctx), viewerID, target.ID, false, s.now()); err != nil {
		return fmt.Errorf("failed to record pass: %w", err)
	}
	if err := s.releaseAnnouncement(ctx, viewerID, target.UserID); err != nil {
		return fmt.Errorf("failed to record pass: %w", err)
	}
	return nil
}

// Unlike removes viewer's like of the profile. It reports whether a row was
// removed; a missing like is not an error.
func (s *MatchService) Unlike(ctx context.Context, viewerID, profileID uint) (bool, error) {
	target, err := s.visibleProfile(ctx, profileID)
	if err != nil {
		return false, err
	}

	res := s.db.WithContext(ctx).
		Where("from_user_id = ? AND to_profile_id = ? AND liked = ?", viewerID, target.ID, true).
		Delete(&models.MatchResponse{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to remove like: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		s.log.WithFields(logrus.Fields{
			"user_id":    viewerID,
			"profile_id": profileID,
		}).Debug("unlike without an existing like")
		return false, nil
	}
	if err := s.releaseAnnouncement(ctx, viewerID, target.UserID); err != nil {
		return true, fmt.Errorf("failed to remove like: %w", err)
	}
	return true, nil
}

// IsMatched is symmetric and never fails on missing profiles.
func (s *MatchService) IsMatched(ctx context.Context, userA, userB uint) (bool, error) {
	if userA == userB {
		return false, nil
	}
	db := s.db.WithContext(ctx)

	ab, err := likesUser(db, userA, userB)
	if err != nil || !ab {
		return false, err
	}
	return likesUser(db, userB, userA)
}

// LikesReceived lists users who liked userID's profile and are still
// waiting for an answer.
func (s *MatchService) LikesReceived(ctx context.Context, userID uint) ([]models.User, error) {
	db := s.db.WithContext(ctx)

	var profile models.Profile
	if err := db.Where("user_id = ?", userID).Take(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []models.User{}, nil
		}
		return nil, err
	}

	answered := db.Model(&models.MatchResponse{}).
		Select("profiles.user_id").
		Joins("JOIN profiles ON profiles.id = match_responses.to_profile_id").
		Where("match_responses.from_user_id = ?", userID)

	likers := db.Model(&models.MatchResponse{}).
		Select("from_user_id").
		Where("to_profile_id = ? AND liked = ?", profile.ID, true)

	users := []models.User{}
	err := db.Where("id IN (?)", likers).
		Where("id NOT IN (?)", answered).
		Order("id").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load received likes: %w", err)
	}
	return users, nil
}

func (s *MatchService) respondableProfile(ctx context.Context, viewerID, profileID uint) (*models.Profile, error) {
	target, err := s.visibleProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if target.UserID == viewerID {
		return nil, ErrSelfAction
	}
	return target, nil
}

func (s *MatchService) visibleProfile(ctx context.Context, profileID uint) (*models.Profile, error) {
	var profile models.Profile
	err := s.db.WithContext(ctx).Where("id = ? AND is_visible = ?", profileID, true).Take(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (s *MatchService) announceMatch(ctx context.Context, userA, userB uint) {
	names := usernames(ctx, s.db, userA, userB)

	for _, pair := range [][2]uint{{userA, userB}, {userB, userA}} {
		recipient, other := pair[0], pair[1]
		message := fmt.Sprintf("You matched with %s!", names[other])
		s.dispatcher.NotifyAndEmail(ctx, recipient, "match", "It's a match!", message,
			profileLink(other), map[string]string{"user_id": strconv.FormatUint(uint64(other), 10)})
	}

	s.events.Publish(ctx, DomainEvent{
		Type:       EventMatchCreated,
		ActorID:    userA,
		SubjectID:  userB,
		OccurredAt: s.now().UTC(),
	})

	s.log.WithFields(logrus.Fields{
		"user_id":  userA,
		"other_id": userB,
	}).Info("mutual match created")
}

// claimAnnouncement reports whether this call is the first to announce the
// pair's current match.
func (s *MatchService) claimAnnouncement(ctx context.Context, userA, userB uint) (bool, error) {
	low, high := orderedPair(userA, userB)
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.MatchAnnouncement{UserLowID: low, UserHighID: high, CreatedAt: s.now()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// releaseAnnouncement forgets the pair's announcement once the match is
// broken, so a later match is announced again.
func (s *MatchService) releaseAnnouncement(ctx context.Context, userA, userB uint) error {
	low, high := orderedPair(userA, userB)
	return s.db.WithContext(ctx).
		Where("user_low_id = ? AND user_high_id = ?", low, high).
		Delete(&models.MatchAnnouncement{}).Error
}

func orderedPair(a, b uint) (uint, uint) {
	if a < b {
		return a, b
	}
	return b, a
}

// upsertResponse inserts the (from_user, to_profile) response or overwrites
// its liked flag. The unique pair index makes concurrent calls converge.
func upsertResponse(db *gorm.DB, fromUserID, toProfileID uint, liked bool, now time.Time) error {
	response := models.MatchResponse{
		FromUserID:  fromUserID,
		ToProfileID: toProfileID,
		Liked:       liked,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "from_user_id"}, {Name: "to_profile_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"liked":      liked,
			"updated_at": now,
		}),
	}).Create(&response).Error
}

// likesUser reports whether fromUserID has a liked response on toUserID's
// profile. A missing profile yields false.
func likesUser(db *gorm.DB, fromUserID, toUserID uint) (bool, error) {
	var count int64
	err := db.Model(&models.MatchResponse{}).
		Joins("JOIN profiles ON profiles.id = match_responses.to_profile_id").
		Where("match_responses.from_user_id = ? AND profiles.user_id = ? AND match_responses.liked = ?", fromUserID, toUserID, true).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func usernames(ctx context.Context, db *gorm.DB, ids ...uint) map[uint]string {
	names := make(map[uint]string, len(ids))
	var users []models.User
	if err := db.WithContext(ctx).Select("id", "username").Where("id IN ?", ids).Find(&users).Error; err == nil {
		for _, u := range users {
			names[u.ID] = u.Username
		}
	}
	for _, id := range ids {
		if names[id] == "" {
			names[id] = "a member"
		}
	}
	return names
}

func profileLink(userID uint) string {
	return "/profiles/" + strconv.FormatUint(uint64(userID), 10)
}
