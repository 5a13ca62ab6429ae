package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"house-swap-app/internal/models"

	"gorm.io/gorm"
)

type LeaveReviewInput struct {
	ReviewerID uint   `validate:"required"`
	RevieweeID uint   `validate:"required"`
	Rating     int    `validate:"min=1,max=5"`
	Comment    string `validate:"notblank,max=2000"`
}

type ReviewService struct {
	db      *gorm.DB
	matches *MatchService
	now     func() time.Time
}

func NewReviewService(db *gorm.DB, matches *MatchService) *ReviewService {
	return &ReviewService{db: db, matches: matches, now: time.Now}
}

// Leave creates the reviewer's review of the reviewee or edits the one that
// already exists. Only matched users can review each other.
func (s *ReviewService) Leave(ctx context.Context, input LeaveReviewInput) (*models.Review, error) {
	if input.ReviewerID == input.RevieweeID {
		return nil, ErrSelfAction
	}
	input.Comment = strings.TrimSpace(input.Comment)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	matched, err := s.matches.IsMatched(ctx, input.ReviewerID, input.RevieweeID)
	if err != nil {
		return nil, err
	}
	if !matched {
		return nil, ErrNotMatched
	}

	db := s.db.WithContext(ctx)
	var review models.Review
	err = db.Where("reviewer_id = ? AND reviewee_id = ?", input.ReviewerID, input.RevieweeID).Take(&review).Error
	switch {
	case err == nil:
		review.Rating = input.Rating
		review.Comment = input.Comment
		review.UpdatedAt = s.now()
		if err := db.Save(&review).Error; err != nil {
			return nil, fmt.Errorf("failed to update review: %w", err)
		}
		return &review, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	now := s.now()
	review = models.Review{
		ReviewerID: input.ReviewerID,
		RevieweeID: input.RevieweeID,
		Rating:     input.Rating,
		Comment:    input.Comment,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := db.Create(&review).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateReview
		}
		return nil, fmt.Errorf("failed to create review: %w", err)
	}
	return &review, nil
}

func (s *ReviewService) Delete(ctx context.Context, reviewerID, revieweeID uint) error {
	res := s.db.WithContext(ctx).
		Where("reviewer_id = ? AND reviewee_id = ?", reviewerID, revieweeID).
		Delete(&models.Review{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete review: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrReviewNotFound
	}
	return nil
}

// ListFor returns reviews received by userID, newest first.
func (s *ReviewService) ListFor(ctx context.Context, userID uint) ([]models.Review, error) {
	reviews := []models.Review{}
	err := s.db.WithContext(ctx).
		Where("reviewee_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load reviews: %w", err)
	}
	return reviews, nil
}

// AverageRating is nil when the user has no reviews.
func (s *ReviewService) AverageRating(ctx context.Context, userID uint) (*float64, error) {
	var row struct {
		Average *float64
		Total   int64
	}
	err := s.db.WithContext(ctx).
		Model(&models.Review{}).
		Select("AVG(rating) AS average, COUNT(*) AS total").
		Where("reviewee_id = ?", userID).
		Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute average rating: %w", err)
	}
	if row.Total == 0 {
		return nil, nil
	}
	return row.Average, nil
}

// isUniqueViolation covers both postgres and sqlite wording.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
