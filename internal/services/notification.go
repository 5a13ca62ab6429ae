package services

import (
	"context"
	"errors"
	"fmt"

	"house-swap-app/internal/models"

	"gorm.io/gorm"
)

type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

func (s *NotificationService) ListUnread(ctx context.Context, userID uint) ([]models.Notification, error) {
	notifications := []models.Notification{}
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_read = ?", userID, false).
		Order("created_at DESC").
		Order("id DESC").
		Find(&notifications).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load notifications: %w", err)
	}
	return notifications, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Dismiss marks one notification read. Rows owned by other users are
// reported as missing.
func (s *NotificationService) Dismiss(ctx context.Context, userID, notificationID uint) error {
	_, err := s.markRead(ctx, userID, notificationID)
	return err
}

// Open marks the notification read and returns the link it points to.
func (s *NotificationService) Open(ctx context.Context, userID, notificationID uint) (string, error) {
	n, err := s.markRead(ctx, userID, notificationID)
	if err != nil {
		return "", err
	}
	return n.Link, nil
}

func (s *NotificationService) markRead(ctx context.Context, userID, notificationID uint) (*models.Notification, error) {
	db := s.db.WithContext(ctx)

	var n models.Notification
	err := db.Where("id = ? AND user_id = ?", notificationID, userID).Take(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotificationNotFound
	}
	if err != nil {
		return nil, err
	}

	if !n.IsRead {
		if err := db.Model(&n).Update("is_read", true).Error; err != nil {
			return nil, fmt.Errorf("failed to update notification: %w", err)
		}
		n.IsRead = true
	}
	return &n, nil
}
