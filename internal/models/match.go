package models

import (
	"time"

	"gorm.io/datatypes"
)

// MatchResponse is a directed like/dislike from a user towards a profile.
type MatchResponse struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	FromUserID  uint      `json:"from_user_id" gorm:"not null;uniqueIndex:idx_match_responses_pair"`
	ToProfileID uint      `json:"to_profile_id" gorm:"not null;uniqueIndex:idx_match_responses_pair;index"`
	Liked       bool      `json:"liked" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MatchAnnouncement marks a mutual match as announced. The pair is stored
// with the lower user id first so either side claims the same row.
type MatchAnnouncement struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UserLowID  uint      `json:"user_low_id" gorm:"not null;uniqueIndex:idx_match_announcements_pair"`
	UserHighID uint      `json:"user_high_id" gorm:"not null;uniqueIndex:idx_match_announcements_pair;index"`
	CreatedAt  time.Time `json:"created_at"`
}

type BookingStatus string

const (
	BookingPending  BookingStatus = "pending"
	BookingAccepted BookingStatus = "accepted"
	BookingAmended  BookingStatus = "amended"
	BookingDenied   BookingStatus = "denied"
)

type BookingRequest struct {
	ID             uint          `json:"id" gorm:"primaryKey"`
	SenderID       uint          `json:"sender_id" gorm:"not null;index"`
	RecipientID    uint          `json:"recipient_id" gorm:"not null;index"`
	RequestedDates string        `json:"requested_dates" gorm:"size:100;not null"`
	Message        string        `json:"message"`
	Status         BookingStatus `json:"status" gorm:"size:20;not null;default:pending"`
	CreatedAt      time.Time     `json:"created_at" gorm:"index"`
	RespondedAt    *time.Time    `json:"responded_at,omitempty"`
	LastActionByID *uint         `json:"last_action_by,omitempty"`
}

// Counterpart returns the participant that is not userID.
func (b BookingRequest) Counterpart(userID uint) uint {
	if b.SenderID == userID {
		return b.RecipientID
	}
	return b.SenderID
}

func (b BookingRequest) HasParticipant(userID uint) bool {
	return b.SenderID == userID || b.RecipientID == userID
}

type Review struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	ReviewerID uint      `json:"reviewer_id" gorm:"not null;uniqueIndex:idx_reviews_pair"`
	RevieweeID uint      `json:"reviewee_id" gorm:"not null;uniqueIndex:idx_reviews_pair;index"`
	Rating     int       `json:"rating" gorm:"not null"`
	Comment    string    `json:"comment" gorm:"not null"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Message struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	SenderID    uint      `json:"sender_id" gorm:"not null;index"`
	RecipientID uint      `json:"recipient_id" gorm:"not null;index"`
	Content     string    `json:"content" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at"`
}

type Notification struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	UserID    uint           `json:"user_id" gorm:"not null;index"`
	Type      string         `json:"type" gorm:"not null"` // match, booking, message, review
	Message   string         `json:"message" gorm:"not null"`
	Link      string         `json:"link,omitempty"`
	Data      datatypes.JSON `json:"data,omitempty"`
	IsRead    bool           `json:"is_read" gorm:"default:false;index"`
	CreatedAt time.Time      `json:"created_at"`
}
