package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"house-swap-app/internal/models"

	"gorm.io/gorm"
)

type SendMessageInput struct {
	SenderID    uint   `validate:"required"`
	RecipientID uint   `validate:"required"`
	Content     string `validate:"notblank,max=4000"`
}

type MessageService struct {
	db         *gorm.DB
	matches    *MatchService
	dispatcher *Dispatcher
	now        func() time.Time
}

func NewMessageService(db *gorm.DB, matches *MatchService, dispatcher *Dispatcher) *MessageService {
	return &MessageService{db: db, matches: matches, dispatcher: dispatcher, now: time.Now}
}

func (s *MessageService) Send(ctx context.Context, input SendMessageInput) (*models.Message, error) {
	if input.SenderID == input.RecipientID {
		return nil, ErrSelfAction
	}
	input.Content = strings.TrimSpace(input.Content)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	matched, err := s.matches.IsMatched(ctx, input.SenderID, input.RecipientID)
	if err != nil {
		return nil, err
	}
	if !matched {
		return nil, ErrNotMatched
	}

	message := models.Message{
		SenderID:    input.SenderID,
		RecipientID: input.RecipientID,
		Content:     input.Content,
		CreatedAt:   s.now(),
	}
	if err := s.db.WithContext(ctx).Create(&message).Error; err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	names := usernames(ctx, s.db, input.SenderID)
	if _, err := s.dispatcher.Notify(ctx, input.RecipientID, "message",
		fmt.Sprintf("New message from %s.", names[input.SenderID]),
		conversationLink(input.SenderID),
		map[string]string{"message_id": strconv.FormatUint(uint64(message.ID), 10)},
	); err != nil {
		s.dispatcher.log.WithError(err).WithField("user_id", input.RecipientID).Error("failed to record message notification")
	}

	return &message, nil
}

// Conversation returns every message between the pair, oldest first.
func (s *MessageService) Conversation(ctx context.Context, userA, userB uint) ([]models.Message, error) {
	messages := []models.Message{}
	err := s.db.WithContext(ctx).
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)", userA, userB, userB, userA).
		Order("created_at ASC").
		Order("id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	return messages, nil
}
