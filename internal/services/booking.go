package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"house-swap-app/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// BookingAction is a response to an open booking request.
type BookingAction string

const (
	ActionAccept BookingAction = "accepted"
	ActionAmend  BookingAction = "amended"
	ActionDeny   BookingAction = "denied"
)

type CreateBookingInput struct {
	SenderID       uint   `validate:"required"`
	RecipientID    uint   `validate:"required,nefield=SenderID"`
	RequestedDates string `validate:"notblank,max=100"`
	Message        string `validate:"max=2000"`
}

type BookingService struct {
	db         *gorm.DB
	dispatcher *Dispatcher
	events     EventPublisher
	log        logrus.FieldLogger
	now        func() time.Time
}

func NewBookingService(db *gorm.DB, dispatcher *Dispatcher, events EventPublisher, log logrus.FieldLogger) *BookingService {
	if events == nil {
		events = NoopPublisher{}
	}
	return &BookingService{
		db:         db,
		dispatcher: dispatcher,
		events:     events,
		log:        log,
		now:        time.Now,
	}
}

// Create opens a pending request. Callers are responsible for checking that
// the two users are matched.
func (s *BookingService) Create(ctx context.Context, input CreateBookingInput) (*models.BookingRequest, error) {
	input.RequestedDates = strings.TrimSpace(input.RequestedDates)
	if input.SenderID != 0 && input.SenderID == input.RecipientID {
		return nil, ErrSelfAction
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	senderID := input.SenderID
	booking := models.BookingRequest{
		SenderID:       input.SenderID,
		RecipientID:    input.RecipientID,
		RequestedDates: input.RequestedDates,
		Message:        strings.TrimSpace(input.Message),
		Status:         models.BookingPending,
		CreatedAt:      s.now(),
		LastActionByID: &senderID,
	}
	if err := s.db.WithContext(ctx).Create(&booking).Error; err != nil {
		return nil, fmt.Errorf("failed to create booking request: %w", err)
	}

	names := usernames(ctx, s.db, input.SenderID)
	message := fmt.Sprintf("%s sent you a booking request for %s.", names[input.SenderID], booking.RequestedDates)
	s.dispatcher.NotifyAndEmail(ctx, booking.RecipientID, "booking", "New booking request", message,
		conversationLink(input.SenderID), bookingData(booking))

	s.publish(ctx, EventBookingCreated, input.SenderID, booking)
	return &booking, nil
}

// Respond applies accept, amend or deny. Accepted and denied requests can
// only be cancelled afterwards. Concurrent responses are last-write-wins.
func (s *BookingService) Respond(ctx context.Context, actorID, bookingID uint, action BookingAction, amendedDates string) (*models.BookingRequest, error) {
	booking, err := s.participantBooking(ctx, actorID, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.Status == models.BookingAccepted || booking.Status == models.BookingDenied {
		return nil, ErrInvalidTransition
	}

	now := s.now()
	switch action {
	case ActionAmend:
		amendedDates = strings.TrimSpace(amendedDates)
		if amendedDates == "" {
			return nil, fmt.Errorf("%w: amended dates are required", ErrValidation)
		}
		booking.RequestedDates = amendedDates
		booking.Status = models.BookingAmended
	case ActionAccept:
		booking.Status = models.BookingAccepted
		booking.RespondedAt = &now
	case ActionDeny:
		booking.Status = models.BookingDenied
		booking.RespondedAt = &now
	default:
		return nil, fmt.Errorf("%w: unknown booking action %q", ErrValidation, action)
	}
	booking.LastActionByID = &actorID

	if err := s.db.WithContext(ctx).Save(booking).Error; err != nil {
		return nil, fmt.Errorf("failed to update booking request: %w", err)
	}

	counterpart := booking.Counterpart(actorID)
	names := usernames(ctx, s.db, actorID)
	var subject, message string
	switch action {
	case ActionAmend:
		subject = "Booking dates amended"
		message = fmt.Sprintf("%s proposed new dates: %s.", names[actorID], booking.RequestedDates)
	case ActionAccept:
		subject = "Booking accepted"
		message = fmt.Sprintf("%s accepted the booking for %s.", names[actorID], booking.RequestedDates)
	case ActionDeny:
		subject = "Booking declined"
		message = fmt.Sprintf("%s declined the booking for %s.", names[actorID], booking.RequestedDates)
	}
	s.dispatcher.NotifyAndEmail(ctx, counterpart, "booking", subject, message,
		conversationLink(actorID), bookingData(*booking))

	s.publish(ctx, EventBookingResponded, actorID, *booking)
	return booking, nil
}

// Cancel hard-deletes the request from any state and tells the other
// participant which dates were dropped.
func (s *BookingService) Cancel(ctx context.Context, actorID, bookingID uint) error {
	booking, err := s.participantBooking(ctx, actorID, bookingID)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(&models.BookingRequest{}, booking.ID).Error; err != nil {
		return fmt.Errorf("failed to cancel booking request: %w", err)
	}

	counterpart := booking.Counterpart(actorID)
	names := usernames(ctx, s.db, actorID)
	message := fmt.Sprintf("%s cancelled the booking for %s.", names[actorID], booking.RequestedDates)
	s.dispatcher.NotifyAndEmail(ctx, counterpart, "booking", "Booking cancelled", message,
		conversationLink(actorID), bookingData(*booking))

	s.publish(ctx, EventBookingCancelled, actorID, *booking)
	return nil
}

// GetCurrent returns the most recently created request between the pair,
// whatever its status, or nil when there is none.
func (s *BookingService) GetCurrent(ctx context.Context, userA, userB uint) (*models.BookingRequest, error) {
	var booking models.BookingRequest
	err := s.db.WithContext(ctx).
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)", userA, userB, userB, userA).
		Order("created_at DESC").
		Order("id DESC").
		Take(&booking).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load current booking: %w", err)
	}
	return &booking, nil
}

func (s *BookingService) participantBooking(ctx context.Context, actorID, bookingID uint) (*models.BookingRequest, error) {
	var booking models.BookingRequest
	err := s.db.WithContext(ctx).First(&booking, bookingID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	if !booking.HasParticipant(actorID) {
		return nil, ErrNotParticipant
	}
	return &booking, nil
}

func (s *BookingService) publish(ctx context.Context, kind string, actorID uint, booking models.BookingRequest) {
	s.events.Publish(ctx, DomainEvent{
		Type:       kind,
		ActorID:    actorID,
		SubjectID:  booking.ID,
		Attributes: bookingData(booking),
		OccurredAt: s.now().UTC(),
	})
	s.log.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"actor_id":   actorID,
		"status":     booking.Status,
	}).Info(kind)
}

func bookingData(b models.BookingRequest) map[string]string {
	return map[string]string{
		"booking_id": strconv.FormatUint(uint64(b.ID), 10),
		"status":     string(b.Status),
		"dates":      b.RequestedDates,
	}
}

func conversationLink(userID uint) string {
	return "/messages/" + strconv.FormatUint(uint64(userID), 10)
}
