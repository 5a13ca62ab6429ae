package handlers

import (
	"net/http"

	"house-swap-app/internal/models"
	"house-swap-app/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type BookingHandler struct {
	bookings *services.BookingService
	matches  *services.MatchService
	log      logrus.FieldLogger
	actions  map[string]bookingActionFunc
}

type CreateBookingRequest struct {
	RecipientID    uint   `json:"recipient_id" binding:"required"`
	RequestedDates string `json:"requested_dates" binding:"required"`
	Message        string `json:"message"`
}

type BookingActionRequest struct {
	Action string `json:"action" binding:"required,oneof=accept amend deny cancel"`
	Dates  string `json:"dates"`
}

// bookingActionFunc handles one booking action. A nil booking means the
// request no longer exists.
type bookingActionFunc func(c *gin.Context, actorID, bookingID uint, req BookingActionRequest) (*models.BookingRequest, error)

func NewBookingHandler(bookings *services.BookingService, matches *services.MatchService, log logrus.FieldLogger) *BookingHandler {
	h := &BookingHandler{bookings: bookings, matches: matches, log: log}
	h.actions = map[string]bookingActionFunc{
		"accept": h.respondWith(services.ActionAccept),
		"amend":  h.respondWith(services.ActionAmend),
		"deny":   h.respondWith(services.ActionDeny),
		"cancel": h.cancel,
	}
	return h
}

func (h *BookingHandler) Create(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	senderID := currentUserID(c)

	matched, err := h.matches.IsMatched(ctx, senderID, req.RecipientID)
	if err != nil {
		respondError(c, h.log, err, "Failed to create booking")
		return
	}
	if !matched {
		respondError(c, h.log, services.ErrNotMatched, "Failed to create booking")
		return
	}

	booking, err := h.bookings.Create(ctx, services.CreateBookingInput{
		SenderID:       senderID,
		RecipientID:    req.RecipientID,
		RequestedDates: req.RequestedDates,
		Message:        req.Message,
	})
	if err != nil {
		respondError(c, h.log, err, "Failed to create booking")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Booking request sent", "booking": booking})
}

func (h *BookingHandler) Current(c *gin.Context) {
	otherID, ok := idParam(c, "user_id")
	if !ok {
		return
	}

	booking, err := h.bookings.GetCurrent(c.Request.Context(), currentUserID(c), otherID)
	if err != nil {
		respondError(c, h.log, err, "Failed to load booking")
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": booking})
}

// Act dispatches one booking action by name.
func (h *BookingHandler) Act(c *gin.Context) {
	bookingID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req BookingActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	action, ok := h.actions[req.Action]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown booking action"})
		return
	}

	booking, err := action(c, currentUserID(c), bookingID, req)
	if err != nil {
		respondError(c, h.log, err, "Failed to update booking")
		return
	}
	if booking == nil {
		c.JSON(http.StatusOK, gin.H{"message": "Booking cancelled"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Booking " + string(booking.Status), "booking": booking})
}

func (h *BookingHandler) respondWith(action services.BookingAction) bookingActionFunc {
	return func(c *gin.Context, actorID, bookingID uint, req BookingActionRequest) (*models.BookingRequest, error) {
		return h.bookings.Respond(c.Request.Context(), actorID, bookingID, action, req.Dates)
	}
}

func (h *BookingHandler) cancel(c *gin.Context, actorID, bookingID uint, _ BookingActionRequest) (*models.BookingRequest, error) {
	return nil, h.bookings.Cancel(c.Request.Context(), actorID, bookingID)
}
