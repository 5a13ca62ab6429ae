package handlers

import (
	"net/http"

	"house-swap-app/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const feedSessionHeader = "X-Feed-Session"

type DiscoveryHandler struct {
	feed  *services.DiscoveryService
	store services.FeedStore
	log   logrus.FieldLogger
}

func NewDiscoveryHandler(feed *services.DiscoveryService, store services.FeedStore, log logrus.FieldLogger) *DiscoveryHandler {
	return &DiscoveryHandler{feed: feed, store: store, log: log}
}

// Next serves the next candidate of the caller's browsing session. Feed
// failures are logged and reported as an empty feed, never as errors.
func (h *DiscoveryHandler) Next(c *gin.Context) {
	var filters services.FeedFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	viewerID := optionalUserID(c)

	sessionID := c.GetHeader(feedSessionHeader)
	if _, err := uuid.Parse(sessionID); err != nil {
		sessionID = uuid.NewString()
	}
	c.Header(feedSessionHeader, sessionID)

	logger := h.log.WithField("session_id", sessionID)

	state, err := h.store.Load(ctx, viewerID, sessionID)
	if err != nil {
		logger.WithError(err).Warn("feed session unavailable, starting over")
		state = services.FeedState{SessionID: sessionID}
	}

	state, result, err := h.feed.Next(ctx, viewerID, state, filters)
	if err != nil {
		logger.WithError(err).Error("discovery feed failed")
		c.JSON(http.StatusOK, services.FeedResult{Signal: services.FeedNoProfiles})
		return
	}

	if err := h.store.Save(ctx, viewerID, state); err != nil {
		logger.WithError(err).Warn("failed to save feed session")
	}

	c.JSON(http.StatusOK, result)
}
