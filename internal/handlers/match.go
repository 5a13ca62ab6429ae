package handlers

import (
	"net/http"

	"house-swap-app/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type MatchHandler struct {
	matches *services.MatchService
	log     logrus.FieldLogger
}

func NewMatchHandler(matches *services.MatchService, log logrus.FieldLogger) *MatchHandler {
	return &MatchHandler{matches: matches, log: log}
}

func (h *MatchHandler) Like(c *gin.Context) {
	profileID, ok := idParam(c, "profile_id")
	if !ok {
		return
	}

	outcome, err := h.matches.Like(c.Request.Context(), currentUserID(c), profileID)
	if err != nil {
		respondError(c, h.log, err, "Failed to like profile")
		return
	}

	message := "Profile liked"
	if outcome.NewMatch {
		message = "It's a match!"
	}
	c.JSON(http.StatusOK, gin.H{"message": message, "match": outcome})
}

func (h *MatchHandler) Pass(c *gin.Context) {
	profileID, ok := idParam(c, "profile_id")
	if !ok {
		return
	}

	if err := h.matches.Pass(c.Request.Context(), currentUserID(c), profileID); err != nil {
		respondError(c, h.log, err, "Failed to pass profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile passed"})
}

func (h *MatchHandler) Unlike(c *gin.Context) {
	profileID, ok := idParam(c, "profile_id")
	if !ok {
		return
	}

	removed, err := h.matches.Unlike(c.Request.Context(), currentUserID(c), profileID)
	if err != nil {
		respondError(c, h.log, err, "Failed to unlike profile")
		return
	}

	message := "Like removed"
	if !removed {
		message = "You had not liked this profile"
	}
	c.JSON(http.StatusOK, gin.H{"message": message, "removed": removed})
}

func (h *MatchHandler) Status(c *gin.Context) {
	otherID, ok := idParam(c, "user_id")
	if !ok {
		return
	}

	matched, err := h.matches.IsMatched(c.Request.Context(), currentUserID(c), otherID)
	if err != nil {
		respondError(c, h.log, err, "Failed to load match status")
		return
	}
	c.JSON(http.StatusOK, gin.H{"is_matched": matched})
}

func (h *MatchHandler) LikesReceived(c *gin.Context) {
	users, err := h.matches.LikesReceived(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, h.log, err, "Failed to load likes")
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}
