package handlers

import (
	"net/http"

	"house-swap-app/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type ReviewHandler struct {
	reviews *services.ReviewService
	log     logrus.FieldLogger
}

type LeaveReviewRequest struct {
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}

func NewReviewHandler(reviews *services.ReviewService, log logrus.FieldLogger) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, log: log}
}

func (h *ReviewHandler) Leave(c *gin.Context) {
	revieweeID, ok := idParam(c, "user_id")
	if !ok {
		return
	}

	var req LeaveReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	review, err := h.reviews.Leave(c.Request.Context(), services.LeaveReviewInput{
		ReviewerID: currentUserID(c),
		RevieweeID: revieweeID,
		Rating:     req.Rating,
		Comment:    req.Comment,
	})
	if err != nil {
		respondError(c, h.log, err, "Failed to save review")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Review saved", "review": review})
}

func (h *ReviewHandler) Delete(c *gin.Context) {
	revieweeID, ok := idParam(c, "user_id")
	if !ok {
		return
	}

	if err := h.reviews.Delete(c.Request.Context(), currentUserID(c), revieweeID); err != nil {
		respondError(c, h.log, err, "Failed to delete review")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Review deleted"})
}

func (h *ReviewHandler) List(c *gin.Context) {
	userID, ok := idParam(c, "user_id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	reviews, err := h.reviews.ListFor(ctx, userID)
	if err != nil {
		respondError(c, h.log, err, "Failed to load reviews")
		return
	}
	average, err := h.reviews.AverageRating(ctx, userID)
	if err != nil {
		respondError(c, h.log, err, "Failed to load reviews")
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": reviews, "average_rating": average})
}
