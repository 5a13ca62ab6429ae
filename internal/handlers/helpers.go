package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"house-swap-app/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// respondError maps service errors onto status codes. Unexpected errors are
// logged and hidden behind a generic message.
func respondError(c *gin.Context, log logrus.FieldLogger, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.WithError(err).WithField("path", c.FullPath()).Error(fallback)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

func currentUserID(c *gin.Context) uint {
	return c.GetUint("user_id")
}

// optionalUserID is nil for guests.
func optionalUserID(c *gin.Context) *uint {
	id := c.GetUint("user_id")
	if id == 0 {
		return nil
	}
	return &id
}

func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}
