package handlers

import (
	"net/http"

	"house-swap-app/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type NotificationHandler struct {
	notifications *services.NotificationService
	log           logrus.FieldLogger
}

func NewNotificationHandler(notifications *services.NotificationService, log logrus.FieldLogger) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, log: log}
}

func (h *NotificationHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	userID := currentUserID(c)

	items, err := h.notifications.ListUnread(ctx, userID)
	if err != nil {
		respondError(c, h.log, err, "Failed to load notifications")
		return
	}
	count, err := h.notifications.UnreadCount(ctx, userID)
	if err != nil {
		respondError(c, h.log, err, "Failed to load notifications")
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": items, "unread_count": count})
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	updated, err := h.notifications.MarkAllRead(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, h.log, err, "Failed to update notifications")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All notifications marked as read", "updated": updated})
}

func (h *NotificationHandler) Dismiss(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.notifications.Dismiss(c.Request.Context(), currentUserID(c), id); err != nil {
		respondError(c, h.log, err, "Failed to dismiss notification")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification dismissed"})
}

// Open marks the notification read and hands back its deep link.
func (h *NotificationHandler) Open(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	link, err := h.notifications.Open(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		respondError(c, h.log, err, "Failed to open notification")
		return
	}
	c.JSON(http.StatusOK, gin.H{"link": link})
}
