package handlers

import (
	"net/http"

	"house-swap-app/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type MessageHandler struct {
	messages *services.MessageService
	log      logrus.FieldLogger
}

type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

func NewMessageHandler(messages *services.MessageService, log logrus.FieldLogger) *MessageHandler {
	return &MessageHandler{messages: messages, log: log}
}

func (h *MessageHandler) GetConversation(c *gin.Context) {
	otherID, ok := idParam(c, "user_id")
	if !ok {
		return
	}

	messages, err := h.messages.Conversation(c.Request.Context(), currentUserID(c), otherID)
	if err != nil {
		respondError(c, h.log, err, "Failed to load messages")
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

func (h *MessageHandler) SendMessage(c *gin.Context) {
	recipientID, ok := idParam(c, "user_id")
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message, err := h.messages.Send(c.Request.Context(), services.SendMessageInput{
		SenderID:    currentUserID(c),
		RecipientID: recipientID,
		Content:     req.Content,
	})
	if err != nil {
		respondError(c, h.log, err, "Failed to send message")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": message})
}
