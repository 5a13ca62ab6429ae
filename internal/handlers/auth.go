package handlers

import (
	"errors"
	"net/http"
	"time"

	"house-swap-app/internal/middleware"
	"house-swap-app/internal/models"
	"house-swap-app/internal/redis"
	"house-swap-app/internal/services"
	"house-swap-app/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type AuthHandler struct {
	accounts *services.AccountService
	tokens   *utils.TokenManager
	redis    *redis.Client
	ttl      time.Duration
	log      logrus.FieldLogger
}

type RegisterRequest struct {
	Username  string `json:"username" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type PushTokenRequest struct {
	Token string `json:"token"`
}

// NewAuthHandler records sessions in redis when a client is given.
func NewAuthHandler(accounts *services.AccountService, tokens *utils.TokenManager, redis *redis.Client, ttl time.Duration, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		tokens:   tokens,
		redis:    redis,
		ttl:      ttl,
		log:      log,
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.accounts.Register(c.Request.Context(), services.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		respondError(c, h.log, err, "Failed to create user")
		return
	}

	h.issueToken(c, http.StatusCreated, user)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.accounts.Authenticate(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, services.ErrBadCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err != nil {
		respondError(c, h.log, err, "Failed to log in")
		return
	}

	h.issueToken(c, http.StatusOK, user)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if h.redis != nil {
		if err := h.redis.Del(c.Request.Context(), middleware.SessionKey(c.GetString("session_id"))); err != nil {
			h.log.WithError(err).Warn("failed to remove session")
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (h *AuthHandler) SetPushToken(c *gin.Context) {
	var req PushTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.accounts.SetPushToken(c.Request.Context(), currentUserID(c), req.Token); err != nil {
		respondError(c, h.log, err, "Failed to update push token")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Push token updated"})
}

func (h *AuthHandler) issueToken(c *gin.Context, status int, user *models.User) {
	sessionID := uuid.NewString()
	accessToken, err := h.tokens.GenerateToken(user.ID, user.Email, sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	if h.redis != nil {
		ctx := c.Request.Context()
		key := middleware.SessionKey(sessionID)
		err := h.redis.HSet(ctx, key,
			"user_id", user.ID,
			"email", user.Email,
			"logged_in_at", time.Now().Unix(),
		)
		if err == nil {
			err = h.redis.Expire(ctx, key, h.ttl)
		}
		if err != nil {
			h.log.WithError(err).WithField("user_id", user.ID).Error("failed to store session")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store session"})
			return
		}
	}

	c.JSON(status, gin.H{
		"access_token": accessToken,
		"user":         user,
	})
}
