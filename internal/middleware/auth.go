package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"house-swap-app/internal/redis"
	"house-swap-app/internal/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SessionKey is the redis hash holding a login session.
func SessionKey(sessionID string) string {
	return "session:" + sessionID
}

// AuthRequired rejects requests without a valid bearer token or whose
// session was revoked, and stores the caller's id under "user_id" and the
// session id under "session_id". A nil sessions client skips the lookup.
func AuthRequired(tokens *utils.TokenManager, sessions *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Bearer token required"})
			c.Abort()
			return
		}

		claims, err := tokens.ValidateToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		active, err := sessionActive(c.Request.Context(), sessions, claims)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Session store unavailable"})
			c.Abort()
			return
		}
		if !active {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Session expired"})
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("session_id", claims.SessionID)
		c.Next()
	}
}

// OptionalAuth sets "user_id" when a valid token with a live session is
// present and lets guests through otherwise.
func OptionalAuth(tokens *utils.TokenManager, sessions *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if tokenString := strings.TrimPrefix(authHeader, "Bearer "); tokenString != authHeader && tokenString != "" {
			if claims, err := tokens.ValidateToken(tokenString); err == nil {
				if active, err := sessionActive(c.Request.Context(), sessions, claims); err == nil && active {
					c.Set("user_id", claims.UserID)
					c.Set("session_id", claims.SessionID)
				}
			}
		}
		c.Next()
	}
}

// WebSocketAuth accepts the token from the "token" query parameter because
// browsers cannot set headers on websocket upgrades.
func WebSocketAuth(tokens *utils.TokenManager, sessions *redis.Client) gin.HandlerFunc {
	required := AuthRequired(tokens, sessions)
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			if token := c.Query("token"); token != "" {
				c.Request.Header.Set("Authorization", "Bearer "+token)
			}
		}
		required(c)
	}
}

// sessionActive reports whether the token's session still exists and belongs
// to the token's user.
func sessionActive(ctx context.Context, sessions *redis.Client, claims *utils.Claims) (bool, error) {
	if sessions == nil {
		return true, nil
	}
	values, err := sessions.HGetAll(ctx, SessionKey(claims.SessionID))
	if err != nil {
		return false, err
	}
	return values["user_id"] == strconv.FormatUint(uint64(claims.UserID), 10), nil
}

func CORS(allowedOrigins []string) gin.HandlerFunc {
	config := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization", "X-Feed-Session"},
		ExposeHeaders:    []string{"X-Feed-Session"},
		AllowCredentials: true,
	}
	for _, origin := range allowedOrigins {
		if origin == "*" {
			config.AllowOriginFunc = func(string) bool { return true }
			return cors.New(config)
		}
	}
	config.AllowOrigins = allowedOrigins
	return cors.New(config)
}
