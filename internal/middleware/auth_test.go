package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"house-swap-app/internal/redis"
	"house-swap-app/internal/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(tokens *utils.TokenManager, sessions *redis.Client) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS([]string{"https://app.example"}))
	whoami := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetUint("user_id")})
	}
	r.GET("/private", AuthRequired(tokens, sessions), whoami)
	r.GET("/public", OptionalAuth(tokens, sessions), whoami)
	r.GET("/ws", WebSocketAuth(tokens, sessions), whoami)
	return r
}

func newSessions(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()})), mr
}

func get(r http.Handler, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	tokens := utils.NewTokenManager("secret", time.Hour)
	sessions, _ := newSessions(t)
	require.NoError(t, sessions.HSet(context.Background(), SessionKey("sid-1"), "user_id", uint(12)))
	token, err := tokens.GenerateToken(12, "a@example.com", "sid-1")
	require.NoError(t, err)
	r := newTestRouter(tokens, sessions)

	assert.Equal(t, http.StatusUnauthorized, get(r, "/private", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/private", token).Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/private", "Bearer nope").Code)

	w := get(r, "/private", "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":12}`, w.Body.String())

	w = get(r, "/public", "")
	assert.JSONEq(t, `{"user_id":0}`, w.Body.String())
	w = get(r, "/public", "Bearer nope")
	assert.JSONEq(t, `{"user_id":0}`, w.Body.String())
	w = get(r, "/public", "Bearer "+token)
	assert.JSONEq(t, `{"user_id":12}`, w.Body.String())

	w = get(r, "/ws?token="+token, "")
	assert.JSONEq(t, `{"user_id":12}`, w.Body.String())
}

func TestAuthRejectsRevokedSessions(t *testing.T) {
	ctx := context.Background()
	tokens := utils.NewTokenManager("secret", time.Hour)
	sessions, mr := newSessions(t)
	r := newTestRouter(tokens, sessions)

	token, err := tokens.GenerateToken(12, "a@example.com", "sid-1")
	require.NoError(t, err)

	// never stored
	assert.Equal(t, http.StatusUnauthorized, get(r, "/private", "Bearer "+token).Code)

	// stored for another user
	require.NoError(t, sessions.HSet(ctx, SessionKey("sid-1"), "user_id", uint(99)))
	assert.Equal(t, http.StatusUnauthorized, get(r, "/private", "Bearer "+token).Code)

	require.NoError(t, sessions.HSet(ctx, SessionKey("sid-1"), "user_id", uint(12)))
	assert.Equal(t, http.StatusOK, get(r, "/private", "Bearer "+token).Code)

	require.NoError(t, sessions.Del(ctx, SessionKey("sid-1")))
	assert.Equal(t, http.StatusUnauthorized, get(r, "/private", "Bearer "+token).Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/ws?token="+token, "").Code)
	assert.JSONEq(t, `{"user_id":0}`, get(r, "/public", "Bearer "+token).Body.String())

	require.NoError(t, sessions.HSet(ctx, SessionKey("sid-1"), "user_id", uint(12)))
	mr.Close()
	assert.Equal(t, http.StatusServiceUnavailable, get(r, "/private", "Bearer "+token).Code)
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	r := newTestRouter(utils.NewTokenManager("secret", time.Hour), nil)

	req := httptest.NewRequest(http.MethodOptions, "/public", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))
}
