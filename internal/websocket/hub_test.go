package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T, userID uint) (*Hub, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log, _ := test.NewNullLogger()
	hub := NewHub([]string{"https://app.example"}, log)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	router := gin.New()
	router.GET("/ws", func(c *gin.Context) {
		if userID != 0 {
			c.Set("user_id", userID)
		}
		hub.HandleWebSocket(c)
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return hub, "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
}

func TestHubDeliversToConnectedUser(t *testing.T) {
	hub, url := newTestHub(t, 7)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// registration races with the first push, so keep pushing until one lands
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				hub.PushToUser(8, []byte(`{"for":"someone else"}`))
				hub.PushToUser(7, []byte(`{"type":"notification"}`))
			}
		}
	}()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"notification"}`, string(msg))
}

func TestHubRejectsAnonymousAndForeignOrigins(t *testing.T) {
	_, url := newTestHub(t, 0)
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, url = newTestHub(t, 7)
	header := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err = websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestPushToUserNeverBlocks(t *testing.T) {
	log, _ := test.NewNullLogger()
	hub := NewHub(nil, log)

	finished := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			hub.PushToUser(1, []byte("x"))
		}
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("PushToUser blocked without a running hub")
	}
}
