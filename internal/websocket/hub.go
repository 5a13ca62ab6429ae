package websocket

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 64
)

// Hub fans notification payloads out to each user's open connections. All
// client bookkeeping happens on the Run goroutine.
type Hub struct {
	clients    map[uint]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	push       chan userPayload
	done       chan struct{}
	upgrader   websocket.Upgrader
	log        logrus.FieldLogger
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID uint
}

type userPayload struct {
	userID  uint
	payload []byte
}

func NewHub(allowedOrigins []string, log logrus.FieldLogger) *Hub {
	return &Hub{
		clients:    make(map[uint]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		push:       make(chan userPayload, 256),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: originChecker(allowedOrigins),
		},
		log: log,
	}
}

// Run owns the client registry until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, conns := range h.clients {
				for client := range conns {
					close(client.send)
				}
			}
			h.clients = make(map[uint]map[*Client]bool)
			return

		case client := <-h.register:
			if h.clients[client.userID] == nil {
				h.clients[client.userID] = make(map[*Client]bool)
			}
			h.clients[client.userID][client] = true
			h.log.WithField("user_id", client.userID).Debug("websocket client connected")

		case client := <-h.unregister:
			h.drop(client)

		case msg := <-h.push:
			for client := range h.clients[msg.userID] {
				select {
				case client.send <- msg.payload:
				default:
					// slow consumer
					h.drop(client)
				}
			}
		}
	}
}

// PushToUser queues payload for every connection of userID. It never blocks;
// when the queue is full the payload is dropped.
func (h *Hub) PushToUser(userID uint, payload []byte) {
	select {
	case h.push <- userPayload{userID: userID, payload: payload}:
	default:
		h.log.WithField("user_id", userID).Warn("websocket push queue full, dropping notification")
	}
}

func (h *Hub) drop(client *Client) {
	conns, ok := h.clients[client.userID]
	if !ok || !conns[client] {
		return
	}
	delete(conns, client)
	close(client.send)
	if len(conns) == 0 {
		delete(h.clients, client.userID)
	}
	h.log.WithField("user_id", client.userID).Debug("websocket client disconnected")
}

// HandleWebSocket upgrades an authenticated request. It expects the auth
// middleware to have set user_id.
func (h *Hub) HandleWebSocket(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		userID: userID,
	}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump only watches for close and pong frames; clients do not send
// anything meaningful on this socket.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.WithError(err).WithField("user_id", c.userID).Warn("websocket read error")
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.hub.log.WithError(err).WithField("user_id", c.userID).Warn("websocket write error")
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}
