package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"rightbridge-server/models"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Auth happens before the upgrade, token in query
		return true
	},
}

// Client is a single websocket connection owned by an authenticated user.
// Send is closed exactly once, via closeSend, and all writes to it go through
// trySend so a send can never race the close.
type Client struct {
	ID     string
	UserID uint
	Role   models.UserRole
	hub    *Hub
	conn   *websocket.Conn
	Send   chan []byte

	mu     sync.Mutex
	closed bool
}

// trySend queues data on the send channel without blocking. Returns false
// when the buffer is full or the channel is already closed.
func (c *Client) trySend(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

// closeSend closes the send channel. Safe to call more than once.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// clientMessage is the envelope for messages sent by the peer
type clientMessage struct {
	Type string `json:"type"`
}

// ServeWebSocket upgrades an authenticated request to a websocket connection
// and registers the client with the hub. The user must already be set in the
// context by WebSocketAuthMiddleware.
func ServeWebSocket(hub *Hub, c *gin.Context) {
	value, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "Authentication required",
			"message": "Please sign in first",
		})
		return
	}
	user := value.(models.User)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Errorf("websocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		ID:     uuid.New().String(),
		UserID: user.ID,
		Role:   user.Role,
		hub:    hub,
		conn:   conn,
		Send:   make(chan []byte, 64),
	}

	client.hub.Register <- client

	go client.writePump()
	go client.readPump()
}

// readPump reads messages from the websocket connection and dispatches them.
// A goroutine per connection; ensures the client is unregistered on exit.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warnf("websocket read error for conn %s: %v", c.ID, err)
			}
			break
		}

		var msg clientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Debugf("ignoring malformed message from conn %s", c.ID)
			continue
		}

		switch msg.Type {
		case "subscribeToUpdates":
			// Dashboard updates are admin-only
			if c.Role != models.RoleAdmin {
				log.Warnf("user %d attempted dashboard subscription with role %s", c.UserID, c.Role)
				continue
			}
			c.hub.Subscribe(c, TopicAdminDashboard)
			c.sendJSON(map[string]interface{}{
				"type":  "subscribed",
				"topic": TopicAdminDashboard,
			})

		case "unsubscribeFromUpdates":
			c.hub.Unsubscribe(c, TopicAdminDashboard)

		case "ping":
			c.sendJSON(map[string]interface{}{"type": "pong"})

		default:
			log.Debugf("unknown message type %q from conn %s", msg.Type, c.ID)
		}
	}
}

// writePump writes messages from the send channel to the websocket connection
// and keeps the connection alive with periodic pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// sendJSON queues a JSON payload on the client's send channel without
// blocking the read loop. Dropped silently when the client is disconnected
// or its buffer is full.
func (c *Client) sendJSON(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.trySend(data)
}
