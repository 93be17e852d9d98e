package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 1024

	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client represents a WebSocket client connection
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	send   chan []byte
	sendMu sync.Mutex
	closed bool

	id string
	ip string

	subscriptions map[string]bool
	subMu         sync.Mutex

	messageCount int
	lastReset    time.Time
}

// ClientMessage represents a message from a client
type ClientMessage struct {
	Action  string `json:"action"` // "subscribe", "unsubscribe", "ping"
	Channel string `json:"channel"`
}

// NewClient creates a new Client
func NewClient(hub *Hub, conn *websocket.Conn, id, ip string) *Client {
	return &Client{
		hub:           hub,
		conn:          conn,
		send:          make(chan []byte, sendBufferSize),
		id:            id,
		ip:            ip,
		subscriptions: make(map[string]bool),
		lastReset:     time.Now(),
	}
}

// Send queues a message; it is dropped when the buffer is full or the
// client is gone
func (c *Client) Send(message []byte) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.closed {
		return
	}
	select {
	case c.send <- message:
	default:
	}
}

// close is called by the hub exactly once per registered client
func (c *Client) close() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// readPump pumps messages from the WebSocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug("websocket read error", "client", c.id, "error", err)
			}
			return
		}

		if !c.checkRateLimit() {
			c.sendError("rate_limit_exceeded", "Too many messages, please slow down")
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.sendError("invalid_message", "Failed to parse message")
			continue
		}
		c.handleMessage(&msg)
	}
}

// writePump pumps messages from the hub to the WebSocket connection
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

func (c *Client) handleMessage(msg *ClientMessage) {
	switch msg.Action {
	case "subscribe":
		c.handleSubscribe(msg.Channel)
	case "unsubscribe":
		c.handleUnsubscribe(msg.Channel)
	case "ping":
		c.Send(encode(&WSMessage{
			Type: "pong",
			Data: map[string]int64{"timestamp": time.Now().UnixMilli()},
		}))
	default:
		c.sendError("unknown_action", "Unknown action: "+msg.Action)
	}
}

func (c *Client) handleSubscribe(channel string) {
	if !CanSubscribe(channel) {
		c.sendError("invalid_channel", "Unknown channel: "+channel)
		return
	}

	c.subMu.Lock()
	if !c.subscriptions[channel] && len(c.subscriptions) >= c.hub.config.MaxSubscriptions {
		c.subMu.Unlock()
		c.sendError("subscription_limit", "Maximum subscription limit reached")
		return
	}
	c.subscriptions[channel] = true
	c.subMu.Unlock()

	select {
	case c.hub.subscribe <- &SubscriptionRequest{Client: c, Channel: channel}:
	case <-c.hub.done:
	}
}

func (c *Client) handleUnsubscribe(channel string) {
	c.subMu.Lock()
	delete(c.subscriptions, channel)
	c.subMu.Unlock()

	select {
	case c.hub.unsubscribe <- &SubscriptionRequest{Client: c, Channel: channel}:
	case <-c.hub.done:
	}
}

// checkRateLimit is a fixed one-second window per client
func (c *Client) checkRateLimit() bool {
	now := time.Now()
	if now.Sub(c.lastReset) >= time.Second {
		c.messageCount = 0
		c.lastReset = now
	}
	c.messageCount++
	return c.messageCount <= c.hub.config.MessageRateLimit
}

func (c *Client) sendError(code, message string) {
	c.Send(encode(&WSMessage{
		Type: "error",
		Data: map[string]string{
			"code":    code,
			"message": message,
		},
	}))
}

// ID returns the client ID
func (c *Client) ID() string {
	return c.id
}
