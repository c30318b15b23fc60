package chathub

import (
	"duochat/backend/internal/models"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512

	// SendBufferSize is the per-connection outbound queue length.
	SendBufferSize = 256
)

// WebSocketClient implements Client over a gorilla connection.
type WebSocketClient struct {
	UserID string
	ConnID string
	Conn   *websocket.Conn
	Hub    *ManagerService

	send   chan models.Event
	mu     sync.Mutex
	closed bool
	logger zerolog.Logger
}

func NewWebSocketClient(hub *ManagerService, userID, connID string, conn *websocket.Conn, logger zerolog.Logger) *WebSocketClient {
	return &WebSocketClient{
		UserID: userID,
		ConnID: connID,
		Conn:   conn,
		Hub:    hub,
		send:   make(chan models.Event, SendBufferSize),
		logger: logger.With().
			Str("component", "ws-client").
			Str("user_id", userID).
			Str("conn_id", connID).
			Logger(),
	}
}

func (c *WebSocketClient) GetUserID() string { return c.UserID }
func (c *WebSocketClient) GetConnID() string { return c.ConnID }

func (c *WebSocketClient) Push(ev models.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClientClosed
	}
	select {
	case c.send <- ev:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Run starts both pumps.
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close closes the send queue, which makes writePump send a close frame.
func (c *WebSocketClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// readPump keeps the read side alive for control frames. Clients send their
// messages over HTTP, so data frames are discarded. When the socket dies the
// hub is told to unregister this connection.
func (c *WebSocketClient) readPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn().Err(err).Msg("unexpected close")
			}
			return
		}
		c.logger.Debug().Msg("ignoring inbound frame")
	}
}

// writePump drains the send queue in order and keeps the peer alive with pings.
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.Conn.WriteJSON(ev); err != nil {
				c.logger.Debug().Err(err).Str("event", ev.Type).Msg("write failed")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
