package websocket

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	// writeWait bounds a single push to the settings page
	writeWait = 10 * time.Second

	// pongWait is how long an idle settings page may stay silent before it is dropped
	pongWait = 60 * time.Second

	// pingPeriod must stay below pongWait
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize caps control frames; the settings page never sends data
	maxMessageSize = 512

	// sendBuffer is the number of settings events queued per page before it counts as stalled
	sendBuffer = 64
)

// Client is one open settings page of a store administrator. It receives
// exclusion and backup events and sends nothing back.
type Client struct {
	id          string
	remoteAddr  string
	connectedAt time.Time
	conn        *websocket.Conn
	hub         *Hub
	send        chan []byte
	closed      bool
	mu          sync.RWMutex
	closeOnce   sync.Once
}

// NewClient wraps the upgraded connection of the settings page opened from remoteAddr
func NewClient(conn *websocket.Conn, hub *Hub, remoteAddr string) *Client {
	return &Client{
		id:          uuid.New().String(),
		remoteAddr:  remoteAddr,
		connectedAt: time.Now(),
		conn:        conn,
		hub:         hub,
		send:        make(chan []byte, sendBuffer),
	}
}

// ID returns the connection identifier used by the hub
func (c *Client) ID() string {
	return c.id
}

// RemoteAddr returns the address the settings page connected from
func (c *Client) RemoteAddr() string {
	return c.remoteAddr
}

// Send queues a settings event. A page that falls sendBuffer events behind is
// treated as gone.
func (c *Client) Send(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrClientClosed
	}

	select {
	case c.send <- data:
		return nil
	default:
		return ErrClientClosed
	}
}

// Close ends the connection. It may be called from both pumps.
func (c *Client) Close() error {
	var closeErr error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.send)
		c.mu.Unlock()

		closeErr = c.conn.Close()
	})
	return closeErr
}

// IsClosed reports whether Close has run
func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// ReadPump keeps the connection alive until the page goes away, then removes
// it from the hub. Run it in its own goroutine.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.Close()
		log.Debug().
			Str("client_id", c.id).
			Str("remote_addr", c.remoteAddr).
			Dur("connected_for", time.Since(c.connectedAt)).
			Msg("Settings page disconnected")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().
					Err(err).
					Str("client_id", c.id).
					Str("remote_addr", c.remoteAddr).
					Msg("Settings page connection closed unexpectedly")
			}
			return
		}
		// The settings page only listens, so anything it sends is dropped
	}
}

// WritePump pushes queued settings events to the page and pings it while idle.
// Run it in its own goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Warn().
					Err(err).
					Str("client_id", c.id).
					Str("remote_addr", c.remoteAddr).
					Msg("Failed to push settings event")
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
