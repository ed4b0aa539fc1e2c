package ws

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/futhaxball/backend/internal/match"
	"github.com/futhaxball/backend/internal/metrics"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
)

// Client is one player's WebSocket connection to a room.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	match    *match.Match
	roomID   string
	playerID string
	format   Format

	send         chan frame
	limiter      *rate.Limiter
	pingInterval time.Duration

	mu     sync.Mutex
	closed bool
}

type clientOptions struct {
	Format       Format
	BufferSize   int
	InputRate    float64
	InputBurst   int
	PingInterval time.Duration
}

func newClient(hub *Hub, conn *websocket.Conn, m *match.Match, playerID string, opts clientOptions) *Client {
	if opts.BufferSize <= 0 {
		opts.BufferSize = 256
	}
	if opts.InputBurst <= 0 {
		opts.InputBurst = 1
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = 30 * time.Second
	}
	limit := rate.Limit(opts.InputRate)
	if opts.InputRate <= 0 {
		limit = rate.Inf
	}
	return &Client{
		hub:          hub,
		conn:         conn,
		match:        m,
		roomID:       m.ID(),
		playerID:     playerID,
		format:       opts.Format,
		send:         make(chan frame, opts.BufferSize),
		limiter:      rate.NewLimiter(limit, opts.InputBurst),
		pingInterval: opts.PingInterval,
	}
}

// enqueue queues a frame without blocking. A full buffer drops the frame.
func (c *Client) enqueue(fr frame) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- fr:
		return true
	default:
		metrics.WSMessagesDropped.WithLabelValues("buffer_full").Inc()
		return false
	}
}

func (c *Client) sendEnvelope(env Envelope) {
	fr, err := Encode(c.format, env)
	if err != nil {
		log.Printf("[WS] Error encoding %s for player %s: %v", env.Type, c.playerID, err)
		return
	}
	c.enqueue(fr)
}

// sendError sends an error message to the client
func (c *Client) sendError(message string) {
	c.sendEnvelope(Envelope{Type: TypeError, Data: map[string]string{"message": message}})
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// readPump reads client frames until the connection fails. It owns the
// player's seat: leaving the pump removes the player unless a newer
// connection took over.
func (c *Client) readPump() {
	defer func() {
		if c.hub.unregister(c) {
			if err := c.match.RemovePlayer(c.playerID); err != nil && !errors.Is(err, match.ErrPlayerNotFound) {
				log.Printf("[WS] Error removing player %s from room %s: %v", c.playerID, c.roomID, err)
			}
			log.Printf("[WS] Player %s disconnected from room %s", c.playerID, c.roomID)
		}
		c.conn.Close()
	}()

	pongWait := 2 * c.pingInterval
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WS] Read error for player %s: %v", c.playerID, err)
			}
			return
		}
		if !c.handle(kind, data) {
			return
		}
	}
}

// handle processes one frame and reports whether the connection stays open.
func (c *Client) handle(kind int, data []byte) bool {
	msg, err := Decode(kind, data)
	if err != nil {
		metrics.WSMessagesDropped.WithLabelValues("invalid").Inc()
		c.sendError(err.Error())
		return true
	}

	switch msg.Type {
	case TypePing:
		c.sendEnvelope(Envelope{Type: "pong"})
	case TypeLeave:
		return false
	case TypeInput:
		if !c.limiter.Allow() {
			metrics.WSMessagesDropped.WithLabelValues("rate_limit").Inc()
			return true
		}
		if err := c.match.SetInput(c.playerID, msg.Input); err != nil {
			if errors.Is(err, match.ErrPlayerNotFound) {
				c.sendError("seat no longer valid")
				return false
			}
			c.sendError(err.Error())
		}
	}
	return true
}

// writePump writes messages to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(c.pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case fr, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// replaced or room closed; best-effort close frame
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(fr.kind, fr.data); err != nil {
				log.Printf("[WS] Write error for player %s: %v", c.playerID, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[WS] Ping error for player %s: %v", c.playerID, err)
				return
			}
		}
	}
}
