package ws

import (
	"log"
	"sync"

	"github.com/futhaxball/backend/internal/match"
	"github.com/futhaxball/backend/internal/metrics"
)

// Hub maintains the set of active clients, grouped by room.
type Hub struct {
	rooms map[string]map[string]*Client // roomID -> playerID -> Client
	mu    sync.RWMutex
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		rooms: make(map[string]map[string]*Client),
	}
}

// register adds c, replacing any connection the same player already holds.
func (h *Hub) register(c *Client) {
	h.mu.Lock()
	room, ok := h.rooms[c.roomID]
	if !ok {
		room = make(map[string]*Client)
		h.rooms[c.roomID] = room
	}
	old, replaced := room[c.playerID]
	room[c.playerID] = c
	if replaced {
		old.closeSend()
	}
	h.mu.Unlock()

	if replaced {
		log.Printf("[WS] Player %s reconnected to room %s, old connection closed", c.playerID, c.roomID)
		return
	}
	metrics.WSConnectionsActive.Inc()
	log.Printf("[WS] Player %s connected to room %s", c.playerID, c.roomID)
}

// unregister removes c if it is still the player's current connection and
// reports whether it was.
func (h *Hub) unregister(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[c.roomID]
	if !ok || room[c.playerID] != c {
		return false
	}
	delete(room, c.playerID)
	if len(room) == 0 {
		delete(h.rooms, c.roomID)
	}
	c.closeSend()
	metrics.WSConnectionsActive.Dec()
	return true
}

// BroadcastSnapshot implements match.Broadcaster.
func (h *Hub) BroadcastSnapshot(roomID string, s match.Snapshot) {
	h.broadcast(roomID, Envelope{Type: TypeSnapshot, Data: s})
}

// BroadcastEvent implements match.Broadcaster.
func (h *Hub) BroadcastEvent(roomID string, e match.Event) {
	h.broadcast(roomID, Envelope{Type: TypeEvent, Data: e})
}

func (h *Hub) broadcast(roomID string, env Envelope) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	room, ok := h.rooms[roomID]
	if !ok {
		return
	}
	enc := newEncoded(env)
	for _, client := range room {
		fr, err := enc.get(client.format)
		if err != nil {
			log.Printf("[WS] Error encoding %s for room %s: %v", env.Type, roomID, err)
			return
		}
		client.enqueue(fr)
	}
}

// CloseRoom disconnects every client of a room.
func (h *Hub) CloseRoom(roomID string) int {
	h.mu.Lock()
	room := h.rooms[roomID]
	delete(h.rooms, roomID)
	for _, c := range room {
		c.closeSend()
		metrics.WSConnectionsActive.Dec()
	}
	h.mu.Unlock()

	if len(room) > 0 {
		log.Printf("[WS] Disconnected %d client(s) from closed room %s", len(room), roomID)
	}
	return len(room)
}

// ClientCount returns the number of clients connected to a room.
func (h *Hub) ClientCount(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// Shutdown disconnects every client.
func (h *Hub) Shutdown() {
	h.mu.RLock()
	ids := make([]string, 0, len(h.rooms))
	for id := range h.rooms {
		ids = append(ids, id)
	}
	h.mu.RUnlock()
	for _, id := range ids {
		h.CloseRoom(id)
	}
}
