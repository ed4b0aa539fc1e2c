package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/futhaxball/backend/internal/match"
	"github.com/redis/go-redis/v9"
)

// StartEventRelay subscribes to the match events channel and forwards events
// produced by other instances to local clients of the same room.
func StartEventRelay(ctx context.Context, rdb *redis.Client, hub *Hub, origin string) {
	if rdb == nil {
		log.Println("[WS] Redis client not set; event relay not started")
		return
	}

	pubsub := rdb.Subscribe(ctx, match.EventsChannel)
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		log.Printf("[WS] %s subscriber started", match.EventsChannel)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				hub.relay(msg.Payload, origin)
			}
		}
	}()
}

// relay delivers one published event and reports whether it reached a room.
func (h *Hub) relay(payload, origin string) bool {
	var e match.Event
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		log.Printf("[WS] invalid event payload: %v", err)
		return false
	}
	if e.Origin == origin {
		// already broadcast locally by the notifier
		return false
	}
	if h.ClientCount(e.RoomID) == 0 {
		return false
	}
	log.Printf("[WS] relaying %s from %s to room %s", e.Type, e.Origin, e.RoomID)
	h.BroadcastEvent(e.RoomID, e)
	return true
}
