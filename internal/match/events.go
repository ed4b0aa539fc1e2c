package match

import "time"

// EventType names a match event on the wire and in match_events.
type EventType string

const (
	EventKick         EventType = "kick"
	EventCollision    EventType = "collision"
	EventGoal         EventType = "goal"
	EventWeather      EventType = "weather"
	EventGameOver     EventType = "game_over"
	EventPlayerJoined EventType = "player_joined"
	EventPlayerLeft   EventType = "player_left"
)

// Event is a discrete thing that happened in a room. Origin is the instance
// that produced it so pub/sub relays can skip their own events.
type Event struct {
	Type   EventType              `json:"type" msgpack:"type"`
	RoomID string                 `json:"room_id" msgpack:"room_id"`
	Tick   uint64                 `json:"tick" msgpack:"tick"`
	At     time.Time              `json:"at" msgpack:"at"`
	Origin string                 `json:"origin,omitempty" msgpack:"origin,omitempty"`
	Data   map[string]interface{} `json:"data,omitempty" msgpack:"data,omitempty"`
}

// Durable reports whether the event is worth persisting and relaying across
// instances. Kicks and collisions are high-volume and stay local.
func (e Event) Durable() bool {
	switch e.Type {
	case EventKick, EventCollision:
		return false
	}
	return true
}
