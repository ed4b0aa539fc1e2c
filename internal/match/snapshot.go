package match

import (
	"time"

	"github.com/futhaxball/backend/internal/physics"
)

type BallView struct {
	Position physics.Vec2 `json:"position" msgpack:"position"`
	Velocity physics.Vec2 `json:"velocity" msgpack:"velocity"`
	Spin     float64      `json:"spin" msgpack:"spin"`
}

type PlayerView struct {
	ID       string       `json:"id" msgpack:"id"`
	Name     string       `json:"name" msgpack:"name"`
	Team     Team         `json:"team" msgpack:"team"`
	Position physics.Vec2 `json:"position" msgpack:"position"`
	Velocity physics.Vec2 `json:"velocity" msgpack:"velocity"`
	Kicking  bool         `json:"kicking" msgpack:"kicking"`
}

// Snapshot is the full public state of a room after a tick.
type Snapshot struct {
	RoomID  string          `json:"room_id" msgpack:"room_id"`
	Tick    uint64          `json:"tick" msgpack:"tick"`
	Status  Status          `json:"status" msgpack:"status"`
	Score   Score           `json:"score" msgpack:"score"`
	Elapsed float64         `json:"elapsed" msgpack:"elapsed"` // seconds of play
	Weather physics.Weather `json:"weather" msgpack:"weather"`
	Stadium Stadium         `json:"stadium" msgpack:"stadium"`
	Ball    BallView        `json:"ball" msgpack:"ball"`
	Players []PlayerView    `json:"players" msgpack:"players"`
}

// Result is the final outcome of a match. Winner is empty for a draw.
type Result struct {
	RoomID    string    `json:"room_id" db:"room_id"`
	RedScore  int       `json:"red_score" db:"red_score"`
	BlueScore int       `json:"blue_score" db:"blue_score"`
	Winner    Team      `json:"winner" db:"winner"`
	Reason    string    `json:"reason" db:"reason"`
	Ticks     int64     `json:"ticks" db:"ticks"`
	StartedAt time.Time `json:"started_at" db:"started_at"`
	EndedAt   time.Time `json:"ended_at" db:"ended_at"`
}
