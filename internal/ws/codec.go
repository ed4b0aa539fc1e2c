package ws

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/futhaxball/backend/internal/match"
	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

// Format selects how frames are encoded for a client.
type Format string

const (
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
)

var ErrUnknownMessage = errors.New("unknown message type")

// ParseFormat maps the ?format query value; anything unknown means JSON.
func ParseFormat(s string) Format {
	if s == string(FormatMsgpack) {
		return FormatMsgpack
	}
	return FormatJSON
}

// Server -> client message types.
const (
	TypeSnapshot = "snapshot"
	TypeEvent    = "event"
	TypeWelcome  = "welcome"
	TypeError    = "error"
)

// Client -> server message types.
const (
	TypeInput = "input"
	TypeLeave = "leave"
	TypePing  = "ping"
)

// Envelope wraps every server -> client frame.
type Envelope struct {
	Type string      `json:"type" msgpack:"type"`
	Data interface{} `json:"data,omitempty" msgpack:"data,omitempty"`
}

// Welcome is the first frame a client receives.
type Welcome struct {
	RoomID   string `json:"room_id" msgpack:"room_id"`
	PlayerID string `json:"player_id" msgpack:"player_id"`
	Format   Format `json:"format" msgpack:"format"`
	TickRate int    `json:"tick_rate" msgpack:"tick_rate"`
}

// ClientMessage is a decoded client -> server frame.
type ClientMessage struct {
	Type  string      `json:"type" msgpack:"type"`
	Input match.Input `json:"data" msgpack:"data"`
}

type frame struct {
	kind int
	data []byte
}

// Encode renders env in format f.
func Encode(f Format, env Envelope) (frame, error) {
	switch f {
	case FormatMsgpack:
		b, err := msgpack.Marshal(env)
		if err != nil {
			return frame{}, fmt.Errorf("encode msgpack: %w", err)
		}
		return frame{kind: websocket.BinaryMessage, data: b}, nil
	default:
		b, err := json.Marshal(env)
		if err != nil {
			return frame{}, fmt.Errorf("encode json: %w", err)
		}
		return frame{kind: websocket.TextMessage, data: b}, nil
	}
}

// Decode parses a client frame. Binary frames are msgpack, text frames JSON,
// whatever format the client asked to receive.
func Decode(kind int, data []byte) (ClientMessage, error) {
	var msg ClientMessage
	var err error
	if kind == websocket.BinaryMessage {
		err = msgpack.Unmarshal(data, &msg)
	} else {
		err = json.Unmarshal(data, &msg)
	}
	if err != nil {
		return msg, fmt.Errorf("decode message: %w", err)
	}
	switch msg.Type {
	case TypeInput, TypeLeave, TypePing:
		return msg, nil
	}
	return msg, fmt.Errorf("%w: %q", ErrUnknownMessage, msg.Type)
}

// encoded caches one envelope per format so a broadcast encodes at most twice.
type encoded struct {
	env    Envelope
	frames map[Format]frame
}

func newEncoded(env Envelope) *encoded {
	return &encoded{env: env, frames: make(map[Format]frame, 2)}
}

func (e *encoded) get(f Format) (frame, error) {
	if fr, ok := e.frames[f]; ok {
		return fr, nil
	}
	fr, err := Encode(f, e.env)
	if err != nil {
		return frame{}, err
	}
	e.frames[f] = fr
	return fr, nil
}
