package match

import "errors"

var (
	ErrInvalidSettings = errors.New("invalid match settings")
	ErrInvalidTeam     = errors.New("invalid team")
	ErrPlayerExists    = errors.New("player already in match")
	ErrPlayerNotFound  = errors.New("player not found")
	ErrMatchFinished   = errors.New("match already finished")
	ErrAlreadyRunning  = errors.New("match loop already running")

	ErrRoomLimit     = errors.New("room limit reached")
	ErrRoomFull      = errors.New("room is full")
	ErrRoomNotFound  = errors.New("room not found")
	ErrWrongPassword = errors.New("wrong room password")
)
