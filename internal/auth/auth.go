package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const (
	RoleSeat     = "seat"
	RoleOperator = "operator"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrWrongRole    = errors.New("token role not allowed")
)

// Seat identifies a player's place in a room.
type Seat struct {
	RoomID   string
	PlayerID string
}

// IssueSeatToken signs an HS256 token binding a player to a room.
func IssueSeatToken(secret, roomID, playerID string, ttl time.Duration) (string, time.Time, error) {
	exp := time.Now().Add(ttl)
	claims := jwt.MapClaims{
		"role":      RoleSeat,
		"room_id":   roomID,
		"player_id": playerID,
		"exp":       jwt.NewNumericDate(exp).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign seat token: %w", err)
	}
	return signed, exp, nil
}

// ParseSeatToken validates a seat token and returns its seat.
func ParseSeatToken(secret, token string) (Seat, error) {
	claims, err := parse(secret, token, RoleSeat)
	if err != nil {
		return Seat{}, err
	}
	roomID, _ := claims["room_id"].(string)
	playerID, _ := claims["player_id"].(string)
	if roomID == "" || playerID == "" {
		return Seat{}, ErrInvalidToken
	}
	return Seat{RoomID: roomID, PlayerID: playerID}, nil
}

// IssueOperatorToken signs an HS256 token for an operator session.
func IssueOperatorToken(secret, username string, ttl time.Duration) (string, time.Time, error) {
	exp := time.Now().Add(ttl)
	claims := jwt.MapClaims{
		"role":     RoleOperator,
		"username": username,
		"exp":      jwt.NewNumericDate(exp).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign operator token: %w", err)
	}
	return signed, exp, nil
}

// ParseOperatorToken validates an operator token and returns the username.
func ParseOperatorToken(secret, token string) (string, error) {
	claims, err := parse(secret, token, RoleOperator)
	if err != nil {
		return "", err
	}
	username, _ := claims["username"].(string)
	if username == "" {
		return "", ErrInvalidToken
	}
	return username, nil
}

func parse(secret, token, role string) (jwt.MapClaims, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	if got, _ := claims["role"].(string); got != role {
		return nil, ErrWrongRole
	}
	return claims, nil
}
