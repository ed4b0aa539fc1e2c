package physics

import "errors"

var (
	// ErrInvalidConfig is returned by NewBall when the ball configuration is malformed.
	ErrInvalidConfig = errors.New("invalid ball config")

	// ErrInvalidBody rejects a whole CollisionSystem call when any body lacks
	// an ID, a positive radius and mass, or a finite position and velocity.
	ErrInvalidBody = errors.New("invalid body")

	// ErrNotInitialized is returned when Update runs before Init.
	ErrNotInitialized = errors.New("collision system not initialized")
)
