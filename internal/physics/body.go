package physics

import "fmt"

// BodyKind tells the collision code what a body stands for.
type BodyKind uint8

const (
	BodyBall BodyKind = iota
	BodyPlayer
	BodyBoundary
)

func (k BodyKind) String() string {
	switch k {
	case BodyBall:
		return "ball"
	case BodyPlayer:
		return "player"
	case BodyBoundary:
		return "boundary"
	}
	return "unknown"
}

// Body is a circular dynamic object. Bodies are owned by the game loop;
// the collision system and the ball only mutate them through the pointer.
type Body struct {
	ID       string   `json:"id"`
	Kind     BodyKind `json:"kind"`
	Position Vec2     `json:"position"`
	Velocity Vec2     `json:"velocity"`
	Radius   float64  `json:"radius"`
	Mass     float64  `json:"mass"`
	Spin     float64  `json:"spin"`

	// Observer is told about every resolved collision this body takes part in.
	Observer BodyObserver `json:"-"`
}

// Validate checks the fields the collision system depends on.
func (b *Body) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: nil body", ErrInvalidBody)
	}
	if b.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidBody)
	}
	if !(b.Radius > 0) {
		return fmt.Errorf("%w: body %s radius %v", ErrInvalidBody, b.ID, b.Radius)
	}
	if !(b.Mass > 0) {
		return fmt.Errorf("%w: body %s mass %v", ErrInvalidBody, b.ID, b.Mass)
	}
	if !b.Position.IsFinite() || !b.Velocity.IsFinite() {
		return fmt.Errorf("%w: body %s has non-finite kinematics", ErrInvalidBody, b.ID)
	}
	return nil
}

// Speed returns the magnitude of the body's velocity.
func (b *Body) Speed() float64 {
	return b.Velocity.Magnitude()
}

func (b *Body) observer() BodyObserver {
	if b.Observer == nil {
		return NopBodyObserver{}
	}
	return b.Observer
}
