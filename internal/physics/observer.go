package physics

import "time"

// KickEvent describes a kick applied through Ball.ApplyForce.
type KickEvent struct {
	BallID   string  `json:"ball_id"`
	Force    float64 `json:"force"`
	Angle    float64 `json:"angle"`
	Power    float64 `json:"power"`
	Spin     float64 `json:"spin"`
	Curve    float64 `json:"curve"`
	Velocity Vec2    `json:"velocity"`
}

// BallSnapshot is the per-update feedback handed to observers.
type BallSnapshot struct {
	BallID   string    `json:"ball_id"`
	Position Vec2      `json:"position"`
	Velocity Vec2      `json:"velocity"`
	Spin     float64   `json:"spin"`
	At       time.Time `json:"at"`
}

// BallObserver receives visual feedback from a Ball. Return values are not consumed.
type BallObserver interface {
	OnKick(e KickEvent)
	OnCollision(c Collision)
	OnUpdate(s BallSnapshot)
}

// NopBallObserver ignores everything.
type NopBallObserver struct{}

func (NopBallObserver) OnKick(KickEvent) {}
func (NopBallObserver) OnCollision(Collision) {}
func (NopBallObserver) OnUpdate(BallSnapshot) {}

// BodyObserver is the per-body collision callback invoked by ResolveCollision.
type BodyObserver interface {
	OnBodyCollision(self *Body, c Collision)
}

// NopBodyObserver ignores everything.
type NopBodyObserver struct{}

func (NopBodyObserver) OnBodyCollision(*Body, Collision) {}
