package physics

import (
	"fmt"
	"math"
	"time"
)

// idleThreshold is the per-axis speed under which the ball settles faster.
// boundaryJitter bounds the random nudge added after a wall bounce.
const (
	idleThreshold  = 0.2
	idleDamping    = 0.9
	boundaryJitter = 0.1
)

// BallConfig is fixed for the lifetime of a Ball.
type BallConfig struct {
	Radius        float64 `json:"radius"`
	Mass          float64 `json:"mass"`
	Restitution   float64 `json:"restitution"`    // [0,1]
	Friction      float64 `json:"friction"`       // [0,1], applied after a collision
	AirResistance float64 `json:"air_resistance"` // [0,1], applied every update
	SpinDecay     float64 `json:"spin_decay"`     // [0,1], spin *= SpinDecay^dt
	SpinTransfer  float64 `json:"spin_transfer"`  // [0,1]
	CurveFactor   float64 `json:"curve_factor"`
	PowerFactor   float64 `json:"power_factor"`
	MaxSpeed      float64 `json:"max_speed"`
	MinSpeed      float64 `json:"min_speed"`
}

// DefaultBallConfig returns the tuning used for a standard match ball.
func DefaultBallConfig() BallConfig {
	return BallConfig{
		Radius:        10,
		Mass:          1,
		Restitution:   0.8,
		Friction:      0.05,
		AirResistance: 0.01,
		SpinDecay:     0.95,
		SpinTransfer:  0.3,
		CurveFactor:   0.2,
		PowerFactor:   1.5,
		MaxSpeed:      30,
		MinSpeed:      0.05,
	}
}

// Validate rejects non-positive size or mass, ratios outside [0,1] and an
// inverted speed range.
func (c BallConfig) Validate() error {
	if !(c.Radius > 0) {
		return fmt.Errorf("%w: radius must be positive, got %v", ErrInvalidConfig, c.Radius)
	}
	if !(c.Mass > 0) {
		return fmt.Errorf("%w: mass must be positive, got %v", ErrInvalidConfig, c.Mass)
	}
	ratios := []struct {
		name  string
		value float64
	}{
		{"restitution", c.Restitution},
		{"friction", c.Friction},
		{"air_resistance", c.AirResistance},
		{"spin_decay", c.SpinDecay},
		{"spin_transfer", c.SpinTransfer},
	}
	for _, r := range ratios {
		if !(r.value >= 0 && r.value <= 1) {
			return fmt.Errorf("%w: %s must be within [0,1], got %v", ErrInvalidConfig, r.name, r.value)
		}
	}
	if c.CurveFactor < 0 || c.PowerFactor < 0 {
		return fmt.Errorf("%w: curve and power factors must not be negative", ErrInvalidConfig)
	}
	if !(c.MaxSpeed > 0) {
		return fmt.Errorf("%w: max_speed must be positive, got %v", ErrInvalidConfig, c.MaxSpeed)
	}
	if !(c.MinSpeed >= 0) || c.MinSpeed > c.MaxSpeed {
		return fmt.Errorf("%w: min_speed must be within [0,max_speed], got %v", ErrInvalidConfig, c.MinSpeed)
	}
	return nil
}

// BallState is a copy of the ball's mutable state.
type BallState struct {
	Position      Vec2       `json:"position"`
	Velocity      Vec2       `json:"velocity"`
	Acceleration  Vec2       `json:"acceleration"`
	Spin          float64    `json:"spin"`
	Power         float64    `json:"power"`
	Curve         float64    `json:"curve"`
	LastCollision *Collision `json:"last_collision,omitempty"`
	LastUpdate    time.Time  `json:"last_update"`
}

// BallOptions are the optional collaborators of a Ball.
type BallOptions struct {
	ID       string
	Position Vec2
	Observer BallObserver
	Rand     Random
	Clock    Clock
}

// Kick is the input to ApplyForce. Zero Power means 1; zero Spin and Curve
// are derived from the force.
type Kick struct {
	Force float64 `json:"force"`
	Angle float64 `json:"angle"` // radians
	Power float64 `json:"power"`
	Spin  float64 `json:"spin"`
	Curve float64 `json:"curve"`
}

// Ball integrates one ball-like body per tick. Position, velocity and spin
// live on the Body so the CollisionSystem can act on the same pointer.
type Ball struct {
	cfg  BallConfig
	body *Body

	acceleration  Vec2
	power         float64
	curve         float64
	lastCollision *Collision
	lastUpdate    time.Time

	weather  Weather
	observer BallObserver
	rng      Random
	clock    Clock
}

// NewBall validates cfg and builds a ball at rest.
func NewBall(cfg BallConfig, opts BallOptions) (*Ball, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.ID == "" {
		opts.ID = "ball"
	}
	if opts.Observer == nil {
		opts.Observer = NopBallObserver{}
	}
	if opts.Rand == nil {
		opts.Rand = NewRandom(0)
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock
	}

	return &Ball{
		cfg: cfg,
		body: &Body{
			ID:       opts.ID,
			Kind:     BodyBall,
			Position: opts.Position,
			Radius:   cfg.Radius,
			Mass:     cfg.Mass,
		},
		weather:    WeatherNone,
		observer:   opts.Observer,
		rng:        opts.Rand,
		clock:      opts.Clock,
		lastUpdate: opts.Clock.Now(),
	}, nil
}

// Body returns the body shared with the collision system.
func (b *Ball) Body() *Body { return b.body }

func (b *Ball) Config() BallConfig { return b.cfg }

func (b *Ball) Weather() Weather { return b.weather }

// State returns a copy of the current state.
func (b *Ball) State() BallState {
	s := BallState{
		Position:     b.body.Position,
		Velocity:     b.body.Velocity,
		Acceleration: b.acceleration,
		Spin:         b.body.Spin,
		Power:        b.power,
		Curve:        b.curve,
		LastUpdate:   b.lastUpdate,
	}
	if b.lastCollision != nil {
		c := *b.lastCollision
		s.LastCollision = &c
	}
	return s
}

// SetAcceleration sets the constant acceleration integrated by Update.
func (b *Ball) SetAcceleration(a Vec2) { b.acceleration = a }

// SetWeather switches the weather key. Unknown keys are kept but have no effect.
func (b *Ball) SetWeather(w Weather) { b.weather = w }

// Reset puts the ball at rest at pos and clears spin and kick state.
func (b *Ball) Reset(pos Vec2) {
	b.body.Position = pos
	b.body.Velocity = Vec2{}
	b.body.Spin = 0
	b.acceleration = Vec2{}
	b.power = 0
	b.curve = 0
	b.lastCollision = nil
}

// Update advances the ball by dt. A non-positive dt leaves the state untouched.
func (b *Ball) Update(dt float64) {
	if !(dt > 0) {
		return
	}
	body := b.body

	body.Position = body.Position.Plus(body.Velocity.Times(dt))
	body.Velocity = body.Velocity.Plus(b.acceleration.Times(dt))

	effect, hasWeather := LookupWeather(b.weather)

	drag := b.cfg.AirResistance
	if hasWeather {
		drag += effect.AirResistance
	}
	body.Velocity = body.Velocity.Times(1 - drag)

	if body.Spin != 0 {
		heading := body.Velocity.Normalize()
		if !heading.IsZero() {
			curve := heading.LeftNormal().Times(body.Spin * b.cfg.CurveFactor)
			body.Velocity = body.Velocity.Plus(curve.Times(dt))
		}
		body.Spin *= math.Pow(b.cfg.SpinDecay, dt)
	}

	if hasWeather {
		body.Velocity = body.Velocity.Times(1 - effect.Friction)
		if !effect.Wind.IsZero() {
			gust := 1 + b.rng.Float64()*effect.Variation
			body.Velocity = body.Velocity.Plus(effect.Wind.Times(gust * dt))
		}
	}

	b.clampSpeed()

	if math.Abs(body.Velocity.X) < idleThreshold && math.Abs(body.Velocity.Y) < idleThreshold {
		body.Velocity = body.Velocity.Times(idleDamping)
		// settling must not leave a speed between zero and MinSpeed
		if body.Velocity.Magnitude() < b.cfg.MinSpeed {
			body.Velocity = Vec2{}
		}
	}

	b.lastUpdate = b.clock.Now()
	b.observer.OnUpdate(BallSnapshot{
		BallID:   body.ID,
		Position: body.Position,
		Velocity: body.Velocity,
		Spin:     body.Spin,
		At:       b.lastUpdate,
	})
}

func (b *Ball) clampSpeed() {
	v := b.body.Velocity
	speed := v.Magnitude()
	switch {
	case speed > b.cfg.MaxSpeed:
		b.body.Velocity = v.Times(b.cfg.MaxSpeed / speed)
	case speed < b.cfg.MinSpeed:
		b.body.Velocity = Vec2{}
	}
}

// ApplyForce models a discrete kick: velocity is replaced, not accumulated.
func (b *Ball) ApplyForce(k Kick) {
	power := k.Power
	if power == 0 {
		power = 1
	}
	spin := k.Spin
	if spin == 0 {
		spin = k.Force * b.cfg.SpinTransfer * power
	}
	curve := k.Curve
	if curve == 0 {
		curve = k.Force * b.cfg.CurveFactor * power
	}

	b.body.Velocity = FromAngle(k.Angle).Times(k.Force * b.cfg.PowerFactor * power)
	b.body.Spin = spin
	b.power = power
	b.curve = curve

	b.observer.OnKick(KickEvent{
		BallID:   b.body.ID,
		Force:    k.Force,
		Angle:    k.Angle,
		Power:    power,
		Spin:     spin,
		Curve:    curve,
		Velocity: b.body.Velocity,
	})
}

// HandleCollision applies a collision reported for this ball. Against another
// body the ball takes an impulse proportional to the relative velocity and the
// other body's mass, plus a share of its spin. Against a boundary the velocity
// is reflected along the contact normal and jittered slightly.
func (b *Ball) HandleCollision(c Collision) {
	body := b.body

	if c.Kind == CollisionBoundary {
		vn := body.Velocity.Dot(c.Normal)
		if vn < 0 {
			body.Velocity = body.Velocity.Minus(c.Normal.Times((1 + b.cfg.Restitution) * vn))
		}
	} else if other := c.Other(body); other != nil {
		relative := other.Velocity.Minus(body.Velocity)
		impulse := relative.Times(other.Mass * b.cfg.Restitution)
		body.Velocity = body.Velocity.Plus(impulse)
		if other.Spin != 0 {
			body.Spin += other.Spin * b.cfg.SpinTransfer
		}
	}

	body.Velocity = body.Velocity.Times(1 - b.cfg.Friction)

	if c.Kind == CollisionBoundary {
		body.Velocity = body.Velocity.Plus(Vec2{
			X: (b.rng.Float64()*2 - 1) * boundaryJitter,
			Y: (b.rng.Float64()*2 - 1) * boundaryJitter,
		})
	}

	stored := c
	b.lastCollision = &stored
	b.observer.OnCollision(c)
}
