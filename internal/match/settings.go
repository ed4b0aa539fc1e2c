package match

import (
	"fmt"
	"time"

	"github.com/futhaxball/backend/internal/config"
	"github.com/futhaxball/backend/internal/physics"
)

// Stadium is the playing field. Goals are mouths of GoalWidth centred on the
// left and right lines.
type Stadium struct {
	Width     float64 `json:"width" msgpack:"width"`
	Height    float64 `json:"height" msgpack:"height"`
	GoalWidth float64 `json:"goal_width" msgpack:"goal_width"`
}

func DefaultStadium() Stadium {
	return Stadium{Width: 800, Height: 400, GoalWidth: 130}
}

// Settings tune one match. Speeds are per tick and the loop steps with dt=1.
type Settings struct {
	TickRate           int
	ScoreLimit         int           // 0 = unlimited
	TimeLimit          time.Duration // 0 = unlimited
	PlayerRadius       float64
	PlayerMass         float64
	PlayerAcceleration float64
	PlayerMaxSpeed     float64
	PlayerDamping      float64
	KickRange          float64 // gap between surfaces within which a kick connects
	KickForce          float64
	KickCooldownTicks  int
	Weather            physics.Weather
	Seed               int64 // 0 = time seeded
	Ball               physics.BallConfig
	Collision          physics.CollisionConfig
}

func DefaultSettings() Settings {
	return Settings{
		TickRate:           60,
		ScoreLimit:         3,
		TimeLimit:          3 * time.Minute,
		PlayerRadius:       15,
		PlayerMass:         2,
		PlayerAcceleration: 0.5,
		PlayerMaxSpeed:     4,
		PlayerDamping:      0.96,
		KickRange:          4,
		KickForce:          5,
		KickCooldownTicks:  10,
		Weather:            physics.WeatherNone,
		Ball:               physics.DefaultBallConfig(),
		Collision:          physics.DefaultCollisionConfig(),
	}
}

// SettingsFromConfig builds the stadium and default settings for new rooms.
func SettingsFromConfig(cfg *config.Config) (Stadium, Settings) {
	stadium := Stadium{
		Width:     cfg.FieldWidth,
		Height:    cfg.FieldHeight,
		GoalWidth: cfg.GoalWidth,
	}

	s := DefaultSettings()
	s.TickRate = cfg.TickRate
	s.ScoreLimit = cfg.DefaultScoreLimit
	s.TimeLimit = time.Duration(cfg.DefaultTimeLimitMinutes) * time.Minute
	s.PlayerRadius = cfg.PlayerRadius
	s.PlayerMass = cfg.PlayerMass
	s.PlayerAcceleration = cfg.PlayerAcceleration
	s.PlayerMaxSpeed = cfg.PlayerMaxSpeed
	s.PlayerDamping = cfg.PlayerDamping
	s.KickRange = cfg.KickRange
	s.KickForce = cfg.KickForce
	s.KickCooldownTicks = cfg.KickCooldownTicks
	s.Seed = cfg.SimulationSeed

	s.Ball.Radius = cfg.BallRadius
	s.Ball.Mass = cfg.BallMass
	s.Ball.MaxSpeed = cfg.BallMaxSpeed

	s.Collision.GridSize = cfg.GridSize
	s.Collision.MaxCollisionChecks = cfg.MaxCollisionChecks
	s.Collision.CollisionIterations = cfg.CollisionIterations
	s.Collision.Restitution = cfg.CollisionRestitution
	s.Collision.Friction = cfg.CollisionFriction
	return stadium, s
}

func (s Settings) Validate() error {
	if s.TickRate <= 0 {
		return fmt.Errorf("%w: tick rate must be positive, got %d", ErrInvalidSettings, s.TickRate)
	}
	if s.ScoreLimit < 0 || s.TimeLimit < 0 {
		return fmt.Errorf("%w: limits must not be negative", ErrInvalidSettings)
	}
	if !(s.PlayerRadius > 0) || !(s.PlayerMass > 0) {
		return fmt.Errorf("%w: player radius and mass must be positive", ErrInvalidSettings)
	}
	if !(s.PlayerMaxSpeed > 0) || s.PlayerAcceleration < 0 {
		return fmt.Errorf("%w: player speed settings out of range", ErrInvalidSettings)
	}
	if !(s.PlayerDamping >= 0 && s.PlayerDamping <= 1) {
		return fmt.Errorf("%w: player damping must be within [0,1], got %v", ErrInvalidSettings, s.PlayerDamping)
	}
	if s.KickRange < 0 || s.KickForce < 0 || s.KickCooldownTicks < 0 {
		return fmt.Errorf("%w: kick settings must not be negative", ErrInvalidSettings)
	}
	if err := s.Ball.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	if err := s.Collision.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	return nil
}

func (s Stadium) validate() error {
	if !(s.Width > 0) || !(s.Height > 0) {
		return fmt.Errorf("%w: stadium size must be positive", ErrInvalidSettings)
	}
	if s.GoalWidth < 0 || s.GoalWidth > s.Height {
		return fmt.Errorf("%w: goal width must be within [0,height]", ErrInvalidSettings)
	}
	return nil
}
