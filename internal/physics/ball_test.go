package physics

import (
	"errors"
	"math"
	"testing"
)

func TestNewBallRejectsInvalidConfig(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*BallConfig)
	}{
		{"zero radius", func(c *BallConfig) { c.Radius = 0 }},
		{"negative radius", func(c *BallConfig) { c.Radius = -1 }},
		{"zero mass", func(c *BallConfig) { c.Mass = 0 }},
		{"restitution above one", func(c *BallConfig) { c.Restitution = 1.2 }},
		{"negative friction", func(c *BallConfig) { c.Friction = -0.1 }},
		{"air resistance above one", func(c *BallConfig) { c.AirResistance = 2 }},
		{"spin decay above one", func(c *BallConfig) { c.SpinDecay = 1.5 }},
		{"zero max speed", func(c *BallConfig) { c.MaxSpeed = 0 }},
		{"min above max", func(c *BallConfig) { c.MinSpeed = c.MaxSpeed + 1 }},
		{"nan restitution", func(c *BallConfig) { c.Restitution = math.NaN() }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultBallConfig()
			tc.mutate(&cfg)
			if _, err := NewBall(cfg, BallOptions{}); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}

	if _, err := NewBall(DefaultBallConfig(), BallOptions{}); err != nil {
		t.Fatalf("default config rejected: %v", err)
	}
}

func TestApplyForceOverwritesVelocity(t *testing.T) {
	cfg := DefaultBallConfig()
	cfg.PowerFactor = 1.5
	ball, obs := newTestBall(cfg, 0)
	ball.Body().Velocity = NewVec2(-7, 4)

	ball.ApplyForce(Kick{Force: 2, Angle: 0, Power: 1})

	v := ball.State().Velocity
	if v.X != 3 || v.Y != 0 {
		t.Errorf("velocity = (%v,%v), want (3,0)", v.X, v.Y)
	}
	if len(obs.kicks) != 1 {
		t.Fatalf("expected one kick notification, got %d", len(obs.kicks))
	}
}

func TestApplyForceDerivesSpinAndCurve(t *testing.T) {
	cfg := DefaultBallConfig()
	ball, _ := newTestBall(cfg, 0)

	ball.ApplyForce(Kick{Force: 4, Angle: math.Pi / 2, Power: 2})

	s := ball.State()
	if !almostEqual(s.Spin, 4*cfg.SpinTransfer*2) {
		t.Errorf("spin = %v, want %v", s.Spin, 4*cfg.SpinTransfer*2)
	}
	if !almostEqual(s.Curve, 4*cfg.CurveFactor*2) {
		t.Errorf("curve = %v, want %v", s.Curve, 4*cfg.CurveFactor*2)
	}
	if s.Power != 2 {
		t.Errorf("power = %v, want 2", s.Power)
	}

	ball.ApplyForce(Kick{Force: 4, Spin: -1, Curve: 0.5})
	s = ball.State()
	if s.Spin != -1 || s.Curve != 0.5 || s.Power != 1 {
		t.Errorf("explicit spin/curve not kept: spin=%v curve=%v power=%v", s.Spin, s.Curve, s.Power)
	}
}

func TestUpdateZeroDeltaIsNoop(t *testing.T) {
	ball, obs := newTestBall(DefaultBallConfig(), 0.5)
	ball.SetWeather(WeatherWind)
	ball.Body().Position = NewVec2(100, 50)
	ball.Body().Velocity = NewVec2(3, -2)
	ball.Body().Spin = 4
	before := ball.State()

	ball.Update(0)

	after := ball.State()
	if after.Position != before.Position || after.Velocity != before.Velocity || after.Spin != before.Spin {
		t.Errorf("update(0) changed state: before=%+v after=%+v", before, after)
	}
	if len(obs.updates) != 0 {
		t.Errorf("update(0) should not notify, got %d", len(obs.updates))
	}
}

func TestUpdateSpinCurvesAndDecays(t *testing.T) {
	cfg := DefaultBallConfig()
	cfg.CurveFactor = 0.2
	ball, _ := newTestBall(cfg, 0)
	ball.Body().Velocity = NewVec2(1, 0)
	ball.Body().Spin = 10

	ball.Update(1)

	s := ball.State()
	if s.Velocity.Y == 0 {
		t.Errorf("expected curve deflection, velocity = %+v", s.Velocity)
	}
	if s.Velocity.Y <= 0 {
		t.Errorf("positive spin should deflect to the left of travel, got vy=%v", s.Velocity.Y)
	}
	if s.Spin >= 10 {
		t.Errorf("spin should decay, got %v", s.Spin)
	}
	if !almostEqual(s.Spin, 10*cfg.SpinDecay) {
		t.Errorf("spin = %v, want %v", s.Spin, 10*cfg.SpinDecay)
	}
}

func TestUpdateIntegratesPosition(t *testing.T) {
	cfg := DefaultBallConfig()
	cfg.AirResistance = 0
	ball, obs := newTestBall(cfg, 0)
	ball.Body().Position = NewVec2(10, 10)
	ball.Body().Velocity = NewVec2(4, 2)

	ball.Update(0.5)

	s := ball.State()
	if s.Position.X != 12 || s.Position.Y != 11 {
		t.Errorf("position = %+v, want (12,11)", s.Position)
	}
	if s.Velocity.X != 4 || s.Velocity.Y != 2 {
		t.Errorf("velocity = %+v, want unchanged (4,2)", s.Velocity)
	}
	if len(obs.updates) != 1 || obs.updates[0].Position != s.Position {
		t.Errorf("update feedback missing or stale: %+v", obs.updates)
	}
}

func TestUpdateClampsSpeed(t *testing.T) {
	cfg := DefaultBallConfig()
	ball, _ := newTestBall(cfg, 0)

	ball.Body().Velocity = NewVec2(300, 400)
	ball.Update(1.0 / 60)
	if speed := ball.Body().Speed(); !almostEqual(speed, cfg.MaxSpeed) {
		t.Errorf("speed = %v, want clamped to %v", speed, cfg.MaxSpeed)
	}

	ball.Body().Velocity = NewVec2(cfg.MinSpeed/4, 0)
	ball.Update(1.0 / 60)
	if v := ball.Body().Velocity; v.X != 0 || v.Y != 0 {
		t.Errorf("velocity below min speed should snap to zero, got %+v", v)
	}
}

func TestUpdateSpeedInvariant(t *testing.T) {
	cfg := DefaultBallConfig()
	for _, w := range []Weather{WeatherNone, WeatherRain, WeatherSnow, WeatherWind} {
		ball, err := NewBall(cfg, BallOptions{Rand: NewRandom(42)})
		if err != nil {
			t.Fatal(err)
		}
		ball.SetWeather(w)
		ball.ApplyForce(Kick{Force: 25, Angle: 0.7})

		for i := 0; i < 2000; i++ {
			ball.Update(1.0 / 60)
			speed := ball.Body().Speed()
			if speed != 0 && (speed < cfg.MinSpeed || speed > cfg.MaxSpeed+1e-9) {
				t.Fatalf("weather %s tick %d: speed %v outside [%v,%v]", w, i, speed, cfg.MinSpeed, cfg.MaxSpeed)
			}
		}
	}
}

func TestIdleSettlingDampsSlowBall(t *testing.T) {
	cfg := DefaultBallConfig()
	cfg.AirResistance = 0
	cfg.MinSpeed = 0.01
	ball, _ := newTestBall(cfg, 0)
	ball.Body().Velocity = NewVec2(0.1, 0.1)

	ball.Update(1)

	v := ball.Body().Velocity
	if !almostEqual(v.X, 0.09) || !almostEqual(v.Y, 0.09) {
		t.Errorf("velocity = %+v, want (0.09,0.09)", v)
	}
}

func TestWeatherNoneAndUnknownHaveNoEffect(t *testing.T) {
	cfg := DefaultBallConfig()
	plain, _ := newTestBall(cfg, 0.5)
	unknown, _ := newTestBall(cfg, 0.5)
	unknown.SetWeather(Weather("tornado"))

	for _, b := range []*Ball{plain, unknown} {
		b.Body().Velocity = NewVec2(10, 3)
		b.Update(1.0 / 30)
	}

	if plain.Body().Velocity != unknown.Body().Velocity {
		t.Errorf("unknown weather changed motion: %+v vs %+v", plain.Body().Velocity, unknown.Body().Velocity)
	}
	if unknown.Weather() != Weather("tornado") {
		t.Errorf("weather key should still switch, got %s", unknown.Weather())
	}
}

func TestRainAndSnowSlowTheBall(t *testing.T) {
	cfg := DefaultBallConfig()
	speeds := map[Weather]float64{}
	for _, w := range []Weather{WeatherNone, WeatherRain, WeatherSnow} {
		b, _ := newTestBall(cfg, 0)
		b.SetWeather(w)
		b.Body().Velocity = NewVec2(10, 0)
		b.Update(1.0 / 60)
		speeds[w] = b.Body().Speed()
	}

	if !(speeds[WeatherRain] < speeds[WeatherNone]) {
		t.Errorf("rain should slow the ball: none=%v rain=%v", speeds[WeatherNone], speeds[WeatherRain])
	}
	if !(speeds[WeatherSnow] < speeds[WeatherRain]) {
		t.Errorf("snow should slow more than rain: rain=%v snow=%v", speeds[WeatherRain], speeds[WeatherSnow])
	}
}

func TestWindGustUsesInjectedRandom(t *testing.T) {
	cfg := DefaultBallConfig()
	cfg.AirResistance = 0
	cfg.MinSpeed = 0
	effect, _ := LookupWeather(WeatherWind)

	calm, _ := newTestBall(cfg, 0)
	gusty, _ := newTestBall(cfg, 0.999)
	for _, b := range []*Ball{calm, gusty} {
		b.SetWeather(WeatherWind)
		b.Body().Velocity = NewVec2(10, 0)
		b.Update(1)
	}

	drag := 1 - effect.AirResistance
	wantCalmX := 10*drag*(1-effect.Friction) + effect.Wind.X
	if got := calm.Body().Velocity.X; !almostEqual(got, wantCalmX) {
		t.Errorf("calm gust vx = %v, want %v", got, wantCalmX)
	}
	if !(gusty.Body().Velocity.X > calm.Body().Velocity.X) {
		t.Errorf("a larger gust should push harder: calm=%v gusty=%v", calm.Body().Velocity.X, gusty.Body().Velocity.X)
	}
}

func TestHandleCollisionBoundaryReflects(t *testing.T) {
	cfg := DefaultBallConfig()
	ball, obs := newTestBall(cfg, 0.5) // 0.5 gives zero jitter
	ball.Body().Velocity = NewVec2(-5, 0)

	ball.HandleCollision(Collision{Kind: CollisionBoundary, A: ball.Body(), Normal: NewVec2(1, 0)})

	want := 5 * cfg.Restitution * (1 - cfg.Friction)
	v := ball.Body().Velocity
	if !almostEqual(v.X, want) || !almostEqual(v.Y, 0) {
		t.Errorf("velocity = %+v, want (%v,0)", v, want)
	}
	if len(obs.collisions) != 1 {
		t.Errorf("expected collision feedback")
	}
	if ball.State().LastCollision == nil {
		t.Errorf("last collision not recorded")
	}
}

func TestHandleCollisionBoundaryJitterIsBounded(t *testing.T) {
	cfg := DefaultBallConfig()
	for _, r := range []float64{0, 0.25, 0.999} {
		ball, _ := newTestBall(cfg, r)
		ball.HandleCollision(Collision{Kind: CollisionBoundary, A: ball.Body(), Normal: NewVec2(0, 1)})
		v := ball.Body().Velocity
		if math.Abs(v.X) > boundaryJitter || math.Abs(v.Y) > boundaryJitter {
			t.Errorf("rand %v: jitter %+v exceeds ±%v", r, v, boundaryJitter)
		}
	}
}

func TestHandleCollisionWithBodyTransfersImpulseAndSpin(t *testing.T) {
	cfg := DefaultBallConfig()
	ball, _ := newTestBall(cfg, 0)
	player := &Body{ID: "p1", Kind: BodyPlayer, Velocity: NewVec2(4, 0), Radius: 15, Mass: 2, Spin: 10}

	ball.HandleCollision(Collision{Kind: CollisionBody, A: player, B: ball.Body(), Normal: NewVec2(1, 0)})

	wantVX := 4 * player.Mass * cfg.Restitution * (1 - cfg.Friction)
	if v := ball.Body().Velocity; !almostEqual(v.X, wantVX) || v.Y != 0 {
		t.Errorf("velocity = %+v, want (%v,0)", v, wantVX)
	}
	if spin := ball.Body().Spin; !almostEqual(spin, 10*cfg.SpinTransfer) {
		t.Errorf("spin = %v, want %v", spin, 10*cfg.SpinTransfer)
	}
}

func TestResetClearsMotion(t *testing.T) {
	ball, _ := newTestBall(DefaultBallConfig(), 0)
	ball.ApplyForce(Kick{Force: 5, Angle: 1})
	ball.Reset(NewVec2(300, 200))

	s := ball.State()
	if !s.Velocity.IsZero() || s.Spin != 0 || s.Position != NewVec2(300, 200) {
		t.Errorf("reset left state %+v", s)
	}
}
