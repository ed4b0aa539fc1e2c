package physics

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func body(id string, x, y, vx, vy float64) *Body {
	return &Body{
		ID:       id,
		Kind:     BodyPlayer,
		Position: NewVec2(x, y),
		Velocity: NewVec2(vx, vy),
		Radius:   10,
		Mass:     1,
	}
}

func newTestSystem(cfg CollisionConfig) (*CollisionSystem, *manualClock) {
	clock := newManualClock()
	cs := NewCollisionSystem(cfg, clock)
	cs.Init(800, 400)
	return cs, clock
}

func TestHeadOnCollision(t *testing.T) {
	cfg := DefaultCollisionConfig()
	cfg.Friction = 0
	cs, _ := newTestSystem(cfg)

	a := body("a", 0, 0, 5, 0)
	b := body("b", 15, 0, -5, 0)

	c, ok := cs.CheckCollision(a, b)
	if !ok {
		t.Fatal("expected a collision")
	}
	if c.Normal.X != 1 || c.Normal.Y != 0 {
		t.Errorf("normal = %+v, want (1,0)", c.Normal)
	}
	if c.Penetration != 5 {
		t.Errorf("penetration = %v, want 5", c.Penetration)
	}
	if c.RelativeVelocity != 10 {
		t.Errorf("relative velocity = %v, want 10", c.RelativeVelocity)
	}
	if c.ContactPoint.X != 10 || c.ContactPoint.Y != 0 {
		t.Errorf("contact point = %+v, want (10,0)", c.ContactPoint)
	}

	if !cs.ResolveCollision(c) {
		t.Fatal("expected resolution to apply")
	}
	if !almostEqual(a.Velocity.X, -4) || !almostEqual(b.Velocity.X, 4) {
		t.Errorf("velocities = %v,%v want -4,4", a.Velocity.X, b.Velocity.X)
	}
	if !almostEqual(a.Position.X, -2.5) || !almostEqual(b.Position.X, 17.5) {
		t.Errorf("positions = %v,%v want -2.5,17.5", a.Position.X, b.Position.X)
	}
}

func TestCoincidentBodiesUseDefaultNormal(t *testing.T) {
	cs, _ := newTestSystem(DefaultCollisionConfig())
	c, ok := cs.CheckCollision(body("a", 50, 50, 0, 0), body("b", 50, 50, 0, 0))
	if !ok {
		t.Fatal("expected a collision")
	}
	if c.Normal != NewVec2(1, 0) {
		t.Errorf("normal = %+v, want (1,0)", c.Normal)
	}
	if c.Penetration != 20 {
		t.Errorf("penetration = %v, want 20", c.Penetration)
	}
}

func TestCheckCollisionIgnoresSeparatingAndDistantPairs(t *testing.T) {
	cs, _ := newTestSystem(DefaultCollisionConfig())

	if _, ok := cs.CheckCollision(body("a", 0, 0, -1, 0), body("b", 15, 0, 1, 0)); ok {
		t.Error("separating bodies should not collide")
	}
	if _, ok := cs.CheckCollision(body("c", 0, 0, 1, 0), body("d", 20, 0, -1, 0)); ok {
		t.Error("touching circles (distance == radius sum) should not collide")
	}
	a := body("e", 0, 0, 0, 0)
	if _, ok := cs.CheckCollision(a, a); ok {
		t.Error("a body cannot collide with itself")
	}
}

func TestCheckCollisionCooldown(t *testing.T) {
	cs, clock := newTestSystem(DefaultCollisionConfig())
	a := body("a", 0, 0, 5, 0)
	b := body("b", 15, 0, -5, 0)

	if _, ok := cs.CheckCollision(a, b); !ok {
		t.Fatal("first check should report")
	}
	clock.Advance(50 * time.Millisecond)
	if _, ok := cs.CheckCollision(a, b); ok {
		t.Error("second check inside the cooldown should not report")
	}
	if _, ok := cs.CheckCollision(b, a); ok {
		t.Error("cooldown must not depend on argument order")
	}
	clock.Advance(60 * time.Millisecond)
	if _, ok := cs.CheckCollision(a, b); !ok {
		t.Error("check after the cooldown should report again")
	}
}

func TestResolveConservesMomentumWithoutFriction(t *testing.T) {
	cfg := DefaultCollisionConfig()
	cfg.Friction = 0
	cs, _ := newTestSystem(cfg)

	a := body("a", 100, 100, 3, 1)
	a.Mass = 1
	b := body("b", 112, 105, -2, 0.5)
	b.Mass = 3

	pa := a.Velocity.Times(a.Mass)
	pb := b.Velocity.Times(b.Mass)

	c, ok := cs.CheckCollision(a, b)
	if !ok {
		t.Fatal("expected a collision")
	}
	cs.ResolveCollision(c)

	dA := a.Velocity.Times(a.Mass).Minus(pa)
	dB := b.Velocity.Times(b.Mass).Minus(pb)
	if !almostEqual(dA.X, -dB.X) || !almostEqual(dA.Y, -dB.Y) {
		t.Errorf("momentum change not symmetric: dA=%+v dB=%+v", dA, dB)
	}
	if dA.IsZero() {
		t.Error("expected a non-zero impulse")
	}
}

func TestResolveSkipsSlowContacts(t *testing.T) {
	cs, _ := newTestSystem(DefaultCollisionConfig())
	a := body("a", 0, 0, 0.02, 0)
	b := body("b", 15, 0, -0.02, 0)

	c, ok := cs.CheckCollision(a, b)
	if !ok {
		t.Fatal("expected a collision")
	}
	if cs.ResolveCollision(c) {
		t.Error("contact below the velocity threshold should be skipped")
	}
	if a.Position.X != 0 || b.Position.X != 15 {
		t.Errorf("skipped contact moved bodies: %v %v", a.Position, b.Position)
	}
}

func TestResolveNotifiesBodyObservers(t *testing.T) {
	cs, _ := newTestSystem(DefaultCollisionConfig())
	var seen []string
	obs := bodyObserverFunc(func(self *Body, c Collision) { seen = append(seen, self.ID) })

	a := body("a", 0, 0, 5, 0)
	a.Observer = obs
	b := body("b", 15, 0, -5, 0)
	b.Observer = obs

	c, _ := cs.CheckCollision(a, b)
	cs.ResolveCollision(c)

	if len(seen) != 2 || seen[0] != "a" || seen[1] != "b" {
		t.Errorf("observers called with %v, want [a b]", seen)
	}
}

type bodyObserverFunc func(self *Body, c Collision)

func (f bodyObserverFunc) OnBodyCollision(self *Body, c Collision) { f(self, c) }

func TestUpdateRequiresInit(t *testing.T) {
	cs := NewCollisionSystem(DefaultCollisionConfig(), newManualClock())
	if err := cs.Update(nil, 1.0/60); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized, got %v", err)
	}
}

func TestCheckCollisionsRejectsInvalidBody(t *testing.T) {
	cs, _ := newTestSystem(DefaultCollisionConfig())
	bad := body("bad", 10, 10, 0, 0)
	bad.Radius = 0

	cases := [][]*Body{
		{body("a", 0, 0, 0, 0), bad},
		{body("a", 0, 0, 0, 0), nil},
		{{ID: "", Radius: 1, Mass: 1}},
	}
	for i, bodies := range cases {
		if _, err := cs.CheckCollisions(bodies); !errors.Is(err, ErrInvalidBody) {
			t.Errorf("case %d: expected ErrInvalidBody, got %v", i, err)
		}
		if err := cs.Update(bodies, 1.0/60); !errors.Is(err, ErrInvalidBody) {
			t.Errorf("case %d: Update expected ErrInvalidBody, got %v", i, err)
		}
	}
}

func TestCheckCollisionsUsesGridNeighbourhood(t *testing.T) {
	cs, _ := newTestSystem(DefaultCollisionConfig())
	bodies := []*Body{
		body("a", 100, 100, 1, 0),
		body("b", 115, 100, -1, 0),
		body("far", 400, 300, 0, 0),
	}

	found, err := cs.CheckCollisions(bodies)
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 1 {
		t.Fatalf("found %d collisions, want 1", len(found))
	}
	if a, b := found[0].IDs(); a != "a" || b != "b" {
		t.Errorf("collision between %s and %s, want a and b", a, b)
	}

	nearby := cs.GetNearbyObjects(bodies[0])
	if len(nearby) != 1 || nearby[0] != bodies[1] {
		t.Errorf("nearby = %v, want only b", nearby)
	}
}

func TestCheckCollisionsCapsPairTests(t *testing.T) {
	cfg := DefaultCollisionConfig()
	cfg.MaxCollisionChecks = 3
	cs, _ := newTestSystem(cfg)

	var bodies []*Body
	for i := 0; i < 10; i++ {
		bodies = append(bodies, body(fmt.Sprintf("p%d", i), 100+float64(i), 100, 0, 0))
	}

	found, err := cs.CheckCollisions(bodies)
	if err != nil {
		t.Fatal(err)
	}
	if len(found) > 3 {
		t.Errorf("found %d collisions with a cap of 3 checks", len(found))
	}
	if err := cs.Update(bodies, 1.0/60); err != nil {
		t.Fatal(err)
	}
	if s := cs.Stats(); s.Skipped == 0 {
		t.Errorf("expected skipped candidates, stats = %+v", s)
	}
}

func TestUpdateStopsWhenNothingCollides(t *testing.T) {
	cs, _ := newTestSystem(DefaultCollisionConfig())
	bodies := []*Body{body("a", 100, 100, 1, 0), body("b", 300, 100, -1, 0)}

	if err := cs.Update(bodies, 1.0/60); err != nil {
		t.Fatal(err)
	}
	if s := cs.Stats(); s.Iterations != 1 || s.Found != 0 {
		t.Errorf("stats = %+v, want a single empty iteration", s)
	}
}

func TestUpdateResolvesAndSeparates(t *testing.T) {
	cs, _ := newTestSystem(DefaultCollisionConfig())
	a := body("a", 100, 100, 5, 0)
	b := body("b", 115, 100, -5, 0)

	if err := cs.Update([]*Body{a, b}, 1.0/60); err != nil {
		t.Fatal(err)
	}
	s := cs.Stats()
	if s.Found != 1 || s.Resolved != 1 {
		t.Errorf("stats = %+v, want one found and resolved", s)
	}
	if !(a.Velocity.X < 0 && b.Velocity.X > 0) {
		t.Errorf("bodies should move apart: a=%+v b=%+v", a.Velocity, b.Velocity)
	}
	if d := a.Position.DistanceTo(b.Position); d < 20-1e-9 {
		t.Errorf("bodies still overlap after resolution, distance %v", d)
	}
}

func TestUpdateClearsCacheOnInterval(t *testing.T) {
	cfg := DefaultCollisionConfig()
	cfg.Cooldown = time.Hour
	cfg.CacheClearInterval = time.Second
	cs, clock := newTestSystem(cfg)

	a := body("a", 100, 100, 5, 0)
	b := body("b", 115, 100, -5, 0)
	if _, ok := cs.CheckCollision(a, b); !ok {
		t.Fatal("first check should report")
	}

	clock.Advance(500 * time.Millisecond)
	if err := cs.Update([]*Body{a, b}, 1.0/60); err != nil {
		t.Fatal(err)
	}
	if cs.Stats().Found != 0 {
		t.Errorf("pair should still be cached, stats = %+v", cs.Stats())
	}

	clock.Advance(600 * time.Millisecond)
	if err := cs.Update([]*Body{a, b}, 1.0/60); err != nil {
		t.Fatal(err)
	}
	if cs.Stats().Found != 1 {
		t.Errorf("cache should have been cleared, stats = %+v", cs.Stats())
	}
}

func TestConstrainToField(t *testing.T) {
	cs, _ := newTestSystem(DefaultCollisionConfig())

	inside := body("in", 400, 200, 0, 0)
	if _, ok := cs.ConstrainToField(inside); ok {
		t.Error("body inside the field should not be constrained")
	}

	left := body("left", 4, 200, -3, 0)
	c, ok := cs.ConstrainToField(left)
	if !ok {
		t.Fatal("expected a boundary collision")
	}
	if c.Kind != CollisionBoundary || c.Normal != NewVec2(1, 0) {
		t.Errorf("collision = %+v, want boundary with normal (1,0)", c)
	}
	if left.Position.X != 10 || c.Penetration != 6 {
		t.Errorf("position %v penetration %v, want 10 and 6", left.Position.X, c.Penetration)
	}
	if c.RelativeVelocity != 3 {
		t.Errorf("relative velocity = %v, want 3", c.RelativeVelocity)
	}

	corner := body("corner", 805, 405, 0, 0)
	c, ok = cs.ConstrainToField(corner)
	if !ok {
		t.Fatal("expected a boundary collision")
	}
	if corner.Position != NewVec2(790, 390) {
		t.Errorf("corner position = %+v, want (790,390)", corner.Position)
	}
	if !(c.Normal.X < 0 && c.Normal.Y < 0) || !almostEqual(c.Normal.Magnitude(), 1) {
		t.Errorf("corner normal = %+v, want unit vector into the field", c.Normal)
	}
}

func TestCollisionConfigValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*CollisionConfig)
		ok     bool
	}{
		{"defaults", func(c *CollisionConfig) {}, true},
		{"elastic and frictionless", func(c *CollisionConfig) { c.Restitution, c.Friction = 1, 0 }, true},
		{"restitution above one", func(c *CollisionConfig) { c.Restitution = 5 }, false},
		{"negative restitution", func(c *CollisionConfig) { c.Restitution = -0.1 }, false},
		{"negative friction", func(c *CollisionConfig) { c.Friction = -1 }, false},
		{"friction above one", func(c *CollisionConfig) { c.Friction = 1.5 }, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultCollisionConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.ok && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if !tc.ok && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestZeroThresholdsTakeDefaults(t *testing.T) {
	cs := NewCollisionSystem(CollisionConfig{Restitution: 0.8}, newManualClock())
	got := cs.Config()
	if got.VelocityThreshold != DefaultVelocityThreshold || got.PenetrationThreshold != DefaultPenetrationThreshold {
		t.Errorf("thresholds = %v/%v, want defaults %v/%v",
			got.VelocityThreshold, got.PenetrationThreshold, DefaultVelocityThreshold, DefaultPenetrationThreshold)
	}
}

func TestGetNearbyObjectsIgnoresCallerReorder(t *testing.T) {
	cs, _ := newTestSystem(DefaultCollisionConfig())
	a := body("a", 100, 100, 0, 0)
	b := body("b", 130, 100, 0, 0)
	far := body("far", 700, 300, 0, 0)
	bodies := []*Body{a, b, far}
	if _, err := cs.CheckCollisions(bodies); err != nil {
		t.Fatalf("CheckCollisions: %v", err)
	}

	bodies[0], bodies[2] = bodies[2], bodies[0]

	got := cs.GetNearbyObjects(a)
	if len(got) != 1 || got[0] != b {
		t.Errorf("GetNearbyObjects(a) = %v, want only b", got)
	}
}

func TestResolveCollisionNeverAddsEnergy(t *testing.T) {
	kinetic := func(bs ...*Body) float64 {
		var e float64
		for _, b := range bs {
			e += 0.5 * b.Mass * b.Velocity.MagnitudeSquared()
		}
		return e
	}
	cases := []struct {
		name                  string
		restitution, friction float64
	}{
		{"elastic", 1, 0},
		{"defaults", DefaultCollisionConfig().Restitution, DefaultCollisionConfig().Friction},
		{"dead", 0, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultCollisionConfig()
			cfg.Restitution, cfg.Friction = tc.restitution, tc.friction
			if err := cfg.Validate(); err != nil {
				t.Fatalf("Validate: %v", err)
			}
			cs, _ := newTestSystem(cfg)
			a := body("a", 0, 0, 1, 0)
			b := body("b", 15, 0, -1, 0)
			before := kinetic(a, b)

			c, ok := cs.CheckCollision(a, b)
			if !ok {
				t.Fatal("expected a collision")
			}
			cs.ResolveCollision(c)
			if after := kinetic(a, b); after > before+1e-9 {
				t.Errorf("kinetic energy rose from %v to %v", before, after)
			}
		})
	}
}
