package physics

import (
	"fmt"
	"math"
	"time"
)

const (
	DefaultGridSize             = 50.0
	DefaultMaxCollisionChecks   = 1000
	DefaultCollisionIterations  = 4
	DefaultVelocityThreshold    = 0.1
	DefaultPenetrationThreshold = 0.1
	DefaultCollisionCooldown    = 100 * time.Millisecond
	DefaultCacheClearInterval   = 1000 * time.Millisecond
)

// CollisionKind separates body-body contacts from field boundary contacts.
type CollisionKind uint8

const (
	CollisionBody CollisionKind = iota
	CollisionBoundary
)

func (k CollisionKind) String() string {
	if k == CollisionBoundary {
		return "boundary"
	}
	return "body"
}

// Collision is produced and consumed within a tick. For boundary collisions
// B is nil and Normal points from the wall into the field.
type Collision struct {
	Kind             CollisionKind `json:"kind"`
	A                *Body         `json:"-"`
	B                *Body         `json:"-"`
	Normal           Vec2          `json:"normal"`
	Penetration      float64       `json:"penetration"`
	RelativeVelocity float64       `json:"relative_velocity"`
	ContactPoint     Vec2          `json:"contact_point"`
	At               time.Time     `json:"at"`
}

// Other returns the body on the other side of the contact from b, or nil.
func (c Collision) Other(b *Body) *Body {
	switch b {
	case c.A:
		return c.B
	case c.B:
		return c.A
	}
	return nil
}

// IDs returns the ids of both participants; B is empty for boundaries.
func (c Collision) IDs() (a, b string) {
	if c.A != nil {
		a = c.A.ID
	}
	if c.B != nil {
		b = c.B.ID
	}
	return a, b
}

// CollisionConfig tunes the CollisionSystem. Zero or negative sizes, counts,
// thresholds and durations take the defaults, so the velocity and
// penetration gates cannot be switched off; set a tiny positive threshold to
// make them effectively inert. Restitution and Friction are used as given and
// must lie within [0,1].
type CollisionConfig struct {
	GridSize             float64
	MaxCollisionChecks   int
	CollisionIterations  int
	VelocityThreshold    float64
	PenetrationThreshold float64
	Restitution          float64
	Friction             float64
	Cooldown             time.Duration
	CacheClearInterval   time.Duration
}

// DefaultCollisionConfig returns the standard tuning.
func DefaultCollisionConfig() CollisionConfig {
	return CollisionConfig{
		GridSize:             DefaultGridSize,
		MaxCollisionChecks:   DefaultMaxCollisionChecks,
		CollisionIterations:  DefaultCollisionIterations,
		VelocityThreshold:    DefaultVelocityThreshold,
		PenetrationThreshold: DefaultPenetrationThreshold,
		Restitution:          0.8,
		Friction:             0.02,
		Cooldown:             DefaultCollisionCooldown,
		CacheClearInterval:   DefaultCacheClearInterval,
	}
}

// Validate rejects restitution or friction outside [0,1]. Values above one
// would add energy on every contact.
func (c CollisionConfig) Validate() error {
	if !(c.Restitution >= 0 && c.Restitution <= 1) {
		return fmt.Errorf("%w: collision restitution must be within [0,1], got %v", ErrInvalidConfig, c.Restitution)
	}
	if !(c.Friction >= 0 && c.Friction <= 1) {
		return fmt.Errorf("%w: collision friction must be within [0,1], got %v", ErrInvalidConfig, c.Friction)
	}
	return nil
}

func (c CollisionConfig) withDefaults() CollisionConfig {
	d := DefaultCollisionConfig()
	if c.GridSize <= 0 {
		c.GridSize = d.GridSize
	}
	if c.MaxCollisionChecks <= 0 {
		c.MaxCollisionChecks = d.MaxCollisionChecks
	}
	if c.CollisionIterations <= 0 {
		c.CollisionIterations = d.CollisionIterations
	}
	if c.VelocityThreshold <= 0 {
		c.VelocityThreshold = d.VelocityThreshold
	}
	if c.PenetrationThreshold <= 0 {
		c.PenetrationThreshold = d.PenetrationThreshold
	}
	if c.Cooldown <= 0 {
		c.Cooldown = d.Cooldown
	}
	if c.CacheClearInterval <= 0 {
		c.CacheClearInterval = d.CacheClearInterval
	}
	return c
}

// CollisionStats describes the most recent Update.
type CollisionStats struct {
	Iterations int `json:"iterations"`
	Checks     int `json:"checks"`
	Skipped    int `json:"skipped"` // candidates dropped by MaxCollisionChecks
	Found      int `json:"found"`
	Resolved   int `json:"resolved"`
}

// pairKey is the canonical unordered pair of body ids.
type pairKey struct {
	lo, hi string
}

func makePairKey(a, b string) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{lo: a, hi: b}
}

// CollisionSystem detects and resolves circle-circle contacts over a bounded
// field using a uniform grid for the broad phase.
type CollisionSystem struct {
	cfg   CollisionConfig
	clock Clock

	width, height float64
	initialized   bool

	grid           *Grid
	cache          map[pairKey]time.Time
	lastCacheClear time.Time

	lastChecks  int
	lastSkipped int
	stats       CollisionStats
}

// NewCollisionSystem creates a system; Init must be called before Update.
func NewCollisionSystem(cfg CollisionConfig, clock Clock) *CollisionSystem {
	if clock == nil {
		clock = SystemClock
	}
	cfg = cfg.withDefaults()
	return &CollisionSystem{
		cfg:            cfg,
		clock:          clock,
		grid:           NewGrid(cfg.GridSize),
		cache:          make(map[pairKey]time.Time),
		lastCacheClear: clock.Now(),
	}
}

// Init sets the field bounds and clears the grid.
func (cs *CollisionSystem) Init(width, height float64) {
	cs.width = width
	cs.height = height
	cs.grid.Clear()
	cs.initialized = true
}

func (cs *CollisionSystem) Config() CollisionConfig { return cs.cfg }

// Bounds returns the field size passed to Init.
func (cs *CollisionSystem) Bounds() (width, height float64) {
	return cs.width, cs.height
}

// Stats returns the counters of the most recent Update.
func (cs *CollisionSystem) Stats() CollisionStats { return cs.stats }

// Grid exposes the broad-phase grid built by the last CheckCollisions.
func (cs *CollisionSystem) Grid() *Grid { return cs.grid }

// Update clears the pair cache on its fixed interval, then runs up to
// CollisionIterations rounds of detection and resolution, stopping at the
// first round that finds nothing. dt is unused: resolution is instantaneous.
func (cs *CollisionSystem) Update(bodies []*Body, dt float64) error {
	if !cs.initialized {
		return ErrNotInitialized
	}

	now := cs.clock.Now()
	if now.Sub(cs.lastCacheClear) >= cs.cfg.CacheClearInterval {
		clear(cs.cache)
		cs.lastCacheClear = now
	}

	var stats CollisionStats
	for i := 0; i < cs.cfg.CollisionIterations; i++ {
		found, err := cs.CheckCollisions(bodies)
		if err != nil {
			return err
		}
		stats.Iterations++
		stats.Checks += cs.lastChecks
		stats.Skipped += cs.lastSkipped
		stats.Found += len(found)
		if len(found) == 0 {
			break
		}
		for _, c := range found {
			if cs.ResolveCollision(c) {
				stats.Resolved++
			}
		}
	}
	cs.stats = stats
	return nil
}

// CheckCollisions rebuilds the grid from bodies and returns every colliding
// pair found in the 3x3 neighbourhood of each body. Pairs are tested once, in
// input order. After MaxCollisionChecks tests the remaining candidates are
// skipped, so detection can be incomplete under extreme density.
// Any invalid body rejects the whole call.
func (cs *CollisionSystem) CheckCollisions(bodies []*Body) ([]Collision, error) {
	for _, b := range bodies {
		if err := b.Validate(); err != nil {
			return nil, err
		}
	}

	cs.grid.Rebuild(bodies)
	cs.lastChecks = 0
	cs.lastSkipped = 0

	var found []Collision
	for i, a := range bodies {
		for _, j := range cs.grid.nearbyIndices(a.Position) {
			if j <= i {
				continue
			}
			if cs.lastChecks >= cs.cfg.MaxCollisionChecks {
				cs.lastSkipped++
				continue
			}
			cs.lastChecks++
			if c, ok := cs.CheckCollision(a, bodies[j]); ok {
				found = append(found, c)
			}
		}
	}
	return found, nil
}

// GetNearbyObjects returns the other bodies sharing b's cell or one of its 8
// neighbours in the grid built by the last CheckCollisions. The grid holds
// positions as they were when it was built, before that pass resolved any
// contacts; b's cell is taken from its current position.
func (cs *CollisionSystem) GetNearbyObjects(b *Body) []*Body {
	nearby := cs.grid.Nearby(b.Position)
	out := nearby[:0]
	for _, o := range nearby {
		if o != b {
			out = append(out, o)
		}
	}
	return out
}

// CheckCollision is the narrow phase. It reports a collision when the circles
// overlap, the bodies are not already separating and the pair is outside its
// cooldown. A reported pair enters the cooldown.
func (cs *CollisionSystem) CheckCollision(a, b *Body) (Collision, bool) {
	if a == nil || b == nil || a == b {
		return Collision{}, false
	}

	delta := b.Position.Minus(a.Position)
	sum := a.Radius + b.Radius
	distSq := delta.MagnitudeSquared()
	if distSq >= sum*sum {
		return Collision{}, false
	}

	dist := math.Sqrt(distSq)
	normal := Vec2{X: 1}
	if dist > 0 {
		normal = delta.Times(1 / dist)
	}

	relative := b.Velocity.Minus(a.Velocity)
	if relative.Dot(normal) > 0 {
		return Collision{}, false
	}

	now := cs.clock.Now()
	key := makePairKey(a.ID, b.ID)
	if last, ok := cs.cache[key]; ok && now.Sub(last) < cs.cfg.Cooldown {
		return Collision{}, false
	}
	cs.cache[key] = now

	return Collision{
		Kind:             CollisionBody,
		A:                a,
		B:                b,
		Normal:           normal,
		Penetration:      sum - dist,
		RelativeVelocity: relative.Magnitude(),
		ContactPoint:     a.Position.Plus(normal.Times(a.Radius)),
		At:               now,
	}, true
}

// ResolveCollision applies an impulse along the contact normal split by
// inverse mass, damps both bodies, and pushes them apart by half the
// penetration each when it exceeds the threshold. Near-rest contacts below
// the velocity threshold are skipped. Reports whether anything was applied.
func (cs *CollisionSystem) ResolveCollision(c Collision) bool {
	if c.Kind != CollisionBody || c.A == nil || c.B == nil {
		return false
	}
	if c.RelativeVelocity < cs.cfg.VelocityThreshold {
		return false
	}

	a, b := c.A, c.B
	n := c.Normal

	vn := b.Velocity.Minus(a.Velocity).Dot(n)
	if vn < 0 {
		invA, invB := 1/a.Mass, 1/b.Mass
		j := -(1 + cs.cfg.Restitution) * vn / (invA + invB)
		a.Velocity = a.Velocity.Minus(n.Times(j * invA))
		b.Velocity = b.Velocity.Plus(n.Times(j * invB))
	}

	damping := 1 - cs.cfg.Friction
	a.Velocity = a.Velocity.Times(damping)
	b.Velocity = b.Velocity.Times(damping)

	if c.Penetration > cs.cfg.PenetrationThreshold {
		half := n.Times(c.Penetration / 2)
		a.Position = a.Position.Minus(half)
		b.Position = b.Position.Plus(half)
	}

	a.observer().OnBodyCollision(a, c)
	b.observer().OnBodyCollision(b, c)
	return true
}

// ConstrainToField pushes b back inside the rectangle given to Init. It
// returns a boundary collision when b was touching or past a wall.
func (cs *CollisionSystem) ConstrainToField(b *Body) (Collision, bool) {
	if !cs.initialized || b == nil {
		return Collision{}, false
	}

	r := b.Radius
	pos := b.Position
	var normal Vec2
	penetration := 0.0

	if pos.X-r < 0 {
		penetration = math.Max(penetration, r-pos.X)
		normal.X = 1
		pos.X = r
	} else if pos.X+r > cs.width {
		penetration = math.Max(penetration, pos.X+r-cs.width)
		normal.X = -1
		pos.X = cs.width - r
	}
	if pos.Y-r < 0 {
		penetration = math.Max(penetration, r-pos.Y)
		normal.Y = 1
		pos.Y = r
	} else if pos.Y+r > cs.height {
		penetration = math.Max(penetration, pos.Y+r-cs.height)
		normal.Y = -1
		pos.Y = cs.height - r
	}

	if normal.IsZero() {
		return Collision{}, false
	}

	normal = normal.Normalize()
	b.Position = pos
	return Collision{
		Kind:             CollisionBoundary,
		A:                b,
		Normal:           normal,
		Penetration:      penetration,
		RelativeVelocity: math.Abs(b.Velocity.Dot(normal)),
		ContactPoint:     pos.Minus(normal.Times(r)),
		At:               cs.clock.Now(),
	}, true
}
