package physics

import (
	"math"
	"time"
)

type fixedRandom struct {
	value float64
}

func (r fixedRandom) Float64() float64 { return r.value }

type manualClock struct {
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time { return c.now }

func (c *manualClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type recordingObserver struct {
	kicks      []KickEvent
	collisions []Collision
	updates    []BallSnapshot
}

func (o *recordingObserver) OnKick(e KickEvent) { o.kicks = append(o.kicks, e) }
func (o *recordingObserver) OnCollision(c Collision) { o.collisions = append(o.collisions, c) }
func (o *recordingObserver) OnUpdate(s BallSnapshot) { o.updates = append(o.updates, s) }

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func newTestBall(cfg BallConfig, rnd float64) (*Ball, *recordingObserver) {
	obs := &recordingObserver{}
	b, err := NewBall(cfg, BallOptions{
		ID:       "ball",
		Observer: obs,
		Rand:     fixedRandom{value: rnd},
		Clock:    newManualClock(),
	})
	if err != nil {
		panic(err)
	}
	return b, obs
}
