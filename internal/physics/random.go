package physics

import (
	"math/rand"
	"time"
)

// Random is the source for wind gusts and boundary jitter.
type Random interface {
	Float64() float64
}

// NewRandom returns a seeded source. Seed 0 picks a time-based seed.
func NewRandom(seed int64) Random {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// Clock supplies timestamps for the collision cache and ball state.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock reads the wall clock.
var SystemClock Clock = systemClock{}
