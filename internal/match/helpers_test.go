package match

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/futhaxball/backend/internal/config"
)

type fixedRandom float64

func (r fixedRandom) Float64() float64 { return float64(r) }

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// recordingSink implements every notifier sink.
type recordingSink struct {
	mu        sync.Mutex
	events    []Event
	snapshots []Snapshot
	published []Event
	recorded  []Event
	results   []Result
}

func (s *recordingSink) BroadcastSnapshot(roomID string, snap Snapshot) {
	s.mu.Lock()
	s.snapshots = append(s.snapshots, snap)
	s.mu.Unlock()
}

func (s *recordingSink) BroadcastEvent(roomID string, e Event) {
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
}

func (s *recordingSink) PublishEvent(ctx context.Context, e Event) error {
	s.mu.Lock()
	s.published = append(s.published, e)
	s.mu.Unlock()
	return nil
}

func (s *recordingSink) RecordEvent(ctx context.Context, e Event) error {
	s.mu.Lock()
	s.recorded = append(s.recorded, e)
	s.mu.Unlock()
	return nil
}

func (s *recordingSink) RecordResult(ctx context.Context, r Result) error {
	s.mu.Lock()
	s.results = append(s.results, r)
	s.mu.Unlock()
	return nil
}

func (s *recordingSink) eventsOf(t EventType) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, e := range s.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func (s *recordingSink) publishedOf(t EventType) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, e := range s.published {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func (s *recordingSink) notifier() *Notifier {
	return &Notifier{Broadcaster: s, Publisher: s, Recorder: s}
}

func newTestMatch(t *testing.T, mutate func(*Settings)) (*Match, *recordingSink) {
	t.Helper()
	settings := DefaultSettings()
	if mutate != nil {
		mutate(&settings)
	}
	sink := &recordingSink{}
	m, err := NewMatch("room_test", DefaultStadium(), settings, Options{
		Notifier: sink.notifier(),
		Rand:     fixedRandom(0.5),
		Clock:    newTestClock(),
		Origin:   "test-instance",
	})
	if err != nil {
		t.Fatalf("NewMatch: %v", err)
	}
	return m, sink
}

func testConfig() *config.Config {
	return &config.Config{
		InstanceID:              "test-instance",
		TickRate:                60,
		FieldWidth:              800,
		FieldHeight:             400,
		GoalWidth:               130,
		GridSize:                50,
		MaxCollisionChecks:      1000,
		CollisionIterations:     4,
		CollisionRestitution:    0.8,
		CollisionFriction:       0.02,
		BallRadius:              10,
		BallMass:                1,
		BallMaxSpeed:            30,
		PlayerRadius:            15,
		PlayerMass:              2,
		PlayerAcceleration:      0.5,
		PlayerMaxSpeed:          4,
		PlayerDamping:           0.96,
		KickRange:               4,
		KickForce:               5,
		KickCooldownTicks:       10,
		DefaultScoreLimit:       3,
		DefaultTimeLimitMinutes: 3,
		MaxRooms:                3,
		MaxPlayersPerRoom:       4,
		RoomIdleMinutes:         10,
	}
}
