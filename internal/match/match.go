package match

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/futhaxball/backend/internal/metrics"
	"github.com/futhaxball/backend/internal/physics"
)

type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

type Team string

const (
	TeamRed       Team = "red"
	TeamBlue      Team = "blue"
	TeamSpectator Team = "spectator"
)

// ParseTeam accepts red, blue and spectator. The empty string is returned
// unchanged so callers can auto-assign.
func ParseTeam(s string) (Team, error) {
	switch Team(s) {
	case TeamRed, TeamBlue, TeamSpectator, "":
		return Team(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTeam, s)
}

type Score struct {
	Red  int `json:"red" msgpack:"red"`
	Blue int `json:"blue" msgpack:"blue"`
}

// Input is the latest control state sent by a player.
type Input struct {
	Up    bool `json:"up" msgpack:"up"`
	Down  bool `json:"down" msgpack:"down"`
	Left  bool `json:"left" msgpack:"left"`
	Right bool `json:"right" msgpack:"right"`
	Kick  bool `json:"kick" msgpack:"kick"`
}

type Player struct {
	ID       string
	Name     string
	Team     Team
	Body     *physics.Body
	Input    Input
	JoinedAt time.Time

	kickCooldown int
}

func (p *Player) playing() bool { return p.Team == TeamRed || p.Team == TeamBlue }

// Options carries the collaborators of a Match. All fields are optional.
type Options struct {
	Notifier *Notifier
	Rand     physics.Random
	Clock    physics.Clock
	Origin   string
}

// Match simulates one room: a ball, the players and the collision system
// between them. All state is guarded by mu; sinks are called outside it.
type Match struct {
	id       string
	stadium  Stadium
	settings Settings
	origin   string

	ball       *physics.Ball
	collisions *physics.CollisionSystem
	players    []*Player // join order
	notifier   *Notifier
	clock      physics.Clock

	status       Status
	score        Score
	tick         uint64
	startedAt    time.Time
	endedAt      time.Time
	lastActivity time.Time
	lastTouch    string
	kicker       string

	pending []Event
	result  *Result

	running bool
	stopCh  chan struct{}
	done    chan struct{}

	mu sync.Mutex
}

// NewMatch validates the settings and builds a match waiting for kickoff.
func NewMatch(id string, stadium Stadium, settings Settings, opts Options) (*Match, error) {
	if err := stadium.validate(); err != nil {
		return nil, err
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if opts.Clock == nil {
		opts.Clock = physics.SystemClock
	}
	if opts.Rand == nil {
		opts.Rand = physics.NewRandom(settings.Seed)
	}

	m := &Match{
		id:           id,
		stadium:      stadium,
		settings:     settings,
		origin:       opts.Origin,
		notifier:     opts.Notifier,
		clock:        opts.Clock,
		status:       StatusWaiting,
		lastActivity: opts.Clock.Now(),
	}

	ball, err := physics.NewBall(settings.Ball, physics.BallOptions{
		ID:       "ball",
		Position: m.center(),
		Observer: ballFeedback{m},
		Rand:     opts.Rand,
		Clock:    opts.Clock,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	ball.SetWeather(settings.Weather)
	ball.Body().Observer = bodyFeedback{m}
	m.ball = ball

	m.collisions = physics.NewCollisionSystem(settings.Collision, opts.Clock)
	m.collisions.Init(stadium.Width, stadium.Height)
	return m, nil
}

func (m *Match) ID() string { return m.id }

func (m *Match) Stadium() Stadium { return m.stadium }

func (m *Match) Settings() Settings { return m.settings }

func (m *Match) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *Match) Score() Score {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.score
}

// LastActivity is the last time a player joined, left or sent input.
func (m *Match) LastActivity() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastActivity
}

func (m *Match) PlayerCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.players)
}

// Player returns a copy of the player with the given id.
func (m *Match) Player(id string) (Player, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p := m.findPlayer(id); p != nil {
		return *p, true
	}
	return Player{}, false
}

// AddPlayer seats a new player on team and places them at their kickoff spot.
func (m *Match) AddPlayer(id, name string, team Team) error {
	if team != TeamRed && team != TeamBlue && team != TeamSpectator {
		return fmt.Errorf("%w: %q", ErrInvalidTeam, team)
	}

	m.mu.Lock()
	if m.findPlayer(id) != nil {
		m.mu.Unlock()
		return ErrPlayerExists
	}
	now := m.clock.Now()
	p := &Player{
		ID:       id,
		Name:     name,
		Team:     team,
		JoinedAt: now,
		Body: &physics.Body{
			ID:       id,
			Kind:     physics.BodyPlayer,
			Radius:   m.settings.PlayerRadius,
			Mass:     m.settings.PlayerMass,
			Observer: bodyFeedback{m},
		},
	}
	m.players = append(m.players, p)
	p.Body.Position = m.kickoffSpot(p)
	m.lastActivity = now
	m.emit(EventPlayerJoined, map[string]interface{}{"player_id": id, "name": name, "team": team})
	m.mu.Unlock()

	m.flush(nil)
	return nil
}

// RemovePlayer drops a player from the match.
func (m *Match) RemovePlayer(id string) error {
	m.mu.Lock()
	idx := -1
	for i, p := range m.players {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		m.mu.Unlock()
		return ErrPlayerNotFound
	}
	m.players = append(m.players[:idx], m.players[idx+1:]...)
	if m.lastTouch == id {
		m.lastTouch = ""
	}
	m.lastActivity = m.clock.Now()
	m.emit(EventPlayerLeft, map[string]interface{}{"player_id": id})
	m.mu.Unlock()

	m.flush(nil)
	return nil
}

// SetInput replaces the control state of a player.
func (m *Match) SetInput(id string, in Input) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.findPlayer(id)
	if p == nil {
		return ErrPlayerNotFound
	}
	p.Input = in
	m.lastActivity = m.clock.Now()
	return nil
}

// SetWeather switches the ball's weather. Unknown keys are accepted and
// behave like clear weather.
func (m *Match) SetWeather(w physics.Weather) {
	m.mu.Lock()
	m.ball.SetWeather(w)
	m.settings.Weather = w
	m.emit(EventWeather, map[string]interface{}{"weather": w, "known": w.Known()})
	m.mu.Unlock()

	m.flush(nil)
}

// Kickoff moves a waiting match into play. It is a no-op otherwise.
func (m *Match) Kickoff() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status != StatusWaiting {
		return
	}
	m.status = StatusPlaying
	m.startedAt = m.clock.Now()
	m.resetPositions()
}

// Finish ends the match with reason. Finishing twice is a no-op.
func (m *Match) Finish(reason string) {
	m.mu.Lock()
	m.finishLocked(reason)
	m.mu.Unlock()

	m.flush(nil)
}

// Start kicks off the match and drives Tick from a ticker at the configured
// rate until ctx is done, Stop is called or the match finishes.
func (m *Match) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return ErrAlreadyRunning
	}
	if m.status == StatusFinished {
		m.mu.Unlock()
		return ErrMatchFinished
	}
	m.running = true
	m.stopCh = make(chan struct{})
	m.done = make(chan struct{})
	stop, done := m.stopCh, m.done
	m.mu.Unlock()

	m.Kickoff()
	go m.loop(ctx, stop, done)

	log.Printf("[MATCH] Room %s started at %d TPS", m.id, m.settings.TickRate)
	return nil
}

func (m *Match) loop(ctx context.Context, stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(time.Second / time.Duration(m.settings.TickRate))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			start := time.Now()
			if err := m.Tick(1); err != nil {
				log.Printf("[MATCH] Room %s tick failed: %v", m.id, err)
			}
			metrics.TickDuration.Observe(time.Since(start).Seconds())
			if m.Status() == StatusFinished {
				log.Printf("[MATCH] Room %s finished", m.id)
				return
			}
		}
	}
}

// Stop halts the loop started by Start and waits for it to exit.
func (m *Match) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	stop, done := m.stopCh, m.done
	m.mu.Unlock()

	close(stop)
	<-done
}

// Tick advances a playing match by dt. Other states are left untouched.
func (m *Match) Tick(dt float64) error {
	m.mu.Lock()
	if m.status != StatusPlaying {
		m.mu.Unlock()
		return nil
	}
	err := m.step(dt)
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.flush(&snap)
	return err
}

func (m *Match) step(dt float64) error {
	m.applyInputs(dt)
	m.resolveKicks()

	bodies := make([]*physics.Body, 0, len(m.players)+1)
	bodies = append(bodies, m.ball.Body())
	for _, p := range m.players {
		if p.playing() {
			bodies = append(bodies, p.Body)
		}
	}
	if err := m.collisions.Update(bodies, dt); err != nil {
		return fmt.Errorf("room %s: collision update: %w", m.id, err)
	}
	stats := m.collisions.Stats()
	metrics.CollisionsResolved.Add(float64(stats.Resolved))
	metrics.CollisionChecksSkipped.Add(float64(stats.Skipped))

	m.ball.Update(dt)
	m.integratePlayers(dt)
	m.tick++

	m.checkGoalsAndWalls()
	m.checkLimits()
	return nil
}

func (m *Match) applyInputs(dt float64) {
	for _, p := range m.players {
		if !p.playing() {
			continue
		}
		var dir physics.Vec2
		if p.Input.Up {
			dir.Y--
		}
		if p.Input.Down {
			dir.Y++
		}
		if p.Input.Left {
			dir.X--
		}
		if p.Input.Right {
			dir.X++
		}
		if dir.IsZero() {
			continue
		}
		accel := dir.Normalize().Times(m.settings.PlayerAcceleration * dt)
		p.Body.Velocity = p.Body.Velocity.Plus(accel)
	}
}

func (m *Match) resolveKicks() {
	ball := m.ball.Body()
	for _, p := range m.players {
		if p.kickCooldown > 0 {
			p.kickCooldown--
		}
		if !p.playing() || !p.Input.Kick || p.kickCooldown > 0 {
			continue
		}
		delta := ball.Position.Minus(p.Body.Position)
		gap := delta.Magnitude() - p.Body.Radius - ball.Radius
		if gap > m.settings.KickRange {
			continue
		}
		m.kicker = p.ID
		m.ball.ApplyForce(physics.Kick{Force: m.settings.KickForce, Angle: delta.Angle()})
		m.kicker = ""
		m.lastTouch = p.ID
		p.kickCooldown = m.settings.KickCooldownTicks
	}
}

func (m *Match) integratePlayers(dt float64) {
	damping := math.Pow(m.settings.PlayerDamping, dt)
	for _, p := range m.players {
		if !p.playing() {
			continue
		}
		b := p.Body
		b.Position = b.Position.Plus(b.Velocity.Times(dt))
		b.Velocity = b.Velocity.Times(damping)
		if speed := b.Velocity.Magnitude(); speed > m.settings.PlayerMaxSpeed {
			b.Velocity = b.Velocity.Times(m.settings.PlayerMaxSpeed / speed)
		}
	}
}

func (m *Match) checkGoalsAndWalls() {
	ball := m.ball.Body()
	if m.inGoalMouth(ball.Position.Y) {
		switch {
		case ball.Position.X < 0:
			m.scoreGoal(TeamBlue)
			return
		case ball.Position.X > m.stadium.Width:
			m.scoreGoal(TeamRed)
			return
		}
	} else if c, ok := m.collisions.ConstrainToField(ball); ok {
		m.ball.HandleCollision(c)
	}

	for _, p := range m.players {
		if !p.playing() {
			continue
		}
		c, ok := m.collisions.ConstrainToField(p.Body)
		if !ok {
			continue
		}
		if vn := p.Body.Velocity.Dot(c.Normal); vn < 0 {
			p.Body.Velocity = p.Body.Velocity.Minus(c.Normal.Times(vn))
		}
	}
}

func (m *Match) inGoalMouth(y float64) bool {
	return math.Abs(y-m.stadium.Height/2) <= m.stadium.GoalWidth/2
}

func (m *Match) scoreGoal(team Team) {
	if team == TeamRed {
		m.score.Red++
	} else {
		m.score.Blue++
	}
	metrics.Goals.WithLabelValues(string(team)).Inc()
	m.emit(EventGoal, map[string]interface{}{
		"team":   team,
		"scorer": m.lastTouch,
		"red":    m.score.Red,
		"blue":   m.score.Blue,
	})
	m.lastTouch = ""
	m.resetPositions()
}

func (m *Match) checkLimits() {
	s := m.settings
	if s.ScoreLimit > 0 && (m.score.Red >= s.ScoreLimit || m.score.Blue >= s.ScoreLimit) {
		m.finishLocked("score_limit")
		return
	}
	if s.TimeLimit > 0 && m.elapsed() >= s.TimeLimit.Seconds() {
		m.finishLocked("time_limit")
	}
}

func (m *Match) elapsed() float64 {
	return float64(m.tick) / float64(m.settings.TickRate)
}

func (m *Match) finishLocked(reason string) {
	if m.status == StatusFinished {
		return
	}
	m.status = StatusFinished
	m.endedAt = m.clock.Now()

	var winner Team
	switch {
	case m.score.Red > m.score.Blue:
		winner = TeamRed
	case m.score.Blue > m.score.Red:
		winner = TeamBlue
	}
	m.emit(EventGameOver, map[string]interface{}{
		"red":    m.score.Red,
		"blue":   m.score.Blue,
		"winner": winner,
		"reason": reason,
	})
	m.result = &Result{
		RoomID:    m.id,
		RedScore:  m.score.Red,
		BlueScore: m.score.Blue,
		Winner:    winner,
		Reason:    reason,
		Ticks:     int64(m.tick),
		StartedAt: m.startedAt,
		EndedAt:   m.endedAt,
	}
}

func (m *Match) center() physics.Vec2 {
	return physics.NewVec2(m.stadium.Width/2, m.stadium.Height/2)
}

// resetPositions puts the ball on the centre spot and each team in a column
// on its own half, alternating above and below the centre line.
func (m *Match) resetPositions() {
	m.ball.Reset(m.center())
	for _, p := range m.players {
		p.Body.Position = m.kickoffSpot(p)
		p.Body.Velocity = physics.Vec2{}
		p.kickCooldown = 0
	}
}

func (m *Match) kickoffSpot(target *Player) physics.Vec2 {
	x := m.stadium.Width / 4
	if target.Team == TeamBlue {
		x = m.stadium.Width * 3 / 4
	}
	idx := 0
	for _, p := range m.players {
		if p == target {
			break
		}
		if p.Team == target.Team {
			idx++
		}
	}
	spacing := m.settings.PlayerRadius * 2.5
	offset := float64((idx+1)/2) * spacing
	if idx%2 == 1 {
		offset = -offset
	}
	r := m.settings.PlayerRadius
	y := math.Min(math.Max(m.stadium.Height/2+offset, r), m.stadium.Height-r)
	return physics.NewVec2(x, y)
}

func (m *Match) findPlayer(id string) *Player {
	for _, p := range m.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Snapshot returns the current public state.
func (m *Match) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Match) snapshotLocked() Snapshot {
	ball := m.ball.Body()
	s := Snapshot{
		RoomID:  m.id,
		Tick:    m.tick,
		Status:  m.status,
		Score:   m.score,
		Elapsed: m.elapsed(),
		Weather: m.ball.Weather(),
		Stadium: m.stadium,
		Ball: BallView{
			Position: ball.Position,
			Velocity: ball.Velocity,
			Spin:     ball.Spin,
		},
		Players: make([]PlayerView, 0, len(m.players)),
	}
	for _, p := range m.players {
		s.Players = append(s.Players, PlayerView{
			ID:       p.ID,
			Name:     p.Name,
			Team:     p.Team,
			Position: p.Body.Position,
			Velocity: p.Body.Velocity,
			Kicking:  p.Input.Kick,
		})
	}
	return s
}

// emit queues an event for the next flush. Callers hold mu.
func (m *Match) emit(t EventType, data map[string]interface{}) {
	m.pending = append(m.pending, Event{
		Type:   t,
		RoomID: m.id,
		Tick:   m.tick,
		At:     m.clock.Now(),
		Origin: m.origin,
		Data:   data,
	})
}

// flush hands queued events, the final result and snap to the notifier.
func (m *Match) flush(snap *Snapshot) {
	m.mu.Lock()
	events := m.pending
	m.pending = nil
	result := m.result
	m.result = nil
	m.mu.Unlock()

	if m.notifier == nil {
		return
	}
	m.notifier.Dispatch(m.id, snap, events)
	if result != nil {
		m.notifier.Result(*result)
	}
}

// ballFeedback turns ball callbacks into match events. It runs inside a tick
// with mu held.
type ballFeedback struct{ m *Match }

func (f ballFeedback) OnKick(e physics.KickEvent) {
	f.m.emit(EventKick, map[string]interface{}{
		"player_id": f.m.kicker,
		"force":     e.Force,
		"angle":     e.Angle,
		"velocity":  e.Velocity,
	})
}

func (f ballFeedback) OnCollision(c physics.Collision) {
	if c.Kind != physics.CollisionBoundary {
		return
	}
	f.m.emit(EventCollision, map[string]interface{}{
		"a":                 c.A.ID,
		"kind":              c.Kind.String(),
		"relative_velocity": c.RelativeVelocity,
	})
}

func (ballFeedback) OnUpdate(physics.BallSnapshot) {}

// bodyFeedback reports resolved body-body contacts once per pair and tracks
// the last player to touch the ball.
type bodyFeedback struct{ m *Match }

func (f bodyFeedback) OnBodyCollision(self *physics.Body, c physics.Collision) {
	if self != c.A {
		return
	}
	a, b := c.IDs()
	switch {
	case c.A.Kind == physics.BodyBall:
		f.m.lastTouch = b
	case c.B.Kind == physics.BodyBall:
		f.m.lastTouch = a
	}
	f.m.emit(EventCollision, map[string]interface{}{
		"a":                 a,
		"b":                 b,
		"kind":              c.Kind.String(),
		"relative_velocity": c.RelativeVelocity,
	})
}
