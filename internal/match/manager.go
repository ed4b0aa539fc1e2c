package match

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/futhaxball/backend/internal/config"
	"github.com/futhaxball/backend/internal/metrics"
	"github.com/futhaxball/backend/internal/physics"
	"golang.org/x/crypto/bcrypt"
)

// RoomParams are the options a host picks when opening a room.
type RoomParams struct {
	Name             string `json:"name"`
	Password         string `json:"password"`
	ScoreLimit       *int   `json:"score_limit"`
	TimeLimitMinutes *int   `json:"time_limit_minutes"`
	Weather          string `json:"weather"`
	MaxPlayers       int    `json:"max_players"`
}

// Room wraps a Match with its lobby metadata.
type Room struct {
	ID         string
	Token      string
	Name       string
	MaxPlayers int
	CreatedAt  time.Time
	Match      *Match

	passwordHash []byte
	joinMu       sync.Mutex
}

func (r *Room) Locked() bool { return len(r.passwordHash) > 0 }

// CheckPassword compares password with the room's bcrypt hash.
func (r *Room) CheckPassword(password string) error {
	if !r.Locked() {
		return nil
	}
	if err := bcrypt.CompareHashAndPassword(r.passwordHash, []byte(password)); err != nil {
		return ErrWrongPassword
	}
	return nil
}

// RoomInfo is the lobby listing entry for a room.
type RoomInfo struct {
	ID         string          `json:"id"`
	Token      string          `json:"token"`
	Name       string          `json:"name"`
	Locked     bool            `json:"locked"`
	Players    int             `json:"players"`
	MaxPlayers int             `json:"max_players"`
	Status     Status          `json:"status"`
	Score      Score           `json:"score"`
	Weather    physics.Weather `json:"weather"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (r *Room) Info() RoomInfo {
	snap := r.Match.Snapshot()
	return RoomInfo{
		ID:         r.ID,
		Token:      r.Token,
		Name:       r.Name,
		Locked:     r.Locked(),
		Players:    len(snap.Players),
		MaxPlayers: r.MaxPlayers,
		Status:     snap.Status,
		Score:      snap.Score,
		Weather:    snap.Weather,
		CreatedAt:  r.CreatedAt,
	}
}

// Manager owns every room hosted by this instance.
type Manager struct {
	rooms    map[string]*Room  // keyed by room ID
	byToken  map[string]string // token -> room ID
	cfg      *config.Config
	store    *Store
	notifier *Notifier
	ctx      context.Context
	onClose  []func(*Room)

	passwordCost int
	mu           sync.RWMutex
}

// NewManager creates a manager whose match loops live until ctx is done.
// store and notifier may be nil.
func NewManager(ctx context.Context, cfg *config.Config, store *Store, notifier *Notifier) *Manager {
	return &Manager{
		rooms:        make(map[string]*Room),
		byToken:      make(map[string]string),
		cfg:          cfg,
		store:        store,
		notifier:     notifier,
		ctx:          ctx,
		passwordCost: bcrypt.DefaultCost,
	}
}

// OnRoomClosed registers fn to run after a room is closed.
func (m *Manager) OnRoomClosed(fn func(*Room)) {
	m.mu.Lock()
	m.onClose = append(m.onClose, fn)
	m.mu.Unlock()
}

// randRead is swapped out in tests.
var randRead = rand.Read

// generateToken generates a secure random token of 2*length hex characters.
func generateToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := randRead(bytes); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// CreateRoom opens a room with a fresh match. The match loop starts with the
// first player who takes a side.
func (m *Manager) CreateRoom(p RoomParams) (*Room, error) {
	var (
		stadium    Stadium
		settings   Settings
		maxPlayers int
		maxRooms   int
	)
	m.cfg.View(func(c *config.Config) {
		stadium, settings = SettingsFromConfig(c)
		maxPlayers, maxRooms = c.MaxPlayersPerRoom, c.MaxRooms
	})
	if p.ScoreLimit != nil {
		settings.ScoreLimit = *p.ScoreLimit
	}
	if p.TimeLimitMinutes != nil {
		settings.TimeLimit = time.Duration(*p.TimeLimitMinutes) * time.Minute
	}
	if p.Weather != "" {
		settings.Weather = physics.ParseWeather(p.Weather)
	}

	if p.MaxPlayers > 0 && p.MaxPlayers < maxPlayers {
		maxPlayers = p.MaxPlayers
	}

	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = "Room"
	}

	var hash []byte
	if p.Password != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(p.Password), m.passwordCost)
		if err != nil {
			return nil, err
		}
		hash = h
	}

	suffix, err := generateToken(8)
	if err != nil {
		return nil, err
	}
	token, err := generateToken(16)
	if err != nil {
		return nil, err
	}
	id := "room_" + suffix
	match, err := NewMatch(id, stadium, settings, Options{Notifier: m.notifier, Origin: m.cfg.InstanceID})
	if err != nil {
		return nil, err
	}

	room := &Room{
		ID:           id,
		Token:        token,
		Name:         name,
		MaxPlayers:   maxPlayers,
		CreatedAt:    time.Now(),
		Match:        match,
		passwordHash: hash,
	}

	m.mu.Lock()
	if maxRooms > 0 && len(m.rooms) >= maxRooms {
		m.mu.Unlock()
		return nil, ErrRoomLimit
	}
	m.rooms[room.ID] = room
	m.byToken[room.Token] = room.ID
	m.mu.Unlock()

	metrics.ActiveRooms.Inc()
	log.Printf("[ROOMS] Room created: %s (%q, max_players=%d, locked=%t)", room.ID, room.Name, room.MaxPlayers, room.Locked())

	if m.store != nil {
		ctx, cancel := context.WithTimeout(m.ctx, 5*time.Second)
		defer cancel()
		if err := m.store.SaveRoom(ctx, room); err != nil {
			log.Printf("[DB] Failed to save room %s: %v", room.ID, err)
		}
	}
	return room, nil
}

// Join seats a player in the room identified by token. An empty team picks
// the side with fewer players.
func (m *Manager) Join(token, name, password string, team Team) (*Room, string, error) {
	room, err := m.GetByToken(token)
	if err != nil {
		return nil, "", err
	}
	if err := room.CheckPassword(password); err != nil {
		return nil, "", err
	}
	room.joinMu.Lock()
	defer room.joinMu.Unlock()

	if room.Match.Status() == StatusFinished {
		return nil, "", ErrMatchFinished
	}

	snap := room.Match.Snapshot()
	if len(snap.Players) >= room.MaxPlayers {
		return nil, "", ErrRoomFull
	}
	if team == "" {
		team = balance(snap.Players)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = "Player"
	}

	suffix, err := generateToken(6)
	if err != nil {
		return nil, "", err
	}
	playerID := "p_" + suffix
	if err := room.Match.AddPlayer(playerID, name, team); err != nil {
		return nil, "", err
	}
	log.Printf("[ROOMS] Player %s (%q) joined room %s as %s", playerID, name, room.ID, team)

	if team != TeamSpectator {
		if err := room.Match.Start(m.ctx); err != nil && !errors.Is(err, ErrAlreadyRunning) {
			log.Printf("[MATCH] Room %s failed to start: %v", room.ID, err)
		}
	}
	return room, playerID, nil
}

func balance(players []PlayerView) Team {
	red, blue := 0, 0
	for _, p := range players {
		switch p.Team {
		case TeamRed:
			red++
		case TeamBlue:
			blue++
		}
	}
	if blue < red {
		return TeamBlue
	}
	return TeamRed
}

// Leave removes a player from a room.
func (m *Manager) Leave(token, playerID string) error {
	room, err := m.GetByToken(token)
	if err != nil {
		return err
	}
	return room.Match.RemovePlayer(playerID)
}

func (m *Manager) GetByToken(token string) (*Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byToken[token]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return m.rooms[id], nil
}

func (m *Manager) Get(id string) (*Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room, ok := m.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// List returns every room, oldest first.
func (m *Manager) List() []RoomInfo {
	m.mu.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.RUnlock()

	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].CreatedAt.Before(rooms[j].CreatedAt)
	})
	out := make([]RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, r.Info())
	}
	return out
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// CloseRoom finishes the match, stops its loop and forgets the room.
func (m *Manager) CloseRoom(token, reason string) error {
	m.mu.Lock()
	id, ok := m.byToken[token]
	if !ok {
		m.mu.Unlock()
		return ErrRoomNotFound
	}
	room := m.rooms[id]
	delete(m.rooms, id)
	delete(m.byToken, token)
	hooks := append([]func(*Room){}, m.onClose...)
	m.mu.Unlock()

	room.Match.Finish(reason)
	room.Match.Stop()
	metrics.ActiveRooms.Dec()
	log.Printf("[ROOMS] Room closed: %s (reason=%s)", room.ID, reason)

	if m.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.store.MarkRoomClosed(ctx, room.ID, reason); err != nil {
			log.Printf("[DB] Failed to mark room %s closed: %v", room.ID, err)
		}
	}
	for _, fn := range hooks {
		fn(room)
	}
	return nil
}

// Shutdown closes every room.
func (m *Manager) Shutdown() {
	m.mu.RLock()
	tokens := make([]string, 0, len(m.byToken))
	for t := range m.byToken {
		tokens = append(tokens, t)
	}
	m.mu.RUnlock()

	for _, t := range tokens {
		m.CloseRoom(t, "shutdown")
	}
}

// Reap closes rooms that finished or saw no activity for idle, and stores a
// snapshot of the rest. It returns how many rooms were closed.
func (m *Manager) Reap(ctx context.Context, now time.Time, idle time.Duration) int {
	m.mu.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.RUnlock()

	closed := 0
	for _, r := range rooms {
		reason := ""
		switch {
		case r.Match.Status() == StatusFinished:
			reason = "finished"
		case idle > 0 && now.Sub(r.Match.LastActivity()) >= idle:
			reason = "idle"
		}
		if reason != "" {
			if err := m.CloseRoom(r.Token, reason); err == nil {
				closed++
			}
			continue
		}
		if m.store != nil {
			if err := m.store.SaveSnapshot(ctx, r.Match.Snapshot()); err != nil {
				log.Printf("[REAPER] Failed to store snapshot for room %s: %v", r.ID, err)
			}
		}
	}
	return closed
}
