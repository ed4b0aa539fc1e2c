package match

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// EventsChannel is the Redis pub/sub channel carrying durable match events.
const EventsChannel = "match_events"

var ErrSnapshotNotFound = errors.New("snapshot not found")

// Store persists rooms, results and events in Postgres and shares snapshots
// and events through Redis. A nil db or rdb disables that half.
type Store struct {
	db          *sqlx.DB
	rdb         *redis.Client
	snapshotTTL time.Duration
}

func NewStore(db *sqlx.DB, rdb *redis.Client, snapshotTTL time.Duration) *Store {
	if snapshotTTL <= 0 {
		snapshotTTL = time.Minute
	}
	return &Store{db: db, rdb: rdb, snapshotTTL: snapshotTTL}
}

// RoomRecord is a row of the rooms table.
type RoomRecord struct {
	ID          string     `db:"id" json:"id"`
	Token       string     `db:"token" json:"token"`
	Name        string     `db:"name" json:"name"`
	Locked      bool       `db:"locked" json:"locked"`
	MaxPlayers  int        `db:"max_players" json:"max_players"`
	ScoreLimit  int        `db:"score_limit" json:"score_limit"`
	TimeLimit   int        `db:"time_limit_seconds" json:"time_limit_seconds"`
	Weather     string     `db:"weather" json:"weather"`
	Status      string     `db:"status" json:"status"`
	CloseReason *string    `db:"close_reason" json:"close_reason,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	ClosedAt    *time.Time `db:"closed_at" json:"closed_at,omitempty"`
}

func (s *Store) SaveRoom(ctx context.Context, r *Room) error {
	if s == nil || s.db == nil {
		return nil
	}
	settings := r.Match.Settings()
	_, err := s.db.ExecContext(ctx, `INSERT INTO rooms (id, token, name, locked, max_players, score_limit, time_limit_seconds, weather, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'open', $9)`,
		r.ID, r.Token, r.Name, r.Locked(), r.MaxPlayers, settings.ScoreLimit, int(settings.TimeLimit.Seconds()), string(settings.Weather), r.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert room: %w", err)
	}
	return nil
}

func (s *Store) MarkRoomClosed(ctx context.Context, roomID, reason string) error {
	if s == nil || s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `UPDATE rooms SET status='closed', close_reason=$2, closed_at=NOW() WHERE id=$1`, roomID, reason)
	if err != nil {
		return fmt.Errorf("close room: %w", err)
	}
	return nil
}

// ListRooms returns the most recently created rooms, open or closed.
func (s *Store) ListRooms(ctx context.Context, limit int) ([]RoomRecord, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var rooms []RoomRecord
	err := s.db.SelectContext(ctx, &rooms, `SELECT id, token, name, locked, max_players, score_limit, time_limit_seconds, weather, status, close_reason, created_at, closed_at
		FROM rooms ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

// RoomByToken looks a room up by its join token, open or closed.
func (s *Store) RoomByToken(ctx context.Context, token string) (*RoomRecord, error) {
	if s == nil || s.db == nil {
		return nil, ErrRoomNotFound
	}
	var room RoomRecord
	err := s.db.GetContext(ctx, &room, `SELECT id, token, name, locked, max_players, score_limit, time_limit_seconds, weather, status, close_reason, created_at, closed_at
		FROM rooms WHERE token=$1`, token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get room: %w", err)
	}
	return &room, nil
}

// RecordEvent implements Recorder.
func (s *Store) RecordEvent(ctx context.Context, e Event) error {
	if s == nil || s.db == nil {
		return nil
	}
	payload, err := json.Marshal(e.Data)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO match_events (room_id, event_type, tick, payload, created_at) VALUES ($1, $2, $3, $4, $5)`,
		e.RoomID, string(e.Type), int64(e.Tick), string(payload), e.At)
	if err != nil {
		return fmt.Errorf("insert match event: %w", err)
	}
	return nil
}

// RecordResult implements Recorder.
func (s *Store) RecordResult(ctx context.Context, r Result) error {
	if s == nil || s.db == nil {
		return nil
	}
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO match_results (room_id, red_score, blue_score, winner, reason, ticks, started_at, ended_at)
		VALUES (:room_id, :red_score, :blue_score, :winner, :reason, :ticks, :started_at, :ended_at)`, r)
	if err != nil {
		return fmt.Errorf("insert match result: %w", err)
	}
	return nil
}

// Results returns the latest results for a room, newest first.
func (s *Store) Results(ctx context.Context, roomID string, limit int) ([]Result, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var results []Result
	err := s.db.SelectContext(ctx, &results, `SELECT room_id, red_score, blue_score, winner, reason, ticks, started_at, ended_at
		FROM match_results WHERE room_id=$1 ORDER BY ended_at DESC LIMIT $2`, roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("list match results: %w", err)
	}
	return results, nil
}

// PublishEvent implements EventPublisher.
func (s *Store) PublishEvent(ctx context.Context, e Event) error {
	if s == nil || s.rdb == nil {
		return nil
	}
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.rdb.Publish(ctx, EventsChannel, b).Err()
}

func snapshotKey(roomID string) string {
	return "room:snapshot:" + roomID
}

// SaveSnapshot caches the latest state of a room for other instances.
func (s *Store) SaveSnapshot(ctx context.Context, snap Snapshot) error {
	if s == nil || s.rdb == nil {
		return nil
	}
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.rdb.SetEx(ctx, snapshotKey(snap.RoomID), b, s.snapshotTTL).Err()
}

func (s *Store) LoadSnapshot(ctx context.Context, roomID string) (*Snapshot, error) {
	if s == nil || s.rdb == nil {
		return nil, ErrSnapshotNotFound
	}
	b, err := s.rdb.Get(ctx, snapshotKey(roomID)).Bytes()
	if err == redis.Nil {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}
