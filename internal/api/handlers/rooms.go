package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/futhaxball/backend/internal/auth"
	"github.com/futhaxball/backend/internal/config"
	"github.com/futhaxball/backend/internal/match"
	"github.com/gin-gonic/gin"
)

// ListRooms returns the lobby listing of this instance
func ListRooms(mgr *match.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		rooms := mgr.List()
		c.Header("X-Room-Count", strconv.Itoa(len(rooms)))
		c.JSON(http.StatusOK, gin.H{"rooms": rooms})
	}
}

// CreateRoom opens a new room
func CreateRoom(mgr *match.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req match.RoomParams
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		if req.ScoreLimit != nil && *req.ScoreLimit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "score_limit must not be negative"})
			return
		}
		if req.TimeLimitMinutes != nil && *req.TimeLimitMinutes < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "time_limit_minutes must not be negative"})
			return
		}

		room, err := mgr.CreateRoom(req)
		if err != nil {
			log.Printf("[ROOMS] Failed to create room: %v", err)
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, room.Info())
	}
}

// GetRoom returns a room's info and live snapshot. Rooms hosted elsewhere
// are answered from the shared snapshot cache.
func GetRoom(mgr *match.Manager, store *match.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Param("token")
		room, err := mgr.GetByToken(token)
		if err == nil {
			c.JSON(http.StatusOK, gin.H{"room": room.Info(), "snapshot": room.Match.Snapshot(), "local": true})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		record, err := store.RoomByToken(ctx, token)
		if err != nil {
			respondError(c, err)
			return
		}
		snap, err := store.LoadSnapshot(ctx, record.ID)
		if err != nil {
			// known room without a live snapshot: closed or not yet swept
			c.JSON(http.StatusOK, gin.H{"room": record, "local": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{"room": record, "snapshot": snap, "local": false})
	}
}

// JoinRoom seats a player and issues the seat token used by the WebSocket
func JoinRoom(mgr *match.Manager, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name     string `json:"name"`
			Password string `json:"password"`
			Team     string `json:"team"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		team, err := match.ParseTeam(req.Team)
		if err != nil {
			respondError(c, err)
			return
		}

		room, playerID, err := mgr.Join(c.Param("token"), req.Name, req.Password, team)
		if err != nil {
			respondError(c, err)
			return
		}

		ttl := time.Duration(cfg.SeatTokenTTLMinutes) * time.Minute
		seat, expiresAt, err := auth.IssueSeatToken(cfg.JWTSecret, room.ID, playerID, ttl)
		if err != nil {
			log.Printf("[ROOMS] Failed to issue seat token for %s: %v", playerID, err)
			_ = room.Match.RemovePlayer(playerID)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue seat"})
			return
		}

		p, _ := room.Match.Player(playerID)
		c.JSON(http.StatusOK, gin.H{
			"room_id":    room.ID,
			"player_id":  playerID,
			"team":       p.Team,
			"seat_token": seat,
			"expires_at": expiresAt,
			"ws_url":     "/api/v1/rooms/" + room.Token + "/ws?seat=" + seat,
		})
	}
}

// RoomHistory lists recently created rooms from the database
func RoomHistory(store *match.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "25"))
		if limit <= 0 || limit > 200 {
			limit = 25
		}
		rooms, err := store.ListRooms(c.Request.Context(), limit)
		if err != nil {
			log.Printf("[DB] Failed to list rooms: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch rooms"})
			return
		}
		if rooms == nil {
			rooms = []match.RoomRecord{}
		}
		c.JSON(http.StatusOK, gin.H{"rooms": rooms})
	}
}

// RoomResults returns the recorded results of a room
func RoomResults(store *match.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		record, err := store.RoomByToken(c.Request.Context(), c.Param("token"))
		if err != nil {
			respondError(c, err)
			return
		}
		results, err := store.Results(c.Request.Context(), record.ID, 20)
		if err != nil {
			log.Printf("[DB] Failed to fetch results for %s: %v", record.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch results"})
			return
		}
		if results == nil {
			results = []match.Result{}
		}
		c.JSON(http.StatusOK, gin.H{"room_id": record.ID, "results": results})
	}
}
