package handlers

import (
	"log"
	"net/http"

	"github.com/futhaxball/backend/internal/admin"
	"github.com/futhaxball/backend/internal/match"
	"github.com/futhaxball/backend/internal/middleware"
	"github.com/futhaxball/backend/internal/physics"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

// SetRoomWeather changes the weather of a running room
func SetRoomWeather(mgr *match.Manager, db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		operator := c.GetString(middleware.OperatorKey)
		token := c.Param("token")

		var req struct {
			Weather string `json:"weather" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "weather is required"})
			return
		}

		room, err := mgr.GetByToken(token)
		if err != nil {
			admin.LogOperatorAction(db, operator, c.ClientIP(), c.FullPath(), "set_weather", map[string]interface{}{"token": token, "weather": req.Weather}, false)
			respondError(c, err)
			return
		}

		w := physics.ParseWeather(req.Weather)
		room.Match.SetWeather(w)
		log.Printf("[ADMIN] %s set weather of room %s to %s", operator, room.ID, w)
		admin.LogOperatorAction(db, operator, c.ClientIP(), c.FullPath(), "set_weather", map[string]interface{}{"room_id": room.ID, "weather": w}, true)
		c.JSON(http.StatusOK, gin.H{"room_id": room.ID, "weather": w, "known": w.Known()})
	}
}

// CloseRoom ends a room's match and removes it
func CloseRoom(mgr *match.Manager, db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		operator := c.GetString(middleware.OperatorKey)
		token := c.Param("token")

		reason := c.DefaultQuery("reason", "closed_by_operator")
		if err := mgr.CloseRoom(token, reason); err != nil {
			admin.LogOperatorAction(db, operator, c.ClientIP(), c.FullPath(), "close_room", map[string]interface{}{"token": token}, false)
			respondError(c, err)
			return
		}
		log.Printf("[ADMIN] %s closed room with token %s", operator, token)
		admin.LogOperatorAction(db, operator, c.ClientIP(), c.FullPath(), "close_room", map[string]interface{}{"token": token, "reason": reason}, true)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
