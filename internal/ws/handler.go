package ws

import (
	"log"
	"net/http"
	"time"

	"github.com/futhaxball/backend/internal/auth"
	"github.com/futhaxball/backend/internal/config"
	"github.com/futhaxball/backend/internal/match"
	"github.com/futhaxball/backend/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// HandleWebSocket upgrades a seated player's connection to a room.
// The room comes from the :token path parameter and the seat from the
// ?seat= JWT issued by the join endpoint.
func HandleWebSocket(mgr *match.Manager, hub *Hub, cfg *config.Config) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return middleware.OriginAllowed(cfg, r.Header.Get("Origin"))
		},
	}

	return func(c *gin.Context) {
		room, err := mgr.GetByToken(c.Param("token"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}

		seatToken := c.Query("seat")
		if seatToken == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "seat token required"})
			return
		}
		seat, err := auth.ParseSeatToken(cfg.JWTSecret, seatToken)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid seat token"})
			return
		}
		if seat.RoomID != room.ID {
			c.JSON(http.StatusForbidden, gin.H{"error": "seat belongs to another room"})
			return
		}
		if _, ok := room.Match.Player(seat.PlayerID); !ok {
			c.JSON(http.StatusGone, gin.H{"error": "seat no longer valid"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[WS] Upgrade error: %v", err)
			return
		}

		format := ParseFormat(c.Query("format"))
		client := newClient(hub, conn, room.Match, seat.PlayerID, clientOptions{
			Format:       format,
			BufferSize:   cfg.WSSendBufferSize,
			InputRate:    cfg.WSInputRate,
			InputBurst:   cfg.WSInputBurst,
			PingInterval: time.Duration(cfg.WSPingIntervalSec) * time.Second,
		})

		// queued before registering so they precede any broadcast
		client.sendEnvelope(Envelope{Type: TypeWelcome, Data: Welcome{
			RoomID:   room.ID,
			PlayerID: seat.PlayerID,
			Format:   format,
			TickRate: room.Match.Settings().TickRate,
		}})
		client.sendEnvelope(Envelope{Type: TypeSnapshot, Data: room.Match.Snapshot()})
		hub.register(client)

		go client.writePump()
		go client.readPump()
	}
}
