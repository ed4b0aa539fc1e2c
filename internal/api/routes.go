package api

import (
	"log"

	"github.com/futhaxball/backend/internal/api/handlers"
	"github.com/futhaxball/backend/internal/config"
	"github.com/futhaxball/backend/internal/match"
	"github.com/futhaxball/backend/internal/middleware"
	"github.com/futhaxball/backend/internal/ws"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the long-lived services the routes are wired to. DB and Store may
// be backed by nothing; handlers needing them then answer 503 or fall back.
type Deps struct {
	Config  *config.Config
	DB      *sqlx.DB
	Store   *match.Store
	Manager *match.Manager
	Hub     *ws.Hub
}

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, d Deps) {
	cfg := d.Config
	router.Use(middleware.CORSMiddleware(cfg))

	if cfg.Environment != "production" {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Next()
		})
		log.Println("[DEV MODE] no-cache headers enabled for all routes")
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck(d.Manager, cfg.InstanceID))

		rooms := v1.Group("/rooms")
		{
			rooms.GET("", handlers.ListRooms(d.Manager))
			rooms.POST("", handlers.CreateRoom(d.Manager))
			rooms.GET("/history", handlers.RoomHistory(d.Store))
			rooms.GET("/:token", handlers.GetRoom(d.Manager, d.Store))
			rooms.GET("/:token/results", handlers.RoomResults(d.Store))
			rooms.POST("/:token/join", handlers.JoinRoom(d.Manager, cfg))
			rooms.GET("/:token/ws", ws.HandleWebSocket(d.Manager, d.Hub, cfg))

			operator := rooms.Group("", middleware.OperatorAuth(cfg))
			operator.PUT("/:token/weather", handlers.SetRoomWeather(d.Manager, d.DB))
			operator.DELETE("/:token", handlers.CloseRoom(d.Manager, d.DB))
		}

		adminGroup := v1.Group("/admin")
		{
			adminGroup.POST("/login", handlers.AdminLogin(d.DB, cfg))

			authed := adminGroup.Group("", middleware.OperatorAuth(cfg))
			authed.GET("/audit", handlers.GetAuditLogs(d.DB))
			authed.GET("/config", handlers.GetRuntimeConfig(d.DB))
			authed.PUT("/config/:key", handlers.UpdateRuntimeConfig(d.DB, cfg))
		}
	}
}
