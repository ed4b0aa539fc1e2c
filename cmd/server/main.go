package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/futhaxball/backend/internal/admin"
	"github.com/futhaxball/backend/internal/api"
	"github.com/futhaxball/backend/internal/config"
	"github.com/futhaxball/backend/internal/database"
	"github.com/futhaxball/backend/internal/match"
	"github.com/futhaxball/backend/internal/migrations"
	"github.com/futhaxball/backend/internal/redis"
	"github.com/futhaxball/backend/internal/ws"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connectCtx, cancelConnect := context.WithTimeout(ctx, 10*time.Second)
	defer cancelConnect()

	db, err := database.Connect(connectCtx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations on start if requested
	if os.Getenv("MIGRATE_ON_START") == "true" {
		log.Println("[MIGRATE] Running DB migrations on startup...")
		if err := migrations.RunMigrations(cfg.DatabaseURL, os.Getenv("MIGRATIONS_DIR")); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	// Operator overrides win over the environment
	if err := admin.ApplyRuntimeConfigToConfig(db, cfg); err != nil {
		log.Printf("[CONFIG] Runtime config not applied: %v", err)
	}

	rdb, err := redis.Connect(connectCtx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer rdb.Close()

	store := match.NewStore(db, rdb, time.Duration(cfg.SnapshotTTLSeconds)*time.Second)
	hub := ws.NewHub()
	notifier := &match.Notifier{Broadcaster: hub, Publisher: store, Recorder: store}
	// outlives ctx so the game_over events of the final shutdown are written
	notifierCtx, stopNotifier := context.WithCancel(context.Background())
	notifier.Start(notifierCtx)

	mgr := match.NewManager(ctx, cfg, store, notifier)
	mgr.OnRoomClosed(func(r *match.Room) { hub.CloseRoom(r.ID) })

	ws.StartEventRelay(ctx, rdb, hub, cfg.InstanceID)
	match.StartReaper(ctx, mgr, cfg)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	api.SetupRoutes(router, api.Deps{
		Config:  cfg,
		DB:      db,
		Store:   store,
		Manager: mgr,
		Hub:     hub,
	})

	port := cfg.Port
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting futhaxball server %s on port %s", cfg.InstanceID, port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}
	mgr.Shutdown()
	hub.Shutdown()
	stopNotifier()
	notifier.Wait()
	log.Println("Server stopped")
}
