package config

import (
	"os"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string
	InstanceID  string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Simulation
	TickRate                int
	FieldWidth              float64
	FieldHeight             float64
	GoalWidth               float64
	GridSize                float64
	MaxCollisionChecks      int
	CollisionIterations     int
	CollisionRestitution    float64
	CollisionFriction       float64
	SimulationSeed          int64
	BallRadius              float64
	BallMass                float64
	BallMaxSpeed            float64
	PlayerRadius            float64
	PlayerMass              float64
	PlayerAcceleration      float64
	PlayerMaxSpeed          float64
	PlayerDamping           float64
	KickRange               float64
	KickForce               float64
	KickCooldownTicks       int
	DefaultScoreLimit       int
	DefaultTimeLimitMinutes int

	// Rooms
	MaxRooms              int
	MaxPlayersPerRoom     int
	RoomIdleMinutes       int
	ReaperIntervalSeconds int
	SnapshotTTLSeconds    int

	// WebSocket
	WSInputRate       float64
	WSInputBurst      int
	WSSendBufferSize  int
	WSPingIntervalSec int

	// Security
	JWTSecret            string
	SeatTokenTTLMinutes  int
	OperatorTokenTTLMins int

	// mu guards the fields that runtime overrides may rewrite while the
	// server is running.
	mu sync.RWMutex
}

// Update runs fn with the config write-locked.
func (c *Config) Update(fn func(*Config)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c)
}

// View runs fn with the config read-locked. fn must not call Update.
func (c *Config) View(fn func(*Config)) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fn(c)
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),
		InstanceID:  getEnv("INSTANCE_ID", defaultInstanceID()),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/futhaxball?sslmode=disable"),

		// Redis
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		// Simulation (distances in field units, speeds per tick)
		TickRate:                getEnvInt("TICK_RATE", 60),
		FieldWidth:              getEnvFloat("FIELD_WIDTH", 800),
		FieldHeight:             getEnvFloat("FIELD_HEIGHT", 400),
		GoalWidth:               getEnvFloat("GOAL_WIDTH", 130),
		GridSize:                getEnvFloat("GRID_SIZE", 50),
		MaxCollisionChecks:      getEnvInt("MAX_COLLISION_CHECKS", 1000),
		CollisionIterations:     getEnvInt("COLLISION_ITERATIONS", 4),
		CollisionRestitution:    getEnvFloat("COLLISION_RESTITUTION", 0.8),
		CollisionFriction:       getEnvFloat("COLLISION_FRICTION", 0.02),
		SimulationSeed:          int64(getEnvInt("SIMULATION_SEED", 0)),
		BallRadius:              getEnvFloat("BALL_RADIUS", 10),
		BallMass:                getEnvFloat("BALL_MASS", 1),
		BallMaxSpeed:            getEnvFloat("BALL_MAX_SPEED", 30),
		PlayerRadius:            getEnvFloat("PLAYER_RADIUS", 15),
		PlayerMass:              getEnvFloat("PLAYER_MASS", 2),
		PlayerAcceleration:      getEnvFloat("PLAYER_ACCELERATION", 0.5),
		PlayerMaxSpeed:          getEnvFloat("PLAYER_MAX_SPEED", 4),
		PlayerDamping:           getEnvFloat("PLAYER_DAMPING", 0.96),
		KickRange:               getEnvFloat("KICK_RANGE", 4),
		KickForce:               getEnvFloat("KICK_FORCE", 5),
		KickCooldownTicks:       getEnvInt("KICK_COOLDOWN_TICKS", 10),
		DefaultScoreLimit:       getEnvInt("DEFAULT_SCORE_LIMIT", 3),
		DefaultTimeLimitMinutes: getEnvInt("DEFAULT_TIME_LIMIT_MINUTES", 3),

		// Rooms
		MaxRooms:              getEnvInt("MAX_ROOMS", 100),
		MaxPlayersPerRoom:     getEnvInt("MAX_PLAYERS_PER_ROOM", 12),
		RoomIdleMinutes:       getEnvInt("ROOM_IDLE_MINUTES", 10),
		ReaperIntervalSeconds: getEnvInt("REAPER_INTERVAL_SECONDS", 30),
		SnapshotTTLSeconds:    getEnvInt("SNAPSHOT_TTL_SECONDS", 60),

		// WebSocket
		WSInputRate:       getEnvFloat("WS_INPUT_RATE", 120),
		WSInputBurst:      getEnvInt("WS_INPUT_BURST", 30),
		WSSendBufferSize:  getEnvInt("WS_SEND_BUFFER_SIZE", 256),
		WSPingIntervalSec: getEnvInt("WS_PING_INTERVAL_SECONDS", 30),

		// Security
		JWTSecret:            getEnv("JWT_SECRET", "change-me-in-production"),
		SeatTokenTTLMinutes:  getEnvInt("SEAT_TOKEN_TTL_MINUTES", 120),
		OperatorTokenTTLMins: getEnvInt("OPERATOR_TOKEN_TTL_MINUTES", 60),
	}
}

func defaultInstanceID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "local"
	}
	return host + "-" + strconv.Itoa(os.Getpid())
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
