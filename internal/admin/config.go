package admin

import (
	"fmt"
	"log"
	"math"
	"strconv"

	"github.com/futhaxball/backend/internal/config"
	"github.com/futhaxball/backend/internal/models"
	"github.com/jmoiron/sqlx"
)

// GetAllRuntimeConfig returns all runtime config entries
func GetAllRuntimeConfig(db *sqlx.DB) ([]models.RuntimeConfig, error) {
	var configs []models.RuntimeConfig
	err := db.Select(&configs, `
		SELECT key, value, value_type, description, updated_by, updated_at
		FROM runtime_config
		ORDER BY key
	`)
	return configs, err
}

// GetRuntimeConfigValue returns a single runtime config value
func GetRuntimeConfigValue(db *sqlx.DB, key string) (*models.RuntimeConfig, error) {
	var cfg models.RuntimeConfig
	err := db.Get(&cfg, `SELECT key, value, value_type, description, updated_by, updated_at FROM runtime_config WHERE key=$1`, key)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// keyBounds holds the accepted range of each numeric runtime config key.
var keyBounds = map[string]struct{ min, max float64 }{
	"tick_rate":                  {1, 240},
	"max_rooms":                  {1, math.MaxInt32},
	"max_players_per_room":       {1, 64},
	"room_idle_minutes":          {1, math.MaxInt32},
	"max_collision_checks":       {1, math.MaxInt32},
	"collision_iterations":       {1, 32},
	"collision_restitution":      {0, 1},
	"collision_friction":         {0, 1},
	"grid_size":                  {1, 10000},
	"kick_force":                 {0, 1000},
	"default_score_limit":        {0, 1000},
	"default_time_limit_minutes": {0, 1440},
}

// ValidateKey checks value against its type and, for known keys, its range.
func ValidateKey(key, valueType, value string) error {
	if err := ValidateValue(valueType, value); err != nil {
		return err
	}
	b, ok := keyBounds[key]
	if !ok {
		return nil
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid numeric value for %s: %s", key, value)
	}
	if !(v >= b.min && v <= b.max) {
		return fmt.Errorf("value for %s out of range [%v, %v]: %s", key, b.min, b.max, value)
	}
	return nil
}

// ValidateValue checks value against a runtime config value type
func ValidateValue(valueType, value string) error {
	switch valueType {
	case "int":
		if _, err := strconv.Atoi(value); err != nil {
			return fmt.Errorf("invalid integer value: %s", value)
		}
	case "float":
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return fmt.Errorf("invalid float value: %s", value)
		}
	case "bool":
		if value != "true" && value != "false" {
			return fmt.Errorf("invalid boolean value: %s (must be 'true' or 'false')", value)
		}
	}
	return nil
}

// UpdateRuntimeConfigValue updates a single runtime config value
func UpdateRuntimeConfigValue(db *sqlx.DB, key, value, operator string) error {
	existing, err := GetRuntimeConfigValue(db, key)
	if err != nil {
		return fmt.Errorf("config key not found: %s", key)
	}
	if err := ValidateKey(key, existing.ValueType, value); err != nil {
		return err
	}

	_, err = db.Exec(`
		UPDATE runtime_config SET value=$1, updated_by=$2, updated_at=NOW() WHERE key=$3
	`, value, operator, key)
	return err
}

// ApplyRuntimeConfigToConfig loads runtime config from DB and applies overrides to the Config struct
func ApplyRuntimeConfigToConfig(db *sqlx.DB, cfg *config.Config) error {
	configs, err := GetAllRuntimeConfig(db)
	if err != nil {
		return err
	}

	n := ApplyOverrides(cfg, configs)
	log.Printf("[CONFIG] Applied %d of %d runtime config overrides from database", n, len(configs))
	return nil
}

// ApplyOverrides copies recognised, well-typed, in-range entries onto cfg
// under its write lock and returns how many were applied. Unknown keys,
// unparsable values and values out of range are skipped.
func ApplyOverrides(cfg *config.Config, configs []models.RuntimeConfig) int {
	applied := 0
	cfg.Update(func(c *config.Config) {
		applied = applyOverrides(c, configs)
	})
	return applied
}

func applyOverrides(cfg *config.Config, configs []models.RuntimeConfig) int {
	applied := 0
	for _, c := range configs {
		if _, known := keyBounds[c.Key]; known {
			if err := ValidateKey(c.Key, "", c.Value); err != nil {
				log.Printf("[CONFIG] Skipping runtime config %s: %v", c.Key, err)
				continue
			}
		}
		ok := false
		switch c.Key {
		case "tick_rate":
			ok = setInt(&cfg.TickRate, c.Value)
		case "max_rooms":
			ok = setInt(&cfg.MaxRooms, c.Value)
		case "max_players_per_room":
			ok = setInt(&cfg.MaxPlayersPerRoom, c.Value)
		case "room_idle_minutes":
			ok = setInt(&cfg.RoomIdleMinutes, c.Value)
		case "max_collision_checks":
			ok = setInt(&cfg.MaxCollisionChecks, c.Value)
		case "collision_iterations":
			ok = setInt(&cfg.CollisionIterations, c.Value)
		case "collision_restitution":
			ok = setFloat(&cfg.CollisionRestitution, c.Value)
		case "collision_friction":
			ok = setFloat(&cfg.CollisionFriction, c.Value)
		case "grid_size":
			ok = setFloat(&cfg.GridSize, c.Value)
		case "kick_force":
			ok = setFloat(&cfg.KickForce, c.Value)
		case "default_score_limit":
			ok = setInt(&cfg.DefaultScoreLimit, c.Value)
		case "default_time_limit_minutes":
			ok = setInt(&cfg.DefaultTimeLimitMinutes, c.Value)
		default:
			log.Printf("[CONFIG] Unknown runtime config key %q ignored", c.Key)
		}
		if ok {
			applied++
		}
	}
	return applied
}

func setInt(dst *int, value string) bool {
	v, err := strconv.Atoi(value)
	if err != nil {
		return false
	}
	*dst = v
	return true
}

func setFloat(dst *float64, value string) bool {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return false
	}
	*dst = v
	return true
}
