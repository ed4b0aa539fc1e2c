package config

import (
	"sync"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TICK_RATE", "")
	t.Setenv("FIELD_WIDTH", "")
	cfg := Load()

	if cfg.TickRate != 60 {
		t.Errorf("TickRate = %d, want 60", cfg.TickRate)
	}
	if cfg.FieldWidth != 800 || cfg.FieldHeight != 400 {
		t.Errorf("field = %vx%v, want 800x400", cfg.FieldWidth, cfg.FieldHeight)
	}
	if cfg.InstanceID == "" {
		t.Errorf("InstanceID should never be empty")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TICK_RATE", "30")
	t.Setenv("COLLISION_FRICTION", "0.1")
	t.Setenv("MAX_ROOMS", "not-a-number")

	cfg := Load()
	if cfg.TickRate != 30 {
		t.Errorf("TickRate = %d, want 30", cfg.TickRate)
	}
	if cfg.CollisionFriction != 0.1 {
		t.Errorf("CollisionFriction = %v, want 0.1", cfg.CollisionFriction)
	}
	if cfg.MaxRooms != 100 {
		t.Errorf("invalid MAX_ROOMS should fall back to 100, got %d", cfg.MaxRooms)
	}
}

func TestUpdateAndViewAreSerialised(t *testing.T) {
	cfg := &Config{TickRate: 60, MaxRooms: 60}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			cfg.Update(func(c *Config) {
				c.TickRate = n + 1
				c.MaxRooms = n + 1
			})
		}(i)
		go func() {
			defer wg.Done()
			cfg.View(func(c *Config) {
				if c.TickRate != c.MaxRooms {
					t.Errorf("torn read: tick_rate=%d max_rooms=%d", c.TickRate, c.MaxRooms)
				}
			})
		}()
	}
	wg.Wait()

	cfg.View(func(c *Config) {
		if c.TickRate < 1 || c.TickRate > 50 || c.TickRate != c.MaxRooms {
			t.Errorf("final config tick_rate=%d max_rooms=%d", c.TickRate, c.MaxRooms)
		}
	})
}
