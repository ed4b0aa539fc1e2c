package match

import (
	"context"
	"log"
	"time"

	"github.com/futhaxball/backend/internal/config"
)

// StartReaper starts a background worker that closes finished and idle rooms
// every ReaperIntervalSeconds.
func StartReaper(ctx context.Context, mgr *Manager, cfg *config.Config) {
	if mgr == nil || cfg == nil {
		log.Println("[REAPER] Manager or config missing; reaper not started")
		return
	}

	var interval, idle time.Duration
	cfg.View(func(c *config.Config) {
		interval = time.Duration(c.ReaperIntervalSeconds) * time.Second
		idle = time.Duration(c.RoomIdleMinutes) * time.Minute
	})
	if interval <= 0 {
		interval = 30 * time.Second
	}

	log.Println("[REAPER] Room reaper started")
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Println("[REAPER] Room reaper stopping")
				return
			case now := <-ticker.C:
				if n := mgr.Reap(ctx, now, idle); n > 0 {
					log.Printf("[REAPER] Closed %d room(s), %d open", n, mgr.Count())
				}
			}
		}
	}()
}
