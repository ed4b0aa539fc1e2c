package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Labels are kept bounded: no per-room or per-player values.
var (
	TickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "match_tick_duration_seconds",
		Help:    "Time spent simulating one match tick",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025},
	})

	CollisionsResolved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "match_collisions_resolved_total",
		Help: "Body-body collisions resolved by the collision system",
	})

	CollisionChecksSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "match_collision_checks_skipped_total",
		Help: "Broad-phase candidates dropped by the per-pass check cap",
	})

	Goals = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "match_goals_total",
		Help: "Goals scored",
	}, []string{"team"}) // Bounded: "red", "blue"

	ActiveRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rooms_active",
		Help: "Rooms currently open",
	})

	WSConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_connections_active",
		Help: "Currently active WebSocket connections",
	})

	WSMessagesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "websocket_messages_dropped_total",
		Help: "WebSocket messages dropped",
	}, []string{"reason"}) // Bounded: "buffer_full", "rate_limit", "invalid"

	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "match_events_published_total",
		Help: "Match events handed to the persistence and pub/sub sinks",
	}, []string{"sink", "result"}) // Bounded: sink "redis"|"postgres", result "ok"|"error"|"dropped"
)
