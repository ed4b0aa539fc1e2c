package match

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/futhaxball/backend/internal/metrics"
)

// Broadcaster pushes live state to connected clients.
type Broadcaster interface {
	BroadcastSnapshot(roomID string, s Snapshot)
	BroadcastEvent(roomID string, e Event)
}

// EventPublisher fans durable events out to other instances.
type EventPublisher interface {
	PublishEvent(ctx context.Context, e Event) error
}

// Recorder persists durable events and final results.
type Recorder interface {
	RecordEvent(ctx context.Context, e Event) error
	RecordResult(ctx context.Context, r Result) error
}

// Notifier fans match output out to its sinks. Snapshots and events reach the
// Broadcaster synchronously; durable events and results are queued for the
// publisher and recorder so a slow database never stalls a tick. Any sink
// may be nil.
type Notifier struct {
	Broadcaster Broadcaster
	Publisher   EventPublisher
	Recorder    Recorder

	queue     chan func(ctx context.Context)
	done      chan struct{}
	startOnce sync.Once
}

const notifierQueueSize = 1024

// Start runs the background writer until ctx is cancelled. Calling it more
// than once is a no-op. Without Start, durable sinks are called inline.
func (n *Notifier) Start(ctx context.Context) {
	if n == nil {
		return
	}
	n.startOnce.Do(func() {
		n.queue = make(chan func(ctx context.Context), notifierQueueSize)
		n.done = make(chan struct{})
		go func() {
			defer close(n.done)
			for {
				select {
				case <-ctx.Done():
					n.drain()
					return
				case job := <-n.queue:
					job(ctx)
				}
			}
		}()
	})
}

// drain runs the jobs still queued when the writer stops.
func (n *Notifier) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case job := <-n.queue:
			job(ctx)
		default:
			return
		}
	}
}

// Wait blocks until a started writer has stopped and drained its queue.
func (n *Notifier) Wait() {
	if n == nil || n.done == nil {
		return
	}
	<-n.done
}

// Dispatch delivers one tick's output.
func (n *Notifier) Dispatch(roomID string, snap *Snapshot, events []Event) {
	if n == nil {
		return
	}
	if n.Broadcaster != nil {
		for _, e := range events {
			n.Broadcaster.BroadcastEvent(roomID, e)
		}
		if snap != nil {
			n.Broadcaster.BroadcastSnapshot(roomID, *snap)
		}
	}
	for _, e := range events {
		if !e.Durable() {
			continue
		}
		ev := e
		if n.Publisher != nil {
			n.enqueue("redis", func(ctx context.Context) {
				observe("redis", n.Publisher.PublishEvent(ctx, ev))
			})
		}
		if n.Recorder != nil {
			n.enqueue("postgres", func(ctx context.Context) {
				observe("postgres", n.Recorder.RecordEvent(ctx, ev))
			})
		}
	}
}

// Result queues the final result of a match for the recorder.
func (n *Notifier) Result(r Result) {
	if n == nil || n.Recorder == nil {
		return
	}
	n.enqueue("postgres", func(ctx context.Context) {
		if err := n.Recorder.RecordResult(ctx, r); err != nil {
			log.Printf("[DB] Failed to record result for room %s: %v", r.RoomID, err)
		}
	})
}

func (n *Notifier) enqueue(sink string, job func(ctx context.Context)) {
	if n.queue == nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		job(ctx)
		return
	}
	select {
	case n.queue <- job:
	default:
		metrics.EventsPublished.WithLabelValues(sink, "dropped").Inc()
		log.Printf("[MATCH] %s sink queue full, dropping event", sink)
	}
}

func observe(sink string, err error) {
	if err != nil {
		metrics.EventsPublished.WithLabelValues(sink, "error").Inc()
		log.Printf("[MATCH] %s sink failed: %v", sink, err)
		return
	}
	metrics.EventsPublished.WithLabelValues(sink, "ok").Inc()
}
