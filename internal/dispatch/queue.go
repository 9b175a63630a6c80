package dispatch

import (
	"context"
	"fmt"
	"sync"

	"github.com/angelmondragon/citypulse-backend/pkg/logger"
	"github.com/angelmondragon/citypulse-backend/pkg/metrics"
)

// Queue is a bounded in-process event buffer. Publish never blocks: when the
// buffer is full the oldest queued event is dropped to make room.
type Queue struct {
	events  chan Event
	mu      sync.Mutex
	logg    *logger.Logger
	metrics *metrics.DispatchMetrics
}

func NewQueue(size int, logg *logger.Logger, m *metrics.DispatchMetrics) (*Queue, error) {
	if size <= 0 {
		return nil, fmt.Errorf("dispatch queue size must be positive")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Queue{
		events:  make(chan Event, size),
		logg:    logg,
		metrics: m,
	}, nil
}

// Publish enqueues ev and reports whether an older event was dropped.
func (q *Queue) Publish(ctx context.Context, ev Event) (dropped bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for {
		select {
		case q.events <- ev:
			q.metrics.IncQueued()
			q.metrics.SetDepth(len(q.events))
			return dropped
		default:
		}

		select {
		case old := <-q.events:
			dropped = true
			q.metrics.IncDropped()
			logCtx := q.logg.WithFields(q.logg.WithTriggerType(ctx, old.TriggerType.String()), map[string]any{
				"event_id": old.ID.String(),
				"user_id":  old.UserID.String(),
			})
			q.logg.Warn(logCtx, "dispatch queue full, dropped oldest event")
		default:
		}
	}
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	return len(q.events)
}
