package realtime

import (
	"context"
	"errors"
	"time"
)

// Feed queues every event received on ch until ch is closed or ctx is done. Events that
// do not fit in the queue are dropped with a warning. Feed blocks; run it in its own
// goroutine.
func (rt *Runtime) Feed(ctx context.Context, ch <-chan string) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			rt.offer(ev)
		}
	}
}

// Every queues event once per period until ctx is done. Useful for timeouts and
// heartbeats that should not depend on tick reactions.
func (rt *Runtime) Every(ctx context.Context, event string, period time.Duration) error {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			rt.offer(event)
		}
	}
}

func (rt *Runtime) offer(ev string) {
	if err := rt.SendEvent(ev); errors.Is(err, ErrQueueFull) {
		rt.logger.Warn("dropping event", "chart", rt.chart.Name(), "event", ev, "error", err)
	}
}
