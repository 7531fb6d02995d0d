package api

import (
	"context"
	"errors"

	"github.com/north-cloud/webunpack/infrastructure/logger"
	"github.com/north-cloud/webunpack/infrastructure/sse"
	"github.com/north-cloud/webunpack/internal/dashboard"
)

// Forward relays orchestrator events to the SSE broker until the
// orchestrator closes or ctx ends. It blocks; run it in a goroutine.
func Forward(ctx context.Context, orch *dashboard.Orchestrator, broker sse.Publisher, log logger.Logger) {
	events, cancel := orch.Subscribe(0)
	defer cancel()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := broker.Publish(ctx, toSSE(ev)); err != nil && !errors.Is(err, context.Canceled) {
				log.Warn("Dropped session event", logger.String("event_type", string(ev.Type)), logger.Error(err))
			}
		case <-ctx.Done():
			return
		}
	}
}

func toSSE(ev dashboard.Event) sse.Event {
	out := sse.Event{Type: string(ev.Type)}
	switch ev.Type {
	case dashboard.EventState:
		out.Data = ev.Snapshot
	case dashboard.EventJobStatus:
		out.Data = ev.Job
	default:
		out.Data = map[string]string{"message": ev.Message}
	}
	return out
}
