package sse

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/north-cloud/webunpack/infrastructure/logger"
)

const sseContentType = "text/event-stream"

// Handler streams broker events to one client until it disconnects or the
// broker stops. The first event is "connected"; its data is hello() when
// hello is set, so a client can render current state before any change.
func Handler(b Broker, log logger.Logger, hello func() any, opts ...ClientOption) gin.HandlerFunc {
	return func(c *gin.Context) {
		events, cleanup := b.Subscribe(c.Request.Context(), opts...)
		defer cleanup()

		if events == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "too many connections"})
			return
		}

		// Streams outlive the server's write timeout.
		if err := http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{}); err != nil {
			log.Debug("SSE write deadline not cleared", logger.Error(err))
		}

		SetHeaders(c.Writer)
		c.Status(http.StatusOK)

		var data any = gin.H{"timestamp": time.Now().UTC().Format(time.RFC3339)}
		if hello != nil {
			data = hello()
		}
		if err := writeEvent(c.Writer, Event{Type: eventTypeConnected, Data: data}); err != nil {
			log.Debug("SSE connect write failed", logger.Error(err))
			return
		}

		stream(c, events, b.Heartbeat(), log)
	}
}

func stream(c *gin.Context, events <-chan Event, heartbeat time.Duration, log logger.Logger) {
	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := writeEvent(c.Writer, event); err != nil {
				log.Debug("SSE write failed", logger.String("event_type", event.Type), logger.Error(err))
				return
			}
		case <-ticker.C:
			if err := writeHeartbeat(c.Writer); err != nil {
				return
			}
		case <-c.Request.Context().Done():
			return
		}
	}
}

// SetHeaders sets the SSE response headers.
func SetHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", sseContentType)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
}

// Encode writes event in wire format.
func Encode(w io.Writer, event Event) error {
	if event.Type != "" {
		if _, err := fmt.Fprintf(w, "event: %s\n", event.Type); err != nil {
			return fmt.Errorf("write event type: %w", err)
		}
	}
	if event.ID != "" {
		if _, err := fmt.Fprintf(w, "id: %s\n", event.ID); err != nil {
			return fmt.Errorf("write event id: %w", err)
		}
	}
	if event.Retry > 0 {
		if _, err := fmt.Fprintf(w, "retry: %d\n", event.Retry); err != nil {
			return fmt.Errorf("write retry: %w", err)
		}
	}

	data, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("write event data: %w", err)
	}
	return nil
}

func writeEvent(w gin.ResponseWriter, event Event) error {
	if err := Encode(w, event); err != nil {
		return err
	}
	w.Flush()
	return nil
}

func writeHeartbeat(w gin.ResponseWriter) error {
	if _, err := fmt.Fprintf(w, ": heartbeat %s\n\n", time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("write heartbeat: %w", err)
	}
	w.Flush()
	return nil
}
