// Package context provides timeout helpers shared by the CLI and the dashboard server.
package context

import (
	"context"
	"time"
)

const (
	// DefaultTimeout bounds a standard backend request.
	DefaultTimeout = 30 * time.Second

	// DefaultShutdownTimeout bounds graceful shutdown of the dashboard server.
	DefaultShutdownTimeout = 10 * time.Second

	// DefaultPingTimeout bounds liveness probes and Redis pings.
	DefaultPingTimeout = 5 * time.Second
)

// WithTimeout derives a context from parent limited to d. A non-positive d
// falls back to DefaultTimeout.
func WithTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = DefaultTimeout
	}
	return context.WithTimeout(parent, d)
}

// WithPingTimeout derives a context from parent limited to DefaultPingTimeout.
func WithPingTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, DefaultPingTimeout)
}

// WithShutdownTimeout returns a fresh context limited to DefaultShutdownTimeout.
// It does not derive from a parent because shutdown usually starts after the
// parent was cancelled.
func WithShutdownTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), DefaultShutdownTimeout)
}
