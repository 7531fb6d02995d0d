// Package sse fans events out to Server-Sent Events clients.
package sse

import (
	"context"
	"time"
)

// Event is one Server-Sent Event, written as
// "event: <Type>\nid: <ID>\ndata: <JSON>\n\n".
type Event struct {
	Type  string `json:"type"`
	Data  any    `json:"data"`
	ID    string `json:"id,omitempty"`
	Retry int    `json:"retry,omitempty"`
}

// Publisher sends events to the broker.
type Publisher interface {
	// Publish queues event for every client. It fails when the broker's
	// buffer is full rather than block the caller.
	Publish(ctx context.Context, event Event) error
}

// Subscriber receives events from the broker.
type Subscriber interface {
	// Subscribe returns a channel closed when the subscription ends, or
	// nil when the subscription is refused.
	Subscribe(ctx context.Context, opts ...ClientOption) (<-chan Event, func())
}

// Broker manages SSE connections and event distribution.
type Broker interface {
	Publisher
	Subscriber
	Start(ctx context.Context) error
	Stop() error
	ClientCount() int
	// Heartbeat is the interval between keep-alive comments.
	Heartbeat() time.Duration
}

// EventFilter reports whether a client should receive event.
type EventFilter func(event Event) bool

// ClientOptions configures a single subscription.
type ClientOptions struct {
	Filter     EventFilter
	BufferSize int
}

const eventTypeConnected = "connected"
