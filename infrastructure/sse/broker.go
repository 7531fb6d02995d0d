package sse

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/north-cloud/webunpack/infrastructure/logger"
)

// ErrBufferFull is returned by Publish when the broker cannot keep up.
var ErrBufferFull = errors.New("sse publish buffer full")

type broker struct {
	log     logger.Logger
	clients map[string]*client
	mu      sync.RWMutex
	stopped bool

	publish chan Event

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	eventBufferSize   int
	clientBufferSize  int
	heartbeatInterval time.Duration
	shutdownTimeout   time.Duration
	maxClients        int
}

// NewBroker creates a broker. Call Start before publishing.
func NewBroker(log logger.Logger, opts ...BrokerOption) Broker {
	if log == nil {
		log = logger.NewNop()
	}
	b := &broker{
		log:               log,
		clients:           make(map[string]*client),
		eventBufferSize:   DefaultEventBufferSize,
		clientBufferSize:  DefaultClientBufferSize,
		heartbeatInterval: DefaultHeartbeatInterval,
		shutdownTimeout:   DefaultShutdownTimeout,
		maxClients:        DefaultMaxClients,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.publish = make(chan Event, b.eventBufferSize)
	return b
}

// Start begins distributing events until ctx ends or Stop is called.
func (b *broker) Start(ctx context.Context) error {
	b.ctx, b.cancel = context.WithCancel(ctx)

	b.wg.Add(1)
	go b.broadcastLoop()

	b.log.Debug("SSE broker started",
		logger.Int("client_buffer_size", b.clientBufferSize),
		logger.Duration("heartbeat_interval", b.heartbeatInterval),
		logger.Int("max_clients", b.maxClients),
	)
	return nil
}

// Stop disconnects every client and waits for the loop to exit.
func (b *broker) Stop() error {
	b.mu.Lock()
	b.stopped = true
	b.mu.Unlock()

	if b.cancel != nil {
		b.cancel()
	}

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(b.shutdownTimeout):
		b.log.Warn("SSE broker shutdown timeout exceeded")
		return fmt.Errorf("sse broker: shutdown exceeded %s", b.shutdownTimeout)
	}
}

func (b *broker) Publish(ctx context.Context, event Event) error {
	select {
	case b.publish <- event:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("publish cancelled: %w", ctx.Err())
	default:
		return fmt.Errorf("%w: dropped %s", ErrBufferFull, event.Type)
	}
}

// Subscribe registers a client. When the broker is stopped or full it
// returns a nil channel.
func (b *broker) Subscribe(ctx context.Context, opts ...ClientOption) (<-chan Event, func()) {
	clientOpts := ClientOptions{BufferSize: b.clientBufferSize}
	for _, opt := range opts {
		opt(&clientOpts)
	}

	b.mu.Lock()
	if b.stopped || (b.maxClients > 0 && len(b.clients) >= b.maxClients) {
		count := len(b.clients)
		b.mu.Unlock()
		b.log.Warn("SSE subscription rejected", logger.Int("current_clients", count))
		return nil, func() {}
	}
	c := newClient(ctx, clientOpts.BufferSize, clientOpts.Filter)
	b.clients[c.id] = c
	b.wg.Add(1)
	b.mu.Unlock()

	b.log.Debug("SSE client subscribed", logger.String("client_id", c.id))

	go b.cleanupClient(c)

	return c.events, func() { b.removeClient(c.id) }
}

func (b *broker) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

func (b *broker) Heartbeat() time.Duration {
	return b.heartbeatInterval
}

func (b *broker) broadcastLoop() {
	defer b.wg.Done()

	for {
		select {
		case event := <-b.publish:
			b.broadcast(event)
		case <-b.ctx.Done():
			b.disconnectAll()
			return
		}
	}
}

// broadcast delivers event to every client. Clients whose buffer is full
// are disconnected; they reconnect and receive a fresh snapshot.
func (b *broker) broadcast(event Event) {
	b.mu.RLock()
	clients := make([]*client, 0, len(b.clients))
	for _, c := range b.clients {
		clients = append(clients, c)
	}
	b.mu.RUnlock()

	for _, c := range clients {
		if !c.send(event) {
			b.log.Warn("SSE client too slow, disconnecting",
				logger.String("client_id", c.id),
				logger.String("event_type", event.Type),
			)
			b.removeClient(c.id)
		}
	}
}

func (b *broker) cleanupClient(c *client) {
	defer b.wg.Done()
	<-c.ctx.Done()
	b.removeClient(c.id)
}

func (b *broker) removeClient(id string) {
	b.mu.Lock()
	c, ok := b.clients[id]
	delete(b.clients, id)
	b.mu.Unlock()

	if ok {
		c.close()
		b.log.Debug("SSE client disconnected", logger.String("client_id", id))
	}
}

func (b *broker) disconnectAll() {
	b.mu.Lock()
	clients := b.clients
	b.clients = make(map[string]*client)
	b.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}
