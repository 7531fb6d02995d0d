package dashboard

// EventType names an orchestrator event.
type EventType string

const (
	// EventState carries a full snapshot after any state change.
	EventState EventType = "state"
	// EventJobStatus carries the job after each successful poll.
	EventJobStatus EventType = "job:status"
	// EventError carries a user-facing error message.
	EventError EventType = "error"
)

const defaultSubscriberBuffer = 16

// Event is delivered to subscribers.
type Event struct {
	Type     EventType `json:"type"`
	Snapshot *Snapshot `json:"snapshot,omitempty"`
	Job      *JobView  `json:"job,omitempty"`
	Message  string    `json:"message,omitempty"`
}

// Subscribe returns a channel of events and a function that ends the
// subscription. Slow subscribers miss events rather than block the
// orchestrator. The channel is closed on unsubscribe or Close.
func (o *Orchestrator) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	ch := make(chan Event, buffer)

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		close(ch)
		return ch, func() {}
	}

	id := o.nextSubID
	o.nextSubID++
	o.subscribers[id] = ch

	return ch, func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		if sub, ok := o.subscribers[id]; ok {
			close(sub)
			delete(o.subscribers, id)
		}
	}
}

func (o *Orchestrator) publishLocked(ev Event) {
	for _, ch := range o.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (o *Orchestrator) publishStateLocked() {
	snap := o.snapshotLocked()
	o.publishLocked(Event{Type: EventState, Snapshot: &snap})
}

// failLocked sets the error banner and publishes it.
func (o *Orchestrator) failLocked(msg string) {
	o.errMsg = msg
	o.publishLocked(Event{Type: EventError, Message: msg})
}
