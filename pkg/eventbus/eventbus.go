// Package eventbus implements the broadcast channel connecting the
// registry watcher, the front-end's deploy requests, and the supervisor.
// It deliberately drops the oldest events under backpressure: the
// supervisor's correctness rests on level-triggered reconciliation, not
// on observing every event.
package eventbus

import (
	"sync"
	"time"

	"github.com/ManuMario0/trading-lab-sub000/pkg/manifest"
)

// EventKind tags the variant of a SystemEvent.
type EventKind string

const (
	EventServiceDiscovered EventKind = "service_discovered"
	EventDeployRequested   EventKind = "deploy_requested"
	EventServiceStarted    EventKind = "service_started"
	EventServiceCrashed    EventKind = "service_crashed"
	EventError             EventKind = "error"
)

// SystemEvent is the sum type flowing through the bus. Only the fields
// relevant to Kind are populated.
type SystemEvent struct {
	Kind      EventKind
	Timestamp time.Time

	// EventServiceDiscovered
	Descriptor manifest.ServiceDescriptor

	// EventDeployRequested
	LayoutID string
	// Layout is untyped here (interface{}) to avoid an import cycle with
	// pkg/layout; the supervisor type-asserts it back to *layout.Layout.
	Layout interface{}

	// EventServiceStarted
	NodeID string
	PID    int

	// EventServiceCrashed
	ExitCode int

	// EventError
	ErrorKind string
	Message   string
}

// Subscriber is a channel that receives events.
type Subscriber chan SystemEvent

// Bus manages event subscriptions and broadcast distribution.
type Bus struct {
	subscribers map[Subscriber]bool
	mu          sync.RWMutex
	eventCh     chan SystemEvent
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// DefaultCapacity is the default bounded capacity of the bus's internal
// channel, matching the spec's default broadcast-channel size.
const DefaultCapacity = 100

// subscriberBuffer is the per-subscriber channel buffer; a slow
// subscriber that falls this far behind starts losing the oldest events.
const subscriberBuffer = 50

// New creates a Bus with the default capacity.
func New() *Bus {
	return NewWithCapacity(DefaultCapacity)
}

// NewWithCapacity creates a Bus with a caller-chosen bounded capacity.
func NewWithCapacity(capacity int) *Bus {
	return &Bus{
		subscribers: make(map[Subscriber]bool),
		eventCh:     make(chan SystemEvent, capacity),
		stopCh:      make(chan struct{}),
	}
}

// Start begins the bus's distribution loop.
func (b *Bus) Start() {
	go b.run()
}

// Stop shuts the bus down; safe to call more than once.
func (b *Bus) Stop() {
	b.stopOnce.Do(func() { close(b.stopCh) })
}

// Subscribe registers a new subscriber and returns its channel.
func (b *Bus) Subscribe() Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := make(Subscriber, subscriberBuffer)
	b.subscribers[sub] = true
	return sub
}

// Unsubscribe removes and closes a subscription.
func (b *Bus) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subscribers[sub] {
		delete(b.subscribers, sub)
		close(sub)
	}
}

// Publish enqueues an event for broadcast. If the bus's internal buffer
// is full, Publish drops the event rather than block the caller.
func (b *Bus) Publish(event SystemEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case b.eventCh <- event:
	case <-b.stopCh:
	default:
		// Internal buffer full: drop rather than stall the publisher.
	}
}

func (b *Bus) run() {
	for {
		select {
		case event := <-b.eventCh:
			b.broadcast(event)
		case <-b.stopCh:
			return
		}
	}
}

func (b *Bus) broadcast(event SystemEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subscribers {
		select {
		case sub <- event:
		default:
			// Buffer full: evict the oldest queued event to make room
			// for this one, ring-buffer style, rather than drop the
			// event that just arrived. Level-triggered reconciliation
			// tolerates losing stale events this way.
			select {
			case <-sub:
			default:
			}
			select {
			case sub <- event:
			default:
				// A concurrent reader raced us for the freed slot;
				// drop rather than block the bus.
			}
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
