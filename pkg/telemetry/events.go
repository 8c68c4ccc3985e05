package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event represents a telemetry event in the symposium system.
type Event struct {
	// ID is the unique identifier for this event.
	ID string `json:"id"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Type is the event type.
	Type string `json:"type"`

	// Scope is the routing key: ScopeServer for table-wide events,
	// ScopePhilosopher for events attributed to a single philosopher.
	Scope string `json:"scope"`

	// PhilosopherID is the associated philosopher, if applicable.
	PhilosopherID int `json:"philosopher_id,omitempty"`

	// ChopstickID is the associated chopstick, if applicable.
	ChopstickID int `json:"chopstick_id,omitempty"`

	// Message is a human-readable event message.
	Message string `json:"message"`

	// Level is the event severity level (info, warning, error).
	Level string `json:"level"`

	// Data contains additional event-specific data.
	Data map[string]interface{} `json:"data,omitempty"`
}

// EventType constants for common event types.
const (
	EventTypeAdmitted          = "philosopher.admitted"
	EventTypeStateChanged      = "philosopher.state_changed"
	EventTypeLookupFailed      = "philosopher.lookup_failed"
	EventTypeGateWaiting       = "gate.waiting"
	EventTypeGateAcquired      = "gate.acquired"
	EventTypeGateReleased      = "gate.released"
	EventTypeGatePermitAdded   = "gate.permit_added"
	EventTypeChopstickWaiting  = "chopstick.waiting"
	EventTypeChopstickAcquired = "chopstick.acquired"
	EventTypeChopstickReleased = "chopstick.released"
	EventTypeConnectionOpened  = "connection.opened"
	EventTypeConnectionClosed  = "connection.closed"
	EventTypeError             = "error"
)

// Event scope constants. The scope routes an event either to the shared
// server stream or to the stream of the philosopher it belongs to.
const (
	ScopeServer      = "server"
	ScopePhilosopher = "philosopher"
)

// EventLevel constants for event severity.
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// EventSubscriber is a function that handles events. Subscribers run on the
// delivery goroutine and must not block; a slow subscriber delays delivery
// and eventually causes publishers to drop events.
type EventSubscriber func(event Event)

// EventFilter determines if an event should be processed.
type EventFilter func(event Event) bool

// EventPublisher manages event publishing and subscriptions. Publishing is
// fire-and-forget: when the buffer is full the event is dropped rather than
// blocking the philosopher that produced it.
type EventPublisher struct {
	config      EventsConfig
	buffer      chan Event
	subscribers []subscriberEntry
	filters     []EventFilter
	wg          sync.WaitGroup
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
}

type subscriberEntry struct {
	subscriber EventSubscriber
	filter     EventFilter
}

// NewEventPublisher creates a new event publisher with the given configuration.
func NewEventPublisher(cfg EventsConfig) (*EventPublisher, error) {
	if !cfg.Enabled {
		return &EventPublisher{config: cfg}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())

	ep := &EventPublisher{
		config:      cfg,
		buffer:      make(chan Event, cfg.BufferSize),
		subscribers: make([]subscriberEntry, 0),
		filters:     make([]EventFilter, 0),
		ctx:         ctx,
		cancel:      cancel,
	}

	// Start the event processing goroutine
	if cfg.EnableAsync {
		ep.wg.Add(1)
		go ep.processEvents()
	}

	return ep, nil
}

// Publish publishes an event to all subscribers.
func (ep *EventPublisher) Publish(event Event) error {
	if !ep.config.Enabled {
		return nil
	}

	// Set ID and timestamp if not already set
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	// Apply global filters
	ep.mu.RLock()
	for _, filter := range ep.filters {
		if !filter(event) {
			ep.mu.RUnlock()
			return nil // Event filtered out
		}
	}
	ep.mu.RUnlock()

	// Send to buffer if async, otherwise deliver immediately
	if ep.config.EnableAsync {
		select {
		case ep.buffer <- event:
			return nil
		case <-ep.ctx.Done():
			return fmt.Errorf("event publisher stopped")
		default:
			return fmt.Errorf("event buffer full, event dropped")
		}
	}

	// Synchronous publishing
	ep.deliverEvent(event)
	return nil
}

// PublishAdmitted publishes an event for a philosopher joining the table.
func (ep *EventPublisher) PublishAdmitted(id, leftID, rightID int) error {
	return ep.Publish(Event{
		Type:          EventTypeAdmitted,
		Scope:         ScopeServer,
		PhilosopherID: id,
		Message:       fmt.Sprintf("Philosopher %d joined the table (left chopstick %d, right chopstick %d)", id, leftID, rightID),
		Level:         EventLevelInfo,
		Data: map[string]interface{}{
			"left_chopstick":  leftID,
			"right_chopstick": rightID,
		},
	})
}

// PublishStateChanged publishes a philosopher state transition.
func (ep *EventPublisher) PublishStateChanged(id int, oldState, newState string, timer int) error {
	return ep.Publish(Event{
		Type:          EventTypeStateChanged,
		Scope:         ScopePhilosopher,
		PhilosopherID: id,
		Message:       fmt.Sprintf("Philosopher %d is now %s (was %s)", id, newState, oldState),
		Level:         EventLevelInfo,
		Data: map[string]interface{}{
			"old_state":   oldState,
			"new_state":   newState,
			"state_timer": timer,
		},
	})
}

// PublishLookupFailed publishes a failed philosopher lookup.
func (ep *EventPublisher) PublishLookupFailed(id int) error {
	return ep.Publish(Event{
		Type:          EventTypeLookupFailed,
		Scope:         ScopeServer,
		PhilosopherID: id,
		Message:       fmt.Sprintf("No philosopher with id %d is seated at the table", id),
		Level:         EventLevelWarning,
	})
}

// PublishGateWaiting publishes that a philosopher is blocked on the dining gate.
func (ep *EventPublisher) PublishGateWaiting(id int) error {
	return ep.Publish(Event{
		Type:          EventTypeGateWaiting,
		Scope:         ScopePhilosopher,
		PhilosopherID: id,
		Message:       fmt.Sprintf("Philosopher %d is waiting for a seat at the gate", id),
		Level:         EventLevelInfo,
	})
}

// PublishGateAcquired publishes that a philosopher holds a gate permit,
// reporting how many permits remain available behind it.
func (ep *EventPublisher) PublishGateAcquired(id, available int) error {
	return ep.Publish(Event{
		Type:          EventTypeGateAcquired,
		Scope:         ScopePhilosopher,
		PhilosopherID: id,
		Message:       fmt.Sprintf("Philosopher %d passed the gate (%d seats left)", id, available),
		Level:         EventLevelInfo,
		Data: map[string]interface{}{
			"available": available,
		},
	})
}

// PublishGateReleased publishes that a philosopher returned its gate permit.
func (ep *EventPublisher) PublishGateReleased(id int) error {
	return ep.Publish(Event{
		Type:          EventTypeGateReleased,
		Scope:         ScopePhilosopher,
		PhilosopherID: id,
		Message:       fmt.Sprintf("Philosopher %d left the gate", id),
		Level:         EventLevelInfo,
	})
}

// PublishGatePermitAdded publishes a capacity increase of the dining gate.
func (ep *EventPublisher) PublishGatePermitAdded(permits int) error {
	return ep.Publish(Event{
		Type:    EventTypeGatePermitAdded,
		Scope:   ScopeServer,
		Message: fmt.Sprintf("Dining gate widened to %d permits", permits),
		Level:   EventLevelInfo,
		Data: map[string]interface{}{
			"permits": permits,
		},
	})
}

// PublishChopstickWaiting publishes that a philosopher is blocked on a chopstick.
func (ep *EventPublisher) PublishChopstickWaiting(id, chopstickID int, side string) error {
	return ep.Publish(Event{
		Type:          EventTypeChopstickWaiting,
		Scope:         ScopePhilosopher,
		PhilosopherID: id,
		ChopstickID:   chopstickID,
		Message:       fmt.Sprintf("Philosopher %d is waiting for %s chopstick %d", id, side, chopstickID),
		Level:         EventLevelInfo,
		Data: map[string]interface{}{
			"side": side,
		},
	})
}

// PublishChopstickAcquired publishes that a philosopher picked up a chopstick.
func (ep *EventPublisher) PublishChopstickAcquired(id, chopstickID int, side string) error {
	return ep.Publish(Event{
		Type:          EventTypeChopstickAcquired,
		Scope:         ScopePhilosopher,
		PhilosopherID: id,
		ChopstickID:   chopstickID,
		Message:       fmt.Sprintf("Philosopher %d picked up %s chopstick %d", id, side, chopstickID),
		Level:         EventLevelInfo,
		Data: map[string]interface{}{
			"side": side,
		},
	})
}

// PublishChopstickReleased publishes that a philosopher put down a chopstick.
func (ep *EventPublisher) PublishChopstickReleased(id, chopstickID int, side string) error {
	return ep.Publish(Event{
		Type:          EventTypeChopstickReleased,
		Scope:         ScopePhilosopher,
		PhilosopherID: id,
		ChopstickID:   chopstickID,
		Message:       fmt.Sprintf("Philosopher %d put down %s chopstick %d", id, side, chopstickID),
		Level:         EventLevelInfo,
		Data: map[string]interface{}{
			"side": side,
		},
	})
}

// PublishConnectionOpened publishes a new client session.
func (ep *EventPublisher) PublishConnectionOpened(connID, remoteAddr string) error {
	return ep.Publish(Event{
		Type:    EventTypeConnectionOpened,
		Scope:   ScopeServer,
		Message: fmt.Sprintf("Connection %s opened from %s", connID, remoteAddr),
		Level:   EventLevelInfo,
		Data: map[string]interface{}{
			"connection_id": connID,
			"remote_addr":   remoteAddr,
		},
	})
}

// PublishConnectionClosed publishes the end of a client session.
func (ep *EventPublisher) PublishConnectionClosed(connID, reason string) error {
	return ep.Publish(Event{
		Type:    EventTypeConnectionClosed,
		Scope:   ScopeServer,
		Message: fmt.Sprintf("Connection %s closed: %s", connID, reason),
		Level:   EventLevelInfo,
		Data: map[string]interface{}{
			"connection_id": connID,
			"reason":        reason,
		},
	})
}

// Subscribe adds a new event subscriber.
func (ep *EventPublisher) Subscribe(subscriber EventSubscriber, filter EventFilter) {
	ep.mu.Lock()
	defer ep.mu.Unlock()

	ep.subscribers = append(ep.subscribers, subscriberEntry{
		subscriber: subscriber,
		filter:     filter,
	})
}

// AddFilter adds a global event filter.
func (ep *EventPublisher) AddFilter(filter EventFilter) {
	ep.mu.Lock()
	defer ep.mu.Unlock()

	ep.filters = append(ep.filters, filter)
}

// processEvents delivers buffered events in publish order.
func (ep *EventPublisher) processEvents() {
	defer ep.wg.Done()

	// A zero or negative flush interval disables the periodic flush; the
	// nil channel never fires.
	var flush <-chan time.Time
	if ep.config.FlushInterval > 0 {
		ticker := time.NewTicker(ep.config.FlushInterval)
		defer ticker.Stop()
		flush = ticker.C
	}

	batch := make([]Event, 0, ep.config.MaxBatchSize)

	for {
		select {
		case event := <-ep.buffer:
			batch = append(batch, event)

			// Flush batch if it reaches max size
			if len(batch) >= ep.config.MaxBatchSize {
				ep.flushBatch(batch)
				batch = make([]Event, 0, ep.config.MaxBatchSize)
			}

		case <-flush:
			if len(batch) > 0 {
				ep.flushBatch(batch)
				batch = make([]Event, 0, ep.config.MaxBatchSize)
			}

		case <-ep.ctx.Done():
			// Drain whatever is still buffered before shutting down
			for {
				select {
				case event := <-ep.buffer:
					batch = append(batch, event)
				default:
					if len(batch) > 0 {
						ep.flushBatch(batch)
					}
					return
				}
			}
		}
	}
}

// flushBatch delivers a batch of events to subscribers.
func (ep *EventPublisher) flushBatch(events []Event) {
	for _, event := range events {
		ep.deliverEvent(event)
	}
}

// deliverEvent delivers an event to all subscribers whose filter accepts it.
// Delivery is sequential so subscribers observe events in publish order.
func (ep *EventPublisher) deliverEvent(event Event) {
	ep.mu.RLock()
	defer ep.mu.RUnlock()

	for _, entry := range ep.subscribers {
		if entry.filter != nil && !entry.filter(event) {
			continue
		}
		entry.subscriber(event)
	}
}

// Shutdown gracefully shuts down the event publisher.
func (ep *EventPublisher) Shutdown(ctx context.Context) error {
	if !ep.config.Enabled {
		return nil
	}

	// Signal shutdown
	ep.cancel()

	// Wait for processing to complete with timeout
	done := make(chan struct{})
	go func() {
		ep.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("event publisher shutdown timeout")
	}
}

// Common event filters.

// FilterByLevel creates a filter that only allows events of a specific level or higher.
func FilterByLevel(minLevel string) EventFilter {
	levels := map[string]int{
		EventLevelInfo:    0,
		EventLevelWarning: 1,
		EventLevelError:   2,
	}

	minLevelValue := levels[minLevel]

	return func(event Event) bool {
		return levels[event.Level] >= minLevelValue
	}
}

// FilterByType creates a filter that only allows events of specific types.
func FilterByType(types ...string) EventFilter {
	typeSet := make(map[string]bool)
	for _, t := range types {
		typeSet[t] = true
	}

	return func(event Event) bool {
		return typeSet[event.Type]
	}
}

// FilterByScope creates a filter that only allows events with a specific scope.
func FilterByScope(scope string) EventFilter {
	return func(event Event) bool {
		return event.Scope == scope
	}
}

// FilterByPhilosopher creates a filter that only allows events attributed to
// a specific philosopher.
func FilterByPhilosopher(id int) EventFilter {
	return func(event Event) bool {
		return event.Scope == ScopePhilosopher && event.PhilosopherID == id
	}
}
