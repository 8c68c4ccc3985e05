package journal

import "time"

// Record is one persisted observability event.
type Record struct {
	// ID is the auto-assigned row id.
	ID int64 `json:"id"`

	// EventID is the publisher-assigned event uuid.
	EventID string `json:"event_id"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Type is the event type, e.g. chopstick.acquired.
	Type string `json:"type"`

	// Scope is the routing key: server or philosopher.
	Scope string `json:"scope"`

	// PhilosopherID is the associated philosopher, or 0 for server-scope events.
	PhilosopherID int `json:"philosopher_id,omitempty"`

	// ChopstickID is the associated chopstick, if any.
	ChopstickID int `json:"chopstick_id,omitempty"`

	// Level is the event severity (info, warning, error).
	Level string `json:"level"`

	// Message is the human-readable event message.
	Message string `json:"message"`

	// Data is the event's extra data as a JSON blob.
	Data string `json:"data,omitempty"`
}

// Filter narrows a ListEvents or CountEvents query. Zero values match
// everything.
type Filter struct {
	// Scope restricts to server or philosopher scope.
	Scope string

	// PhilosopherID restricts to one philosopher's stream.
	PhilosopherID int

	// Type restricts to one event type.
	Type string

	// Level restricts to one severity.
	Level string

	// Since restricts to events at or after this time.
	Since time.Time

	// Limit and Offset paginate the result; Limit 0 means the default
	// page size.
	Limit  int
	Offset int
}
