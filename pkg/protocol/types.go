// Package protocol defines the JSON-over-TCP communication protocol
// between the symposium coordination server and its diner clients.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType represents the type of message in the protocol.
type MessageType string

const (
	// MessageTypeCreate asks the server to seat a new philosopher.
	MessageTypeCreate MessageType = "CREATE"
	// MessageTypeUpdate reports a philosopher's requested state.
	MessageTypeUpdate MessageType = "UPDATE"
	// MessageTypeCreated answers a CREATE with the seated philosopher.
	MessageTypeCreated MessageType = "CREATED"
	// MessageTypeUpdated answers a hungry UPDATE with the eating grant.
	// Thinking and eating updates are never answered; the client must not
	// wait for one.
	MessageTypeUpdated MessageType = "UPDATED"
	// MessageTypeError indicates a request was rejected.
	MessageTypeError MessageType = "ERROR"
)

// Philosopher states carried on the wire. They mirror the engine's dining
// states; the protocol package keeps its own copy so the wire format has no
// dependency on engine internals.
const (
	StateThinking = "thinking"
	StateHungry   = "hungry"
	StateEating   = "eating"
)

// Message is the base envelope for all protocol messages.
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// Philosopher is the wire representation of a philosopher record. Requests
// carry only id, state and state_timer; responses also carry the chopstick
// assignment.
type Philosopher struct {
	ID             int    `json:"id"`
	State          string `json:"state"`
	StateTimer     int    `json:"state_timer"`
	LeftChopstick  int    `json:"left_chopstick,omitempty"`
	RightChopstick int    `json:"right_chopstick,omitempty"`
}

// UpdateMessage carries a philosopher's requested state.
type UpdateMessage struct {
	Philosopher Philosopher `json:"philosopher"`
}

// CreatedMessage answers a CREATE request.
type CreatedMessage struct {
	Philosopher Philosopher `json:"philosopher"`
}

// UpdatedMessage answers a hungry UPDATE with the granted record.
type UpdatedMessage struct {
	Philosopher Philosopher `json:"philosopher"`
}

// ErrorMessage indicates a rejected request.
type ErrorMessage struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// Validate checks if the message type is valid.
func (mt MessageType) Validate() error {
	switch mt {
	case MessageTypeCreate, MessageTypeUpdate, MessageTypeCreated,
		MessageTypeUpdated, MessageTypeError:
		return nil
	default:
		return fmt.Errorf("invalid message type: %s", mt)
	}
}

// Validate checks if the philosopher payload is well formed.
func (p *Philosopher) Validate() error {
	if p.ID < 1 {
		return fmt.Errorf("philosopher id must be positive, got %d", p.ID)
	}
	switch p.State {
	case StateThinking, StateHungry, StateEating:
		return nil
	default:
		return fmt.Errorf("invalid philosopher state: %s", p.State)
	}
}

// Validate checks if the update message is valid.
func (u *UpdateMessage) Validate() error {
	if err := u.Philosopher.Validate(); err != nil {
		return fmt.Errorf("invalid update: %w", err)
	}
	return nil
}

// Validate checks if the error message is valid.
func (e *ErrorMessage) Validate() error {
	if e.Code == "" {
		return fmt.Errorf("error code is required")
	}
	return nil
}
