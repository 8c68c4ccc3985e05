package table

import (
	"fmt"
	"sync"
)

// State represents a philosopher's position in the dining cycle.
type State string

const (
	// StateThinking is the resting state; no resources are held.
	StateThinking State = "thinking"
	// StateHungry is the state a philosopher requests when it wants to eat;
	// the engine answers it with an eating grant once the gate and both
	// chopsticks are held.
	StateHungry State = "hungry"
	// StateEating is the exclusive state: the gate permit and both
	// chopsticks are held until the philosopher goes back to thinking.
	StateEating State = "eating"
)

// Validate checks if the state is one of the three dining states.
func (s State) Validate() error {
	switch s {
	case StateThinking, StateHungry, StateEating:
		return nil
	default:
		return fmt.Errorf("invalid state: %s", s)
	}
}

// Snapshot is a copy of a philosopher record at a point in time. It is what
// the engine hands to the transport layer; the live record stays inside the
// table.
type Snapshot struct {
	// ID is the dense, 1-based philosopher id, equal to insertion order.
	ID int `json:"id"`

	// State is the recorded dining state.
	State State `json:"state"`

	// StateTimer is the remaining ticks in the current state. It is
	// advisory and maintained by the remote actor, not the engine.
	StateTimer int `json:"state_timer"`

	// LeftChopstick is the id of the philosopher's left chopstick,
	// created at its own admission.
	LeftChopstick int `json:"left_chopstick"`

	// RightChopstick is the id of the philosopher's right chopstick, or 0
	// while the table seats a single philosopher and the ring is not yet
	// closed.
	RightChopstick int `json:"right_chopstick"`
}

// philosopher is the live record for one seated philosopher. The mutable
// fields are guarded by mu; left is immutable after admission, right is
// repointed only by the admission algorithm.
type philosopher struct {
	id int

	mu         sync.Mutex
	state      State
	stateTimer int
	left       int
	right      int
}

// store overwrites the mutable dining fields.
func (p *philosopher) store(state State, timer int) {
	p.mu.Lock()
	p.state = state
	p.stateTimer = timer
	p.mu.Unlock()
}

// rightID reads the current right chopstick id.
func (p *philosopher) rightID() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.right
}

// setRight repoints the right chopstick reference. Callers serialize with
// concurrent acquisition through the chopstick lock itself; see Admit.
func (p *philosopher) setRight(id int) {
	p.mu.Lock()
	p.right = id
	p.mu.Unlock()
}

// snapshot copies the record.
func (p *philosopher) snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Snapshot{
		ID:             p.id,
		State:          p.state,
		StateTimer:     p.stateTimer,
		LeftChopstick:  p.left,
		RightChopstick: p.right,
	}
}
