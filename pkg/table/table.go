package table

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/opensymposium/opensymposium/pkg/telemetry"
)

// Table is the shared-state container: both registries, the dining gate and
// the creation guard, created once at process start and shared by every
// session goroutine. There is no global lock; disjoint philosophers'
// requests proceed fully in parallel on the per-chopstick locks.
type Table struct {
	capacity int

	// creationMu serializes admissions with each other. Ordinary
	// transitions never take it; the only cross-talk is the narrow
	// repoint-under-chopstick-lock step inside Admit.
	creationMu sync.Mutex

	// Registry slots are written before count is raised, so readers that
	// bounds-check against count never observe a partial record.
	philosophers []*philosopher
	chopsticks   []*Chopstick
	count        atomic.Int32

	gate *Gate

	tel    *telemetry.Telemetry
	logger *telemetry.Logger
	closed atomic.Bool
}

// New creates an empty table with fixed capacity. The gate starts with zero
// permits; every second admission widens it by one.
func New(capacity int, tel *telemetry.Telemetry) (*Table, error) {
	if capacity < 2 {
		return nil, NewPermanentError(fmt.Sprintf("table capacity must be at least 2, got %d", capacity), nil).
			WithCode(ErrCodeValidation)
	}
	if tel == nil {
		return nil, NewPermanentError("telemetry is required", nil).WithCode(ErrCodeValidation)
	}

	return &Table{
		capacity:     capacity,
		philosophers: make([]*philosopher, capacity),
		chopsticks:   make([]*Chopstick, capacity),
		gate:         NewGate(capacity / 2),
		tel:          tel,
		logger:       tel.Logger.NewComponentLogger("table"),
	}, nil
}

// Capacity returns the fixed registry bound.
func (t *Table) Capacity() int {
	return t.capacity
}

// Count returns the number of seated philosophers.
func (t *Table) Count() int {
	return int(t.count.Load())
}

// Gate exposes the dining gate for inspection.
func (t *Table) Gate() *Gate {
	return t.gate
}

// Philosopher returns a snapshot of the philosopher with the given id.
func (t *Table) Philosopher(id int) (Snapshot, error) {
	p, err := t.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	return p.snapshot(), nil
}

// Snapshots returns a snapshot of every seated philosopher in id order.
func (t *Table) Snapshots() []Snapshot {
	n := t.Count()
	snaps := make([]Snapshot, 0, n)
	for i := 0; i < n; i++ {
		snaps = append(snaps, t.philosophers[i].snapshot())
	}
	return snaps
}

// Admit seats a new philosopher, creating its left chopstick and inserting
// it into the ring between the previous-last philosopher and the first.
// The whole operation runs under the creation guard; admissions are fully
// serialized relative to each other.
func (t *Table) Admit(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := telemetry.RecordTableOperation(ctx, "table.admit", t.Count()+1, func(context.Context) error {
		var err error
		snap, err = t.admit()
		return err
	})
	return snap, err
}

func (t *Table) admit() (Snapshot, error) {
	t.creationMu.Lock()
	defer t.creationMu.Unlock()

	n := int(t.count.Load())
	if n >= t.capacity {
		return Snapshot{}, NewConflictError(fmt.Sprintf("table is full: %d philosophers seated", n), nil).
			WithCode(ErrCodeCapacityExhausted).
			WithOperation("admit").
			WithDetail("capacity", t.capacity)
	}

	newID := n + 1

	// The new chopstick is always the new philosopher's left. This is the
	// only operation that grows the chopstick registry, which keeps the
	// chopstick count equal to the philosopher count.
	left := newChopstick(newID)
	t.chopsticks[newID-1] = left

	p := &philosopher{id: newID, left: newID}

	if n > 0 {
		// The ring always closes back through the first philosopher's
		// left chopstick.
		p.right = 1

		prev := t.philosophers[n-1]
		if newID == 2 {
			// The first philosopher had no right chopstick until now, so
			// no contender can exist for it; the repoint is unguarded.
			prev.setRight(newID)
		} else {
			// Hold the previous-last philosopher's current right
			// chopstick while repointing, so the repoint cannot race a
			// philosopher mid-acquisition of that same chopstick. prev's
			// right id only changes under the creation guard, so the
			// read here is stable.
			guard := t.chopsticks[prev.rightID()-1]
			guard.Acquire()
			prev.setRight(newID)
			guard.Release()
		}
	}

	t.philosophers[newID-1] = p
	t.count.Store(int32(newID))

	// The permit goes in only after the ring is re-linked, so a
	// philosopher sleeping at the gate never wakes to an unset right
	// chopstick.
	if newID%2 == 0 {
		total := t.gate.AddPermit()
		t.publish(t.tel.Events.PublishGatePermitAdded(total))
	}

	snap := p.snapshot()
	t.publish(t.tel.Events.PublishAdmitted(snap.ID, snap.LeftChopstick, snap.RightChopstick))
	t.tel.Metrics.RecordAdmission(newID, t.gate.Capacity())
	t.tel.Metrics.SetGateAvailable(t.gate.Available())
	t.logger.WithPhilosopherID(newID).
		WithField("left_chopstick", snap.LeftChopstick).
		WithField("right_chopstick", snap.RightChopstick).
		Info("Philosopher admitted")

	return snap, nil
}

// Transition applies a requested state to a seated philosopher. It returns
// a snapshot only for the hungry request, once the grant to eat is won;
// thinking and eating requests yield (nil, nil) and the caller must not
// reply to them.
func (t *Table) Transition(ctx context.Context, id int, state State, timer int) (*Snapshot, error) {
	var snap *Snapshot
	err := telemetry.RecordTableOperation(ctx, "table.transition", id, func(context.Context) error {
		var err error
		snap, err = t.transition(id, state, timer)
		return err
	})
	return snap, err
}

func (t *Table) transition(id int, state State, timer int) (*Snapshot, error) {
	if err := state.Validate(); err != nil {
		return nil, NewPermanentError("invalid requested state", err).
			WithCode(ErrCodeValidation).
			WithPhilosopher(id).
			WithOperation("transition")
	}

	p, err := t.lookup(id)
	if err != nil {
		t.publish(t.tel.Events.PublishLookupFailed(id))
		t.tel.Metrics.RecordLookupFailure()
		return nil, err
	}

	t.tel.Metrics.RecordTransition(string(state))

	switch state {
	case StateThinking:
		t.finishEating(p, timer)
		return nil, nil

	case StateEating:
		// An eating request is only ever the echo of a grant the engine
		// produced itself; it is accepted idempotently with no resource
		// side effects.
		old := p.snapshot().State
		p.store(StateEating, timer)
		t.publish(t.tel.Events.PublishStateChanged(p.id, string(old), string(StateEating), timer))
		return nil, nil

	default:
		snap := t.becomeHungry(p, timer)
		return &snap, nil
	}
}

// finishEating handles a thinking request. If the philosopher was eating,
// its chopsticks and gate permit are released first; releases never block.
func (t *Table) finishEating(p *philosopher, timer int) {
	p.mu.Lock()
	wasEating := p.state == StateEating
	old := p.state
	left, right := p.left, p.right
	p.mu.Unlock()

	if wasEating {
		t.chopsticks[left-1].Release()
		t.publish(t.tel.Events.PublishChopstickReleased(p.id, left, "left"))

		t.chopsticks[right-1].Release()
		t.publish(t.tel.Events.PublishChopstickReleased(p.id, right, "right"))

		t.gate.Release()
		t.publish(t.tel.Events.PublishGateReleased(p.id))
		t.tel.Metrics.DecEating()
		t.tel.Metrics.SetGateAvailable(t.gate.Available())
	}

	p.store(StateThinking, timer)
	t.publish(t.tel.Events.PublishStateChanged(p.id, string(old), string(StateThinking), timer))
}

// becomeHungry handles a hungry request: the stored record is overwritten
// first so timer bookkeeping stays consistent, then the gate, the left
// chopstick and the right chopstick are acquired in that fixed order. The
// order is never reversed or parallelized; together with the floor(n/2)
// gate bound it breaks the circular wait a ring of two-resource contenders
// would otherwise allow.
func (t *Table) becomeHungry(p *philosopher, timer int) Snapshot {
	old := p.snapshot().State
	p.store(StateHungry, timer)
	t.publish(t.tel.Events.PublishStateChanged(p.id, string(old), string(StateHungry), timer))
	t.tel.Metrics.IncHungry()

	gateTimer := telemetry.NewTimer()
	if !t.gate.TryAcquire() {
		t.publish(t.tel.Events.PublishGateWaiting(p.id))
		t.gate.Acquire()
	}
	t.publish(t.tel.Events.PublishGateAcquired(p.id, t.gate.Available()))
	t.tel.Metrics.RecordAcquireWait("gate", gateTimer.Duration())
	t.tel.Metrics.SetGateAvailable(t.gate.Available())

	// Left is the chopstick created at this philosopher's own admission
	// and never repointed.
	left := t.chopsticks[p.left-1]
	leftTimer := telemetry.NewTimer()
	if !left.TryAcquire() {
		t.publish(t.tel.Events.PublishChopstickWaiting(p.id, left.ID(), "left"))
		left.Acquire()
	}
	t.publish(t.tel.Events.PublishChopstickAcquired(p.id, left.ID(), "left"))
	t.tel.Metrics.RecordAcquireWait("left", leftTimer.Duration())

	// The right chopstick can be repointed by an admission while this
	// philosopher sleeps on the old one, so the id is re-read after the
	// acquisition; a stale chopstick is put back and the wait restarts on
	// the new right.
	rightTimer := telemetry.NewTimer()
	for {
		rightID := p.rightID()
		right := t.chopsticks[rightID-1]
		if !right.TryAcquire() {
			t.publish(t.tel.Events.PublishChopstickWaiting(p.id, rightID, "right"))
			right.Acquire()
		}
		if p.rightID() == rightID {
			t.publish(t.tel.Events.PublishChopstickAcquired(p.id, rightID, "right"))
			break
		}
		right.Release()
	}
	t.tel.Metrics.RecordAcquireWait("right", rightTimer.Duration())

	p.store(StateEating, 0)
	t.publish(t.tel.Events.PublishStateChanged(p.id, string(StateHungry), string(StateEating), 0))
	t.tel.Metrics.DecHungry()
	t.tel.Metrics.IncEating()
	t.tel.Metrics.RecordEatGrant()
	t.logger.WithPhilosopherID(p.id).Debug("Eating granted")

	return p.snapshot()
}

// lookup resolves a philosopher by dense id, bounds-checked against the
// published count.
func (t *Table) lookup(id int) (*philosopher, error) {
	if id < 1 || id > int(t.count.Load()) {
		return nil, NewPermanentError(fmt.Sprintf("no philosopher with id %d is seated", id), nil).
			WithCode(ErrCodeNotFound).
			WithPhilosopher(id).
			WithOperation("lookup")
	}
	return t.philosophers[id-1], nil
}

// publish keeps the event publish/drop counters current. Event delivery is
// fire-and-forget; a dropped event never fails the transition that
// produced it.
func (t *Table) publish(err error) {
	if err != nil {
		t.tel.Metrics.RecordEventDropped()
		return
	}
	t.tel.Metrics.RecordEventPublished()
}

// Close tears the table down. Go locks need no destruction; Close exists
// so the container has the same single create / single teardown lifecycle
// as the registries it owns, and it refuses further use.
func (t *Table) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}
	t.logger.WithField("philosophers", t.Count()).Info("Table closed")
	return nil
}

// Closed reports whether Close has been called.
func (t *Table) Closed() bool {
	return t.closed.Load()
}
