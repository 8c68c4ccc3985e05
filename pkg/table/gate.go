package table

import "sync/atomic"

// Gate is the counting admission lock bounding how many philosophers may
// eat concurrently. It starts with zero permits; the admission algorithm
// adds one permit for every second philosopher seated, keeping the total at
// floor(n/2).
//
// Permits are tokens in a buffered channel, so Acquire parks cheaply and
// Release never blocks: the channel's capacity is the largest permit count
// the table can ever reach.
type Gate struct {
	permits chan struct{}
	total   atomic.Int64
}

// NewGate creates a gate able to grow to at most maxPermits permits.
func NewGate(maxPermits int) *Gate {
	if maxPermits < 1 {
		maxPermits = 1
	}
	return &Gate{
		permits: make(chan struct{}, maxPermits),
	}
}

// AddPermit raises the gate's capacity by one and returns the new total.
func (g *Gate) AddPermit() int {
	total := g.total.Add(1)
	g.permits <- struct{}{}
	return int(total)
}

// TryAcquire attempts to take a permit without blocking.
func (g *Gate) TryAcquire() bool {
	select {
	case <-g.permits:
		return true
	default:
		return false
	}
}

// Acquire takes a permit, blocking until one is available. There is no
// cancellation path; the dining protocol owns the liveness argument.
func (g *Gate) Acquire() {
	<-g.permits
}

// Release returns a permit taken by Acquire or TryAcquire.
func (g *Gate) Release() {
	g.permits <- struct{}{}
}

// Available returns the number of permits free to take right now.
func (g *Gate) Available() int {
	return len(g.permits)
}

// Capacity returns the total number of permits added so far.
func (g *Gate) Capacity() int {
	return int(g.total.Load())
}

// Held returns the number of permits currently held. At quiescent points
// Held()+Available() equals Capacity().
func (g *Gate) Held() int {
	return g.Capacity() - g.Available()
}
