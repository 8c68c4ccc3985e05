package table

import (
	"testing"
	"time"
)

func TestGateCounts(t *testing.T) {
	g := NewGate(3)

	if g.Capacity() != 0 {
		t.Errorf("Capacity() = %d, want 0 before any permit is added", g.Capacity())
	}
	if g.Available() != 0 {
		t.Errorf("Available() = %d, want 0", g.Available())
	}

	if total := g.AddPermit(); total != 1 {
		t.Errorf("AddPermit() = %d, want 1", total)
	}
	if total := g.AddPermit(); total != 2 {
		t.Errorf("AddPermit() = %d, want 2", total)
	}

	if g.Available() != 2 {
		t.Errorf("Available() = %d, want 2", g.Available())
	}
	if g.Held() != 0 {
		t.Errorf("Held() = %d, want 0", g.Held())
	}

	g.Acquire()
	if g.Available() != 1 {
		t.Errorf("Available() = %d after Acquire, want 1", g.Available())
	}
	if g.Held() != 1 {
		t.Errorf("Held() = %d after Acquire, want 1", g.Held())
	}

	g.Release()
	if g.Available() != 2 {
		t.Errorf("Available() = %d after Release, want 2", g.Available())
	}
}

func TestGateTryAcquire(t *testing.T) {
	g := NewGate(2)

	if g.TryAcquire() {
		t.Fatal("TryAcquire() succeeded on a gate with no permits")
	}

	g.AddPermit()
	if !g.TryAcquire() {
		t.Fatal("TryAcquire() failed with a permit available")
	}
	if g.TryAcquire() {
		t.Fatal("TryAcquire() succeeded with all permits held")
	}

	g.Release()
	if !g.TryAcquire() {
		t.Fatal("TryAcquire() failed after Release")
	}
}

func TestGateAcquireBlocksUntilPermit(t *testing.T) {
	g := NewGate(1)

	acquired := make(chan struct{})
	go func() {
		g.Acquire()
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("Acquire() returned with no permits")
	case <-time.After(50 * time.Millisecond):
	}

	g.AddPermit()

	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("Acquire() did not return after AddPermit")
	}
}
