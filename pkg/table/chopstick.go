package table

import "sync"

// Chopstick is a binary mutual-exclusion resource shared between two
// ring-adjacent philosophers. It lives at index id-1 in the table's
// registry for the process lifetime and is referenced by id, never copied.
type Chopstick struct {
	id int
	mu sync.Mutex
}

func newChopstick(id int) *Chopstick {
	return &Chopstick{id: id}
}

// ID returns the chopstick's immutable 1-based id.
func (c *Chopstick) ID() int {
	return c.id
}

// TryAcquire attempts to pick up the chopstick without blocking and reports
// whether it succeeded. The try-then-block pattern exists so callers can
// emit a waiting event before committing to a blocking Acquire.
func (c *Chopstick) TryAcquire() bool {
	return c.mu.TryLock()
}

// Acquire picks up the chopstick, blocking until its holder puts it down.
// There is no cancellation path; a blocked acquisition completes or the
// goroutine is abandoned with the chopstick unacquired.
func (c *Chopstick) Acquire() {
	c.mu.Lock()
}

// Release puts the chopstick down.
func (c *Chopstick) Release() {
	c.mu.Unlock()
}
