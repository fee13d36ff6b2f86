package lifecycle

import "sync"

// Container holds one feature area's state. Update applies a single
// transition atomically: concurrent operations may interleave between
// transitions but can never observe a half-applied one. It deliberately
// provides no cross-dispatch ordering; when two operations race on the
// same key the last to resolve wins.
type Container[S any] struct {
	mu    sync.Mutex
	state S
}

func NewContainer[S any](initial S) *Container[S] {
	return &Container[S]{state: initial}
}

// Update replaces the state with fn's result under the lock.
func (c *Container[S]) Update(fn func(S) S) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = fn(c.state)
}

// View returns the current state. Callers must treat nested maps and
// slices as read-only; reducers copy on write.
func (c *Container[S]) View() S {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}
