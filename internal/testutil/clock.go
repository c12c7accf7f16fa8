package testutil

import "sync"

// SteppingClock is a chain.Clock whose readings advance by a fixed step.
// Unlike chain.FixedClock every appended version gets a distinct timestamp,
// and the sequence can be rewound with Reset for test reuse.
//
// Safe for concurrent use.
type SteppingClock struct {
	mu    sync.Mutex
	start int64
	step  int64
	next  int64
}

// NewSteppingClock returns a clock whose first reading is start.
// A step of zero behaves like chain.FixedClock.
func NewSteppingClock(start, step int64) *SteppingClock {
	return &SteppingClock{start: start, step: step, next: start}
}

// Now returns the current reading and advances the clock.
func (c *SteppingClock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.next
	c.next += c.step
	return now
}

// Peek returns the next reading without advancing.
func (c *SteppingClock) Peek() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.next
}

// Reset rewinds the clock to its first reading.
func (c *SteppingClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next = c.start
}
