package engine

import "sync/atomic"

// Clock is a monotonic logical tick counter.
//
// Every flush is stamped with a strictly increasing tick number from this
// clock, never a wall-clock timestamp. Identical op sequences therefore
// produce identical tick numbering, which keeps traces and golden files
// reproducible.
//
// Thread-safety: safe for concurrent use (atomic operations), though the
// engine's single-writer design means only the Run goroutine calls Next.
type Clock struct {
	tick atomic.Int64
}

// NewClock creates a clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock starting at a specific tick.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.tick.Store(start)
	return c
}

// Next returns the next tick number and advances the clock.
// Each call returns a unique, increasing value.
func (c *Clock) Next() int64 {
	return c.tick.Add(1)
}

// Current returns the current tick without advancing.
func (c *Clock) Current() int64 {
	return c.tick.Load()
}
