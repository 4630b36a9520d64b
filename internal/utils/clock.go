package utils

import (
	"sync"
	"time"
)

// MonotonicClock hands out strictly increasing UTC timestamps at microsecond
// resolution (the precision Postgres timestamptz keeps). Two calls in causal
// order never return equal or decreasing values, even if the wall clock steps back.
type MonotonicClock struct {
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

// NewMonotonicClock creates a clock backed by time.Now
func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{now: time.Now}
}

// NewMonotonicClockWith creates a clock backed by a custom time source (tests)
func NewMonotonicClockWith(now func() time.Time) *MonotonicClock {
	return &MonotonicClock{now: now}
}

// Next returns the next timestamp
func (c *MonotonicClock) Next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.now().UTC().Truncate(time.Microsecond)
	if !t.After(c.last) {
		t = c.last.Add(time.Microsecond)
	}
	c.last = t
	return t
}
