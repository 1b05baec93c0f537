package timex

import (
	"sync"
	"time"
)

// MonotonicClock hands out strictly increasing UTC timestamps truncated to
// Resolution. Two calls never return the same instant, even when the wall
// clock stalls or steps back.
type MonotonicClock struct {
	mu         sync.Mutex
	last       time.Time
	now        func() time.Time
	Resolution time.Duration
}

// NewMonotonicClock returns a clock with microsecond resolution, the finest
// precision PostgreSQL timestamps keep.
func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{now: time.Now, Resolution: time.Microsecond}
}

func (c *MonotonicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.now().UTC().Truncate(c.Resolution)
	if !t.After(c.last) {
		t = c.last.Add(c.Resolution)
	}
	c.last = t
	return t
}
