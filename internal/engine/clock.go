package engine

import (
	"sync/atomic"
	"time"
)

// Clock stamps events with epoch milliseconds that strictly increase.
//
// If the wall clock stalls or steps backwards, Clock returns last+1 instead,
// so timestamp order always matches stamping order.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	now  func() time.Time
	last atomic.Int64
}

// NewClock creates a clock reading from now. A nil now uses time.Now.
func NewClock(now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{now: now}
}

// NowMillis returns the next timestamp. Calls are linearizable: each call
// returns a unique value greater than every earlier one.
func (c *Clock) NowMillis() int64 {
	for {
		prev := c.last.Load()
		t := c.now().UnixMilli()
		if t <= prev {
			t = prev + 1
		}
		if c.last.CompareAndSwap(prev, t) {
			return t
		}
	}
}

// Last returns the most recent timestamp handed out, or 0.
func (c *Clock) Last() int64 {
	return c.last.Load()
}
