package sim

import (
	"sync"
	"time"
)

// Clock is a virtual clock. Sleep advances it instantly, so firmware delays
// cost no wall time unless a pace is set.
type Clock struct {
	mu   sync.Mutex
	now  time.Duration
	pace float64
}

func NewClock() *Clock {
	return &Clock{}
}

// SetPace makes Sleep also wait d/speed of wall time. Zero disables pacing.
func (c *Clock) SetPace(speed float64) {
	c.mu.Lock()
	c.pace = speed
	c.mu.Unlock()
}

func (c *Clock) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	c.now += d
	pace := c.pace
	c.mu.Unlock()

	if pace > 0 {
		time.Sleep(time.Duration(float64(d) / pace))
	}
}

// Advance moves time forward without pacing. The board uses it to charge
// for port accesses.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	c.mu.Unlock()
}

func (c *Clock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}
