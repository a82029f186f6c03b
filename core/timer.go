package core

import "time"

// Clock provides the blocking delays the hardware protocols need between
// signal transitions. Sleep must not return before d has elapsed.
type Clock interface {
	Sleep(d time.Duration)
	// Now returns the time since the clock started.
	Now() time.Duration
}

// SystemClock uses the runtime timer. On TinyGo this suspends on the
// hardware timer rather than spinning.
type SystemClock struct {
	start time.Time
}

func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

func (c *SystemClock) Sleep(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}

func (c *SystemClock) Now() time.Duration {
	return time.Since(c.start)
}

// millis truncates a duration to whole milliseconds for event records.
func millis(d time.Duration) uint32 {
	return uint32(d / time.Millisecond)
}
