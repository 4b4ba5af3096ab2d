package core

import "time"

// Clock supplies the microsecond timebase and the blocking delays used
// between bus phases.
type Clock interface {
	// Micros returns a free-running microsecond counter that wraps at 2^32
	Micros() uint32

	// Delay blocks for at least d
	Delay(d time.Duration)
}

var clock Clock

// SetClock overrides the clock returned by MustClock (tests, host adapters).
func SetClock(c Clock) {
	clock = c
}

// MustClock returns the registered clock, falling back to SystemClock.
func MustClock() Clock {
	if clock == nil {
		clock = SystemClock()
	}
	return clock
}

// ElapsedMicros returns now-since, correct across one counter wrap.
func ElapsedMicros(since, now uint32) uint32 {
	return now - since
}
