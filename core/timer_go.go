//go:build !tinygo

package core

import "time"

// Delays shorter than this spin instead of sleeping; the scheduler's
// sleep granularity is far coarser than the bus timings.
const spinThreshold = time.Millisecond

type hostClock struct {
	boot time.Time
}

// SystemClock returns the monotonic process clock
func SystemClock() Clock {
	return &hostClock{boot: time.Now()}
}

func (c *hostClock) Micros() uint32 {
	return uint32(time.Since(c.boot).Microseconds())
}

func (c *hostClock) Delay(d time.Duration) {
	if d <= 0 {
		return
	}
	if d >= spinThreshold {
		time.Sleep(d)
		return
	}
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
	}
}
