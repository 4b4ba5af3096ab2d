//go:build tinygo

package core

import (
	"time"

	"tinygo.org/x/drivers/delay"
)

type mcuClock struct{}

// SystemClock returns the MCU timer clock
func SystemClock() Clock {
	return mcuClock{}
}

// Micros reads the runtime monotonic timer
func (mcuClock) Micros() uint32 {
	return uint32(time.Now().UnixMicro())
}

// Delay busy-waits short durations; delay.Sleep falls back to time.Sleep
// above ~16ms
func (mcuClock) Delay(d time.Duration) {
	if d <= 0 {
		return
	}
	if d > 16*time.Millisecond {
		time.Sleep(d)
		return
	}
	delay.Sleep(d)
}
