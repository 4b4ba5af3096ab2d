//go:build rp2040 || rp2350

package main

import (
	"runtime/volatile"
	"time"
	"unsafe"

	"navsense/core"
)

// Timer peripheral, free running at 1 MHz
const (
	timerBase     = 0x40054000
	timerTIMERAWL = timerBase + 0x0C // raw timer low word
)

var timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))

// hwClock reads the microsecond timer directly and busy-waits short delays
type hwClock struct{}

func (hwClock) Micros() uint32 {
	return timerRAWL.Get()
}

func (c hwClock) Delay(d time.Duration) {
	if d >= time.Millisecond {
		time.Sleep(d)
		return
	}
	start := c.Micros()
	us := uint32(d / time.Microsecond)
	for core.ElapsedMicros(start, c.Micros()) < us {
	}
}

// InitClock registers the hardware timer as the core clock
func InitClock() {
	core.SetClock(hwClock{})
}
