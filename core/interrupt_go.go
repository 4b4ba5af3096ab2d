//go:build !tinygo

package core

import "sync"

// State is the saved interrupt state returned by DisableInterrupts
type State uintptr

var criticalMu sync.Mutex

// DisableInterrupts enters a critical section. On regular Go this is a
// process-wide mutex so host goroutines serialise like interrupt handlers.
func DisableInterrupts() State {
	criticalMu.Lock()
	return 0
}

// RestoreInterrupts leaves the critical section
func RestoreInterrupts(state State) {
	criticalMu.Unlock()
}
