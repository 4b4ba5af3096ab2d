package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// BusEvent captures one sensor bus transaction for post-mortem analysis
type BusEvent struct {
	Kind   uint8  // Event kind code
	Reg    uint8  // Register address
	Value  uint8  // Data byte, or burst length for burst events
	Micros uint32 // Clock at event
}

// Event kind codes
const (
	EvtRead       = 1 // single register read
	EvtWrite      = 2 // single register write
	EvtBurstRead  = 3 // motion/pixel burst read
	EvtBurstWrite = 4 // SROM load burst
	EvtBusBusy    = 5 // select while already selected
	EvtBusError   = 6 // transport failure
)

const (
	BusTraceSize = 32 // Keep last 32 transactions for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	// Bus trace ring buffer (non-blocking, for post-mortem)
	busTrace     [BusTraceSize]BusEvent
	busTraceHead uint8
	busTraceLen  uint8
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, a logger, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// RecordBusEvent captures a bus transaction in the ring buffer
func RecordBusEvent(kind, reg, value uint8, micros uint32) {
	state := DisableInterrupts()
	busTrace[busTraceHead] = BusEvent{
		Kind:   kind,
		Reg:    reg,
		Value:  value,
		Micros: micros,
	}
	busTraceHead = (busTraceHead + 1) % BusTraceSize
	if busTraceLen < BusTraceSize {
		busTraceLen++
	}
	RestoreInterrupts(state)
}

// BusTrace returns the recorded events, oldest first
func BusTrace() []BusEvent {
	state := DisableInterrupts()
	defer RestoreInterrupts(state)

	out := make([]BusEvent, 0, busTraceLen)
	start := (busTraceHead + BusTraceSize - busTraceLen) % BusTraceSize
	for i := uint8(0); i < busTraceLen; i++ {
		out = append(out, busTrace[(start+i)%BusTraceSize])
	}
	return out
}

// BusEventName returns a short label for an event kind
func BusEventName(kind uint8) string {
	switch kind {
	case EvtRead:
		return "READ"
	case EvtWrite:
		return "WRITE"
	case EvtBurstRead:
		return "BURST_RD"
	case EvtBurstWrite:
		return "BURST_WR"
	case EvtBusBusy:
		return "BUSY!"
	case EvtBusError:
		return "ERROR!"
	}
	return "UNKNOWN"
}

// DumpBusTrace outputs the bus trace (call on fault)
func DumpBusTrace() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[BUS] === Bus Trace Dump ===")
	for _, evt := range BusTrace() {
		debugPrintln("[BUS] " + BusEventName(evt.Kind) +
			" reg=" + FormatHex(evt.Reg) +
			" val=" + FormatHex(evt.Value) +
			" t=" + utoa(evt.Micros))
	}
	debugPrintln("[BUS] === End Dump ===")
}

// ClearBusTrace clears the trace buffer
func ClearBusTrace() {
	state := DisableInterrupts()
	for i := range busTrace {
		busTrace[i] = BusEvent{}
	}
	busTraceHead = 0
	busTraceLen = 0
	RestoreInterrupts(state)
}
