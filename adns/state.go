package adns

// State is the lifecycle state of a Device.
type State uint8

const (
	StateUninitialized State = iota // not set up, or setup failed, or shut down
	StateConfigured                 // setup done, not acquiring
	StateIdle                       // acquiring, no capture pending
	StateCaptured                   // acquiring, capture pending fold
	StateStopped                    // acquisition stopped, data readable
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateConfigured:
		return "configured"
	case StateIdle:
		return "idle"
	case StateCaptured:
		return "captured"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// Acquiring reports whether an acquisition is in progress.
func (s State) Acquiring() bool {
	return s == StateIdle || s == StateCaptured
}

type op uint8

const (
	opBegin op = iota
	opStart
	opCapture
	opUpdate
	opStop
	opShutdown
	opConfigure
)

var opNames = [...]string{
	opBegin:     "begin",
	opStart:     "acquisition start",
	opCapture:   "sample capture",
	opUpdate:    "position update",
	opStop:      "acquisition stop",
	opShutdown:  "shutdown",
	opConfigure: "configure",
}

// allows reports whether o may run from s.
func (s State) allows(o op) bool {
	switch o {
	case opBegin, opShutdown:
		return !s.Acquiring()
	case opStart:
		return s == StateConfigured || s == StateStopped
	case opCapture:
		return s.Acquiring()
	case opUpdate:
		return s == StateCaptured
	case opStop:
		return s.Acquiring() || s == StateStopped
	case opConfigure:
		return s != StateUninitialized
	}
	return false
}

func (d *Device) check(o op) error {
	if !d.state.allows(o) {
		return &TransitionError{Op: opNames[o], From: d.state}
	}
	return nil
}
