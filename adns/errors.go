package adns

import (
	"errors"

	"navsense/core"
)

var (
	// ErrTransport reports an SPI transfer failure or a missing bus handle.
	ErrTransport = errors.New("adns: bus transport failure")

	// ErrBusBusy reports a select while another transaction holds the bus.
	ErrBusBusy = errors.New("adns: bus already selected")

	// ErrProductID reports an identification mismatch after reset.
	ErrProductID = errors.New("adns: product id mismatch")

	// ErrFirmware reports an SROM upload or verification failure.
	ErrFirmware = errors.New("adns: firmware verification failed")

	// ErrIllegalState reports an operation called in the wrong state.
	ErrIllegalState = errors.New("adns: illegal state transition")

	// ErrUnsupportedUnit reports an unknown unit tag.
	ErrUnsupportedUnit = errors.New("adns: unsupported unit")

	// ErrLayout reports an invalid frame layout descriptor.
	ErrLayout = errors.New("adns: invalid frame layout")
)

// BusError wraps a failed bus transaction.
type BusError struct {
	Op  string
	Reg Register
	Err error
}

// noRegister marks a BusError not tied to a register transaction.
const noRegister Register = 0xFF

func (e *BusError) Error() string {
	msg := "adns: " + e.Op
	if e.Reg != noRegister {
		msg += " " + e.Reg.String()
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *BusError) Unwrap() error { return e.Err }

// Is makes every BusError match ErrTransport, whatever the driver returned.
func (e *BusError) Is(target error) bool {
	return target == ErrTransport
}

// TransitionError is returned when an operation is not allowed from the
// current state. The state is left unchanged.
type TransitionError struct {
	Op   string
	From State
}

func (e *TransitionError) Error() string {
	return "adns: " + e.Op + " not allowed in state " + e.From.String()
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrIllegalState
}

// MismatchError reports a register that read back an unexpected value.
type MismatchError struct {
	What string
	Got  uint16
	Want uint16
	Err  error
}

func (e *MismatchError) Error() string {
	return e.Err.Error() + ": " + e.What +
		" got " + core.FormatHex16(e.Got) + " want " + core.FormatHex16(e.Want)
}

func (e *MismatchError) Unwrap() error { return e.Err }
