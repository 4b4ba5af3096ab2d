package core

// GPIOPin is a target pin number.
type GPIOPin uint32

// NoPin marks an unassigned pin
const NoPin GPIOPin = 0xFFFFFFFF

// PinEdge selects which transitions fire a pin interrupt
type PinEdge uint8

const (
	EdgeFalling PinEdge = iota + 1 // High to low (active-low MOTION output)
	EdgeRising                     // Low to high
	EdgeBoth                       // Any transition
)

// GPIODriver drives the discrete lines around the sensor: the chip select
// output and the motion input.
type GPIODriver interface {
	// ConfigureOutput makes pin a push-pull output.
	ConfigureOutput(pin GPIOPin) error

	// ConfigureInputPullUp makes pin an input with its pull-up enabled.
	ConfigureInputPullUp(pin GPIOPin) error

	SetPin(pin GPIOPin, value bool) error
	GetPin(pin GPIOPin) (bool, error)

	// SetInterrupt calls callback from interrupt context on the given edge.
	// A nil callback disables the interrupt.
	SetInterrupt(pin GPIOPin, edge PinEdge, callback func(GPIOPin)) error
}

var gpioDriver GPIODriver

// SetGPIODriver registers the target's GPIO driver.
func SetGPIODriver(d GPIODriver) {
	gpioDriver = d
}

// MustGPIO returns the registered GPIO driver or panics if there is none.
func MustGPIO() GPIODriver {
	if gpioDriver == nil {
		panic("GPIO driver not configured")
	}
	return gpioDriver
}
