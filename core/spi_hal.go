package core

import "tinygo.org/x/drivers"

// SPIBusID names one SPI controller and pin assignment on a target.
type SPIBusID uint8

// SPIMode is the clock polarity (bit 1) and phase (bit 0).
// The ADNS-9800 samples on the rising edge with the clock idling high, mode 3.
type SPIMode uint8

// SPIConfig selects a bus and how it is clocked.
type SPIConfig struct {
	BusID SPIBusID
	Mode  SPIMode
	Rate  uint32 // Hz
}

// SPIDriver hands out byte transports for the buses a target exposes.
// Chip select is not part of the bus; devices drive it through the GPIO HAL.
type SPIDriver interface {
	// ConfigureBus clocks the bus as requested and returns its transport.
	// Configuring the same bus twice with a different mode or rate fails.
	ConfigureBus(config SPIConfig) (drivers.SPI, error)

	// GetBusInfo describes every bus ID the target knows, for probing.
	GetBusInfo() map[SPIBusID]string
}

var spiDriver SPIDriver

// SetSPIDriver registers the target's SPI driver.
func SetSPIDriver(d SPIDriver) {
	spiDriver = d
}

// MustSPI returns the registered SPI driver or panics if there is none.
func MustSPI() SPIDriver {
	if spiDriver == nil {
		panic("SPI driver not configured")
	}
	return spiDriver
}
