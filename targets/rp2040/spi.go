//go:build rp2040 || rp2350

package main

import (
	"errors"
	"machine"
	"sync"

	"tinygo.org/x/drivers"

	"navsense/core"
)

// Hardware SPI pin groups. The sensor's NCS is not listed; it is an ordinary
// GPIO driven by the adns package.

type spiBusConfig struct {
	spi  *machine.SPI
	sck  machine.Pin
	mosi machine.Pin
	miso machine.Pin
	name string
}

var rpSPIBuses = map[core.SPIBusID]spiBusConfig{
	0: {spi: machine.SPI0, sck: machine.GPIO2, mosi: machine.GPIO3, miso: machine.GPIO0, name: "spi0a"},
	1: {spi: machine.SPI0, sck: machine.GPIO6, mosi: machine.GPIO7, miso: machine.GPIO4, name: "spi0b"},
	2: {spi: machine.SPI0, sck: machine.GPIO18, mosi: machine.GPIO19, miso: machine.GPIO16, name: "spi0c"},
	3: {spi: machine.SPI0, sck: machine.GPIO22, mosi: machine.GPIO23, miso: machine.GPIO20, name: "spi0d"},

	5: {spi: machine.SPI1, sck: machine.GPIO10, mosi: machine.GPIO11, miso: machine.GPIO8, name: "spi1a"},
	6: {spi: machine.SPI1, sck: machine.GPIO14, mosi: machine.GPIO15, miso: machine.GPIO12, name: "spi1b"},
}

var (
	errBusID  = errors.New("invalid SPI bus ID")
	errMode   = errors.New("invalid SPI mode")
	errBusUse = errors.New("SPI controller already configured for another bus")
)

// RPSPIDriver implements core.SPIDriver on TinyGo's machine.SPI
type RPSPIDriver struct {
	mu         sync.Mutex
	configured map[*machine.SPI]core.SPIConfig
}

func NewRPSPIDriver() *RPSPIDriver {
	return &RPSPIDriver{configured: make(map[*machine.SPI]core.SPIConfig)}
}

// ConfigureBus sets up the controller behind config.BusID. A controller
// already running with the same settings is returned as is.
func (d *RPSPIDriver) ConfigureBus(config core.SPIConfig) (drivers.SPI, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	bus, ok := rpSPIBuses[config.BusID]
	if !ok {
		return nil, errBusID
	}
	if config.Mode > 3 {
		return nil, errMode
	}
	if prev, ok := d.configured[bus.spi]; ok {
		if prev == config {
			return bus.spi, nil
		}
		if prev.BusID != config.BusID {
			return nil, errBusUse
		}
	}

	err := bus.spi.Configure(machine.SPIConfig{
		Frequency: config.Rate,
		SCK:       bus.sck,
		SDO:       bus.mosi,
		SDI:       bus.miso,
		Mode:      uint8(config.Mode),
	})
	if err != nil {
		return nil, err
	}
	d.configured[bus.spi] = config
	core.DebugPrintln("[SPI] " + bus.name + " rate=" + core.Utoa(config.Rate) + " mode=" + core.Utoa(uint32(config.Mode)))
	return bus.spi, nil
}

func (d *RPSPIDriver) GetBusInfo() map[core.SPIBusID]string {
	info := make(map[core.SPIBusID]string, len(rpSPIBuses))
	for id, bus := range rpSPIBuses {
		info[id] = bus.name
	}
	return info
}
