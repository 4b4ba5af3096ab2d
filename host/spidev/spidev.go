// Package spidev drives the sensor from a Linux host through periph.io:
// a spidev port for the bus and sysfs/gpiochip pins for chip select and
// the motion line.
package spidev

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
	"tinygo.org/x/drivers"

	"navsense/core"
)

var (
	ErrUnknownBus = errors.New("spidev: unknown bus")
	ErrUnknownPin = errors.New("spidev: unknown pin")
)

// edgePoll bounds how long a watcher blocks before checking for stop
const edgePoll = 100 * time.Millisecond

// Adapter implements core.SPIDriver and core.GPIODriver
type Adapter struct {
	mu      sync.Mutex
	buses   map[core.SPIBusID]string
	ports   map[core.SPIBusID]spi.PortCloser
	pins    map[core.GPIOPin]gpio.PinIO
	watches map[core.GPIOPin]chan struct{}
	wg      sync.WaitGroup

	openPort  func(name string) (spi.PortCloser, error)
	pinByName func(name string) gpio.PinIO
}

// Open initialises the periph host drivers. buses maps bus ids to spireg
// names such as "/dev/spidev0.0" or "SPI0.0".
func Open(buses map[core.SPIBusID]string) (*Adapter, error) {
	state, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	for _, f := range state.Failed {
		log.Debugf("periph driver %s failed: %v", f.D, f.Err)
	}
	return newAdapter(buses, spireg.Open, gpioreg.ByName), nil
}

func newAdapter(buses map[core.SPIBusID]string, openPort func(string) (spi.PortCloser, error), pinByName func(string) gpio.PinIO) *Adapter {
	return &Adapter{
		buses:     buses,
		ports:     make(map[core.SPIBusID]spi.PortCloser),
		pins:      make(map[core.GPIOPin]gpio.PinIO),
		watches:   make(map[core.GPIOPin]chan struct{}),
		openPort:  openPort,
		pinByName: pinByName,
	}
}

// ConfigureBus opens the port without hardware chip select; the sensor's
// NCS has to stay low across the address-to-data delay, so it is a GPIO.
func (a *Adapter) ConfigureBus(config core.SPIConfig) (drivers.SPI, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	name, ok := a.buses[config.BusID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownBus, config.BusID)
	}
	if old, ok := a.ports[config.BusID]; ok {
		_ = old.Close()
		delete(a.ports, config.BusID)
	}

	port, err := a.openPort(name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	c, err := port.Connect(physic.Frequency(config.Rate)*physic.Hertz, spi.Mode(config.Mode)|spi.NoCS, 8)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("connect %s: %w", name, err)
	}
	a.ports[config.BusID] = port
	log.Debugf("spi %s mode %d at %d Hz", name, config.Mode, config.Rate)
	return &Conn{c: c}, nil
}

func (a *Adapter) GetBusInfo() map[core.SPIBusID]string {
	info := make(map[core.SPIBusID]string, len(a.buses))
	for id, name := range a.buses {
		info[id] = name
	}
	return info
}

// PinName is the gpioreg name of a numbered pin
func PinName(pin core.GPIOPin) string {
	return "GPIO" + strconv.FormatUint(uint64(pin), 10)
}

func (a *Adapter) pin(n core.GPIOPin) (gpio.PinIO, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if p, ok := a.pins[n]; ok {
		return p, nil
	}
	p := a.pinByName(PinName(n))
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPin, PinName(n))
	}
	a.pins[n] = p
	return p, nil
}

func (a *Adapter) ConfigureOutput(n core.GPIOPin) error {
	p, err := a.pin(n)
	if err != nil {
		return err
	}
	return p.Out(gpio.High)
}

func (a *Adapter) ConfigureInputPullUp(n core.GPIOPin) error {
	p, err := a.pin(n)
	if err != nil {
		return err
	}
	return p.In(gpio.PullUp, gpio.NoEdge)
}

func (a *Adapter) SetPin(n core.GPIOPin, value bool) error {
	p, err := a.pin(n)
	if err != nil {
		return err
	}
	return p.Out(gpio.Level(value))
}

func (a *Adapter) GetPin(n core.GPIOPin) (bool, error) {
	p, err := a.pin(n)
	if err != nil {
		return false, err
	}
	return bool(p.Read()), nil
}

// SetInterrupt starts a goroutine that waits for edges on the pin and
// calls callback for each one. A nil callback stops it.
func (a *Adapter) SetInterrupt(n core.GPIOPin, edge core.PinEdge, callback func(core.GPIOPin)) error {
	p, err := a.pin(n)
	if err != nil {
		return err
	}
	a.stopWatch(n)
	if callback == nil {
		return p.In(gpio.PullUp, gpio.NoEdge)
	}

	e := gpio.FallingEdge
	switch edge {
	case core.EdgeRising:
		e = gpio.RisingEdge
	case core.EdgeBoth:
		e = gpio.BothEdges
	}
	if err := p.In(gpio.PullUp, e); err != nil {
		return err
	}

	stop := make(chan struct{})
	a.mu.Lock()
	a.watches[n] = stop
	a.mu.Unlock()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			if p.WaitForEdge(edgePoll) {
				callback(n)
			}
		}
	}()
	return nil
}

func (a *Adapter) stopWatch(n core.GPIOPin) {
	a.mu.Lock()
	stop, ok := a.watches[n]
	delete(a.watches, n)
	a.mu.Unlock()
	if ok {
		close(stop)
	}
}

// Close stops edge watchers and closes the SPI ports
func (a *Adapter) Close() error {
	a.mu.Lock()
	pins := make([]core.GPIOPin, 0, len(a.watches))
	for n := range a.watches {
		pins = append(pins, n)
	}
	a.mu.Unlock()
	for _, n := range pins {
		a.stopWatch(n)
	}
	a.wg.Wait()

	a.mu.Lock()
	defer a.mu.Unlock()
	var errs []error
	for id, port := range a.ports {
		if err := port.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(a.ports, id)
	}
	return errors.Join(errs...)
}

// Conn adapts a periph spi.Conn to drivers.SPI
type Conn struct {
	c   spi.Conn
	one [2]byte
}

// Tx transfers len(w) or len(r) bytes. A nil w clocks out zeros.
func (c *Conn) Tx(w, r []byte) error {
	if len(w) == 0 && len(r) == 0 {
		return nil
	}
	if w == nil {
		w = make([]byte, len(r))
	}
	if r != nil && len(r) != len(w) {
		return fmt.Errorf("spidev: tx length mismatch %d/%d", len(w), len(r))
	}
	return c.c.Tx(w, r)
}

// Transfer writes b and returns the byte clocked in
func (c *Conn) Transfer(b byte) (byte, error) {
	c.one[0] = b
	if err := c.c.Tx(c.one[:1], c.one[1:]); err != nil {
		return 0, err
	}
	return c.one[1], nil
}

func (c *Conn) String() string {
	return c.c.String()
}
