//go:build rp2040 || rp2350

package main

import (
	"machine"

	"navsense/core"
)

// RPGPIODriver implements core.GPIODriver for the RP2040 bank
type RPGPIODriver struct {
	configuredPins map[core.GPIOPin]machine.Pin
}

func NewRPGPIODriver() *RPGPIODriver {
	return &RPGPIODriver{
		configuredPins: make(map[core.GPIOPin]machine.Pin),
	}
}

func (d *RPGPIODriver) configure(pin core.GPIOPin, mode machine.PinMode) machine.Pin {
	p := machine.Pin(pin)
	p.Configure(machine.PinConfig{Mode: mode})
	d.configuredPins[pin] = p
	return p
}

func (d *RPGPIODriver) ConfigureOutput(pin core.GPIOPin) error {
	if _, exists := d.configuredPins[pin]; exists {
		return nil
	}
	d.configure(pin, machine.PinOutput)
	return nil
}

func (d *RPGPIODriver) ConfigureInputPullUp(pin core.GPIOPin) error {
	d.configure(pin, machine.PinInputPullup)
	return nil
}

func (d *RPGPIODriver) SetPin(pin core.GPIOPin, value bool) error {
	p, exists := d.configuredPins[pin]
	if !exists {
		p = d.configure(pin, machine.PinOutput)
	}
	p.Set(value)
	return nil
}

func (d *RPGPIODriver) GetPin(pin core.GPIOPin) (bool, error) {
	p, exists := d.configuredPins[pin]
	if !exists {
		return false, nil
	}
	return p.Get(), nil
}

// SetInterrupt runs callback from the GPIO IRQ handler
func (d *RPGPIODriver) SetInterrupt(pin core.GPIOPin, edge core.PinEdge, callback func(core.GPIOPin)) error {
	p, exists := d.configuredPins[pin]
	if !exists {
		p = d.configure(pin, machine.PinInputPullup)
	}
	if callback == nil {
		return p.SetInterrupt(0, nil)
	}

	var change machine.PinChange
	switch edge {
	case core.EdgeRising:
		change = machine.PinRising
	case core.EdgeBoth:
		change = machine.PinToggle
	default:
		change = machine.PinFalling
	}
	return p.SetInterrupt(change, func(machine.Pin) {
		callback(pin)
	})
}
