package adns

import (
	"time"

	"tinygo.org/x/drivers"

	"navsense/core"
)

// Timing holds the serial port delays the chip requires between phases.
type Timing struct {
	AddressData   time.Duration // tSRAD: address to first data read
	WriteAddress  time.Duration // address to data byte on writes
	ReadHold      time.Duration // last data bit to NCS high on reads
	ReadRecovery  time.Duration // tSRR/tSRW: after a read before the next command
	WriteHold     time.Duration // tSCLK-NCS on writes
	WriteRecovery time.Duration // tSWW/tSWR: after a write before the next command
	MotionBurst   time.Duration // tSRAD-MOTBR: burst address to first data
	BurstExit     time.Duration // tBEXIT: NCS high after burst
	SROMByte      time.Duration // gap between SROM load bytes
	SROMExit      time.Duration // settle after SROM load burst
	PowerUp       time.Duration // Power_Up_Reset to first command
	Reset         time.Duration // chip reset to Product_ID read
	Frame         time.Duration // one frame at the slowest rate
}

// DefaultTiming matches the ADNS-9800 datasheet minimums.
var DefaultTiming = Timing{
	AddressData:   100 * time.Microsecond,
	WriteAddress:  100 * time.Microsecond,
	ReadHold:      1 * time.Microsecond,
	ReadRecovery:  19 * time.Microsecond,
	WriteHold:     20 * time.Microsecond,
	WriteRecovery: 100 * time.Microsecond,
	MotionBurst:   100 * time.Microsecond,
	BurstExit:     1 * time.Microsecond,
	SROMByte:      15 * time.Microsecond,
	SROMExit:      200 * time.Microsecond,
	PowerUp:       50 * time.Millisecond,
	Reset:         50 * time.Millisecond,
	Frame:         10 * time.Millisecond,
}

// Bus performs register transactions on one chip-select-addressed device.
// It owns the chip select line; the SPI handle may be shared with other
// devices as long as only one chip select is low at a time.
type Bus struct {
	spi    drivers.SPI
	gpio   core.GPIODriver
	cs     core.GPIOPin
	clock  core.Clock
	timing Timing

	selected bool
}

func newBus(spi drivers.SPI, gpio core.GPIODriver, cs core.GPIOPin, clock core.Clock, timing Timing) *Bus {
	return &Bus{
		spi:    spi,
		gpio:   gpio,
		cs:     cs,
		clock:  clock,
		timing: timing,
	}
}

// configure drives chip select as an idle-high output.
func (b *Bus) configure() error {
	if err := b.gpio.ConfigureOutput(b.cs); err != nil {
		return &BusError{Op: "configure cs", Reg: noRegister, Err: err}
	}
	if err := b.gpio.SetPin(b.cs, true); err != nil {
		return &BusError{Op: "configure cs", Reg: noRegister, Err: err}
	}
	return nil
}

// Selected reports whether a transaction currently holds the bus.
func (b *Bus) Selected() bool {
	state := core.DisableInterrupts()
	defer core.RestoreInterrupts(state)
	return b.selected
}

// Select claims the bus and drives chip select low.
// Returns ErrBusBusy without touching the line if already selected.
func (b *Bus) Select() error {
	state := core.DisableInterrupts()
	if b.selected {
		core.RestoreInterrupts(state)
		core.RecordBusEvent(core.EvtBusBusy, 0, 0, b.clock.Micros())
		return ErrBusBusy
	}
	b.selected = true
	core.RestoreInterrupts(state)

	if err := b.gpio.SetPin(b.cs, false); err != nil {
		b.setSelected(false)
		return &BusError{Op: "select", Reg: noRegister, Err: err}
	}
	return nil
}

// Deselect drives chip select high and releases the bus.
func (b *Bus) Deselect() error {
	err := b.gpio.SetPin(b.cs, true)
	b.setSelected(false)
	if err != nil {
		return &BusError{Op: "deselect", Reg: noRegister, Err: err}
	}
	return nil
}

func (b *Bus) setSelected(v bool) {
	state := core.DisableInterrupts()
	b.selected = v
	core.RestoreInterrupts(state)
}

// release deselects, keeps the first error, then waits out the recovery time.
func (b *Bus) release(err *error, recovery time.Duration) {
	if derr := b.Deselect(); *err == nil {
		*err = derr
	}
	b.clock.Delay(recovery)
}

func (b *Bus) fail(op string, reg Register, err error) error {
	core.RecordBusEvent(core.EvtBusError, uint8(reg), 0, b.clock.Micros())
	return &BusError{Op: op, Reg: reg, Err: err}
}

// ResetPort pulses chip select high-low-high to reset the serial port.
func (b *Bus) ResetPort() (err error) {
	if err = b.Deselect(); err != nil {
		return err
	}
	if err = b.Select(); err != nil {
		return err
	}
	return b.Deselect()
}

// ReadRegister reads one register.
func (b *Bus) ReadRegister(reg Register) (v byte, err error) {
	if err = b.Select(); err != nil {
		return 0, err
	}
	defer b.release(&err, b.timing.ReadRecovery)

	if _, err = b.spi.Transfer(uint8(reg)&addrMask | readFlag); err != nil {
		return 0, b.fail("read", reg, err)
	}
	b.clock.Delay(b.timing.AddressData)
	if v, err = b.spi.Transfer(0); err != nil {
		return 0, b.fail("read", reg, err)
	}
	b.clock.Delay(b.timing.ReadHold)

	core.RecordBusEvent(core.EvtRead, uint8(reg), v, b.clock.Micros())
	return v, nil
}

// WriteRegister writes one register.
func (b *Bus) WriteRegister(reg Register, v byte) (err error) {
	if err = b.Select(); err != nil {
		return err
	}
	defer b.release(&err, b.timing.WriteRecovery)

	if _, err = b.spi.Transfer(uint8(reg)&addrMask | writeFlag); err != nil {
		return b.fail("write", reg, err)
	}
	b.clock.Delay(b.timing.WriteAddress)
	if _, err = b.spi.Transfer(v); err != nil {
		return b.fail("write", reg, err)
	}
	b.clock.Delay(b.timing.WriteHold)

	core.RecordBusEvent(core.EvtWrite, uint8(reg), v, b.clock.Micros())
	return nil
}

// BurstRead addresses reg once and reads len(buf) consecutive bytes.
func (b *Bus) BurstRead(reg Register, buf []byte) (err error) {
	if err = b.Select(); err != nil {
		return err
	}
	defer b.release(&err, b.timing.BurstExit)

	if _, err = b.spi.Transfer(uint8(reg)&addrMask | readFlag); err != nil {
		return b.fail("burst read", reg, err)
	}
	b.clock.Delay(b.timing.MotionBurst)
	if err = b.spi.Tx(nil, buf); err != nil {
		return b.fail("burst read", reg, err)
	}

	core.RecordBusEvent(core.EvtBurstRead, uint8(reg), uint8(len(buf)), b.clock.Micros())
	return nil
}

// BurstWrite addresses reg once and writes data in order, waiting gap after
// every byte.
func (b *Bus) BurstWrite(reg Register, data []byte, gap time.Duration) (err error) {
	if err = b.Select(); err != nil {
		return err
	}
	defer b.release(&err, b.timing.SROMExit)

	if _, err = b.spi.Transfer(uint8(reg)&addrMask | writeFlag); err != nil {
		return b.fail("burst write", reg, err)
	}
	b.clock.Delay(gap)
	for _, v := range data {
		if _, err = b.spi.Transfer(v); err != nil {
			return b.fail("burst write", reg, err)
		}
		b.clock.Delay(gap)
	}

	core.RecordBusEvent(core.EvtBurstWrite, uint8(reg), uint8(len(data)), b.clock.Micros())
	return nil
}

// readPair reads a lower/upper register pair as one 16-bit value, upper first.
func (b *Bus) readPair(lower, upper Register) (uint16, error) {
	hi, err := b.ReadRegister(upper)
	if err != nil {
		return 0, err
	}
	lo, err := b.ReadRegister(lower)
	if err != nil {
		return 0, err
	}
	return uint16(hi)<<8 | uint16(lo), nil
}

// writePair writes a 16-bit value to a lower/upper register pair, lower first.
func (b *Bus) writePair(lower, upper Register, v uint16) error {
	if err := b.WriteRegister(lower, uint8(v)); err != nil {
		return err
	}
	return b.WriteRegister(upper, uint8(v>>8))
}
