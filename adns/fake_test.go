package adns

import (
	"errors"
	"time"

	"navsense/core"
)

const testCS core.GPIOPin = 17

type regOp struct {
	Reg Register
	Val byte
}

type sample struct{ dx, dy int16 }

// fakeChip models an ADNS-9800 on the far side of the SPI bus. It also
// serves as the GPIO driver and the clock so a test sees one timeline.
type fakeChip struct {
	regs [128]byte

	productID   byte
	inverseID   byte
	sromReports byte
	crc         uint16

	csPin      core.GPIOPin
	csHigh     bool
	csEdges    int
	addressed  bool
	addr       Register
	write      bool
	burst      []byte
	sromActive bool
	srom       []byte

	queue  []sample
	reads  []Register
	writes []regOp

	// clock readings per register access, parallel to reads and writes
	readAt    []time.Duration
	writeAt   []time.Duration
	addrAt    time.Duration
	writeGaps []time.Duration // address byte to data byte

	strayBytes int
	failAfter  int // fail the Nth transfer from now, 0 disables
	transfers  int

	outputs    map[core.GPIOPin]bool
	inputs     map[core.GPIOPin]bool
	interrupts map[core.GPIOPin]func(core.GPIOPin)

	now    uint32
	delays time.Duration
}

func newFakeChip() *fakeChip {
	return &fakeChip{
		productID:   ProductID,
		inverseID:   InverseProductID,
		sromReports: 0xA6,
		crc:         sromCRCExpected,
		csPin:       testCS,
		csHigh:      true,
		outputs:     make(map[core.GPIOPin]bool),
		inputs:      make(map[core.GPIOPin]bool),
		interrupts:  make(map[core.GPIOPin]func(core.GPIOPin)),
	}
}

var errFakeTransfer = errors.New("fake: transfer failed")

func (c *fakeChip) powerOn() {
	c.regs = [128]byte{}
	c.regs[RegRevisionID] = 0x03
	c.regs[RegLaserCtrl0] = 0x01 // Force_Disabled
	c.regs[RegConfigurationII] = config2RestEn
	c.regs[RegConfigurationI] = 0x09
	c.regs[RegFramePeriodUpper] = 0x5D
	c.regs[RegFramePeriodLower] = 0xC0
	c.srom = nil
}

// push queues a motion sample the next Motion read will latch.
func (c *fakeChip) push(dx, dy int16) {
	c.queue = append(c.queue, sample{dx, dy})
}

func (c *fakeChip) latchMotion() {
	if len(c.queue) == 0 {
		c.regs[RegMotion] = 0
		c.regs[RegDeltaXL], c.regs[RegDeltaXH] = 0, 0
		c.regs[RegDeltaYL], c.regs[RegDeltaYH] = 0, 0
		return
	}
	s := c.queue[0]
	c.queue = c.queue[1:]
	c.regs[RegMotion] = motionMOT
	c.regs[RegDeltaXL], c.regs[RegDeltaXH] = uint8(uint16(s.dx)), uint8(uint16(s.dx)>>8)
	c.regs[RegDeltaYL], c.regs[RegDeltaYH] = uint8(uint16(s.dy)), uint8(uint16(s.dy)>>8)
}

// drivers.SPI

func (c *fakeChip) Transfer(b byte) (byte, error) {
	c.transfers++
	if c.failAfter > 0 {
		c.failAfter--
		if c.failAfter == 0 {
			return 0, errFakeTransfer
		}
	}
	if c.csHigh {
		c.strayBytes++
		return 0, nil
	}
	if !c.addressed {
		c.addressed = true
		c.addrAt = c.delays
		c.addr = Register(b & addrMask)
		c.write = b&writeFlag != 0
		switch {
		case c.addr == RegMotionBurst && !c.write:
			c.latchMotion()
			c.burst = []byte{
				c.regs[RegMotion], 0,
				c.regs[RegDeltaXL], c.regs[RegDeltaXH],
				c.regs[RegDeltaYL], c.regs[RegDeltaYH],
				0x40, 0, 0, 0, 0, 0, 0, 0,
			}
		case c.addr == RegSROMLoadBurst && c.write:
			c.sromActive = true
		}
		return 0, nil
	}

	if c.write {
		if c.sromActive {
			c.srom = append(c.srom, b)
			return 0, nil
		}
		c.onWrite(c.addr, b)
		return 0, nil
	}
	if c.burst != nil {
		if len(c.burst) == 0 {
			return 0, nil
		}
		v := c.burst[0]
		c.burst = c.burst[1:]
		return v, nil
	}
	return c.onRead(c.addr), nil
}

func (c *fakeChip) Tx(w, r []byte) error {
	n := len(r)
	if len(w) > n {
		n = len(w)
	}
	for i := 0; i < n; i++ {
		var out byte
		if i < len(w) {
			out = w[i]
		}
		in, err := c.Transfer(out)
		if err != nil {
			return err
		}
		if i < len(r) {
			r[i] = in
		}
	}
	return nil
}

func (c *fakeChip) onWrite(reg Register, v byte) {
	c.writes = append(c.writes, regOp{reg, v})
	c.writeAt = append(c.writeAt, c.delays)
	c.writeGaps = append(c.writeGaps, c.delays-c.addrAt)
	switch reg {
	case RegPowerUpReset:
		if v == powerUpResetCmd {
			c.powerOn()
		}
	case RegSROMEnable:
		if v == sromEnableCRC {
			c.regs[RegDataOutUpper] = uint8(c.crc >> 8)
			c.regs[RegDataOutLower] = uint8(c.crc)
		}
	case RegMotionBurst:
	default:
		c.regs[reg] = v
	}
}

func (c *fakeChip) onRead(reg Register) byte {
	c.reads = append(c.reads, reg)
	c.readAt = append(c.readAt, c.delays)
	switch reg {
	case RegProductID:
		return c.productID
	case RegInverseProductID:
		return c.inverseID
	case RegMotion:
		c.latchMotion()
	case RegSROMID:
		if len(c.srom) > 0 {
			return c.sromReports
		}
		return 0
	}
	return c.regs[reg]
}

// core.GPIODriver

func (c *fakeChip) ConfigureOutput(pin core.GPIOPin) error {
	c.outputs[pin] = true
	return nil
}

func (c *fakeChip) ConfigureInputPullUp(pin core.GPIOPin) error {
	c.inputs[pin] = true
	return nil
}

func (c *fakeChip) SetPin(pin core.GPIOPin, value bool) error {
	if pin != c.csPin {
		return nil
	}
	if value != c.csHigh {
		c.csEdges++
	}
	c.csHigh = value
	if value {
		c.addressed = false
		c.burst = nil
		c.sromActive = false
	}
	return nil
}

func (c *fakeChip) GetPin(pin core.GPIOPin) (bool, error) {
	if pin == c.csPin {
		return c.csHigh, nil
	}
	return true, nil
}

func (c *fakeChip) SetInterrupt(pin core.GPIOPin, edge core.PinEdge, cb func(core.GPIOPin)) error {
	if cb == nil {
		delete(c.interrupts, pin)
		return nil
	}
	c.interrupts[pin] = cb
	return nil
}

func (c *fakeChip) fire(pin core.GPIOPin) {
	if cb := c.interrupts[pin]; cb != nil {
		cb(pin)
	}
}

// core.Clock

func (c *fakeChip) Micros() uint32 { return c.now }

func (c *fakeChip) Delay(d time.Duration) {
	c.delays += d
	c.now += uint32(d / time.Microsecond)
}

func (c *fakeChip) advance(us uint32) { c.now += us }

func (c *fakeChip) wrote(reg Register) []byte {
	var out []byte
	for _, w := range c.writes {
		if w.Reg == reg {
			out = append(out, w.Val)
		}
	}
	return out
}

// firstRead returns the index of the first read of reg, or -1.
func (c *fakeChip) firstRead(reg Register) int {
	for i, r := range c.reads {
		if r == reg {
			return i
		}
	}
	return -1
}

func (c *fakeChip) readCount(reg Register) int {
	n := 0
	for _, r := range c.reads {
		if r == reg {
			n++
		}
	}
	return n
}

func testConfig(c *fakeChip) Config {
	cfg := DefaultConfig(testCS)
	cfg.GPIO = c
	cfg.Clock = c
	return cfg
}

func newTestDevice(c *fakeChip, mutate func(*Config)) *Device {
	cfg := testConfig(c)
	if mutate != nil {
		mutate(&cfg)
	}
	return New(c, cfg)
}
