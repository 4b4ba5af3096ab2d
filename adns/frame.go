package adns

// FrameLayout locates the motion fields inside a burst frame.
type FrameLayout struct {
	Size    int
	Motion  int
	DeltaXL int
	DeltaXH int
	DeltaYL int
	DeltaYH int
}

// ADNS9800Burst is the Motion_Burst frame: Motion, Observation, Delta_X_L,
// Delta_X_H, Delta_Y_L, Delta_Y_H, SQUAL, Pixel_Sum, Maximum_Pixel,
// Minimum_Pixel, Shutter_Upper, Shutter_Lower, Frame_Period_Upper,
// Frame_Period_Lower.
var ADNS9800Burst = FrameLayout{
	Size:    14,
	Motion:  0,
	DeltaXL: 2,
	DeltaXH: 3,
	DeltaYL: 4,
	DeltaYH: 5,
}

// Validate checks every offset lies inside the frame and the delta
// offsets do not overlap.
func (l FrameLayout) Validate() error {
	if l.Size <= 0 || l.Size > maxFrameSize {
		return ErrLayout
	}
	offsets := [...]int{l.Motion, l.DeltaXL, l.DeltaXH, l.DeltaYL, l.DeltaYH}
	for i, off := range offsets {
		if off < 0 || off >= l.Size {
			return ErrLayout
		}
		for _, other := range offsets[:i] {
			if off == other {
				return ErrLayout
			}
		}
	}
	return nil
}

const maxFrameSize = 64

// TwosComplement joins a lower/upper byte pair into a signed 16-bit count.
func TwosComplement(lo, hi byte) int16 {
	v := int32(hi)<<8 | int32(lo)
	if v >= 0x8000 {
		v -= 0x10000
	}
	return int16(v)
}

// Decode extracts the motion status and counts from a burst frame.
// frame must be at least l.Size bytes.
func (l FrameLayout) Decode(frame []byte) (motion bool, dx, dy int16) {
	motion = frame[l.Motion]&motionMOT != 0
	dx = TwosComplement(frame[l.DeltaXL], frame[l.DeltaXH])
	dy = TwosComplement(frame[l.DeltaYL], frame[l.DeltaYH])
	return motion, dx, dy
}

// readFrame performs one read according to the configured mode.
func (d *Device) readFrame() (motion bool, dx, dy int16, err error) {
	if d.cfg.Burst {
		return d.readBurst()
	}
	return d.readRegisters()
}

// readBurst latches all motion registers in one Motion_Burst transaction.
func (d *Device) readBurst() (bool, int16, int16, error) {
	// Any write to Motion_Burst arms the burst latch.
	if err := d.bus.WriteRegister(RegMotionBurst, 0); err != nil {
		return false, 0, 0, err
	}
	buf := d.frame[:d.cfg.Layout.Size]
	if err := d.bus.BurstRead(RegMotionBurst, buf); err != nil {
		return false, 0, 0, err
	}
	motion, dx, dy := d.cfg.Layout.Decode(buf)
	return motion, dx, dy, nil
}

// readRegisters reads Motion first; reading it latches the delta registers.
// Deltas are read low before high and only when MOT is set.
func (d *Device) readRegisters() (bool, int16, int16, error) {
	m, err := d.bus.ReadRegister(RegMotion)
	if err != nil {
		return false, 0, 0, err
	}
	if m&motionMOT == 0 {
		return false, 0, 0, nil
	}
	var regs [4]byte
	for i, reg := range [...]Register{RegDeltaXL, RegDeltaXH, RegDeltaYL, RegDeltaYH} {
		if regs[i], err = d.bus.ReadRegister(reg); err != nil {
			return false, 0, 0, err
		}
	}
	return true, TwosComplement(regs[0], regs[1]), TwosComplement(regs[2], regs[3]), nil
}
