package adns

import "navsense/core"

// Resolution and frame period limits. Period registers count cycles of the
// 50 MHz chip clock; this package works in microseconds.
const (
	ResolutionStep = 200
	MinResolution  = 200
	MaxResolution  = 8200

	MinSamplePeriodLimit = 80   // µs, 12000 frames/s
	MaxSamplePeriodLimit = 1310 // µs, 0xFFFF cycles

	DefaultResolution    = 1800
	DefaultMinSampleRate = 2000

	chipCyclesPerMicro     = 50
	defaultMinSamplePeriod = 80  // Frame_Period_Min_Bound after reset
	defaultMaxSamplePeriod = 480 // Frame_Period_Max_Bound after reset
)

// Settings are the values last applied to the chip.
type Settings struct {
	ResolutionCPI    uint16
	MinSampleRate    uint32 // Hz
	MinSamplePeriod  uint16 // µs
	MaxSamplePeriod  uint16 // µs
	InchPerCount     float64
	FirmwareRevision string
}

func resetSettings() Settings {
	return Settings{
		MinSamplePeriod: defaultMinSamplePeriod,
		MaxSamplePeriod: defaultMaxSamplePeriod,
		MinSampleRate:   1000000 / defaultMaxSamplePeriod,
	}
}

func clampPeriod(us uint32) uint16 {
	if us < MinSamplePeriodLimit {
		return MinSamplePeriodLimit
	}
	if us > MaxSamplePeriodLimit {
		return MaxSamplePeriodLimit
	}
	return uint16(us)
}

func (d *Device) applyResolution(cpi uint16) (uint16, error) {
	steps := (uint32(cpi) + ResolutionStep/2) / ResolutionStep
	if steps < MinResolution/ResolutionStep {
		steps = MinResolution / ResolutionStep
	}
	if steps > MaxResolution/ResolutionStep {
		steps = MaxResolution / ResolutionStep
	}
	applied := uint16(steps * ResolutionStep)

	if err := d.bus.WriteRegister(RegConfigurationI, uint8(steps)); err != nil {
		return d.settings.ResolutionCPI, err
	}
	if applied != cpi {
		core.DebugPrintln("[ADNS] resolution " + core.Utoa(uint32(cpi)) + " cpi adjusted to " + core.Utoa(uint32(applied)))
	}
	d.settings.ResolutionCPI = applied
	d.settings.InchPerCount = 1.0 / float64(applied)
	return applied, nil
}

func (d *Device) applyMaxSamplePeriod(us uint32) (uint16, error) {
	hi := clampPeriod(us)
	lo := d.settings.MinSamplePeriod
	if lo > hi {
		lo = hi
	}
	if err := d.writePeriods(lo, hi); err != nil {
		return d.settings.MaxSamplePeriod, err
	}
	if uint32(hi) != us {
		core.DebugPrintln("[ADNS] max sample period " + core.Utoa(us) + "us adjusted to " + core.Utoa(uint32(hi)))
	}
	return hi, nil
}

func (d *Device) applyMinSamplePeriod(us uint32) (uint16, error) {
	lo := clampPeriod(us)
	hi := d.settings.MaxSamplePeriod
	if hi < lo {
		hi = lo
	}
	if err := d.writePeriods(lo, hi); err != nil {
		return d.settings.MinSamplePeriod, err
	}
	if uint32(lo) != us {
		core.DebugPrintln("[ADNS] min sample period " + core.Utoa(us) + "us adjusted to " + core.Utoa(uint32(lo)))
	}
	return lo, nil
}

// applyMinSampleRate sets the longest frame period that still meets hz.
// Zero selects the slowest rate the chip supports.
func (d *Device) applyMinSampleRate(hz uint32) (uint32, error) {
	period := uint32(MaxSamplePeriodLimit)
	if hz > 0 {
		period = 1000000 / hz
	}
	if _, err := d.applyMaxSamplePeriod(period); err != nil {
		return d.settings.MinSampleRate, err
	}
	return d.settings.MinSampleRate, nil
}

// writePeriods updates the frame period bounds. The chip requires
// Shutter_Max_Bound first, then the min bound, then the max bound, and
// Frame_Period_Max_Bound >= Frame_Period_Min_Bound + Shutter_Max_Bound.
func (d *Device) writePeriods(lo, hi uint16) error {
	shutter := (hi - lo) * chipCyclesPerMicro
	if err := d.bus.writePair(RegShutterMaxBoundL, RegShutterMaxBoundU, shutter); err != nil {
		return err
	}
	if err := d.bus.writePair(RegFramePeriodMinBoundL, RegFramePeriodMinBoundU, lo*chipCyclesPerMicro); err != nil {
		return err
	}
	if err := d.bus.writePair(RegFramePeriodMaxBoundL, RegFramePeriodMaxBoundU, hi*chipCyclesPerMicro); err != nil {
		return err
	}
	d.settings.MinSamplePeriod = lo
	d.settings.MaxSamplePeriod = hi
	d.settings.MinSampleRate = 1000000 / uint32(hi)
	return nil
}

// SetResolution sets counts per inch, rounded to a 200 CPI step and clamped
// to 200..8200. Captures already folded keep their old scale.
func (d *Device) SetResolution(cpi uint16) (uint16, error) {
	if err := d.check(opConfigure); err != nil {
		return d.settings.ResolutionCPI, err
	}
	return d.applyResolution(cpi)
}

// SetMaxSamplePeriod sets the longest frame period in µs, clamped to
// 80..1310. The min period follows it down if needed.
func (d *Device) SetMaxSamplePeriod(us uint32) (uint16, error) {
	if err := d.check(opConfigure); err != nil {
		return d.settings.MaxSamplePeriod, err
	}
	return d.applyMaxSamplePeriod(us)
}

// SetMinSamplePeriod sets the shortest frame period in µs, clamped to
// 80..1310. The max period follows it up if needed.
func (d *Device) SetMinSamplePeriod(us uint32) (uint16, error) {
	if err := d.check(opConfigure); err != nil {
		return d.settings.MinSamplePeriod, err
	}
	return d.applyMinSamplePeriod(us)
}

// SetMinSampleRate guarantees at least hz frames per second.
func (d *Device) SetMinSampleRate(hz uint32) (uint32, error) {
	if err := d.check(opConfigure); err != nil {
		return d.settings.MinSampleRate, err
	}
	return d.applyMinSampleRate(hz)
}

func (d *Device) Resolution() uint16      { return d.settings.ResolutionCPI }
func (d *Device) MinSamplePeriod() uint16 { return d.settings.MinSamplePeriod }
func (d *Device) MaxSamplePeriod() uint16 { return d.settings.MaxSamplePeriod }
func (d *Device) MinSampleRate() uint32   { return d.settings.MinSampleRate }

// SamplePeriod is the guaranteed worst-case frame period in µs.
func (d *Device) SamplePeriod() uint16 { return d.settings.MaxSamplePeriod }

// SampleRate is the guaranteed minimum frame rate in Hz.
func (d *Device) SampleRate() uint32 { return d.settings.MinSampleRate }

// Settings returns a copy of the applied settings.
func (d *Device) Settings() Settings { return d.settings }

// ReadFramePeriod reads the chip's current frame period in µs.
func (d *Device) ReadFramePeriod() (uint16, error) {
	if err := d.check(opConfigure); err != nil {
		return 0, err
	}
	cycles, err := d.bus.readPair(RegFramePeriodLower, RegFramePeriodUpper)
	if err != nil {
		return 0, err
	}
	return cycles / chipCyclesPerMicro, nil
}
