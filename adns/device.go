// Package adns drives an ADNS-9800 laser motion sensor over SPI.
//
// A Device is set up with Begin, then sampled with the trigger cycle:
//
//	dev.TriggerAcquisitionStart()
//	for ... {
//		dev.TriggerSampleCapture()
//		dev.TriggerPositionUpdate()
//		pos := dev.ReadPosition()
//	}
//	dev.TriggerAcquisitionStop()
//
// Samples are held in inches and microseconds and converted to the
// configured units when read. A Device is not safe for concurrent use; only
// the motion-sense interrupt may touch it from another context.
package adns

import (
	"sync/atomic"

	"tinygo.org/x/drivers"

	"navsense/core"
	"navsense/motion"
	"navsense/unit"
)

// Config selects the device's runtime mode. It is fixed for the lifetime of
// the Device.
type Config struct {
	ChipSelect core.GPIOPin
	GPIO       core.GPIODriver // nil uses core.MustGPIO()
	Clock      core.Clock      // nil uses core.MustClock()

	Burst      bool        // read motion with Motion_Burst instead of single registers
	AutoUpdate bool        // fold every capture immediately
	Layout     FrameLayout // burst frame layout; zero value uses ADNS9800Burst

	Firmware      *Firmware   // SROM image to load at Begin, or nil
	Sleep         SleepPolicy // rest mode behaviour
	LiftThreshold uint8       // Lift_Detection_Thr, 0 keeps the chip default

	Timing Timing // zero value uses DefaultTiming
}

// DefaultConfig returns a burst-mode configuration for the sensor on cs.
func DefaultConfig(cs core.GPIOPin) Config {
	return Config{
		ChipSelect: cs,
		Burst:      true,
		Layout:     ADNS9800Burst,
		Timing:     DefaultTiming,
	}
}

// Device is an ADNS-9800 sensor.
type Device struct {
	bus   *Bus
	cfg   Config
	gpio  core.GPIODriver
	clock core.Clock

	state      State
	settings   Settings
	revisionID byte
	sromID     byte

	track motion.Track
	units struct {
		position     unit.Spec
		displacement unit.Spec
		velocity     unit.Spec
	}

	last       Capture
	lastMicros uint32
	elapsed    uint64

	motionPin core.GPIOPin
	pending   atomic.Bool

	frame [maxFrameSize]byte
}

var _ drivers.Sensor = (*Device)(nil)

// New returns a Device on the given SPI handle. No bus traffic happens
// until Begin.
func New(spi drivers.SPI, cfg Config) *Device {
	if cfg.GPIO == nil {
		cfg.GPIO = core.MustGPIO()
	}
	if cfg.Clock == nil {
		cfg.Clock = core.MustClock()
	}
	if cfg.Layout == (FrameLayout{}) {
		cfg.Layout = ADNS9800Burst
	}
	if cfg.Timing == (Timing{}) {
		cfg.Timing = DefaultTiming
	}

	d := &Device{
		cfg:       cfg,
		gpio:      cfg.GPIO,
		clock:     cfg.Clock,
		motionPin: core.NoPin,
	}
	d.bus = newBus(spi, cfg.GPIO, cfg.ChipSelect, cfg.Clock, cfg.Timing)
	d.units.position = unit.Default
	d.units.displacement = unit.Default
	d.units.velocity = unit.Default
	return d
}

// Begin powers up, identifies and configures the sensor. resolution is in
// counts per inch and minSampleRate in frames per second; both are clamped
// to what the chip supports. On failure the device is left Uninitialized.
func (d *Device) Begin(resolution uint16, minSampleRate uint32) error {
	if err := d.check(opBegin); err != nil {
		return err
	}
	d.state = StateUninitialized
	d.settings = resetSettings()
	d.sromID = 0
	d.revisionID = 0

	if d.bus.spi == nil {
		d.settings = Settings{}
		return &BusError{Op: "begin", Reg: noRegister, Err: ErrTransport}
	}
	if err := d.cfg.Layout.Validate(); err != nil {
		d.settings = Settings{}
		return err
	}
	if err := d.setup(resolution, minSampleRate); err != nil {
		d.settings = Settings{}
		return err
	}

	core.DebugPrintln("[ADNS] ready " + d.settings.FirmwareRevision +
		" cpi=" + core.Utoa(uint32(d.settings.ResolutionCPI)) +
		" period=" + core.Utoa(uint32(d.settings.MinSamplePeriod)) + ".." + core.Utoa(uint32(d.settings.MaxSamplePeriod)))
	d.state = StateConfigured
	return nil
}

// Shutdown powers the chip down. Begin must be called again before use.
func (d *Device) Shutdown() error {
	if err := d.check(opShutdown); err != nil {
		return err
	}
	if d.state != StateUninitialized {
		if err := d.bus.WriteRegister(RegShutdown, shutdownCmd); err != nil {
			return err
		}
	}
	if d.motionPin != core.NoPin {
		if err := d.gpio.SetInterrupt(d.motionPin, core.EdgeFalling, nil); err != nil {
			return err
		}
		d.motionPin = core.NoPin
	}
	d.state = StateUninitialized
	d.settings = Settings{}
	return nil
}

// Update implements drivers.Sensor. A Distance or Time update captures one
// sample and folds it into the position.
func (d *Device) Update(which drivers.Measurement) error {
	if which&(drivers.Distance|drivers.Time) == 0 {
		return nil
	}
	if err := d.TriggerSampleCapture(); err != nil {
		return err
	}
	return d.TriggerPositionUpdate()
}

// SetMotionSensePinInterruptMode watches the chip's active-low MOTION output
// on pin. MotionPending reports whether it fired since the last capture.
func (d *Device) SetMotionSensePinInterruptMode(pin core.GPIOPin) error {
	if err := d.gpio.ConfigureInputPullUp(pin); err != nil {
		return err
	}
	err := d.gpio.SetInterrupt(pin, core.EdgeFalling, func(core.GPIOPin) {
		d.pending.Store(true)
	})
	if err != nil {
		return err
	}
	d.motionPin = pin
	return nil
}

// MotionPending reports whether the motion pin fired since the last capture.
func (d *Device) MotionPending() bool {
	return d.pending.Load()
}

// ReadDisplacement returns the last folded displacement.
func (d *Device) ReadDisplacement() motion.Displacement {
	return d.track.Displacement(d.units.displacement)
}

// ReadPosition returns the position accumulated since acquisition start.
func (d *Device) ReadPosition() motion.Position {
	return d.track.Position(d.units.position)
}

// ReadVelocity returns the last displacement divided by its interval.
func (d *Device) ReadVelocity() motion.Velocity {
	return d.track.Velocity(d.units.velocity)
}

// ReadVelocityPolar returns ReadVelocity as speed and heading in radians.
func (d *Device) ReadVelocityPolar() motion.PolarVelocity {
	return d.track.PolarVelocity(d.units.velocity)
}

func (d *Device) SetDisplacementUnits(dist unit.Distance, t unit.Time) error {
	return setUnits(&d.units.displacement, dist, t)
}

func (d *Device) SetPositionUnits(dist unit.Distance, t unit.Time) error {
	return setUnits(&d.units.position, dist, t)
}

func (d *Device) SetVelocityUnits(dist unit.Distance, t unit.Time) error {
	return setUnits(&d.units.velocity, dist, t)
}

func setUnits(dst *unit.Spec, dist unit.Distance, t unit.Time) error {
	s := unit.Spec{Distance: dist, Time: t}
	if !s.Valid() {
		return ErrUnsupportedUnit
	}
	*dst = s
	return nil
}

// LastCapture returns the raw counts of the most recent capture.
func (d *Device) LastCapture() Capture { return d.last }

// Samples returns the number of captures folded since acquisition start.
func (d *Device) Samples() uint32 { return d.track.Count() }

func (d *Device) State() State { return d.state }

// Bus exposes the register transaction layer for diagnostics.
func (d *Device) Bus() *Bus { return d.bus }

func (d *Device) FirmwareRevision() string { return d.settings.FirmwareRevision }
func (d *Device) RevisionID() byte         { return d.revisionID }
func (d *Device) SROMID() byte             { return d.sromID }
