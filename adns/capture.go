package adns

import "navsense/core"

// Capture is the raw result of the last sample capture.
type Capture struct {
	Motion  bool
	DX, DY  int16
	DT      uint32 // µs since the previous capture or acquisition start
	Elapsed uint64 // µs since acquisition start

	inchPerCount float64
}

// TriggerAcquisitionStart zeroes the position and starts the session clock.
func (d *Device) TriggerAcquisitionStart() error {
	if err := d.check(opStart); err != nil {
		return err
	}
	d.track.Reset()
	d.last = Capture{}
	d.elapsed = 0
	d.lastMicros = d.clock.Micros()
	d.pending.Store(false)
	d.state = StateIdle
	return nil
}

// TriggerSampleCapture reads one motion sample. A capture still pending is
// folded first so no sample is lost.
func (d *Device) TriggerSampleCapture() error {
	if err := d.check(opCapture); err != nil {
		return err
	}
	if d.state == StateCaptured {
		d.fold()
	}

	d.pending.Store(false)
	now := d.clock.Micros()
	motion, dx, dy, err := d.readFrame()
	if err != nil {
		if core.IsDebugEnabled() {
			core.DumpBusTrace()
		}
		return err
	}

	dt := core.ElapsedMicros(d.lastMicros, now)
	d.lastMicros = now
	d.elapsed += uint64(dt)
	d.last = Capture{
		Motion:       motion,
		DX:           dx,
		DY:           dy,
		DT:           dt,
		Elapsed:      d.elapsed,
		inchPerCount: d.settings.InchPerCount,
	}
	d.state = StateCaptured

	if d.cfg.AutoUpdate {
		d.fold()
	}
	return nil
}

// TriggerPositionUpdate folds the pending capture into the position.
// With AutoUpdate the fold already happened and this is a no-op.
func (d *Device) TriggerPositionUpdate() error {
	if d.cfg.AutoUpdate && d.state == StateIdle {
		return nil
	}
	if err := d.check(opUpdate); err != nil {
		return err
	}
	d.fold()
	return nil
}

// TriggerAcquisitionStop ends the session. Position and displacement stay
// readable. Stopping twice is a no-op.
func (d *Device) TriggerAcquisitionStop() error {
	if err := d.check(opStop); err != nil {
		return err
	}
	if d.state == StateCaptured {
		d.fold()
	}
	d.state = StateStopped
	return nil
}

// fold converts the last capture to inches with the resolution in effect
// when it was taken.
func (d *Device) fold() {
	c := &d.last
	d.track.Fold(float64(c.DX)*c.inchPerCount, float64(c.DY)*c.inchPerCount, c.DT)
	d.state = StateIdle
}
