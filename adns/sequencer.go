package adns

import "navsense/core"

// SleepPolicy selects how the chip uses its rest modes.
type SleepPolicy uint8

const (
	SleepDisabled SleepPolicy = iota // never enter rest mode
	SleepDelayed                     // rest mode with the longest downshift times
	SleepEnabled                     // chip default downshift behaviour
)

// Firmware is an SROM image and the SROM_ID it reports once loaded.
type Firmware struct {
	Image []byte
	ID    byte
}

// setup runs the power, identification and configuration sequence.
// Each step is terminal on failure.
func (d *Device) setup(resolution uint16, minRate uint32) error {
	steps := [...]struct {
		name string
		fn   func() error
	}{
		{"configure", d.bus.configure},
		{"power up", d.powerUp},
		{"reset", d.resetSensor},
		{"firmware", d.uploadFirmware},
		{"laser", d.enableLaser},
		{"sleep", d.applySleepPolicy},
		{"lift", d.applyLiftThreshold},
		{"resolution", func() error { _, err := d.applyResolution(resolution); return err }},
		{"sample rate", func() error { _, err := d.applyMinSampleRate(minRate); return err }},
		{"revision", d.readRevision},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			core.DebugPrintln("[ADNS] setup failed at " + step.name + ": " + err.Error())
			return err
		}
	}
	return nil
}

// powerUp resets the serial port and issues a full chip reset.
func (d *Device) powerUp() error {
	if err := d.bus.ResetPort(); err != nil {
		return err
	}
	if err := d.bus.WriteRegister(RegPowerUpReset, powerUpResetCmd); err != nil {
		return err
	}
	d.clock.Delay(d.cfg.Timing.PowerUp)
	return nil
}

// resetSensor resets the chip, flushes the motion registers and checks the
// chip identity.
func (d *Device) resetSensor() error {
	if err := d.bus.WriteRegister(RegPowerUpReset, powerUpResetCmd); err != nil {
		return err
	}
	d.clock.Delay(d.cfg.Timing.Reset)

	for _, reg := range [...]Register{RegMotion, RegDeltaXL, RegDeltaXH, RegDeltaYL, RegDeltaYH} {
		if _, err := d.bus.ReadRegister(reg); err != nil {
			return err
		}
	}

	pid, err := d.bus.ReadRegister(RegProductID)
	if err != nil {
		return err
	}
	if pid != ProductID {
		return &MismatchError{What: "Product_ID", Got: uint16(pid), Want: ProductID, Err: ErrProductID}
	}
	inv, err := d.bus.ReadRegister(RegInverseProductID)
	if err != nil {
		return err
	}
	if inv != InverseProductID {
		return &MismatchError{What: "Inverse_Product_ID", Got: uint16(inv), Want: InverseProductID, Err: ErrProductID}
	}
	return nil
}

// uploadFirmware loads and verifies the SROM image when one is configured.
func (d *Device) uploadFirmware() error {
	fw := d.cfg.Firmware
	if fw == nil {
		return nil
	}
	if len(fw.Image) == 0 {
		return &MismatchError{What: "SROM image length", Got: 0, Want: 1, Err: ErrFirmware}
	}

	if err := d.bus.WriteRegister(RegConfigurationIV, config4SROMSize); err != nil {
		return err
	}
	if err := d.bus.WriteRegister(RegSROMEnable, sromEnableInit); err != nil {
		return err
	}
	d.clock.Delay(d.cfg.Timing.Frame)
	if err := d.bus.WriteRegister(RegSROMEnable, sromEnableLoad); err != nil {
		return err
	}
	if err := d.bus.BurstWrite(RegSROMLoadBurst, fw.Image, d.cfg.Timing.SROMByte); err != nil {
		return err
	}

	id, err := d.bus.ReadRegister(RegSROMID)
	if err != nil {
		return err
	}
	if id != fw.ID {
		return &MismatchError{What: "SROM_ID", Got: uint16(id), Want: uint16(fw.ID), Err: ErrFirmware}
	}

	// SROM CRC self test; Data_Out reads 0xBEEF on success.
	if err := d.bus.WriteRegister(RegSROMEnable, sromEnableCRC); err != nil {
		return err
	}
	d.clock.Delay(d.cfg.Timing.Frame)
	crc, err := d.bus.readPair(RegDataOutLower, RegDataOutUpper)
	if err != nil {
		return err
	}
	if crc != sromCRCExpected {
		return &MismatchError{What: "SROM CRC", Got: crc, Want: sromCRCExpected, Err: ErrFirmware}
	}
	d.sromID = id
	return nil
}

// enableLaser clears Force_Disabled and the low LASER_CTRL0 bits.
func (d *Device) enableLaser() error {
	v, err := d.bus.ReadRegister(RegLaserCtrl0)
	if err != nil {
		return err
	}
	return d.bus.WriteRegister(RegLaserCtrl0, v&laserCtrl0Mask)
}

func (d *Device) applySleepPolicy() error {
	if d.cfg.Sleep == SleepEnabled {
		return nil
	}
	cfg2, err := d.bus.ReadRegister(RegConfigurationII)
	if err != nil {
		return err
	}
	switch d.cfg.Sleep {
	case SleepDisabled:
		return d.bus.WriteRegister(RegConfigurationII, cfg2&^config2RestEn)
	case SleepDelayed:
		if err := d.bus.WriteRegister(RegConfigurationII, cfg2|config2RestEn); err != nil {
			return err
		}
		for _, reg := range [...]Register{RegRunDownshift, RegRest1Downshift, RegRest2Downshift} {
			if err := d.bus.WriteRegister(reg, downshiftMax); err != nil {
				return err
			}
		}
	}
	return nil
}

func (d *Device) applyLiftThreshold() error {
	thr := d.cfg.LiftThreshold
	if thr == 0 {
		return nil
	}
	if thr > liftThresholdMax {
		core.DebugPrintln("[ADNS] lift threshold clamped to " + core.FormatHex(liftThresholdMax))
		thr = liftThresholdMax
	}
	return d.bus.WriteRegister(RegLiftDetectionThr, thr)
}

// readRevision records Revision_ID, plus SROM_ID when firmware was loaded.
func (d *Device) readRevision() error {
	rev, err := d.bus.ReadRegister(RegRevisionID)
	if err != nil {
		return err
	}
	d.revisionID = rev
	d.settings.FirmwareRevision = "rev " + core.FormatHex(rev)
	if d.cfg.Firmware != nil {
		d.settings.FirmwareRevision += " srom " + core.FormatHex(d.sromID)
	}
	return nil
}
