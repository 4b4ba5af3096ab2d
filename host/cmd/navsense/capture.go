package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"navsense/adns"
	"navsense/core"
	"navsense/host/config"
	"navsense/host/spidev"
)

const sensorBus core.SPIBusID = 0

func CaptureCmdFlags(cmd *cobra.Command) {
	commonFlags(cmd)
	cmd.Flags().String("spi-bus", "", "spidev port, e.g. /dev/spidev0.0")
	cmd.Flags().Int("resolution", 0, "resolution in counts per inch")
	cmd.Flags().Duration("interval", 0, "capture interval when the motion pin is idle")
	cmd.Flags().IntP("count", "n", 0, "stop after this many samples (0 runs until interrupted)")
}

var CaptureCmd = &cobra.Command{
	Use:   "capture",
	Short: "drive the sensor directly over a Linux SPI port",
	Long: `capture drives the sensor through spidev and GPIO, running the
begin / capture / update cycle on the host and printing position and velocity.`,
	Example: `  navsense capture --spi-bus /dev/spidev0.0 -n 100`,
	RunE:    captureRunE,
}

// openDevice brings up the periph adapter and a configured sensor
func openDevice(opt config.NavSenseOpt) (*spidev.Adapter, *adns.Device, error) {
	adapter, err := spidev.Open(map[core.SPIBusID]string{sensorBus: opt.SPI.Bus})
	if err != nil {
		return nil, nil, err
	}
	core.SetGPIODriver(adapter)
	core.SetSPIDriver(adapter)

	bus, err := core.MustSPI().ConfigureBus(core.SPIConfig{BusID: sensorBus, Mode: 3, Rate: opt.SPI.Rate})
	if err != nil {
		_ = adapter.Close()
		return nil, nil, err
	}

	cfg := adns.DefaultConfig(core.GPIOPin(opt.SPI.ChipSelect))
	cfg.Burst = opt.Sensor.Burst
	cfg.LiftThreshold = opt.Sensor.LiftThreshold
	if cfg.Sleep, err = opt.Sensor.SleepPolicy(); err != nil {
		_ = adapter.Close()
		return nil, nil, err
	}
	if cfg.Firmware, err = opt.Sensor.LoadFirmware(); err != nil {
		_ = adapter.Close()
		return nil, nil, err
	}

	dev := adns.New(bus, cfg)
	if err := dev.Begin(opt.Sensor.Resolution, opt.Sensor.MinSampleRate); err != nil {
		if core.IsDebugEnabled() {
			core.DumpBusTrace()
		}
		_ = adapter.Close()
		return nil, nil, fmt.Errorf("sensor begin: %w", err)
	}
	log.Infof("sensor %s cpi=%d period=%d..%dus", dev.FirmwareRevision(),
		dev.Resolution(), dev.MinSamplePeriod(), dev.MaxSamplePeriod())
	return adapter, dev, nil
}

func captureRunE(cmd *cobra.Command, _ []string) error {
	desc, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opt := desc.Opt
	units, err := opt.ResolveUnits()
	if err != nil {
		return err
	}
	count, _ := cmd.Flags().GetInt("count")

	adapter, dev, err := openDevice(opt)
	if err != nil {
		return err
	}
	defer func() { _ = adapter.Close() }()
	defer func() { _ = dev.Shutdown() }()

	if err := dev.SetPositionUnits(units.Position.Distance, units.Position.Time); err != nil {
		return err
	}
	if err := dev.SetDisplacementUnits(units.Displacement.Distance, units.Displacement.Time); err != nil {
		return err
	}
	if err := dev.SetVelocityUnits(units.Velocity.Distance, units.Velocity.Time); err != nil {
		return err
	}
	if opt.SPI.MotionPin >= 0 {
		if err := dev.SetMotionSensePinInterruptMode(core.GPIOPin(opt.SPI.MotionPin)); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := dev.TriggerAcquisitionStart(); err != nil {
		return err
	}
	defer func() { _ = dev.TriggerAcquisitionStop() }()

	return captureLoop(ctx, cmd, dev, opt.SampleInterval, count)
}

func captureLoop(ctx context.Context, cmd *cobra.Command, dev *adns.Device, interval time.Duration, count int) error {
	if interval <= 0 {
		interval = config.DefaultSampleInterval
	}
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()

	out := cmd.OutOrStdout()
	last := time.Now()
	for n := 0; count == 0 || n < count; {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		if !dev.MotionPending() && time.Since(last) < interval {
			continue
		}
		last = time.Now()

		if err := dev.TriggerSampleCapture(); err != nil {
			log.Warnln("capture:", err)
			continue
		}
		if err := dev.TriggerPositionUpdate(); err != nil {
			return err
		}
		n++

		pos := dev.ReadPosition()
		vel := dev.ReadVelocityPolar()
		c := dev.LastCapture()
		fmt.Fprintf(out, "%d dx=%d dy=%d pos=(%.4f, %.4f) t=%.3f speed=%.4f heading=%.3f\n",
			dev.Samples(), c.DX, c.DY, pos.X, pos.Y, pos.T, vel.R, vel.W)
	}
	return nil
}
