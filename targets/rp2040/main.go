//go:build rp2040 || rp2350

package main

import (
	"machine"
	"time"

	"tinygo.org/x/drivers"

	"navsense/adns"
	"navsense/core"
	"navsense/protocol"
)

// Board wiring
const (
	sensorBus  core.SPIBusID = 1 // spi0b: SCK GPIO6, MOSI GPIO7, MISO GPIO4
	sensorCS   core.GPIOPin  = 5
	motionPin  core.GPIOPin  = 10
	sensorMode core.SPIMode  = 3
	sensorRate               = 2000000

	resolutionCPI = adns.DefaultResolution
	minSampleRate = adns.DefaultMinSampleRate

	// report at least this often while the sensor is still
	idleReportMicros = 10000
	debug            = false
)

var (
	usb    = newUSBWriter()
	out    = protocol.NewWriter(usb)
	faults uint32
)

func main() {
	// Clear any watchdog state left from a previous run
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	InitUSB()
	InitClock()
	InitDebugUART(debug)

	core.SetGPIODriver(NewRPGPIODriver())
	core.SetSPIDriver(NewRPSPIDriver())

	dev := openSensor()
	run(dev)
}

// openSensor retries until the sensor comes up, reporting each failure
func openSensor() *adns.Device {
	for {
		spi, err := core.MustSPI().ConfigureBus(core.SPIConfig{
			BusID: sensorBus,
			Mode:  sensorMode,
			Rate:  sensorRate,
		})
		if err != nil {
			fault(protocol.FaultBegin, err)
			time.Sleep(time.Second)
			continue
		}

		cfg := adns.DefaultConfig(sensorCS)
		cfg.Firmware = sromFirmware()
		cfg.Sleep = adns.SleepDisabled
		dev := adns.New(spi, cfg)

		if err := dev.Begin(resolutionCPI, minSampleRate); err != nil {
			fault(protocol.FaultBegin, err)
			time.Sleep(time.Second)
			continue
		}
		if err := dev.SetMotionSensePinInterruptMode(motionPin); err != nil {
			fault(protocol.FaultBegin, err)
		}
		identify(dev)
		return dev
	}
}

func run(dev *adns.Device) {
	clock := core.MustClock()
	if err := dev.TriggerAcquisitionStart(); err != nil {
		fault(protocol.FaultBegin, err)
		return
	}
	last := clock.Micros()

	for {
		func() {
			defer func() {
				if r := recover(); r != nil {
					faults++
				}
			}()

			now := clock.Micros()
			if !dev.MotionPending() && core.ElapsedMicros(last, now) < idleReportMicros {
				return
			}
			last = now

			if err := dev.Update(drivers.Distance); err != nil {
				fault(protocol.FaultCapture, err)
				if faults%16 == 0 {
					core.DumpBusTrace()
				}
				return
			}
			c := dev.LastCapture()
			send(&protocol.Motion{
				DX:            int32(c.DX),
				DY:            int32(c.DY),
				DT:            c.DT,
				Motion:        c.Motion,
				ResolutionCPI: dev.Resolution(),
			})
		}()

		time.Sleep(50 * time.Microsecond)
	}
}

func identify(dev *adns.Device) {
	send(&protocol.Identify{
		ProductID:       adns.ProductID,
		RevisionID:      dev.RevisionID(),
		SROMID:          dev.SROMID(),
		ResolutionCPI:   dev.Resolution(),
		MinSamplePeriod: dev.MinSamplePeriod(),
		MaxSamplePeriod: dev.MaxSamplePeriod(),
		Firmware:        dev.FirmwareRevision(),
	})
}

func fault(code protocol.FaultCode, err error) {
	faults++
	core.DebugPrintln("[FAULT] " + code.String() + ": " + err.Error())
	send(&protocol.Fault{Code: code, Detail: err.Error()})
}

// send drops the report while the host is not reading
func send(r protocol.Report) {
	if usb.ShouldDrop() {
		return
	}
	_ = out.Send(r)
}
