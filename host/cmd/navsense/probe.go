package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"navsense/host/serial"
	"navsense/host/stream"
	"navsense/protocol"
)

func ProbeCmdFlags(cmd *cobra.Command) {
	commonFlags(cmd)
	cmd.Flags().Bool("spi", false, "probe the sensor on the configured SPI port instead of serial")
	cmd.Flags().Duration("timeout", 2*time.Second, "how long to listen on each serial port")
}

var ProbeCmd = &cobra.Command{
	Use: "probe",
	SuggestFor: []string{
		"pro", "pr", "prob",
	},
	Short: "probe the compatible devices",
	Long: `probe the compatible devices.
Without --spi every USB serial port is opened and listened to for sensor reports.
With --spi the sensor on the configured spidev port is powered up and identified.`,
	Example: `  navsense probe
  navsense probe --spi`,
	RunE: probeRunE,
}

func probeRunE(cmd *cobra.Command, _ []string) error {
	desc, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if useSPI, _ := cmd.Flags().GetBool("spi"); useSPI {
		adapter, dev, err := openDevice(desc.Opt)
		if err != nil {
			return err
		}
		defer func() { _ = adapter.Close() }()
		defer func() { _ = dev.Shutdown() }()

		period, err := dev.ReadFramePeriod()
		if err != nil {
			return err
		}
		s := dev.Settings()
		fmt.Fprintf(out, "%s: %s cpi=%d period=%d..%dus frame=%dus\n",
			desc.Opt.SPI.Bus, s.FirmwareRevision, s.ResolutionCPI, s.MinSamplePeriod, s.MaxSamplePeriod, period)
		return nil
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	found := 0
	for _, dev := range serial.ListPorts() {
		id, err := probePort(cmd.Context(), dev, timeout)
		if err != nil {
			log.Debugf("%s: %v", dev, err)
			continue
		}
		found++
		fmt.Fprintf(out, "%s: product 0x%02X %s cpi=%d\n", dev, id.ProductID, id.Firmware, id.ResolutionCPI)
	}
	if found == 0 {
		return errors.New("no sensor found")
	}
	return nil
}

var errNoIdentify = errors.New("no identify report")

// probePort listens on one port until an identify report arrives or the
// timeout passes. Motion reports alone still count as a sensor.
func probePort(ctx context.Context, device string, timeout time.Duration) (*protocol.Identify, error) {
	port, err := serial.Open(serial.DefaultConfig(device))
	if err != nil {
		return nil, err
	}
	defer func() { _ = port.Close() }()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	context.AfterFunc(ctx, func() { _ = port.Close() })

	reader := stream.NewReader(port, stream.DefaultUnits)
	samples := make(chan stream.Sample, 1)
	go func() {
		for range samples {
			cancel()
		}
	}()
	_ = reader.Run(ctx, samples)
	close(samples)

	if id := reader.Identify(); id != nil {
		return id, nil
	}
	if reader.Stats().Blocks > 0 {
		return &protocol.Identify{Firmware: "(no identify)"}, nil
	}
	return nil, errNoIdentify
}
