package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"navsense/host/serial"
	"navsense/host/stream"
)

func StreamCmdFlags(cmd *cobra.Command) {
	commonFlags(cmd)
	cmd.Flags().StringP("device", "d", "", "serial device of the sensor firmware")
	cmd.Flags().Bool("raw", false, "print raw counts instead of converted samples")
}

var StreamCmd = &cobra.Command{
	Use:   "stream",
	Short: "stream motion reports from the sensor firmware",
	Long: `stream reads framed motion reports from the sensor firmware over USB serial,
rebuilds position and velocity in the configured units and prints one line per report.`,
	Example: `  navsense stream -d /dev/ttyACM0`,
	RunE:    streamRunE,
}

func streamRunE(cmd *cobra.Command, _ []string) error {
	desc, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	units, err := desc.Opt.ResolveUnits()
	if err != nil {
		return err
	}
	raw, _ := cmd.Flags().GetBool("raw")

	port, err := serial.Open(desc.Opt.Serial)
	if err != nil {
		return err
	}
	defer func() { _ = port.Close() }()
	log.Infoln("streaming from", desc.Opt.Serial.Device)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	// closing the port unblocks the pending read
	context.AfterFunc(ctx, func() { _ = port.Close() })

	reader := stream.NewReader(port, units)
	samples := make(chan stream.Sample, 64)
	errc := make(chan error, 1)
	go func() {
		errc <- reader.Run(ctx, samples)
		close(samples)
	}()

	out := cmd.OutOrStdout()
	for s := range samples {
		printSample(out, s, units, raw)
	}

	err = <-errc
	st := reader.Stats()
	log.Infof("%d blocks, %d dropped, %d lost, %d faults", st.Blocks, st.Dropped, st.Lost, st.Faults)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func printSample(w io.Writer, s stream.Sample, units stream.Units, raw bool) {
	if raw {
		fmt.Fprintf(w, "%d dx=%d dy=%d dt=%d motion=%t cpi=%d\n",
			s.Seq, s.Raw.DX, s.Raw.DY, s.Raw.DT, s.Raw.Motion, s.Raw.ResolutionCPI)
		return
	}
	fmt.Fprintf(w, "%d pos=(%.4f, %.4f)%s t=%.3f vel=%.4f%s heading=%.3f\n",
		s.Seq,
		s.Position.X, s.Position.Y, units.Position.Distance, s.Position.T,
		s.Polar.R, units.Velocity, s.Polar.W)
}
