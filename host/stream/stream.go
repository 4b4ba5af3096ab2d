// Package stream rebuilds motion samples from the report stream a sensor
// firmware writes to its serial port.
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"

	"navsense/motion"
	"navsense/protocol"
	"navsense/unit"
)

// Units selects the output units for each derived quantity
type Units struct {
	Position     unit.Spec
	Displacement unit.Spec
	Velocity     unit.Spec
}

// DefaultUnits reports everything in millimetres and milliseconds
var DefaultUnits = Units{
	Position:     unit.Default,
	Displacement: unit.Default,
	Velocity:     unit.Default,
}

// Sample is one motion report converted to the reader's units
type Sample struct {
	Seq          uint32 // reports folded since the stream started
	Raw          protocol.Motion
	Displacement motion.Displacement
	Position     motion.Position
	Velocity     motion.Velocity
	Polar        motion.PolarVelocity
}

// Stats counts what the reader saw besides motion
type Stats struct {
	Blocks  int
	Dropped int // corrupt blocks discarded by the decoder
	Lost    int // blocks missing from the sequence
	Faults  int
	Unknown int
}

// Reader decodes reports from r and folds motion into a track
type Reader struct {
	r     io.Reader
	units Units
	dec   *protocol.Decoder
	track motion.Track

	identify *protocol.Identify
	lastSeq  uint8
	haveSeq  bool
	stats    Stats

	buf [256]byte
}

// NewReader creates a Reader. Position starts at the origin.
func NewReader(r io.Reader, units Units) *Reader {
	return &Reader{
		r:     r,
		units: units,
		dec:   protocol.NewDecoder(),
	}
}

// Run reads until r is exhausted, r fails or ctx is done, sending each
// sample to out. An exhausted reader returns nil. Closing the port is how a
// blocked Read is interrupted; Run then returns ctx.Err().
func (s *Reader) Run(ctx context.Context, out chan<- Sample) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := s.r.Read(s.buf[:])
		if n > 0 {
			if ferr := s.feed(ctx, s.buf[:n], out); ferr != nil {
				return ferr
			}
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read report stream: %w", err)
		}
	}
}

func (s *Reader) feed(ctx context.Context, p []byte, out chan<- Sample) error {
	for len(p) > 0 {
		n, _ := s.dec.Write(p)
		p = p[n:]

		for {
			blk, ok := s.dec.Next()
			if !ok {
				break
			}
			sample, ok := s.handle(blk)
			if !ok {
				continue
			}
			select {
			case out <- sample:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	s.stats.Dropped = s.dec.Dropped
	return nil
}

func (s *Reader) handle(blk protocol.Block) (Sample, bool) {
	s.stats.Blocks++
	if s.haveSeq {
		want := (s.lastSeq + 1) & protocol.MessageSeqMask
		if blk.Seq != want {
			gap := int((blk.Seq - want) & protocol.MessageSeqMask)
			s.stats.Lost += gap
			log.Debugf("stream: sequence gap, expected %d got %d", want, blk.Seq)
		}
	}
	s.lastSeq, s.haveSeq = blk.Seq, true

	r, err := protocol.Decode(blk.Payload)
	if err != nil {
		s.stats.Unknown++
		log.Debugf("stream: undecodable report: %v", err)
		return Sample{}, false
	}

	switch m := r.(type) {
	case *protocol.Identify:
		s.identify = m
		s.track.Reset()
		log.Infof("sensor product 0x%02X %s cpi=%d period=%d..%dus",
			m.ProductID, m.Firmware, m.ResolutionCPI, m.MinSamplePeriod, m.MaxSamplePeriod)
	case *protocol.Fault:
		s.stats.Faults++
		log.Warnf("sensor fault (%s): %s", m.Code, m.Detail)
	case *protocol.Motion:
		return s.fold(m), true
	}
	return Sample{}, false
}

func (s *Reader) fold(m *protocol.Motion) Sample {
	cpi := m.ResolutionCPI
	if cpi == 0 && s.identify != nil {
		cpi = s.identify.ResolutionCPI
	}
	var inchPerCount float64
	if cpi != 0 {
		inchPerCount = 1 / float64(cpi)
	}
	s.track.Fold(float64(m.DX)*inchPerCount, float64(m.DY)*inchPerCount, m.DT)

	return Sample{
		Seq:          s.track.Count(),
		Raw:          *m,
		Displacement: s.track.Displacement(s.units.Displacement),
		Position:     s.track.Position(s.units.Position),
		Velocity:     s.track.Velocity(s.units.Velocity),
		Polar:        s.track.PolarVelocity(s.units.Velocity),
	}
}

// Identify returns the last identify report, or nil before one arrived
func (s *Reader) Identify() *protocol.Identify {
	return s.identify
}

// Stats returns the counters so far
func (s *Reader) Stats() Stats {
	return s.stats
}

// Position returns the accumulated position in the position units
func (s *Reader) Position() motion.Position {
	return s.track.Position(s.units.Position)
}
