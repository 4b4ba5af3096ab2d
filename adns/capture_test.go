package adns

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"navsense/motion"
	"navsense/unit"
)

var inchMicros = unit.Spec{Distance: unit.Inch, Time: unit.Microsecond}

func startedDevice(t *testing.T, chip *fakeChip, mutate func(*Config)) *Device {
	t.Helper()
	dev := newTestDevice(chip, mutate)
	require.NoError(t, dev.Begin(800, 2000))
	require.NoError(t, dev.SetPositionUnits(inchMicros.Distance, inchMicros.Time))
	require.NoError(t, dev.SetDisplacementUnits(inchMicros.Distance, inchMicros.Time))
	require.NoError(t, dev.TriggerAcquisitionStart())
	return dev
}

func cycle(t *testing.T, dev *Device) {
	t.Helper()
	require.NoError(t, dev.TriggerSampleCapture())
	require.NoError(t, dev.TriggerPositionUpdate())
}

func TestPositionAccumulates(t *testing.T) {
	for _, burst := range []bool{true, false} {
		chip := newFakeChip()
		dev := startedDevice(t, chip, func(c *Config) { c.Burst = burst })

		chip.push(80, -40)
		chip.advance(1000)
		cycle(t, dev)
		chip.push(-8, 400)
		chip.advance(1000)
		cycle(t, dev)

		pos := dev.ReadPosition()
		assert.InDelta(t, 72.0/800, pos.X, 1e-12, "burst=%v", burst)
		assert.InDelta(t, 360.0/800, pos.Y, 1e-12, "burst=%v", burst)

		d := dev.ReadDisplacement()
		assert.InDelta(t, -8.0/800, d.DX, 1e-12)
		assert.InDelta(t, 400.0/800, d.DY, 1e-12)
	}
}

func TestPositionAcrossUnitChanges(t *testing.T) {
	chip := newFakeChip()
	dev := startedDevice(t, chip, nil)

	require.NoError(t, dev.SetPositionUnits(unit.Millimeter, unit.Millisecond))
	chip.push(800, 0)
	cycle(t, dev)
	assert.InDelta(t, 25.4, dev.ReadPosition().X, 1e-9)

	require.NoError(t, dev.SetPositionUnits(unit.Inch, unit.Second))
	chip.push(400, 0)
	cycle(t, dev)
	assert.InDelta(t, 1.5, dev.ReadPosition().X, 1e-12)
}

func TestResolutionChangeIsNotRetroactive(t *testing.T) {
	chip := newFakeChip()
	dev := startedDevice(t, chip, nil)

	chip.push(800, 0)
	cycle(t, dev)
	_, err := dev.SetResolution(1600)
	require.NoError(t, err)
	chip.push(800, 0)
	cycle(t, dev)

	assert.InDelta(t, 1.5, dev.ReadPosition().X, 1e-12)
}

func TestNonBurstSkipsDeltasWithoutMotion(t *testing.T) {
	chip := newFakeChip()
	dev := startedDevice(t, chip, func(c *Config) { c.Burst = false })
	chip.reads = nil

	cycle(t, dev)
	assert.Equal(t, []Register{RegMotion}, chip.reads)
	assert.False(t, dev.LastCapture().Motion)
	assert.Zero(t, dev.LastCapture().DX)

	chip.reads = nil
	chip.push(1, 2)
	cycle(t, dev)
	assert.Equal(t, []Register{RegMotion, RegDeltaXL, RegDeltaXH, RegDeltaYL, RegDeltaYH}, chip.reads)
	assert.True(t, dev.LastCapture().Motion)
}

func TestBurstReadsNegativeCounts(t *testing.T) {
	chip := newFakeChip()
	dev := startedDevice(t, chip, nil)

	chip.push(-1, -32768)
	cycle(t, dev)
	c := dev.LastCapture()
	assert.Equal(t, int16(-1), c.DX)
	assert.Equal(t, int16(-32768), c.DY)
	assert.Equal(t, []byte{0}, chip.wrote(RegMotionBurst))
}

func TestSampleTimingAcrossWrap(t *testing.T) {
	chip := newFakeChip()
	dev := newTestDevice(chip, nil)
	require.NoError(t, dev.Begin(800, 2000))
	chip.now = 0xFFFFFF00
	require.NoError(t, dev.SetPositionUnits(unit.Inch, unit.Microsecond))
	require.NoError(t, dev.TriggerAcquisitionStart())
	start := chip.now

	chip.advance(0x200)
	cycle(t, dev)
	first := dev.LastCapture()
	assert.Equal(t, uint32(0x200), first.DT)
	assert.Equal(t, uint64(0x200), first.Elapsed)

	afterRead := chip.now
	chip.advance(5000)
	cycle(t, dev)
	second := dev.LastCapture()
	assert.Equal(t, afterRead+5000-(start+0x200), second.DT)
	assert.Equal(t, first.Elapsed+uint64(second.DT), second.Elapsed)

	assert.Equal(t, float64(second.Elapsed), dev.ReadPosition().T)
}

func TestVelocity(t *testing.T) {
	chip := newFakeChip()
	dev := startedDevice(t, chip, nil)
	require.NoError(t, dev.SetVelocityUnits(unit.Inch, unit.Microsecond))

	chip.push(800, 0)
	chip.advance(1000)
	cycle(t, dev)
	c := dev.LastCapture()
	require.Equal(t, uint32(1000), c.DT)
	want := motion.Velocity{X: 1.0 / float64(c.DT), Y: 0}
	if diff := cmp.Diff(want, dev.ReadVelocity(), cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("ReadVelocity() mismatch (-want +got):\n%s", diff)
	}
	p := dev.ReadVelocityPolar()
	assert.InDelta(t, want.X, p.R, 1e-12)
	assert.InDelta(t, 0, p.W, 1e-12)
}

func TestIllegalTransitions(t *testing.T) {
	chip := newFakeChip()
	dev := newTestDevice(chip, nil)

	assert.ErrorIs(t, dev.TriggerAcquisitionStart(), ErrIllegalState)
	assert.ErrorIs(t, dev.TriggerSampleCapture(), ErrIllegalState)
	assert.Equal(t, StateUninitialized, dev.State())

	require.NoError(t, dev.Begin(800, 2000))
	err := dev.TriggerSampleCapture()
	var te *TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, StateConfigured, te.From)
	assert.Equal(t, StateConfigured, dev.State())

	require.NoError(t, dev.TriggerAcquisitionStart())
	assert.ErrorIs(t, dev.TriggerPositionUpdate(), ErrIllegalState)
	assert.ErrorIs(t, dev.TriggerAcquisitionStart(), ErrIllegalState)
	assert.ErrorIs(t, dev.Shutdown(), ErrIllegalState)
	assert.Equal(t, StateIdle, dev.State())
}

func TestStopIsIdempotent(t *testing.T) {
	chip := newFakeChip()
	dev := startedDevice(t, chip, nil)
	chip.push(8, 8)
	cycle(t, dev)

	require.NoError(t, dev.TriggerAcquisitionStop())
	pos := dev.ReadPosition()
	require.NoError(t, dev.TriggerAcquisitionStop())
	assert.Equal(t, StateStopped, dev.State())
	assert.Equal(t, pos, dev.ReadPosition())

	assert.ErrorIs(t, dev.TriggerSampleCapture(), ErrIllegalState)
}

func TestStopBeforeStartRejected(t *testing.T) {
	chip := newFakeChip()
	dev := newTestDevice(chip, nil)
	require.NoError(t, dev.Begin(800, 2000))
	assert.ErrorIs(t, dev.TriggerAcquisitionStop(), ErrIllegalState)
}

func TestPendingCaptureIsFolded(t *testing.T) {
	chip := newFakeChip()
	dev := startedDevice(t, chip, nil)

	chip.push(80, 0)
	require.NoError(t, dev.TriggerSampleCapture())
	chip.push(80, 0)
	require.NoError(t, dev.TriggerSampleCapture())
	assert.Equal(t, StateCaptured, dev.State())
	assert.Equal(t, uint32(1), dev.Samples())

	require.NoError(t, dev.TriggerAcquisitionStop())
	assert.Equal(t, uint32(2), dev.Samples())
	assert.InDelta(t, 0.2, dev.ReadPosition().X, 1e-12)
}

func TestAutoUpdate(t *testing.T) {
	chip := newFakeChip()
	dev := startedDevice(t, chip, func(c *Config) { c.AutoUpdate = true })

	chip.push(160, 0)
	require.NoError(t, dev.TriggerSampleCapture())
	assert.Equal(t, StateIdle, dev.State())
	assert.InDelta(t, 0.2, dev.ReadPosition().X, 1e-12)

	require.NoError(t, dev.TriggerPositionUpdate())
	assert.Equal(t, uint32(1), dev.Samples())
}

func TestRestartResetsPosition(t *testing.T) {
	chip := newFakeChip()
	dev := startedDevice(t, chip, nil)
	chip.push(800, 800)
	cycle(t, dev)
	require.NoError(t, dev.TriggerAcquisitionStop())
	require.NoError(t, dev.TriggerAcquisitionStart())

	assert.Equal(t, motion.Position{}, dev.ReadPosition())
	assert.Equal(t, Capture{}, dev.LastCapture())
}

func TestCaptureTransportErrorKeepsState(t *testing.T) {
	chip := newFakeChip()
	dev := startedDevice(t, chip, nil)

	chip.failAfter = 1
	err := dev.TriggerSampleCapture()
	require.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, StateIdle, dev.State())
	assert.False(t, dev.Bus().Selected())

	chip.push(8, 0)
	cycle(t, dev)
	assert.Equal(t, uint32(1), dev.Samples())
}

func TestBeginCaptureReadPositionMillimeters(t *testing.T) {
	chip := newFakeChip()
	dev := newTestDevice(chip, nil)
	require.NoError(t, dev.Begin(800, 100))
	require.NoError(t, dev.SetPositionUnits(unit.Millimeter, unit.Millisecond))
	require.NoError(t, dev.TriggerAcquisitionStart())

	chip.push(10, -5)
	chip.advance(5000)
	cycle(t, dev)

	c := dev.LastCapture()
	require.GreaterOrEqual(t, c.Elapsed, uint64(5000))
	want := motion.Position{X: 10 * 25.4 / 800, Y: -5 * 25.4 / 800, T: float64(c.Elapsed) / 1000}
	if diff := cmp.Diff(want, dev.ReadPosition(), cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("ReadPosition() mismatch (-want +got):\n%s", diff)
	}
}
