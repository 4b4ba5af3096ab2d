package adns

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"navsense/core"
)

func newTestBus(chip *fakeChip) *Bus {
	b := newBus(chip, chip, testCS, chip, DefaultTiming)
	if err := b.configure(); err != nil {
		panic(err)
	}
	return b
}

func TestReadRegisterFraming(t *testing.T) {
	chip := newFakeChip()
	chip.powerOn()
	b := newTestBus(chip)

	v, err := b.ReadRegister(RegRevisionID)
	require.NoError(t, err)
	assert.Equal(t, byte(0x03), v)
	assert.Equal(t, 2, chip.transfers)
	assert.Equal(t, 2, chip.csEdges)
	assert.True(t, chip.csHigh)

	// tSRAD + hold + recovery
	assert.Equal(t, 120*time.Microsecond, chip.delays)
}

func TestWriteRegisterFraming(t *testing.T) {
	chip := newFakeChip()
	b := newTestBus(chip)

	require.NoError(t, b.WriteRegister(RegLiftDetectionThr, 0x10))
	assert.Equal(t, []regOp{{RegLiftDetectionThr, 0x10}}, chip.writes)
	assert.Equal(t, []time.Duration{DefaultTiming.WriteAddress}, chip.writeGaps)

	// address gap + hold + recovery
	assert.Equal(t, 220*time.Microsecond, chip.delays)
	assert.True(t, chip.csHigh)
}

func TestSelectWhileSelected(t *testing.T) {
	core.ClearBusTrace()
	chip := newFakeChip()
	b := newTestBus(chip)

	require.NoError(t, b.Select())
	edges := chip.csEdges
	assert.ErrorIs(t, b.Select(), ErrBusBusy)

	_, err := b.ReadRegister(RegMotion)
	assert.ErrorIs(t, err, ErrBusBusy)
	assert.Equal(t, edges, chip.csEdges)
	assert.Zero(t, chip.transfers)
	assert.True(t, b.Selected())

	require.NoError(t, b.Deselect())
	assert.False(t, b.Selected())
	_, err = b.ReadRegister(RegMotion)
	assert.NoError(t, err)

	trace := core.BusTrace()
	require.NotEmpty(t, trace)
	assert.Equal(t, uint8(core.EvtBusBusy), trace[0].Kind)
}

func TestTransportErrorDeselects(t *testing.T) {
	chip := newFakeChip()
	b := newTestBus(chip)

	chip.failAfter = 2
	_, err := b.ReadRegister(RegProductID)
	require.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, errFakeTransfer)
	assert.Contains(t, err.Error(), "Product_ID")
	assert.True(t, chip.csHigh)
	assert.False(t, b.Selected())

	chip.failAfter = 1
	require.ErrorIs(t, b.BurstRead(RegMotionBurst, make([]byte, 4)), ErrTransport)
	assert.True(t, chip.csHigh)
}

func TestBurstWriteOrderAndGap(t *testing.T) {
	chip := newFakeChip()
	b := newTestBus(chip)

	data := []byte{9, 8, 7, 6}
	require.NoError(t, b.BurstWrite(RegSROMLoadBurst, data, 15*time.Microsecond))
	assert.Equal(t, data, chip.srom)
	assert.Equal(t, 5*15*time.Microsecond+DefaultTiming.SROMExit, chip.delays)
	assert.Empty(t, chip.writes)
}

func TestResetPortPulses(t *testing.T) {
	chip := newFakeChip()
	b := newTestBus(chip)
	require.NoError(t, b.ResetPort())
	assert.Equal(t, 2, chip.csEdges)
	assert.True(t, chip.csHigh)
}

func TestPairs(t *testing.T) {
	chip := newFakeChip()
	chip.powerOn()
	b := newTestBus(chip)

	v, err := b.readPair(RegFramePeriodLower, RegFramePeriodUpper)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x5DC0), v)
	assert.Equal(t, []Register{RegFramePeriodUpper, RegFramePeriodLower}, chip.reads)

	require.NoError(t, b.writePair(RegShutterMaxBoundL, RegShutterMaxBoundU, 0x1234))
	assert.Equal(t, []regOp{{RegShutterMaxBoundL, 0x34}, {RegShutterMaxBoundU, 0x12}}, chip.writes)
}
