package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"navsense/adns"
	"navsense/unit"
)

func testCmd(configPath string) *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("config", configPath, "")
	cmd.Flags().Int("resolution", 0, "")
	cmd.Flags().Bool("debug", false, "")
	return cmd
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0600))
	return p
}

func TestParseFile(t *testing.T) {
	p := writeConfig(t, `
serial:
  device: /dev/ttyACM3
spi:
  chip_select: 7
sensor:
  resolution: 3200
  sleep: delayed
units:
  position:
    distance: inches
    time: s
sample_interval: 5ms
`)
	desc := NewNavSenseDesc()
	require.NoError(t, desc.Parse(testCmd(p)))

	opt := desc.Opt
	assert.Equal(t, "/dev/ttyACM3", opt.Serial.Device)
	assert.Equal(t, uint32(7), opt.SPI.ChipSelect)
	assert.Equal(t, uint32(DefaultSPIRate), opt.SPI.Rate)
	assert.Equal(t, uint16(3200), opt.Sensor.Resolution)
	assert.Equal(t, 5*time.Millisecond, opt.SampleInterval)

	policy, err := opt.Sensor.SleepPolicy()
	require.NoError(t, err)
	assert.Equal(t, adns.SleepDelayed, policy)

	units, err := opt.ResolveUnits()
	require.NoError(t, err)
	assert.Equal(t, unit.Spec{Distance: unit.Inch, Time: unit.Second}, units.Position)
	assert.Equal(t, unit.Default, units.Velocity)
}

func TestParseEnvAndFlags(t *testing.T) {
	p := writeConfig(t, "sensor:\n  resolution: 3200\n")
	t.Setenv("NAVSENSE_SENSOR_MIN_SAMPLE_RATE", "1000")

	cmd := testCmd(p)
	require.NoError(t, cmd.Flags().Set("resolution", "400"))
	desc := NewNavSenseDesc()
	require.NoError(t, desc.Parse(cmd))

	assert.Equal(t, uint16(400), desc.Opt.Sensor.Resolution)
	assert.Equal(t, uint32(1000), desc.Opt.Sensor.MinSampleRate)
}

func TestParseMissingExplicitFile(t *testing.T) {
	desc := NewNavSenseDesc()
	err := desc.Parse(testCmd(filepath.Join(t.TempDir(), "missing.yaml")))
	assert.Error(t, err)
}

func TestBadUnitNames(t *testing.T) {
	opt := NewNavSenseOpt()
	opt.Units.Velocity.Distance = "furlong"
	_, err := opt.ResolveUnits()
	assert.ErrorIs(t, err, unit.ErrUnknownUnit)

	opt.Sensor.Sleep = "hibernate"
	_, err = opt.Sensor.SleepPolicy()
	assert.Error(t, err)
}

func TestLoadFirmware(t *testing.T) {
	opt := NewNavSenseOpt()
	fw, err := opt.Sensor.LoadFirmware()
	require.NoError(t, err)
	assert.Nil(t, fw)

	p := filepath.Join(t.TempDir(), "srom.bin")
	require.NoError(t, os.WriteFile(p, []byte{0x03, 0xA6}, 0600))
	opt.Sensor.Firmware = p
	opt.Sensor.FirmwareID = 0xA6
	fw, err = opt.Sensor.LoadFirmware()
	require.NoError(t, err)
	assert.Equal(t, &adns.Firmware{Image: []byte{0x03, 0xA6}, ID: 0xA6}, fw)
}

func TestDumpOption(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, DumpOption(NewNavSenseOpt(), out, false))

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	var back NavSenseOpt
	require.NoError(t, yaml.Unmarshal(raw, &back))
	assert.Equal(t, NewNavSenseOpt(), back)

	asked := false
	confirm = func(string) bool { asked = true; return false }
	defer func() { confirm = askForConfirmationDefaultYes }()
	require.NoError(t, DumpOption(NavSenseOpt{Debug: true}, out, false))
	assert.True(t, asked)

	raw2, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, raw, raw2)
}
